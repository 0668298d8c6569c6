// Package config loads ring, node, and keyspace definitions from YAML,
// the way cmd/warren's apply command loads resource manifests, and
// translates them into the typed ring.Config/node.Config/ring.Keyspace
// values the engine actually consumes.
package config

import (
	"fmt"
	"os"

	"github.com/cuemby/ringplace/pkg/node"
	"github.com/cuemby/ringplace/pkg/quorum"
	"github.com/cuemby/ringplace/pkg/ring"
	"github.com/cuemby/ringplace/pkg/strategy"
	"github.com/cuemby/ringplace/pkg/topology"
	"gopkg.in/yaml.v3"
)

// File is the top-level shape of a ring manifest.
type File struct {
	APIVersion string   `yaml:"apiVersion"`
	Kind       string   `yaml:"kind"`
	Ring       RingSpec `yaml:"ring"`
}

// RingSpec configures the ring itself plus its initial node and keyspace
// membership.
type RingSpec struct {
	Name              string         `yaml:"name"`
	Strategy          string         `yaml:"strategy"`
	HashSeed          uint32         `yaml:"hashSeed"`
	ExpectedNodeCount uint32         `yaml:"expectedNodeCount"`
	Vnode             VnodeSpec      `yaml:"vnode"`
	Quorum            QuorumSpec     `yaml:"quorum"`
	AffinityRules     []RuleSpec     `yaml:"affinityRules"`
	BoundedLoadFactor float64        `yaml:"boundedLoadFactor"`
	MaglevTableHint   uint32         `yaml:"maglevTableHint"`
	Nodes             []NodeSpec     `yaml:"nodes"`
	Keyspaces         []KeyspaceSpec `yaml:"keyspaces"`
}

// VnodeSpec mirrors strategy.VnodeConfig.
type VnodeSpec struct {
	Multiplier    uint32 `yaml:"multiplier"`
	MinPerNode    uint32 `yaml:"minPerNode"`
	MaxPerNode    uint32 `yaml:"maxPerNode"`
	ReplicaSpread bool   `yaml:"replicaSpread"`
}

// QuorumSpec mirrors quorum.Policy.
type QuorumSpec struct {
	ReplicaCount int    `yaml:"replicaCount"`
	Level        string `yaml:"level"`
	WriteQuorum  int    `yaml:"writeQuorum"`
	ReadQuorum   int    `yaml:"readQuorum"`
	LocalDC      uint32 `yaml:"localDC"`
	ReadRepair   bool   `yaml:"readRepair"`
}

// RuleSpec mirrors topology.Rule.
type RuleSpec struct {
	Level     string `yaml:"level"`
	MinSpread int    `yaml:"minSpread"`
	Required  bool   `yaml:"required"`
}

// LocationSpec mirrors topology.Location.
type LocationSpec struct {
	RackID      uint32 `yaml:"rackID"`
	CageID      uint32 `yaml:"cageID"`
	DCID        uint32 `yaml:"dcID"`
	AZID        uint32 `yaml:"azID"`
	RegionID    uint32 `yaml:"regionID"`
	CountryID   uint16 `yaml:"countryID"`
	ContinentID uint8  `yaml:"continentID"`
}

// NodeSpec is one member of the initial node set.
type NodeSpec struct {
	ID            uint64       `yaml:"id"`
	Name          string       `yaml:"name"`
	Address       string       `yaml:"address"`
	Location      LocationSpec `yaml:"location"`
	Weight        uint32       `yaml:"weight"`
	CapacityBytes uint64       `yaml:"capacityBytes"`
	InitialState  string       `yaml:"initialState"`
}

// KeyspaceSpec is one named override.
type KeyspaceSpec struct {
	Name          string     `yaml:"name"`
	Quorum        QuorumSpec `yaml:"quorum"`
	AffinityRules []RuleSpec `yaml:"affinityRules"`
}

// Load reads and parses a ring manifest from path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &f, nil
}

// ParseStrategyKind maps a manifest's strategy name to its Kind.
func ParseStrategyKind(s string) (strategy.Kind, error) {
	switch s {
	case "ketama", "":
		return strategy.Ketama, nil
	case "jump":
		return strategy.Jump, nil
	case "rendezvous":
		return strategy.Rendezvous, nil
	case "maglev":
		return strategy.Maglev, nil
	case "bounded":
		return strategy.Bounded, nil
	default:
		return 0, fmt.Errorf("unknown strategy %q", s)
	}
}

// ParseQuorumLevel maps a manifest's level name to its quorum.Level.
func ParseQuorumLevel(s string) (quorum.Level, error) {
	switch s {
	case "one", "":
		return quorum.One, nil
	case "quorum":
		return quorum.Quorum, nil
	case "all":
		return quorum.All, nil
	case "local_one":
		return quorum.LocalOne, nil
	case "local_quorum":
		return quorum.LocalQuorum, nil
	case "each_quorum":
		return quorum.EachQuorum, nil
	default:
		return 0, fmt.Errorf("unknown quorum level %q", s)
	}
}

// ParseTopologyLevel maps a manifest's level name to its topology.Level.
func ParseTopologyLevel(s string) (topology.Level, error) {
	switch s {
	case "rack":
		return topology.LevelRack, nil
	case "cage":
		return topology.LevelCage, nil
	case "datacenter":
		return topology.LevelDatacenter, nil
	case "availability_zone":
		return topology.LevelAvailabilityZone, nil
	case "region":
		return topology.LevelRegion, nil
	case "country":
		return topology.LevelCountry, nil
	case "continent":
		return topology.LevelContinent, nil
	default:
		return 0, fmt.Errorf("unknown topology level %q", s)
	}
}

func (s RuleSpec) toRule() (topology.Rule, error) {
	level, err := ParseTopologyLevel(s.Level)
	if err != nil {
		return topology.Rule{}, err
	}
	return topology.Rule{Level: level, MinSpread: s.MinSpread, Required: s.Required}, nil
}

func toRules(specs []RuleSpec) ([]topology.Rule, error) {
	rules := make([]topology.Rule, 0, len(specs))
	for _, s := range specs {
		r, err := s.toRule()
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, nil
}

func (s QuorumSpec) toPolicy() (quorum.Policy, error) {
	level, err := ParseQuorumLevel(s.Level)
	if err != nil {
		return quorum.Policy{}, err
	}
	return quorum.Policy{
		ReplicaCount: s.ReplicaCount,
		Level:        level,
		WriteQuorum:  s.WriteQuorum,
		ReadQuorum:   s.ReadQuorum,
		LocalDC:      s.LocalDC,
		ReadRepair:   s.ReadRepair,
	}, nil
}

func (s NodeSpec) toConfig() node.Config {
	state := node.State(s.InitialState)
	return node.Config{
		ID:      s.ID,
		Name:    s.Name,
		Address: s.Address,
		Location: topology.Location{
			NodeID:      s.ID,
			RackID:      s.Location.RackID,
			CageID:      s.Location.CageID,
			DCID:        s.Location.DCID,
			AZID:        s.Location.AZID,
			RegionID:    s.Location.RegionID,
			CountryID:   s.Location.CountryID,
			ContinentID: s.Location.ContinentID,
		},
		Weight:        s.Weight,
		CapacityBytes: s.CapacityBytes,
		InitialState:  state,
	}
}

// ToRingConfig translates the manifest's ring section into a ring.Config.
// Custom strategies are not representable in YAML; manifests naming a
// built-in strategy only.
func (f *File) ToRingConfig() (ring.Config, error) {
	kind, err := ParseStrategyKind(f.Ring.Strategy)
	if err != nil {
		return ring.Config{}, err
	}
	quorumPolicy, err := f.Ring.Quorum.toPolicy()
	if err != nil {
		return ring.Config{}, err
	}
	rules, err := toRules(f.Ring.AffinityRules)
	if err != nil {
		return ring.Config{}, err
	}
	return ring.Config{
		Name:         f.Ring.Name,
		StrategyType: kind,
		Vnode: strategy.VnodeConfig{
			Multiplier:    f.Ring.Vnode.Multiplier,
			MinPerNode:    f.Ring.Vnode.MinPerNode,
			MaxPerNode:    f.Ring.Vnode.MaxPerNode,
			ReplicaSpread: f.Ring.Vnode.ReplicaSpread,
		},
		DefaultQuorum:     quorumPolicy,
		AffinityRules:     rules,
		ExpectedNodeCount: f.Ring.ExpectedNodeCount,
		HashSeed:          f.Ring.HashSeed,
		MaglevTableHint:   f.Ring.MaglevTableHint,
		BoundedLoadFactor: f.Ring.BoundedLoadFactor,
	}, nil
}

// Apply builds a new Ring from the manifest and adds every node and
// keyspace it names. Node or keyspace failures are collected, not
// aborted on first error (SPEC_FULL.md §6 "batch node add" semantics
// apply equally to a manifest's initial membership).
func Apply(f *File) (*ring.Ring, []error) {
	cfg, err := f.ToRingConfig()
	if err != nil {
		return nil, []error{err}
	}
	r := ring.New(cfg)

	var errs []error
	cfgs := make([]node.Config, len(f.Ring.Nodes))
	for i, n := range f.Ring.Nodes {
		cfgs[i] = n.toConfig()
	}
	if _, addErrs := r.AddNodes(cfgs); len(addErrs) > 0 {
		errs = append(errs, addErrs...)
	}

	for _, ks := range f.Ring.Keyspaces {
		policy, err := ks.Quorum.toPolicy()
		if err != nil {
			errs = append(errs, fmt.Errorf("keyspace %s: %w", ks.Name, err))
			continue
		}
		rules, err := toRules(ks.AffinityRules)
		if err != nil {
			errs = append(errs, fmt.Errorf("keyspace %s: %w", ks.Name, err))
			continue
		}
		if err := r.AddKeyspace(&ring.Keyspace{Name: ks.Name, Quorum: policy, AffinityRules: rules}); err != nil {
			errs = append(errs, err)
		}
	}

	return r, errs
}
