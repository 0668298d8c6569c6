// Package strategy implements the five built-in placement algorithms
// (Ketama, Jump, Rendezvous, Maglev, Bounded-load) plus a Custom escape
// hatch, behind one Strategy interface (spec §4.4, §9 "opaque handles
// over inheritance").
package strategy

import "github.com/cuemby/ringplace/pkg/node"

// Kind tags which built-in algorithm (or Custom) a Strategy implements.
// The ring records this tag next to the Strategy value it holds,
// mirroring the C source's clusterStrategyType enum (spec §9).
type Kind int

const (
	Ketama Kind = iota
	Jump
	Rendezvous
	Maglev
	Bounded
	CustomKind
)

func (k Kind) String() string {
	switch k {
	case Ketama:
		return "ketama"
	case Jump:
		return "jump"
	case Rendezvous:
		return "rendezvous"
	case Maglev:
		return "maglev"
	case Bounded:
		return "bounded"
	case CustomKind:
		return "custom"
	default:
		return "unknown"
	}
}

// Strategy is the uniform operation every algorithm exposes (spec §4.4):
// deterministic locate given the current indexed node set. Rebuild is
// called lazily by the owning ring exactly once before the first Locate
// following a registry mutation (spec §4.4, §9 "lazy index rebuild").
type Strategy interface {
	Kind() Kind
	MarkDirty()
	IsDirty() bool
	Rebuild(nodes []*node.Node)
	// Locate returns up to maxReplicas distinct node ids from the
	// currently indexed node set, in preference order for key. It does
	// not filter by eligibility state or affinity — that is the
	// placement resolver's job (spec §4.5).
	Locate(key []byte, maxReplicas int) []uint64
}

// Config bundles the knobs that select and parametrize a built-in
// strategy (spec §6 "Configuration options (ring)").
type Config struct {
	Seed uint32

	Vnode VnodeConfig // Ketama/Bounded

	MaglevTableHint uint32 // optional override; 0 means derive from node count

	BoundedLoadFactor float64 // Bounded
}

// VnodeConfig controls Ketama's virtual-node sizing (spec §4.4.1).
type VnodeConfig struct {
	Multiplier    uint32
	MinPerNode    uint32
	MaxPerNode    uint32
	ReplicaSpread bool
}

// DefaultVnodeConfig gives each node 4 vnodes per unit of weight (400 for
// a weight-100 node), clamped to at least 4 and at most 4096.
func DefaultVnodeConfig() VnodeConfig {
	return VnodeConfig{Multiplier: 4, MinPerNode: 4, MaxPerNode: 4096}
}

// New constructs the built-in strategy for kind, or returns a nil
// Strategy for CustomKind (the ring wraps a *CustomStrategy itself — see
// custom.go).
func New(kind Kind, cfg Config) Strategy {
	switch kind {
	case Ketama:
		return newKetama(cfg.Seed, cfg.Vnode)
	case Jump:
		return newJump(cfg.Seed)
	case Rendezvous:
		return newRendezvous(cfg.Seed)
	case Maglev:
		return newMaglev(cfg.Seed, cfg.MaglevTableHint)
	case Bounded:
		loadFactor := cfg.BoundedLoadFactor
		if loadFactor == 0 {
			loadFactor = 0.25
		}
		return newBounded(cfg.Seed, cfg.Vnode, loadFactor)
	default:
		return nil
	}
}
