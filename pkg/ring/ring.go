// Package ring assembles the node registry, strategy engine, quorum
// planner, rebalance planner, and snapshot codec into the single
// placement-engine entry point described by spec §2-§4: the Ring.
package ring

import (
	"time"

	"github.com/cuemby/ringplace/pkg/log"
	"github.com/cuemby/ringplace/pkg/node"
	"github.com/cuemby/ringplace/pkg/quorum"
	"github.com/cuemby/ringplace/pkg/rebalance"
	"github.com/cuemby/ringplace/pkg/registry"
	"github.com/cuemby/ringplace/pkg/ringerr"
	"github.com/cuemby/ringplace/pkg/snapshot"
	"github.com/cuemby/ringplace/pkg/strategy"
	"github.com/cuemby/ringplace/pkg/topology"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Config bundles the knobs that create a Ring (spec §6 "Configuration
// options (ring)").
type Config struct {
	Name              string
	StrategyType      strategy.Kind
	CustomStrategy    *strategy.CustomStrategy // required iff StrategyType == CustomKind
	Vnode             strategy.VnodeConfig
	DefaultQuorum     quorum.Policy
	AffinityRules     []topology.Rule
	ExpectedNodeCount uint32
	HashSeed          uint32
	MaglevTableHint   uint32
	BoundedLoadFactor float64
}

// Keyspace is a named override of quorum, affinity rules, and strategy
// for keys routed through it (spec §3). It owns its own counters and no
// nodes.
type Keyspace struct {
	Name             string
	Quorum           quorum.Policy
	AffinityRules    []topology.Rule
	StrategyOverride strategy.Strategy // nil means inherit the ring default

	stats Stats
}

// Ring is the engine's single entry point: it owns every node, keyspace,
// strategy index, and rebalance plan reachable from it (spec §5 "Shared
// resources").
type Ring struct {
	name       string
	instanceID uuid.UUID
	seed       uint32
	vnode      strategy.VnodeConfig

	registry      *registry.Registry
	strategyKind  strategy.Kind
	strategy      strategy.Strategy
	planner       rebalance.Planner
	defaultQuorum quorum.Policy
	affinityRules []topology.Rule

	keyspaces map[string]*Keyspace

	version        uint64
	lastModifiedAt time.Time
	currentPlan    *rebalance.Plan
	changelog      []snapshot.DeltaRecord

	stats Stats

	onStateChange   StateChangeCallback
	onRebalancePlan RebalanceCallback

	log zerolog.Logger
	now func() time.Time
}

// New constructs an empty Ring from cfg (spec §6).
func New(cfg Config) *Ring {
	now := time.Now
	reg := registry.New(cfg.ExpectedNodeCount)
	reg.SetClock(now)

	r := &Ring{
		name:          cfg.Name,
		instanceID:    uuid.New(),
		seed:          cfg.HashSeed,
		vnode:         cfg.Vnode,
		registry:      reg,
		strategyKind:  cfg.StrategyType,
		defaultQuorum: cfg.DefaultQuorum,
		affinityRules: append([]topology.Rule(nil), cfg.AffinityRules...),
		keyspaces:     make(map[string]*Keyspace),
		now:           now,
		log:           log.Logger.With().Str("ring", cfg.Name).Logger(),
	}

	if cfg.StrategyType == strategy.CustomKind {
		r.strategy = cfg.CustomStrategy
		r.planner = rebalance.RendezvousPlanner{} // trivial planner; custom strategies plan their own moves externally
	} else {
		r.strategy = strategy.New(cfg.StrategyType, strategy.Config{
			Seed:              cfg.HashSeed,
			Vnode:             cfg.Vnode,
			MaglevTableHint:   cfg.MaglevTableHint,
			BoundedLoadFactor: cfg.BoundedLoadFactor,
		})
		r.planner = plannerFor(cfg.StrategyType, cfg.HashSeed, cfg.Vnode)
	}

	reg.OnStateChange(func(id uint64, old, next node.State) {
		r.log.Info().Uint64("node_id", id).Str("old", string(old)).Str("new", string(next)).Msg("node state changed")
		if r.onStateChange != nil {
			r.onStateChange(r, id, old, next)
		}
	})

	r.lastModifiedAt = now()
	return r
}

func plannerFor(kind strategy.Kind, seed uint32, cfg strategy.VnodeConfig) rebalance.Planner {
	switch kind {
	case strategy.Ketama, strategy.Bounded:
		return rebalance.NewKetamaPlanner(seed, cfg)
	case strategy.Maglev:
		return rebalance.MaglevPlanner{}
	default:
		return rebalance.RendezvousPlanner{}
	}
}

// Name returns the ring's display label.
func (r *Ring) Name() string { return r.name }

// Version returns the monotonic version counter (spec §4.8).
func (r *Ring) Version() uint64 { return r.version }

// LastModified returns the timestamp of the most recent committed mutation.
func (r *Ring) LastModified() time.Time { return r.lastModifiedAt }

// NodeCount returns the number of registered nodes.
func (r *Ring) NodeCount() int { return r.registry.Count() }

// HealthyCount returns the number of Up nodes (spec invariant 4).
func (r *Ring) HealthyCount() int { return r.registry.HealthyCount() }

// GetNode looks up a node by id.
func (r *Ring) GetNode(id uint64) (*node.Node, bool) { return r.registry.GetByID(id) }

// EachNode visits every registered node in insertion order, stopping
// early if fn returns false. Exposed for external consumers (metrics,
// config dumps) that need to iterate without reaching into the registry.
func (r *Ring) EachNode(fn func(*node.Node) bool) { r.registry.Each(fn) }

// Stats returns a copy of the ring's cumulative statistics.
func (r *Ring) Stats() Stats { return r.stats.snapshot() }

// bumpVersion commits a mutation: the version advances only on success
// (spec §7 "transactional on the ring's version counter"). The engine is
// single-threaded by contract (spec §5); callers serialize their own
// mutating calls.
func (r *Ring) bumpVersion() {
	r.version++
	r.lastModifiedAt = r.now()
	r.strategy.MarkDirty()
	for _, ks := range r.keyspaces {
		if ks.StrategyOverride != nil {
			ks.StrategyOverride.MarkDirty()
		}
	}
}

// AddNode registers a node and plans its arrival's rebalance (spec §4.3,
// §4.7).
func (r *Ring) AddNode(cfg node.Config) (*node.Node, error) {
	before := r.registry.All()
	n, err := r.registry.Add(cfg)
	if err != nil {
		r.log.Warn().Err(err).Msg("add node failed")
		return nil, err
	}
	r.bumpVersion()
	r.recordDelta(snapshot.RecordNodeAdded, nodeRecord(n), nil)
	r.log.Debug().Uint64("node_id", n.ID).Msg("node added")
	r.planRebalance(before)
	return n, nil
}

// AddNodes batch-adds every config, skipping and recording individual
// failures (spec §6 supplemented feature: batch node add).
func (r *Ring) AddNodes(cfgs []node.Config) (added []uint64, errs []error) {
	before := r.registry.All()
	added, errs = r.registry.AddBatch(cfgs)
	if len(added) > 0 {
		r.bumpVersion()
		for _, id := range added {
			if n, ok := r.registry.GetByID(id); ok {
				r.recordDelta(snapshot.RecordNodeAdded, nodeRecord(n), nil)
			}
		}
		r.planRebalance(before)
	}
	return added, errs
}

// RemoveNode deregisters a node and plans the resulting rebalance.
func (r *Ring) RemoveNode(id uint64) error {
	before := r.registry.All()
	removed, err := r.registry.Remove(id)
	if err != nil {
		r.log.Warn().Err(err).Msg("remove node failed")
		return err
	}
	r.bumpVersion()
	r.recordDelta(snapshot.RecordNodeRemoved, nodeRecord(removed), nil)
	r.log.Debug().Uint64("node_id", id).Msg("node removed")
	r.planRebalance(before)
	return nil
}

// SetNodeState drives the lifecycle state machine (spec §4.3).
func (r *Ring) SetNodeState(id uint64, next node.State) error {
	if err := r.registry.SetState(id, next); err != nil {
		r.log.Warn().Err(err).Uint64("node_id", id).Msg("set state failed")
		return err
	}
	r.bumpVersion()
	if n, ok := r.registry.GetByID(id); ok {
		r.recordDelta(snapshot.RecordNodeStateChanged, nodeRecord(n), nil)
	}
	return nil
}

// SetNodeWeight updates weight and plans the resulting rebalance (spec
// §4.3, §4.7).
func (r *Ring) SetNodeWeight(id uint64, weight uint32) error {
	before := r.registry.All()
	if err := r.registry.SetWeight(id, weight); err != nil {
		r.log.Warn().Err(err).Uint64("node_id", id).Msg("set weight failed")
		return err
	}
	r.bumpVersion()
	if n, ok := r.registry.GetByID(id); ok {
		r.recordDelta(snapshot.RecordNodeUpdated, nodeRecord(n), nil)
	}
	r.planRebalance(before)
	return nil
}

// UpdateNodeHealth records a health sample; does not bump the version
// (health is advisory, not topology, per spec §5 "health provider ...
// invoked opportunistically").
func (r *Ring) UpdateNodeHealth(id uint64, h node.Health) error {
	return r.registry.SetHealth(id, h)
}

// UpdateNodeLoad records a load sample for Bounded-load strategies (spec
// §9 Open Question: caller-supplied only).
func (r *Ring) UpdateNodeLoad(id uint64, l node.Load) error {
	if err := r.registry.SetLoad(id, l); err != nil {
		return err
	}
	if b, ok := r.strategy.(*strategy.BoundedStrategy); ok {
		b.SetLoad(id, loadUnits(l))
	}
	return nil
}

// loadUnits reduces a Load sample to the single scalar Bounded-load
// strategies rank by: outstanding queue depth, the most direct proxy for
// "count of outstanding placements" spec §4.4.5 names.
func loadUnits(l node.Load) uint64 { return l.QueueDepth }

// AddKeyspace registers a named override (spec §3, §6).
func (r *Ring) AddKeyspace(ks *Keyspace) error {
	if _, exists := r.keyspaces[ks.Name]; exists {
		return ringerr.New(ringerr.AlreadyExists, "ring.AddKeyspace", "keyspace already registered")
	}
	r.keyspaces[ks.Name] = ks
	r.bumpVersion()
	r.recordDelta(snapshot.RecordKeyspaceAdded, nil, &snapshot.KeyspaceRecord{Name: ks.Name, StrategyOverride: -1})
	return nil
}

// RemoveKeyspace deregisters a named override.
func (r *Ring) RemoveKeyspace(name string) error {
	if _, exists := r.keyspaces[name]; !exists {
		return ringerr.New(ringerr.NotFound, "ring.RemoveKeyspace", "keyspace not registered")
	}
	delete(r.keyspaces, name)
	r.bumpVersion()
	r.recordDelta(snapshot.RecordKeyspaceRemoved, nil, &snapshot.KeyspaceRecord{Name: name, StrategyOverride: -1})
	return nil
}

// KeyspaceCount returns the number of registered keyspaces.
func (r *Ring) KeyspaceCount() int { return len(r.keyspaces) }

// GetKeyspace looks up a named override.
func (r *Ring) GetKeyspace(name string) (*Keyspace, bool) {
	ks, ok := r.keyspaces[name]
	return ks, ok
}

// Close releases the ring's strategy and every keyspace override's
// strategy, for ring owners that embed a CustomStrategy with a Release
// hook. Safe to call on a ring with no custom strategies; it is then a
// no-op. Close does not clear the node registry or keyspace set — a
// closed ring is retired, not reset.
func (r *Ring) Close() {
	releaseStrategy(r.strategy)
	for _, ks := range r.keyspaces {
		if ks.StrategyOverride != nil {
			releaseStrategy(ks.StrategyOverride)
		}
	}
}

func releaseStrategy(s strategy.Strategy) {
	if cs, ok := s.(*strategy.CustomStrategy); ok && cs.Release != nil {
		cs.Release()
	}
}

// planRebalance computes the moves for a membership change (spec §9 Open
// Question: mid-plan membership changes). While an unfinished plan is
// active, the new moves are appended to it if the active planner can
// append (CanAppend); otherwise the new plan replaces the unfinished one,
// which is dropped, not queued.
func (r *Ring) planRebalance(before []*node.Node) {
	after := r.registry.All()
	plan := r.planner.Plan(before, after, r.now())
	if len(plan.Moves) == 0 {
		return
	}
	if r.currentPlan != nil && !r.currentPlan.Done() {
		if r.planner.CanAppend() {
			r.currentPlan.Moves = append(r.currentPlan.Moves, plan.Moves...)
			r.log.Info().Int("moves", len(plan.Moves)).Str("strategy", plan.Strategy).Msg("rebalance plan extended")
			if r.onRebalancePlan != nil {
				r.onRebalancePlan(r, r.currentPlan)
			}
			return
		}
		r.log.Warn().Msg("rebalance plan superseded before completion")
	}
	r.currentPlan = plan
	r.stats.RebalancePlanCount++
	r.log.Info().Int("moves", len(plan.Moves)).Str("strategy", plan.Strategy).Msg("rebalance plan created")
	if r.onRebalancePlan != nil {
		r.onRebalancePlan(r, plan)
	}
}

// GetRebalancePlan returns the ring's current plan, or nil if none.
func (r *Ring) GetRebalancePlan() *rebalance.Plan { return r.currentPlan }

// CompleteMove marks one move of the current plan as completed (spec
// §4.7: "completion is driven externally").
func (r *Ring) CompleteMove(index int) error {
	if r.currentPlan == nil {
		return ringerr.New(ringerr.InvalidState, "ring.CompleteMove", "no active rebalance plan")
	}
	if err := r.currentPlan.CompleteMove(index); err != nil {
		return err
	}
	r.stats.MovesCompleted++
	return nil
}

// FailMove marks one move of the current plan as failed, without
// cancelling the rest of the plan.
func (r *Ring) FailMove(index int) error {
	if r.currentPlan == nil {
		return ringerr.New(ringerr.InvalidState, "ring.FailMove", "no active rebalance plan")
	}
	if err := r.currentPlan.FailMove(index); err != nil {
		return err
	}
	r.stats.MovesFailed++
	return nil
}

// CancelRebalance cancels the current plan and clears it. If no move had
// started, the ring's default strategy is marked dirty so its index is
// rebuilt from the current node set on the next locate; the membership
// change that produced the plan stays applied, so the index does not
// return to its pre-plan layout.
func (r *Ring) CancelRebalance() {
	if r.currentPlan == nil {
		return
	}
	rollback := r.currentPlan.Cancel()
	if rollback {
		r.strategy.MarkDirty()
	}
	r.currentPlan = nil
}
