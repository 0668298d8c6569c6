// Package registry owns every node in a ring: a keyed map for O(1)
// lookup by id, a dense slice for iteration, and the state machine and
// healthy-count bookkeeping described in spec §4.3. It is the arena half
// of the "arena-plus-index" pattern spec §9 calls out for the vnode↔node
// cyclic reference: strategies keep a node id, the registry is where that
// id actually resolves to a *node.Node.
package registry

import (
	"time"

	"github.com/cuemby/ringplace/pkg/node"
	"github.com/cuemby/ringplace/pkg/ringerr"
)

// StateChangeFunc is fired synchronously, post-commit, on every
// successful state transition (spec §4.3, §6).
type StateChangeFunc func(nodeID uint64, old, next node.State)

// Registry owns every node.Node reachable from a ring, indexed by id and
// by a dense slice for cheap iteration (mirrors clusterRing's
// nodeById/nodeArray duality in the C source).
type Registry struct {
	byID    map[uint64]*node.Node
	nodes   []*node.Node // dense, order is insertion order
	healthy int

	onStateChange StateChangeFunc
	now           func() time.Time
}

// New creates an empty registry. expectedCount preallocates storage
// (spec §6 "expectedNodeCount: preallocation hint").
func New(expectedCount uint32) *Registry {
	return &Registry{
		byID:  make(map[uint64]*node.Node, expectedCount),
		nodes: make([]*node.Node, 0, expectedCount),
		now:   time.Now,
	}
}

// SetClock overrides the time source, for deterministic tests.
func (r *Registry) SetClock(now func() time.Time) { r.now = now }

// OnStateChange installs the state-change callback (spec §6).
func (r *Registry) OnStateChange(fn StateChangeFunc) { r.onStateChange = fn }

// Add registers a new node. Rejects a duplicate id (spec §4.3).
func (r *Registry) Add(cfg node.Config) (*node.Node, error) {
	if _, exists := r.byID[cfg.ID]; exists {
		return nil, ringerr.New(ringerr.AlreadyExists, "registry.Add", "node id already registered")
	}
	n := node.New(cfg, r.now())
	r.byID[n.ID] = n
	r.nodes = append(r.nodes, n)
	if n.State == node.Up {
		r.healthy++
	}
	return n, nil
}

// AddBatch adds every config in order, stopping for no element: a config
// that fails to add (duplicate id) is skipped and its error recorded,
// remaining configs still attempt to commit (§6 "Batch node add" in
// SPEC_FULL.md; each node either commits or is skipped on its own).
func (r *Registry) AddBatch(cfgs []node.Config) (added []uint64, errs []error) {
	for _, cfg := range cfgs {
		if _, err := r.Add(cfg); err != nil {
			errs = append(errs, err)
			continue
		}
		added = append(added, cfg.ID)
	}
	return added, errs
}

// Remove deletes a node from the registry. Rejects unknown ids.
func (r *Registry) Remove(id uint64) (*node.Node, error) {
	n, exists := r.byID[id]
	if !exists {
		return nil, ringerr.New(ringerr.NotFound, "registry.Remove", "node not registered")
	}
	delete(r.byID, id)
	for i, cand := range r.nodes {
		if cand.ID == id {
			r.nodes = append(r.nodes[:i], r.nodes[i+1:]...)
			break
		}
	}
	if n.State == node.Up {
		r.healthy--
	}
	return n, nil
}

// GetByID is an O(1) average lookup (spec §4.3).
func (r *Registry) GetByID(id uint64) (*node.Node, bool) {
	n, ok := r.byID[id]
	return n, ok
}

// Count returns the number of registered nodes.
func (r *Registry) Count() int { return len(r.nodes) }

// HealthyCount returns the number of nodes currently in State Up (spec
// invariant 4).
func (r *Registry) HealthyCount() int { return r.healthy }

// Each visits every node in registration order; fn returning false stops
// iteration early (idiomatic replacement for clusterRingIterateNodes).
func (r *Registry) Each(fn func(*node.Node) bool) {
	for _, n := range r.nodes {
		if !fn(n) {
			return
		}
	}
}

// EachInState visits only nodes whose State equals state
// (clusterRingIterateNodesByState).
func (r *Registry) EachInState(state node.State, fn func(*node.Node) bool) {
	r.Each(func(n *node.Node) bool {
		if n.State != state {
			return true
		}
		return fn(n)
	})
}

// EachAtLocation visits only nodes for which level(n) equals value
// (clusterRingIterateNodesByLocation).
func (r *Registry) EachAtLocation(level func(n *node.Node) uint64, value uint64, fn func(*node.Node) bool) {
	r.Each(func(n *node.Node) bool {
		if level(n) != value {
			return true
		}
		return fn(n)
	})
}

// All returns a snapshot slice of every node, in registration order.
func (r *Registry) All() []*node.Node {
	out := make([]*node.Node, len(r.nodes))
	copy(out, r.nodes)
	return out
}

// SetState enforces the transition table from spec §4.3. A no-op
// transition (old == next) is rejected the same as an illegal one: the
// state machine names only forward edges.
func (r *Registry) SetState(id uint64, next node.State) error {
	n, exists := r.byID[id]
	if !exists {
		return ringerr.New(ringerr.NotFound, "registry.SetState", "node not registered")
	}
	old := n.State
	if !node.CanTransition(old, next) {
		return ringerr.New(ringerr.InvalidState, "registry.SetState", "illegal state transition")
	}
	n.State = next
	n.StateChangedAt = r.now()
	if old == node.Up && next != node.Up {
		r.healthy--
	} else if old != node.Up && next == node.Up {
		r.healthy++
	}
	if r.onStateChange != nil {
		r.onStateChange(id, old, next)
	}
	return nil
}

// SetWeight updates a node's weight. The caller (pkg/ring) is
// responsible for triggering vnode recomputation and rebalance planning
// afterward (spec §4.3).
func (r *Registry) SetWeight(id uint64, weight uint32) error {
	n, exists := r.byID[id]
	if !exists {
		return ringerr.New(ringerr.NotFound, "registry.SetWeight", "node not registered")
	}
	if weight == 0 {
		return ringerr.New(ringerr.InvalidConfig, "registry.SetWeight", "weight must be >= 1")
	}
	n.Weight = weight
	return nil
}

// SetHealth records a health sample (spec §4 "manual health update").
func (r *Registry) SetHealth(id uint64, h node.Health) error {
	n, exists := r.byID[id]
	if !exists {
		return ringerr.New(ringerr.NotFound, "registry.SetHealth", "node not registered")
	}
	n.Health = h
	return nil
}

// SetLoad records a load sample (spec §9 Open Question: bounded-load's
// signal is caller-supplied via this entry point, never inferred).
func (r *Registry) SetLoad(id uint64, l node.Load) error {
	n, exists := r.byID[id]
	if !exists {
		return ringerr.New(ringerr.NotFound, "registry.SetLoad", "node not registered")
	}
	n.Load = l
	return nil
}
