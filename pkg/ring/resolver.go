package ring

import (
	"math"
	"sort"
	"time"

	"github.com/cuemby/ringplace/pkg/hashfn"
	"github.com/cuemby/ringplace/pkg/node"
	"github.com/cuemby/ringplace/pkg/quorum"
	"github.com/cuemby/ringplace/pkg/ringerr"
	"github.com/cuemby/ringplace/pkg/strategy"
	"github.com/cuemby/ringplace/pkg/topology"
)

// Placement is the result of a locate call: a primary plus ordered
// replica list, degraded-count bookkeeping, and the resolved hash and
// keyspace (spec §6 "Placement result"). Node pointers are borrowed from
// the ring; callers must not retain them across a mutation.
type Placement struct {
	Primary      *node.Node
	Replicas     []*node.Node
	HealthyCount int
	HashValue    uint64
	Keyspace     string
}

// replicaCount reads ReplicaCount off a policy, defaulting to 1 (a
// single-primary placement) when unset.
func replicaCount(p quorum.Policy) int {
	if p.ReplicaCount > 0 {
		return p.ReplicaCount
	}
	return 1
}

// Locate resolves key against the ring's default strategy, quorum, and
// affinity rules (spec §4.5).
func (r *Ring) Locate(key []byte) (*Placement, error) {
	return r.locate(key, "", r.strategy, r.defaultQuorum, r.affinityRules)
}

// LocateWithKeyspace resolves key through a named keyspace's overrides,
// falling back to the ring default for anything the keyspace does not
// override (spec §4.5).
func (r *Ring) LocateWithKeyspace(keyspaceName string, key []byte) (*Placement, error) {
	ks, ok := r.keyspaces[keyspaceName]
	if !ok {
		return nil, ringerr.New(ringerr.NotFound, "ring.LocateWithKeyspace", "keyspace not registered")
	}
	strat := r.strategy
	if ks.StrategyOverride != nil {
		strat = ks.StrategyOverride
	}
	rules := r.affinityRules
	if len(ks.AffinityRules) > 0 {
		rules = ks.AffinityRules
	}
	p, err := r.locate(key, ks.Name, strat, ks.Quorum, rules)
	if err == nil {
		ks.stats.LocateCount++
	}
	return p, err
}

// LocateBulk resolves every key in keys, in order. A single key's failure
// does not abort the batch; its slot in the result is nil and the error
// is recorded at the same index (spec §4.5 "locateBulk").
func (r *Ring) LocateBulk(keys [][]byte) ([]*Placement, []error) {
	placements := make([]*Placement, len(keys))
	errs := make([]error, len(keys))
	for i, k := range keys {
		placements[i], errs[i] = r.Locate(k)
	}
	return placements, errs
}

// locate implements the five-step pipeline of spec §4.5: over-sample,
// filter ineligible, affinity repair, truncate, record hash+keyspace.
// strat is whichever strategy is actually routing this call — the ring
// default, or a keyspace's override — and is rebuilt here if dirty, not
// the ring default unconditionally (a keyspace override has its own
// index and its own dirty flag).
func (r *Ring) locate(key []byte, keyspaceName string, strat strategy.Strategy, policy quorum.Policy, rules []topology.Rule) (*Placement, error) {
	start := r.now()
	count := replicaCount(policy)

	if strat.IsDirty() {
		strat.Rebuild(r.registry.All())
	}

	h := hashfn.Hash64(key, r.seed)

	raw := strat.Locate(key, 2*count)
	if len(raw) == 0 {
		r.stats.recordLocate(false, true, elapsedMicros(start, r.now()))
		return nil, ringerr.New(ringerr.NoNodes, "ring.locate", "no nodes available")
	}

	eligible := make([]*node.Node, 0, len(raw))
	for _, id := range raw {
		n, ok := r.registry.GetByID(id)
		if !ok || !n.State.Eligible() {
			continue
		}
		eligible = append(eligible, n)
	}
	if len(eligible) == 0 {
		r.stats.recordLocate(false, true, elapsedMicros(start, r.now()))
		return nil, ringerr.New(ringerr.NoNodes, "ring.locate", "no eligible nodes available")
	}

	pool := make([]topology.Candidate, len(eligible))
	byID := make(map[uint64]*node.Node, len(eligible))
	for i, n := range eligible {
		pool[i] = topology.Candidate{ID: n.ID, Location: n.Location}
		byID[n.ID] = n
	}

	selectN := count
	if selectN > len(pool) {
		selectN = len(pool)
	}

	// Evaluate's repair walk pulls replacement candidates from the pool in
	// order, breaking ties by picking whichever candidate it reaches
	// first; spec §4.2 requires that tie-break to favor the lower node
	// id, so the pool handed to the repair walk is sorted ascending by ID.
	// The initial selection stays in strategy preference order — only the
	// repair-walk copy is reordered.
	repairPool := append([]topology.Candidate(nil), pool...)
	sort.Slice(repairPool, func(i, j int) bool { return repairPool[i].ID < repairPool[j].ID })

	selected, _ := topology.Evaluate(pool[:selectN], repairPool, rules)

	if len(selected) == 0 {
		r.stats.recordLocate(false, true, elapsedMicros(start, r.now()))
		return nil, ringerr.New(ringerr.NoNodes, "ring.locate", "no nodes available")
	}

	degraded := len(selected) < count

	replicas := make([]*node.Node, len(selected))
	for i, c := range selected {
		replicas[i] = byID[c.ID]
	}

	p := &Placement{
		Primary:      replicas[0],
		Replicas:     replicas,
		HealthyCount: r.registry.HealthyCount(),
		HashValue:    h,
		Keyspace:     keyspaceName,
	}
	r.stats.recordLocate(degraded, false, elapsedMicros(start, r.now()))
	return p, nil
}

func elapsedMicros(start, end time.Time) float64 {
	return float64(end.Sub(start).Microseconds())
}

// SelectReadNode picks the best node to serve a read from a resolved
// placement: state (Up > Suspect > Recovering), then reachability,
// latency, error rate, then load, recomputed per call with no caching
// (spec §4.5 "Read-node selection").
func SelectReadNode(p *Placement) *node.Node {
	if p == nil || len(p.Replicas) == 0 {
		return nil
	}
	best := p.Replicas[0]
	bestScore := readScore(best)
	for _, n := range p.Replicas[1:] {
		if s := readScore(n); s > bestScore {
			best = n
			bestScore = s
		}
	}
	return best
}

func stateWeight(s node.State) float64 {
	switch s {
	case node.Up:
		return 3
	case node.Suspect:
		return 2
	default:
		return 0
	}
}

// readScore is a higher-is-better weighted score combining state,
// reachability, latency, error rate, and load. Joining and Recovering are
// receive-only per spec §4.3: they stay in Placement.Replicas as write
// targets but are never favored as a read target, so they score below
// every Up/Suspect replica; SelectReadNode still returns one if every
// replica is receive-only, since a placement must resolve to something.
func readScore(n *node.Node) float64 {
	if n.State.ReceiveOnly() {
		return math.Inf(-1)
	}
	score := stateWeight(n.State) * 1000
	if n.Health.Reachable {
		score += 100
	}
	score -= float64(n.Health.LatencyMs) * 0.1
	score -= n.Health.ErrorRate * 50
	score -= n.Load.CPU * 10
	return score
}
