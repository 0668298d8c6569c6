package strategy

import (
	"sort"

	"github.com/cuemby/ringplace/pkg/hashfn"
	"github.com/cuemby/ringplace/pkg/node"
)

// BoundedStrategy is Ketama with a per-node load cap layered on top
// (spec §4.4.5), grounded on clusterBoundedData/clusterLocateBounded. The
// load signal is caller-supplied only (spec §9 Open Question 3) via
// SetLoad (Ring.UpdateNodeLoad); the strategy never infers it from health
// samples.
type BoundedStrategy struct {
	ketama     *KetamaStrategy
	loadFactor float64
	loads      map[uint64]uint64
}

func newBounded(seed uint32, cfg VnodeConfig, loadFactor float64) *BoundedStrategy {
	return &BoundedStrategy{
		ketama:     newKetama(seed, cfg),
		loadFactor: loadFactor,
		loads:      make(map[uint64]uint64),
	}
}

func (b *BoundedStrategy) Kind() Kind    { return Bounded }
func (b *BoundedStrategy) MarkDirty()    { b.ketama.MarkDirty() }
func (b *BoundedStrategy) IsDirty() bool { return b.ketama.IsDirty() }

func (b *BoundedStrategy) Rebuild(nodes []*node.Node) {
	b.ketama.Rebuild(nodes)
	live := make(map[uint64]bool, len(nodes))
	for _, n := range nodes {
		live[n.ID] = true
	}
	for id := range b.loads {
		if !live[id] {
			delete(b.loads, id)
		}
	}
}

// SetLoad records nodeID's current outstanding load (a placement count,
// a byte count, or whatever unit the caller has standardized on).
func (b *BoundedStrategy) SetLoad(nodeID uint64, load uint64) {
	b.loads[nodeID] = load
}

func (b *BoundedStrategy) cap() uint64 {
	if len(b.loads) == 0 {
		return 0
	}
	var total uint64
	for _, v := range b.loads {
		total += v
	}
	avg := float64(total) / float64(len(b.loads))
	bound := avg * (1 + b.loadFactor)
	return uint64(bound) + 1 // ceil-ish, avoids a zero cap on light load
}

func (b *BoundedStrategy) Locate(key []byte, maxReplicas int) []uint64 {
	vnodes := b.ketama.vnodes
	h := hashfn.Hash64(key, b.ketama.seed)
	bound := b.cap()
	if bound == 0 {
		// No load recorded yet: nothing is capped, so this is plain Ketama.
		return walkRing(vnodes, h, maxReplicas, nil)
	}

	result := walkRing(vnodes, h, maxReplicas, func(n *node.Node) bool {
		return b.loads[n.ID] < bound
	})
	if len(result) >= maxReplicas {
		return result
	}

	// All capped candidates exhausted before filling maxReplicas: relax
	// the bound entirely and rank the remaining reachable nodes by
	// current load so the least-overloaded ones fill the rest, ensuring
	// the call always succeeds (spec §4.4.5).
	excluded := make(map[uint64]bool, len(result))
	for _, id := range result {
		excluded[id] = true
	}
	remaining := walkRing(vnodes, h, len(vnodes), func(n *node.Node) bool {
		return !excluded[n.ID]
	})
	sort.SliceStable(remaining, func(i, j int) bool {
		return b.loads[remaining[i]] < b.loads[remaining[j]]
	})
	need := maxReplicas - len(result)
	if need > len(remaining) {
		need = len(remaining)
	}
	return append(result, remaining[:need]...)
}
