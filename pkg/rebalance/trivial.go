package rebalance

import (
	"time"

	"github.com/cuemby/ringplace/pkg/node"
)

// RendezvousPlanner plans trivially: HRW hashing gives no compact range
// representation, so every key is treated as potentially affected (spec
// §4.7: "Rendezvous: rehash everything"). It emits a single whole-keyspace
// move per node whose membership changed, leaving the caller to rehash
// and compare per-key.
type RendezvousPlanner struct{}

func (RendezvousPlanner) CanAppend() bool { return false }

func (RendezvousPlanner) Plan(before, after []*node.Node, now time.Time) *Plan {
	beforeIDs := make(map[uint64]bool, len(before))
	for _, n := range before {
		beforeIDs[n.ID] = true
	}
	afterIDs := make(map[uint64]bool, len(after))
	for _, n := range after {
		afterIDs[n.ID] = true
	}

	var moves []Move
	for id := range beforeIDs {
		if !afterIDs[id] {
			moves = append(moves, Move{
				RangeStart:   0,
				RangeEnd:     ^uint64(0),
				SourceNodeID: id,
				TargetNodeID: 0, // rehash determines the actual destination per key
				State:        MovePending,
			})
		}
	}
	for id := range afterIDs {
		if !beforeIDs[id] {
			moves = append(moves, Move{
				RangeStart:   0,
				RangeEnd:     ^uint64(0),
				SourceNodeID: 0,
				TargetNodeID: id,
				State:        MovePending,
			})
		}
	}
	return NewPlan("rendezvous", moves, now)
}

// MaglevPlanner rebuilds the lookup table wholesale and marks the delta
// implicit (spec §4.7): the table-fill algorithm redistributes slots in a
// way that has no clean range decomposition, so the plan carries a single
// marker move rather than per-range entries.
type MaglevPlanner struct{}

func (MaglevPlanner) CanAppend() bool { return false }

func (MaglevPlanner) Plan(before, after []*node.Node, now time.Time) *Plan {
	moves := []Move{{
		RangeStart:   0,
		RangeEnd:     ^uint64(0),
		SourceNodeID: 0,
		TargetNodeID: 0,
		State:        MovePending,
	}}
	return NewPlan("maglev", moves, now)
}
