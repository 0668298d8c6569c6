package rebalance

import (
	"time"

	"github.com/cuemby/ringplace/pkg/node"
	"github.com/cuemby/ringplace/pkg/strategy"
)

// Planner computes a rebalance Plan from the ring layout before and after
// a topology mutation (spec §4.7). Only the Ketama planner is mandatory;
// other strategies may plan trivially.
type Planner interface {
	// Plan computes the moves needed to bring placement back into
	// conformance after before -> after.
	Plan(before, after []*node.Node, now time.Time) *Plan
	// CanAppend reports whether a plan from this planner may receive
	// additional moves from a subsequent mutation instead of queuing a
	// fresh plan (spec §9 Open Question: mid-plan membership changes).
	CanAppend() bool
}

// KetamaPlanner diffs the pre- and post-change sorted vnode arrays and
// emits one move per vnode range whose owner changed (spec §4.7),
// grounded on clusterPlanRebalanceKetama.
type KetamaPlanner struct {
	Seed  uint32
	Vnode strategy.VnodeConfig
}

func NewKetamaPlanner(seed uint32, cfg strategy.VnodeConfig) *KetamaPlanner {
	return &KetamaPlanner{Seed: seed, Vnode: cfg}
}

func (p *KetamaPlanner) CanAppend() bool { return true }

func (p *KetamaPlanner) Plan(before, after []*node.Node, now time.Time) *Plan {
	cfg := strategy.Config{Seed: p.Seed, Vnode: p.Vnode}
	preStrategy := strategy.New(strategy.Ketama, cfg).(*strategy.KetamaStrategy)
	preStrategy.Rebuild(before)
	preVnodes := preStrategy.VnodeInfos()

	postStrategy := strategy.New(strategy.Ketama, cfg).(*strategy.KetamaStrategy)
	postStrategy.Rebuild(after)
	postVnodes := postStrategy.VnodeInfos()

	usedBytes := make(map[uint64]uint64, len(before))
	for _, n := range before {
		usedBytes[n.ID] = n.UsedBytes
	}

	owner := func(vnodes []strategy.VnodeInfo, point uint64) uint64 {
		if len(vnodes) == 0 {
			return 0
		}
		lo, hi := 0, len(vnodes)
		for lo < hi {
			mid := (lo + hi) / 2
			if vnodes[mid].Point < point {
				lo = mid + 1
			} else {
				hi = mid
			}
		}
		if lo == len(vnodes) {
			lo = 0
		}
		return vnodes[lo].NodeID
	}

	postPoints := make(map[uint64]bool, len(postVnodes))
	for _, v := range postVnodes {
		postPoints[v.Point] = true
	}

	var moves []Move

	// Vnodes present in the post ring: new arrivals or vnodes that moved
	// onto a point a different node owned before.
	for i, v := range postVnodes {
		predecessor := postVnodes[(i-1+len(postVnodes))%len(postVnodes)].Point
		preOwner := owner(preVnodes, v.Point)
		if preOwner == v.NodeID {
			continue
		}
		fraction := fractionOfKeyspace(predecessor, v.Point)
		moves = append(moves, Move{
			RangeStart:     predecessor,
			RangeEnd:       v.Point,
			SourceNodeID:   preOwner,
			TargetNodeID:   v.NodeID,
			EstimatedBytes: uint64(float64(usedBytes[preOwner]) * fraction),
			State:          MovePending,
		})
	}

	// Vnodes present only in the pre ring: the node that owned them left
	// entirely, so their range now belongs to whatever post-ring owner
	// covers that point (spec §4.7: "symmetrically for removed vnodes").
	for i, v := range preVnodes {
		if postPoints[v.Point] {
			continue
		}
		predecessor := preVnodes[(i-1+len(preVnodes))%len(preVnodes)].Point
		postOwner := owner(postVnodes, v.Point)
		if postOwner == v.NodeID {
			continue
		}
		fraction := fractionOfKeyspace(predecessor, v.Point)
		moves = append(moves, Move{
			RangeStart:     predecessor,
			RangeEnd:       v.Point,
			SourceNodeID:   v.NodeID,
			TargetNodeID:   postOwner,
			EstimatedBytes: uint64(float64(usedBytes[v.NodeID]) * fraction),
			State:          MovePending,
		})
	}
	return NewPlan("ketama", moves, now)
}

// fractionOfKeyspace estimates what share of the full 64-bit ring a
// (start, end] range represents, handling wraparound.
func fractionOfKeyspace(start, end uint64) float64 {
	var span uint64
	if end >= start {
		span = end - start
	} else {
		span = (^uint64(0) - start) + end + 1
	}
	return float64(span) / float64(^uint64(0))
}
