package strategy

import (
	"sort"

	"github.com/cuemby/ringplace/pkg/hashfn"
	"github.com/cuemby/ringplace/pkg/node"
)

// vnode is a single ring point: spec §3 "Virtual node (vnode)". nodePtr
// is the direct back-reference the C source keeps to avoid a hash lookup
// on every step of the ring walk (spec §9's arena-plus-index pattern:
// the index here IS the direct pointer, valid until the next Rebuild).
type vnode struct {
	point    uint64
	nodePtr  *node.Node
	vnodeIdx uint32
}

// vnodeCountFor clamps weight*multiplier into [min, max], spec §4.4.1.
func vnodeCountFor(weight uint32, cfg VnodeConfig) uint32 {
	mult := cfg.Multiplier
	if mult == 0 {
		mult = 1
	}
	count := weight * mult
	if cfg.MinPerNode > 0 && count < cfg.MinPerNode {
		count = cfg.MinPerNode
	}
	if cfg.MaxPerNode > 0 && count > cfg.MaxPerNode {
		count = cfg.MaxPerNode
	}
	return count
}

// buildVnodes assigns each node vnodeCountFor(weight) points and returns
// them sorted by hash position, ties broken by (nodeID, vnodeIndex) per
// spec §4.4.1. Also stamps each node's VnodeCount/VnodeStart bookkeeping
// fields (spec §3).
func buildVnodes(nodes []*node.Node, seed uint32, cfg VnodeConfig) []vnode {
	var all []vnode
	for _, n := range nodes {
		count := vnodeCountFor(n.Weight, cfg)
		n.VnodeCount = count
		for i := uint32(0); i < count; i++ {
			point := hashfn.VnodePoint(n.ID, i, seed)
			if cfg.ReplicaSpread && count > 0 {
				// Force this node's vnodes into distinct
				// ring-size/V segments to reduce variance
				// (spec §4.4.1 "replicaPointSpread").
				segLen := ^uint64(0) / uint64(count)
				point = segLen*uint64(i) + point%segLen
			}
			all = append(all, vnode{point: point, nodePtr: n, vnodeIdx: i})
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].point != all[j].point {
			return all[i].point < all[j].point
		}
		if all[i].nodePtr.ID != all[j].nodePtr.ID {
			return all[i].nodePtr.ID < all[j].nodePtr.ID
		}
		return all[i].vnodeIdx < all[j].vnodeIdx
	})
	start := uint32(0)
	for _, n := range nodes {
		n.VnodeStart = start
		start += n.VnodeCount
	}
	return all
}

// walkRing performs the Ketama lookup described in spec §4.4.1: binary
// search for the first point >= h (wrapping to index 0 if none), then
// walk forward collecting distinct owning node ids via accept, until
// maxReplicas are collected or the array is exhausted.
func walkRing(vnodes []vnode, h uint64, maxReplicas int, accept func(*node.Node) bool) []uint64 {
	if len(vnodes) == 0 || maxReplicas <= 0 {
		return nil
	}
	start := sort.Search(len(vnodes), func(i int) bool { return vnodes[i].point >= h })
	if start == len(vnodes) {
		start = 0
	}
	seen := make(map[uint64]bool, maxReplicas)
	out := make([]uint64, 0, maxReplicas)
	for i := 0; i < len(vnodes); i++ {
		v := vnodes[(start+i)%len(vnodes)]
		if seen[v.nodePtr.ID] {
			continue
		}
		if accept != nil && !accept(v.nodePtr) {
			continue
		}
		seen[v.nodePtr.ID] = true
		out = append(out, v.nodePtr.ID)
		if len(out) >= maxReplicas {
			break
		}
	}
	return out
}
