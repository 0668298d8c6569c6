package strategy

import (
	"github.com/cuemby/ringplace/pkg/hashfn"
	"github.com/cuemby/ringplace/pkg/node"
)

// Ketama implements classic consistent hashing with virtual nodes (spec
// §4.4.1), grounded on clusterKetamaData/clusterLocateKetama in the
// original C source.
type KetamaStrategy struct {
	seed   uint32
	cfg    VnodeConfig
	vnodes []vnode
	dirty  bool
}

func newKetama(seed uint32, cfg VnodeConfig) *KetamaStrategy {
	if cfg.Multiplier == 0 {
		cfg = DefaultVnodeConfig()
	}
	return &KetamaStrategy{seed: seed, cfg: cfg, dirty: true}
}

func (k *KetamaStrategy) Kind() Kind    { return Ketama }
func (k *KetamaStrategy) MarkDirty()    { k.dirty = true }
func (k *KetamaStrategy) IsDirty() bool { return k.dirty }

func (k *KetamaStrategy) Rebuild(nodes []*node.Node) {
	k.vnodes = buildVnodes(nodes, k.seed, k.cfg)
	k.dirty = false
}

func (k *KetamaStrategy) Locate(key []byte, maxReplicas int) []uint64 {
	h := hashfn.Hash64(key, k.seed)
	return walkRing(k.vnodes, h, maxReplicas, nil)
}

// VnodeInfo is the exported projection of a ring point, for consumers
// outside pkg/strategy (the rebalance planner) that need to diff
// pre/post-mutation ring layouts (spec §4.7).
type VnodeInfo struct {
	Point      uint64
	NodeID     uint64
	VnodeIndex uint32
}

// VnodeInfos exposes the sorted ring array. Rebuild first if IsDirty.
func (k *KetamaStrategy) VnodeInfos() []VnodeInfo {
	out := make([]VnodeInfo, len(k.vnodes))
	for i, v := range k.vnodes {
		out[i] = VnodeInfo{Point: v.point, NodeID: v.nodePtr.ID, VnodeIndex: v.vnodeIdx}
	}
	return out
}
