package strategy

import (
	"sort"

	"github.com/cuemby/ringplace/pkg/hashfn"
	"github.com/cuemby/ringplace/pkg/node"
)

// RendezvousStrategy implements Highest-Random-Weight hashing (spec
// §4.4.3), grounded on clusterRendezvousData/clusterLocateRendezvous. It
// keeps no index at all: every Locate recomputes weights from the live
// node slice, which is why it guarantees minimal movement on any single
// membership change.
type RendezvousStrategy struct {
	seed  uint32
	nodes []*node.Node
	dirty bool
}

func newRendezvous(seed uint32) *RendezvousStrategy {
	return &RendezvousStrategy{seed: seed, dirty: true}
}

func (r *RendezvousStrategy) Kind() Kind    { return Rendezvous }
func (r *RendezvousStrategy) MarkDirty()    { r.dirty = true }
func (r *RendezvousStrategy) IsDirty() bool { return r.dirty }

func (r *RendezvousStrategy) Rebuild(nodes []*node.Node) {
	r.nodes = append([]*node.Node(nil), nodes...)
	r.dirty = false
}

func (r *RendezvousStrategy) Locate(key []byte, maxReplicas int) []uint64 {
	if len(r.nodes) == 0 || maxReplicas <= 0 {
		return nil
	}
	type scored struct {
		id     uint64
		weight uint64
	}
	scores := make([]scored, len(r.nodes))
	for i, n := range r.nodes {
		scores[i] = scored{id: n.ID, weight: hashfn.KeyedPoint(key, n.ID, r.seed)}
	}
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].weight != scores[j].weight {
			return scores[i].weight > scores[j].weight
		}
		return scores[i].id < scores[j].id
	})
	if maxReplicas > len(scores) {
		maxReplicas = len(scores)
	}
	out := make([]uint64, maxReplicas)
	for i := 0; i < maxReplicas; i++ {
		out[i] = scores[i].id
	}
	return out
}
