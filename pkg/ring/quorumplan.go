package ring

import (
	"sort"

	"github.com/cuemby/ringplace/pkg/node"
	"github.com/cuemby/ringplace/pkg/quorum"
	"github.com/cuemby/ringplace/pkg/ringerr"
)

// placementTargets extracts the ordered replica ids quorum.PlanWrite and
// quorum.PlanRead consume.
func placementTargets(p *Placement) []uint64 {
	ids := make([]uint64, len(p.Replicas))
	for i, n := range p.Replicas {
		ids[i] = n.ID
	}
	return ids
}

// readOrderedTargets lists a placement's replica ids in decreasing read
// preference, scored as SelectReadNode scores them; equal scores keep
// placement order.
func readOrderedTargets(p *Placement) []uint64 {
	ordered := append([]*node.Node(nil), p.Replicas...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return readScore(ordered[i]) > readScore(ordered[j])
	})
	ids := make([]uint64, len(ordered))
	for i, n := range ordered {
		ids[i] = n.ID
	}
	return ids
}

// planNodes builds the id->node lookup quorum.PlanWrite/PlanRead need to
// resolve DC-scoped consistency levels, from a placement's own replicas.
func (r *Ring) planNodes(p *Placement) map[uint64]*node.Node {
	out := make(map[uint64]*node.Node, len(p.Replicas))
	for _, n := range p.Replicas {
		out[n.ID] = n
	}
	return out
}

func keyspaceNotFound(op string) error {
	return ringerr.New(ringerr.NotFound, op, "keyspace not registered")
}

// PlanWrite resolves key to a placement and derives its WriteSet under
// the ring's default quorum policy (spec §4.6).
func (r *Ring) PlanWrite(key []byte) (*quorum.WriteSet, error) {
	p, err := r.Locate(key)
	if err != nil {
		return nil, err
	}
	targets := placementTargets(p)
	ws, err := quorum.PlanWrite(targets, r.planNodes(p), r.defaultQuorum)
	if err != nil {
		r.stats.QuorumFailedCount++
		return nil, err
	}
	r.stats.PlanWriteCount++
	return ws, nil
}

// PlanRead resolves key to a placement and derives its ReadSet under the
// ring's default quorum policy (spec §4.6).
func (r *Ring) PlanRead(key []byte) (*quorum.ReadSet, error) {
	p, err := r.Locate(key)
	if err != nil {
		return nil, err
	}
	targets := readOrderedTargets(p)
	rs, err := quorum.PlanRead(targets, r.planNodes(p), r.defaultQuorum)
	if err != nil {
		r.stats.QuorumFailedCount++
		return nil, err
	}
	r.stats.PlanReadCount++
	return rs, nil
}

// PlanWriteWithKeyspace is PlanWrite routed through a keyspace's quorum
// override (spec §4.6, §3).
func (r *Ring) PlanWriteWithKeyspace(keyspaceName string, key []byte) (*quorum.WriteSet, error) {
	ks, ok := r.keyspaces[keyspaceName]
	if !ok {
		return nil, keyspaceNotFound("ring.PlanWriteWithKeyspace")
	}
	p, err := r.LocateWithKeyspace(keyspaceName, key)
	if err != nil {
		return nil, err
	}
	ws, err := quorum.PlanWrite(placementTargets(p), r.planNodes(p), ks.Quorum)
	if err != nil {
		r.stats.QuorumFailedCount++
		return nil, err
	}
	r.stats.PlanWriteCount++
	return ws, nil
}

// PlanReadWithKeyspace is PlanRead routed through a keyspace's quorum
// override (spec §4.6, §3).
func (r *Ring) PlanReadWithKeyspace(keyspaceName string, key []byte) (*quorum.ReadSet, error) {
	ks, ok := r.keyspaces[keyspaceName]
	if !ok {
		return nil, keyspaceNotFound("ring.PlanReadWithKeyspace")
	}
	p, err := r.LocateWithKeyspace(keyspaceName, key)
	if err != nil {
		return nil, err
	}
	rs, err := quorum.PlanRead(readOrderedTargets(p), r.planNodes(p), ks.Quorum)
	if err != nil {
		r.stats.QuorumFailedCount++
		return nil, err
	}
	r.stats.PlanReadCount++
	return rs, nil
}
