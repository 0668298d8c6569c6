package ring

import (
	"github.com/cuemby/ringplace/pkg/node"
	"github.com/cuemby/ringplace/pkg/quorum"
	"github.com/cuemby/ringplace/pkg/snapshot"
	"github.com/cuemby/ringplace/pkg/strategy"
)

// Snapshot captures the ring's full state as a wire-ready frame (spec
// §4.8). Strategy-internal state (vnode positions, Maglev tables) is not
// re-derived here; a rebuild against the recorded node set reproduces it
// deterministically, so StrategyState is left empty.
func (r *Ring) Snapshot() snapshot.Full {
	nodes := r.registry.All()
	records := make([]snapshot.NodeRecord, len(nodes))
	for i, n := range nodes {
		records[i] = nodeRecord(n)
	}

	keyspaces := make([]snapshot.KeyspaceRecord, 0, len(r.keyspaces))
	for _, ks := range r.keyspaces {
		keyspaces = append(keyspaces, snapshot.KeyspaceRecord{
			Name:             ks.Name,
			StrategyOverride: -1,
		})
	}

	return snapshot.Full{
		InstanceID:   r.instanceID,
		RingName:     r.name,
		StrategyKind: int32(r.strategyKind),
		HashSeed:     r.seed,
		Version:      r.version,
		Nodes:        records,
		Keyspaces:    keyspaces,
	}
}

// FromSnapshot reconstructs a Ring from a previously captured full
// snapshot, using vnode and quorum defaults for anything the wire format
// doesn't carry (spec §4.8: the frame holds topology, not policy).
func FromSnapshot(f *snapshot.Full, vnode strategy.VnodeConfig, defaultQuorum quorum.Policy) *Ring {
	r := New(Config{
		Name:              f.RingName,
		StrategyType:      strategy.Kind(f.StrategyKind),
		Vnode:             vnode,
		DefaultQuorum:     defaultQuorum,
		ExpectedNodeCount: uint32(len(f.Nodes)),
		HashSeed:          f.HashSeed,
	})
	r.instanceID = f.InstanceID

	for _, rec := range f.Nodes {
		n, err := r.registry.Add(node.Config{
			ID:            rec.ID,
			Name:          rec.Name,
			Address:       rec.Address,
			Location:      rec.Location,
			Weight:        rec.Weight,
			CapacityBytes: rec.CapacityBytes,
			InitialState:  node.State(rec.State),
		})
		if err != nil {
			continue
		}
		n.UsedBytes = rec.UsedBytes
	}
	for _, ksRec := range f.Keyspaces {
		_ = r.AddKeyspace(&Keyspace{Name: ksRec.Name, Quorum: defaultQuorum})
	}

	r.version = f.Version
	r.strategy.MarkDirty()
	return r
}
