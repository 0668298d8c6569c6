package ring

import (
	"github.com/cuemby/ringplace/pkg/node"
	"github.com/cuemby/ringplace/pkg/ringerr"
	"github.com/cuemby/ringplace/pkg/snapshot"
)

// nodeRecord converts a live node into its wire shape, shared by Snapshot
// and the changelog so both describe a node identically (spec §4.8).
func nodeRecord(n *node.Node) snapshot.NodeRecord {
	return snapshot.NodeRecord{
		ID:            n.ID,
		Name:          n.Name,
		Address:       n.Address,
		Location:      n.Location,
		Weight:        n.Weight,
		CapacityBytes: n.CapacityBytes,
		UsedBytes:     n.UsedBytes,
		State:         string(n.State),
	}
}

// recordDelta appends one tagged mutation to the ring's changelog, stamped
// with the version bumpVersion just committed (spec §4.8: "delta
// serialization takes a sinceVersion and emits only the additions/
// removals/updates/state-transitions" committed after it).
func (r *Ring) recordDelta(kind snapshot.RecordKind, n *snapshot.NodeRecord, ks *snapshot.KeyspaceRecord) {
	r.changelog = append(r.changelog, snapshot.DeltaRecord{
		Kind:     kind,
		Version:  r.version,
		Node:     n,
		Keyspace: ks,
	})
}

// DeltaSince builds a delta frame covering every mutation committed after
// sinceVersion (spec §4.8). sinceVersion must not exceed the ring's
// current version.
func (r *Ring) DeltaSince(sinceVersion uint64) (*snapshot.Delta, error) {
	if sinceVersion > r.version {
		return nil, ringerr.New(ringerr.InvalidState, "ring.DeltaSince", "sinceVersion is ahead of the ring's current version")
	}

	var records []snapshot.DeltaRecord
	for _, rec := range r.changelog {
		if rec.Version > sinceVersion {
			records = append(records, rec)
		}
	}

	return &snapshot.Delta{
		BaseVersion: sinceVersion,
		NewVersion:  r.version,
		Records:     records,
	}, nil
}

// ApplyDelta folds a delta frame produced by another ring's DeltaSince
// into this ring's registry and keyspace set, advancing the version to
// the delta's NewVersion (spec §4.8, testable property 7: applyDelta(R0,
// deltaFromTo(R0,R1)) ≡ R1). Rejects a delta whose BaseVersion doesn't
// match the current version instead of attempting a partial merge.
func (r *Ring) ApplyDelta(d *snapshot.Delta) error {
	records, newVersion, err := snapshot.ApplyDelta(r.version, d)
	if err != nil {
		return err
	}

	for _, rec := range records {
		if err := r.applyDeltaRecord(rec); err != nil {
			r.log.Warn().Err(err).Str("kind", kindLabel(rec.Kind)).Msg("apply delta record failed")
			return err
		}
	}

	r.version = newVersion
	r.lastModifiedAt = r.now()
	r.strategy.MarkDirty()
	for _, ks := range r.keyspaces {
		if ks.StrategyOverride != nil {
			ks.StrategyOverride.MarkDirty()
		}
	}
	r.changelog = append(r.changelog, records...)
	return nil
}

func (r *Ring) applyDeltaRecord(rec snapshot.DeltaRecord) error {
	switch rec.Kind {
	case snapshot.RecordNodeAdded:
		if rec.Node == nil {
			return ringerr.New(ringerr.InvalidState, "ring.ApplyDelta", "node-added record missing node payload")
		}
		n, err := r.registry.Add(node.Config{
			ID:            rec.Node.ID,
			Name:          rec.Node.Name,
			Address:       rec.Node.Address,
			Location:      rec.Node.Location,
			Weight:        rec.Node.Weight,
			CapacityBytes: rec.Node.CapacityBytes,
			InitialState:  node.State(rec.Node.State),
		})
		if err != nil {
			return err
		}
		n.UsedBytes = rec.Node.UsedBytes
		return nil

	case snapshot.RecordNodeRemoved:
		if rec.Node == nil {
			return ringerr.New(ringerr.InvalidState, "ring.ApplyDelta", "node-removed record missing node payload")
		}
		_, err := r.registry.Remove(rec.Node.ID)
		return err

	case snapshot.RecordNodeUpdated:
		if rec.Node == nil {
			return ringerr.New(ringerr.InvalidState, "ring.ApplyDelta", "node-updated record missing node payload")
		}
		if err := r.registry.SetWeight(rec.Node.ID, rec.Node.Weight); err != nil {
			return err
		}
		if n, ok := r.registry.GetByID(rec.Node.ID); ok {
			n.UsedBytes = rec.Node.UsedBytes
		}
		return nil

	case snapshot.RecordNodeStateChanged:
		if rec.Node == nil {
			return ringerr.New(ringerr.InvalidState, "ring.ApplyDelta", "state-changed record missing node payload")
		}
		return r.registry.SetState(rec.Node.ID, node.State(rec.Node.State))

	case snapshot.RecordKeyspaceAdded:
		if rec.Keyspace == nil {
			return ringerr.New(ringerr.InvalidState, "ring.ApplyDelta", "keyspace-added record missing keyspace payload")
		}
		if _, exists := r.keyspaces[rec.Keyspace.Name]; !exists {
			r.keyspaces[rec.Keyspace.Name] = &Keyspace{Name: rec.Keyspace.Name, Quorum: r.defaultQuorum}
		}
		return nil

	case snapshot.RecordKeyspaceRemoved:
		if rec.Keyspace == nil {
			return ringerr.New(ringerr.InvalidState, "ring.ApplyDelta", "keyspace-removed record missing keyspace payload")
		}
		delete(r.keyspaces, rec.Keyspace.Name)
		return nil

	default:
		return ringerr.New(ringerr.InvalidState, "ring.ApplyDelta", "unknown delta record kind")
	}
}

func kindLabel(k snapshot.RecordKind) string {
	switch k {
	case snapshot.RecordNodeAdded:
		return "node_added"
	case snapshot.RecordNodeRemoved:
		return "node_removed"
	case snapshot.RecordNodeUpdated:
		return "node_updated"
	case snapshot.RecordNodeStateChanged:
		return "node_state_changed"
	case snapshot.RecordKeyspaceAdded:
		return "keyspace_added"
	case snapshot.RecordKeyspaceRemoved:
		return "keyspace_removed"
	default:
		return "unknown"
	}
}
