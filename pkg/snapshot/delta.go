package snapshot

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/cuemby/ringplace/pkg/ringerr"
)

// EncodeDelta writes d as a delta frame: baseVersion, newVersion, then
// every record in d.Records as a tagged record (spec §4.8, §6). It does
// not filter by version; Ring.DeltaSince selects the records newer than
// baseVersion.
func EncodeDelta(d Delta) []byte {
	buf := &bytes.Buffer{}
	binary.Write(buf, binary.LittleEndian, Magic)
	binary.Write(buf, binary.LittleEndian, FormatVersion)
	binary.Write(buf, binary.LittleEndian, d.BaseVersion)
	binary.Write(buf, binary.LittleEndian, d.NewVersion)
	binary.Write(buf, binary.LittleEndian, uint32(len(d.Records)))
	for _, rec := range d.Records {
		binary.Write(buf, binary.LittleEndian, uint8(rec.Kind))
		binary.Write(buf, binary.LittleEndian, rec.Version)
		hasNode := rec.Node != nil
		binary.Write(buf, binary.LittleEndian, hasNode)
		if hasNode {
			writeNode(buf, *rec.Node)
		}
		hasKeyspace := rec.Keyspace != nil
		binary.Write(buf, binary.LittleEndian, hasKeyspace)
		if hasKeyspace {
			putLenPrefixed(buf, rec.Keyspace.Name)
			binary.Write(buf, binary.LittleEndian, rec.Keyspace.StrategyOverride)
		}
	}
	return buf.Bytes()
}

// DecodeDelta parses a delta frame produced by EncodeDelta.
func DecodeDelta(data []byte) (*Delta, error) {
	r := bytes.NewReader(data)
	var magic, version uint32
	if err := binary.Read(r, binary.LittleEndian, &magic); err != nil {
		return nil, ringerr.Wrap(ringerr.InvalidState, "snapshot.DecodeDelta", err)
	}
	if magic != Magic {
		return nil, ringerr.New(ringerr.InvalidState, "snapshot.DecodeDelta", fmt.Sprintf("bad magic %x", magic))
	}
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, ringerr.Wrap(ringerr.InvalidState, "snapshot.DecodeDelta", err)
	}
	if version != FormatVersion {
		return nil, ringerr.New(ringerr.InvalidState, "snapshot.DecodeDelta", fmt.Sprintf("unsupported format version %d", version))
	}

	d := &Delta{}
	if err := binary.Read(r, binary.LittleEndian, &d.BaseVersion); err != nil {
		return nil, ringerr.Wrap(ringerr.InvalidState, "snapshot.DecodeDelta", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &d.NewVersion); err != nil {
		return nil, ringerr.Wrap(ringerr.InvalidState, "snapshot.DecodeDelta", err)
	}

	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, ringerr.Wrap(ringerr.InvalidState, "snapshot.DecodeDelta", err)
	}
	d.Records = make([]DeltaRecord, count)
	for i := range d.Records {
		var kind uint8
		if err := binary.Read(r, binary.LittleEndian, &kind); err != nil {
			return nil, ringerr.Wrap(ringerr.InvalidState, "snapshot.DecodeDelta", err)
		}
		d.Records[i].Kind = RecordKind(kind)
		if err := binary.Read(r, binary.LittleEndian, &d.Records[i].Version); err != nil {
			return nil, ringerr.Wrap(ringerr.InvalidState, "snapshot.DecodeDelta", err)
		}

		var hasNode bool
		if err := binary.Read(r, binary.LittleEndian, &hasNode); err != nil {
			return nil, ringerr.Wrap(ringerr.InvalidState, "snapshot.DecodeDelta", err)
		}
		if hasNode {
			n, err := readNode(r)
			if err != nil {
				return nil, ringerr.Wrap(ringerr.InvalidState, "snapshot.DecodeDelta", err)
			}
			d.Records[i].Node = &n
		}

		var hasKeyspace bool
		if err := binary.Read(r, binary.LittleEndian, &hasKeyspace); err != nil {
			return nil, ringerr.Wrap(ringerr.InvalidState, "snapshot.DecodeDelta", err)
		}
		if hasKeyspace {
			var ks KeyspaceRecord
			name, err := readLenPrefixed(r)
			if err != nil {
				return nil, ringerr.Wrap(ringerr.InvalidState, "snapshot.DecodeDelta", err)
			}
			ks.Name = name
			if err := binary.Read(r, binary.LittleEndian, &ks.StrategyOverride); err != nil {
				return nil, ringerr.Wrap(ringerr.InvalidState, "snapshot.DecodeDelta", err)
			}
			d.Records[i].Keyspace = &ks
		}
	}
	return d, nil
}

// ApplyDelta validates that d's base version matches current, then
// returns the records the caller should fold in along with the new
// version (spec §4.8: "apply-delta validates that the delta's base
// version equals the local version; mismatches fail with invalid-state").
func ApplyDelta(current uint64, d *Delta) ([]DeltaRecord, uint64, error) {
	if d.BaseVersion != current {
		return nil, current, ringerr.New(ringerr.InvalidState, "snapshot.ApplyDelta",
			fmt.Sprintf("delta base version %d does not match local version %d", d.BaseVersion, current))
	}
	return d.Records, d.NewVersion, nil
}
