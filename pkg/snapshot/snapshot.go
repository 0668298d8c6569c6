// Package snapshot implements the ring's binary serialization format:
// full snapshots and version-scoped delta frames, both length-prefixed
// and little-endian (spec §4.8, §6), grounded on the original source's
// clusterRingSerialize/clusterRingApplyDelta.
package snapshot

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/cuemby/ringplace/pkg/ringerr"
	"github.com/cuemby/ringplace/pkg/topology"
	"github.com/google/uuid"
)

// Magic identifies a ringplace snapshot frame; FormatVersion is bumped on
// any incompatible wire-format change.
const (
	Magic         uint32 = 0x52494e47 // "RING"
	FormatVersion uint32 = 1
)

// NodeRecord is the on-wire shape of one node (spec §4.8: "node records
// including locations, weights, states, usage").
type NodeRecord struct {
	ID            uint64
	Name          string
	Address       string
	Location      topology.Location
	Weight        uint32
	CapacityBytes uint64
	UsedBytes     uint64
	State         string
}

// KeyspaceRecord is the on-wire shape of a named keyspace override.
type KeyspaceRecord struct {
	Name             string
	StrategyOverride int32 // -1 means "inherit ring default"
}

// Full is the decoded shape of a full snapshot: everything needed to
// reconstruct a ring (spec §4.8).
type Full struct {
	InstanceID   uuid.UUID
	RingName     string
	StrategyKind int32
	HashSeed     uint32
	Version      uint64
	Nodes        []NodeRecord
	Keyspaces    []KeyspaceRecord
	// StrategyState is an opaque strategy-specific payload, written and
	// read back as raw bytes. Ring.Snapshot leaves it empty and nothing in
	// this module reads it: a restored ring rebuilds its strategy index
	// from the node records.
	StrategyState []byte
}

// RecordKind tags a delta record's mutation kind.
type RecordKind uint8

const (
	RecordNodeAdded RecordKind = iota
	RecordNodeRemoved
	RecordNodeUpdated
	RecordNodeStateChanged
	RecordKeyspaceAdded
	RecordKeyspaceRemoved
)

// DeltaRecord is one tagged mutation in a delta frame (spec §6: "each
// record is a tagged union over the mutation kinds").
type DeltaRecord struct {
	Kind     RecordKind
	Version  uint64
	Node     *NodeRecord
	Keyspace *KeyspaceRecord
}

// Delta is the decoded shape of a delta frame (spec §4.8, §6).
type Delta struct {
	BaseVersion uint64
	NewVersion  uint64
	Records     []DeltaRecord
}

func putLenPrefixed(buf *bytes.Buffer, s string) {
	binary.Write(buf, binary.LittleEndian, uint32(len(s)))
	buf.WriteString(s)
}

func readLenPrefixed(r *bytes.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}

func putBytesPrefixed(buf *bytes.Buffer, b []byte) {
	binary.Write(buf, binary.LittleEndian, uint32(len(b)))
	buf.Write(b)
}

func readBytesPrefixed(r *bytes.Reader) ([]byte, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}

func writeNode(buf *bytes.Buffer, n NodeRecord) {
	binary.Write(buf, binary.LittleEndian, n.ID)
	putLenPrefixed(buf, n.Name)
	putLenPrefixed(buf, n.Address)
	binary.Write(buf, binary.LittleEndian, n.Location)
	binary.Write(buf, binary.LittleEndian, n.Weight)
	binary.Write(buf, binary.LittleEndian, n.CapacityBytes)
	binary.Write(buf, binary.LittleEndian, n.UsedBytes)
	putLenPrefixed(buf, n.State)
}

func readNode(r *bytes.Reader) (NodeRecord, error) {
	var n NodeRecord
	if err := binary.Read(r, binary.LittleEndian, &n.ID); err != nil {
		return n, err
	}
	var err error
	if n.Name, err = readLenPrefixed(r); err != nil {
		return n, err
	}
	if n.Address, err = readLenPrefixed(r); err != nil {
		return n, err
	}
	if err := binary.Read(r, binary.LittleEndian, &n.Location); err != nil {
		return n, err
	}
	if err := binary.Read(r, binary.LittleEndian, &n.Weight); err != nil {
		return n, err
	}
	if err := binary.Read(r, binary.LittleEndian, &n.CapacityBytes); err != nil {
		return n, err
	}
	if err := binary.Read(r, binary.LittleEndian, &n.UsedBytes); err != nil {
		return n, err
	}
	if n.State, err = readLenPrefixed(r); err != nil {
		return n, err
	}
	return n, nil
}

// Encode writes f as a full snapshot frame (spec §4.8, §6).
func Encode(f Full) []byte {
	buf := &bytes.Buffer{}
	binary.Write(buf, binary.LittleEndian, Magic)
	binary.Write(buf, binary.LittleEndian, FormatVersion)
	idBytes, _ := f.InstanceID.MarshalBinary()
	buf.Write(idBytes)
	putLenPrefixed(buf, f.RingName)
	binary.Write(buf, binary.LittleEndian, f.StrategyKind)
	binary.Write(buf, binary.LittleEndian, f.HashSeed)
	binary.Write(buf, binary.LittleEndian, f.Version)

	binary.Write(buf, binary.LittleEndian, uint32(len(f.Nodes)))
	for _, n := range f.Nodes {
		writeNode(buf, n)
	}

	binary.Write(buf, binary.LittleEndian, uint32(len(f.Keyspaces)))
	for _, ks := range f.Keyspaces {
		putLenPrefixed(buf, ks.Name)
		binary.Write(buf, binary.LittleEndian, ks.StrategyOverride)
	}

	putBytesPrefixed(buf, f.StrategyState)
	return buf.Bytes()
}

// Decode parses a full snapshot frame produced by Encode.
func Decode(data []byte) (*Full, error) {
	r := bytes.NewReader(data)
	var magic, version uint32
	if err := binary.Read(r, binary.LittleEndian, &magic); err != nil {
		return nil, ringerr.Wrap(ringerr.InvalidState, "snapshot.Decode", err)
	}
	if magic != Magic {
		return nil, ringerr.New(ringerr.InvalidState, "snapshot.Decode", fmt.Sprintf("bad magic %x", magic))
	}
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, ringerr.Wrap(ringerr.InvalidState, "snapshot.Decode", err)
	}
	if version != FormatVersion {
		return nil, ringerr.New(ringerr.InvalidState, "snapshot.Decode", fmt.Sprintf("unsupported format version %d", version))
	}

	f := &Full{}
	idBytes := make([]byte, 16)
	if _, err := io.ReadFull(r, idBytes); err != nil {
		return nil, ringerr.Wrap(ringerr.InvalidState, "snapshot.Decode", err)
	}
	if err := f.InstanceID.UnmarshalBinary(idBytes); err != nil {
		return nil, ringerr.Wrap(ringerr.InvalidState, "snapshot.Decode", err)
	}

	var err error
	if f.RingName, err = readLenPrefixed(r); err != nil {
		return nil, ringerr.Wrap(ringerr.InvalidState, "snapshot.Decode", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &f.StrategyKind); err != nil {
		return nil, ringerr.Wrap(ringerr.InvalidState, "snapshot.Decode", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &f.HashSeed); err != nil {
		return nil, ringerr.Wrap(ringerr.InvalidState, "snapshot.Decode", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &f.Version); err != nil {
		return nil, ringerr.Wrap(ringerr.InvalidState, "snapshot.Decode", err)
	}

	var nodeCount uint32
	if err := binary.Read(r, binary.LittleEndian, &nodeCount); err != nil {
		return nil, ringerr.Wrap(ringerr.InvalidState, "snapshot.Decode", err)
	}
	f.Nodes = make([]NodeRecord, nodeCount)
	for i := range f.Nodes {
		if f.Nodes[i], err = readNode(r); err != nil {
			return nil, ringerr.Wrap(ringerr.InvalidState, "snapshot.Decode", err)
		}
	}

	var ksCount uint32
	if err := binary.Read(r, binary.LittleEndian, &ksCount); err != nil {
		return nil, ringerr.Wrap(ringerr.InvalidState, "snapshot.Decode", err)
	}
	f.Keyspaces = make([]KeyspaceRecord, ksCount)
	for i := range f.Keyspaces {
		if f.Keyspaces[i].Name, err = readLenPrefixed(r); err != nil {
			return nil, ringerr.Wrap(ringerr.InvalidState, "snapshot.Decode", err)
		}
		if err := binary.Read(r, binary.LittleEndian, &f.Keyspaces[i].StrategyOverride); err != nil {
			return nil, ringerr.Wrap(ringerr.InvalidState, "snapshot.Decode", err)
		}
	}

	if f.StrategyState, err = readBytesPrefixed(r); err != nil {
		return nil, ringerr.Wrap(ringerr.InvalidState, "snapshot.Decode", err)
	}
	return f, nil
}
