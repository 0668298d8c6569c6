// Package hashfn provides the 64-bit keyed hash core every placement
// strategy in pkg/strategy is built on (spec §4.1). It is deliberately
// tiny: one deterministic mixer, seeded, plus the vnode-point derivation
// Ketama uses.
package hashfn

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// Hash64 returns a deterministic 64-bit digest of data under seed. Two
// calls with the same (data, seed) always agree; changing seed changes the
// digest for every input (used to decorrelate vnode placement across
// rings sharing the same node ids). xxhash.v2 exposes no keyed/seeded
// constructor, so seed is mixed in as a 4-byte little-endian prefix fed
// through the same digest before data.
func Hash64(data []byte, seed uint32) uint64 {
	var seedBuf [4]byte
	binary.LittleEndian.PutUint32(seedBuf[:], seed)

	d := xxhash.New()
	_, _ = d.Write(seedBuf[:])
	_, _ = d.Write(data)
	return d.Sum64()
}

// Hash32 truncates Hash64 to its low 32 bits, per spec §4.1.
func Hash32(data []byte, seed uint32) uint32 {
	return uint32(Hash64(data, seed))
}

// VnodePoint derives the ring position of vnode vnodeIndex belonging to
// nodeID, per spec §4.4.1: hash(nodeId ‖ vnodeIndex, seed).
func VnodePoint(nodeID uint64, vnodeIndex uint32, seed uint32) uint64 {
	var buf [12]byte
	binary.BigEndian.PutUint64(buf[0:8], nodeID)
	binary.BigEndian.PutUint32(buf[8:12], vnodeIndex)
	return Hash64(buf[:], seed)
}

// KeyedPoint hashes key concatenated with a node id, used by Rendezvous
// (spec §4.4.3): hash(key ‖ nodeId, seed).
func KeyedPoint(key []byte, nodeID uint64, seed uint32) uint64 {
	buf := make([]byte, len(key)+8)
	copy(buf, key)
	binary.BigEndian.PutUint64(buf[len(key):], nodeID)
	return Hash64(buf, seed)
}

// SeedPerturbed hashes key under a seed offset by delta, used by Jump's
// replica rehashing (spec §4.4.2): hash(key, seed+delta).
func SeedPerturbed(key []byte, seed uint32, delta uint32) uint64 {
	return Hash64(key, seed+delta)
}
