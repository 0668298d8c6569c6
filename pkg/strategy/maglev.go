package strategy

import (
	"github.com/cuemby/ringplace/pkg/hashfn"
	"github.com/cuemby/ringplace/pkg/node"
)

// MaglevStrategy implements Google's Maglev lookup-table hashing (spec
// §4.4.4), grounded on clusterMaglevData/clusterLocateMaglev. The table
// is rebuilt wholesale on every membership change (dirty flag); lookups
// are then O(1).
type MaglevStrategy struct {
	seed      uint32
	tableHint uint32
	table     []uint64 // node id per slot
	dirty     bool
}

func newMaglev(seed uint32, tableHint uint32) *MaglevStrategy {
	return &MaglevStrategy{seed: seed, tableHint: tableHint, dirty: true}
}

func (m *MaglevStrategy) Kind() Kind    { return Maglev }
func (m *MaglevStrategy) MarkDirty()    { m.dirty = true }
func (m *MaglevStrategy) IsDirty() bool { return m.dirty }

// TableSize returns the current lookup table size (0 before first build).
func (m *MaglevStrategy) TableSize() int { return len(m.table) }

func (m *MaglevStrategy) Rebuild(nodes []*node.Node) {
	m.dirty = false
	if len(nodes) == 0 {
		m.table = nil
		return
	}
	size := m.tableHint
	if size == 0 {
		size = hashfn.NextPrimeAtLeast(uint32(len(nodes)) * 100)
	} else {
		size = hashfn.NextPrimeAtLeast(size)
	}

	permutation := make([][]uint32, len(nodes))
	for i, n := range nodes {
		var buf [8]byte
		putUint64(buf[:], n.ID)
		offset := uint32(hashfn.Hash64(buf[:], m.seed) % uint64(size))
		skip := uint32(hashfn.Hash64(buf[:], m.seed+1)%uint64(size-1)) + 1
		perm := make([]uint32, size)
		for j := uint32(0); j < size; j++ {
			perm[j] = (offset + j*skip) % size
		}
		permutation[i] = perm
	}

	table := make([]uint64, size)
	for i := range table {
		table[i] = ^uint64(0) // sentinel: unfilled
	}
	next := make([]uint32, len(nodes))
	filled := uint32(0)
	for filled < size {
		for i, n := range nodes {
			c := next[i]
			for table[permutation[i][c]] != ^uint64(0) {
				c++
				if c >= size {
					c = 0
				}
			}
			table[permutation[i][c]] = n.ID
			next[i] = c + 1
			filled++
			if filled >= size {
				break
			}
		}
	}
	m.table = table
}

func putUint64(buf []byte, v uint64) {
	for i := 0; i < 8; i++ {
		buf[i] = byte(v >> (56 - 8*i))
	}
}

func (m *MaglevStrategy) Locate(key []byte, maxReplicas int) []uint64 {
	if len(m.table) == 0 || maxReplicas <= 0 {
		return nil
	}
	size := uint64(len(m.table))
	h := hashfn.Hash64(key, m.seed)

	out := make([]uint64, 0, maxReplicas)
	seen := make(map[uint64]bool, maxReplicas)
	for k := uint64(0); k < size && len(out) < maxReplicas; k++ {
		id := m.table[(h+k)%size]
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
