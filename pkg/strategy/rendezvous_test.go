package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cuemby/ringplace/pkg/hashfn"
)

func TestRendezvousLocateDeterministic(t *testing.T) {
	nodes := makeNodes(6)
	r := newRendezvous(3)
	r.Rebuild(nodes)

	a := r.Locate([]byte("key-a"), 3)
	b := r.Locate([]byte("key-a"), 3)
	assert.Equal(t, a, b)
}

func TestRendezvousMinimalMovementOnRemoval(t *testing.T) {
	nodes := makeNodes(6)
	r := newRendezvous(3)
	r.Rebuild(nodes)

	keys := [][]byte{[]byte("k1"), []byte("k2"), []byte("k3"), []byte("k4"), []byte("k5")}
	before := make(map[string]uint64)
	for _, k := range keys {
		before[string(k)] = r.Locate(k, 1)[0]
	}

	r.Rebuild(nodes[:5]) // drop node id 6

	moved := 0
	for _, k := range keys {
		after := r.Locate(k, 1)[0]
		if before[string(k)] != after {
			// Only keys that were owned by the removed node may move.
			assert.Equal(t, uint64(6), before[string(k)])
			moved++
		}
	}
	assert.LessOrEqual(t, moved, len(keys))
}

func TestRendezvousLocateDistinctAndOrdered(t *testing.T) {
	nodes := makeNodes(5)
	r := newRendezvous(9)
	r.Rebuild(nodes)

	out := r.Locate([]byte("ordered-key"), 5)
	assert.Len(t, out, 5)
	seen := make(map[uint64]bool)
	for _, id := range out {
		assert.False(t, seen[id])
		seen[id] = true
	}
	for i := 1; i < len(out); i++ {
		prev := hashfn.KeyedPoint([]byte("ordered-key"), out[i-1], 9)
		cur := hashfn.KeyedPoint([]byte("ordered-key"), out[i], 9)
		assert.GreaterOrEqual(t, prev, cur)
	}
}
