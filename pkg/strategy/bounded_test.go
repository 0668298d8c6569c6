package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBoundedLocateRespectsCapWhenHeadroomExists(t *testing.T) {
	nodes := makeNodes(5)
	b := newBounded(1, DefaultVnodeConfig(), 0.0)
	b.Rebuild(nodes)

	for _, n := range nodes {
		b.SetLoad(n.ID, 10)
	}
	// One node far above the average: with loadFactor 0 the cap sits at
	// the average, so this node should never be selected while others
	// have headroom.
	b.SetLoad(nodes[0].ID, 1000)

	for i := 0; i < 50; i++ {
		key := []byte{byte(i)}
		out := b.Locate(key, 1)
		if len(out) == 1 && out[0] == nodes[0].ID {
			t.Fatalf("overloaded node %d selected while others had headroom", nodes[0].ID)
		}
	}
}

func TestBoundedLocateRelaxesWhenTooFewUnderCap(t *testing.T) {
	nodes := makeNodes(3)
	b := newBounded(1, DefaultVnodeConfig(), 0.0)
	b.Rebuild(nodes)

	// Loads 5, 5, 1 average 11/3, so with loadFactor 0 the cap is 4: the
	// first two nodes are over it and only the third is under. Locate must
	// still return maxReplicas by relaxing the bound, filling the rest by
	// ascending load.
	b.SetLoad(nodes[0].ID, 5)
	b.SetLoad(nodes[1].ID, 5)
	b.SetLoad(nodes[2].ID, 1) // least loaded

	out := b.Locate([]byte("some-key"), 3)
	assert.Len(t, out, 3)
}

func TestBoundedLocateWithNoLoadRecordedIsUnbounded(t *testing.T) {
	nodes := makeNodes(4)
	b := newBounded(1, DefaultVnodeConfig(), 0.25)
	b.Rebuild(nodes)

	out := b.Locate([]byte("fresh-key"), 2)
	assert.Len(t, out, 2)
}

func TestBoundedRebuildPrunesStaleLoads(t *testing.T) {
	nodes := makeNodes(3)
	b := newBounded(1, DefaultVnodeConfig(), 0.25)
	b.Rebuild(nodes)
	for _, n := range nodes {
		b.SetLoad(n.ID, 3)
	}

	b.Rebuild(nodes[:2]) // node 3 removed
	assert.Len(t, b.loads, 2)
}

func TestBoundedDelegatesDirtyFlagToKetama(t *testing.T) {
	nodes := makeNodes(3)
	b := newBounded(1, DefaultVnodeConfig(), 0.25)
	assert.True(t, b.IsDirty())
	b.Rebuild(nodes)
	assert.False(t, b.IsDirty())
	b.MarkDirty()
	assert.True(t, b.IsDirty())
}
