package ring

import (
	"testing"

	"github.com/cuemby/ringplace/pkg/node"
	"github.com/cuemby/ringplace/pkg/strategy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestApplyDeltaReproducesSourceRing exercises property 7: applying the
// delta between two versions of a ring to a replica pinned at the base
// version yields the same node roster as the source ring at the new
// version.
func TestApplyDeltaReproducesSourceRing(t *testing.T) {
	source := newTestRing(strategy.Ketama)
	_, err := source.AddNode(nodeConfig(1, 0, 1))
	require.NoError(t, err)
	_, err = source.AddNode(nodeConfig(2, 0, 2))
	require.NoError(t, err)
	require.NoError(t, source.SetNodeState(1, node.Up))
	require.NoError(t, source.SetNodeState(2, node.Up))

	baseVersion := source.version
	baseSnapshot := source.Snapshot()

	require.NoError(t, source.SetNodeWeight(1, 5))
	_, err = source.AddNode(nodeConfig(3, 0, 3))
	require.NoError(t, err)
	require.NoError(t, source.RemoveNode(2))

	delta, err := source.DeltaSince(baseVersion)
	require.NoError(t, err)
	assert.Equal(t, baseVersion, delta.BaseVersion)
	assert.Equal(t, source.version, delta.NewVersion)
	assert.NotEmpty(t, delta.Records)

	replica := FromSnapshot(&baseSnapshot, source.vnode, source.defaultQuorum)
	require.NoError(t, replica.ApplyDelta(delta))

	assert.Equal(t, source.version, replica.Version())
	assert.Equal(t, source.NodeCount(), replica.NodeCount())

	n1, ok := replica.GetNode(1)
	require.True(t, ok)
	assert.Equal(t, uint32(5), n1.Weight)

	_, ok = replica.GetNode(2)
	assert.False(t, ok, "node 2 should have been removed by the delta")

	_, ok = replica.GetNode(3)
	assert.True(t, ok, "node 3 should have been added by the delta")
}

func TestDeltaSinceRejectsFutureVersion(t *testing.T) {
	r := newTestRing(strategy.Ketama)
	_, err := r.AddNode(nodeConfig(1, 0, 1))
	require.NoError(t, err)

	_, err = r.DeltaSince(r.version + 100)
	assert.Error(t, err)
}

func TestApplyDeltaRejectsVersionMismatch(t *testing.T) {
	r := newTestRing(strategy.Ketama)
	_, err := r.AddNode(nodeConfig(1, 0, 1))
	require.NoError(t, err)

	d, err := r.DeltaSince(0)
	require.NoError(t, err)
	d.BaseVersion = 999

	err = r.ApplyDelta(d)
	assert.Error(t, err)
}
