package ring

import (
	"testing"

	"github.com/cuemby/ringplace/pkg/node"
	"github.com/cuemby/ringplace/pkg/quorum"
	"github.com/cuemby/ringplace/pkg/strategy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocateDegradesWhenFewerEligibleThanReplicaCount(t *testing.T) {
	r := New(Config{
		Name:              "degraded",
		StrategyType:      strategy.Rendezvous,
		DefaultQuorum:     quorum.Policy{ReplicaCount: 3, Level: quorum.One},
		ExpectedNodeCount: 4,
		HashSeed:          1,
	})
	_, err := r.AddNode(nodeConfig(1, 0, 1))
	require.NoError(t, err)
	require.NoError(t, r.SetNodeState(1, node.Up))

	p, err := r.Locate([]byte("k"))
	require.NoError(t, err)
	assert.Len(t, p.Replicas, 1)
}

func TestLocateSkipsIneligibleStates(t *testing.T) {
	r := newTestRing(strategy.Rendezvous)
	for i := uint64(1); i <= 3; i++ {
		_, err := r.AddNode(nodeConfig(i, 0, uint32(i)))
		require.NoError(t, err)
	}
	require.NoError(t, r.SetNodeState(1, node.Up))
	require.NoError(t, r.SetNodeState(2, node.Up))
	require.NoError(t, r.SetNodeState(3, node.Leaving))

	p, err := r.Locate([]byte("k"))
	require.NoError(t, err)
	for _, n := range p.Replicas {
		assert.NotEqual(t, uint64(3), n.ID)
	}
}

func TestLocateWithKeyspaceUsesOverrideQuorum(t *testing.T) {
	r := newTestRing(strategy.Ketama)
	for i := uint64(1); i <= 5; i++ {
		_, err := r.AddNode(nodeConfig(i, 0, uint32(i)))
		require.NoError(t, err)
		require.NoError(t, r.SetNodeState(i, node.Up))
	}
	require.NoError(t, r.AddKeyspace(&Keyspace{
		Name:   "analytics",
		Quorum: quorum.Policy{ReplicaCount: 2, Level: quorum.One},
	}))

	p, err := r.LocateWithKeyspace("analytics", []byte("row-1"))
	require.NoError(t, err)
	assert.Len(t, p.Replicas, 2)
	assert.Equal(t, "analytics", p.Keyspace)
}

func TestLocateWithKeyspaceUnknownNameErrors(t *testing.T) {
	r := newTestRing(strategy.Ketama)
	_, err := r.LocateWithKeyspace("missing", []byte("k"))
	assert.Error(t, err)
}

func TestLocateBulkReturnsErrorsPerIndexWithoutAbortingBatch(t *testing.T) {
	r := newTestRing(strategy.Ketama)
	_, err := r.AddNode(nodeConfig(1, 0, 1))
	require.NoError(t, err)
	require.NoError(t, r.SetNodeState(1, node.Up))

	emptyRing := newTestRing(strategy.Ketama)
	placements, errs := emptyRing.LocateBulk([][]byte{[]byte("a"), []byte("b")})
	assert.Nil(t, placements[0])
	assert.Error(t, errs[0])
	assert.Error(t, errs[1])

	placements, errs = r.LocateBulk([][]byte{[]byte("a"), []byte("b")})
	assert.NoError(t, errs[0])
	assert.NoError(t, errs[1])
	assert.NotNil(t, placements[0])
}

func TestCustomStrategyLocateDelegatesToFn(t *testing.T) {
	custom := &strategy.CustomStrategy{
		Name: "fixed",
		LocateFn: func(nodes []*node.Node, key []byte, maxReplicas int) []uint64 {
			ids := make([]uint64, 0, maxReplicas)
			for _, n := range nodes {
				ids = append(ids, n.ID)
				if len(ids) == maxReplicas {
					break
				}
			}
			return ids
		},
	}
	r := New(Config{
		Name:              "custom",
		StrategyType:      strategy.CustomKind,
		CustomStrategy:    custom,
		DefaultQuorum:     quorum.Policy{ReplicaCount: 2, Level: quorum.One},
		ExpectedNodeCount: 4,
		HashSeed:          1,
	})
	for i := uint64(1); i <= 3; i++ {
		_, err := r.AddNode(nodeConfig(i, 0, uint32(i)))
		require.NoError(t, err)
		require.NoError(t, r.SetNodeState(i, node.Up))
	}

	p, err := r.Locate([]byte("k"))
	require.NoError(t, err)
	assert.Len(t, p.Replicas, 2)
}

func TestCloseReleasesCustomStrategies(t *testing.T) {
	var defaultReleased, overrideReleased bool

	r := New(Config{
		Name:         "custom-release",
		StrategyType: strategy.CustomKind,
		CustomStrategy: &strategy.CustomStrategy{
			Name:     "default",
			LocateFn: func(nodes []*node.Node, key []byte, maxReplicas int) []uint64 { return nil },
			Release:  func() { defaultReleased = true },
		},
		DefaultQuorum:     quorum.Policy{ReplicaCount: 1, Level: quorum.One},
		ExpectedNodeCount: 1,
		HashSeed:          1,
	})

	override := &strategy.CustomStrategy{
		Name:     "override",
		LocateFn: func(nodes []*node.Node, key []byte, maxReplicas int) []uint64 { return nil },
		Release:  func() { overrideReleased = true },
	}
	require.NoError(t, r.AddKeyspace(&Keyspace{Name: "ks", StrategyOverride: override, Quorum: r.defaultQuorum}))

	r.Close()

	assert.True(t, defaultReleased, "ring default strategy's Release should run on Close")
	assert.True(t, overrideReleased, "keyspace override strategy's Release should run on Close")
}
