package metrics

import (
	"testing"

	"github.com/cuemby/ringplace/pkg/node"
	"github.com/cuemby/ringplace/pkg/quorum"
	"github.com/cuemby/ringplace/pkg/ring"
	"github.com/cuemby/ringplace/pkg/strategy"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorPublishesNodeAndRingGauges(t *testing.T) {
	r := ring.New(ring.Config{
		Name:              "metrics-test",
		StrategyType:      strategy.Ketama,
		Vnode:             strategy.DefaultVnodeConfig(),
		DefaultQuorum:     quorum.Policy{ReplicaCount: 2, Level: quorum.One},
		ExpectedNodeCount: 4,
		HashSeed:          1,
	})
	_, err := r.AddNode(node.Config{ID: 1, Name: "n1", Weight: 1})
	require.NoError(t, err)
	require.NoError(t, r.SetNodeState(1, node.Up))

	c := NewCollector(r)
	c.collect()

	assert.Equal(t, float64(1), testutil.ToFloat64(NodesTotal.WithLabelValues("up")))
	assert.Equal(t, float64(r.Version()), testutil.ToFloat64(RingVersion))
}
