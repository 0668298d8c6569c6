package quorum

import (
	"testing"
	"time"

	"github.com/cuemby/ringplace/pkg/node"
	"github.com/cuemby/ringplace/pkg/ringerr"
	"github.com/cuemby/ringplace/pkg/topology"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fiveNodeCluster() ([]uint64, map[uint64]*node.Node) {
	nodes := make(map[uint64]*node.Node, 5)
	targets := make([]uint64, 5)
	for i := 0; i < 5; i++ {
		dc := uint32(0)
		if i >= 3 {
			dc = 1
		}
		n := node.New(node.Config{
			ID:           uint64(i + 1),
			Weight:       1,
			Location:     topology.Location{NodeID: uint64(i + 1), DCID: dc},
			InitialState: node.Up,
		}, time.Unix(0, 0))
		nodes[n.ID] = n
		targets[i] = n.ID
	}
	return targets, nodes
}

func TestPlanWriteQuorumDerivesRequiredAcks(t *testing.T) {
	targets, nodes := fiveNodeCluster()
	ws, err := PlanWrite(targets, nodes, Policy{ReplicaCount: 5, Level: Quorum})
	require.NoError(t, err)
	assert.Equal(t, 3, ws.SyncRequired)
	assert.Equal(t, 2, ws.AsyncAllowed)
	assert.Equal(t, targets, ws.Targets)
}

func TestPlanWriteAllRequiresEveryTarget(t *testing.T) {
	targets, nodes := fiveNodeCluster()
	ws, err := PlanWrite(targets, nodes, Policy{Level: All})
	require.NoError(t, err)
	assert.Equal(t, 5, ws.SyncRequired)
	assert.Equal(t, 0, ws.AsyncAllowed)
}

func TestPlanWriteExplicitOverrideWinsOverLevel(t *testing.T) {
	targets, nodes := fiveNodeCluster()
	ws, err := PlanWrite(targets, nodes, Policy{Level: All, WriteQuorum: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, ws.SyncRequired)
	assert.Equal(t, 4, ws.AsyncAllowed)
}

func TestPlanWriteFailsWhenTargetsInsufficient(t *testing.T) {
	targets, nodes := fiveNodeCluster()
	_, err := PlanWrite(targets, nodes, Policy{WriteQuorum: 10})
	require.Error(t, err)
	assert.True(t, ringerr.Is(err, ringerr.QuorumFailed))
}

func TestPlanReadLocalQuorumScopesToLocalDC(t *testing.T) {
	targets, nodes := fiveNodeCluster()
	rs, err := PlanRead(targets, nodes, Policy{Level: LocalQuorum, LocalDC: 0})
	require.NoError(t, err)
	// 3 nodes in DC 0: floor(3/2)+1 = 2
	assert.Equal(t, 2, rs.RequiredResponses)
	assert.Equal(t, targets, rs.Targets)
}

func TestPlanReadEachQuorumSumsPerDC(t *testing.T) {
	targets, nodes := fiveNodeCluster()
	rs, err := PlanRead(targets, nodes, Policy{Level: EachQuorum})
	require.NoError(t, err)
	// DC0 has 3 -> 2, DC1 has 2 -> 2, total 4
	assert.Equal(t, 4, rs.RequiredResponses)
}

func TestPlanReadOneRequiresSingleResponse(t *testing.T) {
	targets, nodes := fiveNodeCluster()
	rs, err := PlanRead(targets, nodes, Policy{Level: One})
	require.NoError(t, err)
	assert.Equal(t, 1, rs.RequiredResponses)
	assert.True(t, rs.ReadRepair == false)
}

func TestPlanReadExplicitReadQuorumWins(t *testing.T) {
	targets, nodes := fiveNodeCluster()
	rs, err := PlanRead(targets, nodes, Policy{Level: All, ReadQuorum: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, rs.RequiredResponses)
}
