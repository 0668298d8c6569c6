package ring

import (
	"fmt"
	"testing"
	"time"

	"github.com/cuemby/ringplace/pkg/node"
	"github.com/cuemby/ringplace/pkg/quorum"
	"github.com/cuemby/ringplace/pkg/rebalance"
	"github.com/cuemby/ringplace/pkg/strategy"
	"github.com/cuemby/ringplace/pkg/topology"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRing(kind strategy.Kind) *Ring {
	return New(Config{
		Name:              "test",
		StrategyType:      kind,
		Vnode:             strategy.DefaultVnodeConfig(),
		DefaultQuorum:     quorum.Policy{ReplicaCount: 3, Level: quorum.Quorum},
		ExpectedNodeCount: 8,
		HashSeed:          1,
	})
}

func nodeConfig(id uint64, dc, rack uint32) node.Config {
	return node.Config{
		ID:       id,
		Name:     fmt.Sprintf("node-%d", id),
		Location: topology.Location{NodeID: id, DCID: dc, RackID: rack},
		Weight:   1,
	}
}

func TestThreeNodeKetamaLocate(t *testing.T) {
	r := newTestRing(strategy.Ketama)
	for i := uint64(1); i <= 3; i++ {
		_, err := r.AddNode(nodeConfig(i, 0, uint32(i)))
		require.NoError(t, err)
	}
	require.NoError(t, r.SetNodeState(1, node.Up))
	require.NoError(t, r.SetNodeState(2, node.Up))
	require.NoError(t, r.SetNodeState(3, node.Up))

	p, err := r.Locate([]byte("user-42"))
	require.NoError(t, err)
	assert.NotNil(t, p.Primary)
	assert.LessOrEqual(t, len(p.Replicas), 3)

	p2, err := r.Locate([]byte("user-42"))
	require.NoError(t, err)
	assert.Equal(t, p.Primary.ID, p2.Primary.ID)
}

func TestLocateFailsWhenNoNodes(t *testing.T) {
	r := newTestRing(strategy.Ketama)
	_, err := r.Locate([]byte("anything"))
	assert.Error(t, err)
}

func TestQuorumDerivationFromLocate(t *testing.T) {
	r := newTestRing(strategy.Ketama)
	for i := uint64(1); i <= 5; i++ {
		_, err := r.AddNode(nodeConfig(i, 0, uint32(i)))
		require.NoError(t, err)
		require.NoError(t, r.SetNodeState(i, node.Up))
	}

	ws, err := r.PlanWrite([]byte("order-7"))
	require.NoError(t, err)
	assert.Equal(t, 2, ws.SyncRequired) // quorum over 3 replicas: 3/2+1 = 2

	rs, err := r.PlanRead([]byte("order-7"))
	require.NoError(t, err)
	assert.Equal(t, 2, rs.RequiredResponses)
}

func TestRackSpreadAffinityRepairsAcrossRacks(t *testing.T) {
	r := New(Config{
		Name:              "rack-test",
		StrategyType:      strategy.Rendezvous,
		DefaultQuorum:     quorum.Policy{ReplicaCount: 3, Level: quorum.Quorum},
		AffinityRules:     []topology.Rule{topology.RackSpread(3)},
		ExpectedNodeCount: 8,
		HashSeed:          1,
	})
	// 6 nodes across 3 racks, 2 each.
	for i := uint64(1); i <= 6; i++ {
		rack := uint32((i-1)%3) + 1
		_, err := r.AddNode(nodeConfig(i, 0, rack))
		require.NoError(t, err)
		require.NoError(t, r.SetNodeState(i, node.Up))
	}

	p, err := r.Locate([]byte("shard-1"))
	require.NoError(t, err)
	racks := make(map[uint32]bool)
	for _, n := range p.Replicas {
		racks[n.Location.RackID] = true
	}
	assert.Len(t, racks, 3, "expected replicas spread across all 3 racks")
}

func TestStateTransitionRejectsIllegalEdgeAndFiresCallback(t *testing.T) {
	r := newTestRing(strategy.Ketama)
	_, err := r.AddNode(nodeConfig(1, 0, 1))
	require.NoError(t, err)

	var transitions []string
	r.OnStateChange(func(rr *Ring, id uint64, old, next node.State) {
		transitions = append(transitions, string(old)+"->"+string(next))
	})

	require.NoError(t, r.SetNodeState(1, node.Up))
	err = r.SetNodeState(1, node.Recovering) // Up->Recovering is not a legal edge
	assert.Error(t, err)
	assert.Equal(t, []string{"joining->up"}, transitions)
}

func TestVersionAdvancesOnlyOnCommittedMutation(t *testing.T) {
	r := newTestRing(strategy.Ketama)
	_, err := r.AddNode(nodeConfig(1, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), r.Version())

	err = r.SetNodeWeight(999, 5) // unknown node: rejected, version unchanged
	assert.Error(t, err)
	assert.Equal(t, uint64(1), r.Version())
}

func TestJumpRemovalOnlyMovesEvictedNodesKeys(t *testing.T) {
	r := newTestRing(strategy.Jump)
	for i := uint64(1); i <= 10; i++ {
		_, err := r.AddNode(nodeConfig(i, 0, uint32(i)))
		require.NoError(t, err)
		require.NoError(t, r.SetNodeState(i, node.Up))
	}

	keys := make([][]byte, 200)
	before := make(map[int]uint64, len(keys))
	for i := range keys {
		keys[i] = []byte(fmt.Sprintf("k-%d", i))
		p, err := r.Locate(keys[i])
		require.NoError(t, err)
		before[i] = p.Primary.ID
	}

	require.NoError(t, r.RemoveNode(10))

	for i := range keys {
		p, err := r.Locate(keys[i])
		require.NoError(t, err)
		if before[i] != 10 {
			assert.Equal(t, before[i], p.Primary.ID, "key %d should not have moved", i)
		}
	}
}

func TestRebalancePlanFiresOnNodeAdd(t *testing.T) {
	r := newTestRing(strategy.Ketama)
	for i := uint64(1); i <= 4; i++ {
		_, err := r.AddNode(nodeConfig(i, 0, uint32(i)))
		require.NoError(t, err)
		require.NoError(t, r.SetNodeState(i, node.Up))
	}

	var plans int
	r.OnRebalancePlan(func(rr *Ring, plan *rebalance.Plan) {
		plans++
	})
	_, err := r.AddNode(nodeConfig(5, 0, 5))
	require.NoError(t, err)
	assert.NotNil(t, r.GetRebalancePlan())
	assert.Equal(t, 1, plans)
}

func TestSelectReadNodePrefersUpOverSuspect(t *testing.T) {
	up := node.New(node.Config{ID: 1, Name: "up", InitialState: node.Up}, time.Unix(0, 0))
	up.Health = node.Health{Reachable: true}
	suspect := node.New(node.Config{ID: 2, Name: "suspect", InitialState: node.Suspect}, time.Unix(0, 0))
	suspect.Health = node.Health{Reachable: true}

	p := &Placement{Primary: suspect, Replicas: []*node.Node{suspect, up}}
	best := SelectReadNode(p)
	assert.Equal(t, up.ID, best.ID)
}

func TestSelectReadNodeSkipsReceiveOnlyStates(t *testing.T) {
	recovering := node.New(node.Config{ID: 1, Name: "recovering", InitialState: node.Recovering}, time.Unix(0, 0))
	recovering.Health = node.Health{Reachable: true}
	suspect := node.New(node.Config{ID: 2, Name: "suspect", InitialState: node.Suspect}, time.Unix(0, 0))

	p := &Placement{Primary: recovering, Replicas: []*node.Node{recovering, suspect}}
	best := SelectReadNode(p)
	assert.Equal(t, suspect.ID, best.ID, "a placement-eligible Suspect replica should win over a receive-only Recovering one")

	joining := node.New(node.Config{ID: 3, Name: "joining", InitialState: node.Joining}, time.Unix(0, 0))
	onlyReceiveOnly := &Placement{Primary: joining, Replicas: []*node.Node{joining}}
	assert.Equal(t, joining.ID, SelectReadNode(onlyReceiveOnly).ID, "falls back to the only replica even if it's receive-only")
}

func TestStatsRecordsLocateOutcomes(t *testing.T) {
	r := newTestRing(strategy.Ketama)
	for i := uint64(1); i <= 3; i++ {
		_, err := r.AddNode(nodeConfig(i, 0, uint32(i)))
		require.NoError(t, err)
		require.NoError(t, r.SetNodeState(i, node.Up))
	}
	_, err := r.Locate([]byte("k"))
	require.NoError(t, err)
	stats := r.Stats()
	assert.Equal(t, uint64(1), stats.LocateCount)
}
