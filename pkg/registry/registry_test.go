package registry

import (
	"testing"
	"time"

	"github.com/cuemby/ringplace/pkg/node"
	"github.com/cuemby/ringplace/pkg/ringerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestAddRejectsDuplicateID(t *testing.T) {
	r := New(4)
	r.SetClock(fixedClock(time.Unix(0, 0)))
	_, err := r.Add(node.Config{ID: 1, Name: "a", InitialState: node.Up})
	require.NoError(t, err)

	_, err = r.Add(node.Config{ID: 1, Name: "b"})
	require.Error(t, err)
	assert.True(t, ringerr.Is(err, ringerr.AlreadyExists))
}

func TestHealthyCountTracksUpState(t *testing.T) {
	r := New(4)
	r.SetClock(fixedClock(time.Unix(0, 0)))
	_, err := r.Add(node.Config{ID: 1, Name: "a", InitialState: node.Joining})
	require.NoError(t, err)
	assert.Equal(t, 0, r.HealthyCount())

	require.NoError(t, r.SetState(1, node.Up))
	assert.Equal(t, 1, r.HealthyCount())

	require.NoError(t, r.SetState(1, node.Suspect))
	assert.Equal(t, 0, r.HealthyCount())
}

func TestSetStateRejectsIllegalTransition(t *testing.T) {
	r := New(4)
	r.SetClock(fixedClock(time.Unix(0, 0)))
	_, err := r.Add(node.Config{ID: 1, Name: "a", InitialState: node.Down})
	require.NoError(t, err)

	err = r.SetState(1, node.Up)
	require.Error(t, err)
	assert.True(t, ringerr.Is(err, ringerr.InvalidState))

	require.NoError(t, r.SetState(1, node.Recovering))
	require.NoError(t, r.SetState(1, node.Up))
}

func TestSetStateFiresCallbackPostCommit(t *testing.T) {
	r := New(4)
	r.SetClock(fixedClock(time.Unix(0, 0)))
	_, err := r.Add(node.Config{ID: 1, Name: "a", InitialState: node.Down})
	require.NoError(t, err)

	var transitions [][2]node.State
	r.OnStateChange(func(id uint64, old, next node.State) {
		n, ok := r.GetByID(id)
		require.True(t, ok)
		assert.Equal(t, next, n.State) // callback fires after commit
		transitions = append(transitions, [2]node.State{old, next})
	})

	require.NoError(t, r.SetState(1, node.Recovering))
	require.NoError(t, r.SetState(1, node.Up))
	assert.Equal(t, [][2]node.State{{node.Down, node.Recovering}, {node.Recovering, node.Up}}, transitions)
}

func TestAddBatchSkipsDuplicatesButContinues(t *testing.T) {
	r := New(4)
	r.SetClock(fixedClock(time.Unix(0, 0)))
	_, _ = r.Add(node.Config{ID: 2, Name: "existing"})

	added, errs := r.AddBatch([]node.Config{
		{ID: 1, Name: "a"},
		{ID: 2, Name: "dup"},
		{ID: 3, Name: "c"},
	})
	assert.Equal(t, []uint64{1, 3}, added)
	assert.Len(t, errs, 1)
	assert.Equal(t, 3, r.Count())
}

func TestRemoveUnknownFails(t *testing.T) {
	r := New(4)
	_, err := r.Remove(999)
	require.Error(t, err)
	assert.True(t, ringerr.Is(err, ringerr.NotFound))
}
