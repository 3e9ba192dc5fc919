package agent

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zoneai/zoneai/internal/aggro"
	"github.com/zoneai/zoneai/internal/aicore"
	"github.com/zoneai/zoneai/internal/behavior"
	"github.com/zoneai/zoneai/internal/character"
)

func newTestAI(id character.Id) *AI {
	return New(character.NewBasic(id, 0, 0, 0), aggro.DecrementPerSecond(1), 0)
}

func TestUpdateAdvancesTimeAndTicksAggro(t *testing.T) {
	ai := newTestAI(1)
	ai.SetRoot(behavior.NewUserLeaf("noop", nil, func(aicore.Agent, int64) aicore.Status {
		return aicore.StatusFinished
	}))
	ai.AggroManager().AddAggro(2, 10)

	ai.Update(1000, false)

	require.Equal(t, int64(1000), ai.Time())
	entries := ai.AggroManager().Entries()
	require.Len(t, entries, 1)
	require.Less(t, entries[0].Amount, float32(10))
}

func TestUpdatePausedIsNoopUnlessForced(t *testing.T) {
	ai := newTestAI(1)
	calls := 0
	ai.SetRoot(behavior.NewUserLeaf("noop", nil, func(aicore.Agent, int64) aicore.Status {
		calls++
		return aicore.StatusFinished
	}))
	ai.SetPaused(true)

	ai.Update(1000, false)
	require.Equal(t, int64(0), ai.Time())
	require.Equal(t, 0, calls)

	ai.Update(1000, true)
	require.Equal(t, int64(1000), ai.Time())
	require.Equal(t, 1, calls)
}

func TestNodeStateCreatedOnFirstAccessAndPersists(t *testing.T) {
	ai := newTestAI(1)
	s := ai.NodeState(42)
	s.LastStatus = aicore.StatusRunning

	again := ai.NodeState(42)
	require.Equal(t, aicore.StatusRunning, again.LastStatus)
}

func TestResetNodeStateClearsToFresh(t *testing.T) {
	ai := newTestAI(1)
	s := ai.NodeState(1)
	s.LastStatus = aicore.StatusRunning
	s.Counter = 5

	ai.ResetNodeState(1)
	fresh := ai.NodeState(1)
	require.Equal(t, aicore.StatusUnknown, fresh.LastStatus)
	require.Equal(t, int64(0), fresh.Counter)
	require.Equal(t, aicore.NoLastExec, fresh.LastExecMillis)
}

func TestResetTreeDelegatesToRoot(t *testing.T) {
	ai := newTestAI(1)
	child := behavior.NewUserLeaf("child", nil, func(aicore.Agent, int64) aicore.Status {
		return aicore.StatusFinished
	})
	limit := behavior.NewLimit("limited", nil, 1, child)
	ai.SetRoot(limit)

	require.Equal(t, aicore.StatusFinished, limit.Execute(ai, 10))
	require.Equal(t, aicore.StatusCannotExecute, limit.Execute(ai, 10))

	ai.ResetTree()
	require.Equal(t, aicore.StatusFinished, limit.Execute(ai, 10), "resetTree must clear the limit's per-agent counter")
}

func TestZoneBackReference(t *testing.T) {
	ai := newTestAI(1)
	_, ok := ai.Zone()
	require.False(t, ok)

	var zv aicore.ZoneView
	ai.SetZone(zv)
	_, ok = ai.Zone()
	require.False(t, ok, "setting a nil ZoneView keeps Zone() reporting absent")
}

func TestDebugActiveFlag(t *testing.T) {
	ai := newTestAI(1)
	require.False(t, ai.DebugActive())
	ai.SetDebugActive(true)
	require.True(t, ai.DebugActive())
}
