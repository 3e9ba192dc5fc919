package debugserver

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zoneai/zoneai/internal/agent"
	"github.com/zoneai/zoneai/internal/aggro"
	"github.com/zoneai/zoneai/internal/aicore"
	"github.com/zoneai/zoneai/internal/behavior"
	"github.com/zoneai/zoneai/internal/character"
)

// TestSnapshotRunningComesFromParent exercises the PrioritySelector
// preemption case: once a higher-priority child starts succeeding, the
// previously running lower-priority child is never re-invoked this tick, so
// its own LastStatus is a stale RUNNING from the prior tick. The snapshot's
// running flag must come from the parent's RunningChildren set, not from
// that stale per-node status.
func TestSnapshotRunningComesFromParent(t *testing.T) {
	highActive := false
	high := behavior.NewUserLeaf("high", nil, func(aicore.Agent, int64) aicore.Status {
		if highActive {
			return aicore.StatusRunning
		}
		return aicore.StatusFailed
	})
	low := behavior.NewIdle("low", nil, 1000)
	root := behavior.NewPrioritySelector("root", nil, high, low)

	ai := agent.New(character.NewBasic(1, 0, 0, 0), aggro.DecrementPerSecond(1), 0)
	ai.SetRoot(root)

	// Tick 1: high fails, so low runs and is recorded RUNNING.
	ai.Update(10, true)

	// Tick 2: high starts running and preempts; low is never re-invoked
	// this tick, leaving its own LastStatus stuck at RUNNING.
	highActive = true
	ai.Update(10, true)

	tree := snapshot(root, ai, true)
	require.True(t, tree.Running, "root is always reported as running")
	require.Len(t, tree.Children, 2)

	highSnap, lowSnap := tree.Children[0], tree.Children[1]
	require.Equal(t, "high", highSnap.Name)
	require.True(t, highSnap.Running, "high is the child the parent is currently running")

	require.Equal(t, "low", lowSnap.Name)
	require.Equal(t, aicore.StatusRunning, lowSnap.Status, "low's own last recorded status is still stale RUNNING")
	require.False(t, lowSnap.Running, "low must not be reported running - the parent preempted away from it without re-invoking it this tick")
}
