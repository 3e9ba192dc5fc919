package behavior

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zoneai/zoneai/internal/aggro"
	"github.com/zoneai/zoneai/internal/aicore"
	"github.com/zoneai/zoneai/internal/character"
	"github.com/zoneai/zoneai/internal/condition"
)

// fakeAgent is a minimal aicore.Agent stub for tree-node unit tests; it
// owns its own node-state map the way agent.AI does, so ResetState/Execute
// behave exactly as they would against the real implementation.
type fakeAgent struct {
	id     character.Id
	char   character.Character
	mgr    *aggro.Manager
	zone   aicore.ZoneView
	time   int64
	states map[uint64]*aicore.NodeState
}

func newFakeAgent(id character.Id) *fakeAgent {
	return &fakeAgent{
		id:     id,
		char:   character.NewBasic(id, 0, 0, 0),
		mgr:    aggro.NewManager(aggro.DecrementPerSecond(1), 0),
		states: make(map[uint64]*aicore.NodeState),
	}
}

func (f *fakeAgent) Id() character.Id               { return f.id }
func (f *fakeAgent) Character() character.Character { return f.char }
func (f *fakeAgent) AggroManager() *aggro.Manager    { return f.mgr }
func (f *fakeAgent) Time() int64                     { return f.time }
func (f *fakeAgent) Zone() (aicore.ZoneView, bool)   { return f.zone, f.zone != nil }

func (f *fakeAgent) NodeState(id uint64) *aicore.NodeState {
	s, ok := f.states[id]
	if !ok {
		s = aicore.NewNodeState()
		f.states[id] = s
	}
	return s
}

func (f *fakeAgent) ResetNodeState(id uint64) {
	f.states[id] = aicore.NewNodeState()
}

func TestPrioritySelectorReturnsFirstNonFailed(t *testing.T) {
	fail := NewUserLeaf("fail", nil, func(aicore.Agent, int64) aicore.Status { return aicore.StatusFailed })
	finish := NewUserLeaf("finish", nil, func(aicore.Agent, int64) aicore.Status { return aicore.StatusFinished })
	root := NewPrioritySelector("root", nil, fail, finish)

	agent := newFakeAgent(1)
	st := root.Execute(agent, 10)
	require.Equal(t, aicore.StatusFinished, st)
}

func TestPrioritySelectorPreemptsRunningChild(t *testing.T) {
	running := NewUserLeaf("running", nil, func(aicore.Agent, int64) aicore.Status { return aicore.StatusRunning })
	finishCalls := 0
	finish := NewUserLeaf("finish", nil, func(aicore.Agent, int64) aicore.Status {
		finishCalls++
		return aicore.StatusFinished
	})
	root := NewPrioritySelector("root", nil, finish, running)

	agent := newFakeAgent(1)
	st := root.Execute(agent, 10)
	require.Equal(t, aicore.StatusFinished, st)
	require.Equal(t, 1, finishCalls, "higher-priority child always re-evaluated, preempting a running lower-priority child")
}

func TestSelectorResumesRunningChildWithoutPreemption(t *testing.T) {
	firstCalls := 0
	first := NewUserLeaf("first", nil, func(aicore.Agent, int64) aicore.Status {
		firstCalls++
		return aicore.StatusFailed
	})
	secondRunning := true
	second := NewUserLeaf("second", nil, func(aicore.Agent, int64) aicore.Status {
		if secondRunning {
			return aicore.StatusRunning
		}
		return aicore.StatusFinished
	})
	root := NewSelector("root", nil, first, second)
	agent := newFakeAgent(1)

	st := root.Execute(agent, 10)
	require.Equal(t, aicore.StatusRunning, st)
	require.Equal(t, 1, firstCalls)

	// Second tick: selector should resume "second" directly, not
	// re-evaluate "first".
	st = root.Execute(agent, 10)
	require.Equal(t, aicore.StatusRunning, st)
	require.Equal(t, 1, firstCalls, "no preemption: first must not be re-evaluated while second is running")

	secondRunning = false
	st = root.Execute(agent, 10)
	require.Equal(t, aicore.StatusFinished, st)
}

func TestSequenceFailsOnFirstFailedChild(t *testing.T) {
	ok := NewUserLeaf("ok", nil, func(aicore.Agent, int64) aicore.Status { return aicore.StatusFinished })
	bad := NewUserLeaf("bad", nil, func(aicore.Agent, int64) aicore.Status { return aicore.StatusFailed })
	neverCalled := 0
	after := NewUserLeaf("after", nil, func(aicore.Agent, int64) aicore.Status {
		neverCalled++
		return aicore.StatusFinished
	})
	root := NewSequence("root", nil, ok, bad, after)

	st := root.Execute(newFakeAgent(1), 10)
	require.Equal(t, aicore.StatusFailed, st)
	require.Equal(t, 0, neverCalled)
}

func TestSequenceFinishedOnlyWhenAllFinished(t *testing.T) {
	one := NewUserLeaf("one", nil, func(aicore.Agent, int64) aicore.Status { return aicore.StatusFinished })
	two := NewUserLeaf("two", nil, func(aicore.Agent, int64) aicore.Status { return aicore.StatusFinished })
	root := NewSequence("root", nil, one, two)

	st := root.Execute(newFakeAgent(1), 10)
	require.Equal(t, aicore.StatusFinished, st)
}

func TestSequenceRunningChildShortCircuits(t *testing.T) {
	one := NewUserLeaf("one", nil, func(aicore.Agent, int64) aicore.Status { return aicore.StatusRunning })
	calls := 0
	two := NewUserLeaf("two", nil, func(aicore.Agent, int64) aicore.Status {
		calls++
		return aicore.StatusFinished
	})
	root := NewSequence("root", nil, one, two)

	st := root.Execute(newFakeAgent(1), 10)
	require.Equal(t, aicore.StatusRunning, st)
	require.Equal(t, 0, calls)
}

func TestParallelSemantics(t *testing.T) {
	finished := NewUserLeaf("a", nil, func(aicore.Agent, int64) aicore.Status { return aicore.StatusFinished })
	running := NewUserLeaf("b", nil, func(aicore.Agent, int64) aicore.Status { return aicore.StatusRunning })
	failed := NewUserLeaf("c", nil, func(aicore.Agent, int64) aicore.Status { return aicore.StatusFailed })

	agent := newFakeAgent(1)
	require.Equal(t, aicore.StatusRunning, NewParallel("p1", nil, finished, running).Execute(agent, 10))
	require.Equal(t, aicore.StatusFailed, NewParallel("p2", nil, finished, failed).Execute(agent, 10))
	require.Equal(t, aicore.StatusFinished, NewParallel("p3", nil, finished, finished).Execute(agent, 10))
}

func TestInvertMapsFinishedAndFailed(t *testing.T) {
	finish := NewUserLeaf("finish", nil, func(aicore.Agent, int64) aicore.Status { return aicore.StatusFinished })
	fail := NewUserLeaf("fail", nil, func(aicore.Agent, int64) aicore.Status { return aicore.StatusFailed })
	running := NewUserLeaf("running", nil, func(aicore.Agent, int64) aicore.Status { return aicore.StatusRunning })

	agent := newFakeAgent(1)
	require.Equal(t, aicore.StatusFailed, NewInvert("i1", nil, finish).Execute(agent, 10))
	require.Equal(t, aicore.StatusFinished, NewInvert("i2", nil, fail).Execute(agent, 10))
	require.Equal(t, aicore.StatusRunning, NewInvert("i3", nil, running).Execute(agent, 10))
}

func TestLimitAllowsNFinishesThenCannotExecute(t *testing.T) {
	child := NewUserLeaf("child", nil, func(aicore.Agent, int64) aicore.Status { return aicore.StatusFinished })
	l := NewLimit("limited", nil, 2, child)
	agent := newFakeAgent(1)

	require.Equal(t, aicore.StatusFinished, l.Execute(agent, 10))
	require.Equal(t, aicore.StatusFinished, l.Execute(agent, 10))
	require.Equal(t, aicore.StatusCannotExecute, l.Execute(agent, 10))
}

func TestIdleRunsThenFinishes(t *testing.T) {
	node := NewIdle("idle", nil, 100)
	agent := newFakeAgent(1)

	require.Equal(t, aicore.StatusRunning, node.Execute(agent, 40))
	require.Equal(t, aicore.StatusRunning, node.Execute(agent, 40))
	require.Equal(t, aicore.StatusFinished, node.Execute(agent, 40))
}

func TestIdleRunsOnBoundaryTick(t *testing.T) {
	// Spec §8 scenario S1: PrioritySelector(True,[Idle(10)]), update(5) x3
	// must yield RUNNING, RUNNING, FINISHED - the second tick lands exactly
	// on the boundary (counter == ms) and still runs; the third tick
	// (counter 15) finishes.
	node := NewIdle("idle", nil, 10)
	agent := newFakeAgent(1)

	require.Equal(t, aicore.StatusRunning, node.Execute(agent, 5))
	require.Equal(t, aicore.StatusRunning, node.Execute(agent, 5))
	require.Equal(t, aicore.StatusFinished, node.Execute(agent, 5))
}

func TestConditionGatesCannotExecute(t *testing.T) {
	node := NewUserLeaf("gated", condition.False(), func(aicore.Agent, int64) aicore.Status {
		t.Fatal("doExecute must not run when condition is false")
		return aicore.StatusFinished
	})
	st := node.Execute(newFakeAgent(1), 10)
	require.Equal(t, aicore.StatusCannotExecute, st)
}

func TestExecuteTwiceIsIdempotentAtZeroDt(t *testing.T) {
	// Spec §8 property 2: T.execute(A,0) twice in succession yields the
	// same status and the same runningChildren set.
	running := NewUserLeaf("running", nil, func(aicore.Agent, int64) aicore.Status { return aicore.StatusRunning })
	root := NewPrioritySelector("root", nil, running)
	agent := newFakeAgent(1)

	st1 := root.Execute(agent, 0)
	rc1 := root.RunningChildren(agent)
	st2 := root.Execute(agent, 0)
	rc2 := root.RunningChildren(agent)

	require.Equal(t, st1, st2)
	require.Equal(t, rc1, rc2)
}

func TestResetStateReproducesFreshBehavior(t *testing.T) {
	// Spec §8 property 3: resetState(A) followed by execute(A,dt)
	// reproduces what a freshly constructed agent would produce.
	child := NewUserLeaf("child", nil, func(aicore.Agent, int64) aicore.Status { return aicore.StatusFinished })
	l := NewLimit("limited", nil, 1, child)

	agentA := newFakeAgent(1)
	require.Equal(t, aicore.StatusFinished, l.Execute(agentA, 10))
	require.Equal(t, aicore.StatusCannotExecute, l.Execute(agentA, 10))

	l.ResetState(agentA)
	agentFresh := newFakeAgent(2)

	require.Equal(t, l.Execute(agentFresh, 10), l.Execute(agentA, 10))
}

func TestRandomSelectorDeterministicAtSameTick(t *testing.T) {
	a := NewUserLeaf("a", nil, func(aicore.Agent, int64) aicore.Status { return aicore.StatusFailed })
	b := NewUserLeaf("b", nil, func(aicore.Agent, int64) aicore.Status { return aicore.StatusFinished })
	root := NewRandomSelector("root", nil, a, b)

	agent := newFakeAgent(7)
	st1 := root.Execute(agent, 0)
	st2 := root.Execute(agent, 0)
	require.Equal(t, st1, st2)
}

func TestRandomSelectorAllFailed(t *testing.T) {
	a := NewUserLeaf("a", nil, func(aicore.Agent, int64) aicore.Status { return aicore.StatusFailed })
	b := NewUserLeaf("b", nil, func(aicore.Agent, int64) aicore.Status { return aicore.StatusFailed })
	root := NewRandomSelector("root", nil, a, b)

	st := root.Execute(newFakeAgent(1), 10)
	require.Equal(t, aicore.StatusFailed, st)
}
