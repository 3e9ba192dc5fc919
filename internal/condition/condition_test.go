package condition

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zoneai/zoneai/internal/aggro"
	"github.com/zoneai/zoneai/internal/aicore"
	"github.com/zoneai/zoneai/internal/character"
)

// fakeAgent is a minimal aicore.Agent stub for condition/filter unit tests.
type fakeAgent struct {
	id   character.Id
	char character.Character
	mgr  *aggro.Manager
}

func newFakeAgent(id character.Id) *fakeAgent {
	return &fakeAgent{
		id:   id,
		char: character.NewBasic(id, 0, 0, 0),
		mgr:  aggro.NewManager(aggro.DecrementPerSecond(1), 0),
	}
}

func (f *fakeAgent) Id() character.Id             { return f.id }
func (f *fakeAgent) Character() character.Character { return f.char }
func (f *fakeAgent) AggroManager() *aggro.Manager   { return f.mgr }
func (f *fakeAgent) Time() int64                    { return 0 }
func (f *fakeAgent) Zone() (aicore.ZoneView, bool)  { return nil, false }
func (f *fakeAgent) NodeState(uint64) *aicore.NodeState { return aicore.NewNodeState() }
func (f *fakeAgent) ResetNodeState(uint64)          {}

func TestAndShortCircuits(t *testing.T) {
	calls := 0
	tracking := trackingCondition{fn: func() bool { calls++; return false }}
	c := And(tracking, trackingCondition{fn: func() bool { calls++; return true }})

	require.False(t, c.Evaluate(newFakeAgent(1)))
	require.Equal(t, 1, calls, "And must short-circuit after the first false child")
}

func TestOrShortCircuits(t *testing.T) {
	calls := 0
	c := Or(trackingCondition{fn: func() bool { calls++; return true }}, trackingCondition{fn: func() bool { calls++; return false }})

	require.True(t, c.Evaluate(newFakeAgent(1)))
	require.Equal(t, 1, calls, "Or must short-circuit after the first true child")
}

func TestNot(t *testing.T) {
	require.False(t, Not(True()).Evaluate(newFakeAgent(1)))
	require.True(t, Not(False()).Evaluate(newFakeAgent(1)))
}

func TestNameWithConditionsStable(t *testing.T) {
	c := And(True(), Or(False(), True()))
	agent := newFakeAgent(1)
	first := c.NameWithConditions(agent)
	second := c.NameWithConditions(agent)
	require.Equal(t, first, second)
	require.Equal(t, "And{True, Or{False, True}}", first)
}

func TestAttributeEquals(t *testing.T) {
	agent := newFakeAgent(1)
	agent.char.SetAttribute("state", "alert")

	c := AttributeEquals("state", "alert")
	require.True(t, c.Evaluate(agent))
	require.Equal(t, "AttributeEquals{state=alert}", c.NameWithConditions(agent))

	c2 := AttributeEquals("state", "calm")
	require.False(t, c2.Evaluate(agent))
}

func TestHasAggro(t *testing.T) {
	agent := newFakeAgent(1)
	require.False(t, HasAggro().Evaluate(agent))
	agent.mgr.AddAggro(2, 5)
	require.True(t, HasAggro().Evaluate(agent))
}

func TestRegistryDuplicateIsConfigurationError(t *testing.T) {
	r := NewRegistry()
	err := r.Register("true", func(string) (aicore.Condition, error) { return True(), nil })
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrConfiguration))
}

func TestRegistryUnknownIsConfigurationError(t *testing.T) {
	r := NewRegistry()
	_, err := r.Build("nonexistent", "")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrConfiguration))
}

func TestRegistryBuildKnown(t *testing.T) {
	r := NewRegistry()
	c, err := r.Build("hasAggro", "")
	require.NoError(t, err)
	require.False(t, c.Evaluate(newFakeAgent(1)))
}

// trackingCondition lets tests observe evaluation order/short-circuiting.
type trackingCondition struct {
	fn func() bool
}

func (t trackingCondition) Evaluate(aicore.Agent) bool         { return t.fn() }
func (t trackingCondition) NameWithConditions(aicore.Agent) string { return "tracking" }
