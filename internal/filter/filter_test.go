package filter

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zoneai/zoneai/internal/aggro"
	"github.com/zoneai/zoneai/internal/aicore"
	"github.com/zoneai/zoneai/internal/character"
)

type fakeAgent struct {
	id   character.Id
	char character.Character
	mgr  *aggro.Manager
	zone aicore.ZoneView
}

func newFakeAgent(id character.Id) *fakeAgent {
	return &fakeAgent{
		id:   id,
		char: character.NewBasic(id, 0, 0, 0),
		mgr:  aggro.NewManager(aggro.DecrementPerSecond(1), 0),
	}
}

func (f *fakeAgent) Id() character.Id                   { return f.id }
func (f *fakeAgent) Character() character.Character     { return f.char }
func (f *fakeAgent) AggroManager() *aggro.Manager        { return f.mgr }
func (f *fakeAgent) Time() int64                         { return 0 }
func (f *fakeAgent) Zone() (aicore.ZoneView, bool)       { return f.zone, f.zone != nil }
func (f *fakeAgent) NodeState(uint64) *aicore.NodeState  { return aicore.NewNodeState() }
func (f *fakeAgent) ResetNodeState(uint64)               {}

// constFilter always returns the same fixed id set, ignoring the agent.
type constFilter struct{ ids []character.Id }

func (c constFilter) Filter(aicore.Agent, []character.Id) []character.Id { return c.ids }

func ids(vs ...uint64) []character.Id {
	out := make([]character.Id, len(vs))
	for i, v := range vs {
		out[i] = character.Id(v)
	}
	return out
}

func TestDifferenceScenarioS3(t *testing.T) {
	// Buffer initially [7,8]. Children produce [1,2,3,4,5], [2,4], [5].
	// Expected final buffer: [7,8,1,3].
	f := Difference(
		constFilter{ids: ids(1, 2, 3, 4, 5)},
		constFilter{ids: ids(2, 4)},
		constFilter{ids: ids(5)},
	)

	buffer := ids(7, 8)
	result := f.Filter(newFakeAgent(1), buffer)
	require.Equal(t, ids(7, 8, 1, 3), result)
}

func TestDifferenceSingleChildPassesThrough(t *testing.T) {
	f := Difference(constFilter{ids: ids(1, 2, 3)})
	result := f.Filter(newFakeAgent(1), nil)
	require.Equal(t, ids(1, 2, 3), result)
}

func TestDifferenceNoChildren(t *testing.T) {
	f := Difference()
	result := f.Filter(newFakeAgent(1), ids(9))
	require.Equal(t, ids(9), result)
}

func TestUnion(t *testing.T) {
	f := Union(constFilter{ids: ids(1, 2)}, constFilter{ids: ids(2, 3)})
	result := f.Filter(newFakeAgent(1), nil)
	require.ElementsMatch(t, ids(1, 2, 3), result)
}

func TestIntersection(t *testing.T) {
	f := Intersection(constFilter{ids: ids(1, 2, 3)}, constFilter{ids: ids(2, 3, 4)})
	result := f.Filter(newFakeAgent(1), nil)
	require.Equal(t, ids(2, 3), result)
}

func TestIntersectionEmptyChildren(t *testing.T) {
	f := Intersection()
	result := f.Filter(newFakeAgent(1), ids(1))
	require.Equal(t, ids(1), result)
}

func TestSelectHighestAggro(t *testing.T) {
	agent := newFakeAgent(1)
	agent.mgr.AddAggro(5, 10)
	agent.mgr.AddAggro(6, 3)

	result := SelectHighestAggro().Filter(agent, nil)
	require.Equal(t, ids(5), result)
}

func TestSelectHighestAggroEmpty(t *testing.T) {
	agent := newFakeAgent(1)
	result := SelectHighestAggro().Filter(agent, nil)
	require.Empty(t, result)
}

func TestRegistryBuildSelectVisible(t *testing.T) {
	r := NewRegistry()
	f, err := r.Build("selectVisible", "12.5")
	require.NoError(t, err)
	require.NotNil(t, f)
}

func TestRegistryBuildUnknownRange(t *testing.T) {
	r := NewRegistry()
	_, err := r.Build("selectVisible", "not-a-number")
	require.Error(t, err)
}
