package aggro

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zoneai/zoneai/internal/character"
)

func TestEntriesOrderingStability(t *testing.T) {
	// S4: (1,+5), (2,+5), (3,+3) -> [(1,5),(2,5),(3,3)]
	m := NewManager(DecrementPerSecond(1), 0)
	m.AddAggro(1, 5)
	m.AddAggro(2, 5)
	m.AddAggro(3, 3)

	entries := m.Entries()
	require.Len(t, entries, 3)
	require.Equal(t, character.Id(1), entries[0].CharacterId)
	require.Equal(t, character.Id(2), entries[1].CharacterId)
	require.Equal(t, character.Id(3), entries[2].CharacterId)
	require.Equal(t, float32(5), entries[0].Amount)
	require.Equal(t, float32(5), entries[1].Amount)
	require.Equal(t, float32(3), entries[2].Amount)
}

func TestAddAggroCapsAtZero(t *testing.T) {
	m := NewManager(DecrementPerSecond(1), 0)
	m.AddAggro(1, 2)
	m.AddAggro(1, -10)

	_, ok := m.GetHighestEntry()
	require.False(t, ok, "reducing the last entry to zero removes it")
}

func TestGetHighestEntryEmpty(t *testing.T) {
	m := NewManager(DecrementPerSecond(1), 0)
	_, ok := m.GetHighestEntry()
	require.False(t, ok)
}

func TestUpdateAppliesDecrementPolicy(t *testing.T) {
	// Property 5: after addAggro(c,a) + update(t) with decay P, entry == max(0, P(a,t))
	m := NewManager(DecrementPerSecond(2), 0)
	m.AddAggro(1, 10)
	m.Update(1000) // 1 second elapsed

	entries := m.Entries()
	require.Len(t, entries, 1)
	require.Equal(t, float32(8), entries[0].Amount)
}

func TestUpdatePrunesAtThreshold(t *testing.T) {
	m := NewManager(DecrementPerSecond(1), 2)
	m.AddAggro(1, 3)
	m.Update(1000) // amount -> 2, at threshold -> pruned (Open Question (a): "after")

	require.Equal(t, 0, m.Len())
}

func TestUpdateRatioDecay(t *testing.T) {
	m := NewManager(RatioDecayPerSecond(0.5), 0)
	m.AddAggro(1, 10)
	m.Update(1000)

	entries := m.Entries()
	require.Len(t, entries, 1)
	require.InDelta(t, 5.0, entries[0].Amount, 0.001)
}
