package maintenance

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zoneai/zoneai/internal/agent"
	"github.com/zoneai/zoneai/internal/aggro"
	"github.com/zoneai/zoneai/internal/behavior"
	"github.com/zoneai/zoneai/internal/character"
	"github.com/zoneai/zoneai/internal/zone"
)

func TestNewReporterRejectsInvalidSchedule(t *testing.T) {
	_, err := NewReporter("not a cron expression")
	require.Error(t, err)
}

func TestNewReporterDefaultsEmptySchedule(t *testing.T) {
	r, err := NewReporter("")
	require.NoError(t, err)
	require.NotNil(t, r)
}

func TestRunNowDoesNotMutateZoneState(t *testing.T) {
	z := zone.New("test-zone")
	ai := agent.New(character.NewBasic(1, 0, 0, 0), aggro.DecrementPerSecond(1), 0)
	ai.SetRoot(behavior.NewIdle("idling", nil, 1000))
	require.True(t, z.AddAI(ai))
	z.Update(0)
	ai.AggroManager().AddAggro(2, 5)

	r, err := NewReporter("")
	require.NoError(t, err)
	r.Watch(z)

	require.NotPanics(t, func() { r.RunNow() })

	require.Equal(t, 1, z.Size())
	entries := ai.AggroManager().Entries()
	require.Len(t, entries, 1)
	require.Equal(t, character.Id(2), entries[0].CharacterId)
}

func TestStartStopIsIdempotentSafe(t *testing.T) {
	r, err := NewReporter("")
	require.NoError(t, err)

	require.NoError(t, r.Start())
	require.Error(t, r.Start(), "starting twice must fail")
	r.Stop()
}
