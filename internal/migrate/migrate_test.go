package migrate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dosetrack/dosetrack/internal/event"
)

func TestDetect(t *testing.T) {
	testCases := []struct {
		name string
		raw  string
		want Version
	}{
		{"v0 bare numbers", `{"2026-02-09": 2}`, V0},
		{"v1 objects", `{"2026-02-09": {"sprayCount": 1}}`, V1},
		{"v2 envelope", `{"schema_version": 2, "events": []}`, V2},
		{"empty object", `{}`, V0},
		// Classification must not hinge on which value is examined first.
		{"mixed generations, number first", `{"2026-02-08": 2, "2026-02-09": {"sprayCount": 1}}`, V1},
		{"mixed generations, object first", `{"2026-02-08": {"sprayCount": 1}, "2026-02-09": 2}`, V1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Detect([]byte(tc.raw))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDetect_Unparseable(t *testing.T) {
	_, err := Detect([]byte(`[1, 2, 3`))
	assert.Error(t, err)
}

func TestRun_V0SingleCategory(t *testing.T) {
	res, err := Run([]byte(`{"2026-02-09": 3}`))
	require.NoError(t, err)

	assert.Equal(t, V0, res.From)
	assert.Zero(t, res.Skipped)
	require.Len(t, res.Events, 1)

	ev := res.Events[0]
	assert.Equal(t, "2026-02-09", ev.Date)
	assert.Equal(t, event.TypeRescueInhaler, ev.Type)
	assert.Equal(t, 3, ev.Count)
	assert.False(t, ev.Preventive)
	assert.NotEmpty(t, ev.ID, "migrated events must get a synthesized ID")

	wantTS, _ := event.NoonUTC("2026-02-09")
	assert.Equal(t, wantTS, ev.Timestamp, "synthetic timestamp is noon UTC of the date")
}

func TestRun_V1SplitsPerCategory(t *testing.T) {
	res, err := Run([]byte(`{"2026-02-09": {"sprayCount": 1, "controllerCount": 2}}`))
	require.NoError(t, err)

	require.Len(t, res.Events, 2, "multi-category record splits into one event per category")

	byType := map[event.Type]event.Event{}
	for _, ev := range res.Events {
		byType[ev.Type] = ev
	}
	require.Contains(t, byType, event.TypeRescueInhaler)
	require.Contains(t, byType, event.TypeControllerInhaler)
	assert.Equal(t, 1, byType[event.TypeRescueInhaler].Count)
	assert.Equal(t, 2, byType[event.TypeControllerInhaler].Count)

	assert.NotEqual(t, res.Events[0].ID, res.Events[1].ID,
		"each split event gets its own unique ID")
}

func TestRun_V1PreservesPreventive(t *testing.T) {
	res, err := Run([]byte(`{"2026-03-01": {"sprayCount": 1, "preventive": true}}`))
	require.NoError(t, err)

	require.Len(t, res.Events, 1)
	assert.True(t, res.Events[0].Preventive)
}

func TestRun_V2IsNoOp(t *testing.T) {
	res, err := Run([]byte(`{"schema_version": 2, "events": [{"id": "a"}]}`))
	require.NoError(t, err)

	assert.Equal(t, V2, res.From)
	assert.Empty(t, res.Events, "marker present: the pipeline must not touch the payload")
}

func TestRun_SkipsBadRecordsWithoutAborting(t *testing.T) {
	raw := `{
		"2026-02-09": {"sprayCount": 2},
		"not-a-date": {"sprayCount": 1},
		"2026-02-11": "garbage",
		"2026-02-12": {"controllerCount": -4}
	}`

	res, err := Run([]byte(raw))
	require.NoError(t, err, "bad records are skipped and counted, never fatal")

	assert.Equal(t, 3, res.Skipped)
	require.Len(t, res.Events, 1)
	assert.Equal(t, "2026-02-09", res.Events[0].Date)
}

func TestRun_MixedGenerations(t *testing.T) {
	// A device that crashed between V0 and V1 can hold both value shapes.
	raw := `{
		"2026-02-09": 2,
		"2026-02-10": {"controllerCount": 1}
	}`

	res, err := Run([]byte(raw))
	require.NoError(t, err)

	require.Len(t, res.Events, 2)
	assert.Equal(t, event.TypeRescueInhaler, res.Events[0].Type)
	assert.Equal(t, event.TypeControllerInhaler, res.Events[1].Type)
}

func TestRun_ZeroCountEmitsNothing(t *testing.T) {
	res, err := Run([]byte(`{"2026-02-09": {"sprayCount": 0}}`))
	require.NoError(t, err)

	assert.Empty(t, res.Events)
	assert.Zero(t, res.Skipped, "an explicit zero is nothing to persist, not an error")
}

func TestRun_DeterministicOrder(t *testing.T) {
	raw := `{
		"2026-02-11": 1,
		"2026-02-09": {"controllerCount": 2, "sprayCount": 1},
		"2026-02-10": 2
	}`

	var first event.Collection
	for i := 0; i < 5; i++ {
		res, err := Run([]byte(raw))
		require.NoError(t, err)
		require.Len(t, res.Events, 4)

		if first == nil {
			first = res.Events
			continue
		}
		for j := range first {
			assert.Equal(t, first[j].Date, res.Events[j].Date)
			assert.Equal(t, first[j].Type, res.Events[j].Type)
		}
	}
}
