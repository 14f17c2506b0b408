package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helper to create a valid event
func makeEvent(id string) Event {
	ts, _ := NoonUTC("2026-02-09")
	return Event{
		ID:         id,
		Date:       "2026-02-09",
		Timestamp:  ts,
		Type:       TypeRescueInhaler,
		Count:      2,
		Preventive: false,
	}
}

func TestValidate_Valid(t *testing.T) {
	err := Validate(makeEvent("ev-1"))
	assert.NoError(t, err)
}

func TestValidate_Rejections(t *testing.T) {
	testCases := []struct {
		name     string
		mutate   func(*Event)
		wantCode ValidationCode
	}{
		{"empty date", func(e *Event) { e.Date = "" }, CodeInvalidDate},
		{"wrong layout", func(e *Event) { e.Date = "09/02/2026" }, CodeInvalidDate},
		{"impossible day", func(e *Event) { e.Date = "2026-02-30" }, CodeInvalidDate},
		{"zero count", func(e *Event) { e.Count = 0 }, CodeInvalidCount},
		{"negative count", func(e *Event) { e.Count = -3 }, CodeInvalidCount},
		{"unknown type", func(e *Event) { e.Type = "nebulizer" }, CodeInvalidType},
		{"empty type", func(e *Event) { e.Type = "" }, CodeInvalidType},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ev := makeEvent("ev-1")
			tc.mutate(&ev)

			err := Validate(ev)
			require.Error(t, err)

			ve, ok := err.(*ValidationError)
			require.True(t, ok, "expected *ValidationError, got %T", err)
			assert.Equal(t, tc.wantCode, ve.Code)
			assert.True(t, IsValidationError(err))
		})
	}
}

func TestContentEquals_IgnoresIDAndTimestamp(t *testing.T) {
	a := makeEvent("device-a-uuid")
	b := makeEvent("device-b-uuid")
	b.Timestamp = b.Timestamp.Add(3 * time.Hour)

	assert.True(t, ContentEquals(a, b),
		"same dose recorded on two devices should content-match")
}

func TestContentEquals_FieldSensitivity(t *testing.T) {
	base := makeEvent("ev-1")

	testCases := []struct {
		name   string
		mutate func(*Event)
	}{
		{"different date", func(e *Event) { e.Date = "2026-02-10" }},
		{"different type", func(e *Event) { e.Type = TypeControllerInhaler }},
		{"different count", func(e *Event) { e.Count = 1 }},
		{"different preventive", func(e *Event) { e.Preventive = true }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			other := makeEvent("ev-2")
			tc.mutate(&other)
			assert.False(t, ContentEquals(base, other))
		})
	}
}

func TestCollection_ContainsID(t *testing.T) {
	c := Collection{makeEvent("a"), makeEvent("b")}

	assert.True(t, c.ContainsID("a"))
	assert.True(t, c.ContainsID("b"))
	assert.False(t, c.ContainsID("c"))

	ev, ok := c.ByID("b")
	require.True(t, ok)
	assert.Equal(t, "b", ev.ID)

	_, ok = c.ByID("missing")
	assert.False(t, ok)
}

func TestNoonUTC(t *testing.T) {
	ts, err := NoonUTC("2026-02-09")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC), ts)

	_, err = NoonUTC("not-a-date")
	assert.Error(t, err)
}
