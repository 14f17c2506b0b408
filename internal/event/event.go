package event

import (
	"time"
)

// DateFormat is the calendar-date layout used by Event.Date.
const DateFormat = "2006-01-02"

// Type identifies a medicine category. The enumeration is closed: records
// carrying any other value fail validation.
type Type string

const (
	// TypeRescueInhaler is a quick-relief dose (e.g. salbutamol).
	TypeRescueInhaler Type = "rescue-inhaler"

	// TypeControllerInhaler is a maintenance dose (e.g. corticosteroid).
	TypeControllerInhaler Type = "controller-inhaler"
)

// ValidTypes defines the allowed medicine categories.
var ValidTypes = map[Type]bool{
	TypeRescueInhaler:     true,
	TypeControllerInhaler: true,
}

// Event is one usage record.
//
// Date is the logical day the dose belongs to, independent of Timestamp.
// Timestamp orders records for display and export only; it never participates
// in identity or merge matching.
type Event struct {
	ID         string    `json:"id"`
	Date       string    `json:"date"` // YYYY-MM-DD
	Timestamp  time.Time `json:"timestamp"`
	Type       Type      `json:"type"`
	Count      int       `json:"count"`
	Preventive bool      `json:"preventive"`
}

// Collection is a bag of events keyed logically by ID. ID is unique within a
// collection; no other uniqueness constraint exists (two distinct events may
// share date, type, count, and preventive).
type Collection []Event

// ContainsID reports whether the collection holds an event with the given ID.
func (c Collection) ContainsID(id string) bool {
	for _, ev := range c {
		if ev.ID == id {
			return true
		}
	}
	return false
}

// ByID returns the event with the given ID.
func (c Collection) ByID(id string) (Event, bool) {
	for _, ev := range c {
		if ev.ID == id {
			return ev, true
		}
	}
	return Event{}, false
}

// ContentEquals reports whether two events describe the same real-world dose:
// equal date, type, count, and preventive flag. ID and Timestamp are excluded.
// This is the matching predicate reconciliation uses to detect doses logged
// independently on two devices.
func ContentEquals(a, b Event) bool {
	return a.Date == b.Date &&
		a.Type == b.Type &&
		a.Count == b.Count &&
		a.Preventive == b.Preventive
}

// NoonUTC returns the deterministic timestamp anchor for a date: 12:00:00 UTC
// of that day. Used for backfilled entries and migrated legacy records so they
// sort predictably without inventing a wall-clock time that never existed.
func NoonUTC(date string) (time.Time, error) {
	d, err := time.Parse(DateFormat, date)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 12, 0, 0, 0, time.UTC), nil
}
