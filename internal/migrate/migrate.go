package migrate

import (
	"encoding/json"
	"sort"

	"github.com/google/uuid"

	"github.com/dosetrack/dosetrack/internal/event"
)

// Result is the outcome of one migration pass.
type Result struct {
	// Events is the migrated flat collection.
	Events event.Collection

	// From is the schema version the payload was migrated from.
	From Version

	// Skipped counts legacy records that could not be converted. A bad
	// record never aborts the pass.
	Skipped int
}

// Run migrates a legacy payload to the flat V2 collection.
//
// The pipeline is V0 -> V1 -> V2: bare numbers are first lifted into
// per-category objects, then every per-date object is flattened into one
// event per nonzero category. Both steps are pure; the caller persists the
// result atomically and records the schema-version marker so the pipeline
// never runs twice on one device.
func Run(raw []byte) (Result, error) {
	from, err := Detect(raw)
	if err != nil {
		return Result{}, err
	}
	if from == V2 {
		// Marker present: nothing to do.
		return Result{Events: nil, From: V2}, nil
	}

	var byDate map[string]json.RawMessage
	if err := json.Unmarshal(raw, &byDate); err != nil {
		return Result{}, err
	}

	records, skipped := v0ToV1(byDate)
	events, moreSkipped := v1ToV2(records)

	return Result{
		Events:  events,
		From:    from,
		Skipped: skipped + moreSkipped,
	}, nil
}

// v0ToV1 lifts bare per-date numbers into V1 per-category objects. Values
// that already are objects pass through unchanged, so a payload that mixes
// both generations still migrates. Unreadable values are dropped and counted.
func v0ToV1(byDate map[string]json.RawMessage) (map[string]v1Record, int) {
	records := make(map[string]v1Record, len(byDate))
	skipped := 0

	for date, raw := range byDate {
		var n int
		if err := json.Unmarshal(raw, &n); err == nil {
			// A bare number is a dose count of the default category.
			count := n
			records[date] = v1Record{SprayCount: &count}
			continue
		}

		var rec v1Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			skipped++
			continue
		}
		records[date] = rec
	}

	return records, skipped
}

// v1ToV2 flattens per-date objects into the V2 event collection. A record
// with several nonzero categories splits into one event per category, never
// one event with a composite count. Every emitted event gets a fresh ID and
// the deterministic noon-UTC timestamp, since the legacy shapes carried
// neither.
func v1ToV2(records map[string]v1Record) (event.Collection, int) {
	var events event.Collection
	skipped := 0

	for date, rec := range records {
		ts, err := event.NoonUTC(date)
		if err != nil {
			skipped++
			continue
		}

		preventive := rec.Preventive != nil && *rec.Preventive

		for _, part := range []struct {
			typ   event.Type
			count *int
		}{
			{event.TypeRescueInhaler, rec.SprayCount},
			{event.TypeControllerInhaler, rec.ControllerCount},
		} {
			if part.count == nil || *part.count == 0 {
				continue
			}

			ev := event.Event{
				ID:         uuid.NewString(),
				Date:       date,
				Timestamp:  ts,
				Type:       part.typ,
				Count:      *part.count,
				Preventive: preventive,
			}
			if err := event.Validate(ev); err != nil {
				skipped++
				continue
			}
			events = append(events, ev)
		}
	}

	sortStable(events)
	return events, skipped
}

// sortStable orders migrated events by date then category so the output does
// not depend on map iteration order.
func sortStable(events event.Collection) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Date != events[j].Date {
			return events[i].Date < events[j].Date
		}
		if events[i].Type != events[j].Type {
			return events[i].Type < events[j].Type
		}
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
}
