package serverstore

import (
	"context"
	"fmt"
	"time"

	"github.com/dosetrack/dosetrack/internal/event"
)

// InsertEvent appends one event to an account's log and returns
// inserted=false when it is a duplicate.
//
// Duplicate detection is enforced by the (code, id) primary key with
// ON CONFLICT DO NOTHING, which is compatible with client retries and
// at-least-once delivery.
func (s *Store) InsertEvent(ctx context.Context, code string, ev event.Event, receivedAt time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO events (code, id, date, timestamp, type, count, preventive, received_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (code, id) DO NOTHING
	`,
		code,
		ev.ID,
		ev.Date,
		ev.Timestamp.UTC().Format(time.RFC3339Nano),
		string(ev.Type),
		ev.Count,
		ev.Preventive,
		receivedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return false, fmt.Errorf("insert event: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert event: %w", err)
	}
	return n > 0, nil
}

// ListEvents returns all events for an account in insertion order.
func (s *Store) ListEvents(ctx context.Context, code string) (event.Collection, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, timestamp, type, count, preventive
		FROM events
		WHERE code = ?
		ORDER BY rowid
	`, code)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	events := event.Collection{}
	for rows.Next() {
		var ev event.Event
		var ts string
		if err := rows.Scan(&ev.ID, &ev.Date, &ts, &ev.Type, &ev.Count, &ev.Preventive); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		parsed, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("parse event timestamp: %w", err)
		}
		ev.Timestamp = parsed
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}
