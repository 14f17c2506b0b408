package localstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dosetrack/dosetrack/internal/event"
	"github.com/dosetrack/dosetrack/internal/migrate"
)

// record wraps an event with local-only bookkeeping. Pushed means the event
// is known to be durable remotely; it is persisted but never sent.
type record struct {
	event.Event
	Pushed bool `json:"pushed,omitempty"`
}

// fileV2 is the persisted shape. SchemaVersion is the migration-done marker.
type fileV2 struct {
	SchemaVersion int      `json:"schema_version"`
	Events        []record `json:"events"`
}

// Store owns the local event collection. All reads and writes for the UI and
// the sync pass go through it; nothing else touches the data file.
type Store struct {
	mu      sync.Mutex
	path    string
	records []record
	log     zerolog.Logger

	// now is a seam for tests; defaults to time.Now.
	now func() time.Time
}

// Open loads the collection from path, creating an empty store on first use.
//
// A legacy payload (V0 or V1) is migrated to the flat collection exactly
// once and the migrated form persisted immediately; the schema-version
// marker makes later opens skip the pipeline. A file that cannot be parsed
// at all is set aside as <path>.corrupt and the store starts empty; a
// warning, never a crash.
func Open(path string, log zerolog.Logger) (*Store, error) {
	s := &Store{
		path: path,
		log:  log,
		now:  time.Now,
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		if err := s.persist(); err != nil {
			return nil, fmt.Errorf("initialize store: %w", err)
		}
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read store: %w", err)
	}

	if err := s.load(raw); err != nil {
		// Unreadable file: quarantine it for inspection, fall back to an
		// empty collection, and warn.
		corrupt := path + ".corrupt"
		s.log.Warn().
			Err(err).
			Str("path", path).
			Str("moved_to", corrupt).
			Msg("local store unreadable, starting from an empty collection")
		if renameErr := os.Rename(path, corrupt); renameErr != nil {
			return nil, fmt.Errorf("set aside corrupt store: %w", renameErr)
		}
		s.records = nil
		if err := s.persist(); err != nil {
			return nil, fmt.Errorf("reinitialize store: %w", err)
		}
	}

	return s, nil
}

// load decodes raw, running the migration pipeline when the marker is absent.
func (s *Store) load(raw []byte) error {
	version, err := migrate.Detect(raw)
	if err != nil {
		return err
	}

	if version == migrate.V2 {
		var f fileV2
		if err := json.Unmarshal(raw, &f); err != nil {
			return fmt.Errorf("decode store: %w", err)
		}
		s.records = f.Events
		return nil
	}

	res, err := migrate.Run(raw)
	if err != nil {
		return err
	}
	if res.Skipped > 0 {
		s.log.Warn().
			Int("skipped", res.Skipped).
			Msg("some legacy records could not be migrated")
	}
	s.log.Info().
		Int("events", len(res.Events)).
		Int("from_version", int(res.From)).
		Msg("migrated legacy store")

	s.records = make([]record, len(res.Events))
	for i, ev := range res.Events {
		s.records[i] = record{Event: ev}
	}

	// Persist the migrated form right away so the marker is durable and the
	// pipeline never runs again on this device.
	return s.persist()
}

// Save validates and appends one event.
//
// A missing ID gets a fresh one. The timestamp is "now" when the event is
// for today, otherwise the noon-UTC anchor of its date so backfilled entries
// sort predictably. A save with Count == 0 is "nothing to persist": the
// collection is untouched and ok is false.
func (s *Store) Save(partial event.Event) (event.Event, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if partial.Count == 0 {
		return event.Event{}, false, nil
	}

	ev := partial
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.Timestamp.IsZero() {
		if ev.Date == s.now().Format(event.DateFormat) {
			ev.Timestamp = s.now()
		} else {
			ts, err := event.NoonUTC(ev.Date)
			if err != nil {
				return event.Event{}, false, &event.ValidationError{
					Code:    event.CodeInvalidDate,
					Field:   "date",
					Message: fmt.Sprintf("date %q is not a valid YYYY-MM-DD calendar date", ev.Date),
				}
			}
			ev.Timestamp = ts
		}
	}

	if err := event.Validate(ev); err != nil {
		return event.Event{}, false, err
	}

	s.records = append(s.records, record{Event: ev})
	if err := s.persist(); err != nil {
		s.records = s.records[:len(s.records)-1]
		return event.Event{}, false, err
	}
	return ev, true, nil
}

// DeleteByDate removes all events for a date and returns how many were
// removed. Deletions are local only; the remote store is append-only and
// never told.
func (s *Store) DeleteByDate(date string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.records[:0:0]
	removed := 0
	for _, r := range s.records {
		if r.Date == date {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	if removed == 0 {
		return 0, nil
	}

	old := s.records
	s.records = kept
	if err := s.persist(); err != nil {
		s.records = old
		return 0, err
	}
	return removed, nil
}

// All returns a read-only snapshot of the collection in stored order.
func (s *Store) All() event.Collection {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(event.Collection, len(s.records))
	for i, r := range s.records {
		out[i] = r.Event
	}
	return out
}

// Unpushed returns the events not yet known to be durable remotely, in
// stored order.
func (s *Store) Unpushed() event.Collection {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out event.Collection
	for _, r := range s.records {
		if !r.Pushed {
			out = append(out, r.Event)
		}
	}
	return out
}

// MarkPushed records that the event with the given ID is durable remotely.
func (s *Store) MarkPushed(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.records {
		if s.records[i].ID == id {
			if s.records[i].Pushed {
				return nil
			}
			s.records[i].Pushed = true
			return s.persist()
		}
	}
	return fmt.Errorf("mark pushed: no event with id %q", id)
}

// ApplyMerge replaces the collection with a reconciliation result and
// persists it in one atomic write.
//
// Events whose ID appears in remoteIDs came from or were rebound to the
// remote store and are marked pushed; everything else keeps its previous
// flag.
func (s *Store) ApplyMerge(merged event.Collection, remoteIDs map[string]bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	wasPushed := make(map[string]bool, len(s.records))
	for _, r := range s.records {
		if r.Pushed {
			wasPushed[r.ID] = true
		}
	}

	records := make([]record, len(merged))
	for i, ev := range merged {
		records[i] = record{
			Event:  ev,
			Pushed: remoteIDs[ev.ID] || wasPushed[ev.ID],
		}
	}

	old := s.records
	s.records = records
	if err := s.persist(); err != nil {
		s.records = old
		return err
	}
	return nil
}

// persist writes the whole collection atomically: a temp file in the same
// directory renamed over the target. Callers hold s.mu.
func (s *Store) persist() error {
	f := fileV2{
		SchemaVersion: migrate.CurrentVersion,
		Events:        s.records,
	}
	if f.Events == nil {
		f.Events = []record{}
	}

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".dosetrack-*.json")
	if err != nil {
		return fmt.Errorf("create temp store: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp store: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace store: %w", err)
	}
	return nil
}
