package syncclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dosetrack/dosetrack/internal/event"
	"github.com/dosetrack/dosetrack/internal/localstore"
)

// fakeRemote is an in-memory stand-in for the sync server: append-only,
// idempotent by event ID, optionally failing chosen pushes.
type fakeRemote struct {
	mu       sync.Mutex
	events   event.Collection
	failPush map[string]int // event ID -> status to return
}

func (f *fakeRemote) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/events":
			json.NewEncoder(w).Encode(listResponse{Events: f.events})
		case r.Method == http.MethodPost && r.URL.Path == "/events":
			var req pushRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			if status, ok := f.failPush[req.Event.ID]; ok {
				w.WriteHeader(status)
				w.Write([]byte(`{"error":"induced failure"}`))
				return
			}
			if !f.events.ContainsID(req.Event.ID) {
				f.events = append(f.events, req.Event)
			}
			w.WriteHeader(http.StatusOK)
		default:
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	})
}

func makeSyncer(t *testing.T, remote *fakeRemote) (*Syncer, *localstore.Store) {
	t.Helper()

	srv := httptest.NewServer(remote.handler(t))
	t.Cleanup(srv.Close)

	store, err := localstore.Open(filepath.Join(t.TempDir(), "events.json"), zerolog.Nop())
	require.NoError(t, err)

	client := New(srv.URL, "tok", zerolog.Nop())
	return NewSyncer(store, client, zerolog.Nop()), store
}

func TestRun_FullPass(t *testing.T) {
	remote := &fakeRemote{
		events: event.Collection{
			// Same dose as the local one, logged on another device.
			makeEvent("remote-dup", "2026-02-09", 2),
			// Genuinely new to this device.
			makeEvent("remote-new", "2026-02-11", 1),
		},
	}
	syncer, store := makeSyncer(t, remote)

	// Local dose with independently generated ID, plus one the remote has
	// never seen.
	_, ok, err := store.Save(event.Event{Date: "2026-02-09", Type: event.TypeRescueInhaler, Count: 2})
	require.NoError(t, err)
	require.True(t, ok)
	localOnly, ok, err := store.Save(event.Event{Date: "2026-02-10", Type: event.TypeControllerInhaler, Count: 1})
	require.NoError(t, err)
	require.True(t, ok)

	report, err := syncer.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Report{Pulled: 1, Rebound: 1, Pushed: 1}, report)

	all := store.All()
	require.Len(t, all, 3, "duplicate dose merged, not doubled")
	assert.True(t, all.ContainsID("remote-dup"), "local record rebound to the remote ID")
	assert.True(t, all.ContainsID("remote-new"))
	assert.True(t, all.ContainsID(localOnly.ID))

	// The local-only event reached the remote.
	remote.mu.Lock()
	assert.True(t, remote.events.ContainsID(localOnly.ID))
	remote.mu.Unlock()

	assert.Empty(t, store.Unpushed(), "everything is durable remotely after the pass")
}

func TestRun_SecondPassIsNoOp(t *testing.T) {
	remote := &fakeRemote{
		events: event.Collection{makeEvent("r1", "2026-02-09", 2)},
	}
	syncer, store := makeSyncer(t, remote)

	_, err := syncer.Run(context.Background())
	require.NoError(t, err)
	before := store.All()

	report, err := syncer.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Report{}, report, "reapplying the same remote snapshot changes nothing")
	assert.Equal(t, before, store.All())
}

func TestRun_PushPartialFailure(t *testing.T) {
	remote := &fakeRemote{failPush: map[string]int{}}
	syncer, store := makeSyncer(t, remote)

	a, _, err := store.Save(event.Event{Date: "2026-02-09", Type: event.TypeRescueInhaler, Count: 2})
	require.NoError(t, err)
	b, _, err := store.Save(event.Event{Date: "2026-02-10", Type: event.TypeRescueInhaler, Count: 1})
	require.NoError(t, err)
	c, _, err := store.Save(event.Event{Date: "2026-02-11", Type: event.TypeRescueInhaler, Count: 3})
	require.NoError(t, err)

	remote.failPush[b.ID] = http.StatusInternalServerError

	report, err := syncer.Run(context.Background())
	require.NoError(t, err, "per-event push failures are counted, not fatal")

	assert.Equal(t, 2, report.Pushed)
	assert.Equal(t, 1, report.PushFailed)

	unpushed := store.Unpushed()
	require.Len(t, unpushed, 1, "the failed event stays queued for the next pass")
	assert.Equal(t, b.ID, unpushed[0].ID)

	remote.mu.Lock()
	assert.True(t, remote.events.ContainsID(a.ID))
	assert.True(t, remote.events.ContainsID(c.ID))
	remote.mu.Unlock()

	// Next pass retries just the failed one.
	delete(remote.failPush, b.ID)
	report, err = syncer.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Pushed)
	assert.Empty(t, store.Unpushed())
}

func TestRun_PushRejectedIsNotRetryFodder(t *testing.T) {
	remote := &fakeRemote{failPush: map[string]int{}}
	syncer, store := makeSyncer(t, remote)

	rejected, _, err := store.Save(event.Event{Date: "2026-02-09", Type: event.TypeRescueInhaler, Count: 2})
	require.NoError(t, err)
	fine, _, err := store.Save(event.Event{Date: "2026-02-10", Type: event.TypeRescueInhaler, Count: 1})
	require.NoError(t, err)

	remote.failPush[rejected.ID] = http.StatusBadRequest

	report, err := syncer.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Pushed)
	assert.Equal(t, 1, report.PushRejected, "a server verdict on the event, not a connection problem")
	assert.Zero(t, report.PushFailed)

	remote.mu.Lock()
	assert.True(t, remote.events.ContainsID(fine.ID))
	assert.False(t, remote.events.ContainsID(rejected.ID))
	remote.mu.Unlock()
}

func TestRun_AuthExpiredOnListLeavesStoreUntouched(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"Invalid token"}`))
	}))
	defer srv.Close()

	store, err := localstore.Open(filepath.Join(t.TempDir(), "events.json"), zerolog.Nop())
	require.NoError(t, err)
	_, _, err = store.Save(event.Event{Date: "2026-02-09", Type: event.TypeRescueInhaler, Count: 2})
	require.NoError(t, err)
	before := store.All()

	syncer := NewSyncer(store, New(srv.URL, "expired", zerolog.Nop()), zerolog.Nop())

	_, err = syncer.Run(context.Background())
	require.Error(t, err)
	assert.True(t, IsAuthExpired(err), "got %v", err)
	assert.Equal(t, before, store.All())
}

func TestRun_AuthExpiredMidPushStopsTheLoop(t *testing.T) {
	remote := &fakeRemote{failPush: map[string]int{}}
	syncer, store := makeSyncer(t, remote)

	a, _, err := store.Save(event.Event{Date: "2026-02-09", Type: event.TypeRescueInhaler, Count: 2})
	require.NoError(t, err)
	remote.failPush[a.ID] = http.StatusUnauthorized

	_, err = syncer.Run(context.Background())
	assert.True(t, IsAuthExpired(err), "a dead credential fails every remaining push; surface it")
}

func TestRun_RejectsOverlappingPasses(t *testing.T) {
	remote := &fakeRemote{}
	syncer, _ := makeSyncer(t, remote)

	syncer.mu.Lock()
	_, err := syncer.Run(context.Background())
	syncer.mu.Unlock()

	assert.ErrorIs(t, err, ErrSyncInProgress)
}

func TestRun_MalformedRemoteRecordsCounted(t *testing.T) {
	remote := &fakeRemote{
		events: event.Collection{
			makeEvent("good", "2026-02-09", 2),
			{ID: "bad", Date: "not-a-date", Type: event.TypeRescueInhaler, Count: 1},
		},
	}
	syncer, store := makeSyncer(t, remote)

	report, err := syncer.Run(context.Background())
	require.NoError(t, err, "malformed remote records are skipped, not fatal")

	assert.Equal(t, 1, report.RejectedRemote)
	assert.Equal(t, 1, report.Pulled)
	require.Len(t, store.All(), 1)
	assert.True(t, store.All().ContainsID("good"))
}
