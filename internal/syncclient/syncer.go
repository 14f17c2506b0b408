package syncclient

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/dosetrack/dosetrack/internal/localstore"
	"github.com/dosetrack/dosetrack/internal/reconcile"
)

// ErrSyncInProgress is returned when a pass is requested while another is
// still running. Passes never overlap.
var ErrSyncInProgress = errors.New("sync already in progress")

// Report summarizes one sync pass as structured counts. Only AuthExpired and
// storage failures surface as errors; per-record problems end up here.
type Report struct {
	// Pulled is the number of remote events new to this device.
	Pulled int `json:"pulled"`

	// Rebound is the number of local events realigned to a remote ID.
	Rebound int `json:"rebound"`

	// RejectedRemote counts malformed remote records skipped during
	// reconciliation.
	RejectedRemote int `json:"rejected_remote"`

	// Pushed is the number of local events made durable remotely this pass.
	Pushed int `json:"pushed"`

	// PushRejected counts events the server refused as invalid. Rejection
	// is a verdict on the event, not the connection; retrying cannot help.
	PushRejected int `json:"push_rejected"`

	// PushFailed counts events whose push failed transiently; they stay
	// queued for the next pass.
	PushFailed int `json:"push_failed"`
}

// Syncer runs sync passes against a local store.
type Syncer struct {
	store  *localstore.Store
	client *Client
	log    zerolog.Logger

	// mu serializes passes. The pass must run to completion, including the
	// final persist, before another pass or local save may observe the
	// store mid-merge.
	mu sync.Mutex
}

// NewSyncer wires a syncer over a store and a transport client.
func NewSyncer(store *localstore.Store, client *Client, log zerolog.Logger) *Syncer {
	return &Syncer{store: store, client: client, log: log}
}

// Run executes one sync pass: list the remote collection, reconcile it into
// the local one, persist the merged result atomically, then push every local
// event not yet durable remotely.
//
// The push loop is a partial-failure policy, not a transaction: an event
// whose push fails transiently is counted and left for the next pass while
// the loop continues, and an event the server rejects outright is counted
// separately since no retry can change the verdict. AuthExpired is the
// exception: once the credential is dead every remaining push would fail the
// same way, so the pass stops and surfaces it.
func (s *Syncer) Run(ctx context.Context) (Report, error) {
	if !s.mu.TryLock() {
		return Report{}, ErrSyncInProgress
	}
	defer s.mu.Unlock()

	var report Report

	remote, err := s.client.List(ctx)
	if err != nil {
		// Local store untouched; the whole pass can be retried.
		return report, fmt.Errorf("sync pass: %w", err)
	}

	res := reconcile.Reconcile(s.store.All(), remote)
	report.Pulled = res.NewCount
	report.Rebound = res.RebindCount
	report.RejectedRemote = res.Rejected

	remoteIDs := make(map[string]bool, len(remote))
	for _, ev := range remote {
		remoteIDs[ev.ID] = true
	}
	if err := s.store.ApplyMerge(res.Merged, remoteIDs); err != nil {
		return report, fmt.Errorf("persist merged collection: %w", err)
	}

	s.log.Debug().
		Int("pulled", report.Pulled).
		Int("rebound", report.Rebound).
		Int("rejected_remote", report.RejectedRemote).
		Msg("merged remote collection")

	for _, ev := range s.store.Unpushed() {
		if err := s.client.Push(ctx, ev); err != nil {
			if IsAuthExpired(err) {
				return report, fmt.Errorf("sync pass: %w", err)
			}
			if IsRejected(err) {
				report.PushRejected++
				s.log.Warn().Err(err).Str("event_id", ev.ID).Msg("push rejected by the server")
				continue
			}
			report.PushFailed++
			s.log.Warn().Err(err).Str("event_id", ev.ID).Msg("push failed, will retry next pass")
			continue
		}
		if err := s.store.MarkPushed(ev.ID); err != nil {
			return report, fmt.Errorf("record pushed event: %w", err)
		}
		report.Pushed++
	}

	return report, nil
}
