package reconcile

import (
	"github.com/dosetrack/dosetrack/internal/event"
)

// Result is the outcome of one reconciliation pass.
type Result struct {
	// Merged is the updated local collection, for the caller to persist
	// atomically.
	Merged event.Collection

	// NewIDs lists the IDs of remote events inserted because no local
	// content match existed.
	NewIDs []string

	// Rebound maps old local ID -> remote ID for every identifier-alignment
	// performed during the pass.
	Rebound map[string]string

	// NewCount is len(NewIDs).
	NewCount int

	// RebindCount is len(Rebound).
	RebindCount int

	// Rejected counts malformed remote records that were skipped.
	Rejected int
}

// Reconcile merges remote into local without creating duplicates.
//
// The pass partitions remote by identifier first: events whose ID already
// exists locally are assumed reconciled and need no further action, and the
// local records they correspond to are off the table for the rest of the
// pass. Each remaining remote event is then content-matched against local
// events not yet claimed: on a match the local event's ID is rebound to the
// remote ID (the remote identifier becomes authoritative); with no match the
// remote event is genuinely new to this device and inserted unmodified. When
// several unclaimed local events match the same remote event, the first in
// stored order wins: stable and deterministic, with no reliance on
// timestamps.
//
// Applying the same remote snapshot twice is a no-op the second time: every
// remote ID is then already present locally. Malformed remote records are
// skipped and counted in Rejected, never fatal.
func Reconcile(local, remote event.Collection) Result {
	merged := make(event.Collection, len(local))
	copy(merged, local)

	res := Result{Rebound: map[string]string{}}

	remoteIDs := make(map[string]bool, len(remote))
	for _, r := range remote {
		remoteIDs[r.ID] = true
	}

	// Indexes unavailable for content matching: their ID is already shared
	// with the remote, a rebind earlier in this pass claimed them, or they
	// were themselves inserted from the remote this pass. Without this a
	// single local dose could absorb several distinct remote doses, and a
	// remote dose could absorb a content-equal sibling.
	claimed := make(map[int]bool, len(merged))
	knownIDs := make(map[string]bool, len(merged))
	for i, ev := range merged {
		knownIDs[ev.ID] = true
		if remoteIDs[ev.ID] {
			claimed[i] = true
		}
	}

	for _, r := range remote {
		if err := event.Validate(r); err != nil {
			res.Rejected++
			continue
		}

		if knownIDs[r.ID] {
			// Matched by identifier: already reconciled.
			continue
		}

		if i, ok := findUnclaimedMatch(merged, claimed, r); ok {
			res.Rebound[merged[i].ID] = r.ID
			merged[i].ID = r.ID
			claimed[i] = true
			knownIDs[r.ID] = true
			continue
		}

		merged = append(merged, r)
		claimed[len(merged)-1] = true
		knownIDs[r.ID] = true
		res.NewIDs = append(res.NewIDs, r.ID)
	}

	res.NewCount = len(res.NewIDs)
	res.RebindCount = len(res.Rebound)
	res.Merged = merged
	return res
}

// findUnclaimedMatch returns the index of the first local event in stored
// order that content-matches r and has not been claimed in this pass.
func findUnclaimedMatch(local event.Collection, claimed map[int]bool, r event.Event) (int, bool) {
	for i, ev := range local {
		if claimed[i] {
			continue
		}
		if event.ContentEquals(ev, r) {
			return i, true
		}
	}
	return 0, false
}
