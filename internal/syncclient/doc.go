// Package syncclient is the transport boundary to the remote event store and
// the orchestrator of sync passes.
//
// Client wraps the two remote operations the core depends on: push one
// event, list all events, plus the account plumbing (code and token
// issuance). It owns no state beyond its credentials. Failures carry a kind:
// AuthExpired means the caller must re-authenticate, Transient means the
// whole pass may be retried later, Rejected means the remote refused the
// record and a retry will not help.
//
// Syncer runs the pass: list, reconcile, persist the merged collection
// atomically, then push local events not yet durable remotely. Passes are
// serialized (a pass runs to completion before another may start) so a
// reconciliation computed against a stale snapshot can never clobber a
// concurrent write.
package syncclient
