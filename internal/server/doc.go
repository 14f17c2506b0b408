// Package server is the HTTP surface of the shared remote event store.
//
// It exposes the two operations the client core depends on: push one event,
// list all events, plus the account plumbing: code generation, login, and
// token issuance. Storage is append-only: deletions made on a device are
// never propagated here.
package server
