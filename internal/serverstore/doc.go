// Package serverstore is the durable storage behind the sync server.
//
// SQLite holds two tables: account codes (with their issued bearer tokens)
// and the append-only event log, scoped per code. Event inserts are
// idempotent by (code, id) so a client may safely re-push after an ambiguous
// failure.
package serverstore
