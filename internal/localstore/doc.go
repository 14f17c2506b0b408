// Package localstore is the on-device source of truth for usage events.
//
// The collection is persisted as a single JSON file. Every mutation rewrites
// the whole file through a temp-file rename, so an interrupted write leaves
// the previous valid state on disk, never a torn one. Legacy storage shapes
// are migrated exactly once at open time, guarded by the schema-version
// marker in the file.
//
// Each record carries a local-only pushed flag tracking whether the event is
// known to be durable remotely. The flag never goes on the wire and is
// excluded from reconciliation's content matching.
package localstore
