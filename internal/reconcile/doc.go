// Package reconcile merges a remote event collection into the local one with
// at-least-once, duplicate-free semantics.
//
// Local and remote identifier spaces are generated independently: the same
// real-world dose logged on two devices before either synced exists as two
// records with the same content but different IDs. The engine detects this by
// content matching and rebinds the local record to the remote ID instead of
// inserting a duplicate; the remote identifier becomes authoritative going
// forward.
//
// The engine is pure. It never performs I/O and never fails on well-formed
// input; malformed remote records are skipped and counted.
package reconcile
