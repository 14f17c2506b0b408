// Package event defines the canonical usage-event record, its validation
// rules, and the content-equality predicate used by reconciliation.
//
// An Event is one occurrence of medicine use on a given calendar day. Its ID
// and Timestamp identify and order the record but are deliberately excluded
// from content equality: two devices can record the same real-world dose
// independently, producing two records with different generated IDs and
// different timestamps that must still be recognized as the same dose.
package event
