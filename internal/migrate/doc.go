// Package migrate converts legacy on-device storage shapes into the flat
// event collection the rest of the system operates on.
//
// Three schema versions exist. V0 stored a bare dose count per date. V1
// stored a per-date object with one count field per medicine category. V2 is
// the current flat collection of event records. Each pipeline step is pure:
// it reads the old shape and emits the new one, never writing partially. A
// device transitions at most once; the persisted schema-version marker makes
// repeated invocations a no-op.
package migrate
