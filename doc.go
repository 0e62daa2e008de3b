// Package pstore binds typed values to keys in origin-style storage
// areas: one persistent, one scoped to the process session.
//
// A binding reads the stored text for its key, decodes it, optionally
// validates it against a caller-supplied schema, and mirrors the result
// in an observable cell. Its setter serializes, persists and broadcasts
// the change so every other binding on the same area converges, whether
// it lives in this process or another one sharing the persistent file.
//
// Failure policy: normal reads and writes never return errors. Corrupt
// or rejected entries, quota failures and missing storage areas all
// degrade to the configured initial value plus a log line; only a
// misconfigured validator (matching none of the recognized call shapes)
// is surfaced, from Bind.
package pstore
