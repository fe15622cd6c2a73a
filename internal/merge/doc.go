// Package merge folds normalized provider records into canonical movie
// records. Scalar conflicts resolve by a fixed provider priority with
// per-field provenance; list fields union with normalized dedupe. The merge
// is deterministic and idempotent: replaying the same records against the
// same prior state is a no-op.
package merge
