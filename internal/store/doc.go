// Package store persists CineScope state in SQLite: the imported watch
// history, cached provider identifiers, merged canonical records with their
// list tables, raw provider payloads for auditing, and resumable pipeline
// checkpoints. Schema changes ship as embedded migrations applied on open.
package store
