package testsupport

import (
	"context"
	"testing"
	"time"

	"cinescope/internal/config"
	"cinescope/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// NewWatchEntry inserts a watch-history row for tests using the provided
// store.
func NewWatchEntry(t testing.TB, st *store.Store, imdbID, title string, year int) store.WatchEntry {
	t.Helper()

	entry := store.WatchEntry{
		IMDbID:    imdbID,
		Title:     title,
		Year:      year,
		WatchedAt: time.Date(2024, time.March, 10, 21, 0, 0, 0, time.UTC),
	}
	if _, err := st.InsertWatchEntry(context.Background(), entry); err != nil {
		t.Fatalf("store.InsertWatchEntry: %v", err)
	}
	return entry
}
