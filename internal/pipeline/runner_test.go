package pipeline_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"cinescope/internal/identity"
	"cinescope/internal/pipeline"
	"cinescope/internal/providers"
	"cinescope/internal/store"
	"cinescope/internal/testsupport"
)

// stubResolver resolves every entry locally so runner tests exercise
// orchestration without TMDB traffic.
type stubResolver struct {
	unmatched map[string]bool
}

func (s *stubResolver) Resolve(ctx context.Context, entry store.WatchEntry, rematch bool) (*identity.Resolution, error) {
	key := identity.MovieKey(entry.IMDbID, entry.Title, entry.Year)
	res := &identity.Resolution{MovieKey: key, Identifiers: map[string]store.ExternalIdentifier{}}
	providerID := entry.IMDbID
	if s.unmatched[key] {
		providerID = ""
	}
	for _, name := range []string{providers.NameTMDB, providers.NameOMDB} {
		res.Identifiers[name] = store.ExternalIdentifier{
			MovieKey:   key,
			Provider:   name,
			ProviderID: providerID,
			Confidence: 1,
		}
	}
	return res, nil
}

type stubAdapter struct {
	name   string
	mu     sync.Mutex
	fetches map[string]int
	fail   error
	halted bool
}

func newStubAdapter(name string) *stubAdapter {
	return &stubAdapter{name: name, fetches: map[string]int{}}
}

func (s *stubAdapter) Name() string { return s.name }

func (s *stubAdapter) Halted() bool { return s.halted }

func (s *stubAdapter) Fetch(ctx context.Context, providerID string) (*providers.Record, error) {
	s.mu.Lock()
	s.fetches[providerID]++
	s.mu.Unlock()
	if s.fail != nil {
		return nil, s.fail
	}
	rec := providers.NewRecord(s.name, providerID, time.Date(2024, time.April, 1, 12, 0, 0, 0, time.UTC))
	rec.SetText(store.FieldTitle, "Title for "+providerID)
	return rec, nil
}

func (s *stubAdapter) fetchCount(providerID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches[providerID]
}

func seedHistory(t *testing.T, st *store.Store) {
	t.Helper()
	testsupport.NewWatchEntry(t, st, "tt0000001", "First Movie", 1990)
	testsupport.NewWatchEntry(t, st, "tt0000002", "Second Movie", 1995)
	testsupport.NewWatchEntry(t, st, "tt0000003", "Third Movie", 2000)
}

func TestRunProcessesBacklog(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	seedHistory(t, st)

	adapter := newStubAdapter(providers.NameTMDB)
	runner := pipeline.New(st, &stubResolver{}, []pipeline.FetchAdapter{adapter}, nil)

	summary, err := runner.Run(context.Background(), pipeline.Options{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Processed != 3 || summary.Errors != 0 {
		t.Fatalf("unexpected summary: %#v", summary)
	}
	if summary.Providers[providers.NameTMDB].OK != 3 {
		t.Fatalf("unexpected provider outcome: %#v", summary.Providers[providers.NameTMDB])
	}

	ctx := context.Background()
	rec, err := st.GetCanonical(ctx, "tt0000002")
	if err != nil {
		t.Fatalf("GetCanonical failed: %v", err)
	}
	if rec == nil || rec.Text[store.FieldTitle] != "Title for tt0000002" {
		t.Fatalf("unexpected canonical record: %#v", rec)
	}
	if rec.ProviderStatus[providers.NameTMDB] != store.ProviderStatusOK {
		t.Fatalf("unexpected provider status: %#v", rec.ProviderStatus)
	}

	cp, err := st.LatestCheckpoint(ctx)
	if err != nil {
		t.Fatalf("LatestCheckpoint failed: %v", err)
	}
	if cp.State != store.RunCompleted || cp.Processed != 3 {
		t.Fatalf("unexpected checkpoint: %#v", cp)
	}

	records, err := st.ProviderRecordsForMovie(ctx, "tt0000001")
	if err != nil {
		t.Fatalf("ProviderRecordsForMovie failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected one audit record, got %d", len(records))
	}
}

func TestRunResumesWithoutReprocessing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	seedHistory(t, st)

	adapter := newStubAdapter(providers.NameTMDB)
	runner := pipeline.New(st, &stubResolver{}, []pipeline.FetchAdapter{adapter}, nil)

	ctx := context.Background()
	first, err := runner.Run(ctx, pipeline.Options{Limit: 2})
	if err != nil {
		t.Fatalf("first Run failed: %v", err)
	}
	if first.Processed != 2 || first.Remaining != 1 {
		t.Fatalf("unexpected first summary: %#v", first)
	}

	second, err := runner.Run(ctx, pipeline.Options{})
	if err != nil {
		t.Fatalf("second Run failed: %v", err)
	}
	if !second.Resumed {
		t.Fatal("expected second run to resume")
	}
	if second.Processed != 1 {
		t.Fatalf("expected one remaining movie, got %#v", second)
	}
	for _, id := range []string{"tt0000001", "tt0000002", "tt0000003"} {
		if got := adapter.fetchCount(id); got != 1 {
			t.Fatalf("expected exactly one fetch for %s, got %d", id, got)
		}
	}

	cp, err := st.LatestCheckpoint(ctx)
	if err != nil {
		t.Fatalf("LatestCheckpoint failed: %v", err)
	}
	if cp.State != store.RunCompleted {
		t.Fatalf("unexpected checkpoint state: %#v", cp)
	}
}

func TestRunRestartStartsOver(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	seedHistory(t, st)

	adapter := newStubAdapter(providers.NameTMDB)
	runner := pipeline.New(st, &stubResolver{}, []pipeline.FetchAdapter{adapter}, nil)

	ctx := context.Background()
	if _, err := runner.Run(ctx, pipeline.Options{Limit: 2}); err != nil {
		t.Fatalf("first Run failed: %v", err)
	}
	summary, err := runner.Run(ctx, pipeline.Options{Restart: true})
	if err != nil {
		t.Fatalf("restart Run failed: %v", err)
	}
	if summary.Resumed {
		t.Fatal("expected restart to ignore the old checkpoint")
	}
	if summary.Processed != 3 {
		t.Fatalf("expected full backlog on restart, got %#v", summary)
	}
	if got := adapter.fetchCount("tt0000001"); got != 2 {
		t.Fatalf("expected restart to refetch, got %d fetches", got)
	}
}

func TestRunRecordsUnmatchedProviders(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	testsupport.NewWatchEntry(t, st, "tt0000009", "Unfindable", 1931)

	adapter := newStubAdapter(providers.NameTMDB)
	resolver := &stubResolver{unmatched: map[string]bool{"tt0000009": true}}
	runner := pipeline.New(st, resolver, []pipeline.FetchAdapter{adapter}, nil)

	ctx := context.Background()
	summary, err := runner.Run(ctx, pipeline.Options{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Providers[providers.NameTMDB].Unmatched != 1 {
		t.Fatalf("unexpected outcome: %#v", summary.Providers[providers.NameTMDB])
	}
	if got := adapter.fetchCount(""); got != 0 {
		t.Fatalf("expected no fetch for unmatched movie, got %d", got)
	}

	rec, err := st.GetCanonical(ctx, "tt0000009")
	if err != nil {
		t.Fatalf("GetCanonical failed: %v", err)
	}
	if rec == nil || rec.ProviderStatus[providers.NameTMDB] != store.ProviderStatusUnmatched {
		t.Fatalf("unexpected canonical record: %#v", rec)
	}
}

func TestRunMarksTransientFailuresPartial(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	testsupport.NewWatchEntry(t, st, "tt0000001", "First Movie", 1990)

	good := newStubAdapter(providers.NameTMDB)
	bad := newStubAdapter(providers.NameOMDB)
	bad.fail = providers.Wrap(providers.ErrTransient, providers.NameOMDB, "fetch", "upstream down", nil)
	runner := pipeline.New(st, &stubResolver{}, []pipeline.FetchAdapter{good, bad}, nil)

	ctx := context.Background()
	summary, err := runner.Run(ctx, pipeline.Options{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Providers[providers.NameOMDB].Partial != 1 {
		t.Fatalf("unexpected omdb outcome: %#v", summary.Providers[providers.NameOMDB])
	}

	rec, err := st.GetCanonical(ctx, "tt0000001")
	if err != nil {
		t.Fatalf("GetCanonical failed: %v", err)
	}
	if rec.ProviderStatus[providers.NameOMDB] != store.ProviderStatusPartial {
		t.Fatalf("unexpected statuses: %#v", rec.ProviderStatus)
	}
	if rec.ProviderStatus[providers.NameTMDB] != store.ProviderStatusOK {
		t.Fatalf("unexpected statuses: %#v", rec.ProviderStatus)
	}
	if rec.Text[store.FieldTitle] == "" {
		t.Fatal("expected reachable provider data persisted")
	}
}

func TestRunOnlyFilterSkipsOtherProviders(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	testsupport.NewWatchEntry(t, st, "tt0000001", "First Movie", 1990)

	tmdbAdapter := newStubAdapter(providers.NameTMDB)
	omdbAdapter := newStubAdapter(providers.NameOMDB)
	runner := pipeline.New(st, &stubResolver{}, []pipeline.FetchAdapter{tmdbAdapter, omdbAdapter}, nil)

	ctx := context.Background()
	summary, err := runner.Run(ctx, pipeline.Options{Only: providers.NameOMDB})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got := tmdbAdapter.fetchCount("tt0000001"); got != 0 {
		t.Fatalf("expected filtered provider untouched, got %d fetches", got)
	}
	if got := omdbAdapter.fetchCount("tt0000001"); got != 1 {
		t.Fatalf("expected one omdb fetch, got %d", got)
	}
	if _, ok := summary.Providers[providers.NameTMDB]; ok {
		t.Fatalf("expected no tmdb outcome, got %#v", summary.Providers)
	}

	rec, err := st.GetCanonical(ctx, "tt0000001")
	if err != nil {
		t.Fatalf("GetCanonical failed: %v", err)
	}
	if _, ok := rec.ProviderStatus[providers.NameTMDB]; ok {
		t.Fatalf("expected no tmdb status recorded, got %#v", rec.ProviderStatus)
	}
}

func TestRunAbortsOnStoreFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	seedHistory(t, st)

	// Break the canonical table out from under the runner so the first
	// persist attempt fails while checkpoints stay writable.
	raw, err := sql.Open("sqlite", st.Path())
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	if _, err := raw.Exec("DROP TABLE canonical_movies"); err != nil {
		t.Fatalf("drop canonical table: %v", err)
	}
	if err := raw.Close(); err != nil {
		t.Fatalf("close raw db: %v", err)
	}

	adapter := newStubAdapter(providers.NameTMDB)
	runner := pipeline.New(st, &stubResolver{}, []pipeline.FetchAdapter{adapter}, nil)

	ctx := context.Background()
	summary, err := runner.Run(ctx, pipeline.Options{})
	if err == nil {
		t.Fatal("expected store failure to abort the run")
	}
	if summary.Processed != 0 {
		t.Fatalf("expected no movie counted as processed, got %#v", summary)
	}

	cp, err := st.LatestResumable(ctx)
	if err != nil {
		t.Fatalf("LatestResumable failed: %v", err)
	}
	if cp == nil {
		t.Fatal("expected an uncompleted checkpoint to remain resumable")
	}
	if cp.LastMovieKey != "" || cp.Processed != 0 {
		t.Fatalf("expected checkpoint not advanced past uncommitted movie, got %#v", cp)
	}
}

func TestRunRepeatViewingsCollapse(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	// The same movie logged twice under slightly different titles still
	// resolves to one movie key.
	for i, title := range []string{"First Movie", "First Movie (Director's Cut)"} {
		if _, err := st.InsertWatchEntry(ctx, store.WatchEntry{
			IMDbID:    "tt0000001",
			Title:     title,
			Year:      1990,
			WatchedAt: time.Date(2024, time.January+time.Month(i*5), 1, 20, 0, 0, 0, time.UTC),
		}); err != nil {
			t.Fatalf("InsertWatchEntry failed: %v", err)
		}
	}

	adapter := newStubAdapter(providers.NameTMDB)
	runner := pipeline.New(st, &stubResolver{}, []pipeline.FetchAdapter{adapter}, nil)

	summary, err := runner.Run(ctx, pipeline.Options{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Processed != 1 {
		t.Fatalf("expected repeat viewings collapsed, got %#v", summary)
	}
	if got := adapter.fetchCount("tt0000001"); got != 1 {
		t.Fatalf("expected one fetch, got %d", got)
	}
}
