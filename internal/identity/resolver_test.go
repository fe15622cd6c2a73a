package identity_test

import (
	"context"
	"testing"
	"time"

	"cinescope/internal/identity"
	"cinescope/internal/providers"
	"cinescope/internal/providers/tmdb"
	"cinescope/internal/store"
	"cinescope/internal/testsupport"
)

type fakeMatchClient struct {
	findCalls   int
	searchCalls int
	find        func(imdbID string) *tmdb.FindResponse
	search      func(query string, year int) *tmdb.SearchResponse
	externalIDs map[int64]string
}

func (f *fakeMatchClient) FindByIMDbID(ctx context.Context, imdbID string) (*tmdb.FindResponse, error) {
	f.findCalls++
	if f.find != nil {
		return f.find(imdbID), nil
	}
	return &tmdb.FindResponse{}, nil
}

func (f *fakeMatchClient) SearchMovie(ctx context.Context, query string, year int) (*tmdb.SearchResponse, error) {
	f.searchCalls++
	if f.search != nil {
		return f.search(query, year), nil
	}
	return &tmdb.SearchResponse{}, nil
}

func (f *fakeMatchClient) GetExternalIDs(ctx context.Context, movieID int64) (*tmdb.ExternalIDs, error) {
	return &tmdb.ExternalIDs{IMDbID: f.externalIDs[movieID]}, nil
}

func entry(imdbID, title string, year int) store.WatchEntry {
	return store.WatchEntry{
		IMDbID:    imdbID,
		Title:     title,
		Year:      year,
		WatchedAt: time.Date(2024, time.March, 1, 20, 0, 0, 0, time.UTC),
	}
}

func TestResolveByIMDbID(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	client := &fakeMatchClient{
		find: func(imdbID string) *tmdb.FindResponse {
			return &tmdb.FindResponse{MovieResults: []tmdb.Result{{ID: 603, Title: "The Matrix"}}}
		},
	}
	resolver := identity.NewResolver(st, client, 0.72, nil)

	res, err := resolver.Resolve(context.Background(), entry("tt0133093", "The Matrix", 1999), false)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.MovieKey != "tt0133093" {
		t.Fatalf("unexpected movie key %q", res.MovieKey)
	}
	if got := res.Identifiers[providers.NameTMDB]; got.ProviderID != "603" || got.Confidence != 1 {
		t.Fatalf("unexpected tmdb identifier: %#v", got)
	}
	if got := res.Identifiers[providers.NameOMDB]; got.ProviderID != "tt0133093" {
		t.Fatalf("unexpected omdb identifier: %#v", got)
	}
	if got := res.Identifiers[providers.NameDogDie]; got.ProviderID != "tt0133093" {
		t.Fatalf("unexpected dogdie identifier: %#v", got)
	}
}

func TestResolveCachesOutcome(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	client := &fakeMatchClient{
		find: func(imdbID string) *tmdb.FindResponse {
			return &tmdb.FindResponse{MovieResults: []tmdb.Result{{ID: 603, Title: "The Matrix"}}}
		},
	}
	resolver := identity.NewResolver(st, client, 0.72, nil)

	ctx := context.Background()
	watchEntry := entry("tt0133093", "The Matrix", 1999)
	if _, err := resolver.Resolve(ctx, watchEntry, false); err != nil {
		t.Fatalf("first Resolve failed: %v", err)
	}
	res, err := resolver.Resolve(ctx, watchEntry, false)
	if err != nil {
		t.Fatalf("second Resolve failed: %v", err)
	}
	if client.findCalls != 1 {
		t.Fatalf("expected one lookup, got %d", client.findCalls)
	}
	if got := res.Identifiers[providers.NameTMDB]; got.ProviderID != "603" {
		t.Fatalf("unexpected cached identifier: %#v", got)
	}
}

func TestResolveRematchBypassesCache(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	client := &fakeMatchClient{
		find: func(imdbID string) *tmdb.FindResponse {
			return &tmdb.FindResponse{MovieResults: []tmdb.Result{{ID: 603, Title: "The Matrix"}}}
		},
	}
	resolver := identity.NewResolver(st, client, 0.72, nil)

	ctx := context.Background()
	watchEntry := entry("tt0133093", "The Matrix", 1999)
	if _, err := resolver.Resolve(ctx, watchEntry, false); err != nil {
		t.Fatalf("first Resolve failed: %v", err)
	}
	if _, err := resolver.Resolve(ctx, watchEntry, true); err != nil {
		t.Fatalf("rematch Resolve failed: %v", err)
	}
	if client.findCalls != 2 {
		t.Fatalf("expected rematch to hit the client, got %d calls", client.findCalls)
	}
}

func TestResolveByTitleAcceptsBestMatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	client := &fakeMatchClient{
		search: func(query string, year int) *tmdb.SearchResponse {
			return &tmdb.SearchResponse{Results: []tmdb.Result{
				{ID: 604, Title: "The Matrix Reloaded", ReleaseDate: "2003-05-15"},
				{ID: 603, Title: "The Matrix", ReleaseDate: "1999-03-31"},
			}}
		},
		externalIDs: map[int64]string{603: "tt0133093"},
	}
	resolver := identity.NewResolver(st, client, 0.72, nil)

	res, err := resolver.Resolve(context.Background(), entry("", "The Matrix", 1999), false)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.MovieKey != "the-matrix-1999" {
		t.Fatalf("unexpected movie key %q", res.MovieKey)
	}
	tmdbIdent := res.Identifiers[providers.NameTMDB]
	if tmdbIdent.ProviderID != "603" {
		t.Fatalf("expected exact title to win, got %#v", tmdbIdent)
	}
	if tmdbIdent.Confidence < 0.72 {
		t.Fatalf("expected confidence above threshold, got %v", tmdbIdent.Confidence)
	}
	if got := res.Identifiers[providers.NameOMDB]; got.ProviderID != "tt0133093" {
		t.Fatalf("expected imdb id from external ids, got %#v", got)
	}
}

func TestResolveByTitleBelowThresholdIsUnmatched(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	client := &fakeMatchClient{
		search: func(query string, year int) *tmdb.SearchResponse {
			return &tmdb.SearchResponse{Results: []tmdb.Result{
				{ID: 42, Title: "Paddington", ReleaseDate: "2014-11-28"},
			}}
		},
	}
	resolver := identity.NewResolver(st, client, 0.72, nil)

	ctx := context.Background()
	res, err := resolver.Resolve(ctx, entry("", "Obscure Short", 1931), false)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Matched() {
		t.Fatalf("expected unmatched resolution, got %#v", res.Identifiers)
	}

	// The unmatched outcome is cached; a second resolve stays local.
	if _, err := resolver.Resolve(ctx, entry("", "Obscure Short", 1931), false); err != nil {
		t.Fatalf("second Resolve failed: %v", err)
	}
	if client.searchCalls > 2 {
		t.Fatalf("expected cached unmatched outcome, got %d search calls", client.searchCalls)
	}
}
