package tmdb_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"cinescope/internal/providers"
	"cinescope/internal/providers/tmdb"
	"cinescope/internal/store"
)

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := tmdb.New("", "https://example.com", "en-US"); err == nil {
		t.Fatal("expected error when api key missing")
	}
}

func TestFindByIMDbIDSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/find/tt0133093" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		if r.URL.Query().Get("external_source") != "imdb_id" {
			t.Fatalf("expected external_source query parameter, got %q", r.URL.RawQuery)
		}
		if r.URL.Query().Get("api_key") != "key" {
			t.Fatalf("expected api_key query parameter, got %q", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"movie_results":[{"id":603,"title":"The Matrix","release_date":"1999-03-31"}]}`))
	}))
	t.Cleanup(server.Close)

	client, err := tmdb.New("key", server.URL, "en-US")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	resp, err := client.FindByIMDbID(context.Background(), "tt0133093")
	if err != nil {
		t.Fatalf("FindByIMDbID returned error: %v", err)
	}
	if len(resp.MovieResults) != 1 || resp.MovieResults[0].ID != 603 {
		t.Fatalf("unexpected response: %#v", resp)
	}
}

func TestSearchMovieSendsYearFilter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("primary_release_year") != "1999" {
			t.Fatalf("expected year filter, got %q", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"page":1,"results":[{"id":603,"title":"The Matrix"}]}`))
	}))
	t.Cleanup(server.Close)

	client, err := tmdb.New("key", server.URL, "")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	resp, err := client.SearchMovie(context.Background(), "The Matrix", 1999)
	if err != nil {
		t.Fatalf("SearchMovie returned error: %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].Title != "The Matrix" {
		t.Fatalf("unexpected response: %#v", resp)
	}
}

func TestSearchMovieEmptyQuery(t *testing.T) {
	client, err := tmdb.New("key", "https://example.com", "")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := client.SearchMovie(context.Background(), "  ", 0); err == nil {
		t.Fatal("expected error for empty query")
	}
}

func TestStatusCodeClassification(t *testing.T) {
	cases := []struct {
		name   string
		status int
		marker error
	}{
		{"not found", http.StatusNotFound, providers.ErrNotFound},
		{"rate limited", http.StatusTooManyRequests, providers.ErrRateLimited},
		{"unauthorized", http.StatusUnauthorized, providers.ErrFatal},
		{"server error", http.StatusInternalServerError, providers.ErrTransient},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}))
			t.Cleanup(server.Close)

			client, err := tmdb.New("key", server.URL, "")
			if err != nil {
				t.Fatalf("New returned error: %v", err)
			}
			_, err = client.GetMovieDetails(context.Background(), 603)
			if !errors.Is(err, tc.marker) {
				t.Fatalf("expected %v, got %v", tc.marker, err)
			}
		})
	}
}

func TestAdapterFetchNormalizesDetails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/movie/603" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		if r.URL.Query().Get("append_to_response") != "credits,keywords" {
			t.Fatalf("expected appended credits and keywords, got %q", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
            "id": 603,
            "imdb_id": "tt0133093",
            "title": "The Matrix",
            "original_title": "The Matrix",
            "overview": "A hacker learns the truth.",
            "tagline": "Free your mind.",
            "release_date": "1999-03-31",
            "runtime": 136,
            "poster_path": "/matrix.jpg",
            "vote_average": 8.2,
            "vote_count": 26000,
            "genres": [{"id":28,"name":"Action"},{"id":878,"name":"Science Fiction"}],
            "credits": {"cast":[{"name":"Keanu Reeves","order":0},{"name":"Laurence Fishburne","order":1}]},
            "keywords": {"keywords":[{"name":"simulated reality"}]}
        }`))
	}))
	t.Cleanup(server.Close)

	client, err := tmdb.New("key", server.URL, "")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	rec, err := tmdb.NewAdapter(client).Fetch(context.Background(), "603")
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if rec.Provider != providers.NameTMDB {
		t.Fatalf("unexpected provider %q", rec.Provider)
	}
	if rec.Text[store.FieldTitle] != "The Matrix" {
		t.Fatalf("unexpected title: %q", rec.Text[store.FieldTitle])
	}
	if rec.Text[store.FieldGenres] != "Action, Science Fiction" {
		t.Fatalf("unexpected genres: %q", rec.Text[store.FieldGenres])
	}
	if rec.Number[store.FieldYear] != 1999 || rec.Number[store.FieldRuntimeMinutes] != 136 {
		t.Fatalf("unexpected numbers: %#v", rec.Number)
	}
	if rec.Number[store.FieldTMDBRating] != 8.2 || rec.Number[store.FieldTMDBVotes] != 26000 {
		t.Fatalf("unexpected rating numbers: %#v", rec.Number)
	}
	if len(rec.Cast) != 2 || rec.Cast[0] != "Keanu Reeves" {
		t.Fatalf("unexpected cast: %#v", rec.Cast)
	}
	if len(rec.Keywords) != 1 || rec.Keywords[0] != "simulated reality" {
		t.Fatalf("unexpected keywords: %#v", rec.Keywords)
	}
}

func TestAdapterFetchRejectsBadID(t *testing.T) {
	client, err := tmdb.New("key", "https://example.com", "")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := tmdb.NewAdapter(client).Fetch(context.Background(), "tt0133093"); !errors.Is(err, providers.ErrNotFound) {
		t.Fatalf("expected not found for non-numeric id, got %v", err)
	}
}
