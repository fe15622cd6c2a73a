package dogdie_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"cinescope/internal/providers"
	"cinescope/internal/providers/dogdie"
)

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := dogdie.New("", "https://example.com"); err == nil {
		t.Fatal("expected error when api key missing")
	}
}

func TestSearchSendsAPIKeyHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-KEY") != "key" {
			t.Fatalf("expected X-API-KEY header, got %q", r.Header.Get("X-API-KEY"))
		}
		if r.URL.Path != "/dddsearch" || r.URL.Query().Get("imdb") != "0133093" {
			t.Fatalf("unexpected request: %s?%s", r.URL.Path, r.URL.RawQuery)
		}
		if r.URL.Query().Has("q") {
			t.Fatalf("expected lookup by imdb param, got %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[{"id":10,"name":"The Matrix"}]}`))
	}))
	t.Cleanup(server.Close)

	client, err := dogdie.New("key", server.URL)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	resp, err := client.SearchByIMDbID(context.Background(), "tt0133093")
	if err != nil {
		t.Fatalf("SearchByIMDbID returned error: %v", err)
	}
	if len(resp.Items) != 1 || resp.Items[0].ID != 10 {
		t.Fatalf("unexpected response: %#v", resp)
	}
}

func TestAdapterFetchTwoStepLookup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/dddsearch":
			_, _ = w.Write([]byte(`{"items":[{"id":10,"name":"The Matrix"}]}`))
		case "/media/10":
			_, _ = w.Write([]byte(`{
                "item": {"id":10,"name":"The Matrix"},
                "topicItemStats": [
                    {"topic":{"name":"a dog dies","doesName":"Does a dog die?"},"yesSum":2,"noSum":40},
                    {"topic":{"name":"a cat dies","doesName":"Does a cat die?"},"yesSum":0,"noSum":0}
                ]
            }`))
		default:
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
	}))
	t.Cleanup(server.Close)

	client, err := dogdie.New("key", server.URL)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	rec, err := dogdie.NewAdapter(client).Fetch(context.Background(), "tt0133093")
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if len(rec.Flags) != 1 {
		t.Fatalf("expected voteless topics dropped, got %#v", rec.Flags)
	}
	flag := rec.Flags[0]
	if flag.Topic != "Does a dog die?" || flag.YesVotes != 2 || flag.NoVotes != 40 {
		t.Fatalf("unexpected flag: %#v", flag)
	}
}

func TestAdapterFetchNoMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[]}`))
	}))
	t.Cleanup(server.Close)

	client, err := dogdie.New("key", server.URL)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := dogdie.NewAdapter(client).Fetch(context.Background(), "tt9999999"); !errors.Is(err, providers.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSearchUnauthorizedIsFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(server.Close)

	client, err := dogdie.New("key", server.URL)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := client.SearchByIMDbID(context.Background(), "tt0133093"); !errors.Is(err, providers.ErrFatal) {
		t.Fatalf("expected fatal error, got %v", err)
	}
}
