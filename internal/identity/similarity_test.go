package identity_test

import (
	"testing"

	"cinescope/internal/identity"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercases", "The Matrix", "the matrix"},
		{"strips punctuation", "WALL·E!", "wall e"},
		{"collapses whitespace", "  Blade   Runner ", "blade runner"},
		{"removes diacritics", "Amélie", "amelie"},
		{"keeps digits", "2001: A Space Odyssey", "2001 a space odyssey"},
		{"empty", "  ...  ", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := identity.Normalize(tc.input); got != tc.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestMovieKey(t *testing.T) {
	cases := []struct {
		name   string
		imdbID string
		title  string
		year   int
		want   string
	}{
		{"imdb id wins", "tt0133093", "The Matrix", 1999, "tt0133093"},
		{"title slug", "", "The Matrix", 1999, "the-matrix-1999"},
		{"no year", "", "The Matrix", 0, "the-matrix"},
		{"accented title", "", "Amélie", 2001, "amelie-2001"},
		{"blank title", "", "???", 1970, "untitled-1970"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := identity.MovieKey(tc.imdbID, tc.title, tc.year); got != tc.want {
				t.Fatalf("MovieKey = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestSimilarity(t *testing.T) {
	if got := identity.Similarity("The Matrix", "The Matrix"); got != 1 {
		t.Fatalf("identical titles scored %v", got)
	}
	if got := identity.Similarity("The Matrix", "the matrix"); got != 1 {
		t.Fatalf("case-insensitive match scored %v", got)
	}
	if got := identity.Similarity("The Matrix", "The Matrix Reloaded"); got <= 0.5 || got >= 1 {
		t.Fatalf("related titles scored %v, want between 0.5 and 1", got)
	}
	if got := identity.Similarity("The Matrix", "Paddington"); got > 0.3 {
		t.Fatalf("unrelated titles scored %v, want <= 0.3", got)
	}
	if got := identity.Similarity("", "The Matrix"); got != 0 {
		t.Fatalf("empty title scored %v", got)
	}
}

func TestSimilaritySymmetric(t *testing.T) {
	a, b := "Blade Runner", "Blade Runner 2049"
	if identity.Similarity(a, b) != identity.Similarity(b, a) {
		t.Fatal("similarity is not symmetric")
	}
}
