package tmdb

import (
	"context"
	"strconv"
	"strings"
	"time"

	"cinescope/internal/providers"
	"cinescope/internal/store"
)

// castLimit caps how many billed cast members flow into the merged record.
const castLimit = 15

// Adapter normalizes TMDB movie details into provider records. The provider
// id is the TMDB numeric movie id.
type Adapter struct {
	client *Client
}

// NewAdapter wraps a TMDB client in the provider adapter contract.
func NewAdapter(client *Client) *Adapter {
	return &Adapter{client: client}
}

// Name returns the provider name.
func (a *Adapter) Name() string {
	return providers.NameTMDB
}

// Fetch retrieves movie details, credits, and keywords in one request and
// maps them onto the canonical field names.
func (a *Adapter) Fetch(ctx context.Context, providerID string) (*providers.Record, error) {
	movieID, err := strconv.ParseInt(strings.TrimSpace(providerID), 10, 64)
	if err != nil {
		return nil, providers.Wrap(providers.ErrNotFound, providers.NameTMDB, "fetch", "invalid tmdb id "+providerID, err)
	}

	details, err := a.client.GetMovieDetails(ctx, movieID)
	if err != nil {
		return nil, err
	}

	rec := providers.NewRecord(providers.NameTMDB, providerID, time.Now().UTC())
	rec.SetText(store.FieldTitle, details.Title)
	rec.SetText(store.FieldOriginalTitle, details.OriginalTitle)
	rec.SetText(store.FieldPlot, details.Overview)
	rec.SetText(store.FieldTagline, details.Tagline)
	rec.SetText(store.FieldReleaseDate, details.ReleaseDate)
	rec.SetText(store.FieldPosterPath, details.PosterPath)

	if len(details.Genres) > 0 {
		names := make([]string, 0, len(details.Genres))
		for _, genre := range details.Genres {
			if name := strings.TrimSpace(genre.Name); name != "" {
				names = append(names, name)
			}
		}
		rec.SetText(store.FieldGenres, strings.Join(names, ", "))
	}

	if year := releaseYear(details.ReleaseDate); year > 0 {
		rec.SetNumber(store.FieldYear, float64(year))
	}
	if details.Runtime > 0 {
		rec.SetNumber(store.FieldRuntimeMinutes, float64(details.Runtime))
	}
	if details.VoteCount > 0 {
		rec.SetNumber(store.FieldTMDBRating, details.VoteAverage)
		rec.SetNumber(store.FieldTMDBVotes, float64(details.VoteCount))
	}

	for i, credit := range details.Credits.Cast {
		if i >= castLimit {
			break
		}
		if name := strings.TrimSpace(credit.Name); name != "" {
			rec.Cast = append(rec.Cast, name)
		}
	}
	for _, keyword := range details.Keywords.Keywords {
		if name := strings.TrimSpace(keyword.Name); name != "" {
			rec.Keywords = append(rec.Keywords, name)
		}
	}

	return rec, nil
}

func releaseYear(releaseDate string) int {
	if len(releaseDate) < 4 {
		return 0
	}
	year, err := strconv.Atoi(releaseDate[:4])
	if err != nil {
		return 0
	}
	return year
}
