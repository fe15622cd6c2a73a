package omdb

import (
	"context"
	"strconv"
	"strings"
	"time"

	"cinescope/internal/providers"
	"cinescope/internal/store"
)

// Adapter normalizes OMDb payloads into provider records. The provider id is
// the movie's IMDb id.
type Adapter struct {
	client *Client
}

// NewAdapter wraps an OMDb client in the provider adapter contract.
func NewAdapter(client *Client) *Adapter {
	return &Adapter{client: client}
}

// Name returns the provider name.
func (a *Adapter) Name() string {
	return providers.NameOMDB
}

// Fetch retrieves the review-oriented fields OMDb carries that TMDB does
// not: content rating, awards, IMDb rating, Metascore, and the Rotten
// Tomatoes percentage.
func (a *Adapter) Fetch(ctx context.Context, providerID string) (*providers.Record, error) {
	movie, err := a.client.GetByIMDbID(ctx, providerID)
	if err != nil {
		return nil, err
	}

	rec := providers.NewRecord(providers.NameOMDB, providerID, time.Now().UTC())
	rec.SetText(store.FieldTitle, cleanValue(movie.Title))
	rec.SetText(store.FieldGenres, cleanValue(movie.Genre))
	rec.SetText(store.FieldPlot, cleanValue(movie.Plot))
	rec.SetText(store.FieldContentRating, cleanValue(movie.Rated))
	rec.SetText(store.FieldAwards, cleanValue(movie.Awards))

	if year := cleanValue(movie.Year); len(year) >= 4 {
		if parsed, ok := parseNumber(year[:4]); ok {
			rec.SetNumber(store.FieldYear, parsed)
		}
	}
	if runtime, ok := parseNumber(strings.TrimSuffix(cleanValue(movie.Runtime), " min")); ok {
		rec.SetNumber(store.FieldRuntimeMinutes, runtime)
	}
	if rating, ok := parseNumber(cleanValue(movie.IMDbRating)); ok {
		rec.SetNumber(store.FieldIMDBRating, rating)
	}
	if metascore, ok := parseNumber(cleanValue(movie.Metascore)); ok {
		rec.SetNumber(store.FieldMetascore, metascore)
	}
	if tomatoes, ok := rottenTomatoes(movie.Ratings); ok {
		rec.SetNumber(store.FieldRottenTomatoes, tomatoes)
	}

	for _, actor := range strings.Split(cleanValue(movie.Actors), ",") {
		if name := strings.TrimSpace(actor); name != "" {
			rec.Cast = append(rec.Cast, name)
		}
	}

	return rec, nil
}

func rottenTomatoes(ratings []Rating) (float64, bool) {
	for _, rating := range ratings {
		if rating.Source != "Rotten Tomatoes" {
			continue
		}
		return parseNumber(strings.TrimSuffix(rating.Value, "%"))
	}
	return 0, false
}

// cleanValue collapses OMDb's "N/A" placeholder to empty.
func cleanValue(value string) string {
	value = strings.TrimSpace(value)
	if value == "N/A" {
		return ""
	}
	return value
}

func parseNumber(value string) (float64, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false
	}
	return parsed, true
}
