package identity

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"cinescope/internal/logging"
	"cinescope/internal/providers"
	"cinescope/internal/providers/tmdb"
	"cinescope/internal/store"
)

// yearExactBonus and yearFarPenalty adjust title scores using the release
// year from the watch history. Off-by-one years stay neutral because
// festival premieres and wide releases often straddle a year boundary.
const (
	yearExactBonus = 0.1
	yearFarPenalty = 0.2
)

// MatchClient is the slice of the TMDB client the resolver needs.
type MatchClient interface {
	FindByIMDbID(ctx context.Context, imdbID string) (*tmdb.FindResponse, error)
	SearchMovie(ctx context.Context, query string, year int) (*tmdb.SearchResponse, error)
	GetExternalIDs(ctx context.Context, movieID int64) (*tmdb.ExternalIDs, error)
}

// Resolution is the outcome of identifying one watch entry: its movie key
// plus the per-provider native identifiers to enrich with.
type Resolution struct {
	MovieKey    string
	Identifiers map[string]store.ExternalIdentifier
}

// Matched reports whether at least one provider resolved.
func (r Resolution) Matched() bool {
	for _, ident := range r.Identifiers {
		if ident.Matched() {
			return true
		}
	}
	return false
}

// Resolver maps watch entries to provider-native identifiers, caching every
// outcome so reruns never repeat lookups.
type Resolver struct {
	store     *store.Store
	client    MatchClient
	threshold float64
	logger    *slog.Logger
}

// NewResolver builds a resolver over the identifier cache.
func NewResolver(st *store.Store, client MatchClient, threshold float64, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Resolver{
		store:     st,
		client:    client,
		threshold: threshold,
		logger:    logger.With(logging.String(logging.FieldComponent, "identity")),
	}
}

// Resolve returns the provider identifiers for one watch entry, consulting
// the cache first. With rematch set the cache is bypassed and overwritten.
// Cached unmatched outcomes count as resolved; only lookup failures surface
// as errors.
func (r *Resolver) Resolve(ctx context.Context, entry store.WatchEntry, rematch bool) (*Resolution, error) {
	movieKey := MovieKey(entry.IMDbID, entry.Title, entry.Year)

	if !rematch {
		cached, err := r.store.IdentifiersForMovie(ctx, movieKey)
		if err != nil {
			return nil, err
		}
		if len(cached) > 0 {
			return &Resolution{MovieKey: movieKey, Identifiers: cached}, nil
		}
	}

	imdbID := entry.IMDbID
	var (
		tmdbID     string
		confidence float64
	)
	if imdbID != "" {
		found, err := r.client.FindByIMDbID(ctx, imdbID)
		if err != nil {
			return nil, err
		}
		if len(found.MovieResults) > 0 {
			tmdbID = strconv.FormatInt(found.MovieResults[0].ID, 10)
			confidence = 1
		}
	} else {
		id, score, err := r.searchByTitle(ctx, entry)
		if err != nil {
			return nil, err
		}
		if id > 0 {
			tmdbID = strconv.FormatInt(id, 10)
			confidence = score
			external, err := r.client.GetExternalIDs(ctx, id)
			if err != nil {
				return nil, err
			}
			imdbID = external.IMDbID
		}
	}

	resolution := &Resolution{MovieKey: movieKey, Identifiers: map[string]store.ExternalIdentifier{}}
	now := time.Now().UTC()
	add := func(provider, providerID string, conf float64) {
		resolution.Identifiers[provider] = store.ExternalIdentifier{
			MovieKey:   movieKey,
			Provider:   provider,
			ProviderID: providerID,
			Confidence: conf,
			ResolvedAt: now,
		}
	}
	add(providers.NameTMDB, tmdbID, confidence)
	add(providers.NameOMDB, imdbID, confidence)
	add(providers.NameDogDie, imdbID, confidence)
	add(providers.NameWikidata, imdbID, confidence)

	for _, ident := range resolution.Identifiers {
		if err := r.store.SaveIdentifier(ctx, ident); err != nil {
			return nil, err
		}
	}

	if !resolution.Matched() {
		r.logger.Warn("no provider match",
			logging.String(logging.FieldMovieKey, movieKey),
			logging.String("title", entry.Title))
	} else {
		r.logger.Debug("resolved identifiers",
			logging.String(logging.FieldMovieKey, movieKey),
			logging.String("tmdb_id", tmdbID),
			logging.String("imdb_id", imdbID),
			logging.Float64("confidence", confidence))
	}
	return resolution, nil
}

// searchByTitle scores TMDB search results against the history entry and
// returns the best candidate at or above the threshold.
func (r *Resolver) searchByTitle(ctx context.Context, entry store.WatchEntry) (int64, float64, error) {
	results, err := r.client.SearchMovie(ctx, entry.Title, entry.Year)
	if err != nil {
		return 0, 0, err
	}
	// A year-constrained search can miss re-releases, so retry without it.
	if len(results.Results) == 0 && entry.Year > 0 {
		results, err = r.client.SearchMovie(ctx, entry.Title, 0)
		if err != nil {
			return 0, 0, err
		}
	}

	var (
		bestID    int64
		bestScore float64
	)
	for _, candidate := range results.Results {
		score := Similarity(entry.Title, candidate.Title)
		if entry.Year > 0 {
			switch gap := yearGap(entry.Year, candidate.ReleaseDate); {
			case gap == 0:
				score += yearExactBonus
			case gap > 1:
				score -= yearFarPenalty
			}
		}
		if score > 1 {
			score = 1
		}
		if score > bestScore {
			bestID, bestScore = candidate.ID, score
		}
	}
	if bestScore < r.threshold {
		return 0, 0, nil
	}
	return bestID, bestScore, nil
}

func yearGap(year int, releaseDate string) int {
	if len(releaseDate) < 4 {
		return 0
	}
	candidate, err := strconv.Atoi(releaseDate[:4])
	if err != nil {
		return 0
	}
	gap := year - candidate
	if gap < 0 {
		gap = -gap
	}
	return gap
}
