package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"cinescope/internal/config"
	"cinescope/internal/identity"
	"cinescope/internal/pipeline"
	"cinescope/internal/providers"
	"cinescope/internal/providers/dogdie"
	"cinescope/internal/providers/omdb"
	"cinescope/internal/providers/tmdb"
	"cinescope/internal/providers/wikidata"
	"cinescope/internal/store"
)

// buildRunner assembles the enrichment pipeline from configuration: one
// throttled adapter per configured provider, plus the TMDB-backed resolver.
func (c *commandContext) buildRunner(st *store.Store) (*pipeline.Runner, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger := c.ensureLogger()

	httpClient := &http.Client{Timeout: requestTimeout(cfg)}

	tmdbClient, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language, tmdb.WithHTTPClient(httpClient))
	if err != nil {
		return nil, err
	}

	throttle := func(perMinute int) providers.ThrottleOptions {
		return providers.ThrottleOptions{
			RequestsPerMinute: perMinute,
			MaxRetries:        cfg.Pipeline.MaxRetries,
			RetryBaseDelay:    time.Duration(cfg.Pipeline.RetryBaseDelay) * time.Millisecond,
		}
	}

	adapters := []pipeline.FetchAdapter{
		providers.NewThrottled(tmdb.NewAdapter(tmdbClient), throttle(cfg.TMDB.RequestsPerMinute), logger),
	}

	if cfg.OMDB.APIKey != "" {
		omdbClient, err := omdb.New(cfg.OMDB.APIKey, cfg.OMDB.BaseURL, omdb.WithHTTPClient(httpClient))
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, providers.NewThrottled(omdb.NewAdapter(omdbClient), throttle(cfg.OMDB.RequestsPerMinute), logger))
	}

	if cfg.Wikidata.Enabled {
		wikidataClient, err := wikidata.New(cfg.Wikidata.BaseURL, wikidata.WithHTTPClient(httpClient))
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, providers.NewThrottled(wikidata.NewAdapter(wikidataClient), throttle(cfg.Wikidata.RequestsPerMinute), logger))
	}

	if cfg.DogDie.APIKey != "" {
		dogdieClient, err := dogdie.New(cfg.DogDie.APIKey, cfg.DogDie.BaseURL, dogdie.WithHTTPClient(httpClient))
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, providers.NewThrottled(dogdie.NewAdapter(dogdieClient), throttle(cfg.DogDie.RequestsPerMinute), logger))
	}

	resolver := identity.NewResolver(st, tmdbClient, cfg.Identity.SimilarityThreshold, logger)
	return pipeline.New(st, resolver, adapters, logger), nil
}

func requestTimeout(cfg *config.Config) time.Duration {
	if cfg.Pipeline.RequestTimeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(cfg.Pipeline.RequestTimeout) * time.Second
}

// signalContext returns a context cancelled on SIGINT or SIGTERM so a run
// stops cleanly at the next movie boundary.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}
