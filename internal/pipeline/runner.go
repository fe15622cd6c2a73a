package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"cinescope/internal/identity"
	"cinescope/internal/logging"
	"cinescope/internal/merge"
	"cinescope/internal/providers"
	"cinescope/internal/store"
)

// FetchAdapter is a provider adapter with run-scoped halt tracking, as
// produced by providers.NewThrottled.
type FetchAdapter interface {
	providers.Adapter
	Halted() bool
}

// Resolver resolves watch entries to provider identifiers.
type Resolver interface {
	Resolve(ctx context.Context, entry store.WatchEntry, rematch bool) (*identity.Resolution, error)
}

// Options controls one enrichment run.
type Options struct {
	// Restart abandons any resumable checkpoint and starts from the top.
	Restart bool
	// Limit stops after this many movies; zero means no limit.
	Limit int
	// Only restricts fetching to a single provider by name.
	Only string
	// Rematch bypasses the identifier cache and resolves every entry again.
	Rematch bool
}

// Runner drives enrichment: resolve, fetch per provider, merge, persist,
// checkpoint. One movie is the unit of progress; interruption between
// movies never loses or repeats completed work.
type Runner struct {
	store    *store.Store
	resolver Resolver
	adapters []FetchAdapter
	logger   *slog.Logger
}

// New builds a runner over the given store, resolver, and adapters.
func New(st *store.Store, resolver Resolver, adapters []FetchAdapter, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{
		store:    st,
		resolver: resolver,
		adapters: adapters,
		logger:   logger.With(logging.String(logging.FieldComponent, "pipeline")),
	}
}

// Run executes one enrichment pass over the backlog. A resumable checkpoint
// from a prior interrupted run is picked up unless Restart is set.
func (r *Runner) Run(ctx context.Context, opts Options) (*Summary, error) {
	release, err := r.store.AcquireRunLock()
	if err != nil {
		return nil, err
	}
	defer release()

	if opts.Restart {
		if _, err := r.store.ClearResumable(ctx); err != nil {
			return nil, err
		}
	}

	checkpoint, err := r.store.LatestResumable(ctx)
	if err != nil {
		return nil, err
	}
	resumed := checkpoint != nil
	if checkpoint == nil {
		checkpoint, err = r.store.CreateCheckpoint(ctx)
		if err != nil {
			return nil, err
		}
	}

	summary := newSummary(checkpoint.RunID)
	summary.Resumed = resumed
	summary.Restarted = opts.Restart

	entries, err := r.store.ListWatchEntries(ctx)
	if err != nil {
		return nil, err
	}
	pending := pendingKeys(entries, checkpoint.LastMovieKey)

	r.logger.Info("enrichment run starting",
		logging.String(logging.FieldRunID, checkpoint.RunID),
		logging.Bool("resumed", resumed),
		logging.Int("pending", len(pending)))

	processed := checkpoint.Processed
	for _, item := range pending {
		if err := ctx.Err(); err != nil {
			return r.interrupt(summary, checkpoint.RunID, len(pending), err)
		}
		if opts.Limit > 0 && summary.Processed >= opts.Limit {
			if err := r.store.FinishCheckpoint(context.WithoutCancel(ctx), checkpoint.RunID, store.RunInterrupted); err != nil {
				return summary, err
			}
			summary.Remaining = len(pending) - summary.Processed
			return summary, nil
		}

		if err := r.processMovie(ctx, item.entry, opts, summary); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return r.interrupt(summary, checkpoint.RunID, len(pending), err)
			}
			// A store failure means nothing was committed for this movie.
			// Abort without advancing so a later run picks it up again;
			// provider and resolution failures stay non-fatal.
			var persist *persistError
			if errors.As(err, &persist) {
				r.logger.Error("store failure, aborting run",
					logging.String(logging.FieldMovieKey, item.key),
					logging.Error(err))
				return r.interrupt(summary, checkpoint.RunID, len(pending), err)
			}
			summary.Errors++
			r.logger.Error("movie enrichment failed",
				logging.String(logging.FieldMovieKey, item.key),
				logging.Error(err))
		}

		processed++
		if err := r.store.AdvanceCheckpoint(ctx, checkpoint.RunID, item.key, processed); err != nil {
			return summary, err
		}
		summary.Processed++
	}

	if err := r.store.FinishCheckpoint(context.WithoutCancel(ctx), checkpoint.RunID, store.RunCompleted); err != nil {
		return summary, err
	}
	r.logger.Info("enrichment run completed",
		logging.String(logging.FieldRunID, checkpoint.RunID),
		logging.Int("processed", summary.Processed),
		logging.Int("errors", summary.Errors))
	return summary, nil
}

// persistError marks a store write or read failure inside processMovie.
// These abort the whole run; everything else degrades per provider.
type persistError struct {
	err error
}

func (e *persistError) Error() string { return e.err.Error() }

func (e *persistError) Unwrap() error { return e.err }

type pendingItem struct {
	key   string
	entry store.WatchEntry
}

// pendingKeys orders the backlog by watch date, collapses repeat viewings of
// the same movie, and drops everything up to and including the checkpointed
// key.
func pendingKeys(entries []store.WatchEntry, lastKey string) []pendingItem {
	seen := make(map[string]bool, len(entries))
	skipping := lastKey != ""
	var pending []pendingItem
	for _, entry := range entries {
		key := identity.MovieKey(entry.IMDbID, entry.Title, entry.Year)
		if seen[key] {
			continue
		}
		seen[key] = true
		if skipping {
			if key == lastKey {
				skipping = false
			}
			continue
		}
		pending = append(pending, pendingItem{key: key, entry: entry})
	}
	return pending
}

func (r *Runner) processMovie(ctx context.Context, entry store.WatchEntry, opts Options, summary *Summary) error {
	resolution, err := r.resolver.Resolve(ctx, entry, opts.Rematch)
	if err != nil {
		return fmt.Errorf("resolve %q: %w", entry.Title, err)
	}

	type fetchOutcome struct {
		name string
		rec  *providers.Record
		err  error
		skip bool
	}

	outcomes := make([]fetchOutcome, len(r.adapters))
	var wg sync.WaitGroup
	for i, adapter := range r.adapters {
		name := adapter.Name()
		outcomes[i].name = name
		if opts.Only != "" && opts.Only != name {
			outcomes[i].skip = true
			continue
		}
		ident, ok := resolution.Identifiers[name]
		if !ok || !ident.Matched() {
			outcomes[i].err = providers.Wrap(providers.ErrNotFound, name, "resolve", "no identifier", nil)
			continue
		}
		if adapter.Halted() {
			outcomes[i].err = providers.Wrap(providers.ErrTransient, name, "fetch", "provider halted", nil)
			continue
		}
		wg.Add(1)
		go func(i int, adapter FetchAdapter, providerID string) {
			defer wg.Done()
			outcomes[i].rec, outcomes[i].err = adapter.Fetch(ctx, providerID)
		}(i, adapter, ident.ProviderID)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}

	var recs []*providers.Record
	statuses := make(map[string]string, len(outcomes))
	for _, outcome := range outcomes {
		if outcome.skip {
			continue
		}
		status, terminal := providers.Classify(outcome.err)
		if !terminal {
			// Fatal errors halt the adapter; this movie records a
			// retryable partial so a later run can fill it in.
			status = store.ProviderStatusPartial
			summary.outcome(outcome.name).Halted = true
		}
		statuses[outcome.name] = status
		switch status {
		case store.ProviderStatusOK:
			summary.outcome(outcome.name).OK++
			recs = append(recs, outcome.rec)
		case store.ProviderStatusPartial:
			summary.outcome(outcome.name).Partial++
		case store.ProviderStatusUnmatched:
			summary.outcome(outcome.name).Unmatched++
		}
	}

	prior, err := r.store.GetCanonical(ctx, resolution.MovieKey)
	if err != nil {
		return &persistError{err: err}
	}
	merged := merge.Apply(prior, resolution.MovieKey, recs, statuses)
	if err := r.store.UpsertCanonical(ctx, merged); err != nil {
		return &persistError{err: err}
	}

	for _, rec := range recs {
		payload, err := rec.MarshalPayload()
		if err != nil {
			return fmt.Errorf("marshal %s payload: %w", rec.Provider, err)
		}
		if err := r.store.InsertProviderRecord(ctx, store.ProviderRecordRow{
			MovieKey:      resolution.MovieKey,
			Provider:      rec.Provider,
			SchemaVersion: rec.SchemaVersion,
			FetchedAt:     rec.FetchedAt,
			PayloadJSON:   payload,
		}); err != nil {
			return &persistError{err: err}
		}
	}

	r.logger.Debug("movie enriched",
		logging.String(logging.FieldMovieKey, resolution.MovieKey),
		logging.String("title", entry.Title),
		logging.Int("providers_ok", len(recs)))
	return nil
}

func (r *Runner) interrupt(summary *Summary, runID string, pending int, cause error) (*Summary, error) {
	if err := r.store.FinishCheckpoint(context.Background(), runID, store.RunInterrupted); err != nil {
		r.logger.Error("failed to mark run interrupted", logging.Error(err))
	}
	summary.Remaining = pending - summary.Processed
	r.logger.Warn("enrichment run interrupted",
		logging.String(logging.FieldRunID, runID),
		logging.Int("processed", summary.Processed),
		logging.Int("remaining", summary.Remaining))
	return summary, cause
}
