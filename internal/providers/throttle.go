package providers

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"cinescope/internal/logging"
)

// ThrottleOptions configures the pacing and retry behavior of a wrapped
// adapter.
type ThrottleOptions struct {
	RequestsPerMinute int
	MaxRetries        int
	RetryBaseDelay    time.Duration
}

// Throttled wraps an Adapter with request pacing, bounded retries for
// retryable failures, and a run-scoped halt on fatal errors. It is safe for
// concurrent use.
type Throttled struct {
	inner   Adapter
	limiter *rate.Limiter
	opts    ThrottleOptions
	halted  atomic.Bool
	logger  *slog.Logger
}

// NewThrottled wraps an adapter with the given pacing options.
func NewThrottled(inner Adapter, opts ThrottleOptions, logger *slog.Logger) *Throttled {
	if opts.RequestsPerMinute <= 0 {
		opts.RequestsPerMinute = 30
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.RetryBaseDelay <= 0 {
		opts.RetryBaseDelay = 500 * time.Millisecond
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	interval := time.Minute / time.Duration(opts.RequestsPerMinute)
	return &Throttled{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		opts:    opts,
		logger:  logger.With(logging.String(logging.FieldProvider, inner.Name())),
	}
}

// Name returns the wrapped provider's name.
func (t *Throttled) Name() string {
	return t.inner.Name()
}

// Halted reports whether a fatal error has taken the provider out of the
// current run.
func (t *Throttled) Halted() bool {
	return t.halted.Load()
}

// Fetch paces one request through the limiter and retries retryable failures
// up to the configured bound with exponential backoff. A fatal error marks
// the provider halted; every later Fetch fails immediately without touching
// the network.
func (t *Throttled) Fetch(ctx context.Context, providerID string) (*Record, error) {
	if t.halted.Load() {
		return nil, Wrap(ErrFatal, t.inner.Name(), "fetch", "provider halted for this run", nil)
	}

	var lastErr error
	for attempt := 0; attempt <= t.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := t.opts.RetryBaseDelay << (attempt - 1)
			t.logger.Warn("retrying provider fetch",
				logging.Int("attempt", attempt),
				logging.Duration("delay", delay),
				logging.Error(lastErr))
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}

		if err := t.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		rec, err := t.inner.Fetch(ctx, providerID)
		if err == nil {
			return rec, nil
		}
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		if errors.Is(err, ErrFatal) {
			t.halted.Store(true)
			t.logger.Error("provider halted", logging.Error(err))
			return nil, err
		}
		if !errors.Is(err, ErrRateLimited) && !errors.Is(err, ErrTransient) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}
