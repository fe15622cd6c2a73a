package providers

import "context"

// Adapter fetches and normalizes one provider's data for a resolved movie.
// Implementations return ErrNotFound when the provider id does not resolve,
// ErrRateLimited or ErrTransient for retryable failures, and ErrFatal when
// the provider cannot serve any request for the rest of the run.
type Adapter interface {
	// Name returns the provider's stable name.
	Name() string
	// Fetch retrieves the normalized record for a provider-native id.
	Fetch(ctx context.Context, providerID string) (*Record, error)
}
