package providers

import (
	"errors"
	"fmt"
	"strings"

	"cinescope/internal/store"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrRateLimited = errors.New("rate limited")
	ErrTransient   = errors.New("transient failure")
	ErrFatal       = errors.New("fatal provider error")
)

// Wrap builds an error message that includes provider context while tagging
// it with the provided marker for later status classification. The marker
// should be one of the exported sentinel errors above.
func Wrap(marker error, provider, operation, message string, err error) error {
	detail := buildDetail(provider, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Classify maps a fetch error to the per-provider status the merge should
// record on the canonical row. Fatal errors carry no status; they halt the
// provider for the rest of the run.
func Classify(err error) (string, bool) {
	switch {
	case err == nil:
		return store.ProviderStatusOK, true
	case errors.Is(err, ErrNotFound):
		return store.ProviderStatusUnmatched, true
	case errors.Is(err, ErrRateLimited), errors.Is(err, ErrTransient):
		return store.ProviderStatusPartial, true
	default:
		return "", false
	}
}

func buildDetail(provider, operation, message string) string {
	parts := make([]string, 0, 3)
	if provider = strings.TrimSpace(provider); provider != "" {
		parts = append(parts, provider)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "provider failure"
	}
	return strings.Join(parts, ": ")
}
