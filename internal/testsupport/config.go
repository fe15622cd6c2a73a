package testsupport

import (
	"path/filepath"
	"testing"

	"cinescope/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.TMDB.APIKey = "test"
	cfgVal.OMDB.APIKey = "test"
	cfgVal.DogDie.APIKey = "test"
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.StorePath = filepath.Join(base, "data", "cinescope.db")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithSimilarityThreshold overrides the title match threshold on the test
// config.
func WithSimilarityThreshold(threshold float64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Identity.SimilarityThreshold = threshold
	}
}

// WithProviderBaseURL points one provider section at a test server.
func WithProviderBaseURL(provider, baseURL string) ConfigOption {
	return func(b *configBuilder) {
		switch provider {
		case "tmdb":
			b.cfg.TMDB.BaseURL = baseURL
		case "omdb":
			b.cfg.OMDB.BaseURL = baseURL
		case "dogdie":
			b.cfg.DogDie.BaseURL = baseURL
		case "wikidata":
			b.cfg.Wikidata.BaseURL = baseURL
		default:
			b.t.Fatalf("unknown provider %q", provider)
		}
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
