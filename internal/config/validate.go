package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks configuration invariants that would otherwise surface as
// confusing runtime failures mid-run.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Paths.DataDir) == "" {
		problems = append(problems, "paths.data_dir must not be empty")
	}
	if strings.TrimSpace(c.Paths.StorePath) == "" {
		problems = append(problems, "paths.store_path must not be empty")
	}
	if c.Identity.SimilarityThreshold <= 0 || c.Identity.SimilarityThreshold > 1 {
		problems = append(problems, fmt.Sprintf("identity.similarity_threshold must be in (0, 1], got %v", c.Identity.SimilarityThreshold))
	}
	if c.Pipeline.RequestTimeout <= 0 {
		problems = append(problems, "pipeline.request_timeout must be positive")
	}
	if c.Pipeline.MaxRetries < 0 {
		problems = append(problems, "pipeline.max_retries must not be negative")
	}
	if c.Pipeline.RetryBaseDelay <= 0 {
		problems = append(problems, "pipeline.retry_base_delay_ms must be positive")
	}
	for _, check := range []struct {
		name  string
		value int
	}{
		{"tmdb.requests_per_minute", c.TMDB.RequestsPerMinute},
		{"omdb.requests_per_minute", c.OMDB.RequestsPerMinute},
		{"dogdie.requests_per_minute", c.DogDie.RequestsPerMinute},
		{"wikidata.requests_per_minute", c.Wikidata.RequestsPerMinute},
	} {
		if check.value <= 0 {
			problems = append(problems, check.name+" must be positive")
		}
	}
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "", "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format: unsupported value %q", c.Logging.Format))
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}
