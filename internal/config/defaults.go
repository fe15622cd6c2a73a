package config

const (
	defaultDataDir           = "~/.local/share/cinescope"
	defaultLogDir            = "~/.local/share/cinescope/logs"
	defaultTMDBBaseURL       = "https://api.themoviedb.org/3"
	defaultTMDBLanguage      = "en-US"
	defaultOMDBBaseURL       = "https://www.omdbapi.com"
	defaultDogDieBaseURL     = "https://www.doesthedogdie.com"
	defaultWikidataBaseURL   = "https://www.wikidata.org/w"
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultRequestTimeout    = 15
	defaultMaxRetries        = 3
	defaultRetryBaseDelayMS  = 500
	defaultSimilarity        = 0.72
	defaultTMDBPerMinute     = 40
	defaultOMDBPerMinute     = 30
	defaultDogDiePerMinute   = 20
	defaultWikidataPerMinute = 30
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		TMDB: TMDB{
			BaseURL:           defaultTMDBBaseURL,
			Language:          defaultTMDBLanguage,
			RequestsPerMinute: defaultTMDBPerMinute,
		},
		OMDB: OMDB{
			BaseURL:           defaultOMDBBaseURL,
			RequestsPerMinute: defaultOMDBPerMinute,
		},
		DogDie: DogDie{
			BaseURL:           defaultDogDieBaseURL,
			RequestsPerMinute: defaultDogDiePerMinute,
		},
		Wikidata: Wikidata{
			Enabled:           true,
			BaseURL:           defaultWikidataBaseURL,
			RequestsPerMinute: defaultWikidataPerMinute,
		},
		Identity: Identity{
			SimilarityThreshold: defaultSimilarity,
		},
		Pipeline: Pipeline{
			RequestTimeout: defaultRequestTimeout,
			MaxRetries:     defaultMaxRetries,
			RetryBaseDelay: defaultRetryBaseDelayMS,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
