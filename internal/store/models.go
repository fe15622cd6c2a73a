package store

import (
	"strings"
	"time"
)

// Canonical scalar field names. Text fields carry string values resolved by
// provider priority; numeric fields are per-provider measurements that are
// never collapsed across providers.
const (
	FieldTitle         = "title"
	FieldOriginalTitle = "original_title"
	FieldGenres        = "genres"
	FieldPlot          = "plot"
	FieldTagline       = "tagline"
	FieldReleaseDate   = "release_date"
	FieldContentRating = "content_rating"
	FieldPosterPath    = "poster_path"
	FieldAwards        = "awards"

	FieldYear           = "year"
	FieldRuntimeMinutes = "runtime_minutes"
	FieldIMDBRating     = "imdb_rating"
	FieldTMDBRating     = "tmdb_rating"
	FieldTMDBVotes      = "tmdb_votes"
	FieldMetascore      = "metascore"
	FieldRottenTomatoes = "rotten_tomatoes"
)

// TextFields lists the canonical text fields in column order.
var TextFields = []string{
	FieldTitle,
	FieldOriginalTitle,
	FieldGenres,
	FieldPlot,
	FieldTagline,
	FieldReleaseDate,
	FieldContentRating,
	FieldPosterPath,
	FieldAwards,
}

// NumberFields lists the canonical numeric fields in column order.
var NumberFields = []string{
	FieldYear,
	FieldRuntimeMinutes,
	FieldIMDBRating,
	FieldTMDBRating,
	FieldTMDBVotes,
	FieldMetascore,
	FieldRottenTomatoes,
}

// Per-provider enrichment outcomes recorded on the canonical row.
const (
	ProviderStatusOK        = "ok"
	ProviderStatusPartial   = "partial"
	ProviderStatusUnmatched = "unmatched"
)

// WatchEntry is one row of the user's viewing history. Entries are created by
// import and never mutated by the pipeline.
type WatchEntry struct {
	ID         int64
	IMDbID     string
	Title      string
	Year       int
	WatchedAt  time.Time
	UserRating float64
	Notes      string
	CreatedAt  time.Time
}

// ExternalIdentifier maps a movie key to one provider's native identifier.
// An empty ProviderID records an explicit "unmatched" resolution so the
// resolver can distinguish "never tried" from "tried and failed".
type ExternalIdentifier struct {
	MovieKey   string
	Provider   string
	ProviderID string
	Confidence float64
	ResolvedAt time.Time
}

// Matched reports whether the identifier resolved to a real provider id.
func (e ExternalIdentifier) Matched() bool {
	return strings.TrimSpace(e.ProviderID) != ""
}

// FieldOrigin records which provider supplied a field's value and when.
type FieldOrigin struct {
	Provider  string    `json:"provider"`
	FetchedAt time.Time `json:"fetched_at"`
}

// CastMember is one element of the unioned cast list.
type CastMember struct {
	Name       string
	Normalized string
	Provider   string
	Ord        int
}

// Keyword is one element of the unioned keyword list.
type Keyword struct {
	Keyword    string
	Normalized string
	Provider   string
}

// ContentFlag is one crowd-sourced content warning topic with its vote tally.
type ContentFlag struct {
	Topic      string
	Normalized string
	YesVotes   int
	NoVotes    int
	Provider   string
}

// CanonicalMovie is the merged record for one movie key. Scalar fields live
// in the Text and Number maps keyed by the Field* constants; every populated
// field has a Provenance entry naming the provider that supplied it.
type CanonicalMovie struct {
	MovieKey       string
	Text           map[string]string
	Number         map[string]float64
	Cast           []CastMember
	Keywords       []Keyword
	ContentFlags   []ContentFlag
	Provenance     map[string]FieldOrigin
	ProviderStatus map[string]string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewCanonicalMovie returns an empty canonical record for the given key with
// all maps allocated.
func NewCanonicalMovie(movieKey string) *CanonicalMovie {
	return &CanonicalMovie{
		MovieKey:       movieKey,
		Text:           map[string]string{},
		Number:         map[string]float64{},
		Provenance:     map[string]FieldOrigin{},
		ProviderStatus: map[string]string{},
	}
}

// Clone returns a deep copy so merge passes never alias prior state.
func (c *CanonicalMovie) Clone() *CanonicalMovie {
	if c == nil {
		return nil
	}
	out := NewCanonicalMovie(c.MovieKey)
	out.CreatedAt = c.CreatedAt
	out.UpdatedAt = c.UpdatedAt
	for k, v := range c.Text {
		out.Text[k] = v
	}
	for k, v := range c.Number {
		out.Number[k] = v
	}
	for k, v := range c.Provenance {
		out.Provenance[k] = v
	}
	for k, v := range c.ProviderStatus {
		out.ProviderStatus[k] = v
	}
	out.Cast = append([]CastMember(nil), c.Cast...)
	out.Keywords = append([]Keyword(nil), c.Keywords...)
	out.ContentFlags = append([]ContentFlag(nil), c.ContentFlags...)
	return out
}

// RunState is the lifecycle of a pipeline run checkpoint.
type RunState string

const (
	RunNotStarted  RunState = "not_started"
	RunRunning     RunState = "running"
	RunCompleted   RunState = "completed"
	RunInterrupted RunState = "interrupted"
	RunAbandoned   RunState = "abandoned"
)

// Checkpoint records resumable progress for one pipeline run.
type Checkpoint struct {
	RunID        string
	State        RunState
	StartedAt    time.Time
	UpdatedAt    time.Time
	LastMovieKey string
	Processed    int
	FinishedAt   *time.Time
}

// ProviderRecordRow is the persisted audit form of one normalized provider
// fetch, kept so merges can be replayed and disputed values traced.
type ProviderRecordRow struct {
	ID            int64
	MovieKey      string
	Provider      string
	SchemaVersion int
	FetchedAt     time.Time
	PayloadJSON   string
}
