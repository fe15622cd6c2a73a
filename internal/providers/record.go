package providers

import (
	"encoding/json"
	"time"
)

// RecordSchemaVersion tags persisted provider payloads so later readers can
// interpret archived rows after the shape changes.
const RecordSchemaVersion = 1

// Provider names used across identifiers, provenance, and status maps.
const (
	NameTMDB     = "tmdb"
	NameOMDB     = "omdb"
	NameDogDie   = "dogdie"
	NameWikidata = "wikidata"
)

// Record is the normalized form of one provider response for one movie.
// Scalar values are keyed by the store.Field* names so the merge can stay
// table driven; list values keep their provider attribution for the union
// step.
type Record struct {
	Provider      string             `json:"provider"`
	ProviderID    string             `json:"provider_id"`
	SchemaVersion int                `json:"schema_version"`
	FetchedAt     time.Time          `json:"fetched_at"`
	Text          map[string]string  `json:"text,omitempty"`
	Number        map[string]float64 `json:"number,omitempty"`
	Cast          []string           `json:"cast,omitempty"`
	Keywords      []string           `json:"keywords,omitempty"`
	Flags         []ContentFlag      `json:"flags,omitempty"`
}

// ContentFlag is one crowd-voted content topic from a warnings provider.
type ContentFlag struct {
	Topic    string `json:"topic"`
	YesVotes int    `json:"yes_votes"`
	NoVotes  int    `json:"no_votes"`
}

// NewRecord returns an empty normalized record stamped with the current
// schema version.
func NewRecord(provider, providerID string, fetchedAt time.Time) *Record {
	return &Record{
		Provider:      provider,
		ProviderID:    providerID,
		SchemaVersion: RecordSchemaVersion,
		FetchedAt:     fetchedAt,
		Text:          map[string]string{},
		Number:        map[string]float64{},
	}
}

// SetText stores a trimmed text value, dropping empties so absence stays
// distinguishable from blank.
func (r *Record) SetText(field, value string) {
	if value == "" {
		return
	}
	r.Text[field] = value
}

// SetNumber stores a numeric value.
func (r *Record) SetNumber(field string, value float64) {
	r.Number[field] = value
}

// MarshalPayload renders the record as the JSON stored in the audit table.
func (r *Record) MarshalPayload() (string, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
