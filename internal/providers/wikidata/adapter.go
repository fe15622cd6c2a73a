package wikidata

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"cinescope/internal/providers"
	"cinescope/internal/store"
)

// Statement properties read off movie entities.
const (
	propTitle       = "P1476"
	propPublication = "P577"
	propDuration    = "P2047"
)

// Adapter normalizes Wikidata movie entities into provider records. The
// provider id is the movie's IMDb id; the Q-id is resolved per fetch via the
// statement search.
type Adapter struct {
	client *Client
}

// NewAdapter wraps a Wikidata client in the provider adapter contract.
func NewAdapter(client *Client) *Adapter {
	return &Adapter{client: client}
}

// Name returns the provider name.
func (a *Adapter) Name() string {
	return providers.NameWikidata
}

// Fetch resolves the entity for an IMDb id and maps the literal-valued
// statements: title, publication date, and duration. Entity-valued
// statements like genre would need a lookup per value and are left to the
// higher-priority providers.
func (a *Adapter) Fetch(ctx context.Context, providerID string) (*providers.Record, error) {
	entityID, err := a.client.FindByIMDbID(ctx, providerID)
	if err != nil {
		return nil, err
	}
	entity, err := a.client.GetEntity(ctx, entityID)
	if err != nil {
		return nil, err
	}

	rec := providers.NewRecord(providers.NameWikidata, providerID, time.Now().UTC())
	if label, ok := entity.Labels["en"]; ok {
		rec.SetText(store.FieldTitle, strings.TrimSpace(label.Value))
	}
	if title := monolingualText(entity.Claims[propTitle]); title != "" {
		rec.SetText(store.FieldOriginalTitle, title)
	}
	if date := timeValue(entity.Claims[propPublication]); date != "" {
		rec.SetText(store.FieldReleaseDate, date)
		if len(date) >= 4 {
			if parsed, err := time.Parse("2006", date[:4]); err == nil {
				rec.SetNumber(store.FieldYear, float64(parsed.Year()))
			}
		}
	}
	if minutes, ok := quantityValue(entity.Claims[propDuration]); ok {
		rec.SetNumber(store.FieldRuntimeMinutes, minutes)
	}
	return rec, nil
}

func monolingualText(claims []Claim) string {
	for _, claim := range claims {
		var value struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(claim.MainSnak.DataValue.Value, &value); err == nil && value.Text != "" {
			return strings.TrimSpace(value.Text)
		}
	}
	return ""
}

// timeValue extracts the date portion of a Wikidata time literal, which
// looks like "+1999-03-31T00:00:00Z".
func timeValue(claims []Claim) string {
	for _, claim := range claims {
		var value struct {
			Time string `json:"time"`
		}
		if err := json.Unmarshal(claim.MainSnak.DataValue.Value, &value); err != nil {
			continue
		}
		raw := strings.TrimPrefix(value.Time, "+")
		if idx := strings.IndexByte(raw, 'T'); idx > 0 {
			raw = raw[:idx]
		}
		if raw != "" {
			return raw
		}
	}
	return ""
}

func quantityValue(claims []Claim) (float64, bool) {
	for _, claim := range claims {
		var value struct {
			Amount string `json:"amount"`
		}
		if err := json.Unmarshal(claim.MainSnak.DataValue.Value, &value); err != nil {
			continue
		}
		amount, err := strconv.ParseFloat(strings.TrimPrefix(value.Amount, "+"), 64)
		if err == nil {
			return amount, true
		}
	}
	return 0, false
}
