package dogdie

import (
	"context"
	"strings"
	"time"

	"cinescope/internal/providers"
)

// Adapter normalizes crowd-voted content warnings into provider records. The
// provider id is the movie's IMDb id; the site's own media id is looked up
// per fetch because it is not stable enough to cache.
type Adapter struct {
	client *Client
}

// NewAdapter wraps a Does the Dog Die client in the provider adapter
// contract.
func NewAdapter(client *Client) *Adapter {
	return &Adapter{client: client}
}

// Name returns the provider name.
func (a *Adapter) Name() string {
	return providers.NameDogDie
}

// Fetch searches by IMDb id, then pulls the topic vote tallies for the first
// match. Topics with no votes either way are dropped.
func (a *Adapter) Fetch(ctx context.Context, providerID string) (*providers.Record, error) {
	search, err := a.client.SearchByIMDbID(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if len(search.Items) == 0 {
		return nil, providers.Wrap(providers.ErrNotFound, providers.NameDogDie, "search", "no media match for "+providerID, nil)
	}

	media, err := a.client.GetMedia(ctx, search.Items[0].ID)
	if err != nil {
		return nil, err
	}

	rec := providers.NewRecord(providers.NameDogDie, providerID, time.Now().UTC())
	for _, stat := range media.TopicItemStats {
		topic := strings.TrimSpace(stat.Topic.DoesName)
		if topic == "" {
			topic = strings.TrimSpace(stat.Topic.Name)
		}
		if topic == "" || (stat.YesSum == 0 && stat.NoSum == 0) {
			continue
		}
		rec.Flags = append(rec.Flags, providers.ContentFlag{
			Topic:    topic,
			YesVotes: stat.YesSum,
			NoVotes:  stat.NoSum,
		})
	}
	return rec, nil
}
