package wikidata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cinescope/internal/providers"
)

// SearchResult is one entity match from the full-text search API.
type SearchResult struct {
	Title string `json:"title"`
}

type searchResponse struct {
	Query struct {
		Search []SearchResult `json:"search"`
	} `json:"query"`
}

// Claim is one statement value on an entity. Only the datavalue shapes the
// adapter reads are modeled.
type Claim struct {
	MainSnak struct {
		DataValue struct {
			Value json.RawMessage `json:"value"`
		} `json:"datavalue"`
	} `json:"mainsnak"`
}

// Entity is one Wikidata item with its English label and claims.
type Entity struct {
	ID     string `json:"id"`
	Labels map[string]struct {
		Value string `json:"value"`
	} `json:"labels"`
	Claims map[string][]Claim `json:"claims"`
}

type entitiesResponse struct {
	Entities map[string]Entity `json:"entities"`
}

// Client provides access to the Wikidata Action API. No key is required.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates a Wikidata client.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("wikidata base url required")
	}
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// FindByIMDbID resolves the entity whose IMDb id statement matches.
func (c *Client) FindByIMDbID(ctx context.Context, imdbID string) (string, error) {
	imdbID = strings.TrimSpace(imdbID)
	if imdbID == "" {
		return "", errors.New("imdb id must not be empty")
	}
	params := url.Values{}
	params.Set("action", "query")
	params.Set("list", "search")
	params.Set("srsearch", "haswbstatement:P345="+imdbID)
	params.Set("srnamespace", "0")
	params.Set("srlimit", "1")
	params.Set("format", "json")

	var payload searchResponse
	if err := c.getJSON(ctx, params, &payload); err != nil {
		return "", err
	}
	if len(payload.Query.Search) == 0 {
		return "", providers.Wrap(providers.ErrNotFound, providers.NameWikidata, "search", "no entity for "+imdbID, nil)
	}
	return payload.Query.Search[0].Title, nil
}

// GetEntity fetches one entity's English label and claims.
func (c *Client) GetEntity(ctx context.Context, entityID string) (*Entity, error) {
	entityID = strings.TrimSpace(entityID)
	if entityID == "" {
		return nil, errors.New("entity id must not be empty")
	}
	params := url.Values{}
	params.Set("action", "wbgetentities")
	params.Set("ids", entityID)
	params.Set("props", "labels|claims")
	params.Set("languages", "en")
	params.Set("format", "json")

	var payload entitiesResponse
	if err := c.getJSON(ctx, params, &payload); err != nil {
		return nil, err
	}
	entity, ok := payload.Entities[entityID]
	if !ok {
		return nil, providers.Wrap(providers.ErrNotFound, providers.NameWikidata, "entity", entityID+" missing from response", nil)
	}
	return &entity, nil
}

func (c *Client) getJSON(ctx context.Context, params url.Values, out any) error {
	endpoint, err := url.Parse(c.baseURL + "/api.php")
	if err != nil {
		return fmt.Errorf("parse wikidata url: %w", err)
	}
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return providers.Wrap(providers.ErrTransient, providers.NameWikidata, "request", fmt.Sprintf("execute request (latency=%v)", latency), err)
	}
	defer resp.Body.Close()

	detail := fmt.Sprintf("%s returned %d (latency=%v)", params.Get("action"), resp.StatusCode, latency)
	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests:
		return providers.Wrap(providers.ErrRateLimited, providers.NameWikidata, "request", detail, nil)
	default:
		return providers.Wrap(providers.ErrTransient, providers.NameWikidata, "request", detail, nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return providers.Wrap(providers.ErrTransient, providers.NameWikidata, "decode", params.Get("action"), err)
	}
	return nil
}
