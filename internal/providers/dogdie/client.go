package dogdie

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

// SearchItem is one match from the media search endpoint.
type SearchItem struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	CleanName   string `json:"cleanName"`
	ReleaseYear string `json:"releaseYear"`
	ItemType    struct {
		Name string `json:"name"`
	} `json:"itemType"`
}

// SearchResponse models the dddsearch payload.
type SearchResponse struct {
	Items []SearchItem `json:"items"`
}

// TopicStat is one crowd-voted topic with its vote sums.
type TopicStat struct {
	Topic struct {
		Name     string `json:"name"`
		DoesName string `json:"doesName"`
	} `json:"topic"`
	YesSum int `json:"yesSum"`
	NoSum  int `json:"noSum"`
}

// MediaResponse models the media detail payload.
type MediaResponse struct {
	Item           SearchItem  `json:"item"`
	TopicItemStats []TopicStat `json:"topicItemStats"`
}

// Client provides access to the Does the Dog Die API.
type Client struct {
	apiKey     string
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

// New creates a Does the Dog Die client.
func New(apiKey, baseURL string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("dogdie api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("dogdie base url required")
	}
	client := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// SearchByIMDbID looks a movie up through the media search endpoint. The
// endpoint matches on its imdb parameter, which takes the id digits without
// the tt prefix.
func (c *Client) SearchByIMDbID(ctx context.Context, imdbID string) (*SearchResponse, error) {
	imdbID = strings.TrimSpace(imdbID)
	if imdbID == "" {
		return nil, errors.New("imdb id must not be empty")
	}
	params := url.Values{}
	params.Set("imdb", strings.TrimPrefix(imdbID, "tt"))
	var payload SearchResponse
	if err := c.getJSON(ctx, "/dddsearch", params, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// GetMedia fetches the topic vote tallies for one media item.
func (c *Client) GetMedia(ctx context.Context, mediaID int64) (*MediaResponse, error) {
	if mediaID <= 0 {
		return nil, errors.New("media id must be positive")
	}
	var payload MediaResponse
	if err := c.getJSON(ctx, fmt.Sprintf("/media/%d", mediaID), nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("parse dogdie url: %w", err)
	}
	if params != nil {
		endpoint.RawQuery = params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-KEY", c.apiKey)

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return providers.Wrap(providers.ErrTransient, providers.NameDogDie, "request", fmt.Sprintf("execute request (latency=%v)", latency), err)
	}
	defer resp.Body.Close()

	detail := fmt.Sprintf("%s returned %d (latency=%v)", path, resp.StatusCode, latency)
	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return providers.Wrap(providers.ErrNotFound, providers.NameDogDie, "request", detail, nil)
	case resp.StatusCode == http.StatusTooManyRequests:
		return providers.Wrap(providers.ErrRateLimited, providers.NameDogDie, "request", detail, nil)
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return providers.Wrap(providers.ErrFatal, providers.NameDogDie, "request", detail, nil)
	default:
		return providers.Wrap(providers.ErrTransient, providers.NameDogDie, "request", detail, nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return providers.Wrap(providers.ErrTransient, providers.NameDogDie, "decode", path, err)
	}
	return nil
}
