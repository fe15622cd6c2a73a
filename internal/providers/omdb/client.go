package omdb

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

// Rating is one source/value pair from the OMDb ratings list.
type Rating struct {
	Source string `json:"Source"`
	Value  string `json:"Value"`
}

// Movie models the OMDb by-id response. OMDb reports missing values as the
// literal string "N/A" rather than omitting fields.
type Movie struct {
	Title      string   `json:"Title"`
	Year       string   `json:"Year"`
	Rated      string   `json:"Rated"`
	Released   string   `json:"Released"`
	Runtime    string   `json:"Runtime"`
	Genre      string   `json:"Genre"`
	Actors     string   `json:"Actors"`
	Plot       string   `json:"Plot"`
	Awards     string   `json:"Awards"`
	Metascore  string   `json:"Metascore"`
	IMDbRating string   `json:"imdbRating"`
	IMDbVotes  string   `json:"imdbVotes"`
	IMDbID     string   `json:"imdbID"`
	Ratings    []Rating `json:"Ratings"`
	Response   string   `json:"Response"`
	Error      string   `json:"Error"`
}

// Client provides access to the OMDb API.
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

// New creates an OMDb client.
func New(apiKey, baseURL string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("omdb api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("omdb base url required")
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

// GetByIMDbID fetches a movie by its IMDb id with the full plot variant.
func (c *Client) GetByIMDbID(ctx context.Context, imdbID string) (*Movie, error) {
	imdbID = strings.TrimSpace(imdbID)
	if imdbID == "" {
		return nil, errors.New("imdb id must not be empty")
	}
	endpoint, err := url.Parse(c.baseURL + "/")
	if err != nil {
		return nil, fmt.Errorf("parse omdb url: %w", err)
	}
	params := url.Values{}
	params.Set("apikey", c.apiKey)
	params.Set("i", imdbID)
	params.Set("plot", "full")
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, providers.Wrap(providers.ErrTransient, providers.NameOMDB, "request", fmt.Sprintf("execute request (latency=%v)", latency), err)
	}
	defer resp.Body.Close()

	detail := fmt.Sprintf("lookup %s returned %d (latency=%v)", imdbID, resp.StatusCode, latency)
	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return nil, providers.Wrap(providers.ErrFatal, providers.NameOMDB, "request", detail, nil)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, providers.Wrap(providers.ErrRateLimited, providers.NameOMDB, "request", detail, nil)
	default:
		return nil, providers.Wrap(providers.ErrTransient, providers.NameOMDB, "request", detail, nil)
	}

	var payload Movie
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, providers.Wrap(providers.ErrTransient, providers.NameOMDB, "decode", imdbID, err)
	}
	// OMDb reports failures inside a 200 response.
	if !strings.EqualFold(payload.Response, "True") {
		message := strings.TrimSpace(payload.Error)
		if strings.Contains(strings.ToLower(message), "invalid api key") {
			return nil, providers.Wrap(providers.ErrFatal, providers.NameOMDB, "lookup", message, nil)
		}
		return nil, providers.Wrap(providers.ErrNotFound, providers.NameOMDB, "lookup", message, nil)
	}
	return &payload, nil
}
