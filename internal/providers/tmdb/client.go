package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cinescope/internal/providers"
)

// Result represents a single TMDB movie match.
type Result struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	ReleaseDate string  `json:"release_date"`
	Popularity  float64 `json:"popularity"`
	VoteAverage float64 `json:"vote_average"`
	VoteCount   int64   `json:"vote_count"`
}

// SearchResponse models the TMDB paginated search response.
type SearchResponse struct {
	Page         int      `json:"page"`
	Results      []Result `json:"results"`
	TotalPages   int      `json:"total_pages"`
	TotalResults int      `json:"total_results"`
}

// FindResponse models the TMDB external-id lookup response.
type FindResponse struct {
	MovieResults []Result `json:"movie_results"`
}

// Genre is one TMDB genre entry.
type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CastCredit is one cast entry from the credits sub-response.
type CastCredit struct {
	Name  string `json:"name"`
	Order int    `json:"order"`
}

// KeywordEntry is one keyword from the keywords sub-response.
type KeywordEntry struct {
	Name string `json:"name"`
}

// MovieDetails captures the full TMDB movie payload with credits and
// keywords appended.
type MovieDetails struct {
	ID            int64   `json:"id"`
	IMDbID        string  `json:"imdb_id"`
	Title         string  `json:"title"`
	OriginalTitle string  `json:"original_title"`
	Overview      string  `json:"overview"`
	Tagline       string  `json:"tagline"`
	ReleaseDate   string  `json:"release_date"`
	Runtime       int     `json:"runtime"`
	PosterPath    string  `json:"poster_path"`
	VoteAverage   float64 `json:"vote_average"`
	VoteCount     int64   `json:"vote_count"`
	Genres        []Genre `json:"genres"`
	Credits       struct {
		Cast []CastCredit `json:"cast"`
	} `json:"credits"`
	Keywords struct {
		Keywords []KeywordEntry `json:"keywords"`
	} `json:"keywords"`
}

// ExternalIDs models the TMDB external-ids payload for a movie.
type ExternalIDs struct {
	IMDbID string `json:"imdb_id"`
}

// Client provides access to the TMDB API.
type Client struct {
	apiKey     string
	baseURL    string
	language   string
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

// New creates a TMDB client.
func New(apiKey, baseURL, language string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("tmdb api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("tmdb base url required")
	}
	client := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		language:   strings.TrimSpace(language),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// FindByIMDbID looks a movie up by its IMDb id via the external-id endpoint.
func (c *Client) FindByIMDbID(ctx context.Context, imdbID string) (*FindResponse, error) {
	imdbID = strings.TrimSpace(imdbID)
	if imdbID == "" {
		return nil, errors.New("imdb id must not be empty")
	}
	params := url.Values{}
	params.Set("external_source", "imdb_id")
	var payload FindResponse
	if err := c.getJSON(ctx, "/find/"+url.PathEscape(imdbID), params, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// SearchMovie searches TMDB for the supplied title, optionally constrained
// to a release year.
func (c *Client) SearchMovie(ctx context.Context, query string, year int) (*SearchResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}
	params := url.Values{}
	params.Set("query", query)
	if year > 0 {
		params.Set("primary_release_year", strconv.Itoa(year))
	}
	var payload SearchResponse
	if err := c.getJSON(ctx, "/search/movie", params, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// GetMovieDetails fetches movie details by TMDB id with credits and keywords
// appended in the same request.
func (c *Client) GetMovieDetails(ctx context.Context, movieID int64) (*MovieDetails, error) {
	if movieID <= 0 {
		return nil, errors.New("movie id must be positive")
	}
	params := url.Values{}
	params.Set("append_to_response", "credits,keywords")
	var payload MovieDetails
	if err := c.getJSON(ctx, fmt.Sprintf("/movie/%d", movieID), params, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// GetExternalIDs fetches the external identifiers for a TMDB movie.
func (c *Client) GetExternalIDs(ctx context.Context, movieID int64) (*ExternalIDs, error) {
	if movieID <= 0 {
		return nil, errors.New("movie id must be positive")
	}
	var payload ExternalIDs
	if err := c.getJSON(ctx, fmt.Sprintf("/movie/%d/external_ids", movieID), nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("parse tmdb url: %w", err)
	}
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.apiKey)
	if c.language != "" {
		params.Set("language", c.language)
	}
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return providers.Wrap(providers.ErrTransient, providers.NameTMDB, "request", fmt.Sprintf("execute request (latency=%v)", latency), err)
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp.StatusCode, path, latency); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return providers.Wrap(providers.ErrTransient, providers.NameTMDB, "decode", path, err)
	}
	return nil
}

func classifyStatus(status int, path string, latency time.Duration) error {
	detail := fmt.Sprintf("%s returned %d (latency=%v)", path, status, latency)
	switch {
	case status == http.StatusOK:
		return nil
	case status == http.StatusNotFound:
		return providers.Wrap(providers.ErrNotFound, providers.NameTMDB, "request", detail, nil)
	case status == http.StatusTooManyRequests:
		return providers.Wrap(providers.ErrRateLimited, providers.NameTMDB, "request", detail, nil)
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return providers.Wrap(providers.ErrFatal, providers.NameTMDB, "request", detail, nil)
	default:
		return providers.Wrap(providers.ErrTransient, providers.NameTMDB, "request", detail, nil)
	}
}
