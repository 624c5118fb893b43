// Package tmdb is a small client for the TMDb v3 movie endpoints Cineck uses:
// popularity discovery, keyword search and single movie details.
package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://api.themoviedb.org/3"
	imageBaseURL   = "https://image.tmdb.org/t/p/"

	// TMDb allows roughly 50 requests per second per IP.
	DefaultRequestsPerSecond = 40
	DefaultBurst             = 10

	maxBodySize = 4 << 20
)

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRateLimit paces outgoing requests. A non-positive rps disables pacing.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// NewClient authenticates with apiKey as a bearer token (TMDb read access token).
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRequestsPerSecond), DefaultBurst),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Discover lists movies sorted by popularity.
func (c *Client) Discover(ctx context.Context, page int) (*ResultPage, error) {
	params := url.Values{}
	params.Set("sort_by", "popularity.desc")
	params.Set("page", strconv.Itoa(normalizePage(page)))

	var result ResultPage
	if err := c.get(ctx, "/discover/movie", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Search runs a keyword search over movie titles.
func (c *Client) Search(ctx context.Context, query string, page int) (*ResultPage, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("page", strconv.Itoa(normalizePage(page)))

	var result ResultPage
	if err := c.get(ctx, "/search/movie", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) Movie(ctx context.Context, id int) (*MovieDetails, error) {
	params := url.Values{}
	params.Set("language", "en-US")

	var details MovieDetails
	if err := c.get(ctx, "/movie/"+strconv.Itoa(id), params, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return &APIError{Kind: KindTransport, Endpoint: path, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return &APIError{Kind: KindTransport, Endpoint: path, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &APIError{Kind: KindTransport, Endpoint: path, Err: fmt.Errorf("executing request: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return &APIError{Kind: KindTransport, Endpoint: path, Err: fmt.Errorf("reading response: %w", err)}
	}

	// Error bodies are best effort; a non-JSON body leaves env empty.
	var env envelope
	_ = json.Unmarshal(body, &env)

	if resp.StatusCode != http.StatusOK {
		return &APIError{
			Kind:       KindStatus,
			Endpoint:   path,
			StatusCode: resp.StatusCode,
			TMDbCode:   env.StatusCode,
			Message:    env.StatusMessage,
		}
	}

	if env.failed() {
		return &APIError{
			Kind:       KindPayload,
			Endpoint:   path,
			StatusCode: resp.StatusCode,
			TMDbCode:   env.StatusCode,
			Message:    env.StatusMessage,
		}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &APIError{Kind: KindDecode, Endpoint: path, StatusCode: resp.StatusCode, Err: fmt.Errorf("decoding response: %w", err)}
	}

	return nil
}

// ImageURL builds a poster or backdrop URL; size is a TMDb size like "w500".
func ImageURL(path string, size string) string {
	if path == "" {
		return ""
	}
	return imageBaseURL + size + "/" + strings.TrimLeft(path, "/")
}

func normalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}
