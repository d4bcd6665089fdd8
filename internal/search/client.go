package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"golang.org/x/net/html/charset"
)

// Client resolves queries against the search provider.
// It holds the HTTP client and the identity settings so that the token
// fetch and the JSON query present the same browser fingerprint.
//
// The http.Client is injected rather than constructed here so tests can
// point the resolver at a local server and the collect command can share
// one connection pool across the whole run.
type Client struct {
	// client is the HTTP client used for both endpoints.
	client *http.Client

	// baseURL is the search provider base URL, without trailing slash.
	baseURL string

	// locale is the "region-lang" code passed to the JSON endpoint.
	locale string

	// userAgent is the browser identity sent with every request.
	userAgent string

	// maxBodySize limits how much of either response body is read.
	maxBodySize int64

	// logger is used for structured debug logging.
	logger *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the search provider base URL.
// Primarily for tests against a local server.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLocale sets the search locale in the provider's "region-lang" format.
func WithLocale(locale string) Option {
	return func(c *Client) {
		c.locale = locale
	}
}

// WithUserAgent sets the browser identity sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithMaxBodySize limits the response body size read from either endpoint.
func WithMaxBodySize(size int64) Option {
	return func(c *Client) {
		c.maxBodySize = size
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a search client using the given HTTP client.
func NewClient(client *http.Client, opts ...Option) *Client {
	c := &Client{
		client:  client,
		baseURL: "https://duckduckgo.com",
		locale:  "us-en",
		// Default mimics a mainstream browser; the search page serves a
		// degraded (tokenless) variant to obvious non-browser clients.
		userAgent:   "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
		maxBodySize: 5 * 1024 * 1024, // 5MB
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// FetchToken performs the token handshake for a query: it requests the
// HTML image-search page and extracts the embedded session token.
// The token is scoped to this query and must not be reused for others.
func (c *Client) FetchToken(ctx context.Context, query string) (string, error) {
	pageURL := fmt.Sprintf("%s/?q=%s&iax=images&ia=images", c.baseURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("token page request failed: %w", err)
	}
	defer resp.Body.Close()

	// Decode charset-aware: the page has been observed with mislabeled
	// encodings, and dropping bytes could split the token marker.
	reader, err := charset.NewReader(io.LimitReader(resp.Body, c.maxBodySize), resp.Header.Get("Content-Type"))
	if err != nil {
		return "", fmt.Errorf("failed to decode token page: %w", err)
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("failed to read token page: %w", err)
	}

	token, ok := extractToken(string(body))
	if !ok {
		return "", ErrTokenNotFound
	}

	c.logger.Debug("session token extracted", "query", query)
	return token, nil
}

// searchResult is one entry of the JSON endpoint's results array.
// Only the two URL fields matter; everything else is ignored.
type searchResult struct {
	Image     string `json:"image"`
	Thumbnail string `json:"thumbnail"`
}

// searchResponse is the JSON endpoint's response shape.
// A null or absent results array is treated as an empty result set.
type searchResponse struct {
	Results []searchResult `json:"results"`
}

// Candidates resolves a query into an ordered list of candidate image
// URLs. It performs the token handshake, queries the JSON endpoint, and
// flattens each result entry into its full-resolution URL followed by
// its thumbnail URL, preserving entry order.
//
// Offering both URLs per result doubles the fallback opportunities when
// an image host blocks direct hotlinking of one class of URL.
func (c *Client) Candidates(ctx context.Context, query string) ([]string, error) {
	token, err := c.FetchToken(ctx, query)
	if err != nil {
		return nil, err
	}

	queryURL := fmt.Sprintf("%s/i.js?l=%s&o=json&q=%s&vqd=%s",
		c.baseURL, url.QueryEscape(c.locale), url.QueryEscape(query), url.QueryEscape(token))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, queryURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Referer", c.baseURL+"/")
	req.Header.Set("Accept", "application/json,text/javascript,*/*;q=0.1")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read search response: %w", err)
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	candidates := make([]string, 0, len(parsed.Results)*2)
	for _, result := range parsed.Results {
		if result.Image != "" {
			candidates = append(candidates, result.Image)
		}
		if result.Thumbnail != "" {
			candidates = append(candidates, result.Thumbnail)
		}
	}

	c.logger.Debug("candidates resolved", "query", query, "count", len(candidates))
	return candidates, nil
}
