package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
)

// StatusError reports a non-2xx HTTP response from an image host.
// Callers treat it, like transport errors, as "try the next candidate".
type StatusError struct {
	// URL is the candidate URL that was fetched.
	URL string

	// StatusCode is the HTTP status the host returned.
	StatusCode int
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
}

// Request describes one download.
type Request struct {
	// URL is the candidate image URL to fetch.
	URL string

	// Dest is the destination file path. Existing content is overwritten.
	Dest string

	// Referer, when non-empty, is sent as the Referer header. Image
	// hosts that allow hotlinking only from the search page check it.
	Referer string

	// Headers are extra request headers, typically per-host overrides
	// from the config file. They are applied last and may override the
	// identity headers.
	Headers map[string]string
}

// Fetcher downloads URLs to files.
// A struct holding the http.Client keeps the identity configuration
// consistent across candidates and lets the connection pool be shared
// with the search client.
type Fetcher struct {
	// client is the HTTP client used for downloads.
	client *http.Client

	// userAgent is the fixed browser identity for every request.
	// Read-only for the run's duration; it is configuration, not state.
	userAgent string

	// logger is used for structured debug logging.
	logger *slog.Logger
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithUserAgent sets the browser identity sent with every request.
func WithUserAgent(ua string) FetcherOption {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) FetcherOption {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// New creates a Fetcher using the given HTTP client.
func New(client *http.Client, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:    client,
		userAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
	}

	for _, opt := range opts {
		opt(f)
	}

	if f.logger == nil {
		f.logger = slog.Default()
	}
	return f
}

// Download fetches req.URL and streams the response body to req.Dest,
// overwriting any existing content.
//
// On any error the destination must be treated as untrustworthy: a
// partial file may remain, and the caller (or the validator's failure
// path) is responsible for deleting it.
func (f *Fetcher) Download(ctx context.Context, req Request) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("User-Agent", f.userAgent)
	if req.Referer != "" {
		httpReq.Header.Set("Referer", req.Referer)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{URL: req.URL, StatusCode: resp.StatusCode}
	}

	out, err := os.Create(req.Dest) //nolint:gosec // Destination path comes from the catalog
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", req.Dest, err)
	}

	written, err := io.Copy(out, resp.Body)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", req.Dest, err)
	}

	f.logger.Debug("downloaded", "url", req.URL, "dest", req.Dest, "bytes", written)
	return nil
}
