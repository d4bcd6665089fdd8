package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values. Where a value mirrors the search provider's
// observed behavior (locale format, endpoints) it is documented as such;
// the provider publishes no stable contract for either endpoint.
const (
	// DefaultCatalogPath is the CSV file read when --csv is not given.
	DefaultCatalogPath = "sample-products.csv"

	// DefaultOutputDir is the directory downloaded images are written to.
	// Created on startup if absent.
	DefaultOutputDir = "images"

	// DefaultDelay is the politeness pause between catalog rows. It runs
	// after every row regardless of outcome so the search backend sees a
	// steady request rate even on failures.
	DefaultDelay = 1 * time.Second

	// DefaultMaxCandidates caps how many candidate URLs are attempted per
	// row. Search results beyond the first few are rarely relevant, and
	// each attempt costs a network round trip against an arbitrary host.
	DefaultMaxCandidates = 10

	// DefaultLocale is the region-language code passed to the search
	// endpoint, in the provider's own "region-lang" format.
	DefaultLocale = "us-en"

	// DefaultTimeout is the per-request timeout for all network calls.
	// Image hosts vary wildly; 30 seconds keeps a slow host from stalling
	// the whole run while still tolerating large images.
	DefaultTimeout = 30 * time.Second

	// DefaultUserAgent is the browser identity sent with every request.
	// The search endpoints and many image hosts reject obvious
	// non-browser clients, so this must look like a real browser.
	DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"

	// DefaultSearchBaseURL is the HTML page that embeds the session token.
	DefaultSearchBaseURL = "https://duckduckgo.com"

	// DefaultReferer is sent with search and image requests. Image hosts
	// that allow hotlinking from the search engine's result page check
	// this header.
	DefaultReferer = "https://duckduckgo.com/"

	// DefaultJPEGQuality is the encoder quality used when a mismatched
	// file is transcoded to JPEG.
	DefaultJPEGQuality = 90

	// AppName is the application name used for XDG directory paths.
	AppName = "collecter"
)

// Config holds all options for a collection run.
// It is populated from CLI flags and the optional config file, then passed
// through the application by value injection rather than global state.
//
// A single flat struct keeps flag wiring simple; the option count here does
// not justify nested sub-configs.
type Config struct {
	// CatalogPath is the input CSV file with title and imageFile columns.
	CatalogPath string

	// OutputDir is the destination directory for downloaded images.
	// Created (with parents) on startup; failure to create it is fatal.
	OutputDir string

	// Delay is the pause between rows. Applied after every row, success
	// or failure, as a politeness measure toward the search backend.
	Delay time.Duration

	// Overwrite re-downloads rows whose destination file already exists.
	// When false (default), existing files are skipped without any
	// network call, which makes interrupted runs resumable.
	Overwrite bool

	// Only restricts the run to the single row whose imageFile matches.
	// Empty means process all rows.
	Only string

	// MaxCandidates caps candidate URLs attempted per row.
	MaxCandidates int

	// Locale is the search locale in the provider's "region-lang" format.
	Locale string

	// Timeout is the per-request network timeout.
	Timeout time.Duration

	// UserAgent is the browser identity for all outgoing requests.
	// Read-only for the duration of the run.
	UserAgent string

	// SearchBaseURL is the search provider base URL. Overridable so tests
	// can point the pipeline at a local server.
	SearchBaseURL string

	// Verbose enables debug-level log output.
	Verbose bool

	// ConfigFilePath is the explicit path to the YAML config file.
	// Empty means search the standard locations.
	ConfigFilePath string

	// Hosts holds per-host fetch overrides loaded from the config file.
	Hosts *File

	// JSONReport switches the run report to JSON output.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport switches the run report to Markdown output.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile writes the run report to this path instead of stdout.
	ReportFile string

	// DBDir is the directory holding the download-history database.
	// Defaults to the XDG data directory.
	DBDir string

	// SaveHistory records per-row outcomes in the history database.
	SaveHistory bool
}

// NewConfig creates a Config with default values.
// Many defaults are non-zero, so relying on zero values would be wrong;
// the constructor also documents what the defaults are.
func NewConfig() *Config {
	return &Config{
		CatalogPath:   DefaultCatalogPath,
		OutputDir:     DefaultOutputDir,
		Delay:         DefaultDelay,
		MaxCandidates: DefaultMaxCandidates,
		Locale:        DefaultLocale,
		Timeout:       DefaultTimeout,
		UserAgent:     DefaultUserAgent,
		SearchBaseURL: DefaultSearchBaseURL,
	}
}

// XDGDataDir returns the XDG data directory for collecter.
// On Linux: ~/.local/share/collecter
// On macOS: ~/Library/Application Support/collecter
// On Windows: %LOCALAPPDATA%\collecter
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// Validate checks the configuration and returns the first problem found.
// Called once after flag parsing, before any file or network activity.
func (c *Config) Validate() error {
	if c.CatalogPath == "" {
		return ErrNoCatalog
	}
	if c.OutputDir == "" {
		return ErrNoOutputDir
	}
	if c.Delay < 0 {
		return ErrInvalidDelay
	}
	if c.MaxCandidates <= 0 {
		return ErrInvalidMaxCandidates
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	return nil
}
