package config

import "errors"

// Configuration validation errors returned by Config.Validate.
// Package-level sentinels allow callers to use errors.Is while keeping
// human-readable messages.
var (
	// ErrNoCatalog is returned when the input CSV path is empty.
	ErrNoCatalog = errors.New("no catalog file specified")

	// ErrNoOutputDir is returned when the output directory path is empty.
	ErrNoOutputDir = errors.New("no output directory specified")

	// ErrInvalidDelay is returned when the inter-row delay is negative.
	// Use 0 for no pause between rows.
	ErrInvalidDelay = errors.New("invalid delay: must be non-negative")

	// ErrInvalidMaxCandidates is returned when the candidate cap is not
	// positive. A cap of zero would make every row fail without trying.
	ErrInvalidMaxCandidates = errors.New("invalid max candidates: must be positive")

	// ErrInvalidTimeout is returned when the request timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrConflictingReportFormats is returned when both --json and
	// --markdown are specified. Only one report format can be used.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
