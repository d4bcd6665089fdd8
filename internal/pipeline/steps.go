package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jasonw-lab/collecter/internal/config"
	"github.com/jasonw-lab/collecter/internal/fetch"
	"github.com/jasonw-lab/collecter/internal/imagefile"
	"github.com/jasonw-lab/collecter/internal/model"
)

// Row-scoped step errors.
var (
	// ErrNoCandidates is returned when resolution succeeded but the
	// search backend returned zero usable URLs for the query.
	ErrNoCandidates = errors.New("no image found")

	// ErrAllCandidatesBlocked is returned when every attempted candidate
	// either failed to download or failed validation.
	ErrAllCandidatesBlocked = errors.New("all candidates blocked")
)

// CandidateResolver resolves a query into an ordered candidate URL list.
// *search.Client satisfies this.
type CandidateResolver interface {
	Candidates(ctx context.Context, query string) ([]string, error)
}

// Downloader fetches a URL to a destination file.
// *fetch.Fetcher satisfies this.
type Downloader interface {
	Download(ctx context.Context, req fetch.Request) error
}

// FileValidator validates and normalizes a downloaded file.
// *imagefile.Validator satisfies this.
type FileValidator interface {
	Validate(path string) (imagefile.Result, error)
}

// ResolveStep turns the row's title into a ranked candidate URL list.
type ResolveStep struct {
	// resolver produces the candidate list.
	resolver CandidateResolver

	// logger is used for structured logging.
	logger *slog.Logger
}

// ResolveStepOption configures a ResolveStep.
type ResolveStepOption func(*ResolveStep)

// WithResolveLogger sets a custom logger.
func WithResolveLogger(logger *slog.Logger) ResolveStepOption {
	return func(s *ResolveStep) {
		s.logger = logger
	}
}

// NewResolveStep creates a ResolveStep.
func NewResolveStep(resolver CandidateResolver, opts ...ResolveStepOption) *ResolveStep {
	s := &ResolveStep{resolver: resolver}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Name returns the step's name.
func (s *ResolveStep) Name() string { return "resolve" }

// Do resolves candidates for the row's query. Zero candidates fails the
// row: there is nothing to fall back to.
func (s *ResolveStep) Do(ctx context.Context, result *model.RowResult) error {
	candidates, err := s.resolver.Candidates(ctx, result.Query)
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		return fmt.Errorf("%w for: %s", ErrNoCandidates, result.Query)
	}

	result.Candidates = candidates
	return nil
}

// DownloadStep attempts candidates in order until one downloads and
// validates, or the attempt cap is reached.
type DownloadStep struct {
	// downloader fetches candidate URLs.
	downloader Downloader

	// validator checks and normalizes downloaded files.
	validator FileValidator

	// outputDir is the destination directory for images.
	outputDir string

	// referer is the default referer sent with image fetches.
	referer string

	// hosts holds per-host fetch overrides from the config file.
	hosts *config.File

	// maxCandidates caps how many candidates are attempted per row.
	maxCandidates int

	// logger is used for structured logging.
	logger *slog.Logger
}

// DownloadStepOption configures a DownloadStep.
type DownloadStepOption func(*DownloadStep)

// WithDownloadReferer sets the default referer for image fetches.
func WithDownloadReferer(referer string) DownloadStepOption {
	return func(s *DownloadStep) {
		s.referer = referer
	}
}

// WithDownloadHosts sets per-host fetch overrides.
func WithDownloadHosts(hosts *config.File) DownloadStepOption {
	return func(s *DownloadStep) {
		s.hosts = hosts
	}
}

// WithDownloadMaxCandidates caps attempted candidates per row.
func WithDownloadMaxCandidates(n int) DownloadStepOption {
	return func(s *DownloadStep) {
		s.maxCandidates = n
	}
}

// WithDownloadLogger sets a custom logger.
func WithDownloadLogger(logger *slog.Logger) DownloadStepOption {
	return func(s *DownloadStep) {
		s.logger = logger
	}
}

// NewDownloadStep creates a DownloadStep writing into outputDir.
func NewDownloadStep(downloader Downloader, validator FileValidator, outputDir string, opts ...DownloadStepOption) *DownloadStep {
	s := &DownloadStep{
		downloader:    downloader,
		validator:     validator,
		outputDir:     outputDir,
		referer:       config.DefaultReferer,
		maxCandidates: config.DefaultMaxCandidates,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Name returns the step's name.
func (s *DownloadStep) Name() string { return "download" }

// Do tries each candidate in order: fetch, then validate. A fetch error
// moves on to the next candidate; an invalid file is deleted first. The
// first candidate that downloads and validates wins.
//
// Whatever happens, the destination invariant holds afterwards: either
// the file at the destination is a validated image, or no file exists
// there at all.
func (s *DownloadStep) Do(ctx context.Context, result *model.RowResult) error {
	dest := filepath.Join(s.outputDir, result.Row.ImageFile)

	candidates := result.Candidates
	if len(candidates) > s.maxCandidates {
		candidates = candidates[:s.maxCandidates]
	}

	for _, candidate := range candidates {
		select {
		case <-ctx.Done():
			s.discard(dest)
			return ctx.Err()
		default:
		}

		result.Attempts++

		hostCfg := s.hosts.ForURL(candidate)
		referer := s.referer
		if hostCfg.Referer != "" {
			referer = hostCfg.Referer
		}

		err := s.downloader.Download(ctx, fetch.Request{
			URL:     candidate,
			Dest:    dest,
			Referer: referer,
			Headers: hostCfg.Headers,
		})
		if err != nil {
			// The fetch may have left a partial file; it is replaced by
			// the next attempt or discarded on exhaustion.
			s.logger.Info("retry next image",
				"title", result.Row.Title,
				"url", candidate,
				"error", err,
			)
			continue
		}

		validation, err := s.validator.Validate(dest)
		if err != nil {
			s.logger.Info("candidate failed validation",
				"title", result.Row.Title,
				"url", candidate,
				"error", err,
			)
			s.discard(dest)
			continue
		}

		result.SourceURL = candidate
		result.OutputPath = dest
		result.DetectedFormat = validation.Format
		result.Normalized = validation.Normalized
		return nil
	}

	s.discard(dest)
	return ErrAllCandidatesBlocked
}

// discard removes a leftover file at dest, if any.
func (s *DownloadStep) discard(dest string) {
	if err := os.Remove(dest); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("failed to remove leftover file", "path", dest, "error", err)
	}
}

// MetadataStep enriches a downloaded row with a content hash and an
// EXIF summary for the history record. It is best-effort: metadata
// problems never fail a row that already holds a validated image.
type MetadataStep struct {
	// logger is used for structured logging.
	logger *slog.Logger
}

// MetadataStepOption configures a MetadataStep.
type MetadataStepOption func(*MetadataStep)

// WithMetadataLogger sets a custom logger.
func WithMetadataLogger(logger *slog.Logger) MetadataStepOption {
	return func(s *MetadataStep) {
		s.logger = logger
	}
}

// NewMetadataStep creates a MetadataStep.
func NewMetadataStep(opts ...MetadataStepOption) *MetadataStep {
	s := &MetadataStep{}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Name returns the step's name.
func (s *MetadataStep) Name() string { return "metadata" }

// Do computes the content hash and EXIF summary of the downloaded file.
func (s *MetadataStep) Do(_ context.Context, result *model.RowResult) error {
	if result.OutputPath == "" {
		return nil
	}

	hash, err := imagefile.Hash(result.OutputPath)
	if err != nil {
		s.logger.Warn("failed to hash file", "path", result.OutputPath, "error", err)
	} else {
		result.ContentHash = hash
	}

	meta, err := imagefile.ExtractMeta(result.OutputPath)
	if err != nil {
		s.logger.Warn("failed to extract image metadata", "path", result.OutputPath, "error", err)
	} else {
		result.Meta = meta
	}

	return nil
}
