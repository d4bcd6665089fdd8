package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jasonw-lab/collecter/internal/model"
)

// RowSource yields catalog rows one at a time, returning io.EOF when
// exhausted. *catalog.Reader satisfies this.
type RowSource interface {
	Next() (model.ProductRow, error)
}

// Recorder persists per-row outcomes. *database.HistoryDB satisfies
// this. A nil Recorder disables history recording.
type Recorder interface {
	RecordResult(ctx context.Context, result *model.RowResult) error
}

// Runner drives the pipeline over a catalog: it applies the skip policy
// before any network activity, executes the per-row pipeline, paces
// between rows, and records outcomes.
//
// Execution is strictly sequential: one row at a time, one candidate at
// a time within a row. The only shared state across rows is the output
// directory, which is append-only from the pipeline's perspective.
type Runner struct {
	// pipeline is the per-row step sequence.
	pipeline *Pipeline

	// outputDir is the destination directory for images.
	outputDir string

	// delay is the politeness pause after each processed row.
	delay time.Duration

	// overwrite re-downloads rows whose destination already exists.
	overwrite bool

	// only restricts the run to one destination filename when non-empty.
	only string

	// recorder persists outcomes; may be nil.
	recorder Recorder

	// diag receives human-readable progress and error lines.
	// Data never goes here; the primary output stream stays clean for
	// the run report.
	diag io.Writer

	// logger is used for structured logging.
	logger *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithRunnerDelay sets the pause applied after every processed row.
func WithRunnerDelay(delay time.Duration) RunnerOption {
	return func(r *Runner) {
		r.delay = delay
	}
}

// WithRunnerOverwrite re-downloads rows whose destination file exists.
func WithRunnerOverwrite(overwrite bool) RunnerOption {
	return func(r *Runner) {
		r.overwrite = overwrite
	}
}

// WithRunnerOnly restricts the run to the row with this imageFile.
func WithRunnerOnly(only string) RunnerOption {
	return func(r *Runner) {
		r.only = only
	}
}

// WithRunnerRecorder sets the history recorder.
func WithRunnerRecorder(recorder Recorder) RunnerOption {
	return func(r *Runner) {
		r.recorder = recorder
	}
}

// WithRunnerDiagnostics sets the destination for progress lines.
func WithRunnerDiagnostics(w io.Writer) RunnerOption {
	return func(r *Runner) {
		r.diag = w
	}
}

// WithRunnerLogger sets a custom logger.
func WithRunnerLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner creates a Runner executing the given pipeline per row and
// writing images into outputDir.
func NewRunner(p *Pipeline, outputDir string, opts ...RunnerOption) *Runner {
	r := &Runner{
		pipeline:  p,
		outputDir: outputDir,
		diag:      os.Stderr,
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Run processes every row of the source and fills in the report.
//
// Per-row failures are isolated: they are written to the diagnostics
// stream and the run continues. Only context cancellation and a broken
// row source stop the loop; already-completed rows keep their files, so
// an interrupted run resumes idempotently as long as overwrite is off.
func (r *Runner) Run(ctx context.Context, source RowSource, report *model.RunReport) error {
	defer func() {
		report.FinishedAt = time.Now()
	}()

	for {
		row, err := source.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read catalog row: %w", err)
		}

		result := model.NewRowResult(row)

		if skipped := r.applySkipPolicy(result); skipped {
			report.Add(result)
			continue
		}

		start := time.Now()
		err = r.pipeline.Execute(ctx, result)
		result.Elapsed = time.Since(start)

		switch {
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			report.Cancelled = true
			report.Add(result)
			return err
		case err != nil:
			result.Fail(err.Error())
			fmt.Fprintf(r.diag, "Failed: %s (%v)\n", row.Title, err)
		default:
			result.Status = model.StatusDone
			fmt.Fprintf(r.diag, "Downloaded: %s -> %s\n", row.Title, result.OutputPath)
		}

		r.record(ctx, result)
		report.Add(result)

		// The politeness pause runs after every processed row, success
		// or failure, so the search backend sees a steady rate.
		if err := r.pause(ctx); err != nil {
			report.Cancelled = true
			return err
		}
	}
}

// applySkipPolicy marks the result skipped when the row must not be
// processed. Skipped rows trigger no network activity and no pause.
func (r *Runner) applySkipPolicy(result *model.RowResult) bool {
	row := result.Row

	if row.Incomplete() {
		result.Skip("blank title or imageFile")
		fmt.Fprintf(r.diag, "Skipping row with missing title/imageFile: %v\n", row.Fields)
		return true
	}

	if r.only != "" && row.ImageFile != r.only {
		result.Skip("filtered")
		r.logger.Debug("row filtered out", "imageFile", row.ImageFile, "only", r.only)
		return true
	}

	dest := filepath.Join(r.outputDir, row.ImageFile)
	if !r.overwrite {
		if _, err := os.Stat(dest); err == nil {
			result.Skip("already exists")
			fmt.Fprintf(r.diag, "Skip existing: %s\n", dest)
			return true
		}
	}

	return false
}

// record persists the outcome when a recorder is configured.
// Recording failures are logged, not fatal: the image on disk is the
// source of truth, the history is bookkeeping.
func (r *Runner) record(ctx context.Context, result *model.RowResult) {
	if r.recorder == nil {
		return
	}
	if err := r.recorder.RecordResult(ctx, result); err != nil {
		r.logger.Error("failed to record result",
			"imageFile", result.Row.ImageFile,
			"error", err,
		)
	}
}

// pause waits the configured delay or until the context is cancelled.
func (r *Runner) pause(ctx context.Context) error {
	if r.delay <= 0 {
		return nil
	}

	timer := time.NewTimer(r.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
