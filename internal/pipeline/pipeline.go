package pipeline

import (
	"context"
	"log/slog"

	"github.com/jasonw-lab/collecter/internal/model"
)

// Step defines the interface that all pipeline steps must implement.
// Steps run in sequence for one catalog row, each receiving the row
// result accumulated by the previous steps.
//
// An interface rather than function types lets steps carry their own
// configuration and expose a Name for logging.
type Step interface {
	// Do executes the pipeline step for one row. A returned error is
	// row-scoped: it fails the row, never the run.
	Do(ctx context.Context, result *model.RowResult) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline executes steps in order for one catalog row.
// Unlike a batch pipeline, a row pipeline always stops at the first
// failing step: there is nothing to download when resolution failed.
type Pipeline struct {
	// steps contains the ordered list of steps to execute.
	steps []Step

	// logger is used for structured logging during execution.
	logger *slog.Logger
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
// If not set, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates a Pipeline with the given options.
// Steps are added with AddStep after creation.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends a step to the pipeline.
// Steps execute in the order they are added.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all steps for one row.
// Cancellation is checked between steps; steps handle their own
// cancellation during network calls.
func (p *Pipeline) Execute(ctx context.Context, result *model.RowResult) error {
	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"imageFile", result.Row.ImageFile,
			)
			return ctx.Err()
		default:
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"imageFile", result.Row.ImageFile,
		)

		if err := step.Do(ctx, result); err != nil {
			p.logger.Debug("step failed",
				"step", step.Name(),
				"imageFile", result.Row.ImageFile,
				"error", err,
			)
			return err
		}
	}

	return nil
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
