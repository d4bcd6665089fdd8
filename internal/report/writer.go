package report

import (
	"io"

	"github.com/jasonw-lab/collecter/internal/model"
)

// Writer defines the interface for run report output.
// Implementations render the report in a specific format; the
// destination (stdout, file) is fixed at construction, so the same API
// serves terminal and file output.
type Writer interface {
	// Write outputs the report to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(report *model.RunReport) (int, error)
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
