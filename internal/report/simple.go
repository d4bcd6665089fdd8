package report

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/jasonw-lab/collecter/internal/model"
)

// SimpleWriter outputs a compact human-readable run summary.
// This is the default format shown on the terminal after a run.
type SimpleWriter struct {
	baseWriter
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer) *SimpleWriter {
	return &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the run summary.
func (w *SimpleWriter) Write(report *model.RunReport) (int, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Collection run: %s -> %s\n", report.CatalogPath, report.OutputDir)
	fmt.Fprintf(&buf, "Started:  %s\n", report.StartedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&buf, "Duration: %s\n", report.Elapsed().Round(10*time.Millisecond))
	if report.Cancelled {
		fmt.Fprintf(&buf, "Status:   cancelled (partial results)\n")
	}
	fmt.Fprintf(&buf, "\n")

	fmt.Fprintf(&buf, "Rows:       %d\n", len(report.Rows))
	fmt.Fprintf(&buf, "Downloaded: %d (%d normalized)\n", report.Downloaded(), report.Normalized())
	fmt.Fprintf(&buf, "Skipped:    %d\n", report.Skipped())
	fmt.Fprintf(&buf, "Failed:     %d\n", report.Failed())

	if failed := report.RowsByStatus(model.StatusFailed); len(failed) > 0 {
		fmt.Fprintf(&buf, "\nFailed rows:\n")
		for _, row := range failed {
			fmt.Fprintf(&buf, "  %s (%s): %s\n", row.Row.ImageFile, row.Row.Title, row.Error)
		}
	}

	return w.output.Write(buf.Bytes())
}
