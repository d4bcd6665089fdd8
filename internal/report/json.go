package report

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/jasonw-lab/collecter/internal/model"
)

// JSONWriter outputs run reports as indented JSON.
// This is the machine-readable format: every RowResult field is
// serialized, including candidates and metadata.
type JSONWriter struct {
	baseWriter
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer) *JSONWriter {
	return &JSONWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report as JSON.
// The report is encoded to a buffer first so a marshalling failure
// never leaves a half-written document on the destination.
func (w *JSONWriter) Write(report *model.RunReport) (int, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		return 0, err
	}

	n, err := w.output.Write(buf.Bytes())
	return n, err
}
