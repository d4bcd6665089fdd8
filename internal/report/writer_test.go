package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/jasonw-lab/collecter/internal/model"
)

// sampleReport builds a report with one row of each outcome.
func sampleReport() *model.RunReport {
	report := model.NewRunReport("products.csv", "images")
	report.StartedAt = time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
	report.FinishedAt = report.StartedAt.Add(42 * time.Second)

	done := model.NewRowResult(model.ProductRow{Title: "Blue Widget", ImageFile: "widget.jpg"})
	done.Status = model.StatusDone
	done.SourceURL = "https://img.example/widget-full.jpg"
	done.OutputPath = "images/widget.jpg"
	done.Attempts = 2
	done.Normalized = true
	done.DetectedFormat = "png"

	skipped := model.NewRowResult(model.ProductRow{Title: "Old Gadget", ImageFile: "gadget.jpg"})
	skipped.Skip("already exists")

	failed := model.NewRowResult(model.ProductRow{Title: "Rare Item", ImageFile: "rare.jpg"})
	failed.Fail("all candidates blocked")
	failed.Attempts = 10

	for _, r := range []*model.RowResult{done, skipped, failed} {
		report.Add(r)
	}
	return report
}

func TestJSONWriter_Write(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	n, err := NewJSONWriter(&buf).Write(sampleReport())
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if n != buf.Len() {
		t.Errorf("reported %d bytes, wrote %d", n, buf.Len())
	}

	var decoded model.RunReport
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}

	if decoded.CatalogPath != "products.csv" {
		t.Errorf("CatalogPath = %q", decoded.CatalogPath)
	}
	if len(decoded.Rows) != 3 {
		t.Fatalf("len(Rows) = %d, want 3", len(decoded.Rows))
	}
	if decoded.Rows[0].Status != model.StatusDone {
		t.Errorf("Rows[0].Status = %v, want StatusDone", decoded.Rows[0].Status)
	}
	if decoded.Rows[2].Error != "all candidates blocked" {
		t.Errorf("Rows[2].Error = %q", decoded.Rows[2].Error)
	}
}

func TestSimpleWriter_Write(t *testing.T) {
	t.Parallel()

	t.Run("summarizes counts and failed rows", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(sampleReport()); err != nil {
			t.Fatalf("Write() error = %v", err)
		}

		out := buf.String()
		for _, want := range []string{
			"Collection run: products.csv -> images",
			"Downloaded: 1 (1 normalized)",
			"Skipped:    1",
			"Failed:     1",
			"rare.jpg (Rare Item): all candidates blocked",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("cancelled runs are marked", func(t *testing.T) {
		t.Parallel()

		report := sampleReport()
		report.Cancelled = true

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(report); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		if !strings.Contains(buf.String(), "cancelled (partial results)") {
			t.Errorf("output missing cancellation notice:\n%s", buf.String())
		}
	})
}

func TestMarkdownWriter_Write(t *testing.T) {
	t.Parallel()

	t.Run("renders all sections", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		n, err := NewMarkdownWriter(&buf).Write(sampleReport())
		if err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		if n == 0 {
			t.Error("expected non-zero byte count")
		}

		out := buf.String()
		for _, want := range []string{
			"# Image Collection Report",
			"## Summary",
			"## Downloads",
			"## Failures",
			"`widget.jpg`",
			"from png",
			"`rare.jpg`",
			"all candidates blocked",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q", want)
			}
		}
	})

	t.Run("empty report renders without failure section", func(t *testing.T) {
		t.Parallel()

		report := model.NewRunReport("products.csv", "images")
		report.FinishedAt = report.StartedAt

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(report); err != nil {
			t.Fatalf("Write() error = %v", err)
		}

		out := buf.String()
		if strings.Contains(out, "## Failures") {
			t.Error("empty report should not have a failures section")
		}
		if !strings.Contains(out, "No images were downloaded.") {
			t.Error("expected empty downloads notice")
		}
	})
}

func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input  string
		maxLen int
		want   string
	}{
		{"short", 10, "short"},
		{"exactly-ten", 11, "exactly-ten"},
		{"a much longer string than allowed", 10, "a much ..."},
		{"abc", 2, "ab"},
	}

	for _, tt := range tests {
		if got := truncateString(tt.input, tt.maxLen); got != tt.want {
			t.Errorf("truncateString(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
		}
	}
}
