package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"

	"github.com/jasonw-lab/collecter/internal/model"
)

// MarkdownWriter outputs run reports in GitHub-flavored Markdown.
// Designed for sharing a run's outcome in documentation or a PR.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.RunReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writeDownloads(md, report)
	w.writeFailures(md, report)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.RunReport) {
	md.H1("Image Collection Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Catalog", "`" + report.CatalogPath + "`"},
			{"Output Directory", "`" + report.OutputDir + "`"},
			{"Started", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", report.Elapsed().String()},
			{"Status", w.statusText(report)},
		},
	})
	md.PlainText("")
}

// statusText returns the status line based on report state.
func (w *MarkdownWriter) statusText(report *model.RunReport) string {
	if report.Cancelled {
		return "⚠️ Cancelled (partial results)"
	}
	return "✅ Complete"
}

// writeSummary writes the outcome summary section.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.RunReport) {
	md.H2("Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Outcome", "Count"},
		Rows: [][]string{
			{"✅ Downloaded", strconv.Itoa(report.Downloaded())},
			{"🔧 Normalized", strconv.Itoa(report.Normalized())},
			{"⏭️ Skipped", strconv.Itoa(report.Skipped())},
			{"❌ Failed", strconv.Itoa(report.Failed())},
			{"**Total**", "**" + strconv.Itoa(len(report.Rows)) + "**"},
		},
	})
	md.PlainText("")

	switch {
	case report.Failed() > 0:
		md.Warningf("%d row(s) failed; see the failures section below.", report.Failed())
	case report.Downloaded() > 0:
		md.Tip("All attempted rows downloaded successfully.")
	default:
		md.Note("No rows were attempted.")
	}
	md.PlainText("")
}

// writeDownloads writes the table of downloaded images.
func (w *MarkdownWriter) writeDownloads(md *markdown.Markdown, report *model.RunReport) {
	md.H2("Downloads")
	md.PlainText("")

	done := report.RowsByStatus(model.StatusDone)
	if len(done) == 0 {
		md.PlainText("No images were downloaded.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(done))
	for i, r := range done {
		normalized := "-"
		if r.Normalized {
			normalized = "from " + r.DetectedFormat
		}
		rows[i] = []string{
			"`" + r.Row.ImageFile + "`",
			truncateString(r.Row.Title, 40),
			strconv.Itoa(r.Attempts),
			normalized,
			truncateString(r.SourceURL, 60),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"File", "Title", "Attempts", "Normalized", "Source"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFailures writes the table of failed rows.
func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, report *model.RunReport) {
	failed := report.RowsByStatus(model.StatusFailed)
	if len(failed) == 0 {
		return
	}

	md.H2("Failures")
	md.PlainText("")

	rows := make([][]string, len(failed))
	for i, r := range failed {
		rows[i] = []string{
			"`" + r.Row.ImageFile + "`",
			truncateString(r.Row.Title, 40),
			strconv.Itoa(r.Attempts),
			truncateString(r.Error, 60),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"File", "Title", "Attempts", "Error"},
		Rows:   rows,
	})
	md.PlainText("")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
