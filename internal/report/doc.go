// Package report renders collection run reports in human-readable,
// JSON, and Markdown formats.
package report
