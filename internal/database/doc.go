// Package database provides SQLite-based storage for download history.
// Each collection run records per-row outcomes so the history command
// can answer "when did this image last change, and where did it come from"
// without re-running the pipeline.
package database
