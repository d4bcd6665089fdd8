// Package model defines the core data structures shared across the
// collecter application: catalog rows, per-row processing results,
// and per-run reports.
package model
