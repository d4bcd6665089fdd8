// Package log provides slog handlers for collecter.
// The redact handler scrubs session tokens and signed query parameters
// from logged URLs so diagnostic output can be shared safely.
package log
