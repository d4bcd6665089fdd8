// Package pipeline orchestrates the per-row collection flow: resolve
// candidate URLs, attempt downloads with fallback, validate the result,
// and drive the whole catalog row by row with skip policy and pacing.
package pipeline
