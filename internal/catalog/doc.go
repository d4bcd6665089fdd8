// Package catalog reads product rows from a CSV catalog file.
// The catalog must carry a header row with at least the title and
// imageFile columns; all other columns pass through untouched.
package catalog
