package model

import "strings"

// Column names required in the input catalog. Any other columns are
// preserved as passthrough fields but never interpreted.
const (
	// ColumnTitle is the catalog column holding the free-text product title
	// used as the search query.
	ColumnTitle = "title"

	// ColumnImageFile is the catalog column holding the destination filename
	// for the downloaded image.
	ColumnImageFile = "imageFile"
)

// ProductRow is a single row of the product catalog.
// Rows are read-only: the pipeline never mutates them, it only derives a
// RowResult from each one.
type ProductRow struct {
	// Title is the product title used as the image search query.
	Title string `json:"title"`

	// ImageFile is the destination filename (relative to the output
	// directory) for the downloaded image.
	ImageFile string `json:"imageFile"`

	// Fields holds all columns of the source row, including title and
	// imageFile, keyed by header name. Extra columns pass through here
	// untouched so callers can correlate results with the original data.
	Fields map[string]string `json:"fields,omitempty"`
}

// NewProductRow creates a ProductRow from a header-keyed record.
// Title and ImageFile are trimmed of surrounding whitespace, matching how
// the catalog treats blank-but-not-empty cells as blank.
func NewProductRow(fields map[string]string) ProductRow {
	return ProductRow{
		Title:     strings.TrimSpace(fields[ColumnTitle]),
		ImageFile: strings.TrimSpace(fields[ColumnImageFile]),
		Fields:    fields,
	}
}

// Incomplete reports whether the row is missing either required value.
// Incomplete rows are skipped without any network activity.
func (r ProductRow) Incomplete() bool {
	return r.Title == "" || r.ImageFile == ""
}
