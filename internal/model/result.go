package model

import "time"

// ImageMeta summarizes the EXIF metadata of a downloaded image.
// All fields are optional; most search-engine thumbnails carry no EXIF
// at all, and an empty ImageMeta is the common case.
type ImageMeta struct {
	// CameraMake is the EXIF Make tag value, if present.
	CameraMake string `json:"cameraMake,omitempty"`

	// CameraModel is the EXIF Model tag value, if present.
	CameraModel string `json:"cameraModel,omitempty"`

	// Software is the EXIF Software tag value, if present.
	Software string `json:"software,omitempty"`

	// TakenAt is the EXIF DateTimeOriginal tag value, if present.
	// Kept as the raw formatted string because EXIF timestamps carry no
	// timezone and parsing them would invent one.
	TakenAt string `json:"takenAt,omitempty"`
}

// Empty reports whether no metadata field is set.
func (m ImageMeta) Empty() bool {
	return m == ImageMeta{}
}

// RowResult records the outcome of processing one catalog row.
// The pipeline fills it in as the row moves through resolution, download
// attempts, and validation; the report and history layers consume it.
type RowResult struct {
	// Row is the catalog row this result belongs to.
	Row ProductRow `json:"row"`

	// Status is the terminal state of the row.
	Status RowStatus `json:"status"`

	// SkipReason explains a StatusSkipped outcome ("blank fields",
	// "already exists", "filtered"). Empty for other statuses.
	SkipReason string `json:"skipReason,omitempty"`

	// Query is the search query derived from the row title.
	Query string `json:"query,omitempty"`

	// Candidates is the ordered candidate URL list produced by the
	// resolver. Immutable once set; at most MaxCandidates entries are
	// ever attempted.
	Candidates []string `json:"candidates,omitempty"`

	// Attempts is the number of candidate URLs actually tried.
	Attempts int `json:"attempts,omitempty"`

	// SourceURL is the candidate URL the final image was downloaded from.
	// Only set when Status is StatusDone.
	SourceURL string `json:"sourceURL,omitempty"`

	// OutputPath is the destination path of the validated image.
	// Only set when Status is StatusDone.
	OutputPath string `json:"outputPath,omitempty"`

	// Normalized is true when the downloaded bytes decoded as a format
	// other than the one implied by the filename extension and the file
	// was transcoded in place.
	Normalized bool `json:"normalized,omitempty"`

	// DetectedFormat is the image format the downloaded bytes decoded as,
	// before any normalization.
	DetectedFormat string `json:"detectedFormat,omitempty"`

	// ContentHash is the BLAKE2b-256 hex digest of the final file bytes.
	ContentHash string `json:"contentHash,omitempty"`

	// Meta is the EXIF summary of the final image, when any was present.
	Meta ImageMeta `json:"meta,omitempty"`

	// Error holds the textual reason for a StatusFailed outcome.
	// Stored as a string so results serialize cleanly to JSON and SQLite.
	Error string `json:"error,omitempty"`

	// Elapsed is the wall-clock time spent on the row, excluding the
	// politeness delay that follows it.
	Elapsed time.Duration `json:"elapsed,omitempty"`
}

// NewRowResult creates a pending RowResult for a catalog row.
func NewRowResult(row ProductRow) *RowResult {
	return &RowResult{
		Row:    row,
		Status: StatusPending,
		Query:  row.Title,
	}
}

// Skip marks the result as skipped with the given reason.
func (r *RowResult) Skip(reason string) {
	r.Status = StatusSkipped
	r.SkipReason = reason
}

// Fail marks the result as failed with the given reason.
func (r *RowResult) Fail(reason string) {
	r.Status = StatusFailed
	r.Error = reason
}
