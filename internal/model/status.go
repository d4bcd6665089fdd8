package model

// RowStatus describes the terminal state of a catalog row after the
// pipeline has processed (or declined to process) it.
//
// A row moves PENDING -> SKIPPED when the skip policy fires before any
// network activity, PENDING -> DONE when a candidate was downloaded and
// validated, and PENDING -> FAILED when resolution produced nothing or
// every candidate was rejected.
type RowStatus int

// Row statuses, in lifecycle order.
const (
	// StatusPending means the row has not been processed yet.
	StatusPending RowStatus = iota

	// StatusSkipped means the row was skipped before any network call:
	// blank fields, existing destination without overwrite, or a
	// single-file filter mismatch.
	StatusSkipped

	// StatusDone means a candidate was downloaded, validated, and the
	// destination file is final.
	StatusDone

	// StatusFailed means resolution failed, yielded no candidates, or all
	// attempted candidates were rejected. The run continues regardless.
	StatusFailed
)

// String returns the lowercase name of the status.
// Unknown values render as "unknown" rather than panicking so that
// statuses read back from persisted records degrade gracefully.
func (s RowStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusSkipped:
		return "skipped"
	case StatusDone:
		return "done"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ParseRowStatus converts a stored status string back to a RowStatus.
// Unrecognized strings map to StatusPending.
func ParseRowStatus(s string) RowStatus {
	switch s {
	case "skipped":
		return StatusSkipped
	case "done":
		return StatusDone
	case "failed":
		return StatusFailed
	default:
		return StatusPending
	}
}

// MarshalText implements encoding.TextMarshaler so statuses serialize as
// their names in JSON reports instead of bare integers.
func (s RowStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *RowStatus) UnmarshalText(text []byte) error {
	*s = ParseRowStatus(string(text))
	return nil
}
