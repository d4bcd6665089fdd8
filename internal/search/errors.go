package search

import "errors"

// Resolution errors. Both are row-scoped: the pipeline logs them and
// moves on to the next catalog row.
var (
	// ErrTokenNotFound is returned when the search page body contains no
	// recognizable session token. Usually means the provider changed its
	// page format; add a matcher rather than rearchitecting the handshake.
	ErrTokenNotFound = errors.New("session token not found in search page")

	// ErrMalformedResponse is returned when the JSON search endpoint
	// returns a body that does not parse as JSON.
	ErrMalformedResponse = errors.New("malformed search response")
)
