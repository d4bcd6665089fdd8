// Package search resolves a free-text query into an ordered list of
// candidate image URLs using the DuckDuckGo image search endpoints.
//
// The provider publishes no API: a session token must first be scraped
// out of the HTML search page, then passed to the undocumented JSON
// endpoint. Both response shapes can drift without notice, so the token
// extraction is built as an ordered list of swappable matcher strategies.
package search
