// Package fetch downloads candidate image URLs to local files under a
// fixed browser identity, optionally carrying a referer to satisfy
// hotlink-protection checks.
package fetch
