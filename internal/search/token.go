package search

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// tokenMatcher extracts a session token from the search page body.
// Matchers are tried in order; the first hit wins. New page formats are
// handled by appending a matcher, not by touching the handshake itself.
type tokenMatcher interface {
	// Extract returns the token and true on a hit.
	Extract(body string) (string, bool)
}

// tokenMatchers is the ordered list of extraction strategies.
// The two regex variants cover the quoting styles the provider has been
// observed to use; the script walker is a slower fallback that survives
// the token moving inside inline script code.
var tokenMatchers = []tokenMatcher{
	regexMatcher{re: regexp.MustCompile(`vqd="([^"]+)"`)},
	regexMatcher{re: regexp.MustCompile(`vqd='([^']+)'`)},
	scriptMatcher{},
}

// regexMatcher extracts the token with a single regular expression.
type regexMatcher struct {
	re *regexp.Regexp
}

// Extract returns the first capture group of the pattern.
func (m regexMatcher) Extract(body string) (string, bool) {
	match := m.re.FindStringSubmatch(body)
	if len(match) < 2 {
		return "", false
	}
	return match[1], true
}

// scriptTokenRegex matches token assignments inside script code, where
// the value may be unquoted (e.g. vqd=4-1234&).
var scriptTokenRegex = regexp.MustCompile(`vqd\s*=\s*['"]?([A-Za-z0-9_.-]+)`)

// scriptMatcher parses the page as HTML and scans the text of every
// script element for a token assignment. More tolerant of markup changes
// than a whole-page regex because it only looks where the provider has
// historically kept the token.
type scriptMatcher struct{}

// Extract walks the DOM and applies scriptTokenRegex to script text.
func (scriptMatcher) Extract(body string) (string, bool) {
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return "", false
	}

	var token string
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "script" {
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type != html.TextNode {
					continue
				}
				if match := scriptTokenRegex.FindStringSubmatch(c.Data); len(match) >= 2 {
					token = match[1]
					return true
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}

	if walk(doc) {
		return token, true
	}
	return "", false
}

// extractToken applies the matcher list in order.
func extractToken(body string) (string, bool) {
	for _, m := range tokenMatchers {
		if token, ok := m.Extract(body); ok {
			return token, true
		}
	}
	return "", false
}
