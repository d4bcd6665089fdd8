package search

import (
	"testing"
)

func TestExtractToken(t *testing.T) {
	t.Parallel()

	t.Run("double quoted token", func(t *testing.T) {
		t.Parallel()

		body := `<html><head><script>var x = {vqd="4-123456789012345678901234567890"};</script></head></html>`

		token, ok := extractToken(body)
		if !ok {
			t.Fatal("expected token to be found")
		}
		if token != "4-123456789012345678901234567890" {
			t.Errorf("token = %q, want %q", token, "4-123456789012345678901234567890")
		}
	})

	t.Run("single quoted token", func(t *testing.T) {
		t.Parallel()

		body := `<html><body><script>vqd='4-987654321';</script></body></html>`

		token, ok := extractToken(body)
		if !ok {
			t.Fatal("expected token to be found")
		}
		if token != "4-987654321" {
			t.Errorf("token = %q, want %q", token, "4-987654321")
		}
	})

	t.Run("double quoted wins over single quoted", func(t *testing.T) {
		t.Parallel()

		body := `vqd="first-token" and later vqd='second-token'`

		token, ok := extractToken(body)
		if !ok {
			t.Fatal("expected token to be found")
		}
		if token != "first-token" {
			t.Errorf("token = %q, want %q", token, "first-token")
		}
	})

	t.Run("unquoted token inside script", func(t *testing.T) {
		t.Parallel()

		body := `<html><body>
<script>
  nrji('/i.js?q=widget&o=json&vqd=4-555666777&f=,,,');
</script>
</body></html>`

		token, ok := extractToken(body)
		if !ok {
			t.Fatal("expected token to be found")
		}
		if token != "4-555666777" {
			t.Errorf("token = %q, want %q", token, "4-555666777")
		}
	})

	t.Run("no token present", func(t *testing.T) {
		t.Parallel()

		body := `<html><body><p>If this error persists, please let us know.</p></body></html>`

		if token, ok := extractToken(body); ok {
			t.Errorf("expected no token, got %q", token)
		}
	})

	t.Run("vqd outside script element is ignored by fallback", func(t *testing.T) {
		t.Parallel()

		// No quoted assignment for the regex matchers, and the fallback
		// only scans script text.
		body := `<html><body><p>vqd is a token name</p></body></html>`

		if token, ok := extractToken(body); ok {
			t.Errorf("expected no token, got %q", token)
		}
	})

	t.Run("empty body", func(t *testing.T) {
		t.Parallel()

		if token, ok := extractToken(""); ok {
			t.Errorf("expected no token, got %q", token)
		}
	})
}

func TestRegexMatcher_Extract(t *testing.T) {
	t.Parallel()

	m := tokenMatchers[0]

	t.Run("empty quoted value does not match", func(t *testing.T) {
		t.Parallel()

		if token, ok := m.Extract(`vqd=""`); ok {
			t.Errorf("expected no match for empty value, got %q", token)
		}
	})

	t.Run("token with special characters", func(t *testing.T) {
		t.Parallel()

		token, ok := m.Extract(`vqd="4-17%2Fab_c.d"`)
		if !ok {
			t.Fatal("expected token to be found")
		}
		if token != "4-17%2Fab_c.d" {
			t.Errorf("token = %q, want %q", token, "4-17%2Fab_c.d")
		}
	})
}
