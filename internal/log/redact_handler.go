package log

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"strings"
)

// sensitiveParams contains query parameter names whose values are
// scrubbed from logged URLs. Search session tokens and CDN signatures
// are per-session secrets that don't belong in shareable diagnostics.
var sensitiveParams = map[string]bool{
	"vqd":       true,
	"token":     true,
	"key":       true,
	"api_key":   true,
	"apikey":    true,
	"signature": true,
	"sig":       true,
	"expires":   true,
}

// MaskValue is the string used to replace sensitive parameter values.
const MaskValue = "REDACTED"

// RedactHandler wraps an slog.Handler and scrubs sensitive query
// parameters out of URL-valued attributes before they reach the
// underlying handler.
//
// A handler wrapper (rather than a custom logger) integrates with the
// standard slog API and works in front of any text or JSON handler.
type RedactHandler struct {
	// handler is the underlying slog handler that receives scrubbed records.
	handler slog.Handler
}

// NewRedactHandler creates a RedactHandler wrapping the given handler.
// If handler is nil, slog.Default().Handler() is used.
func NewRedactHandler(handler slog.Handler) *RedactHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &RedactHandler{handler: handler}
}

// Enabled reports whether the handler handles records at the given level.
func (h *RedactHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle scrubs the record's attributes and passes it on.
func (h *RedactHandler) Handle(ctx context.Context, r slog.Record) error {
	scrubbed := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)

	r.Attrs(func(a slog.Attr) bool {
		scrubbed.AddAttrs(h.redactAttr(a))
		return true
	})

	return h.handler.Handle(ctx, scrubbed)
}

// WithAttrs returns a new handler with the given attributes added,
// scrubbed first.
func (h *RedactHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redacted[i] = h.redactAttr(a)
	}
	return &RedactHandler{handler: h.handler.WithAttrs(redacted)}
}

// WithGroup returns a new handler with the given group name.
func (h *RedactHandler) WithGroup(name string) slog.Handler {
	return &RedactHandler{handler: h.handler.WithGroup(name)}
}

// redactAttr scrubs a single attribute, recursively handling groups.
func (h *RedactHandler) redactAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		redacted := make([]slog.Attr, len(attrs))
		for i, groupAttr := range attrs {
			redacted[i] = h.redactAttr(groupAttr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(redacted...)}
	}

	if a.Value.Kind() == slog.KindString {
		return slog.String(a.Key, RedactURL(a.Value.String()))
	}
	return a
}

// RedactURL replaces the values of sensitive query parameters in a URL
// string. Non-URL strings and URLs without sensitive parameters pass
// through unchanged.
func RedactURL(s string) string {
	if !strings.Contains(s, "://") || !strings.Contains(s, "=") {
		return s
	}

	u, err := url.Parse(s)
	if err != nil {
		return s
	}

	query := u.Query()
	changed := false
	for name := range query {
		if sensitiveParams[strings.ToLower(name)] {
			query.Set(name, MaskValue)
			changed = true
		}
	}
	if !changed {
		return s
	}

	u.RawQuery = query.Encode()
	return u.String()
}

// NewLogger creates an slog.Logger with URL redaction over a text handler.
//
// Parameters:
//   - w: destination for log output (typically os.Stderr)
//   - verbose: if true, level is Debug; otherwise Info
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	textHandler := slog.NewTextHandler(w, opts)
	return slog.New(NewRedactHandler(textHandler))
}

// NewJSONLogger creates an slog.Logger with URL redaction that outputs
// JSON. Useful for structured log aggregation.
func NewJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	jsonHandler := slog.NewJSONHandler(w, opts)
	return slog.New(NewRedactHandler(jsonHandler))
}
