package log

import (
	"context"
	"io"
	"log/slog"
	"strings"
)

// RelativeHandler wraps an slog.Handler to shorten absolute site paths.
// It intercepts log records and trims the site root prefix from string
// attribute values before passing them to the underlying handler.
//
// Design decision: We use a handler wrapper rather than asking every call
// site to relativize its own paths because:
//  1. It integrates seamlessly with standard slog APIs
//  2. It works with any underlying handler (text, JSON, etc.)
//  3. Call sites can log whatever path form they hold without caring
//     about presentation
type RelativeHandler struct {
	// handler is the underlying slog handler that receives shortened records.
	handler slog.Handler

	// root is the absolute site root prefix to trim, without a trailing
	// separator.
	root string
}

// NewRelativeHandler creates a new RelativeHandler wrapping the given
// handler. String attributes that start with the site root have that
// prefix removed. If handler is nil, the returned RelativeHandler will use
// slog.Default().Handler().
func NewRelativeHandler(handler slog.Handler, siteRoot string) *RelativeHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &RelativeHandler{
		handler: handler,
		root:    strings.TrimSuffix(siteRoot, "/"),
	}
}

// Enabled reports whether the handler handles records at the given level.
// It delegates to the underlying handler.
func (h *RelativeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle shortens the record's attributes and passes it to the underlying
// handler.
func (h *RelativeHandler) Handle(ctx context.Context, r slog.Record) error {
	shortened := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)

	r.Attrs(func(a slog.Attr) bool {
		shortened.AddAttrs(h.shortenAttr(a))
		return true
	})

	return h.handler.Handle(ctx, shortened)
}

// WithAttrs returns a new handler with the given attributes added.
// Attributes are shortened before being added.
func (h *RelativeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	shortenedAttrs := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		shortenedAttrs[i] = h.shortenAttr(a)
	}
	return &RelativeHandler{handler: h.handler.WithAttrs(shortenedAttrs), root: h.root}
}

// WithGroup returns a new handler with the given group name.
func (h *RelativeHandler) WithGroup(name string) slog.Handler {
	return &RelativeHandler{handler: h.handler.WithGroup(name), root: h.root}
}

// shortenAttr shortens a single attribute, recursively handling groups.
func (h *RelativeHandler) shortenAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		shortenedAttrs := make([]slog.Attr, len(attrs))
		for i, groupAttr := range attrs {
			shortenedAttrs[i] = h.shortenAttr(groupAttr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(shortenedAttrs...)}
	}

	if h.root == "" || a.Value.Kind() != slog.KindString {
		return a
	}

	val := a.Value.String()
	switch {
	case val == h.root:
		return slog.String(a.Key, ".")
	case strings.HasPrefix(val, h.root+"/"):
		return slog.String(a.Key, val[len(h.root)+1:])
	}
	return a
}

// NewLogger creates a new slog.Logger in text format with site-root path
// shortening.
//
// Parameters:
//   - w: The io.Writer to write log output to (typically os.Stderr)
//   - siteRoot: The absolute site root to trim from path attributes
//   - verbose: If true, sets log level to Debug; otherwise Info
//
// Returns a *slog.Logger that can be used with slog.SetDefault() or passed
// to components that accept *slog.Logger.
func NewLogger(w io.Writer, siteRoot string, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	textHandler := slog.NewTextHandler(w, opts)
	relativeHandler := NewRelativeHandler(textHandler, siteRoot)

	return slog.New(relativeHandler)
}

// NewJSONLogger creates a new slog.Logger that outputs JSON format with
// site-root path shortening. Useful for structured log aggregation.
func NewJSONLogger(w io.Writer, siteRoot string, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	jsonHandler := slog.NewJSONHandler(w, opts)
	relativeHandler := NewRelativeHandler(jsonHandler, siteRoot)

	return slog.New(relativeHandler)
}
