package rewrite

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/mkosuda/pagefold/internal/model"
	"github.com/mkosuda/pagefold/internal/scanner"
)

// Engine rewrites all references in one document at a time.
// It combines the scanner, classifier, resolver, and rewriter; the engine
// itself never touches the filesystem, so a document rewrite is a pure
// text-to-text transformation.
type Engine struct {
	scanner    *scanner.Scanner
	classifier *Classifier
	resolver   *Resolver
	rewriter   *Rewriter

	// removeLegacy drops the whole <script> tag of a blocklisted legacy
	// asset instead of only reporting it. Enabled by strict mode.
	removeLegacy bool

	logger *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithEngineLogger sets a custom logger for the engine.
func WithEngineLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLegacyRemoval makes the engine drop <script> tags whose src matches
// the legacy blocklist.
func WithLegacyRemoval() EngineOption {
	return func(e *Engine) {
		e.removeLegacy = true
	}
}

// NewEngine creates an Engine from its parts.
func NewEngine(classifier *Classifier, resolver *Resolver, rewriter *Rewriter, opts ...EngineOption) *Engine {
	e := &Engine{
		scanner:    scanner.New(),
		classifier: classifier,
		resolver:   resolver,
		rewriter:   rewriter,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = slog.Default()
	}

	return e
}

// DocumentResult is the outcome of rewriting one document.
type DocumentResult struct {
	// Text is the document text after rewriting.
	Text string

	// Changed reports whether Text differs from the input.
	Changed bool

	// Report holds this document's counters, merged by the caller.
	Report model.RewriteReport
}

// RewriteHTML rewrites every reference in an HTML document that moved from
// oldPath to newPath. Both paths are site-root-relative; for documents that
// did not move they are equal.
func (e *Engine) RewriteHTML(doc, oldPath, newPath string, mapping *model.PathMapping) DocumentResult {
	refs := e.scanner.ScanHTML(doc)
	return e.apply(doc, refs, oldPath, newPath, mapping)
}

// RewriteCSS rewrites url(...) references in a standalone CSS file.
// CSS files do not move, so references resolve against the file's own
// location; their targets may still have moved.
func (e *Engine) RewriteCSS(doc, cssPath string, mapping *model.PathMapping) DocumentResult {
	refs := e.scanner.ScanCSS(doc)
	return e.apply(doc, refs, cssPath, cssPath, mapping)
}

// apply splices the rewritten references into the document text.
func (e *Engine) apply(doc string, refs []model.Reference, oldPath, newPath string, mapping *model.PathMapping) DocumentResult {
	result := DocumentResult{Report: model.RewriteReport{DocumentsScanned: 1}}
	result.Report.ReferencesFound = len(refs)

	sort.Slice(refs, func(i, j int) bool { return refs[i].Start < refs[j].Start })

	var b strings.Builder
	b.Grow(len(doc))

	cursor := 0
	for _, ref := range refs {
		// Overlapping surfaces can report the same span twice
		// (window.location.href matches two script idioms); the first
		// occurrence wins and the rest are dropped.
		if ref.Start < cursor {
			continue
		}

		if e.classifier.IsLegacyAsset(ref.Raw) {
			result.Report.LegacyReferences++
			if e.removeLegacy && ref.Attr == "src" {
				if start, end, ok := scriptTagSpan(doc, ref); ok && start >= cursor {
					b.WriteString(doc[cursor:start])
					cursor = end
					e.logger.Debug("legacy CMS script removed",
						"ref", ref.Raw,
						"source", oldPath,
					)
					continue
				}
			}
			e.logger.Debug("legacy CMS asset referenced",
				"ref", ref.Raw,
				"source", oldPath,
			)
			continue
		}

		replacement, counted := e.rewriteOne(ref, oldPath, newPath, mapping, &result.Report)
		if !counted || replacement == ref.Raw {
			continue
		}

		b.WriteString(doc[cursor:ref.Start])
		b.WriteString(replacement)
		cursor = ref.End
		result.Report.ReferencesRewritten++
	}

	if cursor == 0 {
		result.Text = doc
		return result
	}

	b.WriteString(doc[cursor:])
	result.Text = b.String()
	result.Changed = result.Text != doc
	if result.Changed {
		result.Report.DocumentsChanged = 1
	}
	return result
}

// rewriteOne computes the replacement for a single reference and updates
// the per-document counters. counted is false when the reference must pass
// through untouched.
func (e *Engine) rewriteOne(ref model.Reference, oldPath, newPath string, mapping *model.PathMapping, report *model.RewriteReport) (string, bool) {
	switch e.classifier.Classify(ref.Raw) {
	case ClassExternal, ClassSkip:
		report.SkippedExternal++
		return "", false
	case ClassInternal:
		// Fall through.
	}

	target := e.resolver.Resolve(ref.Raw, oldPath)
	if target == nil {
		raw := strings.TrimSpace(ref.Raw)
		if stripped, ok := e.classifier.StripDomain(raw); ok {
			raw = stripped
		}
		refPath, _, _ := SplitRef(raw)
		switch {
		case refPath == "":
			// Query-only or fragment-only: nothing to rewrite.
			report.SkippedExternal++
		case strings.HasPrefix(refPath, "/") && !e.resolver.RootRelative():
			// Host-rooted path, configured out of scope.
			report.SkippedExternal++
		default:
			report.ResolutionFailures++
		}
		return "", false
	}

	return e.rewriter.Rewrite(target, newPath, mapping), true
}

// scriptTagSpan expands a src attribute reference to the span of its
// enclosing <script> tag, closing tag included. ok is false when the
// reference does not sit inside the opening tag of a well-formed pair.
func scriptTagSpan(doc string, ref model.Reference) (start, end int, ok bool) {
	lower := strings.ToLower(doc)

	start = strings.LastIndex(lower[:ref.Start], "<script")
	if start < 0 {
		return 0, 0, false
	}
	if strings.IndexByte(lower[start:ref.Start], '>') >= 0 {
		// The opening tag closed before the attribute: not this tag's src.
		return 0, 0, false
	}

	rest := lower[ref.End:]
	closing := strings.Index(rest, "</script")
	if closing < 0 {
		return 0, 0, false
	}
	gt := strings.IndexByte(rest[closing:], '>')
	if gt < 0 {
		return 0, 0, false
	}

	return start, ref.End + closing + gt + 1, true
}
