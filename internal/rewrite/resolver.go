package rewrite

import (
	"log/slog"
	"path"
	"strings"
)

// Target is the canonical site-root-relative path a reference points to,
// with the query string and fragment retained for reattachment.
type Target struct {
	// Path is the resolved site-root-relative POSIX path, without query or
	// fragment.
	Path string

	// Query includes the leading "?" when present.
	Query string

	// Fragment includes the leading "#" when present.
	Fragment string
}

// Resolver resolves references found in documents to canonical targets.
type Resolver struct {
	classifier *Classifier

	// rootRelative controls plain leading-"/" references: when true they
	// resolve against the site root, when false they are host-rooted and
	// out of scope. The choice depends on how the export spelled its
	// absolute paths, so it is configuration. Paths obtained by stripping
	// an original domain are always site-rooted: the domain match already
	// names the host.
	rootRelative bool

	// baseHref is stripped from site-rooted paths, so already-prefixed
	// absolute paths resolve to the same target as unprefixed ones.
	baseHref string

	logger *slog.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithRootRelative makes leading-"/" references resolve against the site root.
func WithRootRelative() ResolverOption {
	return func(r *Resolver) {
		r.rootRelative = true
	}
}

// WithResolverBaseHref sets the public prefix trimmed from site-rooted paths.
func WithResolverBaseHref(baseHref string) ResolverOption {
	return func(r *Resolver) {
		r.baseHref = strings.TrimSuffix(baseHref, "/")
	}
}

// WithResolverLogger sets a custom logger for the resolver.
func WithResolverLogger(logger *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// NewResolver creates a Resolver using the given classifier.
func NewResolver(classifier *Classifier, opts ...ResolverOption) *Resolver {
	r := &Resolver{classifier: classifier}

	for _, opt := range opts {
		opt(r)
	}

	if r.logger == nil {
		r.logger = slog.Default()
	}

	return r
}

// RootRelative reports whether leading-"/" references resolve against the
// site root.
func (r *Resolver) RootRelative() bool {
	return r.rootRelative
}

// SplitRef splits a raw reference into path, query, and fragment.
// The fragment is everything from the first "#", the query everything from
// the first "?" before it; both keep their leading separator.
func SplitRef(raw string) (refPath, query, fragment string) {
	refPath = raw
	if i := strings.Index(refPath, "#"); i >= 0 {
		fragment = refPath[i:]
		refPath = refPath[:i]
	}
	if i := strings.Index(refPath, "?"); i >= 0 {
		query = refPath[i:]
		refPath = refPath[:i]
	}
	return refPath, query, fragment
}

// Resolve resolves a raw reference found in the document at sourceOldPath
// (site-root relative) to a canonical target. It returns nil when the
// reference is external, special, out of scope, or escapes the site root.
// Resolution failures are logged, never raised.
func (r *Resolver) Resolve(raw, sourceOldPath string) *Target {
	ref := strings.TrimSpace(raw)

	switch r.classifier.Classify(ref) {
	case ClassExternal, ClassSkip:
		return nil
	case ClassInternal:
		// Fall through to path resolution.
	}

	// Absolute URLs on an original domain become site-rooted paths first.
	stripped := false
	if s, ok := r.classifier.StripDomain(ref); ok {
		ref = s
		stripped = true
	}

	refPath, query, fragment := SplitRef(ref)
	if refPath == "" {
		// Query-only or fragment-only reference: navigates within the page.
		return nil
	}

	var resolved string
	if strings.HasPrefix(refPath, "/") {
		if !r.rootRelative && !stripped {
			// Host-rooted path on an unknown host root: out of scope.
			return nil
		}
		p := refPath
		if r.baseHref != "" {
			p = strings.TrimPrefix(p, r.baseHref)
		}
		resolved = path.Clean(strings.TrimPrefix(p, "/"))
	} else {
		resolved = path.Join(path.Dir(sourceOldPath), refPath)
	}

	// path.Join/Clean normalize "." and ".." segments. Anything still
	// reaching above the root escapes the site tree. "." itself is the site
	// root and resolves to the index page.
	if resolved == ".." || strings.HasPrefix(resolved, "../") {
		r.logger.Warn("reference escapes site root, left unchanged",
			"ref", raw,
			"source", sourceOldPath,
		)
		return nil
	}
	if resolved == "." {
		resolved = "index.html"
	} else if strings.HasSuffix(refPath, "/") {
		// A trailing slash names a directory, served by its index file.
		resolved = path.Join(resolved, "index.html")
	}

	return &Target{Path: resolved, Query: query, Fragment: fragment}
}
