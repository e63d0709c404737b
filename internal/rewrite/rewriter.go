package rewrite

import (
	"path"
	"strings"

	"github.com/mkosuda/pagefold/internal/model"
)

// Rewriter computes replacement reference strings for restructured pages.
// It is a pure value with no I/O, so it can be unit-tested with synthetic
// mappings.
type Rewriter struct {
	// baseHref is the path prefix used when a reference must be emitted
	// absolute ("/archived-sites").
	baseHref string
}

// NewRewriter creates a Rewriter with the given base href.
func NewRewriter(baseHref string) *Rewriter {
	return &Rewriter{baseHref: strings.TrimSuffix(baseHref, "/")}
}

// LookupNewPath finds the post-restructure path for a resolved target.
//
// Lookup order handles the spellings CMS exports use for page links:
// the exact path, the extensionless form ("services" for services.html),
// and the directory form ("services/" for services/index.html). Paths not
// in the mapping are assets and stay where they are.
func (rw *Rewriter) LookupNewPath(mapping *model.PathMapping, target string) string {
	if neu, ok := mapping.Get(target); ok {
		return neu
	}
	if !strings.HasSuffix(target, ".html") {
		if neu, ok := mapping.Get(target + ".html"); ok {
			return neu
		}
		if neu, ok := mapping.Get(path.Join(target, "index.html")); ok {
			return neu
		}
	}
	return target
}

// Rewrite computes the new reference string for a resolved target, given
// the referring document's new location. The query string and fragment are
// reattached in that order.
//
// Page targets are emitted in directory form ("../sectors/bars-pubs/"
// instead of "../sectors/bars-pubs/index.html"): that is the URL the
// directory-per-page layout exists to serve, and it keeps links working if
// the host later redirects or rewrites index files.
func (rw *Rewriter) Rewrite(target *Target, sourceNewPath string, mapping *model.PathMapping) string {
	newTarget := rw.LookupNewPath(mapping, target.Path)

	ref, ok := relPath(path.Dir(sourceNewPath), newTarget)
	if !ok {
		// No relative path is expressible; fall back to a site-root-relative
		// absolute path under the configured base href.
		ref = rw.baseHref + "/" + strings.TrimPrefix(newTarget, "/")
	}

	ref = directoryForm(ref)

	return ref + target.Query + target.Fragment
}

// directoryForm trims a trailing index.html into the directory URL.
// "../a/index.html" becomes "../a/", "index.html" becomes "./".
func directoryForm(ref string) string {
	switch {
	case ref == "index.html":
		return "./"
	case strings.HasSuffix(ref, "/index.html"):
		return strings.TrimSuffix(ref, "index.html")
	}
	return ref
}

// relPath computes the POSIX relative path from fromDir to target.
// Both must be site-root-relative; ok is false when one of them is
// absolute, in which case no relative path is expressible.
func relPath(fromDir, target string) (string, bool) {
	if strings.HasPrefix(fromDir, "/") != strings.HasPrefix(target, "/") {
		return "", false
	}
	if strings.HasPrefix(target, "/") {
		return "", false
	}

	var from []string
	if fromDir != "." && fromDir != "" {
		from = strings.Split(fromDir, "/")
	}
	tgt := strings.Split(target, "/")

	common := 0
	for common < len(from) && common < len(tgt) && from[common] == tgt[common] {
		common++
	}

	parts := make([]string, 0, len(from)-common+len(tgt)-common)
	for i := common; i < len(from); i++ {
		parts = append(parts, "..")
	}
	parts = append(parts, tgt[common:]...)

	if len(parts) == 0 {
		return ".", true
	}
	return strings.Join(parts, "/"), true
}
