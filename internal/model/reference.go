package model

// RefContext identifies the syntactic surface a reference was found on.
// The rewriter uses it to decide how the replacement string is spliced back
// into the document.
type RefContext string

// Reference contexts, one per extraction surface.
const (
	// ContextAttribute is a plain HTML attribute value (href, src, data-*).
	ContextAttribute RefContext = "attribute"

	// ContextCSSURL is a url(...) occurrence in a style attribute,
	// a <style> block, or a standalone CSS file.
	ContextCSSURL RefContext = "css-url"

	// ContextJSONURL is the literal "url":"..." key in JSON-LD structured data.
	ContextJSONURL RefContext = "json-url"

	// ContextScriptURL is a heuristic match inside inline script text
	// (redirect('...'), window.location = '...', .href = '...').
	// This surface is best-effort only.
	ContextScriptURL RefContext = "inline-script-url"
)

// Reference is a single candidate reference string extracted from a document,
// together with enough syntactic context to rewrite it in place.
//
// Start and End are byte offsets of the raw reference string within the
// document text. Rewriting replaces exactly document[Start:End], so the
// surrounding markup is preserved byte-for-byte.
//
// References are created per document per run and consumed immediately by the
// resolver and rewriter; they are never persisted.
type Reference struct {
	// Raw is the reference string exactly as it appears in the document,
	// including any query string and fragment.
	Raw string

	// Context is the syntactic surface the reference was found on.
	Context RefContext

	// Attr is the attribute name for ContextAttribute references
	// ("href", "data-src", "srcset", ...). Empty for other contexts.
	Attr string

	// Start and End delimit Raw within the document text.
	Start int
	End   int
}

// Duplicate references on overlapping text are allowed: each occurrence is
// keyed by (Attr, Raw, Start) and rewritten independently.
func (r Reference) Key() ReferenceKey {
	return ReferenceKey{Attr: r.Attr, Raw: r.Raw, Start: r.Start}
}

// ReferenceKey identifies one occurrence of a reference within a document.
type ReferenceKey struct {
	Attr  string
	Raw   string
	Start int
}
