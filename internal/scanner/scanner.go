package scanner

import (
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/mkosuda/pagefold/internal/model"
)

// urlAttrs are attribute names whose value is a single reference.
// data-* entries cover lazy-loading and page-builder markup that standard
// HTML tooling ignores.
var urlAttrs = map[string]bool{
	"href":            true,
	"src":             true,
	"action":          true,
	"data-href":       true,
	"data-src":        true,
	"data-link":       true,
	"data-url":        true,
	"data-bg":         true,
	"data-background": true,
}

// Scanner extracts references from HTML and CSS documents.
// A Scanner is stateless and safe for concurrent use.
type Scanner struct{}

// New creates a Scanner.
func New() *Scanner {
	return &Scanner{}
}

// ScanHTML extracts every candidate reference from an HTML document.
// References are returned in document order with byte offsets into doc.
//
// Duplicates on overlapping text are allowed; each occurrence is rewritten
// independently, so finding the same URL through two surfaces is harmless.
func (s *Scanner) ScanHTML(doc string) []model.Reference {
	var refs []model.Reference

	tk := html.NewTokenizer(strings.NewReader(doc))

	// offset is the byte position of the current token within doc.
	// The tokenizer consumes input sequentially and Raw returns the exact
	// bytes of the token just scanned, so summing lengths tracks position.
	offset := 0

	// Track the enclosing raw-text element so text tokens can be routed to
	// the style or script surface.
	inStyle := false
	inScript := false
	scriptType := ""

	for {
		tt := tk.Next()
		raw := tk.Raw()
		tokenStart := offset
		offset += len(raw)

		switch tt {
		case html.ErrorToken:
			if tk.Err() == io.EOF {
				return refs
			}
			// Tokenizer recovered from malformed input; keep going.
			if len(raw) == 0 {
				return refs
			}

		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := tk.TagName()
			tag := string(name)

			attrs := attrSpans(raw)
			refs = append(refs, s.scanAttributes(doc, tokenStart, attrs)...)

			if tt == html.StartTagToken {
				switch tag {
				case "style":
					inStyle = true
				case "script":
					inScript = true
					scriptType = attrValue(doc, tokenStart, attrs, "type")
				}
			}

		case html.EndTagToken:
			name, _ := tk.TagName()
			switch string(name) {
			case "style":
				inStyle = false
			case "script":
				inScript = false
				scriptType = ""
			}

		case html.TextToken:
			switch {
			case inStyle:
				refs = append(refs, scanCSSText(doc, tokenStart, tokenStart+len(raw))...)
			case inScript && strings.Contains(scriptType, "ld+json"):
				refs = append(refs, scanJSONLD(doc, tokenStart, tokenStart+len(raw))...)
			case inScript:
				refs = append(refs, scanScriptText(doc, tokenStart, tokenStart+len(raw))...)
			}
		}
	}
}

// ScanCSS extracts url(...) references from standalone CSS text.
// Offsets are relative to the CSS document itself; the caller resolves them
// against the CSS file's own location, not the referencing HTML page.
func (s *Scanner) ScanCSS(doc string) []model.Reference {
	return scanCSSText(doc, 0, len(doc))
}

// scanAttributes extracts references from one tag's attribute list.
func (s *Scanner) scanAttributes(doc string, tokenStart int, attrs []attrSpan) []model.Reference {
	var refs []model.Reference

	for _, a := range attrs {
		name := strings.ToLower(doc[tokenStart+a.nameStart : tokenStart+a.nameEnd])
		valStart := tokenStart + a.valStart
		valEnd := tokenStart + a.valEnd
		val := doc[valStart:valEnd]

		switch {
		case urlAttrs[name]:
			if val == "" {
				continue
			}
			refs = append(refs, model.Reference{
				Raw:     val,
				Context: model.ContextAttribute,
				Attr:    name,
				Start:   valStart,
				End:     valEnd,
			})

		case name == "srcset":
			refs = append(refs, scanSrcset(val, valStart)...)

		case name == "style":
			refs = append(refs, scanCSSText(doc, valStart, valEnd)...)

		case name == "onclick":
			refs = append(refs, scanScriptText(doc, valStart, valEnd)...)
		}
	}

	return refs
}

// scanSrcset splits a srcset value into its URLs. Each entry is
// "url [descriptor]", entries separated by commas; every URL is an
// independent reference.
func scanSrcset(val string, base int) []model.Reference {
	var refs []model.Reference

	pos := 0
	for _, entry := range strings.Split(val, ",") {
		trimmed := strings.TrimLeft(entry, " \t\n")
		urlStart := pos + (len(entry) - len(trimmed))

		url := trimmed
		if i := strings.IndexAny(trimmed, " \t\n"); i >= 0 {
			url = trimmed[:i]
		}

		if url != "" {
			refs = append(refs, model.Reference{
				Raw:     url,
				Context: model.ContextAttribute,
				Attr:    "srcset",
				Start:   base + urlStart,
				End:     base + urlStart + len(url),
			})
		}

		pos += len(entry) + 1 // +1 for the comma
	}

	return refs
}

// attrValue returns the value of the named attribute within a tag token,
// or empty string if absent.
func attrValue(doc string, tokenStart int, attrs []attrSpan, name string) string {
	for _, a := range attrs {
		if strings.EqualFold(doc[tokenStart+a.nameStart:tokenStart+a.nameEnd], name) {
			return doc[tokenStart+a.valStart : tokenStart+a.valEnd]
		}
	}
	return ""
}
