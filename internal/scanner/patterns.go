package scanner

import (
	"regexp"

	"github.com/mkosuda/pagefold/internal/model"
)

// cssURLPattern matches url(...) with double-quoted, single-quoted, or
// unquoted content. Exactly one of the three capture groups matches.
var cssURLPattern = regexp.MustCompile(`url\(\s*(?:"([^"]*)"|'([^']*)'|([^'")\s]+))\s*\)`)

// jsonURLPattern matches the literal "url":"..." key in JSON-LD text.
// Structured data uses this one spelling consistently (it is machine
// generated), so a full JSON parse is not needed to locate the values.
var jsonURLPattern = regexp.MustCompile(`"url"\s*:\s*"([^"]*)"`)

// scriptURLPatterns match the JavaScript redirect idioms found in CMS
// exports. This surface is explicitly heuristic: there is no guarantee of
// completeness, only coverage of the known idioms.
var scriptURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`redirect\(\s*['"]([^'"]*)['"]`),
	regexp.MustCompile(`window\.location(?:\.href)?\s*=\s*['"]([^'"]*)['"]`),
	regexp.MustCompile(`\.href\s*=\s*['"]([^'"]*)['"]`),
}

// scanCSSText extracts url(...) references from doc[start:end].
func scanCSSText(doc string, start, end int) []model.Reference {
	var refs []model.Reference

	for _, m := range cssURLPattern.FindAllStringSubmatchIndex(doc[start:end], -1) {
		// Groups 1..3: double-quoted, single-quoted, unquoted.
		for g := 1; g <= 3; g++ {
			if m[2*g] < 0 {
				continue
			}
			refs = append(refs, model.Reference{
				Raw:     doc[start+m[2*g] : start+m[2*g+1]],
				Context: model.ContextCSSURL,
				Start:   start + m[2*g],
				End:     start + m[2*g+1],
			})
			break
		}
	}

	return refs
}

// scanJSONLD extracts "url" values from JSON-LD text in doc[start:end].
func scanJSONLD(doc string, start, end int) []model.Reference {
	var refs []model.Reference

	for _, m := range jsonURLPattern.FindAllStringSubmatchIndex(doc[start:end], -1) {
		refs = append(refs, model.Reference{
			Raw:     doc[start+m[2] : start+m[3]],
			Context: model.ContextJSONURL,
			Start:   start + m[2],
			End:     start + m[3],
		})
	}

	return refs
}

// scanScriptText extracts redirect-idiom references from inline script text
// or onclick handlers in doc[start:end].
func scanScriptText(doc string, start, end int) []model.Reference {
	var refs []model.Reference

	for _, pattern := range scriptURLPatterns {
		for _, m := range pattern.FindAllStringSubmatchIndex(doc[start:end], -1) {
			refs = append(refs, model.Reference{
				Raw:     doc[start+m[2] : start+m[3]],
				Context: model.ContextScriptURL,
				Start:   start + m[2],
				End:     start + m[3],
			})
		}
	}

	return refs
}
