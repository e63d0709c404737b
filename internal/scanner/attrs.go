package scanner

// attrSpan locates one attribute within a raw tag token.
// All offsets are relative to the start of the token.
type attrSpan struct {
	nameStart, nameEnd int
	valStart, valEnd   int
}

// attrSpans parses the raw bytes of a start or self-closing tag token and
// returns the position of every attribute name and value.
//
// We parse the raw bytes ourselves instead of using the tokenizer's TagAttr
// because TagAttr returns unescaped copies with no position information,
// and rewriting needs the exact span of the original value text. The
// grammar here is the tokenizer's own: names up to '=', '/', '>' or
// whitespace; values single-quoted, double-quoted, or unquoted.
func attrSpans(raw []byte) []attrSpan {
	var spans []attrSpan

	n := len(raw)
	i := 0

	// Skip "<" and the tag name.
	if i < n && raw[i] == '<' {
		i++
	}
	for i < n && !isSpace(raw[i]) && raw[i] != '>' && raw[i] != '/' {
		i++
	}

	for i < n {
		// Skip whitespace and stray "/" before the next attribute.
		for i < n && (isSpace(raw[i]) || raw[i] == '/') {
			i++
		}
		if i >= n || raw[i] == '>' {
			break
		}

		// Attribute name.
		nameStart := i
		for i < n && !isSpace(raw[i]) && raw[i] != '=' && raw[i] != '>' && raw[i] != '/' {
			i++
		}
		nameEnd := i

		// Skip whitespace before a possible "=".
		for i < n && isSpace(raw[i]) {
			i++
		}

		if i >= n || raw[i] != '=' {
			// Boolean attribute: empty value span.
			spans = append(spans, attrSpan{nameStart, nameEnd, nameEnd, nameEnd})
			continue
		}
		i++ // consume "="

		for i < n && isSpace(raw[i]) {
			i++
		}
		if i >= n {
			spans = append(spans, attrSpan{nameStart, nameEnd, nameEnd, nameEnd})
			break
		}

		// Attribute value.
		var valStart, valEnd int
		switch raw[i] {
		case '"', '\'':
			quote := raw[i]
			i++
			valStart = i
			for i < n && raw[i] != quote {
				i++
			}
			valEnd = i
			if i < n {
				i++ // consume closing quote
			}
		default:
			valStart = i
			for i < n && !isSpace(raw[i]) && raw[i] != '>' {
				i++
			}
			valEnd = i
		}

		spans = append(spans, attrSpan{nameStart, nameEnd, valStart, valEnd})
	}

	return spans
}

// isSpace reports whether c is HTML whitespace.
func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f':
		return true
	}
	return false
}
