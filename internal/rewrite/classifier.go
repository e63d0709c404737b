package rewrite

import "strings"

// Class is the classification of a reference string.
type Class int

const (
	// ClassInternal references live inside the site and are rewritten.
	ClassInternal Class = iota

	// ClassExternal references leave the site (other hosts, protocol-relative
	// URLs). They pass through untouched; correctness for externally hosted
	// resources is out of scope.
	ClassExternal

	// ClassSkip references are special schemes or non-navigating values
	// (mailto:, tel:, javascript:, data:, fragment-only, empty).
	ClassSkip
)

// String returns the class name for logging.
func (c Class) String() string {
	switch c {
	case ClassInternal:
		return "internal"
	case ClassExternal:
		return "external"
	case ClassSkip:
		return "skip"
	}
	return "unknown"
}

// externalPrefixes mark references that leave the site.
var externalPrefixes = []string{"http://", "https://", "//"}

// skipPrefixes mark references that never navigate within the site.
var skipPrefixes = []string{"#", "mailto:", "tel:", "javascript:", "data:"}

// Classifier decides how a reference string is treated.
//
// Design decision: One classifier with explicit variants replaces the
// near-duplicate "is this external" checks the deployment scripts repeated
// in every component. Every surface now skips exactly the same references.
type Classifier struct {
	// originalDomains are hostnames of the site before archiving. Absolute
	// URLs on these hosts are internal self-references in disguise.
	originalDomains []string

	// legacyScripts are substrings identifying legacy CMS assets.
	legacyScripts []string
}

// NewClassifier creates a Classifier.
func NewClassifier(originalDomains, legacyScripts []string) *Classifier {
	return &Classifier{
		originalDomains: originalDomains,
		legacyScripts:   legacyScripts,
	}
}

// Classify returns the class of a raw reference string.
// References on a configured original domain classify as internal; use
// StripDomain to obtain their site-relative form.
func (c *Classifier) Classify(raw string) Class {
	ref := strings.TrimSpace(raw)
	if ref == "" {
		return ClassSkip
	}

	for _, p := range skipPrefixes {
		if strings.HasPrefix(ref, p) {
			return ClassSkip
		}
	}

	if _, ok := c.StripDomain(ref); ok {
		return ClassInternal
	}

	for _, p := range externalPrefixes {
		if strings.HasPrefix(ref, p) {
			return ClassExternal
		}
	}

	return ClassInternal
}

// StripDomain converts an absolute URL on one of the original domains into
// its site-rooted path ("https://www.example.com/about.html" -> "/about.html").
// It returns ok=false for any other reference.
func (c *Classifier) StripDomain(raw string) (string, bool) {
	ref := strings.TrimSpace(raw)

	for _, domain := range c.originalDomains {
		for _, scheme := range []string{"https://", "http://", "//"} {
			prefix := scheme + domain
			if !strings.HasPrefix(ref, prefix) {
				continue
			}
			rest := ref[len(prefix):]
			if rest == "" {
				return "/", true
			}
			if rest[0] == '/' || rest[0] == '?' || rest[0] == '#' {
				return rest, true
			}
			// Longer hostname with the same prefix (example.com.evil.net).
		}
	}

	return "", false
}

// IsLegacyAsset reports whether a reference points at a blocklisted legacy
// CMS asset (jquery-migrate, wp-emoji-release, ...). Such references are
// counted and logged; in strict mode the engine drops their script tags.
func (c *Classifier) IsLegacyAsset(raw string) bool {
	lower := strings.ToLower(raw)
	for _, s := range c.legacyScripts {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}
