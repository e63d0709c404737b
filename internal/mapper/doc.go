// Package mapper computes the restructuring plan for a static export.
//
// Given the set of HTML pages under the site root, it produces the
// PathMapping from each page's old flat location (about.html) to its
// directory-per-page location (about/index.html). The mapping is computed
// once, before any file is moved, and is the single source of truth for the
// restructure and rewrite phases.
//
// # Flattened filenames
//
// CMS exports sometimes flatten nested URLs into a single filename:
// /sectors/bars-pubs/ becomes sectorsbars-pubs.html. The mapper detects
// these by a configurable list of known directory prefixes, restoring the
// nested layout (sectors/bars-pubs/index.html). A hyphen guard prevents
// standalone hyphenated slugs (news-insights.html) from being misread as
// nested pages (news/-insights).
//
// Design decision: The known-prefix list is configuration, not a constant,
// because the heuristic is inherently ambiguous (servicesdesign-sales could
// be services/design-sales or a coincidentally prefixed slug). Ambiguous
// matches are flagged for manual confirmation instead of being guessed
// silently.
package mapper
