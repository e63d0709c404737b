// Package model defines the core data structures used throughout pagefold.
//
// This package contains the following main types:
//   - PathMapping: The immutable old-path to new-path plan for one run
//   - Reference: A single candidate reference found in a document
//   - RunReport: The accumulated result of one pipeline run
//   - BrokenLinkRecord: A validator finding for a dangling reference
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. Multiple packages (mapper, scanner, rewrite, validate, report)
// need to use these types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for report output and
// database storage.
package model
