// Package rewrite resolves and rewrites references for restructured pages.
//
// # Components
//
//   - Classifier: decides whether a reference is internal, external, or
//     special, in one place instead of scattered prefix checks
//   - Resolver: turns a reference found in a document at its old location
//     into a canonical site-root-relative target path
//   - Rewriter: computes the replacement reference string for the document's
//     new location, preserving query string and fragment
//   - Document: applies scanner results to one document's raw text
//
// # Invariant
//
// For every reference whose resolved target is a page in the path mapping,
// resolving the rewritten reference from the document's new location yields
// the target's new path. The resolver and rewriter are pure functions over
// paths so this round-trip is testable without a filesystem.
//
// Design decision: Rewriting splices replacements into the original text by
// byte offset instead of reserializing a parsed DOM. CMS exports contain
// markup that no serializer reproduces byte-for-byte (attribute order,
// entity spelling, whitespace), and a restructuring tool must not introduce
// diffs in markup it was never asked to touch.
package rewrite
