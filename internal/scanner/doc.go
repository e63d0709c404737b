// Package scanner extracts candidate references from documents.
//
// # Architecture
//
// The scanner walks one document at a time and returns every reference
// string it finds, together with its syntactic context and exact byte
// offsets. The rewrite phase uses the offsets to splice replacements back
// into the raw text, so markup the scanner did not touch survives
// byte-for-byte.
//
// Design decision: We tokenize with golang.org/x/net/html rather than regex
// over the whole document because:
//  1. It correctly handles malformed HTML common in CMS exports
//  2. Script and style content is delivered as distinct raw-text tokens
//  3. The tokenizer hands back the raw bytes of every token, which lets us
//     track exact offsets into the original document
//
// Within a single token (a tag's attribute list, a style block, an inline
// script) small regular expressions locate the reference strings. This
// mirrors the layered strategy of the deployment scripts this tool replaces:
// a structural pass for standard attributes, pattern passes for CSS url(...),
// JSON-LD "url" keys, and known JavaScript redirect idioms.
//
// # Surfaces
//
//   - Tag attributes: href, src, action, data-href, data-src, data-link,
//     data-url, data-bg, data-background, and each URL of a srcset list
//   - style attributes and <style> blocks: url(...) occurrences
//   - Standalone CSS text (ScanCSS): the same url(...) pattern
//   - <script type="application/ld+json">: the literal "url":"..." key
//   - Inline <script> text and onclick attributes: redirect('...'),
//     window.location = '...', .href = '...' (best-effort only)
package scanner
