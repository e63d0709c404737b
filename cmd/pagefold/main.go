// Package main provides the entry point for the pagefold CLI.
//
// Pagefold restructures a flat static-site export (about.html) into a
// directory-per-page layout (about/index.html), rewrites every internal
// reference to match, and validates the result for broken links.
//
// Usage:
//
//	pagefold run <site-root>
//	pagefold plan <site-root>
//
// See --help for all available options.
package main

// main is the entry point for pagefold.
func main() {
	Execute()
}
