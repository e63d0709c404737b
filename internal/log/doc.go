// Package log provides logging for pagefold, built on top of the standard
// slog package.
//
// This package extends slog to provide:
//   - Consistent log formatting across the application
//   - Configurable log levels with verbose mode support
//   - Automatic shortening of absolute site paths in log attributes
//
// # Path Shortening
//
// Restructuring runs emit thousands of per-file log lines. Every one of
// them would otherwise repeat the absolute site root, which buries the
// interesting part of the path. The RelativeHandler trims the configured
// site root prefix from string attributes, so
//
//	/home/user/export/site/sectors/bars-pubs/index.html
//
// is logged as
//
//	sectors/bars-pubs/index.html
//
// # Usage
//
//	// Create a logger rooted at the site directory
//	logger := log.NewLogger(os.Stderr, siteRoot, verbose)
//
//	// Use as a standard slog.Logger
//	logger.Info("moved page", "path", oldAbs, "target", newAbs)
//
//	// Set as default logger
//	slog.SetDefault(logger)
package log
