package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than creating
// new error instances in Validate(). This allows callers to use errors.Is()
// for programmatic error handling while still providing human-readable
// messages.
var (
	// ErrNoSiteRoot is returned when no site root directory is specified.
	ErrNoSiteRoot = errors.New("no site root specified: provide the directory of the static export")

	// ErrInvalidConcurrency is returned when the concurrency is not positive.
	// Zero workers would mean no documents are ever processed.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrNoMappingFile is returned when the mapping file path is empty.
	// The mapping file is the only interchange between plan and apply.
	ErrNoMappingFile = errors.New("no mapping file specified")

	// ErrInvalidBaseHref is returned when the base href does not start with "/".
	// A relative base href would produce references that depend on the page
	// they appear on.
	ErrInvalidBaseHref = errors.New("invalid base href: must start with '/'")
)
