package config

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

// Default configuration values. These match the behavior of the original
// deployment scripts where applicable.
const (
	// DefaultConcurrency is the number of documents processed in parallel
	// during the rewrite and validate phases. Rewriting is embarrassingly
	// parallel (no two documents touch the same file), so this is purely a
	// throughput/file-descriptor tradeoff.
	DefaultConcurrency = 8

	// DefaultMappingFile is the JSON file the plan phase writes and the
	// rewrite phase reads. Relative paths are resolved against the site root.
	DefaultMappingFile = "path-mapping.json"

	// DefaultReportFile is the well-known path the broken-link report is
	// written to when validation fails.
	DefaultReportFile = "link-report.json"

	// AppName is the application name used for XDG directory paths.
	AppName = "pagefold"
)

// DefaultSkipFiles are filenames that keep their place during restructuring.
// index.html is already directory-style, 404.html must stay at the root for
// static hosts to find it, and robots.txt/sitemap.xml are not pages at all.
func DefaultSkipFiles() []string {
	return []string{"index.html", "404.html", "robots.txt", "sitemap.xml"}
}

// DefaultKnownPrefixes are the directory prefixes used to detect flattened
// nested pages (sectorsbars-pubs.html -> sectors/bars-pubs/index.html).
//
// The list is configuration rather than a constant inside the mapper because
// the detection heuristic is inherently ambiguous; sites with different URL
// taxonomies must be able to override it.
func DefaultKnownPrefixes() []string {
	return []string{"sectors", "services", "category", "news"}
}

// DefaultLegacyScripts are substrings identifying legacy CMS assets whose
// references are counted during rewriting; strict mode removes their tags.
func DefaultLegacyScripts() []string {
	return []string{"autoptimize", "comment-reply", "wp-embed", "wp-emoji-release", "jquery-migrate"}
}

// Config holds all configuration options for one pagefold run.
// It is populated from defaults, the optional config file, and CLI flags,
// then validated once before the pipeline starts.
type Config struct {
	// SiteRoot is the directory tree being transformed. All paths the engine
	// manipulates are expressed relative to it; no operation may escape it.
	SiteRoot string

	// BaseHref is the path prefix of the static host ("/archived-sites").
	// It is prepended whenever an absolute reference must be emitted.
	BaseHref string

	// OriginalDomains are the hostnames of the site before archiving.
	// Absolute URLs on these hosts are rewritten to site-relative form before
	// resolution, so archived self-references survive the move.
	OriginalDomains []string

	// Strict promotes warnings to actions: ambiguous flattened filenames
	// abort the plan phase instead of being reported for manual review,
	// and blocklisted legacy script tags are removed instead of counted.
	Strict bool

	// RootRelative controls how references starting with "/" are treated.
	// When true they are resolved against the site root; when false (the
	// default) they are considered host-rooted and passed through unchanged.
	RootRelative bool

	// SkipFiles are filenames excluded from restructuring.
	SkipFiles []string

	// KnownPrefixes are directory prefixes for flattened-filename detection.
	KnownPrefixes []string

	// LegacyScripts are substrings identifying legacy CMS assets.
	LegacyScripts []string

	// Concurrency bounds parallel document processing in the rewrite and
	// validate phases.
	Concurrency int

	// MappingFile is where the serialized PathMapping is written and read.
	MappingFile string

	// ConfigFilePath is the explicit config file path, when given.
	ConfigFilePath string

	// JSONReport selects machine-readable JSON report output.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport selects Markdown report output.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is where the report is written. Empty means stdout for the
	// summary, with the broken-link report still going to DefaultReportFile
	// when validation fails.
	ReportFile string

	// DryRun computes and persists the plan but mutates nothing.
	DryRun bool

	// SkipValidate skips the final validation phase.
	SkipValidate bool

	// Verbose enables debug-level logging.
	Verbose bool

	// DBDir is the directory for the run-history SQLite database.
	// Empty disables persistence.
	DBDir string

	// SaveToDB indicates whether run results are saved to the database.
	SaveToDB bool
}

// NewConfig creates a Config with default values.
// All fields are set to safe defaults; callers override what they need.
func NewConfig() *Config {
	return &Config{
		SkipFiles:     DefaultSkipFiles(),
		KnownPrefixes: DefaultKnownPrefixes(),
		LegacyScripts: DefaultLegacyScripts(),
		Concurrency:   DefaultConcurrency,
		MappingFile:   DefaultMappingFile,
	}
}

// XDGDataDir returns the XDG data directory for pagefold.
// On Linux: ~/.local/share/pagefold
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for pagefold.
// On Linux: ~/.config/pagefold
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found; fixing one error often makes later
// ones irrelevant, so there is no multi-error collection here.
func (c *Config) Validate() error {
	if c.SiteRoot == "" {
		return ErrNoSiteRoot
	}

	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if c.MappingFile == "" {
		return ErrNoMappingFile
	}

	// Leading "/" in BaseHref is required so emitted absolute references are
	// actually absolute. An empty BaseHref means the site is hosted at "/".
	if c.BaseHref != "" && c.BaseHref[0] != '/' {
		return ErrInvalidBaseHref
	}

	return nil
}

// MappingFilePath returns the absolute path of the mapping file,
// resolving a relative MappingFile against the site root.
func (c *Config) MappingFilePath() string {
	if filepath.IsAbs(c.MappingFile) {
		return c.MappingFile
	}
	return filepath.Join(c.SiteRoot, c.MappingFile)
}
