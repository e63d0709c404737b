package mapper

import (
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strings"

	"github.com/mkosuda/pagefold/internal/model"
)

// CollisionError is returned when two pages map to the same new path.
// The mapper fails closed: no file is moved when the plan is inconsistent,
// because applying it would silently overwrite one of the pages.
type CollisionError struct {
	// NewPath is the contested target path.
	NewPath string

	// OldPaths are the source pages that both claimed NewPath.
	OldPaths []string
}

// Error implements the error interface.
func (e *CollisionError) Error() string {
	return fmt.Sprintf("mapping collision: %s claimed by %s", e.NewPath, strings.Join(e.OldPaths, " and "))
}

// Mapper computes the old-path to new-path plan for a site.
type Mapper struct {
	// skip holds lowercase filenames excluded from restructuring.
	skip map[string]bool

	// prefixes are known directory prefixes, longest first so that the most
	// specific prefix wins when several match.
	prefixes []string

	// logger for structured logging.
	logger *slog.Logger
}

// Option configures a Mapper.
type Option func(*Mapper)

// WithLogger sets a custom logger for the mapper.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Mapper) {
		m.logger = logger
	}
}

// New creates a Mapper with the given skip set and known directory prefixes.
func New(skipFiles, knownPrefixes []string, opts ...Option) *Mapper {
	m := &Mapper{
		skip:     make(map[string]bool, len(skipFiles)),
		prefixes: make([]string, len(knownPrefixes)),
	}

	for _, name := range skipFiles {
		m.skip[strings.ToLower(name)] = true
	}

	copy(m.prefixes, knownPrefixes)
	sort.Slice(m.prefixes, func(i, j int) bool {
		return len(m.prefixes[i]) > len(m.prefixes[j])
	})

	for _, opt := range opts {
		opt(m)
	}

	if m.logger == nil {
		m.logger = slog.Default()
	}

	return m
}

// DetectDirectoryStructure checks whether a page stem encodes a flattened
// nested URL. It returns the directory prefix and the remaining slug, or
// ok=false when the stem is a standalone page.
//
// The hyphen guard: a remainder starting with "-" means the stem is a
// hyphenated standalone slug (news-insights), not a flattened nested page
// (news/-insights does not exist as a URL).
func (m *Mapper) DetectDirectoryStructure(stem string) (prefix, remainder string, ok bool) {
	for _, p := range m.prefixes {
		if !strings.HasPrefix(stem, p) {
			continue
		}
		rest := stem[len(p):]
		if rest == "" || strings.HasPrefix(rest, "-") {
			continue
		}
		return p, rest, true
	}
	return "", "", false
}

// ambiguous reports whether a detected flattened match could equally be a
// coincidentally prefixed standalone slug. A hyphen later in the remainder
// is the signal: servicesdesign-sales may be services/design-sales or a
// single page called "servicesdesign-sales".
func ambiguous(remainder string) bool {
	return strings.Contains(remainder, "-")
}

// NewPath returns the directory-per-page path for one page, whether the
// result came from flattened-filename detection, and whether the detection
// was ambiguous.
func (m *Mapper) NewPath(oldPath string) (newPath string, flattened, ambig bool) {
	name := path.Base(oldPath)
	if m.skip[strings.ToLower(name)] {
		return oldPath, false, false
	}

	parent := path.Dir(oldPath)
	stem := strings.TrimSuffix(name, path.Ext(name))

	// path.Join cleans a "." parent, so root-level pages come out without
	// a leading "./".
	if prefix, remainder, ok := m.DetectDirectoryStructure(stem); ok {
		return path.Join(parent, prefix, remainder, "index.html"), true, ambiguous(remainder)
	}

	return path.Join(parent, stem, "index.html"), false, false
}

// BuildMapping computes the PathMapping for the given pages. Paths are
// site-root-relative POSIX paths. It also returns the list of pages whose
// flattened-filename detection was ambiguous, for manual confirmation.
//
// The pages are processed in sorted order so the result is deterministic
// regardless of directory walk order.
func (m *Mapper) BuildMapping(pages []string) (*model.PathMapping, []string, error) {
	sorted := make([]string, len(pages))
	copy(sorted, pages)
	sort.Strings(sorted)

	mapping := model.NewPathMapping()
	claimed := make(map[string]string, len(sorted))
	var ambiguousPages []string

	for _, old := range sorted {
		neu, flattened, ambig := m.NewPath(old)

		if prev, ok := claimed[neu]; ok && prev != old {
			return nil, nil, &CollisionError{NewPath: neu, OldPaths: []string{prev, old}}
		}
		claimed[neu] = old

		if err := mapping.Add(old, neu); err != nil {
			return nil, nil, err
		}

		if ambig {
			ambiguousPages = append(ambiguousPages, old)
			m.logger.Warn("ambiguous flattened filename, confirm manually",
				"page", old,
				"assumed", neu,
			)
		} else if flattened {
			m.logger.Debug("flattened page detected",
				"page", old,
				"new", neu,
			)
		}
	}

	return mapping, ambiguousPages, nil
}
