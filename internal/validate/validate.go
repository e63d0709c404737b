// Package validate checks a restructured site tree for broken internal
// references.
package validate

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/mkosuda/pagefold/internal/model"
	"github.com/mkosuda/pagefold/internal/rewrite"
	"github.com/mkosuda/pagefold/internal/scanner"
)

// DefaultConcurrency is the number of documents validated in parallel when
// no limit is configured.
const DefaultConcurrency = 8

// cmsEndpointMarkers identify REST and oEmbed endpoints that only exist on
// a live CMS. They are expected to dangle in a static export and are not
// worth reporting.
var cmsEndpointMarkers = []string{"wp-json", "oembed"}

// LinkValidator scans every HTML document under a site root and verifies
// that each internal reference points at an existing file. A reference to
// "x" is satisfied by either the file "x" or the directory index
// "x/index.html", matching how static hosts serve directory URLs.
type LinkValidator struct {
	root        string
	classifier  *rewrite.Classifier
	resolver    *rewrite.Resolver
	scanner     *scanner.Scanner
	concurrency int
	logger      *slog.Logger
}

// Option configures a LinkValidator.
type Option func(*LinkValidator)

// WithConcurrency limits how many documents are validated in parallel.
func WithConcurrency(n int) Option {
	return func(v *LinkValidator) {
		if n > 0 {
			v.concurrency = n
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(v *LinkValidator) {
		v.logger = logger
	}
}

// New creates a LinkValidator for the site tree rooted at root.
func New(root string, classifier *rewrite.Classifier, resolver *rewrite.Resolver, opts ...Option) *LinkValidator {
	v := &LinkValidator{
		root:        root,
		classifier:  classifier,
		resolver:    resolver,
		scanner:     scanner.New(),
		concurrency: DefaultConcurrency,
	}

	for _, opt := range opts {
		opt(v)
	}

	if v.logger == nil {
		v.logger = slog.Default()
	}

	return v
}

// Validate walks the site tree and checks every reference in every HTML
// document. Documents are processed concurrently; the returned report is
// complete when Validate returns. The error is non-nil only for walk
// failures or context cancellation, never for broken links.
func (v *LinkValidator) Validate(ctx context.Context) (model.ValidationReport, error) {
	files, err := v.htmlFiles()
	if err != nil {
		return model.ValidationReport{}, err
	}

	var (
		mu     sync.Mutex
		report model.ValidationReport
		seen   = make(map[string]bool)
		cache  = newExistsCache(v.root)
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(v.concurrency)

	for _, file := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			local := v.validateFile(file, cache)

			mu.Lock()
			defer mu.Unlock()
			report.FilesChecked++
			report.LinksChecked += local.links
			for reason, n := range local.skipped {
				if report.Skipped == nil {
					report.Skipped = make(map[string]int)
				}
				report.Skipped[reason] += n
			}
			for _, rec := range local.broken {
				// Detail records are deduplicated by resolved target across
				// the whole run; the total stays accurate.
				if seen[rec.Target] {
					report.BrokenTotal++
					continue
				}
				seen[rec.Target] = true
				report.AddBroken(rec)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return report, err
	}

	return report, nil
}

// fileResult accumulates one document's findings before they are merged
// into the shared report under the lock.
type fileResult struct {
	links   int
	broken  []model.BrokenLinkRecord
	skipped map[string]int
}

func (r *fileResult) skip(reason string) {
	if r.skipped == nil {
		r.skipped = make(map[string]int)
	}
	r.skipped[reason]++
}

func (v *LinkValidator) validateFile(rel string, cache *existsCache) fileResult {
	var result fileResult

	data, err := os.ReadFile(filepath.Join(v.root, filepath.FromSlash(rel)))
	if err != nil {
		v.logger.Warn("failed to read document", "path", rel, "error", err)
		result.skip("unreadable")
		return result
	}

	for _, ref := range v.scanner.ScanHTML(string(data)) {
		raw := strings.TrimSpace(ref.Raw)

		switch v.classifier.Classify(raw) {
		case rewrite.ClassSkip:
			result.skip("special")
			continue
		case rewrite.ClassExternal:
			result.skip("external")
			continue
		case rewrite.ClassInternal:
		}

		if reason, ok := skipHeuristic(raw); ok {
			result.skip(reason)
			continue
		}

		target := v.resolver.Resolve(raw, rel)
		if target == nil {
			result.skip("unresolved")
			continue
		}

		result.links++
		if cache.exists(target.Path) {
			continue
		}

		v.logger.Warn("broken reference",
			"source", rel,
			"ref", raw,
			"target", target.Path,
		)
		result.broken = append(result.broken, model.BrokenLinkRecord{
			Source: rel,
			Link:   raw,
			Target: target.Path,
		})
	}

	return result
}

// skipHeuristic reports references that are known to dangle in a static
// export and the reason they are excused.
func skipHeuristic(raw string) (string, bool) {
	if raw == "" {
		return "empty", true
	}

	lower := strings.ToLower(raw)
	for _, marker := range cmsEndpointMarkers {
		if strings.Contains(lower, marker) {
			return "cms-endpoint", true
		}
	}

	refPath, _, _ := rewrite.SplitRef(lower)
	if strings.HasSuffix(refPath, ".php") {
		return "php", true
	}

	return "", false
}

// htmlFiles walks the site root and returns every HTML document as a
// site-root-relative POSIX path.
func (v *LinkValidator) htmlFiles() ([]string, error) {
	var files []string

	err := filepath.WalkDir(v.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".html") {
			return nil
		}
		rel, err := filepath.Rel(v.root, p)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}

// existsCache memoizes target existence checks. Every page in a site links
// to the same stylesheets and navigation targets, so the same paths are
// checked over and over.
type existsCache struct {
	root string

	mu sync.Mutex
	m  map[string]bool
}

func newExistsCache(root string) *existsCache {
	return &existsCache{root: root, m: make(map[string]bool)}
}

// exists reports whether target (site-root-relative) is satisfied by a
// file of that name or by its directory index.
func (c *existsCache) exists(target string) bool {
	c.mu.Lock()
	if ok, hit := c.m[target]; hit {
		c.mu.Unlock()
		return ok
	}
	c.mu.Unlock()

	ok := c.statOne(target)
	if !ok && !strings.HasSuffix(target, ".html") {
		ok = c.statOne(path.Join(target, "index.html"))
	}

	c.mu.Lock()
	c.m[target] = ok
	c.mu.Unlock()
	return ok
}

func (c *existsCache) statOne(rel string) bool {
	_, err := os.Stat(filepath.Join(c.root, filepath.FromSlash(rel)))
	return err == nil
}
