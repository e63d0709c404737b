// Package restructure relocates flat CMS-exported pages into the
// directory-per-page layout described by a path mapping.
package restructure

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mkosuda/pagefold/internal/model"
)

// FileRestructurer applies a path mapping to the files on disk, moving
// each flat page ("about.html") to its directory form ("about/index.html").
//
// Design decision: Every move is independently retryable. A failure on one
// file is recorded and skipped rather than aborting the batch, and a mapping
// entry whose move already happened is recognized and counted instead of
// re-attempted, so the operation can be re-run safely after a partial run.
type FileRestructurer struct {
	root     string
	baseHref string
	dryRun   bool
	logger   *slog.Logger
}

// Option configures a FileRestructurer.
type Option func(*FileRestructurer)

// WithBaseHref sets the path prefix used when reporting public URLs.
func WithBaseHref(baseHref string) Option {
	return func(f *FileRestructurer) {
		f.baseHref = strings.TrimSuffix(baseHref, "/")
	}
}

// WithDryRun makes Apply report the moves it would perform without
// touching the filesystem.
func WithDryRun(dryRun bool) Option {
	return func(f *FileRestructurer) {
		f.dryRun = dryRun
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *FileRestructurer) {
		f.logger = logger
	}
}

// New creates a FileRestructurer rooted at the given site directory.
func New(root string, opts ...Option) *FileRestructurer {
	f := &FileRestructurer{root: root}

	for _, opt := range opts {
		opt(f)
	}

	if f.logger == nil {
		f.logger = slog.Default()
	}

	return f
}

// Apply moves every mapped file into place. Mapping entries whose old and
// new paths are equal describe files that stay put and are not touched.
// The returned report lists the moves performed, the entries found already
// done, and the per-file failures skipped.
func (f *FileRestructurer) Apply(ctx context.Context, mapping *model.PathMapping) model.RestructureReport {
	var report model.RestructureReport

	for _, pair := range mapping.Pairs() {
		if err := ctx.Err(); err != nil {
			report.Failures = append(report.Failures, model.MoveFailure{
				Old:    pair.Old,
				Reason: err.Error(),
			})
			f.logger.Warn("restructure interrupted", "remaining_from", pair.Old)
			return report
		}

		if pair.Old == pair.New {
			continue
		}

		f.moveOne(pair, &report)
	}

	return report
}

func (f *FileRestructurer) moveOne(pair model.MappingPair, report *model.RestructureReport) {
	oldAbs := filepath.Join(f.root, filepath.FromSlash(pair.Old))
	newAbs := filepath.Join(f.root, filepath.FromSlash(pair.New))

	_, oldErr := os.Stat(oldAbs)
	_, newErr := os.Stat(newAbs)

	switch {
	case os.IsNotExist(oldErr) && newErr == nil:
		// A previous run already moved this page.
		report.AlreadyDone++
		return
	case os.IsNotExist(oldErr):
		report.Failures = append(report.Failures, model.MoveFailure{
			Old:    pair.Old,
			Reason: "source file not found",
		})
		f.logger.Warn("source file not found", "path", pair.Old)
		return
	case oldErr != nil:
		report.Failures = append(report.Failures, model.MoveFailure{
			Old:    pair.Old,
			Reason: oldErr.Error(),
		})
		return
	case newErr == nil:
		// Both exist: something else already occupies the target. Moving
		// would silently overwrite a page, so this entry fails closed.
		report.Failures = append(report.Failures, model.MoveFailure{
			Old:    pair.Old,
			Reason: "target already exists: " + pair.New,
		})
		f.logger.Warn("target already exists, skipping move", "path", pair.Old, "target", pair.New)
		return
	}

	record := model.MoveRecord{
		Old: pair.Old,
		New: pair.New,
		URL: f.publicURL(pair.New),
	}

	if f.dryRun {
		f.logger.Info("would move page", "path", pair.Old, "target", pair.New, "url", record.URL)
		report.Moved = append(report.Moved, record)
		return
	}

	if err := os.MkdirAll(filepath.Dir(newAbs), 0o750); err != nil {
		report.Failures = append(report.Failures, model.MoveFailure{
			Old:    pair.Old,
			Reason: err.Error(),
		})
		f.logger.Warn("failed to create page directory", "path", pair.Old, "error", err)
		return
	}

	if err := os.Rename(oldAbs, newAbs); err != nil {
		report.Failures = append(report.Failures, model.MoveFailure{
			Old:    pair.Old,
			Reason: err.Error(),
		})
		f.logger.Warn("failed to move page", "path", pair.Old, "error", err)
		return
	}

	f.logger.Info("moved page", "path", pair.Old, "target", pair.New, "url", record.URL)
	report.Moved = append(report.Moved, record)
}

// publicURL is the URL the moved page is served at, in directory form.
func (f *FileRestructurer) publicURL(newPath string) string {
	u := f.baseHref + "/" + newPath
	if strings.HasSuffix(u, "/index.html") {
		u = strings.TrimSuffix(u, "index.html")
	}
	return u
}
