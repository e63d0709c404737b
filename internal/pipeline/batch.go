package pipeline

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"

	"github.com/mkosuda/pagefold/internal/model"
	"github.com/mkosuda/pagefold/internal/rewrite"
)

// DocumentProcessor rewrites every HTML and CSS document under a site root
// concurrently. It uses errgroup to manage goroutines and respect
// concurrency limits.
//
// Design decision: We use a separate DocumentProcessor rather than putting
// concurrency into the rewrite engine because:
// 1. It keeps the engine a pure text transformation, trivially testable
// 2. File I/O and goroutine management live in one place
// 3. It allows different batch strategies (e.g., rate limiting, dry runs)
type DocumentProcessor struct {
	// root is the absolute site root.
	root string

	// engine performs the per-document rewrite.
	engine *rewrite.Engine

	// concurrency is the maximum number of documents processed in parallel.
	concurrency int

	// dryRun skips writing changed documents back to disk.
	dryRun bool

	// logger is used for batch-level logging.
	logger *slog.Logger
}

// BatchOption configures a DocumentProcessor.
type BatchOption func(*DocumentProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *DocumentProcessor) {
		b.logger = logger
	}
}

// WithBatchConcurrency sets the maximum number of concurrent documents.
// Default is 8 if not specified.
func WithBatchConcurrency(n int) BatchOption {
	return func(b *DocumentProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithBatchDryRun makes Process compute every rewrite without writing any
// file back.
func WithBatchDryRun(dryRun bool) BatchOption {
	return func(b *DocumentProcessor) {
		b.dryRun = dryRun
	}
}

// NewDocumentProcessor creates a DocumentProcessor for the given site root.
func NewDocumentProcessor(root string, engine *rewrite.Engine, opts ...BatchOption) *DocumentProcessor {
	bp := &DocumentProcessor{
		root:        root,
		engine:      engine,
		concurrency: 8,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// Process rewrites all documents under the root against the given mapping.
// The tree is expected to be in its post-restructure layout; each
// document's pre-restructure path is recovered from the mapping so
// relative references resolve against the right location.
//
// Design decision: We use errgroup.SetLimit rather than a worker pool
// because it's simpler and errgroup handles the concurrency correctly.
// Each document gets its own goroutine, but only 'concurrency' goroutines
// run simultaneously.
func (bp *DocumentProcessor) Process(ctx context.Context, mapping *model.PathMapping) (model.RewriteReport, error) {
	docs, err := bp.documents()
	if err != nil {
		return model.RewriteReport{}, err
	}

	bp.logger.Info("rewriting documents",
		"total_documents", len(docs),
		"concurrency", bp.concurrency,
	)
	startTime := time.Now()

	// Reverse index: post-restructure path back to the flat original.
	// OldPathFor scans the whole mapping, which is too slow per document.
	oldPaths := make(map[string]string, mapping.Len())
	for _, pair := range mapping.Pairs() {
		oldPaths[pair.New] = pair.Old
	}

	var (
		mu     sync.Mutex
		report model.RewriteReport
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for _, doc := range docs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			// A document found on disk is either already at its new
			// location (normal run) or still at its old one (dry run or a
			// file that never moves). Both paths are needed so references
			// resolve against the old location and re-emit against the new.
			oldPath, newPath := doc, doc
			if old, ok := oldPaths[doc]; ok {
				oldPath = old
			} else {
				newPath = mapping.Resolve(doc)
			}

			local := bp.processOne(doc, oldPath, newPath, mapping)

			mu.Lock()
			report.Merge(local)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return report, err
	}

	bp.logger.Info("rewrite complete",
		"documents_changed", report.DocumentsChanged,
		"references_rewritten", report.ReferencesRewritten,
		"elapsed", time.Since(startTime),
	)

	return report, nil
}

// processOne rewrites a single document and writes it back when changed.
// I/O errors are recorded in the returned report, never raised: one
// unreadable file must not abort the batch.
func (bp *DocumentProcessor) processOne(doc, oldPath, newPath string, mapping *model.PathMapping) model.RewriteReport {
	abs := filepath.Join(bp.root, filepath.FromSlash(doc))

	data, err := os.ReadFile(abs)
	if err != nil {
		bp.logger.Warn("failed to read document", "path", doc, "error", err)
		return model.RewriteReport{
			Failures: []model.MoveFailure{{Old: doc, Reason: err.Error()}},
		}
	}

	text, enc, err := decodeDocument(data)
	if err != nil {
		bp.logger.Warn("failed to decode document", "path", doc, "error", err)
		return model.RewriteReport{
			DocumentsScanned: 1,
			Failures:         []model.MoveFailure{{Old: doc, Reason: err.Error()}},
		}
	}

	var result rewrite.DocumentResult
	if strings.HasSuffix(doc, ".css") {
		result = bp.engine.RewriteCSS(text, doc, mapping)
	} else {
		result = bp.engine.RewriteHTML(text, oldPath, newPath, mapping)
	}

	if !result.Changed || bp.dryRun {
		return result.Report
	}

	// A transcoded document goes back in its original encoding: the text
	// still declares it in <meta charset>.
	out := []byte(result.Text)
	if enc != nil {
		out, _, err = transform.Bytes(enc.NewEncoder(), out)
		if err != nil {
			bp.logger.Warn("failed to encode document", "path", doc, "error", err)
			result.Report.Failures = append(result.Report.Failures, model.MoveFailure{
				Old: doc, Reason: err.Error(),
			})
			return result.Report
		}
	}

	if err := os.WriteFile(abs, out, 0o600); err != nil {
		bp.logger.Warn("failed to write document", "path", doc, "error", err)
		result.Report.Failures = append(result.Report.Failures, model.MoveFailure{
			Old: doc, Reason: err.Error(),
		})
		return result.Report
	}

	bp.logger.Debug("document rewritten",
		"path", doc,
		"references", result.Report.ReferencesRewritten,
	)
	return result.Report
}

// documents walks the site root and returns every HTML and CSS file as a
// site-root-relative POSIX path.
func (bp *DocumentProcessor) documents() ([]string, error) {
	var docs []string

	err := filepath.WalkDir(bp.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !strings.HasSuffix(d.Name(), ".html") && !strings.HasSuffix(d.Name(), ".css") {
			return nil
		}
		rel, err := filepath.Rel(bp.root, p)
		if err != nil {
			return err
		}
		docs = append(docs, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}

	return docs, nil
}

// decodeDocument converts raw document bytes to a UTF-8 string. CMS
// exports are normally UTF-8 already; legacy encodings are detected from
// the content (BOM, meta tag, byte statistics) and transcoded. The
// detected encoding is returned so the caller can write the document back
// in its original form, nil when the bytes were UTF-8 to begin with.
func decodeDocument(data []byte) (string, encoding.Encoding, error) {
	if utf8.Valid(data) {
		return string(data), nil, nil
	}

	enc, _, _ := charset.DetermineEncoding(data, "")
	decoded, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil {
		return "", nil, err
	}
	return string(decoded), enc, nil
}
