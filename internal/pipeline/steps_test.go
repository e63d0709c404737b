package pipeline

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mkosuda/pagefold/internal/config"
	"github.com/mkosuda/pagefold/internal/model"
)

// testConfig returns a configuration rooted at the given directory with
// the defaults the CLI would use.
func testConfig(root string) *config.Config {
	cfg := config.NewConfig()
	cfg.SiteRoot = root
	cfg.BaseHref = "/archived-sites"
	cfg.OriginalDomains = []string{"www.example.com"}
	return cfg
}

// TestNewPlanStep tests the PlanStep constructor.
func TestNewPlanStep(t *testing.T) {
	t.Parallel()

	t.Run("creates with defaults", func(t *testing.T) {
		t.Parallel()

		step := NewPlanStep(testConfig(t.TempDir()))

		if step.logger == nil {
			t.Error("expected non-nil logger")
		}
	})

	t.Run("applies WithPlanLogger", func(t *testing.T) {
		t.Parallel()

		logger := slog.Default()
		step := NewPlanStep(testConfig(t.TempDir()), WithPlanLogger(logger))

		if step.logger != logger {
			t.Error("expected custom logger")
		}
	})

	t.Run("Name returns correct value", func(t *testing.T) {
		t.Parallel()

		if got := NewPlanStep(testConfig(t.TempDir())).Name(); got != "plan" {
			t.Errorf("expected name 'plan', got %q", got)
		}
	})
}

// TestPlanStepDo tests mapping construction and persistence.
func TestPlanStepDo(t *testing.T) {
	t.Parallel()

	t.Run("builds and persists the mapping", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		writeDoc(t, root, "index.html", `<html></html>`)
		writeDoc(t, root, "about.html", `<html></html>`)
		writeDoc(t, root, "sectorsbars-pubs.html", `<html></html>`)

		cfg := testConfig(root)
		report := model.NewRunReport(root)

		if err := NewPlanStep(cfg).Do(context.Background(), report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if report.PagesMapped != 3 {
			t.Errorf("expected 3 pages mapped, got %d", report.PagesMapped)
		}
		if report.Mapping == nil {
			t.Fatal("expected mapping on report")
		}
		if got, ok := report.Mapping.Get("about.html"); !ok || got != "about/index.html" {
			t.Errorf("wrong mapping for about.html: %q", got)
		}
		if got, ok := report.Mapping.Get("sectorsbars-pubs.html"); !ok || got != "sectors/bars-pubs/index.html" {
			t.Errorf("wrong mapping for flattened page: %q", got)
		}
		if got, ok := report.Mapping.Get("index.html"); !ok || got != "index.html" {
			t.Errorf("index.html should map to itself, got %q", got)
		}

		mapping, err := LoadMappingFile(cfg.MappingFilePath())
		if err != nil {
			t.Fatalf("failed to load mapping file: %v", err)
		}
		if mapping.Len() != 3 {
			t.Errorf("expected 3 persisted entries, got %d", mapping.Len())
		}
	})

	t.Run("reports ambiguous flattened names", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		writeDoc(t, root, "servicesdesign-sales.html", `<html></html>`)

		report := model.NewRunReport(root)
		if err := NewPlanStep(testConfig(root)).Do(context.Background(), report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(report.AmbiguousPages) != 1 || report.AmbiguousPages[0] != "servicesdesign-sales.html" {
			t.Errorf("wrong ambiguous pages: %v", report.AmbiguousPages)
		}
	})

	t.Run("strict mode rejects ambiguous names", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		writeDoc(t, root, "servicesdesign-sales.html", `<html></html>`)

		cfg := testConfig(root)
		cfg.Strict = true

		err := NewPlanStep(cfg).Do(context.Background(), model.NewRunReport(root))
		if err == nil {
			t.Fatal("expected strict mode error")
		}
		if !strings.Contains(err.Error(), "ambiguous") {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("fails closed on target collision", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		writeDoc(t, root, "about.html", `<html></html>`)
		writeDoc(t, root, "about/index.html", `<html></html>`)

		if err := NewPlanStep(testConfig(root)).Do(context.Background(), model.NewRunReport(root)); err == nil {
			t.Fatal("expected collision error")
		}
	})
}

// TestLoadMappingFile tests mapping file restoration.
func TestLoadMappingFile(t *testing.T) {
	t.Parallel()

	t.Run("round trips through the flat object format", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := filepath.Join(dir, "path-mapping.json")

		mapping := model.NewPathMapping()
		if err := mapping.Add("about.html", "about/index.html"); err != nil {
			t.Fatalf("failed to build mapping: %v", err)
		}
		if err := writeMappingFile(path, mapping); err != nil {
			t.Fatalf("failed to write mapping: %v", err)
		}

		loaded, err := LoadMappingFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got, ok := loaded.Get("about.html"); !ok || got != "about/index.html" {
			t.Errorf("wrong restored mapping: %q", got)
		}
	})

	t.Run("missing file returns error", func(t *testing.T) {
		t.Parallel()

		if _, err := LoadMappingFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
			t.Error("expected error for missing file")
		}
	})
}

// TestStepMapping tests the fallback from in-run mapping to the persisted
// file.
func TestStepMapping(t *testing.T) {
	t.Parallel()

	t.Run("prefers the mapping planned in this run", func(t *testing.T) {
		t.Parallel()

		cfg := testConfig(t.TempDir())
		report := model.NewRunReport(cfg.SiteRoot)
		report.Mapping = model.NewPathMapping()

		mapping, err := stepMapping(cfg, report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if mapping != report.Mapping {
			t.Error("expected in-run mapping to be returned")
		}
	})

	t.Run("falls back to the persisted mapping file", func(t *testing.T) {
		t.Parallel()

		cfg := testConfig(t.TempDir())

		mapping := model.NewPathMapping()
		if err := mapping.Add("about.html", "about/index.html"); err != nil {
			t.Fatalf("failed to build mapping: %v", err)
		}
		if err := writeMappingFile(cfg.MappingFilePath(), mapping); err != nil {
			t.Fatalf("failed to write mapping: %v", err)
		}

		report := model.NewRunReport(cfg.SiteRoot)
		loaded, err := stepMapping(cfg, report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if loaded.Len() != 1 || report.PagesMapped != 1 {
			t.Error("expected persisted mapping to be loaded onto the report")
		}
	})

	t.Run("errors when no mapping is available", func(t *testing.T) {
		t.Parallel()

		cfg := testConfig(t.TempDir())
		if _, err := stepMapping(cfg, model.NewRunReport(cfg.SiteRoot)); err == nil {
			t.Error("expected error with no mapping")
		}
	})
}

// TestRewriteStepStrict tests that strict mode removes blocklisted legacy
// script tags during the rewrite phase.
func TestRewriteStepStrict(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	doc := `<html><body>
<a href="sectorsbars-pubs.html">Bars</a>
<script src="wp-includes/js/wp-emoji-release.min.js"></script>
</body></html>`
	writeDoc(t, root, "about/index.html", doc)
	writeDoc(t, root, "sectors/bars-pubs/index.html", "<html></html>")

	cfg := testConfig(root)
	cfg.Strict = true

	report := model.NewRunReport(root)
	report.Mapping = batchMapping(t)

	if err := NewRewriteStep(cfg).Do(context.Background(), report); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	about := readDoc(t, root, "about/index.html")
	if strings.Contains(about, "wp-emoji-release") {
		t.Errorf("legacy script tag survived strict mode:\n%s", about)
	}
	if !strings.Contains(about, `href="../sectors/bars-pubs/"`) {
		t.Errorf("reference not rewritten:\n%s", about)
	}
	if report.Rewrite.LegacyReferences != 1 {
		t.Errorf("LegacyReferences = %d, expected 1", report.Rewrite.LegacyReferences)
	}
}

// TestDefaultPipeline tests the standard phase composition.
func TestDefaultPipeline(t *testing.T) {
	t.Parallel()

	t.Run("full run includes all phases", func(t *testing.T) {
		t.Parallel()

		p := DefaultPipeline(testConfig(t.TempDir()), slog.Default())

		expected := []string{"plan", "restructure", "rewrite", "validate"}
		names := p.StepNames()
		if len(names) != len(expected) {
			t.Fatalf("expected %d steps, got %v", len(expected), names)
		}
		for i, name := range names {
			if name != expected[i] {
				t.Errorf("step %d: got %q, expected %q", i, name, expected[i])
			}
		}
	})

	t.Run("skip-validate drops the validation phase", func(t *testing.T) {
		t.Parallel()

		cfg := testConfig(t.TempDir())
		cfg.SkipValidate = true

		names := DefaultPipeline(cfg, slog.Default()).StepNames()
		if len(names) != 3 || names[len(names)-1] != "rewrite" {
			t.Errorf("expected plan/restructure/rewrite, got %v", names)
		}
	})

	t.Run("dry run drops the validation phase", func(t *testing.T) {
		t.Parallel()

		cfg := testConfig(t.TempDir())
		cfg.DryRun = true

		if names := DefaultPipeline(cfg, slog.Default()).StepNames(); len(names) != 3 {
			t.Errorf("expected 3 steps in dry run, got %v", names)
		}
	})
}

// TestDefaultPipelineEndToEnd runs the full pipeline over a synthetic flat
// export and checks the restructured tree.
func TestDefaultPipelineEndToEnd(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeDoc(t, root, "index.html",
		`<html><body><a href="about.html">About</a> <a href="sectorsbars-pubs.html">Bars</a></body></html>`)
	writeDoc(t, root, "about.html",
		`<html><body><a href="index.html">Home</a> <a href="sectorsbars-pubs.html">Bars</a></body></html>`)
	writeDoc(t, root, "sectorsbars-pubs.html",
		`<html><body><a href="about.html">About</a> <a href="https://twitter.com/example">X</a></body></html>`)

	cfg := testConfig(root)
	report := model.NewRunReport(root)

	if err := DefaultPipeline(cfg, slog.Default()).Execute(context.Background(), report); err != nil {
		t.Fatalf("pipeline failed: %v", err)
	}

	if !report.Succeeded() {
		t.Errorf("expected successful run: error=%v broken=%d", report.Error, report.Validation.BrokenTotal)
	}
	if report.PagesMapped != 3 {
		t.Errorf("expected 3 pages mapped, got %d", report.PagesMapped)
	}
	if len(report.Restructure.Moved) != 2 {
		t.Errorf("expected 2 moves, got %d", len(report.Restructure.Moved))
	}
	if report.Validation.FilesChecked != 3 {
		t.Errorf("expected 3 files validated, got %d", report.Validation.FilesChecked)
	}
	if report.Validation.BrokenTotal != 0 {
		t.Errorf("expected no broken links, got %v", report.Validation.Broken)
	}

	// Flat pages moved into their directories.
	for _, rel := range []string{"about/index.html", "sectors/bars-pubs/index.html"} {
		if _, err := os.Stat(filepath.Join(root, filepath.FromSlash(rel))); err != nil {
			t.Errorf("expected %s to exist: %v", rel, err)
		}
	}
	if _, err := os.Stat(filepath.Join(root, "about.html")); !os.IsNotExist(err) {
		t.Error("expected flat about.html to be gone")
	}

	about := readDoc(t, root, "about/index.html")
	if !strings.Contains(about, `href="../sectors/bars-pubs/"`) {
		t.Errorf("cross-page reference not rewritten: %s", about)
	}
	if !strings.Contains(about, `href="../"`) {
		t.Errorf("root index reference not rewritten: %s", about)
	}
	index := readDoc(t, root, "index.html")
	if !strings.Contains(index, `href="about/"`) || !strings.Contains(index, `href="sectors/bars-pubs/"`) {
		t.Errorf("root page references not rewritten: %s", index)
	}
	bars := readDoc(t, root, "sectors/bars-pubs/index.html")
	if !strings.Contains(bars, `href="https://twitter.com/example"`) {
		t.Errorf("external reference should be untouched: %s", bars)
	}

	t.Run("second run changes nothing", func(t *testing.T) {
		before := readDoc(t, root, "about/index.html")

		second := model.NewRunReport(root)
		if err := DefaultPipeline(cfg, slog.Default()).Execute(context.Background(), second); err != nil {
			t.Fatalf("second run failed: %v", err)
		}

		if len(second.Restructure.Moved) != 0 {
			t.Errorf("expected no moves on second run, got %v", second.Restructure.Moved)
		}
		if second.Rewrite.DocumentsChanged != 0 {
			t.Errorf("expected no rewrites on second run, got %d", second.Rewrite.DocumentsChanged)
		}
		if got := readDoc(t, root, "about/index.html"); got != before {
			t.Errorf("second run modified a document: %s", got)
		}
	})
}
