package validate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/mkosuda/pagefold/internal/rewrite"
)

func writeSiteFile(t *testing.T, root, rel, content string) {
	t.Helper()

	abs := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func newTestValidator(root string, opts ...Option) *LinkValidator {
	classifier := rewrite.NewClassifier(nil, nil)
	resolver := rewrite.NewResolver(classifier)
	return New(root, classifier, resolver, opts...)
}

// TestValidate tests broken-reference detection on a restructured tree.
func TestValidate(t *testing.T) {
	t.Parallel()

	t.Run("clean tree", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		writeSiteFile(t, root, "index.html", `<html><body>
<a href="about/">About</a>
<link rel="stylesheet" href="style.css">
<a href="https://other.org/">External</a>
<a href="#top">Top</a>
</body></html>`)
		writeSiteFile(t, root, "about/index.html", `<html><body>
<a href="../">Home</a>
<img src="../images/logo.png">
</body></html>`)
		writeSiteFile(t, root, "style.css", "body{}")
		writeSiteFile(t, root, "images/logo.png", "png")

		report, err := newTestValidator(root).Validate(context.Background())
		if err != nil {
			t.Fatal(err)
		}

		if !report.Clean() {
			t.Errorf("expected a clean report, got %+v", report.Broken)
		}
		if report.FilesChecked != 2 {
			t.Errorf("FilesChecked = %d, expected 2", report.FilesChecked)
		}
		if report.LinksChecked != 4 {
			t.Errorf("LinksChecked = %d, expected 4", report.LinksChecked)
		}
		if report.Skipped["external"] != 1 || report.Skipped["special"] != 1 {
			t.Errorf("Skipped = %+v", report.Skipped)
		}
	})

	t.Run("deleted target is reported once", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		writeSiteFile(t, root, "index.html", `<a href="about/">About</a>`)
		writeSiteFile(t, root, "about/index.html", `<a href="../sectors/bars-pubs/">Pubs</a>`)
		// sectors/bars-pubs/index.html deliberately does not exist.

		report, err := newTestValidator(root).Validate(context.Background())
		if err != nil {
			t.Fatal(err)
		}

		if report.BrokenTotal != 1 {
			t.Fatalf("BrokenTotal = %d, expected 1; broken = %+v", report.BrokenTotal, report.Broken)
		}
		rec := report.Broken[0]
		if rec.Source != "about/index.html" {
			t.Errorf("Source = %q", rec.Source)
		}
		if rec.Link != "../sectors/bars-pubs/" {
			t.Errorf("Link = %q", rec.Link)
		}
		if rec.Target != "sectors/bars-pubs/index.html" {
			t.Errorf("Target = %q", rec.Target)
		}
	})

	t.Run("directory index satisfies extensionless reference", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		writeSiteFile(t, root, "index.html", `<a href="about">About</a>`)
		writeSiteFile(t, root, "about/index.html", "x")

		report, err := newTestValidator(root).Validate(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if !report.Clean() {
			t.Errorf("broken = %+v", report.Broken)
		}
	})

	t.Run("cms endpoints and php are excused", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		writeSiteFile(t, root, "index.html", `<html>
<link rel="alternate" href="wp-json/oembed/1.0/embed?url=x">
<a href="contact.php?form=1">Contact</a>
</html>`)

		report, err := newTestValidator(root).Validate(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if !report.Clean() {
			t.Errorf("broken = %+v", report.Broken)
		}
		if report.Skipped["cms-endpoint"] != 1 || report.Skipped["php"] != 1 {
			t.Errorf("Skipped = %+v", report.Skipped)
		}
	})

	t.Run("duplicate targets counted but detailed once", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		writeSiteFile(t, root, "a.html", `<a href="gone.html">1</a>`)
		writeSiteFile(t, root, "b.html", `<a href="gone.html">2</a>`)

		report, err := newTestValidator(root).Validate(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if report.BrokenTotal != 2 {
			t.Errorf("BrokenTotal = %d, expected 2", report.BrokenTotal)
		}
		if len(report.Broken) != 1 {
			t.Errorf("detail records = %d, expected 1", len(report.Broken))
		}
	})

	t.Run("detail cap keeps the total accurate", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		for i := range 60 {
			writeSiteFile(t, root, fmt.Sprintf("p%02d.html", i),
				fmt.Sprintf(`<a href="missing-%02d.html">x</a>`, i))
		}

		report, err := newTestValidator(root, WithConcurrency(4)).Validate(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if report.BrokenTotal != 60 {
			t.Errorf("BrokenTotal = %d, expected 60", report.BrokenTotal)
		}
		if len(report.Broken) != 50 {
			t.Errorf("detail records = %d, expected 50", len(report.Broken))
		}
	})

	t.Run("canceled context aborts", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		writeSiteFile(t, root, "index.html", `<a href="about/">x</a>`)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if _, err := newTestValidator(root).Validate(ctx); err == nil {
			t.Error("expected a cancellation error")
		}
	})
}
