package mapper

import (
	"errors"
	"strings"
	"testing"

	"github.com/mkosuda/pagefold/internal/config"
)

// TestDetectDirectoryStructure tests flattened-filename detection.
func TestDetectDirectoryStructure(t *testing.T) {
	t.Parallel()

	m := New(config.DefaultSkipFiles(), config.DefaultKnownPrefixes())

	tests := []struct {
		name          string
		stem          string
		wantPrefix    string
		wantRemainder string
		wantOK        bool
	}{
		{
			name:          "flattened nested page",
			stem:          "sectorsbars-pubs",
			wantPrefix:    "sectors",
			wantRemainder: "bars-pubs",
			wantOK:        true,
		},
		{
			name:          "flattened without hyphen",
			stem:          "newschristmas",
			wantPrefix:    "news",
			wantRemainder: "christmas",
			wantOK:        true,
		},
		{
			name:   "hyphenated standalone slug",
			stem:   "news-insights",
			wantOK: false,
		},
		{
			name:   "prefix alone is not nested",
			stem:   "services",
			wantOK: false,
		},
		{
			name:   "no known prefix",
			stem:   "about",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			prefix, remainder, ok := m.DetectDirectoryStructure(tt.stem)
			if ok != tt.wantOK {
				t.Fatalf("DetectDirectoryStructure(%q) ok = %v, expected %v", tt.stem, ok, tt.wantOK)
			}
			if prefix != tt.wantPrefix || remainder != tt.wantRemainder {
				t.Errorf("got (%q, %q), expected (%q, %q)", prefix, remainder, tt.wantPrefix, tt.wantRemainder)
			}
		})
	}
}

// TestLongestPrefixWins tests that the most specific prefix is chosen.
func TestLongestPrefixWins(t *testing.T) {
	t.Parallel()

	m := New(nil, []string{"news", "newsletter"})

	prefix, remainder, ok := m.DetectDirectoryStructure("newslettermarch")
	if !ok {
		t.Fatal("expected a match")
	}
	if prefix != "newsletter" || remainder != "march" {
		t.Errorf("got (%q, %q), expected (newsletter, march)", prefix, remainder)
	}
}

// TestBuildMapping tests the full mapping rules.
func TestBuildMapping(t *testing.T) {
	t.Parallel()

	t.Run("directory-per-page layout", func(t *testing.T) {
		t.Parallel()

		m := New(config.DefaultSkipFiles(), config.DefaultKnownPrefixes())
		pages := []string{"index.html", "about.html", "sectorsbars-pubs.html", "news-insights.html"}

		mapping, _, err := m.BuildMapping(pages)
		if err != nil {
			t.Fatal(err)
		}

		want := map[string]string{
			"index.html":            "index.html",
			"about.html":            "about/index.html",
			"sectorsbars-pubs.html": "sectors/bars-pubs/index.html",
			"news-insights.html":    "news-insights/index.html",
		}
		for old, expected := range want {
			got, ok := mapping.Get(old)
			if !ok {
				t.Fatalf("no mapping for %q", old)
			}
			if got != expected {
				t.Errorf("%s: got %q, expected %q", old, got, expected)
			}
		}
	})

	t.Run("skip set maps to itself", func(t *testing.T) {
		t.Parallel()

		m := New(config.DefaultSkipFiles(), nil)
		mapping, _, err := m.BuildMapping([]string{"index.html", "404.html"})
		if err != nil {
			t.Fatal(err)
		}

		for _, p := range []string{"index.html", "404.html"} {
			if got := mapping.Resolve(p); got != p {
				t.Errorf("%s: got %q, expected identity mapping", p, got)
			}
		}
	})

	t.Run("pages outside the skip set always end with /index.html", func(t *testing.T) {
		t.Parallel()

		m := New(config.DefaultSkipFiles(), config.DefaultKnownPrefixes())
		pages := []string{"about.html", "contact.html", "blog/first-post.html", "servicesdesign.html"}

		mapping, _, err := m.BuildMapping(pages)
		if err != nil {
			t.Fatal(err)
		}

		for _, old := range pages {
			neu, _ := mapping.Get(old)
			if neu == old {
				t.Errorf("%s: expected new path to differ from old path", old)
			}
			if !strings.HasSuffix(neu, "/index.html") {
				t.Errorf("%s: new path %q does not end with /index.html", old, neu)
			}
		}
	})

	t.Run("nested source directories are preserved", func(t *testing.T) {
		t.Parallel()

		m := New(config.DefaultSkipFiles(), nil)
		mapping, _, err := m.BuildMapping([]string{"blog/first-post.html"})
		if err != nil {
			t.Fatal(err)
		}

		got, _ := mapping.Get("blog/first-post.html")
		if got != "blog/first-post/index.html" {
			t.Errorf("got %q, expected blog/first-post/index.html", got)
		}
	})

	t.Run("collision fails closed", func(t *testing.T) {
		t.Parallel()

		// about.html and aboutindex... not colliding; construct a real one:
		// "news/christmas.html" and flattened "newschristmas.html" both map
		// to news/christmas/index.html.
		m := New(config.DefaultSkipFiles(), config.DefaultKnownPrefixes())
		_, _, err := m.BuildMapping([]string{"news/christmas.html", "newschristmas.html"})

		var collision *CollisionError
		if !errors.As(err, &collision) {
			t.Fatalf("expected CollisionError, got %v", err)
		}
		if collision.NewPath != "news/christmas/index.html" {
			t.Errorf("contested path: got %q", collision.NewPath)
		}
	})

	t.Run("ambiguous flattened names are flagged", func(t *testing.T) {
		t.Parallel()

		m := New(config.DefaultSkipFiles(), config.DefaultKnownPrefixes())
		_, ambiguousPages, err := m.BuildMapping([]string{"servicesdesign-sales.html", "about.html"})
		if err != nil {
			t.Fatal(err)
		}

		if len(ambiguousPages) != 1 || ambiguousPages[0] != "servicesdesign-sales.html" {
			t.Errorf("ambiguous pages: got %v, expected [servicesdesign-sales.html]", ambiguousPages)
		}
	})
}
