package scanner

import (
	"testing"

	"github.com/mkosuda/pagefold/internal/model"
)

// checkOffsets verifies that every reference's span points at its raw text.
func checkOffsets(t *testing.T, doc string, refs []model.Reference) {
	t.Helper()
	for _, r := range refs {
		if r.Start < 0 || r.End > len(doc) || r.Start > r.End {
			t.Fatalf("reference %q has invalid span [%d:%d]", r.Raw, r.Start, r.End)
		}
		if got := doc[r.Start:r.End]; got != r.Raw {
			t.Errorf("span mismatch: doc[%d:%d] = %q, reference raw = %q", r.Start, r.End, got, r.Raw)
		}
	}
}

// find returns the references whose raw string matches.
func find(refs []model.Reference, raw string) []model.Reference {
	var out []model.Reference
	for _, r := range refs {
		if r.Raw == raw {
			out = append(out, r)
		}
	}
	return out
}

// TestScanHTMLAttributes tests extraction from standard and data attributes.
func TestScanHTMLAttributes(t *testing.T) {
	t.Parallel()

	doc := `<html><body>
<a href="about.html">About</a>
<img src="img/logo.png" data-src="img/logo-lazy.png">
<form action="contact.html"></form>
<div data-href="services.html" data-bg="img/bg.jpg"></div>
<a href='single-quoted.html'>q</a>
<img src=unquoted.png>
</body></html>`

	refs := New().ScanHTML(doc)
	checkOffsets(t, doc, refs)

	want := []string{
		"about.html", "img/logo.png", "img/logo-lazy.png", "contact.html",
		"services.html", "img/bg.jpg", "single-quoted.html", "unquoted.png",
	}
	for _, raw := range want {
		if len(find(refs, raw)) == 0 {
			t.Errorf("reference %q not found", raw)
		}
	}

	for _, r := range find(refs, "about.html") {
		if r.Context != model.ContextAttribute || r.Attr != "href" {
			t.Errorf("about.html: got context %q attr %q", r.Context, r.Attr)
		}
	}
}

// TestScanHTMLSrcset tests that each srcset URL is an independent reference.
func TestScanHTMLSrcset(t *testing.T) {
	t.Parallel()

	doc := `<img srcset="img/small.jpg 480w, img/large.jpg 1024w, img/full.jpg">`

	refs := New().ScanHTML(doc)
	checkOffsets(t, doc, refs)

	for _, raw := range []string{"img/small.jpg", "img/large.jpg", "img/full.jpg"} {
		got := find(refs, raw)
		if len(got) != 1 {
			t.Fatalf("srcset URL %q: got %d references, expected 1", raw, len(got))
		}
		if got[0].Attr != "srcset" {
			t.Errorf("srcset URL %q: attr = %q", raw, got[0].Attr)
		}
	}

	// Descriptors must not be picked up as references.
	if len(find(refs, "480w")) != 0 {
		t.Error("srcset descriptor extracted as a reference")
	}
}

// TestScanHTMLCSS tests style attributes and style blocks.
func TestScanHTMLCSS(t *testing.T) {
	t.Parallel()

	doc := `<html><head><style>
.hero { background-image: url("img/hero.jpg"); }
.alt { background: url('img/alt.png') no-repeat; }
.bare { background: url(img/bare.gif); }
</style></head>
<body><div style="background-image: url('img/inline.jpg')"></div></body></html>`

	refs := New().ScanHTML(doc)
	checkOffsets(t, doc, refs)

	for _, raw := range []string{"img/hero.jpg", "img/alt.png", "img/bare.gif", "img/inline.jpg"} {
		got := find(refs, raw)
		if len(got) == 0 {
			t.Fatalf("CSS URL %q not found", raw)
		}
		if got[0].Context != model.ContextCSSURL {
			t.Errorf("CSS URL %q: context = %q", raw, got[0].Context)
		}
	}
}

// TestScanHTMLJSONLD tests structured-data extraction.
func TestScanHTMLJSONLD(t *testing.T) {
	t.Parallel()

	doc := `<script type="application/ld+json">
{"@context":"https://schema.org","@type":"WebPage","url":"about.html","name":"About"}
</script>`

	refs := New().ScanHTML(doc)
	checkOffsets(t, doc, refs)

	got := find(refs, "about.html")
	if len(got) != 1 {
		t.Fatalf("got %d references, expected 1", len(got))
	}
	if got[0].Context != model.ContextJSONURL {
		t.Errorf("context = %q, expected %q", got[0].Context, model.ContextJSONURL)
	}
}

// TestScanHTMLInlineScript tests the heuristic script surface.
func TestScanHTMLInlineScript(t *testing.T) {
	t.Parallel()

	doc := `<button onclick="redirect('contact.html')">Go</button>
<script>
window.location = 'home.html';
document.getElementById('x').href = 'services.html';
</script>`

	refs := New().ScanHTML(doc)
	checkOffsets(t, doc, refs)

	for _, raw := range []string{"contact.html", "home.html", "services.html"} {
		got := find(refs, raw)
		if len(got) == 0 {
			t.Fatalf("script URL %q not found", raw)
		}
		if got[0].Context != model.ContextScriptURL {
			t.Errorf("script URL %q: context = %q", raw, got[0].Context)
		}
	}
}

// TestScanCSS tests standalone CSS scanning.
func TestScanCSS(t *testing.T) {
	t.Parallel()

	doc := `@font-face { src: url("../fonts/a.woff2") format("woff2"); }
.banner { background: url(../img/banner.jpg); }`

	refs := New().ScanCSS(doc)
	checkOffsets(t, doc, refs)

	if len(find(refs, "../fonts/a.woff2")) != 1 {
		t.Error("../fonts/a.woff2 not found")
	}
	if len(find(refs, "../img/banner.jpg")) != 1 {
		t.Error("../img/banner.jpg not found")
	}
	// format("woff2") is not a url(...) occurrence.
	if len(find(refs, "woff2")) != 0 {
		t.Error("format() argument extracted as a reference")
	}
}

// TestScanHTMLMalformed tests that broken markup does not panic and still
// yields what can be salvaged.
func TestScanHTMLMalformed(t *testing.T) {
	t.Parallel()

	doc := `<a href="ok.html"><div><img src="img/x.png" <span>text</a>`

	refs := New().ScanHTML(doc)
	checkOffsets(t, doc, refs)

	if len(find(refs, "ok.html")) == 0 {
		t.Error("ok.html not found in malformed document")
	}
}
