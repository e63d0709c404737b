package model

import (
	"encoding/json"
	"testing"
)

// TestPathMappingAdd tests mapping construction.
func TestPathMappingAdd(t *testing.T) {
	t.Parallel()

	t.Run("adds and retrieves entries", func(t *testing.T) {
		t.Parallel()

		m := NewPathMapping()
		if err := m.Add("about.html", "about/index.html"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		got, ok := m.Get("about.html")
		if !ok || got != "about/index.html" {
			t.Errorf("expected 'about/index.html', got %q (ok=%v)", got, ok)
		}
		if m.Len() != 1 {
			t.Errorf("expected length 1, got %d", m.Len())
		}
	})

	t.Run("re-adding the same pair is idempotent", func(t *testing.T) {
		t.Parallel()

		m := NewPathMapping()
		if err := m.Add("about.html", "about/index.html"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := m.Add("about.html", "about/index.html"); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if m.Len() != 1 {
			t.Errorf("expected length 1, got %d", m.Len())
		}
	})

	t.Run("conflicting target returns error", func(t *testing.T) {
		t.Parallel()

		m := NewPathMapping()
		if err := m.Add("about.html", "about/index.html"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := m.Add("about.html", "elsewhere/index.html"); err == nil {
			t.Error("expected error for conflicting mapping")
		}
	})
}

// TestPathMappingResolve tests lookup with identity fallback.
func TestPathMappingResolve(t *testing.T) {
	t.Parallel()

	m := NewPathMapping()
	if err := m.Add("about.html", "about/index.html"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("mapped path resolves to target", func(t *testing.T) {
		t.Parallel()
		if got := m.Resolve("about.html"); got != "about/index.html" {
			t.Errorf("expected 'about/index.html', got %q", got)
		}
	})

	t.Run("unmapped path resolves to itself", func(t *testing.T) {
		t.Parallel()
		if got := m.Resolve("images/logo.png"); got != "images/logo.png" {
			t.Errorf("expected identity, got %q", got)
		}
	})
}

// TestPathMappingOldPathFor tests reverse lookup.
func TestPathMappingOldPathFor(t *testing.T) {
	t.Parallel()

	m := NewPathMapping()
	if err := m.Add("about.html", "about/index.html"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	old, ok := m.OldPathFor("about/index.html")
	if !ok || old != "about.html" {
		t.Errorf("expected 'about.html', got %q (ok=%v)", old, ok)
	}
	if _, ok := m.OldPathFor("missing/index.html"); ok {
		t.Error("expected no reverse match")
	}
}

// TestPathMappingPairs tests deterministic ordering.
func TestPathMappingPairs(t *testing.T) {
	t.Parallel()

	m := NewPathMapping()
	for _, old := range []string{"zebra.html", "about.html", "news.html"} {
		if err := m.Add(old, old+".d/index.html"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	pairs := m.Pairs()
	expected := []string{"about.html", "news.html", "zebra.html"}
	if len(pairs) != len(expected) {
		t.Fatalf("expected %d pairs, got %d", len(expected), len(pairs))
	}
	for i, old := range expected {
		if pairs[i].Old != old {
			t.Errorf("pair %d: got %q, expected %q", i, pairs[i].Old, old)
		}
	}
}

// TestPathMappingJSON tests the flat object interchange format.
func TestPathMappingJSON(t *testing.T) {
	t.Parallel()

	t.Run("marshals as a flat object", func(t *testing.T) {
		t.Parallel()

		m := NewPathMapping()
		if err := m.Add("about.html", "about/index.html"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		data, err := json.Marshal(m)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(data) != `{"about.html":"about/index.html"}` {
			t.Errorf("unexpected JSON: %s", data)
		}
	})

	t.Run("round trips", func(t *testing.T) {
		t.Parallel()

		restored := NewPathMapping()
		if err := json.Unmarshal([]byte(`{"about.html":"about/index.html"}`), restored); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got, ok := restored.Get("about.html"); !ok || got != "about/index.html" {
			t.Errorf("wrong restored mapping: %q", got)
		}
	})
}
