package model

import (
	"encoding/json"
	"fmt"
	"sort"
)

// PathMapping is the plan for one restructuring run: for every page in the
// site it records the old site-root-relative path and the new one. Pages in
// the skip set map to themselves.
//
// All paths are POSIX-style and relative to the site root. The mapping is
// built once by the mapper, before any file is moved, and must not be
// modified afterwards.
//
// Design decision: We store the mapping as a plain map and iterate in sorted
// key order rather than keeping insertion order because:
//  1. Sorted iteration is deterministic regardless of directory walk order
//  2. The JSON interchange format (a flat object) has no order anyway
//  3. Lookups during rewriting dominate, and map access is O(1)
type PathMapping struct {
	entries map[string]string
}

// NewPathMapping creates an empty PathMapping.
func NewPathMapping() *PathMapping {
	return &PathMapping{entries: make(map[string]string)}
}

// Add records that oldPath moves to newPath.
// It returns an error if oldPath is already mapped to a different target.
func (m *PathMapping) Add(oldPath, newPath string) error {
	if existing, ok := m.entries[oldPath]; ok && existing != newPath {
		return fmt.Errorf("path %q already mapped to %q", oldPath, existing)
	}
	m.entries[oldPath] = newPath
	return nil
}

// Get returns the new path for oldPath and whether a mapping exists.
func (m *PathMapping) Get(oldPath string) (string, bool) {
	newPath, ok := m.entries[oldPath]
	return newPath, ok
}

// Resolve returns the new path for oldPath, or oldPath itself when the file
// is not part of the plan (assets such as images and CSS do not move).
func (m *PathMapping) Resolve(oldPath string) string {
	if newPath, ok := m.entries[oldPath]; ok {
		return newPath
	}
	return oldPath
}

// OldPathFor performs the reverse lookup: given a new path, it returns the
// old path that produced it. Used by the rewrite phase to recover where a
// restructured document used to live.
func (m *PathMapping) OldPathFor(newPath string) (string, bool) {
	for old, neu := range m.entries {
		if neu == newPath {
			return old, true
		}
	}
	return "", false
}

// Len returns the number of mapped pages.
func (m *PathMapping) Len() int {
	return len(m.entries)
}

// Pairs returns all (old, new) pairs sorted by old path.
func (m *PathMapping) Pairs() []MappingPair {
	pairs := make([]MappingPair, 0, len(m.entries))
	for old, neu := range m.entries {
		pairs = append(pairs, MappingPair{Old: old, New: neu})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Old < pairs[j].Old })
	return pairs
}

// MappingPair is a single old-path to new-path entry.
type MappingPair struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// MarshalJSON serializes the mapping as a flat JSON object
// ({"old": "new", ...}), the interchange format consumed by the rewrite
// phase and external tooling.
func (m *PathMapping) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.entries)
}

// UnmarshalJSON restores a mapping from the flat JSON object format.
func (m *PathMapping) UnmarshalJSON(data []byte) error {
	entries := make(map[string]string)
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	m.entries = entries
	return nil
}
