package model

import "time"

// MaxBrokenLinkDetail caps the number of broken-link records kept with full
// detail. The total count is always accurate; only the per-record detail is
// capped so a badly broken site cannot exhaust memory or flood the report.
const MaxBrokenLinkDetail = 50

// BrokenLinkRecord describes one reference that resolved successfully but
// whose target does not exist after restructuring.
type BrokenLinkRecord struct {
	// Source is the new site-root-relative path of the referring document.
	Source string `json:"source"`

	// Link is the reference string as written in the document.
	Link string `json:"link"`

	// Target is the resolved site-root-relative path that was not found.
	Target string `json:"target"`
}

// MoveRecord describes one file relocation performed by the restructurer.
type MoveRecord struct {
	Old string `json:"old"`
	New string `json:"new"`

	// URL is the resulting public URL of the page, including the configured
	// base href ("/archived-sites/sectors/bars-pubs/").
	URL string `json:"url"`
}

// MoveFailure records a per-file restructuring error. Failures are skipped,
// not fatal: one unreadable file must not abort the batch.
type MoveFailure struct {
	Old    string `json:"old"`
	Reason string `json:"reason"`
}

// RestructureReport is the result of the restructure phase.
type RestructureReport struct {
	// Moved lists every relocation performed in this run. A second run over
	// an already-restructured tree performs no moves.
	Moved []MoveRecord `json:"moved"`

	// AlreadyDone counts mapping entries whose old path no longer exists but
	// whose new path does, i.e. work completed by a previous run.
	AlreadyDone int `json:"already_done"`

	// Failures lists per-file errors encountered and skipped.
	Failures []MoveFailure `json:"failures,omitempty"`
}

// RewriteReport is the result of the rewrite phase, merged across documents.
type RewriteReport struct {
	// DocumentsScanned counts HTML and CSS files examined.
	DocumentsScanned int `json:"documents_scanned"`

	// DocumentsChanged counts files written back with at least one rewrite.
	DocumentsChanged int `json:"documents_changed"`

	// ReferencesFound counts every candidate reference extracted.
	ReferencesFound int `json:"references_found"`

	// ReferencesRewritten counts references whose text actually changed.
	ReferencesRewritten int `json:"references_rewritten"`

	// SkippedExternal counts references classified external or special.
	SkippedExternal int `json:"skipped_external"`

	// LegacyReferences counts references to blocklisted legacy CMS assets.
	LegacyReferences int `json:"legacy_references"`

	// ResolutionFailures counts references that could not be normalized into
	// the site root. The reference is left unmodified and logged.
	ResolutionFailures int `json:"resolution_failures"`

	// Failures lists per-document I/O errors encountered and skipped.
	Failures []MoveFailure `json:"failures,omitempty"`
}

// Merge folds another RewriteReport into this one. Each document is rewritten
// independently and produces its own report; the pipeline merges them rather
// than sharing mutable counters across goroutines.
func (r *RewriteReport) Merge(other RewriteReport) {
	r.DocumentsScanned += other.DocumentsScanned
	r.DocumentsChanged += other.DocumentsChanged
	r.ReferencesFound += other.ReferencesFound
	r.ReferencesRewritten += other.ReferencesRewritten
	r.SkippedExternal += other.SkippedExternal
	r.LegacyReferences += other.LegacyReferences
	r.ResolutionFailures += other.ResolutionFailures
	r.Failures = append(r.Failures, other.Failures...)
}

// ValidationReport is the result of the validate phase.
type ValidationReport struct {
	// FilesChecked counts HTML documents scanned by the validator.
	FilesChecked int `json:"files_checked"`

	// LinksChecked counts internal references whose targets were verified.
	LinksChecked int `json:"links_checked"`

	// BrokenTotal is the accurate total number of broken references found,
	// regardless of the detail cap.
	BrokenTotal int `json:"broken_total"`

	// Broken holds detailed records, capped at MaxBrokenLinkDetail entries
	// and deduplicated by resolved target.
	Broken []BrokenLinkRecord `json:"broken_links,omitempty"`

	// Skipped counts references not checked, keyed by reason
	// ("external", "special", "cms-endpoint", "php", "empty").
	Skipped map[string]int `json:"skipped,omitempty"`
}

// AddBroken records a broken reference, honoring the detail cap.
func (v *ValidationReport) AddBroken(rec BrokenLinkRecord) {
	v.BrokenTotal++
	if len(v.Broken) < MaxBrokenLinkDetail {
		v.Broken = append(v.Broken, rec)
	}
}

// AddSkipped increments the skip counter for the given reason.
func (v *ValidationReport) AddSkipped(reason string) {
	if v.Skipped == nil {
		v.Skipped = make(map[string]int)
	}
	v.Skipped[reason]++
}

// Clean reports whether the validated tree has no broken references.
func (v *ValidationReport) Clean() bool {
	return v.BrokenTotal == 0
}

// RunReport is the accumulated result of one pipeline run.
//
// Design decision: Every phase returns its own report value and the pipeline
// merges them here, instead of phases incrementing shared global counters.
// This keeps each phase independently testable and makes the final report a
// plain value that can be serialized as-is.
type RunReport struct {
	// SiteRoot is the absolute path of the tree that was transformed.
	SiteRoot string `json:"site_root"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// PagesMapped is the number of entries in the path mapping.
	PagesMapped int `json:"pages_mapped"`

	// AmbiguousPages lists flattened filenames whose known-prefix match was
	// ambiguous and needs manual confirmation.
	AmbiguousPages []string `json:"ambiguous_pages,omitempty"`

	// Mapping is the path mapping the run planned or applied. It is carried
	// between phases and persisted separately as the mapping file, not as
	// part of the serialized report.
	Mapping *PathMapping `json:"-"`

	Restructure RestructureReport `json:"restructure"`
	Rewrite     RewriteReport     `json:"rewrite"`
	Validation  ValidationReport  `json:"validation"`

	// PhaseDurations records wall-clock time per completed phase.
	PhaseDurations map[string]time.Duration `json:"phase_durations,omitempty"`

	// PerformedPhases lists phase names in execution order.
	PerformedPhases []string `json:"performed_phases,omitempty"`

	// Error holds the fatal error that stopped the run, if any.
	Error error `json:"-"`

	// ErrorMessage is the string form of Error for serialization.
	ErrorMessage string `json:"error,omitempty"`
}

// NewRunReport creates a RunReport for the given site root.
func NewRunReport(siteRoot string) *RunReport {
	return &RunReport{
		SiteRoot:       siteRoot,
		StartedAt:      time.Now(),
		PhaseDurations: make(map[string]time.Duration),
	}
}

// RecordPhase notes that a phase completed and how long it took.
func (r *RunReport) RecordPhase(name string, elapsed time.Duration) {
	r.PerformedPhases = append(r.PerformedPhases, name)
	r.PhaseDurations[name] = elapsed
}

// Succeeded reports whether the run completed with no fatal error and no
// broken links. This drives the process exit code.
func (r *RunReport) Succeeded() bool {
	return r.Error == nil && r.Validation.Clean()
}
