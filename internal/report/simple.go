package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/mkosuda/pagefold/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section
// formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with no entries are shown.
	showEmpty bool

	// verbose enables additional detail in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		showEmpty:  false,
		verbose:    false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report *model.RunReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeSummary(&sb, report)
	w.writeAmbiguous(&sb, report)
	w.writeBrokenLinks(&sb, report)
	w.writeFailures(&sb, report)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with run information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.RunReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         PAGEFOLD REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Site Root:  %s\n", report.SiteRoot))
	sb.WriteString(fmt.Sprintf("Run Date:   %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Phases:     %s\n", strings.Join(report.PerformedPhases, ", ")))

	switch {
	case report.Error != nil:
		sb.WriteString(fmt.Sprintf("Status:     ERROR - %s\n", report.Error))
	case !report.Validation.Clean():
		sb.WriteString("Status:     BROKEN LINKS FOUND\n")
	default:
		sb.WriteString("Status:     Complete\n")
	}

	sb.WriteString("\n")
}

// writeSummary writes the per-phase counter summary.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, report *model.RunReport) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  Pages mapped:         %d\n", report.PagesMapped))
	sb.WriteString(fmt.Sprintf("  Pages moved:          %d\n", len(report.Restructure.Moved)))
	sb.WriteString(fmt.Sprintf("  Already in place:     %d\n", report.Restructure.AlreadyDone))
	sb.WriteString(fmt.Sprintf("  Documents scanned:    %d\n", report.Rewrite.DocumentsScanned))
	sb.WriteString(fmt.Sprintf("  Documents changed:    %d\n", report.Rewrite.DocumentsChanged))
	sb.WriteString(fmt.Sprintf("  References rewritten: %d\n", report.Rewrite.ReferencesRewritten))
	sb.WriteString(fmt.Sprintf("  Legacy references:    %d\n", report.Rewrite.LegacyReferences))
	sb.WriteString(fmt.Sprintf("  Links checked:        %d\n", report.Validation.LinksChecked))
	sb.WriteString(fmt.Sprintf("  Broken links:         %d\n", report.Validation.BrokenTotal))
	sb.WriteString("\n")

	if w.verbose && len(report.PhaseDurations) > 0 {
		for _, phase := range report.PerformedPhases {
			sb.WriteString(fmt.Sprintf("  %-12s %s\n", phase+":", report.PhaseDurations[phase]))
		}
		sb.WriteString("\n")
	}
}

// writeAmbiguous writes the pages whose flattened names need manual review.
func (w *SimpleWriter) writeAmbiguous(sb *strings.Builder, report *model.RunReport) {
	if len(report.AmbiguousPages) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("AMBIGUOUS PAGES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(report.AmbiguousPages) == 0 {
		sb.WriteString("  None\n")
	} else {
		for _, page := range report.AmbiguousPages {
			sb.WriteString(fmt.Sprintf("  [?] %s\n", page))
		}
	}
	sb.WriteString("\n")
}

// writeBrokenLinks writes the broken link detail section.
func (w *SimpleWriter) writeBrokenLinks(sb *strings.Builder, report *model.RunReport) {
	v := report.Validation
	if v.BrokenTotal == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("BROKEN LINKS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if v.BrokenTotal == 0 {
		sb.WriteString("  None\n\n")
		return
	}

	for _, rec := range v.Broken {
		sb.WriteString(fmt.Sprintf("  * %s\n", rec.Link))
		sb.WriteString(fmt.Sprintf("    Source: %s\n", rec.Source))
		sb.WriteString(fmt.Sprintf("    Target: %s\n", rec.Target))
	}

	if v.BrokenTotal > len(v.Broken) {
		sb.WriteString(fmt.Sprintf("\n  ... and %d more (showing first %d)\n",
			v.BrokenTotal-len(v.Broken), len(v.Broken)))
	}
	sb.WriteString("\n")
}

// writeFailures writes per-file failures from the restructure and rewrite
// phases.
func (w *SimpleWriter) writeFailures(sb *strings.Builder, report *model.RunReport) {
	failures := make([]model.MoveFailure, 0, len(report.Restructure.Failures)+len(report.Rewrite.Failures))
	failures = append(failures, report.Restructure.Failures...)
	failures = append(failures, report.Rewrite.Failures...)

	if len(failures) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("SKIPPED FILES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(failures) == 0 {
		sb.WriteString("  None\n")
	} else {
		for _, f := range failures {
			sb.WriteString(fmt.Sprintf("  * %s: %s\n", f.Old, f.Reason))
		}
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by pagefold\n")
	sb.WriteString("https://github.com/mkosuda/pagefold\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
