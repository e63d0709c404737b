package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/mkosuda/pagefold/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.RunReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writeAmbiguous(md, report)
	w.writeBrokenLinks(md, report)
	w.writeFailures(md, report)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.RunReport) {
	md.H1("Pagefold Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Site Root", "`" + report.SiteRoot + "`"},
			{"Run Date", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Phases", strings.Join(report.PerformedPhases, ", ")},
			{"Status", w.getStatusText(report)},
		},
	})
	md.PlainText("")
}

// getStatusText returns the status text based on report state.
func (w *MarkdownWriter) getStatusText(report *model.RunReport) string {
	if report.Error != nil {
		return "❌ Error - " + report.Error.Error()
	}
	if !report.Validation.Clean() {
		return "⚠️ Broken links found"
	}
	return "✅ Complete"
}

// writeSummary writes the per-phase counter summary.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.RunReport) {
	md.H2("Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Counter", "Value"},
		Rows: [][]string{
			{"Pages mapped", strconv.Itoa(report.PagesMapped)},
			{"Pages moved", strconv.Itoa(len(report.Restructure.Moved))},
			{"Already in place", strconv.Itoa(report.Restructure.AlreadyDone)},
			{"Documents scanned", strconv.Itoa(report.Rewrite.DocumentsScanned)},
			{"Documents changed", strconv.Itoa(report.Rewrite.DocumentsChanged)},
			{"References rewritten", strconv.Itoa(report.Rewrite.ReferencesRewritten)},
			{"Legacy references", strconv.Itoa(report.Rewrite.LegacyReferences)},
			{"Links checked", strconv.Itoa(report.Validation.LinksChecked)},
			{"**Broken links**", "**" + strconv.Itoa(report.Validation.BrokenTotal) + "**"},
		},
	})
	md.PlainText("")

	if report.Rewrite.ReferencesFound > 0 {
		w.writePieChart(md, &report.Rewrite)
	}

	w.writeAlert(md, report)
}

// writePieChart writes a mermaid pie chart for reference outcomes.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, rewrite *model.RewriteReport) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Reference Outcomes"),
		piechart.WithShowData(true),
	)

	if rewrite.ReferencesRewritten > 0 {
		chart.LabelAndIntValue("Rewritten", uint64(rewrite.ReferencesRewritten))
	}
	if rewrite.SkippedExternal > 0 {
		chart.LabelAndIntValue("External", uint64(rewrite.SkippedExternal))
	}
	if rewrite.LegacyReferences > 0 {
		chart.LabelAndIntValue("Legacy", uint64(rewrite.LegacyReferences))
	}
	if rewrite.ResolutionFailures > 0 {
		chart.LabelAndIntValue("Unresolved", uint64(rewrite.ResolutionFailures))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an appropriate alert based on the run outcome.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.RunReport) {
	switch {
	case report.Error != nil:
		md.Cautionf("The run stopped early: %s.", report.Error.Error())
	case report.Validation.BrokenTotal > 0:
		md.Warningf(
			"%d broken link(s) remain after restructuring. See the broken links section below.",
			report.Validation.BrokenTotal,
		)
	case len(report.AmbiguousPages) > 0:
		md.Importantf(
			"%d page(s) had ambiguous flattened names. Verify their placement before deploying.",
			len(report.AmbiguousPages),
		)
	default:
		md.Note("All internal references verified after restructuring.")
	}
	md.PlainText("")
}

// writeAmbiguous writes the pages whose flattened names need manual review.
func (w *MarkdownWriter) writeAmbiguous(md *markdown.Markdown, report *model.RunReport) {
	if len(report.AmbiguousPages) == 0 {
		return
	}

	md.H2("Ambiguous Pages")
	md.PlainText("")
	md.BulletList(report.AmbiguousPages...)
	md.PlainText("")
}

// writeBrokenLinks writes the broken link detail section.
func (w *MarkdownWriter) writeBrokenLinks(md *markdown.Markdown, report *model.RunReport) {
	v := report.Validation
	if v.BrokenTotal == 0 {
		return
	}

	md.H2("Broken Links")
	md.PlainText("")

	rows := make([][]string, 0, len(v.Broken))
	for _, rec := range v.Broken {
		rows = append(rows, []string{"`" + rec.Source + "`", "`" + rec.Link + "`", "`" + rec.Target + "`"})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Source", "Link", "Missing Target"},
		Rows:   rows,
	})

	if v.BrokenTotal > len(v.Broken) {
		md.PlainTextf("... and %d more (showing first %d).", v.BrokenTotal-len(v.Broken), len(v.Broken))
	}
	md.PlainText("")
}

// writeFailures writes per-file failures from the restructure and rewrite
// phases.
func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, report *model.RunReport) {
	failures := make([]model.MoveFailure, 0, len(report.Restructure.Failures)+len(report.Rewrite.Failures))
	failures = append(failures, report.Restructure.Failures...)
	failures = append(failures, report.Rewrite.Failures...)

	if len(failures) == 0 {
		return
	}

	md.H2("Skipped Files")
	md.PlainText("")

	rows := make([][]string, 0, len(failures))
	for _, f := range failures {
		rows = append(rows, []string{"`" + f.Old + "`", f.Reason})
	}

	md.Table(markdown.TableSet{
		Header: []string{"File", "Reason"},
		Rows:   rows,
	})
	md.PlainText("")
}
