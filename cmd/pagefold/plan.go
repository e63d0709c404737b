package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mkosuda/pagefold/internal/model"
	"github.com/mkosuda/pagefold/internal/pipeline"
	"github.com/spf13/cobra"
)

// NewPlanCmd creates the plan command.
func NewPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan <site-root>",
		Short: "Compute the path mapping without changing any file",
		Long: `Plan walks the site export and decides where every page will move,
then writes the mapping file for review.

No file is moved or rewritten. Run 'pagefold run' afterwards to apply the
reviewed plan; the run re-plans from the same inputs and produces the same
mapping.

Examples:
  # Write path-mapping.json into the site root
  pagefold plan ./example-site

  # Fail instead of guessing on ambiguous flattened filenames
  pagefold plan --strict ./example-site`,
		Args: cobra.ExactArgs(1),
		RunE: runPlanCmd,
	}

	addSiteFlags(cmd)

	return cmd
}

// runPlanCmd executes the plan command.
func runPlanCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg)
	slog.SetDefault(logger)

	runReport := model.NewRunReport(cfg.SiteRoot)

	p := pipeline.New(pipeline.WithLogger(logger))
	p.AddStep(pipeline.NewPlanStep(cfg, pipeline.WithPlanLogger(logger)))

	if err := p.Execute(context.Background(), runReport); err != nil {
		return err
	}

	if cfg.JSONReport || cfg.MarkdownReport || cfg.ReportFile != "" {
		return outputReport(cfg, runReport)
	}

	fmt.Printf("Planned %d page(s), mapping written to %s\n",
		runReport.PagesMapped, cfg.MappingFilePath())

	if len(runReport.AmbiguousPages) > 0 {
		fmt.Printf("\n%d ambiguous flattened filename(s), confirm manually:\n", len(runReport.AmbiguousPages))
		for _, page := range runReport.AmbiguousPages {
			fmt.Printf("  [?] %s\n", page)
		}
	}

	return nil
}
