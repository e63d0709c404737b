package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/mkosuda/pagefold/internal/config"
	"github.com/mkosuda/pagefold/internal/model"
	"github.com/mkosuda/pagefold/internal/pipeline"
	"github.com/spf13/cobra"
)

// NewValidateCmd creates the validate command.
func NewValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <site-root>",
		Short: "Check a restructured site for broken internal links",
		Long: `Validate scans every HTML document under the site root and verifies that
each internal reference resolves to an existing file, accepting either the
target itself or its directory index.

External URLs, fragments, mailto/tel/javascript/data references, and
legacy CMS endpoints are not checked. Broken-link details are written to
link-report.json in the site root.

The command exits non-zero when broken links are found.

Examples:
  # Validate a restructured export
  pagefold validate ./example-site

  # Validate with the original domain treated as internal
  pagefold validate --origin www.example.com ./example-site`,
		Args: cobra.ExactArgs(1),
		RunE: runValidateCmd,
	}

	addSiteFlags(cmd)

	return cmd
}

// runValidateCmd executes the validate command.
func runValidateCmd(cmd *cobra.Command, args []string) error {
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
	p.AddStep(pipeline.NewValidateStep(cfg, pipeline.WithValidateLogger(logger)))

	if err := p.Execute(context.Background(), runReport); err != nil {
		return err
	}

	if err := outputReport(cfg, runReport); err != nil {
		logger.Error("report failed", "site_root", cfg.SiteRoot, "error", err)
	}

	if err := writeBrokenLinkReport(cfg, runReport); err != nil {
		logger.Error("failed to write broken-link report", "error", err)
	}

	if !runReport.Validation.Clean() {
		return fmt.Errorf("%d broken link(s) found, details in %s",
			runReport.Validation.BrokenTotal,
			filepath.Join(cfg.SiteRoot, config.DefaultReportFile))
	}
	return nil
}
