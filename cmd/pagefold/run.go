package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/mkosuda/pagefold/internal/config"
	"github.com/mkosuda/pagefold/internal/database"
	pagefoldlog "github.com/mkosuda/pagefold/internal/log"
	"github.com/mkosuda/pagefold/internal/model"
	"github.com/mkosuda/pagefold/internal/pipeline"
	"github.com/mkosuda/pagefold/internal/report"
	"github.com/spf13/cobra"
)

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <site-root>",
		Short: "Restructure a site export and rewrite its references",
		Long: `Run executes the full transformation over a static-site export.

It plans the directory-per-page moves, relocates every flat page into its
own directory, rewrites all internal references (HTML attributes, inline
and external CSS, JSON-LD, inline scripts) to the new layout, and finally
validates the tree for broken links.

The run is idempotent: executing it again over an already restructured
tree performs no moves and changes no documents.

Examples:
  # Restructure an export hosted under /archived-sites
  pagefold run --base-href /archived-sites ./example-site

  # Treat absolute URLs on the original domain as internal references
  pagefold run --origin www.example.com --origin example.com ./example-site

  # Preview without touching any file
  pagefold run --dry-run ./example-site

  # Output JSON report to a file
  pagefold run --json -o report.json ./example-site

Configuration file (.pagefold) example:
  baseHref: /archived-sites
  originalDomains:
    - www.example.com
  knownPrefixes:
    - sectors
    - services`,
		Args: cobra.ExactArgs(1),
		RunE: runRunCmd,
	}

	addSiteFlags(cmd)

	cmd.Flags().Bool("dry-run", false,
		"Plan and report without moving or rewriting any file")
	cmd.Flags().Bool("skip-validate", false,
		"Skip the final broken-link validation phase")
	cmd.Flags().Bool("no-db", false,
		"Do not record this run in the history database")
	cmd.Flags().String("db-dir", "",
		"Directory for the run-history database (default: XDG data directory)")

	return cmd
}

// addSiteFlags registers the flags shared by the run, plan, and validate
// commands. buildConfig reads exactly this set.
func addSiteFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("base-href", "b", "",
		"Path prefix of the static host (e.g., /archived-sites)")
	cmd.Flags().StringSlice("origin", nil,
		"Original hostname whose absolute URLs count as internal (repeatable)")
	cmd.Flags().Bool("strict", false,
		"Abort on ambiguous flattened filenames and remove legacy script tags")
	cmd.Flags().Bool("root-relative", false,
		"Resolve references starting with '/' against the site root")
	cmd.Flags().StringSlice("skip", nil,
		"Filename excluded from restructuring (repeatable, replaces defaults)")
	cmd.Flags().StringSlice("prefix", nil,
		"Directory prefix for flattened-filename detection (repeatable, replaces defaults)")
	cmd.Flags().IntP("concurrency", "n", config.DefaultConcurrency,
		"Number of documents processed in parallel")
	cmd.Flags().String("mapping", config.DefaultMappingFile,
		"Path of the mapping file, relative paths resolve against the site root")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .pagefold in site root or home directory)")
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
}

// runRunCmd executes the run command.
func runRunCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	// Run-only flags
	if cfg.DryRun, err = cmd.Flags().GetBool("dry-run"); err != nil {
		return err
	}
	if cfg.SkipValidate, err = cmd.Flags().GetBool("skip-validate"); err != nil {
		return err
	}
	noDB, err := cmd.Flags().GetBool("no-db")
	if err != nil {
		return err
	}
	cfg.DBDir, err = cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	if cfg.DBDir == "" {
		cfg.DBDir = config.XDGDataDir()
	}
	// A dry run changes nothing worth remembering.
	cfg.SaveToDB = !noDB && !cfg.DryRun

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runPipeline(ctx, cfg, logger)
}

// buildConfig creates a Config from cobra command flags.
// Precedence: defaults < configuration file < flags set on the command line.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	siteRoot, err := filepath.Abs(args[0])
	if err != nil {
		return nil, fmt.Errorf("invalid site root %q: %w", args[0], err)
	}
	cfg.SiteRoot = siteRoot
	cfg.Verbose = getVerboseFlag(cmd)

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load settings from the config file.
	// If the user explicitly specified a config file path, error if not
	// found. If no path was specified, silently continue with defaults.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath, cfg.SiteRoot)

	if configPath != "" {
		cf, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cf.Apply(cfg)
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	// Flags set on the command line override the config file. Unset flags
	// must not clobber file values with their defaults, hence Changed.
	flags := cmd.Flags()

	if flags.Changed("base-href") {
		if cfg.BaseHref, err = flags.GetString("base-href"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("origin") {
		if cfg.OriginalDomains, err = flags.GetStringSlice("origin"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("strict") {
		if cfg.Strict, err = flags.GetBool("strict"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("root-relative") {
		if cfg.RootRelative, err = flags.GetBool("root-relative"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("skip") {
		if cfg.SkipFiles, err = flags.GetStringSlice("skip"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("prefix") {
		if cfg.KnownPrefixes, err = flags.GetStringSlice("prefix"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("concurrency") {
		if cfg.Concurrency, err = flags.GetInt("concurrency"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("mapping") {
		if cfg.MappingFile, err = flags.GetString("mapping"); err != nil {
			return nil, err
		}
	}

	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}

	return cfg, nil
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// setupLogger creates a structured logger that shortens site paths.
func setupLogger(cfg *config.Config) *slog.Logger {
	return pagefoldlog.NewLogger(os.Stderr, cfg.SiteRoot, cfg.Verbose)
}

// runPipeline executes the full pipeline and reports the outcome.
func runPipeline(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	mode := "Restructuring"
	if cfg.DryRun {
		mode = "Previewing"
	}
	fmt.Printf("%s %s...\n", mode, cfg.SiteRoot)
	startTime := time.Now()

	runReport := model.NewRunReport(cfg.SiteRoot)
	p := pipeline.DefaultPipeline(cfg, logger)

	execErr := p.Execute(ctx, runReport)
	if execErr == nil {
		fmt.Printf("Run completed in %s\n\n", time.Since(startTime).Round(time.Millisecond))
	}

	// The report is written even for a failed run so the partial result
	// can be inspected.
	if err := outputReport(cfg, runReport); err != nil {
		logger.Error("report failed", "site_root", cfg.SiteRoot, "error", err)
	}

	if execErr != nil {
		return execErr
	}

	if err := writeBrokenLinkReport(cfg, runReport); err != nil {
		logger.Error("failed to write broken-link report", "error", err)
	}

	if err := saveRun(ctx, cfg, runReport, logger); err != nil {
		logger.Error("failed to save run", "site_root", cfg.SiteRoot, "error", err)
	}

	if !runReport.Succeeded() {
		return fmt.Errorf("%d broken link(s) found, details in %s",
			runReport.Validation.BrokenTotal,
			filepath.Join(cfg.SiteRoot, config.DefaultReportFile))
	}
	return nil
}

// outputReport outputs the run report in the requested format.
func outputReport(cfg *config.Config, runReport *model.RunReport) error {
	// Determine output destination
	var output *os.File
	if cfg.ReportFile != "" {
		// Create directories if they don't exist
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	var w report.Writer
	switch {
	case cfg.JSONReport:
		w = report.NewFullJSONWriter(output, getVersion(), report.WithPrettyPrint())
	case cfg.MarkdownReport:
		w = report.NewMarkdownWriter(output)
	default:
		w = report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}

	_, err := w.Write(runReport)
	return err
}

// writeBrokenLinkReport persists broken-link details to the well-known
// report file in the site root when validation found problems.
func writeBrokenLinkReport(cfg *config.Config, runReport *model.RunReport) error {
	if runReport.Validation.Clean() {
		return nil
	}

	path := filepath.Join(cfg.SiteRoot, config.DefaultReportFile)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = report.NewFullJSONWriter(f, getVersion(), report.WithPrettyPrint()).Write(runReport)
	return err
}

// saveRun records the run in the history database if enabled.
func saveRun(ctx context.Context, cfg *config.Config, runReport *model.RunReport, logger *slog.Logger) error {
	if !cfg.SaveToDB {
		return nil
	}

	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	runID, err := db.SaveRun(ctx, runReport, runReport.Mapping)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	logger.Info("run saved to database", "run_id", runID, "dir", cfg.DBDir)
	return nil
}
