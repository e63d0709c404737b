package main

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/mkosuda/pagefold/internal/config"
	"github.com/mkosuda/pagefold/internal/database"
	"github.com/mkosuda/pagefold/internal/report"
	"github.com/spf13/cobra"
)

// NewHistoryCmd creates the history command.
// This command inspects past runs stored in the history database.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [site-root]",
		Short: "Show past runs recorded in the history database",
		Long: `History lists the runs pagefold has recorded, newest first.

With a site root argument, only runs for that site are shown. Each run
stores its full report and path mapping, so a past transformation can be
audited after the fact.

Examples:
  # List all recorded runs
  pagefold history

  # List runs for one site
  pagefold history ./example-site

  # Show the latest full report for a site
  pagefold history --latest ./example-site

  # Dump the path mapping stored with run 3
  pagefold history --show-mapping 3

  # Output run metadata as JSON
  pagefold history --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().BoolP("latest", "l", false,
		"Show the full report of the latest run for the given site root")
	cmd.Flags().Int64P("show-mapping", "s", 0,
		"Print the path mapping stored with the given run ID")
	cmd.Flags().BoolP("json", "j", false,
		"Output metadata in JSON format")
	cmd.Flags().String("db-dir", "",
		"Directory of the run-history database (default: XDG data directory)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	var siteRoot string
	if len(args) > 0 {
		siteRoot, err = filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("invalid site root %q: %w", args[0], err)
		}
	}

	// History never creates the database: an empty history is an error the
	// user should see, not a silent empty table.
	db, err := database.Open(dbDir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		return fmt.Errorf("no run history available: %w", err)
	}
	defer db.Close()

	ctx := context.Background()

	mappingRunID, err := cmd.Flags().GetInt64("show-mapping")
	if err != nil {
		return err
	}
	if mappingRunID > 0 {
		return showMapping(ctx, db, mappingRunID, cmd)
	}

	latest, err := cmd.Flags().GetBool("latest")
	if err != nil {
		return err
	}
	if latest {
		if siteRoot == "" {
			return fmt.Errorf("--latest requires a site root argument")
		}
		return showLatestRun(ctx, db, siteRoot, cmd)
	}

	jsonOut, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	return listRuns(ctx, db, siteRoot, jsonOut, cmd)
}

// showMapping prints the path mapping stored with one run.
func showMapping(ctx context.Context, db *database.RunDB, runID int64, cmd *cobra.Command) error {
	mapping, err := db.GetMapping(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to load mapping for run %d: %w", runID, err)
	}
	if mapping.Len() == 0 {
		return fmt.Errorf("no mapping stored for run %d", runID)
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(mapping)
}

// showLatestRun prints the full report of the most recent run for a site.
func showLatestRun(ctx context.Context, db *database.RunDB, siteRoot string, cmd *cobra.Command) error {
	runReport, err := db.GetLatestRun(ctx, siteRoot)
	if err != nil {
		return fmt.Errorf("failed to load latest run: %w", err)
	}
	if runReport == nil {
		return fmt.Errorf("no recorded runs for %s", siteRoot)
	}

	_, err = report.NewSimpleWriter(cmd.OutOrStdout()).Write(runReport)
	return err
}

// listRuns prints metadata for all matching runs, newest first.
func listRuns(ctx context.Context, db *database.RunDB, siteRoot string, jsonOut bool, cmd *cobra.Command) error {
	runs, err := db.ListRuns(ctx, siteRoot)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if jsonOut {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(runs)
	}

	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No recorded runs.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIMESTAMP\tSITE\tMAPPED\tMOVED\tREWRITTEN\tBROKEN")
	for _, run := range runs {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%d\t%d\n",
			run.ID,
			run.Timestamp.Format(time.DateTime),
			run.SiteRoot,
			run.PagesMapped,
			run.PagesMoved,
			run.ReferencesRewritten,
			run.BrokenTotal,
		)
	}
	return w.Flush()
}
