// Package main provides the entry point for the pagefold CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for pagefold.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pagefold",
		Short: "Restructure a flat static-site export into directory-per-page layout",
		Long: `Pagefold converts a flat CMS export (about.html) into a directory-per-page
layout (about/index.html) so pages are served at extensionless URLs.

It plans the moves, relocates the files, rewrites every internal reference
in HTML and CSS to match the new layout, and validates the result for
broken links.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewPlanCmd())
	cmd.AddCommand(NewValidateCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
