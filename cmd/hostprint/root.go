// Package main provides the entry point for the hostprint CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for hostprint.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hostprint",
		Short: "Deterministic host fingerprinting for Linux",
		Long: `hostprint collects OS and hardware signals from the local Linux host and
folds them into a deterministic fingerprint.

The fingerprint is stable across reboots and process restarts: the same host
in the same configuration always produces the same hash. Volatile signals
(load, uptime, battery charge) are collected for visibility but never hashed.

Use "hostprint collect" for a one-shot fingerprint, "hostprint compare" to
diff runs stored in the history database, and "hostprint watch" to detect
drift on a schedule.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewCollectCmd())
	cmd.AddCommand(NewCompareCmd())
	cmd.AddCommand(NewWatchCmd())
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
