// Package cli provides the command-line interface for timelog.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"timelog/internal/cli/commands"
)

// Execute runs the root command and returns the exit code.
func Execute() int {
	rootCmd := NewRootCommand()

	if err := rootCmd.Execute(); err != nil {
		// Print error to stderr (SilenceErrors prevents Cobra from doing this)
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2 // Invalid input, configuration, or runtime error
	}
	return commands.ExitCode
}

// NewRootCommand creates the root cobra command.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "timelog",
		Short: "Binary search for a time in big text log files",
		Long: `timelog performs a binary search for a time in a big, append-only text
log file, without reading the whole file.

It locates the first line whose timestamp is at or after the requested
time, then views the file from that line with less, prints from it with
dd, or reports the raw byte offsets.

Log lines are expected to carry, after an arbitrary prefix, a ": " marker
followed by a YYYY/MM/DD HH:MM:SS:mmm timestamp, non-decreasing in file
order, for example:

  [tg.localhost#1] INF: 2023/04/12 21:40:39:210: [app] terminating by signal 15`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add subcommands
	rootCmd.AddCommand(commands.NewSearchCommand())
	rootCmd.AddCommand(commands.NewLocateCommand())
	rootCmd.AddCommand(commands.NewValidateCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	return rootCmd
}
