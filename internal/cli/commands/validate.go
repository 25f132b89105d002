package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"timelog/pkg/config"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a configuration file",
		Long: `Validate a timelog configuration file without running a search.

Checks:
  - YAML syntax
  - Chunk size and trailing-chunk bounds`,
		Args: cobra.ExactArgs(1),
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	configPath := args[0]
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Validating %s...\n", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Fprintf(w, "\nConfiguration valid!\n")
	fmt.Fprintf(w, "  Chunk size:      %d bytes\n", cfg.ChunkSize)
	fmt.Fprintf(w, "  Trailing chunks: %d\n", cfg.TrailingChunks)
	if len(cfg.ViewerArgs) > 0 {
		fmt.Fprintf(w, "  Viewer args:     %v\n", cfg.ViewerArgs)
	}
	if len(cfg.ExtractArgs) > 0 {
		fmt.Fprintf(w, "  Extract args:    %v\n", cfg.ExtractArgs)
	}

	return nil
}
