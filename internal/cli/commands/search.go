package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"timelog/internal/cli/runner"
	"timelog/pkg/config"
	"timelog/pkg/logview"
	"timelog/pkg/search"
	"timelog/pkg/timestamp"
)

// ExitCode is set by commands to indicate the result
var ExitCode = 0

// SearchOptions holds command-line options for the search command.
type SearchOptions struct {
	TimeTo      string
	Less        bool
	ExtraArgs   []string
	NoExec      bool
	ChunkSize   int64
	ConfigFile  string
	Verbose     bool
	TraceSearch bool
}

// NewSearchCommand creates the search command.
func NewSearchCommand() *cobra.Command {
	opts := &SearchOptions{}

	cmd := &cobra.Command{
		Use:   "search <log-file> <time-from>",
		Short: "Find a time in a log file and view or print from it",
		Long: `Binary search for the given time in a big text log file, then view the
file from the found line with less, or print from it with dd.

Each log line must carry, after an arbitrary prefix, a ": " marker followed
by a YYYY/MM/DD HH:MM:SS:mmm timestamp, non-decreasing in file order.

Accepted time formats:
  YYYY/MM/DD HH:MM:SS:mmm   full
  YYYY/MM/DD HH:MM:SS       seconds
  YYYY/MM/DD HH:MM          minutes
  YYYY/MM/DD                date only
  HH:MM:SS:mmm, HH:MM:SS, HH:MM
                            time only; the date is taken from the first
                            line of the file

Exit codes:
  0 - Line found (or command printed with --no-exec)
  1 - Requested time outside the file's time range
  2 - Invalid input, configuration, or runtime error

Examples of the resulting commands:
  dd status=none if=big.log iflag=skip_bytes skip=2488818942
  dd status=none if=big.log iflag=skip_bytes,count_bytes skip=2488818942 count=451258
  less -n +2488818942P big.log`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.TimeTo, "time-to", "t", "", "Exclusive end time for the printed range (same formats)")
	cmd.Flags().BoolVarP(&opts.Less, "less", "l", false, "View the file with less instead of printing with dd")
	cmd.Flags().StringArrayVarP(&opts.ExtraArgs, "arg", "a", nil, "Extra argument for the resulting command (can be repeated)")
	cmd.Flags().BoolVarP(&opts.NoExec, "no-exec", "n", false, "Print the resulting command instead of running it")
	cmd.Flags().Int64VarP(&opts.ChunkSize, "chunk-size", "c", 0, "Max chunk size for the linear search (overrides config)")
	cmd.Flags().StringVar(&opts.ConfigFile, "config", "", "Path to configuration file")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show debug info on stderr")
	cmd.Flags().BoolVarP(&opts.TraceSearch, "trace-search", "d", false, "Trace binary search stages on stderr")
	cmd.MarkFlagsMutuallyExclusive("time-to", "less")

	return cmd
}

func runSearch(cmd *cobra.Command, args []string, opts *SearchOptions) error {
	logPath := args[0]

	cfg, err := loadConfig(opts.ConfigFile, opts.ChunkSize)
	if err != nil {
		return err
	}

	view, err := logview.Open(logPath)
	if err != nil {
		return err
	}
	defer view.Close()

	engine := newEngine(cmd, view, cfg, opts.TraceSearch)

	from, to, err := resolveTimes(engine, args[1], opts.TimeTo)
	if err != nil {
		return err
	}
	verbosef(cmd, opts.Verbose, "time from: %s", from)
	if to != "" {
		verbosef(cmd, opts.Verbose, "time to:   %s", to)
	}

	fromOffset, out, err := engine.Locate([]byte(from))
	if err != nil {
		return err
	}
	if !out.Found {
		fmt.Fprintln(cmd.ErrOrStderr(), missMessage(out.Miss, from))
		ExitCode = 1
		return nil
	}
	verbosef(cmd, opts.Verbose, "line found at offset %d", fromOffset)

	var argv []string
	if opts.Less {
		argv = runner.Viewer(logPath, fromOffset, append(cfg.ViewerArgs, opts.ExtraArgs...))
	} else {
		count := int64(-1)
		if to != "" {
			toOffset, toOut, err := engine.Locate([]byte(to))
			if err != nil {
				return err
			}
			if !toOut.Found {
				fmt.Fprintln(cmd.ErrOrStderr(), missMessage(toOut.Miss, to))
				ExitCode = 1
				return nil
			}
			verbosef(cmd, opts.Verbose, "end line found at offset %d", toOffset)
			count = toOffset - fromOffset
		}
		argv = runner.Extract(logPath, fromOffset, count, append(cfg.ExtractArgs, opts.ExtraArgs...))
	}

	if opts.NoExec {
		fmt.Fprintln(cmd.OutOrStdout(), runner.Format(argv))
		return nil
	}
	verbosef(cmd, opts.Verbose, "running: %s", runner.Format(argv))
	ExitCode = runner.Run(argv)
	return nil
}

// loadConfig loads the configuration and applies the chunk-size flag on top.
func loadConfig(path string, chunkSize int64) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if chunkSize > 0 {
		cfg.ChunkSize = chunkSize
		if err := config.Validate(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// newEngine builds a search engine from the effective configuration.
func newEngine(cmd *cobra.Command, view *logview.View, cfg *config.Config, trace bool) *search.Engine {
	engineOpts := []search.Option{
		search.WithChunkSize(cfg.ChunkSize),
		search.WithTrailingChunks(cfg.TrailingChunks),
	}
	if trace {
		errw := cmd.ErrOrStderr()
		engineOpts = append(engineOpts, search.WithTrace(func(format string, args ...any) {
			fmt.Fprintf(errw, "# "+format+"\n", args...)
		}))
	}
	return search.NewEngine(view, engineOpts...)
}

// resolveTimes expands the from and optional to time strings into canonical
// form. Time-only input takes its date from the first timestamp in the file;
// the end time falls back to the date of the (already canonical) start time.
func resolveTimes(engine *search.Engine, fromArg, toArg string) (from, to string, err error) {
	var ref string
	if first, ferr := engine.FirstTimestamp(); ferr == nil {
		ref = string(first)
	}

	from, err = timestamp.Normalize(fromArg, ref)
	if err != nil {
		return "", "", err
	}

	if toArg != "" {
		to, err = timestamp.Normalize(toArg, from)
		if err != nil {
			return "", "", err
		}
		// Canonical timestamps order lexicographically.
		if to < from {
			return "", "", fmt.Errorf("end time %s precedes start time %s", to, from)
		}
	}
	return from, to, nil
}

func missMessage(m search.Miss, t string) string {
	if m == search.MissTooEarly {
		return fmt.Sprintf("log file starts with lines newer than %s", t)
	}
	return fmt.Sprintf("log file ends with lines older than %s", t)
}

func verbosef(cmd *cobra.Command, enabled bool, format string, args ...any) {
	if enabled {
		fmt.Fprintf(cmd.ErrOrStderr(), "# "+format+"\n", args...)
	}
}
