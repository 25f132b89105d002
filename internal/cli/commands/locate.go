package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"timelog/pkg/logview"
)

// LocateOptions holds command-line options for the locate command.
type LocateOptions struct {
	TimeTo      string
	Output      string
	ChunkSize   int64
	ConfigFile  string
	TraceSearch bool
}

// LocateReport is the machine-readable result of a locate query.
type LocateReport struct {
	File   string `json:"file"`
	Time   string `json:"time"`
	Offset int64  `json:"offset"`
	TimeTo string `json:"time_to,omitempty"`
	End    *int64 `json:"end_offset,omitempty"`
	Length *int64 `json:"length,omitempty"`
}

// NewLocateCommand creates the locate command.
func NewLocateCommand() *cobra.Command {
	opts := &LocateOptions{}

	cmd := &cobra.Command{
		Use:   "locate <log-file> <time>",
		Short: "Print the byte offset of the first line at or after a time",
		Long: `Binary search for the given time and print the byte offset of the first
line whose timestamp is at or after it, without running any command.

With --time-to, also prints the exclusive end offset and the length of the
byte range between the two, sized for use with dd or similar tools.

Example:
  timelog locate big.log "2023/04/12 16:34"
  timelog locate -o json --time-to 17:00 big.log 16:34`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLocate(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.TimeTo, "time-to", "t", "", "Exclusive end time for the range (same formats)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().Int64VarP(&opts.ChunkSize, "chunk-size", "c", 0, "Max chunk size for the linear search (overrides config)")
	cmd.Flags().StringVar(&opts.ConfigFile, "config", "", "Path to configuration file")
	cmd.Flags().BoolVarP(&opts.TraceSearch, "trace-search", "d", false, "Trace binary search stages on stderr")

	return cmd
}

func runLocate(cmd *cobra.Command, args []string, opts *LocateOptions) error {
	logPath := args[0]

	if opts.Output != "text" && opts.Output != "json" {
		return fmt.Errorf("unknown output format %q (use text or json)", opts.Output)
	}

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

	report := &LocateReport{File: logPath, Time: from}

	offset, out, err := engine.Locate([]byte(from))
	if err != nil {
		return err
	}
	if !out.Found {
		fmt.Fprintln(cmd.ErrOrStderr(), missMessage(out.Miss, from))
		ExitCode = 1
		return nil
	}
	report.Offset = offset

	if to != "" {
		end, toOut, err := engine.Locate([]byte(to))
		if err != nil {
			return err
		}
		if !toOut.Found {
			fmt.Fprintln(cmd.ErrOrStderr(), missMessage(toOut.Miss, to))
			ExitCode = 1
			return nil
		}
		length := end - offset
		report.TimeTo = to
		report.End = &end
		report.Length = &length
	}

	return writeLocateReport(cmd, opts.Output, report)
}

func writeLocateReport(cmd *cobra.Command, format string, report *LocateReport) error {
	w := cmd.OutOrStdout()

	if format == "json" {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding report: %w", err)
		}
		fmt.Fprintln(w, string(data))
		return nil
	}

	fmt.Fprintf(w, "offset: %d\n", report.Offset)
	if report.End != nil {
		fmt.Fprintf(w, "end:    %d\n", *report.End)
		fmt.Fprintf(w, "length: %d\n", *report.Length)
	}
	return nil
}
