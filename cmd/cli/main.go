// Timelog - Time Search in Big Log Files
//
// timelog binary-searches a large, time-ordered text log for a requested
// time and hands the found byte offset to less or dd. It never reads the
// whole file.
package main

import (
	"os"

	"timelog/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
