// Package runner builds and executes the downstream commands that consume
// located byte offsets: a pager invocation positioned on the found line, or
// a byte-range extraction of the span between two offsets.
package runner

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// Viewer returns the argv for viewing path with less, positioned on offset.
// The -n flag disables line counting, which would read the whole file.
func Viewer(path string, offset int64, extra []string) []string {
	argv := []string{"less", "-n", "+" + strconv.FormatInt(offset, 10) + "P", path}
	return append(argv, extra...)
}

// Extract returns the argv for printing path from offset with dd. A
// non-negative count limits the output to that many bytes; a negative count
// prints through to the end of the file.
func Extract(path string, offset, count int64, extra []string) []string {
	argv := []string{"dd", "status=none", "if=" + path}
	if count >= 0 {
		argv = append(argv,
			"iflag=skip_bytes,count_bytes",
			"skip="+strconv.FormatInt(offset, 10),
			"count="+strconv.FormatInt(count, 10))
	} else {
		argv = append(argv,
			"iflag=skip_bytes",
			"skip="+strconv.FormatInt(offset, 10))
	}
	return append(argv, extra...)
}

// Run executes argv with stdin, stdout, and stderr connected to this
// process and returns the command's exit code.
func Run(argv []string) int {
	cmd := exec.Command(argv[0], argv[1:]...) // #nosec G204 -- running the viewer/extractor is the point
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err := cmd.Run()
	if err != nil {
		// Extract exit code from error if available
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode()
		}
		fmt.Fprintf(os.Stderr, "Error executing %s: %v\n", argv[0], err)
		return 1
	}

	return 0
}

// Format renders argv as a copy-pasteable shell line.
func Format(argv []string) string {
	quoted := make([]string, len(argv))
	for i, arg := range argv {
		quoted[i] = shellQuote(arg)
	}
	return strings.Join(quoted, " ")
}

func shellQuote(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t\n\"'`$&|;<>()*?[]#~%{}\\") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
