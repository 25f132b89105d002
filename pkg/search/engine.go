// Package search implements the hybrid binary/linear search that locates,
// inside a huge time-ordered log, the first line whose embedded canonical
// timestamp is at or after a target time.
//
// The engine walks a logview.View without ever loading the whole file. It
// assumes (and does not verify) that the file's timestamps are non-decreasing
// in file order; on a file violating that the result is undefined and usually
// surfaces as an ExtractionError.
package search

import (
	"bytes"
	"fmt"

	"timelog/pkg/logview"
)

// Default engine tuning. Both are explicit configuration on the Engine, not
// shared state; these are only the values used when no option overrides them.
const (
	// DefaultChunkSize is the window size below which the engine switches
	// from binary splitting to a direct linear scan. Several log lines with
	// distinct times are assumed to fit in a block of this size.
	DefaultChunkSize = 20 * 4096

	// DefaultTrailingChunks bounds how many chunks the right-edge probe may
	// scan backward over malformed trailing lines before giving up.
	DefaultTrailingChunks = 4
)

// Miss tells which side of the searched window the target time fell on.
type Miss int

const (
	MissNone Miss = iota
	// MissTooEarly means the target precedes the window's first timestamp.
	MissTooEarly
	// MissTooLate means the target follows the window's last timestamp.
	MissTooLate
)

func (m Miss) String() string {
	switch m {
	case MissTooEarly:
		return "too early"
	case MissTooLate:
		return "too late"
	default:
		return "none"
	}
}

// Outcome is the result of a search. When Found is set, Pos is the offset
// immediately after the matched timestamp; otherwise Miss tells which way
// the target fell outside the window's time range.
type Outcome struct {
	Found bool
	Pos   int64
	Miss  Miss
}

// ExtractionError reports that a timestamp was required but could not be
// found in a region where the engine assumed one must exist. It is fatal and
// never retried: it means the chunk size is too small for the log's line
// density, or the data is corrupt or not time-ordered.
type ExtractionError struct {
	Stage string
	Begin int64
	Size  int64
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("%s failed in window [%d, %d): enlarge the chunk size, or the log is corrupt or unsorted",
		e.Stage, e.Begin, e.Begin+e.Size)
}

// Engine performs searches over a single read-only view. It carries no state
// between calls beyond its configuration.
type Engine struct {
	view           *logview.View
	chunk          int64
	trailingChunks int
	locator        Locator
	trace          func(format string, args ...any)
}

// Option configures an Engine.
type Option func(*Engine)

// WithChunkSize sets the linear-search cutover size. Note the linear floor
// overscans half a chunk on each side to catch lines at window edges; a run
// of identical timestamps longer than one chunk can therefore defeat the
// first-duplicate guarantee.
func WithChunkSize(n int64) Option {
	return func(e *Engine) { e.chunk = n }
}

// WithTrailingChunks bounds the backward scan for the right-edge probe.
func WithTrailingChunks(n int) Option {
	return func(e *Engine) { e.trailingChunks = n }
}

// WithLocator replaces the default marker-scanning timestamp locator.
func WithLocator(l Locator) Option {
	return func(e *Engine) { e.locator = l }
}

// WithTrace installs a printf-style sink for per-probe search tracing.
func WithTrace(f func(format string, args ...any)) Option {
	return func(e *Engine) { e.trace = f }
}

// NewEngine creates an engine over v.
func NewEngine(v *logview.View, opts ...Option) *Engine {
	e := &Engine{
		view:           v,
		chunk:          DefaultChunkSize,
		trailingChunks: DefaultTrailingChunks,
		locator:        DefaultLocator(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) tracef(format string, args ...any) {
	if e.trace != nil {
		e.trace(format, args...)
	}
}

// Search looks for target within the window [begin, begin+size), whose begin
// must be a line start. It loops over a strictly shrinking window, splitting
// while the window exceeds the chunk size and finishing with a linear scan.
//
// Directional misses are only reported for the outermost window; sub-windows
// are bracketed by their parent's edge probes, so a target "missing" from a
// sub-window still resolves to that sub-window's first qualifying line.
func (e *Engine) Search(target []byte, begin, size int64) (Outcome, error) {
	outermost := true
	// Position just past the timestamp of the line bounding the current
	// sub-window on the right. That line's time exceeds target, so a target
	// past every line inside the sub-window resolves to it.
	rightBoundPos := int64(-1)
	for {
		if size <= e.chunk {
			if outermost {
				out, done, err := e.edgeCheck(target, begin, size)
				if done || err != nil {
					return out, err
				}
			}
			return e.linear(target, begin, size)
		}

		// First line of the window.
		e.view.Seek(begin)
		leftTime, err := e.locator.Next(e.view, begin+e.chunk)
		if err != nil {
			return Outcome{}, &ExtractionError{Stage: "left probe", Begin: begin, Size: size}
		}
		e.tracef("binary: window=[%d,%d) left=%s", begin, begin+size, leftTime)
		switch cmp := bytes.Compare(target, leftTime); {
		case cmp < 0:
			if outermost {
				return Outcome{Miss: MissTooEarly}, nil
			}
			// The parent put a line older than target just above this
			// window, so its first line is the first qualifying one.
			return Outcome{Found: true, Pos: e.view.Tell()}, nil
		case cmp == 0:
			return Outcome{Found: true, Pos: e.view.Tell()}, nil
		}
		afterLeft := nextLineStart(e.view, begin+e.chunk)
		if afterLeft < 0 {
			return Outcome{}, &ExtractionError{Stage: "advance past first line", Begin: begin, Size: size}
		}

		// Last timestamped line of the window.
		rightTime, rightLine, err := e.rightProbe(begin, begin+size)
		if err != nil {
			return Outcome{}, &ExtractionError{Stage: "right probe", Begin: begin, Size: size}
		}
		rightPos := e.view.Tell()
		e.tracef("binary: window=[%d,%d) right=%s at %d", begin, begin+size, rightTime, rightLine)
		switch cmp := bytes.Compare(target, rightTime); {
		case cmp > 0:
			if outermost {
				return Outcome{Miss: MissTooLate}, nil
			}
			// Every line inside this window is older than target; the
			// line bounding it on the right is the first qualifying one.
			return Outcome{Found: true, Pos: rightBoundPos}, nil
		case cmp == 0:
			return Outcome{Found: true, Pos: rightPos}, nil
		}
		beforeRight := rightLine - 1

		// Line nearest the middle of what remains.
		middle := afterLeft + (beforeRight-afterLeft)/2
		mcStart := middle - e.chunk/2
		mcEnd := mcStart + e.chunk
		e.view.Seek(middle)
		middleLine := lineStartLeft(e.view, mcStart)
		if middleLine < 0 {
			return Outcome{}, &ExtractionError{Stage: "middle line", Begin: begin, Size: size}
		}
		e.view.Seek(middleLine)
		middleTime, err := e.locator.Next(e.view, mcEnd)
		if err != nil {
			return Outcome{}, &ExtractionError{Stage: "middle probe", Begin: begin, Size: size}
		}
		middlePos := e.view.Tell()
		e.tracef("binary: window=[%d,%d) middle=%s at %d", begin, begin+size, middleTime, middleLine)

		var nextBegin, nextSize int64
		switch cmp := bytes.Compare(target, middleTime); {
		case cmp == 0:
			return Outcome{Found: true, Pos: middlePos}, nil
		case cmp < 0:
			nextBegin, nextSize = afterLeft, middleLine-afterLeft
			rightBoundPos = middlePos
		default:
			afterMiddle := nextLineStart(e.view, mcEnd)
			if afterMiddle < 0 {
				return Outcome{}, &ExtractionError{Stage: "advance past middle line", Begin: begin, Size: size}
			}
			nextBegin, nextSize = afterMiddle, rightLine-afterMiddle
			rightBoundPos = rightPos
		}
		if nextSize >= size {
			// Guaranteed to shrink on time-ordered data; tripping this
			// means the file is not.
			return Outcome{}, &ExtractionError{Stage: "window shrink", Begin: begin, Size: size}
		}
		begin, size = nextBegin, nextSize
		outermost = false
	}
}

// edgeCheck compares target against the first and last timestamps of a
// window about to be scanned linearly, so that a target outside the window's
// time range becomes a directional miss instead of a bogus linear result.
func (e *Engine) edgeCheck(target []byte, begin, size int64) (Outcome, bool, error) {
	end := begin + size
	e.view.Seek(begin)
	leftTime, err := e.locator.Next(e.view, end)
	if err != nil {
		return Outcome{}, false, &ExtractionError{Stage: "left probe", Begin: begin, Size: size}
	}
	switch cmp := bytes.Compare(target, leftTime); {
	case cmp < 0:
		return Outcome{Miss: MissTooEarly}, true, nil
	case cmp == 0:
		return Outcome{Found: true, Pos: e.view.Tell()}, true, nil
	}

	rightTime, _, err := e.rightProbe(begin, end)
	if err != nil {
		// A window this small may hold a single line with no newline above
		// it to anchor the probe; leave the verdict to the linear scan.
		return Outcome{}, false, nil
	}
	switch cmp := bytes.Compare(target, rightTime); {
	case cmp > 0:
		return Outcome{Miss: MissTooLate}, true, nil
	case cmp == 0:
		return Outcome{Found: true, Pos: e.view.Tell()}, true, nil
	}
	return Outcome{}, false, nil
}

// rightProbe finds the last line in [begin, rightEnd) that carries a valid
// timestamp, scanning backward over malformed trailing lines. The backward
// walk is bounded to trailingChunks chunks; deeper corruption is reported as
// a failure rather than scanned without limit. On success the cursor sits
// just past the returned timestamp.
func (e *Engine) rightProbe(begin, rightEnd int64) (ts []byte, line int64, err error) {
	probeStart := rightEnd - e.chunk*int64(e.trailingChunks)
	if probeStart < begin {
		probeStart = begin
	}
	e.view.Seek(rightEnd)
	for {
		line = lineStartLeft(e.view, probeStart)
		if line < 0 {
			return nil, -1, ErrNoTimestamp
		}
		ts, err = e.locator.Next(e.view, rightEnd)
		if err != nil {
			// Malformed trailing line; probe the one before it.
			e.view.Seek(line)
			continue
		}
		return ts, line, nil
	}
}

// linear scans the window line by line. The scan range is widened by half a
// chunk on each side so a qualifying line sitting exactly on a window edge
// is not missed.
func (e *Engine) linear(target []byte, begin, size int64) (Outcome, error) {
	half := e.chunk / 2
	lo := begin - half
	if lo < 0 {
		lo = 0
	}
	end := begin + size + half
	if total := e.view.Size(); end > total {
		end = total
	}
	e.view.Seek(lo)
	for e.view.Tell() < end {
		cur, err := e.locator.Next(e.view, end)
		if err != nil {
			return Outcome{}, &ExtractionError{Stage: "linear scan", Begin: begin, Size: size}
		}
		e.tracef("linear: target=%s pos=%d found=%s", target, e.view.Tell(), cur)
		if bytes.Compare(cur, target) >= 0 {
			return Outcome{Found: true, Pos: e.view.Tell()}, nil
		}
		if nextLineStart(e.view, end) < 0 {
			return Outcome{}, &ExtractionError{Stage: "linear advance", Begin: begin, Size: size}
		}
	}
	return Outcome{}, &ExtractionError{Stage: "linear scan", Begin: begin, Size: size}
}

// Locate searches the whole view for target and, when found, walks left to
// the start of the matched line. A line start must exist within one chunk
// above the match; if the match sits inside the file's first chunk and no
// newline precedes it, the line is taken to start at offset 0.
func (e *Engine) Locate(target []byte) (int64, Outcome, error) {
	out, err := e.Search(target, 0, e.view.Size())
	if err != nil || !out.Found {
		return 0, out, err
	}
	e.view.Seek(out.Pos)
	begin := lineStartLeft(e.view, out.Pos-e.chunk)
	if begin < 0 {
		if out.Pos > e.chunk {
			return 0, out, &ExtractionError{Stage: "line start walk", Begin: out.Pos - e.chunk, Size: e.chunk}
		}
		begin = 0
	}
	return begin, out, nil
}

// FirstTimestamp extracts the reference timestamp from the head of the file,
// scanning at most one chunk. It is used to complete time-only partial input
// with the date of the file's first line.
func (e *Engine) FirstTimestamp() ([]byte, error) {
	end := e.chunk
	if total := e.view.Size(); end > total {
		end = total
	}
	e.view.Seek(0)
	ts, err := e.locator.Next(e.view, end)
	if err != nil {
		return nil, fmt.Errorf("extracting reference timestamp from file head: %w", err)
	}
	return ts, nil
}
