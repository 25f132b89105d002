package search

import (
	"errors"

	"timelog/pkg/logview"
	"timelog/pkg/timestamp"
)

// ErrNoTimestamp is returned by a Locator when no valid timestamp exists
// before the scan bound.
var ErrNoTimestamp = errors.New("no timestamp found")

// Locator finds the next canonical timestamp in a line. The engine stays
// agnostic to line prefix formats; any locator honoring this contract can
// drive it.
type Locator interface {
	// Next scans from the view's cursor up to end and returns the first
	// valid timestamp, leaving the cursor just past it. The cursor is
	// expected to sit at or before the start of a line.
	Next(v *logview.View, end int64) ([]byte, error)
}

// MarkerLocator locates timestamps by scanning for a literal marker and
// validating the fixed-width bytes that follow it. Line prefixes have
// unknown, variable length, so the timestamp position is discovered rather
// than assumed.
type MarkerLocator struct {
	Marker []byte
}

// DefaultLocator returns a MarkerLocator for the usual ": " marker.
func DefaultLocator() MarkerLocator {
	return MarkerLocator{Marker: []byte(": ")}
}

// Next implements Locator.
func (l MarkerLocator) Next(v *logview.View, end int64) ([]byte, error) {
	start := v.Tell()
	for start < end {
		at := v.Find(l.Marker, start, end)
		if at < 0 {
			return nil, ErrNoTimestamp
		}
		v.Seek(at + int64(len(l.Marker)))
		data, err := v.Read(timestamp.Width)
		if err == nil && timestamp.Valid(data) {
			return data, nil
		}
		// Not a timestamp after this marker, or too little data left for
		// one. A false marker may sit within a timestamp's width of the
		// real one, so resume just past the marker, not past the bytes
		// read.
		start = at + int64(len(l.Marker))
	}
	return nil, ErrNoTimestamp
}
