package search

import (
	"timelog/pkg/logview"
	"timelog/pkg/timestamp"
)

var newline = []byte{'\n'}

// nextLineStart moves the cursor to the first byte of the next line and
// returns its offset, or -1 if no newline exists before end or the next
// line would start at or past end.
func nextLineStart(v *logview.View, end int64) int64 {
	at := v.Find(newline, v.Tell(), end)
	if at < 0 {
		return -1
	}
	begin := at + 1
	if begin >= end {
		return -1
	}
	v.Seek(begin)
	return begin
}

// lineStartLeft moves the cursor to the first byte of the current line and
// returns its offset, or -1 if it cannot be found above lowerBound. A line
// must hold at least one full timestamp, so the reverse search stops a
// timestamp-width short of the cursor; anything closer to lowerBound than
// that cannot be a genuine line start.
func lineStartLeft(v *logview.View, lowerBound int64) int64 {
	limit := v.Tell() - timestamp.Width
	if limit < lowerBound {
		return -1
	}
	at := v.RFind(newline, lowerBound, limit)
	if at < 0 {
		return -1
	}
	begin := at + 1
	v.Seek(begin)
	return begin
}
