package search

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"timelog/pkg/logview"
)

func TestNextLineStart(t *testing.T) {
	data := []byte("first\nsecond\nthird\n")
	v := logview.NewBytes(data)

	got := nextLineStart(v, v.Size())
	assert.Equal(t, int64(6), got)
	assert.Equal(t, int64(6), v.Tell())

	got = nextLineStart(v, v.Size())
	assert.Equal(t, int64(13), got)

	// The final newline has no line after it before the bound.
	got = nextLineStart(v, v.Size())
	assert.Equal(t, int64(-1), got)
}

func TestNextLineStart_BoundExcludesNewline(t *testing.T) {
	v := logview.NewBytes([]byte("first\nsecond\n"))
	assert.Equal(t, int64(-1), nextLineStart(v, 5))

	v.Seek(0)
	assert.Equal(t, int64(6), nextLineStart(v, 7))
}

func TestLineStartLeft(t *testing.T) {
	// Two 30-byte lines, then a short trailing fragment.
	// Newlines sit at offsets 30 and 61.
	data := []byte("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaa\nbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb\nccc")
	v := logview.NewBytes(data)

	// From the end of the second line, its own start is found.
	v.Seek(61)
	got := lineStartLeft(v, 0)
	assert.Equal(t, int64(31), got)
	assert.Equal(t, int64(31), v.Tell())

	// From inside the short fragment, the timestamp-width margin reaches
	// back past the fragment's newline into the previous line.
	v.Seek(v.Size())
	assert.Equal(t, int64(31), lineStartLeft(v, 0))
}

func TestLineStartLeft_MarginUnderflow(t *testing.T) {
	v := logview.NewBytes([]byte("aaaaaaaaaa\nbbbbbbbbbb\n"))

	// Closer to the lower bound than one timestamp width: no room for a
	// full timestamp, so no line start is reported.
	v.Seek(15)
	assert.Equal(t, int64(-1), lineStartLeft(v, 0))

	// No newline inside the allowed range.
	long := logview.NewBytes(append([]byte("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"), '\n'))
	long.Seek(40)
	assert.Equal(t, int64(-1), lineStartLeft(long, 0))
}
