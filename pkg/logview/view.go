// Package logview provides a cursor over a randomly-addressable, read-only
// byte source, typically a memory-mapped log file.
//
// A View tracks a single cursor position and offers bounded forward and
// backward pattern searches plus positioned reads. It never loads the whole
// file; large files are served by the mapping's own paging.
package logview

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"golang.org/x/exp/mmap"
)

// ErrOutOfRange is returned when a read would leave the mapped region.
var ErrOutOfRange = errors.New("read out of view bounds")

// scanBlock is the buffer size used by windowed Find/RFind scans.
// Searches over arbitrarily large windows stay bounded in memory.
const scanBlock = 64 * 1024

// View is a cursor over a byte source of known size.
type View struct {
	src    io.ReaderAt
	size   int64
	pos    int64
	closer io.Closer
}

// Open memory-maps the file at path read-only and returns a View over it.
func Open(path string) (*View, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mapping log file %s: %w", path, err)
	}
	return &View{src: r, size: int64(r.Len()), closer: r}, nil
}

// NewBytes returns a View over an in-memory buffer.
func NewBytes(b []byte) *View {
	return &View{src: bytes.NewReader(b), size: int64(len(b))}
}

// Size returns the total size of the underlying byte source.
func (v *View) Size() int64 {
	return v.size
}

// Seek sets the cursor to pos. The position is not bounds-checked; a
// subsequent Read reports ErrOutOfRange if it falls outside the source.
func (v *View) Seek(pos int64) {
	v.pos = pos
}

// Tell returns the current cursor position.
func (v *View) Tell() int64 {
	return v.pos
}

// Read returns n bytes from the cursor and advances the cursor past them.
func (v *View) Read(n int) ([]byte, error) {
	if n < 0 || v.pos < 0 || v.pos+int64(n) > v.size {
		return nil, fmt.Errorf("%w: pos=%d n=%d size=%d", ErrOutOfRange, v.pos, n, v.size)
	}
	buf := make([]byte, n)
	if _, err := v.src.ReadAt(buf, v.pos); err != nil {
		return nil, fmt.Errorf("reading view at %d: %w", v.pos, err)
	}
	v.pos += int64(n)
	return buf, nil
}

// Find returns the offset of the first occurrence of pattern within
// [start, end), or -1 if there is none. Bounds are clamped to the source.
// The cursor is not moved.
func (v *View) Find(pattern []byte, start, end int64) int64 {
	start, end = v.clamp(start, end)
	if len(pattern) == 0 || end-start < int64(len(pattern)) {
		return -1
	}
	overlap := int64(len(pattern) - 1)
	for base := start; base < end; base += scanBlock {
		stop := base + scanBlock + overlap
		if stop > end {
			stop = end
		}
		buf := make([]byte, stop-base)
		if _, err := v.src.ReadAt(buf, base); err != nil {
			return -1
		}
		if i := bytes.Index(buf, pattern); i >= 0 {
			return base + int64(i)
		}
	}
	return -1
}

// RFind returns the offset of the last occurrence of pattern within
// [start, end), or -1 if there is none. Bounds are clamped to the source.
// The cursor is not moved.
func (v *View) RFind(pattern []byte, start, end int64) int64 {
	start, end = v.clamp(start, end)
	if len(pattern) == 0 || end-start < int64(len(pattern)) {
		return -1
	}
	overlap := int64(len(pattern) - 1)
	for stop := end; stop > start; {
		base := stop - scanBlock
		if base < start {
			base = start
		}
		// Extend past stop so matches straddling the block edge are seen;
		// a match in the extension necessarily starts before stop.
		hi := stop + overlap
		if hi > end {
			hi = end
		}
		buf := make([]byte, hi-base)
		if _, err := v.src.ReadAt(buf, base); err != nil {
			return -1
		}
		if i := bytes.LastIndex(buf, pattern); i >= 0 {
			return base + int64(i)
		}
		stop = base
	}
	return -1
}

// Close releases the underlying mapping, if any.
func (v *View) Close() error {
	if v.closer == nil {
		return nil
	}
	return v.closer.Close()
}

func (v *View) clamp(start, end int64) (int64, int64) {
	if start < 0 {
		start = 0
	}
	if end > v.size {
		end = v.size
	}
	return start, end
}
