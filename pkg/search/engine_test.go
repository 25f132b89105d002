package search

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timelog/pkg/logview"
)

// tsAfter returns the canonical timestamp ms milliseconds after
// 2023/04/12 10:00:00:000.
func tsAfter(ms int) string {
	h := 10 + ms/3600000
	m := ms / 60000 % 60
	s := ms / 1000 % 60
	return fmt.Sprintf("2023/04/12 %02d:%02d:%02d:%03d", h, m, s, ms%1000)
}

// buildLog renders one line per timestamp, with a variable-length prefix
// before the ": " marker, and returns the data plus each line's start offset.
func buildLog(times []string) (data []byte, starts []int64) {
	var buf bytes.Buffer
	for i, ts := range times {
		starts = append(starts, int64(buf.Len()))
		fmt.Fprintf(&buf, "[app#%d] INF: %s: event %d happened\n", i%7, ts, i)
	}
	return buf.Bytes(), starts
}

// steadyTimes returns n strictly increasing timestamps stepMs apart.
func steadyTimes(n, stepMs int) []string {
	times := make([]string, n)
	for i := range times {
		times[i] = tsAfter(i * stepMs)
	}
	return times
}

// afterTimestamp returns the offset just past line i's timestamp.
func afterTimestamp(starts []int64, i int) int64 {
	prefix := fmt.Sprintf("[app#%d] INF: ", i%7)
	return starts[i] + int64(len(prefix)) + 23
}

func TestEngine_LocateExactTimestamps(t *testing.T) {
	times := steadyTimes(300, 10)
	data, starts := buildLog(times)
	eng := NewEngine(logview.NewBytes(data), WithChunkSize(1024))

	for _, k := range []int{0, 1, 7, 150, 298, 299} {
		begin, out, err := eng.Locate([]byte(times[k]))
		require.NoError(t, err, "line %d", k)
		require.True(t, out.Found, "line %d", k)
		assert.Equal(t, starts[k], begin, "line %d", k)
		assert.Equal(t, afterTimestamp(starts, k), out.Pos, "line %d", k)
	}
}

func TestEngine_LocateBetweenLines(t *testing.T) {
	times := steadyTimes(300, 10)
	data, starts := buildLog(times)
	eng := NewEngine(logview.NewBytes(data), WithChunkSize(1024))

	// k=0 and k=298 land between a split window's edge and the line
	// bounding it, exercising the bracketed sub-window verdicts on both
	// sides; the middle values resolve through deeper splits.
	for _, k := range []int{0, 1, 42, 149, 150, 298} {
		target := tsAfter(k*10 + 5) // strictly between k and k+1
		begin, out, err := eng.Locate([]byte(target))
		require.NoError(t, err, "between %d and %d", k, k+1)
		require.True(t, out.Found, "between %d and %d", k, k+1)
		assert.Equal(t, starts[k+1], begin, "between %d and %d", k, k+1)
		assert.Equal(t, afterTimestamp(starts, k+1), out.Pos, "between %d and %d", k, k+1)
	}
}

func TestEngine_DirectionalMisses(t *testing.T) {
	times := steadyTimes(300, 10)
	data, _ := buildLog(times)

	tests := []struct {
		name   string
		chunk  int64
		target string
		want   Miss
	}{
		{"too early binary", 1024, "2023/04/12 09:00:00:000", MissTooEarly},
		{"too late binary", 1024, "2023/04/12 11:00:00:000", MissTooLate},
		{"too early linear", DefaultChunkSize, "2023/04/12 09:00:00:000", MissTooEarly},
		{"too late linear", DefaultChunkSize, "2023/04/12 11:00:00:000", MissTooLate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := NewEngine(logview.NewBytes(data), WithChunkSize(tt.chunk))
			_, out, err := eng.Locate([]byte(tt.target))
			require.NoError(t, err)
			assert.False(t, out.Found)
			assert.Equal(t, tt.want, out.Miss)
		})
	}
}

func TestEngine_ChunkSizeInvariance(t *testing.T) {
	times := steadyTimes(2000, 10)
	data, starts := buildLog(times)

	targets := []struct {
		time string
		want int64
	}{
		{times[0], starts[0]},
		{times[1234], starts[1234]},
		{tsAfter(1234*10 + 5), starts[1235]},
		{times[1999], starts[1999]},
	}

	for _, chunk := range []int64{4 * 1024, 80 * 1024, 1 << 20} {
		eng := NewEngine(logview.NewBytes(data), WithChunkSize(chunk))
		for _, tgt := range targets {
			begin, out, err := eng.Locate([]byte(tgt.time))
			require.NoError(t, err, "chunk=%d time=%s", chunk, tgt.time)
			require.True(t, out.Found, "chunk=%d time=%s", chunk, tgt.time)
			assert.Equal(t, tgt.want, begin, "chunk=%d time=%s", chunk, tgt.time)
		}
	}
}

func TestEngine_Idempotent(t *testing.T) {
	times := steadyTimes(500, 10)
	data, _ := buildLog(times)
	eng := NewEngine(logview.NewBytes(data), WithChunkSize(2048))

	target := []byte(times[321])
	first, out, err := eng.Locate(target)
	require.NoError(t, err)
	require.True(t, out.Found)

	for i := 0; i < 3; i++ {
		again, out, err := eng.Locate(target)
		require.NoError(t, err)
		require.True(t, out.Found)
		assert.Equal(t, first, again)
	}
}

func TestEngine_DuplicateTimestampsReturnFirst(t *testing.T) {
	times := steadyTimes(100, 10)
	dup := tsAfter(1000)
	// Lines 50..54 share one timestamp.
	for i := 50; i < 55; i++ {
		times[i] = dup
	}
	for i := 55; i < 100; i++ {
		times[i] = tsAfter(1000 + (i-54)*10)
	}
	data, starts := buildLog(times)

	eng := NewEngine(logview.NewBytes(data))
	begin, out, err := eng.Locate([]byte(dup))
	require.NoError(t, err)
	require.True(t, out.Found)
	assert.Equal(t, starts[50], begin)
}

func TestEngine_ThreeLineScenario(t *testing.T) {
	times := []string{
		"2023/04/12 10:00:00:000",
		"2023/04/12 10:00:00:010",
		"2023/04/12 10:00:00:020",
	}
	data, starts := buildLog(times)
	eng := NewEngine(logview.NewBytes(data))

	begin, out, err := eng.Locate([]byte("2023/04/12 10:00:00:015"))
	require.NoError(t, err)
	require.True(t, out.Found)
	assert.Equal(t, starts[2], begin)

	begin, out, err = eng.Locate([]byte("2023/04/12 10:00:00:020"))
	require.NoError(t, err)
	require.True(t, out.Found)
	assert.Equal(t, starts[2], begin)

	_, out, err = eng.Locate([]byte("2023/04/12 09:59:59:999"))
	require.NoError(t, err)
	assert.False(t, out.Found)
	assert.Equal(t, MissTooEarly, out.Miss)
}

func TestEngine_SkipsMalformedTrailingLines(t *testing.T) {
	times := steadyTimes(300, 10)
	data, starts := buildLog(times)
	data = append(data, []byte("trailing garbage with no time marker\n")...)
	data = append(data, []byte("cut short INF: 2023/04/1")...)

	eng := NewEngine(logview.NewBytes(data), WithChunkSize(1024))

	begin, out, err := eng.Locate([]byte(times[299]))
	require.NoError(t, err)
	require.True(t, out.Found)
	assert.Equal(t, starts[299], begin)

	begin, out, err = eng.Locate([]byte(times[250]))
	require.NoError(t, err)
	require.True(t, out.Found)
	assert.Equal(t, starts[250], begin)
}

func TestEngine_RightProbeBound(t *testing.T) {
	times := steadyTimes(300, 10)
	data, starts := buildLog(times)
	garbage := bytes.Repeat(append(bytes.Repeat([]byte{'x'}, 40), '\n'), 128) // ~5 KiB tail
	data = append(data, garbage...)

	// A bound of one chunk cannot reach past the garbage tail.
	eng := NewEngine(logview.NewBytes(data), WithChunkSize(1024), WithTrailingChunks(1))
	_, _, err := eng.Locate([]byte(times[250]))
	var xerr *ExtractionError
	require.ErrorAs(t, err, &xerr)

	// A deeper bound walks back to the last valid line.
	eng = NewEngine(logview.NewBytes(data), WithChunkSize(1024), WithTrailingChunks(8))
	begin, out, err := eng.Locate([]byte(times[250]))
	require.NoError(t, err)
	require.True(t, out.Found)
	assert.Equal(t, starts[250], begin)
}

func TestEngine_NoTimestampsAtAll(t *testing.T) {
	data := []byte("no timestamps here\njust plain text lines\nnothing to find\n")
	eng := NewEngine(logview.NewBytes(data))

	_, _, err := eng.Locate([]byte("2023/04/12 10:00:00:000"))
	var xerr *ExtractionError
	require.ErrorAs(t, err, &xerr)
}

func TestEngine_FirstTimestamp(t *testing.T) {
	times := steadyTimes(10, 10)
	data, _ := buildLog(times)
	eng := NewEngine(logview.NewBytes(data))

	ts, err := eng.FirstTimestamp()
	require.NoError(t, err)
	assert.Equal(t, times[0], string(ts))
}

func TestEngine_FirstTimestamp_Missing(t *testing.T) {
	eng := NewEngine(logview.NewBytes([]byte("nothing here\n")))
	_, err := eng.FirstTimestamp()
	assert.ErrorIs(t, err, ErrNoTimestamp)
}

func TestEngine_TraceSink(t *testing.T) {
	times := steadyTimes(300, 10)
	data, _ := buildLog(times)

	var lines []string
	eng := NewEngine(logview.NewBytes(data), WithChunkSize(1024),
		WithTrace(func(format string, args ...any) {
			lines = append(lines, fmt.Sprintf(format, args...))
		}))

	_, out, err := eng.Locate([]byte(times[150]))
	require.NoError(t, err)
	require.True(t, out.Found)
	assert.NotEmpty(t, lines)
}
