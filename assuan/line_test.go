package assuan

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chunkReader replays a fixed sequence of byte chunks, one per Read call,
// then returns io.EOF forever -- mirroring the Rust test harness in
// assuan-server/src/line_reader.rs.
type chunkReader struct {
	chunks [][]byte
}

func (c *chunkReader) Read(buf []byte) (int, error) {
	if len(c.chunks) == 0 {
		return 0, io.EOF
	}
	chunk := c.chunks[0]
	c.chunks = c.chunks[1:]
	n := copy(buf, chunk)
	return n, nil
}

func TestLineReaderReadsNothing(t *testing.T) {
	lr := NewLineReader()
	line, err := lr.ReadLine(&chunkReader{})
	require.NoError(t, err)
	assert.Nil(t, line)
}

func TestLineReaderReadsOneLine(t *testing.T) {
	lr := NewLineReader()
	r := &chunkReader{chunks: [][]byte{[]byte("a line\n")}}
	line, err := lr.ReadLine(r)
	require.NoError(t, err)
	assert.Equal(t, "a line", string(line))
}

func TestLineReaderReadsTwoLines(t *testing.T) {
	lr := NewLineReader()
	r := &chunkReader{chunks: [][]byte{[]byte("line1\n"), []byte("line2\n")}}

	line1, err := lr.ReadLine(r)
	require.NoError(t, err)
	assert.Equal(t, "line1", string(line1))

	line2, err := lr.ReadLine(r)
	require.NoError(t, err)
	assert.Equal(t, "line2", string(line2))
}

func TestLineReaderReadsTwoLinesInOneCall(t *testing.T) {
	lr := NewLineReader()
	r := &chunkReader{chunks: [][]byte{[]byte("line1\nline2\n")}}

	line1, err := lr.ReadLine(r)
	require.NoError(t, err)
	assert.Equal(t, "line1", string(line1))

	line2, err := lr.ReadLine(r)
	require.NoError(t, err)
	assert.Equal(t, "line2", string(line2))
}

func TestLineReaderReadsOneLineInPieces(t *testing.T) {
	lr := NewLineReader()
	r := &chunkReader{chunks: [][]byte{[]byte("a very"), []byte(" long "), []byte("line\n")}}
	line, err := lr.ReadLine(r)
	require.NoError(t, err)
	assert.Equal(t, "a very long line", string(line))
}

func TestLineReaderReadsOneLineAndPieceOfSecondInOneCall(t *testing.T) {
	lr := NewLineReader()
	r := &chunkReader{chunks: [][]byte{[]byte("a line\nand the"), []byte(" second one\n")}}

	line1, err := lr.ReadLine(r)
	require.NoError(t, err)
	assert.Equal(t, "a line", string(line1))

	line2, err := lr.ReadLine(r)
	require.NoError(t, err)
	assert.Equal(t, "and the second one", string(line2))
}

func TestLineReaderReadsLineAndTerminates(t *testing.T) {
	lr := NewLineReader()
	r := &chunkReader{chunks: [][]byte{[]byte("a line\n")}}

	line1, err := lr.ReadLine(r)
	require.NoError(t, err)
	assert.Equal(t, "a line", string(line1))

	line2, err := lr.ReadLine(r)
	require.NoError(t, err)
	assert.Nil(t, line2)
}

func TestLineReaderErrorsOnUnexpectedEOF(t *testing.T) {
	lr := NewLineReader()
	r := &chunkReader{chunks: [][]byte{[]byte("a line\nbut"), []byte("the 2nd is not terminated")}}

	line1, err := lr.ReadLine(r)
	require.NoError(t, err)
	assert.Equal(t, "a line", string(line1))

	_, err = lr.ReadLine(r)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestLineReaderErrorsOnVeryLargeLine(t *testing.T) {
	lr := NewLineReader()
	hundredBytes := bytes.Repeat([]byte{1}, 100)
	chunks := make([][]byte, 10)
	for i := range chunks {
		chunks[i] = hundredBytes
	}
	r := &chunkReader{chunks: chunks}

	_, err := lr.ReadLine(r)
	assert.ErrorIs(t, err, ErrLineTooLong)
}

func TestLineReaderCoalescesAcrossReadLineCalls(t *testing.T) {
	// Regression test for the buffer-shift invariant: bytes read past a
	// previous terminator in one physical Read must survive into the next
	// ReadLine call.
	lr := NewLineReader()
	r := &chunkReader{chunks: [][]byte{[]byte("one\ntwo\nthree\n")}}

	for _, want := range []string{"one", "two", "three"} {
		line, err := lr.ReadLine(r)
		require.NoError(t, err)
		assert.Equal(t, want, string(line))
	}
	line, err := lr.ReadLine(r)
	require.NoError(t, err)
	assert.Nil(t, line)
}
