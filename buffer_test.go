// SPDX-License-Identifier: Apache-2.0

package bump

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func TestBufferBasicOperations(t *testing.T) {
	arena := NewArena(WithMinChunkSize(1024))
	buf := NewBuffer(arena)

	// Test initial state
	require.Equal(t, 0, buf.Len())
	require.Equal(t, 0, buf.Cap())
	require.Equal(t, "", buf.String())
	require.Equal(t, []byte{}, buf.Bytes())

	// Test Write
	n, err := buf.Write([]byte("hello"))
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, 5, buf.Len())
	require.Equal(t, "hello", buf.String())
	require.Equal(t, []byte("hello"), buf.Bytes())

	// Test WriteByte
	err = buf.WriteByte(' ')
	require.NoError(t, err)
	require.Equal(t, 6, buf.Len())
	require.Equal(t, "hello ", buf.String())

	// Test WriteString
	n, err = buf.WriteString("world")
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, 11, buf.Len())
	require.Equal(t, "hello world", buf.String())
}

func TestBufferReadOperations(t *testing.T) {
	arena := NewArena(WithMinChunkSize(1024))
	buf := NewBuffer(arena)

	_, err := buf.Write([]byte("hello world"))
	require.NoError(t, err)

	// Test Read
	p := make([]byte, 5)
	n, err := buf.Read(p)
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, "hello", string(p))
	require.Equal(t, 6, buf.Len())
	require.Equal(t, " world", buf.String())

	// Test ReadByte
	c, err := buf.ReadByte()
	require.NoError(t, err)
	require.Equal(t, byte(' '), c)
	require.Equal(t, 5, buf.Len())

	// Reading more than is available drains the buffer and reports EOF.
	p = make([]byte, 16)
	n, err = buf.Read(p)
	require.Equal(t, io.EOF, err)
	require.Equal(t, 5, n)
	require.Equal(t, "world", string(p[:n]))
	require.Equal(t, 0, buf.Len())

	// Reading from an empty buffer is EOF.
	_, err = buf.Read(p)
	require.Equal(t, io.EOF, err)
	_, err = buf.ReadByte()
	require.Equal(t, io.EOF, err)
}

func TestBufferNext(t *testing.T) {
	arena := NewArena(WithMinChunkSize(1024))
	buf := NewBuffer(arena)

	_, err := buf.Write([]byte("hello world"))
	require.NoError(t, err)

	chunk := buf.Next(5)
	require.Equal(t, []byte("hello"), chunk)
	require.Equal(t, 6, buf.Len())

	// Asking for more than remains returns what is left.
	chunk = buf.Next(100)
	require.Equal(t, []byte(" world"), chunk)
	require.Equal(t, 0, buf.Len())

	// Non-positive and empty cases.
	require.Equal(t, []byte{}, buf.Next(0))
	require.Equal(t, []byte{}, buf.Next(-1))
	require.Equal(t, []byte{}, buf.Next(5))
}

func TestBufferReset(t *testing.T) {
	arena := NewArena(WithMinChunkSize(1024))
	buf := NewBuffer(arena)

	_, err := buf.Write([]byte("hello"))
	require.NoError(t, err)
	capBefore := buf.Cap()

	buf.Reset()
	require.Equal(t, 0, buf.Len())
	require.Equal(t, "", buf.String())
	// The backing region is retained.
	require.Equal(t, capBefore, buf.Cap())

	_, err = buf.Write([]byte("again"))
	require.NoError(t, err)
	require.Equal(t, "again", buf.String())
}

func TestBufferTruncate(t *testing.T) {
	arena := NewArena(WithMinChunkSize(1024))
	buf := NewBuffer(arena)

	_, err := buf.Write([]byte("hello world"))
	require.NoError(t, err)

	buf.Truncate(5)
	require.Equal(t, 5, buf.Len())
	require.Equal(t, "hello", buf.String())

	require.Panics(t, func() { buf.Truncate(-1) })
	require.Panics(t, func() { buf.Truncate(100) })
}

func TestBufferWriteTo(t *testing.T) {
	arena := NewArena(WithMinChunkSize(1024))
	buf := NewBuffer(arena)

	_, err := buf.Write([]byte("hello world"))
	require.NoError(t, err)

	var out bytes.Buffer
	n, err := buf.WriteTo(&out)
	require.NoError(t, err)
	require.Equal(t, int64(11), n)
	require.Equal(t, "hello world", out.String())
	require.Equal(t, 0, buf.Len())

	// Empty buffer writes nothing.
	n, err = buf.WriteTo(&out)
	require.NoError(t, err)
	require.Equal(t, int64(0), n)
}

func TestBufferGrowth(t *testing.T) {
	arena := NewArena(WithMinChunkSize(256))
	buf := NewBuffer(arena)

	// Write enough data piecewise to force several slice growths.
	piece := "abcdefgh"
	for i := 0; i < 512; i++ {
		n, err := buf.WriteString(piece)
		require.NoError(t, err)
		require.Equal(t, len(piece), n)
	}
	require.Equal(t, 512*len(piece), buf.Len())
	require.Equal(t, strings.Repeat(piece, 512), buf.String())
}

func TestBufferWithoutArena(t *testing.T) {
	buf := NewBuffer(nil)

	_, err := buf.Write([]byte("standard allocation"))
	require.NoError(t, err)
	require.Equal(t, "standard allocation", buf.String())
}

func TestBufferArenaAllocation(t *testing.T) {
	arena := NewArena(WithMinChunkSize(1024))
	buf := NewBuffer(arena)

	_, err := buf.Write([]byte("hello"))
	require.NoError(t, err)

	require.True(t, isArenaPtr(arena, unsafe.Pointer(unsafe.SliceData(buf.buf))))
}

func TestBufferIoWriterCompatibility(t *testing.T) {
	arena := NewArena(WithMinChunkSize(1024))
	var w io.Writer = NewBuffer(arena)

	n, err := w.Write([]byte("via io.Writer"))
	require.NoError(t, err)
	require.Equal(t, 13, n)
}

func TestBufferReadFrom(t *testing.T) {
	arena := NewArena(WithMinChunkSize(16 * 1024))
	buf := NewBuffer(arena)

	src := strings.NewReader("data from reader")
	n, err := buf.ReadFrom(src)
	require.NoError(t, err)
	require.Equal(t, int64(16), n)
	require.Equal(t, "data from reader", buf.String())

	// The intermediate read buffer came from the arena.
	require.True(t, isArenaPtr(arena, unsafe.Pointer(unsafe.SliceData(buf.readBuf))))
}

type errorReader struct{}

func (errorReader) Read([]byte) (int, error) {
	return 0, errors.New("read failed")
}

func TestBufferReadFromWithError(t *testing.T) {
	arena := NewArena()
	buf := NewBuffer(arena)

	_, err := buf.ReadFrom(errorReader{})
	require.EqualError(t, err, "read failed")
}

func TestBufferReadFromLargeData(t *testing.T) {
	arena := NewArena()
	buf := NewBuffer(arena)

	// Larger than the 4KB intermediate buffer, forcing multiple reads.
	data := strings.Repeat("x", 20*1024)
	n, err := buf.ReadFrom(strings.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, int64(len(data)), n)
	require.Equal(t, data, buf.String())
}

func TestBufferUseAfterArenaReset(t *testing.T) {
	arena := NewArena()
	buf := NewBuffer(arena)
	_, err := buf.Write([]byte("hello"))
	require.NoError(t, err)

	arena.Reset()

	require.PanicsWithValue(t, "bump: use of arena memory after Reset", func() {
		_, _ = buf.Write([]byte("stale"))
	})
	require.PanicsWithValue(t, "bump: use of arena memory after Reset", func() {
		buf.Bytes()
	})
}

func TestBufferUseAfterArenaRelease(t *testing.T) {
	arena := NewArena()
	buf := NewBuffer(arena)
	_, err := buf.Write([]byte("hello"))
	require.NoError(t, err)

	arena.Release()

	require.PanicsWithValue(t, "bump: use of arena memory after Release", func() {
		p := make([]byte, 3)
		_, _ = buf.Read(p)
	})
}
