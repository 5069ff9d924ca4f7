// SPDX-License-Identifier: Apache-2.0

package bump

import (
	"io"
)

// Buffer is a bytes.Buffer-like struct backed by an arena.
// It implements io.Writer, io.ReaderFrom and provides similar methods to
// bytes.Buffer. All memory allocation is done through the bound arena, and
// like every arena-backed view the buffer panics if used after the arena is
// Reset or Released.
type Buffer struct {
	arena   *Arena
	gen     uint64
	buf     []byte // written bytes; buf[off:] is the unread portion
	off     int    // read offset into buf
	readBuf []byte // intermediate buffer for ReadFrom
}

// NewBuffer creates a new Buffer backed by the given arena.
// If arena is nil, it falls back to standard Go allocation.
func NewBuffer(arena *Arena) *Buffer {
	b := &Buffer{arena: arena}
	if arena != nil {
		b.gen = arena.gen
	}
	return b
}

func (b *Buffer) assertUsable() {
	if b.arena != nil {
		b.arena.assertLive(b.gen)
	}
}

// Write implements io.Writer. It appends len(p) bytes from p to the buffer.
func (b *Buffer) Write(p []byte) (n int, err error) {
	if len(p) == 0 {
		return 0, nil
	}
	b.assertUsable()
	b.buf = SliceAppend(b.arena, b.buf, p...)
	return len(p), nil
}

// WriteByte appends a single byte to the buffer.
func (b *Buffer) WriteByte(c byte) error {
	b.assertUsable()
	b.buf = SliceAppend(b.arena, b.buf, c)
	return nil
}

// WriteString appends a string to the buffer.
func (b *Buffer) WriteString(s string) (n int, err error) {
	if len(s) == 0 {
		return 0, nil
	}
	b.assertUsable()
	b.buf = SliceAppend(b.arena, b.buf, []byte(s)...)
	return len(s), nil
}

// WriteTo writes the unread portion of the buffer to w until the data is
// exhausted or an error occurs.
func (b *Buffer) WriteTo(w io.Writer) (n int64, err error) {
	if b.Len() == 0 {
		return 0, nil
	}
	b.assertUsable()
	m, err := w.Write(b.buf[b.off:])
	b.off += m
	return int64(m), err
}

// Read reads up to len(p) bytes from the unread portion of the buffer.
func (b *Buffer) Read(p []byte) (n int, err error) {
	if b.Len() == 0 {
		return 0, io.EOF
	}
	b.assertUsable()
	n = copy(p, b.buf[b.off:])
	b.off += n
	if n < len(p) {
		err = io.EOF
	}
	return n, err
}

// ReadByte reads and returns the next byte from the buffer.
// If no byte is available, it returns io.EOF.
func (b *Buffer) ReadByte() (byte, error) {
	if b.Len() == 0 {
		return 0, io.EOF
	}
	b.assertUsable()
	c := b.buf[b.off]
	b.off++
	return c, nil
}

// Bytes returns a slice of length b.Len() holding the unread portion of the
// buffer. The slice is valid for use only until the next buffer modification.
func (b *Buffer) Bytes() []byte {
	if b.Len() == 0 {
		return []byte{}
	}
	b.assertUsable()
	return b.buf[b.off:]
}

// String returns the contents of the unread portion of the buffer as a string.
func (b *Buffer) String() string {
	b.assertUsable()
	return string(b.buf[b.off:])
}

// Len returns the number of bytes of the unread portion of the buffer.
func (b *Buffer) Len() int {
	return len(b.buf) - b.off
}

// Cap returns the capacity of the buffer's underlying byte slice.
func (b *Buffer) Cap() int {
	return cap(b.buf)
}

// Reset resets the buffer to be empty, retaining the backing region.
func (b *Buffer) Reset() {
	b.off = 0
	if b.buf != nil {
		b.buf = b.buf[:0]
	}
}

// Truncate discards all but the first n unread bytes from the buffer.
// It panics if n is negative or greater than the length of the buffer.
func (b *Buffer) Truncate(n int) {
	if n < 0 || n > b.Len() {
		panic("bump: buffer truncation out of range")
	}
	b.buf = b.buf[:b.off+n]
}

// Next returns a slice containing the next n bytes from the buffer,
// advancing the buffer as if the bytes had been returned by Read.
func (b *Buffer) Next(n int) []byte {
	if n <= 0 {
		return []byte{}
	}
	if n > b.Len() {
		n = b.Len()
	}
	if n == 0 {
		return []byte{}
	}
	b.assertUsable()
	result := make([]byte, n)
	copy(result, b.buf[b.off:b.off+n])
	b.off += n
	return result
}

// ReadFrom implements io.ReaderFrom. It reads data from r until EOF or
// error, appending it to the buffer. The intermediate read buffer is
// allocated from the arena.
func (b *Buffer) ReadFrom(r io.Reader) (n int64, err error) {
	const readBufferSize = 4 * 1024

	b.assertUsable()
	if b.readBuf == nil {
		b.readBuf = AllocateSlice[byte](b.arena, readBufferSize, readBufferSize)
	}

	for {
		nr, er := r.Read(b.readBuf)
		if nr > 0 {
			if _, ew := b.Write(b.readBuf[:nr]); ew != nil {
				return n, ew
			}
			n += int64(nr)
		}
		if er != nil {
			if er == io.EOF {
				return n, nil
			}
			return n, er
		}
	}
}
