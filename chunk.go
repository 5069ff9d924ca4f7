// SPDX-License-Identifier: Apache-2.0

package bump

import (
	"unsafe"
)

// chunkFooter is the bookkeeping record for one contiguous block of arena
// memory. Chunks form a singly linked list from newest to oldest, terminated
// by the emptyChunk sentinel.
type chunkFooter struct {
	buf  []byte       // backing region; len(buf) == size
	size uintptr      // usable bytes in buf
	ptr  uintptr      // bump cursor, an offset into buf; allocations move it toward 0
	prev *chunkFooter // next-older chunk
}

// footerSize is accounted for when sizing a new chunk so that a chunk large
// enough for a request is also large enough for its own bookkeeping.
const footerSize = unsafe.Sizeof(chunkFooter{})

// emptyChunk is the zero-capacity sentinel every fresh arena starts on and
// every chunk list terminates at. Its prev link points at itself so list
// walks need no nil checks.
var emptyChunk = func() *chunkFooter {
	c := &chunkFooter{}
	c.prev = c
	return c
}()

func newChunk(size uintptr, prev *chunkFooter) *chunkFooter {
	return &chunkFooter{
		buf:  make([]byte, size),
		size: size,
		ptr:  size, // fresh chunk: cursor at the high end
		prev: prev,
	}
}

// alloc attempts a bump-down allocation within the chunk: the candidate
// address is the cursor minus the request, rounded down to the alignment.
// It succeeds only if the candidate still lies within the region.
func (c *chunkFooter) alloc(size, alignment uintptr) (unsafe.Pointer, bool) {
	if c.size == 0 || size > c.ptr {
		return nil, false
	}
	base := uintptr(unsafe.Pointer(unsafe.SliceData(c.buf)))
	candidate := (base + c.ptr - size) &^ (alignment - 1)
	if candidate < base {
		return nil, false
	}
	c.ptr = candidate - base
	ptr := unsafe.Pointer(candidate)

	// This piece of code will be translated into a runtime.memclrNoHeapPointers
	// invocation by the compiler, which is an assembler optimized implementation.
	// Architecture specific code can be found at src/runtime/memclr_$GOARCH.s
	// in Go source (since https://codereview.appspot.com/137880043).
	b := unsafe.Slice((*byte)(ptr), size)
	for i := range b {
		b[i] = 0
	}

	return ptr, true
}

// used reports how many bytes of the chunk have been handed out.
func (c *chunkFooter) used() uintptr {
	return c.size - c.ptr
}

// release drops the backing region and detaches the chunk from its list.
func (c *chunkFooter) release() {
	c.buf = nil
	c.size = 0
	c.ptr = 0
	c.prev = emptyChunk
}
