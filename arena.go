// SPDX-License-Identifier: Apache-2.0

// Package bump implements a chunked bump-down memory arena together with an
// arena-backed growable vector and a consuming iterator over it.
//
// An Arena hands out raw memory by moving a cursor through large
// pre-acquired chunks and reclaims everything at once on Release. Individual
// allocations are never freed. Every value that reads arena memory directly
// (Vector, IntoIter, Buffer) is bound to the arena generation it was created
// under; once the arena is Reset or Released, any further access through a
// stale binding panics instead of silently reading reused memory.
//
// The arena is a single-owner resource and is not safe for concurrent use
// from multiple goroutines.
package bump

import (
	"unsafe"
)

const (
	minChunkSize = 1024 * 32 // 32KB
)

// Arena is a chunked bump allocator. It owns a linked list of chunks and
// services allocations from the newest one, acquiring a larger chunk when
// the current one is exhausted.
type Arena struct {
	cur          *chunkFooter
	gen          uint64 // bumped on Reset and Release; stale views compare against it
	released     bool
	minChunkSize uintptr
	peak         uintptr // high-water mark of allocated bytes
}

// ArenaOption represents a configuration option for an arena.
type ArenaOption func(*Arena)

// WithMinChunkSize sets the minimum size of chunks acquired by the arena.
func WithMinChunkSize(size int) ArenaOption {
	return func(a *Arena) {
		a.minChunkSize = uintptr(size)
	}
}

// NewArena creates a new empty arena. No chunk memory is acquired until the
// first allocation.
func NewArena(opts ...ArenaOption) *Arena {
	a := &Arena{
		cur:          emptyChunk,
		minChunkSize: minChunkSize,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// zeroSizedBase is the address handed out for zero-size allocations, so that
// callers always receive a non-nil pointer without consuming chunk space.
var zeroSizedBase byte

// Alloc returns a writable region of at least size bytes aligned to
// alignment. The region remains valid until the arena is Reset or Released.
// Alloc panics if the arena has been released or if the underlying
// allocation fails; an arena has no partial-failure recovery.
func (a *Arena) Alloc(size, alignment uintptr) unsafe.Pointer {
	if a.released {
		panic("bump: use of arena after Release")
	}
	if alignment == 0 || alignment&(alignment-1) != 0 {
		panic("bump: alignment must be a power of two")
	}
	if size == 0 {
		return unsafe.Pointer(&zeroSizedBase)
	}

	ptr, ok := a.cur.alloc(size, alignment)
	if !ok {
		a.grow(size, alignment)
		ptr, ok = a.cur.alloc(size, alignment)
		if !ok {
			// The new chunk was sized to fit the request.
			panic("bump: failed to allocate on newly created chunk")
		}
	}

	if used := a.used(); used > a.peak {
		a.peak = used
	}
	return ptr
}

// grow acquires a new chunk large enough for the request and makes it
// current. Chunk sizes double as the arena grows.
func (a *Arena) grow(size, alignment uintptr) {
	newSize := a.cur.size * 2
	if required := size + alignment + footerSize; newSize < required {
		newSize = required
	}
	if newSize < a.minChunkSize {
		newSize = a.minChunkSize
	}
	a.cur = newChunk(newSize, a.cur)
}

// Reset invalidates every allocation but keeps the newest chunk for reuse.
// Any Vector, IntoIter or Buffer bound to the arena becomes stale: the next
// access through it panics.
func (a *Arena) Reset() {
	if a.released {
		panic("bump: use of arena after Release")
	}
	for f := a.cur.prev; f != emptyChunk; {
		prev := f.prev
		f.release()
		f = prev
	}
	if a.cur != emptyChunk {
		a.cur.prev = emptyChunk
		a.cur.ptr = a.cur.size
	}
	a.gen++
}

// Release walks the chunk list newest-first and returns every chunk to the
// runtime. The arena must not be used afterwards; any further allocation, or
// any access through a value bound to the arena, panics.
func (a *Arena) Release() {
	for f := a.cur; f != emptyChunk; {
		prev := f.prev
		f.release()
		f = prev
	}
	a.cur = emptyChunk
	a.gen++
	a.released = true
}

// assertLive panics unless the arena is still live and gen matches its
// current generation. Every arena-backed view revalidates through this
// before touching arena memory.
func (a *Arena) assertLive(gen uint64) {
	if a.released {
		panic("bump: use of arena memory after Release")
	}
	if a.gen != gen {
		panic("bump: use of arena memory after Reset")
	}
}

func (a *Arena) used() uintptr {
	var total uintptr
	for f := a.cur; f != emptyChunk; f = f.prev {
		total += f.used()
	}
	return total
}

// Len returns the total number of bytes currently allocated in the arena.
func (a *Arena) Len() int {
	return int(a.used())
}

// Cap returns the total capacity (maximum bytes) that can be allocated in
// the arena without acquiring another chunk.
func (a *Arena) Cap() int {
	var total uintptr
	for f := a.cur; f != emptyChunk; f = f.prev {
		total += f.size
	}
	return int(total)
}

// Peak returns the peak number of bytes that have been allocated in the
// arena. This value is not reset when Reset is called, allowing tracking of
// maximum usage.
func (a *Arena) Peak() int {
	return int(a.peak)
}
