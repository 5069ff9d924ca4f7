// SPDX-License-Identifier: Apache-2.0

package bump

import (
	"iter"
	"unsafe"
)

// IntoIter is a one-shot, forward-only iterator over the elements of a
// consumed Vector, read directly out of arena memory.
//
// Like the vector it came from, an IntoIter borrows the arena: calling Next
// after the arena has been Reset or Released panics rather than returning
// whatever unrelated data now occupies the region. Go cannot reject that
// program at compile time the way a borrow checker would, so the binding is
// a generation captured at construction and revalidated on every read.
type IntoIter[T any] struct {
	arena   *Arena
	gen     uint64
	cur     uintptr // address of the next element to yield
	end     uintptr // one past the last element
	release func(T)
}

// IntoIter consumes the vector and returns an iterator over its elements.
// Ownership of all elements transfers to the iterator: the vector's Close
// becomes a no-op and any further mutation of it panics. A vector can be
// converted at most once.
//
// Element addresses are computed by element-stride arithmetic; a zero-sized
// T advances the cursor by one byte per element so that length bookkeeping
// stays exact.
func (v *Vector[T]) IntoIter() *IntoIter[T] {
	v.assertUsable()
	v.consumed = true

	begin := uintptr(v.data)
	if v.data == nil {
		begin = uintptr(unsafe.Pointer(&zeroSizedBase))
	}
	var x T
	stride := unsafe.Sizeof(x)
	end := begin + uintptr(v.len)*stride
	if stride == 0 {
		end = begin + uintptr(v.len)
	}

	it := &IntoIter[T]{
		arena:   v.arena,
		gen:     v.gen,
		cur:     begin,
		end:     end,
		release: v.release,
	}
	v.data = nil
	v.len = 0
	v.cap = 0
	return it
}

// Next returns the next element and true, or the zero value and false once
// the iterator is exhausted. Exhaustion is permanent and checked before any
// memory is touched, so calling Next on a drained iterator is always safe.
func (it *IntoIter[T]) Next() (T, bool) {
	var zero T
	if it.cur == it.end {
		return zero, false
	}
	it.arena.assertLive(it.gen)

	stride := unsafe.Sizeof(zero)
	if stride == 0 {
		it.cur++
		return zero, true
	}
	value := *(*T)(unsafe.Pointer(it.cur))
	it.cur += stride
	return value, true
}

// Remaining returns the number of elements not yet yielded.
func (it *IntoIter[T]) Remaining() int {
	var x T
	stride := unsafe.Sizeof(x)
	if stride == 0 {
		return int(it.end - it.cur)
	}
	return int((it.end - it.cur) / stride)
}

// Seq adapts the iterator for range-over-func. Breaking out of the range
// leaves the iterator positioned at the first unyielded element.
func (it *IntoIter[T]) Seq() iter.Seq[T] {
	return func(yield func(T) bool) {
		for {
			value, ok := it.Next()
			if !ok || !yield(value) {
				return
			}
		}
	}
}

// Close discards the elements that were never yielded, invoking the release
// hook once per remaining element when one is registered. Fully drained
// iterators Close as a no-op.
func (it *IntoIter[T]) Close() {
	if it.release == nil {
		it.cur = it.end
		return
	}
	for {
		value, ok := it.Next()
		if !ok {
			return
		}
		it.release(value)
	}
}
