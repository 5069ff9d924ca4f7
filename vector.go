// SPDX-License-Identifier: Apache-2.0

package bump

import (
	"iter"
	"math/bits"
	"unsafe"
)

// Vector is a growable, indexable sequence whose backing storage is obtained
// exclusively from a bound Arena. Growth allocates a new, larger region and
// relocates the live elements by raw byte copy; the old region is abandoned
// to the arena and reclaimed only when the whole arena is reclaimed.
//
// A Vector borrows its arena: it never frees arena memory and must not be
// used after the arena is Reset or Released (doing so panics). The raw
// relocation on growth means T must not contain interior pointers into
// itself, and like Allocate, T must not hold the only reference to
// GC-managed memory.
type Vector[T any] struct {
	arena    *Arena
	gen      uint64
	data     unsafe.Pointer
	len      int
	cap      int
	release  func(T)
	consumed bool
}

// VectorOption represents a configuration option for a vector.
type VectorOption[T any] func(*Vector[T])

// WithReleaseFunc registers a hook invoked exactly once per element when the
// element is discarded without being yielded to the caller: by Vector.Close,
// or by IntoIter.Close for elements never returned from Next.
func WithReleaseFunc[T any](f func(T)) VectorOption[T] {
	return func(v *Vector[T]) {
		v.release = f
	}
}

// NewVector creates an empty vector bound to the given arena.
func NewVector[T any](a *Arena, opts ...VectorOption[T]) *Vector[T] {
	if a == nil {
		panic("bump: nil arena")
	}
	a.assertLive(a.gen)
	v := &Vector[T]{arena: a, gen: a.gen}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Len returns the number of elements in the vector.
func (v *Vector[T]) Len() int { return v.len }

// Cap returns the number of elements the backing region can hold.
func (v *Vector[T]) Cap() int { return v.cap }

func (v *Vector[T]) assertUsable() {
	v.arena.assertLive(v.gen)
	if v.consumed {
		panic("bump: use of consumed vector")
	}
}

// elem returns the address of slot i. The caller guarantees i < cap.
func (v *Vector[T]) elem(i int) *T {
	var x T
	return (*T)(unsafe.Add(v.data, uintptr(i)*unsafe.Sizeof(x)))
}

// Get returns the element at index i. It panics if i is out of range.
func (v *Vector[T]) Get(i int) T {
	v.assertUsable()
	if i < 0 || i >= v.len {
		panic("bump: vector index out of range")
	}
	return *v.elem(i)
}

// Set replaces the element at index i. It panics if i is out of range.
func (v *Vector[T]) Set(i int, value T) {
	v.assertUsable()
	if i < 0 || i >= v.len {
		panic("bump: vector index out of range")
	}
	*v.elem(i) = value
}

// Reserve ensures the vector can hold at least additional more elements
// without another allocation. It is a no-op when spare capacity suffices.
func (v *Vector[T]) Reserve(additional int) {
	v.assertUsable()
	if additional <= v.cap-v.len {
		return
	}
	v.grow(additional)
}

// grow relocates the vector into a fresh arena region sized to the next
// power of two covering len+additional. The live prefix is moved by raw
// byte copy; the old region stays allocated until the arena is reclaimed.
func (v *Vector[T]) grow(additional int) {
	const smallMinimum = 4

	required := v.len + additional
	if required < v.len {
		panic("bump: capacity overflow")
	}
	if required < smallMinimum {
		required = smallMinimum
	}
	newCap := nextPowerOfTwo(required)

	var x T
	elemSize := unsafe.Sizeof(x)
	bufSize := checkedSliceSize(elemSize, newCap)
	ptr := v.arena.Alloc(bufSize, unsafe.Alignof(x))
	if v.len > 0 && elemSize > 0 {
		n := uintptr(v.len) * elemSize
		copy(unsafe.Slice((*byte)(ptr), n), unsafe.Slice((*byte)(v.data), n))
	}
	v.data = ptr
	v.cap = newCap
}

// Push appends value to the vector, growing the backing region if needed.
func (v *Vector[T]) Push(value T) {
	v.assertUsable()
	if v.len == v.cap {
		v.grow(1)
	}
	*v.elem(v.len) = value
	v.len++
}

// Extend appends every value in order. The exact length is known up front,
// so at most one growth allocation happens.
func (v *Vector[T]) Extend(values ...T) {
	v.Reserve(len(values))
	for _, value := range values {
		v.Push(value)
	}
}

// ExtendSeq appends every value produced by seq in order. The sequence
// carries no length hint; the vector grows on demand as elements arrive.
func (v *Vector[T]) ExtendSeq(seq iter.Seq[T]) {
	for value := range seq {
		v.Push(value)
	}
}

// Close discards the vector's elements, invoking the release hook once per
// element when one is registered. It never frees arena memory. Close is a
// no-op after IntoIter, since element ownership has moved to the iterator.
func (v *Vector[T]) Close() {
	if v.consumed {
		return
	}
	v.consumed = true
	if v.release == nil {
		v.len = 0
		return
	}
	v.arena.assertLive(v.gen)
	for i := 0; i < v.len; i++ {
		v.release(*v.elem(i))
	}
	v.len = 0
}

func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1 << bits.Len(uint(n-1))
	if p <= 0 {
		panic("bump: capacity overflow")
	}
	return p
}
