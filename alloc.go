// SPDX-License-Identifier: Apache-2.0

package bump

import (
	"math"
	"unsafe"
)

const growThreshold = 256

// Allocate allocates memory for a value of type T using the provided Arena.
// If the arena is non-nil, it returns a *T pointer with memory allocated
// from the arena. If passed arena is nil, it allocates memory using Go's
// built-in new function.
//
// T must not contain pointers to GC-managed memory unless those pointers are
// kept alive elsewhere: arena chunks are opaque byte regions the garbage
// collector does not scan.
func Allocate[T any](a *Arena) *T {
	if a != nil {
		var x T
		if ptr := a.Alloc(unsafe.Sizeof(x), unsafe.Alignof(x)); ptr != nil {
			return (*T)(ptr)
		}
	}
	return new(T)
}

// AllocateSlice creates a slice of type T with a given length and capacity,
// using the provided Arena for memory allocation.
// If the arena is non-nil, it returns a slice with memory allocated from the
// arena. Otherwise, it returns a slice using Go's built-in make function.
// It panics if cap elements of T do not fit in the address-space integer
// type, before any chunk allocation is attempted.
func AllocateSlice[T any](a *Arena, len, cap int) []T {
	if a != nil {
		var x T
		bufSize := checkedSliceSize(unsafe.Sizeof(x), cap)
		if ptr := (*T)(a.Alloc(bufSize, unsafe.Alignof(x))); ptr != nil {
			s := unsafe.Slice(ptr, cap)
			return s[:len]
		}
	}
	return make([]T, len, cap)
}

// SliceAppend appends elements to a slice of type T using a provided Arena
// for memory allocation if needed.
func SliceAppend[T any](a *Arena, s []T, data ...T) []T {
	if a == nil {
		return append(s, data...)
	}
	s = growSlice(a, s, len(data))
	return append(s, data...)
}

func growSlice[T any](a *Arena, s []T, dataLen int) []T {
	newLen := len(s) + dataLen
	newCap := cap(s)

	if newCap > 0 {
		for newLen > newCap {
			if newCap < growThreshold {
				newCap *= 2
			} else {
				newCap += newCap / 4
			}
		}
	} else {
		newCap = dataLen
	}
	if newCap == cap(s) {
		return s
	}
	s2 := AllocateSlice[T](a, len(s), newCap)
	copy(s2, s)
	return s2
}

// checkedSliceSize returns elemSize*n, panicking on overflow of the
// address-space integer type. Overflow is fatal and detected before any
// system allocation is issued.
func checkedSliceSize(elemSize uintptr, n int) uintptr {
	if n < 0 {
		panic("bump: negative capacity")
	}
	if elemSize > 0 && uintptr(n) > uintptr(math.MaxInt)/elemSize {
		panic("bump: capacity overflow")
	}
	return elemSize * uintptr(n)
}
