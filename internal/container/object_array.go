// Package container implements container data structures.
package container

import (
	"errors"
	"fmt"
	"math"
)

const (
	// pageBits determines the size of each page.
	// 10 bits = 1024 slots per page.
	pageBits = 10
	pageSize = 1 << pageBits
	pageMask = pageSize - 1

	// MaxSize is the largest number of addressable slots. It bounds the page
	// directory to 2M pointers and fits an int on every platform.
	MaxSize = math.MaxInt32
)

// ErrTooLarge is returned by Grow for sizes above MaxSize.
var ErrTooLarge = errors.New("container: size exceeds MaxSize")

// ObjectArray is a growable, sparse, index-addressable array.
//
// Slots are grouped into fixed-size pages that are allocated on first write,
// so a large but sparsely populated array only pays for the pages it uses.
// Growing reallocates the page directory and copies page pointers: existing
// slots keep their identity. The array never shrinks.
//
// Absent slots are distinct from zero-valued ones: Get reports whether a
// value was ever Set.
//
// ObjectArray is NOT thread-safe. It is intended to be owned by a single
// goroutine.
type ObjectArray[T any] struct {
	pages    []*page[T]
	size     int
	released bool
}

type page[T any] struct {
	items   [pageSize]T
	present [pageSize]bool
}

// NewObjectArray creates an array with size addressable slots.
// It panics if size exceeds MaxSize.
func NewObjectArray[T any](size int) *ObjectArray[T] {
	a := &ObjectArray[T]{}
	if err := a.Grow(size); err != nil {
		panic(err)
	}
	return a
}

// Size returns the number of addressable slots.
func (a *ObjectArray[T]) Size() int { return a.size }

// Grow makes at least minSize slots addressable. Growth over-allocates with
// Oversize so repeated single-step growth stays amortized O(1). A smaller
// minSize is a no-op. Sizes above MaxSize fail with ErrTooLarge and leave
// the array unchanged.
func (a *ObjectArray[T]) Grow(minSize int) error {
	if minSize <= a.size {
		return nil
	}
	if minSize > MaxSize {
		return fmt.Errorf("%w: %d > %d", ErrTooLarge, minSize, MaxSize)
	}
	newSize := Oversize(minSize)
	numPages := (newSize + pageMask) >> pageBits
	if numPages > len(a.pages) {
		grown := make([]*page[T], numPages)
		copy(grown, a.pages)
		a.pages = grown
	}
	a.size = newSize
	a.released = false
	return nil
}

// Get returns the value at index.
// Returns the zero value and false if index is out of range or never set.
func (a *ObjectArray[T]) Get(index int) (T, bool) {
	var zero T
	if index < 0 || index >= a.size {
		return zero, false
	}
	p := a.pages[index>>pageBits]
	if p == nil || !p.present[index&pageMask] {
		return zero, false
	}
	return p.items[index&pageMask], true
}

// Set stores value at index. The index must be addressable; call Grow first.
func (a *ObjectArray[T]) Set(index int, value T) {
	if index < 0 || index >= a.size {
		panic("container: ObjectArray index out of range")
	}
	pi := index >> pageBits
	p := a.pages[pi]
	if p == nil {
		p = &page[T]{}
		a.pages[pi] = p
	}
	p.items[index&pageMask] = value
	p.present[index&pageMask] = true
}

// Range calls fn for every present slot in ascending index order until fn
// returns false.
func (a *ObjectArray[T]) Range(fn func(index int, value T) bool) {
	for pi, p := range a.pages {
		if p == nil {
			continue
		}
		base := pi << pageBits
		for i := range p.present {
			if base+i >= a.size {
				return
			}
			if p.present[i] && !fn(base+i, p.items[i]) {
				return
			}
		}
	}
}

// Release drops all pages. The array is empty with size 0 afterwards.
// Calling Release more than once is a no-op.
func (a *ObjectArray[T]) Release() {
	if a.released {
		return
	}
	a.pages = nil
	a.size = 0
	a.released = true
}

// Oversize returns the capacity to allocate for at least minSize slots:
// 1/8 headroom, rounded up to a multiple of 8, capped at MaxSize. Sizes
// above MaxSize are returned unchanged.
func Oversize(minSize int) int {
	if minSize <= 0 {
		return 0
	}
	if minSize >= MaxSize {
		return minSize
	}
	extra := minSize >> 3
	if extra < 3 {
		extra = 3
	}
	if minSize > MaxSize-extra-7 {
		return MaxSize
	}
	n := minSize + extra
	return (n + 7) &^ 7
}
