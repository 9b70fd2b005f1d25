// Package alloc provides a flat block allocator over a growing linear
// byte region. It backs the sprite atlas, which stores glyph coverage
// masks contiguously so they can be uploaded to the GPU as one texture.
package alloc

import "math"

// Null is the sentinel offset returned when no free block can satisfy
// a request. Callers must check for it; the allocator never errors.
const Null = uint32(math.MaxUint32)

// Policy selects the free-block search strategy.
type Policy uint8

const (
	// FirstFit takes the first free block large enough (default).
	FirstFit Policy = iota
	// BestFit takes the smallest free block large enough.
	BestFit
)

// Stat reports free-space accounting for growth and eviction decisions.
type Stat struct {
	// TotalFree is the sum of all free block sizes in bytes.
	TotalFree uint32
	// LargestFree is the size of the largest free block in bytes.
	LargestFree uint32
	// FreeBlocks is the number of free blocks.
	FreeBlocks int
}

// block is a free range. Blocks are kept sorted by offset and never
// overlap; adjacent blocks are merged on Free and Grow.
type block struct {
	offset uint32
	size   uint32
}

// FlatAllocator manages variable-size allocations inside a single
// contiguous region. It tracks only free space; the caller owns the
// backing bytes. Not safe for concurrent use: the owner (the sprite
// atlas) serializes access under the render device's resource mutex.
type FlatAllocator struct {
	size      uint32
	alignment uint32
	policy    Policy
	free      []block
}

// NewFlatAllocator creates an allocator over a region of size bytes.
// Allocations are rounded up to a multiple of alignment, which must be
// a power of two (8 for the sprite atlas).
func NewFlatAllocator(size, alignment uint32, policy Policy) *FlatAllocator {
	if alignment == 0 {
		alignment = 1
	}
	a := &FlatAllocator{
		size:      size,
		alignment: alignment,
		policy:    policy,
	}
	if size > 0 {
		a.free = append(a.free, block{offset: 0, size: size})
	}
	return a
}

// Size returns the total region size in bytes.
func (a *FlatAllocator) Size() uint32 { return a.size }

// Allocate reserves n bytes and returns the offset of the reservation,
// or Null if no free block is large enough.
func (a *FlatAllocator) Allocate(n uint32) uint32 {
	if n == 0 {
		return Null
	}
	n = a.alignUp(n)

	idx := -1
	switch a.policy {
	case BestFit:
		best := uint32(math.MaxUint32)
		for i, b := range a.free {
			if b.size >= n && b.size < best {
				best = b.size
				idx = i
			}
		}
	default: // FirstFit
		for i, b := range a.free {
			if b.size >= n {
				idx = i
				break
			}
		}
	}
	if idx < 0 {
		return Null
	}

	b := &a.free[idx]
	offset := b.offset
	if b.size == n {
		a.free = append(a.free[:idx], a.free[idx+1:]...)
	} else {
		b.offset += n
		b.size -= n
	}
	return offset
}

// Free returns a previously allocated range to the free list, merging
// with adjacent free blocks on both sides.
func (a *FlatAllocator) Free(offset, n uint32) {
	if n == 0 {
		return
	}
	n = a.alignUp(n)

	// Insert position keeping the list sorted by offset.
	idx := len(a.free)
	for i, b := range a.free {
		if b.offset > offset {
			idx = i
			break
		}
	}

	// Merge with the preceding block if adjacent.
	if idx > 0 && a.free[idx-1].offset+a.free[idx-1].size == offset {
		a.free[idx-1].size += n
		// The grown block may now touch the following one.
		if idx < len(a.free) && a.free[idx-1].offset+a.free[idx-1].size == a.free[idx].offset {
			a.free[idx-1].size += a.free[idx].size
			a.free = append(a.free[:idx], a.free[idx+1:]...)
		}
		return
	}
	// Merge with the following block if adjacent.
	if idx < len(a.free) && offset+n == a.free[idx].offset {
		a.free[idx].offset = offset
		a.free[idx].size += n
		return
	}

	a.free = append(a.free, block{})
	copy(a.free[idx+1:], a.free[idx:])
	a.free[idx] = block{offset: offset, size: n}
}

// Grow extends the region to newSize bytes. The new suffix becomes a
// free block, merged with a trailing free block if present. Grow never
// shrinks; a smaller newSize is ignored.
func (a *FlatAllocator) Grow(newSize uint32) {
	if newSize <= a.size {
		return
	}
	added := newSize - a.size
	oldSize := a.size
	a.size = newSize

	if n := len(a.free); n > 0 && a.free[n-1].offset+a.free[n-1].size == oldSize {
		a.free[n-1].size += added
		return
	}
	a.free = append(a.free, block{offset: oldSize, size: added})
}

// Stat reports total free bytes, the largest free block, and the free
// block count.
func (a *FlatAllocator) Stat() Stat {
	var s Stat
	s.FreeBlocks = len(a.free)
	for _, b := range a.free {
		s.TotalFree += b.size
		if b.size > s.LargestFree {
			s.LargestFree = b.size
		}
	}
	return s
}

func (a *FlatAllocator) alignUp(n uint32) uint32 {
	return (n + a.alignment - 1) &^ (a.alignment - 1)
}
