// Package atlas provides the host-side stores behind the two GPU atlas
// textures: a sprite atlas holding 8-bit coverage masks in one linear
// buffer, and a gradient atlas holding pre-sampled color ramps in a
// fixed slot table. Both use generation counters so entries referenced
// by the in-flight batch are never evicted.
package atlas

import "github.com/dancazarin/brisk-sub002/alloc"

// SpriteAlignment is the byte alignment of sprite data inside the
// atlas buffer. Offsets are exposed divided by this value so they fit
// the shader's fixed-point addressing.
const SpriteAlignment = 8

// SpriteNull is the sentinel offset for "sprite not in atlas".
const SpriteNull = SpriteOffset(0xFFFFFFFF)

// SpriteOffset addresses a sprite inside the atlas buffer, in units of
// SpriteAlignment bytes.
type SpriteOffset uint32

// Sprite is a content-addressable coverage bitmap. Two sprites are
// equal iff their IDs match; callers derive the ID from the content
// (face, size, glyph, subpixel phase) before the sprite reaches the
// atlas.
type Sprite struct {
	// ID is the opaque content hash.
	ID uint64
	// Width and Height are the bitmap dimensions in pixels.
	Width  int
	Height int
	// Data is the 8-bit coverage, Width*Height bytes, row-major.
	Data []byte
}

// Size returns the byte size of the sprite data.
func (s *Sprite) Size() int { return len(s.Data) }

type spriteEntry struct {
	offset     uint32 // byte offset into the buffer
	size       uint32 // byte size as allocated
	generation uint64
}

// SpriteAtlas owns one linear byte buffer and a flat allocator on top
// of it. The buffer grows in fixed increments up to a maximum; when
// growth is exhausted, entries whose generation predates the current
// batch are evicted oldest-first.
//
// The atlas itself is not synchronized: callers hold the render
// device's resource mutex around every method.
type SpriteAtlas struct {
	data      []byte
	allocator *alloc.FlatAllocator
	entries   map[uint64]*spriteEntry

	maxSize uint32
	growth  uint32

	// changed increments on any mutation so encoders can detect the
	// need to re-upload.
	changed uint64
}

// NewSpriteAtlas creates an atlas with an initial buffer of size
// bytes, growing by growth up to maxSize.
func NewSpriteAtlas(size, maxSize, growth uint32) *SpriteAtlas {
	return &SpriteAtlas{
		data:      make([]byte, size),
		allocator: alloc.NewFlatAllocator(size, SpriteAlignment, alloc.FirstFit),
		entries:   make(map[uint64]*spriteEntry),
		maxSize:   maxSize,
		growth:    growth,
	}
}

// AddEntry places the sprite into the atlas and returns its offset.
// If the sprite is already present its generation is bumped to
// currentGen. When the buffer is full, entries older than firstGen are
// evicted, then the buffer is grown; if neither yields room the call
// returns SpriteNull.
func (a *SpriteAtlas) AddEntry(sprite *Sprite, firstGen, currentGen uint64) SpriteOffset {
	if e, ok := a.entries[sprite.ID]; ok {
		// Touching the generation keeps the entry pinned for the batch
		// but does not change the uploaded bytes.
		e.generation = currentGen
		return SpriteOffset(e.offset / SpriteAlignment)
	}

	n := uint32(sprite.Size())
	if n == 0 {
		return SpriteNull
	}

	offset := a.allocator.Allocate(n)
	for offset == alloc.Null {
		if a.RemoveOutdated(firstGen) {
			offset = a.allocator.Allocate(n)
			continue
		}
		if !a.grow() {
			return SpriteNull
		}
		offset = a.allocator.Allocate(n)
	}

	copy(a.data[offset:], sprite.Data)
	a.entries[sprite.ID] = &spriteEntry{
		offset:     offset,
		size:       n,
		generation: currentGen,
	}
	a.changed++
	return SpriteOffset(offset / SpriteAlignment)
}

// Lookup returns the offset of a resident sprite without touching its
// generation, or SpriteNull if it is absent.
func (a *SpriteAtlas) Lookup(id uint64) SpriteOffset {
	if e, ok := a.entries[id]; ok {
		return SpriteOffset(e.offset / SpriteAlignment)
	}
	return SpriteNull
}

// RemoveOutdated evicts the oldest entry whose generation is below the
// threshold. It returns whether an eviction occurred.
func (a *SpriteAtlas) RemoveOutdated(threshold uint64) bool {
	var (
		oldestID  uint64
		oldest    *spriteEntry
		foundDead bool
	)
	for id, e := range a.entries {
		if e.generation >= threshold {
			continue
		}
		if !foundDead || e.generation < oldest.generation {
			oldestID, oldest = id, e
			foundDead = true
		}
	}
	if !foundDead {
		return false
	}
	a.allocator.Free(oldest.offset, oldest.size)
	delete(a.entries, oldestID)
	a.changed++
	return true
}

// grow extends the buffer by one increment, clamped to maxSize.
func (a *SpriteAtlas) grow() bool {
	if a.growth == 0 {
		return false
	}
	cur := uint32(len(a.data))
	if cur >= a.maxSize {
		return false
	}
	next := cur + a.growth
	if next > a.maxSize {
		next = a.maxSize
	}
	grown := make([]byte, next)
	copy(grown, a.data)
	a.data = grown
	a.allocator.Grow(next)
	a.changed++
	return true
}

// Data returns the backing bytes for upload. The slice is only valid
// until the next mutation.
func (a *SpriteAtlas) Data() []byte { return a.data }

// Size returns the current buffer size in bytes.
func (a *SpriteAtlas) Size() int { return len(a.data) }

// Len returns the number of resident sprites.
func (a *SpriteAtlas) Len() int { return len(a.entries) }

// Changed returns the mutation counter. Encoders compare it against
// their stored stamp to decide whether to re-upload the atlas texture.
func (a *SpriteAtlas) Changed() uint64 { return a.changed }

// Stat reports free-space accounting from the underlying allocator.
func (a *SpriteAtlas) Stat() alloc.Stat { return a.allocator.Stat() }
