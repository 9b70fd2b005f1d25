package fonts

import (
	"bytes"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/go-text/typesetting/font"
	"golang.org/x/image/math/fixed"
)

// faceID hands out unique ids used for sprite content addressing.
var faceID atomic.Uint64

// Face wraps one parsed font file. The underlying *font.Font is
// read-only and shared with shaping; the cmap/outline face handle and
// the caches are guarded by mu.
type Face struct {
	id     uint64
	family string
	style  Style
	weight Weight

	gtFont *font.Font
	upem   float32

	mu     sync.Mutex
	gtFace *font.Face
	// metrics per quantized size
	metrics map[fixed.Int26_6]Metrics
	// rasterized coverage bitmaps per (size, glyph)
	bitmaps map[bitmapKey]*bitmapEntry
	clock   uint64
}

type bitmapKey struct {
	size fixed.Int26_6
	gid  uint32
}

type bitmapEntry struct {
	bitmap     *GlyphBitmap
	lastAccess uint64
}

// GlyphBitmap is a rasterized glyph: an 8-bit coverage mask plus its
// placement relative to the pen position (baseline origin, y down).
// A nil-data bitmap means rasterization failed or the glyph is blank;
// it occupies layout space but draws nothing.
type GlyphBitmap struct {
	Width  int
	Height int
	// Left and Top offset the bitmap's top-left corner from the pen.
	Left float32
	Top  float32
	Data []byte
	// SpriteID is the content address used by the sprite atlas.
	SpriteID uint64
}

// newFace parses TTF/OTF data.
func newFace(family string, style Style, weight Weight, data []byte) (*Face, error) {
	gtFace, err := font.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidFont, family, err)
	}
	upem := float32(gtFace.Upem())
	if upem == 0 {
		upem = 1000
	}
	return &Face{
		id:      faceID.Add(1),
		family:  family,
		style:   style,
		weight:  weight,
		gtFont:  gtFace.Font,
		upem:    upem,
		gtFace:  gtFace,
		metrics: make(map[fixed.Int26_6]Metrics),
		bitmaps: make(map[bitmapKey]*bitmapEntry),
	}, nil
}

// ID returns the face's process-unique id.
func (f *Face) ID() uint64 { return f.id }

// Family returns the family the face was registered under.
func (f *Face) Family() string { return f.family }

// Style returns the registered style.
func (f *Face) Style() Style { return f.style }

// Weight returns the registered weight.
func (f *Face) Weight() Weight { return f.weight }

// Font returns the shared parsed font for shaping input. The returned
// value is read-only and safe for concurrent use.
func (f *Face) Font() *font.Font { return f.gtFont }

func quantizeSize(size float32) fixed.Int26_6 {
	return fixed.Int26_6(size * 64)
}

// HasGlyph reports whether the face maps the rune to a real glyph.
func (f *Face) HasGlyph(r rune) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.gtFace.NominalGlyph(r)
	return ok
}

// Metrics returns the face's vertical metrics at the size, cached per
// quantized size.
func (f *Face) Metrics(size float32) Metrics {
	key := quantizeSize(size)
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := f.metrics[key]; ok {
		return m
	}

	scale := size / f.upem
	var m Metrics
	if ext, ok := f.gtFace.FontHExtents(); ok {
		m.Ascender = ext.Ascender * scale
		if m.Ascender < 0 {
			m.Ascender = -m.Ascender
		}
		m.Descender = ext.Descender * scale
		if m.Descender < 0 {
			m.Descender = -m.Descender
		}
		m.LineGap = ext.LineGap * scale
	} else {
		// Fonts without hhea extents get the conventional split.
		m.Ascender = size * 0.8
		m.Descender = size * 0.2
	}
	if gid, ok := f.gtFace.NominalGlyph(' '); ok {
		m.SpaceAdvance = f.gtFace.HorizontalAdvance(gid) * scale
	} else {
		m.SpaceAdvance = size / 4
	}
	m.Underline = m.Descender * 0.5
	m.Overline = m.Ascender * 0.84375
	m.Thickness = size / 16

	f.metrics[key] = m
	return m
}

// Bitmap returns the rasterized coverage mask for a glyph at a size,
// rasterizing and caching on first use. The entry's access time is
// refreshed for the age-based GC.
func (f *Face) Bitmap(size float32, gid uint32) *GlyphBitmap {
	key := bitmapKey{size: quantizeSize(size), gid: gid}
	f.mu.Lock()
	defer f.mu.Unlock()

	f.clock++
	if e, ok := f.bitmaps[key]; ok {
		e.lastAccess = f.clock
		return e.bitmap
	}

	bm := f.rasterizeLocked(size, gid)
	f.bitmaps[key] = &bitmapEntry{bitmap: bm, lastAccess: f.clock}
	return bm
}

// MaintainBitmaps drops bitmaps not accessed within the last maxAge
// lookups. Called periodically by the manager.
func (f *Face) MaintainBitmaps(maxAge uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k, e := range f.bitmaps {
		if f.clock-e.lastAccess > maxAge {
			delete(f.bitmaps, k)
		}
	}
}
