package fonts

import (
	"encoding/binary"
	"hash/fnv"
	"image"

	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/font/opentype"
	"golang.org/x/image/vector"

	"github.com/dancazarin/brisk-sub002/internal/logging"
)

// rasterizeLocked renders a glyph outline into an 8-bit coverage mask
// via the x/image vector rasterizer. Font-unit coordinates are scaled
// to pixels and flipped to y-down. Callers hold f.mu.
func (f *Face) rasterizeLocked(size float32, gid uint32) *GlyphBitmap {
	bm := &GlyphBitmap{SpriteID: spriteID(f.id, size, gid)}

	data := f.gtFace.GlyphData(font.GID(gid))
	outline, ok := data.(font.GlyphOutline)
	if !ok || len(outline.Segments) == 0 {
		// Bitmap/SVG glyph formats and blank glyphs (spaces) render
		// nothing but still occupy layout space.
		return bm
	}

	scale := size / f.upem

	// Device-space bounds from the control polygon.
	minX, minY := float32(1e30), float32(1e30)
	maxX, maxY := float32(-1e30), float32(-1e30)
	grow := func(p opentype.SegmentPoint) {
		x := p.X * scale
		y := -p.Y * scale
		if x < minX {
			minX = x
		}
		if x > maxX {
			maxX = x
		}
		if y < minY {
			minY = y
		}
		if y > maxY {
			maxY = y
		}
	}
	for _, s := range outline.Segments {
		grow(s.Args[0])
		switch s.Op {
		case opentype.SegmentOpQuadTo:
			grow(s.Args[1])
		case opentype.SegmentOpCubeTo:
			grow(s.Args[1])
			grow(s.Args[2])
		}
	}

	const pad = 1
	left := floorf(minX) - pad
	top := floorf(minY) - pad
	w := int(ceilf(maxX)) - int(left) + 2*pad
	h := int(ceilf(maxY)) - int(top) + 2*pad
	if w <= 0 || h <= 0 || w > 4096 || h > 4096 {
		logging.Logger().Warn("fonts: glyph bounds out of range",
			"face", f.family, "glyph", gid, "w", w, "h", h)
		return bm
	}

	r := vector.NewRasterizer(w, h)
	dx := -left
	dy := -top
	started := false
	for _, s := range outline.Segments {
		px := func(i int) (float32, float32) {
			return s.Args[i].X*scale + dx, -s.Args[i].Y*scale + dy
		}
		switch s.Op {
		case opentype.SegmentOpMoveTo:
			if started {
				r.ClosePath()
			}
			started = true
			x, y := px(0)
			r.MoveTo(x, y)
		case opentype.SegmentOpLineTo:
			x, y := px(0)
			r.LineTo(x, y)
		case opentype.SegmentOpQuadTo:
			cx, cy := px(0)
			x, y := px(1)
			r.QuadTo(cx, cy, x, y)
		case opentype.SegmentOpCubeTo:
			c1x, c1y := px(0)
			c2x, c2y := px(1)
			x, y := px(2)
			r.CubeTo(c1x, c1y, c2x, c2y, x, y)
		}
	}
	if started {
		r.ClosePath()
	}

	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	r.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})

	bm.Width = w
	bm.Height = h
	bm.Left = left
	bm.Top = top
	bm.Data = maskBytes(mask, w, h)
	return bm
}

// maskBytes extracts a tightly packed w*h coverage buffer.
func maskBytes(mask *image.Alpha, w, h int) []byte {
	if mask.Stride == w {
		return mask.Pix[:w*h]
	}
	out := make([]byte, w*h)
	for y := 0; y < h; y++ {
		copy(out[y*w:(y+1)*w], mask.Pix[y*mask.Stride:y*mask.Stride+w])
	}
	return out
}

// spriteID content-addresses a rasterized glyph for the sprite atlas.
func spriteID(face uint64, size float32, gid uint32) uint64 {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[0:], face)
	binary.LittleEndian.PutUint32(buf[8:], uint32(quantizeSize(size)))
	binary.LittleEndian.PutUint32(buf[12:], gid)
	h := fnv.New64a()
	h.Write(buf[:])
	return h.Sum64()
}

func floorf(v float32) float32 {
	i := float32(int(v))
	if v < i {
		return i - 1
	}
	return i
}

func ceilf(v float32) float32 {
	i := float32(int(v))
	if v > i {
		return i + 1
	}
	return i
}
