package brisk

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"image"

	"github.com/chewxy/math32"
	"golang.org/x/image/vector"

	"github.com/dancazarin/brisk-sub002/atlas"
	"github.com/dancazarin/brisk-sub002/colors"
	"github.com/dancazarin/brisk-sub002/fonts"
	"github.com/dancazarin/brisk-sub002/pixel"
	"github.com/dancazarin/brisk-sub002/render"
)

// ErrNoFontManager is returned by text operations on a canvas without
// an attached font manager.
var ErrNoFontManager = fmt.Errorf("brisk: canvas has no font manager")

// canvasState is the saveable part of a Canvas.
type canvasState struct {
	transform   Matrix
	fillPaint   Paint
	strokePaint Paint
	strokeStyle StrokeStyle
	clip        Rect
	opacity     float32
}

// Canvas is the stateful drawing API: a transform stack, fill and
// stroke paints, rectangle and path drawing, images and text. Paths
// are lowered to coverage-mask sprites on the CPU; rectangles,
// gradients and textures go to the GPU-friendly shaders directly.
//
// A Canvas draws into one frame: create it over a fresh pipeline, draw,
// then Close the pipeline (or the RawCanvas owner does).
type Canvas struct {
	raw   *RawCanvas
	fm    *fonts.Manager
	ratio float32

	state canvasState
	stack []canvasState

	// flattening tolerance in device pixels
	tolerance float32
}

// NewCanvas creates a canvas over a pipeline.
func NewCanvas(p *render.Pipeline) *Canvas {
	return &Canvas{
		raw:   NewRawCanvas(p),
		ratio: 1,
		state: canvasState{
			transform:   Identity(),
			fillPaint:   SolidPaint(colors.White),
			strokePaint: SolidPaint(colors.Black),
			strokeStyle: DefaultStrokeStyle(),
			opacity:     1,
		},
		tolerance: 0.25,
	}
}

// Raw returns the underlying RawCanvas.
func (c *Canvas) Raw() *RawCanvas { return c.raw }

// SetFontManager attaches the font manager used by text operations.
func (c *Canvas) SetFontManager(fm *fonts.Manager) { c.fm = fm }

// SetPixelRatio sets the device-pixel ratio. Logical coordinates are
// scaled by it ahead of the user transform.
func (c *Canvas) SetPixelRatio(r float32) {
	if r > 0 {
		c.ratio = r
	}
}

// PixelRatio returns the device-pixel ratio.
func (c *Canvas) PixelRatio() float32 { return c.ratio }

// Save pushes the current state.
func (c *Canvas) Save() {
	c.stack = append(c.stack, c.state)
}

// Restore pops to the most recently saved state. Restoring an empty
// stack is a no-op.
func (c *Canvas) Restore() {
	if n := len(c.stack); n > 0 {
		c.state = c.stack[n-1]
		c.stack = c.stack[:n-1]
	}
}

// Translate appends a translation to the transform.
func (c *Canvas) Translate(x, y float32) {
	c.state.transform = Translate(x, y).Multiply(c.state.transform)
}

// Scale appends a scale to the transform.
func (c *Canvas) Scale(x, y float32) {
	c.state.transform = Scale(x, y).Multiply(c.state.transform)
}

// Rotate appends a rotation (radians) to the transform.
func (c *Canvas) Rotate(angle float32) {
	c.state.transform = Rotate(angle).Multiply(c.state.transform)
}

// Concat appends an arbitrary transform.
func (c *Canvas) Concat(m Matrix) {
	c.state.transform = m.Multiply(c.state.transform)
}

// SetFillPaint sets the paint for fill operations.
func (c *Canvas) SetFillPaint(p Paint) { c.state.fillPaint = p }

// SetFillColor sets a solid fill color.
func (c *Canvas) SetFillColor(col colors.Color) { c.state.fillPaint = SolidPaint(col) }

// SetStrokePaint sets the paint for stroke operations.
func (c *Canvas) SetStrokePaint(p Paint) { c.state.strokePaint = p }

// SetStrokeColor sets a solid stroke color.
func (c *Canvas) SetStrokeColor(col colors.Color) { c.state.strokePaint = SolidPaint(col) }

// SetStrokeStyle sets the stroke geometry parameters.
func (c *Canvas) SetStrokeStyle(s StrokeStyle) { c.state.strokeStyle = s }

// SetStrokeWidth sets the stroke width, keeping the other style
// parameters.
func (c *Canvas) SetStrokeWidth(w float32) { c.state.strokeStyle.Width = w }

// SetOpacity sets the global opacity multiplier in [0, 1].
func (c *Canvas) SetOpacity(o float32) { c.state.opacity = clamp01(o) }

// ClipRect intersects the clip with a device-space rectangle.
func (c *Canvas) ClipRect(r Rect) {
	if c.state.clip.Empty() {
		c.state.clip = r
	} else {
		c.state.clip = c.state.clip.Intersect(r)
	}
}

// deviceTransform is the full local-to-device matrix including the
// pixel ratio.
func (c *Canvas) deviceTransform() Matrix {
	if c.ratio == 1 {
		return c.state.transform
	}
	return c.state.transform.Multiply(Scale(c.ratio, c.ratio))
}

// sync pushes the canvas state into the raw canvas.
func (c *Canvas) sync(transform Matrix) {
	c.raw.SetTransform(transform)
	c.raw.SetClipRect(c.state.clip)
}

// paintColor resolves the effective solid color of a paint with the
// canvas opacity applied.
func (c *Canvas) paintColor(p Paint) colors.Color {
	return p.Color.MultiplyAlpha(c.state.opacity)
}

// FillRect fills a rectangle with the fill paint.
func (c *Canvas) FillRect(r Rect) error {
	return c.fillRectRadius(r, 0)
}

// FillRoundedRect fills a rounded rectangle with the fill paint.
func (c *Canvas) FillRoundedRect(r Rect, radius float32) error {
	return c.fillRectRadius(r, radius)
}

func (c *Canvas) fillRectRadius(r Rect, radius float32) error {
	c.sync(c.deviceTransform())
	p := c.state.fillPaint
	switch {
	case p.Gradient != nil:
		return c.raw.FillRectGradient(r, p.Gradient, radius)
	case p.Image != nil:
		src := RectXYWH(0, 0, float32(p.Image.Width()), float32(p.Image.Height()))
		return c.raw.DrawTexture(r, p.Image, src, c.state.opacity)
	default:
		return c.raw.FillRect(r, c.paintColor(p), radius)
	}
}

// StrokeRect strokes a rectangle boundary with the stroke paint.
func (c *Canvas) StrokeRect(r Rect) error {
	return c.StrokeRoundedRect(r, 0)
}

// StrokeRoundedRect strokes a rounded rectangle boundary.
func (c *Canvas) StrokeRoundedRect(r Rect, radius float32) error {
	c.sync(c.deviceTransform())
	transparent := c.state.fillPaint.Color.WithAlpha(0)
	return c.raw.StrokeRect(r, transparent, c.paintColor(c.state.strokePaint),
		c.state.strokeStyle.Width, radius)
}

// DrawImage draws an image at a destination rectangle.
func (c *Canvas) DrawImage(img *pixel.Image, dst Rect) error {
	c.sync(c.deviceTransform())
	src := RectXYWH(0, 0, float32(img.Width()), float32(img.Height()))
	return c.raw.DrawTexture(dst, img, src, c.state.opacity)
}

// FillPath fills a path with the fill paint's color. The path is
// flattened and rasterized to a coverage mask in device space, then
// drawn as one sprite.
func (c *Canvas) FillPath(path *Path) error {
	contours := c.deviceContours(path)
	return c.drawContours(contours, c.paintColor(c.state.fillPaint))
}

// StrokePath strokes a path with the stroke paint's color, expanding
// the stroke to an outline and filling its coverage.
func (c *Canvas) StrokePath(path *Path) error {
	m := c.deviceTransform()
	width := c.state.strokeStyle.Width * m.MaxScale()
	if width <= 0 {
		return nil
	}
	contours := c.deviceContours(path)
	outline := strokeContours(contours, width, c.state.strokeStyle)
	return c.drawContours(outline, c.paintColor(c.state.strokePaint))
}

// deviceContours flattens the path and transforms it to device space.
func (c *Canvas) deviceContours(path *Path) [][]Point {
	m := c.deviceTransform()
	scale := m.MaxScale()
	if scale <= 0 {
		scale = 1
	}
	contours := path.Flatten(c.tolerance / scale)
	for _, contour := range contours {
		for i := range contour {
			contour[i] = m.TransformPoint(contour[i])
		}
	}
	return contours
}

// drawContours rasterizes device-space contours into a coverage sprite
// and emits one path command.
func (c *Canvas) drawContours(contours [][]Point, col colors.Color) error {
	sprite, x0, y0, ok := rasterizeContours(contours)
	if !ok {
		return nil
	}

	glyph := render.GeometryGlyph{
		X0:     x0,
		Y0:     y0,
		X1:     x0 + float32(sprite.Width),
		Y1:     y0 + float32(sprite.Height),
		Sprite: 0,
		Stride: float32(sprite.Width),
	}
	// Contour points are already device space; the command transform
	// must stay identity.
	c.sync(Identity())
	return c.raw.DrawSprites(render.ShaderPath,
		[]render.GeometryGlyph{glyph}, []atlas.Sprite{sprite}, col)
}

// rasterizeContours renders closed contours into an 8-bit coverage
// mask with the x/image vector rasterizer. Returns ok=false for empty
// or degenerate geometry.
func rasterizeContours(contours [][]Point) (atlas.Sprite, float32, float32, bool) {
	minX, minY := float32(math32.MaxFloat32), float32(math32.MaxFloat32)
	maxX, maxY := float32(-math32.MaxFloat32), float32(-math32.MaxFloat32)
	points := 0
	for _, contour := range contours {
		for _, p := range contour {
			minX = math32.Min(minX, p.X)
			minY = math32.Min(minY, p.Y)
			maxX = math32.Max(maxX, p.X)
			maxY = math32.Max(maxY, p.Y)
			points++
		}
	}
	if points < 3 {
		return atlas.Sprite{}, 0, 0, false
	}

	x0 := math32.Floor(minX) - 1
	y0 := math32.Floor(minY) - 1
	w := int(math32.Ceil(maxX)-x0) + 1
	h := int(math32.Ceil(maxY)-y0) + 1
	if w <= 0 || h <= 0 || w > 8192 || h > 8192 {
		return atlas.Sprite{}, 0, 0, false
	}

	r := vector.NewRasterizer(w, h)
	for _, contour := range contours {
		if len(contour) < 3 {
			continue
		}
		r.MoveTo(contour[0].X-x0, contour[0].Y-y0)
		for _, p := range contour[1:] {
			r.LineTo(p.X-x0, p.Y-y0)
		}
		r.ClosePath()
	}

	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	r.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})

	return atlas.Sprite{
		ID:     maskID(mask.Pix, w),
		Width:  w,
		Height: h,
		Data:   mask.Pix,
	}, x0, y0, true
}

// maskID content-addresses a coverage mask for the sprite atlas.
func maskID(mask []byte, w int) uint64 {
	h := fnv.New64a()
	var dims [4]byte
	binary.LittleEndian.PutUint32(dims[:], uint32(w))
	h.Write(dims[:])
	h.Write(mask)
	return h.Sum64()
}

// DrawText draws prerendered text with the fill paint's color, the
// block origin at the given point.
func (c *Canvas) DrawText(pre *fonts.Prerendered, at Point) error {
	col := c.paintColor(c.state.fillPaint)
	c.sync(c.deviceTransform())

	var (
		glyphs  []render.GeometryGlyph
		sprites []atlas.Sprite
		index   = make(map[uint64]int)
	)
	for ri := range pre.Runs {
		run := &pre.Runs[ri]
		if run.Control {
			continue
		}
		for gi := range run.Glyphs {
			g := &run.Glyphs[gi]
			if !g.Flags.Has(fonts.FlagPrintable) {
				continue
			}
			bm := run.Face.Bitmap(run.Size, g.ID)
			if bm == nil || bm.Data == nil {
				continue
			}

			si, ok := index[bm.SpriteID]
			if !ok {
				si = len(sprites)
				index[bm.SpriteID] = si
				sprites = append(sprites, atlas.Sprite{
					ID:     bm.SpriteID,
					Width:  bm.Width,
					Height: bm.Height,
					Data:   bm.Data,
				})
			}

			x := at.X + g.PenX + g.XOffset + bm.Left
			y := at.Y + run.PositionY + g.YOffset + bm.Top
			glyphs = append(glyphs, render.GeometryGlyph{
				X0:     x,
				Y0:     y,
				X1:     x + float32(bm.Width),
				Y1:     y + float32(bm.Height),
				Sprite: float32(si),
				Stride: float32(bm.Width),
			})
		}
	}
	return c.raw.DrawSprites(render.ShaderText, glyphs, sprites, col)
}

// FillText shapes, lays out and draws a single string. The point is
// the top-left of the text block; maxWidth <= 0 disables wrapping.
func (c *Canvas) FillText(text string, fnt fonts.Font, at Point, maxWidth float32) error {
	if c.fm == nil {
		return ErrNoFontManager
	}
	shaped, err := c.fm.Shape(fnt, text)
	if err != nil {
		return err
	}
	pre := shaped.Prerender(maxWidth)
	return c.DrawText(pre, at)
}
