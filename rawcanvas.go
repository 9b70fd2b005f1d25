package brisk

import (
	"github.com/chewxy/math32"

	"github.com/dancazarin/brisk-sub002/atlas"
	"github.com/dancazarin/brisk-sub002/colors"
	"github.com/dancazarin/brisk-sub002/pixel"
	"github.com/dancazarin/brisk-sub002/render"
)

// RawCanvas is the low-level drawing surface: each method emits one
// render command through the pipeline with the canvas's current
// transform, clip and scissor. It does no path lowering, text shaping
// or state stacking; Canvas builds on it.
type RawCanvas struct {
	pipeline *render.Pipeline

	transform Matrix
	clip      Rect
	scissor   int32
}

// NewRawCanvas wraps a pipeline. The transform starts as identity and
// the clip unset (no clipping).
func NewRawCanvas(p *render.Pipeline) *RawCanvas {
	return &RawCanvas{
		pipeline:  p,
		transform: Identity(),
	}
}

// Pipeline returns the underlying pipeline.
func (c *RawCanvas) Pipeline() *render.Pipeline { return c.pipeline }

// SetTransform sets the local-to-device transform for subsequent
// commands.
func (c *RawCanvas) SetTransform(m Matrix) { c.transform = m }

// Transform returns the current transform.
func (c *RawCanvas) Transform() Matrix { return c.transform }

// SetClipRect sets a device-space clip rectangle. An empty rect
// disables clipping.
func (c *RawCanvas) SetClipRect(r Rect) { c.clip = r }

// SetScissor selects the frame scissor subsequent commands use.
func (c *RawCanvas) SetScissor(index int32) { c.scissor = index }

// base fills the shared State fields from the canvas state.
func (c *RawCanvas) base(shader render.ShaderType) render.State {
	s := render.State{
		Shader:  shader,
		Scissor: c.scissor,
		Transform: [6]float32{
			c.transform.A, c.transform.B, c.transform.C,
			c.transform.D, c.transform.E, c.transform.F,
		},
	}
	if !c.clip.Empty() {
		s.ClipRect = [4]float32{c.clip.Min.X, c.clip.Min.Y, c.clip.Max.X, c.clip.Max.Y}
	}
	return s
}

// colorRGBA converts a color to the straight-alpha sRGB quad the wire
// format carries.
func colorRGBA(c colors.Color) [4]float32 {
	s := c.Convert(colors.SRGB, colors.ModeClamp)
	return [4]float32{s.V[0], s.V[1], s.V[2], s.Alpha}
}

// FillRect fills a rectangle with a solid color, optionally rounded.
func (c *RawCanvas) FillRect(r Rect, col colors.Color, cornerRadius float32) error {
	st := c.base(render.ShaderRectangle)
	st.FillColor = colorRGBA(col)
	st.CornerRadius = cornerRadius
	return c.pipeline.Command(render.StateEx{State: st},
		[]float32{r.Min.X, r.Min.Y, r.Max.X, r.Max.Y})
}

// StrokeRect strokes a rectangle boundary, optionally rounded. The
// fill color paints the interior; pass a transparent fill to stroke
// only.
func (c *RawCanvas) StrokeRect(r Rect, fill, stroke colors.Color, strokeWidth, cornerRadius float32) error {
	st := c.base(render.ShaderRectangle)
	st.FillColor = colorRGBA(fill)
	st.StrokeColor = colorRGBA(stroke)
	st.StrokeWidth = strokeWidth
	st.CornerRadius = cornerRadius
	return c.pipeline.Command(render.StateEx{State: st},
		[]float32{r.Min.X, r.Min.Y, r.Max.X, r.Max.Y})
}

// FillRectGradient fills a rectangle from a gradient, optionally
// rounded. The gradient geometry is in the same local space as the
// rectangle.
func (c *RawCanvas) FillRectGradient(r Rect, g *Gradient, cornerRadius float32) error {
	st := c.base(render.ShaderGradient)
	st.FillColor = [4]float32{0, 0, 0, 1}
	st.CornerRadius = cornerRadius

	var kind float32
	params := [4]float32{}
	switch g.Kind {
	case GradientRadial:
		kind = render.GradientKindRadial
		params = [4]float32{g.Start.X, g.Start.Y, g.Start.Distance(g.End), 0}
	case GradientConic:
		kind = render.GradientKindConic
		angle := math32.Atan2(g.End.Y-g.Start.Y, g.End.X-g.Start.X)
		params = [4]float32{g.Start.X, g.Start.Y, angle, 0}
	default:
		kind = render.GradientKindLinear
		params = [4]float32{g.Start.X, g.Start.Y, g.End.X, g.End.Y}
	}

	payload := []float32{
		r.Min.X, r.Min.Y, r.Max.X, r.Max.Y,
		kind, 0, 0, 0,
		params[0], params[1], params[2], params[3],
	}
	return c.pipeline.Command(render.StateEx{
		State:        st,
		GradientID:   g.ID(),
		GradientRamp: g.Rasterize(),
	}, payload)
}

// DrawTexture draws a source region of an image into a destination
// rectangle, modulated by opacity.
func (c *RawCanvas) DrawTexture(dst Rect, img *pixel.Image, src Rect, opacity float32) error {
	st := c.base(render.ShaderTextureFill)
	st.FillColor = [4]float32{0, 0, 0, clamp01(opacity)}
	payload := []float32{
		dst.Min.X, dst.Min.Y, dst.Max.X, dst.Max.Y,
		src.Min.X, src.Min.Y, src.Max.X, src.Max.Y,
	}
	return c.pipeline.Command(render.StateEx{State: st, Image: img}, payload)
}

// DrawSprites draws coverage sprites with the given shader (text, mask
// or path) and fill color. Glyph records reference sprites by index
// into the sprites list; the pipeline patches them to atlas offsets.
func (c *RawCanvas) DrawSprites(shader render.ShaderType, glyphs []render.GeometryGlyph, sprites []atlas.Sprite, col colors.Color) error {
	if len(glyphs) == 0 {
		return nil
	}
	st := c.base(shader)
	st.FillColor = colorRGBA(col)
	st.Instances = int32(len(glyphs))

	payload := make([]float32, 0, len(glyphs)*render.GlyphFloats)
	for i := range glyphs {
		payload = glyphs[i].EncodeTo(payload)
	}
	return c.pipeline.Command(render.StateEx{State: st, Sprites: sprites}, payload)
}
