package software

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/dancazarin/brisk-sub002/atlas"
	"github.com/dancazarin/brisk-sub002/pixel"
	"github.com/dancazarin/brisk-sub002/render"
)

// Encoder interprets command batches on the CPU. Frames are
// synchronous: End completes the work, Wait is a no-op.
type Encoder struct {
	device   *Device
	settings render.VisualSettings

	img      *pixel.Image
	scissors [][4]float32
	open     bool
}

func (e *Encoder) SetVisualSettings(s render.VisualSettings) {
	e.settings = s
}

func (e *Encoder) Begin(target render.Target, clear [4]float32, scissors [][4]float32) error {
	it, ok := target.(interface{ Image() *pixel.Image })
	if !ok {
		return fmt.Errorf("render/software: unsupported target %T", target)
	}
	e.img = it.Image()
	w, h := target.Size()

	full := [4]float32{0, 0, float32(w), float32(h)}
	if len(scissors) == 0 || len(scissors) > render.MaxScissors {
		e.scissors = [][4]float32{full}
	} else {
		e.scissors = append([][4]float32(nil), scissors...)
	}

	cr := srgbToLinear3(clear)
	e.img.Clear(cr[0], cr[1], cr[2], clear[3])
	e.open = true
	return nil
}

func (e *Encoder) Batch(commands []render.State, data []float32, image *pixel.Image) error {
	if !e.open {
		return fmt.Errorf("render/software: batch outside frame")
	}
	res := e.device.res
	res.Mu.Lock()
	defer res.Mu.Unlock()

	for i := range commands {
		cmd := &commands[i]
		payload := data[cmd.DataOffset*render.DataAlignment:]
		if cmd.DataSize > 0 {
			payload = payload[:cmd.DataSize]
		}
		switch cmd.Shader {
		case render.ShaderRectangle:
			e.drawRectangles(cmd, payload)
		case render.ShaderGradient:
			e.drawGradients(cmd, payload, res.Gradients)
		case render.ShaderTextureFill:
			e.drawTextures(cmd, payload, image)
		case render.ShaderText, render.ShaderMask, render.ShaderPath:
			e.drawSprites(cmd, payload, res.Sprites)
		}
	}
	return nil
}

func (e *Encoder) End() error {
	if !e.open {
		return fmt.Errorf("render/software: end outside frame")
	}
	e.applyVisualSettings()
	e.open = false
	return nil
}

// Wait is a no-op: software frames complete inside End.
func (e *Encoder) Wait() error { return nil }

// bounds intersects the command's scissor and clip with the target and
// returns integer pixel bounds.
func (e *Encoder) bounds(cmd *render.State, x0, y0, x1, y1 float32) (int, int, int, int) {
	si := int(cmd.Scissor)
	if si < 0 || si >= len(e.scissors) {
		si = 0
	}
	s := e.scissors[si]
	x0 = math32.Max(x0, s[0])
	y0 = math32.Max(y0, s[1])
	x1 = math32.Min(x1, s[2])
	y1 = math32.Min(y1, s[3])

	if cmd.ClipRect[2] > cmd.ClipRect[0] && cmd.ClipRect[3] > cmd.ClipRect[1] {
		x0 = math32.Max(x0, cmd.ClipRect[0])
		y0 = math32.Max(y0, cmd.ClipRect[1])
		x1 = math32.Min(x1, cmd.ClipRect[2])
		y1 = math32.Min(y1, cmd.ClipRect[3])
	}

	ix0 := maxInt(int(math32.Floor(x0)), 0)
	iy0 := maxInt(int(math32.Floor(y0)), 0)
	ix1 := minInt(int(math32.Ceil(x1)), e.img.Width())
	iy1 := minInt(int(math32.Ceil(y1)), e.img.Height())
	return ix0, iy0, ix1, iy1
}

// drawRectangles rasterizes rounded, optionally stroked rectangles.
// Payload: 4 floats per instance (x0, y0, x1, y1 in local space).
func (e *Encoder) drawRectangles(cmd *render.State, payload []float32) {
	m := newXform(cmd.Transform)
	fill := srgbToLinear3(cmd.FillColor)
	stroke := srgbToLinear3(cmd.StrokeColor)

	for inst := int32(0); inst < cmd.Instances; inst++ {
		rec := payload[inst*4:]
		if len(rec) < 4 {
			return
		}
		rx0, ry0, rx1, ry1 := rec[0], rec[1], rec[2], rec[3]

		bx0, by0, bx1, by1 := m.boundRect(rx0, ry0, rx1, ry1)
		pad := cmd.StrokeWidth/2 + 1
		ix0, iy0, ix1, iy1 := e.bounds(cmd, bx0-pad, by0-pad, bx1+pad, by1+pad)

		cx := (rx0 + rx1) / 2
		cy := (ry0 + ry1) / 2
		hw := (rx1 - rx0) / 2
		hh := (ry1 - ry0) / 2
		radius := math32.Min(cmd.CornerRadius, math32.Min(hw, hh))

		for y := iy0; y < iy1; y++ {
			for x := ix0; x < ix1; x++ {
				lx, ly := m.invert(float32(x)+0.5, float32(y)+0.5)
				d := sdRoundRect(lx-cx, ly-cy, hw, hh, radius) * m.scale

				if cmd.StrokeWidth > 0 {
					cov := clamp01(cmd.StrokeWidth/2 + 0.5 - math32.Abs(d))
					if fillCov := clamp01(0.5 - d - cmd.StrokeWidth/2); fillCov > 0 {
						e.blend(x, y, fill, cmd.FillColor[3]*fillCov)
					}
					if cov > 0 {
						e.blend(x, y, stroke, cmd.StrokeColor[3]*cov)
					}
				} else if cov := clamp01(0.5 - d); cov > 0 {
					e.blend(x, y, fill, cmd.FillColor[3]*cov)
				}
			}
		}
	}
}

// drawGradients fills rectangles with a pre-sampled ramp. Payload per
// instance: rect(4), kind(1), pad(3), params(4). Linear params are the
// gradient's start and end points; radial are center x, y and radius;
// conic are center x, y and the start angle.
func (e *Encoder) drawGradients(cmd *render.State, payload []float32, gradients *atlas.GradientAtlas) {
	if cmd.Gradient < 0 || int(cmd.Gradient) >= gradients.Slots() {
		return
	}
	ramp := gradients.Ramp(atlas.GradientIndex(cmd.Gradient))
	m := newXform(cmd.Transform)

	for inst := int32(0); inst < cmd.Instances; inst++ {
		rec := payload[inst*render.GradientRecordFloats:]
		if len(rec) < render.GradientRecordFloats {
			return
		}
		rx0, ry0, rx1, ry1 := rec[0], rec[1], rec[2], rec[3]
		kind := rec[4]
		p := rec[8:12]

		bx0, by0, bx1, by1 := m.boundRect(rx0, ry0, rx1, ry1)
		ix0, iy0, ix1, iy1 := e.bounds(cmd, bx0, by0, bx1+1, by1+1)

		cx := (rx0 + rx1) / 2
		cy := (ry0 + ry1) / 2
		hw := (rx1 - rx0) / 2
		hh := (ry1 - ry0) / 2
		radius := math32.Min(cmd.CornerRadius, math32.Min(hw, hh))

		for y := iy0; y < iy1; y++ {
			for x := ix0; x < ix1; x++ {
				lx, ly := m.invert(float32(x)+0.5, float32(y)+0.5)
				d := sdRoundRect(lx-cx, ly-cy, hw, hh, radius) * m.scale
				cov := clamp01(0.5 - d)
				if cov <= 0 {
					continue
				}

				var t float32
				switch kind {
				case render.GradientKindRadial:
					if p[2] > 0 {
						t = math32.Hypot(lx-p[0], ly-p[1]) / p[2]
					}
				case render.GradientKindConic:
					ang := math32.Atan2(ly-p[1], lx-p[0]) - p[2]
					t = ang / (2 * math32.Pi)
					t -= math32.Floor(t)
				default:
					dx, dy := p[2]-p[0], p[3]-p[1]
					if l2 := dx*dx + dy*dy; l2 > 0 {
						t = ((lx-p[0])*dx + (ly-p[1])*dy) / l2
					}
				}

				r, g, b, a := sampleRamp(ramp, t)
				e.blend(x, y, [3]float32{
					pixel.SRGBToLinear(r),
					pixel.SRGBToLinear(g),
					pixel.SRGBToLinear(b),
				}, a*cov)
			}
		}
	}
}

// sampleRamp linearly interpolates the ramp at t in [0, 1]. Samples
// are straight-alpha sRGB.
func sampleRamp(ramp *atlas.GradientRamp, t float32) (r, g, b, a float32) {
	f := clamp01(t) * float32(atlas.GradientResolution-1)
	i0 := int(f)
	i1 := minInt(i0+1, atlas.GradientResolution-1)
	frac := f - float32(i0)
	s0 := ramp[i0*4 : i0*4+4]
	s1 := ramp[i1*4 : i1*4+4]
	return lerp(s0[0], s1[0], frac),
		lerp(s0[1], s1[1], frac),
		lerp(s0[2], s1[2], frac),
		lerp(s0[3], s1[3], frac)
}

// drawTextures samples the bound image over rectangles. Payload per
// instance: dest rect(4) + source rect(4) in image pixels.
func (e *Encoder) drawTextures(cmd *render.State, payload []float32, image *pixel.Image) {
	if image == nil || cmd.Texture == render.NoTexture {
		return
	}
	m := newXform(cmd.Transform)
	alpha := cmd.FillColor[3]

	for inst := int32(0); inst < cmd.Instances; inst++ {
		rec := payload[inst*8:]
		if len(rec) < 8 {
			return
		}
		rx0, ry0, rx1, ry1 := rec[0], rec[1], rec[2], rec[3]
		sx0, sy0, sx1, sy1 := rec[4], rec[5], rec[6], rec[7]
		if rx1 <= rx0 || ry1 <= ry0 {
			continue
		}

		bx0, by0, bx1, by1 := m.boundRect(rx0, ry0, rx1, ry1)
		ix0, iy0, ix1, iy1 := e.bounds(cmd, bx0, by0, bx1+1, by1+1)

		for y := iy0; y < iy1; y++ {
			for x := ix0; x < ix1; x++ {
				lx, ly := m.invert(float32(x)+0.5, float32(y)+0.5)
				u := (lx - rx0) / (rx1 - rx0)
				v := (ly - ry0) / (ry1 - ry0)
				if u < 0 || u >= 1 || v < 0 || v >= 1 {
					continue
				}
				r, g, b, a := sampleImage(image,
					sx0+u*(sx1-sx0), sy0+v*(sy1-sy0))
				e.blend(x, y, [3]float32{r, g, b}, a*alpha)
			}
		}
	}
}

// sampleImage bilinearly samples linear RGBA at a pixel-space point.
func sampleImage(img *pixel.Image, x, y float32) (r, g, b, a float32) {
	x -= 0.5
	y -= 0.5
	x0 := int(math32.Floor(x))
	y0 := int(math32.Floor(y))
	fx := x - float32(x0)
	fy := y - float32(y0)

	px := func(ix, iy int) (float32, float32, float32, float32) {
		ix = clampInt(ix, 0, img.Width()-1)
		iy = clampInt(iy, 0, img.Height()-1)
		return img.At(ix, iy)
	}
	r00, g00, b00, a00 := px(x0, y0)
	r10, g10, b10, a10 := px(x0+1, y0)
	r01, g01, b01, a01 := px(x0, y0+1)
	r11, g11, b11, a11 := px(x0+1, y0+1)

	r = lerp(lerp(r00, r10, fx), lerp(r01, r11, fx), fy)
	g = lerp(lerp(g00, g10, fx), lerp(g01, g11, fx), fy)
	b = lerp(lerp(b00, b10, fx), lerp(b01, b11, fx), fy)
	a = lerp(lerp(a00, a10, fx), lerp(a01, a11, fx), fy)
	return r, g, b, a
}

// drawSprites draws coverage sprites (glyphs, path masks) with the
// fill color. Payload: Instances GeometryGlyph records.
func (e *Encoder) drawSprites(cmd *render.State, payload []float32, sprites *atlas.SpriteAtlas) {
	m := newXform(cmd.Transform)
	fill := srgbToLinear3(cmd.FillColor)
	buf := sprites.Data()

	for inst := int32(0); inst < cmd.Instances; inst++ {
		rec := payload[inst*render.GlyphFloats:]
		if len(rec) < render.GlyphFloats {
			return
		}
		gx0, gy0, gx1, gy1 := rec[0], rec[1], rec[2], rec[3]
		offset := atlas.SpriteOffset(rec[4])
		stride := int(rec[5])
		if offset == atlas.SpriteNull || stride <= 0 {
			continue
		}
		byteOff := int(offset) * atlas.SpriteAlignment

		bx0, by0, bx1, by1 := m.boundRect(gx0, gy0, gx1, gy1)
		ix0, iy0, ix1, iy1 := e.bounds(cmd, bx0, by0, bx1+1, by1+1)

		for y := iy0; y < iy1; y++ {
			for x := ix0; x < ix1; x++ {
				lx, ly := m.invert(float32(x)+0.5, float32(y)+0.5)
				// Floor, not truncate: a fraction below the glyph origin
				// must map to -1, not clamp onto column 0.
				u := int(math32.Floor(lx - gx0))
				v := int(math32.Floor(ly - gy0))
				if u < 0 || v < 0 || float32(u) >= gx1-gx0 || float32(v) >= gy1-gy0 {
					continue
				}
				idx := byteOff + v*stride + u
				if idx >= len(buf) {
					continue
				}
				cov := float32(buf[idx]) / 255
				if cov > 0 {
					e.blend(x, y, fill, cmd.FillColor[3]*cov)
				}
			}
		}
	}
}

// blend source-overs a linear color with effective alpha sa onto the
// target pixel.
func (e *Encoder) blend(x, y int, rgb [3]float32, sa float32) {
	if sa <= 0 {
		return
	}
	if sa > 1 {
		sa = 1
	}
	dr, dg, db, da := e.img.At(x, y)
	outA := sa + da*(1-sa)
	if outA <= 0 {
		e.img.Set(x, y, 0, 0, 0, 0)
		return
	}
	inv := da * (1 - sa)
	e.img.Set(x, y,
		(rgb[0]*sa+dr*inv)/outA,
		(rgb[1]*sa+dg*inv)/outA,
		(rgb[2]*sa+db*inv)/outA,
		outA)
}

// applyVisualSettings post-processes the frame: gamma adjust and blue
// light filtering in the sRGB domain.
func (e *Encoder) applyVisualSettings() {
	s := e.settings
	gammaNeutral := s.Gamma == 1 || s.Gamma == 0
	if gammaNeutral && s.BlueLightFilter <= 0 {
		return
	}
	for y := 0; y < e.img.Height(); y++ {
		for x := 0; x < e.img.Width(); x++ {
			r, g, b, a := e.img.At(x, y)
			sr := pixel.LinearToSRGB(r)
			sg := pixel.LinearToSRGB(g)
			sb := pixel.LinearToSRGB(b)
			if !gammaNeutral {
				sr = math32.Pow(sr, 1/s.Gamma)
				sg = math32.Pow(sg, 1/s.Gamma)
				sb = math32.Pow(sb, 1/s.Gamma)
			}
			if f := s.BlueLightFilter; f > 0 {
				sg *= 1 - 0.15*f
				sb *= 1 - 0.4*f
			}
			e.img.Set(x, y,
				pixel.SRGBToLinear(sr),
				pixel.SRGBToLinear(sg),
				pixel.SRGBToLinear(sb), a)
		}
	}
}
