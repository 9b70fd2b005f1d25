package software

import (
	"github.com/chewxy/math32"

	"github.com/dancazarin/brisk-sub002/pixel"
)

// xform is a 2x3 affine with its precomputed inverse. A zero matrix in
// the command stream means identity.
type xform struct {
	a, b, c, d, e, f float32
	ia, ib, ic, id   float32
	itx, ity         float32
	// scale approximates local-to-device distance scaling for SDF
	// coverage.
	scale float32
}

func newXform(t [6]float32) xform {
	m := xform{a: t[0], b: t[1], c: t[2], d: t[3], e: t[4], f: t[5]}
	if m.a == 0 && m.b == 0 && m.c == 0 && m.d == 0 {
		m.a, m.d = 1, 1
	}
	det := m.a*m.d - m.c*m.b
	if math32.Abs(det) < 1e-8 {
		det = 1
	}
	m.ia = m.d / det
	m.ib = -m.b / det
	m.ic = -m.c / det
	m.id = m.a / det
	m.itx = (m.c*m.f - m.d*m.e) / det
	m.ity = (m.b*m.e - m.a*m.f) / det
	m.scale = math32.Max(math32.Hypot(m.a, m.b), math32.Hypot(m.c, m.d))
	return m
}

// apply maps a local point to device space.
func (m xform) apply(x, y float32) (float32, float32) {
	return m.a*x + m.c*y + m.e, m.b*x + m.d*y + m.f
}

// invert maps a device point to local space.
func (m xform) invert(x, y float32) (float32, float32) {
	return m.ia*x + m.ic*y + m.itx, m.ib*x + m.id*y + m.ity
}

// boundRect returns the device-space bounding box of a local rect.
func (m xform) boundRect(x0, y0, x1, y1 float32) (bx0, by0, bx1, by1 float32) {
	px := [4]float32{}
	py := [4]float32{}
	px[0], py[0] = m.apply(x0, y0)
	px[1], py[1] = m.apply(x1, y0)
	px[2], py[2] = m.apply(x0, y1)
	px[3], py[3] = m.apply(x1, y1)
	bx0, by0 = px[0], py[0]
	bx1, by1 = px[0], py[0]
	for i := 1; i < 4; i++ {
		bx0 = math32.Min(bx0, px[i])
		by0 = math32.Min(by0, py[i])
		bx1 = math32.Max(bx1, px[i])
		by1 = math32.Max(by1, py[i])
	}
	return bx0, by0, bx1, by1
}

// sdRoundRect is the signed distance from point (px, py) relative to a
// rect center to a rounded rect with half extents (hw, hh) and corner
// radius r. Negative inside.
func sdRoundRect(px, py, hw, hh, r float32) float32 {
	qx := math32.Abs(px) - hw + r
	qy := math32.Abs(py) - hh + r
	ax := math32.Max(qx, 0)
	ay := math32.Max(qy, 0)
	return math32.Hypot(ax, ay) + math32.Min(math32.Max(qx, qy), 0) - r
}

// srgbToLinear3 converts the RGB part of a straight-alpha sRGB color.
func srgbToLinear3(c [4]float32) [3]float32 {
	return [3]float32{
		pixel.SRGBToLinear(c[0]),
		pixel.SRGBToLinear(c[1]),
		pixel.SRGBToLinear(c[2]),
	}
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func lerp(a, b, t float32) float32 { return a + (b-a)*t }

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
