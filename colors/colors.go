// Package colors implements tri-chromatic colors tagged with a named
// color space, with conversions routed through CIE XYZ under a D65
// white point. Math is float32 throughout via math32 so GPU-bound
// values never round-trip through float64.
package colors

import "fmt"

// Space identifies a color space.
type Space uint8

const (
	// SRGB is sRGB with the gamma transfer applied.
	SRGB Space = iota
	// SRGBLinear is sRGB primaries with linear components.
	SRGBLinear
	// DisplayP3Linear is Display P3 primaries with linear components.
	DisplayP3Linear
	// XYZ is CIE 1931 XYZ (D65).
	XYZ
	// Lab is CIE L*a*b* (D65).
	Lab
	// LCh is CIE L*C*h°, the cylindrical form of Lab.
	LCh
	// LMS is cone response (the OKLab working basis).
	LMS
	// OKLab is the OKLab perceptual space.
	OKLab
	// OKLCh is the cylindrical form of OKLab.
	OKLCh
)

// String returns a human-readable name for the space.
func (s Space) String() string {
	switch s {
	case SRGB:
		return "sRGB"
	case SRGBLinear:
		return "sRGB-linear"
	case DisplayP3Linear:
		return "DisplayP3-linear"
	case XYZ:
		return "XYZ"
	case Lab:
		return "Lab"
	case LCh:
		return "LCh"
	case LMS:
		return "LMS"
	case OKLab:
		return "OKLab"
	case OKLCh:
		return "OKLCh"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(s))
	}
}

// Range returns the nominal per-channel dynamic range of the space,
// used by gamut checks and round-trip tolerance accounting.
func (s Space) Range() [3][2]float32 {
	switch s {
	case Lab:
		return [3][2]float32{{0, 100}, {-128, 127}, {-128, 127}}
	case LCh:
		return [3][2]float32{{0, 100}, {0, 180}, {0, 360}}
	case OKLab:
		return [3][2]float32{{0, 1}, {-0.4, 0.4}, {-0.4, 0.4}}
	case OKLCh:
		return [3][2]float32{{0, 1}, {0, 0.4}, {0, 360}}
	default:
		return [3][2]float32{{0, 1}, {0, 1}, {0, 1}}
	}
}

// bounded reports whether out-of-range channels are meaningful gamut
// violations (RGB-like spaces) rather than just unusual values.
func (s Space) bounded() bool {
	switch s {
	case SRGB, SRGBLinear, DisplayP3Linear:
		return true
	default:
		return false
	}
}

// Color is a tri-chromatic value plus alpha in a named space.
type Color struct {
	V     [3]float32
	Alpha float32
	Space Space
}

// New creates a color from three channels and alpha in the space.
func New(space Space, c0, c1, c2, alpha float32) Color {
	return Color{V: [3]float32{c0, c1, c2}, Alpha: alpha, Space: space}
}

// FromSRGB creates an sRGB-gamma color.
func FromSRGB(r, g, b, a float32) Color {
	return New(SRGB, r, g, b, a)
}

// Premultiply scales the color channels by alpha. Only meaningful for
// RGB-like spaces; other spaces are returned unchanged.
func (c Color) Premultiply() Color {
	if !c.Space.bounded() {
		return c
	}
	c.V[0] *= c.Alpha
	c.V[1] *= c.Alpha
	c.V[2] *= c.Alpha
	return c
}

// Unpremultiply reverses Premultiply. A zero alpha leaves channels
// untouched.
func (c Color) Unpremultiply() Color {
	if !c.Space.bounded() || c.Alpha == 0 {
		return c
	}
	c.V[0] /= c.Alpha
	c.V[1] /= c.Alpha
	c.V[2] /= c.Alpha
	return c
}

// MultiplyAlpha scales alpha, leaving channels alone (straight mode).
func (c Color) MultiplyAlpha(f float32) Color {
	c.Alpha *= f
	return c
}

// WithChannel returns a copy with channel i (0..2) replaced.
func (c Color) WithChannel(i int, v float32) Color {
	c.V[i] = v
	return c
}

// WithAlpha returns a copy with alpha replaced.
func (c Color) WithAlpha(a float32) Color {
	c.Alpha = a
	return c
}
