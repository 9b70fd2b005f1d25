package colors

import "github.com/chewxy/math32"

// Mode selects how out-of-gamut results are handled by Convert.
type Mode uint8

const (
	// ModeNone returns the raw converted value, possibly out of range.
	ModeNone Mode = iota
	// ModeClamp clamps each channel to the target space's range.
	ModeClamp
	// ModeNearest projects into gamut preserving hue: chroma is
	// stepped inward (in OKLCh) until every channel is in range.
	ModeNearest
)

// D65 white point.
const (
	whiteX = 0.95047
	whiteY = 1.0
	whiteZ = 1.08883
)

type mat3 [9]float32

func (m *mat3) apply(v [3]float32) [3]float32 {
	return [3]float32{
		m[0]*v[0] + m[1]*v[1] + m[2]*v[2],
		m[3]*v[0] + m[4]*v[1] + m[5]*v[2],
		m[6]*v[0] + m[7]*v[1] + m[8]*v[2],
	}
}

// sRGB (linear) <-> XYZ, D65.
var (
	srgbToXYZ = mat3{
		0.4124564, 0.3575761, 0.1804375,
		0.2126729, 0.7151522, 0.0721750,
		0.0193339, 0.1191920, 0.9503041,
	}
	xyzToSRGB = mat3{
		3.2404542, -1.5371385, -0.4985314,
		-0.9692660, 1.8760108, 0.0415560,
		0.0556434, -0.2040259, 1.0572252,
	}
)

// Display P3 (linear) <-> XYZ, D65.
var (
	p3ToXYZ = mat3{
		0.4865709, 0.2656677, 0.1982173,
		0.2289746, 0.6917385, 0.0792869,
		0.0000000, 0.0451134, 1.0439444,
	}
	xyzToP3 = mat3{
		2.4934969, -0.9313836, -0.4027108,
		-0.8294890, 1.7626641, 0.0236247,
		0.0358458, -0.0761724, 0.9568845,
	}
)

// XYZ <-> LMS (the OKLab working basis).
var (
	xyzToLMS = mat3{
		0.8189330101, 0.3618667424, -0.1288597137,
		0.0329845436, 0.9293118715, 0.0361456387,
		0.0482003018, 0.2643662691, 0.6338517070,
	}
	lmsToXYZ = mat3{
		1.2270138511, -0.5577999807, 0.2812561490,
		-0.0405801784, 1.1122568696, -0.0716766787,
		-0.0763812845, -0.4214819784, 1.5861632204,
	}
)

// LMS' <-> OKLab.
var (
	lmsToOKLab = mat3{
		0.2104542553, 0.7936177850, -0.0040720468,
		1.9779984951, -2.4285922050, 0.4505937099,
		0.0259040371, 0.7827717662, -0.8086757660,
	}
	oklabToLMS = mat3{
		1, 0.3963377774, 0.2158037573,
		1, -0.1055613458, -0.0638541728,
		1, -0.0894841775, -1.2914855480,
	}
)

func srgbTransfer(v float32) float32 {
	if v <= 0.0031308 {
		return v * 12.92
	}
	return 1.055*math32.Pow(v, 1/2.4) - 0.055
}

func srgbTransferInv(v float32) float32 {
	if v <= 0.04045 {
		return v / 12.92
	}
	return math32.Pow((v+0.055)/1.055, 2.4)
}

// labF is the CIE Lab forward transfer.
func labF(t float32) float32 {
	const delta = 6.0 / 29.0
	if t > delta*delta*delta {
		return math32.Cbrt(t)
	}
	return t/(3*delta*delta) + 4.0/29.0
}

func labFInv(t float32) float32 {
	const delta = 6.0 / 29.0
	if t > delta {
		return t * t * t
	}
	return 3 * delta * delta * (t - 4.0/29.0)
}

// toXYZ converts channels from the source space into XYZ.
func toXYZ(space Space, v [3]float32) [3]float32 {
	switch space {
	case XYZ:
		return v
	case SRGB:
		lin := [3]float32{srgbTransferInv(v[0]), srgbTransferInv(v[1]), srgbTransferInv(v[2])}
		return srgbToXYZ.apply(lin)
	case SRGBLinear:
		return srgbToXYZ.apply(v)
	case DisplayP3Linear:
		return p3ToXYZ.apply(v)
	case Lab:
		fy := (v[0] + 16) / 116
		fx := fy + v[1]/500
		fz := fy - v[2]/200
		return [3]float32{whiteX * labFInv(fx), whiteY * labFInv(fy), whiteZ * labFInv(fz)}
	case LCh:
		h := v[2] * math32.Pi / 180
		lab := [3]float32{v[0], v[1] * math32.Cos(h), v[1] * math32.Sin(h)}
		return toXYZ(Lab, lab)
	case LMS:
		return lmsToXYZ.apply(v)
	case OKLab:
		lmsP := oklabToLMS.apply(v)
		lms := [3]float32{lmsP[0] * lmsP[0] * lmsP[0], lmsP[1] * lmsP[1] * lmsP[1], lmsP[2] * lmsP[2] * lmsP[2]}
		return lmsToXYZ.apply(lms)
	case OKLCh:
		h := v[2] * math32.Pi / 180
		lab := [3]float32{v[0], v[1] * math32.Cos(h), v[1] * math32.Sin(h)}
		return toXYZ(OKLab, lab)
	default:
		return v
	}
}

// fromXYZ converts XYZ channels into the target space.
func fromXYZ(space Space, v [3]float32) [3]float32 {
	switch space {
	case XYZ:
		return v
	case SRGB:
		lin := xyzToSRGB.apply(v)
		return [3]float32{srgbTransfer(lin[0]), srgbTransfer(lin[1]), srgbTransfer(lin[2])}
	case SRGBLinear:
		return xyzToSRGB.apply(v)
	case DisplayP3Linear:
		return xyzToP3.apply(v)
	case Lab:
		fx := labF(v[0] / whiteX)
		fy := labF(v[1] / whiteY)
		fz := labF(v[2] / whiteZ)
		return [3]float32{116*fy - 16, 500 * (fx - fy), 200 * (fy - fz)}
	case LCh:
		lab := fromXYZ(Lab, v)
		return toCylindrical(lab)
	case LMS:
		return xyzToLMS.apply(v)
	case OKLab:
		lms := xyzToLMS.apply(v)
		lmsP := [3]float32{math32.Cbrt(lms[0]), math32.Cbrt(lms[1]), math32.Cbrt(lms[2])}
		return lmsToOKLab.apply(lmsP)
	case OKLCh:
		lab := fromXYZ(OKLab, v)
		return toCylindrical(lab)
	default:
		return v
	}
}

func toCylindrical(lab [3]float32) [3]float32 {
	c := math32.Hypot(lab[1], lab[2])
	h := math32.Atan2(lab[2], lab[1]) * 180 / math32.Pi
	if h < 0 {
		h += 360
	}
	return [3]float32{lab[0], c, h}
}

// Convert converts the color into the target space using the given
// gamut handling mode. Alpha is carried unchanged.
func (c Color) Convert(target Space, mode Mode) Color {
	if c.Space == target {
		return c
	}
	out := Color{
		V:     fromXYZ(target, toXYZ(c.Space, c.V)),
		Alpha: c.Alpha,
		Space: target,
	}
	switch mode {
	case ModeClamp:
		r := target.Range()
		for i := range out.V {
			out.V[i] = clamp(out.V[i], r[i][0], r[i][1])
		}
	case ModeNearest:
		out = out.projectIntoGamut()
	}
	return out
}

// projectIntoGamut walks chroma inward in OKLCh until the value fits
// the target space's range, preserving hue and lightness. Only
// RGB-like spaces have a meaningful gamut boundary; other targets are
// clamped.
func (c Color) projectIntoGamut() Color {
	if c.inGamut() {
		return c
	}
	if !c.Space.bounded() {
		r := c.Space.Range()
		for i := range c.V {
			c.V[i] = clamp(c.V[i], r[i][0], r[i][1])
		}
		return c
	}

	lch := c.Convert(OKLCh, ModeNone)
	lo, hi := float32(0), lch.V[1]
	// Bisect the chroma axis. 20 steps brings the interval well below
	// visible thresholds.
	for i := 0; i < 20; i++ {
		mid := (lo + hi) / 2
		probe := lch.WithChannel(1, mid).Convert(c.Space, ModeNone)
		if probe.inGamut() {
			lo = mid
		} else {
			hi = mid
		}
	}
	out := lch.WithChannel(1, lo).Convert(c.Space, ModeNone)
	// Numerical residue after bisection.
	r := c.Space.Range()
	for i := range out.V {
		out.V[i] = clamp(out.V[i], r[i][0], r[i][1])
	}
	return out
}

// inGamut reports whether every channel lies inside the space's range,
// with a small epsilon for float noise.
func (c Color) inGamut() bool {
	const eps = 1e-4
	r := c.Space.Range()
	for i := range c.V {
		if c.V[i] < r[i][0]-eps || c.V[i] > r[i][1]+eps {
			return false
		}
	}
	return true
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
