package colors

import (
	"math"
	"testing"
)

var allSpaces = []Space{SRGB, SRGBLinear, DisplayP3Linear, XYZ, Lab, LCh, LMS, OKLab, OKLCh}

// testColors are in-gamut sRGB samples representable in every space.
var testColors = [][4]float32{
	{0.2, 0.2, 0.2, 1},
	{0.8, 0.1, 0.1, 1},
	{0.1, 0.7, 0.2, 0.5},
	{0.2, 0.3, 0.9, 1},
	{0.9, 0.8, 0.1, 1},
	{0.5, 0.5, 0.5, 0.25},
	{0.95, 0.95, 0.95, 1},
	{0.05, 0.05, 0.05, 1},
}

// TestRoundTripAllSpacePairs checks A→B→A against the 0.2% of dynamic
// range tolerance for every pair of spaces.
func TestRoundTripAllSpacePairs(t *testing.T) {
	for _, src := range allSpaces {
		for _, dst := range allSpaces {
			if src == dst {
				continue
			}
			for _, tc := range testColors {
				c := FromSRGB(tc[0], tc[1], tc[2], tc[3]).Convert(src, ModeNone)
				back := c.Convert(dst, ModeNone).Convert(src, ModeNone)

				r := src.Range()
				for i := 0; i < 3; i++ {
					// Hue channels wrap; compare on the circle.
					diff := float64(back.V[i] - c.V[i])
					if (src == LCh || src == OKLCh) && i == 2 {
						diff = math.Mod(math.Abs(diff), 360)
						if diff > 180 {
							diff = 360 - diff
						}
						// Hue of a near-achromatic color is unstable and
						// irrelevant.
						if c.V[1] < 1e-3 {
							continue
						}
					}
					tol := float64(r[i][1]-r[i][0]) * 0.002
					if math.Abs(diff) > tol {
						t.Errorf("%v→%v→%v channel %d: %v became %v (tol %v)",
							src, dst, src, i, c.V[i], back.V[i], tol)
					}
				}
				if back.Alpha != c.Alpha {
					t.Errorf("%v→%v: alpha %v became %v", src, dst, c.Alpha, back.Alpha)
				}
			}
		}
	}
}

func TestKnownValues(t *testing.T) {
	// White in sRGB is the D65 white point in XYZ.
	white := FromSRGB(1, 1, 1, 1).Convert(XYZ, ModeNone)
	want := [3]float32{0.95047, 1.0, 1.08883}
	for i := range want {
		if math.Abs(float64(white.V[i]-want[i])) > 1e-3 {
			t.Errorf("white XYZ channel %d: got %v, want %v", i, white.V[i], want[i])
		}
	}

	// White has L*=100 and near-zero a,b in Lab.
	lab := FromSRGB(1, 1, 1, 1).Convert(Lab, ModeNone)
	if math.Abs(float64(lab.V[0]-100)) > 0.1 {
		t.Errorf("white L*: got %v, want 100", lab.V[0])
	}
	if math.Abs(float64(lab.V[1])) > 0.1 || math.Abs(float64(lab.V[2])) > 0.1 {
		t.Errorf("white a*/b*: got %v, %v, want ~0", lab.V[1], lab.V[2])
	}

	// White in OKLab has L=1.
	ok := FromSRGB(1, 1, 1, 1).Convert(OKLab, ModeNone)
	if math.Abs(float64(ok.V[0]-1)) > 0.01 {
		t.Errorf("white OKLab L: got %v, want 1", ok.V[0])
	}
}

func TestModeClamp(t *testing.T) {
	// A saturated P3 green lands outside sRGB; Clamp pins channels.
	p3green := New(DisplayP3Linear, 0, 1, 0, 1)
	c := p3green.Convert(SRGBLinear, ModeClamp)
	for i, v := range c.V {
		if v < 0 || v > 1 {
			t.Errorf("clamped channel %d out of range: %v", i, v)
		}
	}

	raw := p3green.Convert(SRGBLinear, ModeNone)
	if raw.V[0] >= 0 {
		t.Error("expected P3 green to fall outside sRGB (negative red)")
	}
}

func TestModeNearestPreservesHue(t *testing.T) {
	p3green := New(DisplayP3Linear, 0, 1, 0, 1)
	nearest := p3green.Convert(SRGBLinear, ModeNearest)

	if !nearest.inGamut() {
		t.Fatalf("nearest projection out of gamut: %v", nearest.V)
	}

	// Hue must match the raw clamp-free conversion's hue.
	srcHue := p3green.Convert(OKLCh, ModeNone).V[2]
	gotHue := nearest.Convert(OKLCh, ModeNone).V[2]
	diff := math.Abs(float64(srcHue - gotHue))
	if diff > 180 {
		diff = 360 - diff
	}
	if diff > 2 {
		t.Errorf("hue shifted by %v degrees under ModeNearest", diff)
	}

	// Nearest keeps more chroma than a plain clamp distorts.
	if nearest.V[1] == 0 && nearest.V[0] == 0 && nearest.V[2] == 0 {
		t.Error("nearest projection collapsed to black")
	}
}

func TestPremultiply(t *testing.T) {
	c := FromSRGB(1, 0.5, 0.25, 0.5).Premultiply()
	want := [3]float32{0.5, 0.25, 0.125}
	for i := range want {
		if math.Abs(float64(c.V[i]-want[i])) > 1e-6 {
			t.Errorf("premultiplied channel %d: got %v, want %v", i, c.V[i], want[i])
		}
	}
	back := c.Unpremultiply()
	if math.Abs(float64(back.V[0]-1)) > 1e-6 {
		t.Errorf("unpremultiply: got %v, want 1", back.V[0])
	}
}

func TestWithChannel(t *testing.T) {
	c := FromSRGB(0.1, 0.2, 0.3, 1).WithChannel(1, 0.9).WithAlpha(0.5)
	if c.V[1] != 0.9 || c.Alpha != 0.5 || c.V[0] != 0.1 {
		t.Errorf("channel replacement: got %+v", c)
	}
}
