package brisk

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/dancazarin/brisk-sub002/atlas"
	"github.com/dancazarin/brisk-sub002/colors"
)

func rampAt(r *atlas.GradientRamp, i int) [4]float32 {
	return [4]float32{r[i*4], r[i*4+1], r[i*4+2], r[i*4+3]}
}

func TestGradientStopsSorted(t *testing.T) {
	g := NewLinearGradient(Pt(0, 0), Pt(100, 0))
	g.AddStop(0.8, colors.White)
	g.AddStop(0.2, colors.Black)
	g.AddStop(0.5, colors.Red)

	stops := g.Stops()
	for i := 1; i < len(stops); i++ {
		if stops[i-1].Offset > stops[i].Offset {
			t.Fatalf("stops not sorted: %v", stops)
		}
	}
}

func TestGradientRasterizeEndpoints(t *testing.T) {
	g := NewLinearGradient(Pt(0, 0), Pt(1, 0))
	g.AddStop(0, colors.Black)
	g.AddStop(1, colors.White)
	r := g.Rasterize()

	first := rampAt(r, 0)
	last := rampAt(r, atlas.GradientResolution-1)
	if first != [4]float32{0, 0, 0, 1} {
		t.Errorf("first sample: %v", first)
	}
	if last != [4]float32{1, 1, 1, 1} {
		t.Errorf("last sample: %v", last)
	}

	mid := rampAt(r, atlas.GradientResolution/2)
	if math32.Abs(mid[0]-0.5) > 0.01 {
		t.Errorf("mid sample: %v, want ~0.5", mid)
	}
}

func TestGradientPadBeyondStops(t *testing.T) {
	// Stops covering only [0.25, 0.75]: the ramp pads edge colors.
	g := NewLinearGradient(Pt(0, 0), Pt(1, 0))
	g.AddStop(0.25, colors.Red)
	g.AddStop(0.75, colors.Blue)
	r := g.Rasterize()

	first := rampAt(r, 0)
	if first[0] != 1 || first[2] != 0 {
		t.Errorf("left pad: %v, want red", first)
	}
	last := rampAt(r, atlas.GradientResolution-1)
	if last[0] != 0 || last[2] != 1 {
		t.Errorf("right pad: %v, want blue", last)
	}
}

func TestGradientEmptyIsTransparent(t *testing.T) {
	g := NewLinearGradient(Pt(0, 0), Pt(1, 0))
	r := g.Rasterize()
	if rampAt(r, 0) != [4]float32{} || rampAt(r, atlas.GradientResolution-1) != [4]float32{} {
		t.Error("empty gradient ramp is not transparent black")
	}
}

func TestGradientIDChangesOnMutation(t *testing.T) {
	g := NewLinearGradient(Pt(0, 0), Pt(1, 0))
	id0 := g.ID()
	g.AddStop(0, colors.Black)
	if g.ID() == id0 {
		t.Error("adding a stop did not change the gradient id")
	}

	h := NewLinearGradient(Pt(0, 0), Pt(1, 0))
	if h.ID() == g.ID() {
		t.Error("distinct gradients share an id")
	}
}
