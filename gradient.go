package brisk

import (
	"sort"
	"sync/atomic"

	"github.com/dancazarin/brisk-sub002/atlas"
	"github.com/dancazarin/brisk-sub002/colors"
)

// GradientKind selects the gradient geometry.
type GradientKind uint8

const (
	// GradientLinear interpolates along the segment Start..End.
	GradientLinear GradientKind = iota
	// GradientRadial interpolates by distance from Start; End sets the
	// outer radius point.
	GradientRadial
	// GradientConic interpolates by angle around Start.
	GradientConic
)

// GradientStop is a color at a position along the gradient, offset in
// [0, 1].
type GradientStop struct {
	Offset float32
	Color  colors.Color
}

// gradientID hands out unique ids for atlas keying. A gradient gets a
// fresh id whenever its stops change, so a mutated gradient is a new
// atlas entry rather than a stale one.
var gradientID atomic.Uint64

// Gradient is a color ramp with a geometry. Stops are kept sorted by
// offset; equal offsets keep insertion order (a hard color step).
type Gradient struct {
	Kind  GradientKind
	Start Point
	End   Point

	stops []GradientStop
	id    uint64
}

// NewGradient creates a gradient with no stops. A gradient with no
// stops rasterizes to transparent black.
func NewGradient(kind GradientKind, start, end Point) *Gradient {
	return &Gradient{Kind: kind, Start: start, End: end, id: gradientID.Add(1)}
}

// NewLinearGradient creates a linear gradient between two points.
func NewLinearGradient(start, end Point) *Gradient {
	return NewGradient(GradientLinear, start, end)
}

// AddStop inserts a color stop, keeping stops sorted by offset.
func (g *Gradient) AddStop(offset float32, c colors.Color) *Gradient {
	stop := GradientStop{Offset: clamp01(offset), Color: c}
	i := sort.Search(len(g.stops), func(i int) bool {
		return g.stops[i].Offset > stop.Offset
	})
	g.stops = append(g.stops, GradientStop{})
	copy(g.stops[i+1:], g.stops[i:])
	g.stops[i] = stop
	g.id = gradientID.Add(1)
	return g
}

// Stops returns the sorted stops. The slice is owned by the gradient.
func (g *Gradient) Stops() []GradientStop { return g.stops }

// ID returns the gradient's current identity for atlas keying. It
// changes whenever the stops change.
func (g *Gradient) ID() uint64 { return g.id }

// Rasterize pre-samples the gradient into an RGBA F32 ramp of
// [atlas.GradientResolution] samples. Interpolation happens in the
// sRGB gamma space on straight (non-premultiplied) alpha, matching
// what the shaders sample.
func (g *Gradient) Rasterize() *atlas.GradientRamp {
	var ramp atlas.GradientRamp
	if len(g.stops) == 0 {
		return &ramp
	}

	srgb := make([][4]float32, len(g.stops))
	for i, s := range g.stops {
		c := s.Color.Convert(colors.SRGB, colors.ModeClamp)
		srgb[i] = [4]float32{c.V[0], c.V[1], c.V[2], c.Alpha}
	}

	for i := 0; i < atlas.GradientResolution; i++ {
		t := float32(i) / float32(atlas.GradientResolution-1)
		v := sampleStops(g.stops, srgb, t)
		copy(ramp[i*4:], v[:])
	}
	return &ramp
}

// sampleStops evaluates the ramp at position t against sorted stops.
func sampleStops(stops []GradientStop, srgb [][4]float32, t float32) [4]float32 {
	if t <= stops[0].Offset {
		return srgb[0]
	}
	last := len(stops) - 1
	if t >= stops[last].Offset {
		return srgb[last]
	}
	hi := sort.Search(len(stops), func(i int) bool { return stops[i].Offset >= t })
	lo := hi - 1
	span := stops[hi].Offset - stops[lo].Offset
	if span <= 0 {
		return srgb[hi]
	}
	f := (t - stops[lo].Offset) / span
	var out [4]float32
	for c := 0; c < 4; c++ {
		out[c] = srgb[lo][c] + (srgb[hi][c]-srgb[lo][c])*f
	}
	return out
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
