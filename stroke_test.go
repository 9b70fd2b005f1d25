package brisk

import (
	"testing"

	"github.com/chewxy/math32"
)

func polyBounds(polys [][]Point) (minX, minY, maxX, maxY float32) {
	minX, minY = math32.MaxFloat32, math32.MaxFloat32
	maxX, maxY = -math32.MaxFloat32, -math32.MaxFloat32
	for _, poly := range polys {
		for _, p := range poly {
			minX = math32.Min(minX, p.X)
			minY = math32.Min(minY, p.Y)
			maxX = math32.Max(maxX, p.X)
			maxY = math32.Max(maxY, p.Y)
		}
	}
	return
}

func TestStrokeSegmentButt(t *testing.T) {
	contour := []Point{{0, 0}, {10, 0}}
	polys := strokeContours([][]Point{contour}, 4, DefaultStrokeStyle())
	if len(polys) != 1 {
		t.Fatalf("polygons = %d, want 1 quad", len(polys))
	}
	if len(polys[0]) != 4 {
		t.Fatalf("quad points = %d, want 4", len(polys[0]))
	}
	x0, y0, x1, y1 := polyBounds(polys)
	if x0 != 0 || x1 != 10 {
		t.Errorf("butt cap x extent = [%v %v], want [0 10]", x0, x1)
	}
	if y0 != -2 || y1 != 2 {
		t.Errorf("y extent = [%v %v], want half width each side", y0, y1)
	}
}

func TestStrokeSegmentSquareCap(t *testing.T) {
	style := DefaultStrokeStyle()
	style.Cap = LineCapSquare
	polys := strokeContours([][]Point{{{0, 0}, {10, 0}}}, 4, style)
	x0, _, x1, _ := polyBounds(polys)
	// Square caps extend half the width past each endpoint.
	if x0 != -2 || x1 != 12 {
		t.Errorf("square cap x extent = [%v %v], want [-2 12]", x0, x1)
	}
}

func TestStrokeSegmentRoundCap(t *testing.T) {
	style := DefaultStrokeStyle()
	style.Cap = LineCapRound
	polys := strokeContours([][]Point{{{0, 0}, {10, 0}}}, 4, style)
	if len(polys) != 3 {
		t.Fatalf("polygons = %d, want quad plus two cap circles", len(polys))
	}
	x0, _, x1, _ := polyBounds(polys)
	if x0 > -1.8 || x1 < 11.8 {
		t.Errorf("round cap x extent = [%v %v], want ~[-2 12]", x0, x1)
	}
}

func TestStrokeClosedContour(t *testing.T) {
	square := []Point{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}}
	polys := strokeContours([][]Point{square}, 2, DefaultStrokeStyle())
	// Four segment quads and four corner joins, no caps.
	if len(polys) != 8 {
		t.Fatalf("polygons = %d, want 8", len(polys))
	}
	x0, y0, x1, y1 := polyBounds(polys)
	if x0 > -0.9 || y0 > -0.9 || x1 < 10.9 || y1 < 10.9 {
		t.Errorf("outline bounds = (%v %v %v %v), want ~1 unit outside the square", x0, y0, x1, y1)
	}
}

func TestStrokeMiterLimitFallsBackToBevel(t *testing.T) {
	// A near-180-degree turn would miter far away; the limit converts
	// it to a bevel, keeping the outline near the vertex.
	contour := []Point{{0, 0}, {10, 0}, {0, 0.5}}
	style := DefaultStrokeStyle()
	style.MiterLimit = 2
	polys := strokeContours([][]Point{contour}, 2, style)
	_, _, x1, _ := polyBounds(polys)
	if x1 > 13 {
		t.Errorf("max x = %v, spike not clamped by miter limit", x1)
	}
}

func TestStrokeDegenerateInput(t *testing.T) {
	style := DefaultStrokeStyle()

	if polys := strokeContours([][]Point{{}}, 2, style); polys != nil {
		t.Errorf("empty contour produced %d polygons", len(polys))
	}
	if polys := strokeContours([][]Point{{{5, 5}}}, 2, style); polys != nil {
		t.Errorf("butt dot produced %d polygons", len(polys))
	}

	style.Cap = LineCapRound
	polys := strokeContours([][]Point{{{5, 5}}}, 2, style)
	if len(polys) != 1 {
		t.Fatalf("round dot polygons = %d, want 1 circle", len(polys))
	}

	// Consecutive duplicates collapse instead of emitting zero-length
	// segments.
	dup := []Point{{0, 0}, {0, 0}, {10, 0}, {10, 0}}
	polys = strokeContours([][]Point{dup}, 2, DefaultStrokeStyle())
	if len(polys) != 1 {
		t.Errorf("deduped polygons = %d, want 1", len(polys))
	}
}
