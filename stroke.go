package brisk

import "github.com/chewxy/math32"

// strokeContours expands flattened contours into the closed outline
// polygons of their stroke. Open detection: a contour whose last point
// equals its first is treated as closed. The winding of the produced
// polygons is consistent, so the non-zero rasterization of the outline
// is the stroked shape.
func strokeContours(contours [][]Point, width float32, style StrokeStyle) [][]Point {
	var out [][]Point
	half := width / 2
	for _, contour := range contours {
		pts := dedupPoints(contour)
		if len(pts) < 2 {
			if len(pts) == 1 && style.Cap == LineCapRound {
				out = append(out, circlePolygon(pts[0], half))
			}
			continue
		}
		closed := pts[0].Distance(pts[len(pts)-1]) < 1e-4
		if closed {
			pts = pts[:len(pts)-1]
			if len(pts) < 2 {
				continue
			}
		}
		out = append(out, strokeSegments(pts, closed, half, style)...)
	}
	return out
}

// dedupPoints drops consecutive duplicates that would produce
// zero-length segments.
func dedupPoints(pts []Point) []Point {
	out := pts[:0:0]
	for i, p := range pts {
		if i > 0 && p.Distance(out[len(out)-1]) < 1e-5 {
			continue
		}
		out = append(out, p)
	}
	return out
}

// strokeSegments emits one quad per segment plus join and cap
// geometry. Overlapping polygons are fine: they accumulate the same
// winding and the rasterizer saturates coverage.
func strokeSegments(pts []Point, closed bool, half float32, style StrokeStyle) [][]Point {
	var out [][]Point
	n := len(pts)
	segs := n - 1
	if closed {
		segs = n
	}

	for i := 0; i < segs; i++ {
		a := pts[i]
		b := pts[(i+1)%n]
		nx, ny, ok := normal(a, b)
		if !ok {
			continue
		}
		ox, oy := nx*half, ny*half
		out = append(out, []Point{
			{a.X + ox, a.Y + oy},
			{b.X + ox, b.Y + oy},
			{b.X - ox, b.Y - oy},
			{a.X - ox, a.Y - oy},
		})
	}

	// Joins at interior vertices (every vertex when closed).
	start, end := 1, n-1
	if closed {
		start, end = 0, n
	}
	for i := start; i < end; i++ {
		out = append(out, joinPolygon(pts[(i+n-1)%n], pts[i], pts[(i+1)%n], half, style))
	}

	if !closed {
		out = append(out, capPolygon(pts[1], pts[0], half, style.Cap)...)
		out = append(out, capPolygon(pts[n-2], pts[n-1], half, style.Cap)...)
	}

	var filtered [][]Point
	for _, p := range out {
		if len(p) >= 3 {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

// joinPolygon fills the wedge between two adjacent segments at vertex
// b. Round joins use an arc fan; miter joins extend to the miter point
// unless the limit converts them to bevel.
func joinPolygon(a, b, c Point, half float32, style StrokeStyle) []Point {
	n1x, n1y, ok1 := normal(a, b)
	n2x, n2y, ok2 := normal(b, c)
	if !ok1 || !ok2 {
		return nil
	}
	// The turn direction picks the outer side of the wedge.
	cross := (b.X-a.X)*(c.Y-b.Y) - (b.Y-a.Y)*(c.X-b.X)
	sign := float32(1)
	if cross > 0 {
		sign = -1
	}
	p1 := Point{b.X + n1x*half*sign, b.Y + n1y*half*sign}
	p2 := Point{b.X + n2x*half*sign, b.Y + n2y*half*sign}

	switch style.Join {
	case LineJoinRound:
		return arcPolygon(b, p1, p2, half)
	case LineJoinMiter:
		mx, my := n1x*sign+n2x*sign, n1y*sign+n2y*sign
		l := math32.Hypot(mx, my)
		if l > 1e-5 {
			// Scale the averaged normal to reach the miter point.
			scale := half / (l / 2)
			limit := style.MiterLimit
			if limit <= 0 {
				limit = 10
			}
			if scale <= limit*half {
				m := Point{b.X + mx/l*scale, b.Y + my/l*scale}
				return []Point{b, p1, m, p2}
			}
		}
		fallthrough
	default: // bevel
		return []Point{b, p1, p2}
	}
}

// capPolygon closes the open end at p (coming from prev).
func capPolygon(prev, p Point, half float32, cap_ LineCap) [][]Point {
	nx, ny, ok := normal(prev, p)
	if !ok {
		return nil
	}
	dx, dy := p.X-prev.X, p.Y-prev.Y
	l := math32.Hypot(dx, dy)
	dx, dy = dx/l, dy/l

	switch cap_ {
	case LineCapSquare:
		return [][]Point{{
			{p.X + nx*half, p.Y + ny*half},
			{p.X + nx*half + dx*half, p.Y + ny*half + dy*half},
			{p.X - nx*half + dx*half, p.Y - ny*half + dy*half},
			{p.X - nx*half, p.Y - ny*half},
		}}
	case LineCapRound:
		return [][]Point{circlePolygon(p, half)}
	default: // butt
		return nil
	}
}

// arcPolygon approximates the arc fan between two rim points around a
// center.
func arcPolygon(center, from, to Point, radius float32) []Point {
	a0 := math32.Atan2(from.Y-center.Y, from.X-center.X)
	a1 := math32.Atan2(to.Y-center.Y, to.X-center.X)
	// Walk the short way around.
	da := a1 - a0
	for da > math32.Pi {
		da -= 2 * math32.Pi
	}
	for da < -math32.Pi {
		da += 2 * math32.Pi
	}
	steps := int(math32.Ceil(math32.Abs(da) / (math32.Pi / 8)))
	if steps < 1 {
		steps = 1
	}
	poly := []Point{center}
	for i := 0; i <= steps; i++ {
		a := a0 + da*float32(i)/float32(steps)
		poly = append(poly, Point{
			center.X + radius*math32.Cos(a),
			center.Y + radius*math32.Sin(a),
		})
	}
	return poly
}

// circlePolygon approximates a full circle, used for round caps and
// degenerate dot strokes.
func circlePolygon(center Point, radius float32) []Point {
	const steps = 16
	poly := make([]Point, 0, steps)
	for i := 0; i < steps; i++ {
		a := 2 * math32.Pi * float32(i) / steps
		poly = append(poly, Point{
			center.X + radius*math32.Cos(a),
			center.Y + radius*math32.Sin(a),
		})
	}
	return poly
}

// normal returns the unit normal of segment a->b.
func normal(a, b Point) (float32, float32, bool) {
	dx, dy := b.X-a.X, b.Y-a.Y
	l := math32.Hypot(dx, dy)
	if l < 1e-6 {
		return 0, 0, false
	}
	return dy / l, -dx / l, true
}
