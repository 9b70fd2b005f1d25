package brisk

import "github.com/chewxy/math32"

// PathElement represents a single element in a path.
type PathElement interface {
	isPathElement()
}

// MoveTo moves to a point without drawing.
type MoveTo struct {
	Point Point
}

func (MoveTo) isPathElement() {}

// LineTo draws a line to a point.
type LineTo struct {
	Point Point
}

func (LineTo) isPathElement() {}

// QuadTo draws a quadratic Bezier curve.
type QuadTo struct {
	Control Point
	Point   Point
}

func (QuadTo) isPathElement() {}

// CubicTo draws a cubic Bezier curve.
type CubicTo struct {
	Control1 Point
	Control2 Point
	Point    Point
}

func (CubicTo) isPathElement() {}

// Close closes the current subpath.
type Close struct{}

func (Close) isPathElement() {}

// Path represents a vector path.
type Path struct {
	elements []PathElement
	start    Point // Starting point of current subpath
	current  Point // Current point
}

// NewPath creates a new empty path.
func NewPath() *Path {
	return &Path{
		elements: make([]PathElement, 0, 16),
	}
}

// Elements returns the path's elements. The slice is owned by the
// path and must not be modified.
func (p *Path) Elements() []PathElement { return p.elements }

// Empty reports whether the path contains no elements.
func (p *Path) Empty() bool { return len(p.elements) == 0 }

// MoveTo moves to a point without drawing.
func (p *Path) MoveTo(x, y float32) {
	pt := Pt(x, y)
	p.elements = append(p.elements, MoveTo{Point: pt})
	p.start = pt
	p.current = pt
}

// LineTo draws a line to a point.
func (p *Path) LineTo(x, y float32) {
	pt := Pt(x, y)
	p.elements = append(p.elements, LineTo{Point: pt})
	p.current = pt
}

// QuadraticTo draws a quadratic Bezier curve.
func (p *Path) QuadraticTo(cx, cy, x, y float32) {
	p.elements = append(p.elements, QuadTo{Control: Pt(cx, cy), Point: Pt(x, y)})
	p.current = Pt(x, y)
}

// CubicTo draws a cubic Bezier curve.
func (p *Path) CubicTo(c1x, c1y, c2x, c2y, x, y float32) {
	p.elements = append(p.elements, CubicTo{
		Control1: Pt(c1x, c1y),
		Control2: Pt(c2x, c2y),
		Point:    Pt(x, y),
	})
	p.current = Pt(x, y)
}

// Close closes the current subpath by drawing a line to the start point.
func (p *Path) Close() {
	p.elements = append(p.elements, Close{})
	p.current = p.start
}

// Rect adds a closed rectangle subpath.
func (p *Path) Rect(r Rect) {
	p.MoveTo(r.Min.X, r.Min.Y)
	p.LineTo(r.Max.X, r.Min.Y)
	p.LineTo(r.Max.X, r.Max.Y)
	p.LineTo(r.Min.X, r.Max.Y)
	p.Close()
}

// kappa is the control-point distance factor approximating a quarter
// circle with one cubic Bezier.
const kappa = 0.5522848

// RoundedRect adds a closed rectangle subpath with circular corners of
// the given radius. The radius is clamped to half the shorter side.
func (p *Path) RoundedRect(r Rect, radius float32) {
	maxR := r.Width() / 2
	if h := r.Height() / 2; h < maxR {
		maxR = h
	}
	if radius > maxR {
		radius = maxR
	}
	if radius <= 0 {
		p.Rect(r)
		return
	}
	k := radius * kappa
	p.MoveTo(r.Min.X+radius, r.Min.Y)
	p.LineTo(r.Max.X-radius, r.Min.Y)
	p.CubicTo(r.Max.X-radius+k, r.Min.Y, r.Max.X, r.Min.Y+radius-k, r.Max.X, r.Min.Y+radius)
	p.LineTo(r.Max.X, r.Max.Y-radius)
	p.CubicTo(r.Max.X, r.Max.Y-radius+k, r.Max.X-radius+k, r.Max.Y, r.Max.X-radius, r.Max.Y)
	p.LineTo(r.Min.X+radius, r.Max.Y)
	p.CubicTo(r.Min.X+radius-k, r.Max.Y, r.Min.X, r.Max.Y-radius+k, r.Min.X, r.Max.Y-radius)
	p.LineTo(r.Min.X, r.Min.Y+radius)
	p.CubicTo(r.Min.X, r.Min.Y+radius-k, r.Min.X+radius-k, r.Min.Y, r.Min.X+radius, r.Min.Y)
	p.Close()
}

// Ellipse adds a closed ellipse subpath centered at (cx, cy).
func (p *Path) Ellipse(cx, cy, rx, ry float32) {
	kx := rx * kappa
	ky := ry * kappa
	p.MoveTo(cx+rx, cy)
	p.CubicTo(cx+rx, cy+ky, cx+kx, cy+ry, cx, cy+ry)
	p.CubicTo(cx-kx, cy+ry, cx-rx, cy+ky, cx-rx, cy)
	p.CubicTo(cx-rx, cy-ky, cx-kx, cy-ry, cx, cy-ry)
	p.CubicTo(cx+kx, cy-ry, cx+rx, cy-ky, cx+rx, cy)
	p.Close()
}

// Circle adds a closed circle subpath.
func (p *Path) Circle(cx, cy, r float32) {
	p.Ellipse(cx, cy, r, r)
}

// Arc adds a circular arc centered at (cx, cy) from angle1 to angle2
// (radians, clockwise in the y-down coordinate system). The arc starts
// with a LineTo when the path already has a current point.
func (p *Path) Arc(cx, cy, r, angle1, angle2 float32) {
	const step = math32.Pi / 2
	total := angle2 - angle1
	segments := int(math32.Ceil(math32.Abs(total)/step)) + 1
	delta := total / float32(segments)

	a := angle1
	start := Pt(cx+r*math32.Cos(a), cy+r*math32.Sin(a))
	if len(p.elements) == 0 {
		p.MoveTo(start.X, start.Y)
	} else {
		p.LineTo(start.X, start.Y)
	}
	for i := 0; i < segments; i++ {
		a1 := a + delta
		// One cubic per sub-arc; exact for the endpoints, kappa-style
		// for the controls.
		k := 4.0 / 3.0 * math32.Tan((a1-a)/4)
		x0, y0 := math32.Cos(a), math32.Sin(a)
		x1, y1 := math32.Cos(a1), math32.Sin(a1)
		p.CubicTo(
			cx+r*(x0-k*y0), cy+r*(y0+k*x0),
			cx+r*(x1+k*y1), cy+r*(y1-k*x1),
			cx+r*x1, cy+r*y1,
		)
		a = a1
	}
}

// Transform returns a copy of the path with every point transformed.
func (p *Path) Transform(m Matrix) *Path {
	out := &Path{elements: make([]PathElement, len(p.elements))}
	for i, e := range p.elements {
		switch e := e.(type) {
		case MoveTo:
			out.elements[i] = MoveTo{Point: m.TransformPoint(e.Point)}
		case LineTo:
			out.elements[i] = LineTo{Point: m.TransformPoint(e.Point)}
		case QuadTo:
			out.elements[i] = QuadTo{
				Control: m.TransformPoint(e.Control),
				Point:   m.TransformPoint(e.Point),
			}
		case CubicTo:
			out.elements[i] = CubicTo{
				Control1: m.TransformPoint(e.Control1),
				Control2: m.TransformPoint(e.Control2),
				Point:    m.TransformPoint(e.Point),
			}
		case Close:
			out.elements[i] = e
		}
	}
	out.start = m.TransformPoint(p.start)
	out.current = m.TransformPoint(p.current)
	return out
}

// Bounds returns the bounding box of the path's control polygon. This
// is a conservative bound: curve control points may lie outside the
// curve itself.
func (p *Path) Bounds() Rect {
	first := true
	var r Rect
	grow := func(pt Point) {
		if first {
			r = Rect{Min: pt, Max: pt}
			first = false
			return
		}
		if pt.X < r.Min.X {
			r.Min.X = pt.X
		}
		if pt.Y < r.Min.Y {
			r.Min.Y = pt.Y
		}
		if pt.X > r.Max.X {
			r.Max.X = pt.X
		}
		if pt.Y > r.Max.Y {
			r.Max.Y = pt.Y
		}
	}
	for _, e := range p.elements {
		switch e := e.(type) {
		case MoveTo:
			grow(e.Point)
		case LineTo:
			grow(e.Point)
		case QuadTo:
			grow(e.Control)
			grow(e.Point)
		case CubicTo:
			grow(e.Control1)
			grow(e.Control2)
			grow(e.Point)
		}
	}
	return r
}

// Flatten converts the path into polyline contours with curves
// subdivided so the chordal error stays below tol. Contours closed
// with Close repeat their first point at the end.
func (p *Path) Flatten(tol float32) [][]Point {
	if tol <= 0 {
		tol = 0.25
	}
	var contours [][]Point
	var cur []Point
	var start Point

	flush := func() {
		if len(cur) > 1 {
			contours = append(contours, cur)
		}
		cur = nil
	}

	for _, e := range p.elements {
		switch e := e.(type) {
		case MoveTo:
			flush()
			start = e.Point
			cur = append(cur, e.Point)
		case LineTo:
			cur = append(cur, e.Point)
		case QuadTo:
			if len(cur) == 0 {
				cur = append(cur, start)
			}
			from := cur[len(cur)-1]
			cur = appendQuad(cur, from, e.Control, e.Point, tol)
		case CubicTo:
			if len(cur) == 0 {
				cur = append(cur, start)
			}
			from := cur[len(cur)-1]
			cur = appendCubic(cur, from, e.Control1, e.Control2, e.Point, tol)
		case Close:
			if len(cur) > 0 && cur[len(cur)-1] != start {
				cur = append(cur, start)
			}
			flush()
			cur = append(cur, start)
		}
	}
	flush()
	return contours
}

// segmentCount picks a subdivision count from the control polygon
// length: error of uniform subdivision shrinks quadratically, so
// sqrt(len/tol) segments keeps the chordal error near tol.
func segmentCount(polyLen, tol float32) int {
	n := int(math32.Ceil(math32.Sqrt(polyLen / (4 * tol))))
	if n < 1 {
		return 1
	}
	if n > 64 {
		return 64
	}
	return n
}

func appendQuad(dst []Point, p0, c, p1 Point, tol float32) []Point {
	polyLen := p0.Distance(c) + c.Distance(p1)
	n := segmentCount(polyLen, tol)
	for i := 1; i <= n; i++ {
		t := float32(i) / float32(n)
		mt := 1 - t
		x := mt*mt*p0.X + 2*mt*t*c.X + t*t*p1.X
		y := mt*mt*p0.Y + 2*mt*t*c.Y + t*t*p1.Y
		dst = append(dst, Point{X: x, Y: y})
	}
	return dst
}

func appendCubic(dst []Point, p0, c1, c2, p1 Point, tol float32) []Point {
	polyLen := p0.Distance(c1) + c1.Distance(c2) + c2.Distance(p1)
	n := segmentCount(polyLen, tol)
	for i := 1; i <= n; i++ {
		t := float32(i) / float32(n)
		mt := 1 - t
		a := mt * mt * mt
		b := 3 * mt * mt * t
		c := 3 * mt * t * t
		d := t * t * t
		x := a*p0.X + b*c1.X + c*c2.X + d*p1.X
		y := a*p0.Y + b*c1.Y + c*c2.Y + d*p1.Y
		dst = append(dst, Point{X: x, Y: y})
	}
	return dst
}
