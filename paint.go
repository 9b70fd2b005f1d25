package brisk

import (
	"github.com/dancazarin/brisk-sub002/colors"
	"github.com/dancazarin/brisk-sub002/pixel"
)

// LineCap specifies the shape of line endpoints.
type LineCap int

const (
	// LineCapButt specifies a flat line cap.
	LineCapButt LineCap = iota
	// LineCapRound specifies a rounded line cap.
	LineCapRound
	// LineCapSquare specifies a square line cap.
	LineCapSquare
)

// LineJoin specifies the shape of line joins.
type LineJoin int

const (
	// LineJoinMiter specifies a sharp (mitered) join.
	LineJoinMiter LineJoin = iota
	// LineJoinRound specifies a rounded join.
	LineJoinRound
	// LineJoinBevel specifies a beveled join.
	LineJoinBevel
)

// FillRule specifies how to determine which areas are inside a path.
type FillRule int

const (
	// FillRuleNonZero uses the non-zero winding rule.
	FillRuleNonZero FillRule = iota
	// FillRuleEvenOdd uses the even-odd rule.
	FillRuleEvenOdd
)

// Paint is what geometry is filled or stroked with: a solid color, a
// gradient, or a texture image. At most one of Gradient and Image may
// be set; when both are nil the solid Color is used.
type Paint struct {
	Color    colors.Color
	Gradient *Gradient
	Image    *pixel.Image
}

// SolidPaint creates a solid color paint.
func SolidPaint(c colors.Color) Paint {
	return Paint{Color: c}
}

// GradientPaint creates a gradient paint.
func GradientPaint(g *Gradient) Paint {
	return Paint{Gradient: g}
}

// TexturePaint creates a texture paint.
func TexturePaint(img *pixel.Image) Paint {
	return Paint{Image: img}
}

// StrokeStyle carries stroke geometry parameters.
type StrokeStyle struct {
	Width      float32
	Cap        LineCap
	Join       LineJoin
	MiterLimit float32
}

// DefaultStrokeStyle returns a 1px butt/miter stroke.
func DefaultStrokeStyle() StrokeStyle {
	return StrokeStyle{
		Width:      1,
		Cap:        LineCapButt,
		Join:       LineJoinMiter,
		MiterLimit: 10,
	}
}
