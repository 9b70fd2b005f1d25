// Package fonts implements the text engine: font registration with
// style/weight matching and merged fallback chains, HarfBuzz shaping
// via go-text/typesetting, bidirectional segmentation, line breaking
// and layout, and glyph rasterization to coverage masks.
//
// The entry point is [Manager]. Shaping produces [ShapedRuns] in
// logical order; [ShapedRuns.Prerender] breaks lines and assigns
// visual positions, after which glyphs can be rasterized into atlas
// sprites for rendering.
package fonts

// Style selects the slant of a face.
type Style uint8

const (
	StyleNormal Style = iota
	StyleItalic
)

func (s Style) String() string {
	if s == StyleItalic {
		return "italic"
	}
	return "normal"
}

// Weight is the CSS-scale font weight, 100..900.
type Weight int

const (
	WeightThin       Weight = 100
	WeightExtraLight Weight = 200
	WeightLight      Weight = 300
	WeightRegular    Weight = 400
	WeightMedium     Weight = 500
	WeightSemiBold   Weight = 600
	WeightBold       Weight = 700
	WeightExtraBold  Weight = 800
	WeightBlack      Weight = 900
)

// Direction is the paragraph base direction.
type Direction uint8

const (
	// DirectionLTR lays runs out left to right.
	DirectionLTR Direction = iota
	// DirectionRTL lays runs out right to left.
	DirectionRTL
)

// Font selects a registered face and carries the per-call text
// options. It is the shape-cache key together with the text, so it
// must stay comparable.
type Font struct {
	Family string
	Style  Style
	Weight Weight
	// Size is the em size in pixels.
	Size float32

	// LetterSpacing is added after every cluster that is safe to
	// break at. Non-zero letter spacing disables ligatures.
	LetterSpacing float32
	// WordSpacing is added after every whitespace cluster.
	WordSpacing float32

	// Direction is the paragraph base direction.
	Direction Direction
	// SingleLine disables wrapping and makes newlines spaces.
	SingleLine bool
	// TabWidth is the tab stop interval in space-advance multiples.
	// Zero means 8.
	TabWidth float32
}

// tabWidth returns the effective tab stop interval.
func (f Font) tabWidth() float32 {
	if f.TabWidth <= 0 {
		return 8
	}
	return f.TabWidth
}

// Metrics are the face's vertical metrics scaled to a size, plus the
// derived decoration positions. All values are in pixels; Ascender
// and Descender are positive distances from the baseline.
type Metrics struct {
	Ascender  float32
	Descender float32
	LineGap   float32

	// SpaceAdvance is the advance of the space glyph, used for tab
	// stops.
	SpaceAdvance float32

	// Underline and Overline are distances from the baseline
	// (positive down and positive up respectively) at which
	// decoration lines are drawn.
	Underline float32
	Overline  float32
	// Thickness is the decoration stroke width.
	Thickness float32
}

// LineHeight is the recommended baseline-to-baseline distance.
func (m Metrics) LineHeight() float32 {
	return m.Ascender + m.Descender + m.LineGap
}
