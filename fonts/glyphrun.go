package fonts

// GlyphFlags carry per-glyph layout facts computed during shaping.
type GlyphFlags uint8

const (
	// FlagSafeToBreak marks a glyph starting a cluster: the run can
	// be re-shaped from here without changing earlier glyphs.
	FlagSafeToBreak GlyphFlags = 1 << iota
	// FlagAtLineBreak marks a glyph before which a line may start.
	FlagAtLineBreak
	// FlagControl marks glyphs of control runs (newline, tab, other
	// Cc/Zl/Zp). They have no visible shape.
	FlagControl
	// FlagPrintable marks glyphs whose cluster contains at least one
	// non-whitespace rune.
	FlagPrintable
	// FlagCompactedWhitespace marks trailing whitespace at a line
	// break, excluded from alignment bounds.
	FlagCompactedWhitespace
)

// Has reports whether all bits of q are set.
func (f GlyphFlags) Has(q GlyphFlags) bool { return f&q == q }

// Glyph is one positioned glyph. Carets are x positions relative to
// the run start during shaping and absolute on the line after
// formatting; glyphs of one cluster share identical caret values.
type Glyph struct {
	// ID is the glyph index in the run's face.
	ID uint32
	// BeginChar and EndChar are the rune range this glyph covers in
	// the source text, BeginChar <= EndChar.
	BeginChar int
	EndChar   int

	XAdvance float32
	XOffset  float32
	YOffset  float32

	LeftCaret  float32
	RightCaret float32

	// PenX is the glyph's absolute pen x within the text block,
	// assigned during line formatting. Rendering places the bitmap at
	// PenX + XOffset + bitmap.Left.
	PenX float32

	Flags GlyphFlags
}

// GlyphRun is a maximal piece of text with one face, direction and
// shaping context. Before prerender, runs sit in logical order with
// run-relative carets; after, Position is set and carets are on-line.
type GlyphRun struct {
	Face *Face
	Size float32

	Direction Direction
	// VisualOrder is the run's index in left-to-right display order
	// within its paragraph.
	VisualOrder int

	// Start and End delimit the run's rune range in the source text.
	Start, End int

	// Control marks runs of non-printing control characters. The
	// shaper skips them; formatLine assigns their carets.
	Control bool

	Glyphs []Glyph

	// Line and Position are assigned by Prerender.
	Line      int
	PositionX float32
	PositionY float32
}

// Width is the run's full advance including trailing whitespace.
func (r *GlyphRun) Width() float32 {
	var w float32
	for i := range r.Glyphs {
		w += r.Glyphs[i].XAdvance
	}
	return w
}

// PrintableWidth is the advance up to the last printable glyph,
// excluding compacted whitespace.
func (r *GlyphRun) PrintableWidth() float32 {
	var w, printable float32
	for i := range r.Glyphs {
		g := &r.Glyphs[i]
		w += g.XAdvance
		if g.Flags.Has(FlagPrintable) && !g.Flags.Has(FlagCompactedWhitespace) {
			printable = w
		}
	}
	return printable
}

// firstRune returns the first source rune of the run, or -1 for an
// empty range.
func (r *GlyphRun) firstRune(text []rune) rune {
	if r.Start >= r.End || r.End > len(text) {
		return -1
	}
	return text[r.Start]
}

// ShapedRuns is the result of shaping: runs in logical order plus the
// source text and the font they were shaped with.
type ShapedRuns struct {
	Text []rune
	Font Font
	// Runs are in logical order.
	Runs []GlyphRun
}

// Width is the total advance of all runs on one unbroken line.
func (s *ShapedRuns) Width() float32 {
	var w float32
	for i := range s.Runs {
		w += s.Runs[i].Width()
	}
	return w
}

// clone deep-copies the shaped runs so cached results stay immutable.
func (s *ShapedRuns) clone() *ShapedRuns {
	out := &ShapedRuns{
		Text: s.Text,
		Font: s.Font,
		Runs: make([]GlyphRun, len(s.Runs)),
	}
	copy(out.Runs, s.Runs)
	for i := range out.Runs {
		out.Runs[i].Glyphs = append([]Glyph(nil), s.Runs[i].Glyphs...)
	}
	return out
}
