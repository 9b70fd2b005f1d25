package fonts

import (
	"sort"

	"github.com/chewxy/math32"
)

// Line describes one formatted line of a prerendered block.
type Line struct {
	// RunStart and RunEnd delimit the line's runs in Prerendered.Runs.
	RunStart, RunEnd int

	// Top is the line's top edge, Baseline the pen y. Both are block
	// coordinates (0,0 = block top-left, y down).
	Top      float32
	Baseline float32

	Ascender  float32
	Descender float32
	LineGap   float32

	// Width is the printable width, excluding compacted trailing
	// whitespace.
	Width float32
}

// Height is the line's occupied vertical extent.
func (l Line) Height() float32 {
	return l.Ascender + l.Descender + l.LineGap
}

// Prerendered is a shaped text block after line breaking and visual
// formatting: runs carry absolute block positions, glyph carets and
// pen positions are absolute, and lines record the vertical layout.
type Prerendered struct {
	Text []rune
	Font Font

	// Runs are grouped by line in visual order within each line.
	Runs  []GlyphRun
	Lines []Line

	// Width and Height are the block bounds: the widest line and the
	// bottom of the last line.
	Width  float32
	Height float32
}

// Prerender breaks the shaped runs into lines no wider than maxWidth
// and assigns visual positions. A non-positive maxWidth disables
// wrapping, as does Font.SingleLine (which also turns newlines into
// spaces). The receiver is not modified.
func (s *ShapedRuns) Prerender(maxWidth float32) *Prerendered {
	p := &Prerendered{Text: s.Text, Font: s.Font}
	src := s.clone().Runs

	wrap := maxWidth > 0 && !s.Font.SingleLine
	var lines [][]GlyphRun
	for len(src) > 0 {
		var line []GlyphRun
		line, src = extractLine(s, src, maxWidth, wrap)
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		lines = [][]GlyphRun{nil}
	}

	var y float32
	for i, lineRuns := range lines {
		ln := p.formatLine(s, lineRuns, i, y)
		y = ln.Top + ln.Height()
		if ln.Width > p.Width {
			p.Width = ln.Width
		}
		p.Lines = append(p.Lines, ln)
	}
	p.Height = y
	return p
}

// isNewlineRun reports a control run whose rune is a line terminator.
func isNewlineRun(text []rune, r *GlyphRun) bool {
	if !r.Control {
		return false
	}
	switch r.firstRune(text) {
	case '\n', '\r', '\u2028', '\u2029':
		return true
	}
	return false
}

// extractLine takes runs for one line off the front of src. Hard
// newline runs terminate a line and are consumed onto it; with wrap
// enabled the line greedily fills up to maxWidth and backs up to the
// last break opportunity. A single unbreakable piece wider than
// maxWidth overflows on its own line rather than looping.
func extractLine(s *ShapedRuns, src []GlyphRun, maxWidth float32, wrap bool) (line, rest []GlyphRun) {
	var width float32
	// Last break opportunity: run index and glyph index within it.
	breakRun, breakGlyph := -1, -1

	for ri := 0; ri < len(src); ri++ {
		run := &src[ri]
		if isNewlineRun(s.Text, run) && !s.Font.SingleLine {
			line = append([]GlyphRun(nil), src[:ri+1]...)
			return line, src[ri+1:]
		}
		if run.Control {
			// Tab advances are assigned in formatLine, but the stop a
			// tab will jump to is already known; account for it here so
			// a wrapped line cannot exceed maxWidth on the strength of
			// zero-width tabs.
			for range run.Glyphs {
				width += controlAdvance(s, run, width)
			}
			continue
		}
		if !wrap {
			width += run.Width()
			continue
		}
		for gi := range run.Glyphs {
			g := &run.Glyphs[gi]
			atBreak := g.Flags.Has(FlagAtLineBreak) && (ri > 0 || gi > 0)
			if atBreak {
				breakRun, breakGlyph = ri, gi
			}
			if width+g.XAdvance > maxWidth && g.Flags.Has(FlagPrintable) && width > 0 {
				if breakRun < 0 {
					// No opportunity yet: overflow up to the next one.
					breakRun, breakGlyph = nextBreak(src, ri, gi)
				}
				if breakRun < 0 {
					break // unbreakable tail, keep it whole
				}
				line, rest = cutRuns(src, breakRun, breakGlyph)
				compactTrailingWhitespace(s.Text, line)
				return line, rest
			}
			width += g.XAdvance
		}
	}
	return src, nil
}

// controlAdvance is the width one glyph of a control run will take at
// position x once formatLine expands it. Only tabs have width during
// extraction.
func controlAdvance(s *ShapedRuns, run *GlyphRun, x float32) float32 {
	if run.firstRune(s.Text) != '\t' {
		return 0
	}
	var space float32
	if run.Face != nil {
		space = run.Face.Metrics(run.Size).SpaceAdvance
	}
	stop := s.Font.tabWidth() * space
	if stop <= 0 {
		return 0
	}
	return (math32.Floor(x/stop)+1)*stop - x
}

// nextBreak finds the first break opportunity at or after (ri, gi).
func nextBreak(src []GlyphRun, ri, gi int) (int, int) {
	for r := ri; r < len(src); r++ {
		start := 0
		if r == ri {
			start = gi + 1
		}
		for g := start; g < len(src[r].Glyphs); g++ {
			if src[r].Glyphs[g].Flags.Has(FlagAtLineBreak) {
				return r, g
			}
		}
	}
	return -1, -1
}

// cutRuns cuts the run list before glyph (ri, gi), slicing the run in
// two when the cut falls mid-run.
func cutRuns(src []GlyphRun, ri, gi int) (line, rest []GlyphRun) {
	line = append([]GlyphRun(nil), src[:ri]...)
	run := src[ri]
	if gi > 0 {
		head := run
		head.Glyphs = run.Glyphs[:gi]
		head.End = run.Glyphs[gi].BeginChar
		line = append(line, head)

		tail := run
		tail.Glyphs = run.Glyphs[gi:]
		tail.Start = run.Glyphs[gi].BeginChar
		run = tail
	}
	rest = append([]GlyphRun{run}, src[ri+1:]...)
	return line, rest
}

// compactTrailingWhitespace flags whitespace glyphs at the break side
// of a wrapped line so alignment ignores them.
func compactTrailingWhitespace(text []rune, line []GlyphRun) {
	for ri := len(line) - 1; ri >= 0; ri-- {
		run := &line[ri]
		for gi := len(run.Glyphs) - 1; gi >= 0; gi-- {
			g := &run.Glyphs[gi]
			if g.Flags.Has(FlagPrintable) || g.Flags.Has(FlagControl) {
				return
			}
			if !isWhitespaceRange(text, g.BeginChar, g.EndChar) {
				return
			}
			g.Flags |= FlagCompactedWhitespace
		}
	}
}

// lineMetrics merges the vertical metrics of every face on the line.
func (p *Prerendered) lineMetrics(s *ShapedRuns, runs []GlyphRun) (asc, desc, gap float32) {
	seen := false
	for i := range runs {
		if runs[i].Face == nil {
			continue
		}
		m := runs[i].Face.Metrics(runs[i].Size)
		asc = math32.Max(asc, m.Ascender)
		desc = math32.Max(desc, m.Descender)
		gap = math32.Max(gap, m.LineGap)
		seen = true
	}
	if !seen {
		// Empty line between consecutive newlines: borrow metrics from
		// any run in the block so it still takes vertical space.
		for i := range s.Runs {
			if s.Runs[i].Face != nil {
				m := s.Runs[i].Face.Metrics(s.Runs[i].Size)
				return m.Ascender, m.Descender, m.LineGap
			}
		}
	}
	return asc, desc, gap
}

// formatLine lays one line out left to right: runs sorted by visual
// order, tabs expanded to stops, carets and pen positions made
// absolute. Appends the runs to p.Runs and returns the line record.
func (p *Prerendered) formatLine(s *ShapedRuns, runs []GlyphRun, index int, top float32) Line {
	asc, desc, gap := p.lineMetrics(s, runs)
	ln := Line{
		RunStart:  len(p.Runs),
		Top:       top,
		Baseline:  top + asc,
		Ascender:  asc,
		Descender: desc,
		LineGap:   gap,
	}

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].VisualOrder < runs[j].VisualOrder
	})

	var x float32
	for ri := range runs {
		run := &runs[ri]
		run.Line = index
		run.PositionX = x
		run.PositionY = ln.Baseline

		for gi := range run.Glyphs {
			g := &run.Glyphs[gi]
			if g.Flags.Has(FlagControl) {
				x = p.advanceControl(s, run, g, x)
				continue
			}
			g.PenX = x
			g.LeftCaret = x
			x += g.XAdvance
			g.RightCaret = x
			if g.Flags.Has(FlagPrintable) && !g.Flags.Has(FlagCompactedWhitespace) {
				ln.Width = math32.Max(ln.Width, x)
			}
		}
	}

	p.Runs = append(p.Runs, runs...)
	ln.RunEnd = len(p.Runs)
	return ln
}

// advanceControl assigns advance and carets to a control glyph. Tabs
// jump to the next stop (TabWidth space advances); newlines in
// single-line mode act as one space; everything else is zero width.
func (p *Prerendered) advanceControl(s *ShapedRuns, run *GlyphRun, g *Glyph, x float32) float32 {
	g.PenX = x
	g.LeftCaret = x

	var space float32
	if run.Face != nil {
		space = run.Face.Metrics(run.Size).SpaceAdvance
	}
	next := x
	switch run.firstRune(s.Text) {
	case '\t':
		stop := s.Font.tabWidth() * space
		if stop > 0 {
			next = (math32.Floor(x/stop) + 1) * stop
		}
	case '\n', '\r', '\u2028', '\u2029':
		if s.Font.SingleLine {
			next = x + space
		}
	}
	g.XAdvance = next - x
	g.RightCaret = next
	return next
}

// Align translates the block into the rectangle (x, y, w, h): ax and
// ay pick the anchor in [0, 1] (0 = left/top, 0.5 = center, 1 =
// right/bottom). Each line is aligned horizontally on its own width.
func (p *Prerendered) Align(x, y, w, h float32, ax, ay float32) {
	dy := y + (h-p.Height)*ay
	p.AlignLines(ax)
	p.translate(x, dy)
}

// AlignLines aligns every line horizontally within the block width
// without moving the block.
func (p *Prerendered) AlignLines(ax float32) {
	for li := range p.Lines {
		ln := &p.Lines[li]
		dx := (p.Width - ln.Width) * ax
		if dx == 0 {
			continue
		}
		for ri := ln.RunStart; ri < ln.RunEnd; ri++ {
			translateRun(&p.Runs[ri], dx, 0)
		}
	}
}

func (p *Prerendered) translate(dx, dy float32) {
	for i := range p.Runs {
		translateRun(&p.Runs[i], dx, dy)
	}
	for i := range p.Lines {
		p.Lines[i].Top += dy
		p.Lines[i].Baseline += dy
	}
}

func translateRun(r *GlyphRun, dx, dy float32) {
	r.PositionX += dx
	r.PositionY += dy
	for i := range r.Glyphs {
		g := &r.Glyphs[i]
		g.PenX += dx
		g.LeftCaret += dx
		g.RightCaret += dx
	}
}

// CaretForChar returns the caret x and line index for a rune position,
// for cursor placement. Falls back to the block edge when the position
// is out of range.
func (p *Prerendered) CaretForChar(pos int) (x float32, line int) {
	for ri := range p.Runs {
		run := &p.Runs[ri]
		for gi := range run.Glyphs {
			g := &run.Glyphs[gi]
			if pos >= g.BeginChar && pos < g.EndChar {
				return g.LeftCaret, run.Line
			}
		}
	}
	if len(p.Lines) > 0 {
		last := p.Lines[len(p.Lines)-1]
		return last.Width, len(p.Lines) - 1
	}
	return 0, 0
}

// CharForPoint maps a block-space point to the nearest rune position.
func (p *Prerendered) CharForPoint(x, y float32) int {
	line := 0
	for li := range p.Lines {
		if y >= p.Lines[li].Top {
			line = li
		}
	}
	best, bestDist := 0, float32(math32.MaxFloat32)
	for ri := range p.Runs {
		run := &p.Runs[ri]
		if run.Line != line {
			continue
		}
		for gi := range run.Glyphs {
			g := &run.Glyphs[gi]
			if d := math32.Abs(g.LeftCaret - x); d < bestDist {
				best, bestDist = g.BeginChar, d
			}
			if d := math32.Abs(g.RightCaret - x); d < bestDist {
				best, bestDist = g.EndChar, d
			}
		}
	}
	return best
}
