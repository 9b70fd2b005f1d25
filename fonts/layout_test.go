package fonts

import (
	"testing"
)

func shapeText(t *testing.T, m *Manager, fnt Font, text string) *ShapedRuns {
	t.Helper()
	shaped, err := m.Shape(fnt, text)
	if err != nil {
		t.Fatalf("Shape(%q): %v", text, err)
	}
	return shaped
}

func TestPrerenderNoWrap(t *testing.T) {
	m := testManager(t)
	fnt := Font{Family: "Go", Weight: WeightRegular, Size: 16}
	shaped := shapeText(t, m, fnt, "hello world")

	p := shaped.Prerender(0)
	if len(p.Lines) != 1 {
		t.Fatalf("lines = %d, want 1", len(p.Lines))
	}
	if p.Width <= 0 || p.Height <= 0 {
		t.Errorf("bounds = %v x %v, want positive", p.Width, p.Height)
	}
	ln := p.Lines[0]
	if ln.Baseline != ln.Top+ln.Ascender {
		t.Errorf("baseline = %v, want top+ascender = %v", ln.Baseline, ln.Top+ln.Ascender)
	}
}

func TestPrerenderWrap(t *testing.T) {
	m := testManager(t)
	fnt := Font{Family: "Go", Weight: WeightRegular, Size: 16}
	shaped := shapeText(t, m, fnt, "aaa bbb ccc")

	oneWord := shapeText(t, m, fnt, "aaa").Width()
	p := shaped.Prerender(oneWord + 1)
	if len(p.Lines) != 3 {
		t.Fatalf("lines = %d, want 3", len(p.Lines))
	}
	for i, ln := range p.Lines {
		if ln.Width > oneWord+1 {
			t.Errorf("line %d width %v exceeds limit %v", i, ln.Width, oneWord+1)
		}
	}
	// Baselines descend.
	if p.Lines[1].Baseline <= p.Lines[0].Baseline {
		t.Error("line baselines not increasing")
	}
}

func TestPrerenderCompactsTrailingWhitespace(t *testing.T) {
	m := testManager(t)
	fnt := Font{Family: "Go", Weight: WeightRegular, Size: 16}
	shaped := shapeText(t, m, fnt, "aa bb")

	fit := shapeText(t, m, fnt, "aa").Width()
	p := shaped.Prerender(fit + 1)
	if len(p.Lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(p.Lines))
	}
	// The space at the break is compacted: line 0 printable width is
	// the width of "aa" alone.
	if p.Lines[0].Width > fit+0.01 {
		t.Errorf("line 0 width = %v, want <= %v", p.Lines[0].Width, fit)
	}
	var sawCompacted bool
	for ri := p.Lines[0].RunStart; ri < p.Lines[0].RunEnd; ri++ {
		for _, g := range p.Runs[ri].Glyphs {
			if g.Flags.Has(FlagCompactedWhitespace) {
				sawCompacted = true
			}
		}
	}
	if !sawCompacted {
		t.Error("no glyph marked FlagCompactedWhitespace at the break")
	}
}

func TestPrerenderLongWordOverflows(t *testing.T) {
	m := testManager(t)
	fnt := Font{Family: "Go", Weight: WeightRegular, Size: 16}
	shaped := shapeText(t, m, fnt, "a incomprehensible b")

	p := shaped.Prerender(shapeText(t, m, fnt, "a").Width() + 2)
	// The long word cannot fit but must not be dropped or loop: every
	// printable rune still lands on some line.
	if len(p.Lines) < 2 {
		t.Fatalf("lines = %d, want >= 2", len(p.Lines))
	}
	covered := make([]bool, len(shaped.Text))
	for _, run := range p.Runs {
		for _, g := range run.Glyphs {
			for i := g.BeginChar; i < g.EndChar && i < len(covered); i++ {
				covered[i] = true
			}
		}
	}
	for i, ok := range covered {
		if !ok {
			t.Errorf("rune %d lost during wrapping", i)
		}
	}
}

func TestPrerenderNewlines(t *testing.T) {
	m := testManager(t)
	fnt := Font{Family: "Go", Weight: WeightRegular, Size: 16}
	p := shapeText(t, m, fnt, "a\n\nb").Prerender(0)
	if len(p.Lines) != 3 {
		t.Fatalf("lines = %d, want 3", len(p.Lines))
	}
	// The empty middle line still takes vertical space.
	if p.Lines[1].Height() <= 0 {
		t.Error("empty line has no height")
	}
}

func TestPrerenderSingleLine(t *testing.T) {
	m := testManager(t)
	fnt := Font{Family: "Go", Weight: WeightRegular, Size: 16, SingleLine: true}
	p := shapeText(t, m, fnt, "a\nb").Prerender(5)
	if len(p.Lines) != 1 {
		t.Fatalf("lines = %d, want 1", len(p.Lines))
	}
	// The newline advances like a space.
	met, _ := m.Metrics(fnt)
	var nlAdvance float32
	for _, run := range p.Runs {
		if run.Control {
			nlAdvance = run.Glyphs[0].XAdvance
		}
	}
	if diff := nlAdvance - met.SpaceAdvance; diff < -0.01 || diff > 0.01 {
		t.Errorf("newline advance = %v, want space advance %v", nlAdvance, met.SpaceAdvance)
	}
}

func TestPrerenderTabStops(t *testing.T) {
	m := testManager(t)
	fnt := Font{Family: "Go", Weight: WeightRegular, Size: 16, TabWidth: 4}
	p := shapeText(t, m, fnt, "a\tb").Prerender(0)
	met, _ := m.Metrics(fnt)
	stop := 4 * met.SpaceAdvance

	var tabRight float32
	for _, run := range p.Runs {
		if run.Control {
			tabRight = run.Glyphs[0].RightCaret
		}
	}
	if diff := tabRight - stop; diff < -0.01 || diff > 0.01 {
		t.Errorf("tab stop at %v, want %v", tabRight, stop)
	}
}

func TestPrerenderWrapCountsTabs(t *testing.T) {
	m := testManager(t)
	fnt := Font{Family: "Go", Weight: WeightRegular, Size: 16, TabWidth: 8}
	shaped := shapeText(t, m, fnt, "a\tbb")
	met, _ := m.Metrics(fnt)
	stop := 8 * met.SpaceAdvance

	// "a" plus the expanded tab fits; "bb" after the tab stop does
	// not. The tab's advance must count during wrapping, not only
	// during formatting, or the line overshoots the limit.
	maxWidth := stop + met.SpaceAdvance
	p := shaped.Prerender(maxWidth)
	if len(p.Lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(p.Lines))
	}
	for i, ln := range p.Lines {
		if ln.Width > maxWidth+0.01 {
			t.Errorf("line %d width %v exceeds limit %v", i, ln.Width, maxWidth)
		}
	}
}

func TestPenPositionsMonotonic(t *testing.T) {
	m := testManager(t)
	fnt := Font{Family: "Go", Weight: WeightRegular, Size: 16}
	p := shapeText(t, m, fnt, "abc def").Prerender(0)

	var prev float32 = -1
	for _, run := range p.Runs {
		for _, g := range run.Glyphs {
			if g.PenX < prev {
				t.Fatalf("pen x %v went backwards from %v", g.PenX, prev)
			}
			prev = g.PenX
		}
	}
}

func TestAlign(t *testing.T) {
	m := testManager(t)
	fnt := Font{Family: "Go", Weight: WeightRegular, Size: 16}
	p := shapeText(t, m, fnt, "hi").Prerender(0)
	w, h := p.Width, p.Height

	p.Align(10, 20, 100, 50, 0.5, 0.5)

	wantX := 10 + (100-w)*0.5
	wantY := 20 + (50-h)*0.5
	g := p.Runs[0].Glyphs[0]
	if diff := g.PenX - wantX; diff < -0.01 || diff > 0.01 {
		t.Errorf("pen x after align = %v, want %v", g.PenX, wantX)
	}
	if diff := p.Lines[0].Top - wantY; diff < -0.01 || diff > 0.01 {
		t.Errorf("line top after align = %v, want %v", p.Lines[0].Top, wantY)
	}
}

func TestAlignLines(t *testing.T) {
	m := testManager(t)
	fnt := Font{Family: "Go", Weight: WeightRegular, Size: 16}
	shaped := shapeText(t, m, fnt, "wide line\nx")
	p := shaped.Prerender(0)
	if len(p.Lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(p.Lines))
	}

	p.AlignLines(1) // right-align
	short := p.Lines[1]
	var right float32
	for ri := short.RunStart; ri < short.RunEnd; ri++ {
		for _, g := range p.Runs[ri].Glyphs {
			if g.RightCaret > right {
				right = g.RightCaret
			}
		}
	}
	if diff := right - p.Width; diff < -0.01 || diff > 0.01 {
		t.Errorf("right edge of short line = %v, want %v", right, p.Width)
	}
}

func TestCaretForChar(t *testing.T) {
	m := testManager(t)
	fnt := Font{Family: "Go", Weight: WeightRegular, Size: 16}
	p := shapeText(t, m, fnt, "abc").Prerender(0)

	x0, line := p.CaretForChar(0)
	if x0 != 0 || line != 0 {
		t.Errorf("caret for rune 0 = (%v, %d), want (0, 0)", x0, line)
	}
	x1, _ := p.CaretForChar(1)
	if x1 <= x0 {
		t.Errorf("caret for rune 1 = %v, want > %v", x1, x0)
	}

	// Round trip through CharForPoint.
	if got := p.CharForPoint(x1+0.1, 0); got != 1 {
		t.Errorf("CharForPoint near caret 1 = %d, want 1", got)
	}
}
