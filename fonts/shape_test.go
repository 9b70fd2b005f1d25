package fonts

import (
	"testing"

	"github.com/go-text/typesetting/di"
)

func TestShapeSimple(t *testing.T) {
	m := testManager(t)
	fnt := Font{Family: "Go", Weight: WeightRegular, Size: 16}

	shaped, err := m.Shape(fnt, "Hello world")
	if err != nil {
		t.Fatalf("Shape: %v", err)
	}
	if len(shaped.Runs) != 1 {
		t.Fatalf("runs = %d, want 1", len(shaped.Runs))
	}
	run := shaped.Runs[0]
	if run.Direction != DirectionLTR {
		t.Errorf("direction = %v, want LTR", run.Direction)
	}
	if len(run.Glyphs) != 11 {
		t.Errorf("glyphs = %d, want 11", len(run.Glyphs))
	}
	if shaped.Width() <= 0 {
		t.Error("width not positive")
	}
}

func TestShapeFlags(t *testing.T) {
	m := testManager(t)
	shaped, err := m.Shape(Font{Family: "Go", Weight: WeightRegular, Size: 16}, "ab cd")
	if err != nil {
		t.Fatalf("Shape: %v", err)
	}
	glyphs := shaped.Runs[0].Glyphs

	byChar := func(pos int) *Glyph {
		for i := range glyphs {
			if glyphs[i].BeginChar == pos {
				return &glyphs[i]
			}
		}
		t.Fatalf("no glyph covering rune %d", pos)
		return nil
	}

	if g := byChar(0); !g.Flags.Has(FlagSafeToBreak) || !g.Flags.Has(FlagPrintable) {
		t.Errorf("rune 0 flags = %b", g.Flags)
	}
	if g := byChar(1); g.Flags.Has(FlagAtLineBreak) {
		t.Error("mid-word glyph marked as line break")
	}
	if g := byChar(2); g.Flags.Has(FlagPrintable) {
		t.Error("space glyph marked printable")
	}
	// The glyph after the space starts a line break opportunity.
	if g := byChar(3); !g.Flags.Has(FlagAtLineBreak) {
		t.Error("glyph after space not marked FlagAtLineBreak")
	}
}

func TestShapeCaretsMonotonic(t *testing.T) {
	m := testManager(t)
	shaped, err := m.Shape(Font{Family: "Go", Weight: WeightRegular, Size: 16}, "abcdef")
	if err != nil {
		t.Fatalf("Shape: %v", err)
	}
	glyphs := shaped.Runs[0].Glyphs
	var prev float32
	for i, g := range glyphs {
		if g.LeftCaret != prev {
			t.Errorf("glyph %d left caret = %v, want %v", i, g.LeftCaret, prev)
		}
		if g.RightCaret < g.LeftCaret {
			t.Errorf("glyph %d right caret %v < left %v", i, g.RightCaret, g.LeftCaret)
		}
		prev = g.RightCaret
	}
}

func TestLetterSpacing(t *testing.T) {
	m := testManager(t)
	base := Font{Family: "Go", Weight: WeightRegular, Size: 16}
	spaced := base
	spaced.LetterSpacing = 3

	a, err := m.Shape(base, "abcd")
	if err != nil {
		t.Fatalf("Shape: %v", err)
	}
	b, err := m.Shape(spaced, "abcd")
	if err != nil {
		t.Fatalf("Shape: %v", err)
	}
	got := b.Width() - a.Width()
	if got < 11.9 || got > 12.1 { // 4 clusters x 3px
		t.Errorf("letter spacing added %v, want 12", got)
	}
}

func TestWordSpacing(t *testing.T) {
	m := testManager(t)
	base := Font{Family: "Go", Weight: WeightRegular, Size: 16}
	spaced := base
	spaced.WordSpacing = 5

	a, err := m.Shape(base, "a b")
	if err != nil {
		t.Fatalf("Shape: %v", err)
	}
	b, err := m.Shape(spaced, "a b")
	if err != nil {
		t.Fatalf("Shape: %v", err)
	}
	got := b.Width() - a.Width()
	if got < 4.9 || got > 5.1 {
		t.Errorf("word spacing added %v, want 5", got)
	}
}

func TestControlRuns(t *testing.T) {
	m := testManager(t)
	shaped, err := m.Shape(Font{Family: "Go", Weight: WeightRegular, Size: 16}, "a\nb")
	if err != nil {
		t.Fatalf("Shape: %v", err)
	}
	if len(shaped.Runs) != 3 {
		t.Fatalf("runs = %d, want 3", len(shaped.Runs))
	}
	nl := shaped.Runs[1]
	if !nl.Control {
		t.Error("newline run not marked control")
	}
	if len(nl.Glyphs) != 1 || !nl.Glyphs[0].Flags.Has(FlagControl) {
		t.Error("newline run glyph missing FlagControl")
	}
	if nl.Start != 1 || nl.End != 2 {
		t.Errorf("newline run range = [%d, %d), want [1, 2)", nl.Start, nl.End)
	}
}

func TestShapeCoversAllRunes(t *testing.T) {
	m := testManager(t)
	text := "one\ttwo\nthree four"
	shaped, err := m.Shape(Font{Family: "Go", Weight: WeightRegular, Size: 16}, text)
	if err != nil {
		t.Fatalf("Shape: %v", err)
	}
	covered := make([]bool, len([]rune(text)))
	for _, run := range shaped.Runs {
		for _, g := range run.Glyphs {
			for i := g.BeginChar; i < g.EndChar; i++ {
				covered[i] = true
			}
		}
	}
	for i, ok := range covered {
		if !ok {
			t.Errorf("rune %d not covered by any glyph", i)
		}
	}
}

func TestBreakBefore(t *testing.T) {
	cases := []struct {
		text string
		pos  int
		want bool
	}{
		{"ab cd", 3, true},   // after space
		{"ab cd", 1, false},  // mid word
		{"ab cd", 2, false},  // before space, continuation
		{"a-b", 2, true},     // after hyphen
		{"a- b", 2, false},   // hyphen then space stays together
		{"日本", 1, true}, // between ideographs
	}
	for _, c := range cases {
		if got := breakBefore([]rune(c.text), c.pos); got != c.want {
			t.Errorf("breakBefore(%q, %d) = %v, want %v", c.text, c.pos, got, c.want)
		}
	}
}

func TestSplitRunsBidi(t *testing.T) {
	m := testManager(t)
	chain := []*Face{mustFace(t, m, "Go")}

	// Latin, Hebrew, Latin: three runs, middle one RTL, visual order
	// keeps paragraph order for an LTR base.
	text := []rune("abc אבג def")
	segs := splitRuns(text, chain, DirectionLTR)
	if len(segs) < 3 {
		t.Fatalf("segments = %d, want >= 3", len(segs))
	}
	var sawRTL bool
	for _, s := range segs {
		if s.start >= s.end {
			t.Errorf("empty segment [%d, %d)", s.start, s.end)
		}
		if s.dir == di.DirectionRTL {
			sawRTL = true
		}
	}
	if !sawRTL {
		t.Error("no RTL segment for Hebrew text")
	}

	// Visual indices are a permutation of 0..n-1.
	seen := make(map[int]bool)
	for _, s := range segs {
		if seen[s.visual] {
			t.Errorf("duplicate visual index %d", s.visual)
		}
		seen[s.visual] = true
	}
	for i := 0; i < len(segs); i++ {
		if !seen[i] {
			t.Errorf("visual index %d missing", i)
		}
	}
}

func mustFace(t *testing.T, m *Manager, family string) *Face {
	t.Helper()
	f, err := m.Face(Font{Family: family, Weight: WeightRegular, Size: 16})
	if err != nil {
		t.Fatalf("Face(%s): %v", family, err)
	}
	return f
}
