package fonts

import (
	"unicode"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/font/opentype"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/math/fixed"

	"github.com/dancazarin/brisk-sub002/internal/logging"
)

func fixedToFloat(v fixed.Int26_6) float32 {
	return float32(v) / 64
}

// breakBefore implements a simplified UAX #14: a line may start before
// rune i when the preceding rune is a space (and i is not a space
// continuation), after hyphens, and between CJK ideographs.
func breakBefore(text []rune, i int) bool {
	if i <= 0 || i >= len(text) {
		return false
	}
	prev, cur := text[i-1], text[i]
	switch {
	case prev == ' ' || prev == '\t':
		return cur != ' ' && cur != '\t'
	case prev == '\u200b': // zero-width space
		return true
	case prev == '-' || prev == '\u2010' || prev == '\u00ad':
		return !unicode.IsSpace(cur)
	case isIdeograph(prev) || isIdeograph(cur):
		return !unicode.IsSpace(cur)
	}
	return false
}

func isIdeograph(r rune) bool {
	return unicode.Is(unicode.Han, r) ||
		unicode.Is(unicode.Hiragana, r) ||
		unicode.Is(unicode.Katakana, r)
}

// isWhitespaceRange reports whether every rune in [start, end) is
// whitespace.
func isWhitespaceRange(text []rune, start, end int) bool {
	for i := start; i < end && i < len(text); i++ {
		if !unicode.IsSpace(text[i]) {
			return false
		}
	}
	return true
}

// disableLigatures turns off standard and contextual ligatures; used
// when letter spacing is applied so spacing falls between the original
// characters.
var disableLigatures = []shaping.FontFeature{
	{Tag: opentype.MustNewTag("liga"), Value: 0},
	{Tag: opentype.MustNewTag("clig"), Value: 0},
}

// shapeSegment shapes one printable segment into a GlyphRun. A shaper
// failure degrades to .notdef placeholder glyphs covering the range so
// text index coverage stays exhaustive.
func (m *Manager) shapeSegment(fnt Font, text []rune, seg segment) GlyphRun {
	run := GlyphRun{
		Face:        seg.face,
		Size:        fnt.Size,
		Direction:   dirFromDi(seg.dir),
		VisualOrder: seg.visual,
		Start:       seg.start,
		End:         seg.end,
	}

	input := shaping.Input{
		Text:      text,
		RunStart:  seg.start,
		RunEnd:    seg.end,
		Direction: seg.dir,
		Face:      font.NewFace(seg.face.Font()),
		Size:      fixed.Int26_6(fnt.Size * 64),
		Script:    seg.script,
		Language:  language.NewLanguage("en"),
	}
	if fnt.LetterSpacing > 0 {
		input.FontFeatures = disableLigatures
	}

	shaper := m.shaperPool.Get().(*shaping.HarfbuzzShaper)
	out := shaper.Shape(input)
	m.shaperPool.Put(shaper)

	if len(out.Glyphs) == 0 {
		logging.Logger().Warn("fonts: shaper produced no glyphs",
			"family", seg.face.Family(), "start", seg.start, "end", seg.end)
		run.Glyphs = notdefGlyphs(text, seg.start, seg.end)
		return run
	}

	run.Glyphs = convertGlyphs(text, out.Glyphs)
	applySpacing(fnt, text, run.Glyphs)
	assignCarets(run.Glyphs)
	return run
}

func dirFromDi(d di.Direction) Direction {
	if d == di.DirectionRTL {
		return DirectionRTL
	}
	return DirectionLTR
}

// convertGlyphs translates go-text output glyphs, grouping them into
// clusters and computing flags. Output order (visual for RTL) is kept.
func convertGlyphs(text []rune, glyphs []shaping.Glyph) []Glyph {
	out := make([]Glyph, len(glyphs))
	for i := 0; i < len(glyphs); {
		cluster := glyphs[i].ClusterIndex
		j := i
		for j < len(glyphs) && glyphs[j].ClusterIndex == cluster {
			j++
		}
		begin := cluster
		end := cluster + glyphs[i].RuneCount

		printable := !isWhitespaceRange(text, begin, end)
		for k := i; k < j; k++ {
			g := &glyphs[k]
			var flags GlyphFlags
			if k == i {
				flags |= FlagSafeToBreak
				if breakBefore(text, begin) {
					flags |= FlagAtLineBreak
				}
			}
			if printable {
				flags |= FlagPrintable
			}
			out[k] = Glyph{
				ID:        uint32(g.GlyphID),
				BeginChar: begin,
				EndChar:   end,
				XAdvance:  fixedToFloat(g.XAdvance),
				XOffset:   fixedToFloat(g.XOffset),
				YOffset:   -fixedToFloat(g.YOffset),
				Flags:     flags,
			}
		}
		i = j
	}
	return out
}

// applySpacing adds letter spacing after every cluster and word
// spacing after whitespace clusters. Spacing lands on the last glyph
// of the cluster, which is a safe break point by construction.
func applySpacing(fnt Font, text []rune, glyphs []Glyph) {
	if fnt.LetterSpacing == 0 && fnt.WordSpacing == 0 {
		return
	}
	for i := 0; i < len(glyphs); {
		j := i
		for j < len(glyphs) && glyphs[j].BeginChar == glyphs[i].BeginChar {
			j++
		}
		last := &glyphs[j-1]
		if last.Flags.Has(FlagPrintable) {
			last.XAdvance += fnt.LetterSpacing
		} else if isWhitespaceRange(text, last.BeginChar, last.EndChar) {
			last.XAdvance += fnt.WordSpacing
		}
		i = j
	}
}

// assignCarets walks clusters accumulating advance; all glyphs of one
// cluster share the cluster's caret pair.
func assignCarets(glyphs []Glyph) {
	var x float32
	for i := 0; i < len(glyphs); {
		j := i
		var adv float32
		for j < len(glyphs) && glyphs[j].BeginChar == glyphs[i].BeginChar {
			adv += glyphs[j].XAdvance
			j++
		}
		for k := i; k < j; k++ {
			glyphs[k].LeftCaret = x
			glyphs[k].RightCaret = x + adv
		}
		x += adv
		i = j
	}
}

// notdefGlyphs covers [start, end) with zero-advance .notdef glyphs.
func notdefGlyphs(text []rune, start, end int) []Glyph {
	out := make([]Glyph, 0, end-start)
	for i := start; i < end; i++ {
		var flags GlyphFlags = FlagSafeToBreak
		if breakBefore(text, i) {
			flags |= FlagAtLineBreak
		}
		out = append(out, Glyph{
			ID:        0,
			BeginChar: i,
			EndChar:   i + 1,
			Flags:     flags,
		})
	}
	return out
}

// controlRun builds the glyph run for a one-rune control segment.
func controlRun(fnt Font, text []rune, seg segment) GlyphRun {
	run := GlyphRun{
		Face:        seg.face,
		Size:        fnt.Size,
		Direction:   DirectionLTR,
		VisualOrder: seg.visual,
		Start:       seg.start,
		End:         seg.end,
		Control:     true,
	}
	run.Glyphs = []Glyph{{
		BeginChar: seg.start,
		EndChar:   seg.end,
		Flags:     FlagControl | FlagSafeToBreak,
	}}
	return run
}
