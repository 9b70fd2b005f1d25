package fonts

import (
	"sort"
	"unicode"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/language"
	"golang.org/x/text/unicode/bidi"
)

// segment is a maximal piece of text with one direction, script and
// face, produced by the split pipeline: bidi -> script -> face ->
// control.
type segment struct {
	start, end int // rune range
	dir        di.Direction
	script     language.Script
	face       *Face // nil for control segments
	control    bool
	visual     int // paragraph left-to-right display order
}

// isControlRune reports Cc, Zl and Zp runes. They form one-rune
// control segments the shaper skips.
func isControlRune(r rune) bool {
	return unicode.Is(unicode.Cc, r) || unicode.Is(unicode.Zl, r) || unicode.Is(unicode.Zp, r)
}

type bidiRun struct {
	start, end int
	dir        di.Direction
	visual     int
}

// splitBidi resolves the paragraph into directional runs with visual
// order indices. On bidi failure the whole text becomes one run in
// the base direction.
func splitBidi(text []rune, base Direction) []bidiRun {
	baseDir := di.DirectionLTR
	def := bidi.LeftToRight
	if base == DirectionRTL {
		baseDir = di.DirectionRTL
		def = bidi.RightToLeft
	}
	whole := []bidiRun{{start: 0, end: len(text), dir: baseDir}}

	var p bidi.Paragraph
	if _, err := p.SetString(string(text), bidi.DefaultDirection(def)); err != nil {
		return whole
	}
	ordering, err := p.Order()
	if err != nil || ordering.NumRuns() == 0 {
		return whole
	}

	runs := make([]bidiRun, 0, ordering.NumRuns())
	for i := 0; i < ordering.NumRuns(); i++ {
		run := ordering.Run(i)
		start, end := run.Pos()
		dir := di.DirectionLTR
		if run.Direction() == bidi.RightToLeft {
			dir = di.DirectionRTL
		}
		// Pos returns inclusive rune indices in the run ordering.
		runs = append(runs, bidiRun{start: start, end: end + 1, dir: dir, visual: i})
	}
	// Logical order for downstream splitting; visual indices are kept.
	sort.Slice(runs, func(i, j int) bool { return runs[i].start < runs[j].start })
	return runs
}

// splitScript subdivides [start, end) at script boundaries. Common and
// inherited runes attach to the surrounding concrete script so
// punctuation does not fragment runs.
func splitScript(text []rune, start, end int) []struct {
	start, end int
	script     language.Script
} {
	type part struct {
		start, end int
		script     language.Script
	}
	var parts []part
	cur := language.Script(0)
	segStart := start
	for i := start; i < end; i++ {
		s := language.LookupScript(text[i])
		if s == language.Common || s == language.Inherited || s == language.Unknown {
			continue
		}
		if cur == 0 {
			cur = s
			continue
		}
		if s != cur {
			parts = append(parts, part{start: segStart, end: i, script: cur})
			segStart = i
			cur = s
		}
	}
	if cur == 0 {
		cur = language.Latin
	}
	parts = append(parts, part{start: segStart, end: end, script: cur})

	out := make([]struct {
		start, end int
		script     language.Script
	}, len(parts))
	for i, p := range parts {
		out[i] = struct {
			start, end int
			script     language.Script
		}{p.start, p.end, p.script}
	}
	return out
}

// pickFace returns the first face in the chain covering the rune, or
// the chain head when none does (the head will produce .notdef).
func pickFace(chain []*Face, r rune) *Face {
	for _, f := range chain {
		if f.HasGlyph(r) {
			return f
		}
	}
	return chain[0]
}

// splitFaces subdivides [start, end) by fallback coverage. Whitespace
// keeps the current face so spaces do not split runs.
func splitFaces(text []rune, chain []*Face, start, end int) []struct {
	start, end int
	face       *Face
} {
	type part struct {
		start, end int
		face       *Face
	}
	var parts []part
	var cur *Face
	segStart := start
	for i := start; i < end; i++ {
		r := text[i]
		if unicode.IsSpace(r) && cur != nil && cur.HasGlyph(r) {
			continue
		}
		f := cur
		if f == nil || !f.HasGlyph(r) {
			f = pickFace(chain, r)
		}
		if cur == nil {
			cur = f
			continue
		}
		if f != cur {
			parts = append(parts, part{start: segStart, end: i, face: cur})
			segStart = i
			cur = f
		}
	}
	if cur == nil {
		cur = chain[0]
	}
	parts = append(parts, part{start: segStart, end: end, face: cur})

	out := make([]struct {
		start, end int
		face       *Face
	}, len(parts))
	for i, p := range parts {
		out[i] = struct {
			start, end int
			face       *Face
		}{p.start, p.end, p.face}
	}
	return out
}

// splitControl extracts one-rune control segments from [start, end).
func splitControl(text []rune, start, end int, proto segment) []segment {
	var out []segment
	segStart := start
	flushPrintable := func(to int) {
		if to > segStart {
			s := proto
			s.start, s.end = segStart, to
			out = append(out, s)
		}
	}
	for i := start; i < end; i++ {
		if isControlRune(text[i]) {
			flushPrintable(i)
			c := proto
			c.start, c.end = i, i+1
			c.control = true
			c.face = proto.face
			out = append(out, c)
			segStart = i + 1
		}
	}
	flushPrintable(end)
	return out
}

// splitRuns runs the full segmentation pipeline and assigns final
// visual order indices: bidi runs in display order; within an LTR run
// sub-segments keep logical order, within an RTL run they reverse.
func splitRuns(text []rune, chain []*Face, base Direction) []segment {
	if len(text) == 0 {
		return nil
	}
	bidiRuns := splitBidi(text, base)

	// Logical-order list with (bidi visual, intra-run index) keys.
	type keyed struct {
		seg    segment
		bv, si int
	}
	var all []keyed
	for _, br := range bidiRuns {
		si := 0
		for _, sp := range splitScript(text, br.start, br.end) {
			for _, fp := range splitFaces(text, chain, sp.start, sp.end) {
				proto := segment{
					dir:    br.dir,
					script: sp.script,
					face:   fp.face,
				}
				for _, seg := range splitControl(text, fp.start, fp.end, proto) {
					all = append(all, keyed{seg: seg, bv: br.visual, si: si})
					si++
				}
			}
		}
		// Reverse intra-run display order for RTL.
		if br.dir == di.DirectionRTL {
			n := si
			for i := len(all) - 1; i >= 0 && all[i].bv == br.visual; i-- {
				all[i].si = n - 1 - all[i].si
			}
		}
	}

	// Assign compact visual indices by display position.
	order := make([]int, len(all))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ka, kb := all[order[a]], all[order[b]]
		if ka.bv != kb.bv {
			return ka.bv < kb.bv
		}
		return ka.si < kb.si
	})
	for visual, idx := range order {
		all[idx].seg.visual = visual
	}

	segs := make([]segment, len(all))
	for i := range all {
		segs[i] = all[i].seg
	}
	return segs
}
