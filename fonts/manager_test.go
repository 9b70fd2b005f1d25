package fonts

import (
	"errors"
	"fmt"
	"testing"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

func testManager(t *testing.T) *Manager {
	t.Helper()
	m := NewManager()
	if err := m.AddFont("Go", StyleNormal, WeightRegular, goregular.TTF); err != nil {
		t.Fatalf("AddFont: %v", err)
	}
	return m
}

func TestAddFontInvalid(t *testing.T) {
	m := NewManager()
	err := m.AddFont("Bad", StyleNormal, WeightRegular, []byte("not a font"))
	if !errors.Is(err, ErrInvalidFont) {
		t.Fatalf("err = %v, want ErrInvalidFont", err)
	}
}

func TestResolveExactAndNearest(t *testing.T) {
	m := testManager(t)
	if err := m.AddFont("Go", StyleNormal, WeightBold, gobold.TTF); err != nil {
		t.Fatalf("AddFont bold: %v", err)
	}

	f, err := m.Face(Font{Family: "Go", Weight: WeightBold, Size: 16})
	if err != nil {
		t.Fatalf("Face: %v", err)
	}
	if f.Weight() != WeightBold {
		t.Errorf("exact match weight = %d, want %d", f.Weight(), WeightBold)
	}

	// No semibold registered: nearest is bold (600 -> 700 beats 400).
	f, err = m.Face(Font{Family: "Go", Weight: WeightSemiBold, Size: 16})
	if err != nil {
		t.Fatalf("Face: %v", err)
	}
	if f.Weight() != WeightBold {
		t.Errorf("nearest weight = %d, want %d", f.Weight(), WeightBold)
	}

	// Italic is unregistered; same-style scoring still lands on a face.
	f, err = m.Face(Font{Family: "Go", Style: StyleItalic, Weight: WeightRegular, Size: 16})
	if err != nil {
		t.Fatalf("Face: %v", err)
	}
	if f.Style() != StyleNormal {
		t.Errorf("fallback style = %v, want normal", f.Style())
	}
}

func TestResolveUnknownFamily(t *testing.T) {
	m := testManager(t)
	_, err := m.Shape(Font{Family: "Nope", Size: 16}, "x")
	if !errors.Is(err, ErrFontNotFound) {
		t.Fatalf("err = %v, want ErrFontNotFound", err)
	}
}

func TestMergedFont(t *testing.T) {
	m := testManager(t)
	if err := m.AddMergedFont("UI"); !errors.Is(err, ErrEmptyMerged) {
		t.Fatalf("empty merged err = %v, want ErrEmptyMerged", err)
	}
	if err := m.AddMergedFont("UI", "Missing", "Go"); err != nil {
		t.Fatalf("AddMergedFont: %v", err)
	}
	f, err := m.Face(Font{Family: "UI", Weight: WeightRegular, Size: 16})
	if err != nil {
		t.Fatalf("Face: %v", err)
	}
	if f.Family() != "Go" {
		t.Errorf("merged resolved to %q, want Go", f.Family())
	}
}

func TestShapeCacheHitReturnsCopy(t *testing.T) {
	m := testManager(t)
	fnt := Font{Family: "Go", Weight: WeightRegular, Size: 16}

	a, err := m.Shape(fnt, "hello")
	if err != nil {
		t.Fatalf("Shape: %v", err)
	}
	if m.ShapeCacheLen() != 1 {
		t.Fatalf("cache len = %d, want 1", m.ShapeCacheLen())
	}
	a.Runs[0].Glyphs[0].XAdvance = -1

	b, err := m.Shape(fnt, "hello")
	if err != nil {
		t.Fatalf("Shape: %v", err)
	}
	if b.Runs[0].Glyphs[0].XAdvance == -1 {
		t.Error("cached result shares glyph storage with caller copy")
	}
}

func TestShapeCacheTrim(t *testing.T) {
	m := NewManagerConfig(ManagerConfig{ShapeCacheLow: 4, ShapeCacheHigh: 8})
	if err := m.AddFont("Go", StyleNormal, WeightRegular, goregular.TTF); err != nil {
		t.Fatalf("AddFont: %v", err)
	}
	fnt := Font{Family: "Go", Weight: WeightRegular, Size: 16}
	for i := 0; i < 9; i++ {
		if _, err := m.Shape(fnt, fmt.Sprintf("text %d", i)); err != nil {
			t.Fatalf("Shape: %v", err)
		}
	}
	if n := m.ShapeCacheLen(); n != 4 {
		t.Errorf("cache len after trim = %d, want 4", n)
	}
	// Most recent entries survive.
	m.mu.Lock()
	_, ok := m.shapeCache[shapeKey{font: fnt, text: "text 8"}]
	m.mu.Unlock()
	if !ok {
		t.Error("most recent entry evicted")
	}
}

func TestMutationClearsShapeCache(t *testing.T) {
	m := testManager(t)
	fnt := Font{Family: "Go", Weight: WeightRegular, Size: 16}
	if _, err := m.Shape(fnt, "hello"); err != nil {
		t.Fatalf("Shape: %v", err)
	}
	if err := m.AddFont("Go", StyleNormal, WeightBold, gobold.TTF); err != nil {
		t.Fatalf("AddFont: %v", err)
	}
	if n := m.ShapeCacheLen(); n != 0 {
		t.Errorf("cache len after AddFont = %d, want 0", n)
	}

	if _, err := m.Shape(fnt, "hello"); err != nil {
		t.Fatalf("Shape: %v", err)
	}
	m.RemoveFont("Go", StyleNormal, WeightBold)
	if n := m.ShapeCacheLen(); n != 0 {
		t.Errorf("cache len after RemoveFont = %d, want 0", n)
	}
}

func TestMetrics(t *testing.T) {
	m := testManager(t)
	met, err := m.Metrics(Font{Family: "Go", Weight: WeightRegular, Size: 32})
	if err != nil {
		t.Fatalf("Metrics: %v", err)
	}
	if met.Ascender <= 0 || met.Descender <= 0 {
		t.Errorf("ascender/descender = %v/%v, want positive", met.Ascender, met.Descender)
	}
	if met.SpaceAdvance <= 0 {
		t.Errorf("space advance = %v, want positive", met.SpaceAdvance)
	}
	if want := met.Descender * 0.5; met.Underline != want {
		t.Errorf("underline = %v, want %v", met.Underline, want)
	}
	if want := met.Ascender * 0.84375; met.Overline != want {
		t.Errorf("overline = %v, want %v", met.Overline, want)
	}
	if met.LineHeight() < met.Ascender+met.Descender {
		t.Error("line height smaller than ascent+descent")
	}
}
