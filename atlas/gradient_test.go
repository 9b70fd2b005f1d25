package atlas

import "testing"

func makeRamp(fill float32) *GradientRamp {
	var r GradientRamp
	for i := range r {
		r[i] = fill
	}
	return &r
}

func TestGradientAddAndLookup(t *testing.T) {
	a := NewGradientAtlas(4)

	idx := a.AddEntry(1, makeRamp(0.5), 0, 1)
	if idx == GradientNull {
		t.Fatal("AddEntry returned GradientNull")
	}
	if got := a.Ramp(idx)[0]; got != 0.5 {
		t.Errorf("stored ramp sample: got %v, want 0.5", got)
	}

	// Same id resolves to the same slot.
	if again := a.AddEntry(1, makeRamp(0.5), 0, 2); again != idx {
		t.Errorf("repeated AddEntry: got %d then %d", idx, again)
	}
	if a.Len() != 1 {
		t.Errorf("entries: got %d, want 1", a.Len())
	}
}

func TestGradientEviction(t *testing.T) {
	a := NewGradientAtlas(2)

	a.AddEntry(1, makeRamp(0.1), 0, 1)
	a.AddEntry(2, makeRamp(0.2), 0, 2)

	// New batch at generation 5: both are outdated, oldest goes first.
	idx := a.AddEntry(3, makeRamp(0.3), 5, 5)
	if idx == GradientNull {
		t.Fatal("AddEntry failed despite evictable slots")
	}
	if got := a.Ramp(idx)[0]; got != 0.3 {
		t.Errorf("ramp after eviction: got %v, want 0.3", got)
	}
	if a.Len() != 2 {
		t.Errorf("entries after eviction: got %d, want 2", a.Len())
	}
}

func TestGradientNoEvictionOfLiveSlots(t *testing.T) {
	a := NewGradientAtlas(2)

	a.AddEntry(1, makeRamp(0.1), 3, 3)
	a.AddEntry(2, makeRamp(0.2), 3, 4)

	if idx := a.AddEntry(3, makeRamp(0.3), 3, 5); idx != GradientNull {
		t.Errorf("AddEntry evicted a live slot, got %d", idx)
	}
}

func TestGradientChangedCounter(t *testing.T) {
	a := NewGradientAtlas(2)

	before := a.Changed()
	a.AddEntry(1, makeRamp(0.1), 0, 1)
	if a.Changed() == before {
		t.Error("Changed did not advance on insert")
	}

	stamp := a.Changed()
	a.AddEntry(1, makeRamp(0.1), 0, 2)
	if a.Changed() != stamp {
		t.Error("Changed advanced on a generation touch")
	}
}
