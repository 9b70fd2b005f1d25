package atlas

// GradientResolution is the number of samples in one pre-sampled
// gradient ramp. Ramps are RGBA float32, so one slot is
// GradientResolution*4 floats.
const GradientResolution = 1024

// GradientNull is the sentinel index for "gradient not in atlas".
const GradientNull = GradientIndex(0xFFFFFFFF)

// GradientIndex addresses a slot in the gradient atlas.
type GradientIndex uint32

// GradientRamp is one pre-sampled ramp: GradientResolution RGBA
// float32 samples. The atlas stores ramps as-is; the producer decides
// the color encoding.
type GradientRamp [GradientResolution * 4]float32

type gradientEntry struct {
	slot       uint32
	generation uint64
}

// GradientAtlas is a fixed-count slot table of pre-sampled ramps. The
// slot count is backend-bounded and small, so unlike the sprite atlas
// it never grows; eviction alone reclaims space.
//
// Callers hold the render device's resource mutex around every method.
type GradientAtlas struct {
	slots   []GradientRamp
	used    []bool
	entries map[uint64]*gradientEntry
	changed uint64
}

// NewGradientAtlas creates an atlas with the given slot count.
func NewGradientAtlas(slots int) *GradientAtlas {
	return &GradientAtlas{
		slots:   make([]GradientRamp, slots),
		used:    make([]bool, slots),
		entries: make(map[uint64]*gradientEntry),
	}
}

// AddEntry stores the ramp under id and returns its slot index. An
// already-resident gradient has its generation bumped. When every slot
// is taken, entries older than firstGen are evicted; if none remain
// the call returns GradientNull.
func (a *GradientAtlas) AddEntry(id uint64, ramp *GradientRamp, firstGen, currentGen uint64) GradientIndex {
	if e, ok := a.entries[id]; ok {
		e.generation = currentGen
		return GradientIndex(e.slot)
	}

	slot := a.findFreeSlot()
	for slot < 0 {
		if !a.RemoveOutdated(firstGen) {
			return GradientNull
		}
		slot = a.findFreeSlot()
	}

	a.slots[slot] = *ramp
	a.used[slot] = true
	a.entries[id] = &gradientEntry{slot: uint32(slot), generation: currentGen}
	a.changed++
	return GradientIndex(slot)
}

// RemoveOutdated evicts the oldest entry below the threshold and
// returns whether an eviction occurred.
func (a *GradientAtlas) RemoveOutdated(threshold uint64) bool {
	var (
		oldestID  uint64
		oldest    *gradientEntry
		foundDead bool
	)
	for id, e := range a.entries {
		if e.generation >= threshold {
			continue
		}
		if !foundDead || e.generation < oldest.generation {
			oldestID, oldest = id, e
			foundDead = true
		}
	}
	if !foundDead {
		return false
	}
	a.used[oldest.slot] = false
	delete(a.entries, oldestID)
	a.changed++
	return true
}

func (a *GradientAtlas) findFreeSlot() int {
	for i, u := range a.used {
		if !u {
			return i
		}
	}
	return -1
}

// Slots returns the slot count.
func (a *GradientAtlas) Slots() int { return len(a.slots) }

// Len returns the number of resident gradients.
func (a *GradientAtlas) Len() int { return len(a.entries) }

// Changed returns the mutation counter.
func (a *GradientAtlas) Changed() uint64 { return a.changed }

// Data returns the ramp table as one flat float32 slice, slot-major,
// for upload as a (GradientResolution x slots) RGBA F32 texture.
func (a *GradientAtlas) Data() []float32 {
	out := make([]float32, 0, len(a.slots)*GradientResolution*4)
	for i := range a.slots {
		out = append(out, a.slots[i][:]...)
	}
	return out
}

// Ramp returns the ramp stored in the given slot.
func (a *GradientAtlas) Ramp(idx GradientIndex) *GradientRamp {
	return &a.slots[idx]
}
