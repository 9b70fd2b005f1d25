package alloc

import "testing"

func TestAllocateFirstFit(t *testing.T) {
	a := NewFlatAllocator(1024, 8, FirstFit)

	p1 := a.Allocate(100)
	if p1 != 0 {
		t.Errorf("first allocation: got offset %d, want 0", p1)
	}
	p2 := a.Allocate(100)
	if p2 != 104 { // 100 aligned up to 104
		t.Errorf("second allocation: got offset %d, want 104", p2)
	}
}

func TestAllocateAlignment(t *testing.T) {
	a := NewFlatAllocator(1024, 8, FirstFit)

	tests := []struct {
		request uint32
		next    uint32 // expected offset of the following allocation
	}{
		{1, 8},
		{8, 16},
		{9, 32},
	}
	for _, tt := range tests {
		a = NewFlatAllocator(1024, 8, FirstFit)
		if got := a.Allocate(tt.request); got != 0 {
			t.Fatalf("Allocate(%d): got %d, want 0", tt.request, got)
		}
		if got := a.Allocate(8); got != tt.next {
			t.Errorf("after Allocate(%d), next offset: got %d, want %d", tt.request, got, tt.next)
		}
	}
}

func TestAllocateFull(t *testing.T) {
	a := NewFlatAllocator(64, 8, FirstFit)

	if got := a.Allocate(64); got != 0 {
		t.Fatalf("Allocate(64): got %d, want 0", got)
	}
	if got := a.Allocate(1); got != Null {
		t.Errorf("allocation from a full region: got %d, want Null", got)
	}
}

func TestFreeCoalescing(t *testing.T) {
	a := NewFlatAllocator(1024, 8, FirstFit)

	p1 := a.Allocate(128)
	p2 := a.Allocate(128)
	p3 := a.Allocate(128)
	_ = p3

	// Free the middle then the first; they must merge into one block.
	a.Free(p2, 128)
	a.Free(p1, 128)

	s := a.Stat()
	if s.FreeBlocks != 2 { // merged head block + tail block
		t.Errorf("free blocks after coalescing: got %d, want 2", s.FreeBlocks)
	}

	// A 256-byte request must reuse the coalesced hole at p1.
	if got := a.Allocate(256); got != p1 {
		t.Errorf("allocation after coalescing: got %d, want %d", got, p1)
	}
}

func TestFreeThenAllocLowestOffset(t *testing.T) {
	// After free(p, n), alloc(n) never returns a smaller offset than p
	// unless a block below p is free.
	a := NewFlatAllocator(1024, 8, FirstFit)

	p1 := a.Allocate(64)
	p2 := a.Allocate(64)
	a.Allocate(64)

	a.Free(p2, 64)
	if got := a.Allocate(64); got != p2 {
		t.Errorf("realloc of freed block: got %d, want %d", got, p2)
	}

	a.Free(p1, 64)
	a.Free(p2, 64)
	if got := a.Allocate(64); got != p1 {
		t.Errorf("alloc with lower block free: got %d, want %d", got, p1)
	}
}

func TestBestFit(t *testing.T) {
	a := NewFlatAllocator(1024, 8, BestFit)

	p1 := a.Allocate(256)
	a.Allocate(64) // guard keeps the holes apart
	p2 := a.Allocate(64)
	a.Allocate(64) // guard against the tail block

	// Two holes: 256 bytes at p1, 64 bytes at p2.
	a.Free(p1, 256)
	a.Free(p2, 64)

	// Best fit must pick the 64-byte hole even though the 256-byte one
	// comes first.
	if got := a.Allocate(64); got != p2 {
		t.Errorf("best-fit allocation: got %d, want %d", got, p2)
	}
}

func TestGrow(t *testing.T) {
	a := NewFlatAllocator(64, 8, FirstFit)

	if got := a.Allocate(64); got != 0 {
		t.Fatalf("Allocate(64): got %d, want 0", got)
	}
	if got := a.Allocate(64); got != Null {
		t.Fatalf("expected Null before growth, got %d", got)
	}

	a.Grow(128)
	if got := a.Allocate(64); got != 64 {
		t.Errorf("allocation after growth: got %d, want 64", got)
	}
}

func TestGrowMergesTrailingFree(t *testing.T) {
	a := NewFlatAllocator(128, 8, FirstFit)

	a.Allocate(64) // leaves a 64-byte tail free
	a.Grow(256)

	s := a.Stat()
	if s.FreeBlocks != 1 {
		t.Errorf("free blocks after growth: got %d, want 1", s.FreeBlocks)
	}
	if s.LargestFree != 192 {
		t.Errorf("largest free after growth: got %d, want 192", s.LargestFree)
	}
}

func TestStat(t *testing.T) {
	a := NewFlatAllocator(1024, 8, FirstFit)

	p1 := a.Allocate(128)
	p2 := a.Allocate(128)
	a.Allocate(128)
	a.Free(p1, 128)
	_ = p2

	s := a.Stat()
	if s.TotalFree != 1024-256 {
		t.Errorf("TotalFree: got %d, want %d", s.TotalFree, 1024-256)
	}
	if s.FreeBlocks != 2 {
		t.Errorf("FreeBlocks: got %d, want 2", s.FreeBlocks)
	}
	if s.LargestFree != 1024-384 {
		t.Errorf("LargestFree: got %d, want %d", s.LargestFree, 1024-384)
	}
}
