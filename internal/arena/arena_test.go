package arena

import "testing"

func TestAllocZeroedAndAligned(t *testing.T) {
	a := New(256)
	b := a.Alloc(3)
	for _, v := range b {
		if v != 0 {
			t.Fatalf("Alloc did not zero-initialize: %v", b)
		}
	}
	if a.Used() != 3 {
		t.Fatalf("Used() = %d, want 3", a.Used())
	}
}

func TestAllocDisjointRanges(t *testing.T) {
	a := New(256)
	first := a.Alloc(5)
	for i := range first {
		first[i] = 0xAA
	}
	second := a.Alloc(5)
	for _, v := range second {
		if v != 0 {
			t.Fatalf("second allocation overlaps first: %v", second)
		}
	}
	for _, v := range first {
		if v != 0xAA {
			t.Fatalf("second allocation clobbered first: %v", first)
		}
	}
}

func TestAllocSpillsToNewChunk(t *testing.T) {
	a := New(8)
	_ = a.Alloc(8)
	// This allocation can't fit in the remaining 0 bytes of the first
	// chunk and must trigger a new chunk rather than panicking.
	big := a.Alloc(64)
	if len(big) != 64 {
		t.Fatalf("len(big) = %d, want 64", len(big))
	}
	if len(a.chunks) < 2 {
		t.Fatalf("expected at least 2 chunks, got %d", len(a.chunks))
	}
}

func TestNew0AndNewSlice(t *testing.T) {
	type pair struct{ X, Y int64 }
	a := New(256)
	p := New0[pair](a)
	if p.X != 0 || p.Y != 0 {
		t.Fatalf("New0 did not zero-initialize: %+v", p)
	}
	p.X = 7
	s := NewSlice[pair](a, 3)
	if len(s) != 3 {
		t.Fatalf("len(s) = %d, want 3", len(s))
	}
	s[1].Y = 9
	if p.X != 7 {
		t.Fatalf("NewSlice clobbered earlier New0 allocation")
	}
}

func TestMakeCopiesValueIntoArena(t *testing.T) {
	type pair struct{ X, Y int64 }
	a := New(256)
	p := Make(a, pair{X: 3, Y: 4})
	if p.X != 3 || p.Y != 4 {
		t.Fatalf("Make did not copy the literal: %+v", p)
	}
	q := Make(a, pair{X: 5, Y: 6})
	if p.X != 3 || p.Y != 4 {
		t.Fatalf("a later Make clobbered an earlier one: %+v", p)
	}
	if q.X != 5 || q.Y != 6 {
		t.Fatalf("Make did not copy the second literal: %+v", q)
	}
}

func TestStringInterns(t *testing.T) {
	a := New(256)
	s := a.String("hello")
	if s != "hello" {
		t.Fatalf("String() = %q, want %q", s, "hello")
	}
	if a.String("") != "" {
		t.Fatalf("String(\"\") should return empty string")
	}
}

func TestFreeAll(t *testing.T) {
	a := New(256)
	a.Alloc(16)
	a.FreeAll()
	if a.chunks != nil || a.cur != nil {
		t.Fatalf("FreeAll did not drop chunk references")
	}
}
