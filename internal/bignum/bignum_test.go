package bignum

import "testing"

func TestFromDecimalDigits(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"0", 0, true},
		{"42", 42, true},
		{"-17", -17, true},
		{"+9", 9, true},
		{"9223372036854775807", 9223372036854775807, true}, // max int64
		{"", 0, false},
		{"12a3", 0, false},
	}
	for _, c := range cases {
		n, ok := FromDecimalDigits(c.in)
		if ok != c.ok {
			t.Errorf("FromDecimalDigits(%q) ok = %v, want %v", c.in, ok, c.ok)
			continue
		}
		if !ok {
			continue
		}
		got, fits := n.FitsInt64()
		if !fits || got != c.want {
			t.Errorf("FromDecimalDigits(%q) = %d (fits=%v), want %d", c.in, got, fits, c.want)
		}
	}
}

func TestOverflowsInt64(t *testing.T) {
	n, ok := FromDecimalDigits("99999999999999999999999999999")
	if !ok {
		t.Fatalf("FromDecimalDigits failed to parse")
	}
	if _, fits := n.FitsInt64(); fits {
		t.Fatalf("FitsInt64() = true, want false for a value far beyond 64 bits")
	}
	if n.IsZero() {
		t.Fatalf("IsZero() = true for a nonzero literal")
	}
}

func TestMulAddSmallMatchesManualAccumulation(t *testing.T) {
	// base-16 literal "FF" = 255
	var n Int
	n.MulAddSmall(16, 15)
	n.MulAddSmall(16, 15)
	got, fits := n.FitsInt64()
	if !fits || got != 255 {
		t.Fatalf("MulAddSmall accumulation = %d (fits=%v), want 255", got, fits)
	}
}

func TestZeroIsNeverNegative(t *testing.T) {
	n, ok := FromDecimalDigits("-0")
	if !ok {
		t.Fatalf("FromDecimalDigits(-0) failed")
	}
	if n.Negative() {
		t.Fatalf("Negative() = true for -0, want false (zero is non-negative)")
	}
	if !n.IsZero() {
		t.Fatalf("IsZero() = false for -0")
	}
}

func TestLimbGrowthAcrossWordBoundary(t *testing.T) {
	// Accumulate enough decimal digits to force a second limb.
	var n Int
	digits := "18446744073709551616" // 2^64, needs 2 limbs
	for i := 0; i < len(digits); i++ {
		n.MulAddSmall(10, uint64(digits[i]-'0'))
	}
	if len(n.Limbs()) < 2 {
		t.Fatalf("Limbs() = %v, want at least 2 limbs for 2^64", n.Limbs())
	}
	if _, fits := n.FitsInt64(); fits {
		t.Fatalf("FitsInt64() = true for 2^64, want false")
	}
}
