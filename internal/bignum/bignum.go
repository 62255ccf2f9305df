// Package bignum implements the minimal arbitrary-precision magnitude
// needed for Ada numeric literal parsing (spec.md 4.D): construction
// from decimal digits, multiply-by-small-add-small (one call per
// scanned digit), and fits-in-signed-64 extraction. It widens the
// int64 accumulation loop in lang/ylex/lexer.go's scanNumber
// ("value = value*base + digit") into a little-endian []uint64 limb
// array so literals wider than 64 bits don't silently overflow;
// subtraction, multiplication-by-large and division are intentionally
// absent because Ada literal parsing never needs them.
package bignum

import "math/bits"

// Int is an arbitrary-precision non-negative magnitude with an
// explicit sign, stored as little-endian 64-bit limbs. The zero value
// represents 0.
type Int struct {
	neg   bool
	limbs []uint64 // little-endian; no leading (high) zero limbs after normalize
}

// Zero is the additive identity.
func Zero() Int { return Int{} }

// FromDecimalDigits builds an Int from a string of ASCII decimal
// digits (optionally prefixed with '+' or '-'), as used for decimal
// integer and based-literal digit sequences.
func FromDecimalDigits(s string) (Int, bool) {
	if s == "" {
		return Int{}, false
	}
	neg := false
	i := 0
	switch s[0] {
	case '+':
		i = 1
	case '-':
		neg = true
		i = 1
	}
	if i == len(s) {
		return Int{}, false
	}
	var n Int
	for ; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return Int{}, false
		}
		n.MulAddSmall(10, uint64(c-'0'))
	}
	n.neg = neg && !n.IsZero()
	return n, true
}

// MulAddSmall computes n = n*mul + add in place, where mul and add
// each fit in a uint64 digit (mul is the literal's base, 2..16, and
// add is one scanned digit's value). This is the one operation the
// lexer needs per digit scanned.
func (n *Int) MulAddSmall(mul, add uint64) {
	carry := add
	for i, limb := range n.limbs {
		hi, lo := bits.Mul64(limb, mul)
		var c uint64
		lo, c = bits.Add64(lo, carry, 0)
		hi, _ = bits.Add64(hi, 0, c)
		n.limbs[i] = lo
		carry = hi
	}
	if carry != 0 {
		n.limbs = append(n.limbs, carry)
	}
	n.normalize()
}

func (n *Int) normalize() {
	i := len(n.limbs)
	for i > 0 && n.limbs[i-1] == 0 {
		i--
	}
	n.limbs = n.limbs[:i]
	if len(n.limbs) == 0 {
		n.neg = false
	}
}

// IsZero reports whether n represents 0.
func (n Int) IsZero() bool { return len(n.limbs) == 0 }

// Negative reports whether n is strictly negative.
func (n Int) Negative() bool { return n.neg }

// FitsInt64 reports whether n's value fits in a signed 64-bit integer
// and, if so, returns it.
func (n Int) FitsInt64() (int64, bool) {
	if n.IsZero() {
		return 0, true
	}
	if len(n.limbs) > 1 {
		return 0, false
	}
	u := n.limbs[0]
	if n.neg {
		if u > 1<<63 {
			return 0, false
		}
		return -int64(u), true
	}
	if u >= 1<<63 {
		return 0, false
	}
	return int64(u), true
}

// Limbs returns the little-endian limb array (no leading zero limb),
// for callers that need the full-precision representation (e.g. a
// codegen path emitting an LLVM i128-or-wider constant literal).
func (n Int) Limbs() []uint64 {
	out := make([]uint64, len(n.limbs))
	copy(out, n.limbs)
	return out
}
