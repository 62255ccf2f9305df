package lexer

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// parseDecimalInt64 accumulates digits (no underscores, no sign) the
// way lang/ylex/lexer.go's scanNumber does: value = value*10 + digit,
// reporting overflow rather than wrapping silently so the caller can
// fall back to the big-digit path (spec.md 4.D).
func parseDecimalInt64(digits string) (v int64, overflowed bool) {
	var u uint64
	for i := 0; i < len(digits); i++ {
		d := uint64(digits[i] - '0')
		if u > (math.MaxInt64-d)/10 {
			return 0, true
		}
		u = u*10 + d
	}
	return int64(u), false
}

func parseSmallBase(s string) (int, error) {
	n, err := strconv.Atoi(s)
	return n, err
}

func digitValue(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	}
	return -1
}

// parseBasedInteger parses digits (no '.') in the given base. If the
// value overflows int64 it is returned instead as a decimal string in
// big, for internal/bignum to hold at full precision.
func parseBasedInteger(digits string, base int) (v int64, big string, ok bool) {
	var u uint64
	overflowed := false
	for i := 0; i < len(digits); i++ {
		d := digitValue(digits[i])
		if d < 0 || d >= base {
			return 0, "", false
		}
		if u > (math.MaxUint64-uint64(d))/uint64(base) {
			overflowed = true
		}
		u = u*uint64(base) + uint64(d)
	}
	if overflowed || u > math.MaxInt64 {
		// Re-derive as a big decimal string via repeated multiply-add,
		// mirroring internal/bignum.MulAddSmall's own algorithm but
		// kept local to avoid an import cycle risk; callers that need
		// the bignum.Int form re-parse BigDigits there.
		return 0, basedDigitsToDecimal(digits, base), true
	}
	return int64(u), "", true
}

func basedDigitsToDecimal(digits string, base int) string {
	// Accumulate in a little-endian base-1e9 limb array for a simple,
	// dependency-free decimal rendering; literal parsing is not a hot
	// path so the repeated carries here are not a performance concern.
	limbs := []uint64{0}
	const chunk = 1000000000
	for i := 0; i < len(digits); i++ {
		d := uint64(digitValue(digits[i]))
		carry := d
		for j := range limbs {
			v := limbs[j]*uint64(base) + carry
			limbs[j] = v % chunk
			carry = v / chunk
		}
		for carry > 0 {
			limbs = append(limbs, carry%chunk)
			carry /= chunk
		}
	}
	out := fmt.Sprintf("%d", limbs[len(limbs)-1])
	for i := len(limbs) - 2; i >= 0; i-- {
		out += fmt.Sprintf("%09d", limbs[i])
	}
	return out
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}

func parseBasedReal(digits string, base int) (float64, error) {
	parts := strings.SplitN(digits, ".", 2)
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	var val float64
	for i := 0; i < len(intPart); i++ {
		d := digitValue(intPart[i])
		if d < 0 || d >= base {
			return 0, fmt.Errorf("invalid digit %q in base %d", string(intPart[i]), base)
		}
		val = val*float64(base) + float64(d)
	}
	frac := 1.0
	for i := 0; i < len(fracPart); i++ {
		d := digitValue(fracPart[i])
		if d < 0 || d >= base {
			return 0, fmt.Errorf("invalid digit %q in base %d", string(fracPart[i]), base)
		}
		frac /= float64(base)
		val += float64(d) * frac
	}
	return val, nil
}
