package matching

import (
	"math/bits"

	"github.com/openalpha/clobcore/clobtypes"
)

// fp32Mul computes (a*b)>>32 over a full 128-bit intermediate, failing if
// the mathematical result does not fit back into a u64 (spec.md §4.4
// "Numeric semantics").
func fp32Mul(a, b uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi>>32 != 0 {
		return 0, clobtypes.ErrNumericalOverflow
	}
	return (hi << 32) | (lo >> 32), nil
}

// fp32Div computes (a<<32)/b over a full 128-bit numerator, failing on
// division by zero or on a quotient that does not fit into a u64.
func fp32Div(a, b uint64) (uint64, error) {
	if b == 0 {
		return 0, clobtypes.ErrNumericalOverflow
	}
	hi := a >> 32
	lo := a << 32
	if hi >= b {
		return 0, clobtypes.ErrNumericalOverflow
	}
	q, _ := bits.Div64(hi, lo, b)
	return q, nil
}
