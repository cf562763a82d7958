package codec

import (
	"fmt"
	"math"
)

// checkMultiplyOverflow reports whether a*b would overflow a uint64. A
// schema-declared group count multiplied by a cloned subtree's bit width
// is attacker- or typo-controlled input (spec.md §3.1 groups), so this
// guards the total-bits computation before it's used to size a buffer.
func checkMultiplyOverflow(a, b uint64) error {
	if a == 0 || b == 0 {
		return nil
	}
	if a > math.MaxUint64/b {
		return fmt.Errorf("multiplication overflow: %d * %d exceeds uint64 max", a, b)
	}
	return nil
}

// SafeTotalBits multiplies count by bitsPerElement, returning an error
// instead of silently wrapping when the product would overflow. The tree
// finalizer calls it with bitsPerElement=1, so there it bounds a Group's
// element count alone (non-negative, at most math.MaxInt32).
func SafeTotalBits(count, bitsPerElement int) (int, error) {
	if count < 0 || bitsPerElement < 0 {
		return 0, fmt.Errorf("negative count (%d) or width (%d)", count, bitsPerElement)
	}
	if err := checkMultiplyOverflow(uint64(count), uint64(bitsPerElement)); err != nil {
		return 0, err
	}
	total := uint64(count) * uint64(bitsPerElement)
	if total > math.MaxInt32 {
		return 0, fmt.Errorf("total bit length %d exceeds supported buffer size", total)
	}
	return int(total), nil
}
