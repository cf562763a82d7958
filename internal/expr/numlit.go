package expr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/scigolib/bitproto/internal/model"
)

// parseIntOrFloat parses a NUMBER token's literal text: decimal, 0x…,
// 0b…, or a decimal with a fractional part (spec.md §4.3's literal forms).
func parseIntOrFloat(lit string) (model.Value, error) {
	lower := strings.ToLower(lit)
	switch {
	case strings.HasPrefix(lower, "0x"):
		n, err := strconv.ParseUint(lit[2:], 16, 64)
		if err != nil {
			return model.Value{}, fmt.Errorf("invalid hex literal %q: %w", lit, err)
		}
		return model.UIntVal(n), nil
	case strings.HasPrefix(lower, "0b"):
		n, err := strconv.ParseUint(lit[2:], 2, 64)
		if err != nil {
			return model.Value{}, fmt.Errorf("invalid binary literal %q: %w", lit, err)
		}
		return model.UIntVal(n), nil
	case strings.Contains(lit, "."):
		f, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			return model.Value{}, fmt.Errorf("invalid float literal %q: %w", lit, err)
		}
		return model.FloatVal(f), nil
	default:
		n, err := strconv.ParseInt(lit, 10, 64)
		if err != nil {
			return model.Value{}, fmt.Errorf("invalid integer literal %q: %w", lit, err)
		}
		return model.IntVal(n), nil
	}
}
