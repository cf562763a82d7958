package bitproto

import (
	"github.com/scigolib/bitproto/internal/derive"
)

// Encode finalizes schema against inst (expanding groups, assigning bit
// positions, resolving conditionals), evaluates every forward expression
// in dependency order, and writes the result through the bit-level codec.
//
// inst must supply a value for every enabled field that has neither a
// forward expression nor a SET_DEFAULT conditional action in effect, and
// an element count (via
// inst.Collections, keyed by the group's CollectionPath) for every Group
// whose count isn't itself a length_expr.
func Encode(schema *Protocol, inst *Instance) ([]byte, error) {
	return derive.Encode(schema, inst)
}
