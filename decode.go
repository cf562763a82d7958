package bitproto

import (
	"github.com/scigolib/bitproto/internal/derive"
)

// Decode parses data against schema, expanding groups and resolving
// conditionals from the bytes actually read, then evaluates every
// backward expression to produce the final field values. The returned
// Instance's Values map holds every enabled field, keyed by id (suffixed
// per group clone, e.g. "item_2"), and its Collections map holds the
// element count discovered for every Group that declares a
// CollectionPath, keyed by that path.
func Decode(schema *Protocol, data []byte) (*Instance, error) {
	return derive.Decode(schema, data)
}
