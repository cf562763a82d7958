package codec

import (
	"fmt"

	"github.com/scigolib/bitproto/internal/model"
	"github.com/scigolib/bitproto/internal/xerrors"
)

// applyEnumEncode implements spec.md §4.4's enum handling: if value
// matches an encoded form use it as-is, else if it matches a description
// substitute the encoded form, else fail.
func applyEnumEncode(n *model.Node, v model.Value) (model.Value, error) {
	if len(n.Range) == 0 {
		return v, nil
	}
	for _, entry := range n.Range {
		if valuesEqual(entry.Encoded, v) {
			return entry.Encoded, nil
		}
	}
	asStr := v.AsString()
	for _, entry := range n.Range {
		if entry.Description == asStr {
			return entry.Encoded, nil
		}
	}
	return model.Value{}, xerrors.New(xerrors.KindEnumOutOfRange, xerrors.StageCode, n.ID,
		fmt.Errorf("value %v matches neither an encoded form nor a description", v.AsString()))
}

// applyEnumDecode substitutes the raw decoded value with its description
// when the range table declares one.
func applyEnumDecode(n *model.Node, v model.Value) model.Value {
	for _, entry := range n.Range {
		if valuesEqual(entry.Encoded, v) {
			return model.StrVal(entry.Description)
		}
	}
	return v
}

// ValidateEnum implements ErrorKind::EnumValidationFailed: on decode, a
// value absent from the declared enum (when present) is a schema
// consistency failure, distinct from "no range declared at all".
func ValidateEnum(n *model.Node, v model.Value) error {
	if len(n.Range) == 0 {
		return nil
	}
	for _, entry := range n.Range {
		if entry.Description == v.AsString() {
			return nil
		}
	}
	return xerrors.New(xerrors.KindEnumValidationFailed, xerrors.StageDerive, n.ID,
		fmt.Errorf("decoded value %q is absent from the declared enum", v.AsString()))
}

func valuesEqual(a, b model.Value) bool {
	au, aerr := a.AsUint()
	bu, berr := b.AsUint()
	if aerr == nil && berr == nil {
		return au == bu
	}
	return a.AsString() == b.AsString()
}
