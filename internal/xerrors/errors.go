// Package xerrors implements the ErrorKind taxonomy of spec.md §7: every
// failure the core pipeline returns carries the offending node path, the
// stage that produced it, and — for bit-stream errors — the bit offset.
//
// Adapted from the teacher's internal/utils.H5Error (Context + Cause +
// Unwrap), extended with the structured fields the taxonomy requires.
package xerrors

import "fmt"

// Kind tags the taxonomy of spec.md §7.
type Kind uint8

const (
	KindSchema Kind = iota
	KindCyclicDependency
	KindUnknownReference
	KindExpressionSyntax
	KindExpressionRuntime
	KindRangeOrder
	KindMissingValue
	KindEnumOutOfRange
	KindValueOutOfRange
	KindBitStreamOverrun
	KindEnumValidationFailed
)

func (k Kind) String() string {
	switch k {
	case KindSchema:
		return "Schema"
	case KindCyclicDependency:
		return "CyclicDependency"
	case KindUnknownReference:
		return "UnknownReference"
	case KindExpressionSyntax:
		return "ExpressionSyntax"
	case KindExpressionRuntime:
		return "ExpressionRuntime"
	case KindRangeOrder:
		return "RangeOrder"
	case KindMissingValue:
		return "MissingValue"
	case KindEnumOutOfRange:
		return "EnumOutOfRange"
	case KindValueOutOfRange:
		return "ValueOutOfRange"
	case KindBitStreamOverrun:
		return "BitStreamOverrun"
	case KindEnumValidationFailed:
		return "EnumValidationFailed"
	default:
		return "Unknown"
	}
}

// Stage names which pipeline stage produced the error (spec.md §7).
type Stage uint8

const (
	StageSchema Stage = iota
	StagePlan
	StageDerive
	StageCode
)

func (s Stage) String() string {
	switch s {
	case StageSchema:
		return "Schema"
	case StagePlan:
		return "Plan"
	case StageDerive:
		return "Derive"
	case StageCode:
		return "Code"
	default:
		return "Unknown"
	}
}

// CodecError is the structured error every core operation returns.
type CodecError struct {
	Kind      Kind
	Stage     Stage
	Path      string // offending node path, empty when not node-scoped
	BitOffset int    // -1 when not applicable
	Cause     error
}

func (e *CodecError) Error() string {
	if e.Path != "" && e.BitOffset >= 0 {
		return fmt.Sprintf("%s error at %s (stage=%s, bit=%d): %v", e.Kind, e.Path, e.Stage, e.BitOffset, e.Cause)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s error at %s (stage=%s): %v", e.Kind, e.Path, e.Stage, e.Cause)
	}
	return fmt.Sprintf("%s error (stage=%s): %v", e.Kind, e.Stage, e.Cause)
}

func (e *CodecError) Unwrap() error { return e.Cause }

// New builds a CodecError with no bit offset.
func New(kind Kind, stage Stage, path string, cause error) *CodecError {
	return &CodecError{Kind: kind, Stage: stage, Path: path, BitOffset: -1, Cause: cause}
}

// NewAt builds a CodecError pinned to a bit offset (decode stream errors).
func NewAt(kind Kind, stage Stage, path string, bitOffset int, cause error) *CodecError {
	return &CodecError{Kind: kind, Stage: stage, Path: path, BitOffset: bitOffset, Cause: cause}
}

// Is supports errors.Is comparisons keyed on Kind alone.
func (e *CodecError) Is(target error) bool {
	other, ok := target.(*CodecError)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}
