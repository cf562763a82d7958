package model

// Endian selects byte order for byte-aligned numeric fields. Sub-byte
// fields are always packed MSB-first regardless of Endian (spec.md §9).
type Endian uint8

const (
	Big Endian = iota
	Little
)

// ValueTypeKind tags the primitive value types a Node may carry.
type ValueTypeKind uint8

const (
	TUint ValueTypeKind = iota
	TInt
	THex
	TString
	TFloat32
	TFloat64
	TBit
	TBcd
	TBoolean
)

// ValueType is the tagged variant for a Node's declared value type. Width
// records the declared bit width for TUint/TInt (1..64); the codec and
// the tree finalizer read the node's LengthBits, never Width.
type ValueType struct {
	Kind    ValueTypeKind
	Width   int    // bit width for TUint/TInt
	Charset string // for TString; empty defaults to "utf-8"
}

func Uint(width int) ValueType   { return ValueType{Kind: TUint, Width: width} }
func Int(width int) ValueType    { return ValueType{Kind: TInt, Width: width} }
func Hex() ValueType             { return ValueType{Kind: THex} }
func String(charset string) ValueType {
	if charset == "" {
		charset = "utf-8"
	}
	return ValueType{Kind: TString, Charset: charset}
}
func Float32() ValueType { return ValueType{Kind: TFloat32} }
func Float64() ValueType { return ValueType{Kind: TFloat64} }
func Bit() ValueType     { return ValueType{Kind: TBit} }
func Bcd() ValueType     { return ValueType{Kind: TBcd} }
func Boolean() ValueType { return ValueType{Kind: TBoolean} }

// RangeEntry pairs an encoded wire form with a human description, used for
// enum-style field validation/translation (spec.md §4.4 "Enum handling").
type RangeEntry struct {
	Encoded     Value
	Description string
}

// ConditionalAction is the effect a matched conditional dependency applies
// to its target node.
type ConditionalAction uint8

const (
	ActionEnable ConditionalAction = iota
	ActionDisable
	ActionSetDefault
	ActionClear
)

// ConditionalDep gates a node's enablement on another node's value.
type ConditionalDep struct {
	ConditionNodeID string
	Predicate       string // expression text, evaluated with #conditionNodeID bound
	ThenAction      ConditionalAction
	ElseAction      ConditionalAction
	DefaultValue    Value // used when ThenAction/ElseAction == ActionSetDefault
	Priority        int   // higher first
}

// OnDisable controls whether a runtime-disabled node's bit range stays
// reserved (zero-filled) or collapses out of length arithmetic. Resolves
// spec.md §9's open question as a per-node policy flag, default Reserve.
type OnDisable uint8

const (
	Reserve OnDisable = iota
	Collapse
)

// PaddingKind tags the five padding strategies of spec.md §6.
type PaddingKind uint8

const (
	PadFixedLength PaddingKind = iota
	PadAlignment
	PadFillContainer
	PadDynamic
	PadFillRemaining
)

// PaddingPosition names whether padding belongs before or after a
// parent's children. Neither the tree finalizer nor the encoder reads
// it: padding is always placed after the children.
type PaddingPosition uint8

const (
	PadEnd PaddingPosition = iota
	PadBegin
)

// PaddingSpec describes how a structural node pads its materialised
// children out to a target length.
type PaddingSpec struct {
	Kind           PaddingKind
	TargetBytes    int    // PadFixedLength
	BoundaryBytes  int    // PadAlignment
	ContainerBits  int    // PadFillContainer
	LengthExpr     string // PadDynamic
	ConditionExpr  string // PadDynamic, optional
	Fill           string // literal hex byte or an expression (e.g. "crc8(...)", "random()")
	Position       PaddingPosition
}

// NodeState is the per-node derivation state machine of spec.md §4.4.
type NodeState uint8

const (
	Pending NodeState = iota
	Enabled
	Disabled
	Derived
	Written
	Skipped
)

// Node is a leaf field in a protocol.
type Node struct {
	ID              string
	Name            string
	LengthBits      int    // 0 means "derived", e.g. variable-length STRING
	LengthExpr      string // forward expression producing LengthBits when variable
	Type            ValueType
	Endian          Endian
	Value           Value
	FwdExpr         string
	BwdExpr         string
	Range           []RangeEntry
	ConditionalDeps []ConditionalDep
	Padding         *PaddingSpec
	Order           int
	OnDisable       OnDisable

	// Populated by the tree finalizer.
	StartBit int
	EndBit   int
	Enabled  bool
	State    NodeState
}

// ByteLength is the ceiling byte length of the node's declared bit width.
func (n *Node) ByteLength() int {
	return (n.LengthBits + 7) / 8
}
