// Package bitproto is a declarative binary protocol codec: schemas
// describe a protocol as a tree of typed fields, repeating groups, and
// padding rules, and the package turns a populated Instance into bytes
// (Encode) or bytes back into an Instance (Decode) without any
// hand-written marshalling code.
//
// A Schema is built once, ahead of time, either with the fluent builder
// in the schemabuild subpackage or directly as a *Protocol literal; an
// Instance carries the per-call field values and repeating-group counts
// a single Encode/Decode call needs.
package bitproto

import (
	"github.com/scigolib/bitproto/internal/model"
)

// Protocol is a schema: a named tree with header/body/tail sections,
// each holding fields, repeating groups, or nested protocols.
type Protocol = model.Protocol

// Node is a single typed field in a Protocol.
type Node = model.Node

// Group is a repeating section of a Protocol whose child template is
// cloned once per element, each clone's ids suffixed by its index.
type Group = model.Group

// Child is one entry in a Protocol section: exactly one of Node, Group,
// or Protocol is set.
type Child = model.Child

// ValueType is a field's declared wire type (uint, int, float32/64,
// hex, string, bit, bcd, boolean).
type ValueType = model.ValueType

// Value is the runtime value carried by a field, tagged by ValueKind.
type Value = model.Value

// PaddingSpec describes how a section or group pads its materialised
// children out to a target length.
type PaddingSpec = model.PaddingSpec

// ConditionalDep gates a node's enablement on another node's value.
type ConditionalDep = model.ConditionalDep

// Instance holds the runtime values a caller supplies for encode or the
// codec produces on decode; the schema itself is passed separately to
// Encode and Decode.
type Instance = model.Instance

// NewInstance returns an empty Instance ready to receive field values
// and group element counts before an Encode call.
func NewInstance() *Instance {
	return model.NewInstance()
}

// Value constructors, re-exported so callers never need to import
// internal/model directly.
var (
	Null     = model.Null
	IntVal   = model.IntVal
	UIntVal  = model.UIntVal
	FloatVal = model.FloatVal
	BytesVal = model.BytesVal
	StrVal   = model.StrVal
	BoolVal  = model.BoolVal
)

// Field type constructors for building a Protocol by hand.
var (
	Uint    = model.Uint
	Int     = model.Int
	Hex     = model.Hex
	Str     = model.String
	Float32 = model.Float32
	Float64 = model.Float64
	Bit     = model.Bit
	Bcd     = model.Bcd
	Boolean = model.Boolean
)

// Endian selects byte order for byte-aligned numeric fields.
type Endian = model.Endian

const (
	Big    = model.Big
	Little = model.Little
)

// Section names a Protocol's three distinguished child lists.
type Section = model.Section

const (
	SectionHeader = model.SectionHeader
	SectionBody   = model.SectionBody
	SectionTail   = model.SectionTail
)
