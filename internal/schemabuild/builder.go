// Package schemabuild provides two convenience front ends for producing
// a *model.Protocol without hand-assembling the tagged-union tree
// directly: a fluent Builder for programmatic schemas, and an optional
// JSON schema loader (jsonschema.go) for document-driven ones. Neither
// is on the core encode/decode path — both are consumers of
// internal/model, exactly like internal/finalize and internal/derive.
package schemabuild

import (
	"fmt"

	"github.com/scigolib/bitproto/internal/model"
)

// Builder assembles a model.Protocol section by section. Errors are
// deferred to Build so call chains can stay linear; the first error
// encountered short-circuits every later call.
type Builder struct {
	proto   *model.Protocol
	section model.Section
	err     error
}

// NewProtocol starts a Builder for a protocol with the given id and
// version. Fields are appended to the body section until Header or Tail
// is called to switch sections.
func NewProtocol(id, name, version string) *Builder {
	return &Builder{
		proto: &model.Protocol{
			ID:      id,
			Name:    name,
			Version: version,
		},
		section: model.SectionBody,
	}
}

// Header switches subsequent Field/Group calls to the header section.
func (b *Builder) Header() *Builder { b.section = model.SectionHeader; return b }

// Body switches subsequent Field/Group calls to the body section.
func (b *Builder) Body() *Builder { b.section = model.SectionBody; return b }

// Tail switches subsequent Field/Group calls to the tail section.
func (b *Builder) Tail() *Builder { b.section = model.SectionTail; return b }

// Endian records the protocol's EndianDefault. The codec reads each
// node's own Endian, so this value does not change how any field is
// encoded.
func (b *Builder) Endian(e model.Endian) *Builder {
	b.proto.EndianDefault = e
	return b
}

// Field appends a leaf node to the current section. order controls the
// node's position among its siblings when ids were declared out of
// textual order.
func (b *Builder) Field(n *model.Node, order int) *Builder {
	if b.err != nil {
		return b
	}
	if n.ID == "" {
		b.err = fmt.Errorf("field missing id")
		return b
	}
	b.append(model.Child{Node: n, Order: order})
	return b
}

// Group appends a repeating group to the current section.
func (b *Builder) Group(g *model.Group, order int) *Builder {
	if b.err != nil {
		return b
	}
	if g.ID == "" {
		b.err = fmt.Errorf("group missing id")
		return b
	}
	if g.ChildTemplate == nil {
		b.err = fmt.Errorf("group %q missing child template", g.ID)
		return b
	}
	b.append(model.Child{Group: g, Order: order})
	return b
}

// Nested appends a nested sub-protocol to the current section (spec.md
// §3.1: a body may itself be a protocol).
func (b *Builder) Nested(p *model.Protocol, order int) *Builder {
	if b.err != nil {
		return b
	}
	b.append(model.Child{Protocol: p, Order: order})
	return b
}

// SectionPadding declares a trailing padding rule applied once the
// current section's children are all materialised.
func (b *Builder) SectionPadding(pad *model.PaddingSpec) *Builder {
	if b.proto.SectionPadding == nil {
		b.proto.SectionPadding = make(map[model.Section]*model.PaddingSpec)
	}
	b.proto.SectionPadding[b.section] = pad
	return b
}

func (b *Builder) append(c model.Child) {
	switch b.section {
	case model.SectionHeader:
		b.proto.Header = append(b.proto.Header, c)
	case model.SectionTail:
		b.proto.Tail = append(b.proto.Tail, c)
	default:
		b.proto.Body = append(b.proto.Body, c)
	}
}

// Build returns the assembled Protocol, or the first error any Field,
// Group, or Nested call recorded.
func (b *Builder) Build() (*model.Protocol, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.proto, nil
}
