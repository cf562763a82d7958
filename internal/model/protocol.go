package model

// Section names the three distinguished children of a Protocol.
type Section uint8

const (
	SectionHeader Section = iota
	SectionBody
	SectionTail
)

// Child is a tagged union over the three things that can live in a
// protocol's section list: a leaf Node, a repeating Group, or a nested
// Protocol (a Body may itself be a Protocol, per spec.md §3.1).
type Child struct {
	Node     *Node
	Group    *Group
	Protocol *Protocol
	Order    int
}

func (c Child) isNode() bool     { return c.Node != nil }
func (c Child) isGroup() bool    { return c.Group != nil }
func (c Child) isProtocol() bool { return c.Protocol != nil }

// Protocol is a named ordered tree with exactly one root and three
// distinguished child sections.
type Protocol struct {
	ID          string
	Name        string
	Version     string
	EndianDefault Endian
	Header      []Child
	Body        []Child
	Tail        []Child

	// SectionPadding declares a trailing PaddingSpec applied after a
	// section's children are materialised (spec.md §6's padding rules,
	// scoped here to a section boundary rather than only a leaf node).
	SectionPadding map[Section]*PaddingSpec
}

// sections returns the three sections in declaration order.
func (p *Protocol) sections() [3][]Child {
	return [3][]Child{p.Header, p.Body, p.Tail}
}

// Sections exposes the (header, body, tail) triple in declaration order.
func (p *Protocol) Sections() [3][]Child { return p.sections() }
