package model

// ResolveStrategy names how a Group's materialised children attach to
// the flattened tree. The tree finalizer does not read it: every group's
// clones are flattened into FinalTree.Nodes.
type ResolveStrategy uint8

const (
	Flatten ResolveStrategy = iota
	GroupContainer
	Mixed
)

// Group is a container node whose child template repeats N times, each
// clone receiving a suffixed id/name (spec.md §3.1).
type Group struct {
	ID               string
	Name             string
	ChildTemplate    *Protocol // a sub-tree; may itself contain nested Groups
	IDSuffixPattern  string    // not read by the tree finalizer: clone ids always take the "_%d" suffix
	NameSuffixPattern string   // default "[%d]"
	ResolveStrategy  ResolveStrategy
	LengthExpr       string // used only when the instance has no collection value
	Order            int

	// CollectionPath names the per-instance collection this group's
	// element count is read from (instance.Collections[CollectionPath]).
	CollectionPath string

	// Padding, if set, is applied once after all of the group's
	// materialised clones are written.
	Padding *PaddingSpec
}

func (g *Group) idSuffixPattern() string {
	if g.IDSuffixPattern == "" {
		return "_%d"
	}
	return g.IDSuffixPattern
}

func (g *Group) nameSuffixPattern() string {
	if g.NameSuffixPattern == "" {
		return "[%d]"
	}
	return g.NameSuffixPattern
}

// IDSuffixPatternOrDefault returns IDSuffixPattern, or "_%d" when it is
// empty.
func (g *Group) IDSuffixPatternOrDefault() string { return g.idSuffixPattern() }

// NameSuffixPatternOrDefault exposes the effective name suffix pattern.
func (g *Group) NameSuffixPatternOrDefault() string { return g.nameSuffixPattern() }
