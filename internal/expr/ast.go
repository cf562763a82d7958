package expr

// Node is the tagged-variant AST spec.md §9's "design notes" call for
// (one arm per node kind, pattern-matched at eval time rather than a
// deep Expr interface hierarchy per node type).
type NodeKind int

const (
	KNumber NodeKind = iota
	KString
	KIdent
	KUnary
	KBinary
	KTernary
	KCall
)

type Node struct {
	Kind NodeKind

	// KNumber
	NumLit string
	// KString / KIdent
	StrLit string
	// KUnary
	Op  TokenType
	X   *Node
	// KBinary
	Y *Node
	// KTernary
	Cond, Then, Else *Node
	// KCall
	Func string
	Args []*Node
}
