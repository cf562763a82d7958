package finalize

import (
	"fmt"
	"strings"

	"github.com/scigolib/bitproto/internal/codec"
	"github.com/scigolib/bitproto/internal/model"
)

// EvalContext adapts a FinalTree in progress (plus the caller-supplied
// instance and, on decode, the raw byte buffer) to expr.Context, so
// group length expressions, conditional predicates, and padding
// expressions can all be evaluated mid-walk. The Derivation Driver
// reuses the same type once finalize hands off a completed tree, so
// fwd_expr/bwd_expr evaluation sees the identical node-lookup semantics.
type EvalContext struct {
	tree *model.FinalTree
	inst *model.Instance
	raw  []byte // nil on encode
}

// NewEvalContext builds an EvalContext over tree/inst, with raw set only
// when a decode buffer is available for Bytes()/BytesBetween() lookups.
func NewEvalContext(tree *model.FinalTree, inst *model.Instance, raw []byte) *EvalContext {
	return &EvalContext{tree: tree, inst: inst, raw: raw}
}

func (c *EvalContext) Value(id string) (model.Value, bool) {
	if fn, ok := c.tree.Find(id); ok {
		return fn.Node.Value, true
	}
	if c.inst != nil {
		return c.inst.Get(id)
	}
	return model.Value{}, false
}

func (c *EvalContext) ByteLength(id string) (int, bool) {
	fn, ok := c.tree.Find(id)
	if !ok {
		return 0, false
	}
	return fn.Node.ByteLength(), true
}

func (c *EvalContext) BitLength(id string) (int, bool) {
	fn, ok := c.tree.Find(id)
	if !ok {
		return 0, false
	}
	return fn.Node.LengthBits, true
}

func (c *EvalContext) GroupSize(id string) (int, bool) {
	prefix := id + "_"
	count := 0
	for _, fn := range c.tree.Nodes {
		if strings.HasPrefix(fn.Node.ID, prefix) {
			count++
		}
	}
	if count == 0 {
		if c.inst != nil {
			if n, ok := c.inst.CollectionLen(id); ok {
				return n, true
			}
		}
		return 0, false
	}
	return count, true
}

func (c *EvalContext) Bytes(id string) ([]byte, bool) {
	fn, ok := c.tree.Find(id)
	if !ok {
		return nil, false
	}
	if fn.Node.StartBit%8 != 0 || fn.Node.LengthBits%8 != 0 {
		return nil, false
	}
	if c.raw != nil {
		start := fn.Node.StartBit / 8
		end := start + fn.Node.ByteLength()
		if end > len(c.raw) {
			return nil, false
		}
		return c.raw[start:end], true
	}
	b, err := encodeNodeBytes(fn.Node)
	if err != nil {
		return nil, false
	}
	return b, true
}

// BytesBetween returns the wire bytes spanning [aID.start_bit,
// bID.end_bit]. On decode this is a direct slice of the raw buffer; on
// encode there is no raw buffer yet, so it re-serializes every node the
// range covers from its already-derived Value instead. The Dependency
// Graph adds an edge from whatever expression calls BytesBetween to
// every node physically inside the range (graph.addRangeDeps), so by
// the time this runs during the encode forward pass each of those
// nodes' values is already derived.
func (c *EvalContext) BytesBetween(aID, bID string) ([]byte, error) {
	a, ok := c.tree.Find(aID)
	if !ok {
		return nil, fmt.Errorf("unresolved reference %q", aID)
	}
	b, ok := c.tree.Find(bID)
	if !ok {
		return nil, fmt.Errorf("unresolved reference %q", bID)
	}
	startBit := a.Node.StartBit
	endBit := b.Node.EndBit
	if startBit%8 != 0 || (endBit+1)%8 != 0 {
		return nil, fmt.Errorf("range %s..%s is not byte-aligned", aID, bID)
	}
	if c.raw != nil {
		return c.raw[startBit/8 : (endBit+1)/8], nil
	}

	w := codec.NewWriter(endBit - startBit + 1)
	for _, fn := range c.tree.Nodes {
		n := fn.Node
		if n.StartBit < startBit || n.EndBit > endBit {
			continue
		}
		if err := writeNodeBits(n, w); err != nil {
			return nil, fmt.Errorf("range %s..%s: %w", aID, bID, err)
		}
	}
	if w.Position() != endBit-startBit+1 {
		return nil, fmt.Errorf("range %s..%s: only %d of %d bits are covered by nodes (padding inside an encode-time range is unsupported)",
			aID, bID, w.Position(), endBit-startBit+1)
	}
	return w.Bytes()
}

// encodeNodeBytes re-serializes a single node's already-derived Value to
// its standalone wire bytes, for use when no raw decode buffer exists.
func encodeNodeBytes(n *model.Node) ([]byte, error) {
	w := codec.NewWriter(n.LengthBits)
	if err := writeNodeBits(n, w); err != nil {
		return nil, err
	}
	return w.Bytes()
}

// writeNodeBits appends n's wire bits to w at w's current position,
// without asserting against n.StartBit (unlike codec.Write, which
// drives the single sequential main-stream pass). A disabled node
// contributes its reserved zero bits; an enabled node not yet derived
// is a caller bug, since the Dependency Graph must have ordered its
// derivation first.
func writeNodeBits(n *model.Node, w *codec.Writer) error {
	if !n.Enabled {
		return w.WriteBits(0, n.LengthBits)
	}
	if n.State != model.Derived {
		return fmt.Errorf("node %s: value not yet derived", n.ID)
	}
	return codec.WriteValue(n, w)
}

// FillResolver builds a codec.FillResolver backed by this context's
// expression evaluator, for padding applied during finalize/decode or
// by the Derivation Driver's own bit-codec pass.
func (c *EvalContext) FillResolver(rng *codec.PassRNG) *codec.FillResolver {
	return &codec.FillResolver{RNG: rng, EvalExpr: func(text string) (model.Value, error) {
		return evaluate(text, c)
	}}
}
