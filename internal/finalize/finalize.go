// Package finalize implements the Tree Finalizer of spec.md §4.1:
// walking a Protocol's declared tree, expanding Groups into per-clone
// subtrees, assigning absolute bit positions left to right, and
// producing the flat FinalTree the Dependency Graph and Derivation
// Driver both consume.
package finalize

import (
	"fmt"
	"sort"

	"github.com/scigolib/bitproto/internal/codec"
	"github.com/scigolib/bitproto/internal/model"
	"github.com/scigolib/bitproto/internal/xerrors"
)

// walker accumulates a FinalTree as it walks a Protocol's sections in
// declaration order. On decode it also owns a codec.Reader and consumes
// bits node by node as positions are assigned, since a Group's element
// count and a node's conditional enablement generally depend on an
// already-decoded sibling value.
type walker struct {
	tree   *model.FinalTree
	ctx    *EvalContext
	fr     *codec.FillResolver
	bitPos int
	decl   int
	decode bool
	reader *codec.Reader
}

// FinalizeEncode expands proto against inst, assigning absolute bit
// positions to every leaf field. Node values are not populated here —
// the Derivation Driver's forward pass fills them in topological order
// — only the structural layout (positions, group clone counts, padding
// spans) is decided. A conditional dependency whose governing value
// hasn't been derived yet defers its enable/disable decision to that
// later pass and reserves its full declared length in the meantime.
func FinalizeEncode(proto *model.Protocol, inst *model.Instance) (*model.FinalTree, error) {
	tree := model.NewFinalTree()
	ctx := NewEvalContext(tree, inst, nil)
	w := &walker{tree: tree, ctx: ctx, fr: ctx.FillResolver(codec.NewPassRNG())}
	if err := w.walkProtocol(proto); err != nil {
		return nil, err
	}
	tree.TotalBits = w.bitPos
	return tree, nil
}

// FinalizeDecode expands proto against the raw wire bytes data,
// interleaving layout decisions with the actual bit reads: a group's
// element count and a conditional node's enablement are only knowable
// once their governing sibling has actually been decoded, so this single
// pass plays the role of both the Tree Finalizer and the Derivation
// Driver's first (raw-read) pass — the driver's own "step 3" on decode
// is therefore a pass-through over the tree this already built.
func FinalizeDecode(proto *model.Protocol, data []byte) (*model.FinalTree, *model.Instance, error) {
	tree := model.NewFinalTree()
	inst := model.NewInstance()
	reader := codec.NewReader(data)
	ctx := NewEvalContext(tree, inst, data)
	w := &walker{tree: tree, ctx: ctx, decode: true, reader: reader, fr: ctx.FillResolver(codec.NewPassRNG())}
	if err := w.walkProtocol(proto); err != nil {
		return nil, nil, err
	}
	tree.TotalBits = w.bitPos
	return tree, inst, nil
}

func (w *walker) stage() xerrors.Stage {
	if w.decode {
		return xerrors.StageDerive
	}
	return xerrors.StagePlan
}

func (w *walker) walkProtocol(p *model.Protocol) error {
	if p == nil {
		return nil
	}
	kinds := [3]model.Section{model.SectionHeader, model.SectionBody, model.SectionTail}
	for s, children := range p.Sections() {
		startIdx := len(w.tree.Nodes)
		for _, c := range sortChildren(children) {
			if err := w.walkChild(c); err != nil {
				return err
			}
		}
		var pad *model.PaddingSpec
		if p.SectionPadding != nil {
			pad = p.SectionPadding[kinds[s]]
		}
		if err := w.applyContainerPadding(startIdx, pad); err != nil {
			return err
		}
		w.tree.Containers = append(w.tree.Containers, &model.Container{
			Path:     fmt.Sprintf("%s.%d", p.ID, kinds[s]),
			StartIdx: startIdx,
			EndIdx:   len(w.tree.Nodes),
			Padding:  pad,
		})
	}
	return nil
}

// sortChildren orders a section's children by declared Order, stable on
// ties so declaration order is the final tie-break (spec.md §3.1).
func sortChildren(children []model.Child) []model.Child {
	out := append([]model.Child(nil), children...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

func (w *walker) walkChild(c model.Child) error {
	switch {
	case c.Node != nil:
		return w.walkNode(c.Node)
	case c.Group != nil:
		return w.walkGroup(c.Group)
	case c.Protocol != nil:
		return w.walkProtocol(c.Protocol)
	}
	return nil
}

func (w *walker) walkNode(n *model.Node) error {
	enabled, resolved, _, collapse, err := ResolveConditional(n, w.ctx, !w.decode)
	if err != nil {
		return xerrors.New(xerrors.KindSchema, w.stage(), n.ID, err)
	}
	if !resolved {
		enabled = true
	}
	if resolved && !enabled && (n.OnDisable == model.Collapse || collapse) {
		return nil
	}

	length := n.LengthBits
	if length == 0 {
		if n.LengthExpr == "" {
			return xerrors.New(xerrors.KindSchema, w.stage(), n.ID,
				fmt.Errorf("node has neither a fixed length nor a length_expr"))
		}
		v, err := evaluate(n.LengthExpr, w.ctx)
		if err != nil {
			return xerrors.New(xerrors.KindMissingValue, w.stage(), n.ID, fmt.Errorf("resolve length: %w", err))
		}
		u, err := v.AsUint()
		if err != nil {
			return xerrors.New(xerrors.KindSchema, w.stage(), n.ID,
				fmt.Errorf("length_expr did not produce a number: %w", err))
		}
		length = int(u)
	}
	if n.Type.Kind == model.TBit && n.Endian == model.Little && length%8 != 0 {
		return xerrors.New(xerrors.KindSchema, w.stage(), n.ID,
			fmt.Errorf("endian=LITTLE is not allowed on a %d-bit BIT field: sub-byte BIT fields are always packed MSB-first", length))
	}

	clone := *n
	clone.StartBit = w.bitPos
	clone.LengthBits = length
	clone.EndBit = w.bitPos + length - 1
	clone.Enabled = enabled
	if enabled {
		clone.State = model.Enabled
	} else {
		clone.State = model.Disabled
	}

	if w.decode {
		if w.reader.Position() != clone.StartBit {
			return xerrors.NewAt(xerrors.KindSchema, w.stage(), n.ID, w.reader.Position(),
				fmt.Errorf("reader position %d does not match assigned start bit %d", w.reader.Position(), clone.StartBit))
		}
		if enabled {
			v, err := codec.Read(&clone, w.reader)
			if err != nil {
				return xerrors.NewAt(xerrors.KindBitStreamOverrun, w.stage(), n.ID, w.reader.Position(), err)
			}
			clone.Value = v
			clone.State = model.Derived
			w.ctx.inst.Set(clone.ID, v)
		} else {
			if _, err := w.reader.ReadBits(length); err != nil {
				return xerrors.NewAt(xerrors.KindBitStreamOverrun, w.stage(), n.ID, w.reader.Position(), err)
			}
			clone.Value = model.Null()
		}
	}

	w.tree.Append(&model.FinalNode{Node: &clone, DeclIndex: w.decl})
	w.decl++
	w.bitPos += length
	return nil
}

func (w *walker) walkGroup(g *model.Group) error {
	count, err := w.groupCount(g)
	if err != nil {
		return err
	}
	if w.decode && g.CollectionPath != "" {
		w.ctx.inst.Collections[g.CollectionPath] = count
	}

	startIdx := len(w.tree.Nodes)
	for idx := 1; idx <= count; idx++ {
		remap := buildRemap(g.ChildTemplate, idx)
		clone := cloneProtocol(g.ChildTemplate, remap, g.NameSuffixPatternOrDefault(), idx)
		if err := w.walkProtocol(clone); err != nil {
			return err
		}
	}

	if err := w.applyContainerPadding(startIdx, g.Padding); err != nil {
		return err
	}
	w.tree.Containers = append(w.tree.Containers, &model.Container{
		Path:     g.ID,
		StartIdx: startIdx,
		EndIdx:   len(w.tree.Nodes),
		Padding:  g.Padding,
	})
	return nil
}

// groupCount implements spec.md §4.1's element-count precedence rule:
// the instance's own collection count wins when present, falling back
// to the group's length_expr otherwise.
func (w *walker) groupCount(g *model.Group) (int, error) {
	count, err := w.rawGroupCount(g)
	if err != nil {
		return 0, err
	}
	if _, err := codec.SafeTotalBits(count, 1); err != nil {
		return 0, xerrors.New(xerrors.KindSchema, w.stage(), g.ID, fmt.Errorf("group count: %w", err))
	}
	return count, nil
}

func (w *walker) rawGroupCount(g *model.Group) (int, error) {
	if w.ctx.inst != nil {
		if n, ok := w.ctx.inst.CollectionLen(g.CollectionPath); ok {
			return n, nil
		}
	}
	if g.LengthExpr != "" {
		v, err := evaluate(g.LengthExpr, w.ctx)
		if err != nil {
			return 0, xerrors.New(xerrors.KindMissingValue, w.stage(), g.ID, fmt.Errorf("resolve group count: %w", err))
		}
		u, err := v.AsUint()
		if err != nil {
			return 0, xerrors.New(xerrors.KindSchema, w.stage(), g.ID,
				fmt.Errorf("length_expr did not produce a number: %w", err))
		}
		return int(u), nil
	}
	return 0, xerrors.New(xerrors.KindSchema, w.stage(), g.ID,
		fmt.Errorf("group has neither an instance collection count nor a length_expr"))
}

// applyContainerPadding reserves (encode) or actually skips (decode) the
// padding bits spec's §6 describes, and advances bitPos by the same
// amount either way so a container's declared length and its on-wire
// length never drift apart. parentDeclaredBits collapses to the
// container's own physical span: bitproto has no enclosing frame length
// at this scope (no transport framing, spec.md §1 Non-goals), so
// FILL_REMAINING padding is a no-op here rather than reading past a
// boundary this package has no way to know about.
func (w *walker) applyContainerPadding(startIdx int, pad *model.PaddingSpec) error {
	if pad == nil {
		return nil
	}
	currentBits := 0
	if startIdx < len(w.tree.Nodes) {
		currentBits = w.bitPos - w.tree.Nodes[startIdx].Node.StartBit
	}
	parentDeclaredBits := currentBits

	if w.decode {
		before := w.reader.Position()
		if err := codec.SkipPadding(w.reader, pad, currentBits, parentDeclaredBits, w.fr); err != nil {
			return xerrors.NewAt(xerrors.KindBitStreamOverrun, w.stage(), "", before, err)
		}
		w.bitPos = w.reader.Position()
		return nil
	}

	targetBits, active, err := codec.PaddingTargetBits(pad, currentBits, parentDeclaredBits, w.fr)
	if err != nil {
		return xerrors.New(xerrors.KindSchema, w.stage(), "", err)
	}
	if active {
		w.bitPos += targetBits - currentBits
	}
	return nil
}
