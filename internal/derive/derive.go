// Package derive implements the Derivation Driver of spec.md §4.5: the
// two-pass orchestration that ties the Tree Finalizer, Dependency
// Graph, Expression Engine, and Bit-Level Codec together into a single
// Encode/Decode call.
package derive

import (
	"errors"
	"fmt"

	"github.com/scigolib/bitproto/internal/codec"
	"github.com/scigolib/bitproto/internal/codeclog"
	"github.com/scigolib/bitproto/internal/expr"
	"github.com/scigolib/bitproto/internal/finalize"
	"github.com/scigolib/bitproto/internal/graph"
	"github.com/scigolib/bitproto/internal/model"
	"github.com/scigolib/bitproto/internal/xerrors"
)

// Encode finalizes proto against inst, builds the dependency graph over
// the finalized tree, evaluates every fwd_expr in topological order, and
// writes the result through the bit-level codec. Padding is applied by
// this pass (not by finalize), since the fill byte for an expression-
// valued Fill (e.g. a checksum over sibling nodes) isn't known until
// the nodes it covers have actual values.
func Encode(proto *model.Protocol, inst *model.Instance) ([]byte, error) {
	log := codeclog.Default()

	tree, err := finalize.FinalizeEncode(proto, inst)
	if err != nil {
		return nil, err
	}
	log.Debug().Int("nodes", len(tree.Nodes)).Int("total_bits", tree.TotalBits).Msg("finalized encode tree")

	g, err := graph.Build(tree)
	if err != nil {
		return nil, err
	}
	order, err := graph.TopoOrder(g)
	if err != nil {
		return nil, err
	}

	ctx := finalize.NewEvalContext(tree, inst, nil)
	rng := codec.NewPassRNG()
	fr := ctx.FillResolver(rng)

	for _, idx := range order {
		fn := tree.Nodes[idx]
		if err := deriveValue(fn.Node, ctx, inst); err != nil {
			return nil, wrapDeriveError(fn.Node.ID, err)
		}
	}

	w := codec.NewWriter(tree.TotalBits)
	if err := writeTree(w, tree, fr); err != nil {
		return nil, err
	}

	return w.Bytes()
}

// Decode reads data against proto's schema: finalize.FinalizeDecode
// already performs the raw bit-read pass (group counts and conditional
// enablement can only be discovered from already-decoded sibling
// values, so that pass and tree finalization are the same walk here);
// this function's remaining job is the second pass, evaluating every
// bwd_expr in topological order to translate raw decoded values into
// their final form.
func Decode(proto *model.Protocol, data []byte) (*model.Instance, error) {
	log := codeclog.Default()

	tree, inst, err := finalize.FinalizeDecode(proto, data)
	if err != nil {
		return nil, err
	}
	log.Debug().Int("nodes", len(tree.Nodes)).Msg("finalized decode tree")

	g, err := graph.Build(tree)
	if err != nil {
		return nil, err
	}
	order, err := graph.TopoOrder(g)
	if err != nil {
		return nil, err
	}

	ctx := finalize.NewEvalContext(tree, inst, data)
	for _, idx := range order {
		n := tree.Nodes[idx].Node
		if !n.Enabled {
			continue
		}
		if n.BwdExpr != "" {
			v, err := expr.Evaluate(n.BwdExpr, ctx)
			if err != nil {
				return nil, xerrors.New(xerrors.KindExpressionRuntime, xerrors.StageDerive, n.ID, err)
			}
			n.Value = v
			n.State = model.Derived
			inst.Set(n.ID, v)
		}
		if err := codec.ValidateEnum(n, n.Value); err != nil {
			return nil, err
		}
	}

	return inst, nil
}

// deriveValue fills n.Value for the encode forward pass: fwd_expr takes
// precedence (it's a computed field, e.g. a length or checksum), falling
// back to the value the caller supplied on inst. A conditional
// dependency that finalize deferred (its governing value wasn't known
// yet) is re-resolved now, since topological order guarantees every
// value it could reference is already derived.
func deriveValue(n *model.Node, ctx *finalize.EvalContext, inst *model.Instance) error {
	enabled, _, forced, _, err := finalize.ResolveConditional(n, ctx, false)
	if err != nil {
		return err
	}
	n.Enabled = enabled
	if enabled {
		n.State = model.Enabled
	} else {
		n.State = model.Disabled
	}

	if forced != nil {
		n.Value = *forced
		n.State = model.Derived
		inst.Set(n.ID, *forced)
		return nil
	}

	if n.FwdExpr != "" {
		v, err := expr.Evaluate(n.FwdExpr, ctx)
		if err != nil {
			return fmt.Errorf("evaluate fwd_expr: %w", err)
		}
		n.Value = v
		n.State = model.Derived
		inst.Set(n.ID, v)
		return nil
	}

	if v, ok := inst.Get(n.ID); ok {
		n.Value = v
		n.State = model.Derived
		return nil
	}

	if !enabled {
		n.Value = model.Null()
		return nil
	}

	return fmt.Errorf("node %s has no fwd_expr and no instance-supplied value", n.ID)
}

// wrapDeriveError attaches derivation context to a deriveValue failure
// without discarding a more specific taxonomy Kind the failure already
// carries — an out-of-range relative-time encoding or a malformed
// expression, say, arrives here already tagged via expr.Evaluate or
// timefuncs.go, and collapsing it to MissingValue would make it
// indistinguishable from an actually-absent value to a caller
// branching on Kind (spec.md §7).
func wrapDeriveError(id string, err error) error {
	var ce *xerrors.CodecError
	if errors.As(err, &ce) {
		return ce
	}
	return xerrors.New(xerrors.KindMissingValue, xerrors.StageDerive, id, err)
}

// writeTree writes every node in tree.Nodes exactly once, in order, then
// applies each container's padding immediately after the last node in
// its span. Containers nest (a Group's span encloses its clones' own
// section spans), so padding is keyed by EndIdx rather than writing node
// ranges per container — a node written once per container it belongs
// to would duplicate every node inside a padded group.
func writeTree(w *codec.Writer, tree *model.FinalTree, fr *codec.FillResolver) error {
	paddingAt := make(map[int][]*model.Container)
	for _, c := range tree.Containers {
		if c.Padding != nil {
			paddingAt[c.EndIdx] = append(paddingAt[c.EndIdx], c)
		}
	}

	nodeStart := make([]int, len(tree.Nodes)+1)
	for i, fn := range tree.Nodes {
		nodeStart[i] = fn.Node.StartBit
	}
	nodeStart[len(tree.Nodes)] = w.Position()

	for i, fn := range tree.Nodes {
		n := fn.Node
		if !n.Enabled {
			if err := w.WriteBits(0, n.LengthBits); err != nil {
				return xerrors.NewAt(xerrors.KindBitStreamOverrun, xerrors.StageCode, n.ID, w.Position(), err)
			}
		} else if err := codec.Write(n, w); err != nil {
			return wrapWriteError(n.ID, w.Position(), err)
		}

		for _, c := range paddingAt[i+1] {
			currentBits := w.Position() - nodeStart[c.StartIdx]
			if err := codec.ApplyPadding(w, c.Padding, currentBits, currentBits, fr); err != nil {
				return xerrors.NewAt(xerrors.KindBitStreamOverrun, xerrors.StageCode, c.Path, w.Position(), err)
			}
		}
	}
	return nil
}

// wrapWriteError classifies a codec.Write failure: applyEnumEncode
// rejecting a value that matches no declared range entry is a
// schema/value mismatch, already tagged KindEnumOutOfRange at its
// origin, and must not be flattened into KindBitStreamOverrun alongside
// an actual buffer-capacity failure from writeTyped.
func wrapWriteError(id string, bitOffset int, err error) error {
	var ce *xerrors.CodecError
	if errors.As(err, &ce) {
		return ce
	}
	return xerrors.NewAt(xerrors.KindBitStreamOverrun, xerrors.StageCode, id, bitOffset, err)
}
