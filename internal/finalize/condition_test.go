package finalize

import (
	"testing"

	"github.com/scigolib/bitproto/internal/model"
)

// stubCtx resolves only the condition node's value, enough to exercise
// ResolveConditional's predicate evaluation without a full FinalTree.
type stubCtx struct {
	values map[string]model.Value
}

func (c *stubCtx) Value(id string) (model.Value, bool) { v, ok := c.values[id]; return v, ok }
func (c *stubCtx) ByteLength(string) (int, bool)       { return 0, false }
func (c *stubCtx) BitLength(string) (int, bool)        { return 0, false }
func (c *stubCtx) GroupSize(string) (int, bool)        { return 0, false }
func (c *stubCtx) Bytes(string) ([]byte, bool)         { return nil, false }
func (c *stubCtx) BytesBetween(string, string) ([]byte, error) { return nil, nil }

func condNode(action model.ConditionalAction) *model.Node {
	return &model.Node{
		ID: "extended",
		ConditionalDeps: []model.ConditionalDep{
			{
				ConditionNodeID: "flag",
				Predicate:       "#flag >= 1",
				ThenAction:      action,
				ElseAction:      model.ActionDisable,
				DefaultValue:    model.UIntVal(0x99),
			},
		},
	}
}

func TestResolveConditionalEnableLeavesValueUntouched(t *testing.T) {
	ctx := &stubCtx{values: map[string]model.Value{"flag": model.UIntVal(1)}}
	enabled, resolved, forced, collapse, err := ResolveConditional(condNode(model.ActionEnable), ctx, false)
	if err != nil {
		t.Fatal(err)
	}
	if !enabled || !resolved || forced != nil || collapse {
		t.Fatalf("want enabled/resolved with no override, got enabled=%v resolved=%v forced=%v collapse=%v", enabled, resolved, forced, collapse)
	}
}

func TestResolveConditionalSetDefaultAppliesDeclaredValue(t *testing.T) {
	ctx := &stubCtx{values: map[string]model.Value{"flag": model.UIntVal(1)}}
	enabled, resolved, forced, collapse, err := ResolveConditional(condNode(model.ActionSetDefault), ctx, false)
	if err != nil {
		t.Fatal(err)
	}
	if !enabled || !resolved || collapse {
		t.Fatalf("want enabled/resolved, no collapse, got enabled=%v resolved=%v collapse=%v", enabled, resolved, collapse)
	}
	if forced == nil {
		t.Fatal("want a forced default value")
	}
	u, err := forced.AsUint()
	if err != nil || u != 0x99 {
		t.Fatalf("want forced value 0x99, got %v (err=%v)", forced, err)
	}
}

func TestResolveConditionalClearDiffersFromDisable(t *testing.T) {
	ctx := &stubCtx{values: map[string]model.Value{"flag": model.UIntVal(1)}}

	enabled, resolved, forced, collapse, err := ResolveConditional(condNode(model.ActionClear), ctx, false)
	if err != nil {
		t.Fatal(err)
	}
	if enabled {
		t.Fatal("CLEAR must disable the node")
	}
	if !resolved {
		t.Fatal("want resolved")
	}
	if !collapse {
		t.Fatal("CLEAR must always collapse the node, independent of its own OnDisable setting")
	}
	if forced != nil {
		t.Fatalf("CLEAR carries no forced value (disabled nodes are null by default), got %v", forced)
	}

	// DISABLE, by contrast, never forces a collapse of its own accord —
	// that's governed by the node's OnDisable policy flag instead.
	disableNode := condNode(model.ActionEnable)
	disableNode.ConditionalDeps[0].ThenAction = model.ActionDisable
	_, _, _, disableCollapse, err := ResolveConditional(disableNode, ctx, false)
	if err != nil {
		t.Fatal(err)
	}
	if disableCollapse {
		t.Fatal("DISABLE must not force a collapse")
	}
}

func TestResolveConditionalUnresolvedDefersOnEncode(t *testing.T) {
	ctx := &stubCtx{values: map[string]model.Value{}}
	enabled, resolved, forced, collapse, err := ResolveConditional(condNode(model.ActionSetDefault), ctx, true)
	if err != nil {
		t.Fatal(err)
	}
	if resolved || enabled {
		t.Fatalf("an unresolvable condition under requireDefinite must defer, got enabled=%v resolved=%v", enabled, resolved)
	}
	if forced != nil || collapse {
		t.Fatal("a deferred resolution carries no override")
	}
}
