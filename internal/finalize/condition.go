package finalize

import (
	"sort"

	"github.com/scigolib/bitproto/internal/expr"
	"github.com/scigolib/bitproto/internal/model"
)

// ResolveConditional implements spec.md §4.5 step 2a: conditional_deps
// are resolved in priority order (highest first); the first entry's
// action wins. Unmatched conditions (the entry's ConditionNodeID value
// not yet known: absent, or still null) default to then_action=ENABLE, else_action=DISABLE,
// per spec. requireDefinite is set on encode finalize, where a
// condition on a not-yet-derived value cannot be resolved yet (it
// defers to the Derivation Driver's own pass, which calls this again
// with requireDefinite=false once every referenced value is known); on
// decode every condition node has already been read off the wire by the
// time its dependant is reached, so it is always resolvable immediately.
//
// ENABLE keeps the node live with no override. DISABLE takes it out of
// normal derivation, honoring the node's own OnDisable reserve/collapse
// policy. SET_DEFAULT keeps the node live (enabled=true) but forces its
// value to the declared DefaultValue instead of whatever fwd_expr or
// the instance would otherwise supply — forced is non-nil only for
// this action. CLEAR behaves like DISABLE (enabled=false) but always
// collapses the node out of the tree regardless of its own OnDisable
// setting, i.e. it unconditionally wipes the field rather than leaving
// a policy-dependent reserved span — that's the distinct effect the
// name promises over plain DISABLE. Callers that don't need the
// override or the collapse signal (none do today but the tree
// finalizer's layout walk only consults collapse) can ignore forced.
func ResolveConditional(n *model.Node, ctx expr.Context, requireDefinite bool) (enabled bool, resolved bool, forced *model.Value, collapse bool, err error) {
	if len(n.ConditionalDeps) == 0 {
		return true, true, nil, false, nil
	}
	deps := append([]model.ConditionalDep(nil), n.ConditionalDeps...)
	sort.SliceStable(deps, func(i, j int) bool { return deps[i].Priority > deps[j].Priority })

	cd := deps[0]
	if v, ok := ctx.Value(cd.ConditionNodeID); !ok || v.IsNull() {
		if requireDefinite {
			return false, false, nil, false, nil
		}
		return true, true, nil, false, nil
	}

	var matched bool
	if cd.Predicate != "" {
		v, err := evaluate(cd.Predicate, ctx)
		if err != nil {
			return false, false, nil, false, err
		}
		matched, err = v.AsBool()
		if err != nil {
			return false, false, nil, false, err
		}
	} else {
		matched = true
	}

	action := cd.ElseAction
	if matched {
		action = cd.ThenAction
	}
	switch action {
	case model.ActionEnable:
		return true, true, nil, false, nil
	case model.ActionDisable:
		return false, true, nil, false, nil
	case model.ActionSetDefault:
		v := cd.DefaultValue
		return true, true, &v, false, nil
	case model.ActionClear:
		return false, true, nil, true, nil
	}
	return true, true, nil, false, nil
}

func evaluate(text string, ctx expr.Context) (model.Value, error) {
	return expr.Evaluate(text, ctx)
}
