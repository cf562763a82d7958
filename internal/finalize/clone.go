package finalize

import (
	"fmt"
	"regexp"

	"github.com/scigolib/bitproto/internal/model"
)

var refRe = regexp.MustCompile(`#([\w:]+)`)

// rewriteRefs replaces every "#id" occurrence in text whose id appears in
// remap with "#" + remap[id], leaving every other reference untouched.
// This implements the finalizer's "rewrite every expression reference
// inside the cloned subtree so that #x inside clone k becomes
// #x_suffix(k)" rule (spec.md §4.1).
func rewriteRefs(text string, remap map[string]string) string {
	if text == "" {
		return text
	}
	return refRe.ReplaceAllStringFunc(text, func(m string) string {
		id := m[1:]
		if newID, ok := remap[id]; ok {
			return "#" + newID
		}
		return m
	})
}

// buildRemap walks tmpl depth-first, assigns each node and group id its
// suffixed id (nested protocols keep their own ids), and returns the full
// old->new remap table used to rewrite every expression reference in the
// clone.
func buildRemap(tmpl *model.Protocol, idx int) map[string]string {
	remap := map[string]string{}
	var walkChildren func(children []model.Child)
	var walkProtocol func(p *model.Protocol)

	walkChildren = func(children []model.Child) {
		for _, c := range children {
			switch {
			case c.Node != nil:
				remap[c.Node.ID] = suffixID(c.Node.ID, "_%d", idx)
			case c.Group != nil:
				remap[c.Group.ID] = suffixID(c.Group.ID, "_%d", idx)
				walkProtocol(c.Group.ChildTemplate)
			case c.Protocol != nil:
				walkProtocol(c.Protocol)
			}
		}
	}
	walkProtocol = func(p *model.Protocol) {
		if p == nil {
			return
		}
		for _, section := range p.Sections() {
			walkChildren(section)
		}
	}

	walkProtocol(tmpl)
	return remap
}

func suffixID(base, pattern string, idx int) string {
	return base + fmt.Sprintf(pattern, idx)
}

// cloneProtocol deep-copies tmpl, applying remap to every id and
// rewriting every expression text field that might carry a reference.
func cloneProtocol(tmpl *model.Protocol, remap map[string]string, nameSuffix string, idx int) *model.Protocol {
	if tmpl == nil {
		return nil
	}
	out := &model.Protocol{
		ID:             tmpl.ID,
		Name:           tmpl.Name,
		Version:        tmpl.Version,
		EndianDefault:  tmpl.EndianDefault,
		SectionPadding: tmpl.SectionPadding,
	}
	out.Header = cloneChildren(tmpl.Header, remap, nameSuffix, idx)
	out.Body = cloneChildren(tmpl.Body, remap, nameSuffix, idx)
	out.Tail = cloneChildren(tmpl.Tail, remap, nameSuffix, idx)
	return out
}

func cloneChildren(children []model.Child, remap map[string]string, nameSuffix string, idx int) []model.Child {
	out := make([]model.Child, len(children))
	for i, c := range children {
		switch {
		case c.Node != nil:
			out[i] = model.Child{Node: cloneNode(c.Node, remap, nameSuffix, idx), Order: c.Order}
		case c.Group != nil:
			out[i] = model.Child{Group: cloneGroup(c.Group, remap, nameSuffix, idx), Order: c.Order}
		case c.Protocol != nil:
			out[i] = model.Child{Protocol: cloneProtocol(c.Protocol, remap, nameSuffix, idx), Order: c.Order}
		}
	}
	return out
}

func cloneNode(n *model.Node, remap map[string]string, nameSuffix string, idx int) *model.Node {
	cp := *n
	cp.ID = remap[n.ID]
	if n.Name != "" {
		cp.Name = n.Name + fmt.Sprintf(nameSuffix, idx)
	}
	cp.LengthExpr = rewriteRefs(n.LengthExpr, remap)
	cp.FwdExpr = rewriteRefs(n.FwdExpr, remap)
	cp.BwdExpr = rewriteRefs(n.BwdExpr, remap)
	if n.Padding != nil {
		p := *n.Padding
		p.LengthExpr = rewriteRefs(p.LengthExpr, remap)
		p.ConditionExpr = rewriteRefs(p.ConditionExpr, remap)
		p.Fill = rewriteRefs(p.Fill, remap)
		cp.Padding = &p
	}
	if len(n.ConditionalDeps) > 0 {
		cds := make([]model.ConditionalDep, len(n.ConditionalDeps))
		for i, cd := range n.ConditionalDeps {
			cds[i] = cd
			cds[i].Predicate = rewriteRefs(cd.Predicate, remap)
			if newID, ok := remap[cd.ConditionNodeID]; ok {
				cds[i].ConditionNodeID = newID
			}
		}
		cp.ConditionalDeps = cds
	}
	// Reset per-pass derivation state on the clone.
	cp.StartBit, cp.EndBit, cp.Enabled, cp.State = 0, 0, false, model.Pending
	return &cp
}

func cloneGroup(g *model.Group, remap map[string]string, nameSuffix string, idx int) *model.Group {
	cp := *g
	cp.ID = remap[g.ID]
	if g.Name != "" {
		cp.Name = g.Name + fmt.Sprintf(nameSuffix, idx)
	}
	cp.LengthExpr = rewriteRefs(g.LengthExpr, remap)
	if g.CollectionPath != "" {
		cp.CollectionPath = suffixID(g.CollectionPath, "_%d", idx)
	}
	cp.ChildTemplate = cloneProtocol(g.ChildTemplate, remap, nameSuffix, idx)
	return &cp
}
