package finalize

import (
	"testing"

	"github.com/scigolib/bitproto/internal/model"
)

func uintNode(id string, bits int, order int) model.Child {
	return model.Child{
		Node: &model.Node{
			ID:         id,
			Name:       id,
			LengthBits: bits,
			Type:       model.Uint(bits),
			Value:      model.UIntVal(0),
		},
		Order: order,
	}
}

func TestFinalizeEncodeSimpleChain(t *testing.T) {
	proto := &model.Protocol{
		ID: "p",
		Body: []model.Child{
			uintNode("a", 8, 0),
			uintNode("b", 16, 1),
		},
	}
	inst := model.NewInstance()

	tree, err := FinalizeEncode(proto, inst)
	if err != nil {
		t.Fatal(err)
	}
	if len(tree.Nodes) != 2 {
		t.Fatalf("want 2 nodes, got %d", len(tree.Nodes))
	}
	a, _ := tree.Find("a")
	b, _ := tree.Find("b")
	if a.Node.StartBit != 0 || a.Node.EndBit != 7 {
		t.Fatalf("node a positioned wrong: %+v", a.Node)
	}
	if b.Node.StartBit != 8 || b.Node.EndBit != 23 {
		t.Fatalf("node b positioned wrong: %+v", b.Node)
	}
	if tree.TotalBits != 24 {
		t.Fatalf("want 24 total bits, got %d", tree.TotalBits)
	}
}

func TestFinalizeEncodeGroupExpansion(t *testing.T) {
	tmpl := &model.Protocol{
		ID: "item",
		Body: []model.Child{
			uintNode("value", 8, 0),
		},
	}
	proto := &model.Protocol{
		ID: "p",
		Body: []model.Child{
			{
				Group: &model.Group{
					ID:             "items",
					ChildTemplate:  tmpl,
					CollectionPath: "items",
				},
				Order: 0,
			},
		},
	}
	inst := model.NewInstance()
	inst.Collections["items"] = 3

	tree, err := FinalizeEncode(proto, inst)
	if err != nil {
		t.Fatal(err)
	}
	if len(tree.Nodes) != 3 {
		t.Fatalf("want 3 cloned nodes, got %d", len(tree.Nodes))
	}
	wantIDs := []string{"value_1", "value_2", "value_3"}
	for i, want := range wantIDs {
		if tree.Nodes[i].Node.ID != want {
			t.Fatalf("clone %d: want id %q, got %q", i, want, tree.Nodes[i].Node.ID)
		}
	}
	if tree.Nodes[0].Node.StartBit != 0 || tree.Nodes[1].Node.StartBit != 8 || tree.Nodes[2].Node.StartBit != 16 {
		t.Fatalf("clones not laid out contiguously: %+v %+v %+v",
			tree.Nodes[0].Node, tree.Nodes[1].Node, tree.Nodes[2].Node)
	}
}

func TestFinalizeEncodeNestedGroupComposition(t *testing.T) {
	inner := &model.Protocol{
		ID: "b",
		Body: []model.Child{
			uintNode("val", 8, 0),
		},
	}
	outer := &model.Protocol{
		ID: "a",
		Body: []model.Child{
			{
				Group: &model.Group{
					ID:             "b",
					ChildTemplate:  inner,
					CollectionPath: "b",
				},
				Order: 0,
			},
		},
	}
	proto := &model.Protocol{
		ID: "root",
		Body: []model.Child{
			{
				Group: &model.Group{
					ID:             "a",
					ChildTemplate:  outer,
					CollectionPath: "a",
				},
				Order: 0,
			},
		},
	}
	inst := model.NewInstance()
	inst.Collections["a"] = 1
	// The inner group's CollectionPath is declared plainly as "b"; the
	// finalizer suffixes it with the enclosing clone's index ("_1")
	// when "a"'s first element is materialised, so each outer element
	// gets its own per-instance element count.
	inst.Collections["b_1"] = 2

	tree, err := FinalizeEncode(proto, inst)
	if err != nil {
		t.Fatal(err)
	}
	wantIDs := []string{"val_1_1", "val_1_2"}
	if len(tree.Nodes) != len(wantIDs) {
		t.Fatalf("want %d nodes, got %d: %+v", len(wantIDs), len(tree.Nodes), tree.Nodes)
	}
	for i, want := range wantIDs {
		if tree.Nodes[i].Node.ID != want {
			t.Fatalf("clone %d: want id %q, got %q", i, want, tree.Nodes[i].Node.ID)
		}
	}
}

func TestFinalizeEncodeMissingGroupCountFails(t *testing.T) {
	tmpl := &model.Protocol{
		Body: []model.Child{uintNode("value", 8, 0)},
	}
	proto := &model.Protocol{
		ID: "p",
		Body: []model.Child{
			{Group: &model.Group{ID: "items", ChildTemplate: tmpl, CollectionPath: "items"}},
		},
	}
	if _, err := FinalizeEncode(proto, model.NewInstance()); err == nil {
		t.Fatal("expected missing group count error")
	}
}

func TestFinalizeDecodeReadsValuesInSequence(t *testing.T) {
	proto := &model.Protocol{
		ID: "p",
		Body: []model.Child{
			uintNode("a", 8, 0),
			uintNode("b", 8, 1),
		},
	}
	data := []byte{0x01, 0x02}

	tree, inst, err := FinalizeDecode(proto, data)
	if err != nil {
		t.Fatal(err)
	}
	if len(tree.Nodes) != 2 {
		t.Fatalf("want 2 nodes, got %d", len(tree.Nodes))
	}
	av, _ := inst.Get("a")
	bv, _ := inst.Get("b")
	u1, _ := av.AsUint()
	u2, _ := bv.AsUint()
	if u1 != 1 || u2 != 2 {
		t.Fatalf("want a=1,b=2, got a=%d,b=%d", u1, u2)
	}
}

func TestFinalizeDecodeGroupRecordsDiscoveredCount(t *testing.T) {
	tmpl := &model.Protocol{
		ID: "item",
		Body: []model.Child{
			uintNode("value", 8, 0),
		},
	}
	proto := &model.Protocol{
		ID: "p",
		Body: []model.Child{
			uintNode("count", 8, 0),
			{
				Group: &model.Group{
					ID:             "items",
					ChildTemplate:  tmpl,
					CollectionPath: "items",
					LengthExpr:     "#count",
				},
				Order: 1,
			},
		},
	}
	data := []byte{0x02, 0x0A, 0x0B}

	_, inst, err := FinalizeDecode(proto, data)
	if err != nil {
		t.Fatal(err)
	}
	n, ok := inst.CollectionLen("items")
	if !ok || n != 2 {
		t.Fatalf("want discovered collection count 2, got %d (ok=%v)", n, ok)
	}
	v1, _ := inst.Get("value_1")
	v2, _ := inst.Get("value_2")
	u1, _ := v1.AsUint()
	u2, _ := v2.AsUint()
	if u1 != 0x0A || u2 != 0x0B {
		t.Fatalf("want value_1=0x0A, value_2=0x0B, got %#x, %#x", u1, u2)
	}
}

func TestFinalizeEncodeSectionPaddingAlignsToByteBoundary(t *testing.T) {
	proto := &model.Protocol{
		ID: "p",
		Body: []model.Child{
			uintNode("flag", 3, 0),
		},
		SectionPadding: map[model.Section]*model.PaddingSpec{
			model.SectionBody: {Kind: model.PadAlignment, BoundaryBytes: 1},
		},
	}
	tree, err := FinalizeEncode(proto, model.NewInstance())
	if err != nil {
		t.Fatal(err)
	}
	if tree.TotalBits != 8 {
		t.Fatalf("want 8 bits after byte alignment, got %d", tree.TotalBits)
	}
}
