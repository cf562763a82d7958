package graph

import (
	"testing"

	"github.com/scigolib/bitproto/internal/model"
)

func node(id string, start, end int) *model.Node {
	return &model.Node{ID: id, StartBit: start, EndBit: end, LengthBits: end - start + 1}
}

func buildTree(nodes ...*model.Node) *model.FinalTree {
	t := model.NewFinalTree()
	for i, n := range nodes {
		t.Append(&model.FinalNode{Node: n, DeclIndex: i})
	}
	t.TotalBits = len(nodes) * 8
	return t
}

func TestBuildAndTopoOrderSimpleChain(t *testing.T) {
	a := node("a", 0, 7)
	b := node("b", 8, 15)
	b.FwdExpr = "#a + 1"
	tree := buildTree(a, b)

	g, err := Build(tree)
	if err != nil {
		t.Fatal(err)
	}
	order, err := TopoOrder(g)
	if err != nil {
		t.Fatal(err)
	}
	if len(order) != 2 || tree.Nodes[order[0]].Node.ID != "a" || tree.Nodes[order[1]].Node.ID != "b" {
		t.Fatalf("unexpected order: %v", order)
	}
}

func TestBuildCyclicDependencyFails(t *testing.T) {
	a := node("a", 0, 7)
	a.FwdExpr = "#b + 1"
	b := node("b", 8, 15)
	b.FwdExpr = "#a + 1"
	tree := buildTree(a, b)

	g, err := Build(tree)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := TopoOrder(g); err == nil {
		t.Fatal("expected cyclic dependency error")
	}
}

func TestBuildUnknownReferenceFails(t *testing.T) {
	a := node("a", 0, 7)
	a.FwdExpr = "#missing + 1"
	tree := buildTree(a)

	if _, err := Build(tree); err == nil {
		t.Fatal("expected unknown reference error")
	}
}

func TestRangeDependencyCoversIntermediateNodes(t *testing.T) {
	v := node("version", 0, 7)
	dl := node("data_length", 8, 23)
	data := node("data_field", 24, 55)
	checksum := node("checksum", 56, 71)
	checksum.FwdExpr = "crc16Between(#version,#data_field)"
	tree := buildTree(v, dl, data, checksum)

	g, err := Build(tree)
	if err != nil {
		t.Fatal(err)
	}
	order, err := TopoOrder(g)
	if err != nil {
		t.Fatal(err)
	}
	pos := map[string]int{}
	for i, idx := range order {
		pos[tree.Nodes[idx].Node.ID] = i
	}
	if pos["checksum"] <= pos["version"] || pos["checksum"] <= pos["data_length"] || pos["checksum"] <= pos["data_field"] {
		t.Fatalf("checksum must be ordered after every node in its range: %v", pos)
	}
}

func TestRangeOrderInvertedFails(t *testing.T) {
	a := node("a", 8, 15)
	b := node("b", 0, 7)
	c := node("c", 16, 23)
	c.FwdExpr = "crc16Between(#a,#b)"
	tree := buildTree(a, b, c)

	if _, err := Build(tree); err == nil {
		t.Fatal("expected range order error")
	}
}
