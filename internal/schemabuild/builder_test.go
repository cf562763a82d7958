package schemabuild

import (
	"testing"

	"github.com/scigolib/bitproto/internal/model"
)

func TestBuilderAssemblesSections(t *testing.T) {
	proto, err := NewProtocol("p", "Ping", "1.0").
		Header().
		Field(&model.Node{ID: "magic", LengthBits: 8, Type: model.Uint(8)}, 0).
		Body().
		Field(&model.Node{ID: "payload", LengthBits: 16, Type: model.Uint(16)}, 0).
		Tail().
		Field(&model.Node{ID: "crc", LengthBits: 8, Type: model.Uint(8)}, 0).
		Build()
	if err != nil {
		t.Fatal(err)
	}
	if len(proto.Header) != 1 || proto.Header[0].Node.ID != "magic" {
		t.Fatalf("header not assembled: %+v", proto.Header)
	}
	if len(proto.Body) != 1 || proto.Body[0].Node.ID != "payload" {
		t.Fatalf("body not assembled: %+v", proto.Body)
	}
	if len(proto.Tail) != 1 || proto.Tail[0].Node.ID != "crc" {
		t.Fatalf("tail not assembled: %+v", proto.Tail)
	}
}

func TestBuilderFieldMissingIDFailsBuild(t *testing.T) {
	_, err := NewProtocol("p", "", "").
		Field(&model.Node{LengthBits: 8, Type: model.Uint(8)}, 0).
		Build()
	if err == nil {
		t.Fatal("expected error for field missing id")
	}
}

func TestBuilderGroupRequiresChildTemplate(t *testing.T) {
	_, err := NewProtocol("p", "", "").
		Group(&model.Group{ID: "items", CollectionPath: "items"}, 0).
		Build()
	if err == nil {
		t.Fatal("expected error for group missing child template")
	}
}

func TestBuilderSectionPaddingAppliesToCurrentSection(t *testing.T) {
	proto, err := NewProtocol("p", "", "").
		Body().
		Field(&model.Node{ID: "flag", LengthBits: 3, Type: model.Uint(3)}, 0).
		SectionPadding(&model.PaddingSpec{Kind: model.PadAlignment, BoundaryBytes: 1}).
		Build()
	if err != nil {
		t.Fatal(err)
	}
	pad := proto.SectionPadding[model.SectionBody]
	if pad == nil || pad.Kind != model.PadAlignment {
		t.Fatalf("expected body section padding, got %+v", proto.SectionPadding)
	}
}
