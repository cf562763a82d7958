package schemabuild

import "testing"

func TestLoadJSONConvertsFlatProtocol(t *testing.T) {
	doc := []byte(`{
		"id": "ping",
		"name": "Ping",
		"version": "1.0",
		"endian": "big",
		"body": [
			{"kind": "node", "order": 0, "node": {"id": "magic", "type": "uint", "width": 8, "length_bits": 8}},
			{"kind": "node", "order": 1, "node": {"id": "payload", "type": "hex", "length_bits": 16}}
		]
	}`)

	proto, err := LoadJSON(doc)
	if err != nil {
		t.Fatal(err)
	}
	if proto.ID != "ping" || len(proto.Body) != 2 {
		t.Fatalf("unexpected protocol: %+v", proto)
	}
	if proto.Body[0].Node.ID != "magic" || proto.Body[1].Node.ID != "payload" {
		t.Fatalf("body fields not converted in order: %+v", proto.Body)
	}
}

func TestLoadJSONRejectsMissingRequiredFields(t *testing.T) {
	doc := []byte(`{"name": "no id or body"}`)
	if _, err := LoadJSON(doc); err == nil {
		t.Fatal("expected schema validation error")
	}
}

func TestLoadJSONConvertsNestedGroup(t *testing.T) {
	doc := []byte(`{
		"id": "list",
		"body": [
			{"kind": "node", "order": 0, "node": {"id": "count", "type": "uint", "width": 8, "length_bits": 8}},
			{"kind": "group", "order": 1, "group": {
				"id": "items",
				"collection_path": "items",
				"length_expr": "#count",
				"child_template": {
					"id": "item",
					"body": [
						{"kind": "node", "order": 0, "node": {"id": "value", "type": "uint", "width": 8, "length_bits": 8}}
					]
				}
			}}
		]
	}`)

	proto, err := LoadJSON(doc)
	if err != nil {
		t.Fatal(err)
	}
	grp := proto.Body[1].Group
	if grp == nil || grp.ID != "items" || grp.ChildTemplate == nil {
		t.Fatalf("group not converted: %+v", proto.Body[1])
	}
	if len(grp.ChildTemplate.Body) != 1 || grp.ChildTemplate.Body[0].Node.ID != "value" {
		t.Fatalf("group child_template not converted: %+v", grp.ChildTemplate)
	}
}
