package schemabuild

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/scigolib/bitproto/internal/model"
)

//go:embed schema.json
var metaSchemaJSON []byte

var metaSchema = compileMetaSchema()

func compileMetaSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	const url = "schema://bitproto-protocol.json"
	if err := compiler.AddResource(url, bytes.NewReader(metaSchemaJSON)); err != nil {
		panic(fmt.Sprintf("schemabuild: invalid embedded meta-schema: %v", err))
	}
	s, err := compiler.Compile(url)
	if err != nil {
		panic(fmt.Sprintf("schemabuild: meta-schema compile failed: %v", err))
	}
	return s
}

// LoadJSON validates data against the protocol document meta-schema and
// converts it into a *model.Protocol. This is a convenience ingress path
// only — it does not replace the core pipeline, and schema authoring
// from a document format is otherwise out of scope (spec.md §1).
func LoadJSON(data []byte) (*model.Protocol, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	if err := metaSchema.Validate(raw); err != nil {
		return nil, fmt.Errorf("document does not match protocol schema: %w", err)
	}

	var doc jsonProtocol
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode protocol document: %w", err)
	}
	return doc.toModel()
}

type jsonProtocol struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Endian  string      `json:"endian"`
	Header  []jsonChild `json:"header"`
	Body    []jsonChild `json:"body"`
	Tail    []jsonChild `json:"tail"`
}

type jsonChild struct {
	Kind     string        `json:"kind"`
	Order    int           `json:"order"`
	Node     *jsonNode     `json:"node"`
	Group    *jsonGroup    `json:"group"`
	Protocol *jsonProtocol `json:"protocol"`
}

type jsonNode struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	Width      int    `json:"width"`
	Charset    string `json:"charset"`
	LengthBits int    `json:"length_bits"`
	LengthExpr string `json:"length_expr"`
	Endian     string `json:"endian"`
	FwdExpr    string `json:"fwd_expr"`
	BwdExpr    string `json:"bwd_expr"`
	OnDisable  string `json:"on_disable"`
}

type jsonGroup struct {
	ID                string       `json:"id"`
	Name              string       `json:"name"`
	ChildTemplate     jsonProtocol `json:"child_template"`
	IDSuffixPattern   string       `json:"id_suffix_pattern"`
	NameSuffixPattern string       `json:"name_suffix_pattern"`
	LengthExpr        string       `json:"length_expr"`
	CollectionPath    string       `json:"collection_path"`
}

func parseEndian(s string) model.Endian {
	if s == "little" {
		return model.Little
	}
	return model.Big
}

func (p *jsonProtocol) toModel() (*model.Protocol, error) {
	out := &model.Protocol{
		ID:            p.ID,
		Name:          p.Name,
		Version:       p.Version,
		EndianDefault: parseEndian(p.Endian),
	}
	var err error
	if out.Header, err = convertChildren(p.Header); err != nil {
		return nil, err
	}
	if out.Body, err = convertChildren(p.Body); err != nil {
		return nil, err
	}
	if out.Tail, err = convertChildren(p.Tail); err != nil {
		return nil, err
	}
	return out, nil
}

func convertChildren(children []jsonChild) ([]model.Child, error) {
	out := make([]model.Child, 0, len(children))
	for _, c := range children {
		mc, err := c.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, mc)
	}
	return out, nil
}

func (c *jsonChild) toModel() (model.Child, error) {
	switch c.Kind {
	case "node":
		if c.Node == nil {
			return model.Child{}, fmt.Errorf("child kind \"node\" missing node body")
		}
		n, err := c.Node.toModel()
		if err != nil {
			return model.Child{}, err
		}
		return model.Child{Node: n, Order: c.Order}, nil
	case "group":
		if c.Group == nil {
			return model.Child{}, fmt.Errorf("child kind \"group\" missing group body")
		}
		g, err := c.Group.toModel()
		if err != nil {
			return model.Child{}, err
		}
		return model.Child{Group: g, Order: c.Order}, nil
	case "protocol":
		if c.Protocol == nil {
			return model.Child{}, fmt.Errorf("child kind \"protocol\" missing protocol body")
		}
		p, err := c.Protocol.toModel()
		if err != nil {
			return model.Child{}, err
		}
		return model.Child{Protocol: p, Order: c.Order}, nil
	default:
		return model.Child{}, fmt.Errorf("unknown child kind %q", c.Kind)
	}
}

func (n *jsonNode) toModel() (*model.Node, error) {
	vt, err := parseValueType(n.Type, n.Width, n.Charset)
	if err != nil {
		return nil, fmt.Errorf("node %q: %w", n.ID, err)
	}
	onDisable := model.Reserve
	if n.OnDisable == "collapse" {
		onDisable = model.Collapse
	}
	return &model.Node{
		ID:         n.ID,
		Name:       n.Name,
		LengthBits: n.LengthBits,
		LengthExpr: n.LengthExpr,
		Type:       vt,
		Endian:     parseEndian(n.Endian),
		FwdExpr:    n.FwdExpr,
		BwdExpr:    n.BwdExpr,
		OnDisable:  onDisable,
	}, nil
}

func parseValueType(kind string, width int, charset string) (model.ValueType, error) {
	switch kind {
	case "uint":
		return model.Uint(width), nil
	case "int":
		return model.Int(width), nil
	case "hex":
		return model.Hex(), nil
	case "string":
		return model.String(charset), nil
	case "float32":
		return model.Float32(), nil
	case "float64":
		return model.Float64(), nil
	case "bit":
		return model.Bit(), nil
	case "bcd":
		return model.Bcd(), nil
	case "boolean":
		return model.Boolean(), nil
	default:
		return model.ValueType{}, fmt.Errorf("unknown field type %q", kind)
	}
}

func (g *jsonGroup) toModel() (*model.Group, error) {
	tmpl, err := g.ChildTemplate.toModel()
	if err != nil {
		return nil, fmt.Errorf("group %q child_template: %w", g.ID, err)
	}
	return &model.Group{
		ID:                g.ID,
		Name:              g.Name,
		ChildTemplate:     tmpl,
		IDSuffixPattern:   g.IDSuffixPattern,
		NameSuffixPattern: g.NameSuffixPattern,
		LengthExpr:        g.LengthExpr,
		CollectionPath:    g.CollectionPath,
	}, nil
}
