// Package main provides a command-line utility to encode and decode
// bitproto schemas. It loads a JSON schema document and a JSON instance
// document, encodes them to bytes, prints a hex dump, then decodes the
// bytes back and prints the resulting field values.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	bitproto "github.com/scigolib/bitproto"
	"github.com/scigolib/bitproto/internal/model"
	"github.com/scigolib/bitproto/internal/schemabuild"
)

func main() {
	schemaPath := flag.String("schema", "", "path to a JSON protocol schema document")
	instancePath := flag.String("instance", "", "path to a JSON instance document (node id -> value)")
	flag.Parse()

	if *schemaPath == "" {
		fmt.Println("Usage: bitproto-dump -schema <schema.json> [-instance <instance.json>]")
		flag.PrintDefaults()
		return
	}

	schemaData, err := os.ReadFile(*schemaPath)
	if err != nil {
		log.Fatalf("failed to read schema: %v", err)
	}
	proto, err := schemabuild.LoadJSON(schemaData)
	if err != nil {
		log.Fatalf("failed to load schema: %v", err)
	}

	inst, err := loadInstance(*instancePath)
	if err != nil {
		log.Fatalf("failed to load instance: %v", err)
	}

	data, err := bitproto.Encode(proto, inst)
	if err != nil {
		log.Fatalf("encode failed: %v", err)
	}

	fmt.Printf("Encoded %d bytes:\n", len(data))
	hexDump(data)

	decoded, err := bitproto.Decode(proto, data)
	if err != nil {
		log.Fatalf("decode failed: %v", err)
	}

	fmt.Println("\nDecoded fields:")
	for id, v := range decoded.Values {
		fmt.Printf("  %s = %s\n", id, v.AsString())
	}
}

// loadInstance reads a flat JSON object of node id -> value from path. An
// empty path yields an empty instance, for schemas whose every field is
// computed by a forward expression.
func loadInstance(path string) (*model.Instance, error) {
	inst := model.NewInstance()
	if path == "" {
		return inst, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.Number
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("decode instance document: %w", err)
	}
	for id, n := range fields {
		if i, err := n.Int64(); err == nil {
			inst.Set(id, model.IntVal(i))
			continue
		}
		f, err := n.Float64()
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", id, err)
		}
		inst.Set(id, model.FloatVal(f))
	}
	return inst, nil
}

func hexDump(data []byte) {
	for i := 0; i < len(data); i += 16 {
		end := i + 16
		if end > len(data) {
			end = len(data)
		}
		chunk := data[i:end]

		fmt.Printf("%08x: ", i)
		for j := 0; j < 16; j++ {
			if j < len(chunk) {
				fmt.Printf("%02x ", chunk[j])
			} else {
				fmt.Print("   ")
			}
			if j == 7 {
				fmt.Print(" ")
			}
		}
		fmt.Print(" |")
		for _, b := range chunk {
			if b >= 32 && b <= 126 {
				fmt.Printf("%c", b)
			} else {
				fmt.Print(".")
			}
		}
		fmt.Println("|")
	}
}
