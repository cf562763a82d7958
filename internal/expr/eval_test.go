package expr

import (
	"fmt"
	"testing"

	"github.com/scigolib/bitproto/internal/model"
)

type fakeCtx struct {
	values map[string]model.Value
	bytes  map[string][]byte
	bits   map[string]int
	groups map[string]int
}

func newFakeCtx() *fakeCtx {
	return &fakeCtx{
		values: map[string]model.Value{},
		bytes:  map[string][]byte{},
		bits:   map[string]int{},
		groups: map[string]int{},
	}
}

func (c *fakeCtx) Value(id string) (model.Value, bool) { v, ok := c.values[id]; return v, ok }
func (c *fakeCtx) ByteLength(id string) (int, bool) {
	n, ok := c.bits[id]
	return n / 8, ok
}
func (c *fakeCtx) BitLength(id string) (int, bool) { n, ok := c.bits[id]; return n, ok }
func (c *fakeCtx) GroupSize(id string) (int, bool)  { n, ok := c.groups[id]; return n, ok }
func (c *fakeCtx) Bytes(id string) ([]byte, bool)   { b, ok := c.bytes[id]; return b, ok }
func (c *fakeCtx) BytesBetween(a, b string) ([]byte, error) {
	ab, ok := c.bytes[a]
	if !ok {
		return nil, fmt.Errorf("no bytes for %s", a)
	}
	bb, ok := c.bytes[b]
	if !ok {
		return nil, fmt.Errorf("no bytes for %s", b)
	}
	return append(append([]byte{}, ab...), bb...), nil
}

func TestEvaluateArithmetic(t *testing.T) {
	ctx := newFakeCtx()
	v, err := Evaluate("1 + 2 * 3", ctx)
	if err != nil {
		t.Fatal(err)
	}
	got, _ := v.AsInt()
	if got != 7 {
		t.Fatalf("got %d want 7", got)
	}
}

func TestEvaluateNodeLength(t *testing.T) {
	ctx := newFakeCtx()
	ctx.bytes["data_field"] = []byte{0xDE, 0xAD, 0xBE, 0xEF}
	ctx.bits["data_field"] = 32
	v, err := Evaluate("nodeLength(#data_field)", ctx)
	if err != nil {
		t.Fatal(err)
	}
	got, _ := v.AsUint()
	if got != 4 {
		t.Fatalf("got %d want 4", got)
	}
}

func TestEvaluateCRC16Between(t *testing.T) {
	ctx := newFakeCtx()
	ctx.bytes["version"] = []byte{0x01, 0x00, 0x04, 0xDE, 0xAD, 0xBE, 0xEF}
	ctx.bytes["data_field"] = []byte{}
	v, err := Evaluate("crc16Between(#version,#data_field)", ctx)
	if err != nil {
		t.Fatal(err)
	}
	if v.Kind != model.KindUInt {
		t.Fatalf("expected uint result, got %v", v.Kind)
	}
}

func TestEvaluateUnknownReference(t *testing.T) {
	ctx := newFakeCtx()
	_, err := Evaluate("nodeLength(#missing)", ctx)
	if err == nil {
		t.Fatal("expected unknown-reference error")
	}
}

func TestEvaluateTernaryAndComparison(t *testing.T) {
	ctx := newFakeCtx()
	ctx.values["version"] = model.UIntVal(2)
	v, err := Evaluate("#version >= 2 ? 1 : 0", ctx)
	if err != nil {
		t.Fatal(err)
	}
	got, _ := v.AsInt()
	if got != 1 {
		t.Fatalf("got %d want 1", got)
	}
}

func TestEvaluateDivideByZero(t *testing.T) {
	ctx := newFakeCtx()
	if _, err := Evaluate("1 / 0", ctx); err == nil {
		t.Fatal("expected division-by-zero error")
	}
}

func TestEvaluateShiftAndBitwiseOr(t *testing.T) {
	ctx := newFakeCtx()
	v, err := Evaluate("(1 << 4) | 2", ctx)
	if err != nil {
		t.Fatal(err)
	}
	got, _ := v.AsInt()
	if got != 18 {
		t.Fatalf("got %d want 18", got)
	}
}
