package derive

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/scigolib/bitproto/internal/model"
)

func fixedField(id string, bits int) model.Child {
	return model.Child{Node: &model.Node{
		ID:         id,
		LengthBits: bits,
		Type:       model.Uint(bits),
	}}
}

func TestEncodeDecodeRoundTripFixedFields(t *testing.T) {
	proto := &model.Protocol{
		ID: "p",
		Body: []model.Child{
			fixedField("a", 8),
			fixedField("b", 16),
		},
	}
	inst := model.NewInstance()
	inst.Set("a", model.UIntVal(7))
	inst.Set("b", model.UIntVal(4000))

	data, err := Encode(proto, inst)
	require.NoError(t, err)
	require.Equal(t, []byte{0x07, 0x0F, 0xA0}, data)

	out, err := Decode(proto, data)
	require.NoError(t, err)
	a, _ := out.Get("a")
	b, _ := out.Get("b")
	av, _ := a.AsUint()
	bv, _ := b.AsUint()
	require.EqualValues(t, 7, av)
	require.EqualValues(t, 4000, bv)
}

func TestEncodeComputesForwardExpressionLength(t *testing.T) {
	proto := &model.Protocol{
		ID: "p",
		Body: []model.Child{
			{Node: &model.Node{ID: "len", LengthBits: 8, Type: model.Uint(8), FwdExpr: "nodeLength(#payload)"}},
			{Node: &model.Node{ID: "payload", LengthBits: 24, Type: model.Hex()}},
		},
	}
	inst := model.NewInstance()
	inst.Set("payload", model.StrVal("ABCDEF"))

	data, err := Encode(proto, inst)
	require.NoError(t, err)
	require.Equal(t, byte(3), data[0])
	require.Equal(t, []byte{0xAB, 0xCD, 0xEF}, data[1:])
}

func TestEncodeMissingInstanceValueFails(t *testing.T) {
	proto := &model.Protocol{
		ID:   "p",
		Body: []model.Child{fixedField("a", 8)},
	}
	_, err := Encode(proto, model.NewInstance())
	require.Error(t, err)
}

// TestEncodeChecksumOverForwardRange drives spec.md's flagship S1
// scenario end to end through the real derive.Encode path (not a
// hand-written expr.Context mock), so it actually exercises
// finalize.EvalContext.BytesBetween with no raw decode buffer present.
// checksum is declared (and positioned on the wire) before the two
// nodes its crc16Between call references, so this also confirms the
// Dependency Graph's range deps, not just declaration order, decide
// derivation order.
func TestEncodeChecksumOverForwardRange(t *testing.T) {
	proto := &model.Protocol{
		ID: "s1",
		Body: []model.Child{
			{Node: &model.Node{ID: "protocol_id", LengthBits: 16, Type: model.Hex()}},
			{Node: &model.Node{ID: "checksum", LengthBits: 16, Type: model.Hex(), FwdExpr: "crc16Between(#version,#data_field)"}},
			{Node: &model.Node{ID: "version", LengthBits: 8, Type: model.Uint(8)}},
			{Node: &model.Node{ID: "data_length", LengthBits: 16, Type: model.Uint(16), FwdExpr: "nodeLength(#data_field)"}},
			{Node: &model.Node{ID: "data_field", LengthBits: 32, Type: model.Hex()}},
		},
	}
	inst := model.NewInstance()
	inst.Set("protocol_id", model.StrVal("1234"))
	inst.Set("version", model.UIntVal(1))
	inst.Set("data_field", model.StrVal("DEADBEEF"))

	data, err := Encode(proto, inst)
	require.NoError(t, err)
	require.Equal(t, []byte{0x12, 0x34, 0x04, 0xFE, 0x01, 0x00, 0x04, 0xDE, 0xAD, 0xBE, 0xEF}, data)
}

func TestDecodeThenEncodeReproducesInstance(t *testing.T) {
	proto := &model.Protocol{
		ID: "p",
		Body: []model.Child{
			fixedField("a", 8),
			fixedField("b", 8),
		},
	}
	data := []byte{0x12, 0x34}

	decoded, err := Decode(proto, data)
	require.NoError(t, err)

	reEncoded, err := Encode(proto, decoded)
	require.NoError(t, err)
	require.Equal(t, data, reEncoded)

	want := model.NewInstance()
	want.Set("a", model.UIntVal(0x12))
	want.Set("b", model.UIntVal(0x34))
	if diff := cmp.Diff(want.Values, decoded.Values); diff != "" {
		t.Fatalf("decoded instance mismatch (-want +got):\n%s", diff)
	}
}
