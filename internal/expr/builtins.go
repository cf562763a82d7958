package expr

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/scigolib/bitproto/internal/model"
	"github.com/scigolib/bitproto/internal/xerrors"
)

// callBuiltin dispatches a zero-arg call (bare identifier used as a
// function, e.g. "random").
func callBuiltin(name string, args []model.Value, ctx Context) (model.Value, error) {
	return callBuiltinWithNodes(name, nil, args, ctx)
}

// nodeIDOf extracts the id a reference-style argument names. #id
// arguments arrive as KString nodes (the preprocessor rewrote #id to
// 'id'); a bare KIdent also works for callers that wrote the id
// unquoted by mistake.
func nodeIDOf(n *Node) (string, bool) {
	if n == nil {
		return "", false
	}
	if n.Kind == KString || n.Kind == KIdent {
		return n.StrLit, true
	}
	return "", false
}

var builtinRNG = rand.New(rand.NewSource(1))

// callBuiltinWithNodes implements the built-in function table of
// spec.md §4.3. argNodes carries the unevaluated AST for arguments that
// name a node reference rather than a value (nodeLength(#x) needs the
// id "x", not whatever Value() currently holds for it).
func callBuiltinWithNodes(name string, argNodes []*Node, args []model.Value, ctx Context) (model.Value, error) {
	arg := func(i int) model.Value {
		if i < len(args) {
			return args[i]
		}
		return model.Null()
	}
	ref := func(i int) (string, error) {
		if i >= len(argNodes) {
			return "", fmt.Errorf("%s: missing node-reference argument %d", name, i)
		}
		id, ok := nodeIDOf(argNodes[i])
		if !ok {
			return "", fmt.Errorf("%s: argument %d is not a node reference", name, i)
		}
		return id, nil
	}
	runtimeErr := func(err error) (model.Value, error) {
		if ce, ok := err.(*xerrors.CodecError); ok {
			return model.Value{}, ce
		}
		return model.Value{}, xerrors.New(xerrors.KindExpressionRuntime, xerrors.StageDerive, "", err)
	}

	switch name {
	case "nodeLength":
		id, err := ref(0)
		if err != nil {
			return runtimeErr(err)
		}
		n, ok := ctx.ByteLength(id)
		if !ok {
			return unknownRef(id)
		}
		return model.UIntVal(uint64(n)), nil

	case "nodeBitLength":
		id, err := ref(0)
		if err != nil {
			return runtimeErr(err)
		}
		n, ok := ctx.BitLength(id)
		if !ok {
			return unknownRef(id)
		}
		return model.UIntVal(uint64(n)), nil

	case "size":
		id, err := ref(0)
		if err != nil {
			return runtimeErr(err)
		}
		n, ok := ctx.GroupSize(id)
		if !ok {
			return unknownRef(id)
		}
		return model.UIntVal(uint64(n)), nil

	case "bytesOf":
		id, err := ref(0)
		if err != nil {
			return runtimeErr(err)
		}
		b, ok := ctx.Bytes(id)
		if !ok {
			return unknownRef(id)
		}
		return model.BytesVal(b), nil

	case "hexOf":
		id, err := ref(0)
		if err != nil {
			return runtimeErr(err)
		}
		b, ok := ctx.Bytes(id)
		if !ok {
			return unknownRef(id)
		}
		return model.StrVal(strings.ToUpper(hexString(b))), nil

	case "sliceByNodes":
		a, err := ref(0)
		if err != nil {
			return runtimeErr(err)
		}
		b, err := ref(1)
		if err != nil {
			return runtimeErr(err)
		}
		bs, err := ctx.BytesBetween(a, b)
		if err != nil {
			return model.Value{}, err
		}
		return model.BytesVal(bs), nil

	case "crc16Of":
		b, err := bytesArg(argNodes, 0, ctx)
		if err != nil {
			return runtimeErr(err)
		}
		return model.UIntVal(uint64(crc16CCITTFalse(b))), nil

	case "crc16Between":
		a, bID, err := refPair(ref)
		if err != nil {
			return runtimeErr(err)
		}
		bs, err := ctx.BytesBetween(a, bID)
		if err != nil {
			return model.Value{}, err
		}
		return model.UIntVal(uint64(crc16CCITTFalse(bs))), nil

	case "crc32Of":
		b, err := bytesArg(argNodes, 0, ctx)
		if err != nil {
			return runtimeErr(err)
		}
		return model.UIntVal(uint64(crc32IEEE(b))), nil

	case "crc32Between":
		a, bID, err := refPair(ref)
		if err != nil {
			return runtimeErr(err)
		}
		bs, err := ctx.BytesBetween(a, bID)
		if err != nil {
			return model.Value{}, err
		}
		return model.UIntVal(uint64(crc32IEEE(bs))), nil

	case "sumBetween":
		a, bID, err := refPair(ref)
		if err != nil {
			return runtimeErr(err)
		}
		bs, err := ctx.BytesBetween(a, bID)
		if err != nil {
			return model.Value{}, err
		}
		return model.UIntVal(uint64(sumMod32(bs))), nil

	case "xorOf":
		b, err := bytesArg(argNodes, 0, ctx)
		if err != nil {
			return runtimeErr(err)
		}
		return model.UIntVal(uint64(xorBytes(b))), nil

	case "hashOf":
		b, err := bytesArg(argNodes, 0, ctx)
		if err != nil {
			return runtimeErr(err)
		}
		algo := arg(1).AsString()
		digest, err := digestHex(b, algo)
		if err != nil {
			return runtimeErr(err)
		}
		return model.StrVal(digest), nil

	case "asInt":
		b, err := bytesArg(argNodes, 0, ctx)
		if err != nil {
			return runtimeErr(err)
		}
		signed, _ := arg(1).AsBool()
		little := strings.EqualFold(arg(2).AsString(), "little")
		bitOff, _ := arg(3).AsInt()
		bitLen, _ := arg(4).AsInt()
		v, err := extractInt(b, int(bitOff), int(bitLen), little, signed)
		if err != nil {
			return runtimeErr(err)
		}
		if signed {
			return model.IntVal(int64(v)), nil
		}
		return model.UIntVal(v), nil

	case "asFloat":
		b, err := bytesArg(argNodes, 0, ctx)
		if err != nil {
			return runtimeErr(err)
		}
		little := strings.EqualFold(arg(1).AsString(), "little")
		f, err := extractFloat(b, little)
		if err != nil {
			return runtimeErr(err)
		}
		return model.FloatVal(f), nil

	case "extractBits":
		v, err := arg(0).AsUint()
		if err != nil {
			return runtimeErr(err)
		}
		off, _ := arg(1).AsUint()
		ln, _ := arg(2).AsUint()
		mask := uint64(1)<<ln - 1
		return model.UIntVal((v >> off) & mask), nil

	case "hasFlag":
		v, err := arg(0).AsUint()
		if err != nil {
			return runtimeErr(err)
		}
		mask, _ := arg(1).AsUint()
		return model.BoolVal(v&mask == mask), nil

	case "align":
		v, _ := arg(0).AsUint()
		boundary, _ := arg(1).AsUint()
		return model.UIntVal(alignUp(v, boundary)), nil

	case "alignPadding":
		v, _ := arg(0).AsUint()
		boundary, _ := arg(1).AsUint()
		return model.UIntVal(alignUp(v, boundary) - v), nil

	case "ipToHex":
		s, err := ipToHex(arg(0).AsString())
		if err != nil {
			return runtimeErr(err)
		}
		return model.StrVal(s), nil

	case "hexToIp":
		s, err := hexToIP(arg(0).AsString())
		if err != nil {
			return runtimeErr(err)
		}
		return model.StrVal(s), nil

	case "macToHex":
		s, err := macToHex(arg(0).AsString())
		if err != nil {
			return runtimeErr(err)
		}
		return model.StrVal(s), nil

	case "hexToMac":
		s, err := hexToMAC(arg(0).AsString())
		if err != nil {
			return runtimeErr(err)
		}
		return model.StrVal(s), nil

	case "encode":
		s, err := charsetEncode(arg(0).AsString(), arg(1).AsString())
		if err != nil {
			return runtimeErr(err)
		}
		return model.StrVal(s), nil

	case "decode":
		s, err := charsetDecode(arg(0).AsString(), arg(1).AsString())
		if err != nil {
			return runtimeErr(err)
		}
		return model.StrVal(s), nil

	case "toHex":
		return model.StrVal(strings.ToUpper(hexString(arg(0).AsBytes()))), nil

	case "fromHex":
		b, err := hexDecode(arg(0).AsString())
		if err != nil {
			return runtimeErr(err)
		}
		return model.BytesVal(b), nil

	case "base64Encode":
		return model.StrVal(base64EncodeStr(arg(0).AsString())), nil

	case "base64Decode":
		s, err := base64DecodeStr(arg(0).AsString())
		if err != nil {
			return runtimeErr(err)
		}
		return model.StrVal(s), nil

	case "toBCD":
		u, err := arg(0).AsUint()
		if err != nil {
			return runtimeErr(err)
		}
		return model.StrVal(toBCDString(u)), nil

	case "fromBCD":
		u, err := fromBCDString(arg(0).AsString())
		if err != nil {
			return runtimeErr(err)
		}
		return model.UIntVal(u), nil

	case "leftShift":
		x, _ := arg(0).AsInt()
		n, _ := arg(1).AsInt()
		return model.IntVal(x << uint(n)), nil

	case "rightShift":
		x, _ := arg(0).AsInt()
		n, _ := arg(1).AsInt()
		return model.IntVal(x >> uint(n)), nil

	case "random":
		return model.UIntVal(uint64(builtinRNG.Intn(256))), nil

	case "relativeDay":
		v, err := relativeDayEncode(arg(0).AsString(), arg(1).AsString())
		if err != nil {
			return runtimeErr(err)
		}
		return model.IntVal(v), nil
	case "relativeDayDecode":
		days, _ := arg(1).AsInt()
		s, err := relativeDayDecode(arg(0).AsString(), days)
		if err != nil {
			return runtimeErr(err)
		}
		return model.StrVal(s), nil

	case "relativeSecond":
		v, err := relativeSecondEncode(arg(0).AsString(), arg(1).AsString())
		if err != nil {
			return runtimeErr(err)
		}
		return model.UIntVal(v), nil
	case "relativeSecondDecode":
		secs, _ := arg(1).AsUint()
		s, err := relativeSecondDecode(arg(0).AsString(), secs)
		if err != nil {
			return runtimeErr(err)
		}
		return model.StrVal(s), nil

	case "relativeMillisecond":
		v, err := relativeMillisecondEncode(arg(0).AsString(), arg(1).AsString())
		if err != nil {
			return runtimeErr(err)
		}
		return model.UIntVal(v), nil
	case "relativeMillisecondDecode":
		ms, _ := arg(1).AsUint()
		s, err := relativeMillisecondDecode(arg(0).AsString(), ms)
		if err != nil {
			return runtimeErr(err)
		}
		return model.StrVal(s), nil

	case "relativeDayAndSecond":
		v, err := relativeDayAndSecondEncode(arg(0).AsString(), arg(1).AsString())
		if err != nil {
			return runtimeErr(err)
		}
		return model.UIntVal(v), nil
	case "relativeDayAndSecondDecode":
		packed, _ := arg(1).AsUint()
		s, err := relativeDayAndSecondDecode(arg(0).AsString(), packed)
		if err != nil {
			return runtimeErr(err)
		}
		return model.StrVal(s), nil

	case "relativeDayAndMillisecond":
		v, err := relativeDayAndMillisecondEncode(arg(0).AsString(), arg(1).AsString())
		if err != nil {
			return runtimeErr(err)
		}
		return model.UIntVal(v), nil
	case "relativeDayAndMillisecondDecode":
		packed, _ := arg(1).AsUint()
		s, err := relativeDayAndMillisecondDecode(arg(0).AsString(), packed)
		if err != nil {
			return runtimeErr(err)
		}
		return model.StrVal(s), nil

	case "relativeWeekAndSecond":
		v, err := relativeWeekAndSecondEncode(arg(0).AsString(), arg(1).AsString())
		if err != nil {
			return runtimeErr(err)
		}
		return model.UIntVal(v), nil
	case "relativeWeekAndSecondDecode":
		packed, _ := arg(1).AsUint()
		s, err := relativeWeekAndSecondDecode(arg(0).AsString(), packed)
		if err != nil {
			return runtimeErr(err)
		}
		return model.StrVal(s), nil

	case "relativeSecondAndMillisecond":
		v, err := relativeSecondAndMillisecondEncode(arg(0).AsString(), arg(1).AsString())
		if err != nil {
			return runtimeErr(err)
		}
		return model.UIntVal(v), nil
	case "relativeSecondAndMillisecondDecode":
		packed, _ := arg(1).AsUint()
		s, err := relativeSecondAndMillisecondDecode(arg(0).AsString(), packed)
		if err != nil {
			return runtimeErr(err)
		}
		return model.StrVal(s), nil

	case "relativeTenthMillisecond":
		v, err := relativeTenthMillisecondEncode(arg(0).AsString(), arg(1).AsString())
		if err != nil {
			return runtimeErr(err)
		}
		return model.UIntVal(v), nil
	case "relativeTenthMillisecondDecode":
		units, _ := arg(1).AsUint()
		s, err := relativeTenthMillisecondDecode(arg(0).AsString(), units)
		if err != nil {
			return runtimeErr(err)
		}
		return model.StrVal(s), nil
	}

	return model.Value{}, xerrors.New(xerrors.KindExpressionRuntime, xerrors.StageDerive, "", fmt.Errorf("unknown function %q", name))
}

func bytesArg(argNodes []*Node, i int, ctx Context) ([]byte, error) {
	if i >= len(argNodes) {
		return nil, fmt.Errorf("missing node-reference argument %d", i)
	}
	id, ok := nodeIDOf(argNodes[i])
	if !ok {
		return nil, fmt.Errorf("argument %d is not a node reference", i)
	}
	b, ok := ctx.Bytes(id)
	if !ok {
		return nil, fmt.Errorf("unresolved node reference %q", id)
	}
	return b, nil
}

func refPair(ref func(int) (string, error)) (string, string, error) {
	a, err := ref(0)
	if err != nil {
		return "", "", err
	}
	b, err := ref(1)
	if err != nil {
		return "", "", err
	}
	return a, b, nil
}

func unknownRef(id string) (model.Value, error) {
	return model.Value{}, xerrors.New(xerrors.KindUnknownReference, xerrors.StageDerive, id, fmt.Errorf("unresolved node reference %q", id))
}

func alignUp(v, boundary uint64) uint64 {
	if boundary == 0 {
		return v
	}
	rem := v % boundary
	if rem == 0 {
		return v
	}
	return v + (boundary - rem)
}
