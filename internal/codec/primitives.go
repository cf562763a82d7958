package codec

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/scigolib/bitproto/internal/model"
)

// Write appends node's value at the writer's current position, asserting
// that position already equals node.StartBit (spec.md §4.4 public
// contract). The enum/range substitution of §4.4 is applied first.
func Write(node *model.Node, w *Writer) error {
	if w.Position() != node.StartBit {
		return fmt.Errorf("node %s: writer position %d != start bit %d", node.ID, w.Position(), node.StartBit)
	}
	return WriteValue(node, w)
}

// WriteValue serializes node's value as its wire form at w's current
// position, applying enum substitution first but without asserting
// against node.StartBit. Used to rebuild a node's or a node range's
// bytes on demand when no sequential main-stream writer is in play
// (finalize.EvalContext.Bytes/BytesBetween during encode).
func WriteValue(node *model.Node, w *Writer) error {
	raw, err := applyEnumEncode(node, node.Value)
	if err != nil {
		return err
	}
	return writeTyped(node, w, raw)
}

// Read consumes node.LengthBits bits at the reader's current position and
// returns the decoded Value, applying enum substitution on the way out.
func Read(node *model.Node, r *Reader) (model.Value, error) {
	if r.Position() != node.StartBit {
		return model.Value{}, fmt.Errorf("node %s: reader position %d != start bit %d", node.ID, r.Position(), node.StartBit)
	}
	v, err := readTyped(node, r)
	if err != nil {
		return model.Value{}, err
	}
	return applyEnumDecode(node, v), nil
}

func little(n *model.Node) bool { return n.Endian == model.Little }

func writeTyped(n *model.Node, w *Writer, v model.Value) error {
	switch n.Type.Kind {
	case model.TUint:
		raw, err := v.AsUint()
		if err != nil {
			return fmt.Errorf("node %s: %w", n.ID, err)
		}
		return writeEndianBits(w, raw, n.LengthBits, little(n))

	case model.TInt:
		raw, err := v.AsInt()
		if err != nil {
			return fmt.Errorf("node %s: %w", n.ID, err)
		}
		mask := uint64(1)<<uint(n.LengthBits) - 1
		if n.LengthBits == 64 {
			mask = ^uint64(0)
		}
		return writeEndianBits(w, uint64(raw)&mask, n.LengthBits, little(n))

	case model.TFloat32:
		f, err := v.AsFloat()
		if err != nil {
			return fmt.Errorf("node %s: %w", n.ID, err)
		}
		return writeEndianBits(w, uint64(math.Float32bits(float32(f))), 32, little(n))

	case model.TFloat64:
		f, err := v.AsFloat()
		if err != nil {
			return fmt.Errorf("node %s: %w", n.ID, err)
		}
		return writeEndianBits(w, math.Float64bits(f), 64, little(n))

	case model.THex:
		b, err := hexBytesOf(v, n.ByteLength())
		if err != nil {
			return fmt.Errorf("node %s: %w", n.ID, err)
		}
		return w.WriteBytes(b)

	case model.TString:
		b, err := encodeString(n.Type.Charset, v.AsString())
		if err != nil {
			return fmt.Errorf("node %s: %w", n.ID, err)
		}
		target := n.ByteLength()
		if len(b) > target {
			b = b[:target]
		} else if len(b) < target {
			padded := make([]byte, target)
			copy(padded, b)
			b = padded
		}
		return w.WriteBytes(b)

	case model.TBit:
		raw, err := bitLiteralToUint(v)
		if err != nil {
			return fmt.Errorf("node %s: %w", n.ID, err)
		}
		return w.WriteBits(raw, n.LengthBits)

	case model.TBcd:
		digits := v.AsString()
		return writeBCD(w, digits, n.LengthBits)

	case model.TBoolean:
		b, err := v.AsBool()
		if err != nil {
			return fmt.Errorf("node %s: %w", n.ID, err)
		}
		var bit uint64
		if b {
			bit = 1
		}
		return w.WriteBits(bit, 1)

	default:
		return fmt.Errorf("node %s: unsupported value type", n.ID)
	}
}

func readTyped(n *model.Node, r *Reader) (model.Value, error) {
	switch n.Type.Kind {
	case model.TUint:
		raw, err := readEndianBits(r, n.LengthBits, little(n))
		if err != nil {
			return model.Value{}, fmt.Errorf("node %s: %w", n.ID, err)
		}
		return model.UIntVal(raw), nil

	case model.TInt:
		raw, err := readEndianBits(r, n.LengthBits, little(n))
		if err != nil {
			return model.Value{}, fmt.Errorf("node %s: %w", n.ID, err)
		}
		return model.IntVal(signExtend(raw, n.LengthBits)), nil

	case model.TFloat32:
		raw, err := readEndianBits(r, 32, little(n))
		if err != nil {
			return model.Value{}, fmt.Errorf("node %s: %w", n.ID, err)
		}
		return model.FloatVal(float64(math.Float32frombits(uint32(raw)))), nil

	case model.TFloat64:
		raw, err := readEndianBits(r, 64, little(n))
		if err != nil {
			return model.Value{}, fmt.Errorf("node %s: %w", n.ID, err)
		}
		return model.FloatVal(math.Float64frombits(raw)), nil

	case model.THex:
		b, err := r.ReadBytes(n.ByteLength())
		if err != nil {
			return model.Value{}, fmt.Errorf("node %s: %w", n.ID, err)
		}
		return model.StrVal(strings.ToUpper(fmt.Sprintf("%x", b))), nil

	case model.TString:
		b, err := r.ReadBytes(n.ByteLength())
		if err != nil {
			return model.Value{}, fmt.Errorf("node %s: %w", n.ID, err)
		}
		b = trimTrailingZero(b)
		s, err := decodeString(n.Type.Charset, b)
		if err != nil {
			return model.Value{}, fmt.Errorf("node %s: %w", n.ID, err)
		}
		return model.StrVal(s), nil

	case model.TBit:
		raw, err := r.ReadBits(n.LengthBits)
		if err != nil {
			return model.Value{}, fmt.Errorf("node %s: %w", n.ID, err)
		}
		return model.StrVal(fmt.Sprintf("%0*b", n.LengthBits, raw)), nil

	case model.TBcd:
		s, err := readBCD(r, n.LengthBits)
		if err != nil {
			return model.Value{}, fmt.Errorf("node %s: %w", n.ID, err)
		}
		return model.StrVal(s), nil

	case model.TBoolean:
		raw, err := r.ReadBits(1)
		if err != nil {
			return model.Value{}, fmt.Errorf("node %s: %w", n.ID, err)
		}
		return model.BoolVal(raw != 0), nil

	default:
		return model.Value{}, fmt.Errorf("node %s: unsupported value type", n.ID)
	}
}

func signExtend(raw uint64, width int) int64 {
	if width >= 64 {
		return int64(raw)
	}
	signBit := uint64(1) << uint(width-1)
	if raw&signBit != 0 {
		raw |= ^uint64(0) << uint(width)
	}
	return int64(raw)
}

// hexBytesOf packs v into targetLen big-endian bytes for a THex field.
// A textual value (a hex-literal schema default, or a value round-
// tripped through decode) is parsed as hex digits; a numeric value (a
// checksum or other fwd_expr result, which the expression engine always
// returns as an integer Value regardless of the destination field's
// declared type) is packed directly from its integer form instead —
// treating it as hex text would reinterpret its decimal digits as hex
// digits and silently produce the wrong bytes.
func hexBytesOf(v model.Value, targetLen int) ([]byte, error) {
	if v.Kind == model.KindStr {
		return hexToBytes(v.Str, targetLen)
	}
	u, err := v.AsUint()
	if err != nil {
		return nil, fmt.Errorf("value %v is neither hex text nor a number: %w", v.AsString(), err)
	}
	out := make([]byte, targetLen)
	for i := targetLen - 1; i >= 0 && u != 0; i-- {
		out[i] = byte(u)
		u >>= 8
	}
	return out, nil
}

func hexToBytes(s string, targetLen int) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s)%2 != 0 {
		s = "0" + s
	}
	raw, err := decodeHexString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex %q: %w", s, err)
	}
	if len(raw) > targetLen {
		return raw[len(raw)-targetLen:], nil
	}
	if len(raw) < targetLen {
		padded := make([]byte, targetLen)
		copy(padded[targetLen-len(raw):], raw)
		return padded, nil
	}
	return raw, nil
}

func decodeHexString(s string) ([]byte, error) {
	out := make([]byte, len(s)/2)
	for i := 0; i < len(out); i++ {
		b, err := strconv.ParseUint(s[i*2:i*2+2], 16, 8)
		if err != nil {
			return nil, err
		}
		out[i] = byte(b)
	}
	return out, nil
}

func trimTrailingZero(b []byte) []byte {
	end := len(b)
	for end > 0 && b[end-1] == 0 {
		end--
	}
	return b[:end]
}

func bitLiteralToUint(v model.Value) (uint64, error) {
	if v.Kind == model.KindStr {
		s := strings.TrimPrefix(strings.TrimPrefix(v.Str, "0b"), "0B")
		n, err := strconv.ParseUint(s, 2, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid BIT literal %q: %w", v.Str, err)
		}
		return n, nil
	}
	return v.AsUint()
}

func writeBCD(w *Writer, digits string, widthBits int) error {
	nDigits := widthBits / 4
	digits = strings.Repeat("0", maxInt(0, nDigits-len(digits))) + digits
	if len(digits) > nDigits {
		digits = digits[len(digits)-nDigits:]
	}
	for _, c := range digits {
		d := c - '0'
		if d > 9 {
			return fmt.Errorf("invalid BCD digit %q", c)
		}
		if err := w.WriteBits(uint64(d), 4); err != nil {
			return err
		}
	}
	return nil
}

func readBCD(r *Reader, widthBits int) (string, error) {
	nDigits := widthBits / 4
	var sb strings.Builder
	for i := 0; i < nDigits; i++ {
		v, err := r.ReadBits(4)
		if err != nil {
			return "", err
		}
		sb.WriteByte(byte('0' + v))
	}
	return sb.String(), nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
