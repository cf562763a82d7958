package codec

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/scigolib/bitproto/internal/model"
)

// PassRNG is the cryptographically non-sensitive PRNG spec.md §4.4
// describes for the padding fill function random(): "seeded once per
// pass." One PassRNG is created per Derivation Driver invocation and
// threaded through every padding application in that pass.
type PassRNG struct{ r *rand.Rand }

// NewPassRNG seeds a PassRNG once, at the start of an encode pass.
func NewPassRNG() *PassRNG {
	return &PassRNG{r: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (p *PassRNG) nextByte() byte { return byte(p.r.Intn(256)) }

// FillResolver produces the fill byte(s) for a padding region. node-
// referencing fill expressions (e.g. crc8-style checksums over sibling
// nodes) are delegated to the Expression Engine via EvalExpr; "random()"
// and bare hex literals are resolved locally since they are codec-level
// concerns, not general pure expressions (spec.md §4.4 vs §4.3).
type FillResolver struct {
	RNG      *PassRNG
	EvalExpr func(expr string) (model.Value, error)
}

// resolveFillByte returns the single byte value a PaddingSpec.Fill
// expression produces, used to repeat-fill a padding region.
func (fr *FillResolver) resolveFillByte(fill string) (byte, error) {
	fill = strings.TrimSpace(fill)
	switch {
	case fill == "" :
		return 0x00, nil
	case fill == "random()":
		if fr.RNG == nil {
			return 0, fmt.Errorf("random() fill requested without a seeded PassRNG")
		}
		return fr.RNG.nextByte(), nil
	case strings.HasPrefix(fill, "0x") || strings.HasPrefix(fill, "0X"):
		n, err := strconv.ParseUint(fill[2:], 16, 8)
		if err != nil {
			return 0, fmt.Errorf("invalid fill literal %q: %w", fill, err)
		}
		return byte(n), nil
	default:
		if fr.EvalExpr == nil {
			return 0, fmt.Errorf("fill expression %q requires an expression evaluator", fill)
		}
		v, err := fr.EvalExpr(fill)
		if err != nil {
			return 0, fmt.Errorf("evaluate fill expression %q: %w", fill, err)
		}
		u, err := v.AsUint()
		if err != nil {
			return 0, fmt.Errorf("fill expression %q did not produce a byte value: %w", fill, err)
		}
		return byte(u), nil
	}
}

// PaddingTargetBits resolves the absolute bit length spec describes
// padding out to, without writing anything. ApplyPadding, SkipPadding,
// and the Tree Finalizer's encode-side space reservation all derive the
// same target from this one calculation, so a container's reserved
// length and its eventual written length can never drift apart.
func PaddingTargetBits(spec *model.PaddingSpec, currentBits, parentDeclaredBits int, fr *FillResolver) (int, bool, error) {
	if spec == nil {
		return currentBits, false, nil
	}
	if spec.Kind == model.PadDynamic && spec.ConditionExpr != "" {
		if fr.EvalExpr == nil {
			return 0, false, fmt.Errorf("dynamic padding condition requires an expression evaluator")
		}
		v, err := fr.EvalExpr(spec.ConditionExpr)
		if err != nil {
			return 0, false, fmt.Errorf("evaluate padding condition %q: %w", spec.ConditionExpr, err)
		}
		ok, err := v.AsBool()
		if err != nil {
			return 0, false, fmt.Errorf("padding condition %q did not produce a boolean: %w", spec.ConditionExpr, err)
		}
		if !ok {
			return currentBits, false, nil
		}
	}

	var targetBits int
	switch spec.Kind {
	case model.PadFixedLength:
		targetBits = spec.TargetBytes * 8
	case model.PadAlignment:
		boundary := spec.BoundaryBytes * 8
		if boundary <= 0 {
			return 0, false, fmt.Errorf("alignment padding boundary must be positive")
		}
		rem := currentBits % boundary
		if rem == 0 {
			return currentBits, false, nil
		}
		targetBits = currentBits + (boundary - rem)
	case model.PadFillContainer:
		targetBits = spec.ContainerBits
	case model.PadDynamic:
		if fr.EvalExpr == nil {
			return 0, false, fmt.Errorf("dynamic padding length requires an expression evaluator")
		}
		v, err := fr.EvalExpr(spec.LengthExpr)
		if err != nil {
			return 0, false, fmt.Errorf("evaluate padding length %q: %w", spec.LengthExpr, err)
		}
		lenBits, err := v.AsUint()
		if err != nil {
			return 0, false, fmt.Errorf("padding length %q did not produce a number: %w", spec.LengthExpr, err)
		}
		targetBits = currentBits + int(lenBits)
	case model.PadFillRemaining:
		targetBits = parentDeclaredBits
	default:
		return 0, false, fmt.Errorf("unknown padding kind %v", spec.Kind)
	}
	return targetBits, true, nil
}

// ApplyPadding writes the padding bits spec describes, given the number
// of bits already written in the enclosing container and (for
// FILL_REMAINING) that container's own declared length.
func ApplyPadding(w *Writer, spec *model.PaddingSpec, currentBits, parentDeclaredBits int, fr *FillResolver) error {
	targetBits, active, err := PaddingTargetBits(spec, currentBits, parentDeclaredBits, fr)
	if err != nil {
		return err
	}
	if !active {
		return nil
	}

	padBits := targetBits - currentBits
	if padBits < 0 {
		return fmt.Errorf("padding target %d bits is smaller than current length %d bits", targetBits, currentBits)
	}
	if padBits == 0 {
		return nil
	}

	fillByte, err := fr.resolveFillByte(spec.Fill)
	if err != nil {
		return err
	}
	for padBits >= 8 {
		if err := w.WriteBits(uint64(fillByte), 8); err != nil {
			return err
		}
		padBits -= 8
	}
	if padBits > 0 {
		if err := w.WriteBits(uint64(fillByte)>>uint(8-padBits), padBits); err != nil {
			return err
		}
	}
	return nil
}

// SkipPadding advances a Reader past a padding region during decode,
// using the same target-length resolution as ApplyPadding (the fill
// content itself is discarded on read).
func SkipPadding(r *Reader, spec *model.PaddingSpec, currentBits, parentDeclaredBits int, fr *FillResolver) error {
	targetBits, active, err := PaddingTargetBits(spec, currentBits, parentDeclaredBits, fr)
	if err != nil {
		return err
	}
	if !active {
		return nil
	}

	padBits := targetBits - currentBits
	if padBits <= 0 {
		return nil
	}
	_, err = r.ReadBits(minInt(padBits, 64))
	for padBits > 64 && err == nil {
		padBits -= 64
		_, err = r.ReadBits(minInt(padBits, 64))
	}
	return err
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
