// Package codec implements the Bit-Level Codec of spec.md §4.4: reading
// and writing every primitive value type at arbitrary bit offsets, in
// either byte order, including padding and enum substitution.
//
// The stream primitives are built directly on github.com/icza/bitio,
// which is wired the same way in the retrieval pack
// (other_examples/2d43db1b_Consensys-compress__huffman-huffman.go.go uses
// bitio.Writer/bitio.Reader for arbitrary-width bit packing) — a natural
// fit for the Tree Finalizer's single left-to-right bit-position pass and
// the Derivation Driver's declaration-order codec pass, both strictly
// sequential.
package codec

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/icza/bitio"
)

// errOverrun is returned when a read would run past the end of the
// supplied byte buffer (spec.md §7: ErrorKind::BitStreamOverrun).
var errOverrun = errors.New("bit stream overrun")

// Writer is a sequential bit-level writer that tracks its own bit
// position so the codec can assert bit_buffer.position == node.start_bit
// (spec.md §4.4's public contract).
type Writer struct {
	buf *bytes.Buffer
	bw  *bitio.Writer
	pos int
}

// NewWriter allocates one bit buffer sized for a schema's total declared
// bits, released deterministically when Bytes() is called (spec.md §9:
// "a single encode/decode allocates one bit buffer ... No global buffers").
func NewWriter(totalBits int) *Writer {
	buf := bytes.NewBuffer(make([]byte, 0, (totalBits+7)/8))
	return &Writer{buf: buf, bw: bitio.NewWriter(buf)}
}

// Position returns the number of bits written so far.
func (w *Writer) Position() int { return w.pos }

// WriteBits appends the low n bits of v, MSB-first.
func (w *Writer) WriteBits(v uint64, n int) error {
	if n <= 0 {
		return nil
	}
	if n > 64 {
		return fmt.Errorf("bit width %d exceeds 64", n)
	}
	if err := w.bw.WriteBits(v, uint8(n)); err != nil {
		return fmt.Errorf("write %d bits at position %d: %w", n, w.pos, err)
	}
	w.pos += n
	return nil
}

// WriteBytes appends whole bytes, MSB-first (byte order already decided
// by the caller).
func (w *Writer) WriteBytes(b []byte) error {
	for _, by := range b {
		if err := w.WriteBits(uint64(by), 8); err != nil {
			return err
		}
	}
	return nil
}

// Bytes flushes any partial trailing byte with zero bits (spec.md §6.3:
// "If the last byte is under-filled the low bits are zero") and returns
// the encoded stream.
func (w *Writer) Bytes() ([]byte, error) {
	if err := w.bw.Close(); err != nil {
		return nil, fmt.Errorf("flush bit writer: %w", err)
	}
	return w.buf.Bytes(), nil
}

// Reader is a sequential bit-level reader over a complete byte buffer
// (spec.md §1 Non-goals: "No streaming").
type Reader struct {
	br    *bitio.Reader
	pos   int
	total int
}

// NewReader wraps data for sequential bit reads.
func NewReader(data []byte) *Reader {
	return &Reader{br: bitio.NewReader(bytes.NewReader(data)), total: len(data) * 8}
}

// Position returns the number of bits consumed so far.
func (r *Reader) Position() int { return r.pos }

// Remaining returns the number of unread bits in the buffer.
func (r *Reader) Remaining() int { return r.total - r.pos }

// ReadBits consumes and returns the next n bits, MSB-first.
func (r *Reader) ReadBits(n int) (uint64, error) {
	if n <= 0 {
		return 0, nil
	}
	if n > 64 {
		return 0, fmt.Errorf("bit width %d exceeds 64", n)
	}
	if n > r.Remaining() {
		return 0, fmt.Errorf("read %d bits at position %d: %w", n, r.pos, errOverrun)
	}
	v, err := r.br.ReadBits(uint8(n))
	if err != nil {
		return 0, fmt.Errorf("read %d bits at position %d: %w", n, r.pos, err)
	}
	r.pos += n
	return v, nil
}

// ReadBytes consumes n whole bytes.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		v, err := r.ReadBits(8)
		if err != nil {
			return nil, err
		}
		out[i] = byte(v)
	}
	return out, nil
}
