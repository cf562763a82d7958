package codec

import "testing"

func TestWriterReaderRoundTripSubByte(t *testing.T) {
	w := NewWriter(16)
	if err := w.WriteBits(5, 3); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteBits(9, 5); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteBits(0xAA, 8); err != nil {
		t.Fatal(err)
	}
	b, err := w.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	if len(b) != 2 || b[0] != 0xA9 || b[1] != 0xAA {
		t.Fatalf("got %x want a9aa", b)
	}

	r := NewReader(b)
	v, err := r.ReadBits(3)
	if err != nil || v != 5 {
		t.Fatalf("got %d,%v want 5", v, err)
	}
	v, err = r.ReadBits(5)
	if err != nil || v != 9 {
		t.Fatalf("got %d,%v want 9", v, err)
	}
	v, err = r.ReadBits(8)
	if err != nil || v != 0xAA {
		t.Fatalf("got %x,%v want aa", v, err)
	}
}

func TestReaderOverrun(t *testing.T) {
	r := NewReader([]byte{0x01})
	if _, err := r.ReadBits(16); err == nil {
		t.Fatal("expected overrun error")
	}
}
