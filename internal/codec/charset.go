package codec

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"
)

// charsetEncoding resolves a schema-declared STRING charset name to a
// golang.org/x/text encoding. UTF-8 (the default) needs no conversion;
// everything else goes through x/text rather than a hand-rolled codepage
// table — the teacher never needs non-UTF-8 strings, but
// opal-lang-opal/runtime's go.mod already pulls golang.org/x/text in
// transitively, so STRING charset handling wires it in directly instead
// of leaving it unused.
func charsetEncoding(charset string) (encoding.Encoding, error) {
	switch strings.ToLower(charset) {
	case "", "utf-8", "utf8":
		return nil, nil // nil means "raw bytes, no conversion"
	case "gbk":
		return simplifiedchinese.GBK, nil
	case "gb18030":
		return simplifiedchinese.GB18030, nil
	case "shift_jis", "sjis":
		return japanese.ShiftJIS, nil
	case "iso-8859-1", "latin1":
		return charmap.ISO8859_1, nil
	case "utf-16le":
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM), nil
	case "utf-16be":
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM), nil
	default:
		return nil, fmt.Errorf("unsupported charset %q", charset)
	}
}

// encodeString turns a decoded string into wire bytes per charset.
func encodeString(charset, s string) ([]byte, error) {
	enc, err := charsetEncoding(charset)
	if err != nil {
		return nil, err
	}
	if enc == nil {
		return []byte(s), nil
	}
	out, err := enc.NewEncoder().String(s)
	if err != nil {
		return nil, fmt.Errorf("encode charset %q: %w", charset, err)
	}
	return []byte(out), nil
}

// decodeString turns wire bytes into a string per charset.
func decodeString(charset string, b []byte) (string, error) {
	enc, err := charsetEncoding(charset)
	if err != nil {
		return "", err
	}
	if enc == nil {
		return string(b), nil
	}
	out, err := enc.NewDecoder().String(string(b))
	if err != nil {
		return "", fmt.Errorf("decode charset %q: %w", charset, err)
	}
	return out, nil
}
