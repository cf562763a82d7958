package expr

import (
	"encoding/base64"
	"fmt"
	"net"
	"strconv"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/simplifiedchinese"
)

func ipToHex(s string) (string, error) {
	ip := net.ParseIP(s).To4()
	if ip == nil {
		return "", fmt.Errorf("invalid IPv4 address %q", s)
	}
	return strings.ToUpper(hexString(ip)), nil
}

func hexToIP(s string) (string, error) {
	b, err := hexDecode(s)
	if err != nil || len(b) != 4 {
		return "", fmt.Errorf("invalid IPv4 hex %q", s)
	}
	return net.IP(b).String(), nil
}

func macToHex(s string) (string, error) {
	hw, err := net.ParseMAC(s)
	if err != nil {
		return "", fmt.Errorf("invalid MAC address %q: %w", s, err)
	}
	return strings.ToUpper(hexString(hw)), nil
}

func hexToMAC(s string) (string, error) {
	b, err := hexDecode(s)
	if err != nil || len(b) != 6 {
		return "", fmt.Errorf("invalid MAC hex %q", s)
	}
	parts := make([]string, 6)
	for i, c := range b {
		parts[i] = fmt.Sprintf("%02x", c)
	}
	return strings.Join(parts, ":"), nil
}

func hexDecode(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s)%2 != 0 {
		s = "0" + s
	}
	out := make([]byte, len(s)/2)
	for i := range out {
		v, err := strconv.ParseUint(s[i*2:i*2+2], 16, 8)
		if err != nil {
			return nil, err
		}
		out[i] = byte(v)
	}
	return out, nil
}

func charsetFor(name string) (encoding.Encoding, error) {
	switch strings.ToLower(name) {
	case "", "utf-8", "utf8":
		return nil, nil
	case "gbk":
		return simplifiedchinese.GBK, nil
	case "gb18030":
		return simplifiedchinese.GB18030, nil
	case "shift_jis", "sjis":
		return japanese.ShiftJIS, nil
	case "iso-8859-1", "latin1":
		return charmap.ISO8859_1, nil
	default:
		return nil, fmt.Errorf("unsupported charset %q", name)
	}
}

func charsetEncode(s, charset string) (string, error) {
	enc, err := charsetFor(charset)
	if err != nil {
		return "", err
	}
	if enc == nil {
		return strings.ToUpper(hexString([]byte(s))), nil
	}
	out, err := enc.NewEncoder().String(s)
	if err != nil {
		return "", err
	}
	return strings.ToUpper(hexString([]byte(out))), nil
}

func charsetDecode(hexOrRaw, charset string) (string, error) {
	b, err := hexDecode(hexOrRaw)
	if err != nil {
		return "", err
	}
	enc, err := charsetFor(charset)
	if err != nil {
		return "", err
	}
	if enc == nil {
		return string(b), nil
	}
	return enc.NewDecoder().String(string(b))
}

func base64EncodeStr(s string) string { return base64.StdEncoding.EncodeToString([]byte(s)) }

func base64DecodeStr(s string) (string, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func toBCDString(n uint64) string { return strconv.FormatUint(n, 10) }

func fromBCDString(digits string) (uint64, error) {
	return strconv.ParseUint(digits, 10, 64)
}
