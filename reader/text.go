package reader

import (
	"bytes"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

var utf16BOM = []byte{0xfe, 0xff}

// DecodeText decodes a PDF text string: UTF-16BE when it starts with a
// byte order mark, PDFDocEncoding otherwise. PDFDocEncoding agrees with
// Latin-1 on every printable character a form value is likely to hold.
func DecodeText(b []byte) string {
	if bytes.HasPrefix(b, utf16BOM) {
		out, err := unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder().Bytes(b)
		if err == nil {
			return string(out)
		}
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(out)
}

// EncodeText encodes s as a PDF text string, using single bytes when s is
// representable in Latin-1 and UTF-16BE with a byte order mark otherwise.
func EncodeText(s string) []byte {
	if out, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(s)); err == nil {
		return out
	}
	out, err := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewEncoder().Bytes([]byte(s))
	if err != nil {
		return []byte(s)
	}
	return out
}
