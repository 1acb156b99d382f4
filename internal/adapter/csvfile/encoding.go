package csvfile

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// decode converts raw file bytes to UTF-8 and reports the detected encoding.
// A BOM selects UTF-8 or UTF-16; otherwise invalid UTF-8 is read as Latin-1.
func decode(data []byte) ([]byte, string, error) {
	var enc string
	switch {
	case bytes.HasPrefix(data, bomUTF8):
		enc = "utf-8-bom"
	case bytes.HasPrefix(data, bomUTF16LE):
		enc = "utf-16le"
	case bytes.HasPrefix(data, bomUTF16BE):
		enc = "utf-16be"
	case utf8.Valid(data):
		return data, "utf-8", nil
	default:
		out, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
		if err != nil {
			return nil, "", fmt.Errorf("latin-1 decode: %w", err)
		}
		return out, "latin-1", nil
	}

	out, _, err := transform.Bytes(unicode.BOMOverride(transform.Nop), data)
	if err != nil {
		return nil, "", fmt.Errorf("%s decode: %w", enc, err)
	}
	return out, enc, nil
}
