package document

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
)

// Encoding names a supported source encoding.
type Encoding string

const (
	EncodingAuto    Encoding = ""
	EncodingUTF8    Encoding = "utf-8"
	EncodingUTF16LE Encoding = "utf-16le"
	EncodingUTF16BE Encoding = "utf-16be"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// ParseEncoding accepts the names used in recipes. Empty means auto-detect.
func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return EncodingAuto, nil
	case "utf-8", "utf8":
		return EncodingUTF8, nil
	case "utf-16le", "utf16le":
		return EncodingUTF16LE, nil
	case "utf-16be", "utf16be":
		return EncodingUTF16BE, nil
	}
	return EncodingAuto, fmt.Errorf("unsupported encoding %q (valid: utf-8, utf-16le, utf-16be)", s)
}

// sniff reports the encoding implied by a leading byte order mark.
func sniff(data []byte) (Encoding, bool) {
	switch {
	case bytes.HasPrefix(data, bomUTF8):
		return EncodingUTF8, true
	case bytes.HasPrefix(data, bomUTF16LE):
		return EncodingUTF16LE, true
	case bytes.HasPrefix(data, bomUTF16BE):
		return EncodingUTF16BE, true
	}
	return EncodingUTF8, false
}

// codec returns the x/text encoding for e, or nil for BOM-less UTF-8 which is
// passed through byte for byte.
func (e Encoding) codec(bom bool) encoding.Encoding {
	policy := unicode.IgnoreBOM
	if bom {
		policy = unicode.UseBOM
	}
	switch e {
	case EncodingUTF16LE:
		return unicode.UTF16(unicode.LittleEndian, policy)
	case EncodingUTF16BE:
		return unicode.UTF16(unicode.BigEndian, policy)
	}
	if bom {
		return unicode.UTF8BOM
	}
	return nil
}

func decode(data []byte, forced Encoding) (string, Encoding, bool, error) {
	enc, bom := sniff(data)
	if forced != EncodingAuto {
		if bom && forced != enc {
			return "", "", false, fmt.Errorf("byte order mark says %s, recipe says %s", enc, forced)
		}
		enc = forced
	}

	c := enc.codec(bom)
	if c == nil {
		return string(data), enc, bom, nil
	}
	out, err := c.NewDecoder().Bytes(data)
	if err != nil {
		return "", "", false, fmt.Errorf("decode %s: %w", enc, err)
	}
	return string(out), enc, bom, nil
}

func encode(text string, enc Encoding, bom bool) ([]byte, error) {
	c := enc.codec(bom)
	if c == nil {
		return []byte(text), nil
	}
	out, err := c.NewEncoder().Bytes([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", enc, err)
	}
	return out, nil
}
