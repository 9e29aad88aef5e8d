package marshal

import (
	"fmt"
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"

	"github.com/wippyai/jni-bridge/errors"
)

// Encoding selects the native text encoding of strings.
type Encoding uint8

const (
	EncodingModifiedUTF8 Encoding = iota
	EncodingUTF16
)

func (e Encoding) String() string {
	switch e {
	case EncodingModifiedUTF8:
		return "mutf8"
	case EncodingUTF16:
		return "utf16"
	}
	return fmt.Sprintf("encoding(%d)", uint8(e))
}

// ParseEncoding maps a configuration name to an Encoding.
func ParseEncoding(name string) (Encoding, error) {
	switch name {
	case "", "mutf8", "modified-utf8":
		return EncodingModifiedUTF8, nil
	case "utf16", "utf-16", "utf16le":
		return EncodingUTF16, nil
	}
	return 0, errors.InvalidInput(errors.PhaseMarshal, fmt.Sprintf("unknown string encoding %q", name))
}

// utf16le has no BOM on either side; lengths are explicit.
var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// Encode converts a managed string to native bytes. The returned length is
// in the encoding's units: bytes for modified UTF-8, code units for UTF-16.
func (e Encoding) Encode(s string) ([]byte, uint32, error) {
	if !utf8.ValidString(s) {
		return nil, 0, errors.InvalidInput(errors.PhaseMarshal, "string is not valid UTF-8")
	}
	switch e {
	case EncodingUTF16:
		b, err := utf16le.NewEncoder().Bytes([]byte(s))
		if err != nil {
			return nil, 0, errors.Wrap(errors.PhaseMarshal, errors.KindInvalidInput, err, "utf-16 encode")
		}
		return b, uint32(len(b) / 2), nil
	default:
		b := encodeModifiedUTF8(s)
		return b, uint32(len(b)), nil
	}
}

// Decode converts native bytes back to a managed string.
func (e Encoding) Decode(b []byte) (string, error) {
	switch e {
	case EncodingUTF16:
		if len(b)%2 != 0 {
			return "", errors.InvalidInput(errors.PhaseMarshal, fmt.Sprintf("odd utf-16 byte length %d", len(b)))
		}
		out, err := utf16le.NewDecoder().Bytes(b)
		if err != nil {
			return "", errors.Wrap(errors.PhaseMarshal, errors.KindInvalidInput, err, "utf-16 decode")
		}
		return string(out), nil
	default:
		return decodeModifiedUTF8(b)
	}
}

// unitSize is the byte width of one length unit.
func (e Encoding) unitSize() uint32 {
	if e == EncodingUTF16 {
		return 2
	}
	return 1
}

func encodeModifiedUTF8(s string) []byte {
	out := make([]byte, 0, len(s)+4)
	for _, r := range s {
		switch {
		case r == 0:
			out = append(out, 0xC0, 0x80)
		case r < 0x80:
			out = append(out, byte(r))
		case r < 0x800:
			out = append(out, 0xC0|byte(r>>6), 0x80|byte(r&0x3F))
		case r < 0x10000:
			out = appendUnit3(out, r)
		default:
			hi, lo := utf16.EncodeRune(r)
			out = appendUnit3(out, hi)
			out = appendUnit3(out, lo)
		}
	}
	return out
}

func appendUnit3(out []byte, r rune) []byte {
	return append(out, 0xE0|byte(r>>12), 0x80|byte((r>>6)&0x3F), 0x80|byte(r&0x3F))
}

// decodeModifiedUTF8 accepts the 1, 2 and 3 byte forms. Surrogate pairs
// are joined; a lone surrogate decodes to U+FFFD as the UTF-16 decoder
// does.
func decodeModifiedUTF8(b []byte) (string, error) {
	units := make([]uint16, 0, len(b))
	for i := 0; i < len(b); {
		c := b[i]
		switch {
		case c == 0:
			return "", errors.InvalidInput(errors.PhaseMarshal, fmt.Sprintf("raw NUL at byte %d", i))
		case c < 0x80:
			units = append(units, uint16(c))
			i++
		case c&0xE0 == 0xC0:
			if i+1 >= len(b) || b[i+1]&0xC0 != 0x80 {
				return "", truncated(i)
			}
			units = append(units, uint16(c&0x1F)<<6|uint16(b[i+1]&0x3F))
			i += 2
		case c&0xF0 == 0xE0:
			if i+2 >= len(b) || b[i+1]&0xC0 != 0x80 || b[i+2]&0xC0 != 0x80 {
				return "", truncated(i)
			}
			units = append(units, uint16(c&0x0F)<<12|uint16(b[i+1]&0x3F)<<6|uint16(b[i+2]&0x3F))
			i += 3
		default:
			return "", errors.InvalidInput(errors.PhaseMarshal, fmt.Sprintf("invalid modified UTF-8 lead byte 0x%02x at %d", c, i))
		}
	}
	return string(utf16.Decode(units)), nil
}

func truncated(at int) error {
	return errors.InvalidInput(errors.PhaseMarshal, fmt.Sprintf("truncated modified UTF-8 sequence at byte %d", at))
}
