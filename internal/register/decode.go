// internal/register/decode.go
package register

import (
	"fmt"
	"strings"
)

// DecodeError reports a raw payload whose geometry does not match its
// descriptor. Anything else that arrives malformed is the transport's
// problem, not ours.
type DecodeError struct {
	Name string
	Want int // words the descriptor occupies
	Got  int // words actually delivered
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("register %q: got %d words, descriptor spans %d", e.Name, e.Got, e.Want)
}

// ---- NOT-A-NUMBER SENTINELS ----
//
// A sleeping inverter answers reads with per-type sentinel values instead of
// refusing them. A sentinel means "no measurement right now", not an error.

const (
	nanS16        = 0x8000
	nanU16        = 0xFFFF
	nanS32        = 0x80000000
	nanU32        = 0xFFFFFFFF
	nanU32TagList = 0x00FFFFFD
)

// Decode converts raw register words into a measurement value.
//
// Pure and stateless: no I/O, no side effects. Word order is big-endian.
// The boolean is false when the device reported the type's not-a-number
// sentinel; the caller skips the measurement for the cycle.
func Decode(d Descriptor, words []uint16) (Value, bool, error) {
	if len(words) != int(d.Words) {
		return Value{}, false, &DecodeError{Name: d.Name, Want: int(d.Words), Got: len(words)}
	}

	switch d.Type {
	case S16:
		raw := words[0]
		if raw == nanS16 {
			return Value{}, false, nil
		}
		return numeric(d, float64(int16(raw))), true, nil

	case U16:
		raw := words[0]
		if raw == nanU16 {
			return Value{}, false, nil
		}
		return numeric(d, float64(raw)), true, nil

	case S32:
		raw := uint32(words[0])<<16 | uint32(words[1])
		if raw == nanS32 {
			return Value{}, false, nil
		}
		return numeric(d, float64(int32(raw))), true, nil

	case U32:
		raw := uint32(words[0])<<16 | uint32(words[1])
		if d.TagList {
			if raw == nanU32TagList {
				return Value{}, false, nil
			}
		} else if raw == nanU32 {
			return Value{}, false, nil
		}
		return numeric(d, float64(raw)), true, nil

	case U64:
		raw := uint64(words[0])<<48 | uint64(words[1])<<32 | uint64(words[2])<<16 | uint64(words[3])
		if raw == ^uint64(0) {
			return Value{}, false, nil
		}
		return numeric(d, float64(raw)), true, nil

	case STR:
		s := decodeText(words)
		if s == "" {
			return Value{}, false, nil
		}
		return Value{Text: s, IsText: true}, true, nil

	default:
		return Value{}, false, fmt.Errorf("register %q: unsupported data type %s", d.Name, d.Type)
	}
}

func numeric(d Descriptor, raw float64) Value {
	return Value{Num: raw * d.scale(), Prec: d.precision()}
}

// decodeText unpacks two ASCII bytes per word and trims at the first NUL.
func decodeText(words []uint16) string {
	b := make([]byte, 0, len(words)*2)
	for _, w := range words {
		b = append(b, byte(w>>8), byte(w))
	}
	if i := strings.IndexByte(string(b), 0); i >= 0 {
		b = b[:i]
	}
	return strings.TrimSpace(string(b))
}
