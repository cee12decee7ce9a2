// internal/register/types.go
package register

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// DataType identifies the on-wire representation of a register value.
// Word order is always big-endian (most significant word first).
type DataType uint8

const (
	S16 DataType = iota // signed 16-bit, 1 word
	U16                 // unsigned 16-bit, 1 word
	S32                 // signed 32-bit, 2 words
	U32                 // unsigned 32-bit, 2 words
	U64                 // unsigned 64-bit, 4 words
	STR                 // ASCII text, descriptor-defined width
)

// Words returns the fixed register footprint of the type.
// STR has no fixed footprint and returns 0.
func (t DataType) Words() uint16 {
	switch t {
	case S16, U16:
		return 1
	case S32, U32:
		return 2
	case U64:
		return 4
	default:
		return 0
	}
}

func (t DataType) String() string {
	switch t {
	case S16:
		return "s16"
	case U16:
		return "u16"
	case S32:
		return "s32"
	case U32:
		return "u32"
	case U64:
		return "u64"
	case STR:
		return "str"
	default:
		return fmt.Sprintf("datatype(%d)", uint8(t))
	}
}

// ParseDataType maps a config string onto a DataType.
func ParseDataType(s string) (DataType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "s16", "int16":
		return S16, nil
	case "u16", "uint16":
		return U16, nil
	case "s32", "int32":
		return S32, nil
	case "u32", "uint32":
		return U32, nil
	case "u64", "uint64":
		return U64, nil
	case "str", "string":
		return STR, nil
	default:
		return 0, fmt.Errorf("register: unknown data type %q", s)
	}
}

// Descriptor is one entry of the measurement table: where a value lives on
// the device and how to turn it into a number.
type Descriptor struct {
	Name    string  // measurement name, also the topic suffix
	Address uint16  // register address
	Words   uint16  // contiguous registers occupied
	Type    DataType
	Scale   float64 // multiplier applied to the raw value; 0 means 1
	Unit    string  // engineering unit for humans and discovery

	// Home Assistant discovery hints. Empty is fine.
	DeviceClass string
	StateClass  string

	// TagList marks U32 enum registers, which use a different
	// not-a-number sentinel than plain U32 counters.
	TagList bool
}

// scale returns the effective multiplier.
func (d Descriptor) scale() float64 {
	if d.Scale == 0 {
		return 1
	}
	return d.Scale
}

// precision returns the payload decimals implied by the scale. The vendor's
// FIXn convention means "n decimal places", so a 0.01 scale renders with two.
// Scales that are not a power of ten render shortest (-1).
func (d Descriptor) precision() int {
	switch d.scale() {
	case 1:
		return 0
	case 0.1:
		return 1
	case 0.01:
		return 2
	case 0.001:
		return 3
	case 0.0001:
		return 4
	}
	return -1
}

// Value is one decoded measurement.
type Value struct {
	Num    float64
	Prec   int // payload decimals; -1 means shortest round-trip form
	Text   string
	IsText bool
}

// String renders the value the way it goes on the wire as an MQTT payload.
func (v Value) String() string {
	if v.IsText {
		return v.Text
	}
	return strconv.FormatFloat(v.Num, 'f', v.Prec, 64)
}

// Any returns the value as the type encoding/json should see. Numbers go
// out as json.Number so the JSON form matches the plain payload form.
func (v Value) Any() any {
	if v.IsText {
		return v.Text
	}
	return json.Number(v.String())
}
