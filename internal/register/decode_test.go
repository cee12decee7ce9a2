// internal/register/decode_test.go
package register

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---- word builders ----

func w16(v uint16) []uint16 { return []uint16{v} }

func w32(v uint32) []uint16 { return []uint16{uint16(v >> 16), uint16(v)} }

func w64(v uint64) []uint16 {
	return []uint16{uint16(v >> 48), uint16(v >> 32), uint16(v >> 16), uint16(v)}
}

func wstr(s string, words int) []uint16 {
	b := make([]byte, words*2)
	copy(b, s)
	out := make([]uint16, words)
	for i := range out {
		out[i] = uint16(b[2*i])<<8 | uint16(b[2*i+1])
	}
	return out
}

// ---- tests ----

func TestDecode_RoundTrip(t *testing.T) {
	cases := []struct {
		name  string
		d     Descriptor
		words []uint16
		want  float64
	}{
		{"s16 negative", Descriptor{Name: "m", Words: 1, Type: S16}, w16(uint16(0xFF85)), -123},
		{"s16 tenths", Descriptor{Name: "m", Words: 1, Type: S16, Scale: 0.1}, w16(217), 21.7},
		{"u16 hundredths", Descriptor{Name: "m", Words: 1, Type: U16, Scale: 0.01}, w16(499), 4.99},
		{"s32 hundredths", Descriptor{Name: "m", Words: 2, Type: S32, Scale: 0.01}, w32(123456), 1234.56},
		{"s32 negative", Descriptor{Name: "m", Words: 2, Type: S32}, w32(uint32(0xFFFFFFD0)), -48},
		{"s32 tenths", Descriptor{Name: "m", Words: 2, Type: S32, Scale: 0.1}, w32(453), 45.3},
		{"u32 hundredths", Descriptor{Name: "m", Words: 2, Type: U32, Scale: 0.01}, w32(23012), 230.12},
		{"u32 tag value", Descriptor{Name: "m", Words: 2, Type: U32, TagList: true}, w32(307), 307},
		{"u64 counter", Descriptor{Name: "m", Words: 4, Type: U64}, w64(3604812), 3604812},
		{"u64 thousandths", Descriptor{Name: "m", Words: 4, Type: U64, Scale: 0.001}, w64(123456789), 123456.789},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v, ok, err := Decode(tc.d, tc.words)
			require.NoError(t, err)
			require.True(t, ok)
			assert.False(t, v.IsText)
			assert.InDelta(t, tc.want, v.Num, 1e-9)
		})
	}
}

func TestDecode_PowerHundredths(t *testing.T) {
	d := Descriptor{Name: "ac_power", Address: 30775, Words: 2, Type: S32, Scale: 0.01}

	v, ok, err := Decode(d, []uint16{0x0001, 0xE240}) // 123456
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 1234.56, v.Num, 1e-9)
	assert.Equal(t, "1234.56", v.String())
}

func TestDecode_LengthMismatch(t *testing.T) {
	cases := []struct {
		name  string
		d     Descriptor
		words []uint16
	}{
		{"short s32", Descriptor{Name: "m", Words: 2, Type: S32}, w16(1)},
		{"long s32", Descriptor{Name: "m", Words: 2, Type: S32}, []uint16{1, 2, 3}},
		{"short u64", Descriptor{Name: "m", Words: 4, Type: U64}, w32(1)},
		{"empty s16", Descriptor{Name: "m", Words: 1, Type: S16}, nil},
		{"short text", Descriptor{Name: "m", Words: 8, Type: STR}, wstr("x", 4)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, ok, err := Decode(tc.d, tc.words)
			require.Error(t, err)
			assert.False(t, ok)

			var de *DecodeError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, int(tc.d.Words), de.Want)
			assert.Equal(t, len(tc.words), de.Got)
		})
	}
}

func TestDecode_NotANumberSentinels(t *testing.T) {
	cases := []struct {
		name  string
		d     Descriptor
		words []uint16
	}{
		{"s16", Descriptor{Name: "m", Words: 1, Type: S16}, w16(0x8000)},
		{"u16", Descriptor{Name: "m", Words: 1, Type: U16}, w16(0xFFFF)},
		{"s32", Descriptor{Name: "m", Words: 2, Type: S32}, w32(0x80000000)},
		{"u32", Descriptor{Name: "m", Words: 2, Type: U32}, w32(0xFFFFFFFF)},
		{"u32 tag list", Descriptor{Name: "m", Words: 2, Type: U32, TagList: true}, w32(0x00FFFFFD)},
		{"u64", Descriptor{Name: "m", Words: 4, Type: U64}, w64(^uint64(0))},
		{"text all nul", Descriptor{Name: "m", Words: 8, Type: STR}, make([]uint16, 8)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, ok, err := Decode(tc.d, tc.words)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestDecode_TagListSentinelScope(t *testing.T) {
	// 0x00FFFFFD is absent only for tag-list registers. A plain U32 counter
	// holding the same raw value is a real measurement.
	d := Descriptor{Name: "m", Words: 2, Type: U32}

	v, ok, err := Decode(d, w32(0x00FFFFFD))
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 16777213, v.Num, 1e-9)
}

func TestDecode_Text(t *testing.T) {
	d := Descriptor{Name: "device_name", Words: 16, Type: STR}

	v, ok, err := Decode(d, wstr("SUNNY BOY 4.0", 16))
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, v.IsText)
	assert.Equal(t, "SUNNY BOY 4.0", v.Text)
	assert.Equal(t, "SUNNY BOY 4.0", v.String())
}

func TestValue_String(t *testing.T) {
	assert.Equal(t, "1801", Value{Num: 1801, Prec: 0}.String())
	assert.Equal(t, "-123.4", Value{Num: -123.4, Prec: 1}.String())
	assert.Equal(t, "230.12", Value{Num: 230.12, Prec: 2}.String())
	assert.Equal(t, "0.000", Value{Num: 0, Prec: 3}.String())
	assert.Equal(t, "ok", Value{Text: "ok", IsText: true}.String())
}

func TestParseDataType(t *testing.T) {
	cases := map[string]DataType{
		"s16":    S16,
		"u16":    U16,
		"s32":    S32,
		"int32":  S32,
		"u32":    U32,
		"uint32": U32,
		"u64":    U64,
		"str":    STR,
		" U32 ":  U32,
	}
	for in, want := range cases {
		got, err := ParseDataType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseDataType("float16")
	assert.Error(t, err)
}
