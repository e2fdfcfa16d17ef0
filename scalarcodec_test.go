package cyaml

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeIntHexAndDecimal(t *testing.T) {
	v, err := decodeInt("0x7f", 1, true)
	require.NoError(t, err)
	require.EqualValues(t, 127, v)

	v, err = decodeInt("-5", 2, true)
	require.NoError(t, err)
	require.EqualValues(t, -5, v)

	_, err = decodeInt("300", 1, true)
	require.Error(t, err)
	require.Equal(t, ErrInvalidScalar, KindOf(err))
}

func TestDecodeUintRejectsOverflow(t *testing.T) {
	_, err := decodeUint("256", 1, true)
	require.Error(t, err)

	v, err := decodeUint("255", 1, true)
	require.NoError(t, err)
	require.EqualValues(t, 255, v)
}

func TestDecodeFloatWidth(t *testing.T) {
	v, err := decodeFloat("3.5", 4, true)
	require.NoError(t, err)
	require.InDelta(t, 3.5, v, 1e-9)
}

// spec.md §4.1: strict "applies... to scalars (reject trailing garbage)".
// Under strict, a numeric scalar followed by extra text is rejected
// outright; non-strict tolerates it and parses only the leading number,
// mirroring strtol/strtod.
func TestDecodeIntTrailingGarbage(t *testing.T) {
	_, err := decodeInt("5px", 4, true)
	require.Error(t, err)
	require.Equal(t, ErrInvalidScalar, KindOf(err))

	v, err := decodeInt("5px", 4, false)
	require.NoError(t, err)
	require.EqualValues(t, 5, v)

	v, err = decodeInt("-12abc", 4, false)
	require.NoError(t, err)
	require.EqualValues(t, -12, v)
}

func TestDecodeUintTrailingGarbage(t *testing.T) {
	_, err := decodeUint("7kg", 4, true)
	require.Error(t, err)

	v, err := decodeUint("7kg", 4, false)
	require.NoError(t, err)
	require.EqualValues(t, 7, v)
}

func TestDecodeFloatTrailingGarbage(t *testing.T) {
	_, err := decodeFloat("3.5in", 8, true)
	require.Error(t, err)

	v, err := decodeFloat("3.5in", 8, false)
	require.NoError(t, err)
	require.InDelta(t, 3.5, v, 1e-9)

	_, err = decodeFloat("nope", 8, false)
	require.Error(t, err)
}

// spec.md scenario S2: every accepted bool spelling.
func TestDecodeBoolVariants(t *testing.T) {
	for _, name := range []string{"true", "yes", "on", "enable", "1", "TRUE", "Yes"} {
		v, err := decodeBool(name)
		require.NoError(t, err, name)
		require.True(t, v, name)
	}
	for _, name := range []string{"false", "no", "off", "disable", "0"} {
		v, err := decodeBool(name)
		require.NoError(t, err, name)
		require.False(t, v, name)
	}
	_, err := decodeBool("maybe")
	require.Error(t, err)
	require.Equal(t, ErrInvalidBool, KindOf(err))
}

func enumSchema() *Descriptor {
	return &Descriptor{
		Kind:  KindEnum,
		Width: 4,
		Values: []EnumValue{
			{Name: "red", Value: 1},
			{Name: "green", Value: 2},
			{Name: "blue", Value: 4},
		},
	}
}

func TestEnumRoundTrip(t *testing.T) {
	d := enumSchema()
	v, err := decodeEnum(d, "green")
	require.NoError(t, err)
	require.EqualValues(t, 2, v)
	require.Equal(t, "green", encodeEnum(d, 2))
}

func TestEnumNumericFallbackUnlessStrict(t *testing.T) {
	d := enumSchema()
	v, err := decodeEnum(d, "9")
	require.NoError(t, err)
	require.EqualValues(t, 9, v)

	d.Flags |= FlagStrict
	_, err = decodeEnum(d, "9")
	require.Error(t, err)
	require.Equal(t, ErrInvalidEnum, KindOf(err))
}

func TestEncodeEnumFallsBackToIntegerEvenWhenStrict(t *testing.T) {
	d := enumSchema()
	d.Flags |= FlagStrict
	require.Equal(t, "9", encodeEnum(d, 9))
}

// spec.md scenario S3: a flags value with bits outside the declared table.
func TestFlagsWithResidualBits(t *testing.T) {
	d := &Descriptor{
		Kind:  KindFlags,
		Width: 4,
		Bits: []FlagValue{
			{Name: "first", Bit: 1 << 0},
			{Name: "second", Bit: 1 << 1},
			{Name: "third", Bit: 1 << 2},
			{Name: "fourth", Bit: 1 << 3},
			{Name: "fifth", Bit: 1 << 4},
			{Name: "sixth", Bit: 1 << 5},
		},
	}
	bits, err := decodeFlags(d, []string{"second", "fifth", "1024"})
	require.NoError(t, err)
	require.EqualValues(t, 1042, bits)

	names := encodeFlags(d, bits)
	require.Equal(t, []string{"second", "fifth", "1024"}, names)
}

func TestInlineStringLengthBounds(t *testing.T) {
	d := &Descriptor{Kind: KindStringInline, Width: 8, MinLen: 1, MaxLen: 7}
	_, err := decodeInlineString(d, "")
	require.Error(t, err)
	require.Equal(t, ErrStringTooShort, KindOf(err))

	_, err = decodeInlineString(d, "12345678")
	require.Error(t, err)
	require.Equal(t, ErrStringTooLong, KindOf(err))

	s, err := decodeInlineString(d, "ok")
	require.NoError(t, err)
	require.Equal(t, "ok", s)
}
