package cyaml

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tlsa/cyaml-go/internal/yemit"
)

// This file is the text <-> typed-scalar codec of spec.md §4.4. Every
// function here is pure and schema-driven: it never touches the event
// stream or the allocator, so load.go and save.go are the only callers.

func intBounds(width int) (min, max int64) {
	switch width {
	case 1:
		return -(1 << 7), 1<<7 - 1
	case 2:
		return -(1 << 15), 1<<15 - 1
	case 4:
		return -(1 << 31), 1<<31 - 1
	default:
		return -(1 << 63), 1<<63 - 1
	}
}

func uintMax(width int) uint64 {
	switch width {
	case 1:
		return 1<<8 - 1
	case 2:
		return 1<<16 - 1
	case 4:
		return 1<<32 - 1
	default:
		return 1<<64 - 1
	}
}

// intTokenRE, uintTokenRE and floatTokenRE match the leading numeric prefix of a trimmed
// scalar, the same prefix a C strtol/strtod would consume before stopping
// at the first byte it can't use — the basis of the non-strict leniency
// below.
var (
	intTokenRE   = regexp.MustCompile(`^[+-]?(0[xX][0-9a-fA-F]+|[0-9]+)`)
	uintTokenRE  = regexp.MustCompile(`^(0[xX][0-9a-fA-F]+|[0-9]+)`)
	floatTokenRE = regexp.MustCompile(`^[+-]?([0-9]+\.?[0-9]*|\.[0-9]+)([eE][+-]?[0-9]+)?`)
)

// leadingToken returns the longest prefix of trimmed matched by re, the
// whole of trimmed when strict (so a non-matching tail still reaches
// strconv and produces its error), or "" when nothing at all matches.
func leadingToken(re *regexp.Regexp, trimmed string, strict bool) string {
	if strict {
		return trimmed
	}
	return re.FindString(trimmed)
}

// numberBase returns 0 (strconv reads the prefix) for a 0x/0X hex token,
// after an optional sign, and 10 otherwise, so a leading zero is read as
// decimal rather than octal and 0b/0o prefixes are not accepted.
func numberBase(token string) int {
	t := strings.TrimLeft(token, "+-")
	if len(t) > 1 && t[0] == '0' && (t[1] == 'x' || t[1] == 'X') {
		return 0
	}
	return 10
}

// decodeInt parses a plain scalar into a signed integer of the given byte
// width, accepting decimal or 0x/0X hex, and rejecting anything out of
// range for that width. When strict is false it tolerates trailing
// garbage after the numeric prefix (spec.md §4.1: strict "applies... to
// scalars, reject trailing garbage"), matching strtol's partial-parse
// behavior; when strict it requires the whole scalar to be the number.
func decodeInt(text string, width int, strict bool) (int64, error) {
	trimmed := strings.TrimSpace(text)
	token := leadingToken(intTokenRE, trimmed, strict)
	if token == "" {
		return 0, wrapErr(ErrInvalidScalar, "", "not an integer: "+text)
	}
	v, err := strconv.ParseInt(token, numberBase(token), 64)
	if err != nil {
		return 0, wrapErr(ErrInvalidScalar, "", "not an integer: "+text)
	}
	lo, hi := intBounds(width)
	if v < lo || v > hi {
		return 0, wrapErr(ErrInvalidScalar, "", "integer out of range for declared width: "+text)
	}
	return v, nil
}

// decodeUint mirrors decodeInt for the unsigned variant.
func decodeUint(text string, width int, strict bool) (uint64, error) {
	trimmed := strings.TrimSpace(text)
	token := leadingToken(uintTokenRE, trimmed, strict)
	if token == "" {
		return 0, wrapErr(ErrInvalidScalar, "", "not an unsigned integer: "+text)
	}
	v, err := strconv.ParseUint(token, numberBase(token), 64)
	if err != nil {
		return 0, wrapErr(ErrInvalidScalar, "", "not an unsigned integer: "+text)
	}
	if v > uintMax(width) {
		return 0, wrapErr(ErrInvalidScalar, "", "integer out of range for declared width: "+text)
	}
	return v, nil
}

// decodeFloat parses a plain scalar as a float of the declared bit width
// (32 for a 4-byte descriptor, 64 otherwise), with the same non-strict
// trailing-garbage leniency as decodeInt/decodeUint.
func decodeFloat(text string, width int, strict bool) (float64, error) {
	bitSize := 64
	if width == 4 {
		bitSize = 32
	}
	trimmed := strings.TrimSpace(text)
	token := leadingToken(floatTokenRE, trimmed, strict)
	if token == "" {
		return 0, wrapErr(ErrInvalidScalar, "", "not a float: "+text)
	}
	v, err := strconv.ParseFloat(token, bitSize)
	if err != nil {
		return 0, wrapErr(ErrInvalidScalar, "", "not a float: "+text)
	}
	return v, nil
}

var boolTrueNames = map[string]bool{"true": true, "yes": true, "on": true, "enable": true, "1": true}
var boolFalseNames = map[string]bool{"false": true, "no": true, "off": true, "disable": true, "0": true}

// decodeBool accepts the case-insensitive name set of spec.md §4.4 plus the
// literal integers 0/1.
func decodeBool(text string) (bool, error) {
	key := strings.ToLower(strings.TrimSpace(text))
	if boolTrueNames[key] {
		return true, nil
	}
	if boolFalseNames[key] {
		return false, nil
	}
	return false, wrapErr(ErrInvalidBool, "", "not a recognized boolean: "+text)
}

func encodeBool(v bool) string { return yemit.FormatBool(v) }

// decodeEnum resolves a scalar to a declared enum code: name match first
// (exact, or case-insensitive when the descriptor has FlagCaseInsensitive),
// then numeric fallback unless strict.
func decodeEnum(d *Descriptor, text string) (int64, error) {
	text = strings.TrimSpace(text)
	for _, ev := range d.Values {
		if ev.Name == text {
			return ev.Value, nil
		}
		if d.caseInsensitive() && strings.EqualFold(ev.Name, text) {
			return ev.Value, nil
		}
	}
	if !d.strict() {
		if v, err := decodeInt(text, d.Width, false); err == nil {
			return v, nil
		}
	}
	return 0, wrapErr(ErrInvalidEnum, "", "no matching enum name or fallback integer: "+text)
}

// encodeEnum renders the canonical declared name for code, or the decimal
// integer if no declared name matches (spec.md §9: this applies even under
// strict, by design choice of the reference implementation — see
// DESIGN.md).
func encodeEnum(d *Descriptor, code int64) string {
	for _, ev := range d.Values {
		if ev.Value == code {
			return ev.Name
		}
	}
	return yemit.FormatInt(code)
}

// decodeFlags accumulates a sequence of flag entries by bitwise-or: a
// declared name contributes its bit, anything else is parsed as a literal
// integer contributing its raw value (rejected when the descriptor is
// strict), both bounded by the descriptor's width.
func decodeFlags(d *Descriptor, items []string) (uint64, error) {
	var acc uint64
	max := uintMax(d.Width)
	for _, item := range items {
		item = strings.TrimSpace(item)
		bit, ok := lookupFlagBit(d, item)
		if ok {
			acc |= bit
			continue
		}
		if d.strict() {
			return 0, wrapErr(ErrInvalidFlag, "", "not a declared flag name: "+item)
		}
		v, err := decodeUint(item, d.Width, d.strict())
		if err != nil {
			return 0, wrapErr(ErrInvalidFlag, "", "not a declared flag name or literal integer: "+item)
		}
		acc |= v
	}
	if acc > max {
		return 0, wrapErr(ErrInvalidFlag, "", "flag bits out of range for declared width")
	}
	return acc, nil
}

func lookupFlagBit(d *Descriptor, name string) (uint64, bool) {
	for _, fv := range d.Bits {
		if fv.Name == name {
			return fv.Bit, true
		}
		if d.caseInsensitive() && strings.EqualFold(fv.Name, name) {
			return fv.Bit, true
		}
	}
	return 0, false
}

// encodeFlags renders the declared names whose bit is set, in declaration
// order, followed by a trailing literal integer carrying whatever bits
// matched no declared name (omitted if that residual is zero).
func encodeFlags(d *Descriptor, bits uint64) []string {
	var names []string
	var consumed uint64
	for _, fv := range d.Bits {
		if bits&fv.Bit != 0 {
			names = append(names, fv.Name)
			consumed |= fv.Bit
		}
	}
	residual := bits &^ consumed
	if residual != 0 {
		names = append(names, yemit.FormatUint(residual))
	}
	return names
}

// decodeInlineString validates a scalar against an inline string
// descriptor's length bounds. The capacity's reserved terminator byte
// (spec.md invariant 3) means the encodable length tops out at Width-1.
func decodeInlineString(d *Descriptor, text string) (string, error) {
	n := len(text)
	if n < d.MinLen {
		return "", wrapErr(ErrStringTooShort, "", "string shorter than min_len")
	}
	if n > d.MaxLen || n > d.Width-1 {
		return "", wrapErr(ErrStringTooLong, "", "string longer than capacity")
	}
	return text, nil
}

// decodeOwnedString validates a scalar against an owned string
// descriptor's length bounds; the engine is responsible for the
// len+1-byte allocation bookkeeping this implies (load.go).
func decodeOwnedString(d *Descriptor, text string) (string, error) {
	n := len(text)
	if n < d.MinLen {
		return "", wrapErr(ErrStringTooShort, "", "string shorter than min_len")
	}
	if n > d.MaxLen {
		return "", wrapErr(ErrStringTooLong, "", "string longer than max_len")
	}
	return text, nil
}
