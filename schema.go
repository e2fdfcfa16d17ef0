package cyaml

// Kind is the closed set of value-descriptor variants (spec.md §3).
type Kind uint8

const (
	KindInt Kind = iota
	KindUint
	KindFloat
	KindBool
	KindStringInline
	KindStringOwned
	KindEnum
	KindFlags
	KindIgnore
	KindMapping
	KindSequence
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindStringInline:
		return "string(inline)"
	case KindStringOwned:
		return "string(owned)"
	case KindEnum:
		return "enum"
	case KindFlags:
		return "flags"
	case KindIgnore:
		return "ignore"
	case KindMapping:
		return "mapping"
	case KindSequence:
		return "sequence"
	default:
		return "unknown"
	}
}

// SeqVariant distinguishes the three sequence storage shapes of spec.md §3.
type SeqVariant uint8

const (
	SeqInline SeqVariant = iota
	SeqOwned
	SeqFixed
)

// DescFlag is the per-descriptor flag set of spec.md §3.
type DescFlag uint8

const (
	// FlagOwned marks a slot whose value is heap-allocated and freed by
	// the engine on the caller's behalf.
	FlagOwned DescFlag = 1 << iota
	// FlagOptional applies to mapping fields: absence is not an error.
	FlagOptional
	// FlagStrict rejects numeric fallback for enums/flags and lax scalar
	// parsing (trailing garbage).
	FlagStrict
	// FlagCaseInsensitive relaxes enum/flag name lookup.
	FlagCaseInsensitive
	// FlagDefault marks that Descriptor.Default should be used to
	// initialize an absent optional field instead of the zero value.
	FlagDefault
)

func (d DescFlag) has(f DescFlag) bool { return d&f != 0 }

// EnumValue is one named, ordered entry of an Enum descriptor.
type EnumValue struct {
	Name  string
	Value int64
}

// FlagValue is one named, ordered bit of a Flags descriptor.
type FlagValue struct {
	Name string
	Bit  uint64
}

// Field pairs a YAML mapping key with a value descriptor and the Go
// struct field (by name, via reflect) it binds to.
type Field struct {
	Key    string
	GoName string
	Desc   *Descriptor
}

// Descriptor describes one typed slot of the schema graph (spec.md §3).
// A schema is an ordinary, reusable Go value: built once by the caller,
// never mutated by this package, and safe to share across concurrent
// LoadData/SaveData calls on disjoint data (spec.md §5).
type Descriptor struct {
	Kind Kind
	Name string // optional, for diagnostics only

	// Int/Uint/Float/Bool/Enum/Flags: byte width, one of {1,2,4,8} (Float:
	// {4,8}).
	Width int

	// StringInline: capacity C (including the NUL terminator in the C
	// original; here, the maximum encodable byte length plus one, preserved
	// for parity with spec.md's invariant 3 wording). StringInline/Owned:
	// MinLen/MaxLen bound the string's length.
	MinLen, MaxLen int

	// Enum.
	Values []EnumValue
	// Flags.
	Bits []FlagValue

	// Mapping.
	Fields []Field

	// Sequence.
	Element    *Descriptor
	MinCount   int
	MaxCount   int
	CountWidth int // sibling count field's byte width, one of {1,2,4,8}
	CountField string
	Variant    SeqVariant

	Default interface{}
	Flags   DescFlag
}

func (d *Descriptor) owned() bool           { return d.Flags.has(FlagOwned) }
func (d *Descriptor) optional() bool        { return d.Flags.has(FlagOptional) }
func (d *Descriptor) strict() bool          { return d.Flags.has(FlagStrict) }
func (d *Descriptor) caseInsensitive() bool { return d.Flags.has(FlagCaseInsensitive) }
func (d *Descriptor) hasDefault() bool      { return d.Flags.has(FlagDefault) }

// scalarShaped reports whether the descriptor's load/save is a single
// SCALAR event (everything except Mapping/Sequence/Ignore).
func (d *Descriptor) scalarShaped() bool {
	switch d.Kind {
	case KindMapping, KindSequence, KindIgnore:
		return false
	default:
		return true
	}
}
