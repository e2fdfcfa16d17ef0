package cyaml

import (
	"fmt"
	"reflect"

	"github.com/tlsa/cyaml-go/internal/invariant"
	"github.com/tlsa/cyaml-go/internal/yemit"
)

// saver is the save-side mirror of loader: a recursive descent over the
// schema graph that drives an internal/yemit.Writer instead of a pull
// parser (spec.md §4.7).
type saver struct {
	w   *yemit.Writer
	cfg *Config
}

// SaveData renders *root (a non-nil pointer to a Go value shaped like
// schema's top-level, mapping-kinded descriptor) to its YAML encoding. If
// schema's top-level descriptor carries FlagOwned, root must instead be a
// non-nil pointer to the (possibly nil) pointer LoadData populated: a nil
// top-level record saves as a single null scalar document, the save-side
// counterpart of spec.md scenario S5.
func SaveData(schema *Descriptor, root interface{}, cfg *Config) (out []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			if cfg.debug() {
				panic(r)
			}
			err = wrapErr(ErrInternalError, "", fmt.Sprint(r))
		}
	}()

	if verr := Validate(schema); verr != nil {
		return nil, verr
	}
	invariant.Assert(schema.Kind == KindMapping, "save root descriptor must be a mapping, got %v", schema.Kind)

	rv := reflect.ValueOf(root)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return nil, wrapErr(ErrDataTargetNonNull, "", "root must be a non-nil pointer")
	}
	target := rv.Elem()

	w := yemit.New()
	s := &saver{w: w, cfg: cfg}
	cfg.logf(LogDebug, "save: starting")

	w.DocumentStart()
	if schema.owned() {
		invariant.Assert(target.Kind() == reflect.Ptr, "owned top-level schema requires root to be a pointer to a pointer")
		if target.IsNil() {
			w.RootScalar("~")
		} else if err := s.emitMapping(schema, target.Elem()); err != nil {
			return nil, err
		}
	} else if err := s.emitMapping(schema, target); err != nil {
		return nil, err
	}
	w.DocumentEnd()

	cfg.logf(LogDebug, "save: complete, %d byte(s)", len(w.Bytes()))
	return w.Bytes(), nil
}

func (s *saver) emitMapping(d *Descriptor, v reflect.Value) error {
	for _, f := range d.Fields {
		if f.Desc.Kind == KindIgnore {
			continue
		}
		fv := v.FieldByName(f.GoName)
		invariant.Assert(fv.IsValid(), "schema field %q names Go field %q which does not exist", f.Key, f.GoName)
		if err := s.emitField(f, fv); err != nil {
			return err
		}
	}
	return nil
}

// emitField writes one mapping entry, honoring the "owned-nil slots are
// skipped if optional, else emitted as null" rule of spec.md §4.7 before
// ever touching the Writer for this field — an omitted field must never
// produce a bare key.
func (s *saver) emitField(f Field, fv reflect.Value) error {
	if f.Desc.owned() && fv.IsNil() {
		if f.Desc.optional() {
			return nil
		}
		s.w.MapKey(f.Key)
		s.w.EmptyMapping()
		return nil
	}
	s.w.MapKey(f.Key)
	return s.emitSlot(f.Desc, fv)
}

// emitSlot writes the value of a descriptor-shaped slot onto a line
// already opened by MapKey or SeqDash.
func (s *saver) emitSlot(d *Descriptor, v reflect.Value) error {
	if d.owned() {
		if v.IsNil() {
			s.w.EmptyMapping()
			return nil
		}
		v = v.Elem()
	}
	switch d.Kind {
	case KindInt:
		s.w.InlineScalar(yemit.FormatInt(v.Int()))
	case KindUint:
		s.w.InlineScalar(yemit.FormatUint(v.Uint()))
	case KindFloat:
		bitSize := 64
		if d.Width == 4 {
			bitSize = 32
		}
		s.w.InlineScalar(yemit.FormatFloat(v.Float(), bitSize))
	case KindBool:
		s.w.InlineScalar(yemit.FormatBool(v.Bool()))
	case KindStringInline, KindStringOwned:
		s.w.InlineScalar(yemit.ScalarText(v.String()))
	case KindEnum:
		s.w.InlineScalar(encodeEnum(d, v.Int()))
	case KindFlags:
		bits := flagsBitsOf(v)
		names := encodeFlags(d, bits)
		items := make([]string, len(names))
		for i, n := range names {
			if _, declared := lookupFlagBit(d, n); !declared {
				// The residual bits, written as a bare decimal integer.
				items[i] = n
				continue
			}
			items[i] = yemit.ScalarText(n)
		}
		s.w.InlineFlowSequence(items)
	case KindMapping:
		s.w.NestedOpen()
		s.w.Indent()
		if err := s.emitMapping(d, v); err != nil {
			return err
		}
		s.w.Dedent()
	case KindSequence:
		if err := s.emitSequence(d, v); err != nil {
			return err
		}
	case KindIgnore:
		s.w.InlineScalar("~")
	default:
		invariant.Assert(false, "unreachable descriptor kind %v", d.Kind)
	}
	return nil
}

// emitSequence writes a sequence's elements 0..n-1, n taken from the Go
// slice/array length (for a fixed sequence, its declared max_count). An
// empty sequence is written as a flow "[]".
func (s *saver) emitSequence(d *Descriptor, v reflect.Value) error {
	n := v.Len()
	if d.Variant == SeqFixed {
		n = d.MaxCount
	}
	if n > v.Len() {
		n = v.Len()
	}
	if n == 0 {
		s.w.InlineFlowSequence(nil)
		return nil
	}
	s.w.NestedOpen()
	s.w.Indent()
	for i := 0; i < n; i++ {
		s.w.SeqDash()
		if err := s.emitSlot(d.Element, v.Index(i)); err != nil {
			return err
		}
	}
	s.w.Dedent()
	return nil
}

func flagsBitsOf(v reflect.Value) uint64 {
	switch v.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return uint64(v.Int())
	default:
		invariant.Assert(false, "flags descriptor bound to non-integer Go field %s", v.Kind())
		return 0
	}
}
