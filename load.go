package cyaml

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/tlsa/cyaml-go/internal/invariant"
	"github.com/tlsa/cyaml-go/internal/yamlh"
	"github.com/tlsa/cyaml-go/internal/yscan"
)

// loader is the load-side frame-stack engine of spec.md §4.6, rendered as a
// recursive descent over the schema graph driven by a pull parser rather
// than an explicit stack of frames: reflect's own call stack plays the part
// of the C engine's frame array. No allocation log is kept during the walk;
// on failure rollback.go recomputes every owned slot's token straight from
// the (partial) data graph.
type loader struct {
	p     *yscan.Parser
	cfg   *Config
	alloc Allocator
}

// LoadData parses data against schema and populates *root (root must be a
// non-nil pointer to a Go value shaped like schema's top-level descriptor).
// If schema's top-level descriptor itself carries FlagOwned (spec.md §3's
// "Target root — ... a single heap record allocated by the loader when the
// top-level descriptor is owned"), root must instead be a non-nil pointer
// to a nil pointer of that shape (a **T): an empty document (spec.md
// scenario S5) then leaves *root nil with zero allocations, while any
// other document allocates the record and populates it through *root. On
// any error the engine releases every allocation it made before returning
// (spec.md §4.6 "Heap policy"), and an owned top-level *root is reset to
// nil.
func LoadData(data []byte, schema *Descriptor, root interface{}, cfg *Config) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if cfg.debug() {
				panic(r)
			}
			err = wrapErr(ErrInternalError, "", fmt.Sprint(r))
		}
	}()

	if verr := Validate(schema); verr != nil {
		return verr
	}
	rv := reflect.ValueOf(root)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return wrapErr(ErrDataTargetNonNull, "", "root must be a non-nil pointer")
	}
	target := rv.Elem()
	if schema.owned() {
		if target.Kind() != reflect.Ptr {
			return wrapErr(ErrDataTargetNonNull, "", "an owned top-level schema requires root to be a pointer to a pointer")
		}
		if !target.IsNil() {
			return wrapErr(ErrDataTargetNonNull, "", "owned top-level slot is already populated")
		}
	}

	p, perr := yscan.New(data)
	if perr != nil {
		return wrapErr(ErrYAMLError, "", perr.Error())
	}

	l := &loader{p: p, cfg: cfg, alloc: cfg.allocator()}
	cfg.logf(LogDebug, "load: starting")

	loadErr := l.run(schema, target)
	if loadErr != nil {
		cfg.logf(LogInfo, "load: failed, rolling back partial allocations: %v", loadErr)
		rollbackLoad(cfg, l.alloc, schema, target)
		if schema.owned() {
			target.Set(reflect.Zero(target.Type()))
		}
		return loadErr
	}
	cfg.logf(LogDebug, "load: complete")
	return nil
}

func (l *loader) run(schema *Descriptor, root reflect.Value) error {
	if err := l.expect(yamlh.StreamStartEvent, "$"); err != nil {
		return err
	}
	if err := l.expect(yamlh.DocumentStartEvent, "$"); err != nil {
		return err
	}
	if err := l.bind(schema, root, "$"); err != nil {
		return err
	}
	if err := l.expect(yamlh.DocumentEndEvent, "$"); err != nil {
		return err
	}
	return l.expect(yamlh.StreamEndEvent, "$")
}

func (l *loader) next() (yamlh.Event, error) {
	e, err := l.p.Next()
	if err != nil {
		return e, wrapErr(ErrYAMLError, "", err.Error())
	}
	return e, nil
}

func (l *loader) peek() (yamlh.Event, error) {
	e, err := l.p.Peek()
	if err != nil {
		return e, wrapErr(ErrYAMLError, "", err.Error())
	}
	return e, nil
}

func (l *loader) expect(t yamlh.EventType, path string) error {
	e, err := l.next()
	if err != nil {
		return err
	}
	if e.Type != t {
		return wrapErr(ErrUnexpectedEvent, path, fmt.Sprintf("expected %s, got %s", t, e.Type))
	}
	return nil
}

func (l *loader) expectScalar(path string) (yamlh.Event, error) {
	e, err := l.next()
	if err != nil {
		return e, err
	}
	if e.Type != yamlh.ScalarEvent {
		return e, wrapErr(ErrUnexpectedEvent, path, fmt.Sprintf("expected scalar, got %s", e.Type))
	}
	return e, nil
}

// isNullScalar reports whether e is the event internal/yscan produces for
// an explicit "~" or an empty value (internal/yscan's parseScalarText), as
// opposed to a quoted empty string, which keeps its own quoted style.
func isNullScalar(e yamlh.Event) bool {
	return e.Type == yamlh.ScalarEvent && e.Style == yamlh.PlainScalarStyle && e.Value == ""
}

// consumeOwnedNull peeks the next event for an owned slot and, if it is a
// null scalar, consumes it and reports true: the slot is left nil rather
// than allocated, matching save.go's emitField, which renders a required
// owned-nil slot as an explicit "~" (spec.md §4.7) that must round-trip
// back to nil rather than fail with ErrUnexpectedEvent.
func (l *loader) consumeOwnedNull(path string) (bool, error) {
	pe, err := l.peek()
	if err != nil {
		return false, err
	}
	if !isNullScalar(pe) {
		return false, nil
	}
	if _, err := l.next(); err != nil {
		return false, err
	}
	return true, nil
}

// allocOwned allocates the pointee of a pointer-shaped owned slot and
// writes the new pointer into v before the caller descends into it, so a
// failure at any depth still leaves v reachable from rollback.go's walk.
func (l *loader) allocOwned(d *Descriptor, v reflect.Value) (reflect.Value, error) {
	invariant.Assert(v.Kind() == reflect.Ptr, "owned descriptor %q bound to non-pointer Go field", d.Name)
	if !v.IsNil() {
		return reflect.Value{}, wrapErr(ErrDataTargetNonNull, "", "owned slot is already populated")
	}
	elem := reflect.New(v.Type().Elem())
	tok := AllocToken(elem.Pointer())
	if err := l.alloc.Alloc(tok, sizeHint(d)); err != nil {
		return reflect.Value{}, wrapErr(ErrOutOfMemory, "", "allocator refused request")
	}
	v.Set(elem)
	return elem.Elem(), nil
}

// bind populates v, which may be owned (a pointer field requiring
// allocation before descent) or not. A null scalar against an owned slot
// leaves v nil instead of allocating, whether or not the slot is optional.
func (l *loader) bind(d *Descriptor, v reflect.Value, path string) error {
	if d.owned() {
		isNull, err := l.consumeOwnedNull(path)
		if err != nil {
			return err
		}
		if isNull {
			return nil
		}
	}
	if d.Kind == KindStringOwned {
		return l.bindOwnedString(d, v, path)
	}
	if d.owned() {
		elem, err := l.allocOwned(d, v)
		if err != nil {
			return err
		}
		return l.bindUnowned(d, elem, path)
	}
	return l.bindUnowned(d, v, path)
}

func (l *loader) bindOwnedString(d *Descriptor, v reflect.Value, path string) error {
	invariant.Assert(v.Kind() == reflect.Ptr, "owned string descriptor %q bound to non-pointer Go field", d.Name)
	if !v.IsNil() {
		return wrapErr(ErrDataTargetNonNull, path, "owned slot is already populated")
	}
	e, err := l.expectScalar(path)
	if err != nil {
		return err
	}
	s, err := decodeOwnedString(d, e.Value)
	if err != nil {
		return withPath(err, path)
	}
	elem := reflect.New(v.Type().Elem())
	elem.Elem().SetString(s)
	tok := AllocToken(elem.Pointer())
	if err := l.alloc.Alloc(tok, len(s)+1); err != nil {
		return wrapErr(ErrOutOfMemory, path, "allocator refused request")
	}
	v.Set(elem)
	return nil
}

func (l *loader) bindUnowned(d *Descriptor, v reflect.Value, path string) error {
	switch d.Kind {
	case KindInt:
		e, err := l.expectScalar(path)
		if err != nil {
			return err
		}
		iv, err := decodeInt(e.Value, d.Width, d.strict())
		if err != nil {
			return withPath(err, path)
		}
		v.SetInt(iv)
		return nil
	case KindUint:
		e, err := l.expectScalar(path)
		if err != nil {
			return err
		}
		uv, err := decodeUint(e.Value, d.Width, d.strict())
		if err != nil {
			return withPath(err, path)
		}
		v.SetUint(uv)
		return nil
	case KindFloat:
		e, err := l.expectScalar(path)
		if err != nil {
			return err
		}
		fv, err := decodeFloat(e.Value, d.Width, d.strict())
		if err != nil {
			return withPath(err, path)
		}
		v.SetFloat(fv)
		return nil
	case KindBool:
		e, err := l.expectScalar(path)
		if err != nil {
			return err
		}
		bv, err := decodeBool(e.Value)
		if err != nil {
			return withPath(err, path)
		}
		v.SetBool(bv)
		return nil
	case KindStringInline:
		e, err := l.expectScalar(path)
		if err != nil {
			return err
		}
		s, err := decodeInlineString(d, e.Value)
		if err != nil {
			return withPath(err, path)
		}
		v.SetString(s)
		return nil
	case KindEnum:
		e, err := l.expectScalar(path)
		if err != nil {
			return err
		}
		code, err := decodeEnum(d, e.Value)
		if err != nil {
			return withPath(err, path)
		}
		v.SetInt(code)
		return nil
	case KindFlags:
		bits, err := l.bindFlagsValue(d, path)
		if err != nil {
			return err
		}
		setFlagsValue(v, bits)
		return nil
	case KindIgnore:
		return l.skipValue(path)
	case KindMapping:
		return l.bindMapping(d, v, path)
	case KindSequence:
		_, err := l.bindSequence(d, v, path)
		return err
	default:
		invariant.Assert(false, "unreachable descriptor kind %v", d.Kind)
		return nil
	}
}

func (l *loader) bindFlagsValue(d *Descriptor, path string) (uint64, error) {
	if err := l.expect(yamlh.SequenceStartEvent, path); err != nil {
		return 0, err
	}
	var items []string
	for {
		pe, err := l.peek()
		if err != nil {
			return 0, err
		}
		if pe.Type == yamlh.SequenceEndEvent {
			l.next()
			break
		}
		se, err := l.expectScalar(path)
		if err != nil {
			return 0, err
		}
		items = append(items, se.Value)
	}
	bits, err := decodeFlags(d, items)
	if err != nil {
		return 0, withPath(err, path)
	}
	return bits, nil
}

func setFlagsValue(v reflect.Value, bits uint64) {
	switch v.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v.SetUint(bits)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v.SetInt(int64(bits))
	default:
		invariant.Assert(false, "flags descriptor bound to non-integer Go field %s", v.Kind())
	}
}

func setCount(v reflect.Value, n int) {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v.SetInt(int64(n))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v.SetUint(uint64(n))
	default:
		invariant.Assert(false, "sequence count field is a non-integer Go field %s", v.Kind())
	}
}

func findField(d *Descriptor, key string) *Field {
	for i := range d.Fields {
		if d.Fields[i].Key == key {
			return &d.Fields[i]
		}
	}
	return nil
}

func (l *loader) bindMapping(d *Descriptor, v reflect.Value, path string) error {
	if err := l.expect(yamlh.MappingStartEvent, path); err != nil {
		return err
	}
	consumed := make(map[string]bool, len(d.Fields))
	for {
		pe, err := l.peek()
		if err != nil {
			return err
		}
		if pe.Type == yamlh.MappingEndEvent {
			l.next()
			break
		}
		keyEvent, err := l.expectScalar(path)
		if err != nil {
			return err
		}
		key := keyEvent.Value
		field := findField(d, key)
		if field == nil {
			if l.cfg != nil && l.cfg.IgnoreUnknownKeys {
				if err := l.skipValue(path); err != nil {
					return err
				}
				continue
			}
			return wrapErr(ErrMappingKeyUnknown, path, key)
		}
		if consumed[key] {
			return wrapErr(ErrMappingKeyDuplicate, path, key)
		}
		consumed[key] = true

		fv := v.FieldByName(field.GoName)
		invariant.Assert(fv.IsValid(), "schema field %q names Go field %q which does not exist", field.Key, field.GoName)
		fieldPath := path + "." + key

		if field.Desc.Kind == KindSequence {
			seqVal := fv
			if field.Desc.owned() {
				isNull, err := l.consumeOwnedNull(fieldPath)
				if err != nil {
					return err
				}
				if isNull {
					continue
				}
				elem, err := l.allocOwned(field.Desc, fv)
				if err != nil {
					return err
				}
				seqVal = elem
			}
			n, err := l.bindSequence(field.Desc, seqVal, fieldPath)
			if err != nil {
				return err
			}
			if field.Desc.Variant != SeqFixed {
				cf := v.FieldByName(field.Desc.CountField)
				invariant.Assert(cf.IsValid(), "sequence %q names count field %q which does not exist", field.Key, field.Desc.CountField)
				setCount(cf, n)
			}
			continue
		}
		if err := l.bind(field.Desc, fv, fieldPath); err != nil {
			return err
		}
	}

	for _, f := range d.Fields {
		if consumed[f.Key] {
			continue
		}
		if f.Desc.optional() {
			if f.Desc.hasDefault() {
				applyDefault(v.FieldByName(f.GoName), f.Desc)
			}
			continue
		}
		return wrapErr(ErrMappingFieldMissing, path, f.Key)
	}
	return nil
}

func applyDefault(v reflect.Value, d *Descriptor) {
	if d.Default == nil {
		return
	}
	dv := reflect.ValueOf(d.Default)
	if dv.Type().ConvertibleTo(v.Type()) {
		v.Set(dv.Convert(v.Type()))
	}
}

func (l *loader) bindSequence(d *Descriptor, v reflect.Value, path string) (int, error) {
	if err := l.expect(yamlh.SequenceStartEvent, path); err != nil {
		return 0, err
	}
	count := 0
	for {
		pe, err := l.peek()
		if err != nil {
			return 0, err
		}
		if pe.Type == yamlh.SequenceEndEvent {
			l.next()
			break
		}
		if count >= d.MaxCount {
			return 0, wrapErr(ErrSequenceTooLong, path, "sequence has more elements than max_count")
		}
		var elemVal reflect.Value
		if v.Kind() == reflect.Array {
			invariant.Assert(count < v.Len(), "fixed sequence %q has fewer Go array slots than max_count", d.Name)
			elemVal = v.Index(count)
		} else {
			if count >= v.Len() {
				v.Set(reflect.Append(v, reflect.Zero(v.Type().Elem())))
			}
			elemVal = v.Index(count)
		}
		if err := l.bind(d.Element, elemVal, fmt.Sprintf("%s[%d]", path, count)); err != nil {
			return 0, err
		}
		count++
	}
	if count < d.MinCount {
		return 0, wrapErr(ErrSequenceTooShort, path, "sequence has fewer elements than min_count")
	}
	return count, nil
}

// skipValue consumes one balanced value (scalar, or mapping/sequence with
// matching start/end) without binding it to anything, for an Ignore
// descriptor or an unknown key under Config.IgnoreUnknownKeys.
func (l *loader) skipValue(path string) error {
	e, err := l.next()
	if err != nil {
		return err
	}
	switch e.Type {
	case yamlh.ScalarEvent:
		return nil
	case yamlh.MappingStartEvent:
		for {
			pe, err := l.peek()
			if err != nil {
				return err
			}
			if pe.Type == yamlh.MappingEndEvent {
				l.next()
				return nil
			}
			if _, err := l.expectScalar(path); err != nil {
				return err
			}
			if err := l.skipValue(path); err != nil {
				return err
			}
		}
	case yamlh.SequenceStartEvent:
		for {
			pe, err := l.peek()
			if err != nil {
				return err
			}
			if pe.Type == yamlh.SequenceEndEvent {
				l.next()
				return nil
			}
			if err := l.skipValue(path); err != nil {
				return err
			}
		}
	default:
		return wrapErr(ErrUnexpectedEvent, path, fmt.Sprintf("unexpected %s while skipping a value", e.Type))
	}
}

// sizeHint reports a plausible allocation size for bookkeeping purposes
// only (see alloc.go); no code ever reads it back.
func sizeHint(d *Descriptor) int {
	switch d.Kind {
	case KindMapping:
		n := 0
		for _, f := range d.Fields {
			n += sizeHint(f.Desc)
		}
		if n == 0 {
			n = 1
		}
		return n
	case KindSequence:
		return 1
	default:
		if d.Width > 0 {
			return d.Width
		}
		return 1
	}
}

func withPath(err error, path string) error {
	var de *detailedError
	if errors.As(err, &de) && de.path == "" {
		de.path = path
		return de
	}
	return err
}
