package cyaml

import (
	"fmt"
	"strings"
)

// Validate runs the structural schema checks of spec.md §4.3. It is run at
// the entry of every public operation before any YAML is consumed
// (spec.md §8 property 5: schema validation is a guard, and allocates
// nothing).
func Validate(schema *Descriptor) error {
	if schema == nil {
		return wrapErr(ErrSchemaInvalid, "", "nil schema")
	}
	v := &validator{visiting: map[*Descriptor]bool{}, done: map[*Descriptor]bool{}}
	return v.validate(schema, "$")
}

type validator struct {
	visiting map[*Descriptor]bool
	done     map[*Descriptor]bool
}

func widthOK(w int, allowed ...int) bool {
	for _, a := range allowed {
		if w == a {
			return true
		}
	}
	return false
}

func (v *validator) validate(d *Descriptor, path string) error {
	if d == nil {
		return wrapErr(ErrSchemaInvalid, path, "nil descriptor")
	}
	if v.done[d] {
		return nil
	}
	if v.visiting[d] {
		return wrapErr(ErrSchemaInvalid, path, "descriptor graph contains a cycle")
	}
	v.visiting[d] = true
	defer delete(v.visiting, d)

	switch d.Kind {
	case KindInt, KindUint:
		if !widthOK(d.Width, 1, 2, 4, 8) {
			return wrapErr(ErrSchemaInvalid, path, fmt.Sprintf("%s width %d not in {1,2,4,8}", d.Kind, d.Width))
		}
	case KindFloat:
		if !widthOK(d.Width, 4, 8) {
			return wrapErr(ErrSchemaInvalid, path, fmt.Sprintf("float width %d not in {4,8}", d.Width))
		}
	case KindBool:
		if !widthOK(d.Width, 1, 2, 4, 8) {
			return wrapErr(ErrSchemaInvalid, path, fmt.Sprintf("bool width %d not in {1,2,4,8}", d.Width))
		}
	case KindEnum:
		if !widthOK(d.Width, 1, 2, 4, 8) {
			return wrapErr(ErrSchemaInvalid, path, fmt.Sprintf("enum width %d not in {1,2,4,8}", d.Width))
		}
		if err := uniqueEnumNames(d, path); err != nil {
			return err
		}
	case KindFlags:
		if !widthOK(d.Width, 1, 2, 4, 8) {
			return wrapErr(ErrSchemaInvalid, path, fmt.Sprintf("flags width %d not in {1,2,4,8}", d.Width))
		}
		if err := uniqueFlagNames(d, path); err != nil {
			return err
		}
	case KindStringInline:
		if d.owned() {
			return wrapErr(ErrSchemaInvalid, path, "inline string cannot be marked owned")
		}
		if d.Width < 1 {
			return wrapErr(ErrSchemaInvalid, path, "inline string capacity must be >= 1")
		}
		if d.MinLen < 0 || d.MinLen > d.MaxLen || d.MaxLen > d.Width-1 {
			return wrapErr(ErrSchemaInvalid, path, "inline string min/max length out of range for capacity")
		}
	case KindStringOwned:
		if !d.owned() {
			return wrapErr(ErrSchemaInvalid, path, "owned string must be marked owned")
		}
		if d.MinLen < 0 || d.MinLen > d.MaxLen {
			return wrapErr(ErrSchemaInvalid, path, "owned string min/max length inconsistent")
		}
	case KindIgnore:
		// no constraints
	case KindMapping:
		if err := uniqueFieldKeys(d, path); err != nil {
			return err
		}
		for _, f := range d.Fields {
			if f.Desc == nil {
				return wrapErr(ErrSchemaInvalid, path, fmt.Sprintf("field %q has no descriptor", f.Key))
			}
			if err := v.validate(f.Desc, path+"."+f.Key); err != nil {
				return err
			}
		}
	case KindSequence:
		if d.Element == nil {
			return wrapErr(ErrSchemaInvalid, path, "sequence has no element descriptor")
		}
		if d.MinCount < 0 || d.MinCount > d.MaxCount {
			return wrapErr(ErrSchemaInvalid, path, "sequence min_count > max_count")
		}
		switch d.Variant {
		case SeqFixed:
			if d.owned() {
				return wrapErr(ErrSchemaInvalid, path, "fixed sequence cannot be marked owned")
			}
			if d.MinCount != d.MaxCount {
				return wrapErr(ErrSchemaInvalid, path, "fixed sequence requires min_count == max_count")
			}
		case SeqInline:
			if d.owned() {
				return wrapErr(ErrSchemaInvalid, path, "inline sequence cannot be marked owned")
			}
			if !widthOK(d.CountWidth, 1, 2, 4, 8) {
				return wrapErr(ErrSchemaInvalid, path, fmt.Sprintf("sequence count field width %d not in {1,2,4,8}", d.CountWidth))
			}
		case SeqOwned:
			if !d.owned() {
				return wrapErr(ErrSchemaInvalid, path, "owned sequence must be marked owned")
			}
			if !widthOK(d.CountWidth, 1, 2, 4, 8) {
				return wrapErr(ErrSchemaInvalid, path, fmt.Sprintf("sequence count field width %d not in {1,2,4,8}", d.CountWidth))
			}
		default:
			return wrapErr(ErrSchemaInvalid, path, "unknown sequence variant")
		}
		if d.Variant != SeqFixed && d.CountField == "" {
			return wrapErr(ErrSchemaInvalid, path, "sequence is missing its sibling count field name")
		}
		if err := v.validate(d.Element, path+"[]"); err != nil {
			return err
		}
	default:
		return wrapErr(ErrSchemaInvalid, path, "unknown descriptor kind")
	}

	v.done[d] = true
	return nil
}

func uniqueFieldKeys(d *Descriptor, path string) error {
	seen := make(map[string]bool, len(d.Fields))
	for _, f := range d.Fields {
		if f.Key == "" {
			return wrapErr(ErrSchemaInvalid, path, "mapping field has empty key")
		}
		if seen[f.Key] {
			return wrapErr(ErrSchemaInvalid, path, fmt.Sprintf("duplicate field key %q", f.Key))
		}
		seen[f.Key] = true
	}
	return nil
}

func uniqueEnumNames(d *Descriptor, path string) error {
	seen := make(map[string]bool, len(d.Values))
	for _, e := range d.Values {
		key := e.Name
		if d.caseInsensitive() {
			key = strings.ToLower(key)
		}
		if seen[key] {
			return wrapErr(ErrSchemaInvalid, path, fmt.Sprintf("duplicate enum name %q", e.Name))
		}
		seen[key] = true
	}
	return nil
}

func uniqueFlagNames(d *Descriptor, path string) error {
	seen := make(map[string]bool, len(d.Bits))
	for _, b := range d.Bits {
		key := b.Name
		if d.caseInsensitive() {
			key = strings.ToLower(key)
		}
		if seen[key] {
			return wrapErr(ErrSchemaInvalid, path, fmt.Sprintf("duplicate flag name %q", b.Name))
		}
		seen[key] = true
	}
	return nil
}
