// Package cyaml is a schema-directed bidirectional binder between YAML
// documents and statically-typed Go values, modeled on the C library
// libcyaml: a caller describes a Go struct's shape once as a Descriptor
// graph, then loads and saves values of that shape without hand-written
// marshal/unmarshal code.
package cyaml

import (
	"fmt"
	"reflect"

	"github.com/spf13/afero"
)

// LoadFile reads path from fs and loads it against schema into *root, the
// file-based counterpart to LoadData (spec.md §4.8).
func LoadFile(fs afero.Fs, path string, schema *Descriptor, root interface{}, cfg *Config) error {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return wrapErr(ErrYAMLError, path, fmt.Sprintf("reading file: %v", err))
	}
	return LoadData(data, schema, root, cfg)
}

// SaveFile renders *root per schema and writes it to path on fs, the
// file-based counterpart to SaveData.
func SaveFile(fs afero.Fs, path string, schema *Descriptor, root interface{}, cfg *Config) error {
	data, err := SaveData(schema, root, cfg)
	if err != nil {
		return err
	}
	if err := afero.WriteFile(fs, path, data, 0o644); err != nil {
		return wrapErr(ErrYAMLError, path, fmt.Sprintf("writing file: %v", err))
	}
	return nil
}

// Free releases every owned allocation reachable from *root per schema. If
// schema's top-level descriptor carries FlagOwned, root must be shaped the
// same way LoadData expected it (a pointer to the pointer the load
// populated), matching spec.md §3's loader-allocated root. It does not
// nil out the slots it frees, so calling it twice on the same populated
// root frees every token a second time; an error the Allocator returns for
// such a token is logged at LogWarning and Free still returns nil.
func Free(schema *Descriptor, root interface{}, cfg *Config) (err error) {
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
	if schema.owned() && target.Kind() != reflect.Ptr {
		return wrapErr(ErrDataTargetNonNull, "", "an owned top-level schema requires root to be a pointer to a pointer")
	}
	freeSlot(cfg, cfg.allocator(), schema, target)
	return nil
}
