package cyaml

import "reflect"

// freeGraph walks data per schema and releases every owned allocation
// reachable from it, descendants before the parent pointer that holds
// them; v must already be schema's dereferenced shape (a struct for a
// mapping, a slice for a sequence), never the owned pointer itself — that
// one level of indirection is freeSlot's job. rollback.go and the public
// Free operation both enter through freeSlot(schema, root) rather than
// here directly, since schema's own top-level descriptor may itself be
// owned (spec.md §3's loader-allocated root). A field the engine never
// reached is still its Go zero value (a nil pointer for an owned slot), so
// the walk skips it without special casing.
func freeGraph(cfg *Config, alloc Allocator, d *Descriptor, v reflect.Value) {
	if !v.IsValid() {
		return
	}
	switch d.Kind {
	case KindMapping:
		for _, f := range d.Fields {
			fv := v.FieldByName(f.GoName)
			if !fv.IsValid() {
				continue
			}
			freeSlot(cfg, alloc, f.Desc, fv)
		}
	case KindSequence:
		n := v.Len()
		for i := 0; i < n; i++ {
			freeSlot(cfg, alloc, d.Element, v.Index(i))
		}
	}
}

func freeSlot(cfg *Config, alloc Allocator, d *Descriptor, v reflect.Value) {
	if !d.owned() {
		freeGraph(cfg, alloc, d, v)
		return
	}
	if v.IsNil() {
		return
	}
	if d.Kind != KindStringOwned {
		freeGraph(cfg, alloc, d, v.Elem())
	}
	tok := AllocToken(v.Pointer())
	if err := alloc.Free(tok); err != nil {
		cfg.logf(LogWarning, "free: releasing allocation %v failed: %v", tok, err)
	}
}
