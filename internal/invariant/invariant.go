// Package invariant guards conditions that a correctly paired schema and Go
// struct can never violate — a reflect field name the schema names but the
// struct doesn't have, a descriptor Kind bound to the wrong reflect.Kind of
// field. Those are caller bugs in the schema/struct pairing, not malformed
// input data, so they panic here rather than returning an ordinary error;
// LoadData, SaveData and Free recover the panic at the API boundary and report
// ErrInternalError unless Config.Debug asks to let it escape (spec.md §7).
package invariant

import "fmt"

// Assert panics with a descriptive message if cond is false.
func Assert(cond bool, format string, args ...interface{}) {
	if !cond {
		panic(fmt.Sprintf("cyaml: invariant violated: "+format, args...))
	}
}
