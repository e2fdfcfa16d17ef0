package cyaml

import "reflect"

// rollbackLoad releases whatever partial graph a failed load allocated by
// walking the root graph per schema: each owned block's descendants are
// released before the block itself, siblings in schema field order and
// sequence index order, which is not in general the reverse of the order
// in which they were allocated. It shares
// free.go's walk with the public Free operation rather than replaying a
// separately tracked allocation log, since the partially populated root
// value already carries everything the walk needs: any slot the load
// never reached is still nil.
func rollbackLoad(cfg *Config, alloc Allocator, schema *Descriptor, root reflect.Value) {
	freeSlot(cfg, alloc, schema, root)
}
