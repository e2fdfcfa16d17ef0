package cyaml

// AllocToken identifies one heap-owned block by the address of the Go
// value the engine created for it (reflect.New's pointer). The engine,
// not the Allocator, computes it — this package already owns the
// backing memory via Go's GC, so there is no real "allocate and hand me
// back an address" step the way a C allocator works; what remains to
// model is the bookkeeping an Allocator does as blocks come and go, which
// is what makes spec.md §8 properties 2/3/5 (idempotent free, rollback
// completeness, schema validation allocates nothing) testable with a
// counting double. Reusing the real address, rather than an internal
// sequence number, means a later Free(schema, root, cfg) call can walk
// the same graph a prior LoadData populated and recompute the exact
// tokens to release, without this package having to remember a log
// across calls.
type AllocToken uintptr

// Allocator is the bookkeeping side of spec.md §4.2's allocator shim.
type Allocator interface {
	// Alloc records that tok, of the given size, is now live. The engine
	// has already created the backing value by the time it calls this; an
	// allocator that wants to refuse the request (mapped by the engine to
	// ErrOutOfMemory) does so here.
	Alloc(tok AllocToken, size int) error
	// Free releases a previously recorded token. An allocator may return an
	// error for an unknown or already-freed token; the engine logs that
	// error at LogWarning and does not return it to the caller.
	Free(tok AllocToken) error
}

// DefaultAllocator is a no-op bookkeeping allocator: every request
// succeeds, matching spec.md §4.2's "default implementation provided."
type DefaultAllocator struct{}

func (DefaultAllocator) Alloc(tok AllocToken, size int) error { return nil }
func (DefaultAllocator) Free(tok AllocToken) error            { return nil }
