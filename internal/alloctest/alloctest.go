// Package alloctest provides a counting cyaml.Allocator test double used
// to verify spec.md §8 properties 2 (idempotent free), 3 (rollback
// completeness) and 5 (schema validation performs zero allocations).
package alloctest

import (
	"fmt"
	"sync"

	"github.com/tlsa/cyaml-go"
)

// Counting is an Allocator that tracks every live token and fails loudly
// on a double allocation, a double free, or a free of an unknown token.
type Counting struct {
	mu     sync.Mutex
	live   map[cyaml.AllocToken]int
	allocs int
	frees  int
}

func New() *Counting { return &Counting{live: map[cyaml.AllocToken]int{}} }

func (c *Counting) Alloc(tok cyaml.AllocToken, size int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.live[tok]; ok {
		return fmt.Errorf("alloctest: token %v allocated while already live", tok)
	}
	c.live[tok] = size
	c.allocs++
	return nil
}

func (c *Counting) Free(tok cyaml.AllocToken) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.live[tok]; !ok {
		return fmt.Errorf("alloctest: free of unknown or already-freed token %v", tok)
	}
	delete(c.live, tok)
	c.frees++
	return nil
}

// Outstanding returns the number of allocations with no matching free.
func (c *Counting) Outstanding() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.live)
}

// Allocs returns the total number of Alloc calls made so far.
func (c *Counting) Allocs() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.allocs
}
