package mockchan

import (
	"fmt"
	"sort"

	"github.com/roach88/focal/internal/recorder"
)

// Alloc hands out an allocation of n bytes and returns its id. Ids start at 1.
// Every allocation must be released with Free before the scenario ends.
func (c *Channel) Alloc(n int) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextAlloc++
	id := c.nextAlloc
	c.allocs[id] = n
	c.rec.Record(recorder.KindAlloc, n, n, nil)
	return id
}

// Free releases an allocation. Freeing an unknown or already freed id returns
// ErrUnknownAlloc.
func (c *Channel) Free(id int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.allocs[id]
	if !ok {
		c.rec.Record(recorder.KindFree, 0, 0, nil)
		return fmt.Errorf("%w: id %d", ErrUnknownAlloc, id)
	}
	delete(c.allocs, id)
	c.rec.Record(recorder.KindFree, n, n, nil)
	return nil
}

// Outstanding returns the ids of allocations that have not been freed,
// in ascending order.
func (c *Channel) Outstanding() []int {
	c.mu.Lock()
	defer c.mu.Unlock()

	ids := make([]int, 0, len(c.allocs))
	for id := range c.allocs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
