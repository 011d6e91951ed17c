package lzma

import (
	"fmt"
	"sync/atomic"
)

// MemoryBudget caps the memory held by all decoders sharing it. It is safe
// for concurrent use.
type MemoryBudget struct {
	limit int64
	used  atomic.Int64
}

func NewMemoryBudget(limit int64) *MemoryBudget {
	return &MemoryBudget{limit: limit}
}

func (b *MemoryBudget) Limit() int64 {
	return b.limit
}

func (b *MemoryBudget) Used() int64 {
	return b.used.Load()
}

// Reserve accounts n bytes or fails with ErrAllocationFailed if that would
// exceed the limit. A nil budget accepts everything.
func (b *MemoryBudget) Reserve(n int64) error {
	if b == nil {
		return nil
	}

	for {
		used := b.used.Load()
		if n > b.limit-used {
			return fmt.Errorf("%w: %d bytes requested, %d of %d in use", ErrAllocationFailed, n, used, b.limit)
		}

		if b.used.CompareAndSwap(used, used+n) {
			return nil
		}
	}
}

func (b *MemoryBudget) Release(n int64) {
	if b == nil {
		return
	}

	b.used.Add(-n)
}
