package bump

import (
	"sync"
	"weak"
)

// Pool provides a thread-safe pool of reusable arenas for high-frequency
// allocation patterns.
//
// Pool items are held through weak pointers, so the GC can collect idle
// arenas at any time; before reusing an item we upgrade the weak pointer to
// a strong one while removing it from the pool. Releasing an item Resets its
// arena, which bumps the arena generation and thereby invalidates every
// Vector, IntoIter and Buffer still bound to it: a caller that leaks a view
// past Release gets a panic on the next access, not recycled data.
type Pool struct {
	// pool is a slice of weak pointers to the struct holding the arena
	pool  []weak.Pointer[PoolItem]
	sizes map[uint64]*poolItemSize
	mu    sync.Mutex
}

// poolItemSize tracks the required memory across the last 50 arenas
// released under one key.
type poolItemSize struct {
	count      int
	totalBytes int
}

// PoolItem wraps an Arena for use in the pool.
type PoolItem struct {
	Arena *Arena
	Key   uint64
}

// NewPool creates a new Pool instance.
func NewPool() *Pool {
	return &Pool{
		sizes: make(map[uint64]*poolItemSize),
	}
}

// Acquire gets an arena from the pool or creates a new one if none are
// available. The key is used to track arena sizes per use case, so that new
// arenas are born with a chunk size matching the workload's history.
func (p *Pool) Acquire(key uint64) *PoolItem {
	p.mu.Lock()
	defer p.mu.Unlock()

	for len(p.pool) > 0 {
		lastIdx := len(p.pool) - 1
		wp := p.pool[lastIdx]
		p.pool = p.pool[:lastIdx]

		if v := wp.Value(); v != nil {
			v.Key = key
			return v
		}
		// Weak pointer was collected, try the next item.
	}

	return &PoolItem{
		Arena: NewArena(WithMinChunkSize(p.chunkSizeFor(key))),
		Key:   key,
	}
}

// Release resets the item's arena and returns it to the pool for reuse.
// The arena's peak usage is recorded to right-size future arenas under the
// same key.
func (p *Pool) Release(item *PoolItem) {
	peak := item.Arena.Peak()
	item.Arena.Reset()

	p.mu.Lock()
	defer p.mu.Unlock()
	p.record(item, peak)
}

// ReleaseMany releases a batch of items under a single lock acquisition.
func (p *Pool) ReleaseMany(items []*PoolItem) {
	peaks := make([]int, len(items))
	for i, item := range items {
		peaks[i] = item.Arena.Peak()
		item.Arena.Reset()
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for i, item := range items {
		p.record(item, peaks[i])
	}
}

// record updates the size statistics for the item's key and re-pools the
// item behind a weak pointer. Callers must hold p.mu.
func (p *Pool) record(item *PoolItem, peak int) {
	if size, ok := p.sizes[item.Key]; ok {
		if size.count == 50 {
			size.count = 1
			size.totalBytes = size.totalBytes / 50
		}
		size.count++
		size.totalBytes += peak
	} else {
		p.sizes[item.Key] = &poolItemSize{
			count:      1,
			totalBytes: peak,
		}
	}

	item.Key = 0
	p.pool = append(p.pool, weak.Make(item))
}

// chunkSizeFor returns the optimal minimum chunk size for a given key.
// If no size is recorded, it defaults to 1MB.
func (p *Pool) chunkSizeFor(key uint64) int {
	if size, ok := p.sizes[key]; ok {
		return size.totalBytes / size.count
	}
	return 1024 * 1024 // Default 1MB
}
