package buffer

import (
	"sort"
	"sync"
	"sync/atomic"
)

// DefaultSizes are the bucket sizes used by NewBytePool. They cover the
// request lengths the driver issues for paged, cached and non-cached I/O.
var DefaultSizes = []int{
	4096,     // 4KB
	8192,     // 8KB
	16384,    // 16KB
	32768,    // 32KB
	65536,    // 64KB
	131072,   // 128KB
	262144,   // 256KB
	524288,   // 512KB
	1048576,  // 1MB
	4194304,  // 4MB
	8388608,  // 8MB
}

// BytePool provides object pooling for byte slices to reduce GC pressure
// while marshaling read and write buffers across the driver boundary.
type BytePool struct {
	pools map[int]*sync.Pool
	sizes []int

	hits      atomic.Uint64
	misses    atomic.Uint64
	oversized atomic.Uint64
}

// NewBytePool creates a byte pool with the given bucket sizes, or
// DefaultSizes when none are given.
func NewBytePool(sizes ...int) *BytePool {
	if len(sizes) == 0 {
		sizes = DefaultSizes
	}
	sorted := make([]int, 0, len(sizes))
	for _, s := range sizes {
		if s > 0 {
			sorted = append(sorted, s)
		}
	}
	sort.Ints(sorted)

	p := &BytePool{
		pools: make(map[int]*sync.Pool, len(sorted)),
		sizes: sorted,
	}
	for _, size := range sorted {
		size := size
		p.pools[size] = &sync.Pool{
			New: func() interface{} {
				p.misses.Add(1)
				buf := make([]byte, size)
				return &buf
			},
		}
	}
	return p
}

// Get returns a zeroed slice of exactly size bytes.
func (p *BytePool) Get(size int) []byte {
	if size <= 0 {
		return []byte{}
	}

	idx := sort.SearchInts(p.sizes, size)
	if idx == len(p.sizes) {
		p.oversized.Add(1)
		return make([]byte, size)
	}

	before := p.misses.Load()
	bp := p.pools[p.sizes[idx]].Get().(*[]byte)
	if p.misses.Load() == before {
		p.hits.Add(1)
	}
	return (*bp)[:size]
}

// Put returns a slice obtained from Get. Slices that did not come from a
// bucket are left to the garbage collector.
func (p *BytePool) Put(buf []byte) {
	if buf == nil {
		return
	}

	capacity := cap(buf)
	pool, exists := p.pools[capacity]
	if !exists {
		return
	}

	buf = buf[:capacity]
	clear(buf)
	pool.Put(&buf)
}

// PoolStats describes the pool configuration and usage.
type PoolStats struct {
	PoolSizes     []int  `json:"pool_sizes"`
	TotalPools    int    `json:"total_pools"`
	MaxBufferSize int    `json:"max_buffer_size"`
	MinBufferSize int    `json:"min_buffer_size"`
	Hits          uint64 `json:"hits"`
	Misses        uint64 `json:"misses"`
	Oversized     uint64 `json:"oversized"`
}

// GetStats returns current pool statistics
func (p *BytePool) GetStats() PoolStats {
	stats := PoolStats{
		PoolSizes:  make([]int, len(p.sizes)),
		TotalPools: len(p.pools),
		Hits:       p.hits.Load(),
		Misses:     p.misses.Load(),
		Oversized:  p.oversized.Load(),
	}
	copy(stats.PoolSizes, p.sizes)

	if len(p.sizes) > 0 {
		stats.MinBufferSize = p.sizes[0]
		stats.MaxBufferSize = p.sizes[len(p.sizes)-1]
	}
	return stats
}
