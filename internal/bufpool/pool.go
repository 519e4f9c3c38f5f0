// Package bufpool implements the Buffer Pool (spec.md §4.3): a lock-free
// Treiber stack of MTU-sized buffers, pre-allocated at construction, grown
// on demand up to a cap, never shrunk. Acquisition is scoped — the returned
// Lease must be released on every exit path, including error and panic,
// which callers do with a single `defer lease.Release()`.
package bufpool

import "sync/atomic"

type node struct {
	buf  []byte
	next atomic.Pointer[node]
}

// Pool is safe for concurrent use by any number of workers. A stack push or
// pop does one compare-and-swap in the uncontended path; growing the pool
// in Acquire adds compare-and-swaps on the allocation and peak counters.
type Pool struct {
	head atomic.Pointer[node]

	bufSize int
	max     int

	allocated   atomic.Int64 // total buffers ever allocated (never decreases)
	outstanding atomic.Int64 // buffers currently checked out
	free        atomic.Int64 // buffers currently on the free list
	peak        atomic.Int64 // high-water mark of allocated
	hits        atomic.Int64 // acquires served from the free list
	misses      atomic.Int64 // acquires that had to allocate or failed
}

// New pre-allocates `initial` buffers of `bufSize` bytes and permits growth
// up to `max` total buffers.
func New(initial, max, bufSize int) *Pool {
	if max < initial {
		max = initial
	}
	p := &Pool{bufSize: bufSize, max: max}
	for i := 0; i < initial; i++ {
		p.push(&node{buf: make([]byte, bufSize)})
	}
	p.allocated.Store(int64(initial))
	p.free.Store(int64(initial))
	p.peak.Store(int64(initial))
	return p
}

func (p *Pool) push(n *node) {
	for {
		old := p.head.Load()
		n.next.Store(old)
		if p.head.CompareAndSwap(old, n) {
			return
		}
	}
}

func (p *Pool) pop() *node {
	for {
		old := p.head.Load()
		if old == nil {
			return nil
		}
		next := old.next.Load()
		if p.head.CompareAndSwap(old, next) {
			return old
		}
	}
}

// Lease is a scoped handle to a checked-out buffer. Release returns it to
// its originating pool exactly once; calling Release more than once is safe
// and a no-op after the first call.
type Lease struct {
	pool     *Pool
	n        *node
	released atomic.Bool
	scratch  bool // true if this lease is an owned fallback buffer, not pool-backed
}

// Bytes returns the full-capacity backing slice; callers slice it down to
// the size the packet strategy actually wrote.
func (l *Lease) Bytes() []byte {
	return l.n.buf
}

// Release returns the buffer to the pool. Safe to call from a defer on
// every exit path, including after an error or a recovered panic.
func (l *Lease) Release() {
	if l == nil || !l.released.CompareAndSwap(false, true) {
		return
	}
	if l.scratch {
		return
	}
	l.pool.push(l.n)
	l.pool.free.Add(1)
	l.pool.outstanding.Add(-1)
}

// Acquire returns a Lease for an MTU-sized buffer, or false when the pool is
// empty and already at its growth cap (spec.md §4.3: "acquire() -> Option<Buffer>").
func (p *Pool) Acquire() (*Lease, bool) {
	if n := p.pop(); n != nil {
		p.free.Add(-1)
		p.outstanding.Add(1)
		p.hits.Add(1)
		return &Lease{pool: p, n: n}, true
	}

	p.misses.Add(1)
	for {
		cur := p.allocated.Load()
		if cur >= int64(p.max) {
			return nil, false
		}
		if p.allocated.CompareAndSwap(cur, cur+1) {
			for {
				peak := p.peak.Load()
				if cur+1 <= peak || p.peak.CompareAndSwap(peak, cur+1) {
					break
				}
			}
			p.outstanding.Add(1)
			return &Lease{pool: p, n: &node{buf: make([]byte, p.bufSize)}}, true
		}
	}
}

// ScratchLease wraps a caller-owned buffer (the "owned scratch buffer"
// fallback of spec.md §4.10 step 4) in the same Lease interface so worker
// code never branches on where a buffer came from. Releasing it is a no-op:
// the scratch buffer is not pool-backed and is simply dropped for GC.
func ScratchLease(size int) *Lease {
	return &Lease{n: &node{buf: make([]byte, size)}, scratch: true}
}

// Stats is a point-in-time snapshot of pool diagnostics.
type Stats struct {
	Allocated   int64
	Outstanding int64
	Free        int64
	Peak        int64
	Hits        int64
	Misses      int64
}

// HitRate returns hits / (hits + misses), or 1.0 if there have been no acquires.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 1
	}
	return float64(s.Hits) / float64(total)
}

// Stats takes a snapshot of the pool's diagnostic counters.
func (p *Pool) Stats() Stats {
	return Stats{
		Allocated:   p.allocated.Load(),
		Outstanding: p.outstanding.Load(),
		Free:        p.free.Load(),
		Peak:        p.peak.Load(),
		Hits:        p.hits.Load(),
		Misses:      p.misses.Load(),
	}
}

// BufferSize returns the configured per-buffer capacity.
func (p *Pool) BufferSize() int { return p.bufSize }
