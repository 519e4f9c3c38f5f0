// Package stats implements the Per-Worker and Global Stats collaborators
// (spec.md §4.8, §4.9): cheap u64 locals batched into cache-line-aligned
// global atomics, and an immutable snapshot with derived rates for the
// export layer.
package stats

import (
	"sync/atomic"
	"time"

	"github.com/packetgen/packetgen/internal/domain"
)

// DefaultBatchSize is the local-flush trigger: once sent+failed reaches
// this many, a worker flushes its locals into the globals (spec.md §4.8).
const DefaultBatchSize = 50

// cacheLinePad is sized so each padded counter in Global occupies its own
// cache line, avoiding false sharing between fields written by different
// workers concurrently (spec.md §4.9).
type cacheLinePad [64 - 8]byte

// Global holds the fleet-wide counters. Every field is a relaxed-ordering
// atomic; snapshot() loads them in an unspecified order, which is
// acceptable because the only cross-field invariant required is
// packets_sent ≥ sum(per_protocol) in steady state, preserved by always
// incrementing a protocol bucket before the sent counter (spec.md §4.9).
type Global struct {
	sent   atomic.Uint64
	_      cacheLinePad
	failed atomic.Uint64
	_      cacheLinePad
	bytes  atomic.Uint64
	_      cacheLinePad

	perProtocol [domain.NumKinds]atomic.Uint64

	startedAt time.Time
}

// NewGlobal constructs a Global counter set, stamping the start time used
// to derive packets-per-second in Snapshot.
func NewGlobal() *Global {
	return &Global{startedAt: time.Now()}
}

// add folds a flushed Local into the global counters, one atomic add per
// field, protocol buckets before the sent counter per the invariant above.
func (g *Global) add(l *Local) {
	for k := 0; k < domain.NumKinds; k++ {
		if l.perProtocol[k] > 0 {
			g.perProtocol[k].Add(l.perProtocol[k])
		}
	}
	if l.bytes > 0 {
		g.bytes.Add(l.bytes)
	}
	if l.failed > 0 {
		g.failed.Add(l.failed)
	}
	if l.sent > 0 {
		g.sent.Add(l.sent)
	}
}

// Snapshot is an immutable point-in-time read of every global counter,
// with the derived rates the export layer needs (spec.md §6).
type Snapshot struct {
	Sent        uint64
	Failed      uint64
	Bytes       uint64
	PerProtocol [domain.NumKinds]uint64
	Elapsed     time.Duration
}

// PacketsPerSecond derives the overall send rate from Sent and Elapsed.
func (s Snapshot) PacketsPerSecond() float64 {
	secs := s.Elapsed.Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(s.Sent) / secs
}

// SuccessRate derives the fraction of attempted sends that succeeded.
func (s Snapshot) SuccessRate() float64 {
	total := s.Sent + s.Failed
	if total == 0 {
		return 0
	}
	return float64(s.Sent) / float64(total)
}

// Megabits derives throughput in megabits per second from Bytes and Elapsed.
func (s Snapshot) Megabits() float64 {
	secs := s.Elapsed.Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(s.Bytes) * 8 / 1_000_000 / secs
}

// Snapshot loads every counter. Field order of the underlying atomic loads
// is unspecified; eventual consistency across fields is acceptable per
// spec.md §4.9.
func (g *Global) Snapshot() Snapshot {
	snap := Snapshot{
		Sent:    g.sent.Load(),
		Failed:  g.failed.Load(),
		Bytes:   g.bytes.Load(),
		Elapsed: time.Since(g.startedAt),
	}
	for k := 0; k < domain.NumKinds; k++ {
		snap.PerProtocol[k] = g.perProtocol[k].Load()
	}
	return snap
}

// Local is a worker-owned, non-atomic counter set. It is never shared
// across goroutines; a Flush folds it into a Global in one batch of
// atomic adds, then clears itself (spec.md §4.8).
type Local struct {
	sent        uint64
	failed      uint64
	bytes       uint64
	perProtocol [domain.NumKinds]uint64

	batchSize int
}

// NewLocal builds a Local with the given flush-trigger batch size; zero or
// negative falls back to DefaultBatchSize.
func NewLocal(batchSize int) *Local {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Local{batchSize: batchSize}
}

// RecordSent accounts a successful send of size bytes for kind, per the
// worker hot-loop step "(8) on ok, local.sent += 1; local.bytes += size;
// local[kind] += 1".
func (l *Local) RecordSent(kind domain.PacketKind, size int) {
	l.sent++
	l.bytes += uint64(size)
	l.perProtocol[kind]++
}

// RecordFailed accounts a failed send attempt.
func (l *Local) RecordFailed() {
	l.failed++
}

// ShouldFlush reports whether sent+failed has reached the batch trigger.
func (l *Local) ShouldFlush() bool {
	return l.sent+l.failed >= uint64(l.batchSize)
}

// Flush folds the locals into g and resets them to zero. Safe to call even
// when ShouldFlush is false — callers also flush unconditionally on worker
// exit and on an explicit sampling tick (spec.md §4.8 triggers b, c).
func (l *Local) Flush(g *Global) {
	g.add(l)
	l.sent, l.failed, l.bytes = 0, 0, 0
	for k := range l.perProtocol {
		l.perProtocol[k] = 0
	}
}
