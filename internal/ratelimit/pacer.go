// Package ratelimit implements the Rate Limiter (spec.md §4.6): a pacer
// that suspends the caller until the next send slot, sleeping for waits of
// a millisecond or more and busy-spinning below that threshold to hit
// sub-millisecond accuracy without paying a scheduler round trip.
package ratelimit

import (
	"runtime"
	"time"

	"github.com/packetgen/packetgen/internal/domain"
)

// sleepThreshold is the remaining-wait cutoff below which pace() busy-spins
// instead of sleeping, per spec.md §4.6.
const sleepThreshold = time.Millisecond

// spinYieldEvery bounds how often a busy-spin loop hints the scheduler.
// Go has no PAUSE intrinsic in the standard library; calling
// runtime.Gosched() every so many iterations is the idiomatic substitute —
// frequent enough to not starve other goroutines on the same OS thread,
// rare enough not to reintroduce a full scheduler round trip per spin.
const spinYieldEvery = 256

// Pacer maintains an absolute next-slot timestamp so drift never
// accumulates across iterations (spec.md §4.6: "drift is bounded by
// maintaining an absolute next-slot timestamp rather than accumulating
// per-iteration deltas"). Not safe for concurrent use — each worker owns one.
type Pacer struct {
	interval time.Duration
	jitter   bool
	next     time.Time
	now      func() time.Time
	sleep    func(time.Duration)
	rand     func() float64
}

// New builds a Pacer from a rate spec. randFloat, if non-nil, draws a
// uniform value in [0,1) used for the ±10% jitter; pass the worker's own
// RNG source so jitter draws don't allocate a separate generator.
func New(spec domain.RateSpec, randFloat func() float64) *Pacer {
	interval := time.Duration(spec.Interval() * float64(time.Second))
	return &Pacer{
		interval: interval,
		jitter:   spec.Jitter,
		now:      time.Now,
		sleep:    time.Sleep,
		rand:     randFloat,
	}
}

// Reset arms the pacer's first slot at t (normally time.Now() at worker
// start), so the very first pace() call returns immediately.
func (p *Pacer) Reset(t time.Time) {
	p.next = t
}

// Pace blocks until the next send slot, then advances the absolute
// next-slot timestamp by one (jittered) interval.
func (p *Pacer) Pace() {
	if p.interval <= 0 {
		return
	}
	if p.next.IsZero() {
		p.next = p.now()
	}

	for {
		now := p.now()
		remaining := p.next.Sub(now)
		if remaining <= 0 {
			break
		}
		if remaining >= sleepThreshold {
			p.sleep(remaining - sleepThreshold/2)
			continue
		}
		p.spin(remaining)
		break
	}

	p.next = p.next.Add(p.jitteredInterval())
	// If the caller fell far behind (e.g. a GC pause), don't try to repay
	// the whole backlog at full speed: resync to "now plus one interval"
	// so pace() never overshoots by more than one slot in steady state.
	if floor := p.now().Add(-p.interval); p.next.Before(floor) {
		p.next = p.now().Add(p.jitteredInterval())
	}
}

func (p *Pacer) spin(remaining time.Duration) {
	deadline := p.now().Add(remaining)
	i := 0
	for p.now().Before(deadline) {
		i++
		if i%spinYieldEvery == 0 {
			runtime.Gosched()
		}
	}
}

func (p *Pacer) jitteredInterval() time.Duration {
	if !p.jitter || p.rand == nil {
		return p.interval
	}
	// ±10% noise around the ideal interval.
	factor := 0.9 + 0.2*p.rand()
	return time.Duration(float64(p.interval) * factor)
}
