// Package transport implements the Transport capability set (spec.md §4.7):
// send_v4/send_v6/send_l2 over one of three variants — RawSocket, Mock, or
// DryRun — each opening (or simulating) one channel per family per worker
// so no channel is ever shared or locked on the hot path.
package transport

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// SendError wraps a channel-specific send failure with the channel kind
// that produced it (spec.md §4.7 "Send{kind, cause}").
type SendError struct {
	Kind  string
	Cause error
}

func (e *SendError) Error() string { return fmt.Sprintf("transport: %s send failed: %v", e.Kind, e.Cause) }
func (e *SendError) Unwrap() error { return e.Cause }

// ErrChannelClosed is returned once a channel has been torn down. It is
// fatal to the worker that owns the channel but not to the fleet.
var ErrChannelClosed = fmt.Errorf("transport: channel closed")

// PayloadTooLargeError reports a frame larger than the channel's MTU.
type PayloadTooLargeError struct {
	Size int
	MTU  int
}

func (e *PayloadTooLargeError) Error() string {
	return fmt.Sprintf("transport: payload %d bytes exceeds MTU %d", e.Size, e.MTU)
}

// Sender is the capability set every transport variant implements. Each
// Sender is owned by exactly one worker; implementations must not share
// state that would require locking on Send*.
type Sender interface {
	SendV4(frame []byte) error
	SendV6(frame []byte) error
	SendL2(frame []byte) error
	// HasL2 reports whether SendL2 is backed by a real or simulated
	// channel, used to gate ARP at construction (spec.md §4.1/§4.5).
	HasL2() bool
	Close() error
}

// defaultMTU is the default channel MTU used for the size guard; it matches the
// spec's default Ethernet MTU (spec.md §3 Safety Gate default_mtu).
const defaultMTU = 1500

func checkSize(frame []byte, mtu int) error {
	if mtu > 0 && len(frame) > mtu {
		return &PayloadTooLargeError{Size: len(frame), MTU: mtu}
	}
	return nil
}

// Stats exposes the record of a variant's attempted sends, used by Mock in
// tests and by DryRun for parity with RawSocket's observable surface.
type Stats struct {
	SentV4, SentV6, SentL2 int
	Failed                 int
}

// Mock records every send instead of touching the network (spec.md §4.7
// "Mock records every send for tests").
type Mock struct {
	mu     sync.Mutex
	hasL2  bool
	mtu    int
	frames [][]byte
	stats  Stats
	closed bool
}

// NewMock builds a Mock transport. hasL2 controls whether SendL2 (and thus
// ARP) is treated as available.
func NewMock(hasL2 bool) *Mock {
	return &Mock{hasL2: hasL2, mtu: defaultMTU}
}

func (m *Mock) record(kind string, frame []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrChannelClosed
	}
	if err := checkSize(frame, m.mtu); err != nil {
		m.stats.Failed++
		return &SendError{Kind: kind, Cause: err}
	}
	cp := append([]byte(nil), frame...)
	m.frames = append(m.frames, cp)
	switch kind {
	case "v4":
		m.stats.SentV4++
	case "v6":
		m.stats.SentV6++
	case "l2":
		m.stats.SentL2++
	}
	return nil
}

func (m *Mock) SendV4(frame []byte) error { return m.record("v4", frame) }
func (m *Mock) SendV6(frame []byte) error { return m.record("v6", frame) }
func (m *Mock) SendL2(frame []byte) error {
	if !m.hasL2 {
		return &SendError{Kind: "l2", Cause: fmt.Errorf("no L2 channel configured")}
	}
	return m.record("l2", frame)
}
func (m *Mock) HasL2() bool { return m.hasL2 }
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Frames returns a copy of every frame recorded so far, for test assertions.
func (m *Mock) Frames() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.frames))
	copy(out, m.frames)
	return out
}

// Stats returns a snapshot of send counts.
func (m *Mock) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

// DryRun simulates send latency and a configurable failure probability
// without touching the network (spec.md §4.7). Latency is modeled with a
// caller-supplied sleep function so tests don't pay real wall-clock time.
type DryRun struct {
	hasL2       bool
	mtu         int
	successProb float64
	latency     time.Duration
	sleep       func(time.Duration)
	rng         *rand.Rand
	mu          sync.Mutex
	closed      bool
}

// DryRunConfig tunes a DryRun transport. PerfectSimulation forces a 100%
// success probability regardless of SuccessProbability, matching spec.md
// §4.7's "100% when perfect simulation is enabled".
type DryRunConfig struct {
	HasL2              bool
	SuccessProbability float64 // default 0.98 if zero
	Latency            time.Duration
	PerfectSimulation  bool
	Seed               int64
}

// NewDryRun builds a DryRun transport from cfg.
func NewDryRun(cfg DryRunConfig) *DryRun {
	prob := cfg.SuccessProbability
	if prob <= 0 {
		prob = 0.98
	}
	if cfg.PerfectSimulation {
		prob = 1.0
	}
	return &DryRun{
		hasL2:       cfg.HasL2,
		mtu:         defaultMTU,
		successProb: prob,
		latency:     cfg.Latency,
		sleep:       time.Sleep,
		rng:         rand.New(rand.NewSource(cfg.Seed)), //nolint:gosec // simulation only
	}
}

func (d *DryRun) attempt(kind string, frame []byte) error {
	d.mu.Lock()
	closed := d.closed
	d.mu.Unlock()
	if closed {
		return ErrChannelClosed
	}
	if err := checkSize(frame, d.mtu); err != nil {
		return &SendError{Kind: kind, Cause: err}
	}
	if d.latency > 0 {
		d.sleep(d.latency)
	}
	if d.rng.Float64() >= d.successProb {
		return &SendError{Kind: kind, Cause: fmt.Errorf("simulated send failure")}
	}
	return nil
}

func (d *DryRun) SendV4(frame []byte) error { return d.attempt("v4", frame) }
func (d *DryRun) SendV6(frame []byte) error { return d.attempt("v6", frame) }
func (d *DryRun) SendL2(frame []byte) error {
	if !d.hasL2 {
		return &SendError{Kind: "l2", Cause: fmt.Errorf("no L2 channel configured")}
	}
	return d.attempt("l2", frame)
}
func (d *DryRun) HasL2() bool { return d.hasL2 }
func (d *DryRun) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}
