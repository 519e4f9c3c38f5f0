// Package rng implements the Batched RNG (spec.md §4.2): one small ring per
// draw type, refilled in one bulk pass of PRNG draws when empty, so the hot
// loop never pays per-draw PRNG overhead.
package rng

import "math/rand"

const ringSize = 1024

// safe defaults returned if a ring is ever found empty after a refill
// attempt — spec.md says this "cannot occur with a seeded PRNG" but the
// sentinel keeps draws infallible regardless.
const (
	defaultPort      = 1024
	defaultSeq       = 0
	defaultAck       = 0
	defaultID        = 1
	defaultTTL       = 64
	defaultWindow    = 8192
	defaultFlowLabel = 0
	defaultByte      = 0
)

type ring struct {
	buf [ringSize]uint32
	pos int
	len int
}

func (r *ring) refill(src *rand.Rand) {
	for i := range r.buf {
		r.buf[i] = src.Uint32()
	}
	r.pos = 0
	r.len = ringSize
}

func (r *ring) next(src *rand.Rand, fallback uint32) uint32 {
	if r.len == 0 {
		r.refill(src)
		if r.len == 0 {
			return fallback
		}
	}
	v := r.buf[r.pos]
	r.pos++
	r.len--
	return v
}

// Batched is a per-worker RNG: owned exclusively, never shared, drawing
// port/seq/ack/id/ttl/window/flow-label/byte values from independent rings
// plus a bulk fill path for payloads.
type Batched struct {
	src *rand.Rand

	ports  ring
	seqs   ring
	acks   ring
	ids    ring
	ttls   ring
	wins   ring
	flows  ring
	bytes  ring
}

// New seeds a Batched RNG. Each worker owns exactly one; seeds should differ
// across workers (e.g. worker id mixed with a base seed) so protocol-mix
// convergence (spec.md §8 property 5) isn't biased by lockstep sequences.
func New(seed int64) *Batched {
	//nolint:gosec // math/rand is intentional: this is traffic shaping, not cryptography.
	return &Batched{src: rand.New(rand.NewSource(seed))}
}

// Port draws a source port in the unprivileged range 1024-65534.
func (b *Batched) Port() uint16 {
	v := b.ports.next(b.src, defaultPort)
	return uint16(1024 + (v % (65535 - 1024)))
}

// Seq draws a random TCP initial sequence number.
func (b *Batched) Seq() uint32 { return b.seqs.next(b.src, defaultSeq) }

// Ack draws a random TCP acknowledgment number.
func (b *Batched) Ack() uint32 { return b.acks.next(b.src, defaultAck) }

// ID draws a random IP identification field, never zero.
func (b *Batched) ID() uint16 {
	v := uint16(b.ids.next(b.src, defaultID))
	if v == 0 {
		return defaultID
	}
	return v
}

// TTL draws a randomized TTL, uniform over 32-255.
func (b *Batched) TTL() uint8 {
	v := b.ttls.next(b.src, defaultTTL)
	return uint8(32 + (v % 224))
}

// Window draws a randomized TCP receive window.
func (b *Batched) Window() uint16 {
	v := b.wins.next(b.src, defaultWindow)
	return uint16(1024 + (v % (65535 - 1024)))
}

// FlowLabel draws an IPv6 flow label (20 bits).
func (b *Batched) FlowLabel() uint32 {
	return b.flows.next(b.src, defaultFlowLabel) & 0xFFFFF
}

// Byte draws a single random byte, used for small per-byte randomization
// (e.g. MAC address octets).
func (b *Batched) Byte() byte {
	return byte(b.bytes.next(b.src, defaultByte))
}

// Fill populates buf with random bytes, used for packet payloads. Per
// spec.md §4.2, fills over 256 bytes bypass the ring machinery entirely and
// read straight from the bulk PRNG.
func (b *Batched) Fill(buf []byte) {
	if len(buf) > 256 {
		b.src.Read(buf) //nolint:errcheck // rand.Rand.Read never errors
		return
	}
	for i := range buf {
		buf[i] = b.Byte()
	}
}

// IntRange draws a uniform integer in [min, max], used for payload-size
// selection (spec.md §4.4 "Payload size").
func (b *Batched) IntRange(min, max int) int {
	if max <= min {
		return min
	}
	return min + int(b.src.Int63n(int64(max-min+1)))
}
