// Package packet implements the Packet Strategies (spec.md §4.4): stateless,
// allocation-free frame builders that serialize a wire-format frame directly
// into a caller-supplied buffer. There is no base class or dynamic dispatch
// here beyond a single switch over the eight-member PacketKind enum — see
// spec.md §9's explicit direction against deep polymorphism for a
// compile-time-closed set this small.
package packet

import (
	"net"

	"github.com/packetgen/packetgen/internal/domain"
	"github.com/packetgen/packetgen/internal/rng"
)

// BuildOptions carries the per-call inputs a strategy needs beyond the
// buffer and target: the source identity to stamp into headers and the
// configured payload-size range.
type BuildOptions struct {
	SourceIP  net.IP
	SourceMAC [6]byte // used only by ARP

	MinPayload int
	MaxPayload int
}

// Result is what a successful build reports back: how many bytes of buf are
// valid frame, and the stable ASCII tag used as a stats bucket key.
type Result struct {
	Size int
	Tag  string
}

// Strategy is the capability set every packet kind implements (spec.md
// §4.4). Implementations must not allocate and must be safe to invoke
// concurrently with other strategies operating on disjoint buffers.
type Strategy interface {
	BuildInto(buf []byte, target *domain.Target, port uint16, r *rng.Batched, opts BuildOptions) (Result, error)
	MinSize() int
	CompatibleWith(family domain.Family) bool
}

// payloadSize draws a uniform payload length from [opts.MinPayload,
// opts.MaxPayload] and clips it to whatever room remains in the buffer
// after headerLen bytes, per spec.md §4.4 "Payload size".
func payloadSize(r *rng.Batched, opts BuildOptions, headerLen, bufLen int) int {
	lo, hi := opts.MinPayload, opts.MaxPayload
	if lo <= 0 {
		lo = 0
	}
	if hi < lo {
		hi = lo
	}
	n := r.IntRange(lo, hi)
	room := bufLen - headerLen
	if room < 0 {
		room = 0
	}
	if n > room {
		n = room
	}
	return n
}

// ForKind returns the stateless Strategy for a given kind. Strategies hold
// no state across calls except what the RNG supplies, so a single package-
// level instance per kind is safe to share across every worker.
func ForKind(k domain.PacketKind) Strategy {
	switch k {
	case domain.KindUDPv4:
		return udpV4{}
	case domain.KindTCPv4SYN:
		return tcpV4{flags: tcpFlagSYN}
	case domain.KindTCPv4ACK:
		return tcpV4{flags: tcpFlagACK}
	case domain.KindICMPv4:
		return icmpV4{}
	case domain.KindUDPv6:
		return udpV6{}
	case domain.KindTCPv6:
		return tcpV6{}
	case domain.KindICMPv6:
		return icmpV6{}
	case domain.KindARP:
		return arp{}
	default:
		return nil
	}
}
