// Package domain holds the small set of types shared across the packet
// generation pipeline: the packet-kind enum, the target and protocol-mix
// data held read-only by every worker, and the rate specification. Keeping
// these in one leaf package avoids import cycles between internal/packet,
// internal/selector, internal/stats and internal/safety.
package domain

import "fmt"

// Family is the IP address family a packet kind targets.
type Family int

const (
	FamilyV4 Family = iota
	FamilyV6
	// FamilyL2 is used by kinds (ARP) that operate below IP, on an Ethernet
	// link rather than an IP family.
	FamilyL2
)

func (f Family) String() string {
	switch f {
	case FamilyV4:
		return "ipv4"
	case FamilyV6:
		return "ipv6"
	case FamilyL2:
		return "l2"
	default:
		return "unknown"
	}
}

// PacketKind is the tagged-variant enum of §3/§4.4: eight alternatives known
// at compile time, each with a fixed minimum frame size and required
// channel family. There is deliberately no interface/base-class here — a
// single switch over this enum is the whole of the dynamic dispatch this
// spec calls for (see spec.md §9).
type PacketKind int

const (
	KindUDPv4 PacketKind = iota
	KindTCPv4SYN
	KindTCPv4ACK
	KindICMPv4
	KindUDPv6
	KindTCPv6
	KindICMPv6
	KindARP
	kindCount
)

// NumKinds is the fixed capacity of any per-kind array or counter table.
const NumKinds = int(kindCount)

// AllKinds enumerates every kind in a stable order, used to build the
// protocol-mix schedule (§4.5) and the global stats per-protocol array (§4.9).
var AllKinds = [NumKinds]PacketKind{
	KindUDPv4, KindTCPv4SYN, KindTCPv4ACK, KindICMPv4,
	KindUDPv6, KindTCPv6, KindICMPv6, KindARP,
}

// Tag is the stable ASCII protocol_name used as a stats bucket key and in
// the export schema's protocol_breakdown map (spec.md §6).
func (k PacketKind) Tag() string {
	switch k {
	case KindUDPv4:
		return "UDP"
	case KindTCPv4SYN:
		return "TCP_SYN"
	case KindTCPv4ACK:
		return "TCP_ACK"
	case KindICMPv4:
		return "ICMP"
	case KindUDPv6:
		return "UDP6"
	case KindTCPv6:
		return "TCP6"
	case KindICMPv6:
		return "ICMP6"
	case KindARP:
		return "ARP"
	default:
		return "UNKNOWN"
	}
}

// MinSize returns the minimum frame size this kind can ever build, used by
// the Safety Gate (§4.1 rule e) and by strategies' own min_size().
func (k PacketKind) MinSize() int {
	switch k {
	case KindUDPv4:
		return 28 // 20 IPv4 + 8 UDP
	case KindTCPv4SYN, KindTCPv4ACK:
		return 40 // 20 IPv4 + 20 TCP
	case KindICMPv4:
		return 28 // 20 IPv4 + 8 ICMP echo header
	case KindUDPv6:
		return 48 // 40 IPv6 + 8 UDP
	case KindTCPv6:
		return 60 // 40 IPv6 + 20 TCP
	case KindICMPv6:
		return 48 // 40 IPv6 + 8 ICMPv6 echo header
	case KindARP:
		return 42 // 14 Ethernet + 28 ARP
	default:
		return 0
	}
}

// Channel reports whether this kind rides on an L3 (IP) or L2 (Ethernet) channel.
func (k PacketKind) Channel() Family {
	if k == KindARP {
		return FamilyL2
	}
	return k.IPFamily()
}

// IPFamily reports the IP family this kind targets (meaningless for ARP,
// which answers FamilyL2 from Channel instead).
func (k PacketKind) IPFamily() Family {
	switch k {
	case KindUDPv4, KindTCPv4SYN, KindTCPv4ACK, KindICMPv4:
		return FamilyV4
	case KindUDPv6, KindTCPv6, KindICMPv6:
		return FamilyV6
	case KindARP:
		return FamilyL2
	default:
		return FamilyV4
	}
}

// CompatibleWith reports whether this kind may be emitted at a target of the
// given family, per §3 ProtocolMix invariants: v6 kinds only for v6 targets,
// v4 kinds only for v4 targets, ARP only when an L2 channel exists (signaled
// by passing FamilyL2 as the target family alongside FamilyV4/V6 is not
// expressible here — callers pass hasL2 separately via CompatibleWithL2).
func (k PacketKind) CompatibleWith(targetFamily Family) bool {
	if k == KindARP {
		return false // gated separately, see CompatibleWithL2
	}
	return k.IPFamily() == targetFamily
}

// CompatibleWithL2 reports whether ARP may be used, which requires the
// caller to have an L2 channel available (an Ethernet-capable transport).
func (k PacketKind) CompatibleWithL2(hasL2 bool) bool {
	if k != KindARP {
		return false
	}
	return hasL2
}

func (k PacketKind) String() string {
	if int(k) < 0 || int(k) >= NumKinds {
		return fmt.Sprintf("PacketKind(%d)", int(k))
	}
	return k.Tag()
}
