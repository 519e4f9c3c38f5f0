package domain

import (
	"fmt"
	"net"
)

// Target is an IP address plus an ordered, non-empty port list — built once
// at driver start, immutable, and shared by reference across every worker
// (spec.md §3 Target / Ownership).
type Target struct {
	IP     net.IP
	Family Family
	Ports  []uint16
}

// NewTarget builds a Target from a parsed IP and port list. It performs no
// validation itself — that is the Safety Gate's (internal/safety) sole job,
// per spec.md §4.1 ("This gate is the only place these constants live").
func NewTarget(ip net.IP, ports []uint16) (*Target, error) {
	if ip == nil {
		return nil, fmt.Errorf("target: nil IP")
	}
	if len(ports) == 0 {
		return nil, fmt.Errorf("target: port list must be non-empty")
	}
	family := FamilyV4
	if ip.To4() == nil {
		family = FamilyV6
	}
	cp := make([]uint16, len(ports))
	copy(cp, ports)
	return &Target{IP: ip, Family: family, Ports: cp}, nil
}

// PortAt returns the port at a rotating index, round-robining deterministically
// through duplicates exactly as stored (spec.md §8 boundary: "Duplicate ports
// in the list are tolerated; the selector round-robins through them
// deterministically").
func (t *Target) PortAt(i uint64) uint16 {
	return t.Ports[int(i%uint64(len(t.Ports)))]
}

// ProtocolMix maps packet kind to a non-negative weight. Weights are
// expected to sum to ≈1.0 within the tolerance enforced by the Safety Gate.
type ProtocolMix struct {
	Weights [NumKinds]float64
}

// NewProtocolMix builds a mix from a sparse map of kind to weight; kinds not
// present default to a weight of zero.
func NewProtocolMix(weights map[PacketKind]float64) ProtocolMix {
	var m ProtocolMix
	for k, w := range weights {
		if int(k) >= 0 && int(k) < NumKinds {
			m.Weights[k] = w
		}
	}
	return m
}

// Sum returns the sum of all configured weights.
func (m ProtocolMix) Sum() float64 {
	var s float64
	for _, w := range m.Weights {
		s += w
	}
	return s
}

// HasAnyValidFor reports whether at least one kind in the mix with positive
// weight can be sent at the given target family with the given L2 availability.
func (m ProtocolMix) HasAnyValidFor(family Family, hasL2 bool) bool {
	for _, k := range AllKinds {
		if m.Weights[k] <= 0 {
			continue
		}
		if k == KindARP {
			if k.CompatibleWithL2(hasL2) {
				return true
			}
			continue
		}
		if k.CompatibleWith(family) {
			return true
		}
	}
	return false
}

// RateSpec is packets-per-second per worker, plus a jitter flag (spec.md §3).
type RateSpec struct {
	PacketsPerSecond int
	Jitter           bool
}

// Interval returns the ideal spacing between successive packets for this
// rate — the "slot interval" of the GLOSSARY.
func (r RateSpec) Interval() float64 {
	if r.PacketsPerSecond <= 0 {
		return 0
	}
	return 1.0 / float64(r.PacketsPerSecond)
}
