// Package safety implements the Safety Gate (spec.md §4.1): the single
// place that owns thread/rate/size ceilings and the private-range rule.
// Every other component assumes its inputs have already passed through here.
package safety

import (
	"fmt"
	"net"

	"github.com/packetgen/packetgen/internal/domain"
)

// Defaults for the ceilings the gate enforces, overridable via Limits.
const (
	DefaultMaxThreads = 100
	DefaultMaxRate    = 10_000
	DefaultMTU        = 1500
)

// Limits bounds the gate's thread/rate/size ceilings. Zero values fall back
// to the package defaults.
type Limits struct {
	MaxThreads    int
	MaxRate       int
	MaxBufferSize int     // 0 falls back to DefaultMTU
	BandwidthCap  float64 // bytes/sec, 0 disables the check
}

func (l Limits) withDefaults() Limits {
	if l.MaxThreads <= 0 {
		l.MaxThreads = DefaultMaxThreads
	}
	if l.MaxRate <= 0 {
		l.MaxRate = DefaultMaxRate
	}
	if l.MaxBufferSize <= 0 {
		l.MaxBufferSize = DefaultMTU
	}
	return l
}

// ValidationError names the offending field and the reason it was rejected,
// matching spec.md §4.1's "structured validation error naming the field and
// reason" contract.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: field %q: %s", e.Field, e.Reason)
}

// Request is everything the gate validates in one call.
type Request struct {
	IP              net.IP
	Ports           []uint16
	Threads         int
	RatePerWorker   int
	MinPacketSize   int
	MaxPacketSize   int
	Mix             domain.ProtocolMix
	HasL2           bool
	AvgPacketSize   float64 // used only for the optional bandwidth-cap check
}

// Result is the gate's successful output: the validated, immutable target
// plus any non-fatal warnings (e.g. duplicate ports).
type Result struct {
	Target   *domain.Target
	Warnings []string
}

// Gate owns the ceilings; construct once at driver start.
type Gate struct {
	limits Limits
}

// New builds a Gate with the given limits (zero-value Limits uses defaults).
func New(limits Limits) *Gate {
	return &Gate{limits: limits.withDefaults()}
}

// Validate runs the ordered checks of spec.md §4.1 rules (a)-(f) and returns
// either a Result or the first ValidationError encountered.
func (g *Gate) Validate(req Request) (*Result, error) {
	// (a) address parses and is private/link-local, not loopback/multicast/broadcast.
	if req.IP == nil {
		return nil, &ValidationError{Field: "target.ip", Reason: "does not parse as an IP address"}
	}
	if err := checkPrivate(req.IP); err != nil {
		return nil, &ValidationError{Field: "target.ip", Reason: err.Error()}
	}

	// (b) ports non-empty, each in 1..=65535; duplicates allowed but warned.
	if len(req.Ports) == 0 {
		return nil, &ValidationError{Field: "target.ports", Reason: "port list must be non-empty"}
	}
	seen := make(map[uint16]int, len(req.Ports))
	var warnings []string
	for _, p := range req.Ports {
		if p == 0 {
			return nil, &ValidationError{Field: "target.ports", Reason: "port 0 is not a valid destination port"}
		}
		seen[p]++
	}
	for p, n := range seen {
		if n > 1 {
			warnings = append(warnings, fmt.Sprintf("port %d appears %d times in target.ports", p, n))
		}
	}

	// (c) threads in 1..=MAX_THREADS.
	if req.Threads < 1 || req.Threads > g.limits.MaxThreads {
		return nil, &ValidationError{
			Field:  "attack.threads",
			Reason: fmt.Sprintf("must be between 1 and %d, got %d", g.limits.MaxThreads, req.Threads),
		}
	}

	// (d) rate_per_worker in 1..=MAX_RATE.
	if req.RatePerWorker < 1 || req.RatePerWorker > g.limits.MaxRate {
		return nil, &ValidationError{
			Field:  "attack.packet_rate",
			Reason: fmt.Sprintf("must be between 1 and %d, got %d", g.limits.MaxRate, req.RatePerWorker),
		}
	}

	// (e) size range: min >= minimum frame for any enabled kind, max <= MTU.
	minFrame := smallestEnabledMinSize(req.Mix)
	if minFrame > 0 && req.MinPacketSize > 0 && req.MinPacketSize < minFrame {
		return nil, &ValidationError{
			Field: "attack.packet_size_range",
			Reason: fmt.Sprintf("min payload size %d is below the smallest enabled kind's minimum frame size %d",
				req.MinPacketSize, minFrame),
		}
	}
	if req.MaxPacketSize > g.limits.MaxBufferSize {
		return nil, &ValidationError{
			Field:  "attack.packet_size_range",
			Reason: fmt.Sprintf("max payload size %d exceeds MTU %d", req.MaxPacketSize, g.limits.MaxBufferSize),
		}
	}
	if req.MinPacketSize > 0 && req.MaxPacketSize > 0 && req.MinPacketSize > req.MaxPacketSize {
		return nil, &ValidationError{Field: "attack.packet_size_range", Reason: "min exceeds max"}
	}

	// mix validity: weights sum to ~1.0, at least one kind valid for the target.
	if sum := req.Mix.Sum(); sum > 0 {
		const tolerance = 1e-3
		if diff := sum - 1.0; diff > tolerance || diff < -tolerance {
			return nil, &ValidationError{
				Field:  "target.protocol_mix",
				Reason: fmt.Sprintf("weights sum to %.6f, expected ~1.0 (tolerance %.g)", sum, tolerance),
			}
		}
		targetFamily := domain.FamilyV4
		if req.IP.To4() == nil {
			targetFamily = domain.FamilyV6
		}
		if !req.Mix.HasAnyValidFor(targetFamily, req.HasL2) {
			return nil, &ValidationError{
				Field:  "target.protocol_mix",
				Reason: "no configured kind is valid for the target's address family/channel",
			}
		}
	}

	// (f) total derived PPS * avg-size <= optional bandwidth cap.
	if g.limits.BandwidthCap > 0 && req.AvgPacketSize > 0 {
		totalPPS := float64(req.Threads) * float64(req.RatePerWorker)
		if bw := totalPPS * req.AvgPacketSize; bw > g.limits.BandwidthCap {
			return nil, &ValidationError{
				Field: "safety.max_bandwidth_bps",
				Reason: fmt.Sprintf("derived bandwidth %.0f B/s exceeds configured cap %.0f B/s",
					bw, g.limits.BandwidthCap),
			}
		}
	}

	target, err := domain.NewTarget(req.IP, req.Ports)
	if err != nil {
		return nil, &ValidationError{Field: "target", Reason: err.Error()}
	}

	return &Result{Target: target, Warnings: warnings}, nil
}

func smallestEnabledMinSize(mix domain.ProtocolMix) int {
	min := 0
	for _, k := range domain.AllKinds {
		if mix.Weights[k] <= 0 {
			continue
		}
		ms := k.MinSize()
		if min == 0 || ms < min {
			min = ms
		}
	}
	return min
}

// checkPrivate enforces the private/link-local rule of spec.md §3 and the
// GLOSSARY: RFC 1918 + link-local for v4, RFC 4193/4291 unique-local/link-local
// for v6; loopback, multicast, unspecified and broadcast are always rejected.
func checkPrivate(ip net.IP) error {
	if ip.IsLoopback() {
		return fmt.Errorf("loopback addresses are not allowed")
	}
	if ip.IsMulticast() {
		return fmt.Errorf("multicast addresses are not allowed")
	}
	if ip.IsUnspecified() {
		return fmt.Errorf("unspecified address is not allowed")
	}
	if v4 := ip.To4(); v4 != nil {
		if isIPv4Broadcast(v4) {
			return fmt.Errorf("broadcast address is not allowed")
		}
		if !isPrivateV4(v4) {
			return fmt.Errorf("address is not in a private range (10/8, 172.16/12, 192.168/16, 169.254/16)")
		}
		return nil
	}
	if !isPrivateV6(ip) {
		return fmt.Errorf("address is not in a private range (fc00::/7 unique-local, fe80::/10 link-local)")
	}
	return nil
}

var privateV4Blocks = []struct {
	network net.IP
	mask    net.IPMask
}{
	{net.IPv4(10, 0, 0, 0).To4(), net.CIDRMask(8, 32)},
	{net.IPv4(172, 16, 0, 0).To4(), net.CIDRMask(12, 32)},
	{net.IPv4(192, 168, 0, 0).To4(), net.CIDRMask(16, 32)},
	{net.IPv4(169, 254, 0, 0).To4(), net.CIDRMask(16, 32)}, // link-local
}

func isPrivateV4(ip net.IP) bool {
	for _, b := range privateV4Blocks {
		n := &net.IPNet{IP: b.network, Mask: b.mask}
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

func isIPv4Broadcast(ip net.IP) bool {
	return ip.Equal(net.IPv4bcast)
}

func isPrivateV6(ip net.IP) bool {
	// fc00::/7 unique local
	if ip[0]&0xfe == 0xfc {
		return true
	}
	// fe80::/10 link local
	if ip[0] == 0xfe && ip[1]&0xc0 == 0x80 {
		return true
	}
	return false
}
