package sysinfo

import (
	"net"
	"time"

	"github.com/packetgen/packetgen/internal/domain"
	"github.com/packetgen/packetgen/internal/packet"
	"github.com/packetgen/packetgen/internal/rng"
)

// PerformanceResult is the `system performance` report: packets/sec
// achievable by construction alone, no network I/O, doubling as a
// regression benchmark for the packet-strategy build path.
type PerformanceResult struct {
	Kind             string
	Iterations       uint64
	Elapsed          time.Duration
	PacketsPerSecond float64
}

// RunBenchmark repeatedly builds one kind of frame into a reused buffer for
// roughly budget, then reports the achieved rate. It never opens a socket
// or touches the network — purely the hot construction path workers also
// use (internal/packet.ForKind(kind).BuildInto).
func RunBenchmark(kind domain.PacketKind, budget time.Duration) (PerformanceResult, error) {
	strategy := packet.ForKind(kind)
	target, err := domain.NewTarget(benchmarkIP(kind), []uint16{80})
	if err != nil {
		return PerformanceResult{}, err
	}

	r := rng.New(1)
	buf := make([]byte, 1500)
	opts := packet.BuildOptions{
		SourceIP:   benchmarkIP(kind),
		MinPayload: 16,
		MaxPayload: 64,
	}

	start := time.Now()
	var iterations uint64
	for time.Since(start) < budget {
		if _, err := strategy.BuildInto(buf, target, target.PortAt(iterations), r, opts); err != nil {
			return PerformanceResult{}, err
		}
		iterations++
	}
	elapsed := time.Since(start)

	result := PerformanceResult{
		Kind:       kind.Tag(),
		Iterations: iterations,
		Elapsed:    elapsed,
	}
	if secs := elapsed.Seconds(); secs > 0 {
		result.PacketsPerSecond = float64(iterations) / secs
	}
	return result, nil
}

// benchmarkIP picks a loopback-free, routable-looking address matching the
// kind's address family, since strategies branch on v4 vs v6 header shape.
func benchmarkIP(kind domain.PacketKind) net.IP {
	if kind == domain.KindUDPv6 || kind == domain.KindTCPv6 || kind == domain.KindICMPv6 {
		return net.ParseIP("fd00::1")
	}
	return net.ParseIP("10.0.0.1")
}
