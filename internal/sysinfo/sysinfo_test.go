package sysinfo

import (
	"testing"
	"time"

	"github.com/packetgen/packetgen/internal/domain"
)

func TestCollectReportsAtLeastOneCPU(t *testing.T) {
	info := Collect()
	if info.CPUCount < 1 {
		t.Fatalf("expected at least 1 CPU, got %d", info.CPUCount)
	}
}

func TestCollectSecurityCarriesRequirePrivateRanges(t *testing.T) {
	r := CollectSecurity(true)
	if !r.RequirePrivateRanges {
		t.Fatal("expected RequirePrivateRanges to be carried through unchanged")
	}
}

func TestRunBenchmarkProducesIterationsAndRate(t *testing.T) {
	res, err := RunBenchmark(domain.KindUDPv4, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("RunBenchmark: %v", err)
	}
	if res.Iterations == 0 {
		t.Fatal("expected at least one iteration in the benchmark window")
	}
	if res.PacketsPerSecond <= 0 {
		t.Fatalf("expected a positive packets-per-second figure, got %v", res.PacketsPerSecond)
	}
	if res.Kind != "UDP" {
		t.Fatalf("expected kind tag UDP, got %q", res.Kind)
	}
}
