package driver

import (
	"net"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/packetgen/packetgen/internal/audit"
	"github.com/packetgen/packetgen/internal/domain"
	"github.com/packetgen/packetgen/internal/transport"
)

func TestRunValidatesBeforeConstructingAnything(t *testing.T) {
	_, err := Run(Config{
		IP:            net.ParseIP("8.8.8.8"), // public, must be rejected
		Ports:         []uint16{80},
		WorkerCount:   1,
		RatePerWorker: 10,
		Mix:           domain.NewProtocolMix(map[domain.PacketKind]float64{domain.KindUDPv4: 1.0}),
	})
	if err == nil {
		t.Fatal("expected validation error for a public IP")
	}
}

func TestRunCompletesOnStopChannel(t *testing.T) {
	stopCh := make(chan struct{})
	go func() {
		time.Sleep(20 * time.Millisecond)
		close(stopCh)
	}()

	res, err := Run(Config{
		IP:            net.ParseIP("10.0.0.1"),
		Ports:         []uint16{80},
		Mix:           domain.NewProtocolMix(map[domain.PacketKind]float64{domain.KindUDPv4: 1.0}),
		WorkerCount:   2,
		RatePerWorker: 1000,
		MinPayload:    8,
		MaxPayload:    16,
		BatchSize:     5,
		SourceIP:      net.ParseIP("10.0.0.2"),
		Transport:     TransportMock,
		StopCh:        stopCh,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Snapshot.Sent == 0 {
		t.Fatalf("expected the run to have sent packets, got snapshot %+v", res.Snapshot)
	}
	if len(res.WorkerResults) != 2 {
		t.Fatalf("expected 2 worker results, got %d", len(res.WorkerResults))
	}
	if res.PoolStats.Outstanding != 0 {
		t.Fatalf("expected no buffers outstanding after Run, got %d", res.PoolStats.Outstanding)
	}
}

func TestRunRespectsDuration(t *testing.T) {
	start := time.Now()
	_, err := Run(Config{
		IP:            net.ParseIP("192.168.1.1"),
		Ports:         []uint16{443},
		Mix:           domain.NewProtocolMix(map[domain.PacketKind]float64{domain.KindUDPv4: 1.0}),
		WorkerCount:   1,
		RatePerWorker: 1000,
		MinPayload:    8,
		MaxPayload:    16,
		BatchSize:     5,
		SourceIP:      net.ParseIP("192.168.1.2"),
		Transport:     TransportMock,
		Duration:      30 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Fatalf("expected Run to block for at least the configured duration, took %v", elapsed)
	}
}

func TestRunRecordsSessionStartAndEndToAudit(t *testing.T) {
	log := audit.New()
	_, err := Run(Config{
		IP:            net.ParseIP("10.0.0.1"),
		Ports:         []uint16{80},
		Mix:           domain.NewProtocolMix(map[domain.PacketKind]float64{domain.KindUDPv4: 1.0}),
		WorkerCount:   1,
		RatePerWorker: 1000,
		MinPayload:    8,
		MaxPayload:    16,
		BatchSize:     5,
		SourceIP:      net.ParseIP("10.0.0.2"),
		Transport:     TransportMock,
		Duration:      10 * time.Millisecond,
		Audit:         log,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	entries := log.Entries()
	if len(entries) < 2 {
		t.Fatalf("expected at least session_start and session_end entries, got %d", len(entries))
	}
	if entries[0].Action != "session_start" {
		t.Fatalf("expected first entry to be session_start, got %q", entries[0].Action)
	}
	if entries[len(entries)-1].Action != "session_end" {
		t.Fatalf("expected last entry to be session_end, got %q", entries[len(entries)-1].Action)
	}
	if ok, _ := log.Verify(); !ok {
		t.Fatal("expected the recorded chain to verify intact")
	}
}

func TestBuildSenderReturnsAFreshInstancePerWorker(t *testing.T) {
	cfg := Config{Transport: TransportMock}
	s0, close0, err := buildSender(cfg, 0)
	if err != nil {
		t.Fatalf("buildSender(0): %v", err)
	}
	s1, close1, err := buildSender(cfg, 1)
	if err != nil {
		t.Fatalf("buildSender(1): %v", err)
	}
	if s0 == s1 {
		t.Fatal("expected two workers to get distinct Sender instances, got the same one")
	}
	if err := close0(); err != nil {
		t.Fatalf("close0: %v", err)
	}
	if err := close1(); err != nil {
		t.Fatalf("close1: %v", err)
	}
}

// TestBuildSenderGivesEachDryRunWorkerAnIndependentSeed guards against the
// data race a single shared *math/rand.Rand would cause: two workers built
// from the same Config must diverge, which can only happen if each gets its
// own PRNG rather than sharing one.
func TestBuildSenderGivesEachDryRunWorkerAnIndependentSeed(t *testing.T) {
	cfg := Config{
		Transport: TransportDryRun,
		DryRun:    transport.DryRunConfig{SuccessProbability: 0.5, Seed: 42},
	}
	s0, close0, err := buildSender(cfg, 0)
	if err != nil {
		t.Fatalf("buildSender(0): %v", err)
	}
	defer close0()
	s1, close1, err := buildSender(cfg, 1)
	if err != nil {
		t.Fatalf("buildSender(1): %v", err)
	}
	defer close1()

	frame := make([]byte, 32)
	var seq0, seq1 string
	for i := 0; i < 16; i++ {
		if s0.SendV4(frame) == nil {
			seq0 += "1"
		} else {
			seq0 += "0"
		}
		if s1.SendV4(frame) == nil {
			seq1 += "1"
		} else {
			seq1 += "0"
		}
	}
	if seq0 == seq1 {
		t.Fatalf("expected two independently-seeded DryRun workers to diverge, both produced %q", seq0)
	}
}

func TestRunReportsSignalStopped(t *testing.T) {
	var result *Result
	var runErr error
	done := make(chan struct{})
	go func() {
		result, runErr = Run(Config{
			IP:             net.ParseIP("10.0.0.1"),
			Ports:          []uint16{80},
			Mix:            domain.NewProtocolMix(map[domain.PacketKind]float64{domain.KindUDPv4: 1.0}),
			WorkerCount:    1,
			RatePerWorker:  1000,
			MinPayload:     8,
			MaxPayload:     16,
			BatchSize:      5,
			SourceIP:       net.ParseIP("10.0.0.2"),
			Transport:      TransportMock,
			InstallSignals: true,
		})
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	if err := syscall.Kill(os.Getpid(), syscall.SIGINT); err != nil {
		t.Fatalf("raising SIGINT: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after SIGINT")
	}
	if runErr != nil {
		t.Fatalf("Run: %v", runErr)
	}
	if !result.SignalStopped {
		t.Fatal("expected SignalStopped to be true after a trapped SIGINT")
	}
}

func TestRunDoesNotReportSignalStoppedOnDuration(t *testing.T) {
	result, err := Run(Config{
		IP:            net.ParseIP("10.0.0.1"),
		Ports:         []uint16{80},
		Mix:           domain.NewProtocolMix(map[domain.PacketKind]float64{domain.KindUDPv4: 1.0}),
		WorkerCount:   1,
		RatePerWorker: 1000,
		MinPayload:    8,
		MaxPayload:    16,
		BatchSize:     5,
		SourceIP:      net.ParseIP("10.0.0.2"),
		Transport:     TransportMock,
		Duration:      10 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.SignalStopped {
		t.Fatal("expected SignalStopped to be false when the run ended on its duration timer")
	}
}
