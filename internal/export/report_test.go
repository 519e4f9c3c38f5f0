package export

import (
	"testing"
	"time"

	"github.com/packetgen/packetgen/internal/domain"
	"github.com/packetgen/packetgen/internal/stats"
)

func TestNewReportDerivesRatesAndBreakdown(t *testing.T) {
	snap := stats.Snapshot{
		Sent:    100,
		Failed:  5,
		Bytes:   64_000,
		Elapsed: 2 * time.Second,
	}
	snap.PerProtocol[domain.KindUDPv4] = 80
	snap.PerProtocol[domain.KindTCPv4SYN] = 20

	now := time.Unix(1700000000, 0)
	r := NewReport(snap, now, "session-1", nil)

	if r.PacketsSent != 100 || r.PacketsFailed != 5 || r.BytesSent != 64_000 {
		t.Fatalf("counters not copied through: %+v", r)
	}
	if r.DurationSecs != 2 {
		t.Fatalf("expected duration_secs 2, got %v", r.DurationSecs)
	}
	if r.PacketsPerSecond != 50 {
		t.Fatalf("expected packets_per_second 50, got %v", r.PacketsPerSecond)
	}
	if r.ProtocolBreakdown["UDP"] != 80 || r.ProtocolBreakdown["TCP_SYN"] != 20 {
		t.Fatalf("unexpected protocol breakdown: %+v", r.ProtocolBreakdown)
	}
	if len(r.ProtocolBreakdown) != 2 {
		t.Fatalf("expected zero-count kinds omitted, got %+v", r.ProtocolBreakdown)
	}
	if r.SystemStats != nil {
		t.Fatalf("expected nil system stats when not supplied")
	}
}

func TestNewSessionIDIsUnique(t *testing.T) {
	a := NewSessionID()
	b := NewSessionID()
	if a == b {
		t.Fatalf("expected distinct session IDs, got %q twice", a)
	}
}
