package stats

import (
	"testing"

	"github.com/packetgen/packetgen/internal/domain"
)

func TestLocalFlushesIntoGlobal(t *testing.T) {
	g := NewGlobal()
	l := NewLocal(3)

	l.RecordSent(domain.KindUDPv4, 60)
	l.RecordSent(domain.KindTCPv4SYN, 54)
	if l.ShouldFlush() {
		t.Fatalf("expected no flush trigger before batch size reached")
	}
	l.RecordFailed()
	if !l.ShouldFlush() {
		t.Fatalf("expected flush trigger once sent+failed reaches batch size")
	}
	l.Flush(g)

	snap := g.Snapshot()
	if snap.Sent != 2 || snap.Failed != 1 || snap.Bytes != 114 {
		t.Fatalf("unexpected snapshot after flush: %+v", snap)
	}
	if snap.PerProtocol[domain.KindUDPv4] != 1 || snap.PerProtocol[domain.KindTCPv4SYN] != 1 {
		t.Fatalf("unexpected per-protocol counts: %+v", snap.PerProtocol)
	}
}

func TestFlushResetsLocal(t *testing.T) {
	g := NewGlobal()
	l := NewLocal(DefaultBatchSize)
	l.RecordSent(domain.KindUDPv4, 10)
	l.Flush(g)
	l.Flush(g) // second flush of a cleared local must add nothing

	snap := g.Snapshot()
	if snap.Sent != 1 || snap.Bytes != 10 {
		t.Fatalf("expected exactly one recorded send, got %+v", snap)
	}
}

func TestSentAtLeastSumOfPerProtocol(t *testing.T) {
	g := NewGlobal()
	l := NewLocal(DefaultBatchSize)
	for i := 0; i < 10; i++ {
		l.RecordSent(domain.KindUDPv4, 1)
	}
	l.Flush(g)

	snap := g.Snapshot()
	var sumProto uint64
	for _, v := range snap.PerProtocol {
		sumProto += v
	}
	if snap.Sent < sumProto {
		t.Fatalf("invariant violated: sent=%d < sum(per_protocol)=%d", snap.Sent, sumProto)
	}
}

func TestSnapshotDerivedRates(t *testing.T) {
	snap := Snapshot{Sent: 100, Failed: 0}
	if rate := snap.SuccessRate(); rate != 1.0 {
		t.Fatalf("expected success rate 1.0, got %v", rate)
	}
	empty := Snapshot{}
	if rate := empty.SuccessRate(); rate != 0 {
		t.Fatalf("expected zero success rate for no attempts, got %v", rate)
	}
}
