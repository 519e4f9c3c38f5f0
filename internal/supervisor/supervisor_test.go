package supervisor

import (
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/packetgen/packetgen/internal/bufpool"
	"github.com/packetgen/packetgen/internal/domain"
	"github.com/packetgen/packetgen/internal/ratelimit"
	"github.com/packetgen/packetgen/internal/rng"
	"github.com/packetgen/packetgen/internal/selector"
	"github.com/packetgen/packetgen/internal/stats"
	"github.com/packetgen/packetgen/internal/transport"
	"github.com/packetgen/packetgen/internal/worker"
)

func TestSupervisorStartStopJoinAll(t *testing.T) {
	cancel := new(atomic.Bool)
	tgt, err := domain.NewTarget(net.ParseIP("10.0.0.1"), []uint16{80})
	if err != nil {
		t.Fatalf("NewTarget: %v", err)
	}
	mix := domain.NewProtocolMix(map[domain.PacketKind]float64{domain.KindUDPv4: 1.0})
	pool := bufpool.New(8, 16, 1500)
	sender := transport.NewMock(false)

	build := func(id int) worker.Config {
		sel := selector.New(mix, domain.FamilyV4, false, nil)
		pacer := ratelimit.New(domain.RateSpec{PacketsPerSecond: 1_000_000}, nil)
		pacer.Reset(time.Now())
		return worker.Config{
			ID:         id,
			Target:     tgt,
			Selector:   sel,
			Pacer:      pacer,
			Pool:       pool,
			Sender:     sender,
			RNG:        rng.New(int64(id) + 1),
			SourceIP:   net.ParseIP("10.0.0.2"),
			MinPayload: 8,
			MaxPayload: 16,
			BatchSize:  5,
			Cancel:     cancel,
		}
	}

	sup := New(Config{Count: 3, Cancel: cancel}, build)
	global := stats.NewGlobal()
	sup.Start(global)

	time.Sleep(20 * time.Millisecond)
	sup.Stop()

	done := make(chan []worker.Result)
	go func() { done <- sup.JoinAll() }()

	select {
	case results := <-done:
		if len(results) != 3 {
			t.Fatalf("expected 3 results, got %d", len(results))
		}
		for _, r := range results {
			if r.FinalState != worker.StateStopped {
				t.Fatalf("worker %d ended in state %v, not Stopped", r.ID, r.FinalState)
			}
		}
	case <-time.After(2 * time.Second):
		t.Fatal("JoinAll did not return after Stop")
	}

	snap := global.Snapshot()
	if snap.Sent == 0 {
		t.Fatalf("expected the fleet to have sent something, got %+v", snap)
	}

	poolStats := pool.Stats()
	if poolStats.Outstanding != 0 {
		t.Fatalf("expected no buffers checked out after JoinAll, got %d", poolStats.Outstanding)
	}
}
