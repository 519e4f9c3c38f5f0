package worker

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
)

func newTestWorker(t *testing.T, cancel *atomic.Bool, sender transport.Sender) *Worker {
	t.Helper()
	tgt, err := domain.NewTarget(net.ParseIP("10.0.0.1"), []uint16{80})
	if err != nil {
		t.Fatalf("NewTarget: %v", err)
	}
	mix := domain.NewProtocolMix(map[domain.PacketKind]float64{domain.KindUDPv4: 1.0})
	sel := selector.New(mix, domain.FamilyV4, false, nil)
	pool := bufpool.New(4, 8, 1500)
	pacer := ratelimit.New(domain.RateSpec{PacketsPerSecond: 1_000_000}, nil)
	pacer.Reset(time.Now())

	return New(Config{
		ID:         1,
		Target:     tgt,
		Selector:   sel,
		Pacer:      pacer,
		Pool:       pool,
		Sender:     sender,
		RNG:        rng.New(1),
		SourceIP:   net.ParseIP("10.0.0.2"),
		MinPayload: 8,
		MaxPayload: 16,
		BatchSize:  5,
		Cancel:     cancel,
	})
}

func TestWorkerRunSendsAndStops(t *testing.T) {
	var cancel atomic.Bool
	sender := transport.NewMock(false)
	w := newTestWorker(t, &cancel, sender)
	global := stats.NewGlobal()

	done := make(chan Result)
	go func() {
		done <- w.Run(global)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel.Store(true)

	select {
	case res := <-done:
		if res.FinalState != StateStopped {
			t.Fatalf("expected StateStopped, got %v", res.FinalState)
		}
		if res.StoppedEarly {
			t.Fatalf("did not expect early termination")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancellation")
	}

	snap := global.Snapshot()
	if snap.Sent == 0 {
		t.Fatalf("expected at least one recorded send, got snapshot %+v", snap)
	}
}

func TestWorkerTerminatesEarlyOnRepeatedChannelClosed(t *testing.T) {
	var cancel atomic.Bool
	sender := transport.NewMock(false)
	sender.Close() // every send now returns ErrChannelClosed
	w := newTestWorker(t, &cancel, sender)
	global := stats.NewGlobal()

	done := make(chan Result)
	go func() {
		done <- w.Run(global)
	}()

	select {
	case res := <-done:
		if !res.StoppedEarly {
			t.Fatalf("expected early termination after repeated ChannelClosed errors")
		}
	case <-time.After(2 * time.Second):
		cancel.Store(true)
		t.Fatal("worker did not terminate early on repeated channel-closed errors")
	}
}
