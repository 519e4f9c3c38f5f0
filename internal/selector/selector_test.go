package selector

import (
	"math/rand"
	"testing"

	"github.com/packetgen/packetgen/internal/domain"
)

func TestNewDistributesProportionally(t *testing.T) {
	mix := domain.NewProtocolMix(map[domain.PacketKind]float64{
		domain.KindUDPv4:     0.60,
		domain.KindTCPv4SYN:  0.25,
		domain.KindTCPv4ACK:  0.05,
		domain.KindICMPv4:    0.05,
		domain.KindUDPv6:     0.03,
		domain.KindARP:       0.02,
	})
	s := New(mix, domain.FamilyV4, true, nil)
	if s.Len() != 100 {
		t.Fatalf("expected 100 slots, got %d", s.Len())
	}

	counts := map[domain.PacketKind]int{}
	for i := 0; i < s.Len(); i++ {
		counts[s.Next()]++
	}
	// UDPv6 is pruned (it requires FamilyV6) and ARP stays (hasL2 is true),
	// so the remaining weights sum to 0.97 and are rescaled over 100 slots:
	// UDPv4 61.86 and TCP_SYN 25.77 floor to 61 and 25, and the 2 leftover
	// slots go to them, giving 62 and 26.
	if counts[domain.KindUDPv4] != 62 {
		t.Fatalf("expected 62 UDPv4 slots, got %d", counts[domain.KindUDPv4])
	}
	if counts[domain.KindTCPv4SYN] != 26 {
		t.Fatalf("expected 26 TCP_SYN slots, got %d", counts[domain.KindTCPv4SYN])
	}
	if counts[domain.KindUDPv6] != 0 {
		t.Fatalf("expected UDPv6 pruned for a v4 target, got %d", counts[domain.KindUDPv6])
	}
}

func TestNewPrunesARPWithoutL2(t *testing.T) {
	mix := domain.NewProtocolMix(map[domain.PacketKind]float64{
		domain.KindUDPv4: 0.9,
		domain.KindARP:   0.1,
	})
	s := New(mix, domain.FamilyV4, false, nil)
	for i := 0; i < s.Len(); i++ {
		if s.Next() == domain.KindARP {
			t.Fatalf("ARP must not appear in the schedule when hasL2 is false")
		}
	}
}

func TestNextWrapsAround(t *testing.T) {
	mix := domain.NewProtocolMix(map[domain.PacketKind]float64{domain.KindUDPv4: 1.0})
	s := New(mix, domain.FamilyV4, false, nil)
	first := s.Next()
	for i := 1; i < s.Len(); i++ {
		s.Next()
	}
	if wrapped := s.Next(); wrapped != first {
		t.Fatalf("expected schedule to wrap to the first entry, got %v", wrapped)
	}
}

func TestEmptyWhenNoKindSurvivesPruning(t *testing.T) {
	mix := domain.NewProtocolMix(map[domain.PacketKind]float64{domain.KindUDPv6: 1.0})
	s := New(mix, domain.FamilyV4, false, nil)
	if !s.Empty() {
		t.Fatalf("expected an empty schedule when the only weighted kind is incompatible")
	}
}

func TestShuffleHookApplied(t *testing.T) {
	mix := domain.NewProtocolMix(map[domain.PacketKind]float64{
		domain.KindUDPv4:    0.5,
		domain.KindTCPv4SYN: 0.5,
	})
	src := rand.New(rand.NewSource(42))
	called := false
	shuffle := func(ks []domain.PacketKind) {
		called = true
		src.Shuffle(len(ks), func(i, j int) { ks[i], ks[j] = ks[j], ks[i] })
	}
	s := New(mix, domain.FamilyV4, false, shuffle)
	if !called {
		t.Fatalf("expected shuffle hook to be invoked")
	}
	if s.Len() != 100 {
		t.Fatalf("expected 100 slots after shuffle, got %d", s.Len())
	}
}
