package affinity

import "testing"

func TestPolicyFallsBackWithoutTopology(t *testing.T) {
	p := NewPolicy(Topology{}, 4)
	got := []int{p.Assign(0), p.Assign(1), p.Assign(2), p.Assign(3), p.Assign(4)}
	want := []int{0, 1, 2, 3, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Assign(%d) = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestPolicyRoundRobinsNodesPreferringUnassignedCores(t *testing.T) {
	topo := Topology{Nodes: [][]int{{0, 1}, {2, 3}}}
	p := NewPolicy(topo, 4)

	seen := map[int]bool{}
	for i := 0; i < 4; i++ {
		cpu := p.Assign(i)
		if seen[cpu] {
			t.Fatalf("cpu %d assigned twice before every core was used once", cpu)
		}
		seen[cpu] = true
	}
	for cpu := 0; cpu < 4; cpu++ {
		if !seen[cpu] {
			t.Fatalf("cpu %d was never assigned", cpu)
		}
	}
}

func TestPolicyReusesCoresOnceExhausted(t *testing.T) {
	topo := Topology{Nodes: [][]int{{0}}}
	p := NewPolicy(topo, 1)
	first := p.Assign(0)
	second := p.Assign(1) // only one core exists; must reuse, not panic
	if first != 0 || second != 0 {
		t.Fatalf("expected both assignments to reuse cpu 0, got %d and %d", first, second)
	}
}
