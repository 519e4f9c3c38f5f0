// Package affinity implements the Worker Supervisor's CPU selection policy
// (spec.md §4.11): round-robin NUMA-node-then-core assignment when the
// platform exposes NUMA topology, falling back to a simple id-mod-cpu_count
// mapping otherwise.
package affinity

import "runtime"

// Topology describes the CPU layout the selection policy walks. A nil or
// empty Nodes slice signals "no NUMA topology available" and forces the
// id-mod-cpu_count fallback.
type Topology struct {
	// Nodes[i] lists the logical CPU ids belonging to NUMA node i.
	Nodes [][]int
}

// DetectTopology probes the platform for NUMA topology. The standard
// library exposes no NUMA API, so this reports "no topology" (a single
// implicit node covering every logical CPU is NOT assumed here — callers
// get the id-mod-cpu_count fallback instead, matching spec.md §4.11's own
// fallback clause for platforms without exposed topology).
func DetectTopology() Topology {
	return Topology{}
}

// Policy assigns logical CPU ids to worker ids, round-robining NUMA nodes
// first and then cores within a node, preferring cores not yet assigned;
// it falls back to id mod cpuCount when topology is empty.
type Policy struct {
	topo     Topology
	cpuCount int
	assigned map[int]bool
	nextNode int
	nextCore []int // per-node cursor into Nodes[node]
}

// NewPolicy builds a Policy. cpuCount is used by the fallback path; pass
// runtime.NumCPU() in production.
func NewPolicy(topo Topology, cpuCount int) *Policy {
	if cpuCount <= 0 {
		cpuCount = runtime.NumCPU()
	}
	return &Policy{
		topo:     topo,
		cpuCount: cpuCount,
		assigned: make(map[int]bool),
		nextCore: make([]int, len(topo.Nodes)),
	}
}

// Assign returns the logical CPU id for the next worker, advancing the
// policy's internal cursors. Called once per worker, in worker-id order.
func (p *Policy) Assign(workerID int) int {
	if len(p.topo.Nodes) == 0 {
		return workerID % p.cpuCount
	}

	// Round-robin nodes, within a node prefer unassigned cores first.
	for attempts := 0; attempts < len(p.topo.Nodes); attempts++ {
		node := p.nextNode
		p.nextNode = (p.nextNode + 1) % len(p.topo.Nodes)
		cores := p.topo.Nodes[node]
		if len(cores) == 0 {
			continue
		}
		for i := 0; i < len(cores); i++ {
			idx := (p.nextCore[node] + i) % len(cores)
			cpu := cores[idx]
			if !p.assigned[cpu] {
				p.nextCore[node] = (idx + 1) % len(cores)
				p.assigned[cpu] = true
				return cpu
			}
		}
	}

	// Every core already carries an assignment; reuse round-robin by
	// worker id within the flattened core list rather than failing.
	var flat []int
	for _, cores := range p.topo.Nodes {
		flat = append(flat, cores...)
	}
	if len(flat) == 0 {
		return workerID % p.cpuCount
	}
	return flat[workerID%len(flat)]
}
