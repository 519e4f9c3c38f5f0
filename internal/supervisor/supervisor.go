// Package supervisor implements the Worker Supervisor (spec.md §4.11):
// spawns exactly N workers, each on its own OS thread with an optional CPU
// pin, and exposes stop()/join_all() over the fleet.
package supervisor

import (
	"sync"
	"sync/atomic"

	"github.com/packetgen/packetgen/internal/affinity"
	"github.com/packetgen/packetgen/internal/logging"
	"github.com/packetgen/packetgen/internal/stats"
	"github.com/packetgen/packetgen/internal/worker"
)

// Builder constructs the per-worker Config for worker id i. The Supervisor
// calls it once per worker at Start, so each worker gets its own RNG,
// selector, pacer, pool lease path and sender — nothing shared that would
// require locking on the hot path.
type Builder func(id int) worker.Config

// Supervisor owns a fixed-size fleet of workers and the single shared
// cancellation flag they all observe.
type Supervisor struct {
	workers []*worker.Worker
	results []worker.Result
	wg      sync.WaitGroup

	pinCPU bool
	policy *affinity.Policy
	log    *logging.Logger
	cancel *atomic.Bool

	cpus []int // resolved per-worker CPU id, only used when pinCPU
}

// Config controls fleet construction. Cancel is the single shared flag
// every worker observes at its loop head; the Simulation Driver (§4.12)
// owns it and flips it on signal or deadline, and Stop does the same thing
// from the supervisor's side (spec.md §4.11: "stop() sets the shared
// cancellation flag").
type Config struct {
	Count    int
	PinCPU   bool
	CPUCount int // 0 defaults to runtime.NumCPU() inside affinity.NewPolicy
	Topology affinity.Topology
	Cancel   *atomic.Bool
	Log      *logging.Logger
}

// New constructs Count workers via build, resolving CPU assignments up
// front if PinCPU is set.
func New(cfg Config, build Builder) *Supervisor {
	cancel := cfg.Cancel
	if cancel == nil {
		cancel = new(atomic.Bool)
	}
	s := &Supervisor{
		pinCPU: cfg.PinCPU,
		log:    cfg.Log,
		cancel: cancel,
	}
	if s.log == nil {
		s.log = logging.Nop()
	}
	if cfg.PinCPU {
		s.policy = affinity.NewPolicy(cfg.Topology, cfg.CPUCount)
		s.cpus = make([]int, cfg.Count)
		for i := 0; i < cfg.Count; i++ {
			s.cpus[i] = s.policy.Assign(i)
		}
	}
	s.workers = make([]*worker.Worker, cfg.Count)
	for i := 0; i < cfg.Count; i++ {
		s.workers[i] = worker.New(build(i))
	}
	s.results = make([]worker.Result, cfg.Count)
	return s
}

// Start spawns every worker on its own goroutine, locking the OS thread
// and pinning it to the assigned CPU before entering the hot loop, per
// spec.md §4.11's one-OS-thread-per-worker model.
func (s *Supervisor) Start(global *stats.Global) {
	s.wg.Add(len(s.workers))
	for i, w := range s.workers {
		i, w := i, w
		cpu := -1
		if s.pinCPU {
			cpu = s.cpus[i]
		}
		go func() {
			defer s.wg.Done()
			runtimeLockAndPin(cpu, s.log, i)
			s.results[i] = w.Run(global)
		}()
	}
}

// JoinAll blocks until every worker has returned, then reports their
// terminal results. Per spec.md §4.11's invariant, once JoinAll returns no
// worker is still executing and no buffer remains checked out (each
// worker's own Run releases its last lease before returning).
func (s *Supervisor) JoinAll() []worker.Result {
	s.wg.Wait()
	out := make([]worker.Result, len(s.results))
	copy(out, s.results)
	return out
}

// Workers exposes the fleet for state inspection (e.g. diagnostics or a
// live TUI polling worker states).
func (s *Supervisor) Workers() []*worker.Worker {
	return s.workers
}

// Stop sets the shared cancellation flag every worker observes at the head
// of its loop (spec.md §4.11).
func (s *Supervisor) Stop() {
	s.cancel.Store(true)
}

// CancelFlag exposes the shared cancellation flag so a Builder can wire it
// into each worker.Config before New is called with it.
func (s *Supervisor) CancelFlag() *atomic.Bool {
	return s.cancel
}
