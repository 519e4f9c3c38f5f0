// Package worker implements the Worker (spec.md §4.10): the state machine
// and hot loop that draws a packet kind from the Protocol Selector, builds
// it into a leased buffer, dispatches it to the Transport, and folds the
// outcome into per-worker stats.
package worker

import (
	"errors"
	"net"
	"sync/atomic"

	"github.com/packetgen/packetgen/internal/bufpool"
	"github.com/packetgen/packetgen/internal/domain"
	"github.com/packetgen/packetgen/internal/logging"
	"github.com/packetgen/packetgen/internal/packet"
	"github.com/packetgen/packetgen/internal/ratelimit"
	"github.com/packetgen/packetgen/internal/rng"
	"github.com/packetgen/packetgen/internal/selector"
	"github.com/packetgen/packetgen/internal/stats"
	"github.com/packetgen/packetgen/internal/transport"
)

// State is a worker's position in the Created → Running → Draining →
// Stopped state machine (spec.md §4.10).
type State int32

const (
	StateCreated State = iota
	StateRunning
	StateDraining
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// maxConsecutiveChannelClosed is the early-termination threshold: three
// consecutive ChannelClosed errors end the worker (spec.md §4.10).
const maxConsecutiveChannelClosed = 3

// Config carries everything a worker needs, all constructed and owned by
// the Worker Supervisor before the worker's goroutine starts.
type Config struct {
	ID       int
	Target   *domain.Target
	Selector *selector.Selector
	Pacer    *ratelimit.Pacer
	Pool     *bufpool.Pool
	Sender   transport.Sender
	RNG      *rng.Batched

	SourceIP  net.IP
	SourceMAC [6]byte

	MinPayload int
	MaxPayload int

	BatchSize int

	// Cancel is the single shared flag the Supervisor flips to request
	// shutdown; checked at the head of every loop iteration.
	Cancel *atomic.Bool

	Log *logging.Logger
}

// Result is a worker's terminal report, collected by join_all (spec.md §4.11).
type Result struct {
	ID              int
	FinalState      State
	StoppedEarly    bool // true if three consecutive ChannelClosed errors ended the loop
	IterationsRun   uint64
}

// Worker runs the hot loop described in spec.md §4.10. Not safe for
// concurrent use by more than one goroutine — each Worker owns exactly one.
type Worker struct {
	cfg     Config
	state   atomic.Int32
	portIdx uint64
}

// New builds a Worker in the Created state.
func New(cfg Config) *Worker {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = stats.DefaultBatchSize
	}
	w := &Worker{cfg: cfg}
	w.state.Store(int32(StateCreated))
	return w
}

// State returns the worker's current state.
func (w *Worker) State() State { return State(w.state.Load()) }

func (w *Worker) setState(s State) { w.state.Store(int32(s)) }

// Run executes the hot loop until cancellation is observed or the worker
// terminates early, folding stats into global on every flush trigger and
// unconditionally once more on exit (spec.md §4.8 trigger b).
func (w *Worker) Run(global *stats.Global) Result {
	w.setState(StateRunning)
	local := stats.NewLocal(w.cfg.BatchSize)
	consecutiveClosed := 0
	var iterations uint64
	stoppedEarly := false

	log := w.cfg.Log
	if log == nil {
		log = logging.Nop()
	}

	for {
		// (1) check cancellation
		if w.cfg.Cancel.Load() {
			break
		}

		// (2) pace
		w.cfg.Pacer.Pace()

		// (3) select next kind
		kind := w.cfg.Selector.Next()

		// (4) acquire buffer, falling back to scratch on a pool miss
		lease, ok := w.cfg.Pool.Acquire()
		if !ok {
			lease = bufpool.ScratchLease(w.cfg.Pool.BufferSize())
		}

		// (5) rotate port
		port := w.cfg.Target.PortAt(w.portIdx)
		w.portIdx++

		// (6) build
		strat := packet.ForKind(kind)
		res, buildErr := strat.BuildInto(lease.Bytes(), w.cfg.Target, port, w.cfg.RNG, packet.BuildOptions{
			SourceIP:   w.cfg.SourceIP,
			SourceMAC:  w.cfg.SourceMAC,
			MinPayload: w.cfg.MinPayload,
			MaxPayload: w.cfg.MaxPayload,
		})

		if buildErr != nil {
			local.RecordFailed()
			lease.Release()
			iterations++
			if local.ShouldFlush() {
				local.Flush(global)
			}
			continue
		}

		// (7) dispatch
		sendErr := w.dispatch(kind, lease.Bytes()[:res.Size])

		// (8) account
		if sendErr == nil {
			local.RecordSent(kind, res.Size)
			consecutiveClosed = 0
		} else {
			local.RecordFailed()
			if errors.Is(sendErr, transport.ErrChannelClosed) {
				consecutiveClosed++
			} else {
				consecutiveClosed = 0
				log.Debug("send failed", "worker_id", w.cfg.ID, "kind", kind.Tag(), "error", sendErr.Error())
			}
		}

		// (9) release
		lease.Release()
		iterations++

		// (10) flush if batch full
		if local.ShouldFlush() {
			local.Flush(global)
		}

		if consecutiveClosed >= maxConsecutiveChannelClosed {
			stoppedEarly = true
			log.Warn("worker terminating early", "worker_id", w.cfg.ID, "consecutive_channel_closed", consecutiveClosed)
			break
		}
	}

	w.setState(StateDraining)
	local.Flush(global)
	w.setState(StateStopped)

	return Result{ID: w.cfg.ID, FinalState: w.State(), StoppedEarly: stoppedEarly, IterationsRun: iterations}
}

// dispatch routes a built frame to the channel its kind requires.
func (w *Worker) dispatch(kind domain.PacketKind, frame []byte) error {
	switch kind.Channel() {
	case domain.FamilyV4:
		return w.cfg.Sender.SendV4(frame)
	case domain.FamilyV6:
		return w.cfg.Sender.SendV6(frame)
	case domain.FamilyL2:
		return w.cfg.Sender.SendL2(frame)
	default:
		return w.cfg.Sender.SendV4(frame)
	}
}
