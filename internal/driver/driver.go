// Package driver implements the Simulation Driver (spec.md §4.12): the
// top-level lifecycle that validates a run, constructs every collaborator,
// supervises the worker fleet, waits for a stop condition, and tears
// everything down in reverse order.
package driver

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/packetgen/packetgen/internal/affinity"
	"github.com/packetgen/packetgen/internal/audit"
	"github.com/packetgen/packetgen/internal/bufpool"
	"github.com/packetgen/packetgen/internal/domain"
	"github.com/packetgen/packetgen/internal/logging"
	"github.com/packetgen/packetgen/internal/ratelimit"
	"github.com/packetgen/packetgen/internal/rng"
	"github.com/packetgen/packetgen/internal/safety"
	"github.com/packetgen/packetgen/internal/selector"
	"github.com/packetgen/packetgen/internal/stats"
	"github.com/packetgen/packetgen/internal/supervisor"
	"github.com/packetgen/packetgen/internal/transport"
	"github.com/packetgen/packetgen/internal/worker"
)

// TransportKind selects which Transport variant the Driver constructs.
type TransportKind string

const (
	TransportRawSocket TransportKind = "raw_socket"
	TransportMock      TransportKind = "mock"
	TransportDryRun    TransportKind = "dry_run"
)

// Config is everything the Driver needs to run one simulation end to end.
type Config struct {
	IP   net.IP
	Ports []uint16
	Mix  domain.ProtocolMix

	WorkerCount   int
	RatePerWorker int
	Jitter        bool
	PinCPU        bool

	MinPayload int
	MaxPayload int
	BatchSize  int
	Seed       int64

	Duration time.Duration // 0 means run until an external signal arrives

	SourceIP  net.IP
	SourceMAC [6]byte
	Interface string

	Limits         safety.Limits
	Transport      TransportKind
	DryRun         transport.DryRunConfig
	InstallSignals bool

	// StopCh, if non-nil, is an additional stop condition alongside the
	// duration timer and OS signal — closed or sent to by a test harness
	// or an embedding caller that wants programmatic control.
	StopCh <-chan struct{}

	// Ready, if non-nil, receives the constructed *stats.Global as soon as
	// it exists (non-blocking send), letting a caller running Run in a
	// goroutine poll live snapshots — e.g. internal/tui's live view.
	Ready chan<- *stats.Global

	// Audit, if non-nil, receives session_start/session_end events (spec.md
	// §6's "core emits structured events" collaborator contract). Run only
	// ever writes to it, never reads it back.
	Audit *audit.Log

	Log *logging.Logger
}

// Result is what a completed run hands back to the export collaborator.
type Result struct {
	Target        *domain.Target
	Snapshot      stats.Snapshot
	PoolStats     bufpool.Stats
	WorkerResults []worker.Result
	Warnings      []string

	// SignalStopped is true when the run ended because an installed OS
	// signal (SIGINT/SIGTERM) fired, rather than the duration elapsing or
	// StopCh closing. A trapped signal does not itself terminate the
	// process, so the caller must check this to reproduce the 130 exit
	// code a shell expects from an interrupted process (spec.md §6).
	SignalStopped bool
}

// Run executes the full lifecycle: validate → construct → supervise →
// watch → shutdown (spec.md §4.12). It returns a typed error without
// spawning anything if validation fails.
func Run(cfg Config) (*Result, error) {
	log := cfg.Log
	if log == nil {
		log = logging.Nop()
	}

	// 1. validate (C1)
	req := safety.Request{
		IP:            cfg.IP,
		Ports:         cfg.Ports,
		Threads:       cfg.WorkerCount,
		RatePerWorker: cfg.RatePerWorker,
		MinPacketSize: cfg.MinPayload,
		MaxPacketSize: cfg.MaxPayload,
		Mix:           cfg.Mix,
		HasL2:         cfg.Transport != TransportMock && cfg.Interface != "",
		AvgPacketSize: float64(cfg.MinPayload+cfg.MaxPayload) / 2,
	}
	gate := safety.New(cfg.Limits)
	valResult, err := gate.Validate(req)
	if err != nil {
		return nil, fmt.Errorf("driver: validation failed: %w", err)
	}
	log.Info("validated run", "target", valResult.Target.IP.String(), "workers", cfg.WorkerCount)
	if cfg.Audit != nil {
		cfg.Audit.Record(time.Now(), "session_start", valResult.Target.IP.String(), true,
			fmt.Sprintf("workers=%d rate_per_worker=%d", cfg.WorkerCount, cfg.RatePerWorker))
	}

	// 2. construct shared pool & global stats
	pool := bufpool.New(cfg.WorkerCount*2, cfg.WorkerCount*8, 1500)
	global := stats.NewGlobal()
	if cfg.Ready != nil {
		select {
		case cfg.Ready <- global:
		default:
		}
	}

	cancel := new(atomic.Bool)

	// install a signal handler that flips the cancellation flag
	var sigCh chan os.Signal
	if cfg.InstallSignals {
		sigCh = make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	}

	// Each worker gets its own Sender — its own channel set (raw socket
	// fds, or its own DryRun PRNG) — so no worker shares mutable transport
	// state with another on the hot path (spec.md §4.7, §5 "no mutex held
	// across a send"). Built eagerly, before any worker starts, so a
	// construction failure (e.g. an unresolvable interface) still fails
	// Run before anything is spawned.
	senders := make([]transport.Sender, cfg.WorkerCount)
	closeSenders := make([]func() error, cfg.WorkerCount)
	for i := 0; i < cfg.WorkerCount; i++ {
		s, closeFn, err := buildSender(cfg, i)
		if err != nil {
			for j := 0; j < i; j++ {
				if cerr := closeSenders[j](); cerr != nil {
					log.Warn("transport close failed during rollback", "worker", j, "error", cerr.Error())
				}
			}
			return nil, fmt.Errorf("driver: construct transport for worker %d: %w", i, err)
		}
		senders[i] = s
		closeSenders[i] = closeFn
	}

	build := func(id int) worker.Config {
		sender := senders[id]
		workerRNG := rng.New(cfg.Seed + int64(id))
		sel := selector.New(cfg.Mix, valResult.Target.Family, sender.HasL2(), func(schedule []domain.PacketKind) {
			// Fisher-Yates, driven by this worker's own batched RNG so the
			// schedule is shuffled once at construction (spec.md §4.5) and
			// consecutive runs of the same kind don't cluster.
			for i := len(schedule) - 1; i > 0; i-- {
				j := workerRNG.IntRange(0, i)
				schedule[i], schedule[j] = schedule[j], schedule[i]
			}
		})
		pacer := ratelimit.New(domain.RateSpec{PacketsPerSecond: cfg.RatePerWorker, Jitter: cfg.Jitter}, func() float64 {
			return float64(workerRNG.IntRange(0, 999_999)) / 1_000_000
		})
		pacer.Reset(time.Now())
		return worker.Config{
			ID:         id,
			Target:     valResult.Target,
			Selector:   sel,
			Pacer:      pacer,
			Pool:       pool,
			Sender:     sender,
			RNG:        workerRNG,
			SourceIP:   cfg.SourceIP,
			SourceMAC:  cfg.SourceMAC,
			MinPayload: cfg.MinPayload,
			MaxPayload: cfg.MaxPayload,
			BatchSize:  cfg.BatchSize,
			Cancel:     cancel,
			Log:        log,
		}
	}

	// 3. construct supervisor with N workers
	sup := supervisor.New(supervisor.Config{
		Count:    cfg.WorkerCount,
		PinCPU:   cfg.PinCPU,
		Topology: affinity.DetectTopology(),
		Cancel:   cancel,
		Log:      log,
	}, build)

	sup.Start(global)

	// 4. await (a) duration timer or (b) external signal
	var durationTimer <-chan time.Time
	if cfg.Duration > 0 {
		t := time.NewTimer(cfg.Duration)
		defer t.Stop()
		durationTimer = t.C
	}

	var signalStopped bool
	select {
	case <-durationTimer:
		log.Info("duration elapsed, stopping fleet")
	case sig := <-sigCh:
		log.Info("signal received, stopping fleet", "signal", sig.String())
		signalStopped = true
	case <-cfg.StopCh:
		log.Info("external stop requested")
	}

	// 5. stop + join
	sup.Stop()
	workerResults := sup.JoinAll()
	if cfg.Audit != nil {
		for _, wr := range workerResults {
			if wr.StoppedEarly {
				cfg.Audit.Record(time.Now(), "send_failure_burst", valResult.Target.IP.String(), false,
					fmt.Sprintf("worker=%d stopped early after %d iterations", wr.ID, wr.IterationsRun))
			}
		}
	}

	// 6. final snapshot
	snapshot := global.Snapshot()
	poolStats := pool.Stats()
	if cfg.Audit != nil {
		cfg.Audit.Record(time.Now(), "session_end", valResult.Target.IP.String(), snapshot.Failed == 0,
			fmt.Sprintf("sent=%d failed=%d", snapshot.Sent, snapshot.Failed))
	}

	// 7. drop resources in reverse order
	if cfg.InstallSignals {
		signal.Stop(sigCh)
	}
	for i := len(closeSenders) - 1; i >= 0; i-- {
		if err := closeSenders[i](); err != nil {
			log.Warn("transport close failed", "worker", i, "error", err.Error())
		}
	}

	return &Result{
		Target:        valResult.Target,
		Snapshot:      snapshot,
		PoolStats:     poolStats,
		WorkerResults: workerResults,
		Warnings:      valResult.Warnings,
		SignalStopped: signalStopped,
	}, nil
}

// buildSender constructs one worker's Transport variant and returns a close
// function, so Run's teardown step can treat every variant uniformly. It is
// called once per worker so each gets its own channel set: its own raw
// socket fds, or (for DryRun) its own PRNG rather than one shared across
// goroutines, since *math/rand.Rand is not safe for concurrent use.
func buildSender(cfg Config, id int) (transport.Sender, func() error, error) {
	switch cfg.Transport {
	case TransportMock, "":
		m := transport.NewMock(cfg.Interface != "")
		return m, m.Close, nil
	case TransportDryRun:
		cfg.DryRun.HasL2 = cfg.Interface != ""
		base := cfg.DryRun.Seed
		if base == 0 {
			base = cfg.Seed
		}
		cfg.DryRun.Seed = base + int64(id)
		d := transport.NewDryRun(cfg.DryRun)
		return d, d.Close, nil
	case TransportRawSocket:
		rs, err := transport.NewRawSocket(transport.RawSocketConfig{
			Interface: cfg.Interface,
			OpenV4:    true,
			OpenV6:    true,
			OpenL2:    cfg.Interface != "",
		})
		if err != nil {
			return nil, nil, err
		}
		return rs, rs.Close, nil
	default:
		return nil, nil, fmt.Errorf("driver: unknown transport kind %q", cfg.Transport)
	}
}
