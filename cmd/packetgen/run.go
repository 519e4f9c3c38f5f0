package main

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/packetgen/packetgen/internal/audit"
	"github.com/packetgen/packetgen/internal/capability"
	"github.com/packetgen/packetgen/internal/config"
	"github.com/packetgen/packetgen/internal/driver"
	"github.com/packetgen/packetgen/internal/export"
	"github.com/packetgen/packetgen/internal/logging"
	"github.com/packetgen/packetgen/internal/safety"
	"github.com/packetgen/packetgen/internal/stats"
	"github.com/packetgen/packetgen/internal/sysinfo"
	"github.com/packetgen/packetgen/internal/transport"
	"github.com/packetgen/packetgen/internal/tui"
)

var runFlags struct {
	target            string
	ports             []uint16
	threads           int
	rate              int
	duration          time.Duration
	dryRun            bool
	perfectSimulation bool
	export            string
	iface             string
	cpuAffinity       bool
	useTUI            bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a controlled packet-generation session against a private-network target",
	RunE:  runRun,
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runFlags.target, "target", "", "destination IP address (required, must be private/link-local)")
	f.Var(&portsFlag{&runFlags.ports}, "ports", "comma-separated destination ports (overrides config)")
	f.IntVar(&runFlags.threads, "threads", 0, "worker count (overrides config)")
	f.IntVar(&runFlags.rate, "rate", 0, "packets/sec per worker (overrides config)")
	f.DurationVar(&runFlags.duration, "duration", 0, "run duration, 0 means run until stopped (overrides config)")
	f.BoolVar(&runFlags.dryRun, "dry-run", false, "force dry-run transport regardless of config")
	f.BoolVar(&runFlags.perfectSimulation, "perfect-simulation", false, "dry-run with 100% simulated success")
	f.StringVar(&runFlags.export, "export", "", "write a report in this format when the run completes: json, csv, both")
	f.StringVar(&runFlags.iface, "interface", "", "network interface for layer-2 framing (overrides config)")
	f.BoolVar(&runFlags.cpuAffinity, "cpu-affinity", false, "pin workers to CPUs (overrides config)")
	f.BoolVar(&runFlags.useTUI, "tui", false, "show a live terminal view while the run is in progress")
}

// portsFlag adapts a []uint16 to pflag.Value so --ports can be a plain
// comma-separated string without pulling in a dependency for it.
type portsFlag struct {
	dest *[]uint16
}

func (p *portsFlag) String() string {
	if p.dest == nil || len(*p.dest) == 0 {
		return ""
	}
	out := fmt.Sprintf("%d", (*p.dest)[0])
	for _, port := range (*p.dest)[1:] {
		out += fmt.Sprintf(",%d", port)
	}
	return out
}

func (p *portsFlag) Set(raw string) error {
	var ports []uint16
	start := 0
	for i := 0; i <= len(raw); i++ {
		if i == len(raw) || raw[i] == ',' {
			if i > start {
				var port uint16
				if _, err := fmt.Sscanf(raw[start:i], "%d", &port); err != nil {
					return fmt.Errorf("invalid port %q", raw[start:i])
				}
				ports = append(ports, port)
			}
			start = i + 1
		}
	}
	*p.dest = ports
	return nil
}

func (p *portsFlag) Type() string { return "ports" }

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return exitValidation(err)
	}

	applyRunFlagOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return exitValidation(err)
	}
	if _, err := cfg.Attack.BurstPattern.RequireSustained(); err != nil {
		return exitValidation(err)
	}

	log := logging.New(logging.Config{
		Level:  logging.Level(cfg.Framework.LogLevel),
		Format: logging.Format(cfg.Framework.LogFormat),
	})

	ip := net.ParseIP(cfg.Target.IP)

	capReport := capability.Check()
	if !capReport.RawSocket && !cfg.Safety.DryRun {
		return exitCapability(fmt.Errorf("raw socket capability unavailable (%s); re-run with --dry-run or grant CAP_NET_RAW", capReport.ProbeError))
	}

	transportKind := driver.TransportDryRun
	if !cfg.Safety.DryRun {
		transportKind = driver.TransportRawSocket
	}

	stopCh := make(chan struct{})
	readyCh := make(chan *stats.Global, 1)
	auditLog := audit.New()
	if cfg.Export.AuditLogPath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Export.AuditLogPath), 0755); err != nil {
			log.Warn("audit log directory unavailable, continuing with in-memory log only", "error", err.Error())
		} else if af, err := audit.OpenAppendFile(cfg.Export.AuditLogPath); err != nil {
			log.Warn("audit log file unavailable, continuing with in-memory log only", "error", err.Error())
		} else {
			auditLog.SetAppendFile(af)
			defer af.Close()
		}
	}

	driverCfg := driver.Config{
		IP:            ip,
		Ports:         cfg.Target.Ports,
		Mix:           cfg.Target.ProtocolMix.ToDomain(),
		WorkerCount:   cfg.Attack.Threads,
		RatePerWorker: cfg.Attack.PacketRate,
		Jitter:        cfg.Attack.Jitter,
		PinCPU:        cfg.Attack.CPUAffinity,
		MinPayload:    cfg.Attack.PacketSizeRange[0],
		MaxPayload:    cfg.Attack.PacketSizeRange[1],
		BatchSize:     32,
		Seed:          time.Now().UnixNano(),
		Duration:      cfg.Attack.Duration,
		Interface:     cfg.Target.Interface,
		Limits: safety.Limits{
			MaxThreads:   cfg.Safety.MaxThreads,
			MaxRate:      cfg.Safety.MaxPacketRate,
			BandwidthCap: cfg.Safety.MaxBandwidthBps,
		},
		Transport: transportKind,
		DryRun: transport.DryRunConfig{
			PerfectSimulation: cfg.Safety.PerfectSimulation,
		},
		InstallSignals: true,
		StopCh:         stopCh,
		Ready:          readyCh,
		Audit:          auditLog,
		Log:            log,
	}

	var runErr error
	var result *driver.Result
	done := make(chan struct{})
	go func() {
		result, runErr = driver.Run(driverCfg)
		close(done)
	}()

	if runFlags.useTUI {
		global := <-readyCh
		m := tui.NewModel(cfg.Target.IP, cfg.Attack.Duration, global.Snapshot)
		if err := tui.Run(m); err != nil {
			log.Warn("tui exited with error", "error", err.Error())
		}
		close(stopCh)
	}

	<-done
	if runErr != nil {
		return classifyRunError(runErr)
	}

	printSummary(result)
	printAuditSummary(auditLog)

	if runFlags.export != "" {
		if err := saveReport(cfg, result); err != nil {
			return exitRuntime(fmt.Errorf("saving report: %w", err))
		}
	}

	if result.SignalStopped {
		// A trapped SIGINT/SIGTERM doesn't itself terminate the process, so
		// Run's graceful nil return would otherwise exit 0. Reproduce the
		// shell's 128+signal convention explicitly (spec.md §6).
		return exitSignal(errors.New("interrupted"))
	}

	return nil
}

func classifyRunError(err error) error {
	var ve *safety.ValidationError
	if errors.As(err, &ve) {
		return exitValidation(err)
	}
	return exitRuntime(err)
}

func applyRunFlagOverrides(cfg *config.Config) {
	if runFlags.target != "" {
		cfg.Target.IP = runFlags.target
	}
	if len(runFlags.ports) > 0 {
		cfg.Target.Ports = runFlags.ports
	}
	if runFlags.threads > 0 {
		cfg.Attack.Threads = runFlags.threads
	}
	if runFlags.rate > 0 {
		cfg.Attack.PacketRate = runFlags.rate
	}
	if runFlags.duration > 0 {
		cfg.Attack.Duration = runFlags.duration
	}
	if runFlags.dryRun {
		cfg.Safety.DryRun = true
	}
	if runFlags.perfectSimulation {
		cfg.Safety.DryRun = true
		cfg.Safety.PerfectSimulation = true
	}
	if runFlags.iface != "" {
		cfg.Target.Interface = runFlags.iface
	}
	if runFlags.cpuAffinity {
		cfg.Attack.CPUAffinity = true
	}
}

func printAuditSummary(log *audit.Log) {
	entries := log.Entries()
	ok, brokenAt := log.Verify()
	if !ok {
		fmt.Printf("audit: %d entries, chain broken at entry %d\n", len(entries), brokenAt)
		return
	}
	fmt.Printf("audit: %d entries, chain intact\n", len(entries))
}

func printSummary(r *driver.Result) {
	fmt.Printf("sent=%d failed=%d bytes=%d pps=%.1f mbps=%.2f\n",
		r.Snapshot.Sent, r.Snapshot.Failed, r.Snapshot.Bytes,
		r.Snapshot.PacketsPerSecond(), r.Snapshot.Megabits())
	for _, w := range r.Warnings {
		fmt.Println("warning:", w)
	}
}

func saveReport(cfg *config.Config, r *driver.Result) error {
	storage, err := export.NewStorage(cfg.Export.OutputDir, cfg.Export.KeepLastN, nil)
	if err != nil {
		return err
	}

	var sys *export.SystemStats
	if cfg.Export.IncludeSystemStats {
		info := sysinfo.Collect()
		sys = &export.SystemStats{MemoryTotal: info.MemTotalBytes}
	}
	report := export.NewReport(r.Snapshot, time.Now(), export.NewSessionID(), sys)

	format := export.Format(runFlags.export)
	_, err = storage.Save(report, format)
	return err
}
