package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/packetgen/packetgen/internal/domain"
	"github.com/packetgen/packetgen/internal/sysinfo"
)

var systemCmd = &cobra.Command{
	Use:   "system",
	Short: "Host diagnostics: capabilities, resources, and construction throughput",
}

var systemInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Report host CPU/memory facts and raw-socket capability",
	RunE: func(cmd *cobra.Command, args []string) error {
		info := sysinfo.Collect()
		fmt.Printf("cpu_count: %d\n", info.CPUCount)
		if info.MemTotalBytes > 0 {
			fmt.Printf("mem_total_bytes: %d\n", info.MemTotalBytes)
			fmt.Printf("mem_available_bytes: %d\n", info.MemAvailableBytes)
		} else {
			fmt.Println("mem_total_bytes: unavailable")
		}
		fmt.Printf("raw_socket_capable: %t\n", info.RawSocketCapable)
		return nil
	},
}

var systemSecurityCmd = &cobra.Command{
	Use:   "security",
	Short: "Report the raw-socket capability probe and private-range policy",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return exitValidation(err)
		}
		r := sysinfo.CollectSecurity(cfg.Safety.RequirePrivateRanges)
		fmt.Printf("raw_socket: %t\n", r.Capability.RawSocket)
		if r.Capability.ProbeError != "" {
			fmt.Printf("probe_error: %s\n", r.Capability.ProbeError)
		}
		fmt.Printf("requires_sudo: %t\n", r.Capability.RequiresSudo)
		fmt.Printf("require_private_ranges: %t\n", r.RequirePrivateRanges)
		return nil
	},
}

var systemPerformanceFlags struct {
	kind   string
	budget time.Duration
}

var systemPerformanceCmd = &cobra.Command{
	Use:   "performance",
	Short: "Benchmark packet construction throughput with no network I/O",
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := parsePacketKind(systemPerformanceFlags.kind)
		if err != nil {
			return exitValidation(err)
		}
		res, err := sysinfo.RunBenchmark(kind, systemPerformanceFlags.budget)
		if err != nil {
			return exitRuntime(err)
		}
		fmt.Printf("kind: %s\n", res.Kind)
		fmt.Printf("iterations: %d\n", res.Iterations)
		fmt.Printf("elapsed: %s\n", res.Elapsed)
		fmt.Printf("packets_per_second: %.0f\n", res.PacketsPerSecond)
		return nil
	},
}

func parsePacketKind(tag string) (domain.PacketKind, error) {
	for _, k := range domain.AllKinds {
		if k.Tag() == tag {
			return k, nil
		}
	}
	return 0, fmt.Errorf("system performance: unknown packet kind %q", tag)
}

func init() {
	systemPerformanceCmd.Flags().StringVar(&systemPerformanceFlags.kind, "kind", "UDP", "packet kind to benchmark (one of the protocol_breakdown tags)")
	systemPerformanceCmd.Flags().DurationVar(&systemPerformanceFlags.budget, "duration", 500*time.Millisecond, "benchmark wall-clock budget")

	systemCmd.AddCommand(systemInfoCmd)
	systemCmd.AddCommand(systemSecurityCmd)
	systemCmd.AddCommand(systemPerformanceCmd)
}
