// Package sysinfo backs the `system info|security|performance` diagnostics
// subcommands of spec.md §6: host CPU/memory facts, the raw-socket
// capability probe, and a closed-loop packet-construction benchmark. None
// of it emits network traffic.
package sysinfo

import (
	"runtime"

	"github.com/packetgen/packetgen/internal/capability"
)

// Info is the `system info` report: host resources plus whether this
// process can currently open raw sockets.
type Info struct {
	CPUCount          int
	MemTotalBytes     uint64
	MemAvailableBytes uint64
	RawSocketCapable  bool
}

// Collect gathers Info. Memory figures are read from /proc/meminfo on
// Linux (see meminfo_linux.go); on other platforms they are left at zero,
// which Collect's caller renders as "unavailable".
func Collect() Info {
	mem := readMemInfo()
	ok, _ := capability.Probe()
	return Info{
		CPUCount:          runtime.NumCPU(),
		MemTotalBytes:     mem.totalBytes,
		MemAvailableBytes: mem.availableBytes,
		RawSocketCapable:  ok,
	}
}

// SecurityReport is the `system security` report: the capability probe
// plus the private-range policy currently in force.
type SecurityReport struct {
	Capability           capability.Report
	RequirePrivateRanges bool
}

// CollectSecurity builds a SecurityReport. requirePrivateRanges is passed
// in from the active config rather than hardcoded, since it's a
// safety.Limits-adjacent policy knob, not a fact about the host.
func CollectSecurity(requirePrivateRanges bool) SecurityReport {
	return SecurityReport{
		Capability:           capability.Check(),
		RequirePrivateRanges: requirePrivateRanges,
	}
}
