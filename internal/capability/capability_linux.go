//go:build linux

// Package capability probes whether this process can open raw sockets
// (the runtime capability spec.md §6 names as CAP_NET_RAW on Linux),
// so the CLI can refuse a `run` up front with a clear error instead of
// spawning a worker fleet whose every RawSocket construction then fails
// the same way.
package capability

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Probe reports whether the process can open a raw socket right now. It
// opens and immediately closes an AF_INET/SOCK_RAW/IPPROTO_RAW socket —
// the exact call internal/transport's RawSocket makes — rather than
// parsing /proc/self/status capability bitmasks, so the probe can never
// drift out of sync with what actually gets attempted at run time.
func Probe() (bool, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_RAW, unix.IPPROTO_RAW)
	if err != nil {
		if err == unix.EPERM {
			return false, nil
		}
		return false, fmt.Errorf("capability: probe raw socket: %w", err)
	}
	unix.Close(fd)
	return true, nil
}
