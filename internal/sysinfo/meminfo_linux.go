//go:build linux

package sysinfo

import (
	"bufio"
	"os"
	"strconv"
	"strings"
)

type memInfo struct {
	totalBytes     uint64
	availableBytes uint64
}

// readMemInfo parses the handful of /proc/meminfo fields this package
// needs, in the same direct-/proc-read idiom as the corpus's cgroup/proc
// collectors (ja7ad-consumption/pkg/system/proc) rather than pulling in a
// host-metrics library for two integers.
func readMemInfo() memInfo {
	f, err := os.Open("/proc/meminfo")
	if err != nil {
		return memInfo{}
	}
	defer f.Close()

	var mi memInfo
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		key := strings.TrimSuffix(fields[0], ":")
		kb, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			continue
		}
		switch key {
		case "MemTotal":
			mi.totalBytes = kb * 1024
		case "MemAvailable":
			mi.availableBytes = kb * 1024
		}
	}
	return mi
}
