package supervisor

import (
	"runtime"

	"github.com/packetgen/packetgen/internal/affinity"
	"github.com/packetgen/packetgen/internal/logging"
)

// runtimeLockAndPin locks the calling goroutine to its OS thread and, if
// cpu is non-negative, attempts to pin that thread to it. A pin failure is
// logged and otherwise ignored — CPU affinity is a throughput refinement,
// not a correctness requirement (spec.md §4.11).
func runtimeLockAndPin(cpu int, log *logging.Logger, workerID int) {
	runtime.LockOSThread()
	if cpu < 0 {
		return
	}
	if err := affinity.Pin(cpu); err != nil {
		log.Debug("cpu pin failed", "worker_id", workerID, "cpu", cpu, "error", err.Error())
	}
}
