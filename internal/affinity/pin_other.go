//go:build !linux

package affinity

import "fmt"

// Pin is a no-op failure on non-Linux platforms: sched_setaffinity has no
// portable equivalent. Callers should treat a Pin error as non-fatal — a
// worker still runs, just without a CPU pin (spec.md §4.11 names pinning
// as an optional refinement, not a correctness requirement).
func Pin(cpu int) error {
	return fmt.Errorf("affinity: CPU pinning is only supported on linux (requested cpu %d)", cpu)
}
