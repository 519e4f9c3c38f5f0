//go:build linux

package affinity

import "golang.org/x/sys/unix"

// Pin binds the calling OS thread to cpu via sched_setaffinity. Callers
// must have already called runtime.LockOSThread() so the binding sticks to
// the goroutine that calls Pin (spec.md §4.11).
func Pin(cpu int) error {
	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)
	// pid 0 means "the calling thread" under sched_setaffinity.
	return unix.SchedSetaffinity(0, &set)
}
