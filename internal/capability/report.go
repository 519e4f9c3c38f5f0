package capability

// Report summarizes the capability check for `system security` and for
// `run`'s pre-flight gate (spec.md §6: "when absent, run must refuse to
// send unless --dry-run is set").
type Report struct {
	RawSocket    bool
	ProbeError   string
	RequiresSudo bool
}

// Check runs Probe and wraps the result into a Report, never returning an
// error itself — callers render ProbeError instead of branching on two
// failure channels.
func Check() Report {
	ok, err := Probe()
	r := Report{RawSocket: ok, RequiresSudo: !ok}
	if err != nil {
		r.ProbeError = err.Error()
	}
	return r
}
