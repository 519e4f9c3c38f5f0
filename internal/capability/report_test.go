package capability

import "testing"

func TestCheckNeverPanics(t *testing.T) {
	// Probe's outcome depends on the process's actual privileges in this
	// test environment; Check must always return a Report rather than
	// erroring out, regardless of whether CAP_NET_RAW is present.
	r := Check()
	if r.RawSocket && r.RequiresSudo {
		t.Fatalf("RawSocket and RequiresSudo must not both be true: %+v", r)
	}
	if !r.RawSocket && !r.RequiresSudo {
		t.Fatalf("RequiresSudo must be true whenever RawSocket is false: %+v", r)
	}
}
