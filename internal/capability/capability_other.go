//go:build !linux

package capability

import "fmt"

// Probe always reports false on non-Linux platforms: raw-socket injection
// (internal/transport's RawSocket variant) is only implemented for Linux.
func Probe() (bool, error) {
	return false, fmt.Errorf("capability: raw socket probing only supported on linux")
}
