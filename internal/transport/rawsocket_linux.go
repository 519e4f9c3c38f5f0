//go:build linux

package transport

import (
	"fmt"
	"net"
	"sync"

	"golang.org/x/sys/unix"
)

// RawSocket is the production Transport variant: one raw socket per family
// (plus an AF_PACKET socket when an L2 channel is requested), opened once
// at construction and owned exclusively by the worker that built it — no
// locking on the hot path (spec.md §4.7).
type RawSocket struct {
	ifaceIndex int

	fd4 int
	fd6 int
	fdL *int // nil when no L2 channel was requested

	mtu int

	mu     sync.Mutex
	closed bool
}

// RawSocketConfig names the outbound interface and which channels to open.
type RawSocketConfig struct {
	Interface string
	OpenV4    bool
	OpenV6    bool
	OpenL2    bool
	MTU       int // 0 defaults to 1500
}

// NewRawSocket opens the requested channels. Opening a raw socket requires
// CAP_NET_RAW (see internal/capability); callers should probe that before
// constructing a fleet of workers so the failure surfaces once, not per
// worker.
func NewRawSocket(cfg RawSocketConfig) (*RawSocket, error) {
	mtu := cfg.MTU
	if mtu <= 0 {
		mtu = defaultMTU
	}
	rs := &RawSocket{fd4: -1, fd6: -1, mtu: mtu}

	if cfg.Interface != "" {
		iface, err := net.InterfaceByName(cfg.Interface)
		if err != nil {
			return nil, fmt.Errorf("transport: resolve interface %q: %w", cfg.Interface, err)
		}
		rs.ifaceIndex = iface.Index
	}

	if cfg.OpenV4 {
		fd, err := unix.Socket(unix.AF_INET, unix.SOCK_RAW, unix.IPPROTO_RAW)
		if err != nil {
			return nil, fmt.Errorf("transport: open IPv4 raw socket: %w", err)
		}
		if err := unix.SetsockoptInt(fd, unix.IPPROTO_IP, unix.IP_HDRINCL, 1); err != nil {
			unix.Close(fd)
			return nil, fmt.Errorf("transport: set IP_HDRINCL: %w", err)
		}
		rs.fd4 = fd
	}
	if cfg.OpenV6 {
		fd, err := unix.Socket(unix.AF_INET6, unix.SOCK_RAW, unix.IPPROTO_RAW)
		if err != nil {
			rs.closeOpened()
			return nil, fmt.Errorf("transport: open IPv6 raw socket: %w", err)
		}
		rs.fd6 = fd
	}
	if cfg.OpenL2 {
		fd, err := unix.Socket(unix.AF_PACKET, unix.SOCK_RAW, 0)
		if err != nil {
			rs.closeOpened()
			return nil, fmt.Errorf("transport: open AF_PACKET socket: %w", err)
		}
		rs.fdL = &fd
	}
	return rs, nil
}

func (rs *RawSocket) closeOpened() {
	if rs.fd4 >= 0 {
		unix.Close(rs.fd4)
	}
	if rs.fd6 >= 0 {
		unix.Close(rs.fd6)
	}
	if rs.fdL != nil {
		unix.Close(*rs.fdL)
	}
}

func (rs *RawSocket) SendV4(frame []byte) error {
	if err := rs.guard(); err != nil {
		return err
	}
	if rs.fd4 < 0 {
		return &SendError{Kind: "v4", Cause: fmt.Errorf("no IPv4 channel open")}
	}
	if err := checkSize(frame, rs.mtu); err != nil {
		return &SendError{Kind: "v4", Cause: err}
	}
	var dst [4]byte
	copy(dst[:], frame[16:20]) // IPv4 destination address field
	addr := &unix.SockaddrInet4{Addr: dst}
	if err := unix.Sendto(rs.fd4, frame, 0, addr); err != nil {
		return &SendError{Kind: "v4", Cause: err}
	}
	return nil
}

func (rs *RawSocket) SendV6(frame []byte) error {
	if err := rs.guard(); err != nil {
		return err
	}
	if rs.fd6 < 0 {
		return &SendError{Kind: "v6", Cause: fmt.Errorf("no IPv6 channel open")}
	}
	if err := checkSize(frame, rs.mtu); err != nil {
		return &SendError{Kind: "v6", Cause: err}
	}
	var dst [16]byte
	copy(dst[:], frame[24:40]) // IPv6 destination address field
	addr := &unix.SockaddrInet6{Addr: dst}
	if err := unix.Sendto(rs.fd6, frame, 0, addr); err != nil {
		return &SendError{Kind: "v6", Cause: err}
	}
	return nil
}

func (rs *RawSocket) SendL2(frame []byte) error {
	if err := rs.guard(); err != nil {
		return err
	}
	if rs.fdL == nil {
		return &SendError{Kind: "l2", Cause: fmt.Errorf("no L2 channel open")}
	}
	if err := checkSize(frame, rs.mtu); err != nil {
		return &SendError{Kind: "l2", Cause: err}
	}
	addr := &unix.SockaddrLinklayer{
		Ifindex: rs.ifaceIndex,
		Halen:   6,
	}
	copy(addr.Addr[:6], frame[0:6])
	if err := unix.Sendto(*rs.fdL, frame, 0, addr); err != nil {
		return &SendError{Kind: "l2", Cause: err}
	}
	return nil
}

func (rs *RawSocket) HasL2() bool { return rs.fdL != nil }

func (rs *RawSocket) guard() error {
	rs.mu.Lock()
	closed := rs.closed
	rs.mu.Unlock()
	if closed {
		return ErrChannelClosed
	}
	return nil
}

func (rs *RawSocket) Close() error {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if rs.closed {
		return nil
	}
	rs.closed = true
	rs.closeOpened()
	return nil
}
