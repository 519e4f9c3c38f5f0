package packet

import (
	"encoding/binary"
	"net"
	"testing"

	"github.com/packetgen/packetgen/internal/domain"
	"github.com/packetgen/packetgen/internal/rng"
)

func mustTarget(t *testing.T, ip string, ports ...uint16) *domain.Target {
	t.Helper()
	tgt, err := domain.NewTarget(net.ParseIP(ip), ports)
	if err != nil {
		t.Fatalf("NewTarget: %v", err)
	}
	return tgt
}

func defaultOpts(src string) BuildOptions {
	return BuildOptions{SourceIP: net.ParseIP(src), MinPayload: 8, MaxPayload: 32}
}

func TestUDPv4RoundTrip(t *testing.T) {
	buf := make([]byte, 1500)
	r := rng.New(1)
	tgt := mustTarget(t, "10.0.0.1", 53)
	res, err := ForKind(domain.KindUDPv4).BuildInto(buf, tgt, 53, r, defaultOpts("10.0.0.2"))
	if err != nil {
		t.Fatalf("BuildInto: %v", err)
	}
	frame := buf[:res.Size]

	if frame[0]>>4 != 4 {
		t.Fatalf("expected IPv4 version nibble 4, got %d", frame[0]>>4)
	}
	if frame[9] != 17 {
		t.Fatalf("expected protocol UDP(17), got %d", frame[9])
	}
	gotDst := net.IP(frame[16:20])
	if !gotDst.Equal(net.ParseIP("10.0.0.1")) {
		t.Fatalf("dst IP mismatch: got %v", gotDst)
	}
	dstPort := binary.BigEndian.Uint16(frame[ipv4HeaderLen+2 : ipv4HeaderLen+4])
	if dstPort != 53 {
		t.Fatalf("dst port mismatch: got %d", dstPort)
	}

	// checksum must verify: recompute over the frame as sent and expect a
	// zero accumulator once the stored checksum participates.
	src := toV4Array(net.ParseIP("10.0.0.2").To4())
	dst := toV4Array(net.ParseIP("10.0.0.1").To4())
	udpSeg := frame[ipv4HeaderLen:]
	if got := udpChecksumV4(src, dst, udpSeg); got != 0 {
		// udpChecksumV4 zeroes the field internally only via callers; here
		// the stored checksum is non-zero so recompute against a zeroed copy.
		cp := append([]byte(nil), udpSeg...)
		cp[6], cp[7] = 0, 0
		want := udpChecksumV4(src, dst, cp)
		stored := binary.BigEndian.Uint16(udpSeg[6:8])
		if want != stored {
			t.Fatalf("udp checksum mismatch: stored %x want %x", stored, want)
		}
	}
}

func TestTCPv4SYNandACKFlags(t *testing.T) {
	buf := make([]byte, 1500)
	r := rng.New(2)
	tgt := mustTarget(t, "192.168.1.1", 80)

	resSyn, err := ForKind(domain.KindTCPv4SYN).BuildInto(buf, tgt, 80, r, BuildOptions{SourceIP: net.ParseIP("192.168.1.2")})
	if err != nil {
		t.Fatalf("SYN BuildInto: %v", err)
	}
	flags := buf[ipv4HeaderLen+13]
	if flags != byte(tcpFlagSYN) {
		t.Fatalf("expected SYN flag 0x02, got 0x%02x", flags)
	}
	if resSyn.Tag != "TCP_SYN" {
		t.Fatalf("unexpected tag %q", resSyn.Tag)
	}

	buf2 := make([]byte, 1500)
	resAck, err := ForKind(domain.KindTCPv4ACK).BuildInto(buf2, tgt, 80, r, BuildOptions{SourceIP: net.ParseIP("192.168.1.2")})
	if err != nil {
		t.Fatalf("ACK BuildInto: %v", err)
	}
	flags2 := buf2[ipv4HeaderLen+13]
	if flags2 != byte(tcpFlagACK) {
		t.Fatalf("expected ACK flag 0x10, got 0x%02x", flags2)
	}
	if resAck.Tag != "TCP_ACK" {
		t.Fatalf("unexpected tag %q", resAck.Tag)
	}
}

func TestICMPv6UsesIPv6PseudoHeader(t *testing.T) {
	buf := make([]byte, 1500)
	r := rng.New(3)
	tgt := mustTarget(t, "fe80::1", 0)
	res, err := ForKind(domain.KindICMPv6).BuildInto(buf, tgt, 0, r, BuildOptions{SourceIP: net.ParseIP("fe80::2"), MinPayload: 8, MaxPayload: 16})
	if err != nil {
		t.Fatalf("BuildInto: %v", err)
	}
	frame := buf[:res.Size]
	if frame[6] != 58 {
		t.Fatalf("expected next header ICMPv6(58), got %d", frame[6])
	}

	src := toV6Array(net.ParseIP("fe80::2").To16())
	dst := toV6Array(net.ParseIP("fe80::1").To16())
	icmpSeg := frame[ipv6HeaderLen:]
	cp := append([]byte(nil), icmpSeg...)
	cp[2], cp[3] = 0, 0
	want := icmpv6Checksum(src, dst, cp)
	stored := binary.BigEndian.Uint16(icmpSeg[2:4])
	if want != stored {
		t.Fatalf("icmpv6 checksum mismatch: stored %x want %x", stored, want)
	}

	// the plain IPv4-style ICMP checksum (no pseudo-header) must NOT match,
	// guarding against the legacy bug spec.md §9 calls out.
	cpCopy := append([]byte(nil), icmpSeg...)
	cpCopy[2], cpCopy[3] = 0, 0
	wrongChecksum := icmpChecksumV4(cpCopy)
	if wrongChecksum == want {
		t.Skip("checksums coincidentally equal for this payload; not a useful negative check")
	}
}

func TestBufferTooSmallNoPartialWrite(t *testing.T) {
	buf := make([]byte, domain.KindUDPv4.MinSize()-1)
	sentinel := byte(0xAB)
	for i := range buf {
		buf[i] = sentinel
	}
	r := rng.New(4)
	tgt := mustTarget(t, "10.0.0.1", 53)
	_, err := ForKind(domain.KindUDPv4).BuildInto(buf, tgt, 53, r, defaultOpts("10.0.0.2"))
	if err == nil {
		t.Fatalf("expected BufferTooSmallError")
	}
	bts, ok := err.(*BufferTooSmallError)
	if !ok {
		t.Fatalf("expected *BufferTooSmallError, got %T", err)
	}
	if bts.Got != len(buf) {
		t.Fatalf("Got mismatch: %d vs %d", bts.Got, len(buf))
	}
	for i, b := range buf {
		if b != sentinel {
			t.Fatalf("byte %d was written despite error: %x", i, b)
		}
	}
}

func TestFamilyMismatch(t *testing.T) {
	buf := make([]byte, 1500)
	r := rng.New(5)
	tgt := mustTarget(t, "fe80::1", 53)
	_, err := ForKind(domain.KindUDPv4).BuildInto(buf, tgt, 53, r, defaultOpts("10.0.0.2"))
	if _, ok := err.(*FamilyMismatchError); !ok {
		t.Fatalf("expected *FamilyMismatchError, got %v (%T)", err, err)
	}
}

func TestARPFields(t *testing.T) {
	buf := make([]byte, 1500)
	r := rng.New(6)
	tgt := mustTarget(t, "10.0.0.1", 0)
	res, err := arp{}.BuildInto(buf, tgt, 0, r, BuildOptions{})
	if err != nil {
		t.Fatalf("BuildInto: %v", err)
	}
	frame := buf[:res.Size]
	for _, b := range frame[0:6] {
		if b != 0xff {
			t.Fatalf("expected broadcast ethernet destination, got %x", frame[0:6])
		}
	}
	op := binary.BigEndian.Uint16(frame[ethernetHeaderLen+6 : ethernetHeaderLen+8])
	if op != 1 {
		t.Fatalf("expected ARP request op 1, got %d", op)
	}
	tpa := net.IP(frame[ethernetHeaderLen+24 : ethernetHeaderLen+28])
	if !tpa.Equal(net.ParseIP("10.0.0.1")) {
		t.Fatalf("TPA mismatch: got %v", tpa)
	}
	tha := frame[ethernetHeaderLen+18 : ethernetHeaderLen+24]
	for _, b := range tha {
		if b != 0 {
			t.Fatalf("expected zero THA, got %x", tha)
		}
	}
}
