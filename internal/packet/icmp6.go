package packet

import (
	"encoding/binary"

	"github.com/packetgen/packetgen/internal/domain"
	"github.com/packetgen/packetgen/internal/rng"
)

type icmpV6 struct{}

func (icmpV6) MinSize() int { return domain.KindICMPv6.MinSize() }

func (icmpV6) CompatibleWith(f domain.Family) bool { return f == domain.FamilyV6 }

func (s icmpV6) BuildInto(buf []byte, target *domain.Target, _ uint16, r *rng.Batched, opts BuildOptions) (Result, error) {
	if !s.CompatibleWith(target.Family) {
		return Result{}, &FamilyMismatchError{Kind: "ICMPv6", Family: target.Family.String()}
	}
	if len(buf) < s.MinSize() {
		return Result{}, &BufferTooSmallError{Need: s.MinSize(), Got: len(buf)}
	}

	payload := payloadSize(r, opts, ipv6HeaderLen+icmpEchoHeaderLen, len(buf))
	total := ipv6HeaderLen + icmpEchoHeaderLen + payload
	if total > len(buf) {
		return Result{}, &BufferTooSmallError{Need: total, Got: len(buf)}
	}

	src := toV6Array(opts.SourceIP.To16())
	dst := toV6Array(target.IP.To16())

	icmpSeg := buf[ipv6HeaderLen : ipv6HeaderLen+icmpEchoHeaderLen+payload]
	icmpSeg[0] = 128 // ICMPv6 echo request
	icmpSeg[1] = 0
	icmpSeg[2], icmpSeg[3] = 0, 0
	binary.BigEndian.PutUint16(icmpSeg[4:6], uint16(r.ID()))
	binary.BigEndian.PutUint16(icmpSeg[6:8], uint16(r.Seq()))
	if payload > 0 {
		r.Fill(icmpSeg[icmpEchoHeaderLen:])
	}

	writeIPv6Header(buf, src, dst, 58, icmpEchoHeaderLen+payload, r)

	// Critical distinction from ICMPv4: this checksum covers the IPv6
	// pseudo-header, not a bare ICMP checksum (spec.md §4.4, §9).
	csum := icmpv6Checksum(src, dst, icmpSeg)
	binary.BigEndian.PutUint16(icmpSeg[2:4], csum)

	return Result{Size: total, Tag: domain.KindICMPv6.Tag()}, nil
}
