package packet

import (
	"encoding/binary"

	"github.com/packetgen/packetgen/internal/domain"
	"github.com/packetgen/packetgen/internal/rng"
)

type udpV6 struct{}

func (udpV6) MinSize() int { return domain.KindUDPv6.MinSize() }

func (udpV6) CompatibleWith(f domain.Family) bool { return f == domain.FamilyV6 }

func (s udpV6) BuildInto(buf []byte, target *domain.Target, port uint16, r *rng.Batched, opts BuildOptions) (Result, error) {
	if !s.CompatibleWith(target.Family) {
		return Result{}, &FamilyMismatchError{Kind: "UDPv6", Family: target.Family.String()}
	}
	if len(buf) < s.MinSize() {
		return Result{}, &BufferTooSmallError{Need: s.MinSize(), Got: len(buf)}
	}

	payload := payloadSize(r, opts, ipv6HeaderLen+udpHeaderLen, len(buf))
	total := ipv6HeaderLen + udpHeaderLen + payload
	if total > len(buf) {
		return Result{}, &BufferTooSmallError{Need: total, Got: len(buf)}
	}

	src := toV6Array(opts.SourceIP.To16())
	dst := toV6Array(target.IP.To16())

	udpSeg := buf[ipv6HeaderLen : ipv6HeaderLen+udpHeaderLen+payload]
	srcPort := r.Port()
	binary.BigEndian.PutUint16(udpSeg[0:2], srcPort)
	binary.BigEndian.PutUint16(udpSeg[2:4], port)
	binary.BigEndian.PutUint16(udpSeg[4:6], uint16(udpHeaderLen+payload))
	udpSeg[6], udpSeg[7] = 0, 0
	if payload > 0 {
		r.Fill(udpSeg[udpHeaderLen:])
	}

	writeIPv6Header(buf, src, dst, 17, udpHeaderLen+payload, r)

	csum := udpChecksumV6(src, dst, udpSeg)
	binary.BigEndian.PutUint16(udpSeg[6:8], csum)

	return Result{Size: total, Tag: domain.KindUDPv6.Tag()}, nil
}
