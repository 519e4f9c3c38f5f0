package packet

import (
	"encoding/binary"

	"github.com/packetgen/packetgen/internal/domain"
	"github.com/packetgen/packetgen/internal/rng"
)

const udpHeaderLen = 8

type udpV4 struct{}

func (udpV4) MinSize() int { return domain.KindUDPv4.MinSize() }

func (udpV4) CompatibleWith(f domain.Family) bool { return f == domain.FamilyV4 }

func (s udpV4) BuildInto(buf []byte, target *domain.Target, port uint16, r *rng.Batched, opts BuildOptions) (Result, error) {
	if !s.CompatibleWith(target.Family) {
		return Result{}, &FamilyMismatchError{Kind: "UDPv4", Family: target.Family.String()}
	}
	if len(buf) < s.MinSize() {
		return Result{}, &BufferTooSmallError{Need: s.MinSize(), Got: len(buf)}
	}

	payload := payloadSize(r, opts, ipv4HeaderLen+udpHeaderLen, len(buf))
	total := ipv4HeaderLen + udpHeaderLen + payload
	if total > len(buf) {
		return Result{}, &BufferTooSmallError{Need: total, Got: len(buf)}
	}

	src := toV4Array(opts.SourceIP.To4())
	dst := toV4Array(target.IP.To4())

	udpSeg := buf[ipv4HeaderLen : ipv4HeaderLen+udpHeaderLen+payload]
	srcPort := r.Port()
	binary.BigEndian.PutUint16(udpSeg[0:2], srcPort)
	binary.BigEndian.PutUint16(udpSeg[2:4], port)
	binary.BigEndian.PutUint16(udpSeg[4:6], uint16(udpHeaderLen+payload))
	udpSeg[6], udpSeg[7] = 0, 0 // checksum, filled below
	if payload > 0 {
		r.Fill(udpSeg[udpHeaderLen:])
	}

	writeIPv4Header(buf, src, dst, 17, udpHeaderLen+payload, r)

	csum := udpChecksumV4(src, dst, udpSeg)
	binary.BigEndian.PutUint16(udpSeg[6:8], csum)

	return Result{Size: total, Tag: domain.KindUDPv4.Tag()}, nil
}
