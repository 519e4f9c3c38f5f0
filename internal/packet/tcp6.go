package packet

import (
	"encoding/binary"

	"github.com/packetgen/packetgen/internal/domain"
	"github.com/packetgen/packetgen/internal/rng"
)

type tcpV6 struct{}

func (tcpV6) MinSize() int { return domain.KindTCPv6.MinSize() }

func (tcpV6) CompatibleWith(f domain.Family) bool { return f == domain.FamilyV6 }

func (s tcpV6) BuildInto(buf []byte, target *domain.Target, port uint16, r *rng.Batched, opts BuildOptions) (Result, error) {
	if !s.CompatibleWith(target.Family) {
		return Result{}, &FamilyMismatchError{Kind: "TCPv6", Family: target.Family.String()}
	}
	if len(buf) < s.MinSize() {
		return Result{}, &BufferTooSmallError{Need: s.MinSize(), Got: len(buf)}
	}

	payload := 0
	if opts.MaxPayload > 0 {
		payload = payloadSize(r, opts, ipv6HeaderLen+tcpHeaderLen, len(buf))
	}
	total := ipv6HeaderLen + tcpHeaderLen + payload
	if total > len(buf) {
		return Result{}, &BufferTooSmallError{Need: total, Got: len(buf)}
	}

	src := toV6Array(opts.SourceIP.To16())
	dst := toV6Array(target.IP.To16())

	tcpSeg := buf[ipv6HeaderLen : ipv6HeaderLen+tcpHeaderLen+payload]
	binary.BigEndian.PutUint16(tcpSeg[0:2], r.Port())
	binary.BigEndian.PutUint16(tcpSeg[2:4], port)
	binary.BigEndian.PutUint32(tcpSeg[4:8], r.Seq())
	binary.BigEndian.PutUint32(tcpSeg[8:12], 0)
	tcpSeg[12] = 5 << 4
	tcpSeg[13] = byte(tcpFlagSYN)
	binary.BigEndian.PutUint16(tcpSeg[14:16], r.Window())
	tcpSeg[16], tcpSeg[17] = 0, 0
	tcpSeg[18], tcpSeg[19] = 0, 0
	if payload > 0 {
		r.Fill(tcpSeg[tcpHeaderLen:])
	}

	writeIPv6Header(buf, src, dst, 6, tcpHeaderLen+payload, r)

	csum := tcpChecksumV6(src, dst, tcpSeg)
	binary.BigEndian.PutUint16(tcpSeg[16:18], csum)

	return Result{Size: total, Tag: domain.KindTCPv6.Tag()}, nil
}
