package packet

import (
	"encoding/binary"

	"github.com/packetgen/packetgen/internal/domain"
	"github.com/packetgen/packetgen/internal/rng"
)

const icmpEchoHeaderLen = 8

type icmpV4 struct{}

func (icmpV4) MinSize() int { return domain.KindICMPv4.MinSize() }

func (icmpV4) CompatibleWith(f domain.Family) bool { return f == domain.FamilyV4 }

// BuildInto ignores port, per spec.md §4.4 ("target port, ignored for
// ICMP/ARP").
func (s icmpV4) BuildInto(buf []byte, target *domain.Target, _ uint16, r *rng.Batched, opts BuildOptions) (Result, error) {
	if !s.CompatibleWith(target.Family) {
		return Result{}, &FamilyMismatchError{Kind: "ICMPv4", Family: target.Family.String()}
	}
	if len(buf) < s.MinSize() {
		return Result{}, &BufferTooSmallError{Need: s.MinSize(), Got: len(buf)}
	}

	payload := payloadSize(r, opts, ipv4HeaderLen+icmpEchoHeaderLen, len(buf))
	total := ipv4HeaderLen + icmpEchoHeaderLen + payload
	if total > len(buf) {
		return Result{}, &BufferTooSmallError{Need: total, Got: len(buf)}
	}

	src := toV4Array(opts.SourceIP.To4())
	dst := toV4Array(target.IP.To4())

	icmpSeg := buf[ipv4HeaderLen : ipv4HeaderLen+icmpEchoHeaderLen+payload]
	icmpSeg[0] = 8 // echo request
	icmpSeg[1] = 0 // code
	icmpSeg[2], icmpSeg[3] = 0, 0
	binary.BigEndian.PutUint16(icmpSeg[4:6], uint16(r.ID()))
	binary.BigEndian.PutUint16(icmpSeg[6:8], uint16(r.Seq()))
	if payload > 0 {
		r.Fill(icmpSeg[icmpEchoHeaderLen:])
	}

	writeIPv4Header(buf, src, dst, 1, icmpEchoHeaderLen+payload, r)

	csum := icmpChecksumV4(icmpSeg)
	binary.BigEndian.PutUint16(icmpSeg[2:4], csum)

	return Result{Size: total, Tag: domain.KindICMPv4.Tag()}, nil
}
