package packet

import (
	"encoding/binary"

	"github.com/packetgen/packetgen/internal/domain"
	"github.com/packetgen/packetgen/internal/rng"
)

const tcpHeaderLen = 20

type tcpFlags uint8

const (
	tcpFlagSYN tcpFlags = 0x02
	tcpFlagACK tcpFlags = 0x10
)

// tcpV4 builds both TCPv4-SYN and TCPv4-ACK — they share every byte of
// layout and differ only in the flags byte and which of seq/ack is the
// "interesting" randomized field, so spec.md counts them as one strategy
// serving two PacketKind values.
type tcpV4 struct {
	flags tcpFlags
}

func (s tcpV4) kind() domain.PacketKind {
	if s.flags == tcpFlagSYN {
		return domain.KindTCPv4SYN
	}
	return domain.KindTCPv4ACK
}

func (s tcpV4) MinSize() int { return s.kind().MinSize() }

func (tcpV4) CompatibleWith(f domain.Family) bool { return f == domain.FamilyV4 }

func (s tcpV4) BuildInto(buf []byte, target *domain.Target, port uint16, r *rng.Batched, opts BuildOptions) (Result, error) {
	if !s.CompatibleWith(target.Family) {
		return Result{}, &FamilyMismatchError{Kind: s.kind().Tag(), Family: target.Family.String()}
	}
	if len(buf) < s.MinSize() {
		return Result{}, &BufferTooSmallError{Need: s.MinSize(), Got: len(buf)}
	}

	payload := 0
	if opts.MaxPayload > 0 {
		payload = payloadSize(r, opts, ipv4HeaderLen+tcpHeaderLen, len(buf))
	}
	total := ipv4HeaderLen + tcpHeaderLen + payload
	if total > len(buf) {
		return Result{}, &BufferTooSmallError{Need: total, Got: len(buf)}
	}

	src := toV4Array(opts.SourceIP.To4())
	dst := toV4Array(target.IP.To4())

	tcpSeg := buf[ipv4HeaderLen : ipv4HeaderLen+tcpHeaderLen+payload]
	binary.BigEndian.PutUint16(tcpSeg[0:2], r.Port())
	binary.BigEndian.PutUint16(tcpSeg[2:4], port)
	binary.BigEndian.PutUint32(tcpSeg[4:8], r.Seq())
	if s.flags == tcpFlagACK {
		binary.BigEndian.PutUint32(tcpSeg[8:12], r.Ack())
	} else {
		binary.BigEndian.PutUint32(tcpSeg[8:12], 0)
	}
	tcpSeg[12] = 5 << 4 // data offset, no options
	tcpSeg[13] = byte(s.flags)
	binary.BigEndian.PutUint16(tcpSeg[14:16], r.Window())
	tcpSeg[16], tcpSeg[17] = 0, 0 // checksum, filled below
	tcpSeg[18], tcpSeg[19] = 0, 0 // urgent pointer
	if payload > 0 {
		r.Fill(tcpSeg[tcpHeaderLen:])
	}

	writeIPv4Header(buf, src, dst, 6, tcpHeaderLen+payload, r)

	csum := tcpChecksumV4(src, dst, tcpSeg)
	binary.BigEndian.PutUint16(tcpSeg[16:18], csum)

	return Result{Size: total, Tag: s.kind().Tag()}, nil
}
