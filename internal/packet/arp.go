package packet

import (
	"encoding/binary"

	"github.com/packetgen/packetgen/internal/domain"
	"github.com/packetgen/packetgen/internal/rng"
)

const (
	ethernetHeaderLen = 14
	arpPayloadLen     = 28
)

var ethBroadcast = [6]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

type arp struct{}

func (arp) MinSize() int { return domain.KindARP.MinSize() }

// CompatibleWith always reports false here: ARP's availability is gated on
// L2-channel presence (CompatibleWithL2), not on IP family, so callers
// should check domain.KindARP.CompatibleWithL2 rather than this method.
func (arp) CompatibleWith(domain.Family) bool { return false }

// BuildInto ignores port, per spec.md §4.4.
func (arp) BuildInto(buf []byte, target *domain.Target, _ uint16, r *rng.Batched, opts BuildOptions) (Result, error) {
	need := ethernetHeaderLen + arpPayloadLen
	if len(buf) < need {
		return Result{}, &BufferTooSmallError{Need: need, Got: len(buf)}
	}
	targetV4 := target.IP.To4()
	if targetV4 == nil {
		return Result{}, &FamilyMismatchError{Kind: "ARP", Family: target.Family.String()}
	}

	// Ethernet header: broadcast destination, randomized sender MAC, ARP ethertype.
	copy(buf[0:6], ethBroadcast[:])
	var senderMAC [6]byte
	senderMAC[0] = (r.Byte() & 0xFE) | 0x02 // locally administered, unicast
	for i := 1; i < 6; i++ {
		senderMAC[i] = r.Byte()
	}
	copy(buf[6:12], senderMAC[:])
	binary.BigEndian.PutUint16(buf[12:14], 0x0806) // ARP

	arpSeg := buf[ethernetHeaderLen : ethernetHeaderLen+arpPayloadLen]
	binary.BigEndian.PutUint16(arpSeg[0:2], 1)      // HTYPE: Ethernet
	binary.BigEndian.PutUint16(arpSeg[2:4], 0x0800) // PTYPE: IPv4
	arpSeg[4] = 6                                   // HLEN
	arpSeg[5] = 4                                   // PLEN
	binary.BigEndian.PutUint16(arpSeg[6:8], 1)      // OPER: request
	copy(arpSeg[8:14], senderMAC[:])                // SHA

	var senderIP [4]byte
	r.Fill(senderIP[:])
	copy(arpSeg[14:18], senderIP[:]) // SPA

	copy(arpSeg[18:24], []byte{0, 0, 0, 0, 0, 0}) // THA: unknown, per spec "target MAC=00:…"
	copy(arpSeg[24:28], targetV4)                 // TPA

	return Result{Size: need, Tag: domain.KindARP.Tag()}, nil
}
