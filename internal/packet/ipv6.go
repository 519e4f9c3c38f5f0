package packet

import (
	"encoding/binary"

	"github.com/packetgen/packetgen/internal/rng"
)

const ipv6HeaderLen = 40

// writeIPv6Header serializes a 40-byte IPv6 header into buf[0:40].
func writeIPv6Header(buf []byte, src, dst [16]byte, nextHeader uint8, payloadLen int, r *rng.Batched) {
	var first4 uint32
	first4 |= 6 << 28               // version
	first4 |= 0 << 20               // traffic class
	first4 |= r.FlowLabel() & 0xFFFFF // flow label, 20 bits
	binary.BigEndian.PutUint32(buf[0:4], first4)
	binary.BigEndian.PutUint16(buf[4:6], uint16(payloadLen))
	buf[6] = nextHeader
	buf[7] = 64 // hop limit
	copy(buf[8:24], src[:])
	copy(buf[24:40], dst[:])
}

func toV6Array(ip16 []byte) [16]byte {
	var a [16]byte
	copy(a[:], ip16)
	return a
}
