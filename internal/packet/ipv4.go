package packet

import (
	"encoding/binary"

	"github.com/packetgen/packetgen/internal/rng"
)

const ipv4HeaderLen = 20

// writeIPv4Header serializes a 20-byte IPv4 header (no options) into
// buf[0:20], network byte order, with the checksum computed over the
// header once every other field is in place. IHL=5, as spec.md requires.
func writeIPv4Header(buf []byte, src, dst [4]byte, protocol uint8, payloadLen int, r *rng.Batched) {
	total := ipv4HeaderLen + payloadLen
	buf[0] = 0x45 // version 4, IHL 5 (no options)
	buf[1] = 0    // DSCP/ECN
	binary.BigEndian.PutUint16(buf[2:4], uint16(total))
	binary.BigEndian.PutUint16(buf[4:6], r.ID())
	binary.BigEndian.PutUint16(buf[6:8], 0x4000) // don't-fragment, no offset
	buf[8] = r.TTL()
	buf[9] = protocol
	buf[10] = 0
	buf[11] = 0 // checksum, filled below
	copy(buf[12:16], src[:])
	copy(buf[16:20], dst[:])

	csum := ipv4HeaderChecksum(buf[:ipv4HeaderLen])
	binary.BigEndian.PutUint16(buf[10:12], csum)
}

func toV4Array(ip4 []byte) [4]byte {
	var a [4]byte
	copy(a[:], ip4)
	return a
}
