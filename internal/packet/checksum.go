package packet

import "encoding/binary"

// checksumFold performs the standard one's-complement fold of a 32-bit
// accumulator down to 16 bits, per RFC 1071 — shared by every checksum
// below regardless of which pseudo-header fed it.
func checksumFold(sum uint32) uint16 {
	for sum>>16 != 0 {
		sum = (sum & 0xFFFF) + (sum >> 16)
	}
	return ^uint16(sum)
}

// sumBytes accumulates a byte slice as big-endian 16-bit words into an
// existing accumulator, handling an odd trailing byte per the standard
// algorithm (padded with a zero low byte).
func sumBytes(sum uint32, b []byte) uint32 {
	n := len(b)
	i := 0
	for ; i+1 < n; i += 2 {
		sum += uint32(binary.BigEndian.Uint16(b[i : i+2]))
	}
	if i < n {
		sum += uint32(b[i]) << 8
	}
	return sum
}

// ipv4HeaderChecksum computes the IPv4 header checksum over the header
// bytes with the checksum field itself treated as zero.
func ipv4HeaderChecksum(header []byte) uint16 {
	return checksumFold(sumBytes(0, header))
}

// pseudoHeaderV4 accumulates the IPv4 pseudo-header used by TCP/UDP/ICMP
// checksums: src, dst, zero, protocol, length.
func pseudoHeaderV4(sum uint32, src, dst [4]byte, protocol uint8, length uint16) uint32 {
	sum = sumBytes(sum, src[:])
	sum = sumBytes(sum, dst[:])
	sum += uint32(protocol)
	sum += uint32(length)
	return sum
}

// pseudoHeaderV6 accumulates the IPv6 pseudo-header used by TCP/UDP/ICMPv6
// checksums: src, dst, upper-layer length (32-bit), zero x3, next header.
// This is the "critical distinction" spec.md §4.4 calls out: ICMPv6 must use
// this pseudo-header, never the plain IPv4 ICMP checksum.
func pseudoHeaderV6(sum uint32, src, dst [16]byte, nextHeader uint8, length uint32) uint32 {
	sum = sumBytes(sum, src[:])
	sum = sumBytes(sum, dst[:])
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], length)
	sum = sumBytes(sum, lenBuf[:])
	sum += uint32(nextHeader)
	return sum
}

// udpChecksumV4 computes the UDP checksum over an IPv4 pseudo-header plus
// the UDP header+payload, with the checksum field in udpSeg treated as zero.
func udpChecksumV4(src, dst [4]byte, udpSeg []byte) uint16 {
	sum := pseudoHeaderV4(0, src, dst, 17, uint16(len(udpSeg)))
	sum = sumBytes(sum, udpSeg)
	return checksumFold(sum)
}

// tcpChecksumV4 computes the TCP checksum over an IPv4 pseudo-header plus
// the TCP segment, with the checksum field in tcpSeg treated as zero.
func tcpChecksumV4(src, dst [4]byte, tcpSeg []byte) uint16 {
	sum := pseudoHeaderV4(0, src, dst, 6, uint16(len(tcpSeg)))
	sum = sumBytes(sum, tcpSeg)
	return checksumFold(sum)
}

// icmpChecksumV4 computes the plain (pseudo-header-less) ICMP checksum.
func icmpChecksumV4(icmpSeg []byte) uint16 {
	return checksumFold(sumBytes(0, icmpSeg))
}

// udpChecksumV6 computes the UDP checksum over an IPv6 pseudo-header.
func udpChecksumV6(src, dst [16]byte, udpSeg []byte) uint16 {
	sum := pseudoHeaderV6(0, src, dst, 17, uint32(len(udpSeg)))
	sum = sumBytes(sum, udpSeg)
	return checksumFold(sum)
}

// tcpChecksumV6 computes the TCP checksum over an IPv6 pseudo-header.
func tcpChecksumV6(src, dst [16]byte, tcpSeg []byte) uint16 {
	sum := pseudoHeaderV6(0, src, dst, 6, uint32(len(tcpSeg)))
	sum = sumBytes(sum, tcpSeg)
	return checksumFold(sum)
}

// icmpv6Checksum computes the ICMPv6 checksum over an IPv6 pseudo-header —
// never the plain IPv4-style ICMP checksum.
func icmpv6Checksum(src, dst [16]byte, icmpSeg []byte) uint16 {
	sum := pseudoHeaderV6(0, src, dst, 58, uint32(len(icmpSeg)))
	sum = sumBytes(sum, icmpSeg)
	return checksumFold(sum)
}
