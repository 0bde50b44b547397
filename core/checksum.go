package core

// checksum computes the Internet checksum (RFC 1071) over buf: the 16-bit
// ones'-complement sum of all 16-bit words, complemented. An odd trailing
// byte is treated as the high byte of a final word. The result is in host
// order; callers decide how it goes on the wire.
//
// The ICMP checksum field of buf must be zero when computing the value to
// be inserted there.
func checksum(buf []byte) uint16 {
	var sum uint32

	for i := 0; i+1 < len(buf); i += 2 {
		sum += uint32(buf[i])<<8 | uint32(buf[i+1])
	}

	if len(buf)%2 == 1 {
		sum += uint32(buf[len(buf)-1]) << 8
	}

	// fold end-around carries, two passes are enough for any input
	for sum > 0xffff {
		sum = (sum >> 16) + (sum & 0xffff)
	}

	return ^uint16(sum)
}

// verifyChecksum reports whether buf, with its checksum field in place,
// sums to 0xffff as a correctly checksummed buffer must.
func verifyChecksum(buf []byte) bool {
	var sum uint32

	for i := 0; i+1 < len(buf); i += 2 {
		sum += uint32(buf[i])<<8 | uint32(buf[i+1])
	}

	if len(buf)%2 == 1 {
		sum += uint32(buf[len(buf)-1]) << 8
	}

	for sum > 0xffff {
		sum = (sum >> 16) + (sum & 0xffff)
	}

	return uint16(sum) == 0xffff
}
