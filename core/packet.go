package core

import (
	"encoding/binary"
	"errors"

	"golang.org/x/net/ipv4"
)

const (
	// packetLen is the length of an echo packet on the wire:
	// type, code, checksum, id, seq and an 8-byte timestamp payload.
	packetLen = 16

	echoCode = 0

	// offsets into the 16-byte packet
	typeOff     = 0
	codeOff     = 1
	checksumOff = 2
	idOff       = 4
	seqOff      = 6
	tstpOff     = 8

	// ttlOff is the offset of the TTL byte within the IPv4 header.
	ttlOff = 8

	// mtu bounds the size of a received datagram.
	mtu = 1500
)

var (
	errTruncated    = errors.New("datagram too short for an echo reply")
	errNotEchoReply = errors.New("not an echo reply")
	errBadChecksum  = errors.New("checksum mismatch")
)

// EchoRequest is an echo request about to be sent. The checksum is never
// supplied by the caller, it is computed during marshaling.
type EchoRequest struct {
	ID        uint16
	Seq       uint16
	Timestamp uint64
}

// EchoReply is a parsed and validated incoming echo reply.
type EchoReply struct {
	Type      uint8
	Code      uint8
	Checksum  uint16
	ID        uint16
	Seq       uint16
	Timestamp uint64
}

// Marshal serializes the request into its 16-byte wire form with the
// checksum filled in. Fields are written at fixed offsets so the result
// never depends on in-memory struct layout. The timestamp is an opaque
// payload echoed back verbatim by the peer; little-endian is a local
// convention, not part of the wire contract.
func (r *EchoRequest) Marshal() []byte {
	buf := make([]byte, packetLen)

	buf[typeOff] = byte(ipv4.ICMPTypeEcho)
	buf[codeOff] = echoCode
	// checksum stays zero while it is being computed
	binary.BigEndian.PutUint16(buf[idOff:], r.ID)
	binary.BigEndian.PutUint16(buf[seqOff:], r.Seq)
	binary.LittleEndian.PutUint64(buf[tstpOff:], r.Timestamp)

	binary.BigEndian.PutUint16(buf[checksumOff:], checksum(buf))

	return buf
}

// ParseEchoReply interprets buf as the ICMP portion of a received datagram
// and validates it. It rejects short buffers, messages that are not echo
// replies (other ICMP types are not this client's business) and corrupted
// packets whose checksum does not hold.
func ParseEchoReply(buf []byte) (*EchoReply, error) {
	if len(buf) < packetLen {
		return nil, errTruncated
	}

	reply := &EchoReply{
		Type: buf[typeOff],
		Code: buf[codeOff],
	}

	if reply.Type != byte(ipv4.ICMPTypeEchoReply) || reply.Code != echoCode {
		return nil, errNotEchoReply
	}

	if !verifyChecksum(buf) {
		return nil, errBadChecksum
	}

	reply.Checksum = binary.BigEndian.Uint16(buf[checksumOff:])
	reply.ID = binary.BigEndian.Uint16(buf[idOff:])
	reply.Seq = binary.BigEndian.Uint16(buf[seqOff:])
	reply.Timestamp = binary.LittleEndian.Uint64(buf[tstpOff:])

	return reply, nil
}

// parseDatagram strips the IPv4 header off a raw datagram and parses the
// rest as an echo reply, also returning the TTL carried by the header.
// The header is assumed to be the fixed 20 bytes; IP options are not
// supported.
func parseDatagram(dgram []byte) (*EchoReply, int, error) {
	if len(dgram) < ipv4.HeaderLen+packetLen {
		return nil, 0, errTruncated
	}

	reply, err := ParseEchoReply(dgram[ipv4.HeaderLen:])
	if err != nil {
		return nil, 0, err
	}

	return reply, int(dgram[ttlOff]), nil
}
