package core

import (
	"errors"
	"fmt"
	"net"
	"time"

	"golang.org/x/sys/unix"
)

// ErrReadTimeout is returned by PacketConn.Read when no datagram arrived
// within the receive deadline. The session's poll loop treats it as an
// invitation to check for a finish request and try again.
var ErrReadTimeout = errors.New("read timed out")

// PacketConn is the raw socket the session exchanges ICMP datagrams on.
// Read returns one full IP datagram, header included. It exists as an
// interface so tests can drive the session without privileges.
type PacketConn interface {
	WriteTo(b []byte, dst net.IP) error
	Read(b []byte) (int, error)
	Close() error
}

// rawConn is the production PacketConn: a SOCK_RAW/IPPROTO_ICMP socket.
// The kernel delivers every ICMP datagram on the host to it, so callers
// must expect traffic that is not theirs.
type rawConn struct {
	fd int
}

// newRawConn opens a raw ICMP socket with the given outgoing TTL and a
// short receive timeout so reads poll rather than block forever.
func newRawConn(ttl int) (*rawConn, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_RAW, unix.IPPROTO_ICMP)
	if err != nil {
		return nil, fmt.Errorf("could not open raw ICMP socket: %w", err)
	}

	if err := unix.SetsockoptInt(fd, unix.IPPROTO_IP, unix.IP_TTL, ttl); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("could not set TTL to %d: %w", ttl, err)
	}

	tv := unix.NsecToTimeval(int64(200 * time.Millisecond))
	if err := unix.SetsockoptTimeval(fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("could not set receive timeout: %w", err)
	}

	return &rawConn{fd: fd}, nil
}

func (c *rawConn) WriteTo(b []byte, dst net.IP) error {
	ip4 := dst.To4()
	if ip4 == nil {
		return fmt.Errorf("destination %s is not an IPv4 address", dst)
	}

	sa := &unix.SockaddrInet4{}
	copy(sa.Addr[:], ip4)

	if err := unix.Sendto(c.fd, b, 0, sa); err != nil {
		return fmt.Errorf("sendto %s: %w", dst, err)
	}
	return nil
}

func (c *rawConn) Read(b []byte) (int, error) {
	n, _, err := unix.Recvfrom(c.fd, b, 0)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK || err == unix.EINTR {
			return 0, ErrReadTimeout
		}
		return 0, fmt.Errorf("recvfrom: %w", err)
	}
	return n, nil
}

func (c *rawConn) Close() error {
	return unix.Close(c.fd)
}
