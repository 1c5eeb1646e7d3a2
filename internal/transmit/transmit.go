// Package transmit sends landmark packets to a consumer as UDP datagrams.
package transmit

import (
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/ayusman/handstream/internal/wire"
)

// DefaultAddr is where packets go unless configured otherwise.
const DefaultAddr = "127.0.0.1:12345"

// ErrClosed is returned by Send after Close.
var ErrClosed = errors.New("transmitter is closed")

// Conn is the part of a connected UDP socket the transmitter uses.
type Conn interface {
	Write(b []byte) (int, error)
	Close() error
	RemoteAddr() net.Addr
}

// Config holds the destination and encoding for outgoing packets.
type Config struct {
	Addr    string
	Codec   wire.Codec
	Session string
}

// Transmitter owns one long-lived UDP socket and writes one datagram per
// non-empty packet. There is no acknowledgment and no retry.
type Transmitter struct {
	conn    Conn
	codec   wire.Codec
	session string
	seq     uint64
	closed  bool
	mu      sync.Mutex
}

// Dial opens the UDP socket to config.Addr. UDP is connectionless, so this
// succeeds whether or not anything is listening.
func Dial(config Config) (*Transmitter, error) {
	addr := config.Addr
	if addr == "" {
		addr = DefaultAddr
	}

	raddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", addr, err)
	}

	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	return New(conn, config), nil
}

// New wraps an existing connection.
func New(conn Conn, config Config) *Transmitter {
	codec := config.Codec
	if codec == nil {
		codec = wire.ListCodec{}
	}
	return &Transmitter{
		conn:    conn,
		codec:   codec,
		session: config.Session,
	}
}

// Send encodes the packet and writes it as a single datagram. An empty
// packet is not sent and reports false. height is carried by codecs that
// describe the frame.
func (t *Transmitter) Send(p wire.Packet, height int) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return false, ErrClosed
	}
	if len(p) == 0 {
		return false, nil
	}

	data, err := t.codec.Encode(wire.Message{
		Session: t.session,
		Seq:     t.seq + 1,
		Height:  height,
		Coords:  p,
	})
	if err != nil {
		return false, err
	}

	if _, err := t.conn.Write(data); err != nil {
		return false, fmt.Errorf("send to %s: %w", t.conn.RemoteAddr(), err)
	}

	t.seq++
	return true, nil
}

// Sent returns how many datagrams were written. Sequence numbers of
// successive datagrams have no gaps.
func (t *Transmitter) Sent() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.seq
}

// Addr returns the destination address.
func (t *Transmitter) Addr() net.Addr {
	return t.conn.RemoteAddr()
}

// Close releases the socket. Calling it more than once is safe.
func (t *Transmitter) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true
	return t.conn.Close()
}
