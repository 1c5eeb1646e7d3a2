package transmit

import (
	"net"
	"sync"
)

// MockConn implements Conn for testing by recording every datagram.
type MockConn struct {
	// WriteError is returned by every Write if set.
	WriteError error
	// Remote is returned by RemoteAddr.
	Remote *net.UDPAddr

	writes [][]byte
	closed bool
	mu     sync.Mutex
}

// NewMockConn creates a MockConn addressed to the default destination.
func NewMockConn() *MockConn {
	return &MockConn{
		Remote: &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 12345},
	}
}

// Write records a copy of b.
func (m *MockConn) Write(b []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, net.ErrClosed
	}
	if m.WriteError != nil {
		return 0, m.WriteError
	}
	m.writes = append(m.writes, append([]byte(nil), b...))
	return len(b), nil
}

// Close marks the connection closed.
func (m *MockConn) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// RemoteAddr returns Remote.
func (m *MockConn) RemoteAddr() net.Addr {
	return m.Remote
}

// Writes returns the recorded datagrams.
func (m *MockConn) Writes() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte(nil), m.writes...)
}

// Closed reports whether Close was called.
func (m *MockConn) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
