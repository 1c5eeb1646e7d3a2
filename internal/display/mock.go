package display

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// MockDisplay records shown frame sizes and replays scripted key presses.
type MockDisplay struct {
	keys   []int
	shown  []image.Point
	polls  int
	closed bool
	mu     sync.Mutex
}

// NewMockDisplay returns a display that answers successive PollKey calls
// with keys, then NoKey forever.
func NewMockDisplay(keys ...int) *MockDisplay {
	return &MockDisplay{keys: keys}
}

// Show records the frame size.
func (m *MockDisplay) Show(frame gocv.Mat) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shown = append(m.shown, image.Pt(frame.Cols(), frame.Rows()))
	return nil
}

// PollKey returns the next scripted key.
func (m *MockDisplay) PollKey(delayMs int) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.polls++
	if len(m.keys) == 0 {
		return NoKey
	}
	key := m.keys[0]
	m.keys = m.keys[1:]
	return key
}

// Close marks the display closed.
func (m *MockDisplay) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Shown returns the sizes of every shown frame.
func (m *MockDisplay) Shown() []image.Point {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]image.Point(nil), m.shown...)
}

// Polls returns how many times PollKey was called.
func (m *MockDisplay) Polls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.polls
}

// Closed reports whether Close was called.
func (m *MockDisplay) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
