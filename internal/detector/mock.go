package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	hands  []Hand
	err    error
	calls  int
	closed bool
	mu     sync.Mutex
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []Hand) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]Hand, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.hands, nil
}

// Calls returns how many times Detect has been called.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Close marks the detector closed.
func (m *MockDetector) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *MockDetector) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// OpenPalmHand returns a right hand with all fingers extended, placed in
// the middle of a 1200x720 frame.
func OpenPalmHand() Hand {
	points := make([]Point3D, NumLandmarks)

	points[Wrist] = Point3D{X: 600, Y: 576, Z: 0}

	points[ThumbCMC] = Point3D{X: 660, Y: 540, Z: -12}
	points[ThumbMCP] = Point3D{X: 744, Y: 504, Z: -18}
	points[ThumbIP] = Point3D{X: 816, Y: 468, Z: -21}
	points[ThumbTip] = Point3D{X: 876, Y: 432, Z: -24}

	points[IndexMCP] = Point3D{X: 660, Y: 489, Z: -6}
	points[IndexPIP] = Point3D{X: 684, Y: 396, Z: -10}
	points[IndexDIP] = Point3D{X: 696, Y: 324, Z: -14}
	points[IndexTip] = Point3D{X: 696, Y: 252, Z: -17}

	points[MiddleMCP] = Point3D{X: 600, Y: 475, Z: -5}
	points[MiddlePIP] = Point3D{X: 600, Y: 374, Z: -9}
	points[MiddleDIP] = Point3D{X: 600, Y: 288, Z: -13}
	points[MiddleTip] = Point3D{X: 600, Y: 201, Z: -16}

	points[RingMCP] = Point3D{X: 540, Y: 489, Z: -6}
	points[RingPIP] = Point3D{X: 516, Y: 396, Z: -10}
	points[RingDIP] = Point3D{X: 504, Y: 324, Z: -13}
	points[RingTip] = Point3D{X: 504, Y: 252, Z: -15}

	points[PinkyMCP] = Point3D{X: 480, Y: 504, Z: -7}
	points[PinkyPIP] = Point3D{X: 444, Y: 432, Z: -10}
	points[PinkyDIP] = Point3D{X: 420, Y: 360, Z: -12}
	points[PinkyTip] = Point3D{X: 408, Y: 302, Z: -13}

	return Hand{
		Points:     points,
		Handedness: "Right",
		Score:      0.95,
	}
}
