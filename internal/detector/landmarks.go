// Package detector provides hand detection interfaces and types for landmark streaming.
package detector

import "image"

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Point3D is a landmark in image space: X and Y in pixels from the top-left
// corner, Z in pixel units relative to the wrist (negative is toward the camera).
type Point3D struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

// Hand is one detected hand with its landmarks in detector order.
type Hand struct {
	Points     []Point3D `json:"points"`
	Handedness string    `json:"handedness"` // "Left" or "Right"
	Score      float64   `json:"score"`
}

// Bounds returns the smallest rectangle containing every landmark.
// A hand without landmarks has an empty rectangle.
func (h *Hand) Bounds() image.Rectangle {
	if h == nil || len(h.Points) == 0 {
		return image.Rectangle{}
	}

	minX, minY := h.Points[0].X, h.Points[0].Y
	maxX, maxY := minX, minY
	for _, p := range h.Points[1:] {
		minX = min(minX, p.X)
		minY = min(minY, p.Y)
		maxX = max(maxX, p.X)
		maxY = max(maxY, p.Y)
	}

	return image.Rect(minX, minY, maxX, maxY)
}

// swapHandedness exchanges "Left" and "Right". Labels are reported for an
// unmirrored camera; on a mirrored preview they read backwards.
func swapHandedness(label string) string {
	switch label {
	case "Left":
		return "Right"
	case "Right":
		return "Left"
	default:
		return label
	}
}
