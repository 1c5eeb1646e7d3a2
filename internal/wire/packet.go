// Package wire turns detected hands into the flat coordinate packets sent
// to consumers, and encodes and decodes them.
package wire

import (
	"errors"

	"github.com/ayusman/handstream/internal/detector"
)

// ErrMalformed is returned when a payload cannot be decoded into a packet.
var ErrMalformed = errors.New("malformed packet")

// Packet is a flat coordinate sequence: x, flipped y, z for every landmark
// of every hand, in detection order. Its length is always a multiple of 3.
type Packet []int

// Points returns the number of landmarks in the packet.
func (p Packet) Points() int {
	return len(p) / 3
}

// Flatten builds the packet for one frame. Y is remapped from the image's
// top-left origin to a bottom-left origin by subtracting it from height.
// No hands yields an empty packet.
func Flatten(hands []detector.Hand, height int) Packet {
	n := 0
	for i := range hands {
		n += len(hands[i].Points)
	}
	if n == 0 {
		return nil
	}

	packet := make(Packet, 0, 3*n)
	for i := range hands {
		for _, lm := range hands[i].Points {
			packet = append(packet, lm.X, height-lm.Y, lm.Z)
		}
	}
	return packet
}

// Split groups a packet's coordinates into hands of perHand landmarks.
// A trailing partial hand is kept. Coordinates are returned as received,
// so Y is still in the bottom-left-origin space.
func Split(p Packet, perHand int) [][]detector.Point3D {
	if perHand <= 0 {
		perHand = detector.NumLandmarks
	}

	var hands [][]detector.Point3D
	var current []detector.Point3D
	for i := 0; i+2 < len(p); i += 3 {
		current = append(current, detector.Point3D{X: p[i], Y: p[i+1], Z: p[i+2]})
		if len(current) == perHand {
			hands = append(hands, current)
			current = nil
		}
	}
	if len(current) > 0 {
		hands = append(hands, current)
	}
	return hands
}
