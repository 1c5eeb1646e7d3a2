package wire

import (
	"testing"

	"github.com/ayusman/handstream/internal/detector"
	"github.com/google/go-cmp/cmp"
)

func TestFlatten(t *testing.T) {
	tests := []struct {
		name   string
		hands  []detector.Hand
		height int
		want   Packet
	}{
		{
			name: "single hand flips y",
			hands: []detector.Hand{{Points: []detector.Point3D{
				{X: 100, Y: 50, Z: 0},
				{X: 110, Y: 60, Z: -5},
			}}},
			height: 720,
			want:   Packet{100, 670, 0, 110, 660, -5},
		},
		{
			name: "hand order then landmark order",
			hands: []detector.Hand{
				{Points: []detector.Point3D{{X: 1, Y: 2, Z: 3}}},
				{Points: []detector.Point3D{{X: 4, Y: 5, Z: 6}, {X: 7, Y: 8, Z: 9}}},
			},
			height: 10,
			want:   Packet{1, 8, 3, 4, 5, 6, 7, 2, 9},
		},
		{
			name:   "no hands",
			hands:  nil,
			height: 720,
			want:   nil,
		},
		{
			name:   "hands without landmarks",
			hands:  []detector.Hand{{}, {}},
			height: 720,
			want:   nil,
		},
		{
			name:   "y below the frame goes negative",
			hands:  []detector.Hand{{Points: []detector.Point3D{{X: 0, Y: 730, Z: 0}}}},
			height: 720,
			want:   Packet{0, -10, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Flatten(tt.hands, tt.height)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Flatten() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFlatten_LengthAndFlip(t *testing.T) {
	hands := []detector.Hand{detector.OpenPalmHand(), detector.OpenPalmHand()}
	const height = 720

	got := Flatten(hands, height)

	if len(got) != 3*2*detector.NumLandmarks {
		t.Fatalf("len = %d, want %d", len(got), 3*2*detector.NumLandmarks)
	}
	if len(got)%3 != 0 {
		t.Errorf("len %d is not a multiple of 3", len(got))
	}
	if got.Points() != 2*detector.NumLandmarks {
		t.Errorf("Points() = %d, want %d", got.Points(), 2*detector.NumLandmarks)
	}

	for i, h := range hands {
		for j, lm := range h.Points {
			base := 3 * (i*detector.NumLandmarks + j)
			if got[base] != lm.X || got[base+1] != height-lm.Y || got[base+2] != lm.Z {
				t.Fatalf("hand %d landmark %d = %v, want (%d, %d, %d)",
					i, j, got[base:base+3], lm.X, height-lm.Y, lm.Z)
			}
		}
	}
}

func TestSplit(t *testing.T) {
	t.Run("groups by hand", func(t *testing.T) {
		p := Packet{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
		got := Split(p, 2)
		want := [][]detector.Point3D{
			{{X: 1, Y: 2, Z: 3}, {X: 4, Y: 5, Z: 6}},
			{{X: 7, Y: 8, Z: 9}, {X: 10, Y: 11, Z: 12}},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Split() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("keeps trailing partial hand", func(t *testing.T) {
		got := Split(Packet{1, 2, 3, 4, 5, 6, 7, 8, 9}, 2)
		if len(got) != 2 || len(got[1]) != 1 {
			t.Errorf("Split() = %v, want 2 hands with 2 and 1 points", got)
		}
	})

	t.Run("defaults to 21 per hand", func(t *testing.T) {
		p := Flatten([]detector.Hand{detector.OpenPalmHand(), detector.OpenPalmHand()}, 720)
		got := Split(p, 0)
		if len(got) != 2 {
			t.Fatalf("Split() returned %d hands, want 2", len(got))
		}
		if len(got[0]) != detector.NumLandmarks {
			t.Errorf("first hand has %d points, want %d", len(got[0]), detector.NumLandmarks)
		}
	})

	t.Run("empty packet", func(t *testing.T) {
		if got := Split(nil, 21); got != nil {
			t.Errorf("Split(nil) = %v, want nil", got)
		}
	})
}
