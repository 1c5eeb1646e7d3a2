package detector

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// Connections lists the landmark pairs drawn as the hand skeleton.
var Connections = [][2]int{
	{Wrist, ThumbCMC}, {ThumbCMC, ThumbMCP}, {ThumbMCP, ThumbIP}, {ThumbIP, ThumbTip},
	{Wrist, IndexMCP}, {IndexMCP, IndexPIP}, {IndexPIP, IndexDIP}, {IndexDIP, IndexTip},
	{IndexMCP, MiddleMCP}, {MiddleMCP, MiddlePIP}, {MiddlePIP, MiddleDIP}, {MiddleDIP, MiddleTip},
	{MiddleMCP, RingMCP}, {RingMCP, RingPIP}, {RingPIP, RingDIP}, {RingDIP, RingTip},
	{RingMCP, PinkyMCP}, {Wrist, PinkyMCP}, {PinkyMCP, PinkyPIP}, {PinkyPIP, PinkyDIP}, {PinkyDIP, PinkyTip},
}

// bboxPadding is the margin in pixels around the drawn bounding box.
const bboxPadding = 20

var (
	pointColor = color.RGBA{R: 255, G: 0, B: 255, A: 0}
	lineColor  = color.RGBA{R: 255, G: 255, B: 255, A: 0}
	boxColor   = color.RGBA{R: 255, G: 0, B: 255, A: 0}
)

// Annotate draws each hand's skeleton, bounding box and handedness label
// onto frame in place.
func Annotate(frame *gocv.Mat, hands []Hand) {
	if frame == nil || frame.Empty() {
		return
	}

	for i := range hands {
		hand := &hands[i]

		for _, c := range Connections {
			if c[0] >= len(hand.Points) || c[1] >= len(hand.Points) {
				continue
			}
			gocv.Line(frame, toImagePoint(hand.Points[c[0]]), toImagePoint(hand.Points[c[1]]), lineColor, 2)
		}

		for _, p := range hand.Points {
			gocv.Circle(frame, toImagePoint(p), 5, pointColor, -1)
		}

		if len(hand.Points) == 0 {
			continue
		}

		box := hand.Bounds().Inset(-bboxPadding)
		gocv.Rectangle(frame, box, boxColor, 2)

		if hand.Handedness != "" {
			gocv.PutText(frame, hand.Handedness, image.Pt(box.Min.X, box.Min.Y-10),
				gocv.FontHersheyPlain, 2, boxColor, 2)
		}
	}
}

func toImagePoint(p Point3D) image.Point {
	return image.Pt(p.X, p.Y)
}
