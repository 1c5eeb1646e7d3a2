package capture

import (
	"image"

	"gocv.io/x/gocv"
)

// Mirror flips the frame around its vertical axis in place, so the preview
// behaves like a mirror for the person in front of the camera.
func Mirror(frame *gocv.Mat) {
	if frame == nil || frame.Empty() {
		return
	}
	gocv.Flip(*frame, frame, 1)
}

// Scale returns a new Mat resized by factor in both dimensions.
// The caller must close the result.
func Scale(frame gocv.Mat, factor float64) gocv.Mat {
	dst := gocv.NewMat()
	if frame.Empty() || factor <= 0 {
		frame.CopyTo(&dst)
		return dst
	}
	gocv.Resize(frame, &dst, image.Point{}, factor, factor, gocv.InterpolationLinear)
	return dst
}
