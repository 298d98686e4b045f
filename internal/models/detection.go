package models

import "image"

// Face is a single face found by the inference service. Box holds normalized
// coordinates in the order y1, x1, y2, x2.
type Face struct {
	Score float32   `json:"score"`
	Box   []float32 `json:"box"`
}

type Box struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Scale converts the normalized box to pixel coordinates for an image of the
// given size. A malformed box yields the zero Box and false.
func (f Face) Scale(width, height int) (Box, bool) {
	if len(f.Box) < 4 {
		return Box{}, false
	}

	w := float32(width)
	h := float32(height)

	return Box{
		Y1: int(f.Box[0] * h),
		X1: int(f.Box[1] * w),
		Y2: int(f.Box[2] * h),
		X2: int(f.Box[3] * w),
	}, true
}

func (b Box) Rect() image.Rectangle {
	return image.Rect(b.X1, b.Y1, b.X2, b.Y2)
}
