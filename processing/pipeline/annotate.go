package pipeline

import (
	"image"
	"image/color"
	"image/draw"

	"swapstudio/internal/models"
)

var (
	faceColor      = color.RGBA{0, 255, 0, 255}
	referenceColor = color.RGBA{255, 48, 48, 255}
)

// Annotate returns a copy of img with a box around every face. The face at
// index highlight is drawn in the reference colour.
func Annotate(img image.Image, faces []models.Face, highlight int) *image.RGBA {
	bounds := img.Bounds()
	out := image.NewRGBA(bounds)
	draw.Draw(out, bounds, img, bounds.Min, draw.Src)

	for i, face := range faces {
		box, ok := face.Scale(bounds.Dx(), bounds.Dy())
		if !ok {
			continue
		}

		col := faceColor
		if i == highlight {
			col = referenceColor
		}

		drawRect(out, box.Y1+bounds.Min.Y, box.X1+bounds.Min.X, box.Y2+bounds.Min.Y, box.X2+bounds.Min.X, col)
	}

	return out
}

func drawRect(img *image.RGBA, y1, x1, y2, x2 int, col color.Color) {
	thickness := 3
	bounds := img.Bounds()

	setPixel := func(x, y int) {
		if x >= bounds.Min.X && x < bounds.Max.X && y >= bounds.Min.Y && y < bounds.Max.Y {
			img.Set(x, y, col)
		}
	}

	for t := 0; t < thickness; t++ {
		for x := x1; x <= x2; x++ {
			setPixel(x, y1+t)
			setPixel(x, y2-t)
		}
		for y := y1; y <= y2; y++ {
			setPixel(x1+t, y)
			setPixel(x2-t, y)
		}
	}
}
