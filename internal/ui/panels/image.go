// Package panels implements the sections of the main window. Every panel
// builds its widgets in Render and wires them in Listen.
package panels

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	_ "golang.org/x/image/webp"
)

var previewSize = fyne.NewSize(320, 240)

func newImage(size fyne.Size) *canvas.Image {
	img := canvas.NewImageFromImage(nil)
	img.FillMode = canvas.ImageFillContain
	img.SetMinSize(size)
	return img
}

func showFile(img *canvas.Image, path string) {
	img.Image = nil
	img.File = path
	img.Refresh()
	img.Show()
}

func showImage(img *canvas.Image, src image.Image) {
	img.File = ""
	img.Image = src
	img.Refresh()
	img.Show()
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}
