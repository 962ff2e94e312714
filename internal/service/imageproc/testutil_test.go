package imageproc

import (
	"image"
	"image/color"
)

func uniformImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// halfAndHalf is black on the left half and white on the right half.
func halfAndHalf(w, h int) *image.NRGBA {
	img := uniformImage(w, h, color.NRGBA{0, 0, 0, 255})
	for y := 0; y < h; y++ {
		for x := w / 2; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{255, 255, 255, 255})
		}
	}
	return img
}
