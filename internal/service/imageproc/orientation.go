package imageproc

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Normalize rotates img clockwise by angleDegrees about its centre. The result
// is sized to the rotated bounding box; corners not covered by the source
// (non-right angles only) are opaque black.
func Normalize(img image.Image, angleDegrees float64) *image.NRGBA {
	// imaging rotates counter-clockwise.
	return imaging.Rotate(img, -angleDegrees, color.Black)
}
