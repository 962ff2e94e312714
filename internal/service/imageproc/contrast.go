package imageproc

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
	"gonum.org/v1/gonum/stat"

	"phototriage/internal/apperror"
)

// maxChannelSum is the largest r+g+b of an 8-bit pixel.
const maxChannelSum = 3 * 255

// Contrast returns the population standard deviation of per-pixel brightness,
// where brightness is the unweighted mean (r+g+b)/3 of the 8-bit
// non-premultiplied channels. Alpha is ignored.
func Contrast(img image.Image) (float64, error) {
	if img == nil || img.Bounds().Empty() {
		return 0, apperror.NewInvalidImage("image has no pixels", nil)
	}

	src := imaging.Clone(img)

	// Histogram of r+g+b; each bin is weighted by its pixel count.
	counts := make([]float64, maxChannelSum+1)
	for i := 0; i+2 < len(src.Pix); i += 4 {
		sum := int(src.Pix[i]) + int(src.Pix[i+1]) + int(src.Pix[i+2])
		counts[sum]++
	}

	sums := make([]float64, len(counts))
	for i := range sums {
		sums[i] = float64(i)
	}

	_, std := stat.PopMeanStdDev(sums, counts)
	if math.IsNaN(std) || std < 0 {
		return 0, nil
	}
	return std / 3.0, nil
}
