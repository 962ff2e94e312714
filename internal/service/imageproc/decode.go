package imageproc

import (
	"image"
	"os"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"phototriage/internal/apperror"
)

// Load decodes the image file at path. Orientation metadata is ignored;
// rotation is applied explicitly by Normalize.
func Load(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperror.NewSourceUnavailable("capture file unreadable: "+path, err)
	}
	defer f.Close()

	img, err := imaging.Decode(f, imaging.AutoOrientation(false))
	if err != nil {
		return nil, apperror.NewSourceUnavailable("capture file undecodable: "+path, err)
	}
	if img.Bounds().Empty() {
		return nil, apperror.NewInvalidImage("decoded image has no pixels: "+path, nil)
	}

	return img, nil
}
