package capture

import (
	"fmt"
	"os"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// TakenAt returns the EXIF capture time recorded in the image at path.
func TakenAt(path string) (time.Time, error) {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, err
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return time.Time{}, fmt.Errorf("no exif data: %w", err)
	}

	ts, err := x.DateTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("no exif capture time: %w", err)
	}
	return ts, nil
}
