package ai

import (
	"context"
	"fmt"
	"image"
	"os"
	"sync"

	"github.com/disintegration/imaging"
	pigo "github.com/esimov/pigo/core"
)

// Cascade search parameters.
const (
	pigoMinSize     = 20
	pigoShiftFactor = 0.1
	pigoScaleFactor = 1.1
	pigoIoU         = 0.2
)

// PigoClassifier detects faces with a pixel-intensity-comparison cascade.
// It needs no native libraries.
type PigoClassifier struct {
	classifier *pigo.Pigo
	minScore   float32
	mu         sync.Mutex
}

// NewPigoClassifier loads the cascade file at cascadePath.
func NewPigoClassifier(cascadePath string, minScore float64) (*PigoClassifier, error) {
	cascade, err := os.ReadFile(cascadePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read cascade file: %w", err)
	}

	p := pigo.NewPigo()
	classifier, err := p.Unpack(cascade)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack cascade: %w", err)
	}

	return &PigoClassifier{classifier: classifier, minScore: float32(minScore)}, nil
}

// Classify returns the number of clustered detections scoring at least minScore.
func (c *PigoClassifier) Classify(ctx context.Context, img image.Image) (int, error) {
	src := imaging.Clone(img)
	cols, rows := src.Bounds().Dx(), src.Bounds().Dy()

	params := pigo.CascadeParams{
		MinSize:     pigoMinSize,
		MaxSize:     min(cols, rows),
		ShiftFactor: pigoShiftFactor,
		ScaleFactor: pigoScaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: pigo.RgbToGrayscale(src),
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	if err := ctx.Err(); err != nil {
		return 0, err
	}

	c.mu.Lock()
	dets := c.classifier.RunCascade(params, 0)
	dets = c.classifier.ClusterDetections(dets, pigoIoU)
	c.mu.Unlock()

	faces := 0
	for _, det := range dets {
		if det.Q >= c.minScore {
			faces++
		}
	}
	return faces, nil
}
