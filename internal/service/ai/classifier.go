package ai

import (
	"context"
	"image"
)

// Classifier counts the faces in an image. Backends may also locate them;
// only the count is used here.
type Classifier interface {
	Classify(ctx context.Context, img image.Image) (int, error)
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(ctx context.Context, img image.Image) (int, error)

func (f ClassifierFunc) Classify(ctx context.Context, img image.Image) (int, error) {
	return f(ctx, img)
}
