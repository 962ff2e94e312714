package ai

import (
	"context"
	"fmt"
	"image"
	"time"

	"phototriage/internal/apperror"
	"phototriage/internal/logger"
)

// DefaultTimeout bounds a single classification.
const DefaultTimeout = 5 * time.Second

type classification struct {
	faces int
	err   error
}

// PresenceDetector reduces a classifier result to "at least one face".
type PresenceDetector struct {
	classifier Classifier
	timeout    time.Duration
	logger     *logger.Logger
}

// NewPresenceDetector wraps classifier with a per-call timeout.
func NewPresenceDetector(classifier Classifier, timeout time.Duration, logger *logger.Logger) *PresenceDetector {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &PresenceDetector{classifier: classifier, timeout: timeout, logger: logger}
}

// Detect runs the classifier in the background and waits for its answer,
// the timeout or ctx, whichever comes first. A classifier that never
// returns does not block the caller past the timeout.
func (d *PresenceDetector) Detect(ctx context.Context, img image.Image) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	done := make(chan classification, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- classification{err: fmt.Errorf("classifier panic: %v", r)}
			}
		}()
		faces, err := d.classifier.Classify(ctx, img)
		done <- classification{faces: faces, err: err}
	}()

	select {
	case <-ctx.Done():
		return false, apperror.NewClassificationFailure("classifier did not answer within "+d.timeout.String(), ctx.Err())
	case res := <-done:
		if res.err != nil {
			return false, apperror.NewClassificationFailure("classifier failed", res.err)
		}
		if res.faces < 0 {
			return false, apperror.NewClassificationFailure(fmt.Sprintf("classifier returned %d faces", res.faces), nil)
		}
		d.logger.Info("Face classifier found %d face(s)", res.faces)
		return res.faces > 0, nil
	}
}
