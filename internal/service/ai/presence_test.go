package ai

import (
	"context"
	"errors"
	"image"
	"path/filepath"
	"testing"
	"time"

	"phototriage/internal/apperror"
	"phototriage/internal/logger"
)

var testImage = image.NewNRGBA(image.Rect(0, 0, 4, 4))

func fixedFaces(n int) Classifier {
	return ClassifierFunc(func(ctx context.Context, img image.Image) (int, error) {
		return n, nil
	})
}

func TestDetect_FaceCount(t *testing.T) {
	tests := []struct {
		faces int
		want  bool
	}{
		{0, false},
		{1, true},
		{5, true},
	}

	for _, tt := range tests {
		d := NewPresenceDetector(fixedFaces(tt.faces), time.Second, logger.Discard())
		got, err := d.Detect(context.Background(), testImage)
		if err != nil {
			t.Fatalf("Detect failed: %v", err)
		}
		if got != tt.want {
			t.Errorf("%d faces: expected %v, got %v", tt.faces, tt.want, got)
		}
	}
}

func TestDetect_ClassifierError(t *testing.T) {
	failing := ClassifierFunc(func(ctx context.Context, img image.Image) (int, error) {
		return 0, errors.New("model not loaded")
	})

	_, err := NewPresenceDetector(failing, time.Second, logger.Discard()).Detect(context.Background(), testImage)
	if !apperror.IsType(err, apperror.TypeClassificationFailure) {
		t.Errorf("Expected classification failure, got %v", err)
	}
}

func TestDetect_NegativeCount(t *testing.T) {
	_, err := NewPresenceDetector(fixedFaces(-1), time.Second, logger.Discard()).Detect(context.Background(), testImage)
	if !apperror.IsType(err, apperror.TypeClassificationFailure) {
		t.Errorf("Expected classification failure, got %v", err)
	}
}

func TestDetect_Timeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	stuck := ClassifierFunc(func(ctx context.Context, img image.Image) (int, error) {
		<-release
		return 1, nil
	})

	start := time.Now()
	_, err := NewPresenceDetector(stuck, 50*time.Millisecond, logger.Discard()).Detect(context.Background(), testImage)
	if !apperror.IsType(err, apperror.TypeClassificationFailure) {
		t.Errorf("Expected classification failure, got %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Error("Detect did not honour the timeout")
	}
}

func TestDetect_Panic(t *testing.T) {
	panicky := ClassifierFunc(func(ctx context.Context, img image.Image) (int, error) {
		panic("native crash")
	})

	_, err := NewPresenceDetector(panicky, time.Second, logger.Discard()).Detect(context.Background(), testImage)
	if !apperror.IsType(err, apperror.TypeClassificationFailure) {
		t.Errorf("Expected classification failure, got %v", err)
	}
}

func TestNewPigoClassifier_MissingCascade(t *testing.T) {
	if _, err := NewPigoClassifier(filepath.Join(t.TempDir(), "facefinder"), 5); err == nil {
		t.Error("Expected error for missing cascade file")
	}
}
