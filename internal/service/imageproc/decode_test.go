package imageproc

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"phototriage/internal/apperror"
)

func TestLoad_PNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}
	if err := png.Encode(f, halfAndHalf(6, 4)); err != nil {
		t.Fatalf("Failed to encode: %v", err)
	}
	f.Close()

	img, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if img.Bounds().Dx() != 6 || img.Bounds().Dy() != 4 {
		t.Errorf("Unexpected bounds %v", img.Bounds())
	}
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.jpg"))
	if !apperror.IsType(err, apperror.TypeSourceUnavailable) {
		t.Errorf("Expected source unavailable, got %v", err)
	}
}

func TestLoad_Undecodable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.jpg")
	if err := os.WriteFile(path, []byte("not an image"), 0600); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	_, err := Load(path)
	if !apperror.IsType(err, apperror.TypeSourceUnavailable) {
		t.Errorf("Expected source unavailable, got %v", err)
	}
}
