package storage

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"

	"github.com/disintegration/imaging"

	"phototriage/internal/apperror"
	"phototriage/internal/config"
	"phototriage/internal/logger"
)

// JPEGQuality is the encoder quality for saved photos.
const JPEGQuality = 100

// ImageWriter saves accepted images as JPEG files in the private image directory.
type ImageWriter struct {
	imagesDir   string
	uniqueNames bool
	logger      *logger.Logger
	mu          sync.Mutex
}

// NewImageWriter creates an ImageWriter for the configured image directory.
func NewImageWriter(cfg *config.Config, logger *logger.Logger) *ImageWriter {
	return &ImageWriter{
		imagesDir:   cfg.ImageDirectory,
		uniqueNames: cfg.UniqueNames,
		logger:      logger,
	}
}

// Dir returns the image directory.
func (w *ImageWriter) Dir() string {
	return w.imagesDir
}

// Write encodes img under name and returns the saved file name and full path.
// The file is written to a temporary name and renamed into place, so a
// partially written JPEG is never visible under the final name. An existing
// file with the same name is replaced unless unique names are enabled.
func (w *ImageWriter) Write(img image.Image, name string) (string, string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := os.MkdirAll(w.imagesDir, 0700); err != nil {
		return "", "", apperror.NewWriteFailure("failed to create image directory", err)
	}

	finalName := name
	if _, err := os.Stat(filepath.Join(w.imagesDir, name)); err == nil {
		if w.uniqueNames {
			finalName = w.nextFreeName(name)
			w.logger.Warning("Image %s already exists, saving as %s", name, finalName)
		} else {
			w.logger.Warning("Image %s already exists and will be overwritten", name)
		}
	}
	fullpath := filepath.Join(w.imagesDir, finalName)

	tmp, err := os.CreateTemp(w.imagesDir, ".writing-*.jpg")
	if err != nil {
		return "", "", apperror.NewWriteFailure("failed to create temp file", err)
	}
	tmpPath := tmp.Name()

	fail := func(msg string, cause error) (string, string, error) {
		tmp.Close()
		os.Remove(tmpPath)
		return "", "", apperror.NewWriteFailure(msg+" "+finalName, cause)
	}

	if err := imaging.Encode(tmp, img, imaging.JPEG, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return fail("failed to encode", err)
	}
	if err := tmp.Sync(); err != nil {
		return fail("failed to sync", err)
	}
	if err := tmp.Close(); err != nil {
		return fail("failed to close", err)
	}
	if err := os.Chmod(tmpPath, 0600); err != nil {
		return fail("failed to chmod", err)
	}
	if err := os.Rename(tmpPath, fullpath); err != nil {
		os.Remove(tmpPath)
		return "", "", apperror.NewWriteFailure("failed to move into place "+finalName, err)
	}

	return finalName, fullpath, nil
}

func (w *ImageWriter) nextFreeName(name string) string {
	for i := 1; ; i++ {
		candidate := WithSuffix(name, i)
		if _, err := os.Stat(filepath.Join(w.imagesDir, candidate)); os.IsNotExist(err) {
			return candidate
		}
	}
}

// WithSuffix inserts _n before the extension of name.
func WithSuffix(name string, n int) string {
	ext := filepath.Ext(name)
	return fmt.Sprintf("%s_%d%s", name[:len(name)-len(ext)], n, ext)
}
