package capture

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"phototriage/internal/logger"
)

var spoolExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
	".webp": true,
}

// DefaultSettle is how long a spooled file must stay unchanged before it is
// taken.
const DefaultSettle = time.Second

// SpoolSource takes captures from a directory that an external camera
// process drops images into. Each request consumes the oldest waiting image
// once it has stopped changing, or waits for the next one to appear.
type SpoolSource struct {
	dir    string
	settle time.Duration
	logger *logger.Logger
}

// SpoolOption customizes a SpoolSource.
type SpoolOption func(*SpoolSource)

// WithSettle sets how long a file's size and modification time must hold
// before the file counts as fully written.
func WithSettle(d time.Duration) SpoolOption {
	return func(s *SpoolSource) {
		if d > 0 {
			s.settle = d
		}
	}
}

func NewSpoolSource(dir string, logger *logger.Logger, opts ...SpoolOption) *SpoolSource {
	s := &SpoolSource{dir: dir, settle: DefaultSettle, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RequestCapture moves the next fully written spooled image to destination.
func (s *SpoolSource) RequestCapture(ctx context.Context, destination string) (string, error) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create spool directory: %w", err)
	}

	// Watch before scanning so a file landing in between is not missed.
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return "", fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(s.dir); err != nil {
		return "", fmt.Errorf("failed to watch spool directory: %w", err)
	}

	for {
		path, err := s.oldest()
		if err != nil {
			return "", err
		}

		if path != "" {
			ready, err := s.settled(ctx, path)
			if err != nil {
				return "", err
			}
			if ready {
				return s.take(path, destination)
			}
			// Still growing or gone; look again.
			continue
		}

		if err := s.waitForImage(ctx, watcher); err != nil {
			return "", err
		}
	}
}

// settled reports whether path kept the same size and modification time for
// the settle interval.
func (s *SpoolSource) settled(ctx context.Context, path string) (bool, error) {
	before, err := os.Stat(path)
	if err != nil {
		return false, nil
	}

	timer := time.NewTimer(s.settle)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("no image arrived in %s: %w", s.dir, ctx.Err())
	case <-timer.C:
	}

	after, err := os.Stat(path)
	if err != nil {
		return false, nil
	}
	if after.Size() != before.Size() || !after.ModTime().Equal(before.ModTime()) {
		s.logger.Info("Spooled image %s still being written (%d -> %d bytes)", filepath.Base(path), before.Size(), after.Size())
		return false, nil
	}
	return after.Size() > 0, nil
}

// waitForImage blocks until an image file is created, written or renamed
// into the spool.
func (s *SpoolSource) waitForImage(ctx context.Context, watcher *fsnotify.Watcher) error {
	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("no image arrived in %s: %w", s.dir, ctx.Err())

		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("spool watcher closed")
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if isSpoolImage(event.Name) {
				return nil
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("spool watcher closed")
			}
			s.logger.Warning("Spool watcher error: %v", err)
		}
	}
}

// oldest returns the oldest non-empty image waiting in the spool, or "".
func (s *SpoolSource) oldest() (string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return "", fmt.Errorf("failed to read spool directory: %w", err)
	}

	type candidate struct {
		path string
		mod  int64
	}
	var candidates []candidate
	for _, e := range entries {
		if e.IsDir() || !isSpoolImage(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil || info.Size() == 0 {
			continue
		}
		candidates = append(candidates, candidate{filepath.Join(s.dir, e.Name()), info.ModTime().UnixNano()})
	}
	if len(candidates) == 0 {
		return "", nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].mod == candidates[j].mod {
			return candidates[i].path < candidates[j].path
		}
		return candidates[i].mod < candidates[j].mod
	})
	return candidates[0].path, nil
}

// take moves path to destination, copying when a rename is not possible.
func (s *SpoolSource) take(path, destination string) (string, error) {
	if err := os.MkdirAll(filepath.Dir(destination), 0700); err != nil {
		return "", fmt.Errorf("failed to create capture directory: %w", err)
	}

	if err := os.Rename(path, destination); err == nil {
		return destination, nil
	}

	src, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open spooled image: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(destination)
	if err != nil {
		return "", fmt.Errorf("failed to create capture file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return "", fmt.Errorf("failed to copy spooled image: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("failed to close capture file: %w", err)
	}

	os.Remove(path)
	return destination, nil
}

func isSpoolImage(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	return spoolExtensions[strings.ToLower(filepath.Ext(base))]
}
