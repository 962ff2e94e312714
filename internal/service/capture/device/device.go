package device

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"gocv.io/x/gocv"

	"phototriage/internal/logger"
)

// Camera captures stills from a video device or stream URL through OpenCV.
// The device is opened on first use and kept open between captures.
type Camera struct {
	device  string
	capture *gocv.VideoCapture
	logger  *logger.Logger
	mu      sync.Mutex
}

func NewCamera(device string, logger *logger.Logger) *Camera {
	return &Camera{device: device, logger: logger}
}

// open accepts a numeric device index or a path/URL.
func (c *Camera) open() error {
	if c.capture != nil {
		return nil
	}

	var id interface{} = c.device
	if index, err := strconv.Atoi(c.device); err == nil {
		id = index
	}

	capture, err := gocv.OpenVideoCapture(id)
	if err != nil {
		return fmt.Errorf("failed to open camera %s: %w", c.device, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return fmt.Errorf("camera %s is not available", c.device)
	}

	c.capture = capture
	c.logger.Info("Camera %s opened", c.device)
	return nil
}

// RequestCapture grabs one frame and writes it to destination as JPEG.
func (c *Camera) RequestCapture(ctx context.Context, destination string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := c.open(); err != nil {
		return "", err
	}

	frame := gocv.NewMat()
	defer frame.Close()

	if ok := c.capture.Read(&frame); !ok || frame.Empty() {
		// Drop the handle so the next request reopens the device.
		c.capture.Close()
		c.capture = nil
		return "", fmt.Errorf("failed to read frame from camera %s", c.device)
	}

	if err := os.MkdirAll(filepath.Dir(destination), 0700); err != nil {
		return "", fmt.Errorf("failed to create capture directory: %w", err)
	}
	if ok := gocv.IMWrite(destination, frame); !ok {
		return "", fmt.Errorf("failed to write frame to %s", destination)
	}

	return destination, nil
}

// Close releases the device.
func (c *Camera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture == nil {
		return nil
	}
	err := c.capture.Close()
	c.capture = nil
	return err
}
