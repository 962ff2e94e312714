package dnn

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"sync"

	"github.com/disintegration/imaging"
	"gocv.io/x/gocv"

	"phototriage/internal/config"
	"phototriage/internal/logger"
)

// DefaultConfidence is the minimum score for a face detection.
const DefaultConfidence = 0.5

// FaceDetector counts faces with the OpenCV res10 SSD face model.
type FaceDetector struct {
	net        gocv.Net
	modelPath  string
	configPath string
	confidence float32
	logger     *logger.Logger
	mu         sync.Mutex
}

// NewFaceDetector loads the network named in cfg.
func NewFaceDetector(cfg *config.Config, logger *logger.Logger) (*FaceDetector, error) {
	d := &FaceDetector{
		modelPath:  cfg.FaceDNNModelPath,
		configPath: cfg.FaceDNNConfigPath,
		confidence: float32(cfg.FaceDNNConfidence),
		logger:     logger,
	}
	if d.confidence <= 0 {
		d.confidence = DefaultConfidence
	}

	if err := d.initializeNet(); err != nil {
		return nil, err
	}
	return d, nil
}

// initializeNet loads the DNN network and sets backend/target preferences.
func (d *FaceDetector) initializeNet() error {
	if _, err := os.Stat(d.modelPath); os.IsNotExist(err) {
		return fmt.Errorf("model file not found: %s", d.modelPath)
	}
	if _, err := os.Stat(d.configPath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s", d.configPath)
	}

	net := gocv.ReadNet(d.modelPath, d.configPath)
	if net.Empty() {
		return fmt.Errorf("failed to load network")
	}

	errBackend := net.SetPreferableBackend(gocv.NetBackendDefault)
	errTarget := net.SetPreferableTarget(gocv.NetTargetCPU)
	if errBackend != nil || errTarget != nil {
		net.Close()
		return fmt.Errorf("failed to set preferable backend or target")
	}

	d.net = net
	d.logger.Info("Face detection network initialized successfully")
	return nil
}

// Classify returns the number of faces above the confidence threshold.
func (d *FaceDetector) Classify(ctx context.Context, img image.Image) (int, error) {
	var encoded bytes.Buffer
	if err := imaging.Encode(&encoded, img, imaging.JPEG, imaging.JPEGQuality(95)); err != nil {
		return 0, fmt.Errorf("failed to encode image: %w", err)
	}

	mat, err := gocv.IMDecode(encoded.Bytes(), gocv.IMReadColor)
	if err != nil {
		return 0, fmt.Errorf("failed to decode image: %w", err)
	}
	defer mat.Close()

	if mat.Empty() {
		return 0, fmt.Errorf("decoded image is empty")
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	// res10 expects 300x300 BGR input with per-channel mean subtraction.
	blob := gocv.BlobFromImage(mat, 1.0, image.Pt(300, 300), gocv.NewScalar(104.0, 177.0, 123.0, 0), false, false)
	defer blob.Close()

	d.mu.Lock()
	defer d.mu.Unlock()

	d.net.SetInput(blob, "")
	output := d.net.Forward("")
	defer output.Close()

	// Rows of [batch_id, class_id, confidence, x1, y1, x2, y2].
	detections := output.Reshape(1, output.Total()/7)
	defer detections.Close()

	faces := 0
	for i := 0; i < detections.Rows(); i++ {
		if detections.GetFloatAt(i, 2) > d.confidence {
			faces++
		}
	}
	return faces, nil
}

// Close releases the network.
func (d *FaceDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}
