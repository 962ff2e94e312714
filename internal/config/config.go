package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Overlap policies for a trigger that arrives while an attempt is running.
const (
	OverlapDrop  = "drop"
	OverlapQueue = "queue"
)

// Capture sources.
const (
	SourceDevice = "device"
	SourceSpool  = "spool"
)

// Face classifier backends.
const (
	ClassifierDNN    = "dnn"
	ClassifierPigo   = "pigo"
	ClassifierRemote = "remote"
)

type Config struct {
	ImageDirectory   string `yaml:"image_dir"`
	ScratchDirectory string `yaml:"cache_dir"`
	DatabasePath     string `yaml:"database_path"`
	LogDirectory     string `yaml:"log_dir"`

	CaptureInterval   time.Duration `yaml:"capture_interval"`
	RotationDegrees   float64       `yaml:"rotation_degrees"` // clockwise, sensor to display
	ContrastThreshold float64       `yaml:"contrast_threshold"`
	OverlapPolicy     string        `yaml:"overlap_policy"`
	PreferExifTime    bool          `yaml:"prefer_exif_time"`
	UniqueNames       bool          `yaml:"unique_names"`

	CaptureSource  string        `yaml:"capture_source"`
	CameraDevice   string        `yaml:"camera_device"`
	SpoolDirectory string        `yaml:"spool_dir"`
	SpoolSettle    time.Duration `yaml:"spool_settle"` // how long a spooled file must stay unchanged

	Classifier        string        `yaml:"classifier"`
	ClassifierTimeout time.Duration `yaml:"classifier_timeout"`
	FaceDNNConfigPath string        `yaml:"face_dnn_config_path"`
	FaceDNNModelPath  string        `yaml:"face_dnn_model_path"`
	FaceDNNConfidence float64       `yaml:"face_dnn_confidence"`
	PigoCascadePath   string        `yaml:"pigo_cascade_path"`
	PigoMinScore      float64       `yaml:"pigo_min_score"`
	FaceServiceURL    string        `yaml:"face_service_url"`

	HTTPHost string `yaml:"http_host"` // empty listens on every interface
	HTTPPort int    `yaml:"http_port"` // 0 disables the status server
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		ImageDirectory:    filepath.Join(".", "images"),
		ScratchDirectory:  filepath.Join(".", "cache"),
		DatabasePath:      filepath.Join(".", "data", "photos.db"),
		LogDirectory:      filepath.Join(".", "logs"),
		CaptureInterval:   10 * time.Second,
		RotationDegrees:   270,
		ContrastThreshold: 25.0,
		OverlapPolicy:     OverlapDrop,
		CaptureSource:     SourceDevice,
		CameraDevice:      "0",
		SpoolDirectory:    filepath.Join(".", "spool"),
		SpoolSettle:       time.Second,
		Classifier:        ClassifierDNN,
		ClassifierTimeout: 5 * time.Second,
		FaceDNNConfigPath: filepath.Join(".", "models", "deploy.prototxt"),
		FaceDNNModelPath:  filepath.Join(".", "models", "res10_300x300_ssd_iter_140000.caffemodel"),
		FaceDNNConfidence: 0.5,
		PigoCascadePath:   filepath.Join(".", "models", "facefinder"),
		PigoMinScore:      5.0,
		FaceServiceURL:    "http://localhost:8000",
		HTTPHost:          "127.0.0.1",
	}
}

// Load builds the configuration from defaults, an optional YAML file named by
// CONFIG_FILE, and environment overrides, in that order.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.ImageDirectory = getEnv("IMAGE_DIR", cfg.ImageDirectory)
	cfg.ScratchDirectory = getEnv("CACHE_DIR", cfg.ScratchDirectory)
	cfg.DatabasePath = getEnv("DATABASE_PATH", cfg.DatabasePath)
	cfg.LogDirectory = getEnv("LOG_DIR", cfg.LogDirectory)

	cfg.CaptureInterval = getEnvAsDuration("CAPTURE_INTERVAL_SECONDS", time.Second, cfg.CaptureInterval)
	cfg.RotationDegrees = getEnvAsFloat("ROTATION_DEGREES", cfg.RotationDegrees)
	cfg.ContrastThreshold = getEnvAsFloat("CONTRAST_THRESHOLD", cfg.ContrastThreshold)
	cfg.OverlapPolicy = strings.ToLower(getEnv("OVERLAP_POLICY", cfg.OverlapPolicy))
	cfg.PreferExifTime = getEnvAsBool("PREFER_EXIF_TIME", cfg.PreferExifTime)
	cfg.UniqueNames = getEnvAsBool("UNIQUE_NAMES", cfg.UniqueNames)

	cfg.CaptureSource = strings.ToLower(getEnv("CAPTURE_SOURCE", cfg.CaptureSource))
	cfg.CameraDevice = getEnv("CAMERA_DEVICE", cfg.CameraDevice)
	cfg.SpoolDirectory = getEnv("SPOOL_DIR", cfg.SpoolDirectory)
	cfg.SpoolSettle = getEnvAsDuration("SPOOL_SETTLE_MS", time.Millisecond, cfg.SpoolSettle)

	cfg.Classifier = strings.ToLower(getEnv("CLASSIFIER", cfg.Classifier))
	cfg.ClassifierTimeout = getEnvAsDuration("CLASSIFIER_TIMEOUT_MS", time.Millisecond, cfg.ClassifierTimeout)
	cfg.FaceDNNConfigPath = getEnv("FACE_DNN_CONFIG_PATH", cfg.FaceDNNConfigPath)
	cfg.FaceDNNModelPath = getEnv("FACE_DNN_MODEL_PATH", cfg.FaceDNNModelPath)
	cfg.FaceDNNConfidence = getEnvAsFloat("FACE_DNN_CONFIDENCE", cfg.FaceDNNConfidence)
	cfg.PigoCascadePath = getEnv("PIGO_CASCADE_PATH", cfg.PigoCascadePath)
	cfg.PigoMinScore = getEnvAsFloat("PIGO_MIN_SCORE", cfg.PigoMinScore)
	cfg.FaceServiceURL = getEnv("FACE_SERVICE_URL", cfg.FaceServiceURL)

	cfg.HTTPHost = getEnv("HTTP_HOST", cfg.HTTPHost)
	cfg.HTTPPort = getEnvAsInt("HTTP_PORT", cfg.HTTPPort)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Validate reports the first setting the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.CaptureInterval <= 0 {
		return fmt.Errorf("capture interval must be positive, got %s", c.CaptureInterval)
	}
	if c.ContrastThreshold < 0 {
		return fmt.Errorf("contrast threshold must not be negative, got %.2f", c.ContrastThreshold)
	}
	if c.ClassifierTimeout <= 0 {
		return fmt.Errorf("classifier timeout must be positive, got %s", c.ClassifierTimeout)
	}
	switch c.OverlapPolicy {
	case OverlapDrop, OverlapQueue:
	default:
		return fmt.Errorf("unknown overlap policy %q", c.OverlapPolicy)
	}
	switch c.CaptureSource {
	case SourceDevice, SourceSpool:
	default:
		return fmt.Errorf("unknown capture source %q", c.CaptureSource)
	}
	switch c.Classifier {
	case ClassifierDNN, ClassifierPigo, ClassifierRemote:
	default:
		return fmt.Errorf("unknown classifier %q", c.Classifier)
	}
	if c.ImageDirectory == "" || c.DatabasePath == "" {
		return fmt.Errorf("image directory and database path are required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsDuration reads a whole number of units. Unset or invalid values
// leave defaultValue untouched, so sub-unit durations from the file survive.
func getEnvAsDuration(key string, unit time.Duration, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return time.Duration(intValue) * unit
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
