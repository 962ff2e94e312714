package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.CaptureInterval != 10*time.Second {
		t.Errorf("Expected 10s interval, got %s", cfg.CaptureInterval)
	}
	if cfg.RotationDegrees != 270 {
		t.Errorf("Expected rotation 270, got %v", cfg.RotationDegrees)
	}
	if cfg.ContrastThreshold != 25.0 {
		t.Errorf("Expected threshold 25.0, got %v", cfg.ContrastThreshold)
	}
	if cfg.OverlapPolicy != OverlapDrop {
		t.Errorf("Expected drop policy, got %s", cfg.OverlapPolicy)
	}
	if filepath.Base(cfg.DatabasePath) != "photos.db" {
		t.Errorf("Expected photos.db, got %s", cfg.DatabasePath)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("CAPTURE_INTERVAL_SECONDS", "3")
	t.Setenv("CONTRAST_THRESHOLD", "12.5")
	t.Setenv("OVERLAP_POLICY", "QUEUE")
	t.Setenv("CLASSIFIER_TIMEOUT_MS", "250")
	t.Setenv("UNIQUE_NAMES", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.CaptureInterval != 3*time.Second {
		t.Errorf("Expected 3s interval, got %s", cfg.CaptureInterval)
	}
	if cfg.ContrastThreshold != 12.5 {
		t.Errorf("Expected threshold 12.5, got %v", cfg.ContrastThreshold)
	}
	if cfg.OverlapPolicy != OverlapQueue {
		t.Errorf("Expected queue policy, got %s", cfg.OverlapPolicy)
	}
	if cfg.ClassifierTimeout != 250*time.Millisecond {
		t.Errorf("Expected 250ms timeout, got %s", cfg.ClassifierTimeout)
	}
	if !cfg.UniqueNames {
		t.Error("Expected unique names to be enabled")
	}
}

func TestLoad_YAMLFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "phototriage.yaml")
	content := []byte("image_dir: /srv/photos\ncapture_interval: 30s\nclassifier: remote\ncontrast_threshold: 40\n")
	if err := os.WriteFile(path, content, 0600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("CONTRAST_THRESHOLD", "30")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ImageDirectory != "/srv/photos" {
		t.Errorf("Expected image dir from file, got %s", cfg.ImageDirectory)
	}
	if cfg.CaptureInterval != 30*time.Second {
		t.Errorf("Expected 30s interval from file, got %s", cfg.CaptureInterval)
	}
	if cfg.Classifier != ClassifierRemote {
		t.Errorf("Expected remote classifier, got %s", cfg.Classifier)
	}
	if cfg.ContrastThreshold != 30 {
		t.Errorf("Expected env to win over file, got %v", cfg.ContrastThreshold)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))

	if _, err := Load(); err == nil {
		t.Error("Expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero interval", func(c *Config) { c.CaptureInterval = 0 }},
		{"negative threshold", func(c *Config) { c.ContrastThreshold = -1 }},
		{"zero timeout", func(c *Config) { c.ClassifierTimeout = 0 }},
		{"unknown policy", func(c *Config) { c.OverlapPolicy = "retry" }},
		{"unknown source", func(c *Config) { c.CaptureSource = "usb" }},
		{"unknown classifier", func(c *Config) { c.Classifier = "haar" }},
		{"no image dir", func(c *Config) { c.ImageDirectory = "" }},
	}

	if err := Default().Validate(); err != nil {
		t.Fatalf("Defaults should validate: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestLoad_SubSecondDurationsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "phototriage.yaml")
	content := []byte("capture_interval: 2500ms\nclassifier_timeout: 750ms\nspool_settle: 300ms\n")
	if err := os.WriteFile(path, content, 0600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("CAPTURE_INTERVAL_SECONDS", "")
	t.Setenv("CLASSIFIER_TIMEOUT_MS", "")
	t.Setenv("SPOOL_SETTLE_MS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.CaptureInterval != 2500*time.Millisecond {
		t.Errorf("Expected 2.5s interval, got %s", cfg.CaptureInterval)
	}
	if cfg.ClassifierTimeout != 750*time.Millisecond {
		t.Errorf("Expected 750ms timeout, got %s", cfg.ClassifierTimeout)
	}
	if cfg.SpoolSettle != 300*time.Millisecond {
		t.Errorf("Expected 300ms settle, got %s", cfg.SpoolSettle)
	}

	path500 := filepath.Join(t.TempDir(), "fast.yaml")
	if err := os.WriteFile(path500, []byte("capture_interval: 500ms\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path500)
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Expected 500ms interval to load, got %v", err)
	}
	if cfg.CaptureInterval != 500*time.Millisecond {
		t.Errorf("Expected 500ms interval, got %s", cfg.CaptureInterval)
	}
}

func TestLoad_HTTPHost(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("HTTP_HOST", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.HTTPHost != "127.0.0.1" {
		t.Errorf("Expected loopback by default, got %q", cfg.HTTPHost)
	}

	t.Setenv("HTTP_HOST", "0.0.0.0")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.HTTPHost != "0.0.0.0" {
		t.Errorf("Expected env host, got %q", cfg.HTTPHost)
	}
}
