package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"

	"phototriage/internal/config"
)

// Logger provides leveled logging (info/warning/error) to files and stdout/stderr.
// Orphans, image files left on disk without a ledger row, are also written as
// JSON lines so they can be collected later.
type Logger struct {
	infoLog    *log.Logger
	warningLog *log.Logger
	errorLog   *log.Logger
	orphanLog  *logrus.Logger
	files      []*os.File
	mu         sync.Mutex
}

// NewLogger creates a Logger writing to per-level files in the configured log directory.
func NewLogger(cfg *config.Config) (*Logger, error) {
	if err := os.MkdirAll(cfg.LogDirectory, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	l := &Logger{}
	open := func(name string) (io.Writer, error) {
		file, err := os.OpenFile(filepath.Join(cfg.LogDirectory, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", name, err)
		}
		l.files = append(l.files, file)
		return file, nil
	}

	infoFile, err := open("info.log")
	if err != nil {
		return nil, err
	}
	warningFile, err := open("warning.log")
	if err != nil {
		l.Close()
		return nil, err
	}
	errorFile, err := open("error.log")
	if err != nil {
		l.Close()
		return nil, err
	}
	orphanFile, err := open("orphans.log")
	if err != nil {
		l.Close()
		return nil, err
	}

	l.setup(
		io.MultiWriter(os.Stdout, infoFile),
		io.MultiWriter(os.Stdout, warningFile),
		io.MultiWriter(os.Stderr, errorFile),
		orphanFile,
	)
	return l, nil
}

// New creates a Logger sending every level to w. Used by CLI commands and tests.
func New(w io.Writer) *Logger {
	l := &Logger{}
	l.setup(w, w, w, w)
	return l
}

// Discard returns a Logger that drops everything.
func Discard() *Logger {
	return New(io.Discard)
}

func (l *Logger) setup(info, warning, errw, orphan io.Writer) {
	flags := log.Ldate | log.Ltime | log.Lshortfile
	l.infoLog = log.New(info, "ℹ️  INFO    ", flags)
	l.warningLog = log.New(warning, "⚠️  WARNING ", flags)
	l.errorLog = log.New(errw, "❌ ERROR   ", flags)

	l.orphanLog = logrus.New()
	l.orphanLog.SetOutput(orphan)
	l.orphanLog.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})
}

// Info writes a formatted info-level log entry.
func (l *Logger) Info(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infoLog.Output(2, fmt.Sprintf(format, v...))
}

// Warning writes a formatted warning-level log entry.
func (l *Logger) Warning(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warningLog.Output(2, fmt.Sprintf(format, v...))
}

// Error writes a formatted error-level log entry.
func (l *Logger) Error(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errorLog.Output(2, fmt.Sprintf(format, v...))
}

// Orphan records a file that was written but has no ledger row.
func (l *Logger) Orphan(path string, cause error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errorLog.Output(2, fmt.Sprintf("🧩 Orphaned image %s: %v", path, cause))
	l.orphanLog.WithFields(logrus.Fields{"file": path, "cause": fmt.Sprint(cause)}).Error("image saved without ledger row")
}

// Close releases the log files.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var firstErr error
	for _, f := range l.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	l.files = nil
	return firstErr
}
