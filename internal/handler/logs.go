package handler

import (
	"net/http"
	"os"
	"path/filepath"
)

// Log files written by the logger, keyed by level.
var logFiles = map[string]string{
	"info":    "info.log",
	"warning": "warning.log",
	"error":   "error.log",
	"orphans": "orphans.log",
}

// ShowLogHandler serves the log file for level as plain text.
func ShowLogHandler(logDir, level string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filename, ok := logFiles[level]
		if !ok {
			http.NotFound(w, r)
			return
		}
		serveLogFile(w, r, logDir, filename)
	}
}

func serveLogFile(w http.ResponseWriter, r *http.Request, logDir, filename string) {
	filePath := filepath.Join(logDir, filename)

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("Log file not found: " + filename))
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeFile(w, r, filePath)
}
