package handler

import (
	"encoding/json"
	"net/http"
	"path/filepath"

	"phototriage/internal/logger"
	"phototriage/internal/model"
	"phototriage/internal/service/ledger"
)

// PhotoLister lists ledger rows.
type PhotoLister interface {
	Photos() ([]model.Photo, error)
}

// Reconciler compares the image directory with the ledger.
type Reconciler interface {
	Reconcile(imageDir string) (*ledger.Report, error)
}

type photosResponse struct {
	Count  int           `json:"count"`
	Photos []model.Photo `json:"photos"`
}

// GetPhotosHandler returns every ledger row in insertion order.
func GetPhotosHandler(photos PhotoLister, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		list, err := photos.Photos()
		if err != nil {
			logger.Error("Failed to list photos: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if list == nil {
			list = []model.Photo{}
		}

		writeJSON(w, logger, photosResponse{Count: len(list), Photos: list})
	}
}

// ViewPhotoHandler serves a single saved image named by the "file" query parameter.
func ViewPhotoHandler(imageDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("file")
		if name == "" {
			http.Error(w, "File parameter is required", http.StatusBadRequest)
			return
		}
		if name != filepath.Base(name) {
			http.Error(w, "Invalid file name", http.StatusBadRequest)
			return
		}
		http.ServeFile(w, r, filepath.Join(imageDir, name))
	}
}

// ReconcileHandler reports files without rows and rows without files.
func ReconcileHandler(reconciler Reconciler, imageDir string, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := reconciler.Reconcile(imageDir)
		if err != nil {
			logger.Error("Failed to reconcile ledger: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, logger, report)
	}
}

func writeJSON(w http.ResponseWriter, logger *logger.Logger, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response: %v", err)
	}
}
