package route

import (
	"net/http"

	"phototriage/internal/handler"
	"phototriage/internal/logger"
	"phototriage/internal/service/ledger"
	hub "phototriage/internal/service/websocket"
)

// Services bundles what the status server reads from.
type Services struct {
	Ledger    *ledger.Service
	Scheduler handler.ScheduleStatus
	Attempts  handler.AttemptStatus
	Hub       *hub.HubService
	ImageDir  string
	LogDir    string
}

// SetupRoutes registers the read-only API endpoints.
func SetupRoutes(services Services, logger *logger.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/photos", handler.GetPhotosHandler(services.Ledger, logger))
	mux.HandleFunc("/api/photos/view", handler.ViewPhotoHandler(services.ImageDir))
	mux.HandleFunc("/api/reconcile", handler.ReconcileHandler(services.Ledger, services.ImageDir, logger))
	mux.HandleFunc("/api/status", handler.StatusHandler(services.Scheduler, services.Attempts, logger))
	mux.HandleFunc("/api/events", handler.EventsWebsocketHandler(services.Hub, logger))

	// Log endpoints
	for _, level := range []string{"info", "warning", "error", "orphans"} {
		mux.HandleFunc("/api/logs/"+level, handler.ShowLogHandler(services.LogDir, level))
	}

	return mux
}
