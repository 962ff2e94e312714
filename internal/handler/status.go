package handler

import (
	"net/http"
	"time"

	"phototriage/internal/logger"
	"phototriage/internal/service/pipeline"
)

// AttemptStatus exposes the controller's progress.
type AttemptStatus interface {
	State() pipeline.State
	Counts() map[pipeline.State]int64
	LastResult() *pipeline.Result
}

// ScheduleStatus exposes the scheduler's progress.
type ScheduleStatus interface {
	Running() bool
	Fired() int64
	Interval() time.Duration
}

type statusResponse struct {
	Running    bool                     `json:"running"`
	Interval   string                   `json:"interval"`
	Fired      int64                    `json:"fired"`
	State      pipeline.State           `json:"state"`
	Counts     map[pipeline.State]int64 `json:"counts"`
	LastResult *pipeline.Result         `json:"last_result,omitempty"`
}

// StatusHandler reports scheduler and controller state.
func StatusHandler(schedule ScheduleStatus, attempts AttemptStatus, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, logger, statusResponse{
			Running:    schedule.Running(),
			Interval:   schedule.Interval().String(),
			Fired:      schedule.Fired(),
			State:      attempts.State(),
			Counts:     attempts.Counts(),
			LastResult: attempts.LastResult(),
		})
	}
}
