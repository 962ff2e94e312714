package pipeline

import (
	"time"

	"phototriage/internal/apperror"
	"phototriage/internal/model"
)

// Result describes how one capture attempt ended.
type Result struct {
	AttemptID    string        `json:"attempt_id"`
	State        State         `json:"state"`
	Stage        State         `json:"stage"`           // last stage entered; where an aborted attempt failed
	Kind         apperror.Type `json:"kind,omitempty"`
	Contrast     float64       `json:"contrast"`
	FaceDetected bool          `json:"face_detected"`
	FileName     string        `json:"file_name,omitempty"`
	Path         string        `json:"path,omitempty"`
	Photo        *model.Photo  `json:"photo,omitempty"` // nil unless State is StateDone
	CapturedAt   time.Time     `json:"captured_at,omitempty"`
	StartedAt    time.Time     `json:"started_at"`
	FinishedAt   time.Time     `json:"finished_at"`
	Error        string        `json:"error,omitempty"`
	Err          error         `json:"-"`
}

// Saved reports whether the attempt produced both a file and a ledger row.
func (r Result) Saved() bool {
	return r.State == StateDone && r.Photo != nil
}

// Orphaned reports whether a file was written without a ledger row.
func (r Result) Orphaned() bool {
	return r.Kind == apperror.TypePersistenceFailure
}
