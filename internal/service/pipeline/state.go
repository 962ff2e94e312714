package pipeline

// State is a stage of a capture attempt.
type State string

const (
	StateIdle        State = "idle"
	StateCapturing   State = "capturing"
	StateNormalizing State = "normalizing"
	StateScoring     State = "scoring"
	StateRejected    State = "rejected"
	StateClassifying State = "classifying"
	StateNaming      State = "naming"
	StateWriting     State = "writing"
	StateRecording   State = "recording"
	StateDone        State = "done"
	StateAborted     State = "aborted"

	// Outcomes of a trigger that found another attempt running.
	StateDropped State = "dropped"
	StateQueued  State = "queued"
)

// Terminal reports whether s ends an attempt.
func (s State) Terminal() bool {
	switch s {
	case StateRejected, StateDone, StateAborted, StateDropped, StateQueued:
		return true
	}
	return false
}
