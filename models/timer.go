package models

import "time"

// TimerStatus представляет состояния общего обратного отсчёта.
type TimerStatus string

const (
	TimerNotStarted TimerStatus = "not-started"
	TimerRunning    TimerStatus = "running"
	TimerPaused     TimerStatus = "paused"
	TimerExpired    TimerStatus = "expired"
)

// TimerState is the persisted shape of the cohort countdown. Field names on
// the wire are fixed: restored snapshots must round-trip across restarts.
type TimerState struct {
	TimeRemaining  int         `json:"timeRemaining"` // seconds
	Status         TimerStatus `json:"status"`
	StartedAt      *time.Time  `json:"startedAt"`
	PausedAt       *time.Time  `json:"pausedAt"`
	TotalTime      int         `json:"totalTime"` // seconds
	ActiveMatchIDs []int       `json:"activeMatchIds"`
	LastUpdated    time.Time   `json:"lastUpdated"`
}

// Clone returns a deep copy safe to hand out of the coordinator.
func (s TimerState) Clone() TimerState {
	out := s
	if s.ActiveMatchIDs != nil {
		out.ActiveMatchIDs = make([]int, len(s.ActiveMatchIDs))
		copy(out.ActiveMatchIDs, s.ActiveMatchIDs)
	}
	return out
}
