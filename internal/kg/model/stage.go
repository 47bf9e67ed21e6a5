package model

import "time"

type StageStatus string

const (
	StageCompleted StageStatus = "completed"
	StageFailed    StageStatus = "failed"
	StageSkipped   StageStatus = "skipped"
)

// StageResult is the outcome of one pipeline stage execution.
type StageResult struct {
	StageName string         `json:"name"`
	Status    StageStatus    `json:"status"`
	Duration  time.Duration  `json:"duration"`
	Output    map[string]any `json:"output,omitempty"`
	Error     string         `json:"error,omitempty"`
}

func (r StageResult) IsSuccess() bool { return r.Status == StageCompleted }
func (r StageResult) IsFailure() bool { return r.Status == StageFailed }
