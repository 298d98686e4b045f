package models

import "time"

type RunStatus string

const (
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// HistoryEntry is one recorded pipeline run.
type HistoryEntry struct {
	ID         string
	SourcePath string
	TargetPath string
	OutputPath string
	Status     RunStatus
	Error      string
	StartedAt  time.Time
	Duration   time.Duration
	OutputSize int64
}
