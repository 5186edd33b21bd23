package models

import "time"

// RunStatus represents the current state of a workflow run.
type RunStatus string

const (
	// RunStatusPending indicates the run has not started.
	RunStatusPending RunStatus = "pending"
	// RunStatusPlanning indicates the planner is producing a step breakdown.
	RunStatusPlanning RunStatus = "planning"
	// RunStatusValidating indicates the validator is judging the plan.
	RunStatusValidating RunStatus = "validating"
	// RunStatusExecuting indicates the task sequence is being executed.
	RunStatusExecuting RunStatus = "executing"
	// RunStatusDone indicates every task result was approved.
	RunStatusDone RunStatus = "done"
	// RunStatusFailed indicates the run exhausted its restart budget.
	RunStatusFailed RunStatus = "failed"
	// RunStatusAborted indicates the run was cancelled or stopped by signal.
	RunStatusAborted RunStatus = "aborted"
)

// Valid returns true if the status is a known value.
func (s RunStatus) Valid() bool {
	switch s {
	case RunStatusPending, RunStatusPlanning, RunStatusValidating,
		RunStatusExecuting, RunStatusDone, RunStatusFailed, RunStatusAborted:
		return true
	default:
		return false
	}
}

// Terminal returns true if the status is a final state.
func (s RunStatus) Terminal() bool {
	switch s {
	case RunStatusDone, RunStatusFailed, RunStatusAborted:
		return true
	default:
		return false
	}
}

// Run represents one end-to-end workflow execution for a feature request.
type Run struct {
	// ID is the unique identifier for this run.
	ID string `json:"id"`
	// Request is the natural-language feature request.
	Request string `json:"request"`
	// Plan is the planner's free-text step breakdown for the current attempt.
	Plan string `json:"plan,omitempty"`
	// Tasks holds the task calls made during this run, in order.
	Tasks []TaskCall `json:"tasks,omitempty"`
	// Status is the current state of the run.
	Status RunStatus `json:"status"`
	// Attempt is the workflow attempt number (1-indexed). A rejected plan
	// or task result restarts the workflow and bumps this counter.
	Attempt int `json:"attempt"`
	// TokensIn is the total input tokens consumed by executor task
	// sessions. Planner and validator usage is tracked per client.
	TokensIn int64 `json:"tokens_in"`
	// TokensOut is the total output tokens consumed by executor task
	// sessions.
	TokensOut int64 `json:"tokens_out"`
	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`
	// CompletedAt is when the run reached a terminal state, if it has.
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	// Error contains the failure reason if the run failed.
	Error string `json:"error,omitempty"`
}
