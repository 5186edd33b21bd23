package models

import "time"

// TaskKind identifies one of the four development task operations.
type TaskKind string

const (
	// TaskGenerateCode produces source code for a described component.
	TaskGenerateCode TaskKind = "generate_code"
	// TaskReviewCode reviews a piece of code and reports findings.
	TaskReviewCode TaskKind = "review_code"
	// TaskRunTests exercises the test suite for a target.
	TaskRunTests TaskKind = "run_tests"
	// TaskDeployArtifact ships a built artifact to an environment.
	TaskDeployArtifact TaskKind = "deploy_artifact"
)

// Valid returns true if the kind is a known value.
func (k TaskKind) Valid() bool {
	switch k {
	case TaskGenerateCode, TaskReviewCode, TaskRunTests, TaskDeployArtifact:
		return true
	default:
		return false
	}
}

// AllTaskKinds returns the four task kinds in pipeline execution order.
func AllTaskKinds() []TaskKind {
	return []TaskKind{TaskGenerateCode, TaskReviewCode, TaskRunTests, TaskDeployArtifact}
}

// TaskStatus represents the current state of a task call.
type TaskStatus string

const (
	// TaskStatusPending indicates the task has not started.
	TaskStatusPending TaskStatus = "pending"
	// TaskStatusRunning indicates the task is being executed.
	TaskStatusRunning TaskStatus = "running"
	// TaskStatusDone indicates the task completed and its result was approved.
	TaskStatusDone TaskStatus = "done"
	// TaskStatusRejected indicates the validator rejected the task result.
	TaskStatusRejected TaskStatus = "rejected"
	// TaskStatusFailed indicates the task failed with an error.
	TaskStatusFailed TaskStatus = "failed"
)

// Valid returns true if the status is a known value.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusRunning, TaskStatusDone, TaskStatusRejected, TaskStatusFailed:
		return true
	default:
		return false
	}
}

// TaskCall is a single dispatch of a named task through the model session.
type TaskCall struct {
	// ID is the unique identifier for this call.
	ID string `json:"id"`
	// RunID is the ID of the run this call belongs to.
	RunID string `json:"run_id"`
	// Kind is the task operation being dispatched.
	Kind TaskKind `json:"kind"`
	// Args is the string argument bag forwarded to the model.
	Args map[string]string `json:"args,omitempty"`
	// Result is the task result text returned by the session.
	Result string `json:"result,omitempty"`
	// Status is the current state of the call.
	Status TaskStatus `json:"status"`
	// Attempt is the workflow attempt this call was made on (1-indexed).
	Attempt int `json:"attempt"`
	// StartedAt is when execution began.
	StartedAt time.Time `json:"started_at"`
	// CompletedAt is when execution finished, if it has.
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	// Error contains the error message if the call failed.
	Error string `json:"error,omitempty"`
}
