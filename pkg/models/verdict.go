package models

import "time"

// VerdictSource identifies what a verdict was issued for.
type VerdictSource string

const (
	// VerdictSourcePlan marks a verdict on the planner's step breakdown.
	VerdictSourcePlan VerdictSource = "plan"
	// VerdictSourceTask marks a verdict on a task result. The Subject field
	// carries the task kind.
	VerdictSourceTask VerdictSource = "task"
)

// Verdict is the validator's judgement of a plan or task result.
type Verdict struct {
	// RunID is the ID of the run this verdict belongs to.
	RunID string `json:"run_id"`
	// Source indicates whether a plan or a task result was judged.
	Source VerdictSource `json:"source"`
	// Subject names what was judged ("plan" or a task kind).
	Subject string `json:"subject"`
	// Approved is true if the validator accepted the text.
	Approved bool `json:"approved"`
	// Reason is the validator's explanation, when one was given.
	Reason string `json:"reason,omitempty"`
	// Raw is the validator's full free-text reply.
	Raw string `json:"raw,omitempty"`
	// Structured is true when the reply followed the APPROVED/REJECTED
	// convention rather than falling back to substring detection.
	Structured bool `json:"structured"`
	// FlaggedTerms lists the terms that triggered a fallback rejection.
	FlaggedTerms []string `json:"flagged_terms,omitempty"`
	// IssuedAt is when the verdict was produced.
	IssuedAt time.Time `json:"issued_at"`
}
