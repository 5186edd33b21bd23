// Package validator judges plans and task results with a reviewer model.
package validator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bveerendrakumar/devflow/pkg/models"
)

// ModelRunner is the slice of the API runner the validator needs.
type ModelRunner interface {
	RunWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

const planReviewSystemPrompt = `You are a strict technical reviewer judging an implementation plan.

Reply with exactly one line starting with APPROVED: or REJECTED: followed by a
one-sentence reason. Approve only if the plan's steps are ordered, concrete,
and together satisfy the request.`

const resultReviewSystemPrompt = `You are a strict technical reviewer judging the output of a development task.

Reply with exactly one line starting with APPROVED: or REJECTED: followed by a
one-sentence reason. Reject if the output reports a failure or does not
accomplish the task.`

// Validator derives approval verdicts from model reviews.
type Validator struct {
	runner ModelRunner
}

// New creates a Validator backed by the given model runner.
func New(runner ModelRunner) *Validator {
	return &Validator{runner: runner}
}

// ValidatePlan reviews a plan against the originating request.
func (v *Validator) ValidatePlan(ctx context.Context, request, plan string) (*models.Verdict, error) {
	prompt := fmt.Sprintf("Request:\n%s\n\nPlan:\n%s", request, plan)
	reply, err := v.runner.RunWithSystem(ctx, planReviewSystemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("plan review: %w", err)
	}
	verdict := deriveVerdict(reply)
	verdict.Source = models.VerdictSourcePlan
	verdict.Subject = "plan"
	return verdict, nil
}

// ValidateResult reviews a task result.
func (v *Validator) ValidateResult(ctx context.Context, task models.TaskKind, result string) (*models.Verdict, error) {
	prompt := fmt.Sprintf("Task: %s\n\nOutput:\n%s", task, result)
	reply, err := v.runner.RunWithSystem(ctx, resultReviewSystemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("result review: %w", err)
	}
	verdict := deriveVerdict(reply)
	verdict.Source = models.VerdictSourceTask
	verdict.Subject = string(task)
	return verdict, nil
}

// deriveVerdict parses a reviewer reply. The structured APPROVED:/REJECTED:
// convention wins when present; otherwise any mention of "error" in the
// reply rejects it.
func deriveVerdict(reply string) *models.Verdict {
	verdict := &models.Verdict{
		Raw:      reply,
		IssuedAt: time.Now().UTC(),
	}

	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		upper := strings.ToUpper(line)
		switch {
		case strings.HasPrefix(upper, "APPROVED:"):
			verdict.Approved = true
			verdict.Structured = true
			verdict.Reason = strings.TrimSpace(line[len("APPROVED:"):])
			return verdict
		case strings.HasPrefix(upper, "REJECTED:"):
			verdict.Approved = false
			verdict.Structured = true
			verdict.Reason = strings.TrimSpace(line[len("REJECTED:"):])
			return verdict
		}
	}

	if ContainsError(reply) {
		verdict.Approved = false
		verdict.Reason = "reply mentions an error"
		verdict.FlaggedTerms = []string{"error"}
	} else {
		verdict.Approved = true
		verdict.Reason = "no error detected in reply"
	}
	return verdict
}

// ContainsError reports whether s mentions "error", case-insensitively.
func ContainsError(s string) bool {
	return strings.Contains(strings.ToLower(s), "error")
}
