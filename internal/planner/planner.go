package planner

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// ModelRunner is the slice of the API runner the planner needs.
type ModelRunner interface {
	RunWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

const planningSystemPrompt = `You are a senior software engineer planning the implementation of a feature request.

Break the request into a short ordered list of concrete development steps.
Each step should be one line in the form "N. title: detail".
Steps must cover code generation, code review, test execution, and artifact
deployment where the request calls for them. Do not include commentary before
or after the list.`

// Planner produces step plans from feature requests.
type Planner struct {
	runner ModelRunner
	extra  string
}

// New creates a Planner backed by the given model runner.
func New(runner ModelRunner) *Planner {
	return &Planner{runner: runner}
}

// WithNotes appends operator notes to the planning system prompt.
func (p *Planner) WithNotes(notes string) *Planner {
	p.extra = strings.TrimSpace(notes)
	return p
}

// Plan sends the feature request to the model and parses the reply into
// an ordered plan. An empty breakdown is an error.
func (p *Planner) Plan(ctx context.Context, request string) (*Plan, error) {
	request = strings.TrimSpace(request)
	if request == "" {
		return nil, fmt.Errorf("empty feature request")
	}

	system := planningSystemPrompt
	if p.extra != "" {
		system += "\n\nOperator notes:\n" + p.extra
	}

	reply, err := p.runner.RunWithSystem(ctx, system, request)
	if err != nil {
		return nil, fmt.Errorf("planning request: %w", err)
	}

	steps := ParseSteps(reply)
	if len(steps) == 0 {
		return nil, fmt.Errorf("model returned no plan steps")
	}

	return &Plan{
		Request:   request,
		Steps:     steps,
		Raw:       reply,
		CreatedAt: time.Now().UTC(),
	}, nil
}
