// Package planner turns a feature request into an ordered step plan.
package planner

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Step is a single planned unit of work.
type Step struct {
	Order  int    `yaml:"order"`
	Title  string `yaml:"title"`
	Detail string `yaml:"detail,omitempty"`
}

// Plan is an ordered breakdown of a feature request.
type Plan struct {
	Request   string    `yaml:"request"`
	Steps     []Step    `yaml:"steps"`
	Raw       string    `yaml:"-"`
	CreatedAt time.Time `yaml:"created_at"`
}

// Text renders the plan as numbered lines, the form the validator
// and the executors consume.
func (p *Plan) Text() string {
	var b strings.Builder
	for _, s := range p.Steps {
		fmt.Fprintf(&b, "%d. %s", s.Order, s.Title)
		if s.Detail != "" {
			fmt.Fprintf(&b, ": %s", s.Detail)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

var stepPrefixRe = regexp.MustCompile(`^(\d+[.)]\s*|[-*•]\s+)`)

// ParseSteps extracts ordered steps from a free-text breakdown.
// Numbered and bulleted lines become steps; a "title: detail" line
// splits at the first colon. Lines that are neither are treated as
// continuation detail for the previous step.
func ParseSteps(text string) []Step {
	var steps []Step

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if m := stepPrefixRe.FindString(line); m != "" {
			body := strings.TrimSpace(strings.TrimPrefix(line, m))
			if body == "" {
				continue
			}
			step := Step{Order: len(steps) + 1}
			if title, detail, ok := strings.Cut(body, ":"); ok {
				step.Title = strings.TrimSpace(title)
				step.Detail = strings.TrimSpace(detail)
			} else {
				step.Title = body
			}
			steps = append(steps, step)
			continue
		}

		// Continuation line: fold into the previous step's detail.
		if len(steps) > 0 {
			last := &steps[len(steps)-1]
			if last.Detail == "" {
				last.Detail = line
			} else {
				last.Detail += " " + line
			}
		}
	}

	return steps
}

// WriteYAML exports the plan to a YAML file.
func (p *Plan) WriteYAML(path string) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal plan: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write plan file: %w", err)
	}
	return nil
}

// ReadYAML imports a plan from a YAML file.
func ReadYAML(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan file: %w", err)
	}

	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse plan file: %w", err)
	}
	if len(p.Steps) == 0 {
		return nil, fmt.Errorf("plan file %s contains no steps", path)
	}
	return &p, nil
}
