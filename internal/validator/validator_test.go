package validator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bveerendrakumar/devflow/pkg/models"
)

type fakeRunner struct {
	reply  string
	err    error
	prompt string
}

func (f *fakeRunner) RunWithSystem(_ context.Context, _, prompt string) (string, error) {
	f.prompt = prompt
	return f.reply, f.err
}

func TestContainsError(t *testing.T) {
	tests := []struct {
		s    string
		want bool
	}{
		{"all tests passed", false},
		{"an error occurred", true},
		{"ERROR: compilation failed", true},
		{"ErRoR somewhere", true},
		{"no problems found", false},
		{"", false},
		{"terror in the codebase", true},
	}

	for _, tt := range tests {
		if got := ContainsError(tt.s); got != tt.want {
			t.Errorf("ContainsError(%q) = %v, want %v", tt.s, got, tt.want)
		}
	}
}

func TestValidatePlan_Structured(t *testing.T) {
	tests := []struct {
		name         string
		reply        string
		wantApproved bool
		wantReason   string
	}{
		{
			name:         "approved",
			reply:        "APPROVED: steps are ordered and complete",
			wantApproved: true,
			wantReason:   "steps are ordered and complete",
		},
		{
			name:         "rejected",
			reply:        "REJECTED: deployment step is missing",
			wantApproved: false,
			wantReason:   "deployment step is missing",
		},
		{
			name:         "verdict after preamble line",
			reply:        "Reviewing the plan now.\nAPPROVED: looks solid",
			wantApproved: true,
			wantReason:   "looks solid",
		},
		{
			name:         "lowercase prefix still structured",
			reply:        "approved: fine",
			wantApproved: true,
			wantReason:   "fine",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New(&fakeRunner{reply: tt.reply})
			verdict, err := v.ValidatePlan(context.Background(), "request", "plan")
			if err != nil {
				t.Fatalf("ValidatePlan failed: %v", err)
			}
			if !verdict.Structured {
				t.Error("verdict not marked structured")
			}
			if verdict.Approved != tt.wantApproved {
				t.Errorf("Approved = %v, want %v", verdict.Approved, tt.wantApproved)
			}
			if verdict.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", verdict.Reason, tt.wantReason)
			}
			if verdict.Source != models.VerdictSourcePlan {
				t.Errorf("Source = %q, want plan", verdict.Source)
			}
			if verdict.Subject != "plan" {
				t.Errorf("Subject = %q, want plan", verdict.Subject)
			}
		})
	}
}

func TestValidateResult_Fallback(t *testing.T) {
	tests := []struct {
		name         string
		reply        string
		wantApproved bool
	}{
		{"mentions error", "the run reported an error in auth_test.go", false},
		{"clean reply", "the output looks correct and complete", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New(&fakeRunner{reply: tt.reply})
			verdict, err := v.ValidateResult(context.Background(), models.TaskRunTests, "output")
			if err != nil {
				t.Fatalf("ValidateResult failed: %v", err)
			}
			if verdict.Structured {
				t.Error("fallback verdict marked structured")
			}
			if verdict.Approved != tt.wantApproved {
				t.Errorf("Approved = %v, want %v", verdict.Approved, tt.wantApproved)
			}
			if verdict.Source != models.VerdictSourceTask {
				t.Errorf("Source = %q, want task", verdict.Source)
			}
			if verdict.Subject != "run_tests" {
				t.Errorf("Subject = %q, want run_tests", verdict.Subject)
			}
			if verdict.Raw != tt.reply {
				t.Errorf("Raw = %q, want %q", verdict.Raw, tt.reply)
			}
			if !tt.wantApproved {
				if len(verdict.FlaggedTerms) != 1 || verdict.FlaggedTerms[0] != "error" {
					t.Errorf("FlaggedTerms = %v, want [error]", verdict.FlaggedTerms)
				}
			} else if len(verdict.FlaggedTerms) != 0 {
				t.Errorf("FlaggedTerms = %v, want empty", verdict.FlaggedTerms)
			}
		})
	}
}

func TestValidateResult_PromptIncludesTaskAndOutput(t *testing.T) {
	runner := &fakeRunner{reply: "APPROVED: ok"}
	v := New(runner)
	if _, err := v.ValidateResult(context.Background(), models.TaskDeployArtifact, "deployed fine"); err != nil {
		t.Fatalf("ValidateResult failed: %v", err)
	}
	if !strings.Contains(runner.prompt, "deploy_artifact") || !strings.Contains(runner.prompt, "deployed fine") {
		t.Errorf("prompt = %q, missing task or output", runner.prompt)
	}
}

func TestValidatePlan_RunnerError(t *testing.T) {
	v := New(&fakeRunner{err: errors.New("boom")})
	if _, err := v.ValidatePlan(context.Background(), "r", "p"); err == nil {
		t.Error("expected runner error to propagate")
	}
}
