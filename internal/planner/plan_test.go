package planner

import (
	"path/filepath"
	"testing"
	"time"
)

func TestParseSteps(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []Step
	}{
		{
			name: "numbered with details",
			text: "1. Write handler: add POST /login to the router\n2. Add tests: cover success and bad password\n3. Deploy",
			want: []Step{
				{Order: 1, Title: "Write handler", Detail: "add POST /login to the router"},
				{Order: 2, Title: "Add tests", Detail: "cover success and bad password"},
				{Order: 3, Title: "Deploy"},
			},
		},
		{
			name: "bulleted",
			text: "- Generate the code\n- Review it\n* Run the suite",
			want: []Step{
				{Order: 1, Title: "Generate the code"},
				{Order: 2, Title: "Review it"},
				{Order: 3, Title: "Run the suite"},
			},
		},
		{
			name: "continuation lines fold into previous step",
			text: "1. Write handler\nit must reject empty passwords\n2. Add tests",
			want: []Step{
				{Order: 1, Title: "Write handler", Detail: "it must reject empty passwords"},
				{Order: 2, Title: "Add tests"},
			},
		},
		{
			name: "preamble before first step is dropped",
			text: "Here is the plan:\n\n1. Do the thing",
			want: []Step{
				{Order: 1, Title: "Do the thing"},
			},
		},
		{
			name: "paren numbering",
			text: "1) First\n2) Second: with detail",
			want: []Step{
				{Order: 1, Title: "First"},
				{Order: 2, Title: "Second", Detail: "with detail"},
			},
		},
		{
			name: "empty text",
			text: "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseSteps(tt.text)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d steps, want %d: %+v", len(got), len(tt.want), got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("step %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestPlanText(t *testing.T) {
	p := &Plan{
		Steps: []Step{
			{Order: 1, Title: "Write handler", Detail: "add the endpoint"},
			{Order: 2, Title: "Deploy"},
		},
	}
	want := "1. Write handler: add the endpoint\n2. Deploy"
	if got := p.Text(); got != want {
		t.Errorf("Text() = %q, want %q", got, want)
	}
}

func TestPlanYAMLRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.yaml")
	p := &Plan{
		Request: "add a login endpoint",
		Steps: []Step{
			{Order: 1, Title: "Write handler", Detail: "POST /login"},
			{Order: 2, Title: "Add tests"},
		},
		CreatedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}

	if err := p.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML failed: %v", err)
	}

	got, err := ReadYAML(path)
	if err != nil {
		t.Fatalf("ReadYAML failed: %v", err)
	}
	if got.Request != p.Request {
		t.Errorf("Request = %q, want %q", got.Request, p.Request)
	}
	if len(got.Steps) != 2 {
		t.Fatalf("got %d steps, want 2", len(got.Steps))
	}
	if got.Steps[0] != p.Steps[0] || got.Steps[1] != p.Steps[1] {
		t.Errorf("steps = %+v, want %+v", got.Steps, p.Steps)
	}
}

func TestReadYAML_Errors(t *testing.T) {
	if _, err := ReadYAML(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	empty := filepath.Join(t.TempDir(), "empty.yaml")
	p := &Plan{Request: "nothing"}
	if err := p.WriteYAML(empty); err != nil {
		t.Fatalf("WriteYAML failed: %v", err)
	}
	if _, err := ReadYAML(empty); err == nil {
		t.Error("expected error for plan with no steps")
	}
}
