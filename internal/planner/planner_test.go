package planner

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type fakeRunner struct {
	reply  string
	err    error
	system string
	prompt string
}

func (f *fakeRunner) RunWithSystem(_ context.Context, system, prompt string) (string, error) {
	f.system = system
	f.prompt = prompt
	return f.reply, f.err
}

func TestPlan(t *testing.T) {
	runner := &fakeRunner{reply: "1. Write handler: POST /login\n2. Add tests\n3. Deploy: staging first"}
	p := New(runner)

	plan, err := p.Plan(context.Background(), "add a login endpoint")
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if len(plan.Steps) != 3 {
		t.Fatalf("got %d steps, want 3", len(plan.Steps))
	}
	if plan.Steps[0].Title != "Write handler" || plan.Steps[0].Detail != "POST /login" {
		t.Errorf("first step = %+v", plan.Steps[0])
	}
	if plan.Request != "add a login endpoint" {
		t.Errorf("Request = %q", plan.Request)
	}
	if plan.Raw != runner.reply {
		t.Errorf("Raw not preserved")
	}
	if runner.prompt != "add a login endpoint" {
		t.Errorf("prompt sent = %q", runner.prompt)
	}
	if plan.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
}

func TestPlan_EmptyRequest(t *testing.T) {
	p := New(&fakeRunner{reply: "1. Step"})
	if _, err := p.Plan(context.Background(), "   "); err == nil {
		t.Error("expected error for empty request")
	}
}

func TestPlan_NoSteps(t *testing.T) {
	p := New(&fakeRunner{reply: "I cannot plan this request."})
	if _, err := p.Plan(context.Background(), "do something"); err == nil {
		t.Error("expected error for reply with no steps")
	}
}

func TestPlan_RunnerError(t *testing.T) {
	p := New(&fakeRunner{err: errors.New("boom")})
	if _, err := p.Plan(context.Background(), "do something"); err == nil {
		t.Error("expected runner error to propagate")
	}
}

func TestPlan_WithNotes(t *testing.T) {
	runner := &fakeRunner{reply: "1. Step"}
	p := New(runner).WithNotes("prefer small diffs")

	if _, err := p.Plan(context.Background(), "do something"); err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if !strings.Contains(runner.system, "prefer small diffs") {
		t.Errorf("system prompt missing notes: %q", runner.system)
	}
}

func TestHistoryStore(t *testing.T) {
	store, err := NewHistoryStore(filepath.Join(t.TempDir(), "plans.db"))
	if err != nil {
		t.Fatalf("NewHistoryStore failed: %v", err)
	}
	defer store.Close()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i, req := range []string{"first request", "second request", "third request"} {
		plan := &Plan{
			Request:   req,
			Steps:     []Step{{Order: 1, Title: "Step"}},
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if _, err := store.Record(plan); err != nil {
			t.Fatalf("Record(%q) failed: %v", req, err)
		}
	}

	entries, err := store.Recent(2)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Request != "third request" || entries[1].Request != "second request" {
		t.Errorf("order = [%s, %s], want newest first", entries[0].Request, entries[1].Request)
	}
	if entries[0].Steps != 1 {
		t.Errorf("Steps = %d, want 1", entries[0].Steps)
	}
	if entries[0].ID == "" {
		t.Error("entry ID not assigned")
	}
}
