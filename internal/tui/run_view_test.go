package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bveerendrakumar/devflow/internal/pipeline"
	"github.com/bveerendrakumar/devflow/pkg/models"
)

func TestApply_TaskProgression(t *testing.T) {
	v := NewRunView("add login", nil)

	v.apply(pipeline.Event{Type: pipeline.EventTaskStarted, Task: models.TaskGenerateCode})
	if v.tasks[0].status != models.TaskStatusRunning {
		t.Errorf("generate_code status = %q, want running", v.tasks[0].status)
	}

	v.apply(pipeline.Event{Type: pipeline.EventTaskCompleted, Task: models.TaskGenerateCode})
	if v.tasks[0].status != models.TaskStatusDone {
		t.Errorf("generate_code status = %q, want done", v.tasks[0].status)
	}
	if v.tasks[1].status != models.TaskStatusPending {
		t.Errorf("review_code status = %q, want pending", v.tasks[1].status)
	}
}

func TestApply_RejectedVerdictMarksTask(t *testing.T) {
	v := NewRunView("add login", nil)

	v.apply(pipeline.Event{Type: pipeline.EventTaskStarted, Task: models.TaskRunTests})
	v.apply(pipeline.Event{
		Type: pipeline.EventVerdict,
		Verdict: &models.Verdict{
			Source:  models.VerdictSourceTask,
			Subject: "run_tests",
			Reason:  "tests failed",
		},
	})

	if v.tasks[2].status != models.TaskStatusRejected {
		t.Errorf("run_tests status = %q, want rejected", v.tasks[2].status)
	}
}

func TestApply_RestartResetsTasks(t *testing.T) {
	v := NewRunView("add login", nil)

	v.apply(pipeline.Event{Type: pipeline.EventTaskCompleted, Task: models.TaskGenerateCode})
	v.apply(pipeline.Event{Type: pipeline.EventRestart, Attempt: 2})

	if v.attempt != 2 {
		t.Errorf("attempt = %d, want 2", v.attempt)
	}
	for _, task := range v.tasks {
		if task.status != models.TaskStatusPending {
			t.Errorf("task %s status = %q, want pending after restart", task.kind, task.status)
		}
	}
}

func TestApply_RunDone(t *testing.T) {
	v := NewRunView("add login", nil)

	v.apply(pipeline.Event{Type: pipeline.EventRunDone, Phase: models.RunStatusFailed, Err: errors.New("boom")})
	if !v.done || !v.Failed() {
		t.Errorf("done=%v failed=%v, want both true", v.done, v.Failed())
	}
	if v.Err() == nil {
		t.Error("Err() = nil, want run error")
	}

	v = NewRunView("add login", nil)
	v.apply(pipeline.Event{Type: pipeline.EventRunDone, Phase: models.RunStatusDone})
	if !v.done || v.Failed() {
		t.Errorf("done=%v failed=%v, want done and not failed", v.done, v.Failed())
	}
}

func TestUpdate_QuitKeys(t *testing.T) {
	keys := []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune("q")},
		{Type: tea.KeyCtrlC},
	}
	for _, key := range keys {
		v := NewRunView("add login", nil)
		_, cmd := v.Update(key)
		if cmd == nil {
			t.Errorf("key %q did not produce a quit command", key.String())
		}
	}
}

func TestView_ShowsRequestAndTasks(t *testing.T) {
	v := NewRunView("add a login endpoint", nil)
	out := v.View()

	if !strings.Contains(out, "add a login endpoint") {
		t.Error("view missing request text")
	}
	for _, kind := range models.AllTaskKinds() {
		if !strings.Contains(out, string(kind)) {
			t.Errorf("view missing task %s", kind)
		}
	}
}

func TestStatusGlyph(t *testing.T) {
	tests := []struct {
		status models.TaskStatus
		want   string
	}{
		{models.TaskStatusDone, "✓"},
		{models.TaskStatusRunning, "▸"},
		{models.TaskStatusRejected, "✗"},
		{models.TaskStatusFailed, "✗"},
		{models.TaskStatusPending, "·"},
	}
	for _, tt := range tests {
		if got := statusGlyph(tt.status); got != tt.want {
			t.Errorf("statusGlyph(%s) = %q, want %q", tt.status, got, tt.want)
		}
	}
}
