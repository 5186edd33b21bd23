package api

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/bveerendrakumar/devflow/pkg/models"
)

func TestFormatTaskPrompt(t *testing.T) {
	prompt := formatTaskPrompt(models.TaskDeployArtifact, map[string]string{
		"environment": "staging",
		"artifact":    "dist/app.tar.gz",
	})

	if !strings.Contains(prompt, "deploy_artifact") {
		t.Errorf("prompt should name the task, got %q", prompt)
	}

	// Arguments are sorted by key for deterministic prompts.
	artIdx := strings.Index(prompt, "artifact: dist/app.tar.gz")
	envIdx := strings.Index(prompt, "environment: staging")
	if artIdx == -1 || envIdx == -1 {
		t.Fatalf("prompt missing arguments: %q", prompt)
	}
	if artIdx > envIdx {
		t.Error("arguments should be sorted by key")
	}
}

func TestFormatTaskPrompt_NoArgs(t *testing.T) {
	prompt := formatTaskPrompt(models.TaskRunTests, nil)

	if !strings.Contains(prompt, "run_tests") {
		t.Errorf("prompt should name the task, got %q", prompt)
	}
	if strings.Contains(prompt, "Arguments") {
		t.Error("prompt should omit the arguments section when empty")
	}
}

func TestNewTaskSession_Defaults(t *testing.T) {
	s := NewTaskSession(TaskSessionConfig{})
	if s.maxIterations != 10 {
		t.Errorf("default maxIterations = %d, want 10", s.maxIterations)
	}

	s = NewTaskSession(TaskSessionConfig{MaxIterations: 3})
	if s.maxIterations != 3 {
		t.Errorf("maxIterations = %d, want 3", s.maxIterations)
	}
}

func TestExecuteTask_KillSignalReportsStoppedWithoutError(t *testing.T) {
	sm, err := NewSignalManager(t.TempDir())
	if err != nil {
		t.Fatalf("NewSignalManager failed: %v", err)
	}
	defer sm.Close()
	if err := sm.SendKill(); err != nil {
		t.Fatalf("SendKill failed: %v", err)
	}

	// The pre-flight stop check fires before any API call is made.
	s := NewTaskSession(TaskSessionConfig{Signals: sm})
	result, err := s.ExecuteTask(context.Background(), models.TaskGenerateCode, nil)
	if err != nil {
		t.Fatalf("ExecuteTask returned error %v, want nil with Stopped set", err)
	}
	if result == nil || !result.Stopped {
		t.Fatal("result should be marked Stopped")
	}
}

func TestWaitWhilePaused(t *testing.T) {
	sm, err := NewSignalManager(t.TempDir())
	if err != nil {
		t.Fatalf("NewSignalManager failed: %v", err)
	}
	defer sm.Close()

	s := NewTaskSession(TaskSessionConfig{Signals: sm})
	s.pausePoll = 10 * time.Millisecond

	// Not paused: returns immediately.
	if err := s.waitWhilePaused(context.Background()); err != nil {
		t.Fatalf("unpaused wait returned %v", err)
	}

	// Paused: blocks until the pause file is removed.
	if err := sm.SendPause(); err != nil {
		t.Fatalf("SendPause failed: %v", err)
	}
	done := make(chan error, 1)
	go func() {
		done <- s.waitWhilePaused(context.Background())
	}()

	select {
	case err := <-done:
		t.Fatalf("wait returned early: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	if err := sm.Resume(); err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("wait after resume returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("wait did not unblock after resume")
	}
}

func TestWaitWhilePaused_ContextCancel(t *testing.T) {
	sm, err := NewSignalManager(t.TempDir())
	if err != nil {
		t.Fatalf("NewSignalManager failed: %v", err)
	}
	defer sm.Close()
	if err := sm.SendPause(); err != nil {
		t.Fatalf("SendPause failed: %v", err)
	}

	s := NewTaskSession(TaskSessionConfig{Signals: sm})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := s.waitWhilePaused(ctx); err == nil {
		t.Fatal("cancelled wait should return the context error")
	}
}

func TestWaitWhilePaused_KillUnblocks(t *testing.T) {
	sm, err := NewSignalManager(t.TempDir())
	if err != nil {
		t.Fatalf("NewSignalManager failed: %v", err)
	}
	defer sm.Close()
	if err := sm.SendPause(); err != nil {
		t.Fatalf("SendPause failed: %v", err)
	}
	if err := sm.SendKill(); err != nil {
		t.Fatalf("SendKill failed: %v", err)
	}

	s := NewTaskSession(TaskSessionConfig{Signals: sm})
	if err := s.waitWhilePaused(context.Background()); err != nil {
		t.Fatalf("killed wait returned %v, want nil (stop check handles it)", err)
	}
}
