package api

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSignalManager_KillAndClear(t *testing.T) {
	dir := t.TempDir()
	sm, err := NewSignalManager(dir)
	if err != nil {
		t.Fatalf("NewSignalManager failed: %v", err)
	}
	defer sm.Close()

	if sm.ShouldStop() {
		t.Fatal("fresh manager should not be stopped")
	}

	if err := sm.SendKill(); err != nil {
		t.Fatalf("SendKill failed: %v", err)
	}

	// ShouldStop stats the file directly, so detection does not depend on
	// the watcher having delivered the event.
	if !sm.ShouldStop() {
		t.Error("ShouldStop should detect the kill file")
	}

	sm.ClearSignals()
	if sm.ShouldStop() {
		t.Error("ShouldStop should be false after ClearSignals")
	}
}

func TestSignalManager_Pause(t *testing.T) {
	sm, err := NewSignalManager(t.TempDir())
	if err != nil {
		t.Fatalf("NewSignalManager failed: %v", err)
	}
	defer sm.Close()

	if sm.ShouldPause() {
		t.Fatal("fresh manager should not be paused")
	}
	if err := sm.SendPause(); err != nil {
		t.Fatalf("SendPause failed: %v", err)
	}
	if !sm.ShouldPause() {
		t.Error("ShouldPause should detect the pause file")
	}

	// Pause is not sticky: removing the file resumes.
	if err := sm.Resume(); err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	if sm.ShouldPause() {
		t.Error("ShouldPause should be false after Resume")
	}

	// Resume with no pause file pending is a no-op.
	if err := sm.Resume(); err != nil {
		t.Errorf("Resume without a pause file returned %v", err)
	}
}

func TestSignalManager_Notes(t *testing.T) {
	dir := t.TempDir()
	sm, err := NewSignalManager(dir)
	if err != nil {
		t.Fatalf("NewSignalManager failed: %v", err)
	}
	defer sm.Close()

	notes := sm.ReadNotes()
	if !strings.Contains(notes, "Project Notes") {
		t.Errorf("initial notes file missing header: %q", notes)
	}

	if err := sm.AppendNote("use table tests"); err != nil {
		t.Fatalf("AppendNote failed: %v", err)
	}
	if !strings.Contains(sm.ReadNotes(), "use table tests") {
		t.Error("appended note not found")
	}

	if _, err := os.Stat(filepath.Join(dir, ".devflow", "notes.md")); err != nil {
		t.Errorf("notes file missing: %v", err)
	}
}

func TestSignalManager_CreatesDirectories(t *testing.T) {
	dir := t.TempDir()
	sm, err := NewSignalManager(dir)
	if err != nil {
		t.Fatalf("NewSignalManager failed: %v", err)
	}
	defer sm.Close()

	if _, err := os.Stat(filepath.Join(dir, ".devflow", "signals")); err != nil {
		t.Errorf("signals directory missing: %v", err)
	}
	if sm.DevflowDir() != filepath.Join(dir, ".devflow") {
		t.Errorf("DevflowDir = %q", sm.DevflowDir())
	}
}
