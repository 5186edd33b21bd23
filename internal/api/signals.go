package api

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// SignalManager handles operator signals via the .devflow directory.
// Kill and pause files under .devflow/signals stop or pause a running
// workflow; notes.md is injected into task system prompts.
type SignalManager struct {
	devflowDir string

	mu          sync.RWMutex
	stopSignal  bool
	pauseSignal bool

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewSignalManager creates a signal manager rooted at the given project path.
func NewSignalManager(projectPath string) (*SignalManager, error) {
	devflowDir := filepath.Join(projectPath, ".devflow")

	if err := os.MkdirAll(filepath.Join(devflowDir, "signals"), 0755); err != nil {
		return nil, err
	}

	notesPath := filepath.Join(devflowDir, "notes.md")
	if _, err := os.Stat(notesPath); os.IsNotExist(err) {
		initial := `# Project Notes

Conventions and constraints injected into every task execution.

<!-- Add notes here -->
`
		if err := os.WriteFile(notesPath, []byte(initial), 0644); err != nil {
			return nil, err
		}
	}

	sm := &SignalManager{
		devflowDir: devflowDir,
		done:       make(chan struct{}),
	}

	// Watcher is best effort; ShouldStop falls back to stat.
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return sm, nil
	}
	sm.watcher = watcher

	signalsDir := filepath.Join(devflowDir, "signals")
	if err := watcher.Add(signalsDir); err != nil {
		watcher.Close()
		sm.watcher = nil
		return sm, nil
	}

	go sm.watchSignals()

	return sm, nil
}

// watchSignals monitors the signals directory for kill/pause files.
func (sm *SignalManager) watchSignals() {
	for {
		select {
		case <-sm.done:
			return
		case event, ok := <-sm.watcher.Events:
			if !ok {
				return
			}
			sm.mu.Lock()
			base := filepath.Base(event.Name)
			if base == "kill" && (event.Op&fsnotify.Create != 0 || event.Op&fsnotify.Write != 0) {
				sm.stopSignal = true
			} else if base == "pause" {
				if event.Op&fsnotify.Create != 0 || event.Op&fsnotify.Write != 0 {
					sm.pauseSignal = true
				} else if event.Op&fsnotify.Remove != 0 {
					sm.pauseSignal = false
				}
			}
			sm.mu.Unlock()
		case <-sm.watcher.Errors:
			// Keep watching.
		}
	}
}

// ReadNotes returns the current contents of the notes file.
func (sm *SignalManager) ReadNotes() string {
	content, err := os.ReadFile(filepath.Join(sm.devflowDir, "notes.md"))
	if err != nil {
		return ""
	}
	return string(content)
}

// AppendNote adds a timestamped note to the notes file.
func (sm *SignalManager) AppendNote(note string) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	path := filepath.Join(sm.devflowDir, "notes.md")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.WriteString("\n- " + time.Now().Format("2006-01-02 15:04") + ": " + note + "\n")
	return err
}

// ShouldStop returns true if a stop signal has been received.
func (sm *SignalManager) ShouldStop() bool {
	// Check the file directly in case the watcher missed it.
	if _, err := os.Stat(filepath.Join(sm.devflowDir, "signals", "kill")); err == nil {
		sm.mu.Lock()
		sm.stopSignal = true
		sm.mu.Unlock()
	}

	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.stopSignal
}

// ShouldPause returns true while the pause signal file exists. Unlike the
// kill signal, pause is not sticky: removing the file resumes execution.
func (sm *SignalManager) ShouldPause() bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if _, err := os.Stat(filepath.Join(sm.devflowDir, "signals", "pause")); err == nil {
		sm.pauseSignal = true
	} else if os.IsNotExist(err) {
		sm.pauseSignal = false
	}
	return sm.pauseSignal
}

// SendKill creates a kill signal file.
func (sm *SignalManager) SendKill() error {
	path := filepath.Join(sm.devflowDir, "signals", "kill")
	return os.WriteFile(path, []byte(time.Now().Format(time.RFC3339)), 0644)
}

// SendPause creates a pause signal file.
func (sm *SignalManager) SendPause() error {
	path := filepath.Join(sm.devflowDir, "signals", "pause")
	return os.WriteFile(path, []byte(time.Now().Format(time.RFC3339)), 0644)
}

// Resume removes the pause signal file.
func (sm *SignalManager) Resume() error {
	sm.mu.Lock()
	sm.pauseSignal = false
	sm.mu.Unlock()

	err := os.Remove(filepath.Join(sm.devflowDir, "signals", "pause"))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// ClearSignals removes all signal files and resets signal state.
func (sm *SignalManager) ClearSignals() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.stopSignal = false
	sm.pauseSignal = false

	os.Remove(filepath.Join(sm.devflowDir, "signals", "kill"))
	os.Remove(filepath.Join(sm.devflowDir, "signals", "pause"))
}

// DevflowDir returns the path to the .devflow directory.
func (sm *SignalManager) DevflowDir() string {
	return sm.devflowDir
}

// Close shuts down the signal manager.
func (sm *SignalManager) Close() {
	close(sm.done)
	if sm.watcher != nil {
		sm.watcher.Close()
	}
}
