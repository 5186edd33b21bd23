// Package pipeline runs the plan → validate → execute → validate workflow.
package pipeline

import (
	"sync/atomic"
	"time"

	"github.com/bveerendrakumar/devflow/pkg/models"
)

// EventType identifies a kind of pipeline event.
type EventType string

const (
	// EventRunStarted indicates a run has begun.
	EventRunStarted EventType = "run_started"
	// EventPhaseChanged indicates the run entered a new phase.
	EventPhaseChanged EventType = "phase_changed"
	// EventPlanReady indicates a plan was produced.
	EventPlanReady EventType = "plan_ready"
	// EventTaskStarted indicates a task call began.
	EventTaskStarted EventType = "task_started"
	// EventTaskCompleted indicates a task call finished with an approved result.
	EventTaskCompleted EventType = "task_completed"
	// EventVerdict indicates the validator issued a verdict.
	EventVerdict EventType = "verdict"
	// EventRestart indicates the workflow is restarting from planning.
	EventRestart EventType = "restart"
	// EventRunDone indicates the run finished, successfully or not.
	EventRunDone EventType = "run_done"
)

// Event is emitted by the engine for the TUI or headless printer.
type Event struct {
	Type      EventType
	RunID     string
	Phase     models.RunStatus
	Task      models.TaskKind
	Message   string
	Verdict   *models.Verdict
	Attempt   int
	Err       error
	Timestamp time.Time
}

// Emitter delivers events to a single subscriber without blocking the
// engine. Events are dropped when the subscriber falls too far behind.
type Emitter struct {
	events  chan Event
	dropped atomic.Uint64
}

// NewEmitter creates an Emitter with the given buffer size.
func NewEmitter(bufferSize int) *Emitter {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &Emitter{events: make(chan Event, bufferSize)}
}

// Emit sends an event, waiting briefly if the buffer is full.
func (e *Emitter) Emit(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case e.events <- event:
		return
	default:
	}

	select {
	case e.events <- event:
	case <-time.After(100 * time.Millisecond):
		e.dropped.Add(1)
	}
}

// Events returns the subscriber side of the event channel.
func (e *Emitter) Events() <-chan Event {
	return e.events
}

// Dropped returns how many events were dropped.
func (e *Emitter) Dropped() uint64 {
	return e.dropped.Load()
}

// Close closes the event channel. Emit must not be called afterward.
func (e *Emitter) Close() {
	close(e.events)
}
