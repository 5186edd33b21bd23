// Package tui provides the terminal user interface for devflow.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bveerendrakumar/devflow/internal/pipeline"
	"github.com/bveerendrakumar/devflow/pkg/models"
)

const maxLogLines = 200

// taskRow tracks the display state of one task in the fixed sequence.
type taskRow struct {
	kind   models.TaskKind
	status models.TaskStatus
}

// RunView displays a live pipeline run.
type RunView struct {
	request string
	events  <-chan pipeline.Event

	spin    spinner.Model
	phase   models.RunStatus
	attempt int
	tasks   []taskRow
	log     []string
	done    bool
	failed  bool
	err     error
	started time.Time
	width   int

	headerStyle   lipgloss.Style
	phaseStyle    lipgloss.Style
	doneStyle     lipgloss.Style
	failStyle     lipgloss.Style
	pendingStyle  lipgloss.Style
	logStyle      lipgloss.Style
	logLabelStyle lipgloss.Style
}

// NewRunView creates a run view subscribed to the given event channel.
func NewRunView(request string, events <-chan pipeline.Event) *RunView {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	var tasks []taskRow
	for _, kind := range models.AllTaskKinds() {
		tasks = append(tasks, taskRow{kind: kind, status: models.TaskStatusPending})
	}

	return &RunView{
		request: request,
		events:  events,
		spin:    sp,
		phase:   models.RunStatusPending,
		attempt: 1,
		tasks:   tasks,
		started: time.Now(),

		headerStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(lipgloss.Color("238")),

		phaseStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true),

		doneStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("34")),

		failStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")),

		pendingStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),

		logStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")),

		logLabelStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")),
	}
}

// eventMsg wraps a pipeline event for the bubbletea loop.
type eventMsg struct {
	event pipeline.Event
	ok    bool
}

func (v *RunView) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		event, ok := <-v.events
		return eventMsg{event: event, ok: ok}
	}
}

// Init starts the spinner and the event subscription.
func (v *RunView) Init() tea.Cmd {
	return tea.Batch(v.spin.Tick, v.waitForEvent())
}

// Update handles key, spinner, and pipeline event messages.
func (v *RunView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		return v, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return v, tea.Quit
		}
		return v, nil

	case spinner.TickMsg:
		if v.done {
			return v, nil
		}
		var cmd tea.Cmd
		v.spin, cmd = v.spin.Update(msg)
		return v, cmd

	case eventMsg:
		if !msg.ok {
			v.done = true
			return v, tea.Quit
		}
		v.apply(msg.event)
		if v.done {
			return v, tea.Quit
		}
		return v, v.waitForEvent()
	}

	return v, nil
}

func (v *RunView) apply(event pipeline.Event) {
	switch event.Type {
	case pipeline.EventRunStarted:
		v.appendLog(fmt.Sprintf("run started: %s", event.Message))

	case pipeline.EventPhaseChanged:
		v.phase = event.Phase
		if event.Attempt > 0 {
			v.attempt = event.Attempt
		}

	case pipeline.EventPlanReady:
		v.appendLog("plan ready")
		for _, line := range strings.Split(event.Message, "\n") {
			v.appendLog("  " + line)
		}

	case pipeline.EventTaskStarted:
		v.setTaskStatus(event.Task, models.TaskStatusRunning)
		v.appendLog(fmt.Sprintf("task %s started", event.Task))

	case pipeline.EventTaskCompleted:
		v.setTaskStatus(event.Task, models.TaskStatusDone)
		v.appendLog(fmt.Sprintf("task %s completed", event.Task))

	case pipeline.EventVerdict:
		if event.Verdict == nil {
			return
		}
		label := "approved"
		if !event.Verdict.Approved {
			label = "rejected"
		}
		v.appendLog(fmt.Sprintf("verdict on %s: %s (%s)", event.Verdict.Subject, label, event.Verdict.Reason))
		if !event.Verdict.Approved && event.Verdict.Source == models.VerdictSourceTask {
			v.setTaskStatus(models.TaskKind(event.Verdict.Subject), models.TaskStatusRejected)
		}

	case pipeline.EventRestart:
		v.attempt = event.Attempt
		v.resetTasks()
		v.appendLog(fmt.Sprintf("restarting workflow (attempt %d)", event.Attempt))

	case pipeline.EventRunDone:
		v.done = true
		v.phase = event.Phase
		v.err = event.Err
		v.failed = event.Phase != models.RunStatusDone
		if event.Err != nil {
			v.appendLog("run failed: " + event.Err.Error())
		} else {
			v.appendLog("run complete")
		}
	}
}

func (v *RunView) setTaskStatus(kind models.TaskKind, status models.TaskStatus) {
	for i := range v.tasks {
		if v.tasks[i].kind == kind {
			v.tasks[i].status = status
		}
	}
}

func (v *RunView) resetTasks() {
	for i := range v.tasks {
		v.tasks[i].status = models.TaskStatusPending
	}
}

func (v *RunView) appendLog(line string) {
	v.log = append(v.log, line)
	if len(v.log) > maxLogLines {
		v.log = v.log[len(v.log)-maxLogLines:]
	}
}

func statusGlyph(status models.TaskStatus) string {
	switch status {
	case models.TaskStatusDone:
		return "✓"
	case models.TaskStatusRunning:
		return "▸"
	case models.TaskStatusRejected, models.TaskStatusFailed:
		return "✗"
	default:
		return "·"
	}
}

// View renders the run display.
func (v *RunView) View() string {
	var b strings.Builder

	b.WriteString(v.headerStyle.Render("devflow run"))
	b.WriteString("\n")
	b.WriteString(v.logLabelStyle.Render("request: "))
	b.WriteString(v.logStyle.Render(v.request))
	b.WriteString("\n\n")

	if v.done {
		if v.failed {
			b.WriteString(v.failStyle.Render(fmt.Sprintf("● %s", v.phase)))
		} else {
			b.WriteString(v.doneStyle.Render("● done"))
		}
	} else {
		b.WriteString(v.spin.View())
		b.WriteString(v.phaseStyle.Render(string(v.phase)))
	}
	if v.attempt > 1 {
		b.WriteString(v.logLabelStyle.Render(fmt.Sprintf("  attempt %d", v.attempt)))
	}
	b.WriteString("\n\n")

	for _, task := range v.tasks {
		glyph := statusGlyph(task.status)
		line := fmt.Sprintf("  %s %s", glyph, task.kind)
		switch task.status {
		case models.TaskStatusDone:
			b.WriteString(v.doneStyle.Render(line))
		case models.TaskStatusRejected, models.TaskStatusFailed:
			b.WriteString(v.failStyle.Render(line))
		case models.TaskStatusRunning:
			b.WriteString(v.phaseStyle.Render(line))
		default:
			b.WriteString(v.pendingStyle.Render(line))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	logLines := v.log
	if len(logLines) > 12 {
		logLines = logLines[len(logLines)-12:]
	}
	for _, line := range logLines {
		b.WriteString(v.logStyle.Render("  " + line))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.pendingStyle.Render("  q to quit"))
	b.WriteString("\n")

	return b.String()
}

// Failed reports whether the run finished unsuccessfully.
func (v *RunView) Failed() bool {
	return v.failed
}

// Err returns the run error, if any.
func (v *RunView) Err() error {
	return v.err
}
