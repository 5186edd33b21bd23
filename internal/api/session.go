package api

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/bveerendrakumar/devflow/pkg/models"
)

// TaskSession manages the function-calling cycle for task execution.
// A task name and argument bag are forwarded to the model with the four
// task tools attached; returned tool_use blocks are executed and fed back
// until the model ends its turn.
type TaskSession struct {
	client        *Client
	executor      *TaskExecutor
	signals       *SignalManager
	onStream      func(StreamEvent)
	maxIterations int
	pausePoll     time.Duration
}

// StreamEvent represents an event during task execution for streaming to the UI.
type StreamEvent struct {
	Type    string // "text", "tool_use", "tool_result", "done", "error"
	Content string
	Tool    string
	Input   json.RawMessage
}

// TaskResult contains the results of a task session execution.
// Stopped is reported with a nil error; callers decide how to finish
// a stopped run.
type TaskResult struct {
	Output     string
	TokensIn   int64
	TokensOut  int64
	ToolCalls  int
	Iterations int
	Stopped    bool // True if stopped by the kill signal
}

// TaskSessionConfig contains configuration for a task session.
type TaskSessionConfig struct {
	Client        *Client
	Executor      *TaskExecutor
	Signals       *SignalManager
	MaxIterations int // Max API calls per task (0 = default)
}

// NewTaskSession creates a new task session with the given configuration.
func NewTaskSession(cfg TaskSessionConfig) *TaskSession {
	maxIter := cfg.MaxIterations
	if maxIter == 0 {
		maxIter = 10
	}

	return &TaskSession{
		client:        cfg.Client,
		executor:      cfg.Executor,
		signals:       cfg.Signals,
		maxIterations: maxIter,
		pausePoll:     time.Second,
	}
}

// SetStreamHandler sets a callback for streaming events during execution.
func (s *TaskSession) SetStreamHandler(fn func(StreamEvent)) {
	s.onStream = fn
}

func (s *TaskSession) emit(event StreamEvent) {
	if s.onStream != nil {
		s.onStream(event)
	}
}

const taskSystemPrompt = `You are a task execution agent in a software delivery workflow.
You are given one named task and its arguments. Invoke the matching tool with
the provided arguments, then summarize the tool's result in one short report.
Do not invoke tools other than the one matching the task.`

// ExecuteTask forwards a task call to the model and drives the tool cycle.
func (s *TaskSession) ExecuteTask(ctx context.Context, kind models.TaskKind, args map[string]string) (*TaskResult, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown task kind: %s", kind)
	}

	result := &TaskResult{}

	systemPrompt := taskSystemPrompt
	if s.signals != nil {
		if notes := s.signals.ReadNotes(); notes != "" {
			systemPrompt = fmt.Sprintf("%s\n\n## Project Notes\n%s", systemPrompt, notes)
		}
		if s.signals.ShouldStop() {
			result.Stopped = true
			return result, nil
		}
	}

	messages := []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock(formatTaskPrompt(kind, args))),
	}

	for result.Iterations < s.maxIterations {
		result.Iterations++

		if err := s.waitWhilePaused(ctx); err != nil {
			return result, err
		}
		if s.signals != nil && s.signals.ShouldStop() {
			result.Stopped = true
			return result, nil
		}

		resp, err := s.client.sdk().Messages.New(ctx, anthropic.MessageNewParams{
			Model:     s.client.Model(),
			MaxTokens: 4096,
			System: []anthropic.TextBlockParam{
				{Text: systemPrompt},
			},
			Messages: messages,
			Tools:    TaskToolDefinitions(),
		})
		if err != nil {
			s.emit(StreamEvent{Type: "error", Content: err.Error()})
			return result, fmt.Errorf("API call failed: %w", err)
		}

		result.TokensIn += resp.Usage.InputTokens
		result.TokensOut += resp.Usage.OutputTokens
		s.client.Tracker().Add(resp.Usage.InputTokens, resp.Usage.OutputTokens)

		var assistantBlocks []anthropic.ContentBlockParamUnion
		var toolResultBlocks []anthropic.ContentBlockParamUnion
		var textOutput string

		for _, block := range resp.Content {
			switch variant := block.AsAny().(type) {
			case anthropic.TextBlock:
				textOutput += variant.Text
				s.emit(StreamEvent{Type: "text", Content: variant.Text})
				assistantBlocks = append(assistantBlocks, anthropic.NewTextBlock(variant.Text))

			case anthropic.ToolUseBlock:
				result.ToolCalls++

				s.emit(StreamEvent{
					Type:  "tool_use",
					Tool:  variant.Name,
					Input: variant.Input,
				})
				assistantBlocks = append(assistantBlocks,
					anthropic.NewToolUseBlock(variant.ID, variant.Input, variant.Name))

				toolResult := s.executor.Execute(ctx, variant.Name, variant.Input)
				s.emit(StreamEvent{
					Type:    "tool_result",
					Tool:    variant.Name,
					Content: truncate(toolResult.Content, 500),
				})

				toolResultBlocks = append(toolResultBlocks,
					anthropic.NewToolResultBlock(variant.ID, toolResult.Content, toolResult.IsError))
			}
		}

		if resp.StopReason == anthropic.StopReasonEndTurn {
			result.Output = textOutput
			s.emit(StreamEvent{Type: "done"})
			return result, nil
		}

		messages = append(messages, anthropic.NewAssistantMessage(assistantBlocks...))
		if len(toolResultBlocks) > 0 {
			messages = append(messages, anthropic.NewUserMessage(toolResultBlocks...))
		}
	}

	return result, fmt.Errorf("max iterations (%d) reached", s.maxIterations)
}

// waitWhilePaused blocks while the pause signal file is present. A kill
// signal or context cancellation unblocks it; the kill itself is handled
// by the caller's stop check.
func (s *TaskSession) waitWhilePaused(ctx context.Context) error {
	if s.signals == nil || !s.signals.ShouldPause() {
		return nil
	}
	s.emit(StreamEvent{Type: "paused", Content: "pause signal received, waiting for resume"})

	ticker := time.NewTicker(s.pausePoll)
	defer ticker.Stop()
	for s.signals.ShouldPause() {
		if s.signals.ShouldStop() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	s.emit(StreamEvent{Type: "text", Content: "resumed"})
	return nil
}

// formatTaskPrompt renders the user turn for a task dispatch.
// Arguments are sorted by key so the prompt is deterministic.
func formatTaskPrompt(kind models.TaskKind, args map[string]string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Execute the %s task.\n", kind)

	if len(args) > 0 {
		sb.WriteString("Arguments:\n")
		keys := make([]string, 0, len(args))
		for k := range args {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&sb, "- %s: %s\n", k, args[k])
		}
	}

	return sb.String()
}
