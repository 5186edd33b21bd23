package api

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/bveerendrakumar/devflow/internal/protect"
	"github.com/bveerendrakumar/devflow/pkg/models"
)

// TaskExecutor executes task tool calls from the model session.
// Execution is simulated: each operation renders a result string from its
// arguments rather than compiling, testing, or shipping anything.
type TaskExecutor struct {
	workDir string
	guard   *protect.Guard
}

// NewTaskExecutor creates a task executor for the given working directory.
// The guard may be nil, in which case deployments are not path-checked.
func NewTaskExecutor(workDir string, guard *protect.Guard) *TaskExecutor {
	return &TaskExecutor{workDir: workDir, guard: guard}
}

// ToolResult represents the result of a task tool execution.
type ToolResult struct {
	Content string
	IsError bool
}

// Execute runs a task tool by name with the given JSON input.
func (e *TaskExecutor) Execute(ctx context.Context, name string, input json.RawMessage) ToolResult {
	switch models.TaskKind(name) {
	case models.TaskGenerateCode:
		return e.execGenerateCode(input)
	case models.TaskReviewCode:
		return e.execReviewCode(input)
	case models.TaskRunTests:
		return e.execRunTests(input)
	case models.TaskDeployArtifact:
		return e.execDeployArtifact(input)
	default:
		return ToolResult{Content: fmt.Sprintf("Unknown task: %s", name), IsError: true}
	}
}

func (e *TaskExecutor) execGenerateCode(input json.RawMessage) ToolResult {
	var params struct {
		Spec     string `json:"spec"`
		Language string `json:"language"`
	}
	if err := json.Unmarshal(input, &params); err != nil {
		return ToolResult{Content: fmt.Sprintf("Invalid parameters: %v", err), IsError: true}
	}
	if strings.TrimSpace(params.Spec) == "" {
		return ToolResult{Content: "spec must not be empty", IsError: true}
	}

	lang := params.Language
	if lang == "" {
		lang = "unspecified language"
	}
	return ToolResult{Content: fmt.Sprintf("Generated code for: %s (%s)", params.Spec, lang)}
}

func (e *TaskExecutor) execReviewCode(input json.RawMessage) ToolResult {
	var params struct {
		Code  string `json:"code"`
		Focus string `json:"focus"`
	}
	if err := json.Unmarshal(input, &params); err != nil {
		return ToolResult{Content: fmt.Sprintf("Invalid parameters: %v", err), IsError: true}
	}
	if strings.TrimSpace(params.Code) == "" {
		return ToolResult{Content: "code must not be empty", IsError: true}
	}

	summary := fmt.Sprintf("Reviewed %d lines of code", strings.Count(params.Code, "\n")+1)
	if params.Focus != "" {
		summary += " with focus on " + params.Focus
	}
	return ToolResult{Content: summary}
}

func (e *TaskExecutor) execRunTests(input json.RawMessage) ToolResult {
	var params struct {
		Target string `json:"target"`
	}
	if err := json.Unmarshal(input, &params); err != nil {
		return ToolResult{Content: fmt.Sprintf("Invalid parameters: %v", err), IsError: true}
	}
	if strings.TrimSpace(params.Target) == "" {
		return ToolResult{Content: "target must not be empty", IsError: true}
	}

	return ToolResult{Content: fmt.Sprintf("Ran tests for: %s", params.Target)}
}

func (e *TaskExecutor) execDeployArtifact(input json.RawMessage) ToolResult {
	var params struct {
		Artifact    string `json:"artifact"`
		Environment string `json:"environment"`
	}
	if err := json.Unmarshal(input, &params); err != nil {
		return ToolResult{Content: fmt.Sprintf("Invalid parameters: %v", err), IsError: true}
	}
	if strings.TrimSpace(params.Artifact) == "" || strings.TrimSpace(params.Environment) == "" {
		return ToolResult{Content: "artifact and environment must not be empty", IsError: true}
	}

	if e.guard != nil {
		if blocked, reason := e.guard.BlockedWithReason(e.relativeToWorkDir(params.Artifact)); blocked {
			return ToolResult{
				Content: fmt.Sprintf("Deployment blocked: %s", reason),
				IsError: true,
			}
		}
	}

	return ToolResult{Content: fmt.Sprintf("Deployed %s to %s at %s",
		params.Artifact, params.Environment, time.Now().UTC().Format(time.RFC3339))}
}

// relativeToWorkDir rewrites absolute artifact paths under the working
// directory as project-relative so the guard's patterns match them.
func (e *TaskExecutor) relativeToWorkDir(path string) string {
	if e.workDir == "" || !filepath.IsAbs(path) {
		return path
	}
	rel, err := filepath.Rel(e.workDir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

// FormatTaskAction returns a human-readable description of a task tool call.
func FormatTaskAction(name string, input json.RawMessage) string {
	switch models.TaskKind(name) {
	case models.TaskGenerateCode:
		var p struct {
			Spec string `json:"spec"`
		}
		json.Unmarshal(input, &p)
		return "Generating " + truncate(p.Spec, 40)
	case models.TaskReviewCode:
		return "Reviewing code"
	case models.TaskRunTests:
		var p struct {
			Target string `json:"target"`
		}
		json.Unmarshal(input, &p)
		return "Testing " + p.Target
	case models.TaskDeployArtifact:
		var p struct {
			Artifact    string `json:"artifact"`
			Environment string `json:"environment"`
		}
		json.Unmarshal(input, &p)
		return "Deploying " + filepath.Base(p.Artifact) + " to " + p.Environment
	default:
		return name
	}
}
