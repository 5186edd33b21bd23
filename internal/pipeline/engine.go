package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bveerendrakumar/devflow/internal/api"
	"github.com/bveerendrakumar/devflow/internal/planner"
	"github.com/bveerendrakumar/devflow/pkg/models"
)

// ErrKillSignal reports that a run was stopped by the operator's kill signal.
var ErrKillSignal = errors.New("stopped by kill signal")

// PlanMaker produces a plan for a feature request.
type PlanMaker interface {
	Plan(ctx context.Context, request string) (*planner.Plan, error)
}

// Judge validates plans and task results.
type Judge interface {
	ValidatePlan(ctx context.Context, request, plan string) (*models.Verdict, error)
	ValidateResult(ctx context.Context, task models.TaskKind, result string) (*models.Verdict, error)
}

// TaskRunner executes a single named task through the function-calling session.
type TaskRunner interface {
	ExecuteTask(ctx context.Context, kind models.TaskKind, args map[string]string) (*api.TaskResult, error)
}

// RunStore persists runs, task calls, and verdicts.
type RunStore interface {
	CreateRun(r *models.Run) error
	UpdateRun(r *models.Run) error
	CreateTaskCall(tc *models.TaskCall) error
	UpdateTaskCall(tc *models.TaskCall) error
	RecordVerdict(v *models.Verdict) error
}

// Options configures the engine's restart behavior.
type Options struct {
	// MaxRestarts bounds workflow restarts after a rejection. 0 means
	// the default of 3.
	MaxRestarts int
	// RestartBackoff is the base delay before a restart; it doubles
	// per attempt. 0 means the default of 2s.
	RestartBackoff time.Duration
	// Environment is the deployment target passed to deploy_artifact.
	Environment string
	// PlanTimeout bounds each planning call. 0 disables the bound.
	PlanTimeout time.Duration
	// ValidateTimeout bounds each validation call. 0 disables the bound.
	ValidateTimeout time.Duration
	// TaskTimeout bounds each task session. 0 disables the bound.
	TaskTimeout time.Duration
	// TokenBudget caps the tokens spent by executor task sessions across
	// the run. 0 disables the cap.
	TokenBudget int64
}

// Engine drives the full workflow for one feature request.
type Engine struct {
	planner   PlanMaker
	validator Judge
	tasks     TaskRunner
	store     RunStore
	emitter   *Emitter

	maxRestarts int
	backoff     time.Duration
	environment string

	planTimeout     time.Duration
	validateTimeout time.Duration
	taskTimeout     time.Duration
	tokenBudget     int64
}

// New creates an Engine. The store may be nil for dry runs.
func New(p PlanMaker, v Judge, t TaskRunner, store RunStore, emitter *Emitter, opts Options) *Engine {
	maxRestarts := opts.MaxRestarts
	if maxRestarts <= 0 {
		maxRestarts = 3
	}
	backoff := opts.RestartBackoff
	if backoff <= 0 {
		backoff = 2 * time.Second
	}
	environment := opts.Environment
	if environment == "" {
		environment = "staging"
	}

	return &Engine{
		planner:         p,
		validator:       v,
		tasks:           t,
		store:           store,
		emitter:         emitter,
		maxRestarts:     maxRestarts,
		backoff:         backoff,
		environment:     environment,
		planTimeout:     opts.PlanTimeout,
		validateTimeout: opts.ValidateTimeout,
		taskTimeout:     opts.TaskTimeout,
		tokenBudget:     opts.TokenBudget,
	}
}

// withTimeout wraps ctx with a deadline when d is positive.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}

// Run executes the workflow: plan, validate the plan, run the four tasks in
// order validating each result, and restart from planning on any rejection,
// up to the restart bound. The returned Run reflects the final state even
// when err is non-nil.
func (e *Engine) Run(ctx context.Context, request string) (*models.Run, error) {
	run := &models.Run{
		ID:        uuid.New().String(),
		Request:   request,
		Status:    models.RunStatusPending,
		Attempt:   1,
		StartedAt: time.Now().UTC(),
	}
	if err := e.persistCreate(run); err != nil {
		return run, err
	}
	e.emit(Event{Type: EventRunStarted, RunID: run.ID, Message: request})

	var lastVerdict *models.Verdict
	for attempt := 1; attempt <= e.maxRestarts+1; attempt++ {
		run.Attempt = attempt

		if attempt > 1 {
			e.emit(Event{Type: EventRestart, RunID: run.ID, Attempt: attempt, Verdict: lastVerdict})
			if err := e.sleep(ctx, e.restartDelay(attempt)); err != nil {
				return e.finish(run, models.RunStatusAborted, err)
			}
		}

		verdict, err := e.attempt(ctx, run)
		if err != nil {
			if ctx.Err() != nil {
				return e.finish(run, models.RunStatusAborted, ctx.Err())
			}
			if errors.Is(err, ErrKillSignal) {
				return e.finish(run, models.RunStatusAborted, err)
			}
			return e.finish(run, models.RunStatusFailed, err)
		}
		if verdict == nil || verdict.Approved {
			return e.finish(run, models.RunStatusDone, nil)
		}
		lastVerdict = verdict
	}

	err := fmt.Errorf("workflow rejected after %d attempts: %s", e.maxRestarts+1, lastVerdict.Reason)
	return e.finish(run, models.RunStatusFailed, err)
}

// attempt runs one full pass. It returns a non-nil rejected verdict when the
// pass should restart, (nil, nil) on success, and an error on hard failure.
func (e *Engine) attempt(ctx context.Context, run *models.Run) (*models.Verdict, error) {
	e.setPhase(run, models.RunStatusPlanning)
	planCtx, cancelPlan := withTimeout(ctx, e.planTimeout)
	plan, err := e.planner.Plan(planCtx, run.Request)
	cancelPlan()
	if err != nil {
		return nil, fmt.Errorf("plan: %w", err)
	}
	run.Plan = plan.Text()
	e.persistUpdate(run)
	e.emit(Event{Type: EventPlanReady, RunID: run.ID, Message: run.Plan})

	e.setPhase(run, models.RunStatusValidating)
	validateCtx, cancelValidate := withTimeout(ctx, e.validateTimeout)
	verdict, err := e.validator.ValidatePlan(validateCtx, run.Request, run.Plan)
	cancelValidate()
	if err != nil {
		return nil, fmt.Errorf("validate plan: %w", err)
	}
	e.recordVerdict(run, verdict)
	if !verdict.Approved {
		return verdict, nil
	}

	e.setPhase(run, models.RunStatusExecuting)
	generated := ""
	for _, kind := range models.AllTaskKinds() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		args := e.taskArgs(kind, run, generated)
		result, verdict, err := e.runTask(ctx, run, kind, args)
		if err != nil {
			return nil, err
		}
		if !verdict.Approved {
			return verdict, nil
		}
		if kind == models.TaskGenerateCode {
			generated = result
		}
	}

	return nil, nil
}

// runTask executes one task call and validates its result.
func (e *Engine) runTask(ctx context.Context, run *models.Run, kind models.TaskKind, args map[string]string) (string, *models.Verdict, error) {
	tc := &models.TaskCall{
		ID:        uuid.New().String(),
		RunID:     run.ID,
		Kind:      kind,
		Args:      args,
		Status:    models.TaskStatusRunning,
		Attempt:   run.Attempt,
		StartedAt: time.Now().UTC(),
	}
	if e.store != nil {
		if err := e.store.CreateTaskCall(tc); err != nil {
			return "", nil, fmt.Errorf("persist task call: %w", err)
		}
	}
	e.emit(Event{Type: EventTaskStarted, RunID: run.ID, Task: kind})

	taskCtx, cancelTask := withTimeout(ctx, e.taskTimeout)
	result, err := e.tasks.ExecuteTask(taskCtx, kind, args)
	cancelTask()
	if err != nil {
		e.completeTaskCall(tc, "", models.TaskStatusFailed, err)
		return "", nil, fmt.Errorf("execute %s: %w", kind, err)
	}
	run.TokensIn += result.TokensIn
	run.TokensOut += result.TokensOut
	e.persistUpdate(run)

	if e.tokenBudget > 0 && run.TokensIn+run.TokensOut > e.tokenBudget {
		e.completeTaskCall(tc, result.Output, models.TaskStatusFailed, nil)
		return "", nil, fmt.Errorf("token budget exceeded: %d used of %d", run.TokensIn+run.TokensOut, e.tokenBudget)
	}

	if result.Stopped {
		e.completeTaskCall(tc, result.Output, models.TaskStatusFailed, ErrKillSignal)
		return "", nil, fmt.Errorf("task %s: %w", kind, ErrKillSignal)
	}

	e.setPhase(run, models.RunStatusValidating)
	validateCtx, cancelValidate := withTimeout(ctx, e.validateTimeout)
	verdict, err := e.validator.ValidateResult(validateCtx, kind, result.Output)
	cancelValidate()
	if err != nil {
		e.completeTaskCall(tc, result.Output, models.TaskStatusFailed, err)
		return "", nil, fmt.Errorf("validate %s result: %w", kind, err)
	}
	e.recordVerdict(run, verdict)

	if !verdict.Approved {
		e.completeTaskCall(tc, result.Output, models.TaskStatusRejected, nil)
		return result.Output, verdict, nil
	}

	e.completeTaskCall(tc, result.Output, models.TaskStatusDone, nil)
	e.setPhase(run, models.RunStatusExecuting)
	e.emit(Event{Type: EventTaskCompleted, RunID: run.ID, Task: kind, Message: result.Output})
	return result.Output, verdict, nil
}

// taskArgs builds the string argument bag for each task kind.
func (e *Engine) taskArgs(kind models.TaskKind, run *models.Run, generated string) map[string]string {
	switch kind {
	case models.TaskGenerateCode:
		return map[string]string{"spec": run.Plan, "language": "go"}
	case models.TaskReviewCode:
		code := generated
		if code == "" {
			code = run.Plan
		}
		return map[string]string{"code": code, "focus": "correctness"}
	case models.TaskRunTests:
		return map[string]string{"target": run.Request}
	case models.TaskDeployArtifact:
		return map[string]string{"artifact": run.Request, "environment": e.environment}
	}
	return nil
}

func (e *Engine) restartDelay(attempt int) time.Duration {
	delay := e.backoff
	for i := 2; i < attempt; i++ {
		delay *= 2
	}
	return delay
}

func (e *Engine) sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (e *Engine) setPhase(run *models.Run, status models.RunStatus) {
	if run.Status == status {
		return
	}
	run.Status = status
	e.persistUpdate(run)
	e.emit(Event{Type: EventPhaseChanged, RunID: run.ID, Phase: status, Attempt: run.Attempt})
}

func (e *Engine) finish(run *models.Run, status models.RunStatus, err error) (*models.Run, error) {
	now := time.Now().UTC()
	run.Status = status
	run.CompletedAt = &now
	if err != nil {
		run.Error = err.Error()
	}
	e.persistUpdate(run)
	e.emit(Event{Type: EventRunDone, RunID: run.ID, Phase: status, Err: err})
	return run, err
}

func (e *Engine) completeTaskCall(tc *models.TaskCall, result string, status models.TaskStatus, err error) {
	now := time.Now().UTC()
	tc.Result = result
	tc.Status = status
	tc.CompletedAt = &now
	if err != nil {
		tc.Error = err.Error()
	}
	if e.store != nil {
		_ = e.store.UpdateTaskCall(tc)
	}
}

func (e *Engine) recordVerdict(run *models.Run, v *models.Verdict) {
	v.RunID = run.ID
	if e.store != nil {
		_ = e.store.RecordVerdict(v)
	}
	e.emit(Event{Type: EventVerdict, RunID: run.ID, Verdict: v, Message: v.Reason})
}

func (e *Engine) persistCreate(run *models.Run) error {
	if e.store == nil {
		return nil
	}
	if err := e.store.CreateRun(run); err != nil {
		return fmt.Errorf("persist run: %w", err)
	}
	return nil
}

func (e *Engine) persistUpdate(run *models.Run) {
	if e.store != nil {
		_ = e.store.UpdateRun(run)
	}
}

func (e *Engine) emit(event Event) {
	if e.emitter != nil {
		e.emitter.Emit(event)
	}
}
