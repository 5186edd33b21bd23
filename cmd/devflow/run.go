package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/bveerendrakumar/devflow/internal/api"
	"github.com/bveerendrakumar/devflow/internal/config"
	"github.com/bveerendrakumar/devflow/internal/pipeline"
	"github.com/bveerendrakumar/devflow/internal/planner"
	"github.com/bveerendrakumar/devflow/internal/protect"
	"github.com/bveerendrakumar/devflow/internal/state"
	"github.com/bveerendrakumar/devflow/internal/tui"
	"github.com/bveerendrakumar/devflow/internal/validator"
)

var (
	runHeadless    bool
	runEnvironment string
	runPlanFile    string
)

var runCmd = &cobra.Command{
	Use:   "run <request>",
	Short: "Run the full workflow for a feature request",
	Long: `Run the full development workflow for a feature request.

The request is planned, the plan is validated, and each task in the fixed
sequence (generate_code, review_code, run_tests, deploy_artifact) executes
through a function-calling model session with its result validated. A
rejected plan or result restarts the workflow from planning.

Examples:
  devflow run "add a login endpoint"
  devflow run --headless "add a login endpoint"
  devflow run --env production "ship the billing fix"`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().BoolVar(&runHeadless, "headless", false, "Plain text output instead of the TUI")
	runCmd.Flags().StringVar(&runEnvironment, "env", "", "Deployment environment for deploy_artifact (default staging)")
	runCmd.Flags().StringVar(&runPlanFile, "plan", "", "Reuse a previously exported plan.yaml instead of planning")
}

func runRun(cmd *cobra.Command, args []string) error {
	request := args[0]

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	clients, err := createRoleClients(cfg)
	if err != nil {
		return err
	}

	db, err := state.OpenProject(cwd)
	if err != nil {
		return fmt.Errorf("open state database: %w", err)
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrate state database: %w", err)
	}

	guard := protect.New()
	guardConfig := filepath.Join(cwd, ".devflow", "protected.yaml")
	if _, err := os.Stat(guardConfig); err == nil {
		if err := guard.LoadConfig(guardConfig); err != nil {
			return fmt.Errorf("load protected paths: %w", err)
		}
	}

	signals, err := api.NewSignalManager(cwd)
	if err != nil {
		return fmt.Errorf("init signal manager: %w", err)
	}
	defer signals.Close()
	signals.ClearSignals()

	var planMaker pipeline.PlanMaker
	if runPlanFile != "" {
		plan, err := planner.ReadYAML(runPlanFile)
		if err != nil {
			return err
		}
		planMaker = fixedPlan{plan: plan}
	} else {
		planMaker = planner.New(api.NewRunner(clients.planner)).WithNotes(signals.ReadNotes())
	}

	judge := validator.New(api.NewRunner(clients.validator))
	session := api.NewTaskSession(api.TaskSessionConfig{
		Client:        clients.executor,
		Executor:      api.NewTaskExecutor(cwd, guard),
		Signals:       signals,
		MaxIterations: cfg.Pipeline.MaxTaskIterations,
	})

	emitter := pipeline.NewEmitter(128)
	engine := pipeline.New(planMaker, judge, session, db, emitter, pipeline.Options{
		MaxRestarts:     cfg.Pipeline.MaxRestarts,
		RestartBackoff:  cfg.Pipeline.RestartBackoff,
		Environment:     runEnvironment,
		PlanTimeout:     cfg.Timeouts.Plan,
		ValidateTimeout: cfg.Timeouts.Validate,
		TaskTimeout:     cfg.Timeouts.Task,
		TokenBudget:     cfg.Pipeline.TokenBudget,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if runHeadless {
		session.SetStreamHandler(func(ev api.StreamEvent) {
			switch ev.Type {
			case "tool_use":
				fmt.Printf("    %s\n", api.FormatTaskAction(ev.Tool, ev.Input))
			case "paused":
				color.Yellow("    %s", ev.Content)
			}
		})
		return runHeadlessMode(ctx, engine, emitter, clients, request)
	}
	return runTUIMode(ctx, engine, emitter, request)
}

// fixedPlan satisfies pipeline.PlanMaker with a pre-built plan.
type fixedPlan struct {
	plan *planner.Plan
}

func (f fixedPlan) Plan(_ context.Context, _ string) (*planner.Plan, error) {
	return f.plan, nil
}

func runHeadlessMode(ctx context.Context, engine *pipeline.Engine, emitter *pipeline.Emitter, clients *roleClients, request string) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		printEvents(emitter.Events())
	}()

	run, err := engine.Run(ctx, request)
	emitter.Close()
	<-done

	if n := emitter.Dropped(); n > 0 {
		color.Yellow("%d events dropped (slow consumer)", n)
	}
	if err != nil {
		return err
	}
	calls, cost := clients.usage()
	color.Green("\nRun %s complete (%d tokens in, %d out)", run.ID, run.TokensIn, run.TokensOut)
	fmt.Printf("%d API calls, estimated cost $%.4f\n", calls, cost)
	return nil
}

func printEvents(events <-chan pipeline.Event) {
	for event := range events {
		switch event.Type {
		case pipeline.EventPhaseChanged:
			color.Cyan("[%s]", event.Phase)
		case pipeline.EventPlanReady:
			fmt.Println("plan:")
			fmt.Println(event.Message)
		case pipeline.EventTaskStarted:
			fmt.Printf("  %s...\n", event.Task)
		case pipeline.EventTaskCompleted:
			color.Green("  %s done", event.Task)
		case pipeline.EventVerdict:
			if event.Verdict != nil && !event.Verdict.Approved {
				color.Red("  rejected %s: %s", event.Verdict.Subject, event.Verdict.Reason)
			}
		case pipeline.EventRestart:
			color.Yellow("restarting workflow (attempt %d)", event.Attempt)
		case pipeline.EventRunDone:
			if event.Err != nil {
				color.Red("run failed: %v", event.Err)
			}
		}
	}
}

func runTUIMode(ctx context.Context, engine *pipeline.Engine, emitter *pipeline.Emitter, request string) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	view := tui.NewRunView(request, emitter.Events())
	program := tea.NewProgram(view)

	engineDone := make(chan error, 1)
	go func() {
		_, err := engine.Run(runCtx, request)
		emitter.Close()
		engineDone <- err
	}()

	tuiDone := make(chan error, 1)
	go func() {
		_, err := program.Run()
		tuiDone <- err
	}()

	return awaitRun(cancel, engineDone, tuiDone, view)
}

// runOutcome exposes the TUI's view of how the run ended.
type runOutcome interface {
	Failed() bool
	Err() error
}

// awaitRun waits for the engine and the TUI. When the engine finishes
// first the emitter close quits the view; an early quit (q, ctrl+c)
// cancels the engine and waits for it to stop before returning.
func awaitRun(cancel context.CancelFunc, engineDone, tuiDone <-chan error, outcome runOutcome) error {
	select {
	case runErr := <-engineDone:
		if tuiErr := <-tuiDone; tuiErr != nil {
			return fmt.Errorf("run TUI: %w", tuiErr)
		}
		if runErr != nil {
			return runErr
		}
		if outcome.Failed() {
			if err := outcome.Err(); err != nil {
				return err
			}
			return errors.New("run failed")
		}
		return nil

	case tuiErr := <-tuiDone:
		cancel()
		runErr := <-engineDone
		if tuiErr != nil {
			return fmt.Errorf("run TUI: %w", tuiErr)
		}
		return runErr
	}
}
