package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/bveerendrakumar/devflow/internal/api"
	"github.com/bveerendrakumar/devflow/internal/config"
	"github.com/bveerendrakumar/devflow/internal/planner"
	"github.com/bveerendrakumar/devflow/internal/validator"
)

var (
	planOut     string
	planHistory bool
	planLimit   int
)

var planCmd = &cobra.Command{
	Use:   "plan [request]",
	Short: "Plan a feature request without executing it",
	Long: `Generate and validate a plan for a feature request without running tasks.

The plan can be exported with --out and replayed later with 'devflow run
--plan plan.yaml'. Past plans are recorded in the project plan history;
list them with --history.

Examples:
  devflow plan "add a login endpoint"
  devflow plan --out plan.yaml "add a login endpoint"
  devflow plan --history`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlan,
}

func init() {
	planCmd.Flags().StringVar(&planOut, "out", "", "Export the plan as YAML to this path")
	planCmd.Flags().BoolVar(&planHistory, "history", false, "List recent plans instead of planning")
	planCmd.Flags().IntVar(&planLimit, "limit", 10, "Number of history entries to show")
}

func planHistoryPath(projectRoot string) string {
	return filepath.Join(projectRoot, ".devflow", "plans.db")
}

func runPlan(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	if planHistory {
		return showPlanHistory(cwd)
	}

	if len(args) == 0 {
		return fmt.Errorf("a feature request is required unless --history is set")
	}
	request := args[0]

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	plannerClient, err := createClient(cfg, cfg.Models.Planner)
	if err != nil {
		return err
	}
	validatorClient, err := createClient(cfg, cfg.Models.Validator)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeouts.Plan)
	defer cancel()

	plan, err := planner.New(api.NewRunner(plannerClient)).Plan(ctx, request)
	if err != nil {
		return err
	}

	fmt.Println(plan.Text())
	fmt.Println()

	verdict, err := validator.New(api.NewRunner(validatorClient)).ValidatePlan(ctx, request, plan.Text())
	if err != nil {
		return err
	}
	if verdict.Approved {
		color.Green("plan approved: %s", verdict.Reason)
	} else {
		color.Red("plan rejected: %s", verdict.Reason)
	}

	if err := os.MkdirAll(filepath.Join(cwd, ".devflow"), 0755); err != nil {
		return fmt.Errorf("create .devflow directory: %w", err)
	}
	store, err := planner.NewHistoryStore(planHistoryPath(cwd))
	if err != nil {
		return fmt.Errorf("open plan history: %w", err)
	}
	defer store.Close()
	if _, err := store.Record(plan); err != nil {
		return fmt.Errorf("record plan: %w", err)
	}

	if planOut != "" {
		if err := plan.WriteYAML(planOut); err != nil {
			return err
		}
		fmt.Printf("plan written to %s\n", planOut)
	}

	return nil
}

func showPlanHistory(projectRoot string) error {
	path := planHistoryPath(projectRoot)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Println("No plans recorded yet. Run 'devflow plan <request>' first.")
		return nil
	}

	store, err := planner.NewHistoryStore(path)
	if err != nil {
		return fmt.Errorf("open plan history: %w", err)
	}
	defer store.Close()

	entries, err := store.Recent(planLimit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No plans recorded yet.")
		return nil
	}

	for _, entry := range entries {
		color.Cyan("%s  %s (%d steps)", entry.CreatedAt.Format("2006-01-02 15:04"), entry.Request, entry.Steps)
		fmt.Println(entry.PlanText)
		fmt.Println()
	}
	return nil
}
