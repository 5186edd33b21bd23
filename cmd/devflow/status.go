package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/bveerendrakumar/devflow/internal/state"
	"github.com/bveerendrakumar/devflow/pkg/models"
)

var (
	statusLimit int
	statusRunID string
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recent workflow runs",
	Long: `Display recent workflow runs from the project state database.

Shows each run's status, attempt count, token usage, and duration. Use
--run to inspect a single run's task calls and verdicts.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().IntVar(&statusLimit, "limit", 10, "Number of runs to show")
	statusCmd.Flags().StringVar(&statusRunID, "run", "", "Show task calls and verdicts for a run ID")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	dbPath := state.ProjectDBPath(cwd)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		fmt.Println("No runs yet. Run 'devflow run <request>' to start.")
		return nil
	}

	db, err := state.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	if statusRunID != "" {
		return showRun(db, statusRunID)
	}

	runs, err := db.ListRuns(statusLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs yet. Run 'devflow run <request>' to start.")
		return nil
	}

	for _, run := range runs {
		statusColor(run.Status)("%s  %-10s  %s", run.StartedAt.Local().Format("2006-01-02 15:04"), run.Status, truncateRequest(run.Request))
		fmt.Printf("  id=%s attempt=%d tokens=%d/%d%s\n", run.ID, run.Attempt, run.TokensIn, run.TokensOut, runDuration(run))
	}
	return nil
}

func showRun(db *state.DB, id string) error {
	run, err := db.GetRun(id)
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("run not found: %s", id)
	}

	statusColor(run.Status)("%s  %s", run.Status, run.Request)
	if run.Plan != "" {
		fmt.Println("\nplan:")
		fmt.Println(run.Plan)
	}
	if run.Error != "" {
		color.Red("\nerror: %s", run.Error)
	}

	calls, err := db.ListTaskCalls(id)
	if err != nil {
		return err
	}
	if len(calls) > 0 {
		fmt.Println("\ntask calls:")
		for _, tc := range calls {
			fmt.Printf("  attempt %d  %-16s %-9s %s\n", tc.Attempt, tc.Kind, tc.Status, truncateRequest(tc.Result))
		}
	}

	verdicts, err := db.ListVerdicts(id)
	if err != nil {
		return err
	}
	if len(verdicts) > 0 {
		fmt.Println("\nverdicts:")
		for _, v := range verdicts {
			label := "approved"
			if !v.Approved {
				label = "rejected"
			}
			fmt.Printf("  %-16s %-9s %s\n", v.Subject, label, v.Reason)
		}
	}
	return nil
}

func statusColor(status models.RunStatus) func(format string, a ...interface{}) {
	switch status {
	case models.RunStatusDone:
		return color.Green
	case models.RunStatusFailed, models.RunStatusAborted:
		return color.Red
	default:
		return color.Yellow
	}
}

func runDuration(run *models.Run) string {
	if run.CompletedAt == nil {
		return ""
	}
	return fmt.Sprintf(" duration=%s", run.CompletedAt.Sub(run.StartedAt).Round(time.Second))
}

func truncateRequest(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) > 60 {
		return s[:57] + "..."
	}
	return s
}
