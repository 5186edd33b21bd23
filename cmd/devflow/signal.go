package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/bveerendrakumar/devflow/internal/api"
)

var signalCmd = &cobra.Command{
	Use:   "signal <kill|pause|resume>",
	Short: "Signal a running workflow in this project",
	Long: `Signal a workflow running in the current project directory.

  kill    stop the run; it finishes as aborted
  pause   hold execution before the next model call
  resume  clear a pause and continue`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"kill", "pause", "resume"},
	RunE:      runSignal,
}

var noteCmd = &cobra.Command{
	Use:   "note <text>",
	Short: "Add a project note injected into task execution",
	Long: `Append a timestamped note to .devflow/notes.md.

Notes are injected into the system prompt of every task execution, so
they are the place for conventions and constraints the model should
honor ("use pgx, not database/sql").`,
	Args: cobra.MinimumNArgs(1),
	RunE: runNote,
}

func runSignal(cmd *cobra.Command, args []string) error {
	sm, err := projectSignals()
	if err != nil {
		return err
	}
	defer sm.Close()

	switch args[0] {
	case "kill":
		if err := sm.SendKill(); err != nil {
			return fmt.Errorf("send kill signal: %w", err)
		}
		color.Red("kill signal sent; the run will stop as aborted")
	case "pause":
		if err := sm.SendPause(); err != nil {
			return fmt.Errorf("send pause signal: %w", err)
		}
		color.Yellow("pause signal sent; resume with 'devflow signal resume'")
	case "resume":
		if err := sm.Resume(); err != nil {
			return fmt.Errorf("clear pause signal: %w", err)
		}
		color.Green("pause cleared")
	default:
		return fmt.Errorf("unknown signal: %s", args[0])
	}
	return nil
}

func runNote(cmd *cobra.Command, args []string) error {
	sm, err := projectSignals()
	if err != nil {
		return err
	}
	defer sm.Close()

	note := strings.Join(args, " ")
	if err := sm.AppendNote(note); err != nil {
		return fmt.Errorf("append note: %w", err)
	}
	fmt.Println("note added")
	return nil
}

func projectSignals() (*api.SignalManager, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}
	return api.NewSignalManager(cwd)
}
