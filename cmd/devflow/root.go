package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "devflow",
	Short: "Model-driven development workflow runner",
	Long: `Devflow turns a feature request into a reviewed development workflow.

A planner model breaks the request into steps, a validator model judges the
plan, and each development task (code generation, code review, test
execution, artifact deployment) runs through a function-calling model
session with its result validated before the next task starts. A rejected
plan or result restarts the workflow from planning, up to a configurable
bound.

Run state is persisted to a project-local .devflow/state.db so past runs
can be inspected with 'devflow status'.`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(signalCmd)
	rootCmd.AddCommand(noteCmd)
	rootCmd.AddCommand(versionCmd)
}
