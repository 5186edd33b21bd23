package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/bveerendrakumar/devflow/internal/config"
	"github.com/bveerendrakumar/devflow/internal/state"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init [directory]",
	Short: "Initialize a devflow project",
	Long: `Initialize a directory for use with devflow.

Creates the .devflow directory, the state database, a protected-paths file
with sensible defaults, and a project .devflow.yaml config.

The directory argument is optional and defaults to the current directory.

Examples:
  devflow init              # Initialize current directory
  devflow init ./myproject  # Initialize specific directory
  devflow init --force      # Reinitialize even if already set up`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Reinitialize even if already set up")
}

const defaultProtectedYAML = `# Paths a deploy_artifact task must never touch.
# Supports * and ** glob patterns; built-in defaults cover secrets,
# keys, and infrastructure state.
protected:
  patterns:
    - "**/release-keys/**"
  keywords: []
  file_types: []
`

func runInit(cmd *cobra.Command, args []string) error {
	targetDir := "."
	if len(args) > 0 {
		targetDir = args[0]
	}

	absPath, err := filepath.Abs(targetDir)
	if err != nil {
		return fmt.Errorf("resolving absolute path: %w", err)
	}
	if err := os.MkdirAll(absPath, 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", absPath, err)
	}

	fmt.Printf("Initializing devflow in %s...\n\n", absPath)

	devflowDir := filepath.Join(absPath, ".devflow")
	if _, err := os.Stat(devflowDir); err == nil && !initForce {
		fmt.Println("Directory already initialized. Use --force to reinitialize.")
		return nil
	}
	if err := os.MkdirAll(devflowDir, 0755); err != nil {
		return fmt.Errorf("creating .devflow directory: %w", err)
	}
	color.Green("✓ Created .devflow directory")

	db, err := state.OpenProject(absPath)
	if err != nil {
		return fmt.Errorf("create state database: %w", err)
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrate state database: %w", err)
	}
	color.Green("✓ Created state database")

	protectedPath := filepath.Join(devflowDir, "protected.yaml")
	if _, err := os.Stat(protectedPath); os.IsNotExist(err) || initForce {
		if err := os.WriteFile(protectedPath, []byte(defaultProtectedYAML), 0644); err != nil {
			return fmt.Errorf("write protected.yaml: %w", err)
		}
		color.Green("✓ Created protected.yaml")
	}

	projectConfig := filepath.Join(absPath, ".devflow.yaml")
	if _, err := os.Stat(projectConfig); os.IsNotExist(err) {
		if err := config.SaveToPath(config.Default(), projectConfig); err != nil {
			return fmt.Errorf("write project config: %w", err)
		}
		color.Green("✓ Created .devflow.yaml")
	}

	fmt.Println()
	if _, ok := os.LookupEnv("ANTHROPIC_API_KEY"); !ok {
		color.Yellow("Set ANTHROPIC_API_KEY (or enable bedrock in .devflow.yaml) before running.")
	}
	color.Green("Done. Try: devflow run \"add a health check endpoint\"")
	return nil
}
