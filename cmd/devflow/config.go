package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/bveerendrakumar/devflow/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify devflow configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/devflow/config.yaml
Project-specific overrides can be placed in .devflow.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		switch len(args) {
		case 0:
			displayAllConfig(cfg)
		case 1:
			displayConfigKey(cfg, args[0])
		default:
			setConfigKey(cfg, args[0], args[1])
		}
	},
}

// displayAllConfig prints all configuration values.
func displayAllConfig(cfg *config.Config) {
	key, _ := config.GetAPIKey(cfg)
	fmt.Printf("anthropic.api_key: %s (from %s)\n", config.MaskAPIKey(key), config.GetAPIKeySource(cfg))
	fmt.Printf("bedrock.enabled: %t\n", cfg.Bedrock.Enabled)
	fmt.Printf("bedrock.region: %s\n", cfg.Bedrock.Region)
	fmt.Printf("bedrock.profile: %s\n", cfg.Bedrock.Profile)
	fmt.Printf("models.planner: %s\n", cfg.Models.Planner)
	fmt.Printf("models.validator: %s\n", cfg.Models.Validator)
	fmt.Printf("models.executor: %s\n", cfg.Models.Executor)
	fmt.Printf("pipeline.max_restarts: %d\n", cfg.Pipeline.MaxRestarts)
	fmt.Printf("pipeline.restart_backoff: %s\n", cfg.Pipeline.RestartBackoff)
	fmt.Printf("pipeline.max_task_iterations: %d\n", cfg.Pipeline.MaxTaskIterations)
	fmt.Printf("pipeline.token_budget: %d\n", cfg.Pipeline.TokenBudget)
	fmt.Printf("timeouts.plan: %s\n", cfg.Timeouts.Plan)
	fmt.Printf("timeouts.validate: %s\n", cfg.Timeouts.Validate)
	fmt.Printf("timeouts.task: %s\n", cfg.Timeouts.Task)
}

// displayConfigKey prints a single configuration value.
func displayConfigKey(cfg *config.Config, key string) {
	value, err := getConfigValue(cfg, key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(value)
}

// setConfigKey sets a configuration value and saves the config.
func setConfigKey(cfg *config.Config, key, value string) {
	if err := setConfigValue(cfg, key, value); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := config.Save(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Set %s = %s\n", key, value)
}

// getConfigValue retrieves a configuration value by dot-notation key.
func getConfigValue(cfg *config.Config, key string) (string, error) {
	switch key {
	case "anthropic.api_key":
		return config.MaskAPIKey(cfg.Anthropic.APIKey), nil
	case "bedrock.enabled":
		return strconv.FormatBool(cfg.Bedrock.Enabled), nil
	case "bedrock.region":
		return cfg.Bedrock.Region, nil
	case "bedrock.profile":
		return cfg.Bedrock.Profile, nil
	case "models.planner":
		return cfg.Models.Planner, nil
	case "models.validator":
		return cfg.Models.Validator, nil
	case "models.executor":
		return cfg.Models.Executor, nil
	case "pipeline.max_restarts":
		return strconv.Itoa(cfg.Pipeline.MaxRestarts), nil
	case "pipeline.restart_backoff":
		return cfg.Pipeline.RestartBackoff.String(), nil
	case "pipeline.max_task_iterations":
		return strconv.Itoa(cfg.Pipeline.MaxTaskIterations), nil
	case "pipeline.token_budget":
		return strconv.FormatInt(cfg.Pipeline.TokenBudget, 10), nil
	case "timeouts.plan":
		return cfg.Timeouts.Plan.String(), nil
	case "timeouts.validate":
		return cfg.Timeouts.Validate.String(), nil
	case "timeouts.task":
		return cfg.Timeouts.Task.String(), nil
	default:
		return "", fmt.Errorf("unknown config key: %s", key)
	}
}

// setConfigValue sets a configuration value by dot-notation key.
func setConfigValue(cfg *config.Config, key, value string) error {
	switch key {
	case "anthropic.api_key":
		if err := config.ValidateAPIKey(value); err != nil {
			return err
		}
		cfg.Anthropic.APIKey = value
	case "bedrock.enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid bool for %s: %q", key, value)
		}
		cfg.Bedrock.Enabled = b
	case "bedrock.region":
		cfg.Bedrock.Region = value
	case "bedrock.profile":
		cfg.Bedrock.Profile = value
	case "models.planner":
		cfg.Models.Planner = value
	case "models.validator":
		cfg.Models.Validator = value
	case "models.executor":
		cfg.Models.Executor = value
	case "pipeline.max_restarts":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid count for %s: %q", key, value)
		}
		cfg.Pipeline.MaxRestarts = n
	case "pipeline.restart_backoff":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for %s: %q", key, value)
		}
		cfg.Pipeline.RestartBackoff = d
	case "pipeline.max_task_iterations":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("invalid count for %s: %q", key, value)
		}
		cfg.Pipeline.MaxTaskIterations = n
	case "pipeline.token_budget":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid budget for %s: %q", key, value)
		}
		cfg.Pipeline.TokenBudget = n
	case "timeouts.plan", "timeouts.validate", "timeouts.task":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for %s: %q", key, value)
		}
		switch key {
		case "timeouts.plan":
			cfg.Timeouts.Plan = d
		case "timeouts.validate":
			cfg.Timeouts.Validate = d
		case "timeouts.task":
			cfg.Timeouts.Task = d
		}
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}
