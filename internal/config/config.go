// Package config handles configuration loading and management for devflow.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for devflow.
type Config struct {
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	Bedrock   BedrockConfig   `mapstructure:"bedrock"`
	Models    ModelsConfig    `mapstructure:"models"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Timeouts  TimeoutsConfig  `mapstructure:"timeouts"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// BedrockConfig holds AWS Bedrock settings.
type BedrockConfig struct {
	// Enabled switches from direct API calls to AWS Bedrock.
	Enabled bool `mapstructure:"enabled"`
	// Region is the AWS region (e.g., "us-west-2").
	Region string `mapstructure:"region"`
	// Profile is the optional AWS profile name.
	Profile string `mapstructure:"profile"`
}

// ModelsConfig holds the model identifier used for each workflow role.
type ModelsConfig struct {
	Planner   string `mapstructure:"planner"`
	Validator string `mapstructure:"validator"`
	Executor  string `mapstructure:"executor"`
}

// PipelineConfig holds workflow control settings.
type PipelineConfig struct {
	// MaxRestarts bounds how many times a run may restart after a rejected
	// plan or task result.
	MaxRestarts int `mapstructure:"max_restarts"`
	// RestartBackoff is the base delay between restarts; it doubles per restart.
	RestartBackoff time.Duration `mapstructure:"restart_backoff"`
	// MaxTaskIterations bounds API calls per task session.
	MaxTaskIterations int `mapstructure:"max_task_iterations"`
	// TokenBudget caps total tokens per run (0 = unlimited).
	TokenBudget int64 `mapstructure:"token_budget"`
}

// TimeoutsConfig holds per-phase timeout settings.
type TimeoutsConfig struct {
	Plan     time.Duration `mapstructure:"plan"`
	Validate time.Duration `mapstructure:"validate"`
	Task     time.Duration `mapstructure:"task"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (ANTHROPIC_API_KEY, DEVFLOW_*)
// 2. Project config (.devflow.yaml in current directory or a parent)
// 3. User config (~/.config/devflow/config.yaml)
// 4. Built-in defaults
// A .env file in the working directory is loaded first, if present.
func Load() (*Config, error) {
	// Best effort; a missing .env is fine.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(getUserConfigDir())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	if projectConfig := findProjectConfig(); projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.SetEnvPrefix("DEVFLOW")
	v.AutomaticEnv()
	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)

	return cfg, nil
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)

	return cfg, nil
}

// Save writes the current configuration to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return SaveToPath(cfg, filepath.Join(userConfigDir, "config.yaml"))
}

// SaveToPath writes the configuration to an arbitrary YAML file.
func SaveToPath(cfg *Config, path string) error {
	v := viper.New()
	v.SetConfigFile(path)

	v.Set("anthropic.api_key", cfg.Anthropic.APIKey)
	v.Set("bedrock.enabled", cfg.Bedrock.Enabled)
	v.Set("bedrock.region", cfg.Bedrock.Region)
	v.Set("bedrock.profile", cfg.Bedrock.Profile)
	v.Set("models.planner", cfg.Models.Planner)
	v.Set("models.validator", cfg.Models.Validator)
	v.Set("models.executor", cfg.Models.Executor)
	v.Set("pipeline.max_restarts", cfg.Pipeline.MaxRestarts)
	v.Set("pipeline.restart_backoff", cfg.Pipeline.RestartBackoff.String())
	v.Set("pipeline.max_task_iterations", cfg.Pipeline.MaxTaskIterations)
	v.Set("pipeline.token_budget", cfg.Pipeline.TokenBudget)
	v.Set("timeouts.plan", cfg.Timeouts.Plan.String())
	v.Set("timeouts.validate", cfg.Timeouts.Validate.String())
	v.Set("timeouts.task", cfg.Timeouts.Task.String())

	return v.WriteConfig()
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("anthropic.api_key", "")

	v.SetDefault("bedrock.enabled", false)
	v.SetDefault("bedrock.region", "")
	v.SetDefault("bedrock.profile", "")

	v.SetDefault("models.planner", "claude-sonnet-4-20250514")
	v.SetDefault("models.validator", "claude-3-5-haiku-20241022")
	v.SetDefault("models.executor", "claude-sonnet-4-20250514")

	v.SetDefault("pipeline.max_restarts", 3)
	v.SetDefault("pipeline.restart_backoff", "2s")
	v.SetDefault("pipeline.max_task_iterations", 10)
	v.SetDefault("pipeline.token_budget", 0)

	v.SetDefault("timeouts.plan", "2m")
	v.SetDefault("timeouts.validate", "1m")
	v.SetDefault("timeouts.task", "5m")
}

// getUserConfigDir returns the XDG config directory for devflow.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "devflow")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "devflow")
	}
	return filepath.Join(home, ".config", "devflow")
}

// findProjectConfig searches for .devflow.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".devflow.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// expandEnv expands ${VAR} references in a string.
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Models: ModelsConfig{
			Planner:   "claude-sonnet-4-20250514",
			Validator: "claude-3-5-haiku-20241022",
			Executor:  "claude-sonnet-4-20250514",
		},
		Pipeline: PipelineConfig{
			MaxRestarts:       3,
			RestartBackoff:    2 * time.Second,
			MaxTaskIterations: 10,
		},
		Timeouts: TimeoutsConfig{
			Plan:     2 * time.Minute,
			Validate: 1 * time.Minute,
			Task:     5 * time.Minute,
		},
	}
}
