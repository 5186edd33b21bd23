package main

import (
	"testing"
	"time"

	"github.com/bveerendrakumar/devflow/internal/config"
)

func TestSetConfigValue(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr bool
		check   func(*config.Config) bool
	}{
		{
			name:  "set planner model",
			key:   "models.planner",
			value: "claude-opus-4-20250514",
			check: func(c *config.Config) bool { return c.Models.Planner == "claude-opus-4-20250514" },
		},
		{
			name:  "set max restarts",
			key:   "pipeline.max_restarts",
			value: "5",
			check: func(c *config.Config) bool { return c.Pipeline.MaxRestarts == 5 },
		},
		{
			name:  "set restart backoff",
			key:   "pipeline.restart_backoff",
			value: "10s",
			check: func(c *config.Config) bool { return c.Pipeline.RestartBackoff == 10*time.Second },
		},
		{
			name:  "set bedrock enabled",
			key:   "bedrock.enabled",
			value: "true",
			check: func(c *config.Config) bool { return c.Bedrock.Enabled },
		},
		{
			name:  "set task timeout",
			key:   "timeouts.task",
			value: "3m",
			check: func(c *config.Config) bool { return c.Timeouts.Task == 3*time.Minute },
		},
		{
			name:  "set valid api key",
			key:   "anthropic.api_key",
			value: "sk-ant-REDACTED",
			check: func(c *config.Config) bool { return c.Anthropic.APIKey == "sk-ant-REDACTED" },
		},
		{
			name:    "reject malformed api key",
			key:     "anthropic.api_key",
			value:   "not-a-key",
			wantErr: true,
		},
		{
			name:    "invalid restarts value",
			key:     "pipeline.max_restarts",
			value:   "lots",
			wantErr: true,
		},
		{
			name:    "negative restarts value",
			key:     "pipeline.max_restarts",
			value:   "-1",
			wantErr: true,
		},
		{
			name:    "invalid duration",
			key:     "timeouts.plan",
			value:   "soon",
			wantErr: true,
		},
		{
			name:    "unknown key",
			key:     "does.not.exist",
			value:   "x",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			err := setConfigValue(cfg, tt.key, tt.value)
			if tt.wantErr {
				if err == nil {
					t.Errorf("setConfigValue(%q, %q) succeeded, want error", tt.key, tt.value)
				}
				return
			}
			if err != nil {
				t.Fatalf("setConfigValue(%q, %q) failed: %v", tt.key, tt.value, err)
			}
			if !tt.check(cfg) {
				t.Errorf("setConfigValue(%q, %q) did not apply", tt.key, tt.value)
			}
		})
	}
}

func TestGetConfigValue(t *testing.T) {
	cfg := config.Default()
	cfg.Models.Validator = "claude-3-5-haiku-20241022"
	cfg.Pipeline.MaxRestarts = 4

	got, err := getConfigValue(cfg, "models.validator")
	if err != nil {
		t.Fatalf("getConfigValue failed: %v", err)
	}
	if got != "claude-3-5-haiku-20241022" {
		t.Errorf("models.validator = %q", got)
	}

	got, err = getConfigValue(cfg, "pipeline.max_restarts")
	if err != nil {
		t.Fatalf("getConfigValue failed: %v", err)
	}
	if got != "4" {
		t.Errorf("pipeline.max_restarts = %q, want 4", got)
	}

	if _, err := getConfigValue(cfg, "nope"); err == nil {
		t.Error("expected error for unknown key")
	}
}
