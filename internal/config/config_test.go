package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFromPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `anthropic:
  api_key: sk-ant-test-key-0000000000
models:
  planner: claude-sonnet-4-20250514
  validator: claude-3-5-haiku-20241022
pipeline:
  max_restarts: 5
  restart_backoff: 500ms
timeouts:
  plan: 90s
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	if cfg.Anthropic.APIKey != "sk-ant-test-key-0000000000" {
		t.Errorf("APIKey = %q", cfg.Anthropic.APIKey)
	}
	if cfg.Pipeline.MaxRestarts != 5 {
		t.Errorf("MaxRestarts = %d, want 5", cfg.Pipeline.MaxRestarts)
	}
	if cfg.Pipeline.RestartBackoff != 500*time.Millisecond {
		t.Errorf("RestartBackoff = %v, want 500ms", cfg.Pipeline.RestartBackoff)
	}
	if cfg.Timeouts.Plan != 90*time.Second {
		t.Errorf("Plan timeout = %v, want 90s", cfg.Timeouts.Plan)
	}
}

func TestLoadFromPath_Defaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	if err := os.WriteFile(path, []byte("{}\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	if cfg.Pipeline.MaxRestarts != 3 {
		t.Errorf("default MaxRestarts = %d, want 3", cfg.Pipeline.MaxRestarts)
	}
	if cfg.Models.Planner == "" {
		t.Error("default planner model should not be empty")
	}
	if cfg.Bedrock.Enabled {
		t.Error("bedrock should be disabled by default")
	}
	if cfg.Timeouts.Task != 5*time.Minute {
		t.Errorf("default task timeout = %v, want 5m", cfg.Timeouts.Task)
	}
}

func TestLoadFromPath_MissingFile(t *testing.T) {
	_, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoadFromPath_ExpandsEnv(t *testing.T) {
	os.Setenv("DEVFLOW_TEST_KEY", "sk-ant-from-env-0000000000")
	defer os.Unsetenv("DEVFLOW_TEST_KEY")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "anthropic:\n  api_key: ${DEVFLOW_TEST_KEY}\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if cfg.Anthropic.APIKey != "sk-ant-from-env-0000000000" {
		t.Errorf("APIKey = %q, want expanded env value", cfg.Anthropic.APIKey)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Pipeline.MaxRestarts != 3 {
		t.Errorf("MaxRestarts = %d, want 3", cfg.Pipeline.MaxRestarts)
	}
	if cfg.Pipeline.RestartBackoff != 2*time.Second {
		t.Errorf("RestartBackoff = %v, want 2s", cfg.Pipeline.RestartBackoff)
	}
	if cfg.Models.Executor == "" {
		t.Error("Executor model should not be empty")
	}
}
