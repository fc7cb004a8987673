package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoad_Defaults(t *testing.T) {
	// An explicit path that does not exist falls back to pure defaults
	m := NewManager(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Defaults.Parallel != 5 {
		t.Errorf("parallel = %d, want 5", cfg.Defaults.Parallel)
	}
	if cfg.Defaults.MinParallel != 1 {
		t.Errorf("min_parallel = %d, want 1", cfg.Defaults.MinParallel)
	}
	if cfg.Defaults.Timeout != 30*time.Second {
		t.Errorf("timeout = %s, want 30s", cfg.Defaults.Timeout)
	}
	if cfg.Defaults.PollInterval != time.Second {
		t.Errorf("poll_interval = %s, want 1s", cfg.Defaults.PollInterval)
	}
	if cfg.Defaults.RenderInterval != 3*time.Second {
		t.Errorf("render_interval = %s, want 3s", cfg.Defaults.RenderInterval)
	}
	if cfg.Defaults.OutputMode != "summary" {
		t.Errorf("output_mode = %q, want summary", cfg.Defaults.OutputMode)
	}
	if cfg.Defaults.DashboardPath != "drover-dashboard.json" {
		t.Errorf("dashboard_path = %q", cfg.Defaults.DashboardPath)
	}
	if cfg.Log.MaxEntries != 50 {
		t.Errorf("log.max_entries = %d, want 50", cfg.Log.MaxEntries)
	}
}

func TestLoad_FromFile(t *testing.T) {
	content := `
defaults:
  parallel: 12
  timeout: 90s
  poll_interval: 500ms
  output_mode: visual
log:
  max_entries: 200
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := NewManager(path).Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Defaults.Parallel != 12 {
		t.Errorf("parallel = %d, want 12", cfg.Defaults.Parallel)
	}
	if cfg.Defaults.Timeout != 90*time.Second {
		t.Errorf("timeout = %s, want 90s", cfg.Defaults.Timeout)
	}
	if cfg.Defaults.PollInterval != 500*time.Millisecond {
		t.Errorf("poll_interval = %s, want 500ms", cfg.Defaults.PollInterval)
	}
	if cfg.Defaults.OutputMode != "visual" {
		t.Errorf("output_mode = %q, want visual", cfg.Defaults.OutputMode)
	}
	if cfg.Log.MaxEntries != 200 {
		t.Errorf("log.max_entries = %d, want 200", cfg.Log.MaxEntries)
	}

	// Unset fields still pick up defaults
	if cfg.Defaults.MinParallel != 1 {
		t.Errorf("min_parallel = %d, want default 1", cfg.Defaults.MinParallel)
	}
	if cfg.Defaults.RenderInterval != 3*time.Second {
		t.Errorf("render_interval = %s, want default 3s", cfg.Defaults.RenderInterval)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("defaults: [not: a: map"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	if _, err := NewManager(path).Load(); err == nil {
		t.Fatal("expected an error for malformed config")
	}
}

func TestNewManagerWith_SharesViper(t *testing.T) {
	content := `
defaults:
  output_mode: visual
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	v := viper.New()
	if _, err := NewManagerWith(v, path).Load(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Loaded values and defaults are both visible through the shared instance
	if got := v.GetString("defaults.output_mode"); got != "visual" {
		t.Errorf("output_mode via shared viper = %q, want visual", got)
	}
	if got := v.GetInt("defaults.parallel"); got != 5 {
		t.Errorf("default parallel via shared viper = %d, want 5", got)
	}
	if got := v.GetInt("log.max_entries"); got != 50 {
		t.Errorf("default log.max_entries via shared viper = %d, want 50", got)
	}
}

func TestLoad_HomeDirectoryConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	if err := os.MkdirAll(filepath.Join(home, ".drover"), 0755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}
	content := "defaults:\n  parallel: 7\n"
	if err := os.WriteFile(filepath.Join(home, ".drover", "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := NewManager("").Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Defaults.Parallel != 7 {
		t.Errorf("parallel = %d, want 7 from ~/.drover/config.yaml", cfg.Defaults.Parallel)
	}
}

func TestLoad_HomeFileFallback(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	content := "defaults:\n  parallel: 9\n"
	if err := os.WriteFile(filepath.Join(home, ".drover.yaml"), []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := NewManager("").Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Defaults.Parallel != 9 {
		t.Errorf("parallel = %d, want 9 from ~/.drover.yaml", cfg.Defaults.Parallel)
	}
}

func TestLoad_DirectoryConfigWins(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	if err := os.MkdirAll(filepath.Join(home, ".drover"), 0755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(home, ".drover", "config.yaml"), []byte("defaults:\n  parallel: 7\n"), 0644); err != nil {
		t.Fatalf("failed to write dir config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(home, ".drover.yaml"), []byte("defaults:\n  parallel: 9\n"), 0644); err != nil {
		t.Fatalf("failed to write home config: %v", err)
	}

	cfg, err := NewManager("").Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Defaults.Parallel != 7 {
		t.Errorf("parallel = %d, want ~/.drover/config.yaml to take precedence", cfg.Defaults.Parallel)
	}
}

func TestGetConfig(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.GetConfig() != cfg {
		t.Error("GetConfig must return the loaded configuration")
	}
}
