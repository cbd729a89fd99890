package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Remote != "origin" {
		t.Errorf("Remote = %q, want origin", cfg.Remote)
	}
	if cfg.Branch != "main" {
		t.Errorf("Branch = %q, want main", cfg.Branch)
	}
	if cfg.DebounceInterval != 30*time.Second {
		t.Errorf("DebounceInterval = %v, want 30s", cfg.DebounceInterval)
	}
	if cfg.RetryMaxAttempts != 4 {
		t.Errorf("RetryMaxAttempts = %d, want 4", cfg.RetryMaxAttempts)
	}
	if cfg.RetryInitialDelay != 2*time.Second {
		t.Errorf("RetryInitialDelay = %v, want 2s", cfg.RetryInitialDelay)
	}
	if cfg.RetryMultiplier != 2.0 {
		t.Errorf("RetryMultiplier = %v, want 2.0", cfg.RetryMultiplier)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	content := "remote_url: https://example.com/notes.git\nbranch: trunk\ndebounce_interval: 10s\n"
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.RemoteURL != "https://example.com/notes.git" {
		t.Errorf("RemoteURL = %q", cfg.RemoteURL)
	}
	if cfg.Branch != "trunk" {
		t.Errorf("Branch = %q, want trunk", cfg.Branch)
	}
	if cfg.DebounceInterval != 10*time.Second {
		t.Errorf("DebounceInterval = %v, want 10s", cfg.DebounceInterval)
	}
}

func TestLoadRepoSettingsOverride(t *testing.T) {
	repo := t.TempDir()
	settings := "branch: journal\ndebounce_interval: 5s\n"
	if err := os.WriteFile(filepath.Join(repo, RepoSettingsFile), []byte(settings), 0o644); err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("repo_path: "+repo+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Branch != "journal" {
		t.Errorf("Branch = %q, want journal", cfg.Branch)
	}
	if cfg.DebounceInterval != 5*time.Second {
		t.Errorf("DebounceInterval = %v, want 5s", cfg.DebounceInterval)
	}
}

func TestLoadRepoSettingsMalformed(t *testing.T) {
	repo := t.TempDir()
	if err := os.WriteFile(filepath.Join(repo, RepoSettingsFile), []byte("debounce_interval: banana\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("repo_path: "+repo+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(cfgPath); err == nil {
		t.Fatal("expected error for malformed debounce_interval")
	}
}
