// Package config loads logbook configuration: the global config file and
// environment on one side, and per-repository overrides from a
// .logbook.yml file inside the working copy on the other.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// RepoSettingsFile is the per-working-copy settings file name.
const RepoSettingsFile = ".logbook.yml"

// Config is the resolved logbook configuration.
type Config struct {
	// RepoPath is the local working copy root.
	RepoPath string

	// RemoteURL is the credential-free remote URL.
	RemoteURL string

	// Remote and Branch name the single remote and branch the engine
	// synchronizes with.
	Remote string
	Branch string

	// DebounceInterval is the auto-sync quiet period.
	DebounceInterval time.Duration

	// ProbeInterval and ProbeAddr configure the reachability monitor.
	// An empty ProbeAddr derives host:443 from RemoteURL.
	ProbeInterval time.Duration
	ProbeAddr     string

	// Retry bounds network-failure retries.
	RetryMaxAttempts  int
	RetryInitialDelay time.Duration
	RetryMultiplier   float64

	// CredentialsFile is where the file-backed credential store lives.
	CredentialsFile string

	// LogFile, when set, routes daemon logs through a rotated file.
	LogFile string
}

// Load reads configuration from the given file (or the default location
// when empty), applies LOGBOOK_* environment overrides, and merges any
// per-repository settings file found in the working copy.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("remote", "origin")
	v.SetDefault("branch", "main")
	v.SetDefault("debounce_interval", "30s")
	v.SetDefault("probe_interval", "15s")
	v.SetDefault("retry.max_attempts", 4)
	v.SetDefault("retry.initial_delay", "2s")
	v.SetDefault("retry.multiplier", 2.0)

	configDir, err := defaultConfigDir()
	if err != nil {
		return nil, err
	}
	v.SetDefault("repo_path", filepath.Join(configDir, "repo"))
	v.SetDefault("credentials_file", filepath.Join(configDir, "credentials.json"))

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(configDir)
	}

	v.SetEnvPrefix("LOGBOOK")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && cfgFile != "" {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if !errors.As(err, &notFound) && cfgFile == "" {
			// A present-but-broken default config should not be silent.
			if _, statErr := os.Stat(filepath.Join(configDir, "config.yaml")); statErr == nil {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	cfg := &Config{
		RepoPath:          v.GetString("repo_path"),
		RemoteURL:         v.GetString("remote_url"),
		Remote:            v.GetString("remote"),
		Branch:            v.GetString("branch"),
		DebounceInterval:  v.GetDuration("debounce_interval"),
		ProbeInterval:     v.GetDuration("probe_interval"),
		ProbeAddr:         v.GetString("probe_addr"),
		RetryMaxAttempts:  v.GetInt("retry.max_attempts"),
		RetryInitialDelay: v.GetDuration("retry.initial_delay"),
		RetryMultiplier:   v.GetFloat64("retry.multiplier"),
		CredentialsFile:   v.GetString("credentials_file"),
		LogFile:           v.GetString("log_file"),
	}

	if err := cfg.applyRepoSettings(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// repoSettings are the per-working-copy overrides.
type repoSettings struct {
	Branch           string `yaml:"branch"`
	DebounceInterval string `yaml:"debounce_interval"`
}

// applyRepoSettings merges .logbook.yml from the working copy, when present.
func (c *Config) applyRepoSettings() error {
	path := filepath.Join(c.RepoPath, RepoSettingsFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", RepoSettingsFile, err)
	}

	var s repoSettings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("failed to parse %s: %w", RepoSettingsFile, err)
	}

	if s.Branch != "" {
		c.Branch = s.Branch
	}
	if s.DebounceInterval != "" {
		d, err := time.ParseDuration(s.DebounceInterval)
		if err != nil {
			return fmt.Errorf("invalid debounce_interval in %s: %w", RepoSettingsFile, err)
		}
		c.DebounceInterval = d
	}

	return nil
}

// defaultConfigDir returns the logbook config directory, honoring
// XDG_CONFIG_HOME.
func defaultConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "logbook"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate home directory: %w", err)
	}
	return filepath.Join(home, ".config", "logbook"), nil
}
