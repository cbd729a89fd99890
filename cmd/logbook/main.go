// Command logbook synchronizes a git-backed journal of plain-text files
// between this machine and a remote repository. It works offline: writes
// are committed locally and pushed when the network comes back.
package main

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mkeller/logbook/internal/config"
	"github.com/mkeller/logbook/internal/creds"
	"github.com/mkeller/logbook/internal/git"
	"github.com/mkeller/logbook/internal/netwatch"
	"github.com/mkeller/logbook/internal/sync"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "logbook",
	Short: "Offline-first sync for a git-backed journal",
	Long: `logbook keeps a directory of plain-text entries synchronized with a
git remote. Entries are committed locally as you write, pulled and pushed
in the background, and deferred while offline.

Configuration lives in $XDG_CONFIG_HOME/logbook/config.yaml; a repository
can override branch and debounce settings in its own .logbook.yml.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/logbook/config.yaml)")
}

// loadConfig resolves configuration or exits with a message.
func loadConfig() *config.Config {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// newService builds the git service from resolved configuration.
func newService(cfg *config.Config, logger *log.Logger) *git.Service {
	return git.NewWithConfig(cfg.RepoPath, git.NewExecRunner(), &git.Config{
		Remote: cfg.Remote,
		Branch: cfg.Branch,
		Retry: git.RetryPolicy{
			MaxAttempts:  cfg.RetryMaxAttempts,
			InitialDelay: cfg.RetryInitialDelay,
			Multiplier:   cfg.RetryMultiplier,
		},
		Logger: logger,
	})
}

// newMonitor builds the reachability monitor. Returns nil when no probe
// address can be derived, in which case the engine simply never defers on
// a closed network and relies on push failures instead.
func newMonitor(cfg *config.Config) *netwatch.Monitor {
	addr := cfg.ProbeAddr
	if addr == "" {
		u, err := url.Parse(cfg.RemoteURL)
		if err != nil || u.Host == "" {
			return nil
		}
		addr = u.Hostname() + ":443"
	}
	return netwatch.New(netwatch.TCPProber(addr, 5*time.Second), cfg.ProbeInterval)
}

// newCoordinator wires the full sync stack from configuration.
func newCoordinator(cfg *config.Config, logger *log.Logger) *sync.Coordinator {
	svc := newService(cfg, logger)
	provider := creds.NewFileStore(cfg.CredentialsFile)

	sc := sync.DefaultConfig(cfg.RepoPath, cfg.RemoteURL)
	sc.DebounceInterval = cfg.DebounceInterval
	if logger != nil {
		sc.Logger = logger
	}

	return sync.New(svc, provider, newMonitor(cfg), sc)
}

// fatal prints an error in the standard form and exits.
func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
