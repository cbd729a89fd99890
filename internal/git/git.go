// Package git wraps the git binary to provide the version-control
// operations the sync engine needs: clone, pull (fetch + rebase with
// conflict detection), push, commit-all, and status.
//
// All network-facing operations embed credentials into the remote URL for
// the duration of a single command and restore the original URL on every
// exit path, and are wrapped in an exponential-backoff retry policy that
// retries network failures only.
//
// The package shells out through the CommandExecutor seam; tests substitute
// a scripted executor and never need a network.
package git

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// DefaultBranch is the branch assumed when HEAD is detached or unreadable.
const DefaultBranch = "main"

// DefaultRemote is the single remote the engine synchronizes with.
const DefaultRemote = "origin"

// PullKind discriminates the outcome of a pull attempt.
type PullKind int

const (
	// PullUpToDate means the local branch already matched the remote.
	PullUpToDate PullKind = iota

	// PullMerged means remote commits were rebased in cleanly.
	PullMerged

	// PullConflict means the rebase hit conflicts and was aborted.
	PullConflict
)

// String returns a human-readable representation of the pull kind.
func (k PullKind) String() string {
	switch k {
	case PullUpToDate:
		return "up-to-date"
	case PullMerged:
		return "merged"
	case PullConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// PullOutcome describes the result of a single pull attempt. Exactly one
// variant applies: FileCount is set for PullMerged, ConflictFiles for
// PullConflict.
type PullOutcome struct {
	Kind          PullKind
	FileCount     int
	ConflictFiles []string
}

// RepositoryStatus is a fresh snapshot of the working copy. It is derived
// from git on each call and never cached.
type RepositoryStatus struct {
	Branch                string
	ModifiedFiles         []string
	UntrackedFiles        []string
	HasUncommittedChanges bool
	AheadCount            int
	BehindCount           int
}

// Config holds configuration for the Service.
type Config struct {
	// Remote is the remote name. Defaults to DefaultRemote.
	Remote string

	// Branch is the fallback branch name when HEAD is detached or empty.
	// Defaults to DefaultBranch.
	Branch string

	// Retry bounds retries of network failures.
	Retry RetryPolicy

	// Logger for service activity.
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Remote: DefaultRemote,
		Branch: DefaultBranch,
		Retry:  DefaultRetryPolicy(),
		Logger: log.New(os.Stderr, "[git] ", log.LstdFlags),
	}
}

// Service implements the version-control operations over a CommandExecutor.
type Service struct {
	repoPath string
	runner   CommandExecutor
	config   *Config
}

// New creates a Service for the working copy at repoPath using the git
// binary and default configuration. The working copy need not exist yet;
// Clone creates it.
func New(repoPath string) *Service {
	return NewWithConfig(repoPath, NewExecRunner(), DefaultConfig())
}

// NewWithConfig creates a Service with a custom executor and configuration.
func NewWithConfig(repoPath string, runner CommandExecutor, config *Config) *Service {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Remote == "" {
		config.Remote = DefaultRemote
	}
	if config.Branch == "" {
		config.Branch = DefaultBranch
	}
	if config.Retry.MaxAttempts == 0 {
		config.Retry = DefaultRetryPolicy()
	}
	if config.Logger == nil {
		config.Logger = log.New(os.Stderr, "[git] ", log.LstdFlags)
	}

	return &Service{
		repoPath: repoPath,
		runner:   runner,
		config:   config,
	}
}

// RepoPath returns the working copy root this service operates on.
func (s *Service) RepoPath() string {
	return s.repoPath
}

// IsCloned returns true if the working copy's metadata directory exists.
func (s *Service) IsCloned() bool {
	info, err := os.Stat(filepath.Join(s.repoPath, ".git"))
	return err == nil && info.IsDir()
}

// requireCloned fails fast when no working copy exists.
func (s *Service) requireCloned() error {
	if _, err := os.Stat(s.repoPath); os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrDirectoryNotFound, s.repoPath)
	}
	if !s.IsCloned() {
		return fmt.Errorf("%w: %s", ErrNotCloned, s.repoPath)
	}
	return nil
}
