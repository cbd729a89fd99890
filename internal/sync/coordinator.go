package sync

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/mkeller/logbook/internal/creds"
	"github.com/mkeller/logbook/internal/git"
	"github.com/mkeller/logbook/internal/netwatch"
)

// DefaultDebounceInterval is how long after the last write the auto-sync
// push fires.
const DefaultDebounceInterval = 30 * time.Second

// offlineSyncMessage is the commit message for reachability-triggered
// pushes of deferred changes.
const offlineSyncMessage = "sync offline changes"

// Service is the version-control surface the coordinator drives. It is
// implemented by *git.Service; tests substitute a fake.
type Service interface {
	IsCloned() bool
	Clone(ctx context.Context, remoteURL string, c creds.Credentials) error
	Pull(ctx context.Context, c creds.Credentials) (git.PullOutcome, error)
	Push(ctx context.Context, c creds.Credentials) error
	CommitAll(ctx context.Context, message string) error
	Status(ctx context.Context) (git.RepositoryStatus, error)
	HasLocalChanges(ctx context.Context) (bool, error)
}

// Config holds configuration for the Coordinator.
type Config struct {
	// RepoPath is the working copy root.
	RepoPath string

	// RemoteURL is the credential-free remote URL used for the initial
	// clone.
	RemoteURL string

	// DebounceInterval is the quiet period after a write before
	// auto-sync pushes. Defaults to DefaultDebounceInterval.
	DebounceInterval time.Duration

	// Logger for coordinator activity.
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults for the given repository.
func DefaultConfig(repoPath, remoteURL string) *Config {
	return &Config{
		RepoPath:         repoPath,
		RemoteURL:        remoteURL,
		DebounceInterval: DefaultDebounceInterval,
		Logger:           log.New(os.Stderr, "[sync] ", log.LstdFlags),
	}
}

// Coordinator orchestrates synchronization between the local working copy
// and the remote: it owns the sync state machine, atomic file I/O, the
// auto-sync debounce, and reachability-driven resumption of deferred
// pushes.
//
// One sync-state-mutating operation runs at a time; every public entry
// point checks the state machine before proceeding and fails fast with
// ErrSyncInProgress. The pending-offline flag and the debounce handle are
// guarded separately since the debounce timer and the reachability
// goroutine touch them concurrently with foreground operations.
type Coordinator struct {
	svc      Service
	provider creds.Provider
	monitor  *netwatch.Monitor
	config   *Config

	mu        sync.Mutex // guards state, lastError, lastSync
	state     State
	lastError string
	lastSync  time.Time

	flagMu         sync.Mutex // guards pendingOffline, debounce
	pendingOffline bool
	debounce       *time.Timer

	watchOnce sync.Once
	closeOnce sync.Once
	done      chan struct{}
	wg        sync.WaitGroup
}

// New creates a Coordinator. monitor may be nil, in which case deferred
// pushes are only retried by the next manual sync or debounce cycle.
func New(svc Service, provider creds.Provider, monitor *netwatch.Monitor, config *Config) *Coordinator {
	if config.DebounceInterval <= 0 {
		config.DebounceInterval = DefaultDebounceInterval
	}
	if config.Logger == nil {
		config.Logger = log.New(os.Stderr, "[sync] ", log.LstdFlags)
	}

	return &Coordinator{
		svc:      svc,
		provider: provider,
		monitor:  monitor,
		config:   config,
		done:     make(chan struct{}),
	}
}

// Status returns the current state and, for StateError, its message.
func (c *Coordinator) Status() (State, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state, c.lastError
}

// LastSync returns the time of the last successful sync, or the zero time.
func (c *Coordinator) LastSync() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSync
}

// begin transitions into an active state, failing fast when another sync
// operation is already active.
func (c *Coordinator) begin(to State) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Active() {
		return fmt.Errorf("%w: %s", ErrSyncInProgress, c.state)
	}
	c.state = to
	c.lastError = ""
	return nil
}

// setState advances the state machine mid-operation.
func (c *Coordinator) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// fail records the error state and returns err for propagation.
func (c *Coordinator) fail(err error) error {
	c.mu.Lock()
	c.state = StateError
	c.lastError = err.Error()
	c.mu.Unlock()
	return err
}

// recordSync stamps the last successful sync time.
func (c *Coordinator) recordSync() {
	c.mu.Lock()
	c.lastSync = time.Now()
	c.mu.Unlock()
}

// credentials loads the stored credential pair. An absent credential is a
// distinct error, not an empty value.
func (c *Coordinator) credentials() (*creds.Credentials, error) {
	cr, err := c.provider.Load()
	if err != nil {
		if errors.Is(err, creds.ErrNoCredentials) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}
	return cr, nil
}

// InitialSync brings the working copy up to date with the remote: it
// clones when no working copy exists yet and pulls otherwise. It also
// starts the reachability watcher that resumes deferred pushes.
func (c *Coordinator) InitialSync(ctx context.Context) error {
	cr, err := c.credentials()
	if err != nil {
		return err
	}

	c.startReachabilityWatch()

	if !c.svc.IsCloned() {
		if err := c.begin(StateCloning); err != nil {
			return err
		}
		if err := c.svc.Clone(ctx, c.config.RemoteURL, *cr); err != nil {
			return c.fail(err)
		}
	} else {
		if err := c.begin(StatePulling); err != nil {
			return err
		}
		if _, err := c.svc.Pull(ctx, *cr); err != nil {
			var conflictErr *git.ConflictError
			if errors.As(err, &conflictErr) {
				c.setState(StateResolvingConflicts)
				return err
			}
			return c.fail(err)
		}
	}

	c.recordSync()
	c.setState(StateIdle)
	return nil
}

// PushChanges synchronizes local changes to the remote: pull first (so the
// push fast-forwards), commit local changes if any exist, then push.
//
// A pull conflict aborts the push and leaves the coordinator resolving
// conflicts. A network failure during pull does not block the commit:
// being offline must not cost local durability. A network failure during
// push is not an error either; the changes are marked pending and retried
// when connectivity returns.
func (c *Coordinator) PushChanges(ctx context.Context, message string) error {
	cr, err := c.credentials()
	if err != nil {
		return err
	}

	if err := c.begin(StatePulling); err != nil {
		return err
	}

	if _, err := c.svc.Pull(ctx, *cr); err != nil {
		var conflictErr *git.ConflictError
		switch {
		case errors.As(err, &conflictErr):
			c.setState(StateResolvingConflicts)
			return err
		case git.IsNetwork(err):
			c.config.Logger.Printf("Pull skipped while offline: %v", err)
		default:
			return c.fail(err)
		}
	}

	c.setState(StateCommitting)

	hasChanges, err := c.svc.HasLocalChanges(ctx)
	if err != nil {
		return c.fail(err)
	}
	if hasChanges {
		if err := c.svc.CommitAll(ctx, message); err != nil && !errors.Is(err, git.ErrNoChanges) {
			return c.fail(err)
		}
	}

	c.setState(StatePushing)

	if err := c.svc.Push(ctx, *cr); err != nil {
		if git.IsNetwork(err) {
			c.setPendingOffline(true)
			c.setState(StateIdle)
			c.config.Logger.Printf("Push deferred while offline: %v", err)
			return nil
		}
		return c.fail(err)
	}

	c.recordSync()
	c.setPendingOffline(false)
	c.setState(StateIdle)
	return nil
}

// ResolveConflicts rewrites every conflicted file per the strategy,
// commits the result, and returns the state machine to idle. It requires
// a pending conflict resolution.
func (c *Coordinator) ResolveConflicts(ctx context.Context, strategy ConflictStrategy) error {
	// Check and transition under one lock so a concurrent call cannot also
	// pass the gate and resolve twice. Committing is an active state, which
	// keeps pushes out as well until resolution finishes.
	c.mu.Lock()
	if c.state != StateResolvingConflicts {
		c.mu.Unlock()
		return fmt.Errorf("%w (state: %s)", ErrNotResolving, c.state)
	}
	c.state = StateCommitting
	c.mu.Unlock()

	status, err := c.svc.Status(ctx)
	if err != nil {
		return c.fail(fmt.Errorf("conflict resolution failed: %w", err))
	}

	resolved := 0
	for _, path := range status.ModifiedFiles {
		content, err := c.ReadFile(path)
		if err != nil {
			return c.fail(fmt.Errorf("conflict resolution failed: %w", err))
		}
		if !HasConflictMarkers(string(content)) {
			continue
		}

		merged, err := ResolveContent(string(content), strategy)
		if err != nil {
			return c.fail(fmt.Errorf("conflict resolution failed for %s: %w", path, err))
		}

		if err := c.WriteFile(path, []byte(merged)); err != nil {
			return c.fail(fmt.Errorf("conflict resolution failed: %w", err))
		}
		resolved++
	}

	message := fmt.Sprintf("resolve conflicts (%s)", strategy)
	if err := c.svc.CommitAll(ctx, message); err != nil && !errors.Is(err, git.ErrNoChanges) {
		return c.fail(fmt.Errorf("conflict resolution failed: %w", err))
	}

	c.config.Logger.Printf("Resolved conflicts in %d file(s) using %q", resolved, strategy)
	c.setState(StateIdle)
	return nil
}

// PendingOfflineChanges reports whether a push is deferred awaiting
// connectivity.
func (c *Coordinator) PendingOfflineChanges() bool {
	c.flagMu.Lock()
	defer c.flagMu.Unlock()
	return c.pendingOffline
}

func (c *Coordinator) setPendingOffline(pending bool) {
	c.flagMu.Lock()
	c.pendingOffline = pending
	c.flagMu.Unlock()
}

// Close cancels any pending auto-sync, stops the reachability watcher, and
// waits for background work to finish. Closing a closed coordinator is a
// no-op.
func (c *Coordinator) Close() {
	c.closeOnce.Do(func() {
		c.flagMu.Lock()
		if c.debounce != nil {
			c.debounce.Stop()
			c.debounce = nil
		}
		c.flagMu.Unlock()

		close(c.done)
		if c.monitor != nil {
			c.monitor.Stop()
		}
		c.wg.Wait()
	})
}

// startReachabilityWatch starts consuming connectivity transitions. Safe
// to call more than once; only the first call has an effect.
func (c *Coordinator) startReachabilityWatch() {
	if c.monitor == nil {
		return
	}

	c.watchOnce.Do(func() {
		if err := c.monitor.Start(); err != nil {
			c.config.Logger.Printf("Warning: reachability monitor not started: %v", err)
			return
		}

		c.wg.Add(1)
		go c.watchReachability()
	})
}

// watchReachability resumes deferred pushes when connectivity returns.
// The push runs detached so the observer loop is never blocked behind a
// network operation.
func (c *Coordinator) watchReachability() {
	defer c.wg.Done()

	for {
		select {
		case <-c.done:
			return

		case tr, ok := <-c.monitor.Events():
			if !ok {
				return
			}
			if !tr.Online {
				continue
			}
			if !c.PendingOfflineChanges() {
				continue
			}

			c.config.Logger.Printf("Connectivity restored; pushing deferred changes")
			go func() {
				if err := c.PushChanges(context.Background(), offlineSyncMessage); err != nil {
					// Background retries stay silent; the next manual
					// sync or debounce cycle will try again.
					c.config.Logger.Printf("Deferred push failed: %v", err)
				}
			}()
		}
	}
}
