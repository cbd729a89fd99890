// Package daemon runs the background sync loop: it watches the working
// copy for file changes and feeds them into the coordinator's auto-sync
// debounce, so edits made by any editor get committed and pushed.
package daemon

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	gosync "sync"

	"github.com/fsnotify/fsnotify"

	"github.com/mkeller/logbook/internal/sync"
)

// Config holds configuration for the daemon.
type Config struct {
	// Logger for daemon activity.
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Logger: log.New(os.Stderr, "[daemon] ", log.LstdFlags),
	}
}

// Daemon watches a working copy and drives the coordinator.
type Daemon struct {
	coord    *sync.Coordinator
	repoPath string
	config   *Config

	watcher *fsnotify.Watcher

	ctx    context.Context
	cancel context.CancelFunc
	wg     gosync.WaitGroup
}

// New creates a Daemon watching repoPath on behalf of coord.
func New(coord *sync.Coordinator, repoPath string, config *Config) (*Daemon, error) {
	if coord == nil {
		return nil, fmt.Errorf("coordinator cannot be nil")
	}
	if repoPath == "" {
		return nil, fmt.Errorf("repoPath cannot be empty")
	}
	if config == nil {
		config = DefaultConfig()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Daemon{
		coord:    coord,
		repoPath: repoPath,
		config:   config,
		watcher:  watcher,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Start performs the initial sync, begins watching, and blocks until ctx
// is cancelled.
func (d *Daemon) Start(ctx context.Context) error {
	d.config.Logger.Println("Starting daemon")

	if err := d.coord.InitialSync(ctx); err != nil {
		return fmt.Errorf("initial sync failed: %w", err)
	}

	if err := d.watchTree(d.repoPath); err != nil {
		return fmt.Errorf("failed to watch working copy: %w", err)
	}

	d.config.Logger.Printf("Watching: %s", d.repoPath)

	d.wg.Add(1)
	go d.watchFileEvents()

	select {
	case <-ctx.Done():
		d.config.Logger.Println("Shutdown signal received")
		return d.Stop()
	case <-d.ctx.Done():
		return nil
	}
}

// Stop gracefully shuts down the daemon.
func (d *Daemon) Stop() error {
	d.config.Logger.Println("Stopping daemon")

	d.cancel()

	if err := d.watcher.Close(); err != nil {
		d.config.Logger.Printf("Error closing watcher: %v", err)
	}

	d.wg.Wait()
	d.coord.Close()

	d.config.Logger.Println("Daemon stopped")
	return nil
}

// watchTree registers the repository root and every subdirectory except
// .git. fsnotify watches are not recursive, so each directory is added
// individually and new directories are picked up from create events.
func (d *Daemon) watchTree(root string) error {
	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() {
			return nil
		}
		if entry.Name() == ".git" {
			return filepath.SkipDir
		}
		return d.watcher.Add(path)
	})
}

// watchFileEvents monitors filesystem events and feeds the coordinator.
func (d *Daemon) watchFileEvents() {
	defer d.wg.Done()

	for {
		select {
		case <-d.ctx.Done():
			return

		case event, ok := <-d.watcher.Events:
			if !ok {
				return
			}

			if d.ignored(event.Name) {
				continue
			}

			// Only care about Create, Write, Remove, Rename
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			// New directories need their own watch.
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := d.watcher.Add(event.Name); err != nil {
						d.config.Logger.Printf("Warning: failed to watch %s: %v", event.Name, err)
					}
					continue
				}
			}

			d.config.Logger.Printf("File event: %s %s", event.Op, event.Name)
			d.coord.NoteLocalChange()

		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			d.config.Logger.Printf("Watcher error: %v", err)
		}
	}
}

// ignored reports whether a path should not trigger auto-sync: anything
// under .git, editor temp files, and the atomic-write staging files.
func (d *Daemon) ignored(path string) bool {
	rel, err := filepath.Rel(d.repoPath, path)
	if err != nil {
		return true
	}
	rel = filepath.ToSlash(rel)

	if rel == ".git" || strings.HasPrefix(rel, ".git/") {
		return true
	}

	base := filepath.Base(path)
	if strings.HasSuffix(base, ".tmp") || strings.HasSuffix(base, "~") || strings.HasPrefix(base, ".#") {
		return true
	}

	return false
}
