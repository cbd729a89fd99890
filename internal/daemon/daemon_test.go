package daemon

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mkeller/logbook/internal/sync"
)

func newTestDaemon(t *testing.T) (*Daemon, string) {
	t.Helper()

	dir := t.TempDir()
	coord := sync.New(nil, nil, nil, &sync.Config{
		RepoPath:         dir,
		DebounceInterval: time.Hour,
		Logger:           log.New(io.Discard, "", 0),
	})

	d, err := New(coord, dir, &Config{Logger: log.New(io.Discard, "", 0)})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { d.watcher.Close() })

	return d, dir
}

func TestIgnored(t *testing.T) {
	d, dir := newTestDaemon(t)

	tests := []struct {
		path string
		want bool
	}{
		{filepath.Join(dir, "2026-08-31.md"), false},
		{filepath.Join(dir, "notes", "ideas.md"), false},
		{filepath.Join(dir, ".git"), true},
		{filepath.Join(dir, ".git", "index.lock"), true},
		{filepath.Join(dir, "2026-08-31.md.tmp"), true},
		{filepath.Join(dir, "2026-08-31.md~"), true},
		{filepath.Join(dir, ".#2026-08-31.md"), true},
	}

	for _, tt := range tests {
		if got := d.ignored(tt.path); got != tt.want {
			t.Errorf("ignored(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestWatchTreeSkipsGitDir(t *testing.T) {
	d, dir := newTestDaemon(t)

	for _, sub := range []string{"notes", filepath.Join(".git", "objects")} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			t.Fatal(err)
		}
	}

	if err := d.watchTree(dir); err != nil {
		t.Fatalf("watchTree: %v", err)
	}

	watched := d.watcher.WatchList()
	for _, w := range watched {
		if filepath.Base(w) == ".git" || filepath.Base(w) == "objects" {
			t.Errorf("watching git-internal directory %s", w)
		}
	}

	found := false
	for _, w := range watched {
		if w == filepath.Join(dir, "notes") {
			found = true
		}
	}
	if !found {
		t.Error("notes subdirectory not watched")
	}
}

func TestNewRequiresCoordinator(t *testing.T) {
	if _, err := New(nil, t.TempDir(), nil); err == nil {
		t.Fatal("expected error for nil coordinator")
	}
}
