package sync

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mkeller/logbook/internal/creds"
	"github.com/mkeller/logbook/internal/git"
	"github.com/mkeller/logbook/internal/netwatch"
)

// fakeService is a scripted Service implementation recording calls.
type fakeService struct {
	mu sync.Mutex

	cloned      bool
	pullOutcome git.PullOutcome
	pullErr     error
	pushErr     error
	commitErr   error
	hasChanges  bool
	status      git.RepositoryStatus
	statusHook  func()

	cloneCalls     int
	pullCalls      int
	pushCalls      int
	commitCalls    int
	commitMessages []string
}

func (f *fakeService) IsCloned() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cloned
}

func (f *fakeService) Clone(ctx context.Context, remoteURL string, c creds.Credentials) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cloneCalls++
	f.cloned = true
	return nil
}

func (f *fakeService) Pull(ctx context.Context, c creds.Credentials) (git.PullOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pullCalls++
	return f.pullOutcome, f.pullErr
}

func (f *fakeService) Push(ctx context.Context, c creds.Credentials) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushCalls++
	return f.pushErr
}

func (f *fakeService) CommitAll(ctx context.Context, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commitCalls++
	f.commitMessages = append(f.commitMessages, message)
	return f.commitErr
}

func (f *fakeService) Status(ctx context.Context) (git.RepositoryStatus, error) {
	f.mu.Lock()
	status := f.status
	hook := f.statusHook
	f.mu.Unlock()

	// Runs outside the lock so a blocking hook cannot deadlock other calls.
	if hook != nil {
		hook()
	}
	return status, nil
}

func (f *fakeService) HasLocalChanges(ctx context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hasChanges, nil
}

func (f *fakeService) counts() (pulls, commits, pushes int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pullCalls, f.commitCalls, f.pushCalls
}

func netErr() error {
	return git.ErrNetworkFailure
}

func newTestCoordinator(t *testing.T, svc *fakeService) (*Coordinator, *creds.MemoryStore) {
	t.Helper()

	store := creds.NewMemoryStore()
	if err := store.Save(creds.Credentials{Username: "alice", Token: "tok"}); err != nil {
		t.Fatalf("failed to seed credentials: %v", err)
	}

	config := &Config{
		RepoPath:         t.TempDir(),
		RemoteURL:        "https://example.com/r.git",
		DebounceInterval: 50 * time.Millisecond,
		Logger:           log.New(io.Discard, "", 0),
	}

	return New(svc, store, nil, config), store
}

func TestInitialSyncClonesWhenMissing(t *testing.T) {
	svc := &fakeService{}
	c, _ := newTestCoordinator(t, svc)
	defer c.Close()

	if err := c.InitialSync(context.Background()); err != nil {
		t.Fatalf("InitialSync() failed: %v", err)
	}

	if svc.cloneCalls != 1 {
		t.Errorf("clone called %d times, want 1", svc.cloneCalls)
	}
	if svc.pullCalls != 0 {
		t.Errorf("pull called %d times, want 0", svc.pullCalls)
	}

	state, _ := c.Status()
	if state != StateIdle {
		t.Errorf("state = %v, want idle", state)
	}
	if c.LastSync().IsZero() {
		t.Error("LastSync() not recorded")
	}
}

func TestInitialSyncPullsWhenCloned(t *testing.T) {
	svc := &fakeService{cloned: true, pullOutcome: git.PullOutcome{Kind: git.PullMerged, FileCount: 2}}
	c, _ := newTestCoordinator(t, svc)
	defer c.Close()

	if err := c.InitialSync(context.Background()); err != nil {
		t.Fatalf("InitialSync() failed: %v", err)
	}

	if svc.cloneCalls != 0 || svc.pullCalls != 1 {
		t.Errorf("clone/pull = %d/%d, want 0/1", svc.cloneCalls, svc.pullCalls)
	}
}

func TestInitialSyncNoCredentials(t *testing.T) {
	svc := &fakeService{}
	store := creds.NewMemoryStore()
	config := &Config{RepoPath: t.TempDir(), Logger: log.New(io.Discard, "", 0)}

	c := New(svc, store, nil, config)
	defer c.Close()

	if err := c.InitialSync(context.Background()); !errors.Is(err, creds.ErrNoCredentials) {
		t.Errorf("InitialSync() error = %v, want ErrNoCredentials", err)
	}
}

func TestSyncInProgressGuard(t *testing.T) {
	svc := &fakeService{cloned: true}
	c, _ := newTestCoordinator(t, svc)
	defer c.Close()

	c.setState(StatePulling)

	err := c.PushChanges(context.Background(), "blocked")
	if !errors.Is(err, ErrSyncInProgress) {
		t.Fatalf("PushChanges() error = %v, want ErrSyncInProgress", err)
	}

	state, _ := c.Status()
	if state != StatePulling {
		t.Errorf("state = %v, want unchanged pulling", state)
	}
	if pulls, commits, pushes := svc.counts(); pulls+commits+pushes != 0 {
		t.Errorf("service touched (%d/%d/%d) despite guard", pulls, commits, pushes)
	}
}

func TestPushChangesNoLocalChanges(t *testing.T) {
	svc := &fakeService{cloned: true}
	c, _ := newTestCoordinator(t, svc)
	defer c.Close()

	if err := c.PushChanges(context.Background(), "nothing"); err != nil {
		t.Fatalf("PushChanges() failed: %v", err)
	}

	pulls, commits, pushes := svc.counts()
	if pulls != 1 || pushes != 1 {
		t.Errorf("pull/push = %d/%d, want 1/1", pulls, pushes)
	}
	if commits != 0 {
		t.Errorf("commit called %d times with no local changes, want 0", commits)
	}
}

func TestPushChangesCommitsWhenDirty(t *testing.T) {
	svc := &fakeService{cloned: true, hasChanges: true}
	c, _ := newTestCoordinator(t, svc)
	defer c.Close()

	if err := c.PushChanges(context.Background(), "journal update"); err != nil {
		t.Fatalf("PushChanges() failed: %v", err)
	}

	if svc.commitCalls != 1 || svc.commitMessages[0] != "journal update" {
		t.Errorf("commits = %d %v, want one %q", svc.commitCalls, svc.commitMessages, "journal update")
	}
}

func TestPushChangesConflictAborts(t *testing.T) {
	svc := &fakeService{
		cloned:     true,
		hasChanges: true,
		pullErr:    &git.ConflictError{Files: []string{"notes/today.md"}},
	}
	c, _ := newTestCoordinator(t, svc)
	defer c.Close()

	err := c.PushChanges(context.Background(), "doomed")

	var conflictErr *git.ConflictError
	if !errors.As(err, &conflictErr) {
		t.Fatalf("PushChanges() error = %v, want ConflictError", err)
	}

	state, _ := c.Status()
	if state != StateResolvingConflicts {
		t.Errorf("state = %v, want resolving conflicts", state)
	}
	if _, commits, pushes := svc.counts(); commits != 0 || pushes != 0 {
		t.Errorf("commit/push = %d/%d after conflict, want 0/0", commits, pushes)
	}
}

func TestPushChangesPullNetworkFailureTolerated(t *testing.T) {
	svc := &fakeService{cloned: true, hasChanges: true, pullErr: netErr()}
	c, _ := newTestCoordinator(t, svc)
	defer c.Close()

	if err := c.PushChanges(context.Background(), "offline edit"); err != nil {
		t.Fatalf("PushChanges() failed: %v", err)
	}

	if _, commits, pushes := svc.counts(); commits != 1 || pushes != 1 {
		t.Errorf("commit/push = %d/%d, want 1/1 despite offline pull", commits, pushes)
	}
}

func TestPushChangesPushNetworkFailureDeferred(t *testing.T) {
	svc := &fakeService{cloned: true, hasChanges: true, pushErr: netErr()}
	c, _ := newTestCoordinator(t, svc)
	defer c.Close()

	if err := c.PushChanges(context.Background(), "offline edit"); err != nil {
		t.Fatalf("PushChanges() returned %v, want swallowed network failure", err)
	}

	if !c.PendingOfflineChanges() {
		t.Error("pending-offline flag not set after deferred push")
	}
	state, _ := c.Status()
	if state != StateIdle {
		t.Errorf("state = %v, want idle", state)
	}
}

func TestPushChangesOtherPushFailureSurfaces(t *testing.T) {
	svc := &fakeService{cloned: true, pushErr: errors.New("push failed: remote hook rejected")}
	c, _ := newTestCoordinator(t, svc)
	defer c.Close()

	if err := c.PushChanges(context.Background(), "rejected"); err == nil {
		t.Fatal("PushChanges() succeeded, want error")
	}

	state, msg := c.Status()
	if state != StateError || msg == "" {
		t.Errorf("state = %v (%q), want error with message", state, msg)
	}
}

func TestDebounceCollapsesRapidWrites(t *testing.T) {
	svc := &fakeService{cloned: true, hasChanges: true}
	c, _ := newTestCoordinator(t, svc)
	defer c.Close()

	for i := 0; i < 5; i++ {
		if err := c.WriteFile("notes/today.md", []byte("entry")); err != nil {
			t.Fatalf("WriteFile() failed: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	// The 50ms window restarted on each write and has not yet elapsed.
	if _, _, pushes := svc.counts(); pushes != 0 {
		t.Fatalf("push ran %d times during the debounce window, want 0", pushes)
	}

	waitFor(t, time.Second, func() bool {
		_, _, pushes := svc.counts()
		return pushes == 1
	})

	// One more quiet period: still exactly one push.
	time.Sleep(120 * time.Millisecond)
	if _, _, pushes := svc.counts(); pushes != 1 {
		t.Errorf("push ran %d times, want exactly 1", pushes)
	}

	svc.mu.Lock()
	message := svc.commitMessages[len(svc.commitMessages)-1]
	svc.mu.Unlock()
	if !strings.HasPrefix(message, "auto-sync ") {
		t.Fatalf("auto-sync commit message = %q", message)
	}
	if _, err := time.Parse(time.RFC3339, strings.TrimPrefix(message, "auto-sync ")); err != nil {
		t.Errorf("auto-sync message timestamp not RFC 3339: %v", err)
	}
}

func TestReachabilityResumesDeferredPush(t *testing.T) {
	svc := &fakeService{cloned: true, hasChanges: true}
	c, _ := newTestCoordinator(t, svc)

	var online atomic.Bool
	monitor := netwatch.New(func(ctx context.Context) bool { return online.Load() }, 5*time.Millisecond)
	c.monitor = monitor
	defer c.Close()

	c.setPendingOffline(true)
	c.startReachabilityWatch()

	online.Store(true)

	waitFor(t, time.Second, func() bool {
		_, _, pushes := svc.counts()
		return pushes >= 1
	})

	svc.mu.Lock()
	message := svc.commitMessages[len(svc.commitMessages)-1]
	svc.mu.Unlock()
	if message != offlineSyncMessage {
		t.Errorf("deferred push message = %q, want %q", message, offlineSyncMessage)
	}

	// No further transitions: exactly one push.
	time.Sleep(50 * time.Millisecond)
	if _, _, pushes := svc.counts(); pushes != 1 {
		t.Errorf("push ran %d times, want exactly 1", pushes)
	}
}

func TestResolveConflictsRequiresPendingResolution(t *testing.T) {
	svc := &fakeService{cloned: true}
	c, _ := newTestCoordinator(t, svc)
	defer c.Close()

	if err := c.ResolveConflicts(context.Background(), KeepLocal); !errors.Is(err, ErrNotResolving) {
		t.Errorf("ResolveConflicts() error = %v, want ErrNotResolving", err)
	}
}

func TestResolveConflictsKeepLocal(t *testing.T) {
	svc := &fakeService{cloned: true}
	svc.status = git.RepositoryStatus{ModifiedFiles: []string{"notes/today.md"}}

	c, _ := newTestCoordinator(t, svc)
	defer c.Close()

	// Keep the debounce out of the way; this test only exercises resolution.
	c.config.DebounceInterval = time.Hour

	conflicted := strings.Join([]string{
		"# Today",
		"<<<<<<< HEAD",
		"slept 8 hours",
		"=======",
		"slept 6 hours",
		">>>>>>> origin/main",
		"ran 5k",
		"",
	}, "\n")
	if err := c.WriteFile("notes/today.md", []byte(conflicted)); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}

	c.setState(StateResolvingConflicts)

	if err := c.ResolveConflicts(context.Background(), KeepLocal); err != nil {
		t.Fatalf("ResolveConflicts() failed: %v", err)
	}

	got, err := c.ReadFile("notes/today.md")
	if err != nil {
		t.Fatalf("ReadFile() failed: %v", err)
	}

	want := "# Today\nslept 8 hours\nran 5k\n"
	if string(got) != want {
		t.Errorf("resolved content = %q, want %q", got, want)
	}

	svc.mu.Lock()
	message := svc.commitMessages[len(svc.commitMessages)-1]
	svc.mu.Unlock()
	if !strings.Contains(message, string(KeepLocal)) {
		t.Errorf("resolution commit message = %q, want strategy name", message)
	}

	state, _ := c.Status()
	if state != StateIdle {
		t.Errorf("state = %v, want idle after resolution", state)
	}
}

func TestResolveConflictsSingleFlight(t *testing.T) {
	svc := &fakeService{cloned: true}
	c, _ := newTestCoordinator(t, svc)
	defer c.Close()

	entered := make(chan struct{})
	release := make(chan struct{})
	svc.statusHook = func() {
		close(entered)
		<-release
	}

	c.setState(StateResolvingConflicts)

	firstDone := make(chan error, 1)
	go func() {
		firstDone <- c.ResolveConflicts(context.Background(), KeepLocal)
	}()

	// The first call is mid-resolution; a second must be rejected, not
	// resolve and commit a second time.
	<-entered
	if err := c.ResolveConflicts(context.Background(), KeepLocal); !errors.Is(err, ErrNotResolving) {
		t.Errorf("concurrent ResolveConflicts() error = %v, want ErrNotResolving", err)
	}

	close(release)
	if err := <-firstDone; err != nil {
		t.Fatalf("ResolveConflicts() failed: %v", err)
	}

	if svc.commitCalls != 1 {
		t.Errorf("resolution committed %d times, want 1", svc.commitCalls)
	}
	state, _ := c.Status()
	if state != StateIdle {
		t.Errorf("state = %v, want idle", state)
	}
}

func TestCloseIdempotent(t *testing.T) {
	svc := &fakeService{cloned: true}
	c, _ := newTestCoordinator(t, svc)

	c.Close()
	c.Close()
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}
