// Package sync orchestrates offline-first synchronization between the
// local working copy and the remote repository.
//
// The coordinator owns a small state machine (idle, cloning, pulling,
// committing, pushing, resolving conflicts, error) that admits one
// sync-mutating operation at a time. Application code writes files
// through the coordinator, which performs atomic replace-on-write and
// arms a debounce timer; once writes go quiet, the pending changes are
// pulled, committed, and pushed in one pass.
//
// # Offline behavior
//
// Being offline never blocks local durability. A pull that fails with a
// network error is skipped and the commit proceeds; a push that fails
// with a network error marks the changes pending instead of surfacing an
// error. A reachability watcher resumes deferred pushes as soon as
// connectivity returns.
//
// # Conflicts
//
// A pull that hits rebase conflicts parks the coordinator in the
// resolving-conflicts state, which blocks further pulls and pushes until
// ResolveConflicts rewrites the conflicted files with one of the
// block-level strategies and commits the result.
//
// # Usage
//
//	svc := git.New(repoPath)
//	coord := sync.New(svc, store, monitor, sync.DefaultConfig(repoPath, remoteURL))
//	defer coord.Close()
//
//	if err := coord.InitialSync(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	if err := coord.WriteFile("notes/today.md", content); err != nil {
//	    log.Fatal(err)
//	}
package sync
