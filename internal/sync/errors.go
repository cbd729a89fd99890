package sync

import "errors"

// Coordination errors. Version-control errors from the git layer pass
// through wrapped; these cover the coordinator's own failure modes.
var (
	// ErrSyncInProgress is returned when a sync operation is requested
	// while another one is active.
	ErrSyncInProgress = errors.New("sync already in progress")

	// ErrNotResolving is returned by ResolveConflicts when no conflict
	// resolution is pending.
	ErrNotResolving = errors.New("no conflict resolution in progress")

	// ErrFileNotFound is returned when a read targets a path that does
	// not exist in the working copy.
	ErrFileNotFound = errors.New("file not found")

	// ErrMalformedConflict is returned when conflict markers in a file
	// are unbalanced and cannot be parsed.
	ErrMalformedConflict = errors.New("malformed conflict markers")
)
