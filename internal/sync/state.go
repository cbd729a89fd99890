package sync

// State is the coordinator's sync state machine. Exactly one state holds
// at a time; Idle and Error are the only non-active states and gate the
// mutual exclusion of sync operations.
type State int

const (
	// StateIdle means no sync operation is running.
	StateIdle State = iota

	// StateCloning means the initial clone is in progress.
	StateCloning

	// StatePulling means a pull is in progress.
	StatePulling

	// StateCommitting means local changes are being committed.
	StateCommitting

	// StatePushing means a push is in progress.
	StatePushing

	// StateResolvingConflicts means a pull hit conflicts that must be
	// resolved before another pull or push proceeds.
	StateResolvingConflicts

	// StateError means the last operation failed unexpectedly. The
	// message is available via Status().
	StateError
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCloning:
		return "cloning"
	case StatePulling:
		return "pulling"
	case StateCommitting:
		return "committing"
	case StatePushing:
		return "pushing"
	case StateResolvingConflicts:
		return "resolving conflicts"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Active returns true for states during which no other sync operation may
// start. Idle and Error are inactive; everything else is active.
func (s State) Active() bool {
	return s != StateIdle && s != StateError
}

// ConflictStrategy selects how conflicted blocks are resolved.
type ConflictStrategy string

const (
	// KeepLocal keeps the local block of every conflicted section.
	KeepLocal ConflictStrategy = "local"

	// KeepRemote keeps the remote block of every conflicted section.
	KeepRemote ConflictStrategy = "remote"

	// PerSection decides section by section: an empty side loses, a side
	// that extends the other wins, and local wins otherwise.
	PerSection ConflictStrategy = "sections"
)
