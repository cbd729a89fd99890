package git

import (
	"errors"
	"fmt"
	"strings"
)

// Common errors returned by version-control operations.
//
// These errors can be checked using errors.Is() for proper error handling:
//
//	if errors.Is(err, git.ErrNotCloned) {
//	    // Handle case where no working copy exists yet
//	}
var (
	// ErrNotCloned is returned when the operation requires an existing
	// working copy but the metadata directory was not found.
	ErrNotCloned = errors.New("repository not cloned")

	// ErrAlreadyCloned is returned when attempting to clone into a path
	// that already holds a working copy.
	ErrAlreadyCloned = errors.New("repository already cloned")

	// ErrNoChanges is returned by CommitAll when nothing is staged.
	// Callers use this to skip no-op commits.
	ErrNoChanges = errors.New("no changes to commit")

	// ErrNetworkFailure is returned when the remote could not be reached.
	// Operations wrapping this error are safe to retry.
	ErrNetworkFailure = errors.New("network failure")

	// ErrAuthFailed is returned when the remote rejected the credentials.
	// Never retried.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrDirectoryNotFound is returned when the local path for an
	// operation does not exist.
	ErrDirectoryNotFound = errors.New("directory not found")
)

// CommandError carries the failing subcommand and its combined output.
type CommandError struct {
	Args   []string
	Output string
	Err    error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("git %s failed: %v\n%s", strings.Join(e.Args, " "), e.Err, e.Output)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ConflictError is returned when a pull leaves unmerged paths. The rebase
// has already been aborted; the working copy is clean but still diverged.
type ConflictError struct {
	Files []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("merge conflict in %d file(s): %s", len(e.Files), strings.Join(e.Files, ", "))
}

// networkPatterns are output fragments that indicate the remote was
// unreachable rather than the operation being invalid.
var networkPatterns = []string{
	"could not resolve host",
	"couldn't resolve host",
	"unable to access",
	"connection refused",
	"connection reset",
	"connection timed out",
	"network is unreachable",
	"operation timed out",
	"no route to host",
	"failed to connect",
	"timed out",
}

// authPatterns are output fragments that indicate rejected credentials.
var authPatterns = []string{
	"authentication failed",
	"invalid username or password",
	"invalid credentials",
	"permission denied",
	"403",
	"401",
	"access denied",
	"could not read username",
	"could not read password",
}

// classify reclassifies a raw command failure as a network or auth failure
// based on the command output, or returns the error unchanged.
//
// Auth patterns are checked first: git wraps every HTTP failure in
// "unable to access '<url>'", so a 403 would otherwise look like a
// network failure and be retried against a remote that already rejected
// the credentials.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		return err
	}

	output := strings.ToLower(cmdErr.Output)
	for _, p := range authPatterns {
		if strings.Contains(output, p) {
			return fmt.Errorf("%w: %s", ErrAuthFailed, cmdErr.Output)
		}
	}
	for _, p := range networkPatterns {
		if strings.Contains(output, p) {
			return fmt.Errorf("%w: %s", ErrNetworkFailure, cmdErr.Output)
		}
	}

	return err
}

// IsNetwork returns true if the error is a network-class failure.
func IsNetwork(err error) bool {
	return errors.Is(err, ErrNetworkFailure)
}

// IsAuth returns true if the error is an authentication failure.
func IsAuth(err error) bool {
	return errors.Is(err, ErrAuthFailed)
}

// IsRetryable returns true if the error is likely to succeed on retry.
// Only network-class failures qualify; auth failures and conflicts never do.
func IsRetryable(err error) bool {
	return IsNetwork(err)
}
