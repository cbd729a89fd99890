package git

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
)

// CommandExecutor runs a single git subcommand in a working directory and
// returns its trimmed stdout. It is the only seam that touches an external
// process; everything above it is testable against a substitute.
type CommandExecutor interface {
	Run(ctx context.Context, dir string, args ...string) (string, error)
}

// ExecRunner is the default CommandExecutor backed by the git binary.
type ExecRunner struct{}

// NewExecRunner creates an ExecRunner.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run implements CommandExecutor.Run.
func (r *ExecRunner) Run(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		// Git writes diagnostics to stderr; fold both streams into the
		// error so classifiers can see the full output.
		output := strings.TrimSpace(stderr.String())
		if output == "" {
			output = strings.TrimSpace(stdout.String())
		}
		return "", &CommandError{
			Args:   args,
			Output: output,
			Err:    err,
		}
	}

	return strings.TrimSpace(stdout.String()), nil
}
