package git

import (
	"context"
	"fmt"
	"strings"
)

// CommitAll stages every change in the working copy and commits it with
// the given message. Returns ErrNoChanges when nothing ended up staged.
func (s *Service) CommitAll(ctx context.Context, message string) error {
	if err := s.requireCloned(); err != nil {
		return err
	}
	if message == "" {
		return fmt.Errorf("commit failed: message is required")
	}

	if _, err := s.runner.Run(ctx, s.repoPath, "add", "--all"); err != nil {
		return fmt.Errorf("commit failed: %w", err)
	}

	staged, err := s.runner.Run(ctx, s.repoPath, "diff", "--cached", "--name-only")
	if err != nil {
		return fmt.Errorf("commit failed: %w", err)
	}
	if strings.TrimSpace(staged) == "" {
		return ErrNoChanges
	}

	if _, err := s.runner.Run(ctx, s.repoPath, "commit", "-m", message); err != nil {
		return fmt.Errorf("commit failed: %w", err)
	}

	s.config.Logger.Printf("Committed: %s", message)
	return nil
}

// HasLocalChanges returns true if the working copy has uncommitted or
// untracked changes.
func (s *Service) HasLocalChanges(ctx context.Context) (bool, error) {
	if err := s.requireCloned(); err != nil {
		return false, err
	}

	output, err := s.runner.Run(ctx, s.repoPath, "status", "--porcelain")
	if err != nil {
		return false, fmt.Errorf("status failed: %w", err)
	}

	return strings.TrimSpace(output) != "", nil
}
