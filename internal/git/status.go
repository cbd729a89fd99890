package git

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// conflictCodes are the two-letter porcelain codes that denote unmerged
// paths.
var conflictCodes = map[string]bool{
	"UU": true,
	"AA": true,
	"DD": true,
	"AU": true,
	"UA": true,
	"DU": true,
	"UD": true,
}

// Status returns a fresh snapshot of the working copy: current branch,
// modified and untracked files, and ahead/behind counts relative to the
// same-named remote tracking branch. A missing tracking branch counts as
// zero in both directions.
func (s *Service) Status(ctx context.Context) (RepositoryStatus, error) {
	if err := s.requireCloned(); err != nil {
		return RepositoryStatus{}, err
	}

	branch := s.currentBranch(ctx)

	output, err := s.runner.Run(ctx, s.repoPath, "status", "--porcelain")
	if err != nil {
		return RepositoryStatus{}, fmt.Errorf("status failed: %w", err)
	}

	status := RepositoryStatus{Branch: branch}
	for _, line := range strings.Split(output, "\n") {
		if len(line) < 4 {
			continue
		}

		code := line[:2]
		path := strings.TrimSpace(line[3:])

		// Rename lines read "old -> new"; the file on disk is the new path.
		if _, after, found := strings.Cut(path, " -> "); found {
			path = after
		}

		if code == "??" {
			status.UntrackedFiles = append(status.UntrackedFiles, path)
		} else {
			status.ModifiedFiles = append(status.ModifiedFiles, path)
		}
	}
	status.HasUncommittedChanges = len(status.ModifiedFiles) > 0 || len(status.UntrackedFiles) > 0

	// Ahead/behind are independent queries; a missing tracking branch is
	// simply zero, not an error.
	tracking := s.config.Remote + "/" + branch
	if ahead, err := s.revListCount(ctx, tracking+"..HEAD"); err == nil {
		status.AheadCount = ahead
	}
	if behind, err := s.revListCount(ctx, "HEAD.."+tracking); err == nil {
		status.BehindCount = behind
	}

	return status, nil
}

// currentBranch returns the current branch name, falling back to the
// configured default when HEAD is detached or unreadable.
func (s *Service) currentBranch(ctx context.Context) string {
	output, err := s.runner.Run(ctx, s.repoPath, "symbolic-ref", "--short", "HEAD")
	if err != nil || strings.TrimSpace(output) == "" {
		return s.config.Branch
	}
	return strings.TrimSpace(output)
}

// revListCount returns the commit count for a rev-list range expression.
func (s *Service) revListCount(ctx context.Context, rangeExpr string) (int, error) {
	output, err := s.runner.Run(ctx, s.repoPath, "rev-list", "--count", rangeExpr)
	if err != nil {
		return 0, err
	}

	count, err := strconv.Atoi(strings.TrimSpace(output))
	if err != nil {
		return 0, fmt.Errorf("unexpected rev-list output %q: %w", output, err)
	}

	return count, nil
}

// conflictedFiles extracts the paths of unmerged files from porcelain
// status output, preserving order.
func (s *Service) conflictedFiles(ctx context.Context) ([]string, error) {
	output, err := s.runner.Run(ctx, s.repoPath, "status", "--porcelain")
	if err != nil {
		return nil, err
	}

	return parseConflictedFiles(output), nil
}

// parseConflictedFiles returns the paths of lines carrying an unmerged
// two-letter code, in the order they appear.
func parseConflictedFiles(porcelain string) []string {
	var files []string
	for _, line := range strings.Split(porcelain, "\n") {
		if len(line) < 4 {
			continue
		}
		if conflictCodes[line[:2]] {
			files = append(files, strings.TrimSpace(line[3:]))
		}
	}
	return files
}

// Version returns the git binary version string, for diagnostics.
func (s *Service) Version(ctx context.Context) (string, error) {
	output, err := s.runner.Run(ctx, "", "--version")
	if err != nil {
		return "", fmt.Errorf("failed to get git version: %w", err)
	}
	return strings.TrimPrefix(output, "git version "), nil
}
