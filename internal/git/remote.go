package git

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/mkeller/logbook/internal/creds"
)

// AuthenticatedURL embeds the username and token into the URL's user-info
// component, leaving scheme, host, and path untouched.
func AuthenticatedURL(remote string, c creds.Credentials) (string, error) {
	u, err := url.Parse(remote)
	if err != nil {
		return "", fmt.Errorf("invalid remote URL %q: %w", remote, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid remote URL %q: missing scheme or host", remote)
	}

	u.User = url.UserPassword(c.Username, c.Token)
	return u.String(), nil
}

// Clone clones the remote into the configured local path. It fails with
// ErrAlreadyCloned if a working copy already exists there.
func (s *Service) Clone(ctx context.Context, remoteURL string, c creds.Credentials) error {
	if s.IsCloned() {
		return fmt.Errorf("%w: %s", ErrAlreadyCloned, s.repoPath)
	}

	if err := os.MkdirAll(filepath.Dir(s.repoPath), 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	authURL, err := AuthenticatedURL(remoteURL, c)
	if err != nil {
		return err
	}

	s.config.Logger.Printf("Cloning %s", remoteURL)

	err = withRetry(ctx, s.config.Retry, func() error {
		_, runErr := s.runner.Run(ctx, filepath.Dir(s.repoPath), "clone", authURL, s.repoPath)
		return classify(runErr)
	})
	if err != nil {
		if IsNetwork(err) || IsAuth(err) {
			return err
		}
		return fmt.Errorf("clone failed: %w", err)
	}

	// The clone recorded the credentialed URL; scrub it immediately.
	if _, err := s.runner.Run(ctx, s.repoPath, "remote", "set-url", s.config.Remote, remoteURL); err != nil {
		return fmt.Errorf("failed to restore remote URL after clone: %w", err)
	}

	return nil
}

// withAuthRemote rewrites the remote URL with embedded credentials, runs fn,
// and always restores the original credential-free URL afterward. The
// restore is best-effort and never masks fn's result.
func (s *Service) withAuthRemote(ctx context.Context, c creds.Credentials, fn func() error) error {
	original, err := s.runner.Run(ctx, s.repoPath, "remote", "get-url", s.config.Remote)
	if err != nil {
		return fmt.Errorf("failed to read remote URL: %w", classify(err))
	}

	authURL, err := AuthenticatedURL(original, c)
	if err != nil {
		return err
	}

	if _, err := s.runner.Run(ctx, s.repoPath, "remote", "set-url", s.config.Remote, authURL); err != nil {
		return fmt.Errorf("failed to set remote URL: %w", classify(err))
	}

	defer func() {
		if _, restoreErr := s.runner.Run(ctx, s.repoPath, "remote", "set-url", s.config.Remote, original); restoreErr != nil {
			s.config.Logger.Printf("Warning: failed to restore remote URL: %v", restoreErr)
		}
	}()

	return fn()
}

// Pull fetches the remote and rebases local commits on top of it.
//
// Outcomes: PullUpToDate when the local branch is not behind; PullMerged
// with the number of incorporated commits after a clean rebase; a
// *ConflictError after the rebase hits conflicts (the rebase is aborted
// first, leaving a clean working copy). Network failures are retried per
// the policy; conflicts and all other errors propagate immediately.
func (s *Service) Pull(ctx context.Context, c creds.Credentials) (PullOutcome, error) {
	if err := s.requireCloned(); err != nil {
		return PullOutcome{}, err
	}

	var outcome PullOutcome
	err := withRetry(ctx, s.config.Retry, func() error {
		return s.withAuthRemote(ctx, c, func() error {
			var err error
			outcome, err = s.fetchAndRebase(ctx)
			return err
		})
	})
	if err != nil {
		return PullOutcome{}, err
	}

	return outcome, nil
}

// fetchAndRebase performs one pull attempt with the remote already
// credentialed.
func (s *Service) fetchAndRebase(ctx context.Context) (PullOutcome, error) {
	if _, err := s.runner.Run(ctx, s.repoPath, "fetch", s.config.Remote); err != nil {
		err = classify(err)
		if IsNetwork(err) || IsAuth(err) {
			return PullOutcome{}, err
		}
		return PullOutcome{}, fmt.Errorf("pull failed: %w", err)
	}

	branch := s.currentBranch(ctx)
	behind, err := s.revListCount(ctx, "HEAD.."+s.config.Remote+"/"+branch)
	if err != nil {
		return PullOutcome{}, fmt.Errorf("pull failed: %w", err)
	}

	if behind == 0 {
		return PullOutcome{Kind: PullUpToDate}, nil
	}

	s.config.Logger.Printf("Rebasing onto %s/%s (%d behind)", s.config.Remote, branch, behind)

	if _, err := s.runner.Run(ctx, s.repoPath, "rebase", s.config.Remote+"/"+branch); err != nil {
		conflicts, statusErr := s.conflictedFiles(ctx)

		// Abort regardless so the working copy stays usable.
		if _, abortErr := s.runner.Run(ctx, s.repoPath, "rebase", "--abort"); abortErr != nil {
			s.config.Logger.Printf("Warning: rebase --abort failed: %v", abortErr)
		}

		if statusErr == nil && len(conflicts) > 0 {
			return PullOutcome{}, &ConflictError{Files: conflicts}
		}
		return PullOutcome{}, fmt.Errorf("pull failed: %w", classify(err))
	}

	return PullOutcome{Kind: PullMerged, FileCount: behind}, nil
}

// Push pushes the current branch to the remote. Network failures are
// retried; network and auth errors pass through verbatim, everything else
// is wrapped as a push failure.
func (s *Service) Push(ctx context.Context, c creds.Credentials) error {
	if err := s.requireCloned(); err != nil {
		return err
	}

	err := withRetry(ctx, s.config.Retry, func() error {
		return s.withAuthRemote(ctx, c, func() error {
			branch := s.currentBranch(ctx)
			_, pushErr := s.runner.Run(ctx, s.repoPath, "push", s.config.Remote, branch)
			return classify(pushErr)
		})
	})
	if err != nil {
		if IsNetwork(err) || IsAuth(err) {
			return err
		}
		return fmt.Errorf("push failed: %w", err)
	}

	return nil
}
