package sync

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// WriteFile atomically writes content to the given repository-relative
// path. The content lands in a .tmp sibling first and is then moved into
// place, so readers never observe a partial file. Every successful write
// arms the auto-sync debounce timer.
func (c *Coordinator) WriteFile(relPath string, content []byte) error {
	absPath := filepath.Join(c.config.RepoPath, filepath.FromSlash(relPath))

	if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
		return fmt.Errorf("failed to write %s: %w", relPath, err)
	}

	tmpPath := absPath + ".tmp"
	if err := os.WriteFile(tmpPath, content, 0644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write %s: %w", relPath, err)
	}

	// Rename is not guaranteed to replace on every platform, so clear the
	// target first.
	if err := os.Remove(absPath); err != nil && !os.IsNotExist(err) {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write %s: %w", relPath, err)
	}

	if err := os.Rename(tmpPath, absPath); err != nil {
		// If the target already holds the expected bytes the write
		// effectively succeeded; don't report a false failure.
		if existing, readErr := os.ReadFile(absPath); readErr == nil && bytes.Equal(existing, content) {
			os.Remove(tmpPath)
		} else {
			os.Remove(tmpPath)
			return fmt.Errorf("failed to write %s: %w", relPath, err)
		}
	}

	c.scheduleAutoSync()
	return nil
}

// ReadFile reads the file at the given repository-relative path.
func (c *Coordinator) ReadFile(relPath string) ([]byte, error) {
	absPath := filepath.Join(c.config.RepoPath, filepath.FromSlash(relPath))

	data, err := os.ReadFile(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, relPath)
		}
		return nil, fmt.Errorf("failed to read %s: %w", relPath, err)
	}

	return data, nil
}

// ListFiles returns the repository-relative paths of all regular files in
// the working copy, sorted, excluding the version-control metadata
// directory. A non-empty ext (with or without a leading dot) filters by
// extension case-insensitively.
func (c *Coordinator) ListFiles(ext string) ([]string, error) {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	ext = strings.ToLower(ext)

	var files []string
	err := filepath.WalkDir(c.config.RepoPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if ext != "" && strings.ToLower(filepath.Ext(path)) != ext {
			return nil
		}

		rel, err := filepath.Rel(c.config.RepoPath, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	sort.Strings(files)
	return files, nil
}
