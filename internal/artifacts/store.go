// Package artifacts stores per-run report files on disk.
package artifacts

import (
	"fmt"
	"os"
	"path/filepath"
)

// Store writes and reads run artifacts under a root directory, one
// subdirectory per run.
type Store struct {
	root string
}

// NewStore creates a store rooted at dir, creating it when missing.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("artifacts: create root %s: %w", dir, err)
	}
	return &Store{root: dir}, nil
}

// Root returns the store's root directory.
func (s *Store) Root() string { return s.root }

// Write stores content under the run's directory and returns the full path.
func (s *Store) Write(runID, filename, content string) (string, error) {
	dir := filepath.Join(s.root, runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("artifacts: create run dir: %w", err)
	}
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("artifacts: write %s: %w", path, err)
	}
	return path, nil
}

// Read returns the artifact content, or false when it does not exist.
func (s *Store) Read(runID, filename string) (string, bool) {
	path := filepath.Join(s.root, runID, filename)
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	return string(data), true
}

// Path returns where an artifact lives without checking existence.
func (s *Store) Path(runID, filename string) string {
	return filepath.Join(s.root, runID, filename)
}

// Exists reports whether an artifact is present.
func (s *Store) Exists(runID, filename string) bool {
	_, err := os.Stat(s.Path(runID, filename))
	return err == nil
}
