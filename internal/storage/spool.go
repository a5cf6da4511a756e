// Package storage spools uploaded audio onto the local filesystem for the
// lifetime of a job. Files here are transient: the processor removes them
// once the job reaches a terminal state.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Spool writes incoming uploads under a single directory with collision-free
// names.
type Spool struct {
	dir string
}

// NewSpool initializes a spool rooted at dir.
func NewSpool(dir string) (*Spool, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("storage: spool directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: ensure spool directory: %w", err)
	}
	return &Spool{dir: dir}, nil
}

// Dir returns the configured spool directory.
func (s *Spool) Dir() string {
	return s.dir
}

// Save streams the upload to disk and returns its path and size. The stored
// name combines a timestamp with a sanitized version of the original
// filename, mirroring how uploads are traceable back to submissions in logs.
func (s *Spool) Save(filename string, r io.Reader) (string, int64, error) {
	name := fmt.Sprintf("%d_%s", time.Now().UnixNano(), sanitizeFilename(filename))
	path := filepath.Join(s.dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", 0, fmt.Errorf("storage: create upload: %w", err)
	}
	size, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", 0, fmt.Errorf("storage: write upload: %w", err)
	}
	return path, size, nil
}

// Remove deletes a spooled file. Paths outside the spool directory are
// refused.
func (s *Spool) Remove(path string) error {
	rel, err := filepath.Rel(s.dir, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return fmt.Errorf("storage: path %q outside spool", path)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: remove upload: %w", err)
	}
	return nil
}

// sanitizeFilename keeps the base name and strips path separators and control
// characters so a hostile filename cannot escape the spool.
func sanitizeFilename(filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "upload"
	}
	return b.String()
}
