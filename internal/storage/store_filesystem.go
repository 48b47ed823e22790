package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"jiran/pkg/platform/sentinel"
)

// Filesystem stores objects under a base directory for local runs.
// Content types are not persisted; the serving layer sniffs them.
type Filesystem struct {
	baseDir string
	baseURL string
}

// NewFilesystem constructs a filesystem-backed object store rooted at
// baseDir.
func NewFilesystem(baseDir, baseURL string) *Filesystem {
	return &Filesystem{
		baseDir: baseDir,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

func (s *Filesystem) Upload(_ context.Context, path, _ string, content []byte) (string, error) {
	full := filepath.Join(s.baseDir, filepath.FromSlash(path))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create object directory: %w", err)
	}

	file, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, os.ErrExist) {
		return "", fmt.Errorf("object %s: %w", path, sentinel.ErrAlreadyUsed)
	}
	if err != nil {
		return "", fmt.Errorf("create object: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(content); err != nil {
		return "", fmt.Errorf("write object: %w", err)
	}
	return path, nil
}

func (s *Filesystem) PublicURL(path string) string {
	return s.baseURL + "/" + path
}
