package generate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/LegacyCodeHQ/modgen/internal/buildlog"
)

// makeScaffolding creates dir and any missing parents. It returns the topmost
// directory it created, or "" when dir already existed.
func makeScaffolding(dir string) (string, error) {
	created := ""
	for p := dir; ; p = filepath.Dir(p) {
		if _, err := os.Stat(p); err == nil {
			break
		}
		created = p
		if parent := filepath.Dir(p); parent == p {
			break
		}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create build directory %s: %w", dir, err)
	}
	return created, nil
}

func removeScaffolding(ctx context.Context, created string) {
	if created == "" {
		return
	}
	logger := buildlog.FromContext(ctx)
	if err := os.RemoveAll(created); err != nil {
		logger.Warn("failed to remove build directory", "path", created, "error", err)
		return
	}
	logger.Debug("removed build directory", "path", created)
}

// writeFileAtomic writes data to a temporary file next to path and renames it into place.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
