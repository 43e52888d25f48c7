package vcs

import (
	"os"
	"path/filepath"
)

// ContentReader is a function that reads file content given a file path.
// This allows the caller to control how files are read (filesystem, in-memory fixtures, etc.)
type ContentReader func(filePath string) ([]byte, error)

// FileChecker reports whether a regular file exists at the given path.
type FileChecker func(filePath string) bool

// RootedContentReader reads relative paths against root. Absolute paths are read as-is.
func RootedContentReader(root string) ContentReader {
	return func(filePath string) ([]byte, error) {
		return os.ReadFile(rooted(root, filePath))
	}
}

// RootedFileChecker checks relative paths against root. Absolute paths are checked as-is.
func RootedFileChecker(root string) FileChecker {
	return func(filePath string) bool {
		info, err := os.Stat(rooted(root, filePath))
		return err == nil && info.Mode().IsRegular()
	}
}

// MapContentReader serves file contents from memory, keyed by path.
func MapContentReader(files map[string]string) ContentReader {
	return func(filePath string) ([]byte, error) {
		content, ok := files[filePath]
		if !ok {
			return nil, &os.PathError{Op: "open", Path: filePath, Err: os.ErrNotExist}
		}
		return []byte(content), nil
	}
}

func rooted(root, filePath string) string {
	if root == "" || filepath.IsAbs(filePath) {
		return filePath
	}
	return filepath.Join(root, filePath)
}
