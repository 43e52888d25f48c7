package graph

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// sourceResolver maps user-supplied paths to the source paths declared in the
// project description. A path may be given as declared, relative to the working
// directory, or absolute.
type sourceResolver struct {
	projectDir string
	declared   map[string]string
}

func newSourceResolver(projectDir string, declared []string) sourceResolver {
	r := sourceResolver{
		projectDir: resolveSymlinks(filepath.Clean(projectDir)),
		declared:   make(map[string]string, len(declared)),
	}
	for _, p := range declared {
		r.declared[cleanSlash(p)] = p
	}
	return r
}

func (r sourceResolver) Resolve(raw string) (string, error) {
	if raw == "" {
		return "", fmt.Errorf("path cannot be empty")
	}
	if declared, ok := r.declared[cleanSlash(raw)]; ok {
		return declared, nil
	}

	absPath, err := filepath.Abs(raw)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path %q: %w", raw, err)
	}
	absPath = filepath.Join(resolveSymlinks(filepath.Dir(absPath)), filepath.Base(absPath))
	rel, err := filepath.Rel(r.projectDir, absPath)
	if err != nil {
		return "", fmt.Errorf("failed to evaluate path %q: %w", raw, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path must be within the project: %q", raw)
	}

	if declared, ok := r.declared[cleanSlash(rel)]; ok {
		return declared, nil
	}
	return "", fmt.Errorf("%q is not a source of the project", raw)
}

func cleanSlash(p string) string {
	return path.Clean(filepath.ToSlash(p))
}

func resolveSymlinks(p string) string {
	resolved, err := filepath.EvalSymlinks(p)
	if err != nil {
		return p
	}
	return resolved
}
