package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	gen "github.com/LegacyCodeHQ/modgen/generate"
	"github.com/LegacyCodeHQ/modgen/internal/buildlog"
	"github.com/bmatcuk/doublestar"
	"github.com/fsnotify/fsnotify"
)

const debounceInterval = 300 * time.Millisecond

var skippedDirs = map[string]bool{
	".git":    true,
	".cache":  true,
	".idea":   true,
	".vscode": true,
	"build":   true,
}

type projectWatcher struct {
	projectDir string
	opts       *watchOptions
	generate   func(context.Context, gen.Options) (*gen.Result, error)

	mu sync.Mutex
}

func newProjectWatcher(opts *watchOptions) (*projectWatcher, error) {
	projectDir, err := filepath.Abs(opts.projectDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project directory: %w", err)
	}
	for _, pattern := range opts.patterns {
		if _, err := doublestar.Match(pattern, ""); err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
	}
	return &projectWatcher{
		projectDir: projectDir,
		opts:       opts,
		generate:   gen.Run,
	}, nil
}

func (w *projectWatcher) run(ctx context.Context) error {
	logger := buildlog.FromContext(ctx)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := addWatchDirs(watcher, w.projectDir); err != nil {
		return fmt.Errorf("failed to watch directories: %w", err)
	}

	var debounceTimer *time.Timer
	for {
		select {
		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if event.Has(fsnotify.Create) {
				addIfDirectory(watcher, event.Name)
			}
			if !w.isRelevantChange(event) {
				continue
			}

			logger.Debug("change detected", "path", event.Name, "op", event.Op.String())
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounceInterval, func() {
				if err := w.regenerate(ctx); err != nil {
					logger.Error("regeneration failed", "error", err)
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", "error", err)
		}
	}
}

func (w *projectWatcher) isRelevantChange(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	return w.matches(event.Name)
}

// matches reports whether name, absolute or relative to the project, is selected by a pattern.
func (w *projectWatcher) matches(name string) bool {
	rel := name
	if filepath.IsAbs(name) {
		var err error
		if rel, err = filepath.Rel(w.projectDir, name); err != nil {
			return false
		}
	}
	rel = path.Clean(filepath.ToSlash(rel))

	for _, pattern := range w.opts.patterns {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

func addWatchDirs(watcher *fsnotify.Watcher, root string) error {
	return addWatchDirsWithAdder(root, watcher.Add)
}

func addWatchDirsWithAdder(root string, add func(string) error) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && skippedDirs[d.Name()] {
			return filepath.SkipDir
		}
		if err := add(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		return nil
	})
}

func addIfDirectory(watcher *fsnotify.Watcher, path string) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}
	if info.IsDir() {
		_ = addWatchDirs(watcher, path)
	}
}
