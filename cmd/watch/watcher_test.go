package watch

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"testing"
	"time"

	gen "github.com/LegacyCodeHQ/modgen/generate"
	"github.com/fsnotify/fsnotify"
)

func newTestWatcher(t *testing.T, projectDir string) *projectWatcher {
	t.Helper()
	w, err := newProjectWatcher(&watchOptions{projectDir: projectDir, patterns: DefaultPatterns})
	if err != nil {
		t.Fatalf("newProjectWatcher() error = %v", err)
	}
	return w
}

func TestMatches(t *testing.T) {
	projectDir := t.TempDir()
	w := newTestWatcher(t, projectDir)

	tests := []struct {
		name string
		want bool
	}{
		{name: "main.cpp", want: true},
		{name: "src/core/json.cppm", want: true},
		{name: "include/json.hpp", want: true},
		{name: "build.json", want: true},
		{name: "build.yaml", want: true},
		{name: ".env", want: true},
		{name: "deps/registry.hcl", want: true},
		{name: "README.md", want: false},
		{name: "build/build.ninja", want: false},
		{name: "build/compile_commands.json", want: false},
		{name: "src/notes.txt", want: false},
		{name: filepath.Join(projectDir, "src", "main.cpp"), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.matches(tt.name); got != tt.want {
				t.Fatalf("matches(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestIsRelevantChange_IgnoresChmod(t *testing.T) {
	w := newTestWatcher(t, t.TempDir())

	if w.isRelevantChange(fsnotify.Event{Name: "main.cpp", Op: fsnotify.Chmod}) {
		t.Fatalf("expected chmod to be ignored")
	}
	if !w.isRelevantChange(fsnotify.Event{Name: "main.cpp", Op: fsnotify.Write}) {
		t.Fatalf("expected write to be relevant")
	}
}

func TestAddWatchDirsSkipsBuildAndVCSDirectories(t *testing.T) {
	root := t.TempDir()
	for _, dir := range []string{"src/detail", "build/obj", ".git/objects"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}

	var added []string
	if err := addWatchDirsWithAdder(root, func(path string) error {
		added = append(added, path)
		return nil
	}); err != nil {
		t.Fatalf("addWatchDirsWithAdder: %v", err)
	}

	want := []string{root, filepath.Join(root, "src"), filepath.Join(root, "src", "detail")}
	slices.Sort(added)
	slices.Sort(want)
	if !slices.Equal(added, want) {
		t.Fatalf("added = %v, want %v", added, want)
	}
}

func TestAddWatchDirsSkipsBrokenSymlink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink creation requires elevated privileges on Windows")
	}

	root := t.TempDir()
	if err := os.Symlink("missing/target", filepath.Join(root, "dangling")); err != nil {
		t.Fatalf("create symlink: %v", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer watcher.Close()

	if err := addWatchDirs(watcher, root); err != nil {
		t.Fatalf("addWatchDirs: %v", err)
	}
}

func TestRun_RegeneratesOnSourceChange(t *testing.T) {
	projectDir := t.TempDir()
	source := filepath.Join(projectDir, "main.cpp")
	if err := os.WriteFile(source, []byte("int main() {}\n"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	w := newTestWatcher(t, projectDir)
	runs := make(chan gen.Options, 10)
	w.generate = func(_ context.Context, opts gen.Options) (*gen.Result, error) {
		runs <- opts
		return &gen.Result{}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.run(ctx) }()

	deadline := time.After(10 * time.Second)
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()

wait:
	for {
		select {
		case opts := <-runs:
			if opts.ProjectDir != projectDir {
				t.Fatalf("generated %q, want %q", opts.ProjectDir, projectDir)
			}
			break wait
		case <-tick.C:
			if err := os.WriteFile(source, []byte("int main() { return 0; }\n"), 0o644); err != nil {
				t.Fatalf("write source: %v", err)
			}
		case <-deadline:
			t.Fatalf("no regeneration after changing %s", source)
		}
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run() error = %v", err)
	}
}
