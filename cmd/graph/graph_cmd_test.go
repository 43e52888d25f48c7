package graph

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"build.json":    `{"imported_modules": ["std"], "e": "app", "src": ["main.cpp", "core.cppm", "core_impl.cpp", "tool.cpp"]}`,
		"main.cpp":      "import std;\nimport core;\nint main() {}\n",
		"core.cppm":     "export module core;\nexport int answer();\n",
		"core_impl.cpp": "module core;\nint answer() { return 42; }\n",
		"tool.cpp":      "int tool() { return 0; }\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("os.WriteFile() error = %v", err)
		}
	}
	return dir
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	cmd := NewCommand()
	cmd.SetArgs(args)

	var stdout bytes.Buffer
	cmd.SetOut(&stdout)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("cmd.Execute() error = %v", err)
	}
	return stdout.String()
}

func TestGraph_TextListsBuildOrder(t *testing.T) {
	dir := writeProject(t)

	output := execute(t, "-C", dir, "-f", "text")

	for _, entry := range []string{
		"core.cppm [module-interface core] -> core.o\n",
		"main.cpp [ordinary] -> main.o\n  after core.cppm\n",
		"core_impl.cpp [module-implementation core] -> core_impl.o\n  after core.cppm\n",
	} {
		if !strings.Contains(output, entry) {
			t.Fatalf("expected %q in output, got:\n%s", entry, output)
		}
	}
	if strings.Index(output, "core.cppm [") > strings.Index(output, "main.cpp [") {
		t.Fatalf("expected the interface before its importer, got:\n%s", output)
	}
	if !strings.Contains(output, "tool.cpp [ordinary] -> tool.o\n") {
		t.Fatalf("expected unconnected source to be listed, got:\n%s", output)
	}
}

func TestGraph_DOTRendersBuildEdges(t *testing.T) {
	dir := writeProject(t)

	output := execute(t, "-C", dir)

	if !strings.Contains(output, "digraph") {
		t.Fatalf("expected DOT output, got:\n%s", output)
	}
	if !strings.Contains(output, `"core.cppm" -> "main.cpp"`) {
		t.Fatalf("expected edge core.cppm -> main.cpp, got:\n%s", output)
	}
}

func TestGraph_BetweenNarrowsGraph(t *testing.T) {
	dir := writeProject(t)

	output := execute(t, "-C", dir, "-f", "text", "-w", "main.cpp,core.cppm")

	if !strings.Contains(output, "main.cpp [ordinary]") || !strings.Contains(output, "core.cppm [module-interface core]") {
		t.Fatalf("expected both targets, got:\n%s", output)
	}
	if strings.Contains(output, "tool.cpp") || strings.Contains(output, "core_impl.cpp") {
		t.Fatalf("expected unrelated sources to be dropped, got:\n%s", output)
	}
}

func TestGraph_UnknownFormat(t *testing.T) {
	cmd := NewCommand()
	cmd.SetArgs([]string{"-f", "svg"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	if err := cmd.Execute(); err == nil || !strings.Contains(err.Error(), "unknown format") {
		t.Fatalf("expected unknown format error, got %v", err)
	}
}
