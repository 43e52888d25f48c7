package buildplan_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/LegacyCodeHQ/modgen/buildplan"
	"github.com/LegacyCodeHQ/modgen/depgraph"
	"github.com/LegacyCodeHQ/modgen/depgraph/languages/cpp"
	"github.com/LegacyCodeHQ/modgen/depgraph/registry"
	"github.com/LegacyCodeHQ/modgen/internal/failure"
	"github.com/LegacyCodeHQ/modgen/project"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func planGoldie(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t, goldie.WithNameSuffix(".gold.txt"))
}

func newPlan(t *testing.T, d *project.Descriptor, reg *registry.Registry, units []cpp.SourceUnit) buildplan.Plan {
	t.Helper()
	resolved, err := depgraph.ResolveExternal(d.Imports, reg)
	require.NoError(t, err)
	graph, err := depgraph.BuildSourceGraph(units, d.ExtraDeps())
	require.NoError(t, err)

	return buildplan.Plan{
		Project:   d,
		Toolchain: project.DefaultToolchain(),
		Registry:  reg,
		Resolved:  resolved,
		Graph:     graph,
	}
}

func emit(t *testing.T, p buildplan.Plan) string {
	t.Helper()
	out, err := buildplan.Emit(p)
	require.NoError(t, err)
	return string(out)
}

func variable(t *testing.T, plan, name string) string {
	t.Helper()
	for line := range strings.SplitSeq(plan, "\n") {
		if value, ok := strings.CutPrefix(line, name+" ="); ok {
			return strings.TrimSpace(value)
		}
	}
	t.Fatalf("plan has no %s variable:\n%s", name, plan)
	return ""
}

func TestEmit_Executable(t *testing.T) {
	d := &project.Descriptor{
		BuildDir:   "build",
		Output:     project.OutputExecutable,
		OutputName: "app",
		Imports:    []string{"uzleo.json"},
		Libraries:  []string{"pthread"},
	}
	units := []cpp.SourceUnit{
		{Path: "main.cpp", Kind: cpp.UnitOrdinary, Imports: []string{"util", "std"}, Includes: []string{"config.h"}},
		{Path: "src/util.cppm", Kind: cpp.UnitInterface, ModuleName: "util", Imports: []string{"fmt"}},
		{Path: "src/util.cpp", Kind: cpp.UnitImplementation, ModuleName: "util"},
	}

	out := emit(t, newPlan(t, d, registry.Default(), units))

	planGoldie(t).Assert(t, t.Name(), []byte(out))
}

func TestEmit_ArchiveWithInstall(t *testing.T) {
	reg := registry.New(map[string]registry.ModuleInfo{
		"fmt": {InterfaceArtifactPath: "/pkgs/bmi/fmt.pcm", LinkLibraryName: "fmt"},
		"std": {InterfaceArtifactPath: "/pkgs/bmi/std.pcm"},
	})
	d := &project.Descriptor{
		BuildDir:           "out",
		Output:             project.OutputArchive,
		OutputName:         "json",
		Imports:            []string{"fmt", "std"},
		LibrarySearchPaths: []string{},
		Install:            &project.InstallDir{Path: "/opt/pkgs", Namespace: "uzleo"},
	}
	units := []cpp.SourceUnit{
		{Path: "json.cppm", Kind: cpp.UnitInterface, ModuleName: "uzleo.json", Imports: []string{"std", "uzleo.json:value"}},
		{Path: "value.cppm", Kind: cpp.UnitInterface, ModuleName: "uzleo.json:value", Imports: []string{"fmt"}},
	}

	out := emit(t, newPlan(t, d, reg, units))

	planGoldie(t).Assert(t, t.Name(), []byte(out))
}

func TestEmit_SharedObject(t *testing.T) {
	d := &project.Descriptor{
		BuildDir:           "build",
		Output:             project.OutputSharedObject,
		OutputName:         "plugin",
		Imports:            []string{"std"},
		LibrarySearchPaths: []string{"/usr/local/lib"},
	}
	units := []cpp.SourceUnit{
		{Path: "plugin.cpp", Kind: cpp.UnitOrdinary, Imports: []string{"std"}},
	}

	out := emit(t, newPlan(t, d, registry.Default(), units))

	planGoldie(t).Assert(t, t.Name(), []byte(out))
}

func TestEmit_TransitiveModulesAreFlagged(t *testing.T) {
	reg := registry.New(map[string]registry.ModuleInfo{
		"A": {InterfaceArtifactPath: "/pkgs/A.pcm", LinkLibraryName: "a"},
		"B": {InterfaceArtifactPath: "/pkgs/B.pcm", LinkLibraryName: "b", DirectDependencies: []string{"A"}},
	})
	d := &project.Descriptor{
		BuildDir:           "build",
		Output:             project.OutputExecutable,
		OutputName:         "app",
		Imports:            []string{"B"},
		LibrarySearchPaths: []string{},
	}
	p := newPlan(t, d, reg, []cpp.SourceUnit{{Path: "main.cpp", Imports: []string{"B"}}})

	assert.Equal(t, []string{"A", "B"}, p.Resolved.Sorted())

	out := emit(t, p)
	linkFlags := strings.Fields(variable(t, out, "link_flags"))
	assert.Contains(t, linkFlags, "-la")
	assert.Contains(t, linkFlags, "-lb")

	moduleFlags := strings.Fields(variable(t, out, "module_flags"))
	assert.Contains(t, moduleFlags, "-fmodule-file=A=/pkgs/A.pcm")
	assert.Contains(t, moduleFlags, "-fmodule-file=B=/pkgs/B.pcm")
	assert.Contains(t, moduleFlags, "-fprebuilt-module-path=build")
}

func TestEmit_ImporterIsOrderedAfterModuleInterface(t *testing.T) {
	d := &project.Descriptor{Output: project.OutputArchive, OutputName: "lib", LibrarySearchPaths: []string{}}

	t.Run("import creates order-only edge", func(t *testing.T) {
		units := []cpp.SourceUnit{
			{Path: "a.cpp", Imports: []string{"m"}},
			{Path: "b.cppm", Kind: cpp.UnitInterface, ModuleName: "m"},
		}

		out := emit(t, newPlan(t, d, registry.New(nil), units))

		assert.Contains(t, out, "build build/a.o: cxx a.cpp || build/m.o\n")
		assert.Less(t, strings.Index(out, "build build/m.o"), strings.Index(out, "build build/a.o"))
	})

	t.Run("no import, no edge", func(t *testing.T) {
		units := []cpp.SourceUnit{
			{Path: "a.cpp"},
			{Path: "b.cppm", Kind: cpp.UnitInterface, ModuleName: "m"},
		}

		out := emit(t, newPlan(t, d, registry.New(nil), units))

		assert.Contains(t, out, "build build/a.o: cxx a.cpp\n")
		assert.NotContains(t, out, "||")
	})
}

func TestEmit_ExtraDependencies(t *testing.T) {
	d := &project.Descriptor{
		Output:     project.OutputExecutable,
		OutputName: "gen",
		Sources: []project.Source{
			{Path: "main.cpp", ExtraDeps: []string{"tables.cpp"}},
			{Path: "tables.cpp"},
		},
		LibrarySearchPaths: []string{},
	}
	units := []cpp.SourceUnit{{Path: "main.cpp"}, {Path: "tables.cpp"}}

	out := emit(t, newPlan(t, d, registry.New(nil), units))

	assert.Contains(t, out, "build build/main.o: cxx main.cpp || build/tables.o\n")
}

func TestEmit_EscapesPaths(t *testing.T) {
	d := &project.Descriptor{Output: project.OutputExecutable, OutputName: "my app", LibrarySearchPaths: []string{}}
	units := []cpp.SourceUnit{{Path: "my file.cpp"}}

	out := emit(t, newPlan(t, d, registry.New(nil), units))

	assert.Contains(t, out, "build build/my$ file.o: cxx my$ file.cpp\n")
	assert.Contains(t, out, "default build/my$ app\n")
}

func TestEmit_UnknownOutputKind(t *testing.T) {
	d := &project.Descriptor{OutputName: "x"}
	p := newPlan(t, d, registry.New(nil), []cpp.SourceUnit{{Path: "a.cpp"}})

	_, err := buildplan.Emit(p)

	var cfgErr *failure.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, failure.NoOutputKind, cfgErr.Kind)
}

func TestEmit_ResolvedModuleMissingFromRegistry(t *testing.T) {
	d := &project.Descriptor{Output: project.OutputExecutable, OutputName: "app"}
	p := newPlan(t, d, registry.New(nil), []cpp.SourceUnit{{Path: "a.cpp"}})
	p.Resolved = depgraph.ModuleSet{"ghost": {}}

	_, err := buildplan.Emit(p)

	var cfgErr *failure.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, failure.UnknownModule, cfgErr.Kind)
	assert.Equal(t, "ghost", cfgErr.Subject)
}

func TestEmit_SanitizerCanBeDisabled(t *testing.T) {
	d := &project.Descriptor{Output: project.OutputExecutable, OutputName: "app", LibrarySearchPaths: []string{}}
	p := newPlan(t, d, registry.New(nil), []cpp.SourceUnit{{Path: "a.cpp"}})
	p.Toolchain.SanitizeFlags = ""

	out := emit(t, p)

	assert.NotContains(t, out, "sanitize_flags")
}

func TestArtifactPath(t *testing.T) {
	tests := []struct {
		output project.OutputKind
		want   string
	}{
		{project.OutputArchive, "out/libcore.a"},
		{project.OutputExecutable, "out/core"},
		{project.OutputSharedObject, "out/libcore.so"},
	}

	for _, tt := range tests {
		t.Run(tt.output.String(), func(t *testing.T) {
			got, err := buildplan.ArtifactPath(&project.Descriptor{BuildDir: "./out/", Output: tt.output, OutputName: "core"})

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
