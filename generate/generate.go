// Package generate runs modgen end to end: project description in, Ninja plan out.
package generate

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/LegacyCodeHQ/modgen/buildplan"
	"github.com/LegacyCodeHQ/modgen/depgraph"
	"github.com/LegacyCodeHQ/modgen/depgraph/languages/cpp"
	"github.com/LegacyCodeHQ/modgen/depgraph/registry"
	"github.com/LegacyCodeHQ/modgen/internal/buildlog"
	"github.com/LegacyCodeHQ/modgen/internal/failure"
	"github.com/LegacyCodeHQ/modgen/project"
	"github.com/LegacyCodeHQ/modgen/vcs"
	"github.com/dustin/go-humanize"
)

// DefaultConfigFiles are tried in order when Options.ConfigFile is empty.
var DefaultConfigFiles = []string{"build.json", "build.yaml", "build.yml"}

// Options configures a run.
type Options struct {
	// ProjectDir is the project root; source paths are relative to it. Defaults to ".".
	ProjectDir string
	// ConfigFile is the project description, relative to ProjectDir unless absolute.
	ConfigFile string
	// RegistryFile is an HCL registry overlaid on the default table. It overrides the
	// description's registry key.
	RegistryFile string
	// Workers bounds parallel source scanning. Zero uses GOMAXPROCS.
	Workers int
}

// Analysis is the resolved view of a project, before anything is written.
type Analysis struct {
	ProjectDir string
	ConfigFile string
	Descriptor *project.Descriptor
	Registry   *registry.Registry
	Resolved   depgraph.ModuleSet
	Graph      *depgraph.SourceGraph
}

// Result describes a completed run.
type Result struct {
	*Analysis
	PlanPath            string
	CompileCommandsPath string
}

// Analyze loads the project and computes its external closure and source graph
// without touching the build directory.
func Analyze(ctx context.Context, opts Options) (*Analysis, error) {
	a, err := load(opts)
	if err != nil {
		return nil, err
	}
	if err := a.resolve(ctx, opts.Workers); err != nil {
		return nil, err
	}
	return a, nil
}

// Run generates <build-dir>/build.ninja and <build-dir>/compile_commands.json.
//
// Any failure after the build directory was created removes the directories this run
// created, and files are written through a temporary file and a rename, so a failed
// run never leaves a partial plan behind.
func Run(ctx context.Context, opts Options) (res *Result, err error) {
	logger := buildlog.FromContext(ctx)

	a, err := load(opts)
	if err != nil {
		return nil, err
	}

	toolchain, err := project.LoadToolchain(a.ProjectDir)
	if err != nil {
		return nil, err
	}

	buildDir := rooted(a.ProjectDir, filepath.FromSlash(buildplan.BuildDir(a.Descriptor)))
	created, err := makeScaffolding(buildDir)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			removeScaffolding(ctx, created)
		}
	}()

	if err = a.resolve(ctx, opts.Workers); err != nil {
		return nil, err
	}

	plan := buildplan.Plan{
		Project:   a.Descriptor,
		Toolchain: toolchain,
		Registry:  a.Registry,
		Resolved:  a.Resolved,
		Graph:     a.Graph,
	}
	planData, err := buildplan.Emit(plan)
	if err != nil {
		return nil, err
	}
	compdbData, err := buildplan.EmitCompileCommands(plan, a.ProjectDir)
	if err != nil {
		return nil, err
	}

	res = &Result{
		Analysis:            a,
		PlanPath:            filepath.Join(buildDir, buildplan.PlanFileName),
		CompileCommandsPath: filepath.Join(buildDir, buildplan.CompileCommandsFileName),
	}
	if err = writeFileAtomic(res.CompileCommandsPath, compdbData); err != nil {
		return nil, err
	}
	if err = writeFileAtomic(res.PlanPath, planData); err != nil {
		// The database must not outlive a plan that was never written.
		if rmErr := os.Remove(res.CompileCommandsPath); rmErr != nil {
			logger.Warn("failed to remove compilation database", "path", res.CompileCommandsPath, "error", rmErr)
		}
		return nil, err
	}

	logger.Info("wrote build plan",
		"path", res.PlanPath,
		"size", humanize.Bytes(uint64(len(planData))),
		"sources", len(a.Graph.Units),
		"modules", len(a.Resolved))
	return res, nil
}

func load(opts Options) (*Analysis, error) {
	projectDir := opts.ProjectDir
	if projectDir == "" {
		projectDir = "."
	}
	projectDir, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project directory: %w", err)
	}

	configFile, err := findConfigFile(projectDir, opts.ConfigFile)
	if err != nil {
		return nil, err
	}
	desc, err := project.LoadFile(configFile)
	if err != nil {
		return nil, err
	}

	reg := registry.Default()
	registryFile := opts.RegistryFile
	if registryFile == "" {
		registryFile = desc.RegistryFile
	}
	if registryFile != "" {
		overlay, err := registry.LoadFile(rooted(projectDir, registryFile))
		if err != nil {
			return nil, err
		}
		reg = reg.Merge(overlay)
	}

	return &Analysis{
		ProjectDir: projectDir,
		ConfigFile: configFile,
		Descriptor: desc,
		Registry:   reg,
	}, nil
}

func findConfigFile(projectDir, configFile string) (string, error) {
	if configFile != "" {
		return rooted(projectDir, configFile), nil
	}
	for _, name := range DefaultConfigFiles {
		candidate := filepath.Join(projectDir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", failure.IO(filepath.Join(projectDir, DefaultConfigFiles[0]), fs.ErrNotExist)
}

func rooted(root, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

// resolve computes the external closure of the declared imports and the source graph.
// Only the declared imports seed the closure; module imports found in sources that
// neither the project nor the closure provides are reported, not resolved.
func (a *Analysis) resolve(ctx context.Context, workers int) error {
	logger := buildlog.FromContext(ctx)

	resolved, err := depgraph.ResolveExternal(a.Descriptor.Imports, a.Registry)
	if err != nil {
		return err
	}
	logger.Debug("resolved external modules", "modules", resolved.Sorted())

	paths := a.Descriptor.SourcePaths()
	cache, err := cpp.NewCache(len(paths))
	if err != nil {
		return err
	}
	scanner := cpp.NewScanner(
		vcs.RootedContentReader(a.ProjectDir),
		cache,
		cpp.WithWorkers(workers),
		cpp.WithHeaderLookup(vcs.RootedFileChecker(a.ProjectDir)),
	)
	units, err := scanner.ScanAll(ctx, paths)
	if err != nil {
		return err
	}
	for _, u := range units {
		logger.Debug("scanned source", "path", u.Path, "kind", u.Kind, "module", u.ModuleName, "imports", u.Imports)
	}

	graph, err := depgraph.BuildSourceGraph(units, a.Descriptor.ExtraDeps())
	if err != nil {
		return err
	}

	for _, name := range graph.UnresolvedImports() {
		if resolved.Contains(name) {
			continue
		}
		if a.Registry.Has(name) {
			logger.Warn("module is imported by a source but not listed in imported_modules", "module", name)
			continue
		}
		logger.Warn("imported module is provided neither by the project nor by the registry", "module", name)
	}

	a.Resolved = resolved
	a.Graph = graph
	return nil
}

// IsConfigError reports whether err is a configuration problem rather than an I/O failure.
func IsConfigError(err error) bool {
	return errors.Is(err, failure.ErrConfig)
}
