// Package buildplan writes the Ninja build plan for a scanned project.
package buildplan

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/LegacyCodeHQ/modgen/depgraph"
	"github.com/LegacyCodeHQ/modgen/depgraph/languages/cpp"
	"github.com/LegacyCodeHQ/modgen/depgraph/registry"
	"github.com/LegacyCodeHQ/modgen/internal/failure"
	"github.com/LegacyCodeHQ/modgen/project"
)

// PlanFileName is the name of the build plan inside the build directory.
const PlanFileName = "build.ninja"

// RequiredNinjaVersion is the oldest Ninja that understands implicit outputs.
const RequiredNinjaVersion = "1.7"

// Rule names used in the plan.
const (
	RuleModuleCompile = "cxx_module"
	RuleCompile       = "cxx"
	RuleArchive       = "ar"
	RuleLink          = "link"
	RuleLinkShared    = "link_shared"
	RuleInstall       = "install_file"
)

// InstallTarget is the phony target that copies artifacts to the configured outdir.
const InstallTarget = "install"

// moduleOutputFlags make clang treat the input as a module interface and write its BMI next to the object.
const moduleOutputFlags = "-x c++-module -fmodule-output"

// Plan is everything needed to describe one project's build.
type Plan struct {
	Project   *project.Descriptor
	Toolchain project.Toolchain
	Registry  *registry.Registry
	Resolved  depgraph.ModuleSet
	Graph     *depgraph.SourceGraph
}

type aggregate struct {
	rule     string
	artifact string
}

func aggregateFor(d *project.Descriptor) (aggregate, error) {
	switch d.Output {
	case project.OutputArchive:
		return aggregate{rule: RuleArchive, artifact: "lib" + d.OutputName + ".a"}, nil
	case project.OutputExecutable:
		return aggregate{rule: RuleLink, artifact: d.OutputName}, nil
	case project.OutputSharedObject:
		return aggregate{rule: RuleLinkShared, artifact: "lib" + d.OutputName + ".so"}, nil
	default:
		return aggregate{}, failure.Configf(failure.NoOutputKind, d.OutputName, "cannot emit a plan without an output kind")
	}
}

// BuildDir returns the build directory of d in the slash-separated form used in the plan.
func BuildDir(d *project.Descriptor) string {
	dir := d.BuildDir
	if dir == "" {
		dir = project.DefaultBuildDir
	}
	return path.Clean(filepath.ToSlash(dir))
}

// ArtifactPath returns the plan path of the project's final artifact.
func ArtifactPath(d *project.Descriptor) (string, error) {
	agg, err := aggregateFor(d)
	if err != nil {
		return "", err
	}
	return path.Join(BuildDir(d), agg.artifact), nil
}

// toolFlags are the flag sets shared by the Ninja plan and the compilation database.
type toolFlags struct {
	buildDir    string
	pic         bool
	sanitize    bool
	moduleFlags []string
	linkFlags   []string
}

func computeFlags(p Plan) (toolFlags, error) {
	f := toolFlags{
		buildDir: BuildDir(p.Project),
		pic:      p.Project.Output == project.OutputSharedObject && p.Toolchain.PICFlags != "",
		sanitize: p.Project.Output == project.OutputExecutable && p.Toolchain.SanitizeFlags != "",
	}

	var libs []string
	seenLib := make(map[string]bool)
	for _, id := range p.Resolved.Sorted() {
		info, ok := p.Registry.Lookup(id)
		if !ok {
			return toolFlags{}, failure.Config(failure.UnknownModule, id)
		}
		f.moduleFlags = append(f.moduleFlags, fmt.Sprintf("-fmodule-file=%s=%s", id, info.InterfaceArtifactPath))
		if info.LinkLibraryName != "" && !seenLib[info.LinkLibraryName] {
			seenLib[info.LinkLibraryName] = true
			libs = append(libs, info.LinkLibraryName)
		}
	}
	f.moduleFlags = append(f.moduleFlags, "-fprebuilt-module-path="+f.buildDir)

	for _, lib := range libs {
		f.linkFlags = append(f.linkFlags, "-l"+lib)
	}
	for _, lib := range p.Project.Libraries {
		f.linkFlags = append(f.linkFlags, "-l"+lib)
	}
	searchPaths := p.Project.LibrarySearchPaths
	if searchPaths == nil {
		searchPaths = registry.DefaultLibrarySearchPaths
	}
	for _, dir := range searchPaths {
		f.linkFlags = append(f.linkFlags, "-L", dir)
	}

	return f, nil
}

func (f toolFlags) objectPath(u cpp.SourceUnit) string {
	return path.Join(f.buildDir, u.ObjectBaseName+".o")
}

func (f toolFlags) bmiPath(u cpp.SourceUnit) string {
	return path.Join(f.buildDir, u.ObjectBaseName+".pcm")
}

// Emit renders the Ninja build plan for p.
//
// Sources are emitted in build order. Each compile statement has an order-only
// dependency on the objects of the sources it must follow, and an interface unit
// declares its BMI as an implicit output.
func Emit(p Plan) ([]byte, error) {
	agg, err := aggregateFor(p.Project)
	if err != nil {
		return nil, err
	}
	flags, err := computeFlags(p)
	if err != nil {
		return nil, err
	}

	w := &ninjaWriter{}
	w.comment(fmt.Sprintf("Build plan for %s %s. Generated by modgen, do not edit.", p.Project.Output, p.Project.OutputName))
	w.newline()
	w.variable("ninja_required_version", RequiredNinjaVersion)
	w.newline()

	writeVariables(w, p, flags)
	writeRules(w, p, flags, agg)

	var objects []string
	for _, sourcePath := range p.Graph.BuildOrder {
		unit, ok := p.Graph.Unit(sourcePath)
		if !ok {
			return nil, fmt.Errorf("build order names unknown source %s", sourcePath)
		}
		e, err := compileEdge(p.Graph, flags, unit)
		if err != nil {
			return nil, err
		}
		w.build(e)
		objects = append(objects, e.outputs[0])
	}
	w.newline()

	artifact := path.Join(flags.buildDir, agg.artifact)
	w.build(edge{outputs: []string{artifact}, rule: agg.rule, inputs: objects})
	w.newline()

	if p.Project.Install != nil {
		writeInstall(w, p, flags, artifact)
		w.newline()
	}

	w.defaults(artifact)
	return w.bytes(), nil
}

func writeVariables(w *ninjaWriter, p Plan, flags toolFlags) {
	tc := p.Toolchain
	w.variable("builddir", escapeValue(flags.buildDir))
	w.variable("cxx", escapeValue(tc.Compiler))
	w.variable("cxxflags", escapeValue(tc.Flags))
	if flags.pic {
		w.variable("pic_flags", escapeValue(tc.PICFlags))
	}
	if flags.sanitize {
		w.variable("sanitize_flags", escapeValue(tc.SanitizeFlags))
	}
	w.variable("ldflags", escapeValue(tc.LinkFlags))
	w.variable("ar", escapeValue(tc.Archiver))
	w.variable("module_flags", escapeValue(strings.Join(flags.moduleFlags, " ")))
	w.variable("link_flags", escapeValue(strings.Join(flags.linkFlags, " ")))
	w.newline()
}

func writeRules(w *ninjaWriter, p Plan, flags toolFlags, agg aggregate) {
	compileFlags := "$cxxflags"
	if flags.pic {
		compileFlags += " $pic_flags"
	}
	if flags.sanitize {
		compileFlags += " $sanitize_flags"
	}
	compileFlags += " $module_flags"

	w.rule(rule{
		name:        RuleModuleCompile,
		command:     "$cxx " + compileFlags + " $module_output -MD -MF $out.d -c $in -o $out",
		description: "CXX module $in",
		depfile:     "$out.d",
		deps:        "gcc",
	})
	w.rule(rule{
		name:        RuleCompile,
		command:     "$cxx " + compileFlags + " -MD -MF $out.d -c $in -o $out",
		description: "CXX $in",
		depfile:     "$out.d",
		deps:        "gcc",
	})

	switch agg.rule {
	case RuleArchive:
		w.rule(rule{
			name:           RuleArchive,
			command:        "rm -f $out && $ar rcs $out @$out.rsp",
			description:    "AR $out",
			rspfile:        "$out.rsp",
			rspfileContent: "$in",
		})
	case RuleLink:
		linkFlags := "$ldflags"
		if flags.sanitize {
			linkFlags += " $sanitize_flags"
		}
		w.rule(rule{
			name:           RuleLink,
			command:        "$cxx " + linkFlags + " @$out.rsp $link_flags -o $out",
			description:    "LINK $out",
			rspfile:        "$out.rsp",
			rspfileContent: "$in",
		})
	case RuleLinkShared:
		linkFlags := "-shared $ldflags"
		if flags.pic {
			linkFlags += " $pic_flags"
		}
		w.rule(rule{
			name:           RuleLinkShared,
			command:        "$cxx " + linkFlags + " @$out.rsp $link_flags -o $out",
			description:    "LINK $out",
			rspfile:        "$out.rsp",
			rspfileContent: "$in",
		})
	}

	if p.Project.Install != nil {
		w.rule(rule{
			name:        RuleInstall,
			command:     "mkdir -p $dir && cp $in $out",
			description: "INSTALL $out",
		})
	}
}

func compileEdge(g *depgraph.SourceGraph, flags toolFlags, unit cpp.SourceUnit) (edge, error) {
	e := edge{
		outputs:  []string{flags.objectPath(unit)},
		rule:     RuleCompile,
		inputs:   []string{unit.Path},
		implicit: unit.Includes,
	}
	if unit.IsModule() {
		e.rule = RuleModuleCompile
	}
	if unit.Kind == cpp.UnitInterface {
		e.implicitOutputs = []string{flags.bmiPath(unit)}
		e.vars = []binding{{"module_output", moduleOutputFlags}}
	}

	for _, dep := range g.Deps[unit.Path] {
		depUnit, ok := g.Unit(dep)
		if !ok {
			return edge{}, failure.Configf(failure.UnknownSource, dep, "listed as a dependency of %s", unit.Path)
		}
		e.orderOnly = append(e.orderOnly, flags.objectPath(depUnit))
	}
	return e, nil
}

// installDirs returns where the artifact and the interface BMIs are installed.
// Executables go to <outdir>/bin; libraries to <outdir>/lib and their BMIs to
// <outdir>/bmi, both under the namespace when one is set.
func installDirs(p Plan) (artifactDir, bmiDir string) {
	install := p.Project.Install
	if p.Project.Output == project.OutputExecutable {
		return path.Join(install.Path, "bin"), ""
	}
	return path.Join(install.Path, "lib", install.Namespace), path.Join(install.Path, "bmi", install.Namespace)
}

func writeInstall(w *ninjaWriter, p Plan, flags toolFlags, artifact string) {
	artifactDir, bmiDir := installDirs(p)

	var installed []string
	installFile := func(src, dir string) {
		dst := path.Join(dir, path.Base(src))
		w.build(edge{
			outputs: []string{dst},
			rule:    RuleInstall,
			inputs:  []string{src},
			vars:    []binding{{"dir", escapeValue(dir)}},
		})
		installed = append(installed, dst)
	}

	installFile(artifact, artifactDir)
	if bmiDir != "" {
		for _, sourcePath := range p.Graph.BuildOrder {
			unit, _ := p.Graph.Unit(sourcePath)
			if unit.Kind == cpp.UnitInterface {
				installFile(flags.bmiPath(unit), bmiDir)
			}
		}
	}

	w.build(edge{outputs: []string{InstallTarget}, rule: "phony", inputs: installed})
}
