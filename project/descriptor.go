package project

import (
	"os"

	"github.com/LegacyCodeHQ/modgen/internal/failure"
)

// Keys recognized at the top level of a project description.
const (
	KeyBuildDir           = "build_dir"
	KeyImports            = "imported_modules"
	KeyArchive            = "a"
	KeyExecutable         = "e"
	KeySharedObject       = "so"
	KeySources            = "src"
	KeyLibraries          = "libs"
	KeyLibrarySearchPaths = "lib_search_paths"
	KeyOutdir             = "outdir"
	KeyRegistry           = "registry"
)

// DefaultBuildDir is used when the description has no build_dir.
const DefaultBuildDir = "build"

// OutputKind is the final artifact a project produces.
type OutputKind int

const (
	OutputUnknown OutputKind = iota
	OutputArchive
	OutputExecutable
	OutputSharedObject
)

func (k OutputKind) String() string {
	switch k {
	case OutputArchive:
		return "static archive"
	case OutputExecutable:
		return "executable"
	case OutputSharedObject:
		return "shared object"
	default:
		return "unknown"
	}
}

var outputMarkers = []struct {
	key  string
	kind OutputKind
}{
	{KeyArchive, OutputArchive},
	{KeyExecutable, OutputExecutable},
	{KeySharedObject, OutputSharedObject},
}

// Source is one project source file, with dependencies listed explicitly in the description.
type Source struct {
	Path      string
	ExtraDeps []string
}

// InstallDir is where the install target copies artifacts.
type InstallDir struct {
	Path      string
	Namespace string
}

// Descriptor is the decoded project description. It is read-only after Decode.
type Descriptor struct {
	BuildDir   string
	Output     OutputKind
	OutputName string
	// Imports are the project's direct external module imports.
	Imports   []string
	Libraries []string
	// LibrarySearchPaths is nil when the description does not set it.
	LibrarySearchPaths []string
	Sources            []Source
	Install            *InstallDir
	RegistryFile       string
}

// SourcePaths returns the source paths in declared order.
func (d *Descriptor) SourcePaths() []string {
	paths := make([]string, 0, len(d.Sources))
	for _, s := range d.Sources {
		paths = append(paths, s.Path)
	}
	return paths
}

// ExtraDeps returns the explicit dependencies keyed by source path.
func (d *Descriptor) ExtraDeps() map[string][]string {
	deps := make(map[string][]string)
	for _, s := range d.Sources {
		if len(s.ExtraDeps) > 0 {
			deps[s.Path] = s.ExtraDeps
		}
	}
	return deps
}

// LoadFile reads and decodes the project description at path.
func LoadFile(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, failure.IO(path, err)
	}
	root, err := Parse(data, path)
	if err != nil {
		return nil, err
	}
	return Decode(root)
}

// DetermineOutput returns the output kind and artifact name selected by root.
// Exactly one of the a, e and so markers must be present.
func DetermineOutput(root Value) (OutputKind, string, error) {
	kind := OutputUnknown
	var name string
	var found []string

	for _, marker := range outputMarkers {
		if !root.Contains(marker.key) {
			continue
		}
		found = append(found, marker.key)
		kind = marker.kind
		var err error
		if name, err = textField(root, marker.key); err != nil {
			return OutputUnknown, "", err
		}
	}

	switch {
	case len(found) == 0:
		return OutputUnknown, "", failure.Configf(failure.NoOutputKind, "",
			"set exactly one of %q (archive), %q (executable) or %q (shared object)", KeyArchive, KeyExecutable, KeySharedObject)
	case len(found) > 1:
		return OutputUnknown, "", failure.Configf(failure.ManyOutputKinds, "", "found %v", found)
	case name == "":
		return OutputUnknown, "", failure.Configf(failure.InvalidField, found[0], "output name is empty")
	}

	return kind, name, nil
}

// Decode builds a Descriptor from a parsed project description.
func Decode(root Value) (*Descriptor, error) {
	d := &Descriptor{BuildDir: DefaultBuildDir}

	var err error
	if d.Output, d.OutputName, err = DetermineOutput(root); err != nil {
		return nil, err
	}

	if root.Contains(KeyBuildDir) {
		if d.BuildDir, err = textField(root, KeyBuildDir); err != nil {
			return nil, err
		}
		if d.BuildDir == "" {
			d.BuildDir = DefaultBuildDir
		}
	}

	if d.Imports, err = optionalTextArray(root, KeyImports); err != nil {
		return nil, err
	}
	if d.Libraries, err = optionalTextArray(root, KeyLibraries); err != nil {
		return nil, err
	}
	if root.Contains(KeyLibrarySearchPaths) {
		if d.LibrarySearchPaths, err = optionalTextArray(root, KeyLibrarySearchPaths); err != nil {
			return nil, err
		}
		if d.LibrarySearchPaths == nil {
			d.LibrarySearchPaths = []string{}
		}
	}
	if root.Contains(KeyRegistry) {
		if d.RegistryFile, err = textField(root, KeyRegistry); err != nil {
			return nil, err
		}
	}

	if d.Sources, err = decodeSources(root); err != nil {
		return nil, err
	}
	if d.Install, err = decodeOutdir(root); err != nil {
		return nil, err
	}

	return d, nil
}

// decodeSources accepts either an array of paths or a map from path to an array of
// extra dependency paths.
func decodeSources(root Value) ([]Source, error) {
	if !root.Contains(KeySources) {
		return nil, failure.Configf(failure.InvalidField, KeySources, "no source files listed")
	}
	field, err := root.Field(KeySources)
	if err != nil {
		return nil, invalid(KeySources, err)
	}

	var sources []Source
	switch {
	case field.IsArray():
		paths, err := textArray(field, KeySources)
		if err != nil {
			return nil, err
		}
		for _, p := range paths {
			sources = append(sources, Source{Path: p})
		}

	case field.IsMap():
		entries, err := field.Map()
		if err != nil {
			return nil, invalid(KeySources, err)
		}
		for _, e := range entries {
			s := Source{Path: e.Key}
			switch {
			case e.Value.IsArray():
				if s.ExtraDeps, err = textArray(e.Value, KeySources); err != nil {
					return nil, err
				}
			case e.Value.IsMap():
				return nil, failure.Configf(failure.InvalidField, e.Key, "extra dependencies must be an array")
			default:
				// null or "" means no extra dependencies
				if text, textErr := e.Value.Text(); textErr == nil && text != "" {
					return nil, failure.Configf(failure.InvalidField, e.Key, "extra dependencies must be an array")
				}
			}
			sources = append(sources, s)
		}

	default:
		return nil, failure.Configf(failure.InvalidField, KeySources, "must be an array or a map")
	}

	seen := make(map[string]bool, len(sources))
	for _, s := range sources {
		if s.Path == "" {
			return nil, failure.Configf(failure.InvalidField, KeySources, "empty source path")
		}
		if seen[s.Path] {
			return nil, failure.Configf(failure.InvalidField, s.Path, "source listed more than once")
		}
		seen[s.Path] = true
	}

	return sources, nil
}

func decodeOutdir(root Value) (*InstallDir, error) {
	if !root.Contains(KeyOutdir) {
		return nil, nil
	}
	outdir, err := root.Field(KeyOutdir)
	if err != nil {
		return nil, invalid(KeyOutdir, err)
	}
	if !outdir.Contains("path") {
		return nil, failure.Configf(failure.InvalidField, KeyOutdir, "missing path")
	}

	install := &InstallDir{}
	if install.Path, err = textField(outdir, "path"); err != nil {
		return nil, err
	}
	if outdir.Contains("namespace") {
		if install.Namespace, err = textField(outdir, "namespace"); err != nil {
			return nil, err
		}
	}
	return install, nil
}

func textField(v Value, key string) (string, error) {
	field, err := v.Field(key)
	if err != nil {
		return "", invalid(key, err)
	}
	text, err := field.Text()
	if err != nil {
		return "", invalid(key, err)
	}
	return text, nil
}

func optionalTextArray(v Value, key string) ([]string, error) {
	if !v.Contains(key) {
		return nil, nil
	}
	field, err := v.Field(key)
	if err != nil {
		return nil, invalid(key, err)
	}
	return textArray(field, key)
}

func textArray(v Value, key string) ([]string, error) {
	items, err := v.Array()
	if err != nil {
		return nil, invalid(key, err)
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		text, err := item.Text()
		if err != nil {
			return nil, invalid(key, err)
		}
		out = append(out, text)
	}
	return out, nil
}

func invalid(key string, err error) error {
	return failure.Configf(failure.InvalidField, key, "%s", err.Error())
}
