package registry

const packageRoot = "/stuff/c++-packages/clang++-with-libc++"

// DefaultLibrarySearchPaths are the directories the linker searches for registry libraries.
var DefaultLibrarySearchPaths = []string{
	packageRoot + "/lib/",
	packageRoot + "/lib/uzleo/",
}

// Default returns the compiled-in package registry.
func Default() *Registry {
	return New(map[string]ModuleInfo{
		"uzleo.json": {
			InterfaceArtifactPath: packageRoot + "/bmi/uzleo/json.pcm",
			LinkLibraryName:       "json",
			DirectDependencies:    []string{"fmt", "std"},
		},
		"fmt": {
			InterfaceArtifactPath: packageRoot + "/bmi/fmt.pcm",
			LinkLibraryName:       "fmt",
		},
		"std": {
			InterfaceArtifactPath: packageRoot + "/bmi/std.pcm",
		},
		"std.compat": {
			InterfaceArtifactPath: packageRoot + "/bmi/std.compat.pcm",
		},
	})
}
