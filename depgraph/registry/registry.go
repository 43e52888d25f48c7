// Package registry holds the package registry: the table of external modules a
// project can import, where their precompiled interfaces live and what they link.
package registry

import (
	"maps"
	"slices"
)

// ModuleInfo describes one external module.
type ModuleInfo struct {
	// InterfaceArtifactPath is the location of the module's precompiled interface (BMI).
	InterfaceArtifactPath string
	// LinkLibraryName is the library passed to the linker, empty when the module has none.
	LinkLibraryName string
	// DirectDependencies lists the external modules this module imports.
	DirectDependencies []string
}

// Registry maps module identifiers to their ModuleInfo. It is never mutated after construction.
type Registry struct {
	modules map[string]ModuleInfo
}

// New builds a registry from modules. The input is copied.
func New(modules map[string]ModuleInfo) *Registry {
	r := &Registry{modules: make(map[string]ModuleInfo, len(modules))}
	for id, info := range modules {
		r.modules[id] = cloneInfo(info)
	}
	return r
}

// Lookup returns the ModuleInfo registered for id.
func (r *Registry) Lookup(id string) (ModuleInfo, bool) {
	info, ok := r.modules[id]
	if !ok {
		return ModuleInfo{}, false
	}
	return cloneInfo(info), true
}

// Has reports whether id is a registered module.
func (r *Registry) Has(id string) bool {
	_, ok := r.modules[id]
	return ok
}

// IDs returns every registered identifier in sorted order.
func (r *Registry) IDs() []string {
	return slices.Sorted(maps.Keys(r.modules))
}

// Len returns the number of registered modules.
func (r *Registry) Len() int {
	return len(r.modules)
}

// Merge returns a new registry holding r's modules overlaid with other's.
// Entries in other replace entries in r with the same identifier.
func (r *Registry) Merge(other *Registry) *Registry {
	merged := New(r.modules)
	if other == nil {
		return merged
	}
	for id, info := range other.modules {
		merged.modules[id] = cloneInfo(info)
	}
	return merged
}

func cloneInfo(info ModuleInfo) ModuleInfo {
	info.DirectDependencies = slices.Clone(info.DirectDependencies)
	return info
}
