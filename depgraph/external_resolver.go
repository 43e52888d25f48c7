package depgraph

import (
	"maps"
	"slices"

	"github.com/LegacyCodeHQ/modgen/depgraph/registry"
	"github.com/LegacyCodeHQ/modgen/internal/failure"
)

// ModuleSet is a set of external module identifiers.
type ModuleSet map[string]struct{}

// Contains reports whether id is in the set.
func (s ModuleSet) Contains(id string) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the members in sorted order.
func (s ModuleSet) Sorted() []string {
	return slices.Sorted(maps.Keys(s))
}

// ResolveExternal returns directImports plus every module they transitively depend on.
// The walk uses an explicit stack and a visited set, so cyclic registries terminate.
// An identifier missing from reg fails with a ConfigError.
func ResolveExternal(directImports []string, reg *registry.Registry) (ModuleSet, error) {
	visited := make(ModuleSet)

	stack := make([]string, 0, len(directImports))
	for i := len(directImports) - 1; i >= 0; i-- {
		stack = append(stack, directImports[i])
	}

	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if visited.Contains(id) {
			continue
		}

		info, ok := reg.Lookup(id)
		if !ok {
			return nil, failure.Config(failure.UnknownModule, id)
		}
		visited[id] = struct{}{}

		for _, dep := range info.DirectDependencies {
			if !visited.Contains(dep) {
				stack = append(stack, dep)
			}
		}
	}

	return visited, nil
}
