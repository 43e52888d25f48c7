package depgraph

import (
	"errors"
	"fmt"
	"slices"

	"github.com/LegacyCodeHQ/modgen/depgraph/languages/cpp"
	"github.com/LegacyCodeHQ/modgen/internal/failure"

	graphlib "github.com/dominikbraun/graph"
)

// SourceGraph is the intra-project dependency structure of a project's sources.
type SourceGraph struct {
	// Units holds every source in declared order, with its final kind and object base name.
	Units []cpp.SourceUnit
	// Deps maps every source path to the sorted paths it must be compiled after.
	Deps DependencyGraph
	// ModuleIndex maps a module name to the path of its interface unit.
	ModuleIndex map[string]string
	// BuildOrder lists every path with dependencies before dependents, ties in declared order.
	BuildOrder []string

	byPath map[string]int
	graph  graphlib.Graph[string, string]
}

// Unit returns the unit declared at path.
func (g *SourceGraph) Unit(path string) (cpp.SourceUnit, bool) {
	i, ok := g.byPath[path]
	if !ok {
		return cpp.SourceUnit{}, false
	}
	return g.Units[i], true
}

// Graph returns the underlying directed graph; an edge a -> b means a is built before b.
func (g *SourceGraph) Graph() graphlib.Graph[string, string] {
	return g.graph
}

// UnresolvedImports returns the imported names no project unit provides, sorted and deduplicated.
// They are expected to come from the package registry.
func (g *SourceGraph) UnresolvedImports() []string {
	seen := make(map[string]bool)
	var names []string
	for _, u := range g.Units {
		for _, imp := range u.Imports {
			if _, ok := g.ModuleIndex[imp]; ok || seen[imp] {
				continue
			}
			seen[imp] = true
			names = append(names, imp)
		}
	}
	slices.Sort(names)
	return names
}

// BuildSourceGraph combines scanned units into the project's SourceDependencyMap.
//
// A unit depends on the interface unit of every project module it imports, and an
// implementation unit depends on its own module's interface. extraDeps adds explicit
// edges keyed by source path. Imports that no project unit provides produce no edge.
//
// It fails with a ConfigError when two interface units declare the same module, when an
// extra dependency names an undeclared source, or when the edges form a cycle.
func BuildSourceGraph(units []cpp.SourceUnit, extraDeps map[string][]string) (*SourceGraph, error) {
	sg := &SourceGraph{
		Units:       slices.Clone(units),
		Deps:        make(DependencyGraph, len(units)),
		ModuleIndex: make(map[string]string),
		byPath:      make(map[string]int, len(units)),
	}

	for i, u := range sg.Units {
		if _, dup := sg.byPath[u.Path]; dup {
			return nil, failure.Configf(failure.UnknownSource, u.Path, "declared more than once")
		}
		sg.byPath[u.Path] = i
	}

	if err := sg.indexModules(); err != nil {
		return nil, err
	}

	deps, err := sg.collectEdges(extraDeps)
	if err != nil {
		return nil, err
	}

	for _, u := range sg.Units {
		sg.Deps[u.Path] = sortedUnique(deps[u.Path])
	}

	if err := sg.buildGraph(); err != nil {
		return nil, err
	}

	assignObjectBaseNames(sg.Units)
	return sg, nil
}

// indexModules maps module names to interface units. A non-exported declaration with
// no interface anywhere in the project is promoted to own its module name.
//
// Known limitation: a promoted unit is compiled as an interface and asked for a BMI,
// which clang rejects for a primary module unit without `export`. Such projects must
// declare the interface with `export module`.
func (sg *SourceGraph) indexModules() error {
	for _, u := range sg.Units {
		if u.Kind != cpp.UnitInterface {
			continue
		}
		if existing, dup := sg.ModuleIndex[u.ModuleName]; dup {
			return failure.Configf(failure.DuplicateModule, u.ModuleName, "declared by %s and %s", existing, u.Path)
		}
		sg.ModuleIndex[u.ModuleName] = u.Path
	}

	for i := range sg.Units {
		u := &sg.Units[i]
		if u.Kind != cpp.UnitImplementation {
			continue
		}
		if _, ok := sg.ModuleIndex[u.ModuleName]; !ok {
			u.Kind = cpp.UnitInterface
			sg.ModuleIndex[u.ModuleName] = u.Path
		}
	}

	return nil
}

func (sg *SourceGraph) collectEdges(extraDeps map[string][]string) (map[string][]string, error) {
	deps := make(map[string][]string, len(sg.Units))
	addEdge := func(from, to string) {
		if from != to {
			deps[from] = append(deps[from], to)
		}
	}

	for _, u := range sg.Units {
		for _, imp := range u.Imports {
			if target, ok := sg.ModuleIndex[imp]; ok {
				addEdge(u.Path, target)
			}
		}
		if u.Kind == cpp.UnitImplementation {
			addEdge(u.Path, sg.ModuleIndex[u.ModuleName])
		}
	}

	for from, targets := range extraDeps {
		if _, ok := sg.byPath[from]; !ok {
			return nil, failure.Configf(failure.UnknownSource, from, "has extra dependencies but is not a project source")
		}
		for _, to := range targets {
			if _, ok := sg.byPath[to]; !ok {
				return nil, failure.Configf(failure.UnknownSource, to, "listed as a dependency of %s", from)
			}
			addEdge(from, to)
		}
	}

	return deps, nil
}

func (sg *SourceGraph) buildGraph() error {
	g := graphlib.New(graphlib.StringHash, graphlib.Directed(), graphlib.PreventCycles())

	for _, u := range sg.Units {
		if err := g.AddVertex(u.Path); err != nil {
			return fmt.Errorf("failed to add %s to the source graph: %w", u.Path, err)
		}
	}

	for _, u := range sg.Units {
		for _, dep := range sg.Deps[u.Path] {
			err := g.AddEdge(dep, u.Path)
			switch {
			case err == nil, errors.Is(err, graphlib.ErrEdgeAlreadyExists):
			case errors.Is(err, graphlib.ErrEdgeCreatesCycle):
				return failure.Configf(failure.ImportCycle, u.Path, "depends on %s, which already depends on it", dep)
			default:
				return fmt.Errorf("failed to add edge %s -> %s: %w", dep, u.Path, err)
			}
		}
	}

	order, err := graphlib.StableTopologicalSort(g, func(a, b string) bool {
		return sg.byPath[a] < sg.byPath[b]
	})
	if err != nil {
		return fmt.Errorf("failed to order sources: %w", err)
	}

	sg.graph = g
	sg.BuildOrder = order
	return nil
}

// sortedUnique sorts paths and removes duplicates. It never returns nil.
func sortedUnique(paths []string) []string {
	out := slices.Clone(paths)
	if out == nil {
		out = []string{}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
