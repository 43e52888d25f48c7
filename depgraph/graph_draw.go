package depgraph

import (
	"errors"
	"fmt"

	"github.com/LegacyCodeHQ/modgen/depgraph/languages/cpp"

	graphlib "github.com/dominikbraun/graph"
)

// Drawable returns a graph over the sources in deps, carrying DOT attributes for each
// unit kind. An edge a -> b means a is built before b.
func (g *SourceGraph) Drawable(deps DependencyGraph) (graphlib.Graph[string, string], error) {
	out := graphlib.New(graphlib.StringHash, graphlib.Directed())

	for _, u := range g.Units {
		if _, ok := deps[u.Path]; !ok {
			continue
		}
		if err := out.AddVertex(u.Path, vertexAttributes(u)...); err != nil {
			return nil, fmt.Errorf("failed to add %s: %w", u.Path, err)
		}
	}

	for _, u := range g.Units {
		for _, dep := range deps[u.Path] {
			err := out.AddEdge(dep, u.Path)
			if err != nil && !errors.Is(err, graphlib.ErrEdgeAlreadyExists) {
				return nil, fmt.Errorf("failed to add edge %s -> %s: %w", dep, u.Path, err)
			}
		}
	}

	return out, nil
}

func vertexAttributes(u cpp.SourceUnit) []func(*graphlib.VertexProperties) {
	attrs := []func(*graphlib.VertexProperties){
		graphlib.VertexAttribute("shape", "box"),
	}
	switch u.Kind {
	case cpp.UnitInterface:
		attrs = append(attrs,
			graphlib.VertexAttribute("style", "filled"),
			graphlib.VertexAttribute("fillcolor", "lightblue"),
			graphlib.VertexAttribute("xlabel", u.ModuleName))
	case cpp.UnitImplementation:
		attrs = append(attrs,
			graphlib.VertexAttribute("style", "filled"),
			graphlib.VertexAttribute("fillcolor", "lightyellow"))
	}
	return attrs
}
