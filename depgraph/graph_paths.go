package depgraph

import (
	"fmt"

	graphlib "github.com/dominikbraun/graph"
)

// Between narrows the dependency map to the sources lying on any dependency path
// between two of the targets, in either direction. Targets are always kept.
func (g *SourceGraph) Between(targets []string) (DependencyGraph, error) {
	var missing []string
	for _, t := range targets {
		if _, ok := g.byPath[t]; !ok {
			missing = append(missing, t)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("files not found in graph: %v", missing)
	}

	keep := make(map[string]bool)
	for _, t := range targets {
		keep[t] = true
	}

	if len(targets) >= 2 {
		successors, err := g.graph.AdjacencyMap()
		if err != nil {
			return nil, fmt.Errorf("failed to read adjacency: %w", err)
		}
		predecessors, err := g.graph.PredecessorMap()
		if err != nil {
			return nil, fmt.Errorf("failed to read predecessors: %w", err)
		}

		for i := 0; i < len(targets); i++ {
			for j := i + 1; j < len(targets); j++ {
				markPathNodes(keep, successors, predecessors, targets[i], targets[j])
				markPathNodes(keep, successors, predecessors, targets[j], targets[i])
			}
		}
	}

	return g.subgraph(keep), nil
}

// markPathNodes marks every node reachable from source that can also reach target.
func markPathNodes(keep map[string]bool, successors, predecessors map[string]map[string]graphlib.Edge[string], source, target string) {
	fromSource := reachable(successors, source)
	toTarget := reachable(predecessors, target)

	if !fromSource[target] {
		return
	}
	for node := range fromSource {
		if toTarget[node] {
			keep[node] = true
		}
	}
}

func reachable(adjacency map[string]map[string]graphlib.Edge[string], start string) map[string]bool {
	seen := map[string]bool{start: true}
	queue := []string{start}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for next := range adjacency[current] {
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}
	return seen
}

func (g *SourceGraph) subgraph(keep map[string]bool) DependencyGraph {
	result := make(DependencyGraph, len(keep))
	for node := range keep {
		deps := []string{}
		for _, dep := range g.Deps[node] {
			if keep[dep] {
				deps = append(deps, dep)
			}
		}
		result[node] = deps
	}
	return result
}
