package graph

import (
	"sort"
	"strings"

	"github.com/georgehulme/trackast/ast"
)

// Cycle is a closed call path. Nodes lists each function once, starting from
// the lexically smallest ID so equal cycles compare equal.
type Cycle struct {
	Nodes []ast.FunctionID
}

// String renders the cycle as "a -> b -> a".
func (c Cycle) String() string {
	parts := make([]string, 0, len(c.Nodes)+1)
	for _, id := range c.Nodes {
		parts = append(parts, string(id))
	}
	if len(c.Nodes) > 0 {
		parts = append(parts, string(c.Nodes[0]))
	}
	return strings.Join(parts, " -> ")
}

// FindCycles returns every distinct call cycle in the graph. Each node is
// probed with a breadth-first search for a path back to itself; cycles found
// from different starting points are deduplicated after rotation.
func (g *Graph) FindCycles() []Cycle {
	var cycles []Cycle
	seen := make(map[string]bool)

	for _, start := range g.NodeIDs() {
		path := g.cycleThrough(start)
		if path == nil {
			continue
		}
		cycle := Cycle{Nodes: rotateToSmallest(path)}
		key := cycle.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		cycles = append(cycles, cycle)
	}

	sort.Slice(cycles, func(i, j int) bool {
		return cycles[i].String() < cycles[j].String()
	})
	return cycles
}

// HasCycles reports whether any call cycle exists.
func (g *Graph) HasCycles() bool {
	for _, start := range g.NodeIDs() {
		if g.cycleThrough(start) != nil {
			return true
		}
	}
	return false
}

// cycleThrough finds the shortest path start -> ... -> start, or nil when no
// edge leads back. Self-loops come out as a single-node path.
func (g *Graph) cycleThrough(start ast.FunctionID) []ast.FunctionID {
	parent := make(map[ast.FunctionID]ast.FunctionID)
	visited := map[ast.FunctionID]bool{start: true}
	queue := []ast.FunctionID{start}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		for _, edge := range g.EdgesFrom(id) {
			if edge.To == start {
				// Reconstruct the path back from id to start.
				path := []ast.FunctionID{id}
				for cur := id; cur != start; {
					cur = parent[cur]
					path = append(path, cur)
				}
				reverse(path)
				return path
			}
			if visited[edge.To] {
				continue
			}
			visited[edge.To] = true
			parent[edge.To] = id
			queue = append(queue, edge.To)
		}
	}

	return nil
}

// rotateToSmallest rotates the cycle so the smallest ID leads.
func rotateToSmallest(path []ast.FunctionID) []ast.FunctionID {
	if len(path) == 0 {
		return path
	}
	min := 0
	for i, id := range path {
		if id < path[min] {
			min = i
		}
	}
	rotated := make([]ast.FunctionID, 0, len(path))
	rotated = append(rotated, path[min:]...)
	rotated = append(rotated, path[:min]...)
	return rotated
}

func reverse(ids []ast.FunctionID) {
	for i, j := 0, len(ids)-1; i < j; i, j = i+1, j-1 {
		ids[i], ids[j] = ids[j], ids[i]
	}
}
