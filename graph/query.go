package graph

import (
	"sort"

	"github.com/georgehulme/trackast/ast"
)

// DirectCallers returns the distinct nodes with an edge into id, sorted.
func (g *Graph) DirectCallers(id ast.FunctionID) []*Node {
	seen := make(map[ast.FunctionID]bool)
	var nodes []*Node
	for _, edge := range g.EdgesTo(id) {
		if seen[edge.From] {
			continue
		}
		seen[edge.From] = true
		if node := g.Node(edge.From); node != nil {
			nodes = append(nodes, node)
		}
	}
	sortNodes(nodes)
	return nodes
}

// DirectCallees returns the distinct nodes id has an edge into, sorted.
func (g *Graph) DirectCallees(id ast.FunctionID) []*Node {
	seen := make(map[ast.FunctionID]bool)
	var nodes []*Node
	for _, edge := range g.EdgesFrom(id) {
		if seen[edge.To] {
			continue
		}
		seen[edge.To] = true
		if node := g.Node(edge.To); node != nil {
			nodes = append(nodes, node)
		}
	}
	sortNodes(nodes)
	return nodes
}

// CallSites returns the line numbers where from calls to, sorted ascending.
func (g *Graph) CallSites(from, to ast.FunctionID) []int {
	var lines []int
	for _, edge := range g.EdgesFrom(from) {
		if edge.To == to {
			lines = append(lines, edge.Line)
		}
	}
	sort.Ints(lines)
	return lines
}

// FindPath returns the shortest call path from one node to another, both
// endpoints included, or nil when no path exists.
func (g *Graph) FindPath(from, to ast.FunctionID) []ast.FunctionID {
	if g.Node(from) == nil || g.Node(to) == nil {
		return nil
	}
	if from == to {
		return []ast.FunctionID{from}
	}

	parent := make(map[ast.FunctionID]ast.FunctionID)
	visited := map[ast.FunctionID]bool{from: true}
	queue := []ast.FunctionID{from}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		for _, edge := range g.EdgesFrom(id) {
			if visited[edge.To] {
				continue
			}
			visited[edge.To] = true
			parent[edge.To] = id

			if edge.To == to {
				path := []ast.FunctionID{to}
				for cur := to; cur != from; {
					cur = parent[cur]
					path = append(path, cur)
				}
				reverse(path)
				return path
			}
			queue = append(queue, edge.To)
		}
	}

	return nil
}

// ExternalNodes returns every synthesized external node, sorted.
func (g *Graph) ExternalNodes() []*Node {
	var nodes []*Node
	for _, node := range g.Nodes {
		if node.External {
			nodes = append(nodes, node)
		}
	}
	sortNodes(nodes)
	return nodes
}

// ExternalCalls returns every edge whose target is an external node,
// sorted by caller, target, and line.
func (g *Graph) ExternalCalls() []*Edge {
	var edges []*Edge
	for _, edge := range g.Edges {
		if node := g.Node(edge.To); node != nil && node.External {
			edges = append(edges, edge)
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		if edges[i].To != edges[j].To {
			return edges[i].To < edges[j].To
		}
		return edges[i].Line < edges[j].Line
	})
	return edges
}

// Unreachable returns the internal functions no traversal from entries
// reaches. External nodes are never reported, and neither are module-level
// statement scopes, since those run on import rather than by call.
func (g *Graph) Unreachable(entries []ast.FunctionID, strategy Strategy) []*Node {
	result := g.TraverseAll(entries, strategy)

	var nodes []*Node
	for id, node := range g.Nodes {
		if node.External || node.Name == ast.ModuleScope {
			continue
		}
		if !result.Reachable[id] {
			nodes = append(nodes, node)
		}
	}
	sortNodes(nodes)
	return nodes
}

func sortNodes(nodes []*Node) {
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
}
