package graph

import (
	"errors"
	"fmt"
	"sort"

	"github.com/georgehulme/trackast/ast"
)

// ErrNodeNotFound is returned by queries that name a specific node.
var ErrNodeNotFound = errors.New("node not in graph")

// Strategy selects the traversal order used when walking the graph.
type Strategy int

const (
	// DFS explores depth-first using an explicit stack.
	DFS Strategy = iota
	// BFS explores breadth-first using a queue.
	BFS
)

// String returns the lowercase name of the strategy.
func (s Strategy) String() string {
	switch s {
	case DFS:
		return "dfs"
	case BFS:
		return "bfs"
	default:
		return "unknown"
	}
}

// ParseStrategy converts a flag value into a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "dfs", "":
		return DFS, nil
	case "bfs":
		return BFS, nil
	default:
		return DFS, fmt.Errorf("unknown traversal strategy %q (want dfs or bfs)", s)
	}
}

// TraversalResult records which nodes a traversal reached and in what order.
type TraversalResult struct {
	Start     []ast.FunctionID
	Reachable map[ast.FunctionID]bool
	Order     []ast.FunctionID
}

// Contains reports whether the traversal reached id.
func (r *TraversalResult) Contains(id ast.FunctionID) bool {
	return r.Reachable[id]
}

// ContainsName reports whether any reached node carries the bare name.
func (r *TraversalResult) ContainsName(name string) bool {
	for id := range r.Reachable {
		if id.Name() == name {
			return true
		}
	}
	return false
}

// Len returns the number of reached nodes, external nodes included.
func (r *TraversalResult) Len() int {
	return len(r.Reachable)
}

// InternalCount returns the number of reached nodes defined inside the
// analyzed codebase.
func (r *TraversalResult) InternalCount(g *Graph) int {
	n := 0
	for id := range r.Reachable {
		if node := g.Node(id); node != nil && !node.External {
			n++
		}
	}
	return n
}

// SortedIDs returns the reached node IDs in lexical order.
func (r *TraversalResult) SortedIDs() []ast.FunctionID {
	ids := make([]ast.FunctionID, 0, len(r.Reachable))
	for id := range r.Reachable {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Traverse walks the graph from a single start node.
func (g *Graph) Traverse(start ast.FunctionID, strategy Strategy) *TraversalResult {
	return g.TraverseAll([]ast.FunctionID{start}, strategy)
}

// ReachableFrom is the checked variant of Traverse: it fails when the
// start node does not exist instead of returning an empty result.
func (g *Graph) ReachableFrom(start ast.FunctionID, strategy Strategy) (*TraversalResult, error) {
	if g.Node(start) == nil {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, start)
	}
	return g.Traverse(start, strategy), nil
}

// TraverseAll walks the graph from every start node and merges the results.
// Nodes reached from an earlier start are not revisited, so Order lists each
// node once, in the order it was first seen.
func (g *Graph) TraverseAll(starts []ast.FunctionID, strategy Strategy) *TraversalResult {
	result := &TraversalResult{
		Start:     starts,
		Reachable: make(map[ast.FunctionID]bool),
	}

	for _, start := range starts {
		if g.Node(start) == nil {
			continue
		}
		switch strategy {
		case BFS:
			g.bfs(start, result)
		default:
			g.dfs(start, result)
		}
	}

	return result
}

// Walk traverses from start, calling visit for every node in traversal
// order. Returning false from visit stops the walk.
func (g *Graph) Walk(start ast.FunctionID, strategy Strategy, visit func(*Node) bool) {
	result := g.Traverse(start, strategy)
	for _, id := range result.Order {
		if node := g.Node(id); node != nil {
			if !visit(node) {
				return
			}
		}
	}
}

func (g *Graph) dfs(start ast.FunctionID, result *TraversalResult) {
	stack := []ast.FunctionID{start}

	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if result.Reachable[id] {
			continue
		}
		result.Reachable[id] = true
		result.Order = append(result.Order, id)

		edges := g.EdgesFrom(id)
		// Push in reverse so the first outgoing edge is explored first.
		for i := len(edges) - 1; i >= 0; i-- {
			if !result.Reachable[edges[i].To] {
				stack = append(stack, edges[i].To)
			}
		}
	}
}

func (g *Graph) bfs(start ast.FunctionID, result *TraversalResult) {
	if result.Reachable[start] {
		return
	}

	queue := []ast.FunctionID{start}
	result.Reachable[start] = true
	result.Order = append(result.Order, start)

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		for _, edge := range g.EdgesFrom(id) {
			if result.Reachable[edge.To] {
				continue
			}
			result.Reachable[edge.To] = true
			result.Order = append(result.Order, edge.To)
			queue = append(queue, edge.To)
		}
	}
}
