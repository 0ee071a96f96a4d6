// Package graph builds and queries call graphs over the abstract ASTs
// produced by the scanner. Nodes are functions keyed by their canonical
// ID, edges are call sites. The package also handles traversal from
// entry points, cycle detection, DOT export, and on-disk persistence.
package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/georgehulme/trackast/ast"
)

// Node is one function in the call graph.
type Node struct {
	ID ast.FunctionID `json:"id"`

	// Name and Module mirror the ID segments so output code does not
	// have to re-parse IDs.
	Name   string `json:"name"`
	Module string `json:"module"`

	// File is the source path the function came from, relative to the
	// analysis root. Empty for external nodes.
	File string `json:"file,omitempty"`

	// Line is the 1-indexed definition line, when known.
	Line int `json:"line,omitempty"`

	// External marks synthesized nodes for call targets that resolved
	// to no translated function (stdlib, third-party, builtins).
	External bool `json:"external,omitempty"`
}

// InternalNode creates a graph node for a translated function.
func InternalNode(f *ast.FunctionDef) *Node {
	return &Node{
		ID:     f.ID(),
		Name:   f.Name,
		Module: f.Module,
		File:   f.File,
		Line:   f.Line,
	}
}

// ExternalNode creates a synthesized node for an unresolved call target.
func ExternalNode(name string) *Node {
	return &Node{
		ID:       ast.ExternalID(name),
		Name:     name,
		Module:   ast.ExternalModule,
		External: true,
	}
}

// Edge is one call site: From calls To at Line.
type Edge struct {
	From ast.FunctionID `json:"from"`
	To   ast.FunctionID `json:"to"`
	Line int            `json:"line,omitempty"`
}

// Graph is a call graph with indexed edge lookups.
type Graph struct {
	Nodes map[ast.FunctionID]*Node `json:"nodes"`
	Edges []*Edge                  `json:"edges"`

	// Indexes for fast lookup (rebuilt on load)
	edgesFrom map[ast.FunctionID][]*Edge
	edgesTo   map[ast.FunctionID][]*Edge
	byFile    map[string][]*Node

	// Metadata
	RootPath    string `json:"root,omitempty"`
	Version     int    `json:"version"`
	LastIndexed int64  `json:"last_indexed,omitempty"` // Unix timestamp
}

// New creates an empty graph with initialized maps.
func New() *Graph {
	return &Graph{
		Nodes:     make(map[ast.FunctionID]*Node),
		Edges:     make([]*Edge, 0),
		edgesFrom: make(map[ast.FunctionID][]*Edge),
		edgesTo:   make(map[ast.FunctionID][]*Edge),
		byFile:    make(map[string][]*Node),
		Version:   1,
	}
}

// InsertNode adds a node. Inserting the same ID twice is an error.
func (g *Graph) InsertNode(n *Node) error {
	if _, exists := g.Nodes[n.ID]; exists {
		return fmt.Errorf("node already exists: %s", n.ID)
	}
	g.Nodes[n.ID] = n
	if n.File != "" {
		g.byFile[n.File] = append(g.byFile[n.File], n)
	}
	return nil
}

// InsertEdge adds an edge. Both endpoints must already be nodes.
func (g *Graph) InsertEdge(e *Edge) error {
	if _, ok := g.Nodes[e.From]; !ok {
		return fmt.Errorf("edge source not in graph: %s", e.From)
	}
	if _, ok := g.Nodes[e.To]; !ok {
		return fmt.Errorf("edge target not in graph: %s", e.To)
	}
	g.Edges = append(g.Edges, e)
	g.edgesFrom[e.From] = append(g.edgesFrom[e.From], e)
	g.edgesTo[e.To] = append(g.edgesTo[e.To], e)
	return nil
}

// Node returns the node with the given ID, or nil.
func (g *Graph) Node(id ast.FunctionID) *Node {
	return g.Nodes[id]
}

// EdgesFrom returns all edges originating at id.
func (g *Graph) EdgesFrom(id ast.FunctionID) []*Edge {
	return g.edgesFrom[id]
}

// EdgesTo returns all edges pointing at id.
func (g *Graph) EdgesTo(id ast.FunctionID) []*Edge {
	return g.edgesTo[id]
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.Nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.Edges) }

// NodeIDs returns every node ID in sorted order, for deterministic
// output and tests.
func (g *Graph) NodeIDs() []ast.FunctionID {
	ids := make([]ast.FunctionID, 0, len(g.Nodes))
	for id := range g.Nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// NodesInFile returns the nodes translated from a given file path.
func (g *Graph) NodesInFile(path string) []*Node {
	return g.byFile[path]
}

// FindNodes returns all nodes matching an entry-point style spec
// ("module::function" or "module::function::signature"), sorted by ID.
func (g *Graph) FindNodes(spec string) []*Node {
	var out []*Node
	for id, n := range g.Nodes {
		if id.Matches(spec) {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// FindNodesByName returns all nodes whose name segment equals name,
// sorted by ID. Useful for symbol lookup when the module is unknown.
func (g *Graph) FindNodesByName(name string) []*Node {
	var out []*Node
	for _, n := range g.Nodes {
		if n.Name == name {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// FindSymbol resolves a user-supplied symbol to nodes. Symbols with a
// "::" separator are treated as entry-point specs, bare names match the
// name segment in any module.
func (g *Graph) FindSymbol(symbol string) []*Node {
	if strings.Contains(symbol, "::") {
		return g.FindNodes(symbol)
	}
	return g.FindNodesByName(symbol)
}

// Dependents returns the files that call into path: every file owning a
// node with an edge to one of path's nodes, path itself excluded.
// Incremental reindexing re-translates these so their edges survive the
// removal of the file they point into.
func (g *Graph) Dependents(path string) []string {
	files := make(map[string]bool)
	for _, n := range g.byFile[path] {
		for _, e := range g.edgesTo[n.ID] {
			caller := g.Nodes[e.From]
			if caller != nil && caller.File != "" && caller.File != path {
				files[caller.File] = true
			}
		}
	}
	out := make([]string, 0, len(files))
	for f := range files {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// RemoveFile drops every node translated from path along with all edges
// touching those nodes. Used by incremental reindexing before
// re-translating a modified file.
func (g *Graph) RemoveFile(path string) {
	doomed := make(map[ast.FunctionID]bool)
	for _, n := range g.byFile[path] {
		doomed[n.ID] = true
	}
	if len(doomed) == 0 {
		return
	}

	for id := range doomed {
		delete(g.Nodes, id)
	}
	kept := g.Edges[:0]
	for _, e := range g.Edges {
		if !doomed[e.From] && !doomed[e.To] {
			kept = append(kept, e)
		}
	}
	g.Edges = kept
	g.RebuildIndexes()
}

// RebuildIndexes rebuilds the in-memory indexes from Nodes and Edges.
// Call this after loading from disk.
func (g *Graph) RebuildIndexes() {
	g.edgesFrom = make(map[ast.FunctionID][]*Edge)
	g.edgesTo = make(map[ast.FunctionID][]*Edge)
	g.byFile = make(map[string][]*Node)

	for _, n := range g.Nodes {
		if n.File != "" {
			g.byFile[n.File] = append(g.byFile[n.File], n)
		}
	}
	for _, e := range g.Edges {
		g.edgesFrom[e.From] = append(g.edgesFrom[e.From], e)
		g.edgesTo[e.To] = append(g.edgesTo[e.To], e)
	}
}

// Stats summarizes a graph for status output.
type Stats struct {
	TotalNodes    int `json:"total_nodes"`
	TotalEdges    int `json:"total_edges"`
	InternalNodes int `json:"internal_nodes"`
	ExternalNodes int `json:"external_nodes"`
	Files         int `json:"files"`
	Modules       int `json:"modules"`
}

// GetStats computes summary statistics.
func (g *Graph) GetStats() Stats {
	s := Stats{
		TotalNodes: len(g.Nodes),
		TotalEdges: len(g.Edges),
		Files:      len(g.byFile),
	}
	modules := make(map[string]bool)
	for _, n := range g.Nodes {
		if n.External {
			s.ExternalNodes++
			continue
		}
		s.InternalNodes++
		modules[n.Module] = true
	}
	s.Modules = len(modules)
	return s
}
