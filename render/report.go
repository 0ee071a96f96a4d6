// Package render produces the human-readable reports the CLI prints:
// reachability summaries, unused-function listings, call cycles, and
// graph statistics.
package render

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/georgehulme/trackast/ast"
	"github.com/georgehulme/trackast/graph"
)

const separator = "─────────────────────────────────────────────────────────────"

// Reachability renders the functions a traversal reached, grouped by
// module, with a coverage summary.
func Reachability(g *graph.Graph, result *graph.TraversalResult, entries []ast.FunctionID) string {
	var b strings.Builder

	fmt.Fprintf(&b, "\n=== Reachability ===\n\n")

	fmt.Fprintf(&b, "Entry points:\n")
	for _, id := range entries {
		fmt.Fprintf(&b, "  %s\n", id)
	}
	fmt.Fprintln(&b)

	// Group reached nodes by module, externals last.
	byModule := make(map[string][]*graph.Node)
	var externals []*graph.Node
	for _, id := range result.SortedIDs() {
		node := g.Node(id)
		if node == nil {
			continue
		}
		if node.External {
			externals = append(externals, node)
			continue
		}
		byModule[node.Module] = append(byModule[node.Module], node)
	}

	var modules []string
	for name := range byModule {
		modules = append(modules, name)
	}
	sort.Strings(modules)

	for _, module := range modules {
		fmt.Fprintf(&b, "%s::\n", module)
		for _, node := range byModule[module] {
			fmt.Fprintf(&b, "  %s%s\n", node.Name, location(node))
		}
		fmt.Fprintln(&b)
	}

	if len(externals) > 0 {
		fmt.Fprintf(&b, "external targets:\n")
		for _, node := range externals {
			fmt.Fprintf(&b, "  %s\n", node.Name)
		}
		fmt.Fprintln(&b)
	}

	internal := result.InternalCount(g)
	stats := g.GetStats()
	fmt.Fprintf(&b, "%s\n", separator)
	fmt.Fprintf(&b, "Reachable: %d of %d internal functions · %d external targets\n",
		internal, stats.InternalNodes, result.Len()-internal)

	return b.String()
}

// Unused renders the dead-function report, grouped by source file.
func Unused(g *graph.Graph, unused []*graph.Node) string {
	if len(unused) == 0 {
		return "No unused functions found.\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n=== Unused functions ===\n\n")

	byFile := make(map[string][]*graph.Node)
	for _, node := range unused {
		byFile[node.File] = append(byFile[node.File], node)
	}

	var files []string
	for name := range byFile {
		files = append(files, name)
	}
	sort.Strings(files)

	for _, file := range files {
		nodes := byFile[file]
		sort.Slice(nodes, func(i, j int) bool { return nodes[i].Line < nodes[j].Line })

		label := file
		if label == "" {
			label = "(unknown file)"
		}
		fmt.Fprintf(&b, "%s:\n", label)
		for _, node := range nodes {
			if node.Line > 0 {
				fmt.Fprintf(&b, "  %s::%s  (line %d)\n", node.Module, node.Name, node.Line)
			} else {
				fmt.Fprintf(&b, "  %s::%s\n", node.Module, node.Name)
			}
		}
		fmt.Fprintln(&b)
	}

	fmt.Fprintf(&b, "%s\n", separator)
	fmt.Fprintf(&b, "Unused: %d of %d internal functions\n", len(unused), g.GetStats().InternalNodes)

	return b.String()
}

// Cycles renders detected call cycles, one numbered line each.
func Cycles(cycles []graph.Cycle) string {
	if len(cycles) == 0 {
		return "No call cycles detected.\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n=== Call cycles ===\n\n")
	for i, cycle := range cycles {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, cycle)
	}
	fmt.Fprintf(&b, "\n%s\n", separator)
	fmt.Fprintf(&b, "Cycles: %d\n", len(cycles))

	return b.String()
}

// Summary renders graph statistics for status output.
func Summary(g *graph.Graph) string {
	stats := g.GetStats()

	var b strings.Builder
	fmt.Fprintf(&b, "\n=== Call graph ===\n\n")
	if g.RootPath != "" {
		fmt.Fprintf(&b, "Root:      %s\n", g.RootPath)
	}
	fmt.Fprintf(&b, "Modules:   %d\n", stats.Modules)
	fmt.Fprintf(&b, "Files:     %d\n", stats.Files)
	fmt.Fprintf(&b, "Functions: %d internal · %d external\n", stats.InternalNodes, stats.ExternalNodes)
	if external := len(g.ExternalCalls()); external > 0 {
		fmt.Fprintf(&b, "Edges:     %d · %d into externals\n", stats.TotalEdges, external)
	} else {
		fmt.Fprintf(&b, "Edges:     %d\n", stats.TotalEdges)
	}
	if g.LastIndexed > 0 {
		fmt.Fprintf(&b, "Indexed:   %s\n", time.Unix(g.LastIndexed, 0).Format("2006-01-02 15:04:05"))
	}

	return b.String()
}

// location formats a node's source position as "  (file:line)", or empty
// when unknown.
func location(node *graph.Node) string {
	if node.File == "" {
		return ""
	}
	if node.Line > 0 {
		return fmt.Sprintf("  (%s:%d)", node.File, node.Line)
	}
	return fmt.Sprintf("  (%s)", node.File)
}
