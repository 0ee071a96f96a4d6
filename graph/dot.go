package graph

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/georgehulme/trackast/ast"
)

// ToDOT renders the whole graph in Graphviz DOT form. Internal functions are
// light blue boxes labeled "module\nname"; external nodes are light gray.
// Edges carry the call line as "L<line>".
func (g *Graph) ToDOT() string {
	return g.renderDOT(g.NodeIDs(), g.Edges)
}

// ReachableDOT renders only the subgraph a traversal reached. Edges between
// two reached nodes are kept; everything else is dropped.
func (g *Graph) ReachableDOT(result *TraversalResult) string {
	ids := result.SortedIDs()

	var edges []*Edge
	for _, edge := range g.Edges {
		if result.Reachable[edge.From] && result.Reachable[edge.To] {
			edges = append(edges, edge)
		}
	}

	return g.renderDOT(ids, edges)
}

// WriteDOTFile writes rendered DOT output to path.
func WriteDOTFile(path, dot string) error {
	if err := os.WriteFile(path, []byte(dot), 0644); err != nil {
		return fmt.Errorf("writing DOT file: %w", err)
	}
	return nil
}

func (g *Graph) renderDOT(ids []ast.FunctionID, edges []*Edge) string {
	var sb strings.Builder
	sb.WriteString("digraph CallGraph {\n")
	sb.WriteString("    rankdir=LR;\n")
	sb.WriteString("    node [shape=box, style=filled];\n\n")

	for _, id := range ids {
		node := g.Node(id)
		if node == nil {
			continue
		}
		fmt.Fprintf(&sb, "    %q [label=%q, fillcolor=%s];\n",
			string(id), dotLabel(node), dotColor(node))
	}

	sb.WriteString("\n")

	sorted := make([]*Edge, len(edges))
	copy(sorted, edges)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].From != sorted[j].From {
			return sorted[i].From < sorted[j].From
		}
		if sorted[i].To != sorted[j].To {
			return sorted[i].To < sorted[j].To
		}
		return sorted[i].Line < sorted[j].Line
	})

	for _, edge := range sorted {
		if edge.Line > 0 {
			fmt.Fprintf(&sb, "    %q -> %q [label=\"L%d\"];\n",
				string(edge.From), string(edge.To), edge.Line)
		} else {
			fmt.Fprintf(&sb, "    %q -> %q;\n", string(edge.From), string(edge.To))
		}
	}

	sb.WriteString("}\n")
	return sb.String()
}

func dotLabel(node *Node) string {
	if node.External {
		return node.Name
	}
	return node.Module + "\n" + node.Name
}

func dotColor(node *Node) string {
	if node.External {
		return "lightgray"
	}
	return "lightblue"
}
