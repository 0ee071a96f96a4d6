package graph

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/georgehulme/trackast/ast"
)

func TestToDOT(t *testing.T) {
	g := buildPipeline(t)

	dot := g.ToDOT()

	if !strings.HasPrefix(dot, "digraph CallGraph {") {
		t.Errorf("Expected digraph header, got %q", firstLine(dot))
	}
	if !strings.Contains(dot, "rankdir=LR;") {
		t.Error("Expected rankdir=LR")
	}
	if !strings.Contains(dot, "node [shape=box, style=filled];") {
		t.Error("Expected box node style")
	}
	if !strings.Contains(dot, `label="main\nmain_entry"`) {
		t.Error("Expected internal node label module\\nname")
	}
	if !strings.Contains(dot, "fillcolor=lightblue") {
		t.Error("Expected lightblue internal nodes")
	}
	if !strings.Contains(dot, `label="print", fillcolor=lightgray`) {
		t.Error("Expected lightgray external print node")
	}
	if !strings.Contains(dot, `[label="L4"]`) {
		t.Error("Expected call line label L4 on main_entry -> load_data")
	}
	if !strings.HasSuffix(strings.TrimSpace(dot), "}") {
		t.Error("Expected closing brace")
	}
}

func TestToDOTDeterministic(t *testing.T) {
	g := buildPipeline(t)

	if g.ToDOT() != g.ToDOT() {
		t.Error("Expected identical DOT output across renders")
	}
}

func TestReachableDOT(t *testing.T) {
	g := buildPipeline(t)

	entry := ast.MakeID("main", "main_entry", ast.EmptySignature())
	result := g.Traverse(entry, DFS)

	dot := g.ReachableDOT(result)

	if !strings.Contains(dot, "main_entry") {
		t.Error("Expected reachable subgraph to include main_entry")
	}
	if strings.Contains(dot, "unused_function") {
		t.Error("Expected reachable subgraph to exclude unused_function")
	}
	if strings.Contains(dot, "another_unused") {
		t.Error("Expected reachable subgraph to exclude another_unused")
	}
}

func TestWriteDOTFile(t *testing.T) {
	g := buildPipeline(t)

	path := filepath.Join(t.TempDir(), "graph.dot")
	if err := WriteDOTFile(path, g.ToDOT()); err != nil {
		t.Fatalf("WriteDOTFile failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !strings.Contains(string(data), "digraph CallGraph") {
		t.Error("Expected written file to contain the graph")
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
