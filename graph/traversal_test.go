package graph

import (
	"errors"
	"testing"

	"github.com/georgehulme/trackast/ast"
)

// chainModule builds a -> b -> c plus a -> d so DFS and BFS orders differ.
func chainModule() *ast.Module {
	m := ast.NewModule("m")

	a := ast.NewFunctionDef("a", ast.EmptySignature(), "m")
	a.AddCall(ast.Call{Target: "b", Line: 2})
	a.AddCall(ast.Call{Target: "d", Line: 3})
	m.AddFunction(a)

	b := ast.NewFunctionDef("b", ast.EmptySignature(), "m")
	b.AddCall(ast.Call{Target: "c", Line: 6})
	m.AddFunction(b)

	c := ast.NewFunctionDef("c", ast.EmptySignature(), "m")
	m.AddFunction(c)

	d := ast.NewFunctionDef("d", ast.EmptySignature(), "m")
	m.AddFunction(d)

	return m
}

func TestDFSOrder(t *testing.T) {
	g := buildGraph(t, chainModule())

	start := ast.MakeID("m", "a", ast.EmptySignature())
	result := g.Traverse(start, DFS)

	want := []string{"a", "b", "c", "d"}
	assertOrder(t, result.Order, want)
}

func TestBFSOrder(t *testing.T) {
	g := buildGraph(t, chainModule())

	start := ast.MakeID("m", "a", ast.EmptySignature())
	result := g.Traverse(start, BFS)

	want := []string{"a", "b", "d", "c"}
	assertOrder(t, result.Order, want)
}

func TestTraverseHandlesCycles(t *testing.T) {
	m := ast.NewModule("m")
	a := ast.NewFunctionDef("a", ast.EmptySignature(), "m")
	a.AddCall(ast.Call{Target: "b", Line: 2})
	m.AddFunction(a)
	b := ast.NewFunctionDef("b", ast.EmptySignature(), "m")
	b.AddCall(ast.Call{Target: "a", Line: 5})
	m.AddFunction(b)

	g := buildGraph(t, m)

	result := g.Traverse(ast.MakeID("m", "a", ast.EmptySignature()), DFS)
	if result.Len() != 2 {
		t.Errorf("Expected 2 reachable nodes, got %d", result.Len())
	}
}

func TestTraverseUnknownStart(t *testing.T) {
	g := buildPipeline(t)

	result := g.Traverse(ast.FunctionID("nope::missing::() -> ()"), DFS)
	if result.Len() != 0 {
		t.Errorf("Expected empty result for unknown start, got %d nodes", result.Len())
	}
}

func TestTraverseAllMergesEntries(t *testing.T) {
	g := buildPipeline(t)

	entries := []ast.FunctionID{
		ast.MakeID("main", "main_entry", ast.EmptySignature()),
		ast.MakeID("main", "process_data", ast.EmptySignature()),
	}
	result := g.TraverseAll(entries, BFS)

	seen := make(map[ast.FunctionID]int)
	for _, id := range result.Order {
		seen[id]++
		if seen[id] > 1 {
			t.Errorf("Node %s appears twice in merged order", id)
		}
	}
	if !result.ContainsName("transform_data") {
		t.Error("Expected merged traversal to reach transform_data")
	}
}

func TestPipelineReachability(t *testing.T) {
	g := buildPipeline(t)

	entry := ast.MakeID("main", "main_entry", ast.EmptySignature())

	for _, strategy := range []Strategy{DFS, BFS} {
		t.Run(strategy.String(), func(t *testing.T) {
			result := g.Traverse(entry, strategy)

			for _, name := range []string{
				"main_entry", "load_data", "process_data", "output_result",
				"transform_data", "fetch_from_database", "clean_data", "validate_data",
			} {
				if !result.ContainsName(name) {
					t.Errorf("Expected %s to be reachable from main_entry", name)
				}
			}

			for _, name := range []string{"unused_function", "another_unused"} {
				if result.ContainsName(name) {
					t.Errorf("Expected %s to be unreachable from main_entry", name)
				}
			}

			if result.InternalCount(g) < 3 {
				t.Errorf("Expected at least 3 reachable internal functions, got %d",
					result.InternalCount(g))
			}
		})
	}
}

func TestWebAppReachability(t *testing.T) {
	g := buildGraph(t, webAppModule())

	entry := ast.MakeID("app", ast.ModuleScope, ast.EmptySignature())
	result := g.Traverse(entry, BFS)

	for _, name := range []string{
		"get_users", "create_user", "error_handler",
		"handle_get_users", "validate_user",
	} {
		if !result.ContainsName(name) {
			t.Errorf("Expected handler %s to be reachable via module scope", name)
		}
	}
}

func TestReachableFrom(t *testing.T) {
	g := buildPipeline(t)

	result, err := g.ReachableFrom(ast.MakeID("main", "main_entry", ast.EmptySignature()), DFS)
	if err != nil {
		t.Fatalf("ReachableFrom failed: %v", err)
	}
	if !result.ContainsName("transform_data") {
		t.Error("Expected transform_data to be reachable from main_entry")
	}

	_, err = g.ReachableFrom(ast.FunctionID("nope::missing::() -> ()"), DFS)
	if !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("Expected ErrNodeNotFound for a missing start, got %v", err)
	}
}

func TestWalkStopsEarly(t *testing.T) {
	g := buildGraph(t, chainModule())

	var visited []string
	g.Walk(ast.MakeID("m", "a", ast.EmptySignature()), DFS, func(n *Node) bool {
		visited = append(visited, n.Name)
		return len(visited) < 2
	})

	if len(visited) != 2 {
		t.Errorf("Expected walk to stop after 2 nodes, visited %d", len(visited))
	}
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in      string
		want    Strategy
		wantErr bool
	}{
		{"dfs", DFS, false},
		{"bfs", BFS, false},
		{"", DFS, false},
		{"dijkstra", DFS, true},
	}

	for _, tt := range tests {
		got, err := ParseStrategy(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseStrategy(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseStrategy(%q): unexpected error %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseStrategy(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func assertOrder(t *testing.T, order []ast.FunctionID, want []string) {
	t.Helper()
	if len(order) != len(want) {
		t.Fatalf("Expected %d nodes in order, got %d (%v)", len(want), len(order), order)
	}
	for i, id := range order {
		if id.Name() != want[i] {
			t.Errorf("Order[%d] = %s, want %s", i, id.Name(), want[i])
		}
	}
}
