package graph

import (
	"testing"

	"github.com/georgehulme/trackast/ast"
)

func TestDirectCallers(t *testing.T) {
	g := buildPipeline(t)

	transform := ast.MakeID("utils", "transform_data", ast.EmptySignature())
	callers := g.DirectCallers(transform)
	if len(callers) != 1 || callers[0].Name != "process_data" {
		t.Errorf("Expected process_data as the only caller, got %v", nodeNames(callers))
	}
}

func TestDirectCallees(t *testing.T) {
	g := buildPipeline(t)

	entry := ast.MakeID("main", "main_entry", ast.EmptySignature())
	callees := g.DirectCallees(entry)

	want := map[string]bool{"load_data": true, "process_data": true, "output_result": true}
	if len(callees) != len(want) {
		t.Fatalf("Expected %d callees, got %d (%v)", len(want), len(callees), nodeNames(callees))
	}
	for _, n := range callees {
		if !want[n.Name] {
			t.Errorf("Unexpected callee %s", n.Name)
		}
	}
}

func TestDirectCallersDeduplicates(t *testing.T) {
	m := ast.NewModule("m")
	caller := ast.NewFunctionDef("caller", ast.EmptySignature(), "m")
	caller.AddCall(ast.Call{Target: "callee", Line: 2})
	caller.AddCall(ast.Call{Target: "callee", Line: 3})
	m.AddFunction(caller)
	callee := ast.NewFunctionDef("callee", ast.EmptySignature(), "m")
	m.AddFunction(callee)

	g := buildGraph(t, m)

	callers := g.DirectCallers(ast.MakeID("m", "callee", ast.EmptySignature()))
	if len(callers) != 1 {
		t.Errorf("Expected repeated call sites to collapse to one caller, got %d", len(callers))
	}

	sites := g.CallSites(
		ast.MakeID("m", "caller", ast.EmptySignature()),
		ast.MakeID("m", "callee", ast.EmptySignature()))
	if len(sites) != 2 || sites[0] != 2 || sites[1] != 3 {
		t.Errorf("Expected call sites [2 3], got %v", sites)
	}
}

func TestFindPath(t *testing.T) {
	g := buildPipeline(t)

	from := ast.MakeID("main", "main_entry", ast.EmptySignature())
	to := ast.MakeID("utils", "validate_data", ast.EmptySignature())

	path := g.FindPath(from, to)
	if path == nil {
		t.Fatal("Expected a path from main_entry to validate_data")
	}
	if path[0] != from || path[len(path)-1] != to {
		t.Errorf("Path endpoints wrong: %v", path)
	}
	// main_entry -> process_data -> transform_data -> validate_data
	if len(path) != 4 {
		t.Errorf("Expected shortest path of 4 nodes, got %d (%v)", len(path), path)
	}
}

func TestFindPathNone(t *testing.T) {
	g := buildPipeline(t)

	from := ast.MakeID("utils", "validate_data", ast.EmptySignature())
	to := ast.MakeID("main", "main_entry", ast.EmptySignature())

	if path := g.FindPath(from, to); path != nil {
		t.Errorf("Expected no reverse path, got %v", path)
	}
}

func TestFindPathSameNode(t *testing.T) {
	g := buildPipeline(t)

	id := ast.MakeID("main", "main_entry", ast.EmptySignature())
	path := g.FindPath(id, id)
	if len(path) != 1 || path[0] != id {
		t.Errorf("Expected single-node path, got %v", path)
	}
}

func TestUnreachable(t *testing.T) {
	g := buildPipeline(t)

	entry := ast.MakeID("main", "main_entry", ast.EmptySignature())
	unused := g.Unreachable([]ast.FunctionID{entry}, DFS)

	if len(unused) != 2 {
		t.Fatalf("Expected exactly 2 unused functions, got %d (%v)", len(unused), nodeNames(unused))
	}
	if unused[0].Name != "unused_function" || unused[1].Name != "another_unused" {
		t.Errorf("Expected [unused_function another_unused], got %v", nodeNames(unused))
	}
}

func TestUnreachableSkipsExternalsAndModuleScope(t *testing.T) {
	g := buildGraph(t, webAppModule())

	entry := ast.MakeID("app", ast.ModuleScope, ast.EmptySignature())
	unused := g.Unreachable([]ast.FunctionID{entry}, BFS)
	if len(unused) != 0 {
		t.Errorf("Expected no unused functions in web app, got %v", nodeNames(unused))
	}

	// Without entry points nothing is reachable, but externals and the
	// module scope still stay out of the report.
	all := g.Unreachable(nil, BFS)
	for _, n := range all {
		if n.External {
			t.Errorf("External node %s in unused report", n.ID)
		}
		if n.Name == ast.ModuleScope {
			t.Errorf("Module scope %s in unused report", n.ID)
		}
	}
	if len(all) != 5 {
		t.Errorf("Expected 5 internal functions without entries, got %d (%v)", len(all), nodeNames(all))
	}
}

func TestExternalNodes(t *testing.T) {
	g := buildPipeline(t)

	externals := g.ExternalNodes()
	if len(externals) != 1 || externals[0].Name != "print" {
		t.Errorf("Expected [print], got %v", nodeNames(externals))
	}
}

func TestFindSymbol(t *testing.T) {
	g := buildPipeline(t)

	byName := g.FindSymbol("transform_data")
	if len(byName) != 1 || byName[0].Module != "utils" {
		t.Errorf("Expected utils::transform_data, got %v", nodeNames(byName))
	}

	bySpec := g.FindSymbol("main::main_entry")
	if len(bySpec) != 1 || bySpec[0].Name != "main_entry" {
		t.Errorf("Expected main::main_entry, got %v", nodeNames(bySpec))
	}

	// Bare names match external nodes too, for callers-of queries.
	if ext := g.FindSymbol("print"); len(ext) != 1 || !ext[0].External {
		t.Errorf("Expected external print node, got %v", nodeNames(ext))
	}

	if none := g.FindSymbol("no_such_function"); len(none) != 0 {
		t.Errorf("Expected no matches, got %v", nodeNames(none))
	}
}

func TestExternalCalls(t *testing.T) {
	g := buildPipeline(t)

	calls := g.ExternalCalls()
	if len(calls) != 3 {
		t.Fatalf("Expected 3 calls into externals, got %d", len(calls))
	}
	for _, e := range calls {
		if e.To != ast.ExternalID("print") {
			t.Errorf("Expected every external call to target print, got %s", e.To)
		}
	}
	if calls[0].From.Name() != "output_result" {
		t.Errorf("Expected calls sorted by caller, first was %s", calls[0].From)
	}
}

func nodeNames(nodes []*Node) []string {
	names := make([]string, 0, len(nodes))
	for _, n := range nodes {
		names = append(names, n.Name)
	}
	return names
}
