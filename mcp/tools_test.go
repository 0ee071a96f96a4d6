package mcp

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/georgehulme/trackast/ast"
	"github.com/georgehulme/trackast/graph"
	"github.com/georgehulme/trackast/scanner"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// indexedProject persists a small call graph under a temp root:
// app::main_entry -> app::process_data -> print, plus one function
// nothing calls.
func indexedProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	main := ast.NewFunctionDef("main_entry", ast.EmptySignature(), "app")
	main.File = "main.py"
	main.Line = 3
	main.AddCall(ast.Call{Target: "process_data", Line: 4})

	process := ast.NewFunctionDef("process_data", ast.EmptySignature(), "app")
	process.File = "main.py"
	process.Line = 8
	process.AddCall(ast.Call{Target: "print", Line: 9})

	unused := ast.NewFunctionDef("unused_function", ast.EmptySignature(), "app")
	unused.File = "main.py"
	unused.Line = 14

	module := ast.NewModule("app")
	module.AddFunction(main)
	module.AddFunction(process)
	module.AddFunction(unused)

	builder := graph.NewBuilder(root)
	if err := builder.AddModule(module); err != nil {
		t.Fatalf("AddModule failed: %v", err)
	}
	g, err := builder.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if err := g.SaveBinary(root); err != nil {
		t.Fatalf("SaveBinary failed: %v", err)
	}
	return root
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("result has no content")
	}
	return result.Content[0].(*mcp.TextContent).Text
}

func TestMCPTools(t *testing.T) {
	ctx := context.Background()
	root := indexedProject(t)

	t.Run("trace_entry_points", func(t *testing.T) {
		input := TraceInput{Path: root, EntryPoints: "app::main_entry"}
		result, _, err := handleTraceEntryPoints(ctx, nil, input)
		if err != nil {
			t.Fatalf("handleTraceEntryPoints failed: %v", err)
		}
		if result.IsError {
			t.Fatalf("handleTraceEntryPoints returned error result: %v", result.Content)
		}
		text := resultText(t, result)
		if !strings.Contains(text, "process_data") {
			t.Errorf("Expected reachable 'process_data', got:\n%s", text)
		}
		if strings.Contains(text, "unused_function") {
			t.Errorf("Did not expect 'unused_function' in reachable set, got:\n%s", text)
		}
	})

	t.Run("trace_requires_entry_points", func(t *testing.T) {
		input := TraceInput{Path: root}
		result, _, err := handleTraceEntryPoints(ctx, nil, input)
		if err != nil {
			t.Fatalf("handleTraceEntryPoints failed: %v", err)
		}
		if !result.IsError {
			t.Fatal("Expected error result for missing entry_points")
		}
		if text := resultText(t, result); !strings.Contains(text, "entry_points is required") {
			t.Errorf("Expected entry_points error, got:\n%s", text)
		}
	})

	t.Run("trace_unknown_entry", func(t *testing.T) {
		input := TraceInput{Path: root, EntryPoints: "app::does_not_exist"}
		result, _, err := handleTraceEntryPoints(ctx, nil, input)
		if err != nil {
			t.Fatalf("handleTraceEntryPoints failed: %v", err)
		}
		if !result.IsError {
			t.Fatal("Expected error result for unknown entry point")
		}
		if text := resultText(t, result); !strings.Contains(text, "unknown entry point") {
			t.Errorf("Expected unknown entry point error, got:\n%s", text)
		}
	})

	t.Run("find_unused", func(t *testing.T) {
		input := UnusedInput{Path: root, EntryPoints: "app::main_entry"}
		result, _, err := handleFindUnused(ctx, nil, input)
		if err != nil {
			t.Fatalf("handleFindUnused failed: %v", err)
		}
		if result.IsError {
			t.Fatalf("handleFindUnused returned error result: %v", result.Content)
		}
		text := resultText(t, result)
		if !strings.Contains(text, "unused_function") {
			t.Errorf("Expected 'unused_function' in report, got:\n%s", text)
		}
		if !strings.Contains(text, "Unused: 1 of 3") {
			t.Errorf("Expected summary 'Unused: 1 of 3', got:\n%s", text)
		}
	})

	t.Run("function_callers", func(t *testing.T) {
		input := SymbolInput{Path: root, Symbol: "process_data"}
		result, _, err := handleFunctionCallers(ctx, nil, input)
		if err != nil {
			t.Fatalf("handleFunctionCallers failed: %v", err)
		}
		if result.IsError {
			t.Fatalf("handleFunctionCallers returned error result: %v", result.Content)
		}
		text := resultText(t, result)
		if !strings.Contains(text, "app::main_entry") {
			t.Errorf("Expected caller 'app::main_entry', got:\n%s", text)
		}
		if !strings.Contains(text, "Callers: 1") {
			t.Errorf("Expected 'Callers: 1', got:\n%s", text)
		}
	})

	t.Run("function_callers_unknown", func(t *testing.T) {
		input := SymbolInput{Path: root, Symbol: "does_not_exist"}
		result, _, err := handleFunctionCallers(ctx, nil, input)
		if err != nil {
			t.Fatalf("handleFunctionCallers failed: %v", err)
		}
		if !result.IsError {
			t.Fatal("Expected error result for unknown symbol")
		}
		if text := resultText(t, result); !strings.Contains(text, "no function found matching") {
			t.Errorf("Expected no-match error, got:\n%s", text)
		}
	})

	t.Run("function_callees", func(t *testing.T) {
		input := SymbolInput{Path: root, Symbol: "app::process_data"}
		result, _, err := handleFunctionCallees(ctx, nil, input)
		if err != nil {
			t.Fatalf("handleFunctionCallees failed: %v", err)
		}
		if result.IsError {
			t.Fatalf("handleFunctionCallees returned error result: %v", result.Content)
		}
		text := resultText(t, result)
		if !strings.Contains(text, "print") {
			t.Errorf("Expected callee 'print', got:\n%s", text)
		}
		if !strings.Contains(text, "(external)") {
			t.Errorf("Expected external marker for 'print', got:\n%s", text)
		}
		if !strings.Contains(text, "Callees: 1") {
			t.Errorf("Expected 'Callees: 1', got:\n%s", text)
		}
	})

	t.Run("export_dot", func(t *testing.T) {
		input := ExportDOTInput{Path: root}
		result, _, err := handleExportDOT(ctx, nil, input)
		if err != nil {
			t.Fatalf("handleExportDOT failed: %v", err)
		}
		text := resultText(t, result)
		if !strings.Contains(text, "digraph CallGraph") {
			t.Errorf("Expected DOT header, got:\n%s", text)
		}
		if !strings.Contains(text, "unused_function") {
			t.Errorf("Expected full graph to include 'unused_function', got:\n%s", text)
		}
	})

	t.Run("export_dot_reachable", func(t *testing.T) {
		input := ExportDOTInput{Path: root, EntryPoints: "app::main_entry"}
		result, _, err := handleExportDOT(ctx, nil, input)
		if err != nil {
			t.Fatalf("handleExportDOT failed: %v", err)
		}
		text := resultText(t, result)
		if !strings.Contains(text, "main_entry") {
			t.Errorf("Expected 'main_entry' in subgraph, got:\n%s", text)
		}
		if strings.Contains(text, "unused_function") {
			t.Errorf("Did not expect 'unused_function' in reachable subgraph, got:\n%s", text)
		}
	})

	t.Run("no_index", func(t *testing.T) {
		empty := t.TempDir()
		input := SymbolInput{Path: empty, Symbol: "anything"}
		result, _, err := handleFunctionCallers(ctx, nil, input)
		if err != nil {
			t.Fatalf("handleFunctionCallers failed: %v", err)
		}
		if !result.IsError {
			t.Fatal("Expected error result without an index")
		}
		if text := resultText(t, result); !strings.Contains(text, "no index found") {
			t.Errorf("Expected no-index error, got:\n%s", text)
		}
	})

	t.Run("status", func(t *testing.T) {
		result, _, err := handleStatus(ctx, nil, EmptyInput{})
		if err != nil {
			t.Fatalf("handleStatus failed: %v", err)
		}
		text := resultText(t, result)
		if !strings.Contains(text, "trackast MCP server") {
			t.Errorf("Expected server banner, got:\n%s", text)
		}
		if !strings.Contains(text, "build_graph") {
			t.Errorf("Expected tool listing, got:\n%s", text)
		}
	})

	// Grammar-dependent tools
	loader := scanner.NewGrammarLoader()
	if !loader.HasGrammars() {
		t.Log("Skipping analyze_file/build_graph (no tree-sitter grammars)")
		return
	}

	t.Run("analyze_file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "main.py")
		src := "def main_entry():\n    process_data()\n\ndef process_data():\n    print(\"working\")\n"
		if err := os.WriteFile(path, []byte(src), 0644); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}

		input := AnalyzeFileInput{File: path}
		result, _, err := handleAnalyzeFile(ctx, nil, input)
		if err != nil {
			t.Fatalf("handleAnalyzeFile failed: %v", err)
		}
		if result.IsError {
			t.Fatalf("handleAnalyzeFile returned error result: %v", result.Content)
		}
		text := resultText(t, result)
		if !strings.Contains(text, "main_entry") || !strings.Contains(text, "process_data") {
			t.Errorf("Expected function inventory, got:\n%s", text)
		}
		if !strings.Contains(text, "Functions: 2") {
			t.Errorf("Expected 'Functions: 2', got:\n%s", text)
		}
	})

	t.Run("build_graph", func(t *testing.T) {
		dir := t.TempDir()
		src := "def main_entry():\n    process_data()\n\ndef process_data():\n    print(\"working\")\n"
		if err := os.WriteFile(filepath.Join(dir, "main.py"), []byte(src), 0644); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}

		input := BuildGraphInput{Path: dir, Entry: "main.py"}
		result, _, err := handleBuildGraph(ctx, nil, input)
		if err != nil {
			t.Fatalf("handleBuildGraph failed: %v", err)
		}
		if result.IsError {
			t.Fatalf("handleBuildGraph returned error result: %v", result.Content)
		}
		text := resultText(t, result)
		if !strings.Contains(text, "Saved:") {
			t.Errorf("Expected saved index path, got:\n%s", text)
		}
		if !graph.Exists(dir) {
			t.Error("Expected graph file on disk after build_graph")
		}

		// The persisted index should now serve the query tools.
		callers, _, err := handleFunctionCallers(ctx, nil, SymbolInput{Path: dir, Symbol: "process_data"})
		if err != nil {
			t.Fatalf("handleFunctionCallers failed: %v", err)
		}
		if callers.IsError {
			t.Fatalf("handleFunctionCallers returned error result: %v", callers.Content)
		}
		if text := resultText(t, callers); !strings.Contains(text, "main_entry") {
			t.Errorf("Expected caller 'main_entry', got:\n%s", text)
		}
	})
}
