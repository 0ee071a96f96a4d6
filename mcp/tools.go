package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/georgehulme/trackast/ast"
	"github.com/georgehulme/trackast/graph"
	"github.com/georgehulme/trackast/render"
	"github.com/georgehulme/trackast/scanner"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Input types for tools
type AnalyzeFileInput struct {
	File     string `json:"file" jsonschema:"Path to the source file to analyze"`
	Module   string `json:"module,omitempty" jsonschema:"Module path to record for the file (default: file stem)"`
	Language string `json:"language,omitempty" jsonschema:"Override language detection: python, rust, javascript, typescript"`
}

type BuildGraphInput struct {
	Path   string `json:"path" jsonschema:"Path to the project directory to analyze"`
	Entry  string `json:"entry,omitempty" jsonschema:"Entry file to follow imports from instead of analyzing every file"`
	Module string `json:"module,omitempty" jsonschema:"Module path for the entry file (default: app)"`
}

type TraceInput struct {
	Path        string `json:"path" jsonschema:"Path to the indexed project directory"`
	EntryPoints string `json:"entry_points" jsonschema:"Comma-separated entry points in module::function form"`
	Strategy    string `json:"strategy,omitempty" jsonschema:"Traversal strategy: dfs (default) or bfs"`
}

type UnusedInput struct {
	Path        string `json:"path" jsonschema:"Path to the indexed project directory"`
	EntryPoints string `json:"entry_points" jsonschema:"Comma-separated entry points in module::function form"`
}

type SymbolInput struct {
	Path   string `json:"path" jsonschema:"Path to the indexed project directory"`
	Symbol string `json:"symbol" jsonschema:"Function name or module::function spec"`
}

type ExportDOTInput struct {
	Path        string `json:"path" jsonschema:"Path to the indexed project directory"`
	EntryPoints string `json:"entry_points,omitempty" jsonschema:"Optional comma-separated entry points; when given only the reachable subgraph is exported"`
	Strategy    string `json:"strategy,omitempty" jsonschema:"Traversal strategy: dfs (default) or bfs"`
}

// EmptyInput for tools that don't need parameters
type EmptyInput struct{}

const grammarHelp = "no tree-sitter grammars found. Set TRACKAST_GRAMMAR_DIR to the directory containing the grammar libraries."

func handleAnalyzeFile(ctx context.Context, req *mcp.CallToolRequest, input AnalyzeFileInput) (*mcp.CallToolResult, any, error) {
	absFile, err := validatePath(input.File)
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}

	lang := input.Language
	if lang == "" {
		lang = scanner.DetectLanguage(absFile)
	}
	if lang == "" {
		return errorResult(fmt.Sprintf("cannot detect language for %s (supported: %s)",
			filepath.Base(absFile), strings.Join(scanner.SupportedLanguages(), ", "))), nil, nil
	}

	loader := scanner.NewGrammarLoader()
	if !loader.HasGrammars() {
		return errorResult(grammarHelp), nil, nil
	}

	modulePath := input.Module
	if modulePath == "" {
		base := filepath.Base(absFile)
		modulePath = strings.TrimSuffix(base, filepath.Ext(base))
	}

	content, err := os.ReadFile(absFile)
	if err != nil {
		return errorResult("Read error: " + err.Error()), nil, nil
	}

	module, err := scanner.NewTranslator(loader).TranslateSource(content, lang, modulePath, filepath.Base(absFile))
	if err != nil {
		return errorResult("Translate error: " + err.Error()), nil, nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("=== %s (%s) ===\n\n", module.Path, lang))

	callSites := 0
	for _, f := range module.Functions {
		if f.Line > 0 {
			sb.WriteString(fmt.Sprintf("  %s  (line %d)\n", f.Name, f.Line))
		} else {
			sb.WriteString(fmt.Sprintf("  %s\n", f.Name))
		}
		for _, c := range f.Calls {
			target := c.Target
			if c.TargetModule != "" {
				target = c.TargetModule + "::" + c.Target
			}
			sb.WriteString(fmt.Sprintf("    -> %s  (line %d)\n", target, c.Line))
			callSites++
		}
	}

	sb.WriteString("\n───────────────────────────────────\n")
	sb.WriteString(fmt.Sprintf("Functions: %d · Call sites: %d\n", len(module.Functions), callSites))

	return textResult(sb.String()), nil, nil
}

func handleBuildGraph(ctx context.Context, req *mcp.CallToolRequest, input BuildGraphInput) (*mcp.CallToolResult, any, error) {
	absRoot, err := validatePath(input.Path)
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}

	loader := scanner.NewGrammarLoader()
	if !loader.HasGrammars() {
		return errorResult(grammarHelp), nil, nil
	}
	translator := scanner.NewTranslator(loader)

	var opts []scanner.LoaderOption
	if input.Entry != "" {
		entryModule := input.Module
		if entryModule == "" {
			entryModule = "app"
		}
		opts = append(opts, scanner.WithEntryModule(entryModule))
	}
	ml := scanner.NewModuleLoader(absRoot, translator, opts...)

	var modules []*ast.Module
	if input.Entry != "" {
		modules, err = ml.LoadEntry(input.Entry)
	} else {
		modules, err = ml.LoadTree()
	}
	if err != nil {
		return errorResult("Analyze error: " + err.Error()), nil, nil
	}
	if len(modules) == 0 {
		return errorResult("no supported source files found under " + absRoot), nil, nil
	}

	builder := graph.NewBuilder(absRoot)
	for _, m := range modules {
		if err := builder.AddModule(m); err != nil {
			return errorResult("Build error: " + err.Error()), nil, nil
		}
	}
	g, err := builder.Build()
	if err != nil {
		return errorResult("Build error: " + err.Error()), nil, nil
	}

	if err := g.SaveBinary(absRoot); err != nil {
		return errorResult("Save error: " + err.Error()), nil, nil
	}

	var sb strings.Builder
	sb.WriteString(render.Summary(g))
	sb.WriteString(fmt.Sprintf("Saved:     %s\n", graph.GraphPath(absRoot)))
	return textResult(sb.String()), nil, nil
}

func handleTraceEntryPoints(ctx context.Context, req *mcp.CallToolRequest, input TraceInput) (*mcp.CallToolResult, any, error) {
	absRoot, err := validatePath(input.Path)
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}

	g, err := loadGraph(absRoot)
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}

	specs := splitSpecs(input.EntryPoints)
	if len(specs) == 0 {
		return errorResult("entry_points is required (comma-separated module::function specs)"), nil, nil
	}

	entries, err := g.ResolveEntryPoints(specs)
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}

	strategy, err := graph.ParseStrategy(input.Strategy)
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}

	result := g.TraverseAll(entries, strategy)
	return textResult(render.Reachability(g, result, entries)), nil, nil
}

func handleFindUnused(ctx context.Context, req *mcp.CallToolRequest, input UnusedInput) (*mcp.CallToolResult, any, error) {
	absRoot, err := validatePath(input.Path)
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}

	g, err := loadGraph(absRoot)
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}

	specs := splitSpecs(input.EntryPoints)
	if len(specs) == 0 {
		return errorResult("entry_points is required (comma-separated module::function specs)"), nil, nil
	}

	entries, err := g.ResolveEntryPoints(specs)
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}

	unused := g.Unreachable(entries, graph.DFS)
	return textResult(render.Unused(g, unused)), nil, nil
}

func handleFunctionCallers(ctx context.Context, req *mcp.CallToolRequest, input SymbolInput) (*mcp.CallToolResult, any, error) {
	absRoot, err := validatePath(input.Path)
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}

	if input.Symbol == "" {
		return errorResult("symbol is required"), nil, nil
	}

	g, err := loadGraph(absRoot)
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}

	nodes := g.FindSymbol(input.Symbol)
	if len(nodes) == 0 {
		return errorResult(fmt.Sprintf("no function found matching '%s'", input.Symbol)), nil, nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("=== Callers of '%s' ===\n\n", input.Symbol))

	total := 0
	for _, node := range nodes {
		callers := g.DirectCallers(node.ID)
		if len(callers) == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("Target: %s::%s%s\n", node.Module, node.Name, location(node)))
		for _, caller := range callers {
			sb.WriteString(fmt.Sprintf("  %s::%s%s\n", caller.Module, caller.Name, location(caller)))
			total++
		}
		sb.WriteString("\n")
	}

	if total == 0 {
		return textResult(fmt.Sprintf("No callers found for '%s'", input.Symbol)), nil, nil
	}

	sb.WriteString("───────────────────────────────────\n")
	sb.WriteString(fmt.Sprintf("Callers: %d\n", total))
	return textResult(sb.String()), nil, nil
}

func handleFunctionCallees(ctx context.Context, req *mcp.CallToolRequest, input SymbolInput) (*mcp.CallToolResult, any, error) {
	absRoot, err := validatePath(input.Path)
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}

	if input.Symbol == "" {
		return errorResult("symbol is required"), nil, nil
	}

	g, err := loadGraph(absRoot)
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}

	nodes := g.FindSymbol(input.Symbol)
	if len(nodes) == 0 {
		return errorResult(fmt.Sprintf("no function found matching '%s'", input.Symbol)), nil, nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("=== Callees of '%s' ===\n\n", input.Symbol))

	total := 0
	for _, node := range nodes {
		callees := g.DirectCallees(node.ID)
		if len(callees) == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("Source: %s::%s%s\n", node.Module, node.Name, location(node)))
		for _, callee := range callees {
			label := callee.Module + "::" + callee.Name
			if callee.External {
				label = callee.Name + "  (external)"
			}
			sb.WriteString(fmt.Sprintf("  %s%s\n", label, location(callee)))
			total++
		}
		sb.WriteString("\n")
	}

	if total == 0 {
		return textResult(fmt.Sprintf("No callees found for '%s'", input.Symbol)), nil, nil
	}

	sb.WriteString("───────────────────────────────────\n")
	sb.WriteString(fmt.Sprintf("Callees: %d\n", total))
	return textResult(sb.String()), nil, nil
}

func handleExportDOT(ctx context.Context, req *mcp.CallToolRequest, input ExportDOTInput) (*mcp.CallToolResult, any, error) {
	absRoot, err := validatePath(input.Path)
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}

	g, err := loadGraph(absRoot)
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}

	specs := splitSpecs(input.EntryPoints)
	if len(specs) == 0 {
		return textResult(g.ToDOT()), nil, nil
	}

	entries, err := g.ResolveEntryPoints(specs)
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}

	strategy, err := graph.ParseStrategy(input.Strategy)
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}

	result := g.TraverseAll(entries, strategy)
	return textResult(g.ReachableDOT(result)), nil, nil
}

func handleStatus(ctx context.Context, req *mcp.CallToolRequest, input EmptyInput) (*mcp.CallToolResult, any, error) {
	cwd, _ := os.Getwd()

	return textResult(fmt.Sprintf(`trackast MCP server v%s
Status: connected
Working directory: %s
Supported languages: %s

Available tools:
  analyze_file        - Function inventory for one source file
  build_graph         - Build and persist the call-graph index
  trace_entry_points  - Reachable set from entry points (requires index)
  find_unused         - Functions no entry point reaches (requires index)
  function_callers    - Direct callers of a symbol (requires index)
  function_callees    - Direct callees of a symbol (requires index)
  export_dot          - Graphviz DOT export (requires index)
  status              - This message`,
		serverVersion, cwd, strings.Join(scanner.SupportedLanguages(), ", "))), nil, nil
}

// location renders "  (file:line)" for nodes with source info.
func location(n *graph.Node) string {
	if n.File == "" {
		return ""
	}
	if n.Line > 0 {
		return fmt.Sprintf("  (%s:%d)", n.File, n.Line)
	}
	return fmt.Sprintf("  (%s)", n.File)
}
