// Command trackast builds and queries call graphs for Python, Rust,
// JavaScript, and TypeScript projects using tree-sitter.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/georgehulme/trackast/analyze"
	"github.com/georgehulme/trackast/ast"
	"github.com/georgehulme/trackast/cache"
	"github.com/georgehulme/trackast/config"
	"github.com/georgehulme/trackast/graph"
	"github.com/georgehulme/trackast/mcp"
	"github.com/georgehulme/trackast/render"
	"github.com/georgehulme/trackast/scanner"
)

const separator = "─────────────────────────────────────────────────────────────"

func main() {
	inputFile := flag.String("input", "", "Analyze a single source file")
	entryFile := flag.String("entry", "", "Entry file to follow imports from")
	moduleName := flag.String("module", "", "Module name for the entry or input file")
	language := flag.String("language", "", "Language override for --input (python, rust, javascript, typescript)")
	entryPoints := flag.String("entry-points", "", "Comma-separated entry points (module::function)")
	strategy := flag.String("strategy", "dfs", "Traversal strategy: dfs or bfs")
	format := flag.String("format", "", "Output format: json or dot")
	output := flag.String("output", "", "Write output to a file instead of stdout")
	discover := flag.Bool("discover", false, "Analyze every source file under the root")
	indexMode := flag.Bool("index", false, "Build or update the persistent call-graph index")
	force := flag.Bool("force", false, "Rebuild the index from scratch")
	queryMode := flag.Bool("query", false, "Query the persistent index")
	fromSym := flag.String("from", "", "List callees of this symbol (with --query)")
	toSym := flag.String("to", "", "List callers of this symbol (with --query)")
	unusedMode := flag.Bool("unused", false, "Report functions unreachable from --entry-points")
	cyclesMode := flag.Bool("cycles", false, "Report call cycles in the index")
	explainMode := flag.Bool("explain", false, "Explain a function using an LLM")
	symbol := flag.String("symbol", "", "Function to explain (with --explain)")
	model := flag.String("model", "", "Override the configured LLM model")
	noCache := flag.Bool("no-cache", false, "Skip the explanation cache")
	mcpMode := flag.Bool("mcp", false, "Run as an MCP server over stdio")
	initConfig := flag.Bool("init-config", false, "Write a default config file and exit")
	jsonOut := flag.Bool("json", false, "Output JSON instead of text")
	helpFlag := flag.Bool("help", false, "Show help message")

	flag.Parse()

	if *helpFlag {
		printHelp()
		return
	}

	if *initConfig {
		runInitConfig()
		return
	}

	var cfg *config.Config
	var err error
	if path := os.Getenv("TRACKAST_CONFIG"); path != "" {
		cfg, err = config.LoadFromPath(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		if !*jsonOut {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
		}
		cfg = config.DefaultConfig()
	}
	// The scanner reads the grammar directory from the environment, so
	// a config-file setting has to be promoted before any loader runs.
	if cfg.GrammarDir != "" && os.Getenv("TRACKAST_GRAMMAR_DIR") == "" {
		os.Setenv("TRACKAST_GRAMMAR_DIR", cfg.GrammarDir)
	}

	if *mcpMode {
		if err := mcp.Serve(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "MCP server error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// A positional file argument selects single-file analysis, a
	// directory selects the project root.
	input := *inputFile
	root := ""
	if arg := flag.Arg(0); arg != "" {
		if info, err := os.Stat(arg); err == nil && !info.IsDir() && input == "" {
			input = arg
		} else {
			root = arg
		}
	}
	if root == "" {
		if input != "" {
			root = filepath.Dir(input)
		} else {
			root = "."
		}
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving path %s: %v\n", root, err)
		os.Exit(1)
	}

	if *indexMode {
		runIndexMode(absRoot, *force, *jsonOut)
		return
	}

	if *queryMode {
		runQueryMode(absRoot, *fromSym, *toSym, *jsonOut)
		return
	}

	if *unusedMode {
		runUnusedMode(absRoot, *entryPoints, *strategy, *jsonOut)
		return
	}

	if *cyclesMode {
		runCyclesMode(absRoot, *jsonOut)
		return
	}

	if *explainMode {
		runExplainMode(absRoot, *symbol, *model, *noCache, *jsonOut, cfg)
		return
	}

	runAnalyzeMode(absRoot, input, *entryFile, *moduleName, *language,
		*entryPoints, *strategy, *format, *output, *discover, *jsonOut)
}

func printHelp() {
	fmt.Println("trackast - Call-graph analysis for Python, Rust, JavaScript, and TypeScript")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  trackast [path]                            Analyze a project (follows imports from the entry file)")
	fmt.Println("  trackast --discover [path]                 Analyze every source file under path")
	fmt.Println("  trackast --input <file>                    Analyze a single file in isolation")
	fmt.Println("  trackast --index [path]                    Build or incrementally update the persistent index")
	fmt.Println("  trackast --query [--from X] [--to Y]       Query the index (no symbols: show stats)")
	fmt.Println("  trackast --unused --entry-points <specs>   Report functions unreachable from the entry points")
	fmt.Println("  trackast --cycles [path]                   Report call cycles")
	fmt.Println("  trackast --explain --symbol <name>         Explain a function using an LLM")
	fmt.Println("  trackast --mcp                             Run as an MCP server over stdio")
	fmt.Println("  trackast --init-config                     Write a default config file")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --entry <file>           Entry file to follow imports from (default: main.py, src/main.rs, index.js, ...)")
	fmt.Println("  --module <name>          Module name for the entry or input file")
	fmt.Println("  --language <lang>        Language override for --input")
	fmt.Println("  --entry-points <specs>   Comma-separated module::function specs to trace from")
	fmt.Println("  --strategy <dfs|bfs>     Traversal strategy (default: dfs)")
	fmt.Println("  --format <json|dot>      Analysis output format (default: text)")
	fmt.Println("  --output <file>          Write analysis output to a file")
	fmt.Println("  --force                  With --index: rebuild instead of updating")
	fmt.Println("  --from / --to <symbol>   With --query: callees of / callers of / path between")
	fmt.Println("  --model <name>           With --explain: override the configured model")
	fmt.Println("  --no-cache               With --explain: skip the response cache")
	fmt.Println("  --json                   JSON output for index, query, unused, cycles, explain")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  trackast --discover ~/myproject")
	fmt.Println("  trackast --entry-points 'app::main' --format dot --output graph.dot ~/myproject")
	fmt.Println("  trackast --index ~/myproject && trackast --query --from 'app::main' ~/myproject")
	fmt.Println("  trackast --unused --entry-points 'app::main,cli::run' ~/myproject")
	fmt.Println("  trackast --explain --symbol process_data ~/myproject")
	fmt.Println()
	fmt.Println("Set TRACKAST_GRAMMAR_DIR to the directory containing the tree-sitter")
	fmt.Println("grammar libraries (libtree-sitter-python.so and friends).")
}

// progressPrinter returns a stderr status writer. Machine-readable runs
// and non-terminal stderr streams stay quiet.
func progressPrinter(quiet bool) func(string) {
	if quiet || !term.IsTerminal(int(os.Stderr.Fd())) {
		return func(string) {}
	}
	return func(msg string) {
		fmt.Fprintln(os.Stderr, msg)
	}
}

// requireGrammars exits with setup instructions when no tree-sitter
// grammars are available.
func requireGrammars() *scanner.GrammarLoader {
	loader := scanner.NewGrammarLoader()
	if !loader.HasGrammars() {
		fmt.Fprintln(os.Stderr, "Error: no tree-sitter grammars found.")
		fmt.Fprintln(os.Stderr, "Set TRACKAST_GRAMMAR_DIR to the directory containing the grammar libraries.")
		os.Exit(1)
	}
	return loader
}

func loadIndexOrExit(root string) *graph.Graph {
	if !graph.Exists(root) {
		fmt.Fprintln(os.Stderr, "No index found. Run 'trackast --index' first.")
		os.Exit(1)
	}
	g, err := graph.LoadBinary(root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading index: %v\n", err)
		os.Exit(1)
	}
	return g
}

func splitSpecs(s string) []string {
	var specs []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			specs = append(specs, p)
		}
	}
	return specs
}

func nodeLabel(n *graph.Node) string {
	if n.External {
		return n.Name + "  (external)"
	}
	return fmt.Sprintf("%s::%s", n.Module, n.Name)
}

func nodeLocation(n *graph.Node) string {
	if n.File == "" {
		return ""
	}
	if n.Line > 0 {
		return fmt.Sprintf("  (%s:%d)", n.File, n.Line)
	}
	return fmt.Sprintf("  (%s)", n.File)
}

// lineSuffix formats call-site line numbers as "  [L4,L9]".
func lineSuffix(lines []int) string {
	if len(lines) == 0 {
		return ""
	}
	parts := make([]string, len(lines))
	for i, l := range lines {
		parts[i] = "L" + strconv.Itoa(l)
	}
	return "  [" + strings.Join(parts, ",") + "]"
}

func formatTokens(n int) string {
	if n >= 1000000 {
		return fmt.Sprintf("%.1fM", float64(n)/1000000)
	}
	if n >= 1000 {
		return fmt.Sprintf("%.1fk", float64(n)/1000)
	}
	return strconv.Itoa(n)
}

// ---------------------------------------------------------------------------
// Analyze mode (default)

// defaultEntries are the entry files tried, in order, when neither
// --entry nor --discover is given.
var defaultEntries = []string{
	"main.py", "app.py", "src/main.py",
	"src/main.rs", "main.rs",
	"index.js", "src/index.js", "main.js",
	"index.ts", "src/index.ts", "main.ts",
}

func findDefaultEntry(root string) string {
	for _, name := range defaultEntries {
		if info, err := os.Stat(filepath.Join(root, name)); err == nil && !info.IsDir() {
			return name
		}
	}
	return ""
}

func runAnalyzeMode(root, input, entry, moduleName, language, entrySpecs, strategy, format, output string, discover, jsonOut bool) {
	if format != "" && format != "json" && format != "dot" {
		fmt.Fprintf(os.Stderr, "Error: unknown format %q (want json or dot)\n", format)
		os.Exit(1)
	}
	if jsonOut && format == "" {
		format = "json"
	}
	progress := progressPrinter(format == "json")

	loader := requireGrammars()
	translator := scanner.NewTranslator(loader)

	lang := language
	var modules []*ast.Module
	var err error

	if input != "" {
		var m *ast.Module
		m, lang = translateInput(translator, input, language, moduleName)
		modules = []*ast.Module{m}
	} else {
		opts := []scanner.LoaderOption{scanner.WithProgress(progress)}
		if moduleName != "" {
			opts = append(opts, scanner.WithEntryModule(moduleName))
		}
		ml := scanner.NewModuleLoader(root, translator, opts...)

		switch {
		case discover:
			modules, err = ml.LoadTree()
		case entry != "":
			modules, err = ml.LoadEntry(entry)
		default:
			if found := findDefaultEntry(root); found != "" {
				progress(fmt.Sprintf("Entry: %s", found))
				modules, err = ml.LoadEntry(found)
			} else {
				modules, err = ml.LoadTree()
			}
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error scanning %s: %v\n", root, err)
			os.Exit(1)
		}
	}

	if len(modules) == 0 {
		fmt.Fprintf(os.Stderr, "No supported source files found under %s\n", root)
		os.Exit(1)
	}

	b := graph.NewBuilder(root)
	for _, m := range modules {
		if err := b.AddModule(m); err != nil {
			fmt.Fprintf(os.Stderr, "Error adding module %s: %v\n", m.Path, err)
			os.Exit(1)
		}
	}
	g, err := b.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building graph: %v\n", err)
		os.Exit(1)
	}

	var entries []ast.FunctionID
	var result *graph.TraversalResult
	if specs := splitSpecs(entrySpecs); len(specs) > 0 {
		entries, err = g.ResolveEntryPoints(specs)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		strat, err := graph.ParseStrategy(strategy)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		result = g.TraverseAll(entries, strat)
	}

	out := renderAnalysis(g, result, entries, lang, format)
	if output != "" {
		var werr error
		if format == "dot" {
			werr = graph.WriteDOTFile(output, out)
		} else {
			werr = os.WriteFile(output, []byte(out), 0644)
		}
		if werr != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", output, werr)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s (%d bytes)\n", output, len(out))
		return
	}
	fmt.Print(out)
}

// translateInput parses a single file without following its imports.
func translateInput(translator *scanner.Translator, input, language, moduleName string) (*ast.Module, string) {
	absIn, err := filepath.Abs(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving %s: %v\n", input, err)
		os.Exit(1)
	}

	lang := language
	if lang == "" {
		lang = scanner.DetectLanguage(absIn)
		if lang == "" {
			fmt.Fprintf(os.Stderr, "Error: cannot detect language for %s (supported: %s)\n",
				input, strings.Join(scanner.SupportedLanguages(), ", "))
			os.Exit(1)
		}
	}

	content, err := os.ReadFile(absIn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", input, err)
		os.Exit(1)
	}

	modName := moduleName
	if modName == "" {
		modName = strings.TrimSuffix(filepath.Base(absIn), filepath.Ext(absIn))
	}

	m, err := translator.TranslateSource(content, lang, modName, filepath.Base(absIn))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing %s: %v\n", input, err)
		os.Exit(1)
	}
	return m, lang
}

func renderAnalysis(g *graph.Graph, result *graph.TraversalResult, entries []ast.FunctionID, lang, format string) string {
	switch format {
	case "dot":
		if result != nil {
			return g.ReachableDOT(result)
		}
		return g.ToDOT()

	case "json":
		stats := g.GetStats()
		var payload interface{}
		if result == nil {
			payload = map[string]interface{}{
				"language": lang,
				"nodes":    stats.TotalNodes,
				"edges":    stats.TotalEdges,
				"message":  "no entry points given; pass --entry-points to trace reachability",
			}
		} else {
			entryIDs := make([]string, 0, len(entries))
			for _, id := range entries {
				entryIDs = append(entryIDs, string(id))
			}
			reachable := make([]string, 0, result.Len())
			for _, id := range result.SortedIDs() {
				reachable = append(reachable, string(id))
			}
			payload = map[string]interface{}{
				"language":            lang,
				"total_nodes":         stats.TotalNodes,
				"total_edges":         stats.TotalEdges,
				"entry_points":        entryIDs,
				"reachable_functions": result.InternalCount(g),
				"reachable_ids":       reachable,
			}
		}
		data, err := json.Marshal(payload)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
			os.Exit(1)
		}
		return string(data) + "\n"

	default:
		var sb strings.Builder
		sb.WriteString(render.Summary(g))
		if result != nil {
			sb.WriteString(render.Reachability(g, result, entries))
		}
		return sb.String()
	}
}

// ---------------------------------------------------------------------------
// Index mode

func runIndexMode(root string, force, jsonOut bool) {
	progress := progressPrinter(jsonOut)
	start := time.Now()

	if !force && graph.Exists(root) {
		if existing, err := graph.LoadBinary(root); err == nil {
			updateIndex(root, existing, start, jsonOut, progress)
			return
		}
		progress("Existing index unreadable, rebuilding")
	}

	loader := requireGrammars()
	ml := scanner.NewModuleLoader(root, scanner.NewTranslator(loader), scanner.WithProgress(progress))
	modules, err := ml.LoadTree()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error scanning %s: %v\n", root, err)
		os.Exit(1)
	}
	if len(modules) == 0 {
		fmt.Fprintf(os.Stderr, "No supported source files found under %s\n", root)
		os.Exit(1)
	}

	b := graph.NewBuilder(root)
	for _, m := range modules {
		if err := b.AddModule(m); err != nil {
			fmt.Fprintf(os.Stderr, "Error adding module %s: %v\n", m.Path, err)
			os.Exit(1)
		}
	}
	g, err := b.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building graph: %v\n", err)
		os.Exit(1)
	}
	if err := g.SaveBinary(root); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving index: %v\n", err)
		os.Exit(1)
	}

	if jsonOut {
		stats := g.GetStats()
		json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
			"status":     "built",
			"path":       graph.GraphPath(root),
			"files":      stats.Files,
			"nodes":      stats.TotalNodes,
			"edges":      stats.TotalEdges,
			"elapsed_ms": time.Since(start).Milliseconds(),
		})
		return
	}

	fmt.Printf("Index built in %v\n", time.Since(start).Round(time.Millisecond))
	printIndexReport(root, g)
}

// updateIndex re-translates only the files that changed since the last
// index run, plus the files that call into them, and merges the result
// with the untouched remainder of the existing graph.
func updateIndex(root string, existing *graph.Graph, start time.Time, jsonOut bool, progress func(string)) {
	modified := existing.ModifiedFiles(root)
	deleted := existing.DeletedFiles(root)
	added := findAddedFiles(root, existing)

	if len(modified) == 0 && len(deleted) == 0 && len(added) == 0 {
		if jsonOut {
			stats := existing.GetStats()
			json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
				"status":     "up-to-date",
				"path":       graph.GraphPath(root),
				"nodes":      stats.TotalNodes,
				"edges":      stats.TotalEdges,
				"indexed_at": time.Unix(existing.LastIndexed, 0).Format(time.RFC3339),
			})
			return
		}
		fmt.Printf("Index up to date (%d functions, indexed %s)\n",
			existing.GetStats().InternalNodes,
			time.Unix(existing.LastIndexed, 0).Format("2006-01-02 15:04:05"))
		return
	}

	loader := requireGrammars()

	// Callers of a changed file hold edges into its old definitions, so
	// they are re-translated too. Dependents are collected before any
	// removal while the edges still exist.
	reprocess := make(map[string]bool)
	for _, path := range modified {
		reprocess[path] = true
	}
	for _, path := range added {
		reprocess[path] = true
	}
	for _, path := range modified {
		for _, dep := range existing.Dependents(path) {
			reprocess[dep] = true
		}
	}
	for _, path := range deleted {
		for _, dep := range existing.Dependents(path) {
			reprocess[dep] = true
		}
	}
	for _, path := range deleted {
		delete(reprocess, path)
		existing.RemoveFile(path)
		progress(fmt.Sprintf("Removed %s", path))
	}

	paths := make([]string, 0, len(reprocess))
	for path := range reprocess {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		existing.RemoveFile(path)
	}

	b := graph.NewBuilder(root, graph.WithExistingGraph(existing))
	ml := scanner.NewModuleLoader(root, scanner.NewTranslator(loader), scanner.WithProgress(progress))
	for _, rel := range paths {
		m, err := ml.LoadFile(filepath.Join(root, rel))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reloading %s: %v\n", rel, err)
			os.Exit(1)
		}
		if err := b.AddModule(m); err != nil {
			fmt.Fprintf(os.Stderr, "Error adding module %s: %v\n", m.Path, err)
			os.Exit(1)
		}
	}

	g, err := b.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building graph: %v\n", err)
		os.Exit(1)
	}
	if err := g.SaveBinary(root); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving index: %v\n", err)
		os.Exit(1)
	}

	if jsonOut {
		stats := g.GetStats()
		json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
			"status":        "updated",
			"path":          graph.GraphPath(root),
			"files_updated": len(paths),
			"files_removed": len(deleted),
			"nodes":         stats.TotalNodes,
			"edges":         stats.TotalEdges,
			"elapsed_ms":    time.Since(start).Milliseconds(),
		})
		return
	}

	fmt.Printf("Index updated in %v (%d files re-translated, %d removed)\n",
		time.Since(start).Round(time.Millisecond), len(paths), len(deleted))
	printIndexReport(root, g)
}

func findAddedFiles(root string, g *graph.Graph) []string {
	gitignore := scanner.LoadGitignore(root)
	var added []string
	scanner.WalkFiles(root, scanner.WalkOptions{Gitignore: gitignore, LanguageFilter: true},
		func(absPath, relPath string, info os.FileInfo) error {
			if !g.HasFile(relPath) {
				added = append(added, relPath)
			}
			return nil
		})
	sort.Strings(added)
	return added
}

func printIndexReport(root string, g *graph.Graph) {
	fmt.Print(render.Summary(g))
	if files, err := scanner.ScanFiles(root, scanner.LoadGitignore(root)); err == nil && len(files) > 0 {
		tokens := 0
		for _, f := range files {
			tokens += f.Tokens
		}
		fmt.Printf("Scanned:   %d files · ~%s tokens\n", len(files), formatTokens(tokens))
	}
	if deps := scanner.ReadExternalDeps(root); len(deps) > 0 {
		ecosystems := make([]string, 0, len(deps))
		for eco := range deps {
			ecosystems = append(ecosystems, eco)
		}
		sort.Strings(ecosystems)
		parts := make([]string, 0, len(ecosystems))
		for _, eco := range ecosystems {
			parts = append(parts, fmt.Sprintf("%s %d", eco, len(deps[eco])))
		}
		fmt.Printf("Deps:      %s\n", strings.Join(parts, " · "))
	}
	fmt.Printf("Saved:     %s\n", graph.GraphPath(root))
}

// ---------------------------------------------------------------------------
// Query mode

func runQueryMode(root, from, to string, jsonOut bool) {
	g := loadIndexOrExit(root)

	if from == "" && to == "" {
		if jsonOut {
			json.NewEncoder(os.Stdout).Encode(g.GetStats())
			return
		}
		fmt.Print(render.Summary(g))
		if externals := g.ExternalNodes(); len(externals) > 0 {
			names := make([]string, 0, 8)
			for _, n := range externals {
				names = append(names, n.Name)
				if len(names) == 8 {
					break
				}
			}
			fmt.Printf("Externals: %s\n", strings.Join(names, ", "))
		}
		fmt.Printf("Saved:     %s\n", graph.GraphPath(root))
		if g.IsStale(root) {
			fmt.Println("\nNote: source files changed since indexing. Run 'trackast --index' to refresh.")
		}
		return
	}

	if from != "" && to != "" {
		runPathQuery(g, from, to, jsonOut)
		return
	}

	if from != "" {
		node := resolveQuerySymbol(g, from)
		callees := g.DirectCallees(node.ID)
		if jsonOut {
			list := make([]map[string]interface{}, 0, len(callees))
			for _, c := range callees {
				list = append(list, map[string]interface{}{
					"id":         string(c.ID),
					"file":       c.File,
					"line":       c.Line,
					"external":   c.External,
					"call_lines": g.CallSites(node.ID, c.ID),
				})
			}
			json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
				"symbol":  string(node.ID),
				"callees": list,
			})
			return
		}
		fmt.Printf("\n=== Callees of '%s' ===\n\n", from)
		fmt.Printf("Source: %s%s\n\n", nodeLabel(node), nodeLocation(node))
		for _, c := range callees {
			fmt.Printf("  %s%s%s\n", nodeLabel(c), nodeLocation(c), lineSuffix(g.CallSites(node.ID, c.ID)))
		}
		fmt.Printf("\n%s\n", separator)
		fmt.Printf("Callees: %d\n", len(callees))
		return
	}

	node := resolveQuerySymbol(g, to)
	callers := g.DirectCallers(node.ID)
	if jsonOut {
		list := make([]map[string]interface{}, 0, len(callers))
		for _, c := range callers {
			list = append(list, map[string]interface{}{
				"id":         string(c.ID),
				"file":       c.File,
				"line":       c.Line,
				"call_lines": g.CallSites(c.ID, node.ID),
			})
		}
		json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
			"symbol":  string(node.ID),
			"callers": list,
		})
		return
	}
	fmt.Printf("\n=== Callers of '%s' ===\n\n", to)
	fmt.Printf("Target: %s%s\n\n", nodeLabel(node), nodeLocation(node))
	for _, c := range callers {
		fmt.Printf("  %s%s%s\n", nodeLabel(c), nodeLocation(c), lineSuffix(g.CallSites(c.ID, node.ID)))
	}
	fmt.Printf("\n%s\n", separator)
	fmt.Printf("Callers: %d\n", len(callers))
}

// resolveQuerySymbol picks the node a query symbol refers to, preferring
// internal definitions over external placeholders.
func resolveQuerySymbol(g *graph.Graph, symbol string) *graph.Node {
	matches := g.FindSymbol(symbol)
	if len(matches) == 0 {
		fmt.Fprintf(os.Stderr, "No function found matching '%s'\n", symbol)
		os.Exit(1)
	}
	node := matches[0]
	for _, n := range matches {
		if !n.External {
			node = n
			break
		}
	}
	if len(matches) > 1 {
		fmt.Fprintf(os.Stderr, "Found %d matches for '%s', using %s\n", len(matches), symbol, node.ID)
	}
	return node
}

func runPathQuery(g *graph.Graph, from, to string, jsonOut bool) {
	fromNode := resolveQuerySymbol(g, from)
	toNode := resolveQuerySymbol(g, to)

	path := g.FindPath(fromNode.ID, toNode.ID)

	if jsonOut {
		ids := make([]string, 0, len(path))
		for _, id := range path {
			ids = append(ids, string(id))
		}
		json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
			"from":   string(fromNode.ID),
			"to":     string(toNode.ID),
			"found":  len(path) > 0,
			"length": len(path),
			"path":   ids,
		})
		return
	}

	if len(path) == 0 {
		fmt.Printf("No path from '%s' to '%s'\n", from, to)
		return
	}

	fmt.Printf("\n=== Path from '%s' to '%s' ===\n\n", from, to)
	for i, id := range path {
		n := g.Nodes[id]
		if n == nil {
			continue
		}
		suffix := ""
		if i > 0 {
			suffix = lineSuffix(g.CallSites(path[i-1], id))
		}
		fmt.Printf("  %d. %s%s%s\n", i+1, nodeLabel(n), nodeLocation(n), suffix)
	}
	fmt.Printf("\n%s\n", separator)
	fmt.Printf("Hops: %d\n", len(path)-1)
}

// ---------------------------------------------------------------------------
// Unused and cycles modes

func runUnusedMode(root, entrySpecs, strategy string, jsonOut bool) {
	specs := splitSpecs(entrySpecs)
	if len(specs) == 0 {
		fmt.Fprintln(os.Stderr, "Error: --unused requires --entry-points (comma-separated module::function specs)")
		os.Exit(1)
	}

	g := loadIndexOrExit(root)
	entries, err := g.ResolveEntryPoints(specs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	strat, err := graph.ParseStrategy(strategy)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	unused := g.Unreachable(entries, strat)

	if jsonOut {
		list := make([]map[string]interface{}, 0, len(unused))
		for _, n := range unused {
			list = append(list, map[string]interface{}{
				"id":   string(n.ID),
				"file": n.File,
				"line": n.Line,
			})
		}
		json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
			"entry_points":    specs,
			"unused":          list,
			"unused_count":    len(list),
			"total_functions": g.GetStats().InternalNodes,
		})
		return
	}
	fmt.Print(render.Unused(g, unused))
}

func runCyclesMode(root string, jsonOut bool) {
	g := loadIndexOrExit(root)
	cycles := g.FindCycles()

	if jsonOut {
		list := make([][]string, 0, len(cycles))
		for _, c := range cycles {
			ids := make([]string, 0, len(c.Nodes))
			for _, id := range c.Nodes {
				ids = append(ids, string(id))
			}
			list = append(list, ids)
		}
		json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
			"cycles": list,
			"count":  len(list),
		})
		return
	}
	fmt.Print(render.Cycles(cycles))
}

// ---------------------------------------------------------------------------
// Explain mode

func runExplainMode(root, symbol, modelOverride string, noCache, jsonOut bool, cfg *config.Config) {
	if symbol == "" {
		fmt.Fprintln(os.Stderr, "Error: --symbol is required with --explain")
		fmt.Fprintln(os.Stderr, "Usage: trackast --explain --symbol <name> [path]")
		os.Exit(1)
	}
	progress := progressPrinter(jsonOut)

	g := loadIndexOrExit(root)

	model := cfg.LLM.Model
	if modelOverride != "" {
		model = modelOverride
	}

	client, err := analyze.NewClient(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating LLM client: %v\n", err)
		fmt.Fprintln(os.Stderr, "Check your configuration, or run 'trackast --init-config'.")
		os.Exit(1)
	}

	pingCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx); err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to LLM provider (%s): %v\n", client.Name(), err)
		os.Exit(1)
	}

	if modelOverride != "" {
		if models, err := client.Models(pingCtx); err == nil && len(models) > 0 {
			known := false
			for _, m := range models {
				if m == modelOverride {
					known = true
					break
				}
			}
			if !known {
				fmt.Fprintf(os.Stderr, "Warning: %s does not list model %s (available: %s)\n",
					client.Name(), modelOverride, strings.Join(models, ", "))
			}
		}
	}

	opts := cache.DefaultOptions()
	opts.Dir = filepath.Join(root, graph.DefaultGraphDir, "cache")
	if cfg.Cache.Dir != "" {
		opts.Dir = cfg.Cache.Dir
	}
	opts.TTL = time.Duration(cfg.Cache.TTLDays) * 24 * time.Hour
	opts.Enabled = cfg.Cache.Enabled
	store, err := cache.New(opts)
	if err != nil {
		progress(fmt.Sprintf("Cache unavailable: %v", err))
		store = nil
	}

	progress(fmt.Sprintf("Explaining '%s' with %s...", symbol, model))

	explainer := analyze.NewExplainer(client, store, g, root)
	reqCtx, reqCancel := context.WithTimeout(context.Background(), time.Duration(cfg.LLM.Timeout)*time.Second)
	defer reqCancel()

	reqStart := time.Now()
	expl, err := explainer.ExplainSymbol(reqCtx, symbol, analyze.ExplainOptions{Model: model, NoCache: noCache})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if jsonOut {
		json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
			"symbol":      string(expl.Node.ID),
			"file":        expl.Node.File,
			"line":        expl.Node.Line,
			"model":       expl.Model,
			"cached":      expl.Cached,
			"matches":     len(expl.Matches),
			"tokens":      expl.Usage.TotalTokens,
			"explanation": expl.Content,
		})
		return
	}

	if len(expl.Matches) > 1 {
		fmt.Fprintf(os.Stderr, "Found %d matches for '%s', explaining %s\n", len(expl.Matches), symbol, expl.Node.ID)
	}

	meta := expl.Model
	if expl.Cached {
		meta += " · cached"
	} else if expl.Usage.TotalTokens > 0 {
		meta += fmt.Sprintf(" · %d tokens · %v", expl.Usage.TotalTokens, time.Since(reqStart).Round(time.Millisecond))
	}

	fmt.Printf("\n=== %s::%s ===\n", expl.Node.Module, expl.Node.Name)
	if expl.Node.File != "" {
		fmt.Printf("%s:%d · %s\n", expl.Node.File, expl.Node.Line, meta)
	} else {
		fmt.Println(meta)
	}
	if len(expl.Callers) > 0 || len(expl.Callees) > 0 {
		fmt.Printf("Context:   %d callers · %d callees\n", len(expl.Callers), len(expl.Callees))
	}
	fmt.Println()
	fmt.Println(strings.TrimSpace(expl.Content))
}

// ---------------------------------------------------------------------------
// Config scaffolding

func runInitConfig() {
	path, err := config.DefaultPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if _, err := os.Stat(path); err == nil {
		fmt.Printf("Config already exists at %s\n", path)
		return
	}
	if err := config.WriteDefault(path); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing config: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote default config to %s\n", path)
}
