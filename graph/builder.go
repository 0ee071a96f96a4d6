package graph

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/georgehulme/trackast/ast"
)

// ErrDuplicateFunction is returned when two modules define functions
// that collide on the same fully qualified ID.
var ErrDuplicateFunction = errors.New("duplicate function definition")

// Builder assembles a call Graph from translated modules.
type Builder struct {
	graph    *Graph
	rootPath string
	progress func(msg string)

	modules []*ast.Module
	// byModule maps module path -> function name -> definition.
	byModule map[string]map[string]*ast.FunctionDef
	// byName maps bare function name -> every definition with that name.
	byName map[string][]*ast.FunctionDef
	// merged holds the internal nodes carried over from an existing graph,
	// so calls from reindexed modules can still resolve into files that
	// were not re-translated this run.
	merged map[ast.FunctionID]*Node
}

// BuilderOption configures the graph builder.
type BuilderOption func(*Builder)

// WithProgress sets a progress callback.
func WithProgress(fn func(msg string)) BuilderOption {
	return func(b *Builder) {
		b.progress = fn
	}
}

// WithExistingGraph seeds the builder with a previously loaded graph so
// reindexed modules merge into it instead of starting clean. Apply this
// after removing the files about to be re-translated.
func WithExistingGraph(g *Graph) BuilderOption {
	return func(b *Builder) {
		b.graph = g
		b.merged = make(map[ast.FunctionID]*Node)
		for id, n := range g.Nodes {
			if !n.External {
				b.merged[id] = n
			}
		}
	}
}

// NewBuilder creates a new graph builder rooted at rootPath.
func NewBuilder(rootPath string, opts ...BuilderOption) *Builder {
	b := &Builder{
		graph:    New(),
		rootPath: rootPath,
		progress: func(msg string) {}, // Default: no-op
		byModule: make(map[string]map[string]*ast.FunctionDef),
		byName:   make(map[string][]*ast.FunctionDef),
	}

	for _, opt := range opts {
		opt(b)
	}

	b.graph.RootPath = rootPath
	return b
}

// AddModule registers a translated module with the builder. Every function
// the module defines must be new to the builder; a colliding ID reports
// ErrDuplicateFunction.
func (b *Builder) AddModule(m *ast.Module) error {
	if m == nil {
		return nil
	}

	b.progress(fmt.Sprintf("Adding module %s (%d functions)", m.Path, len(m.Functions)))

	if _, ok := b.byModule[m.Path]; !ok {
		b.byModule[m.Path] = make(map[string]*ast.FunctionDef)
	}
	for _, fn := range m.Functions {
		if _, exists := b.byModule[m.Path][fn.Name]; exists {
			return fmt.Errorf("%w: %s", ErrDuplicateFunction, fn.ID())
		}
		b.byModule[m.Path][fn.Name] = fn
		b.byName[fn.Name] = append(b.byName[fn.Name], fn)
	}

	b.modules = append(b.modules, m)
	return nil
}

// Build inserts every known function as a node, resolves each recorded call
// to its target, and returns the finished graph. Calls that resolve to no
// known definition become external nodes so the edge is never dropped.
func (b *Builder) Build() (*Graph, error) {
	// Nodes first so every edge endpoint already exists.
	for _, m := range b.modules {
		for _, fn := range m.Functions {
			if b.graph.Node(fn.ID()) != nil {
				continue // merged from an existing graph
			}
			if err := b.graph.InsertNode(InternalNode(fn)); err != nil {
				return nil, err
			}
		}
	}

	for _, m := range b.modules {
		for _, fn := range m.Functions {
			for _, call := range fn.Calls {
				target := b.resolve(call, m.Path)
				if err := b.graph.InsertEdge(&Edge{
					From: fn.ID(),
					To:   target,
					Line: call.Line,
				}); err != nil {
					return nil, err
				}
			}
		}
	}

	b.graph.LastIndexed = time.Now().Unix()
	b.progress(fmt.Sprintf("Built graph: %d nodes, %d edges from %d modules",
		b.graph.NodeCount(), b.graph.EdgeCount(), len(b.modules)))

	return b.graph, nil
}

// resolve maps a call to the ID of the function it targets. Resolution
// order: the call's explicit module, the qualified name as a scoped method
// in reach of the caller, the caller's own module, a unique definition
// anywhere, and finally a synthesized external node.
func (b *Builder) resolve(call ast.Call, callerModule string) ast.FunctionID {
	name := call.Target
	qualified := name
	if call.TargetModule != "" {
		qualified = call.TargetModule + "::" + name

		// The qualifier names a module ("utils::load_data")...
		if id, ok := b.lookup(call.TargetModule, name); ok {
			return id
		}
		// ...or a type whose methods live under scoped names in the
		// caller's module ("Calculator::new").
		if id, ok := b.lookup(callerModule, qualified); ok {
			return id
		}
		if id, ok := b.uniqueByName(qualified); ok {
			return id
		}
	}

	if id, ok := b.lookup(callerModule, name); ok {
		return id
	}

	if id, ok := b.uniqueByName(name); ok {
		return id
	}

	// Unresolved qualified calls keep their full path so external nodes
	// for HttpServer::new and App::new stay distinct.
	return b.external(qualified)
}

// lookup walks from module toward the root looking for name, mirroring how
// an unqualified call inside a nested module sees enclosing scopes. Both
// definitions added this run and nodes merged from an existing graph count.
func (b *Builder) lookup(module, name string) (ast.FunctionID, bool) {
	for {
		if fns, ok := b.byModule[module]; ok {
			if def, ok := fns[name]; ok {
				return def.ID(), true
			}
		}
		for id, n := range b.merged {
			if n.Module == module && n.Name == name {
				return id, true
			}
		}
		idx := lastScopeSep(module)
		if idx < 0 {
			return "", false
		}
		module = module[:idx]
	}
}

// uniqueByName resolves a bare name defined exactly once across this run's
// modules and the merged nodes. A re-translated definition and its merged
// copy share an ID, so they count once.
func (b *Builder) uniqueByName(name string) (ast.FunctionID, bool) {
	ids := make(map[ast.FunctionID]bool)
	for _, def := range b.byName[name] {
		ids[def.ID()] = true
	}
	for id, n := range b.merged {
		if n.Name == name {
			ids[id] = true
		}
	}
	if len(ids) != 1 {
		return "", false
	}
	for id := range ids {
		return id, true
	}
	return "", false
}

// external returns the ID of the external node for name, inserting the node
// on first use.
func (b *Builder) external(name string) ast.FunctionID {
	id := ast.ExternalID(name)
	if b.graph.Node(id) == nil {
		// InsertNode cannot fail here: the ID was just checked.
		_ = b.graph.InsertNode(ExternalNode(name))
	}
	return id
}

// lastScopeSep returns the index of the last "::" in module, or -1.
func lastScopeSep(module string) int {
	for i := len(module) - 2; i >= 0; i-- {
		if module[i] == ':' && module[i+1] == ':' {
			return i
		}
	}
	return -1
}

// Modules returns the module paths the builder has seen, sorted.
func (b *Builder) Modules() []string {
	paths := make([]string, 0, len(b.modules))
	for _, m := range b.modules {
		paths = append(paths, m.Path)
	}
	sort.Strings(paths)
	return paths
}
