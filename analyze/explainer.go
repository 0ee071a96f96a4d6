package analyze

import (
	"context"
	"fmt"

	"github.com/georgehulme/trackast/cache"
	"github.com/georgehulme/trackast/graph"
)

// explainOperation is the cache operation tag for explanations.
const explainOperation = "explain"

// ExplainOptions control a single explanation request.
type ExplainOptions struct {
	// Model overrides the client's configured model.
	Model string

	// NoCache skips the cache lookup, forcing a fresh completion.
	// The response still refreshes the cache.
	NoCache bool
}

// Explanation is the result of explaining one function.
type Explanation struct {
	Node    *graph.Node
	Content string
	Model   string
	Cached  bool
	Usage   TokenUsage

	// Callers and Callees are the graph neighbors given as context.
	Callers []*graph.Node
	Callees []*graph.Node

	// Matches lists every node the symbol resolved to. The first one
	// is the node explained.
	Matches []*graph.Node
}

// Explainer produces LLM explanations of call-graph functions, caching
// responses keyed by the function's source hash.
type Explainer struct {
	client LLMClient
	store  *cache.Cache
	graph  *graph.Graph
	root   string
}

// NewExplainer creates an Explainer over a built graph. The store may be
// nil to disable caching entirely.
func NewExplainer(client LLMClient, store *cache.Cache, g *graph.Graph, root string) *Explainer {
	return &Explainer{client: client, store: store, graph: g, root: root}
}

// ExplainSymbol resolves a symbol ("name" or "module::name") against the
// graph and explains the first internal match.
func (e *Explainer) ExplainSymbol(ctx context.Context, symbol string, opts ExplainOptions) (*Explanation, error) {
	matches := e.resolveSymbol(symbol)
	if len(matches) == 0 {
		return nil, fmt.Errorf("no function named %q in the graph", symbol)
	}

	node := matches[0]
	source, err := ReadFunctionSource(e.root, node)
	if err != nil {
		return nil, err
	}

	callers := e.graph.DirectCallers(node.ID)
	callees := e.graph.DirectCallees(node.ID)

	result := &Explanation{
		Node:    node,
		Callers: callers,
		Callees: callees,
		Matches: matches,
	}

	if e.store != nil && !opts.NoCache {
		if entry, ok := e.store.GetByContentHash(source.ContentHash, explainOperation, opts.Model); ok {
			result.Content = entry.Response
			result.Model = entry.Model
			result.Cached = true
			if entry.Usage != nil {
				result.Usage = TokenUsage{
					PromptTokens:     entry.Usage.PromptTokens,
					CompletionTokens: entry.Usage.CompletionTokens,
					TotalTokens:      entry.Usage.TotalTokens,
				}
			}
			return result, nil
		}
	}

	messages := ExplainFunctionPrompt(source, callers, callees)
	resp, err := e.client.Complete(ctx, &CompletionRequest{
		Messages: messages,
		Model:    opts.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("explaining %s: %w", node.ID, err)
	}

	result.Content = resp.Content
	result.Model = resp.Model
	result.Usage = resp.Usage

	if e.store != nil {
		usage := &cache.TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
		// Keyed on the requested model so overrides do not collide
		// with the configured default.
		_ = e.store.SetResponse(source.ContentHash, explainOperation, opts.Model, resp.Content, usage)
	}

	return result, nil
}

// resolveSymbol finds candidate nodes for a symbol. External nodes are
// skipped since they have no source to explain.
func (e *Explainer) resolveSymbol(symbol string) []*graph.Node {
	var internal []*graph.Node
	for _, n := range e.graph.FindSymbol(symbol) {
		if !n.External {
			internal = append(internal, n)
		}
	}
	return internal
}
