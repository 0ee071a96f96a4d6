package graph

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/georgehulme/trackast/ast"
)

// ErrUnknownEntryPoint is returned when an entry point spec matches no node.
var ErrUnknownEntryPoint = errors.New("unknown entry point")

// ResolveEntryPoints maps user-supplied entry point specs to node IDs.
// A spec in full "module::name::signature" form must match a node exactly.
// A two-part "module::name" spec matches every node with that module and
// name. Any spec that matches nothing fails the whole resolution, with the
// error naming the IDs that are available.
func (g *Graph) ResolveEntryPoints(specs []string) ([]ast.FunctionID, error) {
	var ids []ast.FunctionID
	seen := make(map[ast.FunctionID]bool)

	for _, spec := range specs {
		matched := false
		for _, id := range g.NodeIDs() {
			if id.Matches(spec) {
				matched = true
				if !seen[id] {
					seen[id] = true
					ids = append(ids, id)
				}
			}
		}
		if !matched {
			return nil, fmt.Errorf("%w: %s (available: %s)",
				ErrUnknownEntryPoint, spec, strings.Join(g.internalIDs(), ", "))
		}
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// internalIDs lists every internal node ID, sorted, for error messages.
func (g *Graph) internalIDs() []string {
	var out []string
	for id, n := range g.Nodes {
		if !n.External {
			out = append(out, string(id))
		}
	}
	sort.Strings(out)
	return out
}
