package analyze

import (
	"fmt"
	"strings"

	"github.com/georgehulme/trackast/ast"
	"github.com/georgehulme/trackast/graph"
)

// maxSourceTokens bounds how much function source goes into a prompt.
const maxSourceTokens = 1500

// ExplainFunctionPrompt builds the messages for explaining a function in
// the context of its direct callers and callees.
func ExplainFunctionPrompt(source *FunctionSource, callers, callees []*graph.Node) []Message {
	systemPrompt := `You are a code documentation expert. Explain this function's role in the codebase.
Focus on:
1. What it does (purpose and key logic)
2. Why callers might use it
3. What it depends on (callees)

Be concise but informative. Use technical terms appropriately.`

	subject := fmt.Sprintf("the function `%s`", source.Node.Name)
	if source.Node.Name == ast.ModuleScope {
		subject = "the module-level statements"
	}

	body, _ := TruncateToTokenLimit(source.Source, maxSourceTokens)

	var userContent strings.Builder
	userContent.WriteString(fmt.Sprintf("Explain %s in module `%s`:\n\n", subject, source.Node.Module))
	userContent.WriteString("```" + source.Language + "\n")
	userContent.WriteString(body)
	userContent.WriteString("\n```\n")

	if len(callers) > 0 {
		userContent.WriteString(fmt.Sprintf("\nCalled by: %s\n", strings.Join(neighborNames(callers), ", ")))
	}
	if len(callees) > 0 {
		userContent.WriteString(fmt.Sprintf("\nCalls: %s\n", strings.Join(neighborNames(callees), ", ")))
	}

	return []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userContent.String()},
	}
}

// neighborNames renders graph neighbors for a prompt. Internal functions
// keep their module qualifier; external targets are just names.
func neighborNames(nodes []*graph.Node) []string {
	names := make([]string, len(nodes))
	for i, n := range nodes {
		if n.External {
			names[i] = n.Name
		} else {
			names[i] = n.Module + "::" + n.Name
		}
	}
	return names
}
