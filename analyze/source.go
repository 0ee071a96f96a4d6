package analyze

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/georgehulme/trackast/ast"
	"github.com/georgehulme/trackast/graph"
	"github.com/georgehulme/trackast/scanner"
)

// FunctionSource is the extracted source code for one call-graph function.
type FunctionSource struct {
	// Node is the graph node this source belongs to
	Node *graph.Node

	// Source is the raw source code
	Source string

	// Language is the programming language
	Language string

	// ContentHash is a SHA256 hash of the source for cache invalidation
	ContentHash string
}

// ReadFunctionSource extracts the source code for a function from its file.
// The root is the analysis root the node's file path is relative to.
// Module-scope nodes read the whole file; external nodes have no source.
func ReadFunctionSource(root string, node *graph.Node) (*FunctionSource, error) {
	if node == nil {
		return nil, fmt.Errorf("node is nil")
	}
	if node.External {
		return nil, fmt.Errorf("%s is external; no source available", node.ID)
	}
	if node.File == "" {
		return nil, fmt.Errorf("%s has no source file recorded", node.ID)
	}

	fullPath := filepath.Join(root, node.File)
	content, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", fullPath, err)
	}

	language := scanner.DetectLanguage(node.File)
	lines := strings.Split(string(content), "\n")

	var source string
	if node.Name == ast.ModuleScope || node.Line <= 0 {
		// Module-level statements are scattered through the file
		source = string(content)
	} else {
		start := node.Line - 1
		if start >= len(lines) {
			return nil, fmt.Errorf("line %d out of range for %s", node.Line, node.File)
		}
		end := functionEnd(lines, start, language)
		source = strings.Join(lines[start:end], "\n")
	}

	hash := sha256.Sum256([]byte(source))

	return &FunctionSource{
		Node:        node,
		Source:      source,
		Language:    language,
		ContentHash: hex.EncodeToString(hash[:]),
	}, nil
}

// functionEnd returns the exclusive end index of the function starting at
// lines[start]. Python bodies end at the first non-blank line back at the
// definition's indentation; brace languages end when the braces opened on
// or after the definition line close again.
func functionEnd(lines []string, start int, language string) int {
	switch language {
	case "python":
		return pythonBlockEnd(lines, start)
	case "rust", "javascript", "typescript":
		return braceBlockEnd(lines, start)
	default:
		// Unknown language: take a reasonable chunk
		end := start + 50
		if end > len(lines) {
			end = len(lines)
		}
		return end
	}
}

func pythonBlockEnd(lines []string, start int) int {
	defIndent := indentWidth(lines[start])
	end := start + 1
	for i := start + 1; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" {
			continue
		}
		if indentWidth(lines[i]) <= defIndent {
			break
		}
		end = i + 1
	}
	return end
}

func braceBlockEnd(lines []string, start int) int {
	depth := 0
	opened := false
	for i := start; i < len(lines); i++ {
		for _, r := range lines[i] {
			switch r {
			case '{':
				depth++
				opened = true
			case '}':
				depth--
			}
		}
		if opened && depth <= 0 {
			return i + 1
		}
	}
	return len(lines)
}

func indentWidth(line string) int {
	width := 0
	for _, r := range line {
		switch r {
		case ' ':
			width++
		case '\t':
			width += 4
		default:
			return width
		}
	}
	return width
}
