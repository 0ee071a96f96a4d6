package scanner

import (
	"fmt"
	"os"
	"sort"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/georgehulme/trackast/ast"
)

// Translator turns source files into abstract modules: flat function
// lists with their call sites. One Translator is safe to reuse across
// files; grammars load lazily on first use per language.
type Translator struct {
	loader *GrammarLoader
}

// NewTranslator creates a translator over the given grammar loader.
func NewTranslator(loader *GrammarLoader) *Translator {
	return &Translator{loader: loader}
}

// scope is a named function line range owning the calls inside it.
type scope struct {
	name       string
	start, end int
	def        *ast.FunctionDef
}

// scopeRange is a raw named line range from the definition query.
type scopeRange struct {
	name       string
	start, end int
}

// TranslateFile parses one source file into a module with the given
// logical path.
func (t *Translator) TranslateFile(path, modulePath string) (*ast.Module, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	lang := DetectLanguage(path)
	if lang == "" {
		return nil, fmt.Errorf("unsupported file type: %s", path)
	}
	return t.TranslateSource(content, lang, modulePath, path)
}

// TranslateSource parses source text into a module. Functions keep
// their definition order; calls made outside any function accumulate
// under the module-scope virtual function.
func (t *Translator) TranslateSource(content []byte, lang, modulePath, file string) (*ast.Module, error) {
	if err := t.loader.LoadLanguage(lang); err != nil {
		return nil, err
	}
	config := t.loader.configs[lang]

	parser := tree_sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(config.Language)

	tree := parser.Parse(content, nil)
	defer tree.Close()
	root := tree.RootNode()

	module := ast.NewModule(modulePath)
	scopes := buildScopes(module, file, extractScopes(lang, config, root, content))

	rawCalls, err := extractRawCalls(lang, config, root, content)
	if err != nil {
		return nil, err
	}

	regMethods := registrationMethods(lang)
	for _, rc := range rawCalls {
		for _, c := range interpretCall(rc, lang, modulePath, scopes, regMethods) {
			attributeCall(module, scopes, file, c)
		}
	}

	return module, nil
}

// buildScopes creates one definition per distinct scoped name. Ranges
// sharing a name (trait impls, overload-style redefinitions) merge their
// calls into the first definition.
func buildScopes(module *ast.Module, file string, ranges []scopeRange) []scope {
	byName := make(map[string]*ast.FunctionDef)
	scopes := make([]scope, 0, len(ranges))
	for _, r := range ranges {
		def := byName[r.name]
		if def == nil {
			def = ast.NewFunctionDef(r.name, ast.EmptySignature(), module.Path)
			def.File = file
			def.Line = r.start
			module.AddFunction(def)
			byName[r.name] = def
		}
		scopes = append(scopes, scope{name: r.name, start: r.start, end: r.end, def: def})
	}
	return scopes
}

// interpretCall maps one raw capture to the calls it implies, if any.
func interpretCall(rc rawCall, lang, modulePath string, scopes []scope, regMethods map[string]bool) []ast.Call {
	switch rc.kind {
	case plainCall, macroCall:
		return []ast.Call{{Target: rc.name, Line: rc.line}}

	case methodCall:
		target, targetModule := rc.name, ""
		if owner := methodOwner(lang, rc.receiver, rc.line, scopes); owner != "" {
			target = owner + scopeSep(lang) + rc.name
			targetModule = modulePath
		}
		return []ast.Call{{Target: target, TargetModule: targetModule, Line: rc.line}}

	case scopedCall:
		return []ast.Call{{Target: rc.name, TargetModule: scopedTargetModule(rc.path, modulePath), Line: rc.line}}

	case registrationArg:
		if !regMethods[rc.name] || rc.arg == "" {
			return nil
		}
		if (lang == "javascript" || lang == "typescript") && jsSkippedHandlerArgs[rc.arg] {
			return nil
		}
		return []ast.Call{{Target: rc.arg, Line: rc.line}}

	case decoratorTarget:
		if lang != "python" || !pythonRouteDecorators[rc.name] || rc.arg == "" {
			return nil
		}
		return []ast.Call{{Target: rc.arg, Line: rc.line}}

	case exportTarget:
		if rc.arg == "" {
			return nil
		}
		return []ast.Call{{Target: rc.arg, Line: rc.line}}
	}
	return nil
}

// scopedTargetModule normalizes a Rust path qualifier to a module path
// relative to the crate root. Type qualifiers ("Calculator::new") pass
// through untouched; the graph builder tries them as scoped method names.
func scopedTargetModule(path, modulePath string) string {
	switch {
	case path == "crate" || path == "self":
		return ""
	case strings.HasPrefix(path, "crate::"):
		return strings.TrimPrefix(path, "crate::")
	case strings.HasPrefix(path, "self::"):
		return strings.TrimPrefix(path, "self::")
	case path == "super":
		return parentModule(modulePath)
	case strings.HasPrefix(path, "super::"):
		rest := strings.TrimPrefix(path, "super::")
		if parent := parentModule(modulePath); parent != "" {
			return parent + "::" + rest
		}
		return rest
	}
	return path
}

func parentModule(modulePath string) string {
	if i := strings.LastIndex(modulePath, "::"); i >= 0 {
		return modulePath[:i]
	}
	return ""
}

// methodOwner resolves a self/this receiver to the owning type name of
// the enclosing method, or "" when the call has no class context.
func methodOwner(lang, receiver string, line int, scopes []scope) string {
	switch lang {
	case "python", "rust":
		if receiver != "self" {
			return ""
		}
	case "javascript", "typescript":
		if receiver != "this" {
			return ""
		}
	default:
		return ""
	}
	def := containingScope(scopes, line)
	if def == nil {
		return ""
	}
	if i := strings.LastIndex(def.Name, scopeSep(lang)); i >= 0 {
		return def.Name[:i]
	}
	return ""
}

func scopeSep(lang string) string {
	if lang == "rust" {
		return "::"
	}
	return "."
}

// attributeCall adds a call to the function whose range contains its
// line, or to the module scope when no function does.
func attributeCall(module *ast.Module, scopes []scope, file string, c ast.Call) {
	if def := containingScope(scopes, c.Line); def != nil {
		def.AddCall(c)
		return
	}
	mf := module.ModuleFunction()
	if mf.File == "" {
		mf.File = file
		mf.Line = 1
	}
	mf.AddCall(c)
}

// containingScope returns the definition of the innermost function scope
// containing the line. Scopes are sorted by start, so scanning backward
// finds the tightest enclosing range first.
func containingScope(scopes []scope, line int) *ast.FunctionDef {
	for i := len(scopes) - 1; i >= 0; i-- {
		s := scopes[i]
		if line >= s.start && line <= s.end {
			return s.def
		}
	}
	return nil
}

// extractScopes runs the definition query and returns function ranges
// with class-qualified names, sorted by start line.
func extractScopes(lang string, config *LanguageConfig, root *tree_sitter.Node, content []byte) []scopeRange {
	cursor := tree_sitter.NewQueryCursor()
	defer cursor.Close()

	var funcs, owners []scopeRange

	matches := cursor.Matches(config.Query, root, content)
	for match := matches.Next(); match != nil; match = matches.Next() {
		for _, capture := range match.Captures {
			captureName := config.Query.CaptureNames()[capture.Index]
			parent := capture.Node.Parent()
			if parent == nil {
				continue
			}
			r := scopeRange{
				name:  capture.Node.Utf8Text(content),
				start: int(parent.StartPosition().Row) + 1,
				end:   int(parent.EndPosition().Row) + 1,
			}
			switch captureName {
			case "func.name":
				funcs = append(funcs, r)
			case "class.name", "impl.type":
				owners = append(owners, r)
			}
		}
	}

	sep := scopeSep(lang)
	for i, fn := range funcs {
		if owner := innermostOwner(owners, fn.start); owner != "" {
			funcs[i].name = owner + sep + fn.name
		}
	}

	sort.Slice(funcs, func(i, j int) bool { return funcs[i].start < funcs[j].start })
	return funcs
}

// innermostOwner returns the name of the tightest class or impl range
// containing the line, or "".
func innermostOwner(owners []scopeRange, line int) string {
	best := ""
	bestStart := -1
	for _, o := range owners {
		if line >= o.start && line <= o.end && o.start > bestStart {
			best = o.name
			bestStart = o.start
		}
	}
	return best
}
