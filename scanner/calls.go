package scanner

import (
	"fmt"
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// callKind classifies one raw capture produced by the call queries.
type callKind int

const (
	plainCall callKind = iota
	methodCall
	scopedCall
	macroCall
	registrationArg
	decoratorTarget
	exportTarget
)

// rawCall is a single call-site capture before module translation. The
// translator turns these into ast.Call values, attributing each to the
// function whose line range contains it.
type rawCall struct {
	kind     callKind
	name     string // callee, method, macro, or registration method name
	receiver string // receiver text for method calls
	path     string // path qualifier for scoped calls ("utils", "HttpServer")
	arg      string // handler identifier for registrations/decorators/exports
	line     int    // 1-indexed line used for caller attribution
}

// callQueryPatterns maps languages to their call expression query patterns.
var callQueryPatterns = map[string]string{
	"python": `
; Function calls
(call
  function: (identifier) @call.name)

; Method calls
(call
  function: (attribute
    object: (_) @call.receiver
    attribute: (identifier) @call.name))

; Identifier arguments of method calls (registration handlers)
(call
  function: (attribute
    attribute: (identifier) @reg.method)
  arguments: (argument_list
    (identifier) @reg.arg))

; Route decorators naming the function they register
(decorated_definition
  (decorator
    (call
      function: (attribute
        attribute: (identifier) @dec.method)))
  definition: (function_definition
    name: (identifier) @dec.target))
`,
	"rust": `
; Function calls
(call_expression
  function: (identifier) @call.name)

; Method calls
(call_expression
  function: (field_expression
    value: (_) @call.receiver
    field: (field_identifier) @call.name))

; Path-qualified calls
(call_expression
  function: (scoped_identifier
    path: (_) @call.path
    name: (identifier) @call.name))

; Macro invocations
(macro_invocation
  macro: (identifier) @call.macro)

; Identifier arguments of builder-style registration methods
(call_expression
  function: (field_expression
    field: (field_identifier) @reg.method)
  arguments: (arguments
    (identifier) @reg.arg))
`,
	"javascript": jsCallQuery,
	"typescript": jsCallQuery,
}

const jsCallQuery = `
; Function calls
(call_expression
  function: (identifier) @call.name)

; Method calls
(call_expression
  function: (member_expression
    object: (_) @call.receiver
    property: (property_identifier) @call.name))

; Identifier arguments of app-style registration methods
(call_expression
  function: (member_expression
    property: (property_identifier) @reg.method)
  arguments: (arguments
    (identifier) @reg.arg))

; module.exports = handler
(assignment_expression
  left: (member_expression
    object: (identifier) @exp.object
    property: (property_identifier) @exp.property)
  right: (identifier) @exp.target)
`

// Registration methods whose identifier arguments are handlers wired in by
// the framework rather than called directly.
var pythonRegistrationMethods = map[string]bool{
	"add_url_rule":           true,
	"register_error_handler": true,
	"register_blueprint":     true,
	"before_request":         true,
	"after_request":          true,
}

// Route decorators that register the decorated function as a handler.
var pythonRouteDecorators = map[string]bool{
	"route":        true,
	"errorhandler": true,
	"get":          true,
	"post":         true,
	"put":          true,
	"delete":       true,
	"patch":        true,
}

var rustRegistrationMethods = map[string]bool{
	"to":         true,
	"service":    true,
	"route":      true,
	"middleware": true,
	"guard":      true,
}

var jsRegistrationMethods = map[string]bool{
	"get":    true,
	"post":   true,
	"put":    true,
	"delete": true,
	"patch":  true,
	"use":    true,
	"all":    true,
}

// Conventional middleware parameter names, never handler references.
var jsSkippedHandlerArgs = map[string]bool{
	"req":  true,
	"res":  true,
	"next": true,
	"err":  true,
}

// callConfigs caches compiled call queries per language.
var (
	callConfigsMu sync.Mutex
	callConfigs   = make(map[string]*tree_sitter.Query)
)

// getCallQuery returns the compiled call query for a language.
func getCallQuery(lang string, tsLang *tree_sitter.Language) (*tree_sitter.Query, error) {
	callConfigsMu.Lock()
	defer callConfigsMu.Unlock()

	if q, ok := callConfigs[lang]; ok {
		return q, nil
	}

	pattern, ok := callQueryPatterns[lang]
	if !ok {
		return nil, fmt.Errorf("no call query for %s", lang)
	}

	query, qerr := tree_sitter.NewQuery(tsLang, pattern)
	if qerr != nil {
		return nil, fmt.Errorf("bad call query for %s: %v", lang, qerr)
	}

	callConfigs[lang] = query
	return query, nil
}

// extractRawCalls runs the call query over a parsed tree and returns every
// capture, classified. Each query match carries all captures for one call
// site.
func extractRawCalls(lang string, config *LanguageConfig, root *tree_sitter.Node, content []byte) ([]rawCall, error) {
	query, err := getCallQuery(lang, config.Language)
	if err != nil {
		return nil, err
	}

	cursor := tree_sitter.NewQueryCursor()
	defer cursor.Close()

	var calls []rawCall

	matches := cursor.Matches(query, root, content)
	for match := matches.Next(); match != nil; match = matches.Next() {
		var call rawCall
		var expObject, expProperty string

		for _, capture := range match.Captures {
			captureName := query.CaptureNames()[capture.Index]
			text := capture.Node.Utf8Text(content)
			line := int(capture.Node.StartPosition().Row) + 1

			switch captureName {
			case "call.name":
				call.name = text
				call.line = line
			case "call.receiver":
				call.kind = methodCall
				call.receiver = text
			case "call.path":
				call.kind = scopedCall
				call.path = text
			case "call.macro":
				call.kind = macroCall
				call.name = text
				call.line = line
			case "reg.method":
				call.kind = registrationArg
				call.name = text
				call.line = line
			case "reg.arg":
				call.arg = text
			case "dec.method":
				call.kind = decoratorTarget
				call.name = text
				call.line = line
			case "dec.target":
				call.arg = text
			case "exp.object":
				call.kind = exportTarget
				expObject = text
				call.line = line
			case "exp.property":
				expProperty = text
			case "exp.target":
				call.arg = text
			}
		}

		if call.kind == exportTarget && (expObject != "module" || expProperty != "exports") {
			continue
		}
		if call.name == "" && call.arg == "" {
			continue
		}
		calls = append(calls, call)
	}

	return calls, nil
}

// registrationMethods returns the registration method set for a language.
func registrationMethods(lang string) map[string]bool {
	switch lang {
	case "python":
		return pythonRegistrationMethods
	case "rust":
		return rustRegistrationMethods
	case "javascript", "typescript":
		return jsRegistrationMethods
	default:
		return nil
	}
}
