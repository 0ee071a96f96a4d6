// Package ast defines the language-neutral representation that source
// translators emit: modules of function definitions plus the calls each
// function makes. The call-graph builder consumes these values without
// knowing which language they came from.
package ast

import (
	"fmt"
	"strings"
)

// Param is a single function parameter. Type is empty for dynamically
// typed sources such as Python.
type Param struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// Signature describes a function's parameters and return type.
type Signature struct {
	Params     []Param `json:"params,omitempty"`
	ReturnType string  `json:"return_type,omitempty"`
}

// EmptySignature returns the canonical no-argument, unit-return signature
// used when a translator does not recover type information.
func EmptySignature() Signature {
	return Signature{}
}

// String renders the signature in the canonical ID form, e.g.
// "(x: i32, y: i32) -> i32". The empty signature renders "() -> ()".
func (s Signature) String() string {
	parts := make([]string, 0, len(s.Params))
	for _, p := range s.Params {
		if p.Type == "" {
			parts = append(parts, p.Name)
		} else {
			parts = append(parts, fmt.Sprintf("%s: %s", p.Name, p.Type))
		}
	}

	ret := s.ReturnType
	if ret == "" {
		ret = "()"
	}

	return fmt.Sprintf("(%s) -> %s", strings.Join(parts, ", "), ret)
}

// Call is a single call site within a function body.
type Call struct {
	// Target is the callee name as written, scoped for methods
	// ("Calculator::add", "User.save").
	Target string `json:"target"`

	// TargetModule names the callee's module when the translator could
	// resolve it. Empty means unresolved: the builder will look for the
	// name locally and fall back to an external node.
	TargetModule string `json:"target_module,omitempty"`

	// Line is the 1-indexed call-site line.
	Line int `json:"line"`
}

// FunctionDef is one function extracted from a source file.
type FunctionDef struct {
	// Name is the function name. Methods carry their owner scope:
	// "Type::method" for Rust impls, "Class.method" for Python and
	// JavaScript classes. Module-level statements accumulate under the
	// virtual name ModuleScope.
	Name      string    `json:"name"`
	Signature Signature `json:"signature"`

	// Module is the logical module path ("app", "utils", "pkg::sub").
	Module string `json:"module"`

	// File is the source path the definition came from, when known.
	File string `json:"file,omitempty"`

	// Line is the 1-indexed definition line.
	Line int `json:"line,omitempty"`

	Calls []Call `json:"calls,omitempty"`
}

// ModuleScope is the virtual function name that collects calls made by
// module-level statements (route registrations, top-level setup code).
const ModuleScope = "<module>"

// NewFunctionDef creates a definition with no calls.
func NewFunctionDef(name string, sig Signature, module string) *FunctionDef {
	return &FunctionDef{Name: name, Signature: sig, Module: module}
}

// AddCall appends a call site to the definition.
func (f *FunctionDef) AddCall(c Call) {
	f.Calls = append(f.Calls, c)
}

// ID returns the function's canonical identifier.
func (f *FunctionDef) ID() FunctionID {
	return MakeID(f.Module, f.Name, f.Signature)
}

// Module is the abstract AST for one logical module: a flat list of
// function definitions. Translators produce one Module per file;
// discovery merges imported files into a single Module set.
type Module struct {
	Path      string         `json:"path"`
	Functions []*FunctionDef `json:"functions"`
}

// NewModule creates an empty module with the given path.
func NewModule(path string) *Module {
	return &Module{Path: path}
}

// AddFunction appends a definition to the module.
func (m *Module) AddFunction(f *FunctionDef) {
	m.Functions = append(m.Functions, f)
}

// Function returns the first definition with the given name, or nil.
func (m *Module) Function(name string) *FunctionDef {
	for _, f := range m.Functions {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// ModuleFunction returns the module-scope virtual function, creating it
// on first use so top-level calls from several statements accumulate in
// one place.
func (m *Module) ModuleFunction() *FunctionDef {
	if f := m.Function(ModuleScope); f != nil {
		return f
	}
	f := NewFunctionDef(ModuleScope, EmptySignature(), m.Path)
	m.AddFunction(f)
	return f
}
