package ast

import "strings"

// FunctionID is the canonical identifier of a function across the whole
// graph: "module::name::(params) -> ret". IDs are plain strings so they
// survive gob round-trips and JSON output unchanged.
type FunctionID string

// ExternalModule is the module assigned to synthesized nodes for call
// targets that could not be resolved to any translated function.
const ExternalModule = "<external>"

// MakeID builds the canonical ID for a function.
func MakeID(module, name string, sig Signature) FunctionID {
	return FunctionID(module + "::" + name + "::" + sig.String())
}

// ExternalID builds the ID of a synthesized external target.
func ExternalID(name string) FunctionID {
	return MakeID(ExternalModule, name, EmptySignature())
}

func (id FunctionID) String() string { return string(id) }

// Module returns the module segment of the ID.
func (id FunctionID) Module() string {
	parts := strings.SplitN(string(id), "::", 3)
	return parts[0]
}

// Name returns the function-name segment of the ID, or "" for malformed
// IDs. Scoped method names ("Type::method") are stored in the name
// segment, so this returns everything between the module and the
// signature.
func (id FunctionID) Name() string {
	s := string(id)
	i := strings.Index(s, "::")
	if i < 0 {
		return ""
	}
	rest := s[i+2:]
	// The signature segment always starts with "(", so split on the
	// last "::(" to keep scoped names intact.
	j := strings.LastIndex(rest, "::(")
	if j < 0 {
		return rest
	}
	return rest[:j]
}

// IsExternal reports whether the ID names a synthesized external target.
func (id FunctionID) IsExternal() bool {
	return id.Module() == ExternalModule
}

// Matches reports whether the ID matches an entry-point spec: either the
// full ID ("module::function::signature", exact) or "module::function"
// with the signature ignored. Scoped method names keep their qualifier,
// so "app::Calculator::add" names the method, not a nested module.
func (id FunctionID) Matches(spec string) bool {
	if string(id) == spec {
		return true
	}
	return id.Module()+"::"+id.Name() == spec
}
