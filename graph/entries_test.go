package graph

import (
	"errors"
	"strings"
	"testing"

	"github.com/georgehulme/trackast/ast"
)

func TestResolveEntryPointsExact(t *testing.T) {
	g := buildPipeline(t)

	full := string(ast.MakeID("main", "main_entry", ast.EmptySignature()))
	ids, err := g.ResolveEntryPoints([]string{full})
	if err != nil {
		t.Fatalf("ResolveEntryPoints failed: %v", err)
	}
	if len(ids) != 1 || string(ids[0]) != full {
		t.Errorf("Expected [%s], got %v", full, ids)
	}
}

func TestResolveEntryPointsFuzzy(t *testing.T) {
	g := buildPipeline(t)

	ids, err := g.ResolveEntryPoints([]string{"main::main_entry"})
	if err != nil {
		t.Fatalf("ResolveEntryPoints failed: %v", err)
	}
	if len(ids) != 1 {
		t.Fatalf("Expected 1 match, got %d", len(ids))
	}
	if ids[0].Name() != "main_entry" || ids[0].Module() != "main" {
		t.Errorf("Unexpected match %s", ids[0])
	}
}

func TestResolveEntryPointsFuzzyMatchesAllOverloads(t *testing.T) {
	m := ast.NewModule("calc")
	plain := ast.NewFunctionDef("add", ast.EmptySignature(), "calc")
	m.AddFunction(plain)
	typed := ast.NewFunctionDef("add", ast.Signature{
		Params: []ast.Param{{Name: "x", Type: "i32"}, {Name: "y", Type: "i32"}},
	}, "calc")
	m.AddFunction(typed)

	g := buildGraph(t, m)

	ids, err := g.ResolveEntryPoints([]string{"calc::add"})
	if err != nil {
		t.Fatalf("ResolveEntryPoints failed: %v", err)
	}
	if len(ids) != 2 {
		t.Errorf("Expected fuzzy spec to match both signatures, got %v", ids)
	}
}

func TestResolveEntryPointsModuleScope(t *testing.T) {
	g := buildGraph(t, webAppModule())

	ids, err := g.ResolveEntryPoints([]string{"app::<module>"})
	if err != nil {
		t.Fatalf("ResolveEntryPoints failed: %v", err)
	}
	if len(ids) != 1 || ids[0].Name() != ast.ModuleScope {
		t.Errorf("Expected the module scope node, got %v", ids)
	}
}

func TestResolveEntryPointsUnknown(t *testing.T) {
	g := buildPipeline(t)

	_, err := g.ResolveEntryPoints([]string{"main::does_not_exist"})
	if !errors.Is(err, ErrUnknownEntryPoint) {
		t.Errorf("Expected ErrUnknownEntryPoint, got %v", err)
	}
	if !strings.Contains(err.Error(), "main::main_entry") {
		t.Errorf("Expected the error to list available IDs, got %v", err)
	}
}

func TestResolveEntryPointsDeduplicates(t *testing.T) {
	g := buildPipeline(t)

	full := string(ast.MakeID("main", "main_entry", ast.EmptySignature()))
	ids, err := g.ResolveEntryPoints([]string{full, "main::main_entry"})
	if err != nil {
		t.Fatalf("ResolveEntryPoints failed: %v", err)
	}
	if len(ids) != 1 {
		t.Errorf("Expected overlapping specs to deduplicate, got %v", ids)
	}
}
