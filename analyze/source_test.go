package analyze

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/georgehulme/trackast/ast"
	"github.com/georgehulme/trackast/graph"
)

func writeSource(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestReadFunctionSourcePython(t *testing.T) {
	root := t.TempDir()
	writeSource(t, filepath.Join(root, "main.py"), `def first():
    x = 1
    return x

def second():
    return 2
`)

	node := &graph.Node{
		ID:     ast.MakeID("main", "first", ast.EmptySignature()),
		Name:   "first",
		Module: "main",
		File:   "main.py",
		Line:   1,
	}

	src, err := ReadFunctionSource(root, node)
	if err != nil {
		t.Fatalf("ReadFunctionSource: %v", err)
	}
	if src.Language != "python" {
		t.Errorf("Language = %q, want python", src.Language)
	}
	if !strings.Contains(src.Source, "def first():") || !strings.Contains(src.Source, "return x") {
		t.Errorf("source missing function body:\n%s", src.Source)
	}
	if strings.Contains(src.Source, "def second") {
		t.Errorf("source leaked into next function:\n%s", src.Source)
	}
	if len(src.ContentHash) != 64 {
		t.Errorf("ContentHash length = %d, want 64", len(src.ContentHash))
	}
}

func TestReadFunctionSourceRust(t *testing.T) {
	root := t.TempDir()
	writeSource(t, filepath.Join(root, "lib.rs"), `fn alpha() -> i32 {
    if true {
        return 1;
    }
    0
}

fn beta() -> i32 {
    2
}
`)

	node := &graph.Node{
		ID:     ast.MakeID("lib", "alpha", ast.EmptySignature()),
		Name:   "alpha",
		Module: "lib",
		File:   "lib.rs",
		Line:   1,
	}

	src, err := ReadFunctionSource(root, node)
	if err != nil {
		t.Fatalf("ReadFunctionSource: %v", err)
	}
	if src.Language != "rust" {
		t.Errorf("Language = %q, want rust", src.Language)
	}
	if !strings.Contains(src.Source, "return 1;") {
		t.Errorf("source missing nested block:\n%s", src.Source)
	}
	if strings.Contains(src.Source, "fn beta") {
		t.Errorf("source leaked into next function:\n%s", src.Source)
	}
}

func TestReadFunctionSourceModuleScope(t *testing.T) {
	root := t.TempDir()
	content := "import os\n\nprint('hello')\n"
	writeSource(t, filepath.Join(root, "app.py"), content)

	node := &graph.Node{
		ID:     ast.MakeID("app", ast.ModuleScope, ast.EmptySignature()),
		Name:   ast.ModuleScope,
		Module: "app",
		File:   "app.py",
		Line:   1,
	}

	src, err := ReadFunctionSource(root, node)
	if err != nil {
		t.Fatalf("ReadFunctionSource: %v", err)
	}
	if src.Source != content {
		t.Errorf("module scope should read the whole file, got:\n%s", src.Source)
	}
}

func TestReadFunctionSourceExternal(t *testing.T) {
	node := graph.ExternalNode("print")
	if _, err := ReadFunctionSource(t.TempDir(), node); err == nil {
		t.Fatal("expected error for external node")
	}
}

func TestReadFunctionSourceLineOutOfRange(t *testing.T) {
	root := t.TempDir()
	writeSource(t, filepath.Join(root, "short.py"), "def f():\n    pass\n")

	node := &graph.Node{
		ID:     ast.MakeID("short", "gone", ast.EmptySignature()),
		Name:   "gone",
		Module: "short",
		File:   "short.py",
		Line:   50,
	}
	if _, err := ReadFunctionSource(root, node); err == nil {
		t.Fatal("expected error for stale line number")
	}
}
