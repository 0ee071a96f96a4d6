package graph

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/georgehulme/trackast/ast"
)

// writePipelineSources drops placeholder files matching the pipeline
// fixture's File fields so staleness checks have something to stat.
func writePipelineSources(t *testing.T, root string) {
	t.Helper()
	for _, name := range []string{"main.py", "utils.py"} {
		if err := os.WriteFile(filepath.Join(root, name), []byte("# placeholder\n"), 0644); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	root := t.TempDir()
	writePipelineSources(t, root)

	g := buildPipeline(t)
	if err := g.SaveBinary(root); err != nil {
		t.Fatalf("SaveBinary failed: %v", err)
	}

	if !Exists(root) {
		t.Fatal("Expected graph file to exist after save")
	}

	loaded, err := LoadBinary(root)
	if err != nil {
		t.Fatalf("LoadBinary failed: %v", err)
	}

	if loaded.NodeCount() != g.NodeCount() {
		t.Errorf("Node count changed: %d -> %d", g.NodeCount(), loaded.NodeCount())
	}
	if loaded.EdgeCount() != g.EdgeCount() {
		t.Errorf("Edge count changed: %d -> %d", g.EdgeCount(), loaded.EdgeCount())
	}
	if loaded.Version != g.Version {
		t.Errorf("Version changed: %d -> %d", g.Version, loaded.Version)
	}

	// Indexes must be rebuilt on load.
	entry := ast.MakeID("main", "main_entry", ast.EmptySignature())
	if len(loaded.EdgesFrom(entry)) != 3 {
		t.Errorf("Expected 3 outgoing edges after load, got %d", len(loaded.EdgesFrom(entry)))
	}

	result := loaded.Traverse(entry, DFS)
	if result.ContainsName("unused_function") {
		t.Error("Loaded graph reaches unused_function from main_entry")
	}
}

func TestExistsWithoutGraph(t *testing.T) {
	if Exists(t.TempDir()) {
		t.Error("Exists = true for empty directory")
	}
}

func TestLoadBinaryMissing(t *testing.T) {
	if _, err := LoadBinary(t.TempDir()); err == nil {
		t.Error("Expected error loading missing graph")
	}
}

func TestStaleness(t *testing.T) {
	root := t.TempDir()
	writePipelineSources(t, root)

	g := buildPipeline(t)
	if err := g.SaveBinary(root); err != nil {
		t.Fatalf("SaveBinary failed: %v", err)
	}

	if g.IsStale(root) {
		t.Error("Fresh graph reported stale")
	}
	if files := g.ModifiedFiles(root); len(files) != 0 {
		t.Errorf("Expected no modified files, got %v", files)
	}

	// Touch one source into the future.
	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(filepath.Join(root, "main.py"), future, future); err != nil {
		t.Fatalf("Chtimes failed: %v", err)
	}

	if !g.IsStale(root) {
		t.Error("Expected graph to be stale after touch")
	}
	files := g.ModifiedFiles(root)
	if len(files) != 1 || files[0] != "main.py" {
		t.Errorf("Expected [main.py], got %v", files)
	}
}

func TestDeletedFiles(t *testing.T) {
	root := t.TempDir()
	writePipelineSources(t, root)

	g := buildPipeline(t)
	if err := g.SaveBinary(root); err != nil {
		t.Fatalf("SaveBinary failed: %v", err)
	}

	if err := os.Remove(filepath.Join(root, "utils.py")); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	deleted := g.DeletedFiles(root)
	if len(deleted) != 1 || deleted[0] != "utils.py" {
		t.Errorf("Expected [utils.py], got %v", deleted)
	}
	if !g.IsStale(root) {
		t.Error("Expected graph with deleted file to be stale")
	}
}

func TestRemoveFileThenRebuild(t *testing.T) {
	g := buildPipeline(t)

	before := g.NodeCount()
	g.RemoveFile("utils.py")

	if g.NodeCount() >= before {
		t.Errorf("Expected node count to drop, got %d -> %d", before, g.NodeCount())
	}
	if g.HasFile("utils.py") {
		t.Error("Expected utils.py to be gone from the file index")
	}
	for _, e := range g.Edges {
		if g.Node(e.From) == nil || g.Node(e.To) == nil {
			t.Errorf("Dangling edge after RemoveFile: %s -> %s", e.From, e.To)
		}
	}
}

func TestDependents(t *testing.T) {
	g := buildPipeline(t)

	// main.py calls load_data and transform_data, both in utils.py.
	deps := g.Dependents("utils.py")
	if len(deps) != 1 || deps[0] != "main.py" {
		t.Errorf("Expected [main.py], got %v", deps)
	}

	// Calls within main.py itself do not make it its own dependent.
	if deps := g.Dependents("main.py"); len(deps) != 0 {
		t.Errorf("Expected no dependents for main.py, got %v", deps)
	}

	if deps := g.Dependents("missing.py"); len(deps) != 0 {
		t.Errorf("Expected no dependents for unknown file, got %v", deps)
	}
}
