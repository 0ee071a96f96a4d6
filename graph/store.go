package graph

import (
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

const (
	// DefaultGraphDir is the per-project directory holding persisted graphs.
	DefaultGraphDir = ".trackast"
	// DefaultGraphFile is the graph file name inside DefaultGraphDir.
	DefaultGraphFile = "graph.gob"
)

func init() {
	gob.Register(&Node{})
	gob.Register(&Edge{})
}

// GraphPath returns the full path to the graph file for a project root.
func GraphPath(root string) string {
	return filepath.Join(root, DefaultGraphDir, DefaultGraphFile)
}

// EnsureDir creates the graph directory if it doesn't exist.
func EnsureDir(root string) error {
	dir := filepath.Join(root, DefaultGraphDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating graph directory: %w", err)
	}
	return nil
}

// Exists reports whether a persisted graph exists for the project root.
func Exists(root string) bool {
	_, err := os.Stat(GraphPath(root))
	return err == nil
}

// SaveBinary persists the graph as gzip-compressed gob.
func (g *Graph) SaveBinary(root string) error {
	if err := EnsureDir(root); err != nil {
		return err
	}

	g.LastIndexed = time.Now().Unix()

	file, err := os.Create(GraphPath(root))
	if err != nil {
		return fmt.Errorf("creating graph file: %w", err)
	}
	defer file.Close()

	gz := gzip.NewWriter(file)
	defer gz.Close()

	if err := gob.NewEncoder(gz).Encode(g); err != nil {
		return fmt.Errorf("encoding graph: %w", err)
	}
	return nil
}

// LoadBinary loads a persisted graph and rebuilds its lookup indexes,
// which gob does not carry.
func LoadBinary(root string) (*Graph, error) {
	file, err := os.Open(GraphPath(root))
	if err != nil {
		return nil, fmt.Errorf("opening graph file: %w", err)
	}
	defer file.Close()

	gz, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("reading graph file: %w", err)
	}
	defer gz.Close()

	g := New()
	if err := gob.NewDecoder(gz).Decode(g); err != nil {
		return nil, fmt.Errorf("decoding graph: %w", err)
	}

	g.RebuildIndexes()
	return g, nil
}

// IsStale reports whether any indexed file changed on disk after the graph
// was saved. A file that no longer exists also makes the graph stale.
func (g *Graph) IsStale(root string) bool {
	for path := range g.byFile {
		info, err := os.Stat(resolvePath(root, path))
		if err != nil {
			return true
		}
		if info.ModTime().Unix() > g.LastIndexed {
			return true
		}
	}
	return false
}

// ModifiedFiles returns the indexed files whose mtime is newer than the
// graph, sorted.
func (g *Graph) ModifiedFiles(root string) []string {
	var files []string
	for path := range g.byFile {
		info, err := os.Stat(resolvePath(root, path))
		if err != nil {
			continue // handled by DeletedFiles
		}
		if info.ModTime().Unix() > g.LastIndexed {
			files = append(files, path)
		}
	}
	sort.Strings(files)
	return files
}

// DeletedFiles returns the indexed files that no longer exist on disk,
// sorted.
func (g *Graph) DeletedFiles(root string) []string {
	var files []string
	for path := range g.byFile {
		if _, err := os.Stat(resolvePath(root, path)); os.IsNotExist(err) {
			files = append(files, path)
		}
	}
	sort.Strings(files)
	return files
}

// HasFile reports whether the graph has nodes from path.
func (g *Graph) HasFile(path string) bool {
	return len(g.byFile[path]) > 0
}

func resolvePath(root, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}
