package scanner

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/georgehulme/trackast/ast"
)

// ErrEntryNotFound reports a load path that names no file on disk.
var ErrEntryNotFound = errors.New("entry point does not exist")

// ModuleLoader discovers and translates modules starting from an entry
// file, following import statements to local files. Imports that do not
// resolve to a file under the root (external packages) are skipped.
type ModuleLoader struct {
	root       string
	translator *Translator
	loaded     map[string]bool
	progress   func(string)

	// entryModule overrides the derived module path for the first file.
	entryModule string
}

// LoaderOption configures a ModuleLoader.
type LoaderOption func(*ModuleLoader)

// WithProgress installs a callback for per-file progress messages.
func WithProgress(fn func(string)) LoaderOption {
	return func(l *ModuleLoader) { l.progress = fn }
}

// WithEntryModule names the module of the entry file instead of
// deriving it from the file path.
func WithEntryModule(name string) LoaderOption {
	return func(l *ModuleLoader) { l.entryModule = name }
}

// NewModuleLoader creates a loader rooted at the given directory.
func NewModuleLoader(root string, translator *Translator, opts ...LoaderOption) *ModuleLoader {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	l := &ModuleLoader{
		root:       root,
		translator: translator,
		loaded:     make(map[string]bool),
		progress:   func(string) {},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Root returns the absolute project root the loader resolves against.
func (l *ModuleLoader) Root() string {
	return l.root
}

// LoadEntry translates the entry file and, recursively, every local
// module it imports. The entry module comes first in the result.
func (l *ModuleLoader) LoadEntry(entry string) ([]*ast.Module, error) {
	path := l.resolveEntry(entry)
	if path == "" {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, entry)
	}

	var modules []*ast.Module
	if err := l.loadFile(path, l.entryModule, &modules); err != nil {
		return nil, err
	}
	return modules, nil
}

// LoadTree translates every supported source file under the root,
// honoring .gitignore and the shared ignore set.
func (l *ModuleLoader) LoadTree() ([]*ast.Module, error) {
	gitignore := LoadGitignore(l.root)
	var modules []*ast.Module
	err := WalkFiles(l.root, WalkOptions{Gitignore: gitignore, LanguageFilter: true}, func(absPath, relPath string, info os.FileInfo) error {
		return l.loadFile(absPath, "", &modules)
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", l.root, err)
	}
	return modules, nil
}

// LoadFile translates one file in isolation, deriving its module path
// from its location under the root. Imports are not followed; incremental
// reindexing uses this to re-translate exactly the files that changed.
func (l *ModuleLoader) LoadFile(path string) (*ast.Module, error) {
	abs := path
	if a, err := filepath.Abs(path); err == nil {
		abs = a
	}

	lang := DetectLanguage(abs)
	if lang == "" {
		return nil, fmt.Errorf("unsupported file type: %s", path)
	}

	content, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", abs, err)
	}

	module, err := l.translator.TranslateSource(content, lang, l.modulePathFor(abs), l.relPath(abs))
	if err != nil {
		return nil, fmt.Errorf("translating %s: %w", l.relPath(abs), err)
	}
	l.progress(fmt.Sprintf("Loaded %s (%d functions)", module.Path, len(module.Functions)))
	return module, nil
}

func (l *ModuleLoader) loadFile(path, moduleOverride string, modules *[]*ast.Module) error {
	abs := path
	if a, err := filepath.Abs(path); err == nil {
		abs = a
	}
	if l.loaded[abs] {
		return nil
	}
	l.loaded[abs] = true

	lang := DetectLanguage(abs)
	if lang == "" {
		return nil
	}

	content, err := os.ReadFile(abs)
	if err != nil {
		return fmt.Errorf("reading %s: %w", abs, err)
	}

	modulePath := moduleOverride
	if modulePath == "" {
		modulePath = l.modulePathFor(abs)
	}

	module, err := l.translator.TranslateSource(content, lang, modulePath, l.relPath(abs))
	if err != nil {
		return fmt.Errorf("translating %s: %w", l.relPath(abs), err)
	}
	*modules = append(*modules, module)
	l.progress(fmt.Sprintf("Loaded %s (%d functions)", module.Path, len(module.Functions)))

	for _, imp := range ExtractImports(content, lang) {
		target := resolveImport(filepath.Dir(abs), l.root, imp, lang)
		if target == "" {
			continue
		}
		if err := l.loadFile(target, "", modules); err != nil {
			return err
		}
	}
	return nil
}

// resolveEntry accepts absolute paths, root-relative paths, and paths
// relative to the working directory, in that order.
func (l *ModuleLoader) resolveEntry(entry string) string {
	candidates := []string{entry}
	if !filepath.IsAbs(entry) {
		candidates = []string{filepath.Join(l.root, entry), entry}
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			if abs, err := filepath.Abs(c); err == nil {
				return abs
			}
			return c
		}
	}
	return ""
}

// modulePathFor derives a logical module path from a file location:
// path segments relative to the root joined with "::", with mod.rs,
// __init__.py and index.js collapsing to their directory.
func (l *ModuleLoader) modulePathFor(path string) string {
	rel, err := filepath.Rel(l.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = filepath.Base(path)
	}
	rel = strings.TrimSuffix(filepath.ToSlash(rel), filepath.Ext(rel))

	parts := strings.Split(rel, "/")
	stem := parts[len(parts)-1]
	if stem == "mod" || stem == "__init__" || stem == "index" {
		parts = parts[:len(parts)-1]
		if len(parts) == 0 {
			return filepath.Base(l.root)
		}
	}
	return strings.Join(parts, "::")
}

func (l *ModuleLoader) relPath(abs string) string {
	rel, err := filepath.Rel(l.root, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return abs
	}
	return rel
}

// ExtractImports scans source text for import statements and returns
// the imported module names in source order, deduplicated. Names are
// language-shaped: dotted for Python, "::"-joined for Rust, specifier
// strings for JavaScript.
func ExtractImports(content []byte, lang string) []string {
	var imports []string

	switch lang {
	case "python":
		for _, line := range strings.Split(string(content), "\n") {
			line = strings.TrimSpace(line)
			if rest, ok := strings.CutPrefix(line, "from "); ok {
				name, _, found := strings.Cut(rest, " import ")
				if !found {
					continue
				}
				name = strings.TrimSpace(name)
				// Relative imports stay inside the entry's own package.
				if name == "" || strings.HasPrefix(name, ".") {
					continue
				}
				imports = append(imports, name)
			} else if rest, ok := strings.CutPrefix(line, "import "); ok {
				for _, part := range strings.Split(rest, ",") {
					name := strings.TrimSpace(part)
					if i := strings.Index(name, " as "); i >= 0 {
						name = strings.TrimSpace(name[:i])
					}
					if name != "" {
						imports = append(imports, name)
					}
				}
			}
		}

	case "rust":
		for _, line := range strings.Split(string(content), "\n") {
			line = strings.TrimSpace(line)
			line = strings.TrimPrefix(line, "pub ")
			if rest, ok := strings.CutPrefix(line, "mod "); ok {
				name := strings.TrimSuffix(strings.TrimSpace(rest), ";")
				// "mod x { ... }" is an inline module, not a file.
				if name != "" && !strings.ContainsAny(name, "{ ") {
					imports = append(imports, name)
				}
			} else if rest, ok := strings.CutPrefix(line, "use "); ok {
				name := strings.TrimPrefix(rest, "crate::")
				if i := strings.IndexAny(name, ":;{ "); i >= 0 {
					name = name[:i]
				}
				switch name {
				case "", "std", "core", "alloc", "self", "super", "crate":
					continue
				}
				imports = append(imports, name)
			}
		}

	case "javascript", "typescript":
		for _, line := range strings.Split(string(content), "\n") {
			line = strings.TrimSpace(line)
			if !strings.HasPrefix(line, "import ") && !strings.HasPrefix(line, "export ") {
				continue
			}
			if spec := quotedAfter(line, " from "); spec != "" {
				imports = append(imports, spec)
			} else if rest, ok := strings.CutPrefix(line, "import "); ok {
				// Side-effect imports: import './setup'
				if spec := firstQuoted(rest); spec != "" {
					imports = append(imports, spec)
				}
			}
		}
		rest := string(content)
		for {
			i := strings.Index(rest, "require(")
			if i < 0 {
				break
			}
			rest = rest[i+len("require("):]
			if spec := firstQuoted(rest); spec != "" {
				imports = append(imports, spec)
			}
		}
	}

	return dedupe(imports)
}

// resolveImport maps an import name to a source file on disk, trying
// the importing file's directory then the project root. Returns "" when
// the import names no local file (external package).
func resolveImport(baseDir, root, name, lang string) string {
	var relPath string
	switch lang {
	case "python":
		relPath = strings.ReplaceAll(name, ".", string(filepath.Separator))
	case "rust":
		relPath = strings.ReplaceAll(name, "::", string(filepath.Separator))
	case "javascript", "typescript":
		// Bare specifiers name packages, never local files.
		if !strings.HasPrefix(name, "./") && !strings.HasPrefix(name, "../") {
			return ""
		}
		relPath = filepath.FromSlash(name)
	default:
		return ""
	}

	ext := ExtensionFor(lang)
	var candidates []string
	if DetectLanguage(relPath) != "" {
		// The import already carries its extension.
		candidates = append(candidates, filepath.Join(baseDir, relPath))
	}
	for _, dir := range []string{baseDir, root} {
		base := filepath.Join(dir, relPath)
		candidates = append(candidates, base+ext)
		switch lang {
		case "rust":
			candidates = append(candidates, filepath.Join(base, "mod.rs"))
		case "python":
			candidates = append(candidates, filepath.Join(base, "__init__.py"))
		case "javascript":
			candidates = append(candidates, filepath.Join(base, "index.js"))
		case "typescript":
			candidates = append(candidates, filepath.Join(base, "index.ts"))
		}
	}

	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			if abs, err := filepath.Abs(c); err == nil {
				return abs
			}
			return c
		}
	}
	return ""
}

func firstQuoted(s string) string {
	start := strings.IndexAny(s, `'"`)
	if start < 0 {
		return ""
	}
	q := s[start]
	end := strings.IndexByte(s[start+1:], q)
	if end < 0 {
		return ""
	}
	return s[start+1 : start+1+end]
}

func quotedAfter(line, marker string) string {
	_, rest, found := strings.Cut(line, marker)
	if !found {
		return ""
	}
	return firstQuoted(rest)
}
