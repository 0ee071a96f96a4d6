package scanner

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// Definition queries shipped with the binary, one per language.
//
//go:embed queries/*.scm
var queryFiles embed.FS

// LanguageConfig pairs a loaded parser with its compiled definition
// query.
type LanguageConfig struct {
	Language *tree_sitter.Language
	Query    *tree_sitter.Query
}

// GrammarLoader locates grammar shared libraries and loads them on
// demand. Grammars are plain tree-sitter builds (libtree-sitter-python.so
// and friends) dropped into any of the search directories.
type GrammarLoader struct {
	configs    map[string]*LanguageConfig
	grammarDir string
}

var extToLang = map[string]string{
	".py":  "python",
	".rs":  "rust",
	".js":  "javascript",
	".jsx": "javascript",
	".mjs": "javascript",
	".ts":  "typescript",
	".tsx": "typescript",
}

// langToExt is the primary extension per language, used when resolving
// imports back to files.
var langToExt = map[string]string{
	"python":     ".py",
	"rust":       ".rs",
	"javascript": ".js",
	"typescript": ".ts",
}

// NewGrammarLoader picks the first existing directory from the grammar
// search path: $TRACKAST_GRAMMAR_DIR, next to the executable, under
// ~/.trackast, then the development locations.
func NewGrammarLoader() *GrammarLoader {
	l := &GrammarLoader{configs: make(map[string]*LanguageConfig)}
	for _, dir := range grammarSearchDirs() {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			l.grammarDir = dir
			break
		}
	}
	return l
}

func grammarSearchDirs() []string {
	var dirs []string
	if env := os.Getenv("TRACKAST_GRAMMAR_DIR"); env != "" {
		dirs = append(dirs, env)
	}
	exeDir := getExecutableDir()
	return append(dirs,
		filepath.Join(exeDir, "grammars"),
		filepath.Join(exeDir, "..", "lib", "grammars"),
		filepath.Join(os.Getenv("HOME"), ".trackast", "grammars"),
		"./grammars",
		"./scanner/grammars",
	)
}

// HasGrammars reports whether a grammar directory was found.
func (l *GrammarLoader) HasGrammars() bool {
	return l.grammarDir != ""
}

// GrammarDir returns the directory grammars load from, for diagnostics.
func (l *GrammarLoader) GrammarDir() string {
	return l.grammarDir
}

// SupportedLanguages lists the languages the translator understands.
func SupportedLanguages() []string {
	return []string{"javascript", "python", "rust", "typescript"}
}

// LoadLanguage dlopens the grammar for lang and compiles its definition
// query. Loading an already loaded language is a no-op.
func (l *GrammarLoader) LoadLanguage(lang string) error {
	if _, ok := l.configs[lang]; ok {
		return nil
	}
	if l.grammarDir == "" {
		return fmt.Errorf("no grammar directory found")
	}

	libPath := filepath.Join(l.grammarDir, "libtree-sitter-"+lang+sharedLibExt())
	lib, err := loadLibrary(libPath)
	if err != nil {
		return fmt.Errorf("load %s: %w", libPath, err)
	}
	langFunc, err := getLanguageFunc(lib, lang)
	if err != nil {
		return fmt.Errorf("get func for %s: %w", lang, err)
	}
	language := tree_sitter.NewLanguage(langFunc())

	queryText, err := queryFiles.ReadFile("queries/" + lang + ".scm")
	if err != nil {
		return fmt.Errorf("no query for %s", lang)
	}
	query, qerr := tree_sitter.NewQuery(language, string(queryText))
	if qerr != nil {
		return fmt.Errorf("bad query for %s: %v", lang, qerr)
	}

	l.configs[lang] = &LanguageConfig{Language: language, Query: query}
	return nil
}

func sharedLibExt() string {
	switch runtime.GOOS {
	case "darwin":
		return ".dylib"
	case "windows":
		return ".dll"
	default:
		return ".so"
	}
}

// DetectLanguage maps a file path to its language, or "" for
// unsupported extensions.
func DetectLanguage(path string) string {
	return extToLang[strings.ToLower(filepath.Ext(path))]
}

// ExtensionFor returns the primary source extension for a language.
func ExtensionFor(lang string) string {
	return langToExt[lang]
}

func getExecutableDir() string {
	if exe, err := os.Executable(); err == nil {
		return filepath.Dir(exe)
	}
	return "."
}

func dedupe(s []string) []string {
	seen := make(map[string]bool, len(s))
	var out []string
	for _, v := range s {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
