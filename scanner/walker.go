package scanner

import (
	"os"
	"path/filepath"

	ignore "github.com/sabhiram/go-gitignore"
)

// IgnoredDirs names directories never worth translating: VCS metadata,
// dependency trees, build output, and tool caches. File names in the set
// (.DS_Store, .coverage) are skipped too.
var IgnoredDirs = map[string]bool{
	".git":          true,
	".trackast":     true,
	"grammars":      true,
	".idea":         true,
	".vscode":       true,
	".DS_Store":     true,
	"node_modules":  true,
	"vendor":        true,
	"dist":          true,
	"build":         true,
	"out":           true,
	".next":         true,
	".nuxt":         true,
	"target":        true,
	"__pycache__":   true,
	"venv":          true,
	".venv":         true,
	".env":          true,
	".tox":          true,
	".pytest_cache": true,
	".mypy_cache":   true,
	".ruff_cache":   true,
	".coverage":     true,
	"htmlcov":       true,
}

// WalkOptions configures a directory walk.
type WalkOptions struct {
	// Gitignore filters paths when non-nil.
	Gitignore *ignore.GitIgnore

	// LanguageFilter limits the walk to files in a supported language.
	LanguageFilter bool
}

// WalkFunc receives each visited file. Returning filepath.SkipDir skips
// the rest of a directory; any other error stops the walk.
type WalkFunc func(absPath, relPath string, info os.FileInfo) error

// WalkFiles visits every file under root, applying the ignore set, the
// optional gitignore, and the optional language filter. The loaders and
// the index updater share it so they agree on which files exist.
func WalkFiles(root string, opts WalkOptions, fn WalkFunc) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		// The root itself is exempt so a project named "build" still scans.
		if path != root && IgnoredDirs[info.Name()] {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if opts.Gitignore != nil && opts.Gitignore.MatchesPath(relPath) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if info.IsDir() {
			return nil
		}
		if opts.LanguageFilter && DetectLanguage(path) == "" {
			return nil
		}

		return fn(path, relPath, info)
	})
}

// LoadGitignore compiles root's .gitignore, or returns nil when the
// project has none.
func LoadGitignore(root string) *ignore.GitIgnore {
	path := filepath.Join(root, ".gitignore")
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	gitignore, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		return nil
	}
	return gitignore
}

// ScanFiles lists every file under root with its size and estimated token
// count. Unlike the loaders it keeps unsupported file types, so reports
// reflect the whole tree.
func ScanFiles(root string, gitignore *ignore.GitIgnore) ([]FileInfo, error) {
	var files []FileInfo

	err := WalkFiles(root, WalkOptions{Gitignore: gitignore}, func(absPath, relPath string, info os.FileInfo) error {
		files = append(files, FileInfo{
			Path:   relPath,
			Size:   info.Size(),
			Ext:    filepath.Ext(absPath),
			Tokens: EstimateTokens(info.Size()),
		})
		return nil
	})

	return files, err
}
