package scanner

import (
	"encoding/json"
	"os"
	"sort"
	"strings"
)

// manifestParsers maps dependency manifest file names to their language
// and parser.
var manifestParsers = map[string]struct {
	lang  string
	parse func(string) []string
}{
	"requirements.txt": {"python", parseRequirements},
	"Cargo.toml":       {"rust", parseCargoToml},
	"package.json":     {"javascript", parsePackageJson},
}

// ReadExternalDeps scans the tree for dependency manifests
// (requirements.txt, Cargo.toml, package.json) and returns declared
// package names grouped by language.
func ReadExternalDeps(root string) map[string][]string {
	deps := make(map[string][]string)

	WalkFiles(root, WalkOptions{}, func(absPath, relPath string, info os.FileInfo) error {
		p, ok := manifestParsers[info.Name()]
		if !ok {
			return nil
		}
		if c, err := os.ReadFile(absPath); err == nil {
			deps[p.lang] = append(deps[p.lang], p.parse(string(c))...)
		}
		return nil
	})

	for k, v := range deps {
		deps[k] = dedupe(v)
	}
	return deps
}

func parseRequirements(c string) (deps []string) {
	for _, line := range strings.Split(c, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		// Version constraints, extras, and markers all start the
		// non-name part: "flask>=2.0", "pytest; extra == 'dev'".
		if i := strings.IndexAny(line, "=<>~[;# "); i >= 0 {
			line = line[:i]
		}
		if line != "" {
			deps = append(deps, line)
		}
	}
	return
}

func parseCargoToml(c string) (deps []string) {
	inDeps := false
	for _, line := range strings.Split(c, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "[") {
			// [dependencies.serde] names its package in the header.
			if rest, ok := strings.CutPrefix(line, "[dependencies."); ok {
				deps = append(deps, strings.TrimSuffix(rest, "]"))
				inDeps = false
				continue
			}
			inDeps = line == "[dependencies]" || line == "[dev-dependencies]"
			continue
		}
		if !inDeps || line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, _, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		if name = strings.TrimSpace(name); name != "" {
			deps = append(deps, name)
		}
	}
	return
}

func parsePackageJson(c string) (deps []string) {
	var manifest struct {
		Dependencies    map[string]string `json:"dependencies"`
		DevDependencies map[string]string `json:"devDependencies"`
	}
	if err := json.Unmarshal([]byte(c), &manifest); err != nil {
		return nil
	}
	for _, block := range []map[string]string{manifest.Dependencies, manifest.DevDependencies} {
		names := make([]string, 0, len(block))
		for name := range block {
			names = append(names, name)
		}
		sort.Strings(names)
		deps = append(deps, names...)
	}
	return
}
