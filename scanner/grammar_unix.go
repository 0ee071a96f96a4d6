//go:build !windows

package scanner

import (
	"fmt"
	"unsafe"

	"github.com/ebitengine/purego"
)

// loadLibrary dlopens a grammar shared object. RTLD_GLOBAL keeps the
// parser's internal symbols visible to the tree-sitter runtime.
func loadLibrary(path string) (uintptr, error) {
	return purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
}

// getLanguageFunc binds the grammar's tree_sitter_<lang> entry point.
func getLanguageFunc(lib uintptr, lang string) (func() unsafe.Pointer, error) {
	var langFunc func() unsafe.Pointer
	purego.RegisterLibFunc(&langFunc, lib, fmt.Sprintf("tree_sitter_%s", lang))
	return langFunc, nil
}
