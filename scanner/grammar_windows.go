//go:build windows

package scanner

import (
	"fmt"
	"syscall"
	"unsafe"
)

// loadLibrary loads a grammar DLL.
func loadLibrary(path string) (uintptr, error) {
	handle, err := syscall.LoadLibrary(path)
	if err != nil {
		return 0, err
	}
	return uintptr(handle), nil
}

// getLanguageFunc binds the grammar's tree_sitter_<lang> entry point.
func getLanguageFunc(lib uintptr, lang string) (func() unsafe.Pointer, error) {
	procName := fmt.Sprintf("tree_sitter_%s", lang)
	proc, err := syscall.GetProcAddress(syscall.Handle(lib), procName)
	if err != nil {
		return nil, fmt.Errorf("GetProcAddress %s: %w", procName, err)
	}
	fn := func() unsafe.Pointer {
		ret, _, _ := syscall.SyscallN(proc)
		return unsafe.Pointer(ret)
	}
	return fn, nil
}
