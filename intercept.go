//go:build linux && cgo

// Package pltintercept redirects every indirect call to an external
// function, from any loaded object in the process, to a caller-supplied
// replacement, and returns the original implementation's address so the
// caller can still invoke it.
//
// Interception works only for calls made through a dynamically linked
// object's Procedure Linkage Table; direct calls, inlined calls, and
// calls through a pointer the caller already cached locally are
// unaffected. It targets ELF objects on Linux/x86-64.
package pltintercept

import (
	"github.com/zboralski/pltintercept/internal/gotpatch"
	"github.com/zboralski/pltintercept/internal/resolve"
)

// InterceptFunction redirects every PLT call site bound to the external
// symbol name, across every loaded object, to replacement. It returns
// the address of the original implementation so the caller can still
// invoke it, or 0 if no loaded object defines name.
//
// The original address is captured by resolving name before any GOT
// cell is rewritten, so the returned value is always the
// pre-interception implementation even on a second call that replaces
// an already-intercepted symbol.
func InterceptFunction(name string, replacement uintptr) uintptr {
	original, ok := resolve.Resolve(name)
	if !ok {
		return 0
	}

	gotpatch.Patch(name, replacement)
	return original
}

// UninterceptFunction restores every GOT cell naming name to its
// resolved original address. It is a silent no-op if no loaded object
// defines name.
//
// This relies on interception never touching a symbol's SYMTAB entry,
// only its GOT cells: resolving name after one or more InterceptFunction
// calls still yields the original implementation's address.
func UninterceptFunction(name string) {
	original, ok := resolve.Resolve(name)
	if !ok {
		return
	}

	gotpatch.Patch(name, original)
}

// Resolve returns the runtime address of the defined symbol named name,
// or ok=false if no loaded object defines it. Exposed alongside the
// intercept/unintercept façade for callers that only need address
// lookup, such as the demonstration CLI's resolve subcommand.
func Resolve(name string) (addr uintptr, ok bool) {
	return resolve.Resolve(name)
}
