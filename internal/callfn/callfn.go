//go:build linux && cgo

// Package callfn invokes raw, runtime-resolved function pointers that
// live outside any Go function value — something the standard library
// has no portable way to do. The symbol resolver needs it to call
// indirect-function resolvers; a replacement hook needs it to call
// through a captured original address without going back through that
// symbol's (now-patched) PLT/GOT call site. Modeled on the standard
// library's own net/cgo_unix.go: a small C preamble, no persistent C
// state.
package callfn

/*
#include <stdio.h>
#include <stdlib.h>
#include <stdint.h>

typedef void *(*ifunc_resolver_t)(void);
typedef int (*puts_fn_t)(const char *);

static uintptr_t pltintercept_call0(uintptr_t fn) {
	ifunc_resolver_t f = (ifunc_resolver_t)fn;
	return (uintptr_t)f();
}

static int pltintercept_call_puts(uintptr_t fn, const char *s) {
	puts_fn_t f = (puts_fn_t)fn;
	return f(s);
}

// pltintercept_real_puts calls puts(s) lexically, so the compiler emits
// an actual call through this binary's own PLT stub and jump-slot GOT
// cell for puts, rather than a register-indirect call through a
// captured address. This is the call site InterceptFunction/
// UninterceptFunction are meant to redirect.
static int pltintercept_real_puts(const char *s) {
	int n = puts(s);
	fflush(stdout);
	return n;
}
*/
import "C"

import "unsafe"

// Call0 invokes fn as a zero-argument function returning a pointer-sized
// value, the calling convention an ELF indirect-function resolver uses.
func Call0(fn uintptr) uintptr {
	return uintptr(C.pltintercept_call0(C.uintptr_t(fn)))
}

// CallPuts invokes fn directly as int(*)(const char *), the signature of
// libc's puts, passing s as a NUL-terminated C string. This is a
// register-indirect call through fn's value, not a call through any
// object's PLT stub for puts: it deliberately bypasses interception, for
// callers (such as a replacement hook) that already hold the original
// implementation's address and must not recurse back through puts's own
// GOT cell. Use RealPuts to exercise the PLT call site itself.
func CallPuts(fn uintptr, s string) int {
	cs := C.CString(s)
	defer C.free(unsafe.Pointer(cs))
	return int(C.pltintercept_call_puts(C.uintptr_t(fn), cs))
}

// RealPuts calls libc's puts(s) through a lexical call site compiled
// into this binary, so the call passes through this object's own PLT
// stub and jump-slot GOT cell for the symbol puts — the call site that
// InterceptFunction/UninterceptFunction actually redirect.
func RealPuts(s string) int {
	cs := C.CString(s)
	defer C.free(unsafe.Pointer(cs))
	return int(C.pltintercept_real_puts(cs))
}
