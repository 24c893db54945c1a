//go:build linux && cgo

// Package procmap is the object iterator: it enumerates every ELF object
// currently mapped into this process via glibc's dl_iterate_phdr, and
// exposes the VDSO's program-header address so callers can skip it by
// pointer identity.
package procmap

/*
#cgo CFLAGS: -D_GNU_SOURCE
#include <link.h>
#include <sys/auxv.h>
#include <stdint.h>
#include <stddef.h>

typedef struct {
	uintptr_t load_bias;
	uintptr_t phdr;
	int phnum;
} pltintercept_object_t;

extern int pltinterceptObjectCallback(pltintercept_object_t *obj);

static int pltintercept_trampoline(struct dl_phdr_info *info, size_t size, void *data) {
	pltintercept_object_t obj;
	obj.load_bias = (uintptr_t)info->dlpi_addr;
	obj.phdr = (uintptr_t)info->dlpi_phdr;
	obj.phnum = (int)info->dlpi_phnum;
	return pltinterceptObjectCallback(&obj);
}

static int pltintercept_do_iterate(void) {
	return dl_iterate_phdr(pltintercept_trampoline, NULL);
}

static uintptr_t pltintercept_vdso_phdr(void) {
	uintptr_t ehdr = (uintptr_t)getauxval(AT_SYSINFO_EHDR);
	if (ehdr == 0) {
		return 0;
	}
	// e_phoff sits at byte offset 0x20 in Elf64_Ehdr.
	uint64_t e_phoff = *(uint64_t *)(ehdr + 0x20);
	return (uintptr_t)(ehdr + e_phoff);
}
*/
import "C"

import (
	"sync"
)

// Object is a borrowed, non-owning view of one loaded ELF object, valid
// only for the duration of the Iterate callback that received it. It
// must not be retained past that call.
type Object struct {
	LoadBias uintptr // address offset added to every p_vaddr in this object
	Phdr     uintptr // runtime address of this object's program header array
	Phnum    int     // number of entries in that array
}

// CallbackFunc is invoked once per loaded object in loader-determined
// order. Returning true stops enumeration early.
type CallbackFunc func(obj Object) (stop bool)

// iterateMu serializes calls to Iterate. The callback bridge below uses
// one package-level slot rather than per-call user data, so two
// concurrent Iterate calls would otherwise race on it.
var (
	iterateMu sync.Mutex
	active    CallbackFunc
)

//export pltinterceptObjectCallback
func pltinterceptObjectCallback(obj *C.pltintercept_object_t) C.int {
	o := Object{
		LoadBias: uintptr(obj.load_bias),
		Phdr:     uintptr(obj.phdr),
		Phnum:    int(obj.phnum),
	}
	if active != nil && active(o) {
		return 1
	}
	return 0
}

// Iterate invokes cb for every currently loaded ELF object (main
// executable, shared libraries, the dynamic linker, the VDSO) in
// loader-determined order, until cb returns true or the list is
// exhausted. Enumeration is best-effort: it never fails.
func Iterate(cb CallbackFunc) {
	iterateMu.Lock()
	defer iterateMu.Unlock()

	active = cb
	defer func() { active = nil }()

	C.pltintercept_do_iterate()
}

// VDSOPhdr returns the runtime address of the VDSO's program header
// array, derived from AT_SYSINFO_EHDR in the auxiliary vector. Callers
// compare an Object's Phdr against this by pointer identity to skip the
// VDSO. Returns 0 if the auxiliary vector carries no AT_SYSINFO_EHDR
// entry (some minimal or statically-linked environments).
func VDSOPhdr() uintptr {
	return uintptr(C.pltintercept_vdso_phdr())
}

// IsVDSO reports whether obj is the VDSO pseudo-object.
func IsVDSO(obj Object) bool {
	vdso := VDSOPhdr()
	return vdso != 0 && obj.Phdr == vdso
}
