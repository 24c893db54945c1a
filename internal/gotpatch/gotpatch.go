//go:build linux && cgo

// Package gotpatch is the GOT patcher: for every loaded object, it scans
// the jump-slot relocation table and overwrites the memory cell of every
// entry whose symbol name matches the target.
package gotpatch

import (
	"sync/atomic"
	"unsafe"

	"github.com/zboralski/pltintercept/internal/dynseg"
	"github.com/zboralski/pltintercept/internal/elfabi"
	glog "github.com/zboralski/pltintercept/internal/log"
	"github.com/zboralski/pltintercept/internal/procmap"
	"golang.org/x/sys/unix"
)

// pageSize caches the process page size for the RELRO-workaround mprotect
// call below; it never changes during the life of a process.
var pageSize = unix.Getpagesize()

// Patch rewrites every jump-slot GOT cell across every loaded object
// (VDSO excluded) that resolves to a symbol named name, to addr. It
// returns the number of cells patched; 0 is a valid result meaning no
// object calls through name's PLT, not an error.
//
// All matching cells across all objects are rewritten in a single pass,
// in iterator order for objects and table order for relocations within
// each object. No prior contents are recorded per-cell; undoing a patch
// requires re-resolving and patching again (see the façade's
// UninterceptFunction).
func Patch(name string, addr uintptr) int {
	patched := 0

	procmap.Iterate(func(obj procmap.Object) bool {
		if procmap.IsVDSO(obj) {
			return false
		}

		seg, hasDyn := dynseg.Parse(obj)
		if !hasDyn || !seg.HasJmprel() || seg.Symtab == 0 || seg.Strtab == 0 {
			return false
		}

		patched += patchObject(obj, seg, name, addr)
		return false
	})

	glog.L.Patched(name, addr, patched)
	return patched
}

// stride returns the on-the-wire size of one jump-slot relocation record,
// chosen by seg's DT_PLTREL discriminant.
func stride(seg dynseg.Segment) uintptr {
	if seg.Pltrel == elfabi.DT_REL {
		return elfabi.SizeOfElf64Rel
	}
	return elfabi.SizeOfElf64Rela
}

// patchObject scans one object's jump-slot relocation table and rewrites
// every cell whose associated symbol name matches name.
func patchObject(obj procmap.Object, seg dynseg.Segment, name string, addr uintptr) int {
	entryStride := stride(seg)
	count := uintptr(seg.Pltrelsz) / entryStride
	patched := 0

	for i := uintptr(0); i < count; i++ {
		recAddr := seg.Jmprel + i*entryStride

		var offset uintptr
		var info uint64
		if seg.Pltrel == elfabi.DT_REL {
			rel := (*elfabi.Elf64Rel)(unsafe.Pointer(recAddr))
			offset, info = uintptr(rel.Offset), rel.Info
		} else {
			rela := (*elfabi.Elf64Rela)(unsafe.Pointer(recAddr))
			offset, info = uintptr(rela.Offset), rela.Info
		}

		if elfabi.RelocType(info) != elfabi.R_X86_64_JUMP_SLOT {
			continue
		}

		symIdx := uintptr(elfabi.RelocSymIndex(info))
		sym := (*elfabi.Elf64Sym)(unsafe.Pointer(seg.Symtab + symIdx*elfabi.SizeOfElf64Sym))
		if seg.SymbolName(sym) != name {
			continue
		}

		cell := obj.LoadBias + offset
		makeWritable(cell)
		// Aligned pointer-sized stores on x86-64 are atomic; concurrent
		// readers calling through this slot see either the old or the
		// new address, never a torn value.
		atomic.StoreUintptr((*uintptr)(unsafe.Pointer(cell)), addr)
		patched++
	}

	return patched
}

// makeWritable best-effort re-marks the page containing cell as
// writable. Full-RELRO objects keep their GOT read-only regardless; the
// resulting fault on write is an unrecoverable host fault this library
// does not attempt to defeat.
func makeWritable(cell uintptr) {
	page := cell &^ uintptr(pageSize-1)
	b := unsafe.Slice((*byte)(unsafe.Pointer(page)), pageSize)
	_ = unix.Mprotect(b, unix.PROT_READ|unix.PROT_WRITE|unix.PROT_EXEC)
}
