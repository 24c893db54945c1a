//go:build linux && cgo

// Package resolve is the symbol resolver: given a name, it returns the
// runtime address of the first defined symbol with that name across every
// loaded object, honoring indirect-function resolvers.
package resolve

import (
	"unsafe"

	"github.com/zboralski/pltintercept/internal/callfn"
	"github.com/zboralski/pltintercept/internal/dynseg"
	"github.com/zboralski/pltintercept/internal/elfabi"
	glog "github.com/zboralski/pltintercept/internal/log"
	"github.com/zboralski/pltintercept/internal/procmap"
)

// Resolve returns the runtime address of the defined symbol named name
// in the first loaded object that defines it, first-definition-wins in
// iterator order, or ok=false if no loaded object defines it.
//
// If the matching symbol is an indirect function (STT_GNU_IFUNC), Resolve
// calls it as a zero-argument resolver and returns the address it
// produces instead of the resolver's own address.
func Resolve(name string) (addr uintptr, ok bool) {
	procmap.Iterate(func(obj procmap.Object) bool {
		if procmap.IsVDSO(obj) {
			glog.L.ObjectSkipped(obj.LoadBias, "vdso")
			return false
		}

		seg, hasDyn := dynseg.Parse(obj)
		if !hasDyn || seg.Symtab == 0 || seg.Strtab == 0 {
			glog.L.ObjectSkipped(obj.LoadBias, "no dynamic segment")
			return false
		}

		found, resolved := scanSymbols(obj, seg, name)
		if found {
			addr = resolved
			ok = true
			return true
		}
		return false
	})

	if ok {
		glog.L.Resolved(name, addr)
	} else {
		glog.L.ResolveMiss(name)
	}
	return addr, ok
}

// scanSymbols walks seg's symbol table one stride at a time, starting at
// Symtab, stopping when the advancing pointer reaches Strtab.
//
// This relies on glibc laying SYMTAB immediately before STRTAB in
// memory, which the ELF format does not actually guarantee. A more
// robust termination would derive the symbol count from
// DT_HASH/DT_GNU_HASH instead of this adjacency.
func scanSymbols(obj procmap.Object, seg dynseg.Segment, name string) (found bool, addr uintptr) {
	for p := seg.Symtab; p < seg.Strtab; p += elfabi.SizeOfElf64Sym {
		sym := (*elfabi.Elf64Sym)(unsafe.Pointer(p))
		if !sym.Defined() {
			continue
		}
		if seg.SymbolName(sym) != name {
			continue
		}

		resolved := obj.LoadBias + uintptr(sym.Value)
		if sym.Type() == elfabi.STT_GNU_IFUNC {
			resolved = callfn.Call0(resolved)
		}
		return true, resolved
	}
	return false, 0
}
