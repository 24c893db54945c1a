//go:build linux && cgo

// Package dynseg is the dynamic-segment parser: given one loaded object,
// it locates PT_DYNAMIC and walks its tag-value table to extract the
// symbol table, string table, and jump-slot relocation table pointers.
package dynseg

import (
	"unsafe"

	"github.com/zboralski/pltintercept/internal/elfabi"
	"github.com/zboralski/pltintercept/internal/procmap"
)

// Segment is a stack-scoped value object holding the five pointers/sizes
// a dynamic segment may carry. Any subset may be absent (zero) in a
// given object.
type Segment struct {
	Strtab   uintptr // DT_STRTAB: already relocated on glibc, see Parse doc
	Symtab   uintptr // DT_SYMTAB: ditto
	Jmprel   uintptr // DT_JMPREL: address of the jump-slot relocation table
	Pltrelsz uint64  // DT_PLTRELSZ: size in bytes of that table
	Pltrel   int64   // DT_PLTREL: DT_REL or DT_RELA, discriminates record layout
}

// HasJmprel reports whether the object has a (possibly empty) jump-slot
// relocation table at all. Objects with no lazily-bound imports omit it.
func (s Segment) HasJmprel() bool { return s.Jmprel != 0 }

// Parse locates obj's PT_DYNAMIC program header and walks its
// NULL-terminated tag-value table. It returns ok=false if obj carries no
// dynamic segment at all.
//
// DT_STRTAB and DT_SYMTAB store runtime pointers that glibc's dynamic
// linker has already relocated by the time a process runs; Parse does
// not add LoadBias to them. p_vaddr itself is not pre-relocated, so the
// PT_DYNAMIC header's own address is computed as LoadBias + p_vaddr.
func Parse(obj procmap.Object) (Segment, bool) {
	for i := 0; i < obj.Phnum; i++ {
		ph := (*elfabi.Elf64Phdr)(unsafe.Pointer(obj.Phdr + uintptr(i)*elfabi.SizeOfElf64Phdr))
		if ph.Type != elfabi.PT_DYNAMIC {
			continue
		}

		dynAddr := obj.LoadBias + uintptr(ph.Vaddr)
		var seg Segment
		for off := uintptr(0); ; off += elfabi.SizeOfElf64Dyn {
			d := (*elfabi.Elf64Dyn)(unsafe.Pointer(dynAddr + off))
			switch d.Tag {
			case elfabi.DT_NULL:
				return seg, true
			case elfabi.DT_STRTAB:
				seg.Strtab = uintptr(d.Val)
			case elfabi.DT_SYMTAB:
				seg.Symtab = uintptr(d.Val)
			case elfabi.DT_JMPREL:
				seg.Jmprel = uintptr(d.Val)
			case elfabi.DT_PLTRELSZ:
				seg.Pltrelsz = d.Val
			case elfabi.DT_PLTREL:
				seg.Pltrel = int64(d.Val)
			}
		}
	}

	return Segment{}, false
}

// SymbolName reads a symbol's NUL-terminated name out of this segment's
// string table. Shared by the symbol resolver and the GOT patcher, which
// both need to turn a relocation or symbol-table entry back into a name.
func (s Segment) SymbolName(sym *elfabi.Elf64Sym) string {
	base := s.Strtab + uintptr(sym.Name)
	n := 0
	for *(*byte)(unsafe.Pointer(base + uintptr(n))) != 0 {
		n++
	}
	buf := unsafe.Slice((*byte)(unsafe.Pointer(base)), n)
	return string(buf)
}
