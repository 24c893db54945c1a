//go:build linux && cgo

package resolve

import (
	"encoding/binary"
	"testing"
	"unsafe"

	"github.com/zboralski/pltintercept/internal/dynseg"
	"github.com/zboralski/pltintercept/internal/elfabi"
	"github.com/zboralski/pltintercept/internal/procmap"
)

/*
#include <stdint.h>

// pltintercept_resolve_test_ifunc_resolver stands in for an ELF indirect
// function resolver: scanSymbols must call it and use its return value,
// not its own address, as the resolved address of the symbol it backs.
static uintptr_t pltintercept_resolve_test_ifunc_resolver(void) {
	return (uintptr_t)0xfeedfacecafebeefULL;
}

static uintptr_t pltintercept_resolve_test_ifunc_resolver_addr(void) {
	return (uintptr_t)pltintercept_resolve_test_ifunc_resolver;
}
*/
import "C"

type symSpec struct {
	name    string
	value   uint64
	shndx   uint16
	symType uint8
}

type fixture struct {
	buf []byte // keeps the backing array alive and addresses stable
	obj procmap.Object
	seg dynseg.Segment
}

// buildFixture lays a symbol table immediately followed by its string
// table into one contiguous buffer, the adjacency scanSymbols' loop
// termination relies on, and returns a procmap.Object/dynseg.Segment
// pair describing it.
func buildFixture(t *testing.T, loadBias uintptr, entries []symSpec) *fixture {
	t.Helper()

	const symSize = elfabi.SizeOfElf64Sym

	names := []byte{0} // index 0 is always the empty name
	offs := make([]uint32, len(entries))
	for i, e := range entries {
		offs[i] = uint32(len(names))
		names = append(names, []byte(e.name)...)
		names = append(names, 0)
	}

	buf := make([]byte, len(entries)*symSize+len(names))
	for i, e := range entries {
		o := i * symSize
		binary.LittleEndian.PutUint32(buf[o:], offs[i])
		buf[o+4] = e.symType
		buf[o+5] = 0
		binary.LittleEndian.PutUint16(buf[o+6:], e.shndx)
		binary.LittleEndian.PutUint64(buf[o+8:], e.value)
		binary.LittleEndian.PutUint64(buf[o+16:], 0)
	}
	copy(buf[len(entries)*symSize:], names)

	symtabAddr := uintptr(unsafe.Pointer(&buf[0]))
	strtabAddr := symtabAddr + uintptr(len(entries)*symSize)

	phdrs := []elfabi.Elf64Phdr{{Type: elfabi.PT_LOAD}}

	return &fixture{
		buf: buf,
		obj: procmap.Object{
			LoadBias: loadBias,
			Phdr:     uintptr(unsafe.Pointer(&phdrs[0])),
			Phnum:    len(phdrs),
		},
		seg: dynseg.Segment{
			Strtab: strtabAddr,
			Symtab: symtabAddr,
		},
	}
}

func TestScanSymbolsFindsDefinedMatch(t *testing.T) {
	f := buildFixture(t, 0x1000, []symSpec{
		{name: "puts", value: 0x40, shndx: 1},
	})

	found, addr := scanSymbols(f.obj, f.seg, "puts")
	if !found {
		t.Fatal("expected to find puts")
	}
	if addr != f.obj.LoadBias+0x40 {
		t.Errorf("addr = 0x%x, want 0x%x", addr, f.obj.LoadBias+0x40)
	}
}

func TestScanSymbolsSkipsUndefined(t *testing.T) {
	f := buildFixture(t, 0, []symSpec{
		{name: "puts", value: 0x40, shndx: elfabi.SHN_UNDEF},
	})

	found, _ := scanSymbols(f.obj, f.seg, "puts")
	if found {
		t.Fatal("an undefined symbol must not be treated as a definition")
	}
}

func TestScanSymbolsNoMatch(t *testing.T) {
	f := buildFixture(t, 0, []symSpec{
		{name: "malloc", value: 0x40, shndx: 1},
	})

	found, _ := scanSymbols(f.obj, f.seg, "definitely_not_a_symbol_xyz")
	if found {
		t.Fatal("unrelated symbol names must not match")
	}
}

func TestScanSymbolsFirstDefinitionWins(t *testing.T) {
	f := buildFixture(t, 0, []symSpec{
		{name: "puts", value: 0x10, shndx: 1},
		{name: "puts", value: 0x20, shndx: 1},
	})

	found, addr := scanSymbols(f.obj, f.seg, "puts")
	if !found || addr != 0x10 {
		t.Fatalf("scanSymbols = (%v, 0x%x), want (true, 0x10)", found, addr)
	}
}

func TestSymbolName(t *testing.T) {
	f := buildFixture(t, 0, []symSpec{
		{name: "free", value: 0x80, shndx: 1},
	})

	sym := (*elfabi.Elf64Sym)(unsafe.Pointer(f.seg.Symtab))
	if got := f.seg.SymbolName(sym); got != "free" {
		t.Errorf("SymbolName = %q, want %q", got, "free")
	}
}

// TestScanSymbolsInvokesIFuncResolver covers spec.md §8 scenario 5: a
// symbol tagged STT_GNU_IFUNC is not itself a usable address. scanSymbols
// must call it as a zero-argument resolver and substitute the address it
// returns.
func TestScanSymbolsInvokesIFuncResolver(t *testing.T) {
	resolverAddr := uintptr(C.pltintercept_resolve_test_ifunc_resolver_addr())
	const wantAddr = uintptr(0xfeedfacecafebeef)

	f := buildFixture(t, 0, []symSpec{
		{name: "arch_specific_memcpy", value: uint64(resolverAddr), shndx: 1, symType: elfabi.STT_GNU_IFUNC},
	})

	found, addr := scanSymbols(f.obj, f.seg, "arch_specific_memcpy")
	if !found {
		t.Fatal("expected to find the IFUNC symbol")
	}
	if addr == resolverAddr {
		t.Fatalf("scanSymbols returned the resolver's own address 0x%x; it must call the resolver and use its return value", addr)
	}
	if addr != wantAddr {
		t.Fatalf("scanSymbols = 0x%x, want the resolver's return value 0x%x", addr, wantAddr)
	}
}
