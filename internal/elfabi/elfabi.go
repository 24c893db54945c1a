// Package elfabi holds the x86-64 ELF64 in-memory record layouts and the
// dynamic-linker constants pltintercept parses directly out of a running
// process's mapped objects. It is the one seam that would need touching
// to port to another architecture.
package elfabi

// Program header types. Only PT_DYNAMIC is interesting here.
const (
	PT_NULL    = 0
	PT_LOAD    = 1
	PT_DYNAMIC = 2
)

// Dynamic segment tags (Elf64_Dyn.d_tag). Subset used by the dynamic
// segment parser.
const (
	DT_NULL     = 0
	DT_PLTRELSZ = 2
	DT_RELA     = 7
	DT_STRTAB   = 5
	DT_SYMTAB   = 6
	DT_REL      = 17
	DT_PLTREL   = 20
	DT_JMPREL   = 23
)

// SHN_UNDEF marks a symbol as referenced, not defined, by its object.
const SHN_UNDEF = 0

// STT_GNU_IFUNC is the symbol type for indirect-function resolvers.
// st_info's low nibble carries the type.
const STT_GNU_IFUNC = 10

// R_X86_64_JUMP_SLOT is the relocation type the dynamic linker uses for
// lazily-bound PLT entries on x86-64. Other architectures use a different
// constant for the same role (R_AARCH64_JUMP_SLOT = 1026, etc.); only the
// x86-64 value is compiled in here.
const R_X86_64_JUMP_SLOT = 7

// Elf64Phdr mirrors glibc's Elf64_Phdr layout exactly (field order on
// ELF64 differs from ELF32: flags comes right after type).
type Elf64Phdr struct {
	Type   uint32
	Flags  uint32
	Offset uint64
	Vaddr  uint64
	Paddr  uint64
	Filesz uint64
	Memsz  uint64
	Align  uint64
}

// Elf64Dyn mirrors Elf64_Dyn: a tag and a value that is either a pointer
// or an integer depending on the tag (same union layout either way).
type Elf64Dyn struct {
	Tag int64
	Val uint64
}

// Elf64Sym mirrors Elf64_Sym.
type Elf64Sym struct {
	Name  uint32
	Info  uint8
	Other uint8
	Shndx uint16
	Value uint64
	Size  uint64
}

// Type returns the symbol type, the low nibble of st_info.
func (s *Elf64Sym) Type() uint8 { return s.Info & 0xf }

// Defined reports whether the object this symbol belongs to defines it.
func (s *Elf64Sym) Defined() bool { return s.Shndx != SHN_UNDEF }

// Elf64Rela mirrors Elf64_Rela (used when DT_PLTREL == DT_RELA).
type Elf64Rela struct {
	Offset uint64
	Info   uint64
	Addend int64
}

// Elf64Rel mirrors Elf64_Rel (used when DT_PLTREL == DT_REL). It shares
// Offset and Info's layout with Elf64Rela; only the trailing addend is
// absent.
type Elf64Rel struct {
	Offset uint64
	Info   uint64
}

// RelocSymIndex returns the relocation's symbol table index, packed into the high
// 32 bits of r_info on both REL and RELA.
func RelocSymIndex(info uint64) uint32 { return uint32(info >> 32) }

// RelocType returns the relocation type, the low 32 bits of r_info.
func RelocType(info uint64) uint32 { return uint32(info) }

// SizeOfElf64Sym is the on-disk/in-memory stride of one symbol table
// entry, used by the resolver to advance through SYMTAB.
const SizeOfElf64Sym = 24

// SizeOfElf64Rela is the stride of one RELA record.
const SizeOfElf64Rela = 24

// SizeOfElf64Rel is the stride of one REL record.
const SizeOfElf64Rel = 16

// SizeOfElf64Dyn is the stride of one dynamic tag-value entry.
const SizeOfElf64Dyn = 16

// SizeOfElf64Phdr is the stride of one program header entry.
const SizeOfElf64Phdr = 56
