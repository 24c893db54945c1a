//go:build linux && cgo

// Command pltdemo exercises the pltintercept library against the calling
// process's own loaded objects.
package main

/*
#include <stdint.h>

extern int interceptedPuts(const char *s);

static uintptr_t interceptedPutsAddr(void) {
	return (uintptr_t)interceptedPuts;
}
*/
import "C"

import (
	"fmt"
	"os"
	"strings"
	"unsafe"

	"github.com/spf13/cobra"
	"github.com/zboralski/pltintercept"
	"github.com/zboralski/pltintercept/internal/callfn"
	"github.com/zboralski/pltintercept/internal/dynseg"
	"github.com/zboralski/pltintercept/internal/elfabi"
	glog "github.com/zboralski/pltintercept/internal/log"
	"github.com/zboralski/pltintercept/internal/procmap"
	"github.com/zboralski/pltintercept/internal/procmaps"
	"github.com/zboralski/pltintercept/internal/trace"
	"github.com/zboralski/pltintercept/internal/ui/colorize"
)

var verbose bool

func main() {
	rootCmd := &cobra.Command{
		Use:   "pltdemo",
		Short: "Demonstrate runtime PLT/GOT function interception",
		Long: `pltdemo exercises pltintercept against its own process.

It resolves and rewrites PLT call sites for external symbols such as
libc's puts, demonstrating that a caller can capture the original
implementation, redirect every call site to a replacement, and later
restore the original.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			glog.Init(verbose)
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose debug output")

	rootCmd.AddCommand(demoCmd())
	rootCmd.AddCommand(resolveCmd())
	rootCmd.AddCommand(objectsCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func demoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Intercept puts, call it, then restore the original",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo()
		},
	}
}

// originalPuts holds the address InterceptFunction returned, so the
// replacement hook below can still reach the real implementation.
var originalPuts uintptr

// interceptedPuts is the replacement hook: a cgo-exported, C-callable
// function matching puts's own int(const char *) signature, so its
// address is a valid PLT jump-slot target.
//
//export interceptedPuts
func interceptedPuts(s *C.char) C.int {
	n := callfn.CallPuts(originalPuts, "intercepted")
	return C.int(n)
}

func runDemo() error {
	var rec trace.Recorder
	replacement := uintptr(C.interceptedPutsAddr())

	original, ok := pltintercept.Resolve("puts")
	if !ok {
		rec.Record(trace.ResolveMiss, "puts", "")
		printTimeline(&rec)
		return fmt.Errorf("puts: no loaded object defines this symbol")
	}
	rec.Record(trace.Resolved, "puts", glog.Hex(original))

	original = pltintercept.InterceptFunction("puts", replacement)
	originalPuts = original
	rec.Record(trace.Intercepted, "puts", "replacement="+glog.Hex(replacement)).
		Annotate("original", glog.Hex(original))

	fmt.Println(`calling puts("test intercepted") through the PLT:`)
	callfn.RealPuts("test intercepted")

	pltintercept.UninterceptFunction("puts")
	rec.Record(trace.Restored, "puts", "addr="+glog.Hex(original))

	fmt.Println(`calling puts("hello") after restoring the original:`)
	callfn.RealPuts("hello")

	printTimeline(&rec)
	return nil
}

// printTimeline renders the recorded events as a colorized one-line-per-event log.
func printTimeline(rec *trace.Recorder) {
	fmt.Println("\ntimeline:")
	for _, e := range rec.Events() {
		fmt.Printf("  %-24s %-10s %s\n",
			colorize.Tag(e.PrimaryTag()), colorize.FuncName(e.Name), colorize.Detail(e.Detail))
	}
}

func resolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <symbol>",
		Short: "Resolve a symbol's runtime address across loaded objects",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, ok := pltintercept.Resolve(args[0])
			if !ok {
				fmt.Printf("%s: %s\n", args[0], colorize.Error("not found"))
				return nil
			}
			fmt.Printf("%s = %s\n", colorize.FuncName(args[0]), colorize.Address(addr))
			return nil
		},
	}
}

func objectsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "objects",
		Short: "List every loaded object's load bias, and the RELRO permissions on its GOT page",
		RunE: func(cmd *cobra.Command, args []string) error {
			regions, err := procmaps.Read()
			if err != nil {
				return err
			}

			vdso := procmap.VDSOPhdr()
			n := 0
			procmap.Iterate(func(obj procmap.Object) bool {
				n++
				tag := ""
				if obj.Phdr == vdso {
					tag = " (vdso)"
				}
				fmt.Printf("%-4d bias=%s phdr=%s phnum=%d%s\n",
					n, colorize.Address(obj.LoadBias), colorize.Address(obj.Phdr), obj.Phnum, tag)

				if tag != "" {
					return false
				}
				seg, hasDyn := dynseg.Parse(obj)
				if !hasDyn || !seg.HasJmprel() || seg.Pltrelsz == 0 {
					return false
				}
				// REL and RELA records share the Offset/Info prefix; the
				// first record's offset locates one of this object's GOT cells.
				first := (*elfabi.Elf64Rel)(unsafe.Pointer(seg.Jmprel))
				gotCell := obj.LoadBias + uintptr(first.Offset)
				perms, ok := procmaps.PermsForAddr(regions, gotCell)
				if !ok {
					return false
				}
				writable := "no"
				if strings.Contains(perms, "w") {
					writable = "yes"
				}
				fmt.Printf("     got page perms=%s writable=%s%s\n",
					perms, writable, relroNote(perms))
				return false
			})
			return nil
		},
	}
}

// relroNote annotates a read-only GOT page: a writer targeting this
// object's jump slots will fault, per spec.md §5's documented RELRO
// limitation, unless gotpatch's mprotect workaround (itself defeated by
// full RELRO) succeeds.
func relroNote(perms string) string {
	if strings.Contains(perms, "w") {
		return ""
	}
	return " (full RELRO: patch will fault unless mprotect succeeds)"
}
