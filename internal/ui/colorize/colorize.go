// Package colorize applies ANSI truecolor escapes to pltdemo's terminal
// output: addresses, symbol names, and error text each get a fixed color
// so a resolve/objects/demo run reads like a disassembler listing instead
// of a wall of hex.
package colorize

import (
	"fmt"
	"os"
)

// IsDisabled reports whether color output is disabled via environment,
// honoring both this tool's own variable and the NO_COLOR convention.
func IsDisabled() bool {
	return os.Getenv("PLTINTERCEPT_NO_COLOR") != "" || os.Getenv("NO_COLOR") != ""
}

// Address formats a runtime address in yellow.
func Address(addr uintptr) string {
	if IsDisabled() {
		return fmt.Sprintf("0x%016x", addr)
	}
	return fmt.Sprintf("\033[38;2;255;200;0m0x%016x\033[0m", addr)
}

// FuncName formats a symbol name in yellow.
func FuncName(name string) string {
	if IsDisabled() {
		return name
	}
	return fmt.Sprintf("\033[38;2;255;200;0m%s\033[0m", name)
}

// Detail formats secondary detail text in light gray.
func Detail(detail string) string {
	if IsDisabled() {
		return detail
	}
	return fmt.Sprintf("\033[38;2;180;180;180m%s\033[0m", detail)
}

// Error formats error text in pink.
func Error(s string) string {
	if IsDisabled() {
		return s
	}
	return fmt.Sprintf("\033[38;2;255;128;192m%s\033[0m", s)
}

// Tag formats an event tag in light pink.
func Tag(tag string) string {
	if IsDisabled() {
		return tag
	}
	return fmt.Sprintf("\033[38;2;255;180;200m%s\033[0m", tag)
}
