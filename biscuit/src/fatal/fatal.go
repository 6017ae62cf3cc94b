// Package fatal implements the core's only error-handling policy for
// invariant violations (§7): print the offending call site and halt
// forever. There is no recovery path -- a double free, a duplicate mapping
// or an uninitialised slot access are bugs, not runtime conditions a caller
// can sensibly handle.
package fatal

import (
	"fmt"

	"caller"
	"riscv"
)

// Halted is set just before the halt loop begins; tests that must assert a
// fatal path was taken without actually parking the calling goroutine can
// install a hook instead (see Hook).
var Halted bool

// Hook, if non-nil, is called instead of halting. Exists so package tests
// can observe a Check/Halt without wedging the test binary in a WFI loop;
// production code never sets it.
var Hook func(msg string)

// Diagnostics, if non-nil, is invoked right after the call site is printed
// and before the halt loop begins. kstats.Install wires it to a frame/
// page-table usage snapshot, so a fatal log line is followed by the
// allocator state that may explain it.
var Diagnostics func()

// Check halts with msg if cond is false. The printed stack starts at
// Check's own call into Halt, followed by the caller of Check.
func Check(cond bool, msg string, args ...interface{}) {
	if cond {
		return
	}
	Halt(msg, args...)
}

// Halt unconditionally prints msg, the current call stack and parks the
// hart forever.
func Halt(msg string, args ...interface{}) {
	fmt.Printf("FATAL: "+msg+"\n", args...)
	caller.Callerdump(2)
	if Diagnostics != nil {
		Diagnostics()
	}
	if Hook != nil {
		Hook(fmt.Sprintf(msg, args...))
		return
	}
	Halted = true
	for {
		riscv.WFI()
	}
}
