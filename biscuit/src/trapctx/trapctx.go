// Package trapctx implements the Trap Context (TC, §4.5): the fixed-layout
// record the trampoline assembly and the kernel both read and write during
// a user/kernel trap round trip. The field offsets below are part of the
// ABI shared with the assembly trampoline (__uservec/__userret) -- they
// must never be reordered.
package trapctx

import "unsafe"

// Word offsets into Context, matching §4.5's layout exactly.
const (
	offGPRBase      = 0  // x0..x31 occupy words 0..31
	offKernelSatp    = 32
	offKernelStackTop = 33
	offKernelHartID  = 34
	offUserPC        = 35
	offTrapHandler   = 36

	numWords = 37
)

// GPR indices into the x0..x31 block, named for the registers the trap
// protocol actually touches.
const (
	RegZero = 0
	RegRA   = 1
	RegSP   = 2
	RegTP   = 4
	RegA0   = 10
	RegA7   = 17 // syscall number, per the standard RISC-V calling convention
)

// Context is the fixed-size, word-addressed trap context page. It is
// always backed by a page-aligned frame (the trapframe) so the assembly
// trampoline can address it purely by byte offset from sscratch.
type Context struct {
	words [numWords]uint64
}

// AtPhysAddr reinterprets the page at pa (reached through the kernel's
// identity mapping, §9 Open Question 3: "such dereferences use the
// kernel's identity mapping; never hand the trapframe PA to user mode") as
// a Context.
func AtPhysAddr(pa uintptr) *Context {
	return (*Context)(unsafe.Pointer(pa))
}

// GPR returns the saved value of user register x[i].
func (c *Context) GPR(i int) uint64 {
	if i < 0 || i > 31 {
		panic("trapctx: bad register index")
	}
	return c.words[offGPRBase+i]
}

// SetGPR sets user register x[i].
func (c *Context) SetGPR(i int, v uint64) {
	if i < 0 || i > 31 {
		panic("trapctx: bad register index")
	}
	c.words[offGPRBase+i] = v
}

// KernelSatp / SetKernelSatp access the SATP value __uservec installs
// before jumping into the kernel's usertrap handler.
func (c *Context) KernelSatp() uint64     { return c.words[offKernelSatp] }
func (c *Context) SetKernelSatp(v uint64) { c.words[offKernelSatp] = v }

// KernelStackTop / SetKernelStackTop access the stack pointer __uservec
// installs. Open Question 2: this must be the frame's base plus PGSIZE --
// the stack grows downward from the top of the page, not from its base.
func (c *Context) KernelStackTop() uint64     { return c.words[offKernelStackTop] }
func (c *Context) SetKernelStackTop(v uint64) { c.words[offKernelStackTop] = v }

// KernelHartID / SetKernelHartID access the hart id __uservec restores
// into tp before dispatch.
func (c *Context) KernelHartID() uint64     { return c.words[offKernelHartID] }
func (c *Context) SetKernelHartID(v uint64) { c.words[offKernelHartID] = v }

// UserPC / SetUserPC access sepc's saved/restored value.
func (c *Context) UserPC() uint64     { return c.words[offUserPC] }
func (c *Context) SetUserPC(v uint64) { c.words[offUserPC] = v }

// IncrUserPC advances the user PC by delta bytes, used by the syscall
// handler to skip over the ecall instruction so it is not re-executed
// (§7).
func (c *Context) IncrUserPC(delta uint64) {
	c.words[offUserPC] += delta
}

// TrapHandler / SetTrapHandler access the kernel VA of usertrap.
// Cross-mapped handler address (§9): this is always a kernel VA, valid
// because the kernel AS identity-maps the kernel image; user mode never
// dereferences it.
func (c *Context) TrapHandler() uint64     { return c.words[offTrapHandler] }
func (c *Context) SetTrapHandler(v uint64) { c.words[offTrapHandler] = v }
