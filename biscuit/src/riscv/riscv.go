// Package riscv provides the hart-local register primitives the rest of the
// kernel needs: reading/writing CSRs, flushing the TLB and halting. Every
// function below except MakeSatp has no Go body because there is no portable way to express
// a CSR access in Go -- the real body lives in riscv_asm.s, written the way
// a freestanding-Go target declares its hardware surface.
package riscv

// SV39 is the mode field written into the top 4 bits of SATP for Sv39
// paging.
const SV39 uint64 = 8

// MakeSatp packs an Sv39 SATP value from a root page-table physical page
// number.
func MakeSatp(rootPPN uint64) uint64 {
	return SV39<<60 | (rootPPN & ((1 << 44) - 1))
}

// HartID returns the value the boot loader left in tp for this hart, valid
// only before the kernel reassigns tp to per-process state. Defined in
// riscv_hartid.s.
func HartID() uint64

// ReadSatp returns the current hart's SATP register.
//
// Defined in riscv_asm.s.
func ReadSatp() uint64

// WriteSatp installs satp and is immediately followed by the caller issuing
// SfenceVMA; WriteSatp itself does not fence so batched installs can defer
// the fence to the end.
//
// Defined in riscv_asm.s.
func WriteSatp(satp uint64)

// SfenceVMA flushes all TLB entries for the current hart.
//
// Defined in riscv_asm.s.
func SfenceVMA()

// ReadSscratch returns sscratch, which this kernel uses to hold the
// per-process trapframe's user-visible VA while running in user mode.
//
// Defined in riscv_asm.s.
func ReadSscratch() uint64

// WriteSscratch sets sscratch.
//
// Defined in riscv_asm.s.
func WriteSscratch(v uint64)

// WriteStvec installs the supervisor trap vector.
//
// Defined in riscv_asm.s.
func WriteStvec(v uint64)

// ReadScause returns the reason the current trap was taken.
//
// Defined in riscv_asm.s.
func ReadScause() uint64

// ReadStval returns the trap's faulting address or offending instruction,
// depending on scause.
//
// Defined in riscv_asm.s.
func ReadStval() uint64

// IntrOff clears SIE in sstatus, disabling supervisor-mode interrupts on
// this hart.
//
// Defined in riscv_asm.s.
func IntrOff()

// IntrOn sets SIE in sstatus.
//
// Defined in riscv_asm.s.
func IntrOn()

// IntrEnabled reports whether SIE is currently set.
//
// Defined in riscv_asm.s.
func IntrEnabled() bool

// WFI parks the hart until the next interrupt. Used by the fatal halt loop
// and by the idle path when the ready queue is empty.
//
// Defined in riscv_asm.s.
func WFI()

// PrepareUserReturn clears SSTATUS.SPP (so sret drops to user mode rather
// than supervisor mode) and sets SSTATUS.SPIE (so user mode runs with
// interrupts enabled once restored by sret). Called once per trap round
// trip, immediately before usertrapret hands off to the trampoline.
//
// Defined in riscv_asm.s.
func PrepareUserReturn()
