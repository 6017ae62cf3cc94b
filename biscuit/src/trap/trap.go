// Package trap implements the Trap Core (TR, §4.5, §4.9): the kernel-side
// dispatch that runs on every user<->kernel transition, and the supervisor
// half of the trampoline protocol that carries a hart across an address
// space switch without losing its program counter.
package trap

import (
	"addrspace"
	"cpu"
	"fatal"
	"irq"
	"klog"
	"layout"
	"mem"
	"pagetable"
	"proc"
	"riscv"
	"trapctx"
)

// CurrentTrampoline is the physical layout of the trampoline page installed
// for this boot (§4.5). It is set exactly once, before any hart is
// released into user mode; everything in this package treats it as
// read-only afterward.
var CurrentTrampoline Trampoline

// CurrentPlic and CurrentClint are the external-collaborator drivers
// KernelTrap dispatches interrupts through; both are set once by InitIRQ,
// before any hart is released into user mode.
var (
	CurrentPlic  irq.Plic
	CurrentClint irq.Clint
)

// InitHart points this hart's trap vector at __kernelvec, so any trap taken
// while already in supervisor mode lands in KernelTrap rather than the
// user-facing trampoline entry.
func InitHart(kernelVecPA uint64) {
	riscv.WriteStvec(kernelVecPA)
}

// InitIRQ validates that the kernel address space mapped the PLIC and
// CLINT MMIO windows (§4.4) and installs their drivers as CurrentPlic/
// CurrentClint. Called once during boot, before any hart takes an
// interrupt.
func InitIRQ(kernelAS *addrspace.AddrSpace) {
	CurrentPlic = irq.NewPlic(kernelAS)
	CurrentClint = irq.NewClint(kernelAS)
	CurrentPlic.Init()
}

// KernelTrap dispatches a trap taken while the hart was already in
// supervisor mode. The CLINT delivers the periodic scheduler tick as a
// supervisor *software* interrupt (see the irq package); an actual
// supervisor timer interrupt reaching here indicates CLINT was
// misconfigured.
func KernelTrap(hartID uint64) {
	scause := riscv.ReadScause()
	if !IsInterrupt(scause) {
		fatal.Halt("kerneltrap: hart %d took an unexpected exception, scause=%#x", hartID, scause)
	}
	switch Code(scause) {
	case InterruptSupervisorSoftware:
		klog.Debug("hart %d kerneltrap: supervisor software interrupt", hartID)
		CurrentClint.RearmTimer(hartID, irq.TickCycles(layout.SchedulerIntervalMillis))
	case InterruptSupervisorTimer:
		fatal.Halt("hart %d kerneltrap: supervisor timer interrupt reached kerneltrap; the CLINT should deliver this as software", hartID)
	case InterruptSupervisorExternal:
		handleExternalInterrupt(hartID)
	default:
		fatal.Halt("hart %d kerneltrap: unknown interrupt code %#x", hartID, Code(scause))
	}
}

// handleExternalInterrupt claims the highest-priority pending PLIC
// interrupt for hart, dispatches by source id, and completes it -- §7's
// "claim and complete are called in pairs for every external interrupt"
// guarantee. Neither UART nor VirtIO have a driver yet (both out of
// scope), so dispatch is a log line; completing the claim regardless of
// that is what lets the PLIC ever raise the line again.
func handleExternalInterrupt(hartID uint64) {
	id, ok := CurrentPlic.Next(hartID)
	if !ok {
		klog.Warn("hart %d kerneltrap: external interrupt with nothing to claim", hartID)
		return
	}
	switch id {
	case irq.Uart0IRQ:
		klog.Info("hart %d kerneltrap: uart interrupt (irq %d)", hartID, id)
	case irq.Virtio0IRQ:
		klog.Info("hart %d kerneltrap: virtio interrupt (irq %d)", hartID, id)
	default:
		klog.Warn("hart %d kerneltrap: unexpected irq id %d", hartID, id)
	}
	CurrentPlic.Complete(hartID, id)
}

// UserTrap dispatches a trap taken while a user process was running (§4.5,
// §7). __uservec has already saved GPRs into the trapframe, switched to the
// kernel AS and jumped here; UserTrap disables interrupts, repoints stvec
// at __kernelvec so a nested trap does not re-enter the trampoline, and
// dispatches by scause. It always finishes by calling UserTrapRet, which
// does not return.
func UserTrap(hartID uint64, kernelVecPA uint64) {
	riscv.IntrOff()
	riscv.WriteStvec(kernelVecPA)

	block := cpu.Current(hartID)
	pcb := block.RunningProcess()
	if pcb == nil {
		fatal.Halt("usertrap: hart %d took a user trap with no running process", hartID)
	}
	pcb.AccountTrapEnter()
	ctx := pcb.Context()

	scause := riscv.ReadScause()
	if IsInterrupt(scause) {
		KernelTrap(hartID)
		UserTrapRet(hartID)
		return
	}

	switch Code(scause) {
	case ExceptionEnvCallFromUMode:
		if err := HandleSyscall(ctx); err != nil && err != ErrNotImplemented {
			klog.Warn("usertrap: pid %d syscall error: %v", pcb.Pid, err)
		}
	case ExceptionInstructionPageFault:
		diagnoseInstructionPageFault(pcb, ctx)
	case ExceptionLoadPageFault, ExceptionStorePageFault:
		fatal.Halt("usertrap: pid %d data page fault at %#x", pcb.Pid, riscv.ReadStval())
	case ExceptionIllegalInstruction:
		fatal.Halt("usertrap: pid %d illegal instruction at pc %#x", pcb.Pid, ctx.UserPC())
	default:
		fatal.Halt("usertrap: pid %d unhandled exception, scause=%#x stval=%#x", pcb.Pid, scause, riscv.ReadStval())
	}

	UserTrapRet(hartID)
}

// diagnoseInstructionPageFault is grounded directly on the reference
// handler: an instruction page fault on an address that does not translate
// at all, or that translates without Execute or User set, is a fatal
// condition for this core (§1 Non-goals: no demand paging).
func diagnoseInstructionPageFault(pcb *proc.PCB, ctx *trapctx.Context) {
	va := mem.VirtAddr(riscv.ReadStval())
	as := pcb.UserAddrSpace()
	pa, flags, ok := as.Translate(va)
	if !ok {
		fatal.Halt("usertrap: pid %d instruction page fault at %#x: not mapped", pcb.Pid, uint64(va))
	}
	klog.Info("usertrap: pid %d instruction page fault: va=%#x -> pa=%#x flags=%s", pcb.Pid, uint64(va), uint64(pa), flags)
	if flags&pagetable.Execute == 0 {
		fatal.Halt("usertrap: pid %d instruction page fault at %#x: not executable", pcb.Pid, uint64(va))
	}
	if flags&pagetable.User == 0 {
		fatal.Halt("usertrap: pid %d instruction page fault at %#x: missing U bit", pcb.Pid, uint64(va))
	}
}

// UserTrapRet re-enters the user-return half of the trampoline protocol
// (§4.5 steps 1-5). It never returns: the final step transfers control to
// __userret in user mode.
func UserTrapRet(hartID uint64) {
	riscv.WriteStvec(layout.TrampolineBaseVA)

	if sscratch := riscv.ReadSscratch(); sscratch != layout.TrapframeBaseUserVA {
		fatal.Halt("usertrapret: hart %d sscratch=%#x, want trapframe VA %#x", hartID, sscratch, uint64(layout.TrapframeBaseUserVA))
	}
	riscv.PrepareUserReturn()

	block := cpu.Current(hartID)
	pcb := block.RunningProcess()
	if pcb == nil {
		fatal.Halt("usertrapret: hart %d has no running process", hartID)
	}
	pcb.AccountUserResume()
	ctx := pcb.Context()
	ctx.SetGPR(trapctx.RegTP, hartID)

	as := pcb.UserAddrSpace()
	satp := riscv.MakeSatp(as.PT.RootAddr().PPN())

	userretVA := CurrentTrampoline.UserretVA(layout.TrampolineBaseVA)
	riscv.IntrOff()
	jumpToUserret(satp, userretVA)
}

// jumpToUserret is defined in trampoline_asm.s: it never returns to its
// caller, mirroring __userret's own "-> !" contract.
func jumpToUserret(satp, addr uint64)
