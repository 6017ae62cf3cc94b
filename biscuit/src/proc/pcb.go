// Package proc implements the Process Control Block (PCB, §4.6): the unique
// process id slot, kernel stack, address space and trap context of a single
// process.
package proc

import (
	"accnt"
	"addrspace"
	"fatal"
	"frame"
	"layout"
	"mem"
	"spinlock"
	"trapctx"
)

// Status is the PCB's run status (§3 invariant P2: RUNNABLE -> RUNNING ->
// (RUNNABLE | ZOMBIE); ZOMBIE is terminal until reaped).
type Status int

const (
	Runnable Status = iota
	Running
	Zombie
)

func (s Status) String() string {
	switch s {
	case Runnable:
		return "RUNNABLE"
	case Running:
		return "RUNNING"
	case Zombie:
		return "ZOMBIE"
	default:
		return "?"
	}
}

// PCB is the Process Control Block. KernelStack is owned directly by the
// PCB (drops with it); everything else that can change across the
// process's lifetime lives behind the RWMutex mu, mirroring the
// teacher's pattern of one lock per mutable aggregate (§5: "Each PCB: one
// reader-writer lock on its inner state; TC mutation requires write").
type PCB struct {
	Pid         int
	KernelStack *frame.Guard
	Accnt       accnt.Accnt_t

	mu            spinlock.RWMutex
	trapContextPA mem.PhysAddr
	hasContext    bool
	userAS        *addrspace.AddrSpace
	status        Status

	// trapEnteredNs and lastUserResumeNs timestamp the two halves of every
	// user<->kernel round trip; AccountTrapEnter/AccountUserResume use them
	// to credit Accnt's user/system counters. Each stays zero until the
	// event it records has happened once.
	trapEnteredNs    int64
	lastUserResumeNs int64
}

// Allocate creates a new PCB with a fresh kernel-stack frame and no address
// space yet; the caller installs one (typically via addrspace.MakeInit)
// before calling FirstExecutionInit.
func Allocate(alloc *frame.Allocator, pid int) (*PCB, error) {
	kstack, err := frame.Alloc(alloc)
	if err != nil {
		return nil, err
	}
	return &PCB{Pid: pid, KernelStack: kstack, status: Runnable}, nil
}

// SetUserAddrSpace installs as's user address space. Must be called before
// FirstExecutionInit.
func (p *PCB) SetUserAddrSpace(as *addrspace.AddrSpace) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.userAS = as
}

// UserAddrSpace returns the process's user address space.
func (p *PCB) UserAddrSpace() *addrspace.AddrSpace {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.userAS
}

// Status returns the process's current status.
func (p *PCB) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status
}

// SetStatus transitions the process's status.
func (p *PCB) SetStatus(s Status) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status = s
}

// TrapContextPA returns the physical address of the trapframe page, and
// whether FirstExecutionInit has run yet (§3 invariant P1).
func (p *PCB) TrapContextPA() (mem.PhysAddr, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.trapContextPA, p.hasContext
}

// Context returns the live trap context for this process, reached through
// the kernel's identity mapping. Panics if FirstExecutionInit has not run.
func (p *PCB) Context() *trapctx.Context {
	pa, ok := p.TrapContextPA()
	if !ok {
		panic("proc: trap context read before FirstExecutionInit")
	}
	return trapctx.AtPhysAddr(uintptr(pa))
}

// FirstExecutionInit performs the one-time setup a process needs before its
// first entry to user mode (§4.6):
//  1. initialise the trapframe inside the user AS
//  2. record its PA on the PCB
//  3. verify the user AS, including that translating TrapframeBaseUserVA
//     yields that same PA (§3 invariant P1, §8 TC-1)
//  4. fill in the TC's kernel-side fields and the initial user PC
//
// tp (GPR x4) is deliberately left unset; it is filled in per-dispatch by
// the scheduler immediately before entering user mode.
func (p *PCB) FirstExecutionInit(trapHandlerKernelVA, kernelSatp uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.userAS == nil {
		fatal.Halt("proc: FirstExecutionInit with no user address space")
	}
	pa, err := p.userAS.InitTrapframe()
	if err != nil {
		fatal.Halt("proc: out of frames initialising trapframe: %v", err)
	}
	p.trapContextPA = pa
	p.hasContext = true

	if !p.userAS.Verify() {
		fatal.Halt("proc: user address space failed verification")
	}
	gotPA, _, ok := p.userAS.Translate(mem.VirtAddr(layout.TrapframeBaseUserVA))
	if !ok || gotPA != pa {
		fatal.Halt("proc: trapframe VA does not translate to the recorded PA")
	}

	ctx := trapctx.AtPhysAddr(uintptr(pa))
	// Open Question 2: the stack grows down from the *top* of the page.
	ctx.SetKernelStackTop(uint64(p.KernelStack.Addr()) + layout.PGSIZE)
	ctx.SetTrapHandler(trapHandlerKernelVA)
	ctx.SetUserPC(layout.TextBaseUserVA)
	ctx.SetKernelSatp(kernelSatp)
}

// AccountTrapEnter records the hart leaving user mode for this process
// (§4.5's usertrap entry). The time since the last AccountUserResume is
// credited to Accnt.Userns -- time the process spent actually running,
// not being serviced by the kernel. A trap taken before any
// AccountUserResume has been recorded has nothing to measure against, so
// it credits nothing.
func (p *PCB) AccountTrapEnter() {
	now := int64(p.Accnt.Now())
	p.mu.Lock()
	if p.lastUserResumeNs != 0 {
		p.Accnt.Utadd(int(now - p.lastUserResumeNs))
	}
	p.trapEnteredNs = now
	p.mu.Unlock()
}

// AccountUserResume records the hart about to re-enter user mode for this
// process (§4.5's usertrapret exit). The time since the matching
// AccountTrapEnter is credited to Accnt.Sysns -- time the kernel spent
// handling the trap on this process's behalf.
func (p *PCB) AccountUserResume() {
	now := int64(p.Accnt.Now())
	p.mu.Lock()
	if p.trapEnteredNs != 0 {
		p.Accnt.Systadd(int(now - p.trapEnteredNs))
	}
	p.lastUserResumeNs = now
	p.mu.Unlock()
}

// Close drops the user address space (which drops the trapframe, user
// stack and page-table node frames) before the kernel stack frame, then
// the kernel stack frame itself -- matching §4.6's drop order. The PID slot
// itself is returned to the resource table by the caller only after Close
// returns.
func (p *PCB) Close() {
	p.mu.Lock()
	as := p.userAS
	p.userAS = nil
	p.mu.Unlock()

	if as != nil {
		as.Close()
	}
	p.KernelStack.Close()
}
