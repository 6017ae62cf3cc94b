package proc

import (
	"testing"
	"time"

	"addrspace"
	"frame"
	"layout"
	"mem"
)

func freshAlloc(t *testing.T) *frame.Allocator {
	t.Helper()
	a := &frame.Allocator{}
	a.Init(0, mem.PhysAddr(64*layout.PGSIZE))
	return a
}

// a minimal single-page "init" image; its content does not matter for these
// tests, only its length (one page).
func fakeInitImage() []byte {
	return make([]byte, layout.PGSIZE)
}

func TestAllocateGivesDistinctKernelStacks(t *testing.T) {
	a := freshAlloc(t)
	p0, err := Allocate(a, 0)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	p1, err := Allocate(a, 1)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if p0.KernelStack.Addr() == p1.KernelStack.Addr() {
		t.Fatal("two PCBs share a kernel stack frame")
	}
	if p0.Status() != Runnable {
		t.Fatalf("new PCB status = %v, want Runnable", p0.Status())
	}
}

func TestFirstExecutionInitPopulatesTrapContext(t *testing.T) {
	a := freshAlloc(t)
	p, err := Allocate(a, 0)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	trampPA, err := a.AllocateOne()
	if err != nil {
		t.Fatalf("trampoline frame: %v", err)
	}
	as := addrspace.MakeInit(a, trampPA, fakeInitImage())
	p.SetUserAddrSpace(as)

	const trapHandlerVA = 0x8000_9000
	const kernelSatp = 0x1234
	p.FirstExecutionInit(trapHandlerVA, kernelSatp)

	pa, ok := p.TrapContextPA()
	if !ok {
		t.Fatal("TrapContextPA reports uninitialised after FirstExecutionInit")
	}
	gotPA, _, ok := as.Translate(mem.VirtAddr(layout.TrapframeBaseUserVA))
	if !ok || gotPA != pa {
		t.Fatalf("trapframe VA does not translate to recorded PA: got %v ok=%v want %v", gotPA, ok, pa)
	}

	ctx := p.Context()
	if ctx.UserPC() != layout.TextBaseUserVA {
		t.Fatalf("UserPC = %#x, want %#x", ctx.UserPC(), uint64(layout.TextBaseUserVA))
	}
	if ctx.TrapHandler() != trapHandlerVA {
		t.Fatalf("TrapHandler = %#x, want %#x", ctx.TrapHandler(), uint64(trapHandlerVA))
	}
	if ctx.KernelSatp() != kernelSatp {
		t.Fatalf("KernelSatp = %#x, want %#x", ctx.KernelSatp(), uint64(kernelSatp))
	}
	wantTop := uint64(p.KernelStack.Addr()) + layout.PGSIZE
	if ctx.KernelStackTop() != wantTop {
		t.Fatalf("KernelStackTop = %#x, want %#x", ctx.KernelStackTop(), wantTop)
	}
}

func TestContextPanicsBeforeFirstExecutionInit(t *testing.T) {
	a := freshAlloc(t)
	p, err := Allocate(a, 0)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic reading Context before FirstExecutionInit")
		}
	}()
	p.Context()
}

func TestAccountingCreditsUserAndSystemTime(t *testing.T) {
	a := freshAlloc(t)
	p, err := Allocate(a, 0)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	p.AccountUserResume() // first resume: nothing to credit yet
	if p.Accnt.Sysns != 0 {
		t.Fatalf("Sysns after first resume = %d, want 0", p.Accnt.Sysns)
	}

	time.Sleep(time.Millisecond)
	p.AccountTrapEnter() // ran in user mode since the resume above
	if p.Accnt.Userns <= 0 {
		t.Fatalf("Userns after trap entry = %d, want > 0", p.Accnt.Userns)
	}

	time.Sleep(time.Millisecond)
	p.AccountUserResume() // kernel handled the trap since the entry above
	if p.Accnt.Sysns <= 0 {
		t.Fatalf("Sysns after second resume = %d, want > 0", p.Accnt.Sysns)
	}
}

func TestCloseReleasesKernelStack(t *testing.T) {
	a := freshAlloc(t)
	before := a.Free()
	p, err := Allocate(a, 0)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	p.Close()
	if got := a.Free(); got != before {
		t.Fatalf("frames free after Close = %d, want %d (all released)", got, before)
	}
}
