package pm

import (
	"testing"

	"addrspace"
	"frame"
	"layout"
	"limits"
	"mem"
	"proc"
)

func freshAlloc(t *testing.T) *frame.Allocator {
	t.Helper()
	a := &frame.Allocator{}
	a.Init(0, mem.PhysAddr(256*layout.PGSIZE))
	return a
}

func freshInitAS(t *testing.T, a *frame.Allocator) *addrspace.AddrSpace {
	t.Helper()
	trampPA, err := a.AllocateOne()
	if err != nil {
		t.Fatalf("trampoline frame: %v", err)
	}
	return addrspace.MakeInit(a, trampPA, make([]byte, layout.PGSIZE))
}

func TestCreateProcessEnqueuesReady(t *testing.T) {
	a := freshAlloc(t)
	m := New(a)

	pid, err := m.CreateProcess(freshInitAS(t, a), 0x8000_9000, 0x1234)
	if err != nil {
		t.Fatalf("CreateProcess: %v", err)
	}
	if pid != 0 {
		t.Fatalf("first pid = %d, want 0", pid)
	}
	if got := m.Count(); got != 1 {
		t.Fatalf("Count = %d, want 1", got)
	}

	gotPid, ok := m.PopOne()
	if !ok || gotPid != pid {
		t.Fatalf("PopOne = (%d, %v), want (%d, true)", gotPid, ok, pid)
	}
	if _, ok := m.PopOne(); ok {
		t.Fatal("PopOne on empty ready queue reported ok")
	}
}

func TestExitThenReapRemovesSlot(t *testing.T) {
	a := freshAlloc(t)
	m := New(a)

	pid, err := m.CreateProcess(freshInitAS(t, a), 0x8000_9000, 0x1234)
	if err != nil {
		t.Fatalf("CreateProcess: %v", err)
	}

	m.Exit(pid)
	if got := m.Lookup(pid).Status(); got != proc.Zombie {
		t.Fatalf("status after Exit = %v, want ZOMBIE", got)
	}
	if _, ok := m.PopOne(); ok {
		t.Fatal("exited pid still on ready queue")
	}

	m.Reap(pid)
	if got := m.Count(); got != 0 {
		t.Fatalf("Count after Reap = %d, want 0", got)
	}
}

func TestCreateProcessRespectsSysprocsCeiling(t *testing.T) {
	a := freshAlloc(t)
	m := New(a)

	saved := limits.Syslimit.Sysprocs
	limits.Syslimit.Sysprocs = 1
	defer func() { limits.Syslimit.Sysprocs = saved }()

	if _, err := m.CreateProcess(freshInitAS(t, a), 0x8000_9000, 0x1234); err != nil {
		t.Fatalf("first CreateProcess: %v", err)
	}
	if _, err := m.CreateProcess(freshInitAS(t, a), 0x8000_9000, 0x1234); err != ErrTooManyProcs {
		t.Fatalf("second CreateProcess err = %v, want ErrTooManyProcs", err)
	}
}
