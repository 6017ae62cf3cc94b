package pagetable

import (
	"testing"

	"fatal"
	"frame"
	"layout"
	"mem"
)

func freshAlloc(t *testing.T, npages int) *frame.Allocator {
	t.Helper()
	a := &frame.Allocator{}
	start := mem.PhysAddr(layout.KernelBase)
	end := start + mem.PhysAddr(uint64(npages)*layout.PGSIZE)
	a.Init(start, end)
	return a
}

// PT-1: for every (va, pa, flags) mapped, Translate returns (pa, flags|Valid)
// and remains so until the owning guard drops.
func TestMapOneAllocateAndTranslate(t *testing.T) {
	a := freshAlloc(t, 64)
	pt, err := New(a)
	if err != nil {
		t.Fatal(err)
	}
	defer pt.Close()

	target, err := a.AllocateOne()
	if err != nil {
		t.Fatal(err)
	}
	va := mem.VirtAddr(0x2000_0000)
	pt.MapOneAllocate(va, target, Read|Write)

	pa, flags, ok := pt.Translate(va)
	if !ok {
		t.Fatal("translate: not mapped")
	}
	if pa != target {
		t.Fatalf("pa = %v, want %v", pa, target)
	}
	want := Read | Write | Valid
	if flags != want {
		t.Fatalf("flags = %v, want %v", flags, want)
	}
}

func TestTranslateUnmappedIsAbsent(t *testing.T) {
	a := freshAlloc(t, 16)
	pt, err := New(a)
	if err != nil {
		t.Fatal(err)
	}
	defer pt.Close()

	if _, _, ok := pt.Translate(mem.VirtAddr(0x5000)); ok {
		t.Fatal("expected unmapped va to be absent")
	}
}

func TestDuplicateMappingIsFatal(t *testing.T) {
	a := freshAlloc(t, 16)
	pt, err := New(a)
	if err != nil {
		t.Fatal(err)
	}
	defer pt.Close()

	pg, err := a.AllocateOne()
	if err != nil {
		t.Fatal(err)
	}
	va := mem.VirtAddr(0x1000)
	pt.MapOneAllocate(va, pg, Read)

	// fatal.Halt parks the hart unless a Hook is installed; make it panic
	// so the violation can be recovered below.
	fatal.Hook = func(msg string) { panic(msg) }
	defer func() { fatal.Hook = nil }()
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate mapping")
		}
	}()
	pt.MapOneAllocate(va, pg, Read)
}

// PT-2: after mapping an identity range [a,b), every page-aligned p in
// [a,b) translates to (p, perms|Valid).
func TestIdentityRangeTranslates(t *testing.T) {
	a := freshAlloc(t, 256)
	pt, err := New(a)
	if err != nil {
		t.Fatal(err)
	}
	defer pt.Close()

	base := mem.PhysAddr(layout.KernelBase)
	for i := 0; i < 4; i++ {
		pa := base + mem.PhysAddr(uint64(i)*layout.PGSIZE)
		pt.MapOneAllocate(mem.VirtAddr(pa), pa, Read|Write)
	}
	for i := 0; i < 4; i++ {
		pa := base + mem.PhysAddr(uint64(i)*layout.PGSIZE)
		got, flags, ok := pt.Translate(mem.VirtAddr(pa))
		if !ok || got != pa {
			t.Fatalf("identity translate(%v) = (%v, %v), want (%v, true)", pa, got, ok, pa)
		}
		if flags&Valid == 0 {
			t.Fatalf("flags missing Valid")
		}
	}
}

func TestLockTableClearsWrite(t *testing.T) {
	kernel := freshAlloc(t, 256)
	kernelPT, err := New(kernel)
	if err != nil {
		t.Fatal(err)
	}
	defer kernelPT.Close()

	userAlloc := freshAlloc(t, 64)
	userPT, err := New(userAlloc)
	if err != nil {
		t.Fatal(err)
	}
	defer userPT.Close()

	leaf, err := userAlloc.AllocateOne()
	if err != nil {
		t.Fatal(err)
	}
	userPT.MapOneAllocate(mem.VirtAddr(0x3000_0000), leaf, Read|Write)

	// identity map every interior node page of userPT in the kernel table
	for _, n := range userPT.nodes {
		kernelPT.MapOneAllocate(mem.VirtAddr(n.Addr()), n.Addr(), Read|Write)
	}

	userPT.LockTable(kernelPT)
	for _, n := range userPT.nodes {
		_, flags, ok := kernelPT.Translate(mem.VirtAddr(n.Addr()))
		if !ok {
			t.Fatal("expected node identity mapping to remain valid")
		}
		if flags&Write != 0 {
			t.Fatal("LockTable did not clear Write on a node page")
		}
	}
	userPT.UnlockTable(kernelPT)
	for _, n := range userPT.nodes {
		_, flags, _ := kernelPT.Translate(mem.VirtAddr(n.Addr()))
		if flags&Write == 0 {
			t.Fatal("UnlockTable did not restore Write on a node page")
		}
	}
}
