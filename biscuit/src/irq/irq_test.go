package irq

import (
	"testing"

	"addrspace"
	"frame"
	"layout"
	"mem"
)

func freshKernelAS(t *testing.T) *addrspace.AddrSpace {
	t.Helper()
	alloc := &frame.Allocator{}
	start := mem.PhysAddr(layout.KernelBase)
	alloc.Init(start, start+mem.PhysAddr(512*layout.PGSIZE))

	region := func(pages int) (mem.PhysAddr, mem.PhysAddr) {
		pa, err := alloc.Allocate(uint64(pages) * layout.PGSIZE)
		if err != nil {
			t.Fatal(err)
		}
		return pa, pa + mem.PhysAddr(uint64(pages)*layout.PGSIZE)
	}
	tramp, _ := region(1)
	heapB, heapE := region(4)
	stackB, stackE := region(1)
	bssB, bssE := region(1)
	dataB, dataE := region(1)
	rodataB, rodataE := region(1)
	textB, textE := region(1)
	return addrspace.MakeKernel(alloc, addrspace.KernelSections{
		Trampoline:     tramp,
		HeapBegin:      heapB,
		HeapEnd:        heapE,
		BootStackBegin: stackB,
		BootStackEnd:   stackE,
		BssBegin:       bssB,
		BssEnd:         bssE,
		DataBegin:      dataB,
		DataEnd:        dataE,
		RodataBegin:    rodataB,
		RodataEnd:      rodataE,
		TextBegin:      textB,
		TextEnd:        textE,
	})
}

func TestNewPlicAcceptsMappedKernelAS(t *testing.T) {
	as := freshKernelAS(t)
	_ = NewPlic(as)
}

func TestNewClintAcceptsMappedKernelAS(t *testing.T) {
	as := freshKernelAS(t)
	_ = NewClint(as)
}

func TestTickCyclesScalesWithFrequency(t *testing.T) {
	if got, want := TickCycles(10), layout.ClintFreqHz/1000*10; got != want {
		t.Fatalf("TickCycles(10) = %d, want %d", got, want)
	}
}

// These only check the register-address arithmetic; the registers
// themselves are real hardware and are not dereferenced outside a running
// kernel.
func TestPerHartAddressesAreDistinct(t *testing.T) {
	if senable(0) == senable(1) {
		t.Fatal("hart 0 and hart 1 share an S-mode enable register")
	}
	if sclaim(0) == sclaim(1) {
		t.Fatal("hart 0 and hart 1 share an S-mode claim register")
	}
	if timeCmpAddr(0) == timeCmpAddr(1) {
		t.Fatal("hart 0 and hart 1 share an mtimecmp register")
	}
}

func TestTimeCmpAddrStride(t *testing.T) {
	if got, want := timeCmpAddr(1)-timeCmpAddr(0), uint64(8); got != want {
		t.Fatalf("mtimecmp stride = %d, want %d", got, want)
	}
}
