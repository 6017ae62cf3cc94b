// Package addrspace implements the Virtual Area (VA) and Address Space (AS)
// models of §4.3-4.4: the ordered list of mapped regions that make up a
// kernel or user address space, and the page table that backs them.
package addrspace

import (
	"unsafe"

	"defs"
	"fatal"
	"frame"
	"layout"
	"mem"
	"pagetable"
)

// VirtArea is a logically contiguous virtual range plus its permissions and
// the frame guards backing it (§3). For identity-mapped areas, Backings is
// nil: iterating [Begin, End) suffices for both mapping and verification,
// and storing a guard per page would exhaust the kernel heap when the heap
// window itself is mapped (§9, "Identity-mapped areas do not track
// backings").
type VirtArea struct {
	Name     string
	Begin    mem.VirtAddr
	End      mem.VirtAddr
	Perms    pagetable.PageFlags
	Identity bool
	// PhysBegin is only meaningful when Identity is true: the VA range maps
	// 1:1 onto [PhysBegin, PhysBegin+len).
	PhysBegin mem.PhysAddr
	Backings  map[mem.VirtAddr]frame.VirtFrameGuard
	// Device is the defs.Mkdev-encoded identifier of the peripheral this
	// area maps, or 0 for areas that aren't an MMIO window (kernel image
	// sections, stacks, the trapframe). Set by MakeKernel for each of its
	// identity-mapped device regions so callers like irq can confirm the
	// window they bit-bang was actually laid down under the device id they
	// expect (§4.4).
	Device uint
}

// Identity builds an identity-mapped VirtArea covering the physical range
// [paBegin, paEnd) at the same virtual addresses, used for every kernel
// section and MMIO window (§4.3).
func Identity(name string, paBegin, paEnd mem.PhysAddr, perms pagetable.PageFlags) *VirtArea {
	if !paBegin.Aligned() || !paEnd.Aligned() {
		fatal.Halt("addrspace: identity area %q not page aligned", name)
	}
	return &VirtArea{
		Name:      name,
		Begin:     mem.VirtAddr(paBegin),
		End:       mem.VirtAddr(paEnd),
		Perms:     perms,
		Identity:  true,
		PhysBegin: paBegin,
	}
}

// Trampoline builds the single-page VirtArea mapped at TrampolineBaseVA,
// backed by a PhysBorrowed frame at trampolinePA -- the kernel never owns
// this frame, it is part of the kernel's own binary (§4.3, §9).
func Trampoline(trampolinePA mem.PhysAddr) *VirtArea {
	va := mem.VirtAddr(layout.TrampolineBaseVA)
	return &VirtArea{
		Name:  "trampoline",
		Begin: va,
		End:   va + mem.VirtAddr(layout.PGSIZE),
		Perms: pagetable.Read | pagetable.Execute,
		Backings: map[mem.VirtAddr]frame.VirtFrameGuard{
			va: frame.Borrow(trampolinePA),
		},
	}
}

// Trapframe allocates a fresh zeroed frame and builds the per-process
// trapframe VirtArea at TrapframeBaseUserVA (§4.3). It returns the area and
// the backing physical address, which the PCB must record (§4.6).
func Trapframe(alloc *frame.Allocator) (*VirtArea, mem.PhysAddr, error) {
	g, err := frame.Alloc(alloc)
	if err != nil {
		return nil, 0, err
	}
	va := mem.VirtAddr(layout.TrapframeBaseUserVA)
	area := &VirtArea{
		Name:  "trapframe",
		Begin: va,
		End:   va + mem.VirtAddr(layout.PGSIZE),
		Perms: pagetable.Read | pagetable.Write,
		Backings: map[mem.VirtAddr]frame.VirtFrameGuard{
			va: frame.Exclusive{Guard: g},
		},
	}
	return area, g.Addr(), nil
}

// UserStack allocates a fresh zeroed frame and builds a single-page user
// stack VirtArea at baseVA (§4.3).
func UserStack(alloc *frame.Allocator, baseVA mem.VirtAddr) (*VirtArea, error) {
	g, err := frame.Alloc(alloc)
	if err != nil {
		return nil, err
	}
	return &VirtArea{
		Name:  "ustack",
		Begin: baseVA,
		End:   baseVA + mem.VirtAddr(layout.PGSIZE),
		Perms: pagetable.Read | pagetable.Write | pagetable.User,
		Backings: map[mem.VirtAddr]frame.VirtFrameGuard{
			baseVA: frame.Exclusive{Guard: g},
		},
	}, nil
}

// UserText builds the init program's .text VirtArea starting at
// TextBaseUserVA. img is the init program's bytes, baked into the kernel
// binary; its physical location is tracked as PhysBorrowed since the
// kernel already owns that memory as part of its own image (§4.3).
func UserText(img []byte) *VirtArea {
	if len(img) == 0 {
		fatal.Halt("addrspace: empty init program")
	}
	// The kernel identity maps its own image, so the slice's current
	// address doubles as its physical address.
	physBase := mem.PhysAddr(uintptr(unsafe.Pointer(&img[0]))).RoundDown()
	begin := mem.VirtAddr(layout.TextBaseUserVA)
	span := mem.PhysAddr(len(img)).RoundUp()
	npages := uint64(span) / layout.PGSIZE
	if npages == 0 {
		npages = 1
	}
	backings := make(map[mem.VirtAddr]frame.VirtFrameGuard, npages)
	for i := uint64(0); i < npages; i++ {
		va := begin + mem.VirtAddr(i*layout.PGSIZE)
		pa := physBase + mem.PhysAddr(i*layout.PGSIZE)
		backings[va] = frame.Borrow(pa)
	}
	return &VirtArea{
		Name:     "utext",
		Begin:    begin,
		End:      begin + mem.VirtAddr(npages*layout.PGSIZE),
		Perms:    pagetable.Read | pagetable.Execute | pagetable.User,
		Backings: backings,
	}
}

// Close releases every owned backing. Borrowed and (unsupported) shared
// backings no-op or panic per their own Close, matching VirtFrameGuard's
// contract.
func (a *VirtArea) Close() {
	for _, b := range a.Backings {
		b.Close()
	}
}
