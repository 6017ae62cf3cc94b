package addrspace

import (
	"defs"
	"fatal"
	"frame"
	"layout"
	"mem"
	"pagetable"
	"riscv"
	"spinlock"
)

// AddrSpace owns one page table and an ordered list of VirtAreas (§3). The
// embedded RWMutex mirrors the teacher's Vm_t: read-mostly (loaded by many
// harts), written only during construction and lock/unlock transitions
// (§5).
type AddrSpace struct {
	spinlock.RWMutex

	alloc *frame.Allocator
	PT    *pagetable.Guard
	Areas []*VirtArea
}

func newEmpty(alloc *frame.Allocator) (*AddrSpace, error) {
	pt, err := pagetable.New(alloc)
	if err != nil {
		return nil, err
	}
	return &AddrSpace{alloc: alloc, PT: pt}, nil
}

// addArea maps every page of area into the page table and appends it to
// Areas. Invariant A2 (no VA mapped by two different areas) follows from
// MapOneAllocate's fatal-on-duplicate-mapping check.
func (as *AddrSpace) addArea(area *VirtArea) {
	if area.Identity {
		pa := area.PhysBegin
		for va := area.Begin; va < area.End; va += mem.VirtAddr(layout.PGSIZE) {
			as.PT.MapOneAllocate(va, pa, area.Perms)
			pa += mem.PhysAddr(layout.PGSIZE)
		}
	} else {
		for va, backing := range area.Backings {
			if _, ok := backing.(frame.CowShared); ok {
				fatal.Halt("addrspace: CowShared is reserved but not supported by this core")
			}
			as.PT.MapOneAllocate(va, backing.PhysAddr(), area.Perms)
		}
	}
	as.Areas = append(as.Areas, area)
}

// KernelSections describes the physical span of each kernel image section;
// ordinarily filled in from linker symbols by the boot sequencer (out of
// scope) before MakeKernel runs.
type KernelSections struct {
	Trampoline         mem.PhysAddr
	HeapBegin, HeapEnd   mem.PhysAddr
	BootStackBegin, BootStackEnd mem.PhysAddr
	BssBegin, BssEnd     mem.PhysAddr
	DataBegin, DataEnd   mem.PhysAddr
	RodataBegin, RodataEnd mem.PhysAddr
	TextBegin, TextEnd   mem.PhysAddr
}

// MakeKernel builds the kernel address space in the fixed order required by
// §4.4: trampoline, kernel heap region, kernel boot stack, .bss, .data,
// .rodata, .text, VIRTIO, UART, PLIC, CLINT. Every entry but the trampoline
// is identity mapped.
func MakeKernel(alloc *frame.Allocator, sec KernelSections) *AddrSpace {
	as, err := newEmpty(alloc)
	if err != nil {
		fatal.Halt("addrspace: out of frames building kernel AS: %v", err)
	}
	as.addArea(Trampoline(sec.Trampoline))
	as.addArea(Identity("heap", sec.HeapBegin, sec.HeapEnd, pagetable.Read|pagetable.Write))
	as.addArea(Identity("bootstack", sec.BootStackBegin, sec.BootStackEnd, pagetable.Read|pagetable.Write))
	as.addArea(Identity(".bss", sec.BssBegin, sec.BssEnd, pagetable.Read|pagetable.Write))
	as.addArea(Identity(".data", sec.DataBegin, sec.DataEnd, pagetable.Read|pagetable.Write))
	as.addArea(Identity(".rodata", sec.RodataBegin, sec.RodataEnd, pagetable.Read))
	as.addArea(Identity(".text", sec.TextBegin, sec.TextEnd, pagetable.Read|pagetable.Execute))
	as.addArea(deviceArea("virtio0", defs.D_VIRTIO0, layout.Virtio0Base, layout.Virtio0Size))
	as.addArea(deviceArea("uart", defs.D_UART, layout.UartBase, layout.UartSize))
	as.addArea(deviceArea("plic", defs.D_PLIC, layout.PlicBase, layout.PlicSize))
	as.addArea(deviceArea("clint", defs.D_CLINT, layout.ClintBase, layout.ClintSize))
	return as
}

// deviceArea builds an identity-mapped MMIO VirtArea tagged with its
// defs.Mkdev-encoded device id, so DeviceArea can hand the window back to a
// driver that asks for it by id instead of by raw constant.
func deviceArea(name string, major int, base, size uint64) *VirtArea {
	area := Identity(name, mem.PhysAddr(base), mem.PhysAddr(base+size), pagetable.Read|pagetable.Write)
	area.Device = defs.Mkdev(major, 0)
	return area
}

// DeviceArea returns the VirtArea mapped under device id dev (as produced
// by defs.Mkdev), or nil if this address space has none. Used by irq's
// PLIC/CLINT constructors to confirm the MMIO window they are about to
// bit-bang was actually laid down by MakeKernel (§4.4).
func (as *AddrSpace) DeviceArea(dev uint) *VirtArea {
	for _, area := range as.Areas {
		if area.Device == dev {
			return area
		}
	}
	return nil
}

// MakeInit builds a fresh user address space for the very first process:
// trampoline, user stack immediately above init text, and init .text
// itself. The trapframe is deliberately absent -- it is process-scoped and
// its PA must flow back to the PCB, so the caller must call InitTrapframe
// before first execution (§4.4).
func MakeInit(alloc *frame.Allocator, trampolinePA mem.PhysAddr, initImage []byte) *AddrSpace {
	as, err := newEmpty(alloc)
	if err != nil {
		fatal.Halt("addrspace: out of frames building init AS: %v", err)
	}
	as.addArea(Trampoline(trampolinePA))

	text := UserText(initImage)
	stackBase := text.End
	stack, err := UserStack(alloc, stackBase)
	if err != nil {
		fatal.Halt("addrspace: out of frames building init stack: %v", err)
	}
	as.addArea(stack)
	as.addArea(text)
	return as
}

// InitTrapframe allocates and maps the trapframe page, returning its
// physical address. Must be called exactly once, before first execution.
func (as *AddrSpace) InitTrapframe() (mem.PhysAddr, error) {
	area, pa, err := Trapframe(as.alloc)
	if err != nil {
		return 0, err
	}
	as.addArea(area)
	return pa, nil
}

// Translate is a thin wrapper over the page table's Translate (§4.4).
func (as *AddrSpace) Translate(va mem.VirtAddr) (mem.PhysAddr, pagetable.PageFlags, bool) {
	return as.PT.Translate(va)
}

// Load writes SATP with Sv39 mode and the root frame's PPN, then flushes
// the TLB (§4.4). Verify should have already been called during
// construction.
func (as *AddrSpace) Load() {
	satp := riscv.MakeSatp(as.PT.RootAddr().PPN())
	riscv.WriteSatp(satp)
	riscv.SfenceVMA()
}

// Verify checks invariant A1: every VA in every area is mapped by the page
// table with flags equal to the area's Perms|Valid (§4.2 "verify_virt_area_
// mapping", §8 AS-1).
func (as *AddrSpace) Verify() bool {
	for _, area := range as.Areas {
		want := area.Perms | pagetable.Valid
		if area.Identity {
			pa := area.PhysBegin
			for va := area.Begin; va < area.End; va += mem.VirtAddr(layout.PGSIZE) {
				gotPA, gotFlags, ok := as.PT.Translate(va)
				if !ok || mem.PhysAddr(uint64(gotPA)&^layout.PGOFFSET) != pa || gotFlags != want {
					return false
				}
				pa += mem.PhysAddr(layout.PGSIZE)
			}
		} else {
			for va, backing := range area.Backings {
				gotPA, gotFlags, ok := as.PT.Translate(va)
				if !ok || gotPA != backing.PhysAddr() || gotFlags != want {
					return false
				}
			}
		}
	}
	return true
}

// LockSpace write-protects every interior node page of this AS's page
// table. Per §4.2/§9, a hart cannot re-permission its own live page table
// without faulting, so this loads a freshly built scratch kernel AS first,
// mutates self under it, then reloads self and discards the scratch.
func (as *AddrSpace) LockSpace(sections KernelSections) {
	scratch := MakeKernel(as.alloc, sections)
	if !scratch.Verify() {
		fatal.Halt("addrspace: scratch kernel AS failed verification")
	}
	scratch.Load()
	as.PT.LockTable(scratch.PT)
	as.Load()
	scratch.PT.Close()
}

// UnlockSpace is symmetric with LockSpace.
func (as *AddrSpace) UnlockSpace(sections KernelSections) {
	scratch := MakeKernel(as.alloc, sections)
	if !scratch.Verify() {
		fatal.Halt("addrspace: scratch kernel AS failed verification")
	}
	scratch.Load()
	as.PT.UnlockTable(scratch.PT)
	as.Load()
	scratch.PT.Close()
}

// Close releases every area's backings and the page table itself.
func (as *AddrSpace) Close() {
	for _, area := range as.Areas {
		area.Close()
	}
	as.PT.Close()
}
