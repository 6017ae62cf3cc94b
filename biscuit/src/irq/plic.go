// Package irq drives the two external-interrupt collaborators this
// platform depends on but that sit outside the memory/trap core: the
// platform-level interrupt controller (PLIC) that fans UART and VirtIO
// interrupts into the supervisor external-interrupt line, and the
// core-local interruptor (CLINT) that rearms the next scheduler tick.
//
// Both are plain memory-mapped register blocks inside the kernel's
// identity-mapped MMIO window (§4.4), so every access below is a direct
// pointer dereference at a fixed physical/virtual address -- there is no
// portable "volatile" in Go, so these reads and writes are written the way
// the teacher's own MMIO code does it: raw unsafe.Pointer casts, never
// reordered by surrounding Go code since each call is a single load/store.
package irq

import (
	"unsafe"

	"addrspace"
	"defs"
	"fatal"
	"layout"
)

const (
	plicMenableBase   = layout.PlicBase + 0x2000
	plicSenableBase   = layout.PlicBase + 0x2080
	plicMpriorityBase = layout.PlicBase + 0x200000
	plicSpriorityBase = layout.PlicBase + 0x201000
	plicMclaimBase    = layout.PlicBase + 0x200004
	plicSclaimBase    = layout.PlicBase + 0x201004

	perHartStride = 0x2000
)

// Interrupt source ids this kernel enables on boot.
const (
	Uart0IRQ   uint32 = 10
	Virtio0IRQ uint32 = 1
)

func reg32(addr uint64) *uint32 {
	return (*uint32)(unsafe.Pointer(uintptr(addr)))
}

// Plic is the platform-level interrupt controller driver. The zero value
// is ready to use; there is exactly one PLIC on this platform.
type Plic struct{}

// NewPlic confirms as mapped the PLIC's MMIO window under defs.D_PLIC
// (i.e. addrspace.MakeKernel ran) before handing back a driver for it --
// the kernel AS is the only source of truth for what's actually mapped, so
// a driver that skipped this check could claim/complete against an
// unmapped window if boot order were ever disturbed.
func NewPlic(as *addrspace.AddrSpace) Plic {
	fatal.Check(as.DeviceArea(defs.Mkdev(defs.D_PLIC, 0)) != nil, "irq: PLIC MMIO window not mapped in kernel address space")
	return Plic{}
}

func senable(hart uint64) uint64   { return plicSenableBase + hart*perHartStride }
func spriority(hart uint64) uint64 { return plicSpriorityBase + hart*perHartStride }
func sclaim(hart uint64) uint64    { return plicSclaimBase + hart*perHartStride }

// Next claims the highest-priority pending interrupt for hart and returns
// its id, or ok=false if none is pending. Reading the claim register is
// itself the claim.
func (Plic) Next(hart uint64) (id uint32, ok bool) {
	v := *reg32(sclaim(hart))
	if v == 0 {
		return 0, false
	}
	return v, true
}

// Complete tells the PLIC hart has finished handling id. Writing the claim
// register completes the interrupt; it must be the same id Next returned.
func (Plic) Complete(hart uint64, id uint32) {
	*reg32(sclaim(hart)) = id
}

// SetPriority sets id's priority in [0,7]; 0 disables it regardless of
// SetThreshold.
func (Plic) SetPriority(id uint32, prio uint8) {
	base := reg32(plicSpriorityBase)
	*(*uint32)(unsafe.Pointer(uintptr(unsafe.Pointer(base)) + uintptr(id)*4)) = uint32(prio) & 7
}

// SetThreshold masks off every interrupt at or below tsh for hart; 0
// allows everything, 7 masks everything.
func (Plic) SetThreshold(hart uint64, tsh uint8) {
	*reg32(spriority(hart)) = uint32(tsh) & 7
}

// Enable turns on id in hart's S-mode enable bitset.
func (Plic) Enable(hart uint64, id uint32) {
	reg := reg32(senable(hart))
	*reg |= 1 << id
}

// Init gives UART and VirtIO non-zero priority so they can ever fire;
// called once, before any hart calls HartInit.
func (p Plic) Init() {
	p.SetPriority(Uart0IRQ, 1)
	p.SetPriority(Virtio0IRQ, 1)
}

// HartInit enables UART and VirtIO for hart and lowers its threshold to 0
// so every enabled, non-zero-priority interrupt reaches it. Called once per
// hart during bring-up.
func (p Plic) HartInit(hart uint64) {
	p.Enable(hart, Uart0IRQ)
	p.Enable(hart, Virtio0IRQ)
	p.SetThreshold(hart, 0)
}
