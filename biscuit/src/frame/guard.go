package frame

import (
	"mem"
	"riscv"
)

// Guard is the exclusive frame-ownership guard (§2.2, §3 "FrameGuard"). It
// owns exactly one frame obtained from an Allocator; Close returns it and
// issues a TLB-invalidating fence. A Guard must not be copied -- copying
// would give two owners a chance to double-free the same frame -- callers
// pass *Guard.
type Guard struct {
	alloc  *Allocator
	frame  mem.Frame
	closed bool
}

// Alloc reserves a single frame from a and wraps it in an owning Guard.
func Alloc(a *Allocator) (*Guard, error) {
	pa, err := a.AllocateOne()
	if err != nil {
		return nil, err
	}
	mem.Zero(pa)
	return &Guard{alloc: a, frame: mem.NewFrame(pa)}, nil
}

// Frame returns the frame this guard owns. Panics if called after Close.
func (g *Guard) Frame() mem.Frame {
	if g.closed {
		panic("frame: use of frame after Guard.Close")
	}
	return g.frame
}

// Addr is shorthand for Frame().Addr().
func (g *Guard) Addr() mem.PhysAddr {
	return g.Frame().Addr()
}

// Close returns the frame to its allocator. Closing twice is a double free
// and is handled (fatally) by Allocator.Deallocate; Close itself guards
// against it locally so the common case (defer guard.Close()) never
// double-frees even if called twice by mistake within the same owner.
func (g *Guard) Close() {
	if g.closed {
		return
	}
	g.closed = true
	g.alloc.Deallocate(g.frame.Addr())
	riscv.SfenceVMA()
}

// VirtFrameGuard is the tagged union of §3's VirtFrameGuard: a VA-range's
// backing is either a frame this VA range exclusively owns, a (reserved,
// unsupported) copy-on-write shared frame, or a frame the VA range borrows
// without owning (the trampoline, which lives inside the kernel binary).
type VirtFrameGuard interface {
	// PhysAddr returns the physical frame currently backing this VA.
	PhysAddr() mem.PhysAddr
	// Close releases any ownership this guard holds. PhysBorrowed's Close
	// is a no-op since it never owned the frame.
	Close()
}

// Exclusive wraps a *Guard as a VirtFrameGuard: this VA range is the sole
// owner of the frame.
type Exclusive struct {
	*Guard
}

func (e Exclusive) PhysAddr() mem.PhysAddr { return e.Guard.Addr() }

// CowShared is the refcounted copy-on-write variant. The core reserves the
// type but does not implement sharing (§4.2: "CowShared is reserved but not
// supported in the core (fatal if encountered during map)") -- demand
// paging and COW fork are explicit non-goals (§1).
type CowShared struct {
	shared *sharedFrame
}

type sharedFrame struct {
	alloc *Allocator
	frame mem.Frame
	refs  int32
}

func (c CowShared) PhysAddr() mem.PhysAddr { return c.shared.frame.Addr() }

func (c CowShared) Close() {
	panic("frame: CowShared is reserved but not supported by this core")
}

// PhysBorrowed wraps a frame this VA range does not own -- e.g. the
// trampoline, whose physical page is part of the kernel image and is never
// handed back to an Allocator.
type PhysBorrowed struct {
	frame mem.Frame
}

// Borrow wraps pa as a non-owning VirtFrameGuard.
func Borrow(pa mem.PhysAddr) PhysBorrowed {
	return PhysBorrowed{frame: mem.NewFrame(pa.RoundDown())}
}

func (b PhysBorrowed) PhysAddr() mem.PhysAddr { return b.frame.Addr() }
func (b PhysBorrowed) Close()                 {}
