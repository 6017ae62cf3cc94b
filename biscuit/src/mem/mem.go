// Package mem defines the physical/virtual address primitives and the
// frame/virtual-frame types built on top of them. Everything here is a thin
// wrapper over a uintptr-sized word; only the frame constructors (on an
// unaligned address) and VPN (on a bad level) can panic. No allocation
// happens in this package.
package mem

import (
	"fmt"

	"layout"
	"util"
)

/// PhysAddr is an opaque physical address.
type PhysAddr uint64

/// VirtAddr is an opaque virtual address.
type VirtAddr uint64

/// RoundDown aligns a physical address down to the page below it.
func (p PhysAddr) RoundDown() PhysAddr {
	return PhysAddr(util.Rounddown(uint64(p), layout.PGSIZE))
}

/// RoundUp aligns a physical address up to the page at or above it.
func (p PhysAddr) RoundUp() PhysAddr {
	return PhysAddr(util.Roundup(uint64(p), layout.PGSIZE))
}

/// PageOffset returns the byte offset of p within its page.
func (p PhysAddr) PageOffset() uint64 {
	return uint64(p) & layout.PGOFFSET
}

/// PPN returns the physical page number (p >> PGSHIFT).
func (p PhysAddr) PPN() uint64 {
	return uint64(p) >> layout.PGSHIFT
}

/// Aligned reports whether p is page aligned.
func (p PhysAddr) Aligned() bool {
	return p.PageOffset() == 0
}

func (p PhysAddr) String() string {
	return fmt.Sprintf("pa:0x%x", uint64(p))
}

/// RoundDown aligns a virtual address down to the page below it.
func (v VirtAddr) RoundDown() VirtAddr {
	return VirtAddr(util.Rounddown(uint64(v), layout.PGSIZE))
}

/// RoundUp aligns a virtual address up to the page at or above it.
func (v VirtAddr) RoundUp() VirtAddr {
	return VirtAddr(util.Roundup(uint64(v), layout.PGSIZE))
}

/// PageOffset returns the byte offset of v within its page.
func (v VirtAddr) PageOffset() uint64 {
	return uint64(v) & layout.PGOFFSET
}

/// VPN returns the Sv39 index for level lvl (0, 1 or 2; 0 is the leaf
/// level). Panics on any other level -- a bad level is a programming bug,
/// not a runtime condition.
func (v VirtAddr) VPN(lvl uint) uint64 {
	if lvl > 2 {
		panic("mem: bad VPN level")
	}
	shift := layout.PGSHIFT + 9*lvl
	return (uint64(v) >> shift) & 0x1ff
}

/// Aligned reports whether v is page aligned.
func (v VirtAddr) Aligned() bool {
	return v.PageOffset() == 0
}

func (v VirtAddr) String() string {
	return fmt.Sprintf("va:0x%x", uint64(v))
}

/// Frame identifies a page-aligned physical page by its page number.
type Frame struct {
	pa PhysAddr
}

/// NewFrame wraps pa as a Frame. Panics if pa is not page aligned -- the
/// caller is expected to have rounded already.
func NewFrame(pa PhysAddr) Frame {
	if !pa.Aligned() {
		panic("mem: unaligned frame")
	}
	return Frame{pa: pa}
}

/// Addr returns the base physical address of the frame.
func (f Frame) Addr() PhysAddr { return f.pa }

/// Number returns the frame's page number.
func (f Frame) Number() uint64 { return f.pa.PPN() }

/// Step returns the next frame, i.e. this frame's base plus one page. Used
/// to walk a contiguous run one frame at a time.
func (f Frame) Step() Frame {
	return Frame{pa: f.pa + PhysAddr(layout.PGSIZE)}
}

/// VirtFrame is the virtual-address analogue of Frame.
type VirtFrame struct {
	va VirtAddr
}

/// NewVirtFrame wraps va as a VirtFrame. Panics if va is not page aligned.
func NewVirtFrame(va VirtAddr) VirtFrame {
	if !va.Aligned() {
		panic("mem: unaligned virtual frame")
	}
	return VirtFrame{va: va}
}

/// Addr returns the base virtual address of the frame.
func (vf VirtFrame) Addr() VirtAddr { return vf.va }

/// Step returns the next virtual frame.
func (vf VirtFrame) Step() VirtFrame {
	return VirtFrame{va: vf.va + VirtAddr(layout.PGSIZE)}
}

/// FrameRange is a half-open, page-stepped [Begin, End) range of frames.
type FrameRange struct {
	Begin, End Frame
}

/// Count returns the number of frames in the range.
func (r FrameRange) Count() int {
	return int((r.End.Number() - r.Begin.Number()))
}

/// Each calls fn once per frame in the range, in ascending order.
func (r FrameRange) Each(fn func(Frame)) {
	for f := r.Begin; f.Number() < r.End.Number(); f = f.Step() {
		fn(f)
	}
}

/// VirtFrameRange is the virtual analogue of FrameRange.
type VirtFrameRange struct {
	Begin, End VirtFrame
}

/// Each calls fn once per virtual frame in the range, in ascending order.
func (r VirtFrameRange) Each(fn func(VirtFrame)) {
	for f := r.Begin; uint64(f.Addr()) < uint64(r.End.Addr()); f = f.Step() {
		fn(f)
	}
}
