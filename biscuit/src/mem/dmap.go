package mem

import (
	"unsafe"

	"layout"
)

// Unlike the amd64 teacher, which must build a recursive/direct map slot
// because its kernel does not identity map all of physical memory, this
// kernel's make_kernel() identity maps every physical byte it may touch.
// The "direct map" therefore degenerates to PA == VA for the kernel's own
// view of memory, and Dmap is just an unsafe.Pointer cast guarded by the
// PhysTop bound.

/// Page is a page-aligned, page-sized window of bytes.
type Page [layout.PGSIZE]byte

/// Dmap returns the kernel's direct view of the page-aligned page at pa. It
/// panics if pa falls outside the physical window this kernel manages.
func Dmap(pa PhysAddr) *Page {
	if !pa.Aligned() {
		panic("mem: Dmap of unaligned address")
	}
	if uint64(pa) >= layout.PhysTop {
		panic("mem: Dmap out of physical range")
	}
	return (*Page)(unsafe.Pointer(uintptr(pa)))
}

/// Dmap8 returns a byte slice over the page containing pa, starting at pa's
/// offset within that page.
func Dmap8(pa PhysAddr) []byte {
	pg := Dmap(pa.RoundDown())
	return pg[pa.PageOffset():]
}

/// Zero overwrites the page at pa with zero bytes.
func Zero(pa PhysAddr) {
	pg := Dmap(pa)
	for i := range pg {
		pg[i] = 0
	}
}
