package pagetable

import (
	"unsafe"

	"fatal"
	"frame"
	"mem"
)

// Node is a physical frame interpreted as 512 page table entries, reached
// through the kernel's identity mapping (§3: "accessed through the identity
// mapping the kernel maintains for all physical memory").
type Node [512]PTE

func nodeAt(pa mem.PhysAddr) *Node {
	return (*Node)(unsafe.Pointer(mem.Dmap(pa)))
}

// Guard is the PageTableGuard of §3: the root node plus every interior node
// frame this table has allocated. Dropping (Close) recycles all of them.
type Guard struct {
	alloc *frame.Allocator
	root  *frame.Guard
	nodes []*frame.Guard
}

// New allocates a zeroed root node from alloc and wraps it in a fresh
// Guard.
func New(alloc *frame.Allocator) (*Guard, error) {
	root, err := frame.Alloc(alloc)
	if err != nil {
		return nil, err
	}
	return &Guard{alloc: alloc, root: root}, nil
}

// RootAddr returns the physical address of the root node, the value that
// feeds SATP's PPN field.
func (g *Guard) RootAddr() mem.PhysAddr {
	return g.root.Addr()
}

// Close recycles every interior node frame and the root, in that order (the
// order does not matter for correctness since each frame.Guard.Close only
// touches the Allocator, but interior-first mirrors the original's drop
// order of "inner nodes before the root they point into").
func (g *Guard) Close() {
	for _, n := range g.nodes {
		n.Close()
	}
	g.nodes = nil
	g.root.Close()
}

// walk descends from the root toward va's level-0 PTE. When alloc is true,
// missing interior nodes (levels 2 and 1) are allocated and zeroed on
// demand and their frame.Guard is recorded in g.nodes (§4.2 step 1). When
// alloc is false, walk returns nil on the first invalid interior PTE
// instead of allocating.
func (g *Guard) walk(va mem.VirtAddr, alloc bool) *PTE {
	node := nodeAt(g.RootAddr())
	for lvl := uint(2); lvl >= 1; lvl-- {
		idx := va.VPN(lvl)
		pte := &node[idx]
		if !pte.IsValid() {
			if !alloc {
				return nil
			}
			ng, err := frame.Alloc(g.alloc)
			if err != nil {
				fatal.Halt("pagetable: out of frames allocating interior node")
			}
			g.nodes = append(g.nodes, ng)
			*pte = MakePTE(ng.Addr(), 0)
		}
		node = nodeAt(pte.Addr())
	}
	return &node[va.VPN(0)]
}

// Translate performs the standard Sv39 three-level walk (§4.2). It returns
// the translated physical address (pa = PTE_PPN<<12 | va.offset) and the
// leaf's flags, or ok=false if any intermediate PTE is invalid.
func (g *Guard) Translate(va mem.VirtAddr) (pa mem.PhysAddr, flags PageFlags, ok bool) {
	pte := g.walk(va, false)
	if pte == nil || !pte.IsValid() {
		return 0, 0, false
	}
	return pte.Addr() + mem.PhysAddr(va.PageOffset()), pte.Flags(), true
}

// MapOneAllocate maps va to pa with flags, allocating any missing interior
// nodes along the way (§4.2). Mapping an already-valid leaf PTE is a
// programmer error (a duplicate mapping bug) and is fatal, never silently
// overwritten.
func (g *Guard) MapOneAllocate(va mem.VirtAddr, pa mem.PhysAddr, flags PageFlags) {
	pte := g.walk(va, true)
	if pte.IsValid() {
		fatal.Halt("pagetable: duplicate mapping of %v", va)
	}
	*pte = MakePTE(pa, flags)
}

// SetWritable toggles the Write bit of the leaf PTE mapping va, returning
// whether a mapping was found to toggle. Used by LockTable/UnlockTable
// against the kernel's identity-mapped view of another table's interior
// node pages (SPEC_FULL §C): since the kernel identity maps all physical
// memory, va here is numerically equal to the node's physical address.
func (g *Guard) SetWritable(va mem.VirtAddr, w bool) bool {
	pte := g.walk(va, false)
	if pte == nil || !pte.IsValid() {
		return false
	}
	if w {
		*pte = MakePTE(pte.Addr(), pte.Flags()|Write)
	} else {
		*pte = MakePTE(pte.Addr(), pte.Flags()&^Write)
	}
	return true
}

// LockTable write-protects every interior node page this Guard owns, by
// clearing the Write bit of that page's leaf PTE in the kernel's identity
// mapping (§4.2). kernelPT must be loaded on a hart different from the one
// whose SATP points at g, or that hart will fault on its next TLB miss that
// needs to read-modify-write one of these very node pages (§4.2, §9).
func (g *Guard) LockTable(kernelPT *Guard) {
	for _, n := range g.nodes {
		va := mem.VirtAddr(n.Addr())
		if !kernelPT.SetWritable(va, false) {
			fatal.Halt("pagetable: node page %v not identity mapped by kernel", n.Addr())
		}
	}
}

// UnlockTable restores the Write bit cleared by LockTable.
func (g *Guard) UnlockTable(kernelPT *Guard) {
	for _, n := range g.nodes {
		va := mem.VirtAddr(n.Addr())
		if !kernelPT.SetWritable(va, true) {
			fatal.Halt("pagetable: node page %v not identity mapped by kernel", n.Addr())
		}
	}
}
