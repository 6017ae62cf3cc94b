// Package frame implements the physical frame allocator (FA) and the frame
// ownership guards layered on top of it (§4.1, §2.2).
package frame

import (
	"fmt"

	"layout"
	"mem"
	"spinlock"
)

// ErrNoFrame is returned by Allocate when no run of the requested length is
// free.
var ErrNoFrame = fmt.Errorf("frame: out of frames")

// Allocator hands out page-aligned physical frames from a fixed contiguous
// physical window. slots[i] is 0 if frame i is free, or n>0 if frame i is
// the k-th frame of a live n-frame allocation -- every frame covered by an
// allocation stores the same run length so Deallocate can recover it from
// just the base frame (§4.1).
type Allocator struct {
	mu    spinlock.Mutex
	base  mem.PhysAddr
	slots []uint32
}

// Global is the kernel's single physical frame allocator, initialized once
// by Init during boot.
var Global = &Allocator{}

// Init configures Global (or, in tests, a fresh Allocator) over the
// page-aligned window [start, end).
func (a *Allocator) Init(start, end mem.PhysAddr) {
	if !start.Aligned() || !end.Aligned() {
		panic("frame: heap window must be page aligned")
	}
	n := (uint64(end) - uint64(start)) / layout.PGSIZE
	a.base = start
	a.slots = make([]uint32, n)
}

func (a *Allocator) indexOf(pa mem.PhysAddr) int {
	return int((uint64(pa) - uint64(a.base)) / layout.PGSIZE)
}

func (a *Allocator) addrOf(i int) mem.PhysAddr {
	return a.base + mem.PhysAddr(uint64(i)*layout.PGSIZE)
}

// Allocate reserves the first run of ceil(size/PAGE) consecutive free
// frames and returns the base physical address of the run.
func (a *Allocator) Allocate(size uint64) (mem.PhysAddr, error) {
	n := uint32((size + layout.PGSIZE - 1) / layout.PGSIZE)
	if n == 0 {
		n = 1
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	run := uint32(0)
	start := -1
	for i, s := range a.slots {
		if s == 0 {
			if run == 0 {
				start = i
			}
			run++
			if run == n {
				for j := start; j < start+int(n); j++ {
					a.slots[j] = n
				}
				return a.addrOf(start), nil
			}
		} else {
			run = 0
			start = -1
		}
	}
	return 0, ErrNoFrame
}

// AllocateOne is shorthand for Allocate(PGSIZE).
func (a *Allocator) AllocateOne() (mem.PhysAddr, error) {
	return a.Allocate(layout.PGSIZE)
}

// Deallocate returns the run starting at pa to the free pool. A mismatched
// run (every covered slot must equal the recorded length) is a double free
// and is fatal -- see frame.Guard.Close, which is the only intended caller.
func (a *Allocator) Deallocate(pa mem.PhysAddr) {
	a.mu.Lock()
	defer a.mu.Unlock()

	i := a.indexOf(pa)
	if i < 0 || i >= len(a.slots) {
		panic("frame: deallocate out of range")
	}
	n := a.slots[i]
	if n == 0 {
		panic("frame: double free")
	}
	for j := i; j < i+int(n); j++ {
		if a.slots[j] != n {
			panic("frame: corrupt run on deallocate")
		}
		a.slots[j] = 0
	}
}

// Free reports the number of free frames, for diagnostics (kstats.Snapshot).
func (a *Allocator) Free() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	c := 0
	for _, s := range a.slots {
		if s == 0 {
			c++
		}
	}
	return c
}

// Total reports the number of frames in the managed window.
func (a *Allocator) Total() int {
	return len(a.slots)
}
