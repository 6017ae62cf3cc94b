// Package layout defines the fixed physical and virtual memory map for the
// RV64 virt machine this kernel targets. Every constant here is part of the
// boot ABI: the linker script, the trampoline assembly and the address space
// builders all agree on these values, so nothing in this package may be
// computed at runtime.
package layout

/// PGSHIFT is the base-2 exponent of the page size.
const PGSHIFT uint = 12

/// PGSIZE is the size of a single page in bytes.
const PGSIZE uint64 = 1 << PGSHIFT

/// PGOFFSET masks the byte offset within a page.
const PGOFFSET uint64 = PGSIZE - 1

/// PGMASK masks the page number bits of an address.
const PGMASK uint64 = ^PGOFFSET

/// MAXVA is one past the highest address representable in Sv39's positive
/// half (bit 37 is the top usable VA bit; bit 38 and above select the
/// canonical-hole/negative half this kernel never uses).
const MAXVA uint64 = 1 << 38

/// TrampolineBaseVA is the VA at which the single trampoline page is mapped
/// in the kernel AS and in every user AS. It is always the top page below
/// MAXVA so that it never collides with a legitimately sized user or kernel
/// region.
const TrampolineBaseVA uint64 = MAXVA - PGSIZE

/// TrapframeBaseUserVA is the per-process VA of the trapframe page inside a
/// user address space. It sits two pages below the trampoline, leaving one
/// unmapped guard page between them so a runaway trampoline write can never
/// clobber it by accident.
const TrapframeBaseUserVA uint64 = TrampolineBaseVA - 2*PGSIZE

/// TextBaseUserVA is the VA at which the init program's .text begins in
/// every user address space.
const TextBaseUserVA uint64 = 0x1_0000

/// KernelBase is the physical load address of the kernel image.
const KernelBase uint64 = 0x8000_0000

/// PhysTop is one past the last physical byte the kernel may hand out as a
/// general-purpose frame (128 MiB window above KernelBase).
const PhysTop uint64 = KernelBase + 128*1024*1024

/// KernelStackSize and UserStackSize are both two pages: one guard-adjacent
/// working page plus slack for the trap frame's worth of saved state.
const KernelStackSize uint64 = 2 * PGSIZE
const UserStackSize uint64 = 2 * PGSIZE

// MMIO windows. Each is identity mapped into the kernel address space by
// addrspace.MakeKernel.
const (
	ClintBase uint64 = 0x0200_0000
	ClintSize uint64 = 0x01_0000

	PlicBase uint64 = 0x0C00_0000
	PlicSize uint64 = 0x40_0000

	UartBase uint64 = 0x1000_0000
	UartSize uint64 = PGSIZE

	Virtio0Base uint64 = 0x1000_1000
	Virtio0Size uint64 = PGSIZE
)

/// NCPUS is the number of harts this kernel configures CPUS for.
const NCPUS int = 8

/// SchedulerIntervalMillis is the CLINT timer tick period; owned by the
/// boot sequencer, quoted here only because the trap core's timer-ack path
/// needs the same constant for its rearm arithmetic.
const SchedulerIntervalMillis uint64 = 10

/// ClintFreqHz is QEMU's virt machine CLINT timebase-frequency (the
/// device tree's "timebase-frequency" property), used to convert
/// SchedulerIntervalMillis into a CLINT cycle count.
const ClintFreqHz uint64 = 10_000_000
