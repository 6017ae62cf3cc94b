package trap

import "mem"

// Trampoline records the physical layout of the trampoline code page: where
// __uservec and __userret live relative to the page's base. A boot
// sequencer (out of scope for this core) copies the trampoline assembly
// into a frame and fills this in once before any hart takes its first trap.
type Trampoline struct {
	BasePA    mem.PhysAddr
	UservecPA mem.PhysAddr
	UserretPA mem.PhysAddr
}

// UserretVA computes __userret's address as seen through the universal
// trampoline mapping rather than its physical linker address (§4.5 step 5:
// "not its physical linker address; the user AS does not identity-map
// kernel code"). trampolineBaseVA is the fixed VA the trampoline page is
// mapped at in every address space (layout.TrampolineBaseVA).
func (t Trampoline) UserretVA(trampolineBaseVA uint64) uint64 {
	offset := uint64(t.UserretPA) - uint64(t.BasePA)
	return trampolineBaseVA + offset
}
