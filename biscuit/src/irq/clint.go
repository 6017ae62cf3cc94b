package irq

import (
	"unsafe"

	"addrspace"
	"defs"
	"fatal"
	"layout"
)

const (
	clintMtimecmpBase = layout.ClintBase + 0x4000
	clintMtimeBase    = layout.ClintBase + 0xbff8
)

func timeCmpAddr(hart uint64) uint64 {
	return clintMtimecmpBase + 8*hart
}

func reg64(addr uint64) *uint64 {
	return (*uint64)(unsafe.Pointer(uintptr(addr)))
}

// Clint is the core-local interruptor driver: one free-running mtime
// counter, plus one mtimecmp comparator per hart. A hart's scheduler tick
// fires whenever mtime reaches its mtimecmp value.
type Clint struct{}

// NewClint confirms as mapped the CLINT's MMIO window under defs.D_CLINT
// before handing back a driver for it, mirroring NewPlic's check.
func NewClint(as *addrspace.AddrSpace) Clint {
	fatal.Check(as.DeviceArea(defs.Mkdev(defs.D_CLINT, 0)) != nil, "irq: CLINT MMIO window not mapped in kernel address space")
	return Clint{}
}

// Now reads the platform's free-running timer.
func (Clint) Now() uint64 {
	return *reg64(clintMtimeBase)
}

// RearmTimer schedules hart's next tick interval cycles from now (§4.8,
// layout.SchedulerIntervalMillis' worth of cycles in practice). Called
// once at boot and again from the timer handler itself to keep the tick
// periodic.
func (c Clint) RearmTimer(hart uint64, interval uint64) {
	*reg64(timeCmpAddr(hart)) = c.Now() + interval
}

// TickCycles converts a millisecond period into a CLINT cycle count using
// the platform's fixed timebase frequency (layout.ClintFreqHz).
func TickCycles(ms uint64) uint64 {
	return layout.ClintFreqHz / 1000 * ms
}
