// Package cpu implements the per-hart bookkeeping (§4.8): one PercpuBlock
// per hart, indexed by hart id, plus the concurrent bring-up sequence that
// initialises every hart's block.
package cpu

import (
	"context"

	"golang.org/x/sync/errgroup"

	"layout"
	"proc"
	"spinlock"
)

// PercpuBlock is the per-hart state a scheduler consults to find out what,
// if anything, is currently running on a given hart (§4.8).
type PercpuBlock struct {
	mu             spinlock.RWMutex
	hartID         uint64
	runningProcess *proc.PCB
}

// CPUS is indexed by hart id; hart i's block lives at CPUS[i].
var CPUS [layout.NCPUS]PercpuBlock

// HartID returns the hart id this block was initialised with.
func (b *PercpuBlock) HartID() uint64 {
	return b.hartID
}

// RunningProcess returns the PCB currently scheduled on this hart, or nil
// if the hart is idle.
func (b *PercpuBlock) RunningProcess() *proc.PCB {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.runningProcess
}

// SetRunningProcess installs p (possibly nil) as the process scheduled on
// this hart.
func (b *PercpuBlock) SetRunningProcess(p *proc.PCB) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.runningProcess = p
}

// Current returns the block for the hart the calling goroutine is running
// on. Callers are expected to already be pinned to a hart (no goroutine
// migration above this layer); the hart id itself comes from riscv.HartID.
func Current(hartID uint64) *PercpuBlock {
	return &CPUS[hartID]
}

// hartInit performs the one-time per-hart bring-up work: stamping the
// block's hart id and clearing any running-process state left behind by a
// previous boot stage. Called once per hart from BringUpAll.
func hartInit(hartID uint64) error {
	b := &CPUS[hartID]
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hartID = hartID
	b.runningProcess = nil
	return nil
}

// BringUpAll runs hartInit concurrently for every hart in [0, layout.NCPUS)
// and waits for all of them to finish, returning the first error
// encountered (if any). On a real boot each goroutine here corresponds to
// one hart having been released from its WFI spin loop by the boot hart;
// in tests it simply exercises the same initialisation path concurrently.
func BringUpAll(ctx context.Context) error {
	g, _ := errgroup.WithContext(ctx)
	for hart := uint64(0); hart < uint64(layout.NCPUS); hart++ {
		hart := hart
		g.Go(func() error {
			return hartInit(hart)
		})
	}
	return g.Wait()
}
