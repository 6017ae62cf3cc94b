// Package kstats folds the kernel's own allocation counters -- the frame
// allocator's free/used frame counts and the number of live page-table node
// guards -- into a pprof profile.Profile. Install wires Snapshot into
// fatal's halt-time diagnostics, so every invariant violation's log gets a
// usage snapshot alongside it; a future profiling device (D_PROF) would
// reuse the same Profile as its payload format.
package kstats

import (
	"fmt"

	"github.com/google/pprof/profile"

	"defs"
	"fatal"
	"frame"
	"klog"
	"layout"
)

const (
	componentFrameAllocator = "frame_allocator"
	componentPageTables     = "page_table_nodes"
)

func function(id uint64, name string) *profile.Function {
	return &profile.Function{ID: id, Name: name, SystemName: name}
}

func location(id uint64, fn *profile.Function) *profile.Location {
	return &profile.Location{
		ID:   id,
		Line: []profile.Line{{Function: fn}},
	}
}

// Snapshot builds a one-shot profile of the kernel's current allocation
// state. alloc is the live frame allocator; liveNodeGuards is the number of
// currently-open page-table interior-node frame guards (tracked by callers
// that walk pagetable.Guard; the pagetable package itself does not keep a
// running total, since it is scoped to one address space at a time).
func Snapshot(alloc *frame.Allocator, liveNodeGuards int) *profile.Profile {
	frameFn := function(1, componentFrameAllocator)
	nodeFn := function(2, componentPageTables)
	frameLoc := location(1, frameFn)
	nodeLoc := location(2, nodeFn)

	free := alloc.Free()
	total := alloc.Total()
	used := total - free

	p := &profile.Profile{
		Comments: []string{fmt.Sprintf("device=%d", defs.D_PROF)},
		SampleType: []*profile.ValueType{
			{Type: "frames_used", Unit: "count"},
			{Type: "frames_free", Unit: "count"},
		},
		DefaultSampleType: "frames_used",
		PeriodType:        &profile.ValueType{Type: "space", Unit: "bytes"},
		Period:            layout.PGSIZE,
		Function:          []*profile.Function{frameFn, nodeFn},
		Location:          []*profile.Location{frameLoc, nodeLoc},
		Sample: []*profile.Sample{
			{
				Location: []*profile.Location{frameLoc},
				Value:    []int64{int64(used), int64(free)},
				Label:    map[string][]string{"component": {componentFrameAllocator}},
			},
			{
				Location: []*profile.Location{nodeLoc},
				Value:    []int64{int64(liveNodeGuards), 0},
				Label:    map[string][]string{"component": {componentPageTables}},
			},
		},
	}
	return p
}

// Install registers Snapshot as fatal's halt-time diagnostic: every
// fatal.Halt call logs a frame/page-table usage snapshot right after the
// call site it prints, so a post-mortem log has the allocator's state next
// to whatever invariant tripped. liveNodeGuards is called fresh each halt,
// since the kernel's page-table footprint changes across its lifetime.
func Install(alloc *frame.Allocator, liveNodeGuards func() int) {
	fatal.Diagnostics = func() {
		p := Snapshot(alloc, liveNodeGuards())
		for _, s := range p.Sample {
			klog.Info("kstats: %v used=%d free=%d", s.Label["component"], s.Value[0], s.Value[1])
		}
	}
}
