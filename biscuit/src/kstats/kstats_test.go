package kstats

import (
	"testing"

	"fatal"
	"frame"
	"layout"
	"mem"
)

func TestSnapshotReflectsAllocatorState(t *testing.T) {
	a := &frame.Allocator{}
	a.Init(0, mem.PhysAddr(8*layout.PGSIZE))
	if _, err := a.AllocateOne(); err != nil {
		t.Fatalf("AllocateOne: %v", err)
	}

	p := Snapshot(a, 3)
	if len(p.Sample) != 2 {
		t.Fatalf("len(Sample) = %d, want 2", len(p.Sample))
	}

	frameSample := p.Sample[0]
	if frameSample.Value[0] != 1 {
		t.Fatalf("frames_used = %d, want 1", frameSample.Value[0])
	}
	if frameSample.Value[1] != 7 {
		t.Fatalf("frames_free = %d, want 7", frameSample.Value[1])
	}

	nodeSample := p.Sample[1]
	if nodeSample.Value[0] != 3 {
		t.Fatalf("live node guards = %d, want 3", nodeSample.Value[0])
	}
}

func TestInstallRunsSnapshotOnFatalHalt(t *testing.T) {
	defer func() { fatal.Diagnostics = nil; fatal.Hook = nil }()

	a := &frame.Allocator{}
	a.Init(0, mem.PhysAddr(4*layout.PGSIZE))
	snapshotRan := false
	Install(a, func() int { snapshotRan = true; return 2 })

	hookRan := false
	fatal.Hook = func(string) { hookRan = true }

	fatal.Halt("test halt")

	if !hookRan {
		t.Fatal("fatal.Hook did not run")
	}
	if !snapshotRan {
		t.Fatal("fatal.Halt did not run the snapshot Install registered")
	}
}
