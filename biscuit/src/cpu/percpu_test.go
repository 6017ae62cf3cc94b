package cpu

import (
	"context"
	"testing"

	"layout"
)

func TestBringUpAllInitialisesEveryHart(t *testing.T) {
	if err := BringUpAll(context.Background()); err != nil {
		t.Fatalf("BringUpAll: %v", err)
	}
	for hart := 0; hart < layout.NCPUS; hart++ {
		b := Current(uint64(hart))
		if b.HartID() != uint64(hart) {
			t.Fatalf("CPUS[%d].HartID() = %d, want %d", hart, b.HartID(), hart)
		}
		if b.RunningProcess() != nil {
			t.Fatalf("CPUS[%d] has a running process right after bring-up", hart)
		}
	}
}

func TestSetRunningProcessRoundTrip(t *testing.T) {
	b := Current(0)
	b.SetRunningProcess(nil)
	if b.RunningProcess() != nil {
		t.Fatal("expected nil running process")
	}
}
