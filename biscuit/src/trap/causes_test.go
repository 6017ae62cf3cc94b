package trap

import "testing"

func TestIsInterruptAndCode(t *testing.T) {
	cases := []struct {
		scause        uint64
		wantInterrupt bool
		wantCode      uint64
	}{
		{causeInterruptBit | InterruptSupervisorTimer, true, InterruptSupervisorTimer},
		{causeInterruptBit | InterruptSupervisorExternal, true, InterruptSupervisorExternal},
		{ExceptionEnvCallFromUMode, false, ExceptionEnvCallFromUMode},
		{ExceptionInstructionPageFault, false, ExceptionInstructionPageFault},
	}
	for _, c := range cases {
		if got := IsInterrupt(c.scause); got != c.wantInterrupt {
			t.Errorf("IsInterrupt(%#x) = %v, want %v", c.scause, got, c.wantInterrupt)
		}
		if got := Code(c.scause); got != c.wantCode {
			t.Errorf("Code(%#x) = %#x, want %#x", c.scause, got, c.wantCode)
		}
	}
}
