package trapctx

import "testing"

func TestGPRRoundTrip(t *testing.T) {
	c := &Context{}
	c.SetGPR(RegA0, 42)
	if got := c.GPR(RegA0); got != 42 {
		t.Fatalf("GPR(a0) = %d, want 42", got)
	}
}

func TestIncrUserPC(t *testing.T) {
	c := &Context{}
	c.SetUserPC(0x1000)
	c.IncrUserPC(4)
	if got := c.UserPC(); got != 0x1004 {
		t.Fatalf("UserPC = %#x, want 0x1004", got)
	}
}

func TestKernelFieldsRoundTrip(t *testing.T) {
	c := &Context{}
	c.SetKernelSatp(0xdead)
	c.SetKernelStackTop(0xbeef)
	c.SetKernelHartID(3)
	c.SetTrapHandler(0xf00d)
	if c.KernelSatp() != 0xdead || c.KernelStackTop() != 0xbeef ||
		c.KernelHartID() != 3 || c.TrapHandler() != 0xf00d {
		t.Fatal("kernel-side fields did not round trip")
	}
}

func TestBadRegisterIndexPanics(t *testing.T) {
	c := &Context{}
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for out-of-range register index")
		}
	}()
	c.GPR(32)
}
