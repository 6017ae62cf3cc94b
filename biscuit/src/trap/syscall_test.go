package trap

import (
	"testing"

	"trapctx"
)

// §8 scenario 4: dispatching a syscall always advances the user PC by 4,
// even for a syscall whose body is unimplemented.
func TestHandleSyscallAdvancesPC(t *testing.T) {
	ctx := &trapctx.Context{}
	ctx.SetUserPC(0x1000)
	ctx.SetGPR(trapctx.RegA7, uint64(SysGetpid))

	err := HandleSyscall(ctx)
	if err != ErrNotImplemented {
		t.Fatalf("HandleSyscall err = %v, want ErrNotImplemented", err)
	}
	if got := ctx.UserPC(); got != 0x1004 {
		t.Fatalf("UserPC after syscall = %#x, want 0x1004", got)
	}
}

func TestHandleSyscallUnknownNumber(t *testing.T) {
	ctx := &trapctx.Context{}
	ctx.SetUserPC(0x2000)
	ctx.SetGPR(trapctx.RegA7, 9999)

	err := HandleSyscall(ctx)
	if err != ErrBadSyscallNumber {
		t.Fatalf("HandleSyscall err = %v, want ErrBadSyscallNumber", err)
	}
	if got := ctx.UserPC(); got != 0x2004 {
		t.Fatalf("UserPC after syscall = %#x, want 0x2004", got)
	}
}

func TestSyscallStringNames(t *testing.T) {
	cases := map[Syscall]string{
		SysFork:   "SysFork",
		SysUptime: "SysUptime",
	}
	for s, want := range cases {
		if got := s.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", s, got, want)
		}
	}
	if got := Syscall(999).String(); got != "Syscall(999)" {
		t.Errorf("Syscall(999).String() = %q, want Syscall(999)", got)
	}
}
