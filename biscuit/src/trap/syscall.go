package trap

import (
	"errors"

	"trapctx"
)

// Syscall is the kernel's syscall number space (§7). The numbering is part
// of the user/kernel ABI and must never be reordered; new syscalls are
// appended.
type Syscall int

const (
	SysFork Syscall = iota
	SysExit
	SysWait
	SysPipe
	SysRead
	SysWrite
	SysClose
	SysKill
	SysExec
	SysOpen
	SysMknod
	SysUnlink
	SysFstat
	SysLink
	SysMkdir
	SysChdir
	SysDup
	SysGetpid
	SysSbrk
	SysSleep
	SysUptime
)

// ErrNotImplemented is returned by every stub syscall body; this core
// implements the trap round trip, not the syscalls themselves (§1
// Non-goals: "syscall bodies, filesystem, scheduler policy").
var ErrNotImplemented = errors.New("trap: syscall body not implemented")

// ErrBadSyscallNumber is returned when a7 does not name a known syscall.
var ErrBadSyscallNumber = errors.New("trap: unknown syscall number")

// Handler is one syscall's body. It reads its arguments out of ctx's saved
// a0..a5 and returns the value to place back in a0.
type Handler func(ctx *trapctx.Context) (uint64, error)

func stub(ctx *trapctx.Context) (uint64, error) {
	return 0, ErrNotImplemented
}

var handlers = map[Syscall]Handler{
	SysFork:    stub,
	SysExit:    stub,
	SysWait:    stub,
	SysPipe:    stub,
	SysRead:    stub,
	SysWrite:   stub,
	SysClose:   stub,
	SysKill:    stub,
	SysExec:    stub,
	SysOpen:    stub,
	SysMknod:   stub,
	SysUnlink:  stub,
	SysFstat:   stub,
	SysLink:    stub,
	SysMkdir:   stub,
	SysChdir:   stub,
	SysDup:     stub,
	SysGetpid:  stub,
	SysSbrk:    stub,
	SysSleep:   stub,
	SysUptime:  stub,
}

// HandleSyscall implements §7's minimum contract for an ecall trap: the
// user PC is advanced past the ecall instruction unconditionally, before
// dispatch, so a syscall that returns an error still does not re-execute
// (§8 scenario 4: "a simulated ecall ... leaves the trapframe's user PC
// advanced by 4"). The dispatched body's result (or 0 on error) is written
// back to a0.
func HandleSyscall(ctx *trapctx.Context) error {
	ctx.IncrUserPC(4)

	num := Syscall(ctx.GPR(trapctx.RegA7))
	h, ok := handlers[num]
	if !ok {
		ctx.SetGPR(trapctx.RegA0, 0)
		return ErrBadSyscallNumber
	}
	ret, err := h(ctx)
	ctx.SetGPR(trapctx.RegA0, ret)
	return err
}
