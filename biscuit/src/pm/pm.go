// Package pm implements the Process Manager (PM, §4.8): the resource table
// of every live PCB plus the FIFO of runnable pids the scheduler drains.
package pm

import (
	"errors"

	"addrspace"
	"fatal"
	"frame"
	"limits"
	"proc"
	"res"
	"spinlock"
)

// InitialMaxNProcs bounds the resource table's starting capacity (§8
// scenario 6); the table itself grows past it on demand, Sysprocs is the
// separate policy cap PM enforces on top of that.
const InitialMaxNProcs = 128

// ErrTooManyProcs is returned by CreateProcess when the configured process
// limit (limits.Syslimit.Sysprocs) has already been reached.
var ErrTooManyProcs = errors.New("pm: system process limit reached")

// Manager owns the PCB resource table and the FIFO ready queue (§4.8).
// ready holds pids, not PCBs, so a pid can be looked up through the table
// exactly the way the spec's pop_one/push_one contact points expect.
type Manager struct {
	mu    spinlock.Mutex
	table *res.Table[*proc.PCB]
	ready []int
	count int
	alloc *frame.Allocator
}

// New constructs an empty Manager backed by alloc for every frame a created
// process needs (kernel stack, page table, user stack, trapframe).
func New(alloc *frame.Allocator) *Manager {
	return &Manager{
		table: res.NewTable[*proc.PCB](InitialMaxNProcs),
		alloc: alloc,
	}
}

// CreateProcess reserves a pid, allocates its PCB and kernel stack,
// installs the given user address space, runs FirstExecutionInit, and
// enqueues it on the ready FIFO (§4.8 create_process). trapHandlerVA and
// kernelSatp are the kernel VA of usertrap and the kernel AS's SATP value,
// respectively -- both constant for the life of the boot. limits.Syslimit's
// Sysprocs field is the configured ceiling on the count this guards;
// PM's own lock is the "proclock" that field's doc comment refers to.
func (m *Manager) CreateProcess(userAS *addrspace.AddrSpace, trapHandlerVA, kernelSatp uint64) (int, error) {
	m.mu.Lock()
	if m.count >= limits.Syslimit.Sysprocs {
		m.mu.Unlock()
		return 0, ErrTooManyProcs
	}
	m.count++
	m.mu.Unlock()

	pid := m.table.Reserve()
	pcb, err := proc.Allocate(m.alloc, pid)
	if err != nil {
		m.mu.Lock()
		m.count--
		m.mu.Unlock()
		return 0, err
	}
	pcb.SetUserAddrSpace(userAS)
	pcb.FirstExecutionInit(trapHandlerVA, kernelSatp)

	m.table.Initialise(pid, pcb)

	m.mu.Lock()
	m.ready = append(m.ready, pid)
	m.mu.Unlock()

	return pid, nil
}

// PopOne removes and returns the next runnable pid, or ok=false if the
// ready queue is empty (§4.9's scheduler contact point).
func (m *Manager) PopOne() (pid int, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.ready) == 0 {
		return 0, false
	}
	pid = m.ready[0]
	m.ready = m.ready[1:]
	return pid, true
}

// PushOne re-enqueues pid, e.g. after a time-slice expires with the
// process still RUNNABLE.
func (m *Manager) PushOne(pid int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ready = append(m.ready, pid)
}

// Lookup returns the PCB for pid.
func (m *Manager) Lookup(pid int) *proc.PCB {
	return m.table.Get(pid)
}

// Exit marks pid ZOMBIE and removes it from the ready queue; it does not
// free any resources (§4.8: "exit marks the PCB ZOMBIE and removes it from
// the ready queue; reap removes the slot" -- the two are deliberately
// separate so a parent can still observe a dead child's exit status before
// its slot is reused).
func (m *Manager) Exit(pid int) {
	pcb := m.table.Get(pid)
	pcb.SetStatus(proc.Zombie)

	m.mu.Lock()
	defer m.mu.Unlock()
	for i, p := range m.ready {
		if p == pid {
			m.ready = append(m.ready[:i], m.ready[i+1:]...)
			break
		}
	}
}

// Reap closes pid's PCB (releasing its user AS and kernel stack) and
// returns its slot to the resource table. The caller must have already
// observed ZOMBIE status.
func (m *Manager) Reap(pid int) {
	pcb := m.table.Get(pid)
	if pcb.Status() != proc.Zombie {
		fatal.Halt("pm: reap of pid %d which is not a zombie", pid)
	}
	pcb.Close()
	m.table.Remove(pid)

	m.mu.Lock()
	m.count--
	m.mu.Unlock()
}

// Count reports the number of PCBs PM currently owns (runnable + running +
// not-yet-reaped zombies).
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.count
}
