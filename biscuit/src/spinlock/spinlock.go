// Package spinlock implements the busy-wait locks this kernel uses instead
// of sync.Mutex. There is no scheduler above the core (§5: "the only
// blocking primitive is a spin-wait acquire"), so a lock that parks its
// goroutine would deadlock a kernel that has nothing to park a goroutine
// onto. The core's own packages use one of the two types below rather than
// the standard library's; the accnt and caller packages, kept from the
// teacher, still use sync.Mutex.
package spinlock

import "sync/atomic"

// Mutex is an exclusive spin lock.
type Mutex struct {
	state uint32
}

// Lock busy-waits until the lock is free and then acquires it. Re-entering
// a lock already held by the caller deadlocks, exactly as with sync.Mutex.
func (m *Mutex) Lock() {
	for !atomic.CompareAndSwapUint32(&m.state, 0, 1) {
	}
}

// TryLock attempts to acquire the lock without waiting.
func (m *Mutex) TryLock() bool {
	return atomic.CompareAndSwapUint32(&m.state, 0, 1)
}

// Unlock releases the lock. Unlocking a free lock has no effect.
func (m *Mutex) Unlock() {
	atomic.StoreUint32(&m.state, 0)
}

// RWMutex is a reader/writer spin lock: any number of readers, or one
// writer, never both. A writer claims the writer flag first, which blocks
// new readers while it waits for the existing ones to drain; beyond that
// there is no fairness guarantee (§1 non-goals: SMP scheduling fairness).
type RWMutex struct {
	// writer is 1 while a writer holds the lock.
	writer uint32
	// readers counts active readers.
	readers int32
}

// Lock acquires the lock exclusively.
func (rw *RWMutex) Lock() {
	for !atomic.CompareAndSwapUint32(&rw.writer, 0, 1) {
	}
	for atomic.LoadInt32(&rw.readers) != 0 {
	}
}

// Unlock releases an exclusively held lock.
func (rw *RWMutex) Unlock() {
	atomic.StoreUint32(&rw.writer, 0)
}

// RLock acquires the lock for reading.
func (rw *RWMutex) RLock() {
	for {
		for atomic.LoadUint32(&rw.writer) != 0 {
		}
		atomic.AddInt32(&rw.readers, 1)
		if atomic.LoadUint32(&rw.writer) == 0 {
			return
		}
		atomic.AddInt32(&rw.readers, -1)
	}
}

// RUnlock releases a read lock.
func (rw *RWMutex) RUnlock() {
	if atomic.AddInt32(&rw.readers, -1) < 0 {
		panic("spinlock: RUnlock of unlocked RWMutex")
	}
}
