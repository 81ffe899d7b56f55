package archiver

import "sync/atomic"

// ArchiveLock provides non-blocking lock semantics using atomic operations.
// Archive runs are serialized; a second caller fails fast instead of queueing
// behind a potentially long embedding pass.
type ArchiveLock struct {
	state atomic.Int32 // 0 = unlocked, 1 = locked
}

// TryAcquire attempts to acquire the lock without blocking.
// Returns true if the lock was successfully acquired, false otherwise.
func (l *ArchiveLock) TryAcquire() bool {
	return l.state.CompareAndSwap(0, 1)
}

// Release releases the lock.
// Must only be called by the goroutine that successfully acquired the lock.
func (l *ArchiveLock) Release() {
	l.state.Store(0)
}
