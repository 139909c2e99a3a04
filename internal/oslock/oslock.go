// Package oslock provides a lazily-initialized, platform-native exclusive
// lock.
//
// The lock is used purely as a sleep/wake signal: it is always acquired
// and released in exclusive mode and carries no data of its own. The
// platform backend is selected at build time: a private futex word on
// Linux, a slim reader/writer lock on Windows, and a portable fallback
// elsewhere. The platform type never crosses this package's boundary.
//
// A Lock starts uninitialized and materializes its native handle on first
// use. This keeps the owning container constructible in a package-level
// variable with no OS work at construction time; the native handle is only
// allocated once real contention is possible.
//
// The zero value is ready to use. A Lock must not be copied after first
// use.
package oslock

import "sync/atomic"

// Lock is a lazily-initialized platform-native exclusive lock.
//
// Acquire, TryAcquire, and Release may be called concurrently. Reset must
// only be called while no acquisition is in flight; callers establish that
// by protocol (it is invoked only while the owning container is known to
// have no outstanding holder).
type Lock struct {
	native atomic.Pointer[nativeLock]
}

// get returns the native lock, materializing it on first use via
// check-then-create. Losing the install race destroys the extra handle and
// adopts the winner's.
func (l *Lock) get() *nativeLock {
	for {
		if n := l.native.Load(); n != nil {
			return n
		}

		n := newNativeLock()
		if l.native.CompareAndSwap(nil, n) {
			return n
		}

		n.destroy()
	}
}

// Acquire blocks the calling goroutine until the lock is available, then
// takes it in exclusive mode. Initializes the native lock on first use.
func (l *Lock) Acquire() {
	l.get().acquire()
}

// TryAcquire takes the lock in exclusive mode if it is immediately
// available, reporting whether it did. It never suspends the caller.
func (l *Lock) TryAcquire() bool {
	return l.get().tryAcquire()
}

// Release releases the lock, waking one blocked Acquire caller if any.
// It initializes the native lock first if somehow still uninitialized;
// that should not occur in correct use, where every Release pairs with a
// prior Acquire or TryAcquire.
func (l *Lock) Release() {
	l.get().release()
}

// Reset tears down the native lock and returns to the uninitialized state,
// so a subsequent Acquire builds a fresh native handle rather than reusing
// one whose internal state may be stale.
func (l *Lock) Reset() {
	if n := l.native.Swap(nil); n != nil {
		n.destroy()
	}
}

// Initialized reports whether the native lock has been materialized.
func (l *Lock) Initialized() bool {
	return l.native.Load() != nil
}
