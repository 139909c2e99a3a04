//go:build linux

package oslock

import (
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Futex word values. The word moves free -> held on an uncontended
// acquire; a blocked acquirer bumps it to contended so the holder knows a
// wake-up is needed on release.
const (
	futexFree      int32 = 0
	futexHeld      int32 = 1
	futexContended int32 = 2
)

// Futex op codes and flags from the Linux uapi (futex.h); x/sys/unix
// exports the syscall number but not these constants.
const (
	futexOpWait      = 0x0
	futexOpWake      = 0x1
	futexPrivateFlag = 0x80
)

// nativeLock is an exclusive lock over a process-private futex word.
// The word itself is the entire kernel interface; there is no handle to
// allocate or free.
type nativeLock struct {
	word int32
}

func newNativeLock() *nativeLock {
	return new(nativeLock)
}

func (n *nativeLock) acquire() {
	if atomic.CompareAndSwapInt32(&n.word, futexFree, futexHeld) {
		return
	}

	// Contended: advertise a waiter, then sleep until release resets the
	// word. FUTEX_WAIT returns immediately if the word changed first, and
	// may also wake spuriously (EINTR), so the swap is retried in a loop.
	for atomic.SwapInt32(&n.word, futexContended) != futexFree {
		futexWait(&n.word, futexContended)
	}
}

func (n *nativeLock) tryAcquire() bool {
	return atomic.CompareAndSwapInt32(&n.word, futexFree, futexHeld)
}

func (n *nativeLock) release() {
	if atomic.SwapInt32(&n.word, futexFree) == futexContended {
		futexWake(&n.word, 1)
	}
}

// destroy is a no-op: a futex word holds no kernel resources.
func (n *nativeLock) destroy() {}

func futexWait(addr *int32, val int32) {
	_, _, _ = unix.Syscall6(
		unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(addr)),
		uintptr(futexOpWait|futexPrivateFlag),
		uintptr(val),
		0, 0, 0,
	)
}

func futexWake(addr *int32, count int32) {
	_, _, _ = unix.Syscall6(
		unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(addr)),
		uintptr(futexOpWake|futexPrivateFlag),
		uintptr(count),
		0, 0, 0,
	)
}
