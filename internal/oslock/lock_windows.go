//go:build windows

package oslock

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procInitializeSRWLock          = kernel32.NewProc("InitializeSRWLock")
	procAcquireSRWLockExclusive    = kernel32.NewProc("AcquireSRWLockExclusive")
	procTryAcquireSRWLockExclusive = kernel32.NewProc("TryAcquireSRWLockExclusive")
	procReleaseSRWLockExclusive    = kernel32.NewProc("ReleaseSRWLockExclusive")
)

// nativeLock wraps a slim reader/writer lock used only in exclusive mode.
// SRWLOCK is pointer-sized and requires no teardown call.
type nativeLock struct {
	srw uintptr
}

func newNativeLock() *nativeLock {
	n := new(nativeLock)
	_, _, _ = procInitializeSRWLock.Call(uintptr(unsafe.Pointer(&n.srw)))

	return n
}

func (n *nativeLock) acquire() {
	_, _, _ = procAcquireSRWLockExclusive.Call(uintptr(unsafe.Pointer(&n.srw)))
}

func (n *nativeLock) tryAcquire() bool {
	r, _, _ := procTryAcquireSRWLockExclusive.Call(uintptr(unsafe.Pointer(&n.srw)))

	return r != 0
}

func (n *nativeLock) release() {
	_, _, _ = procReleaseSRWLockExclusive.Call(uintptr(unsafe.Pointer(&n.srw)))
}

// destroy is a no-op: SRW locks hold no kernel resources.
func (n *nativeLock) destroy() {}
