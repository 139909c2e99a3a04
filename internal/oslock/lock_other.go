//go:build !linux && !windows

package oslock

import "sync"

// nativeLock falls back to sync.Mutex on platforms without a wired raw
// lock. The runtime already backs sync.Mutex with the platform's native
// sleep/wake primitive, so blocking behavior is equivalent; only the
// lazy-teardown lifecycle is emulated by allocating a fresh mutex per
// materialization.
type nativeLock struct {
	mu sync.Mutex
}

func newNativeLock() *nativeLock {
	return new(nativeLock)
}

func (n *nativeLock) acquire() {
	n.mu.Lock()
}

func (n *nativeLock) tryAcquire() bool {
	return n.mu.TryLock()
}

func (n *nativeLock) release() {
	n.mu.Unlock()
}

func (n *nativeLock) destroy() {}
