//go:build !unix

package flock

import (
	"errors"
	"time"
)

// ErrTimeout is never returned on non-Unix platforms; locking is a no-op.
var ErrTimeout = errors.New("flock: timeout")

// Lock is a no-op handle on non-Unix platforms.
type Lock struct{}

// Acquire is a no-op on non-Unix platforms. flock is not available;
// concurrent instances are not excluded.
func Acquire(_ string, _ time.Duration) (*Lock, error) {
	return &Lock{}, nil
}

// Release is a no-op on non-Unix platforms.
func (l *Lock) Release() {}
