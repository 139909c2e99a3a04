//go:build unix

// Package flock guards tool state files (benchmark results, shell
// history) against concurrent instances of the same binary, using an
// advisory lock on a sibling ".lock" file.
package flock

import (
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"
)

// Lock errors.
var (
	ErrTimeout  = errors.New("flock: timeout")
	errFileOpen = errors.New("flock: cannot open lock file")
)

const filePerms = 0o600

// Lock represents a held lock on a file.
type Lock struct {
	path string
	file *os.File
}

// Acquire tries to take an exclusive lock guarding path, polling until
// timeout. It locks a sibling path+".lock" file so the guarded file itself
// can be replaced freely while locked.
func Acquire(path string, timeout time.Duration) (*Lock, error) {
	lockPath := path + ".lock"

	file, openErr := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, filePerms)
	if openErr != nil {
		return nil, fmt.Errorf("%w: %w", errFileOpen, openErr)
	}

	deadline := time.Now().Add(timeout)

	const retryInterval = 10 * time.Millisecond

	for {
		flockErr := syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
		if flockErr == nil {
			return &Lock{path: lockPath, file: file}, nil
		}

		if time.Now().After(deadline) {
			_ = file.Close()

			return nil, fmt.Errorf("%w: %s", ErrTimeout, path)
		}

		time.Sleep(retryInterval)
	}
}

// Release unlocks and closes the lock file. The file itself persists so
// later instances lock the same inode.
func (l *Lock) Release() {
	if l == nil || l.file == nil {
		return
	}

	_ = syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN)
	_ = l.file.Close()
	l.file = nil
}
