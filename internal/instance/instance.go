// Package instance keeps a single launcher window per user.
package instance

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrRunning is returned when another launcher holds the lock
var ErrRunning = errors.New("another instance is running")

// Lock is a cross-process lock file
type Lock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

// New creates a lock on path. Nothing is acquired until TryLock.
func New(path string) *Lock {
	return &Lock{
		path:  path,
		flock: flock.New(path),
	}
}

// TryLock acquires the lock without blocking. ErrRunning is returned when
// it is held by another process.
func (l *Lock) TryLock() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0700); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	acquired, err := l.flock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !acquired {
		return fmt.Errorf("%w: %s is locked", ErrRunning, l.path)
	}

	l.locked = true
	return nil
}

// Unlock releases the lock. It is safe to call on an unlocked Lock.
func (l *Lock) Unlock() error {
	if !l.locked {
		return nil
	}
	l.locked = false

	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}

// Path returns the path to the lock file
func (l *Lock) Path() string {
	return l.path
}
