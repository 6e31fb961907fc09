package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// BuildLock provides cross-process locking of the artifact directory using
// gofrs/flock. Two concurrent 'ctxrag index' runs would otherwise interleave
// their record and vector writes. Works on Unix, Linux, macOS, Windows.
type BuildLock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

// NewBuildLock creates a lock for the given artifact directory.
// The lock file is created at <dir>/.build.lock
func NewBuildLock(dir string) *BuildLock {
	lockPath := filepath.Join(dir, ".build.lock")
	return &BuildLock{
		path:  lockPath,
		flock: flock.New(lockPath),
	}
}

// Lock acquires an exclusive lock, blocking until available.
func (l *BuildLock) Lock() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	if err := l.flock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire build lock: %w", err)
	}

	l.locked = true
	return nil
}

// TryLock attempts to acquire the lock without blocking.
// Returns true if the lock was acquired, false if another process holds it.
func (l *BuildLock) TryLock() (bool, error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create lock directory: %w", err)
	}

	acquired, err := l.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to acquire build lock: %w", err)
	}

	if acquired {
		l.locked = true
	}
	return acquired, nil
}

// Unlock releases the lock. Safe to call multiple times.
func (l *BuildLock) Unlock() error {
	if !l.locked {
		return nil
	}

	if err := l.flock.Unlock(); err != nil {
		l.locked = false
		return fmt.Errorf("failed to release build lock: %w", err)
	}

	l.locked = false
	return nil
}

// Path returns the path to the lock file.
func (l *BuildLock) Path() string {
	return l.path
}
