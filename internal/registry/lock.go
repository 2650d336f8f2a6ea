package registry

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// lockRetryDelay is how often a blocked Lock polls for the file lock.
const lockRetryDelay = 50 * time.Millisecond

// fileLock serializes registry writers across pluginkit processes.
// The lock lives next to the registry as <file>.lock.
type fileLock struct {
	path  string
	flock *flock.Flock
}

func newFileLock(registryPath string) *fileLock {
	lockPath := registryPath + ".lock"
	return &fileLock{
		path:  lockPath,
		flock: flock.New(lockPath),
	}
}

// Lock blocks until the lock is held or ctx is done.
func (l *fileLock) Lock(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	locked, err := l.flock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("failed to acquire registry lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("failed to acquire registry lock %s", l.path)
	}
	return nil
}

// Unlock releases the lock. Safe to call when not held.
func (l *fileLock) Unlock() error {
	if !l.flock.Locked() {
		return nil
	}
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release registry lock: %w", err)
	}
	return nil
}
