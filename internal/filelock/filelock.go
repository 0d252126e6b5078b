// Package filelock keeps two cleans of the same root from running at once.
package filelock

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrLocked is returned when another process already holds a run lock
var ErrLocked = errors.New("another clean is already running for this path")

// RunLock is a held lock on one clean root. The lock file lives in the OS
// temp dir so the cleaned tree is never written to.
type RunLock struct {
	root string
	lock *flock.Flock
}

// RunLockPath returns the lock file guarding cleans of root
func RunLockPath(root string) string {
	sum := sha256.Sum256([]byte(filepath.Clean(root)))
	return filepath.Join(os.TempDir(), "artifact-cleaner-"+hex.EncodeToString(sum[:8])+".lock")
}

// AcquireRunLock takes the run lock for root without waiting.
// It returns ErrLocked when another clean holds it.
func AcquireRunLock(root string) (*RunLock, error) {
	l := &RunLock{root: root, lock: flock.New(RunLockPath(root))}
	held, err := l.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", root, err)
	}
	if !held {
		return nil, fmt.Errorf("%w: %s", ErrLocked, root)
	}
	return l, nil
}

// Root returns the clean root the lock guards
func (l *RunLock) Root() string {
	return l.root
}

// Unlock releases the run lock. The lock file is left for the next run.
func (l *RunLock) Unlock() error {
	if err := l.lock.Unlock(); err != nil {
		return fmt.Errorf("failed to unlock %s: %w", l.root, err)
	}
	return nil
}
