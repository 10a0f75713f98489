package workflow

import (
	"errors"
	"fmt"

	"github.com/gofrs/flock"

	"legalscan/internal/layout"
)

// ErrLocked reports that another run holds the output root.
var ErrLocked = errors.New("output root is locked by another run")

func acquireLock(l layout.Layout) (*flock.Flock, error) {
	lock := flock.New(l.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock %s: %w", l.LockPath(), err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, l.LockPath())
	}
	return lock, nil
}
