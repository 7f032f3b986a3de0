package workflow

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
)

// sessionLock is an advisory file lock held for the duration of a run.
type sessionLock struct {
	file *flock.Flock
}

func lockPath(dir, sessionID string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, sessionID)
	return filepath.Join(dir, safe+".lock")
}

func tryLockSession(dir, sessionID string) (*sessionLock, error) {
	file := flock.New(lockPath(dir, sessionID))
	ok, err := file.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock session %s: %w", sessionID, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s (locked by another process)", ErrAlreadyRunning, sessionID)
	}
	return &sessionLock{file: file}, nil
}

// lockHeld reports whether some process currently holds the session lock.
func lockHeld(dir, sessionID string) (bool, error) {
	file := flock.New(lockPath(dir, sessionID))
	ok, err := file.TryLock()
	if err != nil {
		return false, fmt.Errorf("check session lock %s: %w", sessionID, err)
	}
	if !ok {
		return true, nil
	}
	return false, file.Unlock()
}

func (l *sessionLock) release() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Unlock()
}
