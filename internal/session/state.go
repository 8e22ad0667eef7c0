package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

const (
	stateDir      = ".skein"
	stateFile     = "current_session"
	stateLockWait = 2 * time.Second
)

// statePath returns the path to the current-session pointer file,
// creating ~/.skein if needed.
func statePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	dir := filepath.Join(home, stateDir)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("creating state directory: %w", err)
	}
	return filepath.Join(dir, stateFile), nil
}

// withStateLock runs fn while holding an exclusive lock on the pointer
// file's companion lock file. Gives up after stateLockWait.
func withStateLock(path string, fn func() error) error {
	lock := flock.New(path + ".lock")
	deadline := time.Now().Add(stateLockWait)
	for {
		ok, err := lock.TryLock()
		if err != nil {
			return fmt.Errorf("locking state file: %w", err)
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("state file %s is locked by another process", path)
		}
		time.Sleep(50 * time.Millisecond)
	}
	defer func() { _ = lock.Unlock() }()
	return fn()
}

// CurrentSessionID reads the active session ID. A missing or empty
// pointer file means no current session and returns (uuid.Nil, false).
func CurrentSessionID() (uuid.UUID, bool, error) {
	path, err := statePath()
	if err != nil {
		return uuid.Nil, false, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("reading state file: %w", err)
	}

	raw := strings.TrimSpace(string(data))
	if raw == "" {
		return uuid.Nil, false, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("invalid session ID in state file: %w", err)
	}
	return id, true, nil
}

// SetCurrentSessionID marks id as the active session. The pointer file
// is replaced atomically (temp file + rename) under a file lock so a
// concurrent reader never observes a partial write.
func SetCurrentSessionID(id uuid.UUID) error {
	path, err := statePath()
	if err != nil {
		return err
	}

	return withStateLock(path, func() error {
		tmp, err := os.CreateTemp(filepath.Dir(path), stateFile+".tmp-*")
		if err != nil {
			return fmt.Errorf("creating temp state file: %w", err)
		}
		tmpPath := tmp.Name()
		if _, err := tmp.WriteString(id.String() + "\n"); err != nil {
			tmp.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("writing state file: %w", err)
		}
		if err := tmp.Close(); err != nil {
			os.Remove(tmpPath)
			return fmt.Errorf("closing state file: %w", err)
		}
		if err := os.Rename(tmpPath, path); err != nil {
			os.Remove(tmpPath)
			return fmt.Errorf("replacing state file: %w", err)
		}
		return nil
	})
}

// ClearCurrentSessionID removes the pointer file. Idempotent.
func ClearCurrentSessionID() error {
	path, err := statePath()
	if err != nil {
		return err
	}

	return withStateLock(path, func() error {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing state file: %w", err)
		}
		return nil
	})
}
