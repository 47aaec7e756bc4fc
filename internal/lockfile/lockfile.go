// Package lockfile implements exclusive per-record locks for the on-disk
// session and context stores.
//
// A lock is a file created with O_EXCL next to the record it guards,
// carrying the holder's pid and creation time. Acquisition retries until a
// short timeout and then fails with ContentionError rather than blocking
// indefinitely. Locks left behind by crashed processes are reclaimed once
// they pass an age threshold.
package lockfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const retryInterval = 25 * time.Millisecond

// ErrContention is the sentinel for lock acquisition timeouts.
var ErrContention = errors.New("lock contention")

// ContentionError reports a lock that stayed held past the timeout.
type ContentionError struct {
	Path    string
	Waited  time.Duration
	Timeout time.Duration
}

func (e *ContentionError) Error() string {
	return fmt.Sprintf("record locked by another process: %s (waited %s)",
		filepath.Base(e.Path), e.Waited.Round(time.Millisecond))
}

func (e *ContentionError) Unwrap() error {
	return ErrContention
}

// payload is written into the lock file for diagnostics and stale
// detection when the file mtime is unavailable.
type payload struct {
	PID       int       `json:"pid"`
	CreatedAt time.Time `json:"created_at"`
}

// Lock guards one record.
type Lock struct {
	path string
	held bool

	// Timeout bounds acquisition; StaleAfter is the age past which a
	// leftover lock is reclaimed.
	Timeout    time.Duration
	StaleAfter time.Duration
}

// New creates an unheld lock named after the record it guards. The lock
// directory is created on demand.
func New(dir, record string) (*Lock, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}
	return &Lock{
		path:       filepath.Join(dir, record+".lock"),
		Timeout:    2 * time.Second,
		StaleAfter: 30 * time.Second,
	}, nil
}

// Acquire takes the lock, retrying until Timeout.
func (l *Lock) Acquire() error {
	start := time.Now()
	for {
		f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err == nil {
			data, _ := json.Marshal(payload{PID: os.Getpid(), CreatedAt: time.Now().UTC()})
			_, _ = f.Write(append(data, '\n'))
			_ = f.Close()
			l.held = true
			return nil
		}
		if !os.IsExist(err) {
			return fmt.Errorf("acquire lock %s: %w", l.path, err)
		}

		if l.reclaimStale() {
			continue
		}

		waited := time.Since(start)
		if waited >= l.Timeout {
			return &ContentionError{Path: l.path, Waited: waited, Timeout: l.Timeout}
		}
		time.Sleep(retryInterval)
	}
}

// Release removes the lock file. Safe to call on all exit paths; releasing
// an unheld lock is a no-op.
func (l *Lock) Release() error {
	if !l.held {
		return nil
	}
	l.held = false
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("release lock %s: %w", l.path, err)
	}
	return nil
}

// Held reports whether this process holds the lock.
func (l *Lock) Held() bool {
	return l.held
}

// reclaimStale removes the lock file if its holder evidently died,
// reported by lock age passing the threshold. Returns true when the
// caller should retry immediately.
//
// The stale file is renamed aside before removal. Rename is atomic, so
// exactly one contender claims it; a plain remove could race another
// reclaimer and delete the lock that contender had just re-acquired.
func (l *Lock) reclaimStale() bool {
	info, err := os.Stat(l.path)
	if err != nil {
		// Holder released between our O_EXCL failure and the stat.
		return os.IsNotExist(err)
	}
	if time.Since(info.ModTime()) < l.StaleAfter {
		return false
	}
	tomb := fmt.Sprintf("%s.reclaimed.%d.%d", l.path, os.Getpid(), time.Now().UnixNano())
	if err := os.Rename(l.path, tomb); err != nil {
		// Another contender claimed it first; retry the acquire.
		return os.IsNotExist(err)
	}
	_ = os.Remove(tomb)
	return true
}

// WithLock runs fn while holding the named record lock, releasing it on
// all exit paths including panic.
func WithLock(dir, record string, timeout, staleAfter time.Duration, fn func() error) error {
	l, err := New(dir, record)
	if err != nil {
		return err
	}
	if timeout > 0 {
		l.Timeout = timeout
	}
	if staleAfter > 0 {
		l.StaleAfter = staleAfter
	}
	if err := l.Acquire(); err != nil {
		return err
	}
	defer func() { _ = l.Release() }()
	return fn()
}
