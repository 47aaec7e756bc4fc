package lockfile

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireAndRelease(t *testing.T) {
	dir := t.TempDir()

	l, err := New(dir, "session-alpha")
	require.NoError(t, err)

	require.NoError(t, l.Acquire())
	assert.True(t, l.Held())
	assert.FileExists(t, filepath.Join(dir, "session-alpha.lock"))

	require.NoError(t, l.Release())
	assert.False(t, l.Held())
	assert.NoFileExists(t, filepath.Join(dir, "session-alpha.lock"))

	// Releasing an unheld lock is a no-op.
	require.NoError(t, l.Release())
}

func TestContentionTimesOut(t *testing.T) {
	dir := t.TempDir()

	holder, err := New(dir, "session-alpha")
	require.NoError(t, err)
	require.NoError(t, holder.Acquire())
	defer holder.Release()

	waiter, err := New(dir, "session-alpha")
	require.NoError(t, err)
	waiter.Timeout = 150 * time.Millisecond

	start := time.Now()
	err = waiter.Acquire()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrContention)

	var contention *ContentionError
	require.ErrorAs(t, err, &contention)
	assert.GreaterOrEqual(t, contention.Waited, 150*time.Millisecond)
	assert.Less(t, time.Since(start), 2*time.Second, "contention must fail within a bounded wait")
}

func TestUnrelatedRecordsDoNotContend(t *testing.T) {
	dir := t.TempDir()

	a, err := New(dir, "session-alpha")
	require.NoError(t, err)
	require.NoError(t, a.Acquire())
	defer a.Release()

	b, err := New(dir, "session-beta")
	require.NoError(t, err)
	b.Timeout = 100 * time.Millisecond
	require.NoError(t, b.Acquire())
	require.NoError(t, b.Release())
}

func TestStaleLockIsReclaimed(t *testing.T) {
	dir := t.TempDir()

	// Simulate a lock left behind by a crashed process.
	stale := filepath.Join(dir, "session-alpha.lock")
	require.NoError(t, os.WriteFile(stale, []byte("{}\n"), 0o600))
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))

	l, err := New(dir, "session-alpha")
	require.NoError(t, err)
	l.Timeout = 500 * time.Millisecond
	l.StaleAfter = time.Minute

	require.NoError(t, l.Acquire(), "stale lock past the age threshold is reclaimed")
	require.NoError(t, l.Release())
}

func TestFreshForeignLockIsNotReclaimed(t *testing.T) {
	dir := t.TempDir()

	foreign := filepath.Join(dir, "session-alpha.lock")
	require.NoError(t, os.WriteFile(foreign, []byte("{}\n"), 0o600))

	l, err := New(dir, "session-alpha")
	require.NoError(t, err)
	l.Timeout = 100 * time.Millisecond
	l.StaleAfter = time.Hour

	err = l.Acquire()
	assert.ErrorIs(t, err, ErrContention)
	assert.FileExists(t, foreign, "a live lock must not be stolen")
}

func TestWithLockReleasesOnError(t *testing.T) {
	dir := t.TempDir()

	sentinel := errors.New("handler failed")
	err := WithLock(dir, "session-alpha", time.Second, time.Minute, func() error {
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)

	// Lock released on the failure path: a second acquisition succeeds
	// immediately.
	err = WithLock(dir, "session-alpha", 100*time.Millisecond, time.Minute, func() error {
		return nil
	})
	assert.NoError(t, err)
}

func TestStaleReclaimKeepsMutualExclusion(t *testing.T) {
	dir := t.TempDir()

	// Leave behind a lock old enough that every contender sees it as
	// stale at the same time.
	abandoned, err := New(dir, "session-contested")
	require.NoError(t, err)
	require.NoError(t, abandoned.Acquire())
	past := time.Now().Add(-time.Minute)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "session-contested.lock"), past, past))

	var inside int32
	var violations int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := WithLock(dir, "session-contested", 5*time.Second, 30*time.Second, func() error {
				if atomic.AddInt32(&inside, 1) != 1 {
					atomic.AddInt32(&violations, 1)
				}
				time.Sleep(2 * time.Millisecond)
				atomic.AddInt32(&inside, -1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Zero(t, atomic.LoadInt32(&violations), "two holders entered the critical section")
}
