package domainlock_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/certward/certward/pkg/domainlock"
)

func TestAcquireRelease(t *testing.T) {
	dir := t.TempDir()

	l, err := domainlock.Acquire(dir, "example.com")
	require.NoError(t, err)

	_, err = domainlock.Acquire(dir, "example.com")
	assert.ErrorIs(t, err, domainlock.ErrLocked)

	require.NoError(t, l.Release())

	l2, err := domainlock.Acquire(dir, "example.com")
	require.NoError(t, err)
	require.NoError(t, l2.Release())

	// Double release is harmless.
	assert.NoError(t, l2.Release())
}

func TestWildcardLocksIndependently(t *testing.T) {
	dir := t.TempDir()

	base, err := domainlock.Acquire(dir, "example.com")
	require.NoError(t, err)
	defer func() { _ = base.Release() }()

	wild, err := domainlock.Acquire(dir, "*.example.com")
	require.NoError(t, err)
	defer func() { _ = wild.Release() }()
}

func TestAcquireAllRollsBack(t *testing.T) {
	dir := t.TempDir()

	held, err := domainlock.Acquire(dir, "b.example.com")
	require.NoError(t, err)
	defer func() { _ = held.Release() }()

	_, err = domainlock.AcquireAll(dir, []string{"a.example.com", "b.example.com"})
	require.ErrorIs(t, err, domainlock.ErrLocked)

	// The first lock must have been rolled back.
	a, err := domainlock.Acquire(dir, "a.example.com")
	require.NoError(t, err)
	require.NoError(t, a.Release())
}

func TestAcquireAll(t *testing.T) {
	dir := t.TempDir()

	locks, err := domainlock.AcquireAll(dir, []string{"a.example.com", "b.example.com"})
	require.NoError(t, err)
	require.Len(t, locks, 2)
	domainlock.ReleaseAll(locks)

	again, err := domainlock.AcquireAll(dir, []string{"a.example.com", "b.example.com"})
	require.NoError(t, err)
	domainlock.ReleaseAll(again)
}
