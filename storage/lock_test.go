// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/kvstore/fault"
)

func TestLockingCoordinatorLockedFlag(t *testing.T) {
	c := newCoordinator(true)
	assert.False(t, c.isLocked(), "new coordinator locked")

	err := c.exclusive(func() error {
		assert.True(t, c.isLocked(), "not locked during exclusive")
		return nil
	})
	require.NoError(t, err)
	assert.False(t, c.isLocked(), "still locked after exclusive")

	err = c.shared(func() error {
		assert.False(t, c.isLocked(), "locked during shared")
		return nil
	})
	require.NoError(t, err)
}

func TestLockingCoordinatorReturnsError(t *testing.T) {
	c := newCoordinator(true)
	expected := errors.New("failed")

	assert.Equal(t, expected, c.exclusive(func() error { return expected }))
	assert.Equal(t, expected, c.shared(func() error { return expected }))
	assert.False(t, c.isLocked(), "error left coordinator locked")
}

func TestLockingCoordinatorExcludesReaders(t *testing.T) {
	c := newCoordinator(true)

	inside := make(chan struct{})
	finish := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		done <- c.exclusive(func() error {
			close(inside)
			<-finish
			return nil
		})
	}()
	<-inside

	var readerRan atomic.Bool
	readerDone := make(chan error, 1)
	go func() {
		readerDone <- c.shared(func() error {
			readerRan.Store(true)
			return nil
		})
	}()

	select {
	case <-readerDone:
		t.Fatal("reader ran during an exclusive operation")
	case <-time.After(50 * time.Millisecond):
	}
	assert.False(t, readerRan.Load())
	assert.True(t, c.isLocked())

	close(finish)
	require.NoError(t, <-done)
	require.NoError(t, <-readerDone)
	assert.True(t, readerRan.Load())
	assert.False(t, c.isLocked())
}

func TestLockingCoordinatorPoison(t *testing.T) {
	c := newCoordinator(true)

	err := c.exclusive(func() error {
		panic("torn write")
	})
	assert.ErrorIs(t, err, fault.ErrLockPoisoned)
	assert.True(t, fault.IsErrLock(err))
	assert.False(t, c.isLocked(), "panic left coordinator locked")

	called := false
	err = c.exclusive(func() error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, fault.ErrLockPoisoned)
	err = c.shared(func() error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, fault.ErrLockPoisoned)
	assert.False(t, called, "operation ran on a poisoned coordinator")

	// release is still allowed and clears the poison
	require.NoError(t, c.release(func() error { return nil }))
	require.NoError(t, c.exclusive(func() error { return nil }))
}

func TestLockingCoordinatorReadPanic(t *testing.T) {
	c := newCoordinator(true)

	err := c.shared(func() error {
		panic("bad read")
	})
	assert.True(t, fault.IsErrBackend(err), "read panic: %v", err)

	// a failed read does not poison
	require.NoError(t, c.exclusive(func() error { return nil }))
}

func TestNullCoordinator(t *testing.T) {
	c := newCoordinator(false)

	err := c.exclusive(func() error {
		assert.False(t, c.isLocked(), "null coordinator reported locked")
		return nil
	})
	require.NoError(t, err)
	assert.False(t, c.excludesWriters(), "null coordinator excludes writers")
	assert.True(t, newCoordinator(true).excludesWriters())
}

func TestNullCoordinatorBusyRelease(t *testing.T) {
	c := newCoordinator(false)

	inside := make(chan struct{})
	finish := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		done <- c.shared(func() error {
			close(inside)
			<-finish
			return nil
		})
	}()
	<-inside

	closed := false
	err := c.release(func() error {
		closed = true
		return nil
	})
	assert.ErrorIs(t, err, fault.ErrStoreBusy)
	assert.False(t, closed, "release ran while an operation was in flight")

	close(finish)
	require.NoError(t, <-done)

	require.NoError(t, c.release(func() error {
		closed = true
		return nil
	}))
	assert.True(t, closed)
}

func TestNullCoordinatorPoison(t *testing.T) {
	c := newCoordinator(false)

	err := c.exclusive(func() error {
		panic("torn write")
	})
	assert.ErrorIs(t, err, fault.ErrLockPoisoned)
	assert.ErrorIs(t, c.shared(func() error { return nil }), fault.ErrLockPoisoned)

	require.NoError(t, c.release(func() error { return nil }))
	require.NoError(t, c.shared(func() error { return nil }))
}
