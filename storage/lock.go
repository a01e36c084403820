// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/bitmark-inc/kvstore/fault"
)

// coordinator - locking discipline of a single store
type coordinator interface {
	// run a read operation
	shared(func() error) error

	// run a mutating operation
	exclusive(func() error) error

	// run the close operation, allowed on a poisoned coordinator and
	// clears the poison when it succeeds
	release(func() error) error

	// true while a mutating operation is running
	isLocked() bool

	// true if a read cannot overlap a mutating operation
	excludesWriters() bool
}

func newCoordinator(locking bool) coordinator {
	if locking {
		return &lockingCoordinator{}
	}
	return &nullCoordinator{}
}

// run fn and convert a panic into an error
func protect(fn func() error) (err error, panicked bool) {
	defer func() {
		if r := recover(); nil != r {
			panicked = true
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(), false
}

// readers share a RWMutex, writers hold it exclusively
type lockingCoordinator struct {
	sync.RWMutex
	locked   atomic.Bool
	poisoned atomic.Bool
}

func (c *lockingCoordinator) shared(fn func() error) error {
	c.RLock()
	defer c.RUnlock()

	if c.poisoned.Load() {
		return fault.ErrLockPoisoned
	}
	err, panicked := protect(fn)
	if panicked {
		return fault.NewBackendError("read", err)
	}
	return err
}

func (c *lockingCoordinator) exclusive(fn func() error) error {
	c.Lock()
	c.locked.Store(true)
	defer func() {
		c.locked.Store(false)
		c.Unlock()
	}()

	if c.poisoned.Load() {
		return fault.ErrLockPoisoned
	}
	return c.poisonOnPanic(fn)
}

func (c *lockingCoordinator) release(fn func() error) error {
	c.Lock()
	c.locked.Store(true)
	defer func() {
		c.locked.Store(false)
		c.Unlock()
	}()

	err := c.poisonOnPanic(fn)
	if fault.ErrLockPoisoned != err {
		c.poisoned.Store(false)
	}
	return err
}

// a panic part way through a mutation may leave torn state
func (c *lockingCoordinator) poisonOnPanic(fn func() error) error {
	err, panicked := protect(fn)
	if panicked {
		c.poisoned.Store(true)
		fault.Criticalf("store lock poisoned: %s", err)
		return fault.ErrLockPoisoned
	}
	return err
}

func (c *lockingCoordinator) isLocked() bool {
	return c.locked.Load()
}

func (c *lockingCoordinator) excludesWriters() bool {
	return true
}

// no exclusion, only counts operations so that close can refuse
// to run while others are in progress
type nullCoordinator struct {
	inFlight atomic.Int64
	poisoned atomic.Bool
}

func (c *nullCoordinator) shared(fn func() error) error {
	c.inFlight.Add(1)
	defer c.inFlight.Add(-1)

	if c.poisoned.Load() {
		return fault.ErrLockPoisoned
	}
	err, panicked := protect(fn)
	if panicked {
		return fault.NewBackendError("read", err)
	}
	return err
}

func (c *nullCoordinator) exclusive(fn func() error) error {
	c.inFlight.Add(1)
	defer c.inFlight.Add(-1)

	if c.poisoned.Load() {
		return fault.ErrLockPoisoned
	}
	return c.poisonOnPanic(fn)
}

func (c *nullCoordinator) release(fn func() error) error {
	if c.inFlight.Load() > 0 {
		return fault.ErrStoreBusy
	}

	c.inFlight.Add(1)
	defer c.inFlight.Add(-1)

	err := c.poisonOnPanic(fn)
	if fault.ErrLockPoisoned != err {
		c.poisoned.Store(false)
	}
	return err
}

func (c *nullCoordinator) poisonOnPanic(fn func() error) error {
	err, panicked := protect(fn)
	if panicked {
		c.poisoned.Store(true)
		fault.Criticalf("store poisoned: %s", err)
		return fault.ErrLockPoisoned
	}
	return err
}

func (c *nullCoordinator) isLocked() bool {
	return false
}

func (c *nullCoordinator) excludesWriters() bool {
	return false
}
