// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"sync"

	"github.com/bitmark-inc/kvstore/backend"
	"github.com/bitmark-inc/kvstore/fault"
)

// Cursor - lazy sequence of the keys present when it was created
//
// later changes to the store are not reflected; call Store.Keys
// again to restart.  A cursor still open when its store is closed is
// released by the close and then reports fault.ErrNotOpen.
type Cursor struct {
	mu       sync.Mutex
	store    *Store
	iter     backend.Iterator
	key      []byte
	released bool
	err      error
}

func newCursor(s *Store, iter backend.Iterator) *Cursor {
	return &Cursor{
		store: s,
		iter:  iter,
	}
}

// Next - advance to the next key, false at the end or on error
func (cursor *Cursor) Next() bool {
	cursor.mu.Lock()
	defer cursor.mu.Unlock()

	if cursor.released {
		cursor.key = nil
		return false
	}
	if cursor.iter.Next() {
		cursor.key = cursor.iter.Key()
		return true
	}
	cursor.key = nil
	cursor.releaseLocked(nil)
	return false
}

// Key - the current key, the caller owns the returned slice
func (cursor *Cursor) Key() []byte {
	cursor.mu.Lock()
	defer cursor.mu.Unlock()
	return cursor.key
}

// Error - any error that stopped the iteration
func (cursor *Cursor) Error() error {
	cursor.mu.Lock()
	defer cursor.mu.Unlock()
	return cursor.err
}

// Release - free the engine iterator, safe to call more than once
func (cursor *Cursor) Release() {
	cursor.mu.Lock()
	defer cursor.mu.Unlock()
	cursor.releaseLocked(nil)
}

// Fetch - return up to count keys from the current position
func (cursor *Cursor) Fetch(count int) ([][]byte, error) {
	if nil == cursor {
		return nil, fault.ErrInvalidCursor
	}
	if count <= 0 {
		return nil, fault.ErrInvalidCount
	}

	results := make([][]byte, 0, count)
	for len(results) < count && cursor.Next() {
		results = append(results, cursor.Key())
	}
	return results, cursor.Error()
}

// Map - run a function on all remaining keys, stop at the first
// error and release the cursor
func (cursor *Cursor) Map(f func(key []byte) error) error {
	if nil == cursor {
		return fault.ErrInvalidCursor
	}
	defer cursor.Release()

	for cursor.Next() {
		if err := f(cursor.Key()); nil != err {
			return err
		}
	}
	return cursor.Error()
}

// Count - consume the cursor and return the number of keys
func (cursor *Cursor) Count() (int, error) {
	n := 0
	err := cursor.Map(func([]byte) error {
		n += 1
		return nil
	})
	return n, err
}

// caller must hold the cursor lock
func (cursor *Cursor) releaseLocked(cause error) {
	if cursor.released {
		return
	}
	cursor.released = true
	err := cursor.iter.Error()
	cursor.iter.Release()
	if nil == cursor.err {
		if nil != err {
			cursor.err = fault.NewBackendError("iterate", err)
		} else {
			cursor.err = cause
		}
	}
	cursor.store.forgetCursor(cursor)
}

// called by the store while closing
func (cursor *Cursor) abandon() {
	cursor.mu.Lock()
	defer cursor.mu.Unlock()
	cursor.releaseLocked(fault.ErrNotOpen)
}
