// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/kvstore/background"
	"github.com/bitmark-inc/kvstore/backend"
	"github.com/bitmark-inc/kvstore/fault"
)

// Element - a key/value pair
type Element struct {
	Key   []byte
	Value []byte
}

// Store - one named key-value store
type Store struct {
	name        string
	variant     string
	location    string
	engine      backend.Backend
	coordinator coordinator
	batch       *batch
	cache       Cache
	open        atomic.Bool
	log         *logger.L

	cursors struct {
		sync.Mutex
		live map[*Cursor]struct{}
	}

	compactEvery time.Duration
	maintenance  struct {
		sync.Mutex
		running *background.T
		current *compactor
	}
}

func newStore(name string, variant string, location string, engine backend.Backend, locking bool, cache Cache) *Store {
	s := &Store{
		name:        name,
		variant:     variant,
		location:    location,
		engine:      engine,
		coordinator: newCoordinator(locking),
		batch:       newBatch(),
		cache:       cache,
		log:         logger.New("storage"),
	}
	s.cursors.live = make(map[*Cursor]struct{})
	return s
}

// Name - the configured store name
func (s *Store) Name() string {
	return s.name
}

// Variant - the backend variant name
func (s *Store) Variant() string {
	return s.variant
}

// Path - on-disk location, blank for the memory variant
func (s *Store) Path() string {
	return s.engine.Path()
}

// IsPersistent - false if the data is lost by Close
func (s *Store) IsPersistent() bool {
	return s.engine.IsPersistent()
}

// IsOpen - true if the store is OPEN
func (s *Store) IsOpen() bool {
	return s.open.Load()
}

// IsClosed - true if the store is CLOSED
func (s *Store) IsClosed() bool {
	return !s.open.Load()
}

// IsLocked - true only while a mutating operation is in flight
func (s *Store) IsLocked() bool {
	return s.coordinator.isLocked()
}

// Open - acquire the engine, no-op if already open
func (s *Store) Open() error {
	return s.coordinator.exclusive(func() error {
		if s.open.Load() {
			return nil
		}

		if err := register(s.location, s); nil != err {
			s.log.Errorf("%s: open: location %q is in use", s.name, s.location)
			return err
		}

		if err := s.engine.Open(); nil != err {
			unregister(s.location, s)
			s.log.Errorf("%s: open error: %s", s.name, err)
			return fault.NewBackendError("open", err)
		}

		s.batch.reset()
		s.cache.Clear()
		s.open.Store(true)
		s.log.Infof("%s: opened %s store: %q", s.name, s.variant, s.engine.Path())

		// started before any Close can run
		s.startMaintenance()
		return nil
	})
}

// Close - release the engine and discard the batch, no-op if
// already closed
//
// the store is CLOSED afterwards even if the engine reports an error
func (s *Store) Close() error {
	s.stopMaintenance()

	err := s.coordinator.release(func() error {
		if !s.open.Load() {
			return nil
		}

		discarded := s.batch.size()
		s.batch.reset()
		s.cache.Clear()
		s.abandonCursors()
		s.open.Store(false)
		unregister(s.location, s)

		if discarded > 0 {
			s.log.Warnf("%s: close discarded %d uncommitted changes", s.name, discarded)
		}

		if err := s.engine.Close(); nil != err {
			s.log.Errorf("%s: close error: %s", s.name, err)
			return fault.NewBackendError("close", err)
		}
		s.log.Infof("%s: closed", s.name)
		return nil
	})

	// close was refused so keep maintaining
	if s.open.Load() {
		s.startMaintenance()
	}
	return err
}

// Get - read a value, found is false if the key does not exist
func (s *Store) Get(key []byte) (value []byte, found bool, err error) {
	if nil == key {
		return nil, false, fault.ErrNilKey
	}

	err = s.coordinator.shared(func() error {
		if !s.open.Load() {
			return fault.ErrNotOpen
		}

		if v, ok := s.cache.Get(string(key)); ok {
			value = v
			found = true
			return nil
		}

		v, ok, err := s.engine.Get(key)
		if nil != err {
			return fault.NewBackendError("get", err)
		}
		// an unlocked read may finish after a write it overlapped
		// so only a locked read can fill the cache
		if ok && s.coordinator.excludesWriters() {
			s.cache.Set(dbPut, string(key), v)
		}
		value = v
		found = ok
		return nil
	})
	if nil != err {
		return nil, false, err
	}
	return value, found, nil
}

// Has - check if a key exists
func (s *Store) Has(key []byte) (found bool, err error) {
	if nil == key {
		return false, fault.ErrNilKey
	}

	err = s.coordinator.shared(func() error {
		if !s.open.Load() {
			return fault.ErrNotOpen
		}

		if _, ok := s.cache.Get(string(key)); ok {
			found = true
			return nil
		}

		ok, err := s.engine.Has(key)
		if nil != err {
			return fault.NewBackendError("has", err)
		}
		found = ok
		return nil
	})
	return found, err
}

// Keys - a cursor over all keys currently in the engine
//
// the caller should Release the cursor when done with it
func (s *Store) Keys() (*Cursor, error) {
	var cursor *Cursor
	err := s.coordinator.shared(func() error {
		if !s.open.Load() {
			return fault.ErrNotOpen
		}

		iter, err := s.engine.NewIterator()
		if nil != err {
			return fault.NewBackendError("iterator", err)
		}
		cursor = newCursor(s, iter)
		s.rememberCursor(cursor)
		return nil
	})
	if nil != err {
		return nil, err
	}
	return cursor, nil
}

// IsEmpty - true if the engine holds no entries
func (s *Store) IsEmpty() (empty bool, err error) {
	err = s.coordinator.shared(func() error {
		if !s.open.Load() {
			return fault.ErrNotOpen
		}

		e, err := s.engine.IsEmpty()
		if nil != err {
			return fault.NewBackendError("empty", err)
		}
		empty = e
		return nil
	})
	return empty, err
}

// ApproximateSize - estimate of the number of entries
func (s *Store) ApproximateSize() (size int64, err error) {
	err = s.coordinator.shared(func() error {
		if !s.open.Load() {
			return fault.ErrNotOpen
		}

		n, err := s.engine.Count()
		if nil != err {
			return fault.NewBackendError("count", err)
		}
		if n < 0 {
			n = 0
		}
		size = n
		return nil
	})
	return size, err
}

// BatchSize - number of keys with uncommitted changes
func (s *Store) BatchSize() (n int, err error) {
	err = s.coordinator.shared(func() error {
		if !s.open.Load() {
			return fault.ErrNotOpen
		}
		n = s.batch.size()
		return nil
	})
	return n, err
}

// PutToBatch - stage a write, not visible until Commit
func (s *Store) PutToBatch(key []byte, value []byte) error {
	if nil == key {
		return fault.ErrNilKey
	}

	return s.coordinator.exclusive(func() error {
		if !s.open.Load() {
			return fault.ErrNotOpen
		}
		s.batch.put(key, value)
		return nil
	})
}

// DeleteInBatch - stage a delete, not visible until Commit
func (s *Store) DeleteInBatch(key []byte) error {
	if nil == key {
		return fault.ErrNilKey
	}

	return s.coordinator.exclusive(func() error {
		if !s.open.Load() {
			return fault.ErrNotOpen
		}
		s.batch.remove(key)
		return nil
	})
}

// Commit - apply every staged change as one atomic write
//
// the batch is only cleared after the engine accepts the write, so
// a failed commit can be retried
func (s *Store) Commit() error {
	return s.coordinator.exclusive(func() error {
		if !s.open.Load() {
			return fault.ErrNotOpen
		}
		if 0 == s.batch.size() {
			return nil
		}

		operations := s.batch.operations()
		if err := s.write("commit", operations); nil != err {
			return err
		}
		s.batch.reset()
		s.log.Debugf("%s: committed %d changes", s.name, len(operations))
		return nil
	})
}

// PutBatch - write all elements at once, bypassing the batch
//
// for duplicate keys the last element wins
func (s *Store) PutBatch(elements []Element) error {
	operations := make([]backend.Operation, 0, len(elements))
	for _, e := range elements {
		if nil == e.Key {
			return fault.ErrNilKey
		}
		operations = append(operations, backend.Operation{
			Key:   copyBytes(e.Key),
			Value: copyBytes(e.Value),
		})
	}

	return s.coordinator.exclusive(func() error {
		if !s.open.Load() {
			return fault.ErrNotOpen
		}
		return s.write("put batch", operations)
	})
}

// DeleteBatch - delete all keys at once, bypassing the batch
func (s *Store) DeleteBatch(keys [][]byte) error {
	operations := make([]backend.Operation, 0, len(keys))
	for _, key := range keys {
		if nil == key {
			return fault.ErrNilKey
		}
		operations = append(operations, backend.Operation{
			Key:    copyBytes(key),
			Delete: true,
		})
	}

	return s.coordinator.exclusive(func() error {
		if !s.open.Load() {
			return fault.ErrNotOpen
		}
		return s.write("delete batch", operations)
	})
}

// Put - write a single key immediately
func (s *Store) Put(key []byte, value []byte) error {
	return s.PutBatch([]Element{{Key: key, Value: value}})
}

// Delete - delete a single key immediately
func (s *Store) Delete(key []byte) error {
	return s.DeleteBatch([][]byte{key})
}

// Drop - remove every entry and discard the batch
//
// a failed drop keeps the batch
func (s *Store) Drop() error {
	return s.coordinator.exclusive(func() error {
		if !s.open.Load() {
			return fault.ErrNotOpen
		}

		if dropper, ok := s.engine.(backend.Dropper); ok {
			err := dropper.Drop()
			s.cache.Clear()
			if nil != err {
				s.log.Errorf("%s: drop error: %s", s.name, err)
				return fault.NewBackendError("drop", err)
			}
			s.batch.reset()
			s.log.Infof("%s: dropped", s.name)
			return nil
		}

		iter, err := s.engine.NewIterator()
		if nil != err {
			return fault.NewBackendError("drop", err)
		}
		operations := make([]backend.Operation, 0)
		for iter.Next() {
			operations = append(operations, backend.Operation{
				Key:    iter.Key(),
				Delete: true,
			})
		}
		iter.Release()
		if err := iter.Error(); nil != err {
			return fault.NewBackendError("drop", err)
		}

		if err := s.write("drop", operations); nil != err {
			return err
		}
		s.batch.reset()
		s.log.Infof("%s: dropped %d entries", s.name, len(operations))
		return nil
	})
}

// Compact - ask the engine to compact, no-op if it cannot
func (s *Store) Compact() error {
	return s.coordinator.exclusive(func() error {
		if !s.open.Load() {
			return fault.ErrNotOpen
		}

		compacter, ok := s.engine.(backend.Compacter)
		if !ok {
			return nil
		}
		if err := compacter.Compact(); nil != err {
			s.log.Errorf("%s: compact error: %s", s.name, err)
			return fault.NewBackendError("compact", err)
		}
		return nil
	})
}

// write to the engine and replay into the cache
//
// caller must hold the exclusive side of the coordinator
func (s *Store) write(operation string, operations []backend.Operation) error {
	if 0 == len(operations) {
		return nil
	}
	if err := s.engine.Write(operations); nil != err {
		s.log.Errorf("%s: %s error: %s", s.name, operation, err)
		return fault.NewBackendError(operation, err)
	}
	for _, op := range operations {
		if op.Delete {
			s.cache.Set(dbDelete, string(op.Key), nil)
		} else {
			s.cache.Set(dbPut, string(op.Key), op.Value)
		}
	}
	return nil
}

func (s *Store) rememberCursor(cursor *Cursor) {
	s.cursors.Lock()
	s.cursors.live[cursor] = struct{}{}
	s.cursors.Unlock()
}

func (s *Store) forgetCursor(cursor *Cursor) {
	s.cursors.Lock()
	delete(s.cursors.live, cursor)
	s.cursors.Unlock()
}

// release any cursor the caller left open so the engine can close
func (s *Store) abandonCursors() {
	s.cursors.Lock()
	live := make([]*Cursor, 0, len(s.cursors.live))
	for cursor := range s.cursors.live {
		live = append(live, cursor)
	}
	s.cursors.live = make(map[*Cursor]struct{})
	s.cursors.Unlock()

	for _, cursor := range live {
		cursor.abandon()
	}
}
