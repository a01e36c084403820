// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package pebble - storage engine on Pebble
package pebble

import (
	"github.com/cockroachdb/pebble"

	"github.com/bitmark-inc/kvstore/backend"
)

var (
	_ backend.Backend   = (*Database)(nil)
	_ backend.Compacter = (*Database)(nil)
	_ backend.Dropper   = (*Database)(nil)
)

// Database - a Pebble engine
type Database struct {
	path    string
	options backend.Options
	db      *pebble.DB
}

// New - an engine at path, not opened
func New(path string, options backend.Options) *Database {
	return &Database{
		path:    path,
		options: options,
	}
}

// Open - create or open the database
func (d *Database) Open() error {
	opts := &pebble.Options{}
	if d.options.CacheSize > 0 {
		cache := pebble.NewCache(int64(d.options.CacheSize))
		defer cache.Unref()
		opts.Cache = cache
	}
	if d.options.WriteBufferSize > 0 {
		opts.MemTableSize = uint64(d.options.WriteBufferSize)
	}
	if d.options.Compactions > 0 {
		compactions := d.options.Compactions
		opts.MaxConcurrentCompactions = func() int { return compactions }
	}

	db, err := pebble.Open(d.path, opts.EnsureDefaults())
	if nil != err {
		return err
	}
	d.db = db
	return nil
}

// Close - release the database
func (d *Database) Close() error {
	if nil == d.db {
		return nil
	}
	err := d.db.Close()
	d.db = nil
	return err
}

func (d *Database) writeOptions() *pebble.WriteOptions {
	if d.options.Sync {
		return pebble.Sync
	}
	return pebble.NoSync
}

// Get - read a copy of a value
func (d *Database) Get(key []byte) ([]byte, bool, error) {
	value, closer, err := d.db.Get(key)
	if pebble.ErrNotFound == err {
		return nil, false, nil
	}
	if nil != err {
		return nil, false, err
	}
	defer closer.Close()

	result := make([]byte, len(value))
	copy(result, value)
	return result, true, nil
}

// Has - check if a key exists
func (d *Database) Has(key []byte) (bool, error) {
	_, closer, err := d.db.Get(key)
	if pebble.ErrNotFound == err {
		return false, nil
	}
	if nil != err {
		return false, err
	}
	closer.Close()
	return true, nil
}

// Write - apply the operations as one Pebble batch
func (d *Database) Write(operations []backend.Operation) error {
	batch := d.db.NewBatch()
	defer batch.Close()

	for _, op := range operations {
		var err error
		if op.Delete {
			err = batch.Delete(op.Key, nil)
		} else {
			err = batch.Set(op.Key, op.Value, nil)
		}
		if nil != err {
			return err
		}
	}
	return batch.Commit(d.writeOptions())
}

// NewIterator - iterate all keys, a Pebble iterator is a point in
// time view
func (d *Database) NewIterator() (backend.Iterator, error) {
	iter, err := d.db.NewIter(nil)
	if nil != err {
		return nil, err
	}
	return &keyIterator{iter: iter}, nil
}

// Count - number of entries, obtained by a full scan
func (d *Database) Count() (int64, error) {
	iter, err := d.db.NewIter(nil)
	if nil != err {
		return 0, err
	}
	n := int64(0)
	for valid := iter.First(); valid; valid = iter.Next() {
		n += 1
	}
	return n, iter.Close()
}

// IsEmpty - true if there is no first key
func (d *Database) IsEmpty() (bool, error) {
	iter, err := d.db.NewIter(nil)
	if nil != err {
		return false, err
	}
	found := iter.First()
	return !found, iter.Close()
}

// bounds of the current key space, end is exclusive
func (d *Database) keyRange() ([]byte, []byte, bool, error) {
	iter, err := d.db.NewIter(nil)
	if nil != err {
		return nil, nil, false, err
	}
	if !iter.First() {
		return nil, nil, false, iter.Close()
	}
	start := append([]byte(nil), iter.Key()...)
	iter.Last()
	end := append(append([]byte(nil), iter.Key()...), 0x00)
	return start, end, true, iter.Close()
}

// Drop - delete every key with a single range tombstone
func (d *Database) Drop() error {
	start, end, found, err := d.keyRange()
	if nil != err || !found {
		return err
	}

	batch := d.db.NewBatch()
	defer batch.Close()

	if err := batch.DeleteRange(start, end, nil); nil != err {
		return err
	}
	return batch.Commit(d.writeOptions())
}

// Compact - compact the occupied key range
func (d *Database) Compact() error {
	start, end, found, err := d.keyRange()
	if nil != err || !found {
		return err
	}
	return d.db.Compact(start, end, true)
}

// Path - directory of the database
func (d *Database) Path() string {
	return d.path
}

// IsPersistent - always true
func (d *Database) IsPersistent() bool {
	return true
}

type keyIterator struct {
	iter     *pebble.Iterator
	started  bool
	released bool
	err      error
}

// Next - the first call positions on the first key
func (i *keyIterator) Next() bool {
	if i.released {
		return false
	}
	if !i.started {
		i.started = true
		return i.iter.First()
	}
	return i.iter.Next()
}

func (i *keyIterator) Key() []byte {
	key := i.iter.Key()
	result := make([]byte, len(key))
	copy(result, key)
	return result
}

// Release - a closed Pebble iterator must not be touched again so
// keep its final error
func (i *keyIterator) Release() {
	if i.released {
		return
	}
	i.released = true
	i.err = i.iter.Close()
}

func (i *keyIterator) Error() error {
	if i.released {
		return i.err
	}
	return i.iter.Error()
}
