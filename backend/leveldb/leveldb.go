// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package leveldb - storage engines on LevelDB
//
// Two variants: an on-disk log structured database and a pure
// in-memory database using the LevelDB memory storage.  Data in the
// memory variant is discarded by Close.
package leveldb

import (
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	ldb_opt "github.com/syndtr/goleveldb/leveldb/opt"
	ldb_storage "github.com/syndtr/goleveldb/leveldb/storage"
	ldb_util "github.com/syndtr/goleveldb/leveldb/util"

	"github.com/bitmark-inc/kvstore/backend"
)

var (
	_ backend.Backend   = (*Database)(nil)
	_ backend.Compacter = (*Database)(nil)
)

// Database - a LevelDB engine
type Database struct {
	path     string
	inMemory bool
	options  backend.Options
	db       *leveldb.DB
}

// New - an on-disk engine at path, not opened
func New(path string, options backend.Options) *Database {
	return &Database{
		path:    path,
		options: options,
	}
}

// NewMemory - an in-memory engine, not opened
func NewMemory(options backend.Options) *Database {
	return &Database{
		inMemory: true,
		options:  options,
	}
}

// Open - create or open the database
func (d *Database) Open() error {
	opt := &ldb_opt.Options{
		ErrorIfExist:       false,
		ErrorIfMissing:     false,
		BlockCacheCapacity: d.options.CacheSize,
		WriteBuffer:        d.options.WriteBufferSize,
	}

	var db *leveldb.DB
	var err error
	if d.inMemory {
		db, err = leveldb.Open(ldb_storage.NewMemStorage(), opt)
	} else {
		db, err = leveldb.OpenFile(d.path, opt)
	}
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

// Get - read a copy of a value
func (d *Database) Get(key []byte) ([]byte, bool, error) {
	value, err := d.db.Get(key, nil)
	if leveldb.ErrNotFound == err {
		return nil, false, nil
	}
	if nil != err {
		return nil, false, err
	}
	return value, true, nil
}

// Has - check if a key exists
func (d *Database) Has(key []byte) (bool, error) {
	return d.db.Has(key, nil)
}

// Write - apply the operations as one LevelDB batch
func (d *Database) Write(operations []backend.Operation) error {
	batch := new(leveldb.Batch)
	for _, op := range operations {
		if op.Delete {
			batch.Delete(op.Key)
		} else {
			batch.Put(op.Key, op.Value)
		}
	}
	return d.db.Write(batch, &ldb_opt.WriteOptions{Sync: d.options.Sync})
}

// NewIterator - iterate all keys of an implicit snapshot
func (d *Database) NewIterator() (backend.Iterator, error) {
	return &keyIterator{
		iter: d.db.NewIterator(nil, nil),
	}, nil
}

// Count - number of entries, obtained by a full scan
func (d *Database) Count() (int64, error) {
	iter := d.db.NewIterator(nil, &ldb_opt.ReadOptions{DontFillCache: true})
	n := int64(0)
	for iter.Next() {
		n += 1
	}
	iter.Release()
	return n, iter.Error()
}

// IsEmpty - true if there is no first key
func (d *Database) IsEmpty() (bool, error) {
	iter := d.db.NewIterator(nil, nil)
	found := iter.First()
	iter.Release()
	return !found, iter.Error()
}

// Compact - compact the whole key range
func (d *Database) Compact() error {
	return d.db.CompactRange(ldb_util.Range{})
}

// Path - blank for the memory variant
func (d *Database) Path() string {
	if d.inMemory {
		return ""
	}
	return d.path
}

// IsPersistent - false for the memory variant
func (d *Database) IsPersistent() bool {
	return !d.inMemory
}

type keyIterator struct {
	iter iterator.Iterator
}

func (i *keyIterator) Next() bool {
	return i.iter.Next()
}

// Key - copy, the iterator reuses its buffer
func (i *keyIterator) Key() []byte {
	key := i.iter.Key()
	result := make([]byte, len(key))
	copy(result, key)
	return result
}

func (i *keyIterator) Release() {
	i.iter.Release()
}

func (i *keyIterator) Error() error {
	return i.iter.Error()
}
