// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package bolt - memory-mapped storage engine on bbolt
//
// All entries live in a single bucket. bbolt refuses an empty key so
// every key is stored behind a one byte prefix, which also lowers the
// longest usable key to bbolt.MaxKeySize-1 bytes.
package bolt

import (
	"bytes"
	"time"

	"go.etcd.io/bbolt"

	"github.com/bitmark-inc/kvstore/backend"
)

var (
	_ backend.Backend = (*Database)(nil)
	_ backend.Dropper = (*Database)(nil)
)

const (
	fileMode    = 0o600
	openTimeout = 1 * time.Second
)

var defaultBucket = []byte("kv")

const keyPrefix = 'k'

// on-disk form of a key
func storedKey(key []byte) []byte {
	k := make([]byte, 1, len(key)+1)
	k[0] = keyPrefix
	return append(k, key...)
}

// caller form of an on-disk key, copied out of the transaction
func userKey(k []byte) []byte {
	return append([]byte{}, k[1:]...)
}

// Database - a bbolt engine
type Database struct {
	path    string
	options backend.Options
	db      *bbolt.DB
}

// New - an engine backed by the file at path, not opened
func New(path string, options backend.Options) *Database {
	return &Database{
		path:    path,
		options: options,
	}
}

// Open - map the file and ensure the bucket exists
func (d *Database) Open() error {
	db, err := bbolt.Open(d.path, fileMode, &bbolt.Options{
		Timeout:         openTimeout,
		NoSync:          !d.options.Sync,
		InitialMmapSize: d.options.CacheSize,
	})
	if nil != err {
		return err
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(defaultBucket)
		return err
	})
	if nil != err {
		db.Close()
		return err
	}
	d.db = db
	return nil
}

// Close - unmap and close the file
func (d *Database) Close() error {
	if nil == d.db {
		return nil
	}
	err := d.db.Close()
	d.db = nil
	return err
}

// Get - read a copy of a value
func (d *Database) Get(key []byte) (value []byte, found bool, err error) {
	stored := storedKey(key)
	err = d.db.View(func(tx *bbolt.Tx) error {
		k, v := tx.Bucket(defaultBucket).Cursor().Seek(stored)
		if nil == k || !bytes.Equal(k, stored) {
			return nil
		}
		found = true
		value = append([]byte{}, v...)
		return nil
	})
	return
}

// Has - check if a key exists
func (d *Database) Has(key []byte) (bool, error) {
	_, found, err := d.Get(key)
	return found, err
}

// Write - apply all operations in one read-write transaction
func (d *Database) Write(operations []backend.Operation) error {
	return d.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(defaultBucket)
		for _, op := range operations {
			var err error
			if op.Delete {
				err = bucket.Delete(storedKey(op.Key))
			} else {
				err = bucket.Put(storedKey(op.Key), op.Value)
			}
			if nil != err {
				return err
			}
		}
		return nil
	})
}

// NewIterator - copy the keys out of a read transaction
//
// an open read transaction would block the writer from growing the
// memory map so it is not kept for the life of the iterator
func (d *Database) NewIterator() (backend.Iterator, error) {
	keys := make([][]byte, 0)
	err := d.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(defaultBucket).ForEach(func(k []byte, v []byte) error {
			keys = append(keys, userKey(k))
			return nil
		})
	})
	if nil != err {
		return nil, err
	}
	return &keyIterator{keys: keys, position: -1}, nil
}

// Count - exact number of keys from the bucket statistics
func (d *Database) Count() (n int64, err error) {
	err = d.db.View(func(tx *bbolt.Tx) error {
		n = int64(tx.Bucket(defaultBucket).Stats().KeyN)
		return nil
	})
	return
}

// IsEmpty - true if the bucket has no first key
func (d *Database) IsEmpty() (empty bool, err error) {
	err = d.db.View(func(tx *bbolt.Tx) error {
		k, _ := tx.Bucket(defaultBucket).Cursor().First()
		empty = nil == k
		return nil
	})
	return
}

// Drop - replace the bucket with an empty one
func (d *Database) Drop() error {
	return d.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(defaultBucket); nil != err {
			return err
		}
		_, err := tx.CreateBucket(defaultBucket)
		return err
	})
}

// Path - the database file
func (d *Database) Path() string {
	return d.path
}

// IsPersistent - always true
func (d *Database) IsPersistent() bool {
	return true
}

type keyIterator struct {
	keys     [][]byte
	position int
}

func (i *keyIterator) Next() bool {
	if i.position >= len(i.keys) {
		return false
	}
	i.position += 1
	return i.position < len(i.keys)
}

func (i *keyIterator) Key() []byte {
	if i.position < 0 || i.position >= len(i.keys) {
		return nil
	}
	return i.keys[i.position]
}

func (i *keyIterator) Release() {
	i.keys = nil
	i.position = 0
}

func (i *keyIterator) Error() error {
	return nil
}
