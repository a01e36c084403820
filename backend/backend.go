// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package backend - the contract a storage engine must satisfy
//
// The store core adds lifecycle, staging and locking on top of
// this; an engine only moves bytes.  Engines are not required to be
// safe for concurrent Write calls, the store serialises them when
// locking is enabled.
package backend

//go:generate mockgen -source=backend.go -destination=mocks/backend.go -package=mocks

// Operation - one element of an atomic write
type Operation struct {
	Key    []byte
	Value  []byte
	Delete bool
}

// Backend - byte oriented storage engine
type Backend interface {
	// Open acquires the engine resources, it is only called on a
	// closed engine
	Open() error

	// Close releases the engine resources
	Close() error

	// Get returns a copy of the value, found is false when the key
	// does not exist
	Get(key []byte) (value []byte, found bool, err error)

	// Has reports whether the key exists
	Has(key []byte) (bool, error)

	// NewIterator returns an iterator over a point in time view
	// of all keys, in key order
	NewIterator() (Iterator, error)

	// Write applies all operations or none of them
	Write(operations []Operation) error

	// Count returns the number of entries, may be an estimate
	Count() (int64, error)

	// IsEmpty reports whether there are no entries
	IsEmpty() (bool, error)

	// Path is the on-disk location, blank if not persistent
	Path() string

	// IsPersistent is false for engines that lose data on Close
	IsPersistent() bool
}

// Compacter - optional capability of engines that can compact
type Compacter interface {
	Compact() error
}

// Dropper - optional capability of engines that can delete every
// entry in a single atomic step cheaper than a full write
type Dropper interface {
	Drop() error
}

// Iterator - sequential access to keys
//
// Release must always be called
type Iterator interface {
	Next() bool
	Key() []byte
	Release()
	Error() error
}

// Options - sizing hints passed through from the store
// configuration, zero selects the engine default
type Options struct {
	CacheSize       int
	WriteBufferSize int
	Compactions     int
	Sync            bool
}
