// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"sort"

	"github.com/bitmark-inc/kvstore/backend"
)

type dbOperation int

const (
	dbPut dbOperation = iota
	dbDelete
)

type batchEntry struct {
	op    dbOperation
	value []byte
}

// pending changes of one store handle, the last change staged for
// a key replaces any earlier one
//
// not safe for concurrent use, the store serialises access
type batch struct {
	entries map[string]batchEntry
}

func newBatch() *batch {
	return &batch{
		entries: make(map[string]batchEntry),
	}
}

func (b *batch) put(key []byte, value []byte) {
	b.entries[string(key)] = batchEntry{
		op:    dbPut,
		value: copyBytes(value),
	}
}

func (b *batch) remove(key []byte) {
	b.entries[string(key)] = batchEntry{
		op: dbDelete,
	}
}

func (b *batch) size() int {
	return len(b.entries)
}

// the staged changes in key order
func (b *batch) operations() []backend.Operation {
	keys := make([]string, 0, len(b.entries))
	for k := range b.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	operations := make([]backend.Operation, 0, len(keys))
	for _, k := range keys {
		e := b.entries[k]
		operations = append(operations, backend.Operation{
			Key:    []byte(k),
			Value:  e.value,
			Delete: dbDelete == e.op,
		})
	}
	return operations
}

func (b *batch) reset() {
	b.entries = make(map[string]batchEntry)
}

// copy a byte slice, nil becomes empty
func copyBytes(b []byte) []byte {
	result := make([]byte, len(b))
	copy(result, b)
	return result
}
