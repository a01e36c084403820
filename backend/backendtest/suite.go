// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package backendtest - behaviour every storage engine must show
package backendtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/kvstore/backend"
)

// Factory - return a new unopened engine for one test
type Factory func(t *testing.T) backend.Backend

// Run - the common engine tests
func Run(t *testing.T, factory Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, engine backend.Backend)
	}{
		{name: "basic_put_get", fn: testBasicPutGet},
		{name: "empty_key", fn: testEmptyKey},
		{name: "delete_operations", fn: testDelete},
		{name: "atomic_write", fn: testAtomicWrite},
		{name: "iterate_in_order", fn: testIterateInOrder},
		{name: "iterator_is_snapshot", fn: testIteratorSnapshot},
		{name: "count_and_empty", fn: testCountAndEmpty},
		{name: "optional_capabilities", fn: testOptionalCapabilities},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			engine := factory(t)
			require.NoError(t, engine.Open())
			defer engine.Close()

			tc.fn(t, engine)
		})
	}
}

func put(t *testing.T, engine backend.Backend, key string, value string) {
	err := engine.Write([]backend.Operation{{Key: []byte(key), Value: []byte(value)}})
	require.NoError(t, err)
}

func keys(t *testing.T, engine backend.Backend) []string {
	iter, err := engine.NewIterator()
	require.NoError(t, err)
	defer iter.Release()

	result := make([]string, 0)
	for iter.Next() {
		result = append(result, string(iter.Key()))
	}
	require.NoError(t, iter.Error())
	return result
}

func testBasicPutGet(t *testing.T, engine backend.Backend) {
	put(t, engine, "test-key", "test-value")

	value, found, err := engine.Get([]byte("test-key"))
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("test-value"), value)

	found, err = engine.Has([]byte("test-key"))
	require.NoError(t, err)
	assert.True(t, found)

	// non-existent key
	_, found, err = engine.Get([]byte("non-existent"))
	require.NoError(t, err)
	assert.False(t, found)

	// a prefix of an existing key is a different key
	_, found, err = engine.Get([]byte("test"))
	require.NoError(t, err)
	assert.False(t, found)

	// empty value
	put(t, engine, "empty", "")
	value, found, err = engine.Get([]byte("empty"))
	require.NoError(t, err)
	assert.True(t, found, "empty value not found")
	assert.Empty(t, value)
}

func testEmptyKey(t *testing.T, engine backend.Backend) {
	err := engine.Write([]backend.Operation{
		{Key: []byte{}, Value: []byte("empty")},
		{Key: []byte("a"), Value: []byte("1")},
	})
	require.NoError(t, err)

	value, found, err := engine.Get([]byte{})
	require.NoError(t, err)
	assert.True(t, found, "empty key not found")
	assert.Equal(t, []byte("empty"), value)

	// sorts before every other key
	assert.Equal(t, []string{"", "a"}, keys(t, engine))

	n, err := engine.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	err = engine.Write([]backend.Operation{{Key: []byte{}, Delete: true}})
	require.NoError(t, err)

	found, err = engine.Has([]byte{})
	require.NoError(t, err)
	assert.False(t, found)
}

func testDelete(t *testing.T, engine backend.Backend) {
	put(t, engine, "delete-test", "to-be-deleted")

	err := engine.Write([]backend.Operation{{Key: []byte("delete-test"), Delete: true}})
	require.NoError(t, err)

	found, err := engine.Has([]byte("delete-test"))
	require.NoError(t, err)
	assert.False(t, found)

	// delete of a non-existent key should not error
	err = engine.Write([]backend.Operation{{Key: []byte("non-existent"), Delete: true}})
	assert.NoError(t, err)
}

func testAtomicWrite(t *testing.T, engine backend.Backend) {
	put(t, engine, "old", "1")

	err := engine.Write([]backend.Operation{
		{Key: []byte("a"), Value: []byte("1")},
		{Key: []byte("b"), Value: []byte("2")},
		{Key: []byte("old"), Delete: true},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, keys(t, engine))
}

func testIterateInOrder(t *testing.T, engine backend.Backend) {
	for _, k := range []string{"c", "a", "d", "b"} {
		put(t, engine, k, k)
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, keys(t, engine))

	// keys stay valid after the iterator moves on
	iter, err := engine.NewIterator()
	require.NoError(t, err)
	require.True(t, iter.Next())
	first := iter.Key()
	require.True(t, iter.Next())
	iter.Release()
	assert.Equal(t, []byte("a"), first)
}

func testIteratorSnapshot(t *testing.T, engine backend.Backend) {
	put(t, engine, "k1", "1")

	iter, err := engine.NewIterator()
	require.NoError(t, err)
	defer iter.Release()

	put(t, engine, "k2", "2")

	result := make([]string, 0)
	for iter.Next() {
		result = append(result, string(iter.Key()))
	}
	require.NoError(t, iter.Error())
	assert.Equal(t, []string{"k1"}, result)
}

func testCountAndEmpty(t *testing.T, engine backend.Backend) {
	empty, err := engine.IsEmpty()
	require.NoError(t, err)
	assert.True(t, empty)

	n, err := engine.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	put(t, engine, "a", "1")
	put(t, engine, "b", "2")

	empty, err = engine.IsEmpty()
	require.NoError(t, err)
	assert.False(t, empty)

	n, err = engine.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func testOptionalCapabilities(t *testing.T, engine backend.Backend) {
	put(t, engine, "a", "1")
	put(t, engine, "b", "2")

	if compacter, ok := engine.(backend.Compacter); ok {
		require.NoError(t, compacter.Compact())
		assert.Equal(t, []string{"a", "b"}, keys(t, engine), "compact lost data")
	}

	if dropper, ok := engine.(backend.Dropper); ok {
		require.NoError(t, dropper.Drop())
		assert.Empty(t, keys(t, engine), "drop left data")

		// drop of an empty engine
		require.NoError(t, dropper.Drop())

		put(t, engine, "c", "3")
		assert.Equal(t, []string{"c"}, keys(t, engine), "engine unusable after drop")
	}
}

// Reopen - data written before Close is seen after Open when
// persistent and gone when not
func Reopen(t *testing.T, engine backend.Backend) {
	require.NoError(t, engine.Open())
	put(t, engine, "kept", "value")
	require.NoError(t, engine.Close())

	require.NoError(t, engine.Open())
	defer engine.Close()

	_, found, err := engine.Get([]byte("kept"))
	require.NoError(t, err)
	assert.Equal(t, engine.IsPersistent(), found)
}
