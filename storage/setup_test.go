// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage_test

import (
	"fmt"
	"os"
	"sync/atomic"
	"testing"

	"github.com/bitmark-inc/logger"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/kvstore/fault"
	"github.com/bitmark-inc/kvstore/storage"
)

// holds the log files of the test run
var testingDirName string

// Test main entrypoint
func TestMain(m *testing.M) {
	if err := setup(); nil != err {
		fmt.Fprintf(os.Stderr, "setup error: %s\n", err)
		os.Exit(1)
	}
	result := m.Run()
	teardown()
	os.Exit(result)
}

// configure for testing
func setup() error {
	dir, err := os.MkdirTemp("", "kvstore-storage-")
	if nil != err {
		return err
	}
	testingDirName = dir

	logging := logger.Configuration{
		Directory: testingDirName,
		File:      "testing.log",
		Size:      1048576,
		Count:     10,
		Console:   false,
		Levels: map[string]string{
			logger.DefaultTag: "trace",
		},
	}

	// start logging
	if err := logger.Initialise(logging); nil != err {
		return err
	}
	return fault.Initialise()
}

// post test cleanup
func teardown() {
	fault.Finalise()
	logger.Finalise()
	os.RemoveAll(testingDirName)
}

// every store in a run gets a distinct name
var storeCounter atomic.Int64

func nextName() string {
	return fmt.Sprintf("test-store-%d", storeCounter.Add(1))
}

// a CLOSED store in a temporary directory, closed at the end of the test
func newTestStore(t *testing.T, variant string, locking bool) *storage.Store {
	conf := &storage.Configuration{
		Name:      nextName(),
		Backend:   variant,
		Locking:   locking,
		Directory: t.TempDir(),
	}
	s, err := storage.New(conf)
	require.NoError(t, err, "create store")

	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

// an OPEN store
func openTestStore(t *testing.T, variant string, locking bool) *storage.Store {
	s := newTestStore(t, variant, locking)
	require.NoError(t, s.Open(), "open store")
	return s
}

// count all keys of a store
func countKeys(t *testing.T, s *storage.Store) int {
	cursor, err := s.Keys()
	require.NoError(t, err, "keys")
	n, err := cursor.Count()
	require.NoError(t, err, "count keys")
	return n
}
