// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package leveldb_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/kvstore/backend"
	"github.com/bitmark-inc/kvstore/backend/backendtest"
	"github.com/bitmark-inc/kvstore/backend/leveldb"
)

func TestLevelDB(t *testing.T) {
	backendtest.Run(t, func(t *testing.T) backend.Backend {
		return leveldb.New(filepath.Join(t.TempDir(), "test.leveldb"), backend.Options{})
	})
}

func TestMemory(t *testing.T) {
	backendtest.Run(t, func(t *testing.T) backend.Backend {
		return leveldb.NewMemory(backend.Options{CacheSize: 1024 * 1024})
	})
}

func TestLevelDBReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.leveldb")
	engine := leveldb.New(path, backend.Options{Sync: true})

	assert.True(t, engine.IsPersistent())
	assert.Equal(t, path, engine.Path())
	backendtest.Reopen(t, engine)
}

func TestMemoryReopen(t *testing.T) {
	engine := leveldb.NewMemory(backend.Options{})

	assert.False(t, engine.IsPersistent())
	assert.Equal(t, "", engine.Path())
	backendtest.Reopen(t, engine)
}

func TestCloseUnopened(t *testing.T) {
	engine := leveldb.NewMemory(backend.Options{})
	assert.NoError(t, engine.Close())
}
