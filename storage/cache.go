// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"time"

	cache "github.com/patrickmn/go-cache"
)

// Cache - committed values recently read or written
//
// the store keeps it coherent: every successful write to the engine
// is replayed into the cache before the mutating operation returns
type Cache interface {
	Get(string) ([]byte, bool)
	Set(dbOperation, string, []byte)
	Clear()
}

const (
	cleanupFactor = 2
)

type dbCache struct {
	cache *cache.Cache
}

// newCache - a zero or negative expiry disables caching
func newCache(expiry time.Duration) Cache {
	if expiry <= 0 {
		return nullCache{}
	}
	return &dbCache{
		cache: cache.New(expiry, cleanupFactor*expiry),
	}
}

func (c *dbCache) Get(key string) ([]byte, bool) {
	obj, found := c.cache.Get(key)
	if !found {
		return nil, false
	}
	return copyBytes(obj.([]byte)), true
}

// Set - a delete evicts the key so the next read goes to the engine
func (c *dbCache) Set(op dbOperation, key string, value []byte) {
	if dbDelete == op {
		c.cache.Delete(key)
		return
	}
	c.cache.SetDefault(key, copyBytes(value))
}

func (c *dbCache) Clear() {
	c.cache.Flush()
}

type nullCache struct{}

func (nullCache) Get(string) ([]byte, bool)       { return nil, false }
func (nullCache) Set(dbOperation, string, []byte) {}
func (nullCache) Clear()                          {}
