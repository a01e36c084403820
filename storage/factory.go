// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/bitmark-inc/kvstore/backend"
	"github.com/bitmark-inc/kvstore/backend/bolt"
	"github.com/bitmark-inc/kvstore/backend/leveldb"
	"github.com/bitmark-inc/kvstore/backend/pebble"
	"github.com/bitmark-inc/kvstore/fault"
)

// backend variants
const (
	LevelDB = "leveldb"
	Pebble  = "pebble"
	Bolt    = "bolt"
	Memory  = "memory"
)

// engine cache per available CPU when no cache size is configured
const cachePerCPU = 2 * 1024 * 1024

// Configuration - store selection and engine hints
//
// nil sizing hints are derived at construction time
type Configuration struct {
	Name            string `gluamapper:"name" json:"name"`
	Backend         string `gluamapper:"backend" json:"backend"`
	Locking         bool   `gluamapper:"locking" json:"locking"`
	Directory       string `gluamapper:"directory" json:"directory"`
	CacheSize       *int   `gluamapper:"cache_size" json:"cache_size"`
	WriteBufferSize *int   `gluamapper:"write_buffer_size" json:"write_buffer_size"`
	Compactions     *int   `gluamapper:"compactions" json:"compactions"`
	ReadCacheExpiry int    `gluamapper:"read_cache_expiry" json:"read_cache_expiry"`
	CompactInterval int    `gluamapper:"compact_interval" json:"compact_interval"`
	Sync            bool   `gluamapper:"sync" json:"sync"`
}

// Variants - the recognised backend names
func Variants() []string {
	return []string{LevelDB, Pebble, Bolt, Memory}
}

// New - create a CLOSED store from a configuration
func New(conf *Configuration) (*Store, error) {
	if nil == conf {
		return nil, fault.ErrMissingConfiguration
	}
	if "" == conf.Name {
		return nil, fault.ErrMissingName
	}
	if strings.ContainsAny(conf.Name, `/\`) || "." == conf.Name || ".." == conf.Name {
		return nil, fault.ErrInvalidName
	}
	if "" == conf.Backend {
		return nil, fault.ErrMissingBackend
	}

	options, err := engineOptions(conf)
	if nil != err {
		return nil, err
	}

	variant := strings.ToLower(conf.Backend)

	var engine backend.Backend
	location := ""
	switch variant {
	case Memory:
		engine = leveldb.NewMemory(options)
		location = Memory + ":" + conf.Name

	case LevelDB, Pebble, Bolt:
		if "" == conf.Directory {
			return nil, fault.ErrMissingDirectory
		}
		path := filepath.Join(filepath.Clean(conf.Directory), conf.Name+"."+variant)
		switch variant {
		case LevelDB:
			engine = leveldb.New(path, options)
		case Pebble:
			engine = pebble.New(path, options)
		case Bolt:
			engine = bolt.New(path, options)
		}
		location = path
		if abs, err := filepath.Abs(path); nil == err {
			location = abs
		}

	default:
		return nil, fault.ErrUnknownBackend
	}

	cache := newCache(time.Duration(conf.ReadCacheExpiry) * time.Second)
	s := newStore(conf.Name, variant, location, engine, conf.Locking, cache)
	s.compactEvery = time.Duration(conf.CompactInterval) * time.Second
	return s, nil
}

// resolve the sizing hints, absent values are derived from the
// available parallelism or left to the engine
func engineOptions(conf *Configuration) (backend.Options, error) {
	parallelism := runtime.GOMAXPROCS(0)

	options := backend.Options{
		CacheSize:   parallelism * cachePerCPU,
		Compactions: parallelism,
		Sync:        conf.Sync,
	}

	if nil != conf.CacheSize {
		if *conf.CacheSize < 0 {
			return options, fault.ErrInvalidSize
		}
		options.CacheSize = *conf.CacheSize
	}
	if nil != conf.WriteBufferSize {
		if *conf.WriteBufferSize < 0 {
			return options, fault.ErrInvalidSize
		}
		options.WriteBufferSize = *conf.WriteBufferSize
	}
	if nil != conf.Compactions {
		if *conf.Compactions < 0 {
			return options, fault.ErrInvalidSize
		}
		options.Compactions = *conf.Compactions
	}
	if conf.ReadCacheExpiry < 0 || conf.CompactInterval < 0 {
		return options, fault.ErrInvalidSize
	}
	return options, nil
}
