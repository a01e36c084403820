// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package configuration_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bitmark-inc/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/kvstore/configuration"
	"github.com/bitmark-inc/kvstore/fault"
	"github.com/bitmark-inc/kvstore/storage"
)

// write a configuration file into a new directory
func writeConfiguration(t *testing.T, content string) string {
	dir := t.TempDir()
	fileName := filepath.Join(dir, "kvstore.conf")
	require.NoError(t, os.WriteFile(fileName, []byte(content), 0600))
	return fileName
}

func TestGetConfiguration(t *testing.T) {
	fileName := writeConfiguration(t, `
return {
    data_directory = ".",
    store = {
        name = "chain",
        backend = "Pebble",
        locking = true,
        directory = "stores",
        cache_size = 8388608,
        compactions = 2,
        read_cache_expiry = 30,
        sync = true,
    },
    logging = {
        directory = "logs",
        file = "test.log",
        size = 4096,
        count = 3,
        levels = { DEFAULT = "info", storage = "debug" },
    },
}
`)
	dir := filepath.Dir(fileName)

	conf, err := configuration.GetConfiguration(fileName)
	require.NoError(t, err)

	assert.Equal(t, filepath.Clean(dir), filepath.Clean(conf.DataDirectory))

	assert.Equal(t, "chain", conf.Store.Name)
	assert.Equal(t, storage.Pebble, conf.Store.Backend, "backend not normalised")
	assert.True(t, conf.Store.Locking)
	assert.Equal(t, filepath.Join(dir, "stores"), conf.Store.Directory)
	require.NotNil(t, conf.Store.CacheSize)
	assert.Equal(t, 8388608, *conf.Store.CacheSize)
	require.NotNil(t, conf.Store.Compactions)
	assert.Equal(t, 2, *conf.Store.Compactions)
	assert.Nil(t, conf.Store.WriteBufferSize, "absent hint must stay absent")
	assert.Equal(t, 30, conf.Store.ReadCacheExpiry)
	assert.True(t, conf.Store.Sync)

	assert.Equal(t, filepath.Join(dir, "logs"), conf.Logging.Directory)
	assert.Equal(t, "test.log", conf.Logging.File)
	assert.Equal(t, 4096, conf.Logging.Size)
	assert.Equal(t, 3, conf.Logging.Count)
	assert.Equal(t, "debug", conf.Logging.Levels["storage"])

	assert.DirExists(t, conf.Store.Directory)
	assert.DirExists(t, conf.Logging.Directory)
}

func TestGetConfigurationDefaults(t *testing.T) {
	fileName := writeConfiguration(t, `
return {
    data_directory = ".",
}
`)
	dir := filepath.Dir(fileName)

	conf, err := configuration.GetConfiguration(fileName)
	require.NoError(t, err)

	assert.Equal(t, "kvstore", conf.Store.Name)
	assert.Equal(t, storage.LevelDB, conf.Store.Backend)
	assert.True(t, conf.Store.Locking, "locking should default on")
	assert.Equal(t, filepath.Join(dir, "data"), conf.Store.Directory)
	assert.Nil(t, conf.Store.CacheSize)

	assert.Equal(t, filepath.Join(dir, "log"), conf.Logging.Directory)
	assert.Equal(t, "kvstore.log", conf.Logging.File)
	assert.Equal(t, "critical", conf.Logging.Levels[logger.DefaultTag])

	// the result is usable by the factory
	s, err := storage.New(&conf.Store)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "data", "kvstore.leveldb"), s.Path())
}

func TestGetConfigurationEnvironment(t *testing.T) {
	t.Setenv("KVSTORE_TEST_NAME", "from-env")

	fileName := writeConfiguration(t, `
return {
    data_directory = ".",
    store = {
        name = os.getenv("KVSTORE_TEST_NAME"),
        backend = "memory",
    },
}
`)

	conf, err := configuration.GetConfiguration(fileName)
	require.NoError(t, err)

	assert.Equal(t, "from-env", conf.Store.Name)
	assert.Equal(t, storage.Memory, conf.Store.Backend)
	assert.NoDirExists(t, filepath.Join(filepath.Dir(fileName), "data"), "memory store created a directory")
}

func TestGetConfigurationErrors(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected error
	}{
		{
			name:     "unknown backend",
			content:  `return { data_directory = ".", store = { backend = "rocksdb" } }`,
			expected: fault.ErrUnknownBackend,
		},
		{
			name:     "missing data directory",
			content:  `return { store = { backend = "leveldb" } }`,
			expected: fault.ErrInvalidDataDirectory,
		},
		{
			name:     "home data directory",
			content:  `return { data_directory = "~" }`,
			expected: fault.ErrInvalidDataDirectory,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := configuration.GetConfiguration(writeConfiguration(t, tc.content))
			assert.ErrorIs(t, err, tc.expected)
			assert.True(t, fault.IsErrConfiguration(err))
		})
	}
}

func TestGetConfigurationBadFiles(t *testing.T) {
	_, err := configuration.GetConfiguration(filepath.Join(t.TempDir(), "missing.conf"))
	assert.Error(t, err, "missing file")

	_, err = configuration.GetConfiguration(writeConfiguration(t, `return {`))
	assert.Error(t, err, "syntax error")

	_, err = configuration.GetConfiguration(writeConfiguration(t, `return 42`))
	assert.Error(t, err, "not a table")

	_, err = configuration.GetConfiguration(writeConfiguration(t, `
return {
    data_directory = "no-such-directory",
}
`))
	assert.Error(t, err, "data directory does not exist")

	_, err = configuration.GetConfiguration(writeConfiguration(t, `
return {
    data_directory = ".",
    logging = { file = "sub/kvstore.log" },
}
`))
	assert.Error(t, err, "log file is a path")
}

func TestParseConfigurationFileNeedsStructPointer(t *testing.T) {
	fileName := writeConfiguration(t, `return {}`)

	var conf configuration.Configuration
	assert.ErrorIs(t, configuration.ParseConfigurationFile(fileName, conf), fault.ErrInvalidStructPointer)
	assert.ErrorIs(t, configuration.ParseConfigurationFile(fileName, nil), fault.ErrInvalidStructPointer)

	n := 0
	assert.ErrorIs(t, configuration.ParseConfigurationFile(fileName, &n), fault.ErrInvalidStructPointer)

	assert.NoError(t, configuration.ParseConfigurationFile(fileName, &conf))
}
