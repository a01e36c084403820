// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package configuration

import (
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/kvstore/fault"
	"github.com/bitmark-inc/kvstore/storage"
	"github.com/bitmark-inc/kvstore/util"
)

// basic defaults (directories and files are relative to the "DataDirectory" from Configuration file)
const (
	defaultDataDirectory = "" // this will error; use "." for the same directory as the config file

	defaultStoreName      = "kvstore"
	defaultStoreBackend   = storage.LevelDB
	defaultStoreDirectory = "data"

	defaultLogDirectory = "log"
	defaultLogFile      = "kvstore.log"
	defaultLogCount     = 10          //  number of log files retained
	defaultLogSize      = 1024 * 1024 // rotate when <logfile> exceeds this size
)

// LoglevelMap - to hold log levels
type LoglevelMap map[string]string

// path expanded or calculated defaults
var (
	defaultLogLevels = LoglevelMap{
		"main":            "info",
		"storage":         "info",
		logger.DefaultTag: "critical",
	}
)

// Configuration - contents of a configuration file
type Configuration struct {
	DataDirectory string                `gluamapper:"data_directory" json:"data_directory"`
	Store         storage.Configuration `gluamapper:"store" json:"store"`
	Logging       logger.Configuration  `gluamapper:"logging" json:"logging"`
}

// GetConfiguration - read decode and verify the configuration
func GetConfiguration(configurationFileName string) (*Configuration, error) {

	configurationFileName, err := filepath.Abs(filepath.Clean(configurationFileName))
	if nil != err {
		return nil, err
	}

	// absolute path to the main directory
	dataDirectory, _ := filepath.Split(configurationFileName)

	options := &Configuration{
		DataDirectory: defaultDataDirectory,

		Store: storage.Configuration{
			Name:      defaultStoreName,
			Backend:   defaultStoreBackend,
			Locking:   true,
			Directory: defaultStoreDirectory,
		},

		Logging: logger.Configuration{
			Directory: defaultLogDirectory,
			File:      defaultLogFile,
			Size:      defaultLogSize,
			Count:     defaultLogCount,
			Levels:    maps.Clone(defaultLogLevels),
		},
	}

	if err := ParseConfigurationFile(configurationFileName, options); err != nil {
		return nil, err
	}

	// abort early if the backend is not recognised
	options.Store.Backend = strings.ToLower(options.Store.Backend)
	if !slices.Contains(storage.Variants(), options.Store.Backend) {
		return nil, fault.ErrUnknownBackend
	}

	// ensure absolute data directory
	if "" == options.DataDirectory || "~" == options.DataDirectory {
		return nil, fault.ErrInvalidDataDirectory
	} else if "." == options.DataDirectory {
		options.DataDirectory = dataDirectory // same directory as the configuration file
	} else {
		options.DataDirectory = util.AbsolutePath(dataDirectory, options.DataDirectory)
	}

	// this directory must exist - i.e. must be created prior to running
	if ok, err := util.IsDirectory(options.DataDirectory); nil != err {
		return nil, err
	} else if !ok {
		return nil, fmt.Errorf("path: %q is not a directory: %w", options.DataDirectory, fault.ErrInvalidDataDirectory)
	}

	// log file must be a plain name
	switch filepath.Dir(options.Logging.File) {
	case "", ".":
	default:
		return nil, fmt.Errorf("files: %q is not plain name", options.Logging.File)
	}

	// make absolute and create directories if they do not already exist
	directories := []*string{
		&options.Logging.Directory,
	}
	if storage.Memory != options.Store.Backend {
		directories = append(directories, &options.Store.Directory)
	}
	for _, d := range directories {
		*d = util.AbsolutePath(options.DataDirectory, *d)
		if err := util.MakeDirectory(*d); nil != err {
			return nil, err
		}
	}

	return options, nil
}
