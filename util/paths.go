// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package util - file system helpers for configuration
package util

import (
	"os"
	"path/filepath"
)

// private to the user running the store
const directoryMode = 0o700

// AbsolutePath - path relative to directory unless already absolute
func AbsolutePath(directory string, path string) string {
	if !filepath.IsAbs(path) {
		path = filepath.Join(directory, path)
	}
	return filepath.Clean(path)
}

// FileExists - true if anything is at name
func FileExists(name string) bool {
	_, err := os.Stat(name)
	return nil == err
}

// IsDirectory - false if path is not a directory, error if it is
// missing
func IsDirectory(path string) (bool, error) {
	info, err := os.Stat(path)
	if nil != err {
		return false, err
	}
	return info.IsDir(), nil
}

// MakeDirectory - create path and any missing parents
func MakeDirectory(path string) error {
	return os.MkdirAll(path, directoryMode)
}
