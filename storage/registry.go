// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"sync"

	"github.com/bitmark-inc/kvstore/fault"
)

// locations owned by an open store in this process
var openStores struct {
	sync.Mutex
	owner map[string]*Store
}

func register(location string, s *Store) error {
	openStores.Lock()
	defer openStores.Unlock()

	if nil == openStores.owner {
		openStores.owner = make(map[string]*Store)
	}
	if owner, ok := openStores.owner[location]; ok && owner != s {
		return fault.ErrAlreadyOpen
	}
	openStores.owner[location] = s
	return nil
}

func unregister(location string, s *Store) {
	openStores.Lock()
	defer openStores.Unlock()

	if openStores.owner[location] == s {
		delete(openStores.owner, location)
	}
}
