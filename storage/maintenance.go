// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"time"

	"github.com/bitmark-inc/kvstore/background"
	"github.com/bitmark-inc/kvstore/fault"
)

// compacts an OPEN store at a fixed interval
type compactor struct {
	store *Store
}

func (c *compactor) Run(args interface{}, shutdown <-chan struct{}) {
	interval := args.(time.Duration)
	log := c.store.log

	log.Infof("%s: compaction every %s", c.store.name, interval)

	timer := time.NewTimer(interval)
	defer timer.Stop()

loop:
	for {
		select {
		case <-shutdown:
			break loop
		case <-timer.C:
			start := time.Now()
			err := c.store.Compact()
			switch {
			case nil == err:
				log.Debugf("%s: compacted in %s", c.store.name, time.Since(start))
			case fault.IsErrLifecycle(err):
				c.store.maintenanceExited(c)
				break loop
			default:
				log.Errorf("%s: compaction error: %s", c.store.name, err)
			}
			timer.Reset(interval)
		}
	}
	log.Debugf("%s: compaction stopped", c.store.name)
}

// start periodic compaction if configured
func (s *Store) startMaintenance() {
	if s.compactEvery <= 0 {
		return
	}

	s.maintenance.Lock()
	defer s.maintenance.Unlock()

	if nil != s.maintenance.running {
		return
	}
	c := &compactor{store: s}
	s.maintenance.current = c
	s.maintenance.running = background.Start(background.Processes{c}, s.compactEvery)
}

// a compactor that found the store closed gives up its slot so the
// next Open can start another
func (s *Store) maintenanceExited(c *compactor) {
	s.maintenance.Lock()
	defer s.maintenance.Unlock()

	if c == s.maintenance.current {
		s.maintenance.current = nil
		s.maintenance.running = nil
	}
}

// stop periodic compaction, waits for a compaction in progress
//
// must not be called while holding the coordinator
func (s *Store) stopMaintenance() {
	s.maintenance.Lock()
	running := s.maintenance.running
	s.maintenance.running = nil
	s.maintenance.current = nil
	s.maintenance.Unlock()

	running.Stop()
}
