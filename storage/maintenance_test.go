// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/kvstore/backend/mocks"
)

// an engine with the compaction capability
type compactingEngine struct {
	*mocks.MockBackend
	*mocks.MockCompacter
}

func TestPeriodicCompaction(t *testing.T) {
	ctl := gomock.NewController(t)
	engine := compactingEngine{
		MockBackend:   mocks.NewMockBackend(ctl),
		MockCompacter: mocks.NewMockCompacter(ctl),
	}

	var compactions atomic.Int64
	engine.MockBackend.EXPECT().Path().Return("").AnyTimes()
	engine.MockBackend.EXPECT().Open().Return(nil).Times(1)
	engine.MockCompacter.EXPECT().Compact().DoAndReturn(func() error {
		if 2 == compactions.Add(1) {
			return errors.New("compaction failed")
		}
		return nil
	}).MinTimes(3)

	s := newStore("maintained", "mock", "mock:"+t.Name(), engine, true, nullCache{})
	s.compactEvery = 5 * time.Millisecond
	t.Cleanup(func() {
		unregister(s.location, s)
	})

	require.NoError(t, s.Open())

	// an engine error does not stop the schedule
	assert.Eventually(t, func() bool {
		return compactions.Load() >= 3
	}, 5*time.Second, time.Millisecond, "compaction did not run")

	engine.MockBackend.EXPECT().Close().Return(nil).Times(1)
	require.NoError(t, s.Close())

	// nothing runs once closed
	n := compactions.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, n, compactions.Load(), "compaction after close")
}

func TestNoPeriodicCompactionByDefault(t *testing.T) {
	s, engine := setupMockStore(t, nullCache{})

	assert.Nil(t, s.maintenance.running)

	engine.EXPECT().Close().Return(nil).Times(1)
	require.NoError(t, s.Close())
}

func TestCompactionRestartsAfterClosedStoreExit(t *testing.T) {
	ctl := gomock.NewController(t)
	engine := compactingEngine{
		MockBackend:   mocks.NewMockBackend(ctl),
		MockCompacter: mocks.NewMockCompacter(ctl),
	}

	var compactions atomic.Int64
	engine.MockBackend.EXPECT().Path().Return("").AnyTimes()
	engine.MockBackend.EXPECT().Open().Return(nil).Times(1)
	engine.MockCompacter.EXPECT().Compact().DoAndReturn(func() error {
		compactions.Add(1)
		return nil
	}).MinTimes(1)

	s := newStore("maintained", "mock", "mock:"+t.Name(), engine, true, nullCache{})
	s.compactEvery = 5 * time.Millisecond
	t.Cleanup(func() {
		unregister(s.location, s)
	})

	// a compactor that lost a race with Close sees a closed store
	s.startMaintenance()
	assert.Eventually(t, func() bool {
		s.maintenance.Lock()
		defer s.maintenance.Unlock()
		return nil == s.maintenance.running
	}, 5*time.Second, time.Millisecond, "compactor on a closed store kept its slot")
	assert.Equal(t, int64(0), compactions.Load())

	require.NoError(t, s.Open())
	assert.Eventually(t, func() bool {
		return compactions.Load() >= 1
	}, 5*time.Second, time.Millisecond, "compaction not restarted by open")

	engine.MockBackend.EXPECT().Close().Return(nil).Times(1)
	require.NoError(t, s.Close())
}
