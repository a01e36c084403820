// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package background_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/kvstore/background"
)

type ticker struct {
	ticks   atomic.Int64
	stopped atomic.Bool
}

func (state *ticker) Run(args interface{}, shutdown <-chan struct{}) {
	interval := args.(time.Duration)
loop:
	for {
		select {
		case <-shutdown:
			break loop
		case <-time.After(interval):
			state.ticks.Add(1)
		}
	}
	state.stopped.Store(true)
}

func TestBackground(t *testing.T) {
	proc1 := &ticker{}
	proc2 := &ticker{}

	p := background.Start(background.Processes{proc1, proc2}, time.Millisecond)

	assert.Eventually(t, func() bool {
		return proc1.ticks.Load() > 2 && proc2.ticks.Load() > 2
	}, time.Second, time.Millisecond, "processes did not run")

	p.Stop()

	assert.True(t, proc1.stopped.Load(), "stop returned before process 1 finished")
	assert.True(t, proc2.stopped.Load(), "stop returned before process 2 finished")

	// stop again is harmless
	p.Stop()
}

func TestStopNil(t *testing.T) {
	var p *background.T
	p.Stop()
}

func TestStartEmpty(t *testing.T) {
	p := background.Start(nil, nil)
	p.Stop()
}
