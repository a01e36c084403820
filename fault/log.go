// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fault

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/bitmark-inc/logger"
)

// channel for faults that leave a store unusable
var faultLog struct {
	sync.Mutex
	log *logger.L
}

// Initialise - setup the log channel used for critical faults
//
// the logger must already be initialised
func Initialise() error {
	faultLog.Lock()
	defer faultLog.Unlock()

	if nil != faultLog.log {
		return ErrAlreadyInitialised
	}
	faultLog.log = logger.New("fault")
	if nil == faultLog.log {
		return ErrInvalidLoggerChannel
	}
	return nil
}

// Finalise - flush and detach the log channel
func Finalise() {
	faultLog.Lock()
	defer faultLog.Unlock()

	if nil != faultLog.log {
		faultLog.log.Flush()
		faultLog.log = nil
	}
}

// Criticalf - log a formatted string with the caller's location
func Criticalf(format string, arguments ...interface{}) {
	if _, file, line, ok := runtime.Caller(1); ok {
		a := make([]interface{}, 2, 2+len(arguments))
		a[0] = file
		a[1] = line
		a = append(a, arguments...)
		internalCriticalf("(%q:%d) "+format, a...)
	} else {
		internalCriticalf(format, arguments...)
	}
}

// fall back to stdout when no channel was set up
func internalCriticalf(format string, arguments ...interface{}) {
	faultLog.Lock()
	defer faultLog.Unlock()

	if nil == faultLog.log {
		fmt.Printf("*** "+format+"\n", arguments...)
		return
	}
	faultLog.log.Criticalf(format, arguments...)
	faultLog.log.Flush()
}
